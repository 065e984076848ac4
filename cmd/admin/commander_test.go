package admin

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nicolastakashi/banshee-console/internal/banshee"
	"github.com/nicolastakashi/banshee-console/internal/i18n"
)

type fixture struct {
	commander *commander
	out       *bytes.Buffer
	deletes   *atomic.Int32
}

func newFixture(t *testing.T, stdin string, o options) fixture {
	t.Helper()
	deletes := &atomic.Int32{}
	mux := http.NewServeMux()
	writeJSON := func(w http.ResponseWriter, status int, v any) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(v)
	}
	mux.HandleFunc("GET /api/teams", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, []banshee.Team{{ID: 1, Name: "sre"}})
	})
	mux.HandleFunc("GET /api/project/{id}/users", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, []banshee.User{{ID: 2, Name: "bob", Email: "bob@example.com"}})
	})
	mux.HandleFunc("GET /api/project/{id}/rules", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, []banshee.Rule{{ID: 5, Pattern: "stats.timers.api.get.mean", TrendUp: true}})
	})
	mux.HandleFunc("GET /api/project/{id}/events", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, []banshee.Event{{Name: "counter.a", Stamp: 1700000000, Score: 1.5, Value: 1200, Comment: "api errors"}})
	})
	mux.HandleFunc("GET /api/interval", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, banshee.Interval{Interval: 10})
	})
	mux.HandleFunc("GET /api/team/{id}/projects", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, []banshee.Project{{ID: 3, Name: "api", TeamID: 1}})
	})
	mux.HandleFunc("GET /api/user/{id}/projects", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, []banshee.Project{{ID: 4, Name: "billing", TeamID: 1}})
	})
	mux.HandleFunc("GET /api/graphiteUrl", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, banshee.GraphiteURL{GraphiteURL: "http://graphite/render?target=%s"})
	})
	mux.HandleFunc("GET /api/privateDocUrl", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, banshee.PrivateDocURL{PrivateDocURL: "http://wiki/banshee"})
	})
	mux.HandleFunc("POST /api/project/{id}/rule", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, banshee.Rule{ID: 9, ProjectID: 3, Pattern: "timer.mean.api.*", TrendUp: true})
	})
	mux.HandleFunc("DELETE /api/team/{id}", func(w http.ResponseWriter, _ *http.Request) {
		deletes.Add(1)
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("POST /api/team", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusBadRequest, banshee.APIError{Code: 400, Msg: "Duplicate team name"})
	})
	mux.HandleFunc("POST /api/project/{id}/rules", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, []banshee.RuleImportStatus{
			{Rule: "counter.a"},
			{Rule: "counter.b", Status: &banshee.RowImportError{}},
		})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	client, err := banshee.NewClient(srv.URL, prometheus.NewRegistry())
	require.NoError(t, err)

	out := &bytes.Buffer{}
	return fixture{
		commander: &commander{
			client:  client,
			phrases: i18n.Lookup("en"),
			in:      strings.NewReader(stdin),
			out:     out,
			opts:    o,
			now:     func() time.Time { return time.Unix(1700000000, 0) },
		},
		out:     out,
		deletes: deletes,
	}
}

func TestCommander_List(t *testing.T) {
	f := newFixture(t, "", options{})

	require.NoError(t, f.commander.run(context.Background(), []string{"list", "teams"}))
	assert.Contains(t, f.out.String(), "NAME")
	assert.Contains(t, f.out.String(), "sre")

	f.out.Reset()
	require.NoError(t, f.commander.run(context.Background(), []string{"list", "users", "3"}))
	assert.Contains(t, f.out.String(), "bob@example.com")

	assert.ErrorIs(t, f.commander.run(context.Background(), []string{"list", "dashboards"}), errUsage)
	assert.ErrorIs(t, f.commander.run(context.Background(), []string{"list", "users", "x"}), banshee.ErrInvalidID)
	assert.ErrorIs(t, f.commander.run(context.Background(), nil), errUsage)
}

func TestCommander_ListProjects(t *testing.T) {
	f := newFixture(t, "", options{})

	require.NoError(t, f.commander.run(context.Background(), []string{"list", "projects", "1"}))
	assert.Contains(t, f.out.String(), "api")

	f.out.Reset()
	require.NoError(t, f.commander.run(context.Background(), []string{"list", "user-projects", "2"}))
	assert.Contains(t, f.out.String(), "billing")

	assert.ErrorIs(t, f.commander.run(context.Background(), []string{"list", "webhook-projects"}), errUsage)
}

func TestCommander_Info(t *testing.T) {
	f := newFixture(t, "", options{})

	require.NoError(t, f.commander.run(context.Background(), []string{"info"}))
	out := f.out.String()
	assert.Contains(t, out, "10s")
	assert.Contains(t, out, "http://graphite/render?target=%s")
	assert.Contains(t, out, "http://wiki/banshee")
}

func TestCommander_Rules(t *testing.T) {
	f := newFixture(t, "", options{})

	require.NoError(t, f.commander.run(context.Background(), []string{"rules", "3"}))
	out := f.out.String()
	assert.Contains(t, out, "timer.mean.api.get")
	assert.Contains(t, out, "Alert when: trend up")

	assert.ErrorIs(t, f.commander.run(context.Background(), []string{"rules"}), errUsage)
}

func TestCommander_Events(t *testing.T) {
	f := newFixture(t, "", options{past: 3600})

	require.NoError(t, f.commander.run(context.Background(), []string{"events", "3"}))
	assert.Contains(t, f.out.String(), "counter.a")
	assert.Contains(t, f.out.String(), "api errors")
	assert.Contains(t, f.out.String(), "1.50")
}

func TestCommander_ApplyCreateRule(t *testing.T) {
	f := newFixture(t, "", options{
		kind:     "rule",
		action:   "create",
		parentID: 3,
		payload:  `{"pattern":"timer.mean.api.*","trendUp":true}`,
	})

	require.NoError(t, f.commander.run(context.Background(), []string{"apply"}))
	assert.Contains(t, f.out.String(), "within 10 seconds")
}

func TestCommander_ApplyPayloadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rule.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"pattern":"timer.mean.api.*","trendUp":true}`), 0o600))
	f := newFixture(t, "", options{kind: "rule", action: "create", parentID: 3, payload: "@" + path})

	require.NoError(t, f.commander.run(context.Background(), []string{"apply"}))
	assert.Contains(t, f.out.String(), "Rule added")
}

func TestCommander_ApplyServerError(t *testing.T) {
	f := newFixture(t, "", options{kind: "team", action: "create", payload: `{"name":"sre"}`})

	err := f.commander.run(context.Background(), []string{"apply"})
	assert.EqualError(t, err, "Duplicate team name")
}

func TestCommander_DeleteConfirmation(t *testing.T) {
	tests := []struct {
		name    string
		stdin   string
		yes     bool
		deletes int32
	}{
		{name: "declined", stdin: "n\n", deletes: 0},
		{name: "no answer", stdin: "", deletes: 0},
		{name: "confirmed", stdin: "yes\n", deletes: 1},
		{name: "confirmed short", stdin: "Y\n", deletes: 1},
		{name: "flag", yes: true, deletes: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.stdin, options{kind: "team", action: "delete", id: 1, yes: tt.yes})

			require.NoError(t, f.commander.run(context.Background(), []string{"apply"}))
			assert.Equal(t, tt.deletes, f.deletes.Load())
			if !tt.yes {
				assert.Contains(t, f.out.String(), "Delete this team? [Yes/No]:")
			}
			if tt.deletes == 0 {
				assert.Contains(t, f.out.String(), "cancelled")
			} else {
				assert.Contains(t, f.out.String(), "Deleted.")
			}
		})
	}
}

func TestCommander_Import(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"pattern":"counter.a"},{"pattern":"counter.b"}]`), 0o600))
	f := newFixture(t, "", options{})

	require.NoError(t, f.commander.run(context.Background(), []string{"import", "3", path}))
	out := f.out.String()
	assert.Contains(t, out, "imported")
	assert.Contains(t, out, "rejected")
	assert.Contains(t, out, "1 imported, 1 rejected")

	assert.ErrorIs(t, f.commander.run(context.Background(), []string{"import", "3"}), errUsage)
}
