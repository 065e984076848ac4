package banshee

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nicolastakashi/banshee-console/internal/cache"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, mux *http.ServeMux, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	c, err := NewClient(srv.URL, prometheus.NewRegistry(), opts...)
	require.NoError(t, err)
	return c
}

func writeJSON(t *testing.T, w http.ResponseWriter, code int, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func TestNewClient_InvalidScheme(t *testing.T) {
	_, err := NewClient("ftp://banshee:2016", prometheus.NewRegistry())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "only 'http' and 'https' are supported")
}

func TestClient_CreateRule(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/project/{id}/rule", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "3", r.PathValue("id"))
		assert.NotEmpty(t, r.Header.Get(RequestIDHeader))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var in Rule
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		in.ID = 42
		in.ProjectID = 3
		in.NumMetrics = 7
		writeJSON(t, w, http.StatusOK, in)
	})
	c := newTestClient(t, mux)

	rule, err := c.CreateRule(context.Background(), 3, &Rule{Pattern: "timer.mean.api.*", TrendUp: true, ThresholdMax: 300})
	require.NoError(t, err)
	assert.Equal(t, 42, rule.ID)
	assert.Equal(t, 3, rule.ProjectID)
	assert.Equal(t, "timer.mean.api.*", rule.Pattern)
	assert.Equal(t, 7, rule.NumMetrics)
}

func TestClient_ErrorResponses(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("PATCH /api/rule/{id}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusBadRequest, map[string]any{"code": 400, "msg": "Invalid rule pattern"})
	})
	mux.HandleFunc("GET /api/project/{id}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusNotFound, map[string]any{"code": 404, "msg": "Project not found"})
	})
	mux.HandleFunc("DELETE /api/team/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, "boom")
	})
	c := newTestClient(t, mux)
	ctx := context.Background()

	_, err := c.UpdateRule(ctx, &Rule{ID: 5, Pattern: "a..b"})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Code)
	assert.Equal(t, "Invalid rule pattern", apiErr.Msg)
	assert.Equal(t, "Invalid rule pattern", Message(err))
	assert.Equal(t, "[400]: Invalid rule pattern", err.Error())

	_, err = c.Project(ctx, 9)
	assert.ErrorIs(t, err, ErrNotFound)

	err = c.DeleteTeam(ctx, 1)
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Internal Server Error", apiErr.Msg)
}

func TestClient_InvalidIDMakesNoRequest(t *testing.T) {
	var calls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	})
	c := newTestClient(t, mux)
	ctx := context.Background()

	assert.ErrorIs(t, c.DeleteRule(ctx, 0), ErrInvalidID)
	assert.ErrorIs(t, c.RemoveProjectUser(ctx, 1, -1), ErrInvalidID)
	_, err := c.UpdateUser(ctx, &User{Name: "bob"})
	assert.ErrorIs(t, err, ErrInvalidID)
	assert.Zero(t, calls.Load())
}

func TestClient_MembershipPaths(t *testing.T) {
	var got []string
	mux := http.NewServeMux()
	mux.HandleFunc("DELETE /api/project/{id}/user/{user_id}", func(w http.ResponseWriter, r *http.Request) {
		got = append(got, r.PathValue("id")+"/user/"+r.PathValue("user_id"))
	})
	mux.HandleFunc("DELETE /api/project/{id}/webhook/{webhook_id}", func(w http.ResponseWriter, r *http.Request) {
		got = append(got, r.PathValue("id")+"/webhook/"+r.PathValue("webhook_id"))
	})
	mux.HandleFunc("POST /api/project/{id}/user", func(w http.ResponseWriter, r *http.Request) {
		var in nameRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		writeJSON(t, w, http.StatusOK, User{ID: 8, Name: in.Name})
	})
	c := newTestClient(t, mux)
	ctx := context.Background()

	require.NoError(t, c.RemoveProjectUser(ctx, 2, 11))
	require.NoError(t, c.RemoveProjectWebHook(ctx, 2, 12))
	assert.Equal(t, []string{"2/user/11", "2/webhook/12"}, got)

	user, err := c.AddProjectUser(ctx, 2, "alice")
	require.NoError(t, err)
	assert.Equal(t, User{ID: 8, Name: "alice"}, *user)
}

func TestClient_ImportRules(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/project/{id}/rules", func(w http.ResponseWriter, r *http.Request) {
		f, _, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()

		var rules []Rule
		require.NoError(t, json.NewDecoder(f).Decode(&rules))
		require.Len(t, rules, 3)

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `[
			{"Rule": "`+rules[0].Pattern+`", "Status": null},
			{"Rule": "`+rules[1].Pattern+`", "Status": {}},
			{"Rule": "`+rules[2].Pattern+`", "Status": {"code": 400, "msg": "Duplicate rule"}}
		]`)
	})
	c := newTestClient(t, mux)

	statuses, err := c.ImportRules(context.Background(), 4, []Rule{
		{Pattern: "counter.a"},
		{Pattern: "bad pattern"},
		{Pattern: "counter.b"},
	})
	require.NoError(t, err)
	require.Len(t, statuses, 3)

	assert.Equal(t, "counter.a", statuses[0].Rule)
	assert.Nil(t, statuses[0].Status)

	require.NotNil(t, statuses[1].Status)
	assert.Equal(t, "rejected", statuses[1].Status.Error())

	require.NotNil(t, statuses[2].Status)
	assert.Equal(t, 400, statuses[2].Status.Code)
	assert.Equal(t, "Duplicate rule", statuses[2].Status.Error())
}

func TestClient_MetricQueries(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/metric/indexes", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "30", q.Get("limit"))
		assert.Equal(t, "down", q.Get("sort"))
		assert.Equal(t, "6", q.Get("project"))
		assert.Empty(t, q.Get("pattern"), "project takes precedence over pattern")
		writeJSON(t, w, http.StatusOK, []Index{{Name: "counter.a", Stamp: 100, Score: 1.2}})
	})
	mux.HandleFunc("GET /api/metric/data", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "counter.a", q.Get("name"))
		assert.Equal(t, "100", q.Get("start"))
		assert.Equal(t, "140", q.Get("stop"))
		writeJSON(t, w, http.StatusOK, []Sample{{Stamp: 100, Value: 5}, {Stamp: 130, Value: 7}})
	})
	mux.HandleFunc("GET /api/metric/rules/{name}", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/metric/rules/timer.mean.api%20get", r.URL.EscapedPath())
		assert.Equal(t, "timer.mean.api get", r.PathValue("name"))
		writeJSON(t, w, http.StatusOK, []Rule{{ID: 3, Pattern: "timer.mean.*"}})
	})
	mux.HandleFunc("GET /api/project/{id}/events", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "86400", r.URL.Query().Get("past"))
		assert.Equal(t, "2", r.URL.Query().Get("level"))
		writeJSON(t, w, http.StatusOK, []Event{{ID: "e1", Level: 2}})
	})
	c := newTestClient(t, mux)
	ctx := context.Background()

	idxs, err := c.MetricIndexes(ctx, IndexQuery{Limit: 30, Sort: SortDown, Project: 6, Pattern: "counter.*"})
	require.NoError(t, err)
	require.Len(t, idxs, 1)
	assert.Equal(t, "counter.a", idxs[0].Name)

	samples, err := c.MetricData(ctx, "counter.a", 100, 140)
	require.NoError(t, err)
	assert.Len(t, samples, 2)

	rules, err := c.MetricRules(ctx, "timer.mean.api get")
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, 3, rules[0].ID)

	events, err := c.ProjectEvents(ctx, 1, EventQuery{Level: RuleLevelHigh})
	require.NoError(t, err)
	assert.Equal(t, "e1", events[0].ID)

	_, err = c.MetricData(ctx, "", 0, 1)
	assert.Error(t, err)
}

func TestClient_CachedConfigEndpoints(t *testing.T) {
	var calls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/interval", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeJSON(t, w, http.StatusOK, Interval{Interval: 10})
	})
	mux.HandleFunc("GET /api/graphiteUrl", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, GraphiteURL{GraphiteURL: "http://graphite/render?target=%s"})
	})
	c := newTestClient(t, mux, WithCache(cache.NewMemory(), time.Minute))
	ctx := context.Background()

	for range 3 {
		interval, err := c.Interval(ctx)
		require.NoError(t, err)
		assert.Equal(t, uint32(10), interval)
	}
	assert.Equal(t, int32(1), calls.Load())

	u, err := c.GraphiteURL(ctx)
	require.NoError(t, err)
	assert.Equal(t, "http://graphite/render?target=%s", u)
}

func TestClient_Timeout(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/teams", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	})
	c := newTestClient(t, mux, WithTimeout(20*time.Millisecond))

	_, err := c.Teams(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestClient_RateLimitCancelled(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/users", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, []User{})
	})
	c := newTestClient(t, mux, WithRateLimit(0.001, 1))

	_, err := c.Users(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = c.Users(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limit")
}
