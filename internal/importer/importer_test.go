package importer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/nicolastakashi/banshee-console/internal/banshee"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUploader struct {
	calls    int
	filename string
	statuses []banshee.RuleImportStatus
	err      error
}

func (f *fakeUploader) ImportRulesFile(ctx context.Context, projectID int, filename string, content []byte) ([]banshee.RuleImportStatus, error) {
	f.calls++
	f.filename = filename
	return f.statuses, f.err
}

func TestNewReport(t *testing.T) {
	report := NewReport([]banshee.RuleImportStatus{
		{Rule: "counter.a"},
		{Rule: "bad", Status: &banshee.RowImportError{}},
		{Rule: "counter.a", Status: &banshee.RowImportError{Code: 400, Msg: "Duplicate rule pattern"}},
	})

	assert.Equal(t, 1, report.Imported)
	assert.Equal(t, 2, report.Rejected)
	assert.Equal(t, []Row{
		{Pattern: "counter.a", Imported: true},
		{Pattern: "bad", Reason: "rejected"},
		{Pattern: "counter.a", Reason: "Duplicate rule pattern"},
	}, report.Rows)
}

func TestReport_Table(t *testing.T) {
	report := NewReport([]banshee.RuleImportStatus{
		{Rule: "stats.timers.api.mean"},
		{Rule: "bad", Status: &banshee.RowImportError{Msg: "Invalid rule pattern"}},
	})
	out := report.Table("imported")

	assert.Contains(t, out, "RULE")
	assert.Contains(t, out, "timer.mean.api")
	assert.Contains(t, out, "imported")
	assert.Contains(t, out, "Invalid rule pattern")
}

func TestImporter_Import(t *testing.T) {
	up := &fakeUploader{statuses: []banshee.RuleImportStatus{
		{Rule: "counter.a"},
		{Rule: "counter.b", Status: &banshee.RowImportError{}},
	}}
	imp := New(up, prometheus.NewRegistry())

	dir := t.TempDir()
	path := filepath.Join(dir, "rules.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"pattern":"counter.a"},{"pattern":"counter.b"}]`), 0o600))

	report, err := imp.ImportFile(context.Background(), 3, path)
	require.NoError(t, err)
	assert.Equal(t, "rules.json", up.filename)
	assert.Equal(t, 1, report.Imported)
	assert.Equal(t, 1, report.Rejected)
	assert.Equal(t, 1.0, testutil.ToFloat64(imp.rows.WithLabelValues("imported")))
	assert.Equal(t, 1.0, testutil.ToFloat64(imp.rows.WithLabelValues("rejected")))
}

func TestImporter_MalformedFileMakesNoRequest(t *testing.T) {
	up := &fakeUploader{}
	imp := New(up, prometheus.NewRegistry())

	_, err := imp.Import(context.Background(), 3, "rules.json", []byte(`{"pattern":"counter.a"}`))
	assert.ErrorIs(t, err, ErrMalformedFile)
	assert.Zero(t, up.calls)

	_, err = imp.ImportFile(context.Background(), 3, filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestImporter_UploadError(t *testing.T) {
	up := &fakeUploader{err: &banshee.APIError{Code: 404, Msg: "Project not found"}}
	imp := New(up, prometheus.NewRegistry())

	_, err := imp.Import(context.Background(), 3, "rules.json", []byte(`[]`))
	assert.ErrorIs(t, err, banshee.ErrNotFound)
	assert.Equal(t, "Project not found", banshee.Message(err))
}
