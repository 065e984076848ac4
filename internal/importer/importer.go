// Package importer uploads rule files to banshee and reports the outcome of
// every row.
package importer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/nicolastakashi/banshee-console/internal/banshee"
	"github.com/nicolastakashi/banshee-console/internal/rules"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Uploader sends a rules file to a project.
type Uploader interface {
	ImportRulesFile(ctx context.Context, projectID int, filename string, content []byte) ([]banshee.RuleImportStatus, error)
}

// Row is the outcome of one uploaded rule.
type Row struct {
	Pattern  string `json:"pattern"`
	Imported bool   `json:"imported"`
	Reason   string `json:"reason,omitempty"`
}

// Report lists the rows in upload order.
type Report struct {
	Rows     []Row `json:"rows"`
	Imported int   `json:"imported"`
	Rejected int   `json:"rejected"`
}

// NewReport builds a report from the statuses banshee returned. Rejections
// without a server message read "rejected".
func NewReport(statuses []banshee.RuleImportStatus) Report {
	r := Report{Rows: make([]Row, 0, len(statuses))}
	for _, s := range statuses {
		row := Row{Pattern: s.Rule, Imported: s.Status == nil}
		if row.Imported {
			r.Imported++
		} else {
			row.Reason = s.Status.Error()
			r.Rejected++
		}
		r.Rows = append(r.Rows, row)
	}
	return r
}

var (
	okStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	rejectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	headerStyle   = lipgloss.NewStyle().Bold(true)
)

// Table renders the report; okText is the status shown for imported rows.
func (r Report) Table(okText string) string {
	rows := make([][]string, 0, len(r.Rows))
	for _, row := range r.Rows {
		status := okText
		if !row.Imported {
			status = row.Reason
		}
		rows = append(rows, []string{rules.DisplayName(row.Pattern), status})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("RULE", "STATUS").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if col == 1 && row >= 0 && row < len(r.Rows) {
				if r.Rows[row].Imported {
					return okStyle
				}
				return rejectedStyle
			}
			return lipgloss.NewStyle()
		})
	return t.String()
}

type Importer struct {
	uploader Uploader
	rows     *prometheus.CounterVec
}

func New(uploader Uploader, reg prometheus.Registerer) *Importer {
	return &Importer{
		uploader: uploader,
		rows: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "banshee_console_imported_rules_total",
			Help: "Total number of uploaded rules by outcome",
		}, []string{"status"}),
	}
}

// Import uploads content as the rules file of the project. The content must
// be a JSON array of rules; it is checked locally so a malformed file is
// rejected before any request.
func (i *Importer) Import(ctx context.Context, projectID int, filename string, content []byte) (Report, error) {
	var probe []json.RawMessage
	if err := json.Unmarshal(content, &probe); err != nil {
		return Report{}, fmt.Errorf("%w: %v", ErrMalformedFile, err)
	}

	statuses, err := i.uploader.ImportRulesFile(ctx, projectID, filename, content)
	if err != nil {
		return Report{}, fmt.Errorf("import rules into project %d: %w", projectID, err)
	}

	report := NewReport(statuses)
	i.rows.WithLabelValues("imported").Add(float64(report.Imported))
	i.rows.WithLabelValues("rejected").Add(float64(report.Rejected))
	slog.Info("rules imported", "project", projectID, "file", filename, "imported", report.Imported, "rejected", report.Rejected)
	return report, nil
}

// ImportFile reads path and imports it.
func (i *Importer) ImportFile(ctx context.Context, projectID int, path string) (Report, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Report{}, fmt.Errorf("read rules file: %w", err)
	}
	return i.Import(ctx, projectID, filepath.Base(path), content)
}
