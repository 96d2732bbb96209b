// Package report renders analysis results as CSV, JSON and an HTML dashboard.
package report

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/DrSkyle/pierwatch/pkg/engine/fifo"
	"github.com/DrSkyle/pierwatch/pkg/engine/history"
	"github.com/DrSkyle/pierwatch/pkg/engine/ingest"
	"github.com/DrSkyle/pierwatch/pkg/engine/pier"
	"github.com/DrSkyle/pierwatch/pkg/engine/policy"
)

// Output file names.
const (
	CSVFile       = "fifo_violations.csv"
	JSONFile      = "report.json"
	DashboardFile = "dashboard.html"
)

// Document is everything a report shows.
type Document struct {
	Tool        string    `json:"tool"`
	GeneratedAt time.Time `json:"generated_at"`
	Source      string    `json:"source"`

	Records        int      `json:"records"`
	Eligible       int      `json:"eligible"`
	MissingColumns []string `json:"missing_columns,omitempty"`

	Summary    fifo.Summary                   `json:"summary"`
	Violations []fifo.Violation               `json:"violations"`
	Findings   []policy.Finding               `json:"findings"`
	Issues     []*ingest.MalformedRecordError `json:"issues"`

	Overview *pier.Overview `json:"overview,omitempty"`
	Trend    *history.Trend `json:"trend,omitempty"`
}

// normalized replaces nil lists so they encode as [].
func (d Document) normalized() Document {
	if d.Violations == nil {
		d.Violations = []fifo.Violation{}
	}
	if d.Findings == nil {
		d.Findings = []policy.Finding{}
	}
	if d.Issues == nil {
		d.Issues = []*ingest.MalformedRecordError{}
	}
	if d.Summary.ByClient == nil {
		d.Summary.ByClient = []fifo.ClientCount{}
	}
	return d
}

// GenerateAll writes the CSV, JSON and dashboard reports into dir and
// returns their paths.
func GenerateAll(dir string, doc Document) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	writers := []struct {
		name  string
		write func(io.Writer) error
	}{
		{CSVFile, func(w io.Writer) error { return WriteCSV(w, doc.Violations, doc.Findings) }},
		{JSONFile, func(w io.Writer) error { return WriteJSON(w, doc) }},
		{DashboardFile, func(w io.Writer) error { return WriteDashboard(w, doc) }},
	}

	paths := make([]string, 0, len(writers))
	for _, wr := range writers {
		var buf bytes.Buffer
		if err := wr.write(&buf); err != nil {
			return paths, fmt.Errorf("render %s: %w", wr.name, err)
		}
		path := filepath.Join(dir, wr.name)
		if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}
