package engine

import (
	"context"
	"fmt"

	"github.com/DrSkyle/pierwatch/pkg/cargo"
	"github.com/DrSkyle/pierwatch/pkg/config"
	"github.com/DrSkyle/pierwatch/pkg/engine/fifo"
	"github.com/DrSkyle/pierwatch/pkg/engine/history"
	"github.com/DrSkyle/pierwatch/pkg/engine/ingest"
	"github.com/DrSkyle/pierwatch/pkg/engine/notifier"
	"github.com/DrSkyle/pierwatch/pkg/engine/pier"
	"github.com/DrSkyle/pierwatch/pkg/engine/policy"
	"github.com/DrSkyle/pierwatch/pkg/engine/report"
	"github.com/DrSkyle/pierwatch/pkg/version"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Analysis is the pure result over a set of records.
type Analysis struct {
	Eligible   int
	Violations []fifo.Violation
	Summary    fifo.Summary
	Findings   []policy.Finding
	Overview   pier.Overview
}

// Result is a finished run.
type Result struct {
	Dataset  *ingest.Dataset
	Analysis *Analysis
	Document report.Document
	Trend    *history.Trend
	// Paths are the local report files.
	Paths []string
	// ReportURL is the published dashboard location, if uploaded.
	ReportURL string
}

// Analyze detects FIFO violations, applies rules and computes pier
// statistics. It performs no I/O.
func (e *Engine) Analyze(ctx context.Context, records []cargo.Record) (a *Analysis, err error) {
	ctx, span := e.Tracer.Start(ctx, "Engine.Analyze")
	defer span.End()
	defer e.recoverPanic(ctx, &err)

	violations, err := fifo.DetectParallel(ctx, records, e.concurrency)
	if err != nil {
		return nil, err
	}
	// Findings refer to violations by index, so sort first.
	fifo.SortViolations(violations)
	findings, err := e.Rules.Apply(ctx, violations)
	if err != nil {
		return nil, err
	}

	eligible := 0
	for _, r := range records {
		if r.Eligible() {
			eligible++
		}
	}

	a = &Analysis{
		Eligible:   eligible,
		Violations: violations,
		Summary:    fifo.Summarize(violations),
		Findings:   findings,
		Overview:   pier.Build(records, cargo.DateOf(e.now()), e.analysis.Stats),
	}
	span.SetAttributes(
		attribute.Int("records", len(records)),
		attribute.Int("fifo.violations", a.Summary.Total),
		attribute.Int("rules.findings", len(findings)),
	)
	return a, nil
}

// Load reads the configured source.
func (e *Engine) Load(ctx context.Context) (*ingest.Dataset, error) {
	ctx, span := e.Tracer.Start(ctx, "Engine.Load")
	defer span.End()

	src, err := ingest.OpenSource(ctx, e.source(), ingest.SourceOptions{HTTPClient: e.httpClient, Store: e.store})
	if err != nil {
		return nil, err
	}
	e.Logger.Info("Reading pier log", "source", src.String())

	ds, err := ingest.Load(ctx, src, e.analysis.Ingest)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("load %s: %w", src, err)
	}
	if len(ds.MissingColumns) > 0 {
		e.Logger.Warn("Columns not found, fields read as absent", "columns", ds.MissingColumns)
	}
	for _, issue := range ds.Issues {
		e.Logger.Debug("Malformed cell", "row", issue.Row, "field", issue.Field, "value", issue.Value, "reason", issue.Reason)
	}
	if len(ds.Issues) > 0 {
		e.Logger.Warn("Malformed cells read as absent", "count", len(ds.Issues))
	}
	return ds, nil
}

func (e *Engine) source() string {
	if e.config.Source != "" {
		return e.config.Source
	}
	return config.DefaultSource
}

// Run executes the whole pipeline: load, analyze, record history, write
// reports, publish and notify.
func (e *Engine) Run(ctx context.Context) (res *Result, err error) {
	ctx, span := e.Tracer.Start(ctx, "Engine.Run")
	defer span.End()
	defer e.recoverPanic(ctx, &err)

	e.Logger.Info("Starting PierWatch Engine", "version", version.Current, "concurrency", e.concurrency)

	ds, err := e.Load(ctx)
	if err != nil {
		return nil, err
	}
	if len(ds.Records) == 0 {
		if e.config.StrictMode {
			e.Logger.Error("Strict Mode: pier log has no records")
			return nil, ErrNoRecords
		}
		e.Logger.Warn("Pier log has no records")
	}

	a, err := e.Analyze(ctx, ds.Records)
	if err != nil {
		return nil, err
	}
	e.Logger.Info("FIFO analysis finished",
		"records", len(ds.Records),
		"eligible", a.Eligible,
		"violations", a.Summary.Total,
		"findings", len(a.Findings))

	gaps := make([]int, len(a.Violations))
	for i, v := range a.Violations {
		gaps[i] = v.ShipmentDayGap
	}
	e.Metrics.RecordRun(ctx, e.source(), len(ds.Records), len(ds.Issues), gaps)

	res = &Result{Dataset: ds, Analysis: a}
	now := e.now()

	if e.History != nil {
		snap := history.NewSnapshot(now, e.source(), len(ds.Records), a.Eligible, len(ds.Issues), a.Summary)
		trend, err := e.History.Record(ctx, snap)
		if err != nil {
			e.Logger.Warn("History not recorded", "error", err)
		} else {
			res.Trend = &trend
		}
	}

	overview := a.Overview
	res.Document = report.Document{
		Tool:           fmt.Sprintf("%s %s", version.AppName, version.Current),
		GeneratedAt:    now.UTC(),
		Source:         e.source(),
		Records:        len(ds.Records),
		Eligible:       a.Eligible,
		MissingColumns: ds.MissingColumns,
		Summary:        a.Summary,
		Violations:     a.Violations,
		Findings:       a.Findings,
		Issues:         ds.Issues,
		Overview:       &overview,
		Trend:          res.Trend,
	}

	res.Paths, err = report.GenerateAll(e.outputDir, res.Document)
	if err != nil {
		return res, fmt.Errorf("reports: %w", err)
	}
	e.Logger.Info("Reports written", "dir", e.outputDir)

	res.ReportURL, err = e.UploadArtifacts(ctx, res.Paths)
	if err != nil {
		e.Logger.Warn("Upload failed", "error", err)
	}

	e.notify(ctx, res)
	return res, nil
}

func (e *Engine) notify(ctx context.Context, res *Result) {
	if !e.Notifier.Enabled() {
		return
	}
	msg := notifier.Message{
		Source:    res.Document.Source,
		At:        res.Document.GeneratedAt,
		Records:   res.Document.Records,
		Summary:   res.Analysis.Summary,
		Trend:     res.Trend,
		ReportURL: res.ReportURL,
	}
	if err := e.Notifier.SendReport(ctx, msg); err != nil {
		e.Logger.Warn("Slack notification failed", "error", err)
	}
	if res.Trend != nil {
		if err := e.Notifier.SendRegressionAlert(ctx, *res.Trend); err != nil {
			e.Logger.Warn("Slack alert failed", "error", err)
		}
	}
}
