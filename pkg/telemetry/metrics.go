package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics counts what each analysis run saw. Instruments come from the
// global meter provider, so they are no-ops until one is installed.
type Metrics struct {
	records    metric.Int64Counter
	issues     metric.Int64Counter
	violations metric.Int64Counter
	gap        metric.Int64Histogram
}

// NewMetrics creates the run instruments.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter("github.com/DrSkyle/pierwatch")

	records, err := meter.Int64Counter("pierwatch.records", metric.WithDescription("Pier log records read"))
	if err != nil {
		return nil, err
	}
	issues, err := meter.Int64Counter("pierwatch.malformed_cells", metric.WithDescription("Cells that could not be parsed"))
	if err != nil {
		return nil, err
	}
	violations, err := meter.Int64Counter("pierwatch.fifo_violations", metric.WithDescription("FIFO violations found"))
	if err != nil {
		return nil, err
	}
	gap, err := meter.Int64Histogram("pierwatch.shipment_gap", metric.WithDescription("Shipment day gap of violations"), metric.WithUnit("d"))
	if err != nil {
		return nil, err
	}
	return &Metrics{records: records, issues: issues, violations: violations, gap: gap}, nil
}

// RecordRun adds the totals of one run.
func (m *Metrics) RecordRun(ctx context.Context, source string, records, issues int, gaps []int) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("source", source))
	m.records.Add(ctx, int64(records), attrs)
	m.issues.Add(ctx, int64(issues), attrs)
	m.violations.Add(ctx, int64(len(gaps)), attrs)
	for _, g := range gaps {
		m.gap.Record(ctx, int64(g), attrs)
	}
}
