// Package ingest reads the pier log and cleans it into cargo records.
package ingest

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/DrSkyle/pierwatch/pkg/cargo"
	"github.com/DrSkyle/pierwatch/pkg/config"
)

// Dataset is a cleaned snapshot of the log.
type Dataset struct {
	Records []cargo.Record
	// Issues lists cells that were present but unusable.
	Issues []*MalformedRecordError
	// Columns maps matched fields to their header index.
	Columns map[string]int
	// MissingColumns lists fields no header matched; they read as absent.
	MissingColumns []string
	// BlankRows counts rows skipped because every cell was empty.
	BlankRows int
}

// Read parses a CSV log. Malformed cells are recorded in Issues and never
// fail the read; only CSV syntax errors and a missing header do.
func Read(ctx context.Context, r io.Reader, cfg config.IngestConfig) (*Dataset, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	if cfg.Comma != "" {
		cr.Comma = []rune(cfg.Comma)[0]
	}

	headers, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrNoHeader
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	ds := &Dataset{Columns: MatchColumns(headers, cfg.Columns)}
	for _, field := range columnOrder {
		if _, ok := ds.Columns[field]; !ok {
			ds.MissingColumns = append(ds.MissingColumns, field)
		}
	}

	cl := newCleaner(cfg.DateLayouts, cfg.MissingValues)
	row := 0
	for {
		cells, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row %d: %w", row+1, err)
		}
		row++

		if row%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		if isBlank(cells, cl) {
			ds.BlankRows++
			continue
		}

		rec, issues := ds.buildRecord(row, cells, cl)
		ds.Records = append(ds.Records, rec)
		ds.Issues = append(ds.Issues, issues...)
	}

	return ds, nil
}

func (ds *Dataset) buildRecord(row int, cells []string, cl *cleaner) (cargo.Record, []*MalformedRecordError) {
	cell := func(field string) string {
		idx, ok := ds.Columns[field]
		if !ok || idx >= len(cells) {
			return ""
		}
		return cells[idx]
	}

	var issues []*MalformedRecordError
	malformed := func(field, reason string) {
		issues = append(issues, &MalformedRecordError{
			Row: row, Field: field, Value: cell(field), Reason: reason,
		})
	}

	rec := cargo.Record{
		Row:         row,
		Vessel:      cl.text(cell(FieldVessel)),
		Certificate: cl.text(cell(FieldCertificate)),
		Carrier:     cl.text(cell(FieldCarrier)),
		TruckPlate:  cl.text(cell(FieldTruckPlate)),
		Waybill:     cl.text(cell(FieldWaybill)),
	}

	var ok bool
	if rec.Client, ok = cl.identifier(cell(FieldClient)); !ok {
		malformed(FieldClient, "not usable text")
	}
	if rec.Arrival, ok = cl.date(cell(FieldArrival)); !ok {
		malformed(FieldArrival, "unrecognized date")
	}
	if rec.Shipment, ok = cl.date(cell(FieldShipment)); !ok {
		malformed(FieldShipment, "unrecognized date")
	}
	if rec.Gross, ok = cl.tonnage(cell(FieldGross)); !ok {
		malformed(FieldGross, "not a number")
	}

	return rec, issues
}

func isBlank(cells []string, cl *cleaner) bool {
	for _, c := range cells {
		if !cl.isMissing(c) {
			return false
		}
	}
	return true
}
