// Package fifo detects first-in-first-out discharge violations in a pier log.
//
// A violation is an ordered pair (A, B) of records of the same client where A
// arrived strictly before B but was shipped strictly after B. Records without
// a client or without both dates never take part. Same-day ties are not
// violations since the log only resolves days.
package fifo

import (
	"context"
	"sort"
	"strings"

	"github.com/DrSkyle/pierwatch/pkg/cargo"
	"golang.org/x/sync/errgroup"
)

// Violation describes one pair whose shipment order contradicts arrival order.
type Violation struct {
	Client string `json:"client"`

	EarlierArrivalCertificate string     `json:"earlier_arrival_certificate"`
	EarlierArrivalDate        cargo.Date `json:"earlier_arrival_date"`
	EarlierShipmentDate       cargo.Date `json:"earlier_shipment_date"`
	EarlierRow                int        `json:"earlier_row,omitempty"`

	LaterArrivalCertificate string     `json:"later_arrival_certificate"`
	LaterArrivalDate        cargo.Date `json:"later_arrival_date"`
	LaterShipmentDate       cargo.Date `json:"later_shipment_date"`
	LaterRow                int        `json:"later_row,omitempty"`

	// ShipmentDayGap is how many days the earlier arrival shipped after the later one.
	ShipmentDayGap int `json:"shipment_day_gap"`
}

// ArrivalDayGap is how many days apart the two records arrived.
func (v Violation) ArrivalDayGap() int {
	return v.LaterArrivalDate.DaysSince(v.EarlierArrivalDate)
}

// Partition groups eligible records by client.
func Partition(records []cargo.Record) map[string][]cargo.Record {
	groups := make(map[string][]cargo.Record)
	for _, r := range records {
		if !r.Eligible() {
			continue
		}
		groups[r.Client] = append(groups[r.Client], r)
	}
	return groups
}

// Detect returns every violation in records.
func Detect(records []cargo.Record) []Violation {
	groups := Partition(records)

	var out []Violation
	for _, client := range sortedClients(groups) {
		out = append(out, detectClient(client, groups[client])...)
	}
	return out
}

// DetectParallel is Detect with client partitions processed concurrently.
// Each partition's violations stay contiguous in the result. The only error
// is ctx's.
func DetectParallel(ctx context.Context, records []cargo.Record, workers int) ([]Violation, error) {
	groups := Partition(records)
	clients := sortedClients(groups)

	results := make([][]Violation, len(clients))
	g, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}

	for i, client := range clients {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = detectClient(client, groups[client])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []Violation
	for _, vs := range results {
		out = append(out, vs...)
	}
	return out, nil
}

// detectClient compares every ordered pair of one client's records.
func detectClient(client string, recs []cargo.Record) []Violation {
	var out []Violation
	for i := range recs {
		a := recs[i]
		for j := range recs {
			if i == j {
				continue
			}
			b := recs[j]
			if a.Arrival.Before(b.Arrival) && a.Shipment.After(b.Shipment) {
				out = append(out, newViolation(client, a, b))
			}
		}
	}
	return out
}

func newViolation(client string, a, b cargo.Record) Violation {
	return Violation{
		Client:                    client,
		EarlierArrivalCertificate: a.Certificate,
		EarlierArrivalDate:        a.Arrival,
		EarlierShipmentDate:       a.Shipment,
		EarlierRow:                a.Row,
		LaterArrivalCertificate:   b.Certificate,
		LaterArrivalDate:          b.Arrival,
		LaterShipmentDate:         b.Shipment,
		LaterRow:                  b.Row,
		ShipmentDayGap:            a.Shipment.DaysSince(b.Shipment),
	}
}

func sortedClients(groups map[string][]cargo.Record) []string {
	clients := make([]string, 0, len(groups))
	for c, recs := range groups {
		if len(recs) < 2 {
			continue
		}
		clients = append(clients, c)
	}
	sort.Strings(clients)
	return clients
}

// SortViolations puts violations in a canonical order: client, earlier
// arrival, later arrival, then certificates and rows.
func SortViolations(vs []Violation) {
	sort.SliceStable(vs, func(i, j int) bool {
		a, b := vs[i], vs[j]
		if a.Client != b.Client {
			return a.Client < b.Client
		}
		if c := a.EarlierArrivalDate.Compare(b.EarlierArrivalDate); c != 0 {
			return c < 0
		}
		if c := a.LaterArrivalDate.Compare(b.LaterArrivalDate); c != 0 {
			return c < 0
		}
		if c := strings.Compare(a.EarlierArrivalCertificate, b.EarlierArrivalCertificate); c != 0 {
			return c < 0
		}
		if c := strings.Compare(a.LaterArrivalCertificate, b.LaterArrivalCertificate); c != 0 {
			return c < 0
		}
		if a.EarlierRow != b.EarlierRow {
			return a.EarlierRow < b.EarlierRow
		}
		return a.LaterRow < b.LaterRow
	})
}
