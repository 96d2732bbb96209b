// Package cargo defines the cleaned shape of a pier log row.
package cargo

import "strings"

// Tonnage is an optional gross weight in tonnes.
type Tonnage struct {
	Value float64
	Valid bool
}

// Tonnes returns a present weight.
func Tonnes(v float64) Tonnage { return Tonnage{Value: v, Valid: true} }

// Or returns the weight, or def when absent.
func (t Tonnage) Or(def float64) float64 {
	if !t.Valid {
		return def
	}
	return t.Value
}

// Record is one cleaned row of the pier log.
// Text fields are trimmed and never hold a missing-value placeholder.
type Record struct {
	Row         int // 1-based data row in the source, 0 when built in code
	Vessel      string
	Client      string
	Certificate string
	Carrier     string
	TruckPlate  string
	Waybill     string
	Gross       Tonnage
	Arrival     Date // accepted on the pier
	Shipment    Date // shipped out by truck
}

// Shipped reports whether the cargo has left the pier.
func (r Record) Shipped() bool { return r.Shipment.Valid() }

// OnPier reports cargo accepted but not yet shipped.
func (r Record) OnPier() bool { return r.Arrival.Valid() && !r.Shipment.Valid() }

// InTransit reports cargo with neither date, still on its way to the pier.
func (r Record) InTransit() bool { return !r.Arrival.Valid() && !r.Shipment.Valid() }

// Eligible reports whether the record takes part in FIFO comparison.
// A blank client does not count as a client.
func (r Record) Eligible() bool {
	return strings.TrimSpace(r.Client) != "" && r.Arrival.Valid() && r.Shipment.Valid()
}
