package pier

import (
	"sort"

	"github.com/DrSkyle/pierwatch/pkg/cargo"
)

// MonthStats compares what a month brought to the pier with what it shipped.
type MonthStats struct {
	Month string `json:"month"` // "2006-01"

	Vessels        int     `json:"vessels"`
	ArrivalDays    int     `json:"arrival_days"`
	AcceptedTonnes float64 `json:"accepted_tonnes"`
	AcceptedPlaces int     `json:"accepted_places"`

	Trips         int     `json:"trips"`
	ShippedTonnes float64 `json:"shipped_tonnes"`
	Clients       int     `json:"clients"`
	ShippedPlaces int     `json:"shipped_places"`

	AvgPerTrip float64 `json:"avg_per_trip"`
	// Utilization is shipped/accepted tonnes in percent, 0 when nothing arrived.
	Utilization float64 `json:"utilization"`
}

type monthAcc struct {
	MonthStats
	vessels map[string]struct{}
	days    map[string]struct{}
	trips   map[string]struct{}
	clients map[string]struct{}
}

// Monthly returns per-month arrival and shipment figures in month order.
// Arrivals are bucketed by arrival date, shipments by shipment date.
func Monthly(records []cargo.Record) []MonthStats {
	months := make(map[string]*monthAcc)
	get := func(m string) *monthAcc {
		a, ok := months[m]
		if !ok {
			a = &monthAcc{
				MonthStats: MonthStats{Month: m},
				vessels:    make(map[string]struct{}),
				days:       make(map[string]struct{}),
				trips:      make(map[string]struct{}),
				clients:    make(map[string]struct{}),
			}
			months[m] = a
		}
		return a
	}

	for _, r := range records {
		if r.Arrival.Valid() {
			a := get(r.Arrival.Month())
			if r.Vessel != "" {
				a.vessels[r.Vessel] = struct{}{}
			}
			a.days[r.Arrival.String()] = struct{}{}
			a.AcceptedTonnes += r.Gross.Or(0)
			a.AcceptedPlaces++
		}
		if r.Shipped() {
			a := get(r.Shipment.Month())
			a.trips[TripKey(r)] = struct{}{}
			if r.Client != "" {
				a.clients[r.Client] = struct{}{}
			}
			a.ShippedTonnes += r.Gross.Or(0)
			a.ShippedPlaces++
		}
	}

	out := make([]MonthStats, 0, len(months))
	for _, a := range months {
		s := a.MonthStats
		s.Vessels = len(a.vessels)
		s.ArrivalDays = len(a.days)
		s.Trips = len(a.trips)
		s.Clients = len(a.clients)
		if s.Trips > 0 {
			s.AvgPerTrip = s.ShippedTonnes / float64(s.Trips)
		}
		if s.AcceptedTonnes > 0 {
			s.Utilization = s.ShippedTonnes / s.AcceptedTonnes * 100
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out
}
