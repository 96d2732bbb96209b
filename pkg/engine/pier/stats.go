// Package pier computes cargo flow statistics over the pier log.
package pier

import (
	"sort"
	"strings"

	"github.com/DrSkyle/pierwatch/pkg/cargo"
)

// ClientStatus splits a client's tonnage by where the cargo is.
type ClientStatus struct {
	Client    string  `json:"client"`
	Shipped   float64 `json:"shipped"`
	OnPier    float64 `json:"on_pier"`
	InTransit float64 `json:"in_transit"`
	Total     float64 `json:"total"`
}

// ClientTonnage is a client's tonnage for one measure.
type ClientTonnage struct {
	Client  string  `json:"client"`
	Tonnage float64 `json:"tonnage"`
}

// ClientTrips describes how a client's cargo left the pier.
type ClientTrips struct {
	Client  string  `json:"client"`
	Trips   int     `json:"trips"`
	Tonnage float64 `json:"tonnage"`
	Places  int     `json:"places"`
	// AvgPerTrip is tonnes per truck trip.
	AvgPerTrip float64 `json:"avg_per_trip"`
}

// StatusByClient returns per-client tonnage shipped, on the pier and in
// transit, largest total first. limit <= 0 means no limit.
func StatusByClient(records []cargo.Record, limit int) []ClientStatus {
	idx := make(map[string]*ClientStatus)
	var order []string
	get := func(client string) *ClientStatus {
		s, ok := idx[client]
		if !ok {
			s = &ClientStatus{Client: client}
			idx[client] = s
			order = append(order, client)
		}
		return s
	}

	for _, r := range records {
		w := r.Gross.Or(0)
		switch {
		case r.Shipped():
			get(r.Client).Shipped += w
		case r.OnPier():
			get(r.Client).OnPier += w
		case r.InTransit():
			get(r.Client).InTransit += w
		}
	}

	out := make([]ClientStatus, 0, len(order))
	for _, c := range order {
		s := idx[c]
		s.Total = s.Shipped + s.OnPier + s.InTransit
		out = append(out, *s)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].Client < out[j].Client
	})
	return head(out, limit)
}

// ShippedOn returns tonnage shipped on day per client, largest first.
func ShippedOn(records []cargo.Record, day cargo.Date, limit int) []ClientTonnage {
	sums := make(map[string]float64)
	for _, r := range records {
		if r.Shipped() && r.Shipment.Equal(day) {
			sums[r.Client] += r.Gross.Or(0)
		}
	}
	return rankTonnage(sums, limit)
}

// TripKey identifies one truck trip: the same truck, carrier and waybill on
// the same shipment day.
func TripKey(r cargo.Record) string {
	return strings.Join([]string{r.Shipment.String(), r.Carrier, r.TruckPlate, r.Waybill}, "_")
}

// Trips returns per-client trip figures for shipped cargo, highest average
// tonnage per trip first.
func Trips(records []cargo.Record) []ClientTrips {
	type acc struct {
		trips   map[string]struct{}
		tonnage float64
		places  int
	}
	byClient := make(map[string]*acc)
	for _, r := range records {
		if !r.Shipped() {
			continue
		}
		a, ok := byClient[r.Client]
		if !ok {
			a = &acc{trips: make(map[string]struct{})}
			byClient[r.Client] = a
		}
		a.trips[TripKey(r)] = struct{}{}
		a.tonnage += r.Gross.Or(0)
		a.places++
	}

	out := make([]ClientTrips, 0, len(byClient))
	for client, a := range byClient {
		ct := ClientTrips{
			Client:  client,
			Trips:   len(a.trips),
			Tonnage: a.tonnage,
			Places:  a.places,
		}
		if ct.Trips > 0 {
			ct.AvgPerTrip = ct.Tonnage / float64(ct.Trips)
		}
		out = append(out, ct)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].AvgPerTrip != out[j].AvgPerTrip {
			return out[i].AvgPerTrip > out[j].AvgPerTrip
		}
		return out[i].Client < out[j].Client
	})
	return out
}

func rankTonnage(sums map[string]float64, limit int) []ClientTonnage {
	out := make([]ClientTonnage, 0, len(sums))
	for c, t := range sums {
		out = append(out, ClientTonnage{Client: c, Tonnage: t})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Tonnage != out[j].Tonnage {
			return out[i].Tonnage > out[j].Tonnage
		}
		return out[i].Client < out[j].Client
	})
	return head(out, limit)
}

func head[T any](xs []T, limit int) []T {
	if limit > 0 && len(xs) > limit {
		return xs[:limit]
	}
	return xs
}
