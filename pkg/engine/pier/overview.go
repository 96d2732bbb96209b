package pier

import (
	"github.com/DrSkyle/pierwatch/pkg/cargo"
	"github.com/DrSkyle/pierwatch/pkg/config"
)

// Totals counts records by cargo status.
type Totals struct {
	Records   int     `json:"records"`
	Shipped   int     `json:"shipped"`
	OnPier    int     `json:"on_pier"`
	InTransit int     `json:"in_transit"`
	OnPierT   float64 `json:"on_pier_tonnes"`
}

// Overview bundles the pier statistics shown next to the FIFO report.
type Overview struct {
	Today        cargo.Date      `json:"today"`
	Totals       Totals          `json:"totals"`
	Status       []ClientStatus  `json:"status"`
	ShippedToday []ClientTonnage `json:"shipped_today"`
	Trips        []ClientTrips   `json:"trips"`
	Months       []MonthStats    `json:"months"`
	SingleVisits []VesselVisit   `json:"single_visit_vessels"`
}

// Build computes every statistic over records.
func Build(records []cargo.Record, today cargo.Date, cfg config.StatsConfig) Overview {
	var t Totals
	for _, r := range records {
		t.Records++
		switch {
		case r.Shipped():
			t.Shipped++
		case r.OnPier():
			t.OnPier++
			t.OnPierT += r.Gross.Or(0)
		case r.InTransit():
			t.InTransit++
		}
	}

	return Overview{
		Today:        today,
		Totals:       t,
		Status:       StatusByClient(records, cfg.TopClients),
		ShippedToday: ShippedOn(records, today, cfg.TopClients),
		Trips:        head(Trips(records), cfg.TopClients),
		Months:       Monthly(records),
		SingleVisits: WithoutRoundVoyages(VesselVisits(records), cfg.TopVessels),
	}
}
