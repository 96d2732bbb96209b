package pier

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/DrSkyle/pierwatch/pkg/cargo"
)

// voyagePattern matches a round voyage suffix: "Волга (3)".
var voyagePattern = regexp.MustCompile(`^(.*?)\s*\((\d+)\)\s*$`)

// ParseVoyage splits a vessel name into its base name and round voyage
// number. Names without a suffix have voyage 0.
func ParseVoyage(name string) (string, int) {
	name = strings.TrimSpace(name)
	m := voyagePattern.FindStringSubmatch(name)
	if m == nil {
		return name, 0
	}
	n, err := strconv.Atoi(m[2])
	if err != nil {
		return name, 0
	}
	return strings.TrimSpace(m[1]), n
}

// VesselVisit aggregates the arrivals of one vessel.
type VesselVisit struct {
	Base string `json:"base"`
	// Name is the vessel name as first seen in the log.
	Name      string  `json:"name"`
	Visits    int     `json:"visits"`
	MaxVoyage int     `json:"max_voyage"`
	Tonnage   float64 `json:"tonnage"`
}

// VesselVisits groups arrived cargo by base vessel name. A visit is a
// distinct arrival date.
func VesselVisits(records []cargo.Record) []VesselVisit {
	type acc struct {
		VesselVisit
		days map[string]struct{}
	}
	byBase := make(map[string]*acc)
	var order []string

	for _, r := range records {
		if !r.Arrival.Valid() || r.Vessel == "" {
			continue
		}
		base, voyage := ParseVoyage(r.Vessel)
		a, ok := byBase[base]
		if !ok {
			a = &acc{VesselVisit: VesselVisit{Base: base, Name: r.Vessel}, days: make(map[string]struct{})}
			byBase[base] = a
			order = append(order, base)
		}
		a.days[r.Arrival.String()] = struct{}{}
		if voyage > a.MaxVoyage {
			a.MaxVoyage = voyage
		}
		a.Tonnage += r.Gross.Or(0)
	}

	sort.Strings(order)
	out := make([]VesselVisit, 0, len(order))
	for _, base := range order {
		a := byBase[base]
		a.Visits = len(a.days)
		out = append(out, a.VesselVisit)
	}
	return out
}

// WithoutRoundVoyages keeps vessels seen once and never numbered, heaviest
// first.
func WithoutRoundVoyages(visits []VesselVisit, limit int) []VesselVisit {
	var out []VesselVisit
	for _, v := range visits {
		if v.Visits == 1 && v.MaxVoyage == 0 {
			out = append(out, v)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Tonnage > out[j].Tonnage })
	return head(out, limit)
}
