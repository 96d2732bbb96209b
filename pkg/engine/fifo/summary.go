package fifo

import "sort"

// ClientCount is the number of violations of one client.
type ClientCount struct {
	Client     string `json:"client"`
	Violations int    `json:"violations"`
	MaxGapDays int    `json:"max_gap_days"`
}

// Summary holds the figures a report shows next to the violation list.
type Summary struct {
	Total int `json:"total"`
	// MeanGapDays is nil when there are no violations.
	MeanGapDays *float64      `json:"mean_gap_days,omitempty"`
	MaxGapDays  int           `json:"max_gap_days"`
	ByClient    []ClientCount `json:"by_client"`
}

// Summarize computes totals over vs. Clients are ranked by count, then name.
func Summarize(vs []Violation) Summary {
	s := Summary{Total: len(vs), ByClient: []ClientCount{}}
	if len(vs) == 0 {
		return s
	}

	idx := make(map[string]int)
	sum := 0
	for _, v := range vs {
		sum += v.ShipmentDayGap
		if v.ShipmentDayGap > s.MaxGapDays {
			s.MaxGapDays = v.ShipmentDayGap
		}

		i, ok := idx[v.Client]
		if !ok {
			i = len(s.ByClient)
			idx[v.Client] = i
			s.ByClient = append(s.ByClient, ClientCount{Client: v.Client})
		}
		s.ByClient[i].Violations++
		if v.ShipmentDayGap > s.ByClient[i].MaxGapDays {
			s.ByClient[i].MaxGapDays = v.ShipmentDayGap
		}
	}

	mean := float64(sum) / float64(len(vs))
	s.MeanGapDays = &mean

	sort.Slice(s.ByClient, func(i, j int) bool {
		if s.ByClient[i].Violations != s.ByClient[j].Violations {
			return s.ByClient[i].Violations > s.ByClient[j].Violations
		}
		return s.ByClient[i].Client < s.ByClient[j].Client
	})
	return s
}

// Top returns at most n leading clients.
func (s Summary) Top(n int) []ClientCount {
	if n <= 0 || n >= len(s.ByClient) {
		return s.ByClient
	}
	return s.ByClient[:n]
}
