package history

// Direction summarizes how the violation count moved.
type Direction string

const (
	DirectionFirst  Direction = "first"
	DirectionWorse  Direction = "worse"
	DirectionBetter Direction = "better"
	DirectionSteady Direction = "steady"
)

// Trend compares a run with the one before it.
type Trend struct {
	Current   Snapshot  `json:"current"`
	Previous  *Snapshot `json:"previous,omitempty"`
	Direction Direction `json:"direction"`

	ViolationsDelta int `json:"violations_delta"`
	// MeanGapDelta is nil unless both runs had violations.
	MeanGapDelta *float64 `json:"mean_gap_delta,omitempty"`
}

// Compare computes the trend from prev to cur. prev may be nil.
func Compare(prev *Snapshot, cur Snapshot) Trend {
	t := Trend{Current: cur, Previous: prev, Direction: DirectionFirst}
	if prev == nil {
		return t
	}

	t.ViolationsDelta = cur.Violations - prev.Violations
	switch {
	case t.ViolationsDelta > 0:
		t.Direction = DirectionWorse
	case t.ViolationsDelta < 0:
		t.Direction = DirectionBetter
	default:
		t.Direction = DirectionSteady
	}

	if prev.MeanGapDays != nil && cur.MeanGapDays != nil {
		d := *cur.MeanGapDays - *prev.MeanGapDays
		t.MeanGapDelta = &d
	}
	return t
}

// Trends pairs each snapshot with the previous one of the same source,
// oldest first.
func Trends(history []Snapshot) []Trend {
	out := make([]Trend, 0, len(history))
	for i := range history {
		out = append(out, Compare(lastOf(history[:i], history[i].Source), history[i]))
	}
	return out
}
