package analysis

import (
	"errors"
	"sort"
)

// ErrNoEstimates is returned when a summary is requested over zero values.
// Callers decide between aborting and substituting a hardcoded fallback.
var ErrNoEstimates = errors.New("no estimates to summarize")

// Summary is the min/max/avg/median of one non-empty estimate sequence.
// All four values share the unit of the inputs (milliseconds for RTT and
// server response time).
type Summary struct {
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Avg    float64 `json:"avg"`
	Median float64 `json:"median"`
}

// SummaryByOrigin maps each security origin to its summary and carries the
// cross-origin aggregate as an explicit field rather than a reserved key,
// so an origin can never collide with the aggregate entry.
type SummaryByOrigin struct {
	Origins   map[string]Summary
	Aggregate Summary
}

// newSummary computes a Summary over values without mutating them: the
// input is copied before sorting so callers keep their ordering.
func newSummary(values []float64) (Summary, error) {
	if len(values) == 0 {
		return Summary{}, ErrNoEstimates
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	sum := 0.0
	for _, v := range sorted {
		sum += v
	}
	var median float64
	mid := (len(sorted) - 1) / 2
	if len(sorted)%2 == 0 {
		median = (sorted[mid] + sorted[mid+1]) / 2
	} else {
		median = sorted[mid]
	}
	return Summary{
		Min:    sorted[0],
		Max:    sorted[len(sorted)-1],
		Avg:    sum / float64(len(sorted)),
		Median: median,
	}, nil
}

// summarize reduces per-origin estimate lists to per-origin summaries plus
// the aggregate over every estimate across all origins.
func summarize(estimates map[string][]float64) (SummaryByOrigin, error) {
	out := SummaryByOrigin{Origins: make(map[string]Summary, len(estimates))}
	var all []float64
	for origin, values := range estimates {
		s, err := newSummary(values)
		if err != nil {
			// Origins with zero estimates are never inserted upstream.
			return SummaryByOrigin{}, err
		}
		out.Origins[origin] = s
		all = append(all, values...)
	}
	agg, err := newSummary(all)
	if err != nil {
		return SummaryByOrigin{}, err
	}
	out.Aggregate = agg
	return out, nil
}
