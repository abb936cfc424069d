// Package analysis estimates network characteristics of a page load from
// observed HTTP resource timings: per-origin round-trip time and server
// response time, aggregate throughput, connection reuse and the main
// document request.
//
// Every function is a pure, synchronous computation over the records it is
// given. Inputs are treated as read-only; estimate maps and summaries are
// built fresh per call, so concurrent calls are safe as long as no caller
// mutates a shared record slice mid-call.
//
// Individual records with missing or negative timing sub-fields are
// silently excluded from the specific estimates they cannot support;
// protocol-timing capture is lossy in the wild and must never be fatal.
package analysis

import (
	"errors"
	"math"

	"github.com/webperflab/NetworkTimingAnalyzer/src/types"
)

var (
	// ErrNoTimingData means no origin produced a single RTT estimate under
	// any strategy. There is nothing to retry; callers fall back or abort.
	ErrNoTimingData = errors.New("no timing information available")
	// ErrNoMainResource means no record qualifies as the main document.
	ErrNoMainResource = errors.New("unable to identify the main resource")
)

// GroupByOrigin partitions records by security origin, preserving input
// order within each group. Records without a resolvable origin (data:
// URIs, malformed URLs) are excluded.
func GroupByOrigin(records []*types.NetworkRecord) map[string][]*types.NetworkRecord {
	grouped := map[string][]*types.NetworkRecord{}
	for _, r := range records {
		origin := r.SecurityOrigin()
		if origin == "" {
			continue
		}
		grouped[origin] = append(grouped[origin], r)
	}
	return grouped
}

// hasOffset reports whether a timing offset carries usable data.
func hasOffset(v float64) bool {
	return v >= 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}

// estimator inspects one record and returns zero or more estimate samples.
// reused tells it whether the record's connection was judged reused.
type estimator func(r *types.NetworkRecord, timing *types.RequestTiming, reused bool) []float64

// estimateByOrigin runs one estimator over every record carrying timing
// data and collects the samples per origin. Origins yielding no samples
// are omitted entirely.
func estimateByOrigin(records []*types.NetworkRecord, reused map[string]bool, fn estimator) map[string][]float64 {
	estimates := map[string][]float64{}
	for origin, originRecords := range GroupByOrigin(records) {
		var samples []float64
		for _, r := range originRecords {
			if r.Timing == nil {
				continue
			}
			samples = append(samples, fn(r, r.Timing, reused[r.RequestID])...)
		}
		if len(samples) > 0 {
			estimates[origin] = samples
		}
	}
	return estimates
}
