package analysis

import (
	"math"

	"github.com/webperflab/NetworkTimingAnalyzer/src/types"
)

// ReuseOptions controls connection-reuse estimation.
type ReuseOptions struct {
	// ForceCoarseEstimates applies the heuristic even when the reported
	// connection information passes the trust check.
	ForceCoarseEstimates bool
}

// CanTrustConnectionInformation reports whether the ConnectionReused flags
// in records are plausible enough to use verbatim. Per connection ID we
// track whether any record claimed a fresh (non-reused) connection: a
// connection had to be established at some point, so an ID that was only
// ever "reused" means the instrumentation lost events. A single shared
// connection ID across all records is equally suspect.
func CanTrustConnectionInformation(records []*types.NetworkRecord) bool {
	startedByConnection := map[string]bool{}
	for _, r := range records {
		startedByConnection[r.ConnectionID] = startedByConnection[r.ConnectionID] || !r.ConnectionReused
	}
	if len(startedByConnection) <= 1 {
		return false
	}
	for _, started := range startedByConnection {
		if !started {
			return false
		}
	}
	return true
}

// EstimateIfConnectionWasReused returns, for every record's request ID,
// whether its transport connection was reused from an earlier request.
//
// Reported flags are used verbatim when trustworthy. Otherwise a coarse
// per-origin heuristic applies: a record is reused when it started after
// the earliest moment any connection to its origin could have freed up
// (the minimum EndTime across the origin), or when it went over h2, which
// multiplexes and never needs a fresh per-request connection. The
// chronologically first record to each origin is always fresh, and records
// without a parseable security origin (data: URLs and the like) count as
// fresh so every request ID has an entry either way.
//
// An empty record set yields an empty map.
func EstimateIfConnectionWasReused(records []*types.NetworkRecord, opts ReuseOptions) map[string]bool {
	if !opts.ForceCoarseEstimates && CanTrustConnectionInformation(records) {
		reused := make(map[string]bool, len(records))
		for _, r := range records {
			reused[r.RequestID] = r.ConnectionReused
		}
		return reused
	}

	reused := make(map[string]bool, len(records))
	for _, originRecords := range GroupByOrigin(records) {
		earliestReusePossible := math.Inf(1)
		for _, r := range originRecords {
			if r.EndTime < earliestReusePossible {
				earliestReusePossible = r.EndTime
			}
		}
		for _, r := range originRecords {
			reused[r.RequestID] = r.StartTime >= earliestReusePossible || r.Protocol == "h2"
		}
		first := originRecords[0]
		for _, r := range originRecords[1:] {
			if r.StartTime < first.StartTime {
				first = r
			}
		}
		reused[first.RequestID] = false
	}
	for _, r := range records {
		if _, ok := reused[r.RequestID]; !ok {
			reused[r.RequestID] = false
		}
	}
	return reused
}
