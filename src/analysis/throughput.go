package analysis

import (
	"math"
	"sort"
	"strings"

	"github.com/webperflab/NetworkTimingAnalyzer/src/types"
)

// timeBoundary marks the start or end of one in-flight download window.
type timeBoundary struct {
	time    float64
	isStart bool
}

// EstimateThroughput computes aggregate network throughput in bits per
// second across all records. Download windows (ResponseReceivedTime to
// EndTime, seconds) of concurrent transfers are merged so overlapping
// downloads only count their wall-clock span once; idle gaps between
// windows contribute nothing.
//
// Records whose bodies did not come over the network or did not finish
// cleanly are skipped: data: URIs, failed or unfinished requests, status
// codes above 300, zero transfer size. With no eligible records the
// function returns +Inf, meaning "no observed activity, assume
// unconstrained".
func EstimateThroughput(records []*types.NetworkRecord) float64 {
	var totalBytes int64
	var boundaries []timeBoundary
	for _, r := range records {
		if strings.HasPrefix(r.URL, "data:") {
			continue
		}
		if r.Failed || !r.Finished || r.StatusCode > 300 || r.TransferSize == 0 {
			continue
		}
		totalBytes += r.TransferSize
		boundaries = append(boundaries,
			timeBoundary{time: r.ResponseReceivedTime, isStart: true},
			timeBoundary{time: r.EndTime, isStart: false})
	}
	if len(boundaries) == 0 {
		return math.Inf(1)
	}
	sort.Slice(boundaries, func(i, j int) bool { return boundaries[i].time < boundaries[j].time })

	inflight := 0
	currentStart := 0.0
	totalDuration := 0.0
	for _, b := range boundaries {
		if b.isStart {
			if inflight == 0 {
				currentStart = b.time
			}
			inflight++
			continue
		}
		inflight--
		if inflight == 0 {
			totalDuration += b.time - currentStart
		}
	}
	return float64(totalBytes) * 8 / totalDuration
}
