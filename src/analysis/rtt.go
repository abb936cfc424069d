package analysis

import (
	"math"

	"github.com/webperflab/NetworkTimingAnalyzer/src/types"
)

// Empirically tuned constants inherited from the source heuristics.
// Changing any of them silently shifts every downstream score, so they are
// preserved verbatim rather than re-derived.
const (
	// InitialCongestionWindow is the classic 10-segment initial TCP cwnd in
	// bytes. Transfers below it finish in one burst and tell us nothing
	// about latency via download timing.
	InitialCongestionWindow = 14 * 1024

	// maxDownloadRoundTrips caps the download-timing strategy: past ~5
	// round trips bandwidth dominates latency and the estimate degrades.
	maxDownloadRoundTrips = 5

	// Assumed share of TTFB spent in server processing, used by the
	// headers-end strategy. Dynamic endpoints spend most of their TTFB on
	// the server; static assets mostly pay network cost.
	defaultServerResponseShare = 0.4
	dynamicServerResponseShare = 0.9

	// minHeadersEndRTT floors headers-end estimates (milliseconds) so noisy
	// records cannot produce zero or negative RTTs.
	minHeadersEndRTT = 3

	// DefaultCoarseEstimateMultiplier deflates coarse estimates, which all
	// systematically overestimate RTT.
	DefaultCoarseEstimateMultiplier = 0.3
)

// RTTOptions configures EstimateRTTByOrigin.
type RTTOptions struct {
	// ForceCoarseEstimates skips the TCP-handshake strategy even when
	// handshake timings are available.
	ForceCoarseEstimates bool
	// CoarseEstimateMultiplier scales every coarse estimate before
	// summarization.
	CoarseEstimateMultiplier float64
	// The three coarse sub-strategies, independently toggleable (primarily
	// for isolated testing).
	UseDownloadEstimates   bool
	UseSendStartEstimates  bool
	UseHeadersEndEstimates bool
}

// DefaultRTTOptions returns the standard configuration: handshake-first
// with all coarse fallbacks enabled at the default deflation.
func DefaultRTTOptions() RTTOptions {
	return RTTOptions{
		CoarseEstimateMultiplier: DefaultCoarseEstimateMultiplier,
		UseDownloadEstimates:     true,
		UseSendStartEstimates:    true,
		UseHeadersEndEstimates:   true,
	}
}

// estimateRTTViaConnectionTiming derives RTT from the TCP (and TLS)
// handshake of records on fresh connections. With SSL negotiation data the
// handshake yields two samples, TCP then SSL; SSL can take more than one
// round trip but False Start is assumed.
func estimateRTTViaConnectionTiming(records []*types.NetworkRecord, reused map[string]bool) map[string][]float64 {
	return estimateByOrigin(records, reused, func(r *types.NetworkRecord, t *types.RequestTiming, wasReused bool) []float64 {
		if wasReused {
			return nil
		}
		if !hasOffset(t.ConnectStart) || !hasOffset(t.ConnectEnd) || t.ConnectEnd < t.ConnectStart {
			return nil
		}
		if hasOffset(t.SSLStart) && hasOffset(t.SSLEnd) && t.SSLStart >= t.ConnectStart && t.ConnectEnd >= t.SSLStart {
			return []float64{t.SSLStart - t.ConnectStart, t.ConnectEnd - t.SSLStart}
		}
		return []float64{t.ConnectEnd - t.ConnectStart}
	})
}

// estimateRTTViaDownloadTiming derives RTT from how long the response body
// took after the first byte, assuming slow-start doubles the congestion
// window each round trip. Only transfers that cleared the initial window
// qualify, and high round-trip counts are discarded since bandwidth, not
// latency, dominates there. Connection reuse is irrelevant here.
func estimateRTTViaDownloadTiming(records []*types.NetworkRecord, reused map[string]bool) map[string][]float64 {
	return estimateByOrigin(records, reused, func(r *types.NetworkRecord, t *types.RequestTiming, _ bool) []float64 {
		if r.TransferSize <= InitialCongestionWindow {
			return nil
		}
		if !hasOffset(t.ReceiveHeadersEnd) {
			return nil
		}
		totalTime := (r.EndTime - r.StartTime) * 1000
		downloadTimeAfterFirstByte := totalTime - t.ReceiveHeadersEnd
		if downloadTimeAfterFirstByte <= 0 {
			return nil
		}
		roundTrips := math.Log2(float64(r.TransferSize) / InitialCongestionWindow)
		if roundTrips > maxDownloadRoundTrips {
			return nil
		}
		return []float64{downloadTimeAfterFirstByte / roundTrips}
	})
}

// estimateRTTViaSendStartTiming assumes everything before the request was
// sent on a fresh connection was DNS + TCP (+ TLS) handshake work: two
// round trips, three for HTTPS.
func estimateRTTViaSendStartTiming(records []*types.NetworkRecord, reused map[string]bool) map[string][]float64 {
	return estimateByOrigin(records, reused, func(r *types.NetworkRecord, t *types.RequestTiming, wasReused bool) []float64 {
		if wasReused {
			return nil
		}
		if !hasOffset(t.SendStart) {
			return nil
		}
		roundTrips := 2.0
		if r.IsSecure() {
			roundTrips++
		}
		return []float64{t.SendStart / roundTrips}
	})
}

// estimateRTTViaHeadersEndTiming is the last-resort strategy: subtract an
// assumed server-processing share from TTFB and divide by the round trips
// the request must have paid (1 when reused; 3 when fresh, 4 for fresh
// HTTPS). Estimates are floored at minHeadersEndRTT.
func estimateRTTViaHeadersEndTiming(records []*types.NetworkRecord, reused map[string]bool) map[string][]float64 {
	return estimateByOrigin(records, reused, func(r *types.NetworkRecord, t *types.RequestTiming, wasReused bool) []float64 {
		if !hasOffset(t.ReceiveHeadersEnd) {
			return nil
		}
		if r.ResourceType == "" {
			return nil
		}
		share := defaultServerResponseShare
		switch r.ResourceType {
		case types.ResourceDocument, types.ResourceXHR, types.ResourceFetch:
			share = dynamicServerResponseShare
		}
		serverResponseTime := t.ReceiveHeadersEnd * share
		roundTrips := 1.0
		if !wasReused {
			roundTrips += 2
			if r.IsSecure() {
				roundTrips++
			}
		}
		return []float64{math.Max((t.ReceiveHeadersEnd-serverResponseTime)/roundTrips, minHeadersEndRTT)}
	})
}

// EstimateRTTByOrigin estimates round-trip time per origin, in
// milliseconds. The TCP-handshake strategy is preferred; when it yields
// nothing (or the caller forces coarse mode) the download, send-start and
// headers-end strategies are combined per origin and deflated by the
// coarse multiplier. Returns ErrNoTimingData when no origin yields any
// estimate at all.
func EstimateRTTByOrigin(records []*types.NetworkRecord, opts RTTOptions) (SummaryByOrigin, error) {
	reused := EstimateIfConnectionWasReused(records, ReuseOptions{})

	estimates := estimateRTTViaConnectionTiming(records, reused)
	if len(estimates) == 0 || opts.ForceCoarseEstimates {
		estimates = map[string][]float64{}
		if opts.UseDownloadEstimates {
			for origin, samples := range estimateRTTViaDownloadTiming(records, reused) {
				estimates[origin] = append(estimates[origin], samples...)
			}
		}
		if opts.UseSendStartEstimates {
			for origin, samples := range estimateRTTViaSendStartTiming(records, reused) {
				estimates[origin] = append(estimates[origin], samples...)
			}
		}
		if opts.UseHeadersEndEstimates {
			for origin, samples := range estimateRTTViaHeadersEndTiming(records, reused) {
				estimates[origin] = append(estimates[origin], samples...)
			}
		}
		for _, samples := range estimates {
			for i := range samples {
				samples[i] *= opts.CoarseEstimateMultiplier
			}
		}
	}

	if len(estimates) == 0 {
		return SummaryByOrigin{}, ErrNoTimingData
	}
	return summarize(estimates)
}

// ServerTimeOptions configures EstimateServerResponseTimeByOrigin.
type ServerTimeOptions struct {
	// RTTByOrigin short-circuits RTT estimation with precomputed per-origin
	// values (milliseconds). FallbackRTT covers origins missing from the
	// map. When RTTByOrigin is nil both are derived from
	// EstimateRTTByOrigin using each origin's minimum: queuing and
	// contention only ever inflate observed RTT, so the minimum is the
	// closest sample to the true network latency.
	RTTByOrigin map[string]float64
	FallbackRTT float64
	// RTT configures the internal RTT estimation when RTTByOrigin is nil.
	RTT RTTOptions
}

// EstimateServerResponseTimeByOrigin estimates how long each origin's
// servers spent producing responses, in milliseconds: TTFB minus the
// origin's RTT, floored at zero per record.
func EstimateServerResponseTimeByOrigin(records []*types.NetworkRecord, opts ServerTimeOptions) (SummaryByOrigin, error) {
	rttByOrigin := opts.RTTByOrigin
	fallbackRTT := opts.FallbackRTT
	if rttByOrigin == nil {
		rttOpts := opts.RTT
		if rttOpts == (RTTOptions{}) {
			rttOpts = DefaultRTTOptions()
		}
		rttSummary, err := EstimateRTTByOrigin(records, rttOpts)
		if err != nil {
			return SummaryByOrigin{}, err
		}
		rttByOrigin = make(map[string]float64, len(rttSummary.Origins))
		for origin, s := range rttSummary.Origins {
			rttByOrigin[origin] = s.Min
		}
		fallbackRTT = rttSummary.Aggregate.Min
	}

	reused := EstimateIfConnectionWasReused(records, ReuseOptions{})
	estimates := estimateByOrigin(records, reused, func(r *types.NetworkRecord, t *types.RequestTiming, _ bool) []float64 {
		if !hasOffset(t.ReceiveHeadersEnd) || !hasOffset(t.SendEnd) {
			return nil
		}
		ttfb := t.ReceiveHeadersEnd - t.SendEnd
		rtt, ok := rttByOrigin[r.SecurityOrigin()]
		if !ok {
			rtt = fallbackRTT
		}
		return []float64{math.Max(ttfb-rtt, 0)}
	})

	if len(estimates) == 0 {
		return SummaryByOrigin{}, ErrNoTimingData
	}
	return summarize(estimates)
}
