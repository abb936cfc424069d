// Package report assembles analysis results for one page-load trace into
// a serializable report and renders summary charts.
package report

import (
	"encoding/json"
	"errors"
	"io"
	"math"
	"sort"
	"time"

	"github.com/webperflab/NetworkTimingAnalyzer/src/analysis"
	"github.com/webperflab/NetworkTimingAnalyzer/src/logging"
	"github.com/webperflab/NetworkTimingAnalyzer/src/types"
)

// OriginTiming is one origin's row in the report.
type OriginTiming struct {
	Origin             string            `json:"origin"`
	RTT                *analysis.Summary `json:"rtt_ms,omitempty"`
	ServerResponseTime *analysis.Summary `json:"server_response_time_ms,omitempty"`
}

// Report is the full analysis result for one trace. All durations are
// milliseconds; throughput is bits per second.
type Report struct {
	GeneratedUTC    string `json:"generated_utc"`
	PageTag         string `json:"page_tag,omitempty"`
	FinalURL        string `json:"final_url,omitempty"`
	MainDocumentURL string `json:"main_document_url,omitempty"`
	RecordCount     int    `json:"record_count"`
	OriginCount     int    `json:"origin_count"`
	// ThroughputUnconstrained is set instead of encoding +Inf when the
	// trace had no eligible network activity.
	ThroughputBps           float64           `json:"throughput_bps,omitempty"`
	ThroughputUnconstrained bool              `json:"throughput_unconstrained,omitempty"`
	ConnectionReuseRatePct  float64           `json:"connection_reuse_rate_pct"`
	ConnectionInfoTrusted   bool              `json:"connection_info_trusted"`
	AggregateRTT            analysis.Summary  `json:"aggregate_rtt_ms"`
	AggregateServerTime     *analysis.Summary `json:"aggregate_server_response_time_ms,omitempty"`
	Origins                 []OriginTiming    `json:"origins"`
}

// BuildOptions configures Build.
type BuildOptions struct {
	// FinalURL overrides the trace's recorded final URL for main-document
	// identification.
	FinalURL string
	RTT      analysis.RTTOptions
}

// Build runs the full analysis over records and assembles a report.
// RTT estimation failing wholesale (ErrNoTimingData) is fatal for the
// report; an unidentifiable main document or failed server-time estimate
// only degrades it.
func Build(records []*types.NetworkRecord, opts BuildOptions) (*Report, error) {
	rttOpts := opts.RTT
	if rttOpts == (analysis.RTTOptions{}) {
		rttOpts = analysis.DefaultRTTOptions()
	}
	rtt, err := analysis.EstimateRTTByOrigin(records, rttOpts)
	if err != nil {
		return nil, err
	}

	r := &Report{
		GeneratedUTC: time.Now().UTC().Format(time.RFC3339),
		FinalURL:     opts.FinalURL,
		RecordCount:  len(records),
		OriginCount:  len(analysis.GroupByOrigin(records)),
		AggregateRTT: rtt.Aggregate,
	}

	rttByOrigin := make(map[string]float64, len(rtt.Origins))
	for origin, s := range rtt.Origins {
		rttByOrigin[origin] = s.Min
	}
	serverTime, err := analysis.EstimateServerResponseTimeByOrigin(records, analysis.ServerTimeOptions{
		RTTByOrigin: rttByOrigin,
		FallbackRTT: rtt.Aggregate.Min,
	})
	haveServerTime := err == nil
	if !haveServerTime {
		logging.Warnf("server response time unavailable: %v", err)
	} else {
		agg := serverTime.Aggregate
		r.AggregateServerTime = &agg
	}

	for origin, s := range rtt.Origins {
		row := OriginTiming{Origin: origin}
		rttCopy := s
		row.RTT = &rttCopy
		if haveServerTime {
			if st, ok := serverTime.Origins[origin]; ok {
				stCopy := st
				row.ServerResponseTime = &stCopy
			}
		}
		r.Origins = append(r.Origins, row)
	}
	if haveServerTime {
		// Origins that produced server-time samples but no RTT samples.
		for origin, st := range serverTime.Origins {
			if _, ok := rtt.Origins[origin]; ok {
				continue
			}
			stCopy := st
			r.Origins = append(r.Origins, OriginTiming{Origin: origin, ServerResponseTime: &stCopy})
		}
	}
	sort.Slice(r.Origins, func(i, j int) bool { return r.Origins[i].Origin < r.Origins[j].Origin })

	if tp := analysis.EstimateThroughput(records); math.IsInf(tp, 1) {
		r.ThroughputUnconstrained = true
	} else {
		r.ThroughputBps = tp
	}

	reused := analysis.EstimateIfConnectionWasReused(records, analysis.ReuseOptions{})
	if len(reused) > 0 {
		count := 0
		for _, wasReused := range reused {
			if wasReused {
				count++
			}
		}
		r.ConnectionReuseRatePct = float64(count) / float64(len(reused)) * 100
	}
	r.ConnectionInfoTrusted = analysis.CanTrustConnectionInformation(records)

	if main, err := analysis.FindMainDocument(records, opts.FinalURL); err != nil {
		logging.Warnf("main document unavailable: %v", err)
	} else {
		r.MainDocumentURL = main.URL
	}
	return r, nil
}

// WriteJSON writes the report as indented JSON.
func (r *Report) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// ErrNothingToChart is returned when a chart is requested for a report
// with no per-origin summaries.
var ErrNothingToChart = errors.New("report has no origin timings to chart")
