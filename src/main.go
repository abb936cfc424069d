// netanalyze summarizes the network characteristics of one page-load
// trace: per-origin round-trip time and server response time, aggregate
// throughput, connection reuse and the main document request.
//
// Input is a JSONL trace (one envelope per line) produced by a
// browser-instrumentation collaborator; see src/types for the line shape.
// Output is a human-readable summary on stdout, optionally a JSON report
// and a PNG chart of per-origin median RTT.
package main

import (
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/m-lab/go/flagx"
	"github.com/m-lab/go/rtx"

	"github.com/webperflab/NetworkTimingAnalyzer/src/analysis"
	"github.com/webperflab/NetworkTimingAnalyzer/src/logging"
	"github.com/webperflab/NetworkTimingAnalyzer/src/report"
	"github.com/webperflab/NetworkTimingAnalyzer/src/traceio"
	"github.com/webperflab/NetworkTimingAnalyzer/src/types"
)

var (
	flagInput       = flag.String("input", "network_trace.jsonl", "Path to the JSONL network trace")
	flagFinalURL    = flag.String("final-url", "", "Override the trace's final navigation URL")
	flagReport      = flag.String("report", "", "Write a JSON report to this path")
	flagChart       = flag.String("chart", "", "Write a PNG chart of per-origin median RTT to this path")
	flagForceCoarse = flag.Bool("force-coarse", false, "Skip the TCP-handshake RTT strategy even when available")
	flagMultiplier  = flag.Float64("coarse-multiplier", analysis.DefaultCoarseEstimateMultiplier, "Deflation factor applied to coarse RTT estimates")
	flagLogLevel    = flag.String("loglevel", "info", "Log level: debug, info, warn, error")
)

func main() {
	flag.Parse()
	rtx.Must(flagx.ArgsFromEnv(flag.CommandLine), "failed to parse flags from environment")
	logging.SetLogLevel(*flagLogLevel)

	trace, err := traceio.ReadTrace(*flagInput, types.SchemaVersion)
	rtx.Must(err, "failed to load trace")

	finalURL := trace.FinalURL
	if *flagFinalURL != "" {
		finalURL = *flagFinalURL
	}
	rttOpts := analysis.DefaultRTTOptions()
	rttOpts.ForceCoarseEstimates = *flagForceCoarse
	rttOpts.CoarseEstimateMultiplier = *flagMultiplier

	rep, err := report.Build(trace.Records, report.BuildOptions{FinalURL: finalURL, RTT: rttOpts})
	rtx.Must(err, "analysis failed")
	rep.PageTag = trace.PageTag

	printSummary(rep)

	if *flagReport != "" {
		f, err := os.Create(*flagReport)
		rtx.Must(err, "failed to create report file")
		rtx.Must(rep.WriteJSON(f), "failed to write report")
		rtx.Must(f.Close(), "failed to close report file")
		logging.Infof("report written to %s", *flagReport)
	}
	if *flagChart != "" {
		f, err := os.Create(*flagChart)
		rtx.Must(err, "failed to create chart file")
		rtx.Must(report.RenderRTTChart(rep, f), "failed to render chart")
		rtx.Must(f.Close(), "failed to close chart file")
		logging.Infof("chart written to %s", *flagChart)
	}
}

func printSummary(rep *report.Report) {
	fmt.Printf("[analysis] %d records across %d origins", rep.RecordCount, rep.OriginCount)
	if rep.PageTag != "" {
		fmt.Printf(" (page_tag=%s)", rep.PageTag)
	}
	fmt.Println()
	if rep.MainDocumentURL != "" {
		fmt.Printf("[analysis] main document: %s\n", rep.MainDocumentURL)
	}
	if rep.ThroughputUnconstrained {
		fmt.Println("[analysis] throughput: unconstrained (no observed network activity)")
	} else {
		fmt.Printf("[analysis] throughput: %s (%s/s over busy time)\n",
			humanize.SIWithDigits(rep.ThroughputBps, 2, "bit/s"),
			humanize.Bytes(uint64(rep.ThroughputBps/8)))
	}
	trust := "heuristic"
	if rep.ConnectionInfoTrusted {
		trust = "reported"
	}
	fmt.Printf("[analysis] connection reuse: %.1f%% (%s)\n", rep.ConnectionReuseRatePct, trust)
	fmt.Printf("[analysis] aggregate RTT ms: min=%.1f median=%.1f avg=%.1f max=%.1f\n",
		rep.AggregateRTT.Min, rep.AggregateRTT.Median, rep.AggregateRTT.Avg, rep.AggregateRTT.Max)
	if rep.AggregateServerTime != nil {
		s := rep.AggregateServerTime
		fmt.Printf("[analysis] aggregate server time ms: min=%.1f median=%.1f avg=%.1f max=%.1f\n",
			s.Min, s.Median, s.Avg, s.Max)
	}

	rows := append([]report.OriginTiming(nil), rep.Origins...)
	sort.Slice(rows, func(i, j int) bool { return rows[i].Origin < rows[j].Origin })
	for _, row := range rows {
		line := fmt.Sprintf("[analysis]   %-40s", row.Origin)
		if row.RTT != nil {
			line += fmt.Sprintf(" rtt_median=%.1fms", row.RTT.Median)
		}
		if row.ServerResponseTime != nil {
			line += fmt.Sprintf(" server_median=%.1fms", row.ServerResponseTime.Median)
		}
		fmt.Println(line)
	}
}
