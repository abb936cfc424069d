// tracegen writes a synthetic page-load trace for demos and smoke tests
// of the netanalyze CLI. Deterministic for a given seed.
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"

	"github.com/webperflab/NetworkTimingAnalyzer/src/traceio"
	"github.com/webperflab/NetworkTimingAnalyzer/src/types"
)

func main() {
	var out string
	var origins, perOrigin int
	var seed int64
	flag.StringVar(&out, "out", "network_trace.jsonl", "Output trace path")
	flag.IntVar(&origins, "origins", 3, "Number of third-party origins")
	flag.IntVar(&perOrigin, "per-origin", 5, "Requests per origin")
	flag.Int64Var(&seed, "seed", 1, "PRNG seed")
	flag.Parse()

	rng := rand.New(rand.NewSource(seed))
	trace := &traceio.Trace{
		PageTag:  "synthetic",
		FinalURL: "https://example.com/",
	}

	rttMs := 20 + rng.Float64()*60
	doc := makeRecord(rng, "https://example.com/", "doc", "conn-doc", rttMs, false)
	doc.ResourceType = types.ResourceDocument
	trace.Records = append(trace.Records, doc)

	for i := 0; i < origins; i++ {
		origin := fmt.Sprintf("https://cdn%d.example.net", i)
		connID := fmt.Sprintf("conn-o%d", i)
		originRTT := 10 + rng.Float64()*120
		for j := 0; j < perOrigin; j++ {
			id := fmt.Sprintf("o%d-r%d", i, j)
			r := makeRecord(rng, fmt.Sprintf("%s/asset-%d.js", origin, j), id, connID, originRTT, j > 0)
			r.ResourceType = types.ResourceScript
			trace.Records = append(trace.Records, r)
		}
	}

	if err := traceio.WriteTrace(out, trace); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("wrote %d records to %s\n", len(trace.Records), out)
}

func makeRecord(rng *rand.Rand, url, id, connID string, rttMs float64, reused bool) *types.NetworkRecord {
	serverMs := 10 + rng.Float64()*90
	start := rng.Float64() * 2
	t := types.NewRequestTiming()
	sent := 0.0
	if !reused {
		t.ConnectStart = 0
		t.SSLStart = rttMs
		t.SSLEnd = 2 * rttMs
		t.ConnectEnd = 2 * rttMs
		sent = 2 * rttMs
	}
	t.SendStart = sent
	t.SendEnd = sent + 1
	t.ReceiveHeadersEnd = t.SendEnd + rttMs + serverMs

	size := int64(2048 + rng.Intn(64*1024))
	ttfbSec := t.ReceiveHeadersEnd / 1000
	return &types.NetworkRecord{
		RequestID:            id,
		ConnectionID:         connID,
		ConnectionReused:     reused,
		Protocol:             "h2",
		URL:                  url,
		TransferSize:         size,
		StartTime:            start,
		ResponseReceivedTime: start + ttfbSec,
		EndTime:              start + ttfbSec + rng.Float64()*0.5,
		StatusCode:           200,
		Finished:             true,
		Timing:               t,
	}
}
