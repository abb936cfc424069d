package analysis

import (
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/webperflab/NetworkTimingAnalyzer/src/types"
)

func almostEqual(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestEstimateRTTByOriginViaConnectionTiming(t *testing.T) {
	plain := rec("1", "c1", "http://a.com/")
	plain.Timing = timing()
	plain.Timing.ConnectStart = 0
	plain.Timing.ConnectEnd = 100

	tls := rec("2", "c2", "https://b.com/")
	tls.Timing = timing()
	tls.Timing.ConnectStart = 0
	tls.Timing.SSLStart = 80
	tls.Timing.SSLEnd = 150
	tls.Timing.ConnectEnd = 150

	got, err := EstimateRTTByOrigin([]*types.NetworkRecord{plain, tls}, DefaultRTTOptions())
	if err != nil {
		t.Fatalf("estimate: %v", err)
	}
	a := got.Origins["http://a.com"]
	if !almostEqual(a.Min, 100) || !almostEqual(a.Max, 100) {
		t.Fatalf("plain TCP handshake should yield 100ms, got %+v", a)
	}
	// TLS handshake yields two samples: TCP leg (80) and SSL leg (70).
	b := got.Origins["https://b.com"]
	if !almostEqual(b.Min, 70) || !almostEqual(b.Max, 80) || !almostEqual(b.Avg, 75) || !almostEqual(b.Median, 75) {
		t.Fatalf("tls samples wrong: %+v", b)
	}
	if !almostEqual(got.Aggregate.Median, 80) {
		t.Fatalf("aggregate median expected 80 got %v", got.Aggregate.Median)
	}
}

func TestEstimateRTTByOriginReusedContributesNothing(t *testing.T) {
	fresh := rec("1", "c1", "http://a.com/")
	fresh.Timing = timing()
	fresh.Timing.ConnectStart = 0
	fresh.Timing.ConnectEnd = 40

	viaReused := rec("2", "c2", "http://a.com/x")
	viaReused.ConnectionReused = true
	viaReused.Timing = timing()
	viaReused.Timing.ConnectStart = 0
	viaReused.Timing.ConnectEnd = 500 // bogus, must be ignored

	got, err := EstimateRTTByOrigin([]*types.NetworkRecord{fresh, viaReused}, DefaultRTTOptions())
	if err != nil {
		t.Fatalf("estimate: %v", err)
	}
	s := got.Origins["http://a.com"]
	if !almostEqual(s.Min, 40) || !almostEqual(s.Max, 40) {
		t.Fatalf("reused connection timing leaked into estimates: %+v", s)
	}
}

func TestEstimateRTTByOriginFallbackChain(t *testing.T) {
	// No connect/ssl data anywhere, but a valid sendStart: the cascade must
	// reach the coarse strategies instead of failing.
	r := rec("1", "c1", "http://example.com/")
	r.Timing = timing()
	r.Timing.SendStart = 300

	got, err := EstimateRTTByOrigin([]*types.NetworkRecord{r}, DefaultRTTOptions())
	if err != nil {
		t.Fatalf("fallback chain should produce estimates: %v", err)
	}
	s, ok := got.Origins["http://example.com"]
	if !ok {
		t.Fatalf("missing origin summary: %+v", got.Origins)
	}
	// sendStart/2 round trips, deflated by 0.3: 300/2*0.3 = 45.
	if !almostEqual(s.Min, 45) {
		t.Fatalf("expected deflated send-start estimate 45 got %v", s.Min)
	}
}

func TestEstimateRTTByOriginDeflationScalesLinearly(t *testing.T) {
	r := rec("1", "c1", "http://example.com/")
	r.Timing = timing()
	r.Timing.SendStart = 300

	opts := DefaultRTTOptions()
	base, err := EstimateRTTByOrigin([]*types.NetworkRecord{r}, opts)
	if err != nil {
		t.Fatalf("estimate: %v", err)
	}
	opts.CoarseEstimateMultiplier *= 2
	doubled, err := EstimateRTTByOrigin([]*types.NetworkRecord{r}, opts)
	if err != nil {
		t.Fatalf("estimate: %v", err)
	}
	b := base.Origins["http://example.com"]
	d := doubled.Origins["http://example.com"]
	if !almostEqual(d.Min, 2*b.Min) || !almostEqual(d.Max, 2*b.Max) || !almostEqual(d.Avg, 2*b.Avg) || !almostEqual(d.Median, 2*b.Median) {
		t.Fatalf("doubling the multiplier must double every summary value: %+v vs %+v", b, d)
	}
}

func TestEstimateRTTByOriginDownloadTiming(t *testing.T) {
	r := rec("1", "c1", "http://a.com/big")
	r.TransferSize = 28 * 1024 // 2 initial windows -> 1 round trip
	r.StartTime = 0
	r.EndTime = 1 // 1000ms total
	r.Timing = timing()
	r.Timing.ReceiveHeadersEnd = 600

	opts := DefaultRTTOptions()
	opts.UseSendStartEstimates = false
	opts.UseHeadersEndEstimates = false
	got, err := EstimateRTTByOrigin([]*types.NetworkRecord{r}, opts)
	if err != nil {
		t.Fatalf("estimate: %v", err)
	}
	// (1000 - 600) / log2(28KiB/14KiB) * 0.3 = 400 * 0.3 = 120.
	s := got.Origins["http://a.com"]
	if !almostEqual(s.Min, 120) {
		t.Fatalf("download estimate expected 120 got %v", s.Min)
	}
}

func TestEstimateRTTByOriginDownloadTimingSkipsHugeTransfers(t *testing.T) {
	r := rec("1", "c1", "http://a.com/huge")
	r.TransferSize = 14 * 1024 * 64 // 6 round trips, beyond the cap
	r.StartTime = 0
	r.EndTime = 10
	r.Timing = timing()
	r.Timing.ReceiveHeadersEnd = 100

	opts := DefaultRTTOptions()
	opts.UseSendStartEstimates = false
	opts.UseHeadersEndEstimates = false
	if _, err := EstimateRTTByOrigin([]*types.NetworkRecord{r}, opts); !errors.Is(err, ErrNoTimingData) {
		t.Fatalf("bandwidth-dominated transfer should contribute nothing, got err=%v", err)
	}
}

func TestEstimateRTTByOriginHeadersEndTiming(t *testing.T) {
	doc := rec("1", "c1", "http://a.com/")
	doc.ResourceType = types.ResourceDocument
	doc.StartTime, doc.EndTime = 0, 1
	doc.Timing = timing()
	doc.Timing.ReceiveHeadersEnd = 1000

	opts := DefaultRTTOptions()
	opts.UseDownloadEstimates = false
	opts.UseSendStartEstimates = false
	got, err := EstimateRTTByOrigin([]*types.NetworkRecord{doc}, opts)
	if err != nil {
		t.Fatalf("estimate: %v", err)
	}
	// Document: 90% of TTFB is server time; fresh http = 3 round trips.
	// (1000 - 900) / 3 * 0.3 = 10.
	s := got.Origins["http://a.com"]
	if !almostEqual(s.Min, 10) {
		t.Fatalf("headers-end estimate expected 10 got %v", s.Min)
	}
}

func TestEstimateRTTByOriginHeadersEndFloor(t *testing.T) {
	img := rec("1", "c1", "http://a.com/i.png")
	img.ResourceType = types.ResourceImage
	img.Timing = timing()
	img.Timing.ReceiveHeadersEnd = 5 // tiny TTFB would imply sub-ms RTT

	opts := DefaultRTTOptions()
	opts.UseDownloadEstimates = false
	opts.UseSendStartEstimates = false
	got, err := EstimateRTTByOrigin([]*types.NetworkRecord{img}, opts)
	if err != nil {
		t.Fatalf("estimate: %v", err)
	}
	// Floor of 3ms, deflated: 3 * 0.3 = 0.9.
	s := got.Origins["http://a.com"]
	if !almostEqual(s.Min, 0.9) {
		t.Fatalf("floor not applied: %v", s.Min)
	}
}

func TestEstimateRTTByOriginForceCoarse(t *testing.T) {
	r := rec("1", "c1", "http://a.com/")
	r.Timing = timing()
	r.Timing.ConnectStart = 0
	r.Timing.ConnectEnd = 100
	r.Timing.SendStart = 300

	opts := DefaultRTTOptions()
	opts.ForceCoarseEstimates = true
	got, err := EstimateRTTByOrigin([]*types.NetworkRecord{r}, opts)
	if err != nil {
		t.Fatalf("estimate: %v", err)
	}
	// Handshake data present but skipped: only send-start contributes.
	s := got.Origins["http://a.com"]
	if !almostEqual(s.Min, 45) || !almostEqual(s.Max, 45) {
		t.Fatalf("forced coarse mode should only use coarse strategies: %+v", s)
	}
}

func TestEstimateRTTByOriginEmptyInput(t *testing.T) {
	if _, err := EstimateRTTByOrigin(nil, DefaultRTTOptions()); !errors.Is(err, ErrNoTimingData) {
		t.Fatalf("expected ErrNoTimingData got %v", err)
	}
}

func TestEstimateRTTByOriginIdempotent(t *testing.T) {
	records := []*types.NetworkRecord{
		rec("1", "c1", "http://a.com/"),
		rec("2", "c2", "https://b.com/"),
	}
	records[0].Timing = timing()
	records[0].Timing.ConnectStart = 0
	records[0].Timing.ConnectEnd = 100
	records[1].Timing = timing()
	records[1].Timing.ConnectStart = 10
	records[1].Timing.ConnectEnd = 90

	first, err := EstimateRTTByOrigin(records, DefaultRTTOptions())
	if err != nil {
		t.Fatalf("estimate: %v", err)
	}
	second, err := EstimateRTTByOrigin(records, DefaultRTTOptions())
	if err != nil {
		t.Fatalf("estimate: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("analysis must be stateless: %+v vs %+v", first, second)
	}
}
