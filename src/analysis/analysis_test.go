package analysis

import (
	"testing"

	"github.com/webperflab/NetworkTimingAnalyzer/src/types"
)

// rec builds a finished 200 record; tests fill in what they exercise.
func rec(id, connID, url string) *types.NetworkRecord {
	return &types.NetworkRecord{
		RequestID:    id,
		ConnectionID: connID,
		URL:          url,
		StatusCode:   200,
		Finished:     true,
	}
}

// timing returns a RequestTiming with every offset unavailable.
func timing() *types.RequestTiming { return types.NewRequestTiming() }

func TestGroupByOrigin(t *testing.T) {
	records := []*types.NetworkRecord{
		rec("1", "c1", "http://a.com/x"),
		rec("2", "c2", "http://a.com/y"),
		rec("3", "c3", "https://a.com/z"),
		rec("4", "c4", "http://a.com:8080/w"),
		rec("5", "c5", "data:image/png;base64,AAAA"),
	}
	grouped := GroupByOrigin(records)
	if len(grouped) != 3 {
		t.Fatalf("expected 3 origins got %d: %v", len(grouped), grouped)
	}
	if len(grouped["http://a.com"]) != 2 {
		t.Fatalf("expected 2 records for http://a.com got %d", len(grouped["http://a.com"]))
	}
	if grouped["http://a.com"][0].RequestID != "1" {
		t.Fatalf("input order not preserved within group")
	}
	if len(grouped["https://a.com"]) != 1 || len(grouped["http://a.com:8080"]) != 1 {
		t.Fatalf("scheme/port must split origins: %v", grouped)
	}
}

func TestGroupByOriginEmpty(t *testing.T) {
	if got := GroupByOrigin(nil); len(got) != 0 {
		t.Fatalf("expected empty grouping got %v", got)
	}
}
