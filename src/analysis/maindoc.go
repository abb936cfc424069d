package analysis

import (
	"net/url"

	"github.com/webperflab/NetworkTimingAnalyzer/src/types"
)

// urlsEqualIgnoringFragment compares two URLs with their fragments
// stripped. Unparseable inputs fall back to raw string comparison.
func urlsEqualIgnoringFragment(a, b string) bool {
	ua, errA := url.Parse(a)
	ub, errB := url.Parse(b)
	if errA != nil || errB != nil {
		return a == b
	}
	ua.Fragment = ""
	ub.Fragment = ""
	return ua.String() == ub.String()
}

// FindMainDocument identifies the primary navigation request. When
// finalURL is known an exact (fragment-insensitive) URL match wins;
// otherwise the Document-typed record with the smallest StartTime is
// chosen, first record winning ties. Returns ErrNoMainResource when no
// match and no Document-typed record exists: downstream scoring cannot
// proceed without the primary navigation.
func FindMainDocument(records []*types.NetworkRecord, finalURL string) (*types.NetworkRecord, error) {
	if finalURL != "" {
		for _, r := range records {
			if urlsEqualIgnoringFragment(r.URL, finalURL) {
				return r, nil
			}
		}
	}
	var main *types.NetworkRecord
	for _, r := range records {
		if r.ResourceType != types.ResourceDocument {
			continue
		}
		if main == nil || r.StartTime < main.StartTime {
			main = r
		}
	}
	if main == nil {
		return nil, ErrNoMainResource
	}
	return main, nil
}
