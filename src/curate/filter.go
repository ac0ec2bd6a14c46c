// Package curate decides which search results the model gets to see.
package curate

import (
	"strings"

	"github.com/Protocol-Lattice/research-agent/src/search"
)

// denylist holds title tokens that mark shopping, course and corporate pages.
var denylist = []string{"buy", "course", "company"}

type dedupKey struct {
	title string
	url   string
}

// StaticFilter drops results with blank content, results whose title carries
// a denylisted token, and repeated (title, url) pairs after the first. It does
// no I/O, keeps input order and is idempotent.
func StaticFilter(results []search.Result) []search.Result {
	seen := make(map[dedupKey]struct{}, len(results))
	filtered := make([]search.Result, 0, len(results))
	for _, r := range results {
		if strings.TrimSpace(r.Content) == "" {
			continue
		}
		title := strings.ToLower(strings.TrimSpace(r.Title))
		if deniedTitle(title) {
			continue
		}
		key := dedupKey{title: title, url: strings.TrimSpace(r.URL)}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		filtered = append(filtered, r)
	}
	return filtered
}

func deniedTitle(title string) bool {
	for _, token := range denylist {
		if strings.Contains(title, token) {
			return true
		}
	}
	return false
}
