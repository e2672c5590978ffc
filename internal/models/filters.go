package models

import (
	"sort"
	"strings"
)

// Filter strategy categories.
const (
	FilterIgnore = "ignore"
	FilterScrub  = "scrub"
)

// FilterCatalog holds term lists used by the filter processor. General applies
// to every site; Specific is keyed by site id and layered on top. Both map
// category -> column -> terms.
type FilterCatalog struct {
	General  map[string]map[string][]string            `yaml:"General"`
	Specific map[string]map[string]map[string][]string `yaml:"Specific"`
}

// Resolve merges general terms with the site's overrides for the given columns
// and categories. Terms are lower-cased, trimmed and deduplicated; empty
// columns and categories are omitted. The result maps
// category -> column -> sorted terms.
func (fc *FilterCatalog) Resolve(siteID string, columns, categories []string) map[string]map[string][]string {
	var specific map[string]map[string][]string
	if fc.Specific != nil {
		specific = fc.Specific[siteID]
	}

	resolved := make(map[string]map[string][]string)
	for _, cat := range categories {
		colMap := make(map[string][]string)
		for _, col := range columns {
			seen := make(map[string]struct{})
			for _, term := range fc.General[cat][col] {
				seen[strings.ToLower(strings.TrimSpace(term))] = struct{}{}
			}
			for _, term := range specific[cat][col] {
				seen[strings.ToLower(strings.TrimSpace(term))] = struct{}{}
			}
			delete(seen, "")

			if len(seen) == 0 {
				continue
			}
			terms := make([]string, 0, len(seen))
			for term := range seen {
				terms = append(terms, term)
			}
			sort.Strings(terms)
			colMap[col] = terms
		}
		if len(colMap) > 0 {
			resolved[cat] = colMap
		}
	}
	return resolved
}
