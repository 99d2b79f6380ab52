package store

import "strings"

// dedupeNames returns the names with duplicates removed, preserving the
// first-seen order.
func dedupeNames(names []string) []string {
	out := make([]string, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}

// containsFold reports whether s contains substr, case-insensitively.
func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// anyNameMatches reports the existential filter condition: true when any
// of the linked names contains any of the search terms.
func anyNameMatches(names, terms []string) bool {
	for _, term := range terms {
		for _, name := range names {
			if containsFold(name, term) {
				return true
			}
		}
	}
	return false
}
