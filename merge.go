package litweave

import "strings"

// Merge combines macros sharing a name into a single macro per name.
//
// The combined macro takes its name and position from the earliest
// occurrence, and its parts are the concatenation of every occurrence's
// parts in the order they were encountered. Output macros are ordered by
// first occurrence, so "the last macro" stays well defined for root
// fallback in Expand.
func Merge(macros []Macro) []Macro {
	var merged []Macro
	seen := make(map[string]int)

	for _, m := range macros {
		name := strings.TrimSpace(m.Name)
		if i, ok := seen[name]; ok {
			merged[i].Parts = append(merged[i].Parts, m.Parts...)
			continue
		}

		seen[name] = len(merged)
		merged = append(merged, Macro{
			Name:     m.Name,
			Position: m.Position,
			// Copy so later appends never alias the input macro's slice
			Parts: append([]Part(nil), m.Parts...),
		})
	}

	return merged
}
