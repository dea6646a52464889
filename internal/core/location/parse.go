// Package location parses free-form location strings, derives cache keys
// from them, and picks the intended place among geocoder candidates.
package location

import (
	"strings"

	"github.com/samirrijal/meteomcp/internal/core/domain"
)

// Parse splits raw on commas into city, state and country. It never fails:
// input it cannot interpret degrades to a bare city. City is never empty
// for non-blank input, so a query whose first segment is empty (", FL")
// becomes a bare city holding the whole trimmed query.
//
// Two segments are read as "City, State" when the second is a US state
// (abbreviation or full name) and as "City, Country" otherwise. Three or
// more segments are read as "City, State, Country"; anything past the third
// segment is folded into the country verbatim.
func Parse(raw string) domain.ParsedLocation {
	parts := strings.Split(raw, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	city := parts[0]
	if city == "" {
		// Nothing to search by; qualifiers without a city are not parsed.
		return domain.ParsedLocation{City: strings.TrimSpace(raw)}
	}

	switch {
	case len(parts) == 1:
		return domain.ParsedLocation{City: city}

	case len(parts) == 2:
		second := parts[1]
		if second == "" {
			return domain.ParsedLocation{City: city}
		}
		if _, ok := usStates[strings.ToUpper(second)]; ok {
			return domain.ParsedLocation{City: city, State: second, Country: unitedStates}
		}
		if abbr, ok := usStateAbbr[strings.ToLower(second)]; ok {
			return domain.ParsedLocation{City: city, State: abbr, Country: unitedStates}
		}
		return domain.ParsedLocation{City: city, Country: NormalizeCountry(second)}

	default:
		state := parts[1]
		if abbr, ok := usStateAbbr[strings.ToLower(state)]; ok {
			state = abbr
		}
		var country string
		if len(parts) == 3 {
			country = NormalizeCountry(parts[2])
		} else {
			country = strings.Join(parts[2:], ", ")
		}
		return domain.ParsedLocation{City: city, State: state, Country: country}
	}
}
