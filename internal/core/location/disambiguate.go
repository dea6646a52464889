package location

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/samirrijal/meteomcp/internal/core/domain"
)

// Select picks the candidate that best matches the parsed query and reports
// which rule made the choice. candidates must not be empty.
//
// A query carrying a state and a US country must match the city name, a US
// country and the state in admin1. Otherwise a query carrying a country
// prefers a candidate matching both city and country, then one matching the
// country alone. When nothing matches the provider's first candidate wins.
func Select(parsed domain.ParsedLocation, candidates []domain.GeocodeCandidate) (domain.GeocodeCandidate, domain.ResolutionRule) {
	city := fold(parsed.City)

	switch {
	case parsed.HasState() && strings.Contains(fold(parsed.Country), "united states"):
		if c, ok := matchUSState(city, parsed.State, candidates); ok {
			return c, domain.RuleUSState
		}

	case parsed.HasCountry():
		country := fold(parsed.Country)
		isUS := usAliases[country]

		for _, c := range candidates {
			if fold(c.Name) == city && countryMatches(country, fold(c.Country), isUS) {
				return c, domain.RuleCountryExact
			}
		}
		for _, c := range candidates {
			if countryMatches(country, fold(c.Country), isUS) {
				return c, domain.RuleCountryOnly
			}
		}
	}

	return candidates[0], domain.RuleFallback
}

func matchUSState(city, state string, candidates []domain.GeocodeCandidate) (domain.GeocodeCandidate, bool) {
	abbr := strings.ToUpper(state)
	full, ok := usStates[abbr]
	if !ok {
		abbr = state
		if a, found := usStateAbbr[strings.ToLower(state)]; found {
			abbr = a
		}
		full = state
		if name, found := usStates[abbr]; found {
			full = name
		}
	}
	needles := []string{fold(full), fold(abbr), fold(state)}

	for _, c := range candidates {
		if fold(c.Name) != city || !strings.Contains(fold(c.Country), "united states") {
			continue
		}
		admin1 := fold(c.Admin1)
		for _, n := range needles {
			if n != "" && strings.Contains(admin1, n) {
				return c, true
			}
		}
	}
	return domain.GeocodeCandidate{}, false
}

// countryMatches compares a folded query country with a folded candidate
// country. An empty candidate country never matches.
func countryMatches(query, candidate string, isUS bool) bool {
	if candidate == "" {
		return false
	}
	if isUS {
		return strings.Contains(candidate, "united states")
	}
	return strings.Contains(candidate, query) || strings.Contains(query, candidate)
}

// fold returns s case-folded for comparison. Casers are stateful, so each
// call gets its own.
func fold(s string) string {
	return cases.Fold().String(s)
}
