package location

import "strings"

// usStates maps USPS abbreviations to full state names, including DC.
var usStates = map[string]string{
	"AL": "Alabama", "AK": "Alaska", "AZ": "Arizona", "AR": "Arkansas",
	"CA": "California", "CO": "Colorado", "CT": "Connecticut", "DE": "Delaware",
	"FL": "Florida", "GA": "Georgia", "HI": "Hawaii", "ID": "Idaho",
	"IL": "Illinois", "IN": "Indiana", "IA": "Iowa", "KS": "Kansas",
	"KY": "Kentucky", "LA": "Louisiana", "ME": "Maine", "MD": "Maryland",
	"MA": "Massachusetts", "MI": "Michigan", "MN": "Minnesota", "MS": "Mississippi",
	"MO": "Missouri", "MT": "Montana", "NE": "Nebraska", "NV": "Nevada",
	"NH": "New Hampshire", "NJ": "New Jersey", "NM": "New Mexico", "NY": "New York",
	"NC": "North Carolina", "ND": "North Dakota", "OH": "Ohio", "OK": "Oklahoma",
	"OR": "Oregon", "PA": "Pennsylvania", "RI": "Rhode Island", "SC": "South Carolina",
	"SD": "South Dakota", "TN": "Tennessee", "TX": "Texas", "UT": "Utah",
	"VT": "Vermont", "VA": "Virginia", "WA": "Washington", "WV": "West Virginia",
	"WI": "Wisconsin", "WY": "Wyoming", "DC": "District of Columbia",
}

// usStateAbbr is the reverse of usStates, keyed by lowercase full name.
var usStateAbbr = func() map[string]string {
	m := make(map[string]string, len(usStates))
	for abbr, name := range usStates {
		m[strings.ToLower(name)] = abbr
	}
	return m
}()

// countryAliases maps lowercase informal country spellings to canonical names.
var countryAliases = map[string]string{
	"us":                       "United States",
	"usa":                      "United States",
	"u.s.":                     "United States",
	"u.s.a.":                   "United States",
	"united states of america": "United States",
	"uk":                       "United Kingdom",
	"u.k.":                     "United Kingdom",
	"gb":                       "United Kingdom",
	"uae":                      "United Arab Emirates",
	"u.a.e.":                   "United Arab Emirates",
	"ca":                       "Canada",
	"can":                      "Canada",
}

// unitedStates is the canonical country name for US locations.
const unitedStates = "United States"

// usAliases are the spellings treated as the United States during
// disambiguation.
var usAliases = map[string]bool{
	"united states": true,
	"us":            true,
	"usa":           true,
	"u.s.":          true,
	"u.s.a.":        true,
}

// StateName returns the full name for a USPS abbreviation.
func StateName(abbr string) (string, bool) {
	name, ok := usStates[strings.ToUpper(abbr)]
	return name, ok
}

// StateAbbr returns the USPS abbreviation for a full state name.
func StateAbbr(name string) (string, bool) {
	abbr, ok := usStateAbbr[strings.ToLower(name)]
	return abbr, ok
}

// NormalizeCountry maps known aliases to canonical names and returns
// anything else unchanged.
func NormalizeCountry(country string) string {
	if canonical, ok := countryAliases[strings.ToLower(country)]; ok {
		return canonical
	}
	return country
}
