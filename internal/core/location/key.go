package location

import (
	"strings"
	"unicode"
)

// CacheKey normalises raw into the key used by the file and SQL cache
// backends: lowercased, with every run of commas and whitespace replaced by
// a single underscore and no leading or trailing underscores.
//
// Two strings share a key exactly when they differ only in case, spacing
// or comma placement, so "Paris, France" and "paris,france" collide but
// "Paris" and "Paris, France" never do.
func CacheKey(raw string) string {
	fields := strings.FieldsFunc(strings.ToLower(raw), func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
	return strings.Join(fields, "_")
}
