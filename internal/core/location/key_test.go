package location_test

import (
	"testing"

	"github.com/samirrijal/meteomcp/internal/core/location"
)

func TestCacheKey(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"Atlanta", "atlanta"},
		{"Atlanta, GA", "atlanta_ga"},
		{"  Atlanta ,GA  ", "atlanta_ga"},
		{"New York,  NY", "new_york_ny"},
		{"Paris, France,", "paris_france"},
		{"São Paulo, Brazil", "são_paulo_brazil"},
		{"Tab\tSeparated", "tab_separated"},
	}
	for _, tt := range tests {
		if got := location.CacheKey(tt.raw); got != tt.want {
			t.Errorf("CacheKey(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestCacheKey_EquivalentSpellingsCollide(t *testing.T) {
	a := location.CacheKey("Paris, France")
	b := location.CacheKey("paris,france")
	c := location.CacheKey("PARIS ,  FRANCE")
	if a != b || b != c {
		t.Errorf("expected equal keys, got %q %q %q", a, b, c)
	}
}

func TestCacheKey_QualifiedNeverMatchesBareCity(t *testing.T) {
	pairs := [][2]string{
		{"Paris", "Paris, France"},
		{"Paris", "Paris, TX"},
		{"Springfield", "Springfield, IL"},
	}
	for _, p := range pairs {
		if location.CacheKey(p[0]) == location.CacheKey(p[1]) {
			t.Errorf("%q and %q must not share a key", p[0], p[1])
		}
	}
}
