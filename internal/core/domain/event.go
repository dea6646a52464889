package domain

import "time"

// ResolutionRule names the disambiguation branch that picked a candidate.
type ResolutionRule string

const (
	RuleUSState      ResolutionRule = "us_state"
	RuleCountryExact ResolutionRule = "country_exact"
	RuleCountryOnly  ResolutionRule = "country_only"
	RuleFallback     ResolutionRule = "fallback"
)

// ResolvedEvent is published after a provider lookup produced a new record.
type ResolvedEvent struct {
	ID         string         `json:"id"`
	Query      string         `json:"query"`
	Key        string         `json:"key"`
	Record     LocationRecord `json:"record"`
	Rule       ResolutionRule `json:"rule"`
	ResolvedAt time.Time      `json:"resolved_at"`
}

// InvalidationEvent asks peer instances to drop a key, or everything when All is set.
type InvalidationEvent struct {
	ID       string `json:"id"`
	Origin   string `json:"origin"`
	Location string `json:"location,omitempty"`
	All      bool   `json:"all,omitempty"`
}
