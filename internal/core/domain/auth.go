package domain

// Principal is the authenticated caller behind a bearer token. Attributes
// the identity provider returns beyond the named fields land in Extra.
type Principal struct {
	Username  string         `json:"username"`
	UserID    string         `json:"user_id,omitempty"`
	Email     string         `json:"email,omitempty"`
	Name      string         `json:"name,omitempty"`
	IsActive  bool           `json:"is_active"`
	Groups    []string       `json:"groups,omitempty"`
	ClientID  string         `json:"client_id,omitempty"`
	Scopes    []string       `json:"scopes,omitempty"`
	ExpiresAt int64          `json:"expires_at,omitempty"`
	Extra     map[string]any `json:"extra,omitempty"`
}

// TokenValidation is the outcome of asking the identity provider about a token.
type TokenValidation struct {
	Active     bool       `json:"active"`
	User       *Principal `json:"user,omitempty"`
	StatusCode int        `json:"status_code,omitempty"`
	Detail     string     `json:"detail,omitempty"`
}
