// Package authentik validates bearer tokens against an Authentik server.
package authentik

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	gocache "github.com/patrickmn/go-cache"
	"github.com/zeebo/blake3"

	"github.com/samirrijal/meteomcp/internal/core/domain"
	"github.com/samirrijal/meteomcp/internal/pkg/logging"
)

const userInfoPath = "/api/v3/core/users/me/"

// Validator implements ports.TokenValidator. Outcomes are memoised for a
// short TTL keyed by a hash of the token, so the raw token is never held.
type Validator struct {
	http    *resty.Client
	baseURL string
	memo    *gocache.Cache
}

// New creates a Validator for the Authentik instance at apiURL. A zero
// cacheTTL disables memoisation.
func New(apiURL string, timeout, cacheTTL time.Duration) *Validator {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	v := &Validator{
		http:    resty.New().SetTimeout(timeout).SetHeader("Accept", "application/json"),
		baseURL: strings.TrimRight(apiURL, "/"),
	}
	if cacheTTL > 0 {
		v.memo = gocache.New(cacheTTL, 2*cacheTTL)
	}
	return v
}

func tokenKey(token string) string {
	sum := blake3.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// ValidateToken asks Authentik who owns token. A non-200 answer is an
// inactive validation, not an error; only transport failures are errors.
func (v *Validator) ValidateToken(ctx context.Context, token string) (*domain.TokenValidation, error) {
	key := tokenKey(token)
	if v.memo != nil {
		if cached, ok := v.memo.Get(key); ok {
			return cached.(*domain.TokenValidation), nil
		}
	}

	resp, err := v.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		Get(v.baseURL + userInfoPath)
	if err != nil {
		logging.FromContext(ctx).Error("authentik request failed", "error", err)
		return nil, fmt.Errorf("authentik: %w: %w", domain.ErrServiceUnavailable, err)
	}

	var result *domain.TokenValidation
	if resp.StatusCode() == http.StatusOK {
		p, err := parsePrincipal(resp.Body())
		if err != nil {
			return nil, fmt.Errorf("decode authentik user: %w", err)
		}
		result = &domain.TokenValidation{Active: true, User: p, StatusCode: http.StatusOK}
	} else {
		result = &domain.TokenValidation{
			Active:     false,
			StatusCode: resp.StatusCode(),
			Detail:     resp.String(),
		}
	}

	if v.memo != nil {
		v.memo.SetDefault(key, result)
	}
	return result, nil
}

// parsePrincipal reads the {"user": {...}} envelope. Known attributes map to
// Principal fields; the rest are kept in Extra.
func parsePrincipal(body []byte) (*domain.Principal, error) {
	var envelope struct {
		User map[string]any `json:"user"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, err
	}
	u := envelope.User
	if u == nil {
		return nil, fmt.Errorf("response has no user object")
	}

	p := &domain.Principal{IsActive: true}
	extra := map[string]any{}
	for k, val := range u {
		switch k {
		case "username":
			p.Username, _ = val.(string)
		case "pk", "uid":
			if p.UserID == "" || k == "pk" {
				p.UserID = stringify(val)
			}
		case "email":
			p.Email, _ = val.(string)
		case "name":
			p.Name, _ = val.(string)
		case "is_active":
			if b, ok := val.(bool); ok {
				p.IsActive = b
			}
		case "groups":
			p.Groups = groupNames(val)
		default:
			extra[k] = val
		}
	}
	if len(extra) > 0 {
		p.Extra = extra
	}
	if p.Username == "" {
		return nil, fmt.Errorf("user object has no username")
	}
	return p, nil
}

// groupNames accepts a list of names or a list of {"name": ...} objects.
func groupNames(v any) []string {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	var out []string
	for _, g := range list {
		switch g := g.(type) {
		case string:
			out = append(out, g)
		case map[string]any:
			if name, ok := g["name"].(string); ok {
				out = append(out, name)
			}
		}
	}
	return out
}

func stringify(v any) string {
	switch v := v.(type) {
	case string:
		return v
	case float64:
		return fmt.Sprintf("%.0f", v)
	default:
		return fmt.Sprint(v)
	}
}
