package usecases

import (
	"context"
	"fmt"

	"github.com/samirrijal/meteomcp/internal/core/domain"
	"github.com/samirrijal/meteomcp/internal/core/ports"
	"github.com/samirrijal/meteomcp/internal/pkg/logging"
)

// AuthService turns bearer tokens into principals.
type AuthService struct {
	validator ports.TokenValidator
}

// NewAuthService creates a new AuthService.
func NewAuthService(validator ports.TokenValidator) *AuthService {
	return &AuthService{validator: validator}
}

// Authenticate validates token with the identity provider.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*domain.Principal, error) {
	if token == "" {
		return nil, domain.Detailf(domain.ErrUnauthorized, "Token value is required")
	}

	v, err := s.validator.ValidateToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("validate token: %w", err)
	}
	if !v.Active || v.User == nil {
		logging.FromContext(ctx).Warn("token rejected by identity provider",
			"status_code", v.StatusCode,
			"detail", domain.Truncate(v.Detail, 200),
		)
		return nil, domain.Detailf(domain.ErrUnauthorized, "Invalid or inactive token")
	}
	return v.User, nil
}
