package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/meteomcp/internal/core/domain"
	"github.com/samirrijal/meteomcp/internal/pkg/logging"
	"github.com/samirrijal/meteomcp/internal/pkg/metrics"
)

const principalKey = "principal"

// publicPaths never require a bearer token.
var publicPaths = map[string]bool{
	"/":                  true,
	"/v1/health":         true,
	"/v1/ready":          true,
	"/metrics":           true,
	"/docs":              true,
	"/docs/openapi.yaml": true,
}

// RequireAuth validates the bearer token on every non-public route and
// stores the resulting principal in Locals and the request logger.
func RequireAuth(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if publicPaths[c.Path()] {
			return c.Next()
		}

		token := bearerToken(c.Get(fiber.HeaderAuthorization))
		principal, err := deps.Auth.Authenticate(c.UserContext(), token)
		if err != nil {
			metrics.AuthFailures.Inc()
			return respondError(c, err)
		}

		c.Locals(principalKey, principal)
		ctx := c.UserContext()
		ctx = logging.WithLogger(ctx, logging.FromContext(ctx).With("user", principal.Username))
		c.SetUserContext(ctx)
		return c.Next()
	}
}

// PrincipalFrom returns the authenticated principal, or nil on public routes
// and when auth is disabled.
func PrincipalFrom(c *fiber.Ctx) *domain.Principal {
	p, _ := c.Locals(principalKey).(*domain.Principal)
	return p
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
