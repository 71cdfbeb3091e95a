package httpapi

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/fcglabs/authd/internal/correlation"
	"github.com/fcglabs/authd/internal/flows"
	"github.com/fcglabs/authd/internal/token"
)

// ClaimsKey is the fiber locals key holding the verified token claims.
const ClaimsKey = "claims"

// TokenValidator verifies a raw bearer token and returns its claims.
type TokenValidator interface {
	Validate(raw string) (*token.Claims, error)
}

// Correlation reads the x-correlation-id request header, generating a fresh
// identifier when absent, echoes it on the response, and threads it through
// the request context so audit records and logs carry it.
func Correlation() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := strings.TrimSpace(c.Get(correlation.HeaderName))
		if id == "" {
			id = correlation.NewID()
		}

		c.Set(correlation.HeaderName, id)
		c.SetUserContext(correlation.WithID(c.UserContext(), id))

		return c.Next()
	}
}

// RequireAuth guards a route with bearer token authentication. Verified
// claims land in locals under ClaimsKey.
func RequireAuth(tokens TokenValidator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw, ok := bearerToken(c.Get(fiber.HeaderAuthorization))
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": flows.MsgNotAuthenticated,
			})
		}

		claims, err := tokens.Validate(raw)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": flows.MsgNotAuthenticated,
			})
		}

		c.Locals(ClaimsKey, claims)

		return c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	const scheme = "Bearer"
	if len(header) <= len(scheme)+1 || !strings.EqualFold(header[:len(scheme)], scheme) {
		return "", false
	}

	raw := strings.TrimSpace(header[len(scheme):])
	if raw == "" {
		return "", false
	}

	return raw, true
}

// claimsFromLocals resolves the authenticated login name, or "" when the
// request carries no verified claims.
func claimsFromLocals(c *fiber.Ctx) string {
	claims, ok := c.Locals(ClaimsKey).(*token.Claims)
	if !ok || claims == nil {
		return ""
	}
	return claims.Username
}
