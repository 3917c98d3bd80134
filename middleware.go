package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// ClaimsContextKey is the fiber locals key holding the verified SessionClaims.
const ClaimsContextKey = "auth_claims"

// RequireAuth verifies the bearer token on every request and stores the
// resulting claims in both fiber locals and the request context. Refresh
// tokens are rejected here: they can only be exchanged, never used directly.
func RequireAuth(verifier TokenVerifier, logger Logger) fiber.Handler {
	if logger == nil {
		logger = defLogger{}
	}

	return func(c *fiber.Ctx) error {
		token, err := tokenFromHeader(c.Get(fiber.HeaderAuthorization))
		if err != nil {
			return unauthorized(c)
		}

		claims, err := verifier.Verify(token)
		if err != nil {
			logger.Warn("token verification failed", "error", err)
			return unauthorized(c)
		}

		if claims.IsRefresh() {
			logger.Warn("refresh token used on protected endpoint", "user_id", claims.UserID())
			return unauthorized(c)
		}

		c.Locals(ClaimsContextKey, claims)
		c.SetUserContext(WithClaims(c.UserContext(), claims))

		return c.Next()
	}
}

// RequireRole rejects requests whose claims carry none of the given roles.
// Must be mounted after RequireAuth.
func RequireRole(roles ...UserRole) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims := ClaimsFromFiber(c)
		if claims == nil {
			return unauthorized(c)
		}

		for _, role := range roles {
			if claims.HasRole(string(role)) {
				return c.Next()
			}
		}

		return c.Status(fiber.StatusForbidden).JSON(APIResponse{
			Success: false,
			Message: "insufficient privileges",
		})
	}
}

// ClaimsFromFiber returns the verified claims stored by RequireAuth, or nil.
func ClaimsFromFiber(c *fiber.Ctx) *SessionClaims {
	claims, _ := c.Locals(ClaimsContextKey).(*SessionClaims)
	return claims
}

func tokenFromHeader(header string) (string, error) {
	const scheme = "Bearer"

	if len(header) > len(scheme) && strings.EqualFold(header[:len(scheme)], scheme) {
		token := strings.TrimSpace(header[len(scheme):])
		if token != "" {
			return token, nil
		}
	}

	return "", ErrTokenMalformed
}
