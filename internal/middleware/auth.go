// Package middleware provides HTTP middleware for the fiber app.
package middleware

import (
	"log"
	"strings"

	"enpay/internal/models"
	"enpay/internal/repositories"
	"enpay/internal/utils"

	"github.com/gofiber/fiber/v2"
)

// ClaimsKey is the fiber locals key the validated claims live under.
const ClaimsKey = "claims"

// AuthMiddleware validates bearer tokens and attaches the user claims
// to the request context. A token whose version no longer matches the
// user row is treated as revoked.
type AuthMiddleware struct {
	userRepo repositories.UserRepository
}

func NewAuthMiddleware(userRepo repositories.UserRepository) *AuthMiddleware {
	return &AuthMiddleware{userRepo: userRepo}
}

func (m *AuthMiddleware) Handler(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return utils.Unauthorized(c, "missing authorization header")
	}
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return utils.Unauthorized(c, "invalid authorization format")
	}
	tokenString := strings.TrimPrefix(authHeader, "Bearer ")

	claims, err := utils.ParseToken(tokenString)
	if err != nil {
		return utils.Unauthorized(c, "invalid token")
	}

	user, err := m.userRepo.GetByID(claims.UserID)
	if err != nil {
		log.Printf("auth: failed to load user %d: %v", claims.UserID, err)
		return utils.Unauthorized(c, "invalid token")
	}
	if !user.Enabled {
		return utils.Unauthorized(c, "account is disabled")
	}
	if claims.TokenVersion != user.TokenVersion {
		return utils.Unauthorized(c, "token has been revoked")
	}

	c.Locals(ClaimsKey, claims)
	return c.Next()
}

// AdminOnly allows the request through only for admin claims. It must
// run after Handler.
func AdminOnly(c *fiber.Ctx) error {
	claims := GetClaims(c)
	if claims == nil || !claims.IsAdmin() {
		return utils.Forbidden(c, "admin access required")
	}
	return c.Next()
}

// GetClaims returns the validated claims for the request, or nil when
// the auth middleware did not run.
func GetClaims(c *fiber.Ctx) *models.UserClaims {
	claims, _ := c.Locals(ClaimsKey).(*models.UserClaims)
	return claims
}
