package middleware

import (
	"strings"
	"time"

	"meetbot_server/pkg/apperr"
	"meetbot_server/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// AdminClaims are the claims carried by admin API tokens.
type AdminClaims struct {
	Subject string `json:"sub"`
	Role    string `json:"role"`
	jwt.RegisteredClaims
}

// RequireAdmin guards the admin API with an HMAC-signed bearer token.
// Tokens are issued out of band; the middleware only verifies them.
func RequireAdmin(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if secret == "" {
			return apperr.Internal("admin API not configured")
		}

		auth := c.Get("Authorization")
		if auth == "" || !strings.HasPrefix(auth, "Bearer ") {
			return apperr.Unauthorized("missing bearer token")
		}
		raw := strings.TrimPrefix(auth, "Bearer ")

		claims := &AdminClaims{}
		token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(secret), nil
		}, jwt.WithValidMethods([]string{"HS256"}))
		if err != nil || !token.Valid {
			logger.WithError(err).Warn("Admin token rejected")
			return apperr.Unauthorized("invalid token")
		}

		if claims.Role != "admin" {
			return apperr.Unauthorized("insufficient role")
		}

		c.Locals("admin_subject", claims.Subject)
		return c.Next()
	}
}

// IssueAdminToken mints a short-lived admin token. Used by operator tooling
// and tests, not exposed over HTTP.
func IssueAdminToken(secret, subject string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := AdminClaims{
		Subject: subject,
		Role:    "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}
