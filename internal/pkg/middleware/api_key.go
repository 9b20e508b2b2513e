package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"golang.org/x/crypto/bcrypt"
)

// AdminKeyMiddleware authenticates admin API requests against a bcrypt hash
// of the admin key. An empty hash rejects every request.
func AdminKeyMiddleware(keyHash string) fiber.Handler {
	hash := []byte(strings.TrimSpace(keyHash))
	if len(hash) == 0 {
		log.Warn("[Admin] ADMIN_API_KEY_HASH is not set, admin API is disabled")
	}

	return func(c *fiber.Ctx) error {
		if len(hash) == 0 {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "unavailable", "message": "Admin API is not configured"})
		}

		apiKey := extractAPIKeyFromHeader(c)
		if apiKey == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Missing API key"})
		}

		if err := bcrypt.CompareHashAndPassword(hash, []byte(apiKey)); err != nil {
			log.Warnf("[Admin] Rejected admin API key from %s", c.IP())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Invalid API key"})
		}

		return c.Next()
	}
}

// HashAdminKey returns the bcrypt hash to store in ADMIN_API_KEY_HASH.
func HashAdminKey(key string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func extractAPIKeyFromHeader(c *fiber.Ctx) string {
	apiKey := strings.TrimSpace(c.Get("X-API-Key"))
	if apiKey != "" {
		return apiKey
	}
	auth := strings.TrimSpace(c.Get("Authorization"))
	if strings.HasPrefix(strings.ToLower(auth), "bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return ""
}
