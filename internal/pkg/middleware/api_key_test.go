package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newAdminApp(t *testing.T, hash string) *fiber.App {
	t.Helper()
	app := fiber.New()
	app.Use(AdminKeyMiddleware(hash))
	app.Get("/admin/api/regions", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	return app
}

func TestAdminKeyMiddleware(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	app := newAdminApp(t, string(hash))

	tests := []struct {
		name   string
		header string
		value  string
		status int
	}{
		{"missing key", "", "", fiber.StatusUnauthorized},
		{"wrong key", "X-API-Key", "guess", fiber.StatusUnauthorized},
		{"x-api-key header", "X-API-Key", "s3cret", fiber.StatusOK},
		{"bearer token", "Authorization", "Bearer s3cret", fiber.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/admin/api/regions", nil)
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestAdminKeyMiddleware_Unconfigured(t *testing.T) {
	app := newAdminApp(t, "")
	req := httptest.NewRequest("GET", "/admin/api/regions", nil)
	req.Header.Set("X-API-Key", "anything")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
}

func TestHashAdminKey(t *testing.T) {
	hash, err := HashAdminKey("s3cret")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("s3cret")))
}
