package middleware

import "github.com/gofiber/fiber/v2"

type PSKAuthMiddleware struct {
	preSharedKey string
}

func NewPSKAuthMiddleware(preSharedKey string) *PSKAuthMiddleware {
	return &PSKAuthMiddleware{preSharedKey: preSharedKey}
}

// Middleware func for PSK authentication to be used with fiber
func (p *PSKAuthMiddleware) Middleware(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")

	// An empty key would otherwise match an empty header.
	if p.preSharedKey == "" || authHeader != "PSK "+p.preSharedKey {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized: Invalid PSK.",
		})
	}

	return c.Next()
}
