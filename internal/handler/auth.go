package handler

import (
	"crypto/subtle"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/keyauth"
)

const (
	// HeaderEmployeeID carries the caller's employee id, set by the session
	// layer in front of this service.
	HeaderEmployeeID = "X-Employee-ID"

	employeeIDLocal = "employeeID"
)

// AdminAuth guards operator routes with a static bearer token.
func AdminAuth(token string) fiber.Handler {
	expected := []byte(strings.TrimSpace(token))

	return keyauth.New(keyauth.Config{
		KeyLookup:  "header:" + fiber.HeaderAuthorization,
		AuthScheme: "Bearer",
		Validator: func(c *fiber.Ctx, key string) (bool, error) {
			if len(expected) == 0 {
				return false, keyauth.ErrMissingOrMalformedAPIKey
			}
			if subtle.ConstantTimeCompare([]byte(key), expected) != 1 {
				return false, keyauth.ErrMissingOrMalformedAPIKey
			}
			return true, nil
		},
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid or missing admin token")
		},
	})
}

// EmployeeIdentity rejects requests without an employee id header.
func EmployeeIdentity() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := strings.TrimSpace(c.Get(HeaderEmployeeID))
		if id == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "employee identity is required")
		}
		c.Locals(employeeIDLocal, id)
		return c.Next()
	}
}

func currentEmployeeID(c *fiber.Ctx) string {
	id, _ := c.Locals(employeeIDLocal).(string)
	return id
}
