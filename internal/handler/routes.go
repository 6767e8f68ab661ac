package handler

import (
	"github.com/gofiber/fiber/v2"
)

// RegisterAdminRoutes mounts the operator API under /v1/admin behind the
// bearer token.
func RegisterAdminRoutes(router fiber.Router, adminToken string, runner JobRunner, employees EmployeeService) error {
	jobs, err := NewJobHandler(runner)
	if err != nil {
		return err
	}
	h, err := NewEmployeeHandler(employees)
	if err != nil {
		return err
	}

	admin := router.Group("/v1/admin", AdminAuth(adminToken))
	admin.Post("/jobs/:kind/run", jobs.RunJob)
	admin.Get("/subscriptions", h.ListSubscriptions)
	admin.Patch("/employees/:id/status", h.SetActive)

	return nil
}

// RegisterSelfServiceRoutes mounts the caller-scoped routes under /v1/me.
func RegisterSelfServiceRoutes(router fiber.Router, employees EmployeeService) error {
	h, err := NewEmployeeHandler(employees)
	if err != nil {
		return err
	}

	me := router.Group("/v1/me", EmployeeIdentity())
	me.Post("/push-subscription", h.SaveSubscription)
	me.Post("/test-notification", h.SendTestNotification)

	return nil
}
