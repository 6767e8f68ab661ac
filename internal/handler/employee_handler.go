package handler

import (
	"context"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/kursadbilgin/wsr-notifier/internal/domain"
	"github.com/kursadbilgin/wsr-notifier/internal/repository"
)

const optInHint = "enable notifications in your browser to receive WSR reminders"

type EmployeeService interface {
	SaveSubscription(ctx context.Context, employeeID string, raw []byte) error
	SetActive(ctx context.Context, employeeID string, active bool) error
	ListSubscriptionStatus(ctx context.Context) ([]repository.SubscriptionStatus, error)
	SendTestNotification(ctx context.Context, employeeID string) (domain.Outcome, error)
}

type EmployeeHandler struct {
	service EmployeeService
}

func NewEmployeeHandler(service EmployeeService) (*EmployeeHandler, error) {
	if service == nil {
		return nil, fmt.Errorf("employee service is required")
	}
	return &EmployeeHandler{service: service}, nil
}

type setActiveRequest struct {
	IsActive *bool `json:"isActive"`
}

type subscriptionStatusItem struct {
	EmployeeID      string `json:"employeeId"`
	UserID          string `json:"userId"`
	Name            string `json:"name"`
	IsActive        bool   `json:"isActive"`
	HasSubscription bool   `json:"hasSubscription"`
}

type listSubscriptionsResponse struct {
	Data []subscriptionStatusItem `json:"data"`
	Meta subscriptionsMeta        `json:"meta"`
}

type subscriptionsMeta struct {
	Total      int `json:"total"`
	Subscribed int `json:"subscribed"`
}

type testNotificationResponse struct {
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
	Hint   string `json:"hint,omitempty"`
}

// SaveSubscription handles POST /me/push-subscription. The body is the
// browser's subscription object and is stored as-is.
func (h *EmployeeHandler) SaveSubscription(c *fiber.Ctx) error {
	id := currentEmployeeID(c)
	if err := h.service.SaveSubscription(c.Context(), id, c.Body()); err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"employeeId": id,
		"subscribed": true,
	})
}

func (h *EmployeeHandler) SendTestNotification(c *fiber.Ctx) error {
	outcome, err := h.service.SendTestNotification(c.Context(), currentEmployeeID(c))
	if err != nil {
		return toHTTPError(err)
	}

	resp := testNotificationResponse{
		Status: strings.ToLower(outcome.Status.String()),
		Reason: outcome.Reason,
	}
	if outcome.Status == domain.OutcomeSkipped || outcome.SubscriptionCleared {
		resp.Hint = optInHint
	}

	return c.Status(fiber.StatusOK).JSON(resp)
}

func (h *EmployeeHandler) ListSubscriptions(c *fiber.Ctx) error {
	statuses, err := h.service.ListSubscriptionStatus(c.Context())
	if err != nil {
		return toHTTPError(err)
	}

	items := make([]subscriptionStatusItem, 0, len(statuses))
	subscribed := 0
	for _, s := range statuses {
		if s.HasSubscription {
			subscribed++
		}
		items = append(items, subscriptionStatusItem{
			EmployeeID:      s.EmployeeID,
			UserID:          s.UserID,
			Name:            s.Name,
			IsActive:        s.IsActive,
			HasSubscription: s.HasSubscription,
		})
	}

	return c.Status(fiber.StatusOK).JSON(listSubscriptionsResponse{
		Data: items,
		Meta: subscriptionsMeta{Total: len(items), Subscribed: subscribed},
	})
}

func (h *EmployeeHandler) SetActive(c *fiber.Ctx) error {
	var req setActiveRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.IsActive == nil {
		return toHTTPError(fmt.Errorf("%w: isActive is required", domain.ErrValidation))
	}

	id := strings.TrimSpace(c.Params("id"))
	if err := h.service.SetActive(c.Context(), id, *req.IsActive); err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"employeeId": id,
		"isActive":   *req.IsActive,
	})
}
