package provider

import (
	"context"

	"github.com/kursadbilgin/wsr-notifier/internal/domain"
)

// Provider is the outbound push delivery port.
type Provider interface {
	Send(ctx context.Context, subscription domain.PushSubscription, payload domain.PushPayload) (*ProviderResponse, error)
}

// ProviderResponse stores push service call metadata for logging.
type ProviderResponse struct {
	StatusCode int
	MessageID  string
}
