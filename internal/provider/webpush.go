package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	webpush "github.com/SherClockHolmes/webpush-go"
	"github.com/go-resty/resty/v2"
	"github.com/kursadbilgin/wsr-notifier/internal/domain"
)

const (
	defaultPushTimeout = 10 * time.Second
	defaultPushTTL     = 24 * time.Hour
	maxErrorBodyBytes  = 1024
)

// VAPIDConfig identifies this server to push services.
type VAPIDConfig struct {
	PublicKey  string
	PrivateKey string
	Subject    string
}

// WebPushProvider encrypts payloads per RFC 8291 and posts them to the
// subscription endpoint with VAPID authorization.
type WebPushProvider struct {
	client *resty.Client
	vapid  VAPIDConfig
	ttl    time.Duration
}

func NewWebPushProvider(vapid VAPIDConfig, ttl time.Duration, timeout time.Duration) (*WebPushProvider, error) {
	client := resty.New()
	if timeout <= 0 {
		timeout = defaultPushTimeout
	}
	client.SetTimeout(timeout)
	client.SetRetryCount(0)

	return NewWebPushProviderWithClient(vapid, ttl, client)
}

func NewWebPushProviderWithClient(vapid VAPIDConfig, ttl time.Duration, client *resty.Client) (*WebPushProvider, error) {
	vapid.PublicKey = strings.TrimSpace(vapid.PublicKey)
	vapid.PrivateKey = strings.TrimSpace(vapid.PrivateKey)
	vapid.Subject = strings.TrimSpace(vapid.Subject)

	if vapid.PublicKey == "" || vapid.PrivateKey == "" {
		return nil, fmt.Errorf("vapid key pair is required")
	}
	if vapid.Subject == "" {
		return nil, fmt.Errorf("vapid subject is required")
	}
	if client == nil {
		return nil, fmt.Errorf("resty client is required")
	}

	if client.GetClient().Timeout == 0 {
		client.SetTimeout(defaultPushTimeout)
	}
	client.SetRetryCount(0)

	if ttl <= 0 {
		ttl = defaultPushTTL
	}

	return &WebPushProvider{
		client: client,
		vapid:  vapid,
		ttl:    ttl,
	}, nil
}

func (p *WebPushProvider) Send(ctx context.Context, subscription domain.PushSubscription, payload domain.PushPayload) (*ProviderResponse, error) {
	if p == nil || p.client == nil {
		return nil, fmt.Errorf("provider is not initialized")
	}

	var target webpush.Subscription
	if err := json.Unmarshal(subscription, &target); err != nil {
		return nil, &ProviderError{Message: "malformed push subscription", Cause: err}
	}
	if strings.TrimSpace(target.Endpoint) == "" {
		return nil, &ProviderError{Message: "push subscription has no endpoint"}
	}

	message, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal push payload: %w", err)
	}

	response, err := webpush.SendNotificationWithContext(ctx, message, &target, &webpush.Options{
		HTTPClient:      p.client.GetClient(),
		Subscriber:      p.vapid.Subject,
		VAPIDPublicKey:  p.vapid.PublicKey,
		VAPIDPrivateKey: p.vapid.PrivateKey,
		TTL:             int(p.ttl.Seconds()),
		Urgency:         webpush.UrgencyNormal,
	})
	if err != nil {
		return nil, classifySendError(err)
	}
	if response == nil {
		return nil, &ProviderError{
			Message:   "push service returned empty response",
			Transient: true,
		}
	}
	defer response.Body.Close()

	statusCode := response.StatusCode
	if statusCode >= http.StatusOK && statusCode < http.StatusMultipleChoices {
		_, _ = io.Copy(io.Discard, response.Body)
		return &ProviderResponse{
			StatusCode: statusCode,
			MessageID:  strings.TrimSpace(response.Header.Get("Location")),
		}, nil
	}

	body, _ := io.ReadAll(io.LimitReader(response.Body, maxErrorBodyBytes))

	return nil, &ProviderError{
		StatusCode: statusCode,
		Message:    providerErrorMessage(statusCode, strings.TrimSpace(string(body))),
		Gone:       isGoneHTTPStatus(statusCode),
		Transient:  isTransientHTTPStatus(statusCode),
	}
}

// classifySendError separates transport failures from encryption and key
// errors raised before any request was made.
func classifySendError(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return &ProviderError{
			Message:   "push request failed",
			Transient: !errors.Is(err, context.Canceled),
			Cause:     err,
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &ProviderError{Message: "push request failed", Transient: true, Cause: err}
	}
	if errors.Is(err, context.Canceled) {
		return &ProviderError{Message: "push request failed", Cause: err}
	}

	return &ProviderError{Message: "push message could not be prepared", Cause: err}
}

func isGoneHTTPStatus(statusCode int) bool {
	return statusCode == http.StatusNotFound || statusCode == http.StatusGone
}

func isTransientHTTPStatus(statusCode int) bool {
	return statusCode == http.StatusTooManyRequests || (statusCode >= http.StatusInternalServerError && statusCode <= 599)
}

func providerErrorMessage(statusCode int, body string) string {
	base := fmt.Sprintf("push service returned status %d", statusCode)
	if body == "" {
		return base
	}
	return fmt.Sprintf("%s: %s", base, body)
}
