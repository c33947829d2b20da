package notify

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"time"
)

// RetryConfig configures webhook retry behavior
type RetryConfig struct {
	MaxAttempts       int           `yaml:"max_attempts"`
	InitialDelay      time.Duration `yaml:"initial_delay"`
	MaxDelay          time.Duration `yaml:"max_delay"`
	BackoffMultiplier float64       `yaml:"backoff_multiplier"`
}

// DefaultRetryConfig returns the default retry configuration
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:       3,
		InitialDelay:      500 * time.Millisecond,
		MaxDelay:          10 * time.Second,
		BackoffMultiplier: 2.0,
	}
}

// NextRetryDelay calculates the delay after the given number of failed attempts
func (c RetryConfig) NextRetryDelay(attempts int) time.Duration {
	if attempts <= 1 {
		return c.InitialDelay
	}
	delay := float64(c.InitialDelay) * math.Pow(c.BackoffMultiplier, float64(attempts-1))
	if delay > float64(c.MaxDelay) {
		return c.MaxDelay
	}
	return time.Duration(delay)
}

// WebhookGateway POSTs notifications as JSON to a fixed URL. When a secret
// is configured the body is signed with HMAC-SHA256.
type WebhookGateway struct {
	url    string
	secret string
	client *http.Client
	retry  RetryConfig
}

// NewWebhookGateway creates a webhook gateway
func NewWebhookGateway(url, secret string, retry RetryConfig) *WebhookGateway {
	if retry.MaxAttempts <= 0 {
		retry = DefaultRetryConfig()
	}
	return &WebhookGateway{
		url:    url,
		secret: secret,
		client: &http.Client{Timeout: 10 * time.Second},
		retry:  retry,
	}
}

// Notify delivers n, retrying with exponential backoff on failure
func (g *WebhookGateway) Notify(ctx context.Context, n Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= g.retry.MaxAttempts; attempt++ {
		lastErr = g.send(ctx, n, payload)
		if lastErr == nil {
			return nil
		}
		if attempt == g.retry.MaxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(g.retry.NextRetryDelay(attempt)):
		}
	}
	return fmt.Errorf("webhook delivery failed after %d attempts: %w", g.retry.MaxAttempts, lastErr)
}

func (g *WebhookGateway) send(ctx context.Context, n Notification, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Jobboard-Event", string(n.Kind))
	req.Header.Set("X-Jobboard-Event-ID", n.ID)
	if g.secret != "" {
		req.Header.Set("X-Jobboard-Signature", Sign(payload, g.secret))
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned non-2xx status: %d", resp.StatusCode)
	}
	return nil
}

// Sign returns the signature header value for payload
func Sign(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks a signature produced by Sign
func VerifySignature(payload []byte, signature, secret string) bool {
	return hmac.Equal([]byte(Sign(payload, secret)), []byte(signature))
}
