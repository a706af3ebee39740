package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/Integral-ind/integral-backend/internal/app/domain/notification"
)

// PushSender delivers a payload to one subscription endpoint. StatusCode is
// zero when the request never reached the endpoint.
type PushSender interface {
	Send(ctx context.Context, sub notification.PushSubscription, payload PushPayload) (statusCode int, err error)
}

// HTTPPushSender posts payloads to subscription endpoints.
type HTTPPushSender struct {
	client *http.Client
}

// NewHTTPPushSender creates a sender with the given per-request timeout.
func NewHTTPPushSender(timeout time.Duration) *HTTPPushSender {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPPushSender{
		client: &http.Client{Timeout: timeout},
	}
}

func (s *HTTPPushSender) Send(ctx context.Context, sub notification.PushSubscription, payload PushPayload) (int, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("marshal push payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, sub.Endpoint, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("create push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("TTL", fmt.Sprintf("%d", payload.TTL))
	req.Header.Set("Urgency", payload.Urgency)

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("push request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return resp.StatusCode, fmt.Errorf("push endpoint returned %d", resp.StatusCode)
	}
	return resp.StatusCode, nil
}
