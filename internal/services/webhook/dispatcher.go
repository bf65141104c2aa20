package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Dispatcher delivers a JSON payload to a webhook destination. One POST per
// payload, no retries; the caller decides what a failure means.
type Dispatcher struct {
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewDispatcher creates a new webhook dispatcher
func NewDispatcher(logger *logrus.Logger) *Dispatcher {
	return &Dispatcher{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}
}

// isSuccessStatus reports whether the destination accepted the payload
func isSuccessStatus(code int) bool {
	switch code {
	case http.StatusOK, http.StatusCreated, http.StatusAccepted, http.StatusNoContent:
		return true
	}
	return false
}

// Send serializes the payload and performs a single POST to the webhook URL
func (d *Dispatcher) Send(ctx context.Context, webhookURL string, payload interface{}, headers map[string]string) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	requestID := uuid.NewString()
	d.logger.WithFields(logrus.Fields{
		"request_id": requestID,
		"url":        webhookURL,
		"size_bytes": len(body),
	}).Debug("Sending webhook")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create webhook request: %w", err)
	}

	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("webhook request failed: %w", err)
	}
	defer resp.Body.Close()

	if !isSuccessStatus(resp.StatusCode) {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		d.logger.WithFields(logrus.Fields{
			"request_id":  requestID,
			"status_code": resp.StatusCode,
			"body":        string(respBody),
		}).Warn("Webhook returned non-success status")
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	d.logger.WithFields(logrus.Fields{
		"request_id":  requestID,
		"status_code": resp.StatusCode,
	}).Info("Webhook delivered")

	return nil
}
