package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const defaultTimeout = 30 * time.Second

// errorEnvelope matches the backend's standard error response body.
type errorEnvelope struct {
	ErrorMessage string `json:"errorMessage"`
	ErrorCode    int    `json:"errorCode"`
}

// client is the shared HTTP plumbing for both tool adapters.
type client struct {
	hc     *http.Client
	logger *slog.Logger
}

// post sends a JSON body and decodes a JSON response, translating failures
// into the BackendError taxonomy.
func (c *client) post(ctx context.Context, op, url string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to encode %s request: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build %s request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		// Timeouts and connection failures are all retry-later territory.
		return &BackendError{Kind: KindTransient, Operation: op, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &BackendError{Kind: KindTransient, Operation: op, StatusCode: resp.StatusCode, Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return c.classify(op, resp.StatusCode, raw)
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return &BackendError{Kind: KindTransient, Operation: op, StatusCode: resp.StatusCode,
			Message: "malformed backend response", Err: err}
	}
	return nil
}

func (c *client) classify(op string, status int, raw []byte) *BackendError {
	var envelope errorEnvelope
	_ = json.Unmarshal(raw, &envelope)

	be := &BackendError{Operation: op, StatusCode: status, Message: envelope.ErrorMessage}
	switch {
	case status == http.StatusTooManyRequests:
		be.Kind = KindRateLimited
	case status >= 500:
		be.Kind = KindTransient
	default:
		be.Kind = KindClientInput
	}

	c.logger.Warn("tool backend returned error",
		"operation", op,
		"status", status,
		"kind", be.Kind,
		"message", envelope.ErrorMessage,
	)
	return be
}
