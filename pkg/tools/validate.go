package tools

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/empassist/empassist/internal/logging"
	"github.com/empassist/empassist/pkg/ports"
)

const (
	maxEmployeeIDLen = 64
	maxNameLen       = 100
)

// Validator invokes the backend identity validation operation.
type Validator struct {
	url string
	client
}

// ValidatorOption configures a Validator.
type ValidatorOption func(*Validator)

// WithValidatorHTTPClient overrides the HTTP client.
func WithValidatorHTTPClient(hc *http.Client) ValidatorOption {
	return func(v *Validator) { v.hc = hc }
}

// WithValidatorLogger configures a logger.
func WithValidatorLogger(logger *slog.Logger) ValidatorOption {
	return func(v *Validator) { v.logger = logger }
}

// NewValidator creates a validation adapter for the given operation URL.
func NewValidator(url string, opts ...ValidatorOption) *Validator {
	v := &Validator{
		url:    url,
		client: client{hc: &http.Client{Timeout: defaultTimeout}, logger: logging.NewNop()},
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

var _ ports.Validator = (*Validator)(nil)

// Validate checks the identity against the backend. Inputs are trimmed and
// length-checked before anything goes on the wire.
func (v *Validator) Validate(ctx context.Context, req ports.ValidateRequest) (ports.ValidateResult, error) {
	req.EmployeeID = strings.TrimSpace(req.EmployeeID)
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)

	if err := checkLength("employee_id", req.EmployeeID, maxEmployeeIDLen); err != nil {
		return ports.ValidateResult{}, err
	}
	if err := checkLength("first_name", req.FirstName, maxNameLen); err != nil {
		return ports.ValidateResult{}, err
	}
	if err := checkLength("last_name", req.LastName, maxNameLen); err != nil {
		return ports.ValidateResult{}, err
	}

	start := time.Now()
	var result ports.ValidateResult
	if err := v.post(ctx, "validate", v.url, req, &result); err != nil {
		return ports.ValidateResult{}, err
	}

	v.logger.Info("identity validation completed",
		"employee_id", req.EmployeeID,
		"is_valid", result.IsValid,
		"duration", time.Since(start),
	)
	return result, nil
}

func checkLength(field, value string, max int) error {
	if value == "" {
		return &BackendError{
			Kind:      KindClientInput,
			Operation: "validate",
			Message:   fmt.Sprintf("%s must not be empty", field),
		}
	}
	if len(value) > max {
		return &BackendError{
			Kind:      KindClientInput,
			Operation: "validate",
			Message:   fmt.Sprintf("%s exceeds %d characters", field, max),
		}
	}
	return nil
}
