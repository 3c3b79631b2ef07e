package tools

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/empassist/empassist/internal/logging"
	"github.com/empassist/empassist/pkg/domain"
	"github.com/empassist/empassist/pkg/ports"
)

// Updater invokes the backend profile update operation.
type Updater struct {
	url string
	client
}

// UpdaterOption configures an Updater.
type UpdaterOption func(*Updater)

// WithUpdaterHTTPClient overrides the HTTP client.
func WithUpdaterHTTPClient(hc *http.Client) UpdaterOption {
	return func(u *Updater) { u.hc = hc }
}

// WithUpdaterLogger configures a logger.
func WithUpdaterLogger(logger *slog.Logger) UpdaterOption {
	return func(u *Updater) { u.logger = logger }
}

// NewUpdater creates an update adapter for the given operation URL.
func NewUpdater(url string, opts ...UpdaterOption) *Updater {
	u := &Updater{
		url:    url,
		client: client{hc: &http.Client{Timeout: defaultTimeout}, logger: logging.NewNop()},
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

var _ ports.Updater = (*Updater)(nil)

// updateBody is the wire shape: employee_id plus only the fields being
// changed. Empty strings are sent as-is for explicit clears.
type updateBody struct {
	EmployeeID string  `json:"employee_id"`
	Address    *string `json:"address,omitempty"`
	Department *string `json:"department,omitempty"`
	JobTitle   *string `json:"job_title,omitempty"`
}

// Update applies the requested field changes. At least one updatable field
// must be present in the change set.
func (u *Updater) Update(ctx context.Context, req ports.UpdateRequest) (ports.UpdateResult, error) {
	req.EmployeeID = strings.TrimSpace(req.EmployeeID)
	if req.EmployeeID == "" {
		return ports.UpdateResult{}, &BackendError{
			Kind:      KindClientInput,
			Operation: "update",
			Message:   "employee_id must not be empty",
		}
	}
	if len(req.Changes) == 0 {
		return ports.UpdateResult{}, &BackendError{
			Kind:      KindClientInput,
			Operation: "update",
			Message:   "at least one of address, department or job_title must be provided",
		}
	}

	body := updateBody{EmployeeID: req.EmployeeID}
	fields := make([]string, 0, len(req.Changes))
	for field, value := range req.Changes {
		v := value
		switch field {
		case domain.FieldAddress:
			body.Address = &v
		case domain.FieldDepartment:
			body.Department = &v
		case domain.FieldJobTitle:
			body.JobTitle = &v
		default:
			return ports.UpdateResult{}, &BackendError{
				Kind:      KindClientInput,
				Operation: "update",
				Message:   "unknown field: " + string(field),
			}
		}
		fields = append(fields, string(field))
	}

	start := time.Now()
	var result ports.UpdateResult
	if err := u.post(ctx, "update", u.url, body, &result); err != nil {
		return ports.UpdateResult{}, err
	}

	u.logger.Info("profile update completed",
		"employee_id", req.EmployeeID,
		"fields", fields,
		"rows_updated", result.RowsUpdated,
		"duration", time.Since(start),
	)
	return result, nil
}
