package ports

import (
	"context"

	"github.com/empassist/empassist/pkg/domain"
)

// ValidateRequest carries the three identity fields the validation operation
// requires. Values must be trimmed by the caller-facing adapter.
type ValidateRequest struct {
	EmployeeID string `json:"employee_id" mapstructure:"employee_id"`
	FirstName  string `json:"first_name" mapstructure:"first_name"`
	LastName   string `json:"last_name" mapstructure:"last_name"`
}

// ValidateResult is the validation operation outcome.
type ValidateResult struct {
	IsValid           bool   `json:"isValid"`
	ValidationMessage string `json:"validationMessage"`
}

// UpdateRequest carries the employee ID and only the fields being changed.
// An empty-string value means an explicit clear.
type UpdateRequest struct {
	EmployeeID string
	Changes    map[domain.Field]string
}

// UpdateResult is the update operation outcome.
type UpdateResult struct {
	RowsUpdated int    `json:"rowsUpdated"`
	Message     string `json:"message"`
}

// Validator is the narrow client wrapping the backend identity validation
// operation. Implementations perform no retries; retry policy belongs to the
// dialogue manager.
type Validator interface {
	Validate(ctx context.Context, req ValidateRequest) (ValidateResult, error)
}

// Updater is the narrow client wrapping the backend profile update operation.
type Updater interface {
	Update(ctx context.Context, req UpdateRequest) (UpdateResult, error)
}
