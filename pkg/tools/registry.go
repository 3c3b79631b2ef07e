package tools

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/empassist/empassist/pkg/domain"
	"github.com/empassist/empassist/pkg/ports"
	"github.com/mitchellh/mapstructure"
)

// Canonical tool names as published to the hosted agent platform.
const (
	ToolNameValidation = "EmployeeValidation"
	ToolNameUpdate     = "EmployeeUpdate"
)

// Func is the signature for a registered tool implementation. It receives the
// raw argument map produced by the engine and returns a JSON-serializable
// result.
type Func func(ctx context.Context, args map[string]any) (any, error)

// Registry manages the tools available to engine hosts (MCP, local engine).
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Func
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Func)}
}

// Register adds a tool. A tool with the same name is overwritten.
func (r *Registry) Register(name string, fn Func) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[name] = fn
}

// Execute looks up a tool by name and executes it.
func (r *Registry) Execute(ctx context.Context, name string, args map[string]any) (any, error) {
	r.mu.RLock()
	fn, ok := r.tools[name]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("tool not found: %s", name)
	}
	return fn(ctx, args)
}

// Names returns the registered tool names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RegisterValidator exposes a Validator under its canonical tool name.
func RegisterValidator(r *Registry, v ports.Validator) {
	r.Register(ToolNameValidation, func(ctx context.Context, args map[string]any) (any, error) {
		req, err := DecodeValidateArgs(args)
		if err != nil {
			return nil, err
		}
		return v.Validate(ctx, req)
	})
}

// RegisterUpdater exposes an Updater under its canonical tool name.
func RegisterUpdater(r *Registry, u ports.Updater) {
	r.Register(ToolNameUpdate, func(ctx context.Context, args map[string]any) (any, error) {
		req, err := DecodeUpdateArgs(args)
		if err != nil {
			return nil, err
		}
		return u.Update(ctx, req)
	})
}

// DecodeValidateArgs decodes an untyped argument map into a ValidateRequest.
func DecodeValidateArgs(args map[string]any) (ports.ValidateRequest, error) {
	var req ports.ValidateRequest
	if err := mapstructure.Decode(args, &req); err != nil {
		return ports.ValidateRequest{}, fmt.Errorf("invalid validation arguments: %w", err)
	}
	return req, nil
}

// DecodeUpdateArgs decodes an untyped argument map into an UpdateRequest,
// collecting only the updatable fields present in the map.
func DecodeUpdateArgs(args map[string]any) (ports.UpdateRequest, error) {
	var flat struct {
		EmployeeID string  `mapstructure:"employee_id"`
		Address    *string `mapstructure:"address"`
		Department *string `mapstructure:"department"`
		JobTitle   *string `mapstructure:"job_title"`
	}
	if err := mapstructure.Decode(args, &flat); err != nil {
		return ports.UpdateRequest{}, fmt.Errorf("invalid update arguments: %w", err)
	}

	req := ports.UpdateRequest{
		EmployeeID: flat.EmployeeID,
		Changes:    make(map[domain.Field]string),
	}
	if flat.Address != nil {
		req.Changes[domain.FieldAddress] = *flat.Address
	}
	if flat.Department != nil {
		req.Changes[domain.FieldDepartment] = *flat.Department
	}
	if flat.JobTitle != nil {
		req.Changes[domain.FieldJobTitle] = *flat.JobTitle
	}
	return req, nil
}
