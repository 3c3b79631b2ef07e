// Package middleware provides composable wrappers around a SessionStore.
// Sessions carry employee PII (identity slots, pending profile values), so
// stores can be wrapped to encrypt records at rest and to keep raw values
// out of audit logs.
package middleware

import "github.com/empassist/empassist/pkg/ports"

// Middleware allows wrapping a SessionStore to add behavior.
type Middleware func(ports.SessionStore) ports.SessionStore
