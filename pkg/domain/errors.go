package domain

import "errors"

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrSessionEnded is returned when a turn is submitted against a terminal session.
var ErrSessionEnded = errors.New("session has ended")
