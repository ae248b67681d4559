// Package logging provides panic recovery with stack trace logging.
package logging

import (
	"fmt"
	"runtime/debug"
)

// RecoveryHandler handles panics with logging and an optional callback
type RecoveryHandler struct {
	Component string
	OnPanic   func(err interface{}, stack string)
}

// NewRecoveryHandler creates a recovery handler for a component
func NewRecoveryHandler(component string) *RecoveryHandler {
	return &RecoveryHandler{
		Component: component,
	}
}

// WrapError executes fn with panic recovery, returning error on panic
func (r *RecoveryHandler) WrapError(fn func() error) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = r.handlePanic(rec, string(debug.Stack()))
		}
	}()
	return fn()
}

func (r *RecoveryHandler) handlePanic(rec interface{}, stack string) error {
	errMsg := fmt.Sprintf("panic in %s: %v", r.Component, rec)

	emit(Event{
		Timestamp: now(),
		Level:     LevelError,
		Component: r.Component,
		Event:     "panic_recovered",
		Error:     fmt.Sprintf("%v", rec),
		Extra: map[string]interface{}{
			"stack": stack,
		},
	})

	if r.OnPanic != nil {
		r.OnPanic(rec, stack)
	}

	return fmt.Errorf("%s", errMsg)
}
