package pricing

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownModel indicates the model id has no entry in the price list.
	ErrUnknownModel = errors.New("unknown model")

	// ErrInvalidTable indicates a price list that cannot be used.
	ErrInvalidTable = errors.New("invalid pricing table")
)

// UnknownModelError wraps ErrUnknownModel with the requested id.
type UnknownModelError struct {
	ModelID string
}

func (e *UnknownModelError) Error() string {
	return fmt.Sprintf("unknown model: %q", e.ModelID)
}

func (e *UnknownModelError) Unwrap() error {
	return ErrUnknownModel
}

// IsUnknownModel checks if an error is an unknown model error.
func IsUnknownModel(err error) bool {
	return errors.Is(err, ErrUnknownModel)
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidTable, fmt.Sprintf(format, args...))
}
