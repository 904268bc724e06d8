package errs

import (
	"errors"
	"fmt"
)

// Error kinds shared by domain and usecase layers. Callers branch with
// errors.Is; messages stay human-readable.
var (
	ErrValidation       = errors.New("validation error")
	ErrInsufficientData = errors.New("insufficient data")
	ErrStateConflict    = errors.New("state conflict")
	ErrNotFound         = errors.New("not found")
)

var kinds = []error{ErrValidation, ErrInsufficientData, ErrStateConflict, ErrNotFound}

func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func InsufficientDataf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInsufficientData, fmt.Sprintf(format, args...))
}

func StateConflictf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrStateConflict, fmt.Sprintf(format, args...))
}

func NotFoundf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

// KindOf returns the matching kind sentinel, or nil for unclassified errors.
func KindOf(err error) error {
	for _, kind := range kinds {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
