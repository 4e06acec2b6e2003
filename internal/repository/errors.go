package repository

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var (
	// ErrNotFound is returned when a record does not exist
	ErrNotFound = errors.New("record not found")
	// ErrInvalidRecord is returned when a stored or submitted record fails validation
	ErrInvalidRecord = errors.New("invalid record")
)

var validate = validator.New()

// check runs struct validation and wraps failures in ErrInvalidRecord
func check(kind, id string, v any) error {
	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %s %q: %v", ErrInvalidRecord, kind, id, err)
	}
	return nil
}
