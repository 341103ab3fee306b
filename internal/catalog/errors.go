package catalog

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when an id or slug does not resolve.
	ErrNotFound = errors.New("not found")
	// ErrValidation is matched by every *ValidationError.
	ErrValidation = errors.New("validation failed")
)

// ValidationError rejects an operation before anything is mutated.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%v: %s %s", ErrValidation, e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func invalid(field, reason string) error { return &ValidationError{Field: field, Reason: reason} }

// ImageFailure is one upload of a batch that could not be ingested. Its
// siblings are still processed.
type ImageFailure struct {
	FileName string
	Err      error
}

func (f ImageFailure) Error() string { return f.FileName + ": " + f.Err.Error() }

// translate maps driver errors the caller can act on.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return invalid("slug", "is already used by another game")
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return invalid("reference", "points to a missing row")
	case errors.Is(err, gorm.ErrCheckConstraintViolated):
		return invalid("value", "is out of range")
	}
	return err
}
