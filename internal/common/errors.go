// Package common defines shared constants and sentinel errors used across
// the catalog server. Callers should use errors.Is to match these values.
package common

import (
	"errors"
	"fmt"
)

var (
	// Request-level errors, reported before any external call is made.
	ErrValidation = errors.New("validation error")

	// Repository-level errors.
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")

	// Admin gate rejections.
	ErrMissingCredential = errors.New("missing credential")
	ErrInvalidCredential = errors.New("invalid credential")
	ErrNotAuthorized     = errors.New("admin only")

	// Asset lifecycle errors.
	ErrAssetUploadFailed = errors.New("asset upload failed")

	// Category guard errors.
	ErrCategoryInUse  = errors.New("category in use")
	ErrCategoryExists = errors.New("category already exists")

	// Unexpected failure of the database or object storage.
	ErrDependency = errors.New("dependency error")
)

// Validationf returns an error matching ErrValidation with a formatted reason.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// Dependency hides a collaborator error behind ErrDependency. The original
// error text is kept for logs but errors.Is only matches the sentinel.
func Dependency(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrDependency, op, err)
}

// CategoryInUseError is returned when a category delete is refused because
// specimens still reference the category name.
type CategoryInUseError struct {
	Name   string
	Plants int64
	Fish   int64
}

func (e *CategoryInUseError) Error() string {
	return fmt.Sprintf("category %q in use by %d plants and %d fish", e.Name, e.Plants, e.Fish)
}

func (e *CategoryInUseError) Is(target error) bool {
	return target == ErrCategoryInUse
}
