package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Not found errors
	ErrNotFound        = errors.New("resource not found")
	ErrDatasetNotFound = fmt.Errorf("%w: dataset", ErrNotFound)
	ErrCacheMiss       = fmt.Errorf("%w: cached analysis", ErrNotFound)

	// Input errors
	ErrEmptyDataset      = errors.New("dataset is empty or could not be parsed")
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrEmptyQuery        = errors.New("query is empty")
)

// NewNotFoundError builds a not-found error for a resource.
func NewNotFoundError(resource string, id string) error {
	return fmt.Errorf("%w: %s with id %s", ErrNotFound, resource, id)
}

// NewUnsupportedFormatError names the rejected file.
func NewUnsupportedFormatError(filename string) error {
	return fmt.Errorf("%w: %s (use CSV or Excel)", ErrUnsupportedFormat, filename)
}

// Error checking helpers
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsInputError(err error) bool {
	return errors.Is(err, ErrEmptyDataset) ||
		errors.Is(err, ErrUnsupportedFormat) ||
		errors.Is(err, ErrEmptyQuery)
}
