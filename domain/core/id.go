package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ID represents a domain identifier
type ID string

// NewID creates a new unique identifier using UUID v7 for time-ordered generation
func NewID() ID {
	id, err := uuid.NewV7()
	if err != nil {
		// Fallback to v4 if v7 fails
		id = uuid.New()
	}
	return ID(id.String())
}

// String returns the string representation
func (id ID) String() string {
	return string(id)
}

// IsEmpty checks if the ID is empty
func (id ID) IsEmpty() bool {
	return id == ""
}

// RequestID identifies one HTTP or CLI analysis request in logs.
type RequestID ID

func (id RequestID) String() string { return ID(id).String() }

// NewRequestID returns a fresh time-ordered request identifier.
func NewRequestID() RequestID { return RequestID(NewID()) }

// ParseDatasetHash validates a client-supplied dataset identifier.
func ParseDatasetHash(s string) (DatasetHash, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("dataset ID cannot be empty")
	}
	if len(s) != 64 {
		return "", fmt.Errorf("dataset ID must be a 64 character sha256 hex digest")
	}
	return DatasetHash(s), nil
}
