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

// Domain-specific ID types
type (
	RunID     ID
	SeriesID  ID
	StratumID ID
	ClusterID ID
)

// String conversions for domain IDs
func (id RunID) String() string     { return ID(id).String() }
func (id SeriesID) String() string  { return ID(id).String() }
func (id StratumID) String() string { return ID(id).String() }
func (id ClusterID) String() string { return ID(id).String() }

// NewRunID creates a time-ordered run identifier
func NewRunID() RunID {
	return RunID(NewID())
}

// ParseSeriesID parses a string into SeriesID
func ParseSeriesID(s string) (SeriesID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("series ID cannot be empty")
	}
	return SeriesID(s), nil
}
