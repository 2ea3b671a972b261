// Package id generates crawl run identifiers.
package id

import (
	"fmt"

	"github.com/google/uuid"
)

// Source produces run identifiers.
type Source interface {
	NewRunID() (string, error)
}

// Generator creates time-ordered UUIDv7 run IDs so reports and
// notifications from later runs sort after earlier ones.
type Generator struct{}

// NewGenerator creates a new Generator.
func NewGenerator() Generator {
	return Generator{}
}

// NewRunID returns a UUIDv7 string.
func (Generator) NewRunID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate uuid7: %w", err)
	}
	return id.String(), nil
}

// Fixed always returns the same run ID.
type Fixed string

// NewRunID returns f.
func (f Fixed) NewRunID() (string, error) {
	return string(f), nil
}
