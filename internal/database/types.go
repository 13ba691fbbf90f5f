package database

import "errors"

// Identity is a stored face feature vector keyed by its counter-assigned ID.
type Identity struct {
	ID     int
	Vector []float32
	Label  string // optional display name from labels.yaml
}

// LoadWarning describes a vector file that was skipped while loading the store.
type LoadWarning struct {
	Path   string
	ID     int
	Dim    int // observed dimension, 0 when the file could not be decoded
	Reason string
}

var (
	// ErrNotFound is returned when an identity ID is not present in the store.
	ErrNotFound = errors.New("identity not found")

	// ErrDimensionMismatch is returned when a vector does not have the store's dimension.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrIdentityExists is returned when a vector file for an ID already exists on disk.
	ErrIdentityExists = errors.New("identity file already exists")
)
