package database

// IdentityReader provides read-only access to stored face identities
type IdentityReader interface {
	// Get retrieves an identity by ID, returns ErrNotFound if missing
	Get(id int) (Identity, error)
	// List returns all identities ordered by ascending ID
	List() []Identity
	// Count returns the number of loaded identities
	Count() int
	// Dim returns the expected vector dimension
	Dim() int
}

// IdentityWriter provides append access to the identity store.
// Vectors are never updated or deleted; only labels can change.
type IdentityWriter interface {
	IdentityReader

	// Append stores a new vector under the next counter ID
	Append(vec []float32) (Identity, error)

	// SetLabel assigns a display name to an existing identity.
	// An empty name removes the label.
	SetLabel(id int, name string) error
}
