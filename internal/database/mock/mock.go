// Package mock provides mock implementations of database interfaces for testing.
package mock

import (
	"fmt"
	"slices"
	"sync"

	"github.com/kozaktomas/capture-kit/internal/database"
)

// MockIdentityStore is an in-memory implementation of database.IdentityWriter.
// IDs are assigned like the file store: one past the highest ID seen.
type MockIdentityStore struct {
	mu         sync.RWMutex
	dim        int
	identities []database.Identity
	warnings   []database.LoadWarning
	nextID     int

	// Error injection
	AppendError   error
	SetLabelError error
}

var _ database.IdentityWriter = (*MockIdentityStore)(nil)

// NewMockIdentityStore creates an empty store for vectors of length dim
func NewMockIdentityStore(dim int) *MockIdentityStore {
	return &MockIdentityStore{dim: dim}
}

// AddIdentity adds an identity with a fixed ID to the mock store
func (m *MockIdentityStore) AddIdentity(ident database.Identity) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.identities = append(m.identities, ident)
	slices.SortFunc(m.identities, func(a, b database.Identity) int { return a.ID - b.ID })
	m.nextID = max(m.nextID, ident.ID+1)
}

// AddWarning records a skipped file as if it had failed to load
func (m *MockIdentityStore) AddWarning(w database.LoadWarning) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.warnings = append(m.warnings, w)
	m.nextID = max(m.nextID, w.ID+1)
}

// Get retrieves an identity by ID
func (m *MockIdentityStore) Get(id int) (database.Identity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, ident := range m.identities {
		if ident.ID == id {
			return ident, nil
		}
	}
	return database.Identity{}, fmt.Errorf("%w: %d", database.ErrNotFound, id)
}

// List returns all identities ordered by ID
func (m *MockIdentityStore) List() []database.Identity {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.identities)
}

// Count returns the number of identities
func (m *MockIdentityStore) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.identities)
}

// Dim returns the expected vector dimension
func (m *MockIdentityStore) Dim() int {
	return m.dim
}

// NextID returns the ID the next Append will use
func (m *MockIdentityStore) NextID() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.nextID
}

// Warnings returns the recorded skipped files
func (m *MockIdentityStore) Warnings() []database.LoadWarning {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.warnings)
}

// Append stores vec under the next ID
func (m *MockIdentityStore) Append(vec []float32) (database.Identity, error) {
	if m.AppendError != nil {
		return database.Identity{}, m.AppendError
	}
	if len(vec) != m.dim {
		return database.Identity{}, fmt.Errorf("%w: got %d, want %d", database.ErrDimensionMismatch, len(vec), m.dim)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	ident := database.Identity{ID: m.nextID, Vector: slices.Clone(vec)}
	m.identities = append(m.identities, ident)
	m.nextID++
	return ident, nil
}

// SetLabel names an identity; an empty name removes the label
func (m *MockIdentityStore) SetLabel(id int, name string) error {
	if m.SetLabelError != nil {
		return m.SetLabelError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.identities {
		if m.identities[i].ID == id {
			m.identities[i].Label = name
			return nil
		}
	}
	return fmt.Errorf("%w: %d", database.ErrNotFound, id)
}
