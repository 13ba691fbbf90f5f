package database

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/coder/hnsw"
)

// HNSWIndexMetadata stores metadata for validating cached HNSW indexes.
type HNSWIndexMetadata struct {
	Count     int       `json:"count"`
	MaxID     int       `json:"max_id"`
	Dim       int       `json:"dim"`
	BuildTime time.Time `json:"build_time"`
	Version   int       `json:"version"` // For future compatibility
}

const hnswMetadataVersion = 1

// HNSWIndex wraps an HNSW graph over face descriptors using Euclidean distance,
// the same metric the matcher applies its tolerance to.
type HNSWIndex struct {
	graph *hnsw.Graph[int]
	count int
	maxID int
	dim   int
	mu    sync.RWMutex
}

// NewHNSWIndex creates a new empty HNSW index.
func NewHNSWIndex() *HNSWIndex {
	return &HNSWIndex{maxID: -1}
}

func newGraph() *hnsw.Graph[int] {
	g := hnsw.NewGraph[int]()
	g.M = HNSWMaxNeighbors
	g.Ml = 1.0 / float64(HNSWMaxNeighbors) // Standard HNSW formula
	g.EfSearch = HNSWEfSearch
	g.Distance = hnsw.EuclideanDistance
	return g
}

// Build replaces the index contents with identities.
func (h *HNSWIndex) Build(identities []Identity) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.graph = nil
	h.count = 0
	h.maxID = -1
	h.dim = 0
	for _, ident := range identities {
		h.addLocked(ident)
	}
}

// Add inserts a single identity.
func (h *HNSWIndex) Add(ident Identity) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.addLocked(ident)
}

func (h *HNSWIndex) addLocked(ident Identity) {
	if len(ident.Vector) == 0 {
		return
	}
	if h.graph == nil {
		h.graph = newGraph()
	}
	h.graph.Add(hnsw.MakeNode(ident.ID, ident.Vector))
	h.count++
	h.dim = len(ident.Vector)
	h.maxID = max(h.maxID, ident.ID)
}

// Search finds the k nearest identities to the query vector.
// Returns identity IDs and their Euclidean distances, nearest first.
func (h *HNSWIndex) Search(query []float32, k int) ([]int, []float64, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.graph == nil {
		return nil, nil, errors.New("index not initialized")
	}
	if len(query) != h.dim {
		return nil, nil, fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(query), h.dim)
	}

	neighbors := h.graph.Search(query, k)
	ids := make([]int, len(neighbors))
	distances := make([]float64, len(neighbors))
	for i, n := range neighbors {
		ids[i] = n.Key
		distances[i] = EuclideanDistance(query, n.Value)
	}
	return ids, distances, nil
}

// Count returns the number of indexed identities.
func (h *HNSWIndex) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.count
}

// Metadata describes the current index contents.
func (h *HNSWIndex) Metadata() HNSWIndexMetadata {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return HNSWIndexMetadata{
		Count:     h.count,
		MaxID:     h.maxID,
		Dim:       h.dim,
		BuildTime: time.Now(),
		Version:   hnswMetadataVersion,
	}
}

// Save persists the graph to path and its metadata to path + ".meta".
func (h *HNSWIndex) Save(path string) error {
	meta := h.Metadata()

	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.graph == nil {
		// Remove existing files if index is empty (best-effort cleanup).
		_ = os.Remove(path)
		_ = os.Remove(path + ".meta")
		return nil
	}

	f, err := os.Create(path) //nolint:gosec // path is from trusted config
	if err != nil {
		return fmt.Errorf("failed to create HNSW index file: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if err := h.graph.Export(w); err != nil {
		return fmt.Errorf("exporting HNSW graph: %w", err)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("writing HNSW index: %w", err)
	}

	metaData, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}
	if err := os.WriteFile(path+".meta", metaData, 0o600); err != nil {
		return fmt.Errorf("failed to write metadata file: %w", err)
	}
	return nil
}

// LoadHNSWMetadata loads metadata from a separate .meta file.
func LoadHNSWMetadata(path string) (HNSWIndexMetadata, error) {
	var metadata HNSWIndexMetadata

	data, err := os.ReadFile(path + ".meta") //nolint:gosec // path is from trusted config
	if err != nil {
		return metadata, fmt.Errorf("failed to read metadata file: %w", err)
	}
	if err := json.Unmarshal(data, &metadata); err != nil {
		return metadata, fmt.Errorf("failed to unmarshal metadata: %w", err)
	}
	return metadata, nil
}

// LoadIfFresh imports a saved graph when its metadata matches the identities
// currently in the store. It reports whether the cached graph was used.
func (h *HNSWIndex) LoadIfFresh(path string, identities []Identity) (bool, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return false, nil
	}

	meta, err := LoadHNSWMetadata(path)
	if err != nil {
		return false, err
	}
	maxID := -1
	for _, ident := range identities {
		maxID = max(maxID, ident.ID)
	}
	if meta.Version != hnswMetadataVersion || meta.Count != len(identities) || meta.MaxID != maxID {
		return false, nil
	}

	f, err := os.Open(path) //nolint:gosec // path is from trusted config
	if err != nil {
		return false, fmt.Errorf("failed to open HNSW index: %w", err)
	}
	defer f.Close()

	g := newGraph()
	if err := g.Import(bufio.NewReader(f)); err != nil {
		return false, fmt.Errorf("failed to import HNSW index: %w", err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.graph = g
	h.count = meta.Count
	h.maxID = meta.MaxID
	h.dim = meta.Dim
	return true, nil
}
