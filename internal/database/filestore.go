package database

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// FileStore keeps one vector file per identity in a flat directory and mirrors
// the valid ones in memory. Files are named face_<id>.vec after an integer
// counter. Vectors are append-only; the only mutable data are labels.
type FileStore struct {
	dir    string
	dim    int
	logger *zap.Logger

	mu         sync.RWMutex
	identities map[int]*Identity
	scanned    map[string]fileStamp // files already read, valid or not
	warnings   []LoadWarning
	labels     map[int]string
	nextID     int
	index      *HNSWIndex
}

var _ IdentityWriter = (*FileStore)(nil)

// OpenFileStore creates dir if needed and loads every vector file in it.
// Files whose vector length differs from dim are logged and skipped.
func OpenFileStore(dir string, dim int, logger *zap.Logger) (*FileStore, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("invalid vector dimension %d", dim)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating face data directory: %w", err)
	}

	s := &FileStore{
		dir:        dir,
		dim:        dim,
		logger:     logger,
		identities: make(map[int]*Identity),
		scanned:    make(map[string]fileStamp),
		labels:     make(map[int]string),
	}
	if _, err := s.Load(); err != nil {
		return nil, err
	}
	return s, nil
}

// fileStamp identifies a version of a file so a rewritten file is read again.
type fileStamp struct {
	size    int64
	modTime int64
}

// VectorFileName returns the file name used for an identity.
func VectorFileName(id int) string {
	return filePrefix + strconv.Itoa(id) + vectorExt
}

// parseID extracts the counter from a face_<id>.<ext> file name.
func parseID(name string) (int, bool) {
	if !strings.HasPrefix(name, filePrefix) {
		return 0, false
	}
	stem := strings.TrimSuffix(strings.TrimPrefix(name, filePrefix), filepath.Ext(name))
	id, err := strconv.Atoi(stem)
	if err != nil || id < 0 {
		return 0, false
	}
	return id, true
}

// Load rescans the whole directory, replacing the in-memory state.
// It returns the files that were skipped.
func (s *FileStore) Load() ([]LoadWarning, error) {
	labels, err := readLabels(s.dir)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.labels = labels
	s.mu.Unlock()

	_, warnings, err := s.scan(true)
	return warnings, err
}

// Refresh loads vector files that appeared since the last scan.
// It returns how many identities were added and the files that were skipped.
func (s *FileStore) Refresh() (int, []LoadWarning, error) {
	return s.scan(false)
}

func (s *FileStore) scan(reset bool) (int, []LoadWarning, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, nil, fmt.Errorf("reading face data directory: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if reset {
		s.identities = make(map[int]*Identity)
		s.scanned = make(map[string]fileStamp)
		s.warnings = nil
		s.nextID = 0
	}

	var warnings []LoadWarning
	var added []Identity
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		id, ok := parseID(name)
		if !ok {
			continue
		}
		// Every face_<n> file reserves its number, loadable or not.
		if id >= s.nextID {
			s.nextID = id + 1
		}
		if filepath.Ext(name) != vectorExt {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue // removed between ReadDir and Info
		}
		stamp := fileStamp{size: info.Size(), modTime: info.ModTime().UnixNano()}
		if prev, done := s.scanned[name]; done && prev == stamp {
			continue
		}
		s.scanned[name] = stamp

		path := filepath.Join(s.dir, name)
		var vec []float32
		var warning *LoadWarning
		_, loaded := s.identities[id]
		switch canonical := VectorFileName(id); {
		case name != canonical:
			// face_007.vec would shadow face_7.vec.
			warning = &LoadWarning{Path: path, ID: id, Reason: "non-canonical file name, expected " + canonical}
		case loaded:
			continue
		default:
			vec, warning = s.readVector(path, id)
		}
		if warning != nil {
			s.logger.Warn("skipping face vector",
				zap.String("path", path),
				zap.Int("id", id),
				zap.Int("dim", warning.Dim),
				zap.Int("expected_dim", s.dim),
				zap.String("reason", warning.Reason))
			warnings = append(warnings, *warning)
			continue
		}

		ident := &Identity{ID: id, Vector: vec, Label: s.labels[id]}
		s.identities[id] = ident
		added = append(added, *ident)
	}
	s.warnings = append(s.warnings, warnings...)

	if s.index != nil {
		if reset {
			s.index.Build(s.sortedLocked())
		} else {
			for _, ident := range added {
				s.index.Add(ident)
			}
		}
	}

	s.logger.Debug("face data scanned",
		zap.String("dir", s.dir),
		zap.Int("loaded", len(added)),
		zap.Int("skipped", len(warnings)),
		zap.Int("next_id", s.nextID))

	return len(added), warnings, nil
}

// readVector reads and validates one vector file. A non-nil warning means the
// file must be skipped.
func (s *FileStore) readVector(path string, id int) ([]float32, *LoadWarning) {
	data, err := os.ReadFile(path) //nolint:gosec // path is inside the configured data dir
	if err != nil {
		return nil, &LoadWarning{Path: path, ID: id, Reason: err.Error()}
	}
	vec, err := DecodeVector(data)
	if err != nil {
		return nil, &LoadWarning{Path: path, ID: id, Reason: err.Error()}
	}
	if len(vec) != s.dim {
		return nil, &LoadWarning{
			Path:   path,
			ID:     id,
			Dim:    len(vec),
			Reason: fmt.Sprintf("incorrect shape (%d,), expected (%d,)", len(vec), s.dim),
		}
	}
	return vec, nil
}

// Append stores vec under the next free counter ID. The file is written to a
// temporary name and hard-linked into place so that readers never observe a
// partial vector and an existing file is never replaced.
func (s *FileStore) Append(vec []float32) (Identity, error) {
	if len(vec) != s.dim {
		return Identity{}, fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(vec), s.dim)
	}
	stored := slices.Clone(vec)
	payload := EncodeVector(stored)

	s.mu.Lock()
	defer s.mu.Unlock()

	for range maxAppendAttempts {
		id := s.nextID
		name := VectorFileName(id)
		err := writeExclusive(s.dir, name, payload)
		if errors.Is(err, ErrIdentityExists) {
			// Another writer took this ID; Refresh will pick its file up.
			s.logger.Debug("face id already taken on disk", zap.Int("id", id))
			s.nextID = id + 1
			continue
		}
		if err != nil {
			return Identity{}, err
		}

		s.nextID = id + 1
		if info, err := os.Stat(filepath.Join(s.dir, name)); err == nil {
			s.scanned[name] = fileStamp{size: info.Size(), modTime: info.ModTime().UnixNano()}
		}
		ident := &Identity{ID: id, Vector: stored, Label: s.labels[id]}
		s.identities[id] = ident
		if s.index != nil {
			s.index.Add(*ident)
		}
		return *ident, nil
	}
	return Identity{}, fmt.Errorf("allocating identity id after %d attempts: %w", maxAppendAttempts, ErrIdentityExists)
}

// writeExclusive writes payload to dir/name, failing with ErrIdentityExists
// when the target already exists.
func writeExclusive(dir, name string, payload []byte) error {
	tmp, err := os.CreateTemp(dir, tempPrefix+"*.tmp")
	if err != nil {
		return fmt.Errorf("creating temporary vector file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(payload); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("writing vector file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("syncing vector file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing vector file: %w", err)
	}

	if err := os.Link(tmpName, filepath.Join(dir, name)); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return ErrIdentityExists
		}
		return fmt.Errorf("publishing vector file: %w", err)
	}
	return nil
}

// Get returns the identity with the given ID.
func (s *FileStore) Get(id int) (Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ident, ok := s.identities[id]
	if !ok {
		return Identity{}, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	return *ident, nil
}

// List returns all identities ordered by ascending ID. Vectors are shared
// with the store and must not be modified.
func (s *FileStore) List() []Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortedLocked()
}

func (s *FileStore) sortedLocked() []Identity {
	out := make([]Identity, 0, len(s.identities))
	for _, ident := range s.identities {
		out = append(out, *ident)
	}
	slices.SortFunc(out, func(a, b Identity) int { return a.ID - b.ID })
	return out
}

// Count returns the number of loaded identities.
func (s *FileStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.identities)
}

// Dim returns the expected vector dimension.
func (s *FileStore) Dim() int {
	return s.dim
}

// Dir returns the backing directory.
func (s *FileStore) Dir() string {
	return s.dir
}

// NextID returns the ID the next Append will try first.
func (s *FileStore) NextID() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nextID
}

// Warnings returns every file skipped since the last full Load.
func (s *FileStore) Warnings() []LoadWarning {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.warnings)
}

// AttachIndex keeps idx in sync with later appends and refreshes. The index is
// rebuilt from the loaded identities unless it already holds all of them, as
// after HNSWIndex.LoadIfFresh.
func (s *FileStore) AttachIndex(idx *HNSWIndex) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if idx.Count() != len(s.identities) {
		idx.Build(s.sortedLocked())
	}
	s.index = idx
}

// Index returns the attached HNSW index, or nil.
func (s *FileStore) Index() *HNSWIndex {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index
}
