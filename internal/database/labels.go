package database

import (
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// labelsDocument is the on-disk shape of labels.yaml.
type labelsDocument struct {
	Labels map[int]string `yaml:"labels"`
}

// readLabels reads labels.yaml from dir. A missing file yields an empty map.
func readLabels(dir string) (map[int]string, error) {
	data, err := os.ReadFile(filepath.Join(dir, labelsFile)) //nolint:gosec // path is inside the configured data dir
	if os.IsNotExist(err) {
		return make(map[int]string), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading labels: %w", err)
	}

	var doc labelsDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing labels: %w", err)
	}
	if doc.Labels == nil {
		doc.Labels = make(map[int]string)
	}
	return doc.Labels, nil
}

// writeLabels replaces labels.yaml atomically.
func writeLabels(dir string, labels map[int]string) error {
	data, err := yaml.Marshal(labelsDocument{Labels: labels})
	if err != nil {
		return fmt.Errorf("marshaling labels: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".labels-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temporary labels file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("writing labels: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("closing labels: %w", err)
	}
	if err := os.Rename(tmpName, filepath.Join(dir, labelsFile)); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replacing labels: %w", err)
	}
	return nil
}

// Label returns the display name of an identity, or "" when unlabeled.
func (s *FileStore) Label(id int) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.labels[id]
}

// SetLabel names an existing identity and persists labels.yaml.
// An empty name removes the label.
func (s *FileStore) SetLabel(id int, name string) error {
	name = strings.TrimSpace(name)

	s.mu.Lock()
	defer s.mu.Unlock()

	ident, ok := s.identities[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrNotFound, id)
	}

	next := maps.Clone(s.labels)
	if name == "" {
		delete(next, id)
	} else {
		next[id] = name
	}
	if err := writeLabels(s.dir, next); err != nil {
		return err
	}

	s.labels = next
	ident.Label = name
	s.logger.Info("face label updated", zap.Int("id", id), zap.String("label", name))
	return nil
}

// ReloadLabels rereads labels.yaml and applies it to the loaded identities.
func (s *FileStore) ReloadLabels() error {
	labels, err := readLabels(s.dir)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.labels = labels
	for id, ident := range s.identities {
		ident.Label = labels[id]
	}
	return nil
}
