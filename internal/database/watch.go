package database

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watch monitors the store directory and loads vector files or label changes
// written by other processes (for example a running `faces watch`). It blocks
// until ctx is cancelled.
func (s *FileStore) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating directory watcher: %w", err)
	}
	defer w.Close()

	if err := w.Add(s.dir); err != nil {
		return fmt.Errorf("watching %s: %w", s.dir, err)
	}
	s.logger.Info("face data watcher started", zap.String("dir", s.dir))

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("face data watcher stopped")
			return ctx.Err()

		case event, ok := <-w.Events:
			if !ok {
				return errors.New("watcher events channel closed")
			}
			s.handleEvent(event)

		case err, ok := <-w.Errors:
			if !ok {
				return errors.New("watcher errors channel closed")
			}
			s.logger.Error("face data watcher error", zap.Error(err))
		}
	}
}

func (s *FileStore) handleEvent(event fsnotify.Event) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Rename) {
		return
	}

	name := filepath.Base(event.Name)
	switch {
	case name == labelsFile:
		if err := s.ReloadLabels(); err != nil {
			s.logger.Warn("reloading face labels failed", zap.Error(err))
			return
		}
		s.logger.Debug("face labels reloaded")

	case strings.HasPrefix(name, filePrefix) && filepath.Ext(name) == vectorExt:
		added, _, err := s.Refresh()
		if err != nil {
			s.logger.Warn("refreshing face data failed", zap.Error(err))
			return
		}
		if added > 0 {
			s.logger.Info("new face identities loaded", zap.Int("added", added), zap.Int("total", s.Count()))
		}
	}
}
