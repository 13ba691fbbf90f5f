package database

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// publishVectorFile writes a vector the way another store would: temp file
// first, then a rename into place.
func publishVectorFile(t *testing.T, dir, name string, vec []float32) {
	t.Helper()
	tmp := filepath.Join(dir, ".face-test.tmp")
	if err := os.WriteFile(tmp, EncodeVector(vec), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(tmp, filepath.Join(dir, name)); err != nil {
		t.Fatal(err)
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestFileStore_WatchLoadsNewFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := OpenFileStore(dir, 4, nil)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- store.Watch(ctx) }()

	// Give the watcher a moment to register the directory.
	time.Sleep(100 * time.Millisecond)

	publishVectorFile(t, dir, "face_0.vec", testVector(4, 0))
	waitFor(t, func() bool { return store.Count() == 1 })

	if err := os.WriteFile(filepath.Join(dir, labelsFile), []byte("labels:\n  0: Eva\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool { return store.Label(0) == "Eva" })

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Watch() error = %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Watch() did not stop after cancel")
	}
}
