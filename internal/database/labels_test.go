package database

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestFileStore_SetLabelPersists(t *testing.T) {
	dir := t.TempDir()
	writeVectorFile(t, dir, "face_0.vec", testVector(4, 0))

	store, err := OpenFileStore(dir, 4, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := store.SetLabel(0, "  Jiří  "); err != nil {
		t.Fatalf("SetLabel() error = %v", err)
	}

	got, _ := store.Get(0)
	if got.Label != "Jiří" {
		t.Errorf("Get(0).Label = %q, want %q", got.Label, "Jiří")
	}

	reopened, err := OpenFileStore(dir, 4, nil)
	if err != nil {
		t.Fatal(err)
	}
	if reopened.Label(0) != "Jiří" {
		t.Errorf("reopened Label(0) = %q, want %q", reopened.Label(0), "Jiří")
	}
}

func TestFileStore_SetLabelEmptyRemoves(t *testing.T) {
	dir := t.TempDir()
	writeVectorFile(t, dir, "face_0.vec", testVector(4, 0))
	store, err := OpenFileStore(dir, 4, nil)
	if err != nil {
		t.Fatal(err)
	}

	if err := store.SetLabel(0, "Anna"); err != nil {
		t.Fatal(err)
	}
	if err := store.SetLabel(0, ""); err != nil {
		t.Fatal(err)
	}
	if store.Label(0) != "" {
		t.Errorf("Label(0) = %q, want empty", store.Label(0))
	}
}

func TestFileStore_SetLabelUnknownID(t *testing.T) {
	store, err := OpenFileStore(t.TempDir(), 4, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := store.SetLabel(3, "Nobody"); !errors.Is(err, ErrNotFound) {
		t.Errorf("SetLabel() error = %v, want ErrNotFound", err)
	}
}

func TestFileStore_ReloadLabels(t *testing.T) {
	dir := t.TempDir()
	writeVectorFile(t, dir, "face_0.vec", testVector(4, 0))
	writeVectorFile(t, dir, "face_1.vec", testVector(4, 1))
	store, err := OpenFileStore(dir, 4, nil)
	if err != nil {
		t.Fatal(err)
	}

	content := "labels:\n  1: Bob\n"
	if err := os.WriteFile(filepath.Join(dir, labelsFile), []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := store.ReloadLabels(); err != nil {
		t.Fatalf("ReloadLabels() error = %v", err)
	}

	list := store.List()
	if list[0].Label != "" || list[1].Label != "Bob" {
		t.Errorf("labels after reload = [%q %q], want [\"\" \"Bob\"]", list[0].Label, list[1].Label)
	}
}

func TestReadLabels_Invalid(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, labelsFile), []byte("labels: [oops"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := readLabels(dir); err == nil {
		t.Error("expected parse error")
	}
}
