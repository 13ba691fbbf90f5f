package database

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func testVector(dim int, seed float32) []float32 {
	vec := make([]float32, dim)
	for i := range vec {
		vec[i] = seed + float32(i)/float32(dim)
	}
	return vec
}

func writeVectorFile(t *testing.T, dir, name string, vec []float32) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), EncodeVector(vec), 0o600); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
}

func TestOpenFileStore_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "face_data")

	store, err := OpenFileStore(dir, DefaultDim, nil)
	if err != nil {
		t.Fatalf("OpenFileStore() error = %v", err)
	}
	if store.Count() != 0 {
		t.Errorf("Count() = %d, want 0", store.Count())
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Errorf("expected directory %s to exist", dir)
	}
}

func TestOpenFileStore_InvalidDim(t *testing.T) {
	if _, err := OpenFileStore(t.TempDir(), 0, nil); err == nil {
		t.Error("expected error for zero dimension")
	}
}

func TestFileStore_LoadSkipsWrongShape(t *testing.T) {
	dir := t.TempDir()
	writeVectorFile(t, dir, "face_0.vec", testVector(4, 0))
	writeVectorFile(t, dir, "face_1.vec", testVector(3, 1)) // wrong dimension
	writeVectorFile(t, dir, "face_2.vec", testVector(4, 2))
	if err := os.WriteFile(filepath.Join(dir, "face_3.vec"), []byte{1, 2, 3}, 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}

	store, err := OpenFileStore(dir, 4, nil)
	if err != nil {
		t.Fatalf("OpenFileStore() error = %v", err)
	}

	if store.Count() != 2 {
		t.Fatalf("Count() = %d, want 2", store.Count())
	}
	warnings := store.Warnings()
	if len(warnings) != 2 {
		t.Fatalf("len(Warnings()) = %d, want 2", len(warnings))
	}
	if warnings[0].ID != 1 || warnings[0].Dim != 3 {
		t.Errorf("warnings[0] = %+v, want ID 1 with Dim 3", warnings[0])
	}
	if warnings[1].ID != 3 || warnings[1].Dim != 0 {
		t.Errorf("warnings[1] = %+v, want undecodable ID 3", warnings[1])
	}
	if _, err := store.Get(1); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(1) error = %v, want ErrNotFound", err)
	}
}

func TestFileStore_AppendUsesNextFreeID(t *testing.T) {
	dir := t.TempDir()
	writeVectorFile(t, dir, "face_0.vec", testVector(4, 0))
	writeVectorFile(t, dir, "face_5.vec", testVector(2, 0)) // skipped but reserves 5

	store, err := OpenFileStore(dir, 4, nil)
	if err != nil {
		t.Fatalf("OpenFileStore() error = %v", err)
	}

	ident, err := store.Append(testVector(4, 9))
	if err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if ident.ID != 6 {
		t.Errorf("Append() ID = %d, want 6", ident.ID)
	}

	// The skipped file must be left untouched.
	data, err := os.ReadFile(filepath.Join(dir, "face_5.vec"))
	if err != nil {
		t.Fatal(err)
	}
	if len(data) != 8 {
		t.Errorf("face_5.vec was modified, size = %d", len(data))
	}

	// A reopened store sees the appended vector.
	reopened, err := OpenFileStore(dir, 4, nil)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	got, err := reopened.Get(6)
	if err != nil {
		t.Fatalf("Get(6) error = %v", err)
	}
	if EuclideanDistance(got.Vector, testVector(4, 9)) != 0 {
		t.Errorf("reloaded vector = %v, want %v", got.Vector, testVector(4, 9))
	}
}

func TestFileStore_AppendSkipsTakenID(t *testing.T) {
	dir := t.TempDir()
	store, err := OpenFileStore(dir, 4, nil)
	if err != nil {
		t.Fatal(err)
	}

	// Another process writes face_0.vec after our scan.
	writeVectorFile(t, dir, "face_0.vec", testVector(4, 1))

	ident, err := store.Append(testVector(4, 2))
	if err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if ident.ID != 1 {
		t.Errorf("Append() ID = %d, want 1", ident.ID)
	}

	added, _, err := store.Refresh()
	if err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if added != 1 || store.Count() != 2 {
		t.Errorf("Refresh() added = %d, Count() = %d, want 1 and 2", added, store.Count())
	}
}

func TestFileStore_AppendDimensionMismatch(t *testing.T) {
	store, err := OpenFileStore(t.TempDir(), 4, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.Append(testVector(5, 0)); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("Append() error = %v, want ErrDimensionMismatch", err)
	}
	if store.NextID() != 0 {
		t.Errorf("NextID() = %d, want 0", store.NextID())
	}
}

func TestFileStore_AppendCopiesVector(t *testing.T) {
	store, err := OpenFileStore(t.TempDir(), 4, nil)
	if err != nil {
		t.Fatal(err)
	}
	vec := testVector(4, 0)
	ident, err := store.Append(vec)
	if err != nil {
		t.Fatal(err)
	}
	vec[0] = 100

	got, _ := store.Get(ident.ID)
	if got.Vector[0] == 100 {
		t.Error("store kept a reference to the caller's slice")
	}
}

func TestFileStore_ListOrdered(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"face_10.vec", "face_2.vec", "face_7.vec"} {
		writeVectorFile(t, dir, name, testVector(4, 0))
	}
	store, err := OpenFileStore(dir, 4, nil)
	if err != nil {
		t.Fatal(err)
	}

	list := store.List()
	want := []int{2, 7, 10}
	if len(list) != len(want) {
		t.Fatalf("len(List()) = %d, want %d", len(list), len(want))
	}
	for i, ident := range list {
		if ident.ID != want[i] {
			t.Errorf("List()[%d].ID = %d, want %d", i, ident.ID, want[i])
		}
	}
}

func TestFileStore_AttachIndexTracksAppends(t *testing.T) {
	dir := t.TempDir()
	writeVectorFile(t, dir, "face_0.vec", testVector(4, 0))
	store, err := OpenFileStore(dir, 4, nil)
	if err != nil {
		t.Fatal(err)
	}

	idx := NewHNSWIndex()
	store.AttachIndex(idx)
	if idx.Count() != 1 {
		t.Fatalf("index Count() = %d, want 1", idx.Count())
	}

	if _, err := store.Append(testVector(4, 5)); err != nil {
		t.Fatal(err)
	}
	if idx.Count() != 2 {
		t.Errorf("index Count() after Append = %d, want 2", idx.Count())
	}

	ids, _, err := idx.Search(testVector(4, 5), 1)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(ids) != 1 || ids[0] != 1 {
		t.Errorf("Search() ids = %v, want [1]", ids)
	}
}

func TestFileStore_LoadWarnsOnZeroPaddedName(t *testing.T) {
	dir := t.TempDir()
	writeVectorFile(t, dir, "face_7.vec", testVector(4, 7))
	writeVectorFile(t, dir, "face_007.vec", testVector(4, 1))

	store, err := OpenFileStore(dir, 4, nil)
	if err != nil {
		t.Fatal(err)
	}
	if store.Count() != 1 {
		t.Fatalf("Count() = %d, want 1", store.Count())
	}
	ident, err := store.Get(7)
	if err != nil {
		t.Fatalf("Get(7) error = %v", err)
	}
	if ident.Vector[0] != 7 {
		t.Errorf("Get(7) loaded %v, want the vector from face_7.vec", ident.Vector)
	}

	warnings := store.Warnings()
	if len(warnings) != 1 {
		t.Fatalf("len(Warnings()) = %d, want 1", len(warnings))
	}
	if filepath.Base(warnings[0].Path) != "face_007.vec" || !strings.Contains(warnings[0].Reason, "face_7.vec") {
		t.Errorf("warning = %+v, want face_007.vec pointing at face_7.vec", warnings[0])
	}
	if store.NextID() != 8 {
		t.Errorf("NextID() = %d, want 8", store.NextID())
	}

	// A later refresh does not report the same file again.
	if _, again, err := store.Refresh(); err != nil || len(again) != 0 {
		t.Errorf("Refresh() = %v, %v; want no new warnings", again, err)
	}
}

func TestFileStore_AttachLoadedIndex(t *testing.T) {
	dir := t.TempDir()
	writeVectorFile(t, dir, "face_0.vec", testVector(4, 0))
	writeVectorFile(t, dir, "face_1.vec", testVector(4, 3))
	store, err := OpenFileStore(dir, 4, nil)
	if err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "faces.hnsw")
	built := NewHNSWIndex()
	built.Build(store.List())
	if err := built.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	idx := NewHNSWIndex()
	fresh, err := idx.LoadIfFresh(path, store.List())
	if err != nil || !fresh {
		t.Fatalf("LoadIfFresh() = %v, %v; want true, nil", fresh, err)
	}
	store.AttachIndex(idx)

	if _, err := store.Append(testVector(4, 9)); err != nil {
		t.Fatal(err)
	}
	ids, _, err := idx.Search(testVector(4, 9), 1)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(ids) != 1 || ids[0] != 2 {
		t.Errorf("Search() ids = %v, want [2]", ids)
	}
	if idx.Count() != 3 {
		t.Errorf("Count() = %d, want 3", idx.Count())
	}
}

func TestVectorFileName(t *testing.T) {
	if got := VectorFileName(12); got != "face_12.vec" {
		t.Errorf("VectorFileName(12) = %q, want %q", got, "face_12.vec")
	}
}

func TestParseID(t *testing.T) {
	tests := []struct {
		name   string
		wantID int
		wantOK bool
	}{
		{"face_0.vec", 0, true},
		{"face_42.vec", 42, true},
		{"face_7.pkl", 7, true},
		{"face_x.vec", 0, false},
		{"face_-1.vec", 0, false},
		{"labels.yaml", 0, false},
		{".face-123.tmp", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, ok := parseID(tt.name)
			if id != tt.wantID || ok != tt.wantOK {
				t.Errorf("parseID(%q) = (%d, %v), want (%d, %v)", tt.name, id, ok, tt.wantID, tt.wantOK)
			}
		})
	}
}
