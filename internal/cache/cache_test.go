package cache

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shapestone/vroom/internal/parseindex"
)

func TestSaveLoad_Roundtrip(t *testing.T) {
	dir := t.TempDir()
	cachePath := filepath.Join(dir, "data.csv.vroomidx")

	idx := &parseindex.ParseIndex{
		Positions: []int32{1, 3, 5, 7, 9, 11},
		NThreads:  2,
		Columns:   3,
		Layout:    parseindex.LayoutRowMajor,
	}

	if err := Save(cachePath, 1000, 2000, idx); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := Load(cachePath, 1000, 2000)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Columns != idx.Columns || got.NThreads != idx.NThreads || got.Layout != idx.Layout {
		t.Fatalf("metadata mismatch: got %+v, want %+v", got, idx)
	}
	if len(got.Positions) != len(idx.Positions) {
		t.Fatalf("Positions length mismatch: got %d, want %d", len(got.Positions), len(idx.Positions))
	}
	for i, p := range idx.Positions {
		if got.Positions[i] != p {
			t.Fatalf("Positions[%d] = %d, want %d", i, got.Positions[i], p)
		}
	}
}

func TestLoad_StaleDetection(t *testing.T) {
	dir := t.TempDir()
	cachePath := filepath.Join(dir, "data.csv.vroomidx")
	idx := &parseindex.ParseIndex{Positions: []int32{1, 2}, Columns: 1, Layout: parseindex.LayoutRowMajor}

	if err := Save(cachePath, 1000, 2000, idx); err != nil {
		t.Fatalf("Save: %v", err)
	}
	_, err := Load(cachePath, 1000, 9999) // different source size
	if err != ErrStale {
		t.Fatalf("Load with mismatched size = %v, want ErrStale", err)
	}
}

func TestLoad_CorruptFileIsDiscarded(t *testing.T) {
	dir := t.TempDir()
	cachePath := filepath.Join(dir, "data.csv.vroomidx")
	if err := os.WriteFile(cachePath, []byte("not a valid cache file"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	_, err := Load(cachePath, 1000, 2000)
	if err == nil {
		t.Fatalf("expected an error loading a corrupt cache file")
	}
	if _, statErr := os.Stat(cachePath); !os.IsNotExist(statErr) {
		t.Fatalf("corrupt cache file should have been removed")
	}
}

func TestSave_RejectsInterleavedLayout(t *testing.T) {
	dir := t.TempDir()
	cachePath := filepath.Join(dir, "data.csv.vroomidx")
	idx := &parseindex.ParseIndex{Layout: parseindex.LayoutInterleaved}
	if err := Save(cachePath, 0, 0, idx); err == nil {
		t.Fatalf("expected error saving an interleaved index")
	}
}

func TestDiscard_MissingFileIsNotAnError(t *testing.T) {
	dir := t.TempDir()
	if err := Discard(filepath.Join(dir, "does-not-exist.vroomidx")); err != nil {
		t.Fatalf("Discard of a missing file returned %v, want nil", err)
	}
}

func TestPathFor(t *testing.T) {
	if got := PathFor("/data/file.csv"); got != "/data/file.csv.vroomidx" {
		t.Fatalf("PathFor = %q, want %q", got, "/data/file.csv.vroomidx")
	}
}
