package scan

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.xml", "a.csv", "c.xlsx"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "subdir"), 0o755); err != nil {
		t.Fatal(err)
	}

	files, err := Files(dir)
	if err != nil {
		t.Fatalf("Files: %v", err)
	}
	if len(files) != 3 {
		t.Fatalf("got %d files, want 3 (directories excluded)", len(files))
	}

	// Sorted by name for deterministic runs.
	wantNames := []string{"a.csv", "b.xml", "c.xlsx"}
	wantExts := []string{".csv", ".xml", ".xlsx"}
	for i, f := range files {
		if f.Name != wantNames[i] || f.Ext != wantExts[i] {
			t.Errorf("files[%d] = %+v, want %s %s", i, f, wantNames[i], wantExts[i])
		}
		if f.Path != filepath.Join(dir, f.Name) {
			t.Errorf("files[%d].Path = %s", i, f.Path)
		}
	}
}

func TestFilesMissingDir(t *testing.T) {
	if _, err := Files(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Error("expected error for a missing directory")
	}
}
