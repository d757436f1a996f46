package db

import (
	"os"
	"path/filepath"
	"testing"
)

func TestListMigrationFilesOrdersAndFilters(t *testing.T) {
	dir := t.TempDir()

	names := []string{
		"0003_timeline.up.sql",
		"0001_profiles.up.sql",
		"0002_groups.up.sql",
		"0001_profiles.down.sql", // ignored
		"notes.md",               // ignored
	}
	for _, n := range names {
		if err := os.WriteFile(filepath.Join(dir, n), []byte("SELECT 1;"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "archive.up.sql"), 0o755); err != nil {
		t.Fatal(err)
	}

	files, err := listMigrationFiles(dir)
	if err != nil {
		t.Fatal(err)
	}

	want := []string{"0001_profiles.up.sql", "0002_groups.up.sql", "0003_timeline.up.sql"}
	if len(files) != len(want) {
		t.Fatalf("got %d files %v, want %d", len(files), files, len(want))
	}
	for i := range want {
		if files[i] != want[i] {
			t.Errorf("files[%d] = %q, want %q", i, files[i], want[i])
		}
	}
}

func TestListMigrationFilesMissingDir(t *testing.T) {
	if _, err := listMigrationFiles(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Error("expected error for missing directory")
	}
}
