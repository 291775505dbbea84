package internal

import (
	"os"
	"path/filepath"
	"testing"
)

func TestEnsureDirs(t *testing.T) {
	base := t.TempDir()
	a := filepath.Join(base, "a", "b")
	c := filepath.Join(base, "c")

	if err := EnsureDirs(a, c); err != nil {
		t.Fatalf("EnsureDirs() error = %v", err)
	}
	for _, dir := range []string{a, c} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Errorf("%s not created", dir)
		}
	}
}

func TestCleanupFiles_IgnoresMissing(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "video.mp4")
	if err := os.WriteFile(existing, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	cleanupFiles(true, existing, filepath.Join(dir, "never-created.mp3"))

	if FileExists(existing) {
		t.Error("existing file was not removed")
	}
}

func TestCleanupTempDir_LeavesOtherRunsAlone(t *testing.T) {
	base := filepath.Join(t.TempDir(), "tmp")

	mine, err := NewRunTempDir(base)
	if err != nil {
		t.Fatalf("NewRunTempDir() error = %v", err)
	}
	other, err := NewRunTempDir(base)
	if err != nil {
		t.Fatalf("NewRunTempDir() error = %v", err)
	}
	if mine == other {
		t.Fatalf("run directories collide: %s", mine)
	}
	if filepath.Dir(mine) != base {
		t.Errorf("run directory %s not under %s", mine, base)
	}

	inFlight := filepath.Join(other, "video-2.mp4")
	for _, path := range []string{filepath.Join(mine, "video-1.mp4"), inFlight} {
		if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	if err := CleanupTempDir(mine); err != nil {
		t.Fatalf("CleanupTempDir() error = %v", err)
	}
	if FileExists(mine) {
		t.Error("own run directory still exists")
	}
	if !FileExists(inFlight) {
		t.Error("another run's in-flight file was removed")
	}
}

func TestCleanupTempDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "tmp")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"video-1.mp4", "audio-1.mp3"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	if err := CleanupTempDir(dir); err != nil {
		t.Fatalf("CleanupTempDir() error = %v", err)
	}
	if FileExists(dir) {
		t.Error("temp dir still exists")
	}

	if err := CleanupTempDir(dir); err != nil {
		t.Errorf("CleanupTempDir() on missing dir error = %v", err)
	}
}
