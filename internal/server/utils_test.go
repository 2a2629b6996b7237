package server

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCachePath(t *testing.T) {
	state := t.TempDir()
	t.Setenv("XDG_STATE_HOME", state)

	got, err := cachePath("")
	if err != nil {
		t.Fatalf("cachePath(\"\") error = %v", err)
	}
	if want := filepath.Join(state, "umath", "renders.db"); got != want {
		t.Errorf("cachePath(\"\") = %q, want %q", got, want)
	}
	if info, err := os.Stat(filepath.Dir(got)); err != nil || !info.IsDir() {
		t.Errorf("state directory not created: %v", err)
	}

	custom := filepath.Join(t.TempDir(), "nested", "cache.db")
	got, err = cachePath(custom)
	if err != nil || got != custom {
		t.Fatalf("cachePath(%q) = %q, %v", custom, got, err)
	}
	if _, err := os.Stat(filepath.Dir(custom)); err != nil {
		t.Errorf("cache directory not created: %v", err)
	}
}
