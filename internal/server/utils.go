package server

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	appName       = "umath"
	cacheFileName = "renders.db"
)

// cachePath resolves the render cache location. An empty setting selects the
// XDG state directory; a leading "~/" is expanded.
func cachePath(setting string) (string, error) {
	if setting == "" {
		dir, err := stateDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, cacheFileName), nil
	}
	if rest, ok := strings.CutPrefix(setting, "~/"); ok {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to expand %q: %w", setting, err)
		}
		setting = filepath.Join(home, rest)
	}
	if err := os.MkdirAll(filepath.Dir(setting), 0700); err != nil {
		return "", fmt.Errorf("failed to create cache directory: %w", err)
	}
	return setting, nil
}

// stateDir returns $XDG_STATE_HOME/umath, creating it if needed.
func stateDir() (string, error) {
	base := os.Getenv("XDG_STATE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get user home directory: %w", err)
		}
		base = filepath.Join(home, ".local", "state")
	}

	dir := filepath.Join(base, appName)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("failed to create state directory: %w", err)
	}
	return dir, nil
}
