package cli

import (
	"os"
	"path/filepath"
)

// cacheDir is $XDG_CACHE_HOME/flowmap, falling back to ~/.cache/flowmap.
func cacheDir() (string, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".cache")
	}
	return filepath.Join(base, appName), nil
}
