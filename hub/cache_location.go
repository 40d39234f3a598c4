package hub

import (
	"os"
	"path/filepath"
	"strings"
)

// ResolveCacheRoot determines the cache root directory using the layered
// precedence of spec §4.1: an explicit override, then HF_HUB_CACHE, then
// HF_HOME joined with "hub", then the platform home default. It does not
// create the directory; creation failures surface when a caller first
// writes into it.
func ResolveCacheRoot(explicit string) (string, error) {
	if explicit != "" {
		return expandHome(explicit)
	}
	if v := os.Getenv("HF_HUB_CACHE"); v != "" {
		return expandHome(v)
	}
	if v := os.Getenv("HF_HOME"); v != "" {
		p, err := expandHome(v)
		if err != nil {
			return "", err
		}
		return filepath.Join(p, "hub"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		// Spec: even if the home directory can't be determined, still
		// return the literal fallback path rather than erroring.
		home = ""
	}
	return filepath.Join(home, ".cache", "huggingface", "hub"), nil
}

// expandHome expands a leading "~" to the current user's home directory.
func expandHome(path string) (string, error) {
	if path == "~" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return home, nil
	}
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, path[2:]), nil
	}
	return path, nil
}
