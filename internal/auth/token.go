// Package auth resolves bearer credentials for the hub from the
// environment or from token files on disk, per the search order
// documented in spec §6.
package auth

import (
	"os"
	"path/filepath"
	"strings"
)

// ResolveToken searches, in order: HF_TOKEN env, HUGGING_FACE_HUB_TOKEN env,
// the file at HF_TOKEN_PATH, $HF_HOME/token, ~/.cache/huggingface/token,
// ~/.huggingface/token. The first hit wins; file contents are trimmed of
// surrounding whitespace. Returns "" if nothing is found.
func ResolveToken() string {
	if t := os.Getenv("HF_TOKEN"); t != "" {
		return strings.TrimSpace(t)
	}
	if t := os.Getenv("HUGGING_FACE_HUB_TOKEN"); t != "" {
		return strings.TrimSpace(t)
	}
	for _, path := range candidateTokenFiles() {
		if path == "" {
			continue
		}
		if b, err := os.ReadFile(path); err == nil {
			if t := strings.TrimSpace(string(b)); t != "" {
				return t
			}
		}
	}
	return ""
}

func candidateTokenFiles() []string {
	var paths []string
	if p := os.Getenv("HF_TOKEN_PATH"); p != "" {
		paths = append(paths, p)
	}
	if home := os.Getenv("HF_HOME"); home != "" {
		paths = append(paths, filepath.Join(home, "token"))
	}
	if userHome, err := os.UserHomeDir(); err == nil {
		paths = append(paths,
			filepath.Join(userHome, ".cache", "huggingface", "token"),
			filepath.Join(userHome, ".huggingface", "token"),
		)
	}
	return paths
}
