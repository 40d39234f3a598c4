package hub

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var commitHashPattern = regexp.MustCompile(`^[0-9a-f]{40}$`)

// Classify reports "commit" if revision is exactly 40 lowercase hex
// characters, else "symbolic" (spec §4.3).
func Classify(revision string) string {
	if commitHashPattern.MatchString(revision) {
		return "commit"
	}
	return "symbolic"
}

// IsCommitHash is a boolean convenience wrapper around Classify.
func IsCommitHash(revision string) bool { return Classify(revision) == "commit" }

// ReadRef reads "refs/<ref>" and returns the trimmed commit hash, or ("",
// false) if the file does not exist or cannot be read — any I/O error is
// treated as "not found", never surfaced as an error (spec §4.3).
func (l *Layout) ReadRef(ref string) (string, bool) {
	b, err := os.ReadFile(l.RefPath(ref))
	if err != nil {
		return "", false
	}
	return strings.TrimSpace(string(b)), true
}

// WriteRef atomically writes commit into "refs/<ref>", creating parent
// directories as needed for nested refs like "pr/5".
func (l *Layout) WriteRef(ref, commit string) error {
	path := l.RefPath(ref)
	if err := os.MkdirAll(filepath.Dir(path), 0o777); err != nil {
		return newFSError("create refs directory", err)
	}
	tmp := path + ".tmp-" + uuid.NewString()
	if err := os.WriteFile(tmp, []byte(commit), 0o644); err != nil {
		return newFSError("write ref temp file", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return newFSError("rename ref into place", err)
	}
	return nil
}

// ResolveRevision resolves revision to a commit hash: if it classifies as
// a commit it is returned verbatim, otherwise it is looked up via ReadRef.
func (l *Layout) ResolveRevision(revision string) (string, bool) {
	if IsCommitHash(revision) {
		return revision, true
	}
	return l.ReadRef(revision)
}
