package hub

import (
	"path/filepath"
	"strings"
)

// Layout computes the on-disk paths for one repository under a cache root,
// per spec §3/§4.2. It is pure path arithmetic: no I/O is performed.
type Layout struct {
	root string
	kind RepoKind
	repo RepoId
}

// NewLayout returns a Layout for (kind, repo) rooted at root.
func NewLayout(root string, kind RepoKind, repo RepoId) (*Layout, error) {
	if _, err := kind.pluralPrefix(); err != nil {
		return nil, err
	}
	return &Layout{root: root, kind: kind, repo: repo}, nil
}

// RepoDir returns "<root>/<kind_plural>--<namespace>--<name>".
func (l *Layout) RepoDir() string {
	prefix, _ := l.kind.pluralPrefix()
	name := prefix + "--" + l.repo.Namespace + "--" + strings.ReplaceAll(l.repo.Name, "/", "--")
	return filepath.Join(l.root, name)
}

// BlobsDir returns "<repo_dir>/blobs".
func (l *Layout) BlobsDir() string { return filepath.Join(l.RepoDir(), "blobs") }

// RefsDir returns "<repo_dir>/refs".
func (l *Layout) RefsDir() string { return filepath.Join(l.RepoDir(), "refs") }

// SnapshotsDir returns "<repo_dir>/snapshots".
func (l *Layout) SnapshotsDir() string { return filepath.Join(l.RepoDir(), "snapshots") }

// BlobPath returns the final resting place of the blob identified by a raw
// (un-normalized) etag.
func (l *Layout) BlobPath(rawEtag string) (string, error) {
	etag, err := NormalizeEtag(rawEtag)
	if err != nil {
		return "", err
	}
	return filepath.Join(l.BlobsDir(), etag), nil
}

// IncompletePath returns the staging path for an in-progress blob download.
func (l *Layout) IncompletePath(rawEtag string) (string, error) {
	blob, err := l.BlobPath(rawEtag)
	if err != nil {
		return "", err
	}
	return blob + ".incomplete", nil
}

// LockPath returns the advisory-lock path for a blob.
func (l *Layout) LockPath(rawEtag string) (string, error) {
	blob, err := l.BlobPath(rawEtag)
	if err != nil {
		return "", err
	}
	return blob + ".lock", nil
}

// RefPath returns "<refs_dir>/<ref>", supporting nested refs such as
// "pr/5" whose parent directories the caller must create.
func (l *Layout) RefPath(ref string) string {
	return filepath.Join(l.RefsDir(), filepath.FromSlash(ref))
}

// SnapshotPath returns "<snapshots_dir>/<commit>/<filename>", preserving
// slashes in filename as nested directories.
func (l *Layout) SnapshotPath(commit, filename string) string {
	return filepath.Join(l.SnapshotsDir(), commit, filepath.FromSlash(filename))
}

// RelativeLinkTarget computes the relative symlink target from
// "snapshots/<commit>/<filename>" back to "blobs/<etag>", per spec §4.2 and
// invariant 5: depth(path-after-commit) + 1 leading "../" segments.
func RelativeLinkTarget(filename, etag string) string {
	// depth = (number of path components in filename) + 1 for the commit
	// directory itself, e.g. "sub/file" (2 components) -> depth 3.
	depth := strings.Count(filepath.ToSlash(filename), "/") + 2
	var b strings.Builder
	for i := 0; i < depth; i++ {
		b.WriteString("../")
	}
	b.WriteString("blobs/")
	b.WriteString(etag)
	return b.String()
}

// NormalizeEtag strips a single leading "W/" weak-validator prefix, then
// all leading and trailing ASCII double quotes. Normalization is
// idempotent: NormalizeEtag(NormalizeEtag(x)) == NormalizeEtag(x) for any x
// that normalizes to non-empty. Returns ErrInvalidEtag if the result would
// be empty or would contain a path separator.
func NormalizeEtag(raw string) (string, error) {
	s := strings.TrimPrefix(raw, "W/")
	s = strings.Trim(s, `"`)
	if s == "" {
		return "", newInvalidEtag(raw)
	}
	if strings.ContainsRune(s, '/') || strings.ContainsRune(s, '\\') {
		return "", newInvalidEtag(raw)
	}
	return s, nil
}
