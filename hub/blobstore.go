package hub

import (
	"io"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
)

// BlobStore provides content-addressed storage of file bytes under
// blobs/<normalized-etag>, guaranteeing at-most-one concurrent
// materialization of a given blob across processes (spec §4.4).
type BlobStore struct {
	layout *Layout
}

// NewBlobStore returns a BlobStore backed by layout.
func NewBlobStore(layout *Layout) *BlobStore {
	return &BlobStore{layout: layout}
}

// Has reports whether the blob for rawEtag already exists.
func (b *BlobStore) Has(rawEtag string) (bool, error) {
	path, err := b.layout.BlobPath(rawEtag)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, newFSError("stat blob", err)
}

// withBlobLock acquires the blob's exclusive advisory lock, runs fn, and
// releases the lock on every exit path.
func (b *BlobStore) withBlobLock(rawEtag string, fn func() error) error {
	lockPath, err := b.layout.LockPath(rawEtag)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(lockPath), 0o777); err != nil {
		return newFSError("create blobs directory", err)
	}
	fl := flock.New(lockPath)
	if err := fl.Lock(); err != nil {
		return newFSError("acquire blob lock", err)
	}
	defer fl.Unlock()
	return fn()
}

// MaterializeFromPath installs the file at stagingPath as the blob for
// rawEtag, under the blob's exclusive lock. If the blob already exists,
// staging is discarded instead (spec §4.4, §5 "later arrivals observe the
// installed blob and skip the streaming write").
func (b *BlobStore) MaterializeFromPath(stagingPath, rawEtag string) (string, error) {
	blobPath, err := b.layout.BlobPath(rawEtag)
	if err != nil {
		return "", err
	}
	err = b.withBlobLock(rawEtag, func() error {
		if _, statErr := os.Stat(blobPath); statErr == nil {
			// Someone else already installed this blob; discard ours.
			os.Remove(stagingPath)
			return nil
		}
		if err := os.MkdirAll(filepath.Dir(blobPath), 0o777); err != nil {
			return newFSError("create blobs directory", err)
		}
		if err := os.Rename(stagingPath, blobPath); err != nil {
			// Cross-device rename: fall back to copy+fsync+delete.
			if copyErr := copyThenRemove(stagingPath, blobPath); copyErr != nil {
				return newFSError("install blob", copyErr)
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return blobPath, nil
}

// MaterializeFromBytes writes data through a temp file then atomically
// installs it as the blob for rawEtag, under the same lock as
// MaterializeFromPath.
func (b *BlobStore) MaterializeFromBytes(data []byte, rawEtag string) (string, error) {
	blobPath, err := b.layout.BlobPath(rawEtag)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(blobPath), 0o777); err != nil {
		return "", newFSError("create blobs directory", err)
	}
	tmp := filepath.Join(filepath.Dir(blobPath), "tmp-"+uuid.NewString())
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", newFSError("write temp blob", err)
	}
	path, err := b.MaterializeFromPath(tmp, rawEtag)
	if err != nil {
		os.Remove(tmp)
		return "", err
	}
	return path, nil
}

func copyThenRemove(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Sync(); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Remove(src)
}
