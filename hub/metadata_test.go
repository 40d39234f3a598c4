package hub

import (
	"net/http"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func ptr[T any](v T) *T { return &v }

func TestFileRecordFromHeadersMissing(t *testing.T) {
	rec := fileRecordFromHeaders(http.StatusNotFound, http.Header{})
	assert.False(t, rec.Exists)
}

func TestFileRecordFromHeadersFullGet(t *testing.T) {
	h := http.Header{}
	h.Set("Content-Length", "1024")
	h.Set("ETag", `"abc"`)
	h.Set("X-Repo-Commit", "deadbeef")
	rec := fileRecordFromHeaders(http.StatusOK, h)
	assert.True(t, rec.Exists)
	require := assert.New(t)
	require.NotNil(rec.Size)
	require.Equal(int64(1024), *rec.Size)
	require.Equal(`"abc"`, *rec.Etag)
	require.Equal("deadbeef", *rec.Revision)
	require.False(rec.IsLFS)
}

// TestFileRecordFromHeadersRangedProbe verifies the total size comes from
// Content-Range, not the 1-byte Content-Length of a "bytes=0-0" probe.
func TestFileRecordFromHeadersRangedProbe(t *testing.T) {
	h := http.Header{}
	h.Set("Content-Length", "1")
	h.Set("Content-Range", "bytes 0-0/123456")
	h.Set("ETag", `"abc"`)
	rec := fileRecordFromHeaders(http.StatusPartialContent, h)
	assert.True(t, rec.Exists)
	require := assert.New(t)
	require.NotNil(rec.Size)
	require.Equal(int64(123456), *rec.Size)
}

// TestFileRecordFromHeadersBareRangedProbeSizeUnknown verifies that a 206
// probe response with no Content-Range (the download engine's own
// "bytes=0-0" probe, per spec §8) leaves Size unset rather than falling
// back to its 1-byte Content-Length.
func TestFileRecordFromHeadersBareRangedProbeSizeUnknown(t *testing.T) {
	h := http.Header{}
	h.Set("Content-Length", "1")
	h.Set("ETag", `"abc"`)
	rec := fileRecordFromHeaders(http.StatusPartialContent, h)
	assert.True(t, rec.Exists)
	assert.Nil(t, rec.Size)
}

func TestFileRecordFromHeadersLFSDetection(t *testing.T) {
	h := http.Header{}
	h.Set("X-Linked-Size", "999")
	rec := fileRecordFromHeaders(http.StatusOK, h)
	assert.True(t, rec.IsLFS)

	h2 := http.Header{}
	h2.Set("Link", `<https://cdn.example/blob>; rel="lfs-storage-download"`)
	rec2 := fileRecordFromHeaders(http.StatusOK, h2)
	assert.True(t, rec2.IsLFS)
}

func TestFileRecordFromHeadersFullGetExactShape(t *testing.T) {
	h := http.Header{}
	h.Set("Content-Length", "1024")
	h.Set("ETag", `"abc"`)
	h.Set("X-Repo-Commit", "deadbeef")

	want := FileRecord{
		Exists:   true,
		Size:     ptr(int64(1024)),
		Etag:     ptr(`"abc"`),
		Revision: ptr("deadbeef"),
		IsLFS:    false,
	}
	got := fileRecordFromHeaders(http.StatusOK, h)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("fileRecordFromHeaders() mismatch (-want +got):\n%s", diff)
	}
}

func TestNextPageURL(t *testing.T) {
	next, ok := NextPageURL(`<https://hub/page2>; rel="next"`)
	assert.True(t, ok)
	assert.Equal(t, "https://hub/page2", next)

	_, ok = NextPageURL(`<https://hub/page1>; rel="prev"`)
	assert.False(t, ok)

	next, ok = NextPageURL(`<https://hub/page1>; rel="prev", <https://hub/page3>; rel="next"`)
	assert.True(t, ok)
	assert.Equal(t, "https://hub/page3", next)

	_, ok = NextPageURL("")
	assert.False(t, ok)
}
