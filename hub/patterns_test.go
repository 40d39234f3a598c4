package hub

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterByGlobsEmptyKeepsAll(t *testing.T) {
	files := []string{"a.json", "b.bin", "sub/c.txt"}
	assert.Equal(t, files, FilterByGlobs(files, nil))
}

func TestFilterByGlobsWholePathMatch(t *testing.T) {
	files := []string{"config.json", "unet/model.safetensors", "vae/model.safetensors"}
	got := FilterByGlobs(files, []string{"*.json"})
	assert.Equal(t, []string{"config.json"}, got)
}

func TestFilterByGlobsDoesNotTreatSlashAsWildcardBoundaryOnly(t *testing.T) {
	// "*" in path.Match does not cross "/" boundaries, so a pattern with
	// no "/" never matches a nested path.
	files := []string{"unet/model.safetensors"}
	got := FilterByGlobs(files, []string{"*.safetensors"})
	assert.Empty(t, got)

	got = FilterByGlobs(files, []string{"unet/*.safetensors"})
	assert.Equal(t, files, got)
}

func TestFilterByGlobsMultiplePatternsAreOred(t *testing.T) {
	files := []string{"a.json", "b.bin", "c.txt"}
	got := FilterByGlobs(files, []string{"*.json", "*.bin"})
	assert.ElementsMatch(t, []string{"a.json", "b.bin"}, got)
}
