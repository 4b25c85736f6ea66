package deploy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai_site_server/internal/content"
)

func TestFingerprintIgnoresPath(t *testing.T) {
	fs := content.FileSet{
		"/index.html": "<p>same bytes</p>",
		"/copy.html":  "<p>same bytes</p>",
	}
	manifest := BuildManifest(fs)
	assert.Equal(t, manifest["/index.html"], manifest["/copy.html"],
		"identical content must fingerprint identically regardless of path")
}

func TestFingerprintDiffersOnSingleByte(t *testing.T) {
	a := Fingerprint("content-a")
	b := Fingerprint("content-b")
	assert.NotEqual(t, a, b)
}

func TestFingerprintIsHexSHA1(t *testing.T) {
	fp := Fingerprint("hello")
	require.Len(t, fp, 40, "160-bit digest hex-encodes to 40 characters")
	// Known SHA-1 of "hello".
	assert.Equal(t, "aaf4c61ddcc5e8a2dabede0f3b482cd9aea9434d", fp)
}

func TestBuildManifestNormalizesPaths(t *testing.T) {
	manifest := BuildManifest(content.FileSet{"index.html": "x"})
	_, ok := manifest["/index.html"]
	assert.True(t, ok, "paths without a leading slash get one in the manifest")
}

func TestBuildManifestIsPure(t *testing.T) {
	fs := content.FileSet{
		"index.html": "<!doctype html>",
		"styles.css": "body{}",
	}
	first := BuildManifest(fs)
	second := BuildManifest(fs)
	assert.Equal(t, first, second)
	assert.Len(t, fs, 2, "input must not be mutated")
}
