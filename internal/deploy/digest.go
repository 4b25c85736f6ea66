package deploy

import (
	"crypto/sha1"
	"encoding/hex"

	"ai_site_server/internal/content"
)

// Manifest maps each normalized logical path to the hex-encoded fingerprint
// of its content. It is the body submitted when opening a deployment.
type Manifest map[string]string

// Fingerprint returns the content-addressed fingerprint of a file body: the
// hex SHA-1 of its exact bytes. Identical bytes always produce identical
// fingerprints regardless of path, which is what lets the provider skip
// files it has already stored.
func Fingerprint(body string) string {
	sum := sha1.Sum([]byte(body))
	return hex.EncodeToString(sum[:])
}

// BuildManifest computes the deployment manifest for a file set. Pure and
// deterministic: the same file set always yields the same manifest. No
// network I/O happens here.
func BuildManifest(fs content.FileSet) Manifest {
	manifest := make(Manifest, len(fs))
	for path, body := range fs {
		manifest[content.NormalizePath(path)] = Fingerprint(body)
	}
	return manifest
}
