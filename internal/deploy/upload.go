package deploy

import (
	"context"
	"log"

	"ai_site_server/internal/content"
)

// uploadRequired resolves every fingerprint the provider asked for to a file
// in the set and transmits it, in the order the provider listed them. It
// fails on the first unresolvable fingerprint or failed transmission; retry
// policy, if any, belongs to the caller and means restarting the whole
// deployment.
func (c *Client) uploadRequired(ctx context.Context, deployID string, required []string, fs content.FileSet) error {
	if len(required) == 0 {
		// Full cache hit: every file is already stored provider-side.
		return nil
	}

	// Fingerprint → path resolution over sorted paths, so duplicate content
	// resolves to the same path on every run. Content-identical files are
	// interchangeable, any one of them satisfies the fingerprint.
	byFingerprint := make(map[string]string, len(fs))
	files := fs.Normalized()
	for _, path := range files.SortedPaths() {
		fp := Fingerprint(files[path])
		if _, ok := byFingerprint[fp]; !ok {
			byFingerprint[fp] = path
		}
	}

	for _, fp := range required {
		path, ok := byFingerprint[fp]
		if !ok {
			return newError(CodeUploadFailed, "provider requires fingerprint %s but no file in the set has it", fp)
		}
		log.Printf("Uploading %s (%s) to deployment %s", path, fp, deployID)
		if err := c.UploadFile(ctx, deployID, path, files[path]); err != nil {
			return err
		}
	}
	return nil
}
