package content

import (
	"fmt"
	"path"
	"regexp"
	"strings"
)

// MaxBundleBytes caps the summed UTF-8 size of a generated bundle.
const MaxBundleBytes = 200 * 1024

// ValidationError reports why a generated file set was rejected. All
// violations surface as this single error class; the Reason is for logs and
// user-facing remediation hints, not for programmatic branching.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid generated content: " + e.Reason
}

var (
	doctypeRe  = regexp.MustCompile(`(?i)<!doctype\s+html`)
	titleRe    = regexp.MustCompile(`(?i)<title[\s>]`)
	titleEndRe = regexp.MustCompile(`(?i)</title>`)
	viewportRe = regexp.MustCompile(`(?i)<meta[^>]+name\s*=\s*["']?viewport`)
	// href/src attributes pointing at absolute http(s) URLs break the
	// self-contained bundle guarantee.
	externalRefRe = regexp.MustCompile(`(?i)(?:href|src)\s*=\s*["']?https?://`)
	// Call-like dynamic code execution primitives. Matched textually, never
	// executed.
	forbiddenRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\beval\s*\(`),
		regexp.MustCompile(`(?i)\bnew\s+Function\s*\(`),
		regexp.MustCompile(`(?i)\bdocument\.write(?:ln)?\s*\(`),
	}
)

// Validate enforces the generated-content policy on a file set. It never
// mutates its input and fails fast on the first violation, checking in a
// fixed order so the reported reason is reproducible for identical input.
func Validate(fs FileSet) error {
	files := fs.Normalized()

	// 1. The entry document must exist.
	entry, ok := files[EntryDocument]
	if !ok {
		return &ValidationError{Reason: fmt.Sprintf("missing entry document %s", EntryDocument)}
	}

	// 2. HTML5 doctype.
	if !doctypeRe.MatchString(entry) {
		return &ValidationError{Reason: "entry document is missing an HTML5 doctype declaration"}
	}

	// 3. Opening and closing title element.
	if !titleRe.MatchString(entry) || !titleEndRe.MatchString(entry) {
		return &ValidationError{Reason: "entry document is missing a <title> element"}
	}

	// 4. Viewport meta declaration.
	if !viewportRe.MatchString(entry) {
		return &ValidationError{Reason: "entry document is missing a viewport meta tag"}
	}

	// 5. The bundle must be fully self-contained: no absolute http(s)
	// references anywhere.
	for _, p := range files.SortedPaths() {
		if externalRefRe.MatchString(files[p]) {
			return &ValidationError{Reason: fmt.Sprintf("file %s references an external http(s) URL; the site must be self-contained", p)}
		}
	}

	// 6. Auxiliary stylesheet/script files must actually be referenced by
	// the entry document.
	for _, p := range files.SortedPaths() {
		ext := strings.ToLower(path.Ext(p))
		if ext != ".css" && ext != ".js" {
			continue
		}
		name := path.Base(p)
		if !strings.Contains(entry, name) {
			return &ValidationError{Reason: fmt.Sprintf("entry document does not reference auxiliary file %s", name)}
		}
	}

	// 7. Total bundle size cap.
	if total := files.TotalBytes(); total > MaxBundleBytes {
		return &ValidationError{Reason: fmt.Sprintf("bundle is %d bytes, exceeding the %d byte limit", total, MaxBundleBytes)}
	}

	// 8. No dynamic code execution primitives in any file.
	for _, p := range files.SortedPaths() {
		for _, re := range forbiddenRes {
			if re.MatchString(files[p]) {
				return &ValidationError{Reason: fmt.Sprintf("file %s contains a forbidden construct (%s)", p, re.String())}
			}
		}
	}

	return nil
}
