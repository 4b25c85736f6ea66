package content

import (
	"sort"
	"strings"
)

// EntryDocument is the logical path every generated site must serve from.
const EntryDocument = "/index.html"

// FileSet maps a logical path (normalized to begin with "/") to UTF-8 text
// content. It is the unit handed from the generator to the deployer.
type FileSet map[string]string

// NormalizePath ensures a logical path begins with a single "/".
func NormalizePath(path string) string {
	if strings.HasPrefix(path, "/") {
		return path
	}
	return "/" + path
}

// Normalized returns a copy of the set with every path normalized.
// Later entries win if two raw paths normalize to the same logical path.
func (fs FileSet) Normalized() FileSet {
	out := make(FileSet, len(fs))
	for path, body := range fs {
		out[NormalizePath(path)] = body
	}
	return out
}

// SortedPaths returns the normalized paths in lexical order, so callers that
// need a deterministic iteration order have one.
func (fs FileSet) SortedPaths() []string {
	paths := make([]string, 0, len(fs))
	for path := range fs {
		paths = append(paths, NormalizePath(path))
	}
	sort.Strings(paths)
	return paths
}

// TotalBytes sums the UTF-8 byte length of every file in the set.
func (fs FileSet) TotalBytes() int {
	total := 0
	for _, body := range fs {
		total += len(body)
	}
	return total
}
