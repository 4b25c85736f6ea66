package shortlink

import "errors"

var (
	// ErrNotFound means no link exists for the requested slug.
	ErrNotFound = errors.New("short link not found")
	// ErrSlugExhausted means every candidate slug collided within the retry
	// budget.
	ErrSlugExhausted = errors.New("could not allocate a unique slug")
)
