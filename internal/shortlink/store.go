package shortlink

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"math/big"
	"time"

	"github.com/jmoiron/sqlx"
	sqlite3 "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS links (
	slug        TEXT PRIMARY KEY,
	destination TEXT NOT NULL,
	created_at  TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS deployments (
	id         TEXT PRIMARY KEY,
	slug       TEXT NOT NULL,
	prompt     TEXT NOT NULL,
	deploy_url TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL
);
`

const (
	// initialSlugLength is the starting candidate length; every collision
	// retry grows the candidate by one character.
	initialSlugLength = 6
	// maxSlugAttempts bounds collision retries before giving up.
	maxSlugAttempts = 5

	slugAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// Store persists slug → destination URL mappings plus a deployment history,
// backed by SQLite. Slug uniqueness is enforced by the primary key, so
// concurrent inserts of the same slug cannot both succeed.
type Store struct {
	db *sqlx.DB

	// newSlug is injectable for tests; defaults to randomSlug.
	newSlug func(n int) (string, error)
}

// NewStore opens (creating if needed) the SQLite database at dsn and ensures
// the schema exists.
func NewStore(dsn string) (*Store, error) {
	db, err := sqlx.Open("sqlite3", dsn+"?_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open short-link database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping short-link database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize short-link schema: %w", err)
	}
	return &Store{db: db, newSlug: randomSlug}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

// Ping verifies the store is reachable. Used by the health endpoint.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Create allocates a fresh slug pointing at destination. Candidates start at
// six characters; each uniqueness collision retries with a one-character
// longer candidate, up to the attempt budget.
func (s *Store) Create(ctx context.Context, destination string) (string, error) {
	for attempt := 0; attempt < maxSlugAttempts; attempt++ {
		slug, err := s.newSlug(initialSlugLength + attempt)
		if err != nil {
			return "", err
		}
		_, err = s.db.ExecContext(ctx,
			`INSERT INTO links (slug, destination, created_at) VALUES (?, ?, ?)`,
			slug, destination, time.Now().UTC())
		if err == nil {
			return slug, nil
		}
		if isUniqueViolation(err) {
			log.Printf("Slug %q already taken, retrying with a longer candidate", slug)
			continue
		}
		return "", fmt.Errorf("failed to insert short link: %w", err)
	}
	return "", ErrSlugExhausted
}

// Resolve returns the destination URL for a slug, or ErrNotFound.
func (s *Store) Resolve(ctx context.Context, slug string) (string, error) {
	var destination string
	err := s.db.GetContext(ctx, &destination,
		`SELECT destination FROM links WHERE slug = ?`, slug)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to resolve slug: %w", err)
	}
	return destination, nil
}

// RecordDeployment appends one row of deployment history. Failures here are
// non-fatal to the request; callers log and continue.
func (s *Store) RecordDeployment(ctx context.Context, id, slug, prompt, deployURL string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO deployments (id, slug, prompt, deploy_url, created_at) VALUES (?, ?, ?, ?, ?)`,
		id, slug, prompt, deployURL, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to record deployment: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrConstraint
	}
	return false
}

// randomSlug draws n characters uniformly from the slug alphabet using
// crypto/rand, so slugs are not guessable from prior ones.
func randomSlug(n int) (string, error) {
	out := make([]byte, n)
	max := big.NewInt(int64(len(slugAlphabet)))
	for i := range out {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate slug: %w", err)
		}
		out[i] = slugAlphabet[idx.Int64()]
	}
	return string(out), nil
}
