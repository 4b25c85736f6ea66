package shortlink

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "links.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestCreateAndResolve(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	slug, err := store.Create(ctx, "https://deployed.example.app")
	require.NoError(t, err)
	assert.Len(t, slug, 6, "first candidate uses the starting length")

	destination, err := store.Resolve(ctx, slug)
	require.NoError(t, err)
	assert.Equal(t, "https://deployed.example.app", destination)
}

func TestResolveUnknownSlug(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Resolve(context.Background(), "nope42")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateRetriesWithLongerSlugOnCollision(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	// Deterministic generator: always the same 6-char value, so the second
	// Create collides and must fall through to a 7-char candidate.
	calls := 0
	store.newSlug = func(n int) (string, error) {
		calls++
		if n == 6 {
			return "aaaaaa", nil
		}
		return fmt.Sprintf("%0*d", n, calls), nil
	}

	first, err := store.Create(ctx, "https://one.example.app")
	require.NoError(t, err)
	assert.Equal(t, "aaaaaa", first)

	second, err := store.Create(ctx, "https://two.example.app")
	require.NoError(t, err)
	assert.Len(t, second, 7, "collision retry grows the candidate by one character")

	dest, err := store.Resolve(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, "https://two.example.app", dest)
}

func TestCreateGivesUpAfterRetryBudget(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	// Every candidate collides with a pre-inserted slug.
	store.newSlug = func(n int) (string, error) {
		return fmt.Sprintf("%0*d", n, 0), nil
	}
	for n := initialSlugLength; n < initialSlugLength+maxSlugAttempts; n++ {
		_, err := store.db.ExecContext(ctx,
			`INSERT INTO links (slug, destination, created_at) VALUES (?, ?, CURRENT_TIMESTAMP)`,
			fmt.Sprintf("%0*d", n, 0), "https://taken.example.app")
		require.NoError(t, err)
	}

	_, err := store.Create(ctx, "https://new.example.app")
	assert.ErrorIs(t, err, ErrSlugExhausted)
}

func TestRecordDeployment(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	err := store.RecordDeployment(ctx, "req-1", "abc123", "a tiny site", "https://deployed.example.app")
	require.NoError(t, err)

	var count int
	require.NoError(t, store.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM deployments`))
	assert.Equal(t, 1, count)
}

func TestRandomSlugAlphabetAndLength(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		slug, err := randomSlug(6)
		require.NoError(t, err)
		require.Len(t, slug, 6)
		for _, r := range slug {
			assert.Contains(t, slugAlphabet, string(r))
		}
		seen[slug] = true
	}
	assert.Greater(t, len(seen), 45, "slugs should essentially never repeat")
}

func TestPing(t *testing.T) {
	store := newTestStore(t)
	assert.NoError(t, store.Ping(context.Background()))
}
