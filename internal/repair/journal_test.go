package repair

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupJournal(t *testing.T) *Journal {
	t.Helper()

	j, err := Open(filepath.Join(t.TempDir(), "repair.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })
	return j
}

func TestJournalAppendAndList(t *testing.T) {
	j := setupJournal(t)
	ctx := context.Background()

	id, err := j.Append(ctx, "spot", "spot-1", []string{"users/u1/spots/spot-1", "public/spots/spot-1"}, errors.New("store offline"))
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	open, err := j.ListOpen(ctx)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, "spot", open[0].EntityKind)
	assert.Equal(t, "spot-1", open[0].EntityID)
	assert.Equal(t, []string{"users/u1/spots/spot-1", "public/spots/spot-1"}, open[0].RemainingPaths)
	assert.Equal(t, "store offline", open[0].Error)
	assert.Nil(t, open[0].ResolvedAt)
}

func TestJournalMarkResolved(t *testing.T) {
	j := setupJournal(t)
	ctx := context.Background()

	id, err := j.Append(ctx, "knot", "knot-1", []string{"users/u1/knots/knot-1"}, errors.New("batch rejected"))
	require.NoError(t, err)

	require.NoError(t, j.MarkResolved(ctx, id))

	open, err := j.ListOpen(ctx)
	require.NoError(t, err)
	assert.Empty(t, open)

	rec, err := j.Get(ctx, id)
	require.NoError(t, err)
	assert.NotNil(t, rec.ResolvedAt)

	// Resolving twice is an error, not a silent no-op.
	assert.Error(t, j.MarkResolved(ctx, id))
}

func TestJournalGetMissing(t *testing.T) {
	j := setupJournal(t)

	_, err := j.Get(context.Background(), "nope")
	assert.Error(t, err)
}
