package repository

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRolloverClaim(t *testing.T) {
	repo := NewRolloverRepository(newTestDB(t), zerolog.Nop())
	ctx := context.Background()

	// First ever claim records the day with no previous.
	previous, crossed, err := repo.Claim(ctx, "2024-01-01")
	require.NoError(t, err)
	assert.True(t, crossed)
	assert.Equal(t, "", previous)

	// Same day again is a no-op.
	_, crossed, err = repo.Claim(ctx, "2024-01-01")
	require.NoError(t, err)
	assert.False(t, crossed)

	// Next day wins exactly once.
	previous, crossed, err = repo.Claim(ctx, "2024-01-02")
	require.NoError(t, err)
	assert.True(t, crossed)
	assert.Equal(t, "2024-01-01", previous)

	_, crossed, err = repo.Claim(ctx, "2024-01-02")
	require.NoError(t, err)
	assert.False(t, crossed)

	// The marker never moves backward.
	_, crossed, err = repo.Claim(ctx, "2023-12-31")
	require.NoError(t, err)
	assert.False(t, crossed)

	last, err := repo.Last(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-02", last)
}
