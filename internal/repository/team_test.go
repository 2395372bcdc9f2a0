package repository

import (
	"context"
	"errors"
	"quest-tracker/internal/domain"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTeamCreateDuplicate(t *testing.T) {
	repo := NewTeamRepository(newTestDB(t), zerolog.Nop())
	ctx := context.Background()

	_, err := repo.Create(ctx, "Alpha", 2)
	require.NoError(t, err)

	_, err = repo.Create(ctx, "Alpha", 2)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrConflict))
}

func TestTeamRename(t *testing.T) {
	repo := NewTeamRepository(newTestDB(t), zerolog.Nop())
	ctx := context.Background()

	_, err := repo.Create(ctx, "Alpha", 2)
	require.NoError(t, err)
	_, err = repo.Create(ctx, "Bravo", 2)
	require.NoError(t, err)

	require.NoError(t, repo.Rename(ctx, "Alpha", "Apex"))

	team, err := repo.GetByName(ctx, "Apex")
	require.NoError(t, err)
	assert.Equal(t, 2, team.Lives)

	err = repo.Rename(ctx, "Missing", "X")
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	err = repo.Rename(ctx, "Apex", "Bravo")
	assert.True(t, errors.Is(err, domain.ErrConflict))
}

func TestPlayerUniqueRSN(t *testing.T) {
	db := newTestDB(t)
	teams := NewTeamRepository(db, zerolog.Nop())
	players := NewPlayerRepository(db, zerolog.Nop())
	ctx := context.Background()

	team, err := teams.Create(ctx, "Alpha", 2)
	require.NoError(t, err)

	_, err = players.Create(ctx, "Zez", team.ID)
	require.NoError(t, err)

	_, err = players.Create(ctx, "Zez", team.ID)
	assert.True(t, errors.Is(err, domain.ErrConflict))

	require.NoError(t, players.ChangeRSN(ctx, "Zez", "Kex"))
	err = players.ChangeRSN(ctx, "Zez", "Other")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}
