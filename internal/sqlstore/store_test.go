package sqlstore

import (
	"context"
	"testing"
	"time"

	"github.com/rpggio/taskboard/internal/seed"
	"github.com/stretchr/testify/require"
)

func TestStore_SeedIfEmptyIsIdempotent(t *testing.T) {
	store := NewStore(NewTestDB(t), nil)
	ctx := context.Background()

	seeded, err := seed.Run(ctx, store, nil)
	require.NoError(t, err)
	require.True(t, seeded)

	seeded, err = seed.Run(ctx, store, nil)
	require.NoError(t, err)
	require.False(t, seeded)

	projects, err := store.Projects().List(ctx)
	require.NoError(t, err)
	require.Len(t, projects, 1)
	require.Equal(t, "Website Redesign", projects[0].Name)
	require.True(t, projects[0].IsMain)
	require.Equal(t, 1, projects[0].TaskCount)
}

func TestStore_SeedSkipsNonEmptyStore(t *testing.T) {
	db := NewTestDB(t)
	store := NewStore(db, nil)
	ctx := context.Background()

	require.NoError(t, store.Projects().Create(ctx, newProject("p1", "Mine", time.Now())))

	seeded, err := seed.Run(ctx, store, nil)
	require.NoError(t, err)
	require.False(t, seeded)

	list, err := store.Projects().List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func TestStore_Ping(t *testing.T) {
	db := NewTestDB(t)
	store := NewStore(db, nil)
	ctx := context.Background()

	require.NoError(t, store.Ping(ctx))
	require.NoError(t, db.Close())
	require.Error(t, store.Ping(ctx))
}
