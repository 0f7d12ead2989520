package store

import (
	"context"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/pheasant/internal/game"
)

func newTable() *game.Table {
	return game.NewTable(game.ProviderFunc(func(context.Context, game.MoveRequest) (game.Move, error) {
		return game.NoMove(), nil
	}), game.WithLogger(zerolog.Nop()))
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	_, err := s.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	tbl := newTable()
	require.NoError(t, s.Save(ctx, tbl))
	got, err := s.Get(ctx, tbl.ID)
	require.NoError(t, err)
	assert.Same(t, tbl, got)
	assert.Equal(t, 1, s.Len())

	require.NoError(t, s.Delete(ctx, tbl.ID))
	require.NoError(t, s.Delete(ctx, tbl.ID))
	_, err = s.Get(ctx, tbl.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 0, s.Len())
}

func TestMemoryStoreConcurrent(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tbl := newTable()
			_ = s.Save(ctx, tbl)
			_, _ = s.Get(ctx, tbl.ID)
		}()
	}
	wg.Wait()
	assert.Equal(t, 20, s.Len())
}
