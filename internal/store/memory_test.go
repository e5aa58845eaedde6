package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/hangman/internal/game"
)

// runStoreContract exercises behaviour every Store must share.
func runStoreContract(t *testing.T, s Store) {
	ctx := context.Background()

	t.Run("get missing", func(t *testing.T) {
		_, err := s.Get(ctx, "nope")
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = s.Update(ctx, "nope", func(*game.Game) error { return nil })
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("create get update", func(t *testing.T) {
		g := game.New("CAT", game.Options{UserID: 1})
		require.NoError(t, s.Create(ctx, g))

		got, err := s.Get(ctx, g.ID)
		require.NoError(t, err)
		assert.Equal(t, "CAT", got.Word)

		// Mutating a returned copy does not touch the stored game.
		got.Guessed = "XYZ"
		again, err := s.Get(ctx, g.ID)
		require.NoError(t, err)
		assert.Empty(t, again.Guessed)

		updated, err := s.Update(ctx, g.ID, func(g *game.Game) error {
			_, err := g.Guess("c")
			return err
		})
		require.NoError(t, err)
		assert.Equal(t, "C", updated.Guessed)
	})

	t.Run("failed update writes nothing", func(t *testing.T) {
		g := game.New("DOG", game.Options{UserID: 2})
		require.NoError(t, s.Create(ctx, g))
		boom := errors.New("boom")
		_, err := s.Update(ctx, g.ID, func(g *game.Game) error {
			g.Guessed = "Q"
			return boom
		})
		assert.ErrorIs(t, err, boom)
		got, err := s.Get(ctx, g.ID)
		require.NoError(t, err)
		assert.Empty(t, got.Guessed)
	})

	t.Run("new game replaces previous", func(t *testing.T) {
		first := game.New("ONE", game.Options{UserID: 3})
		second := game.New("TWO", game.Options{UserID: 3})
		require.NoError(t, s.Create(ctx, first))
		require.NoError(t, s.Create(ctx, second))
		_, err := s.Get(ctx, first.ID)
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = s.Get(ctx, second.ID)
		assert.NoError(t, err)
	})

	t.Run("discard", func(t *testing.T) {
		g := game.New("EEL", game.Options{UserID: 4})
		require.NoError(t, s.Create(ctx, g))
		id, err := s.Active(ctx, 4)
		require.NoError(t, err)
		assert.Equal(t, g.ID, id)

		require.NoError(t, s.Discard(ctx, 4))
		_, err = s.Active(ctx, 4)
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = s.Get(ctx, g.ID)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.NoError(t, s.Discard(ctx, 4))
	})

	t.Run("discard after updates", func(t *testing.T) {
		g := game.New("FOX", game.Options{UserID: 6})
		require.NoError(t, s.Create(ctx, g))
		for _, l := range []string{"f", "z"} {
			_, err := s.Update(ctx, g.ID, func(g *game.Game) error {
				_, err := g.Guess(l)
				return err
			})
			require.NoError(t, err)
		}
		require.NoError(t, s.Discard(ctx, 6))
		_, err := s.Get(ctx, g.ID)
		assert.ErrorIs(t, err, ErrNotFound)

		// A later game still replaces an updated one.
		first := game.New("ONE", game.Options{UserID: 7})
		require.NoError(t, s.Create(ctx, first))
		_, err = s.Update(ctx, first.ID, func(g *game.Game) error {
			_, err := g.Guess("o")
			return err
		})
		require.NoError(t, err)
		require.NoError(t, s.Create(ctx, game.New("TWO", game.Options{UserID: 7})))
		_, err = s.Get(ctx, first.ID)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("concurrent updates take outcome once", func(t *testing.T) {
		g := game.New("A", game.Options{UserID: 5})
		require.NoError(t, s.Create(ctx, g))

		var mu sync.Mutex
		outcomes := 0
		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				var took bool
				_, err := s.Update(ctx, g.ID, func(g *game.Game) error {
					took = false
					if !g.State.Terminal() {
						if _, err := g.Guess("A"); err != nil {
							return err
						}
					}
					_, took = g.TakeOutcome()
					return nil
				})
				if err == nil && took {
					mu.Lock()
					outcomes++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()
		assert.Equal(t, 1, outcomes)
	})
}

func TestMemoryStore(t *testing.T) {
	t.Run("ttl", func(t *testing.T) { runStoreContract(t, NewMemoryStore(time.Hour)) })
	t.Run("no ttl", func(t *testing.T) { runStoreContract(t, NewMemoryStore(0)) })
}

func TestMemoryStoreExpiry(t *testing.T) {
	s := NewMemoryStore(time.Minute).(*memory)
	now := time.Now()
	s.now = func() time.Time { return now }

	g := game.New("CAT", game.Options{UserID: 1})
	require.NoError(t, s.Create(context.Background(), g))

	now = now.Add(2 * time.Minute)
	_, err := s.Get(context.Background(), g.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, s.owners)
}
