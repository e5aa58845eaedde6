package stats

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/hangman/internal/database"
	"github.com/robalobadob/hangman/internal/game"
)

func newStore(t *testing.T) (*Store, int64) {
	t.Helper()
	ctx := context.Background()
	db, err := database.Open(ctx, database.SQLite, filepath.Join(t.TempDir(), "stats.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.Migrate(ctx, db))

	res, err := db.ExecContext(ctx, `INSERT INTO users (username, password_hash) VALUES ('ling', 'x')`)
	require.NoError(t, err)
	uid, err := res.LastInsertId()
	require.NoError(t, err)
	return NewStore(db), uid
}

func TestRecordOutcomeCountsOnce(t *testing.T) {
	s, uid := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.RecordOutcome(ctx, game.Outcome{Word: "CAT", Won: true, UserID: uid}))
	require.NoError(t, s.RecordOutcome(ctx, game.Outcome{Word: "CAT", Won: false, UserID: uid}))
	require.NoError(t, s.RecordOutcome(ctx, game.Outcome{Word: "CAT", Won: true, UserID: uid}))
	require.NoError(t, s.RecordOutcome(ctx, game.Outcome{Word: "BANANA", Won: false, UserID: uid}))

	got, err := s.FetchStats(ctx, uid)
	require.NoError(t, err)
	assert.Equal(t, []WordStat{
		{Word: "BANANA", Played: 1, Won: 0, Lost: 1},
		{Word: "CAT", Played: 3, Won: 2, Lost: 1},
	}, got)
	assert.Equal(t, Totals{Played: 4, Won: 2, Lost: 2}, Sum(got))

	tally, err := s.WordTally(ctx, "CAT")
	require.NoError(t, err)
	assert.Equal(t, Tally{Word: "CAT", Played: 3, Won: 2, Lost: 1}, tally)
}

func TestPlayedAlwaysEqualsWonPlusLost(t *testing.T) {
	s, uid := newStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, s.RecordOutcome(ctx, game.Outcome{Word: "OX", Won: i%3 == 0, UserID: uid}))
		}(i)
	}
	wg.Wait()

	got, err := s.FetchStats(ctx, uid)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 20, got[0].Played)
	assert.Equal(t, got[0].Won+got[0].Lost, got[0].Played)
	assert.Equal(t, 7, got[0].Won)

	tally, err := s.WordTally(ctx, "OX")
	require.NoError(t, err)
	assert.Equal(t, tally.Won+tally.Lost, tally.Played)
}

func TestFetchStatsEmpty(t *testing.T) {
	s, uid := newStore(t)
	got, err := s.FetchStats(context.Background(), uid)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NotNil(t, got)
}

func TestWordTallyUnknown(t *testing.T) {
	s, _ := newStore(t)
	_, err := s.WordTally(context.Background(), "NEVER")
	assert.ErrorIs(t, err, ErrUnknownWord)
}

func TestRecordOutcomeRejectsIncomplete(t *testing.T) {
	s, _ := newStore(t)
	assert.Error(t, s.RecordOutcome(context.Background(), game.Outcome{Word: "CAT"}))
}
