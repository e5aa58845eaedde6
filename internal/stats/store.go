// internal/stats/store.go
//
// Word statistics persistence.
// Responsibilities:
//   - Record a finished game: per-user (user, word) win/loss counters and the
//     global per-word tally, in one transaction.
//   - Read a user's per-word stats and totals, and a word's global tally.
//
// played is never stored; it is always won + lost.

package stats

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/robalobadob/hangman/internal/database"
	"github.com/robalobadob/hangman/internal/game"
)

var tracer = otel.Tracer("stats")

// ErrUnknownWord is returned by WordTally for a word nobody has finished yet.
var ErrUnknownWord = errors.New("stats: word has no results")

// WordStat is one user's record for one word.
type WordStat struct {
	Word   string `json:"word" db:"word"`
	Played int    `json:"played" db:"-"`
	Won    int    `json:"won" db:"wins"`
	Lost   int    `json:"lost" db:"losses"`
}

// Totals aggregates a user's WordStats.
type Totals struct {
	Played int `json:"played"`
	Won    int `json:"won"`
	Lost   int `json:"lost"`
}

// Tally is the all-players record for one word.
type Tally struct {
	Word   string `json:"word" db:"word"`
	Played int    `json:"played" db:"times_played"`
	Won    int    `json:"won" db:"times_won"`
	Lost   int    `json:"lost" db:"times_lost"`
}

// Store reads and writes the word_stats and words tables.
type Store struct {
	db *sqlx.DB
}

func NewStore(db *sqlx.DB) *Store { return &Store{db: db} }

var _ game.Reporter = (*Store)(nil)

// RecordOutcome increments exactly one of won/lost for (o.UserID, o.Word) and
// bumps the global tally for o.Word.
func (s *Store) RecordOutcome(ctx context.Context, o game.Outcome) error {
	ctx, span := tracer.Start(ctx, "StatsStore.RecordOutcome")
	defer span.End()
	span.SetAttributes(attribute.String("word", o.Word), attribute.Bool("won", o.Won))

	if o.Word == "" || o.UserID == 0 {
		return fmt.Errorf("stats: incomplete outcome %+v", o)
	}
	won, lost := 0, 1
	if o.Won {
		won, lost = 1, 0
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, tx.Rebind(s.userUpsert()), o.UserID, o.Word, won, lost); err != nil {
		span.RecordError(err)
		return fmt.Errorf("upsert word_stats: %w", err)
	}
	if _, err := tx.ExecContext(ctx, tx.Rebind(s.tallyUpsert()), o.Word, won, lost); err != nil {
		span.RecordError(err)
		return fmt.Errorf("upsert words: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *Store) userUpsert() string {
	if s.db.DriverName() == database.MySQL {
		return `INSERT INTO word_stats (user_id, word, wins, losses) VALUES (?, ?, ?, ?)
			ON DUPLICATE KEY UPDATE wins = wins + VALUES(wins), losses = losses + VALUES(losses)`
	}
	return `INSERT INTO word_stats (user_id, word, wins, losses) VALUES (?, ?, ?, ?)
		ON CONFLICT (user_id, word) DO UPDATE
		SET wins = word_stats.wins + excluded.wins, losses = word_stats.losses + excluded.losses`
}

func (s *Store) tallyUpsert() string {
	if s.db.DriverName() == database.MySQL {
		return `INSERT INTO words (word, times_played, times_won, times_lost) VALUES (?, 1, ?, ?)
			ON DUPLICATE KEY UPDATE times_played = times_played + 1,
				times_won = times_won + VALUES(times_won), times_lost = times_lost + VALUES(times_lost)`
	}
	return `INSERT INTO words (word, times_played, times_won, times_lost) VALUES (?, 1, ?, ?)
		ON CONFLICT (word) DO UPDATE
		SET times_played = words.times_played + 1,
			times_won = words.times_won + excluded.times_won,
			times_lost = words.times_lost + excluded.times_lost`
}

// FetchStats returns every word the user has finished, alphabetically.
func (s *Store) FetchStats(ctx context.Context, userID int64) ([]WordStat, error) {
	ctx, span := tracer.Start(ctx, "StatsStore.FetchStats")
	defer span.End()

	out := []WordStat{}
	err := s.db.SelectContext(ctx, &out,
		s.db.Rebind(`SELECT word, wins, losses FROM word_stats WHERE user_id = ? ORDER BY word`), userID)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("select word_stats: %w", err)
	}
	for i := range out {
		out[i].Played = out[i].Won + out[i].Lost
	}
	return out, nil
}

// Sum totals a slice of WordStats.
func Sum(ws []WordStat) Totals {
	var t Totals
	for _, w := range ws {
		t.Won += w.Won
		t.Lost += w.Lost
	}
	t.Played = t.Won + t.Lost
	return t
}

// WordTally returns the global record for word.
func (s *Store) WordTally(ctx context.Context, word string) (Tally, error) {
	ctx, span := tracer.Start(ctx, "StatsStore.WordTally")
	defer span.End()

	var t Tally
	err := s.db.GetContext(ctx, &t,
		s.db.Rebind(`SELECT word, times_played, times_won, times_lost FROM words WHERE word = ?`), word)
	if errors.Is(err, sql.ErrNoRows) {
		return Tally{}, ErrUnknownWord
	}
	if err != nil {
		return Tally{}, fmt.Errorf("select words: %w", err)
	}
	return t, nil
}
