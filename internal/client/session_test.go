package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/robalobadob/hangman/internal/account"
	"github.com/robalobadob/hangman/internal/config"
	"github.com/robalobadob/hangman/internal/credentials"
	"github.com/robalobadob/hangman/internal/database"
	"github.com/robalobadob/hangman/internal/game"
	"github.com/robalobadob/hangman/internal/httpserver"
	"github.com/robalobadob/hangman/internal/stats"
	"github.com/robalobadob/hangman/internal/store"
	"github.com/robalobadob/hangman/internal/words"
)

const pw = "Abc12345!"

// realServer runs the full API on a temp SQLite database with a one-word list.
func realServer(t *testing.T) *httptest.Server {
	t.Helper()
	ctx := context.Background()
	db, err := database.Open(ctx, database.SQLite, filepath.Join(t.TempDir(), "client.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.Migrate(ctx, db))

	srv := httpserver.New(config.Config{
		JWTSecret:      "test-secret",
		JWTExpiresDays: 1,
		CookieName:     "hangman_token",
		ClientOrigin:   "http://localhost",
		RequestTimeout: 5 * time.Second,
	}, httpserver.Deps{
		Accounts: account.NewService(credentials.NewStore(db), account.WithBcryptCost(bcrypt.MinCost)),
		Games:    store.NewMemoryStore(time.Hour),
		Words:    words.NewSource([]string{"cat"}, []string{"lighthouse"}),
		Stats:    stats.NewStore(db),
	})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func TestRegistrationThroughSession(t *testing.T) {
	ts := realServer(t)
	ctx := context.Background()
	s := New(ts.URL).NewSession()

	reg := account.NewRegistration()
	require.NoError(t, reg.SubmitUsername(ctx, s, "ling"))
	ident, err := reg.SubmitPassword(ctx, s, pw, pw)
	require.NoError(t, err)
	assert.Equal(t, account.StepAuthenticated, reg.Step())
	assert.Equal(t, "ling", ident.Username)

	got, ok := s.Identity()
	require.True(t, ok)
	assert.Equal(t, ident, got)

	// The name is now taken for a second session.
	other := New(ts.URL).NewSession()
	reg2 := account.NewRegistration()
	err = reg2.SubmitUsername(ctx, other, "ling")
	assert.ErrorIs(t, err, account.ErrUsernameTaken)
	assert.Equal(t, account.StepCollectingUsername, reg2.Step())
}

func TestPlayAndStatsThroughSession(t *testing.T) {
	ts := realServer(t)
	ctx := context.Background()
	c := New(ts.URL)
	require.NoError(t, c.Ping(ctx))
	s := c.NewSession()

	_, err := s.Register(ctx, "player", pw, pw)
	require.NoError(t, err)

	v, err := s.NewGame(ctx, NewGame{Difficulty: "medium"})
	require.NoError(t, err)
	assert.Equal(t, "___", v.Masked)

	for _, l := range []string{"c", "a", "t"} {
		_, err := s.Guess(ctx, l)
		require.NoError(t, err)
	}
	cur, ok := s.Game()
	require.True(t, ok)
	assert.Equal(t, game.StateWon, cur.State)
	assert.Equal(t, "CAT", cur.Word)

	_, err = s.Guess(ctx, "x")
	assert.ErrorIs(t, err, game.ErrGameOver)

	// Custom games never reach the stats.
	_, err = s.NewGame(ctx, NewGame{Custom: "new york"})
	require.NoError(t, err)
	_, err = s.Forfeit(ctx)
	require.NoError(t, err)

	st, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, []stats.WordStat{{Word: "CAT", Played: 1, Won: 1}}, st.Words)

	tally, err := c.WordTally(ctx, "cat")
	require.NoError(t, err)
	assert.Equal(t, 1, tally.Played)

	require.NoError(t, s.Logout(ctx))
	_, ok = s.Identity()
	assert.False(t, ok)
	_, err = s.NewGame(ctx, NewGame{})
	assert.ErrorIs(t, err, ErrNotAuthenticated)
}

func TestLoginErrors(t *testing.T) {
	ts := realServer(t)
	ctx := context.Background()
	s := New(ts.URL).NewSession()

	_, err := s.Login(ctx, "", pw)
	assert.ErrorIs(t, err, account.ErrBlankFields)

	_, err = s.Login(ctx, "nobody", pw)
	assert.ErrorIs(t, err, account.ErrInvalidCredentials)
	assert.Equal(t, account.CategoryAuth, account.KindOf(err).Category())
}

func TestLocalValidationNeverCallsServer(t *testing.T) {
	var hits atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(ts.Close)
	s := New(ts.URL).NewSession()
	ctx := context.Background()

	assert.ErrorIs(t, s.CheckUsername(ctx, ""), account.ErrBlankUsername)
	_, err := s.Register(ctx, "ling", "abc", "abc")
	assert.Equal(t, account.KindPasswordPolicy, account.KindOf(err))
	_, err = s.Register(ctx, "ling", pw, "different")
	assert.ErrorIs(t, err, account.ErrPasswordMismatch)
	assert.Zero(t, hits.Load())
}

// blockingServer answers /game/{id}/guess only once release is closed.
func blockingServer(t *testing.T) (*httptest.Server, chan struct{}, chan struct{}) {
	t.Helper()
	arrived := make(chan struct{}, 8)
	release := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		arrived <- struct{}{}
		select {
		case <-release:
		case <-r.Context().Done():
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"result":{"letter":"C","correct":true,"remaining":2,"state":"playing"},"game":{"id":"g1","masked":"C__","state":"playing"}}`))
	}))
	t.Cleanup(ts.Close)
	var once sync.Once
	t.Cleanup(func() { once.Do(func() { close(release) }) })
	return ts, arrived, release
}

func signedIn(c *Client) *Session {
	s := c.NewSession()
	s.identity = &account.Identity{UserID: 1, Username: "ling"}
	s.token = "tok"
	s.game = &GameView{ID: "g1", Masked: "___", State: game.StatePlaying}
	return s
}

func TestDuplicateInFlightGuessIsBusy(t *testing.T) {
	ts, arrived, release := blockingServer(t)
	s := signedIn(New(ts.URL))
	ctx := context.Background()

	errc := make(chan error, 1)
	go func() {
		_, err := s.Guess(ctx, "c")
		errc <- err
	}()
	<-arrived

	_, err := s.Guess(ctx, "c")
	assert.ErrorIs(t, err, ErrBusy)
	_, err = s.Forfeit(ctx)
	assert.ErrorIs(t, err, ErrBusy, "all game requests share one lane")

	// Account requests run on their own lane.
	_, _, done, err := s.begin(ctx, laneAccount)
	require.NoError(t, err)
	done()

	close(release)
	require.NoError(t, <-errc)
	g, _ := s.Game()
	assert.Equal(t, "C__", g.Masked)
}

func TestAbandonDiscardsLateResponse(t *testing.T) {
	ts, arrived, _ := blockingServer(t)
	s := signedIn(New(ts.URL))

	errc := make(chan error, 1)
	go func() {
		_, err := s.Guess(context.Background(), "c")
		errc <- err
	}()
	<-arrived
	s.Abandon()

	assert.ErrorIs(t, <-errc, ErrStale)
	_, ok := s.Game()
	assert.False(t, ok, "a stale response must not restore the game")

	// The lane is free again straight away.
	_, err := s.Guess(context.Background(), "c")
	assert.ErrorIs(t, err, ErrNoGame)
}

func TestLoginDiscardsGameFromPreviousSignIn(t *testing.T) {
	arrived := make(chan struct{}, 1)
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == "/auth/login" {
			_, _ = w.Write([]byte(`{"id":2,"username":"ling","token":"tok2"}`))
			return
		}
		arrived <- struct{}{}
		select {
		case <-release:
		case <-r.Context().Done():
			return
		}
		_, _ = w.Write([]byte(`{"id":"g1","masked":"___","state":"playing"}`))
	}))
	t.Cleanup(ts.Close)
	s := signedIn(New(ts.URL))

	errc := make(chan error, 1)
	go func() {
		_, err := s.Refresh(context.Background())
		errc <- err
	}()
	<-arrived

	ident, err := s.Login(context.Background(), "ling", pw)
	require.NoError(t, err)
	assert.Equal(t, int64(2), ident.UserID)

	assert.ErrorIs(t, <-errc, ErrStale)
	_, ok := s.Game()
	assert.False(t, ok, "the old game must not come back after signing in again")
}

func TestLogoutDiscardsInFlightLogin(t *testing.T) {
	arrived := make(chan struct{}, 1)
	release := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/auth/login" {
			arrived <- struct{}{}
			<-release
			_, _ = w.Write([]byte(`{"id":1,"username":"ling","token":"tok"}`))
			return
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	t.Cleanup(ts.Close)
	t.Cleanup(func() { close(release) })

	s := New(ts.URL).NewSession()
	errc := make(chan error, 1)
	go func() {
		_, err := s.Login(context.Background(), "ling", pw)
		errc <- err
	}()
	<-arrived
	require.NoError(t, s.Logout(context.Background()))

	err := <-errc
	assert.True(t, errors.Is(err, ErrStale))
	_, ok := s.Identity()
	assert.False(t, ok)
}

func TestTimeoutIsTransportError(t *testing.T) {
	ts, arrived, _ := blockingServer(t)
	s := signedIn(New(ts.URL, WithTimeout(50*time.Millisecond)))

	errc := make(chan error, 1)
	go func() {
		_, err := s.Guess(context.Background(), "c")
		errc <- err
	}()
	<-arrived
	err := <-errc
	assert.Equal(t, account.KindTransport, account.KindOf(err))
	assert.Equal(t, account.CategoryTransport, account.KindOf(err).Category())

	// Game state untouched, lane released.
	g, ok := s.Game()
	require.True(t, ok)
	assert.Equal(t, "___", g.Masked)
}

func TestAPIErrorMapping(t *testing.T) {
	e := &APIError{Status: http.StatusServiceUnavailable, Code: "no_valid_word"}
	assert.ErrorIs(t, e, words.ErrNoValidWord)
	assert.NotErrorIs(t, e, game.ErrGameOver)

	wrapped := accountErr(&APIError{Status: http.StatusBadRequest, Code: "password_policy", Unmet: []account.Requirement{account.RequireDigit}})
	var aerr *account.Error
	require.ErrorAs(t, wrapped, &aerr)
	assert.Equal(t, []account.Requirement{account.RequireDigit}, aerr.Unmet)

	other := &APIError{Status: http.StatusNotFound, Code: "game_not_found"}
	assert.Same(t, other, accountErr(other))
}
