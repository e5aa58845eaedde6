// internal/httpserver/routes_stats.go
//
// Statistics endpoints.
//   - GET /stats/me            → caller's per-word stats + totals (requires auth)
//   - GET /stats/words/{word}  → global tally for one word

package httpserver

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/robalobadob/hangman/internal/stats"
)

type statsRes struct {
	Username string           `json:"username"`
	Words    []stats.WordStat `json:"words"`
	Totals   stats.Totals     `json:"totals"`
}

func (s *Server) mountStats() {
	s.r.Route("/stats", func(r chi.Router) {
		r.With(s.requireAuth()).Get("/me", s.handleMyStats)
		r.Get("/words/{word}", s.handleWordTally)
	})
}

func (s *Server) handleMyStats(w http.ResponseWriter, r *http.Request) {
	me := identityFrom(r.Context())
	ws, err := s.deps.Stats.FetchStats(r.Context(), me.UserID)
	if err != nil {
		writeError(w, r, http.StatusServiceUnavailable, "stats_unavailable", err)
		return
	}
	writeJSON(w, http.StatusOK, statsRes{Username: me.Username, Words: ws, Totals: stats.Sum(ws)})
}

func (s *Server) handleWordTally(w http.ResponseWriter, r *http.Request) {
	word := strings.ToUpper(strings.TrimSpace(chi.URLParam(r, "word")))
	t, err := s.deps.Stats.WordTally(r.Context(), word)
	if errors.Is(err, stats.ErrUnknownWord) {
		writeError(w, r, http.StatusNotFound, "unknown_word", nil)
		return
	}
	if err != nil {
		writeError(w, r, http.StatusServiceUnavailable, "stats_unavailable", err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}
