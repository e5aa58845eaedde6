// internal/httpserver/respond.go
//
// JSON response and request helpers shared by all routes.
// Errors are always {"error": "<code>", ...}; 5xx are logged.

package httpserver

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/hlog"

	"github.com/robalobadob/hangman/internal/account"
)

// maxBodyBytes bounds every JSON request body (custom words have no length cap).
const maxBodyBytes = 16 << 10

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError sends {"error": code, ...extra}. 5xx responses are logged with the cause.
func writeError(w http.ResponseWriter, r *http.Request, status int, code string, cause error, extra ...any) {
	if status >= 500 {
		hlog.FromRequest(r).Error().Err(cause).Str("code", code).Msg("request failed")
	}
	body := map[string]any{"error": code}
	for i := 0; i+1 < len(extra); i += 2 {
		if k, ok := extra[i].(string); ok {
			body[k] = extra[i+1]
		}
	}
	writeJSON(w, status, body)
}

// writeAccountError maps an account.Error onto a status by its category.
func writeAccountError(w http.ResponseWriter, r *http.Request, err error) {
	var aerr *account.Error
	if !errors.As(err, &aerr) {
		writeError(w, r, http.StatusInternalServerError, "internal", err)
		return
	}
	status := http.StatusBadRequest
	switch aerr.Kind.Category() {
	case account.CategoryConflict:
		status = http.StatusConflict
	case account.CategoryAuth:
		status = http.StatusUnauthorized
	case account.CategoryTransport:
		status = http.StatusServiceUnavailable
	}
	if len(aerr.Unmet) > 0 {
		writeError(w, r, status, string(aerr.Kind), err, "unmet", aerr.Unmet)
		return
	}
	writeError(w, r, status, string(aerr.Kind), err)
}

// decode reads a JSON body into dst and runs struct validation.
// On failure the 400 response has already been written.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, r, http.StatusRequestEntityTooLarge, "body_too_large", err)
			return false
		}
		writeError(w, r, http.StatusBadRequest, "invalid_json", err)
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, strings.ToLower(fe.Field()))
			}
			writeError(w, r, http.StatusBadRequest, "invalid_request", err, "fields", fields)
			return false
		}
		writeError(w, r, http.StatusBadRequest, "invalid_request", err)
		return false
	}
	return true
}
