package web

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/cockroachdb/errors"

	"github.com/example/teetime-scheduler/internal/auth"
	"github.com/example/teetime-scheduler/internal/db"
	"github.com/example/teetime-scheduler/internal/domain/teetime"
	"github.com/example/teetime-scheduler/internal/platform/validation"
)

const maxBody = 1 << 20

type envelope map[string]any

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeOK(w http.ResponseWriter, status int, payload envelope) {
	if payload == nil {
		payload = envelope{}
	}
	payload["success"] = true
	writeJSON(w, status, payload)
}

func writeErrors(w http.ResponseWriter, status int, msgs ...string) {
	writeJSON(w, status, envelope{"success": false, "errors": msgs})
}

// writeError maps the error taxonomy onto HTTP statuses. Anything
// unrecognised is logged and reported as a 500 without detail.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verrs validation.Errors
	switch {
	case errors.As(err, &verrs):
		writeErrors(w, http.StatusBadRequest, verrs.Messages()...)
	case db.IsNotFound(err):
		writeErrors(w, http.StatusNotFound, "not found")
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeErrors(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, teetime.ErrBusy):
		writeErrors(w, http.StatusConflict, teetime.ErrBusy.Error())
	case errors.Is(err, teetime.ErrConfiguration),
		errors.Is(err, teetime.ErrUnknownPlayer),
		errors.Is(err, teetime.ErrInsufficientPlayers):
		writeErrors(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, teetime.ErrProbe):
		writeErrors(w, http.StatusBadGateway, err.Error())
	default:
		s.Log.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeErrors(w, http.StatusInternalServerError, "internal error")
	}
}

// decode reads a JSON body into dst, answering 400 itself on failure.
func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			writeErrors(w, http.StatusBadRequest, "request body is required")
			return false
		}
		writeErrors(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}
