package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/roomsync/roommate-finder/internal/logging"
)

// --- Response helpers ---
func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}

func writeErrorDetails(w http.ResponseWriter, status int, code string, details any) {
	writeJSON(w, status, map[string]any{"error": code, "details": details})
}

func writeInternal(w http.ResponseWriter, r *http.Request, code string, err error) {
	logging.Ctx(r.Context()).Error().Err(err).Str("code", code).Msg("request failed")
	writeError(w, http.StatusInternalServerError, code)
}

const maxBodyBytes = 1 << 20

var errUnknownField = errors.New("unknown field")

// decodeJSON reads a single JSON object from the request body into dst.
// With strict set, fields not present in dst yield errUnknownField.
func decodeJSON(r *http.Request, dst any, strict bool) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if strict {
		dec.DisallowUnknownFields()
	}
	if err := dec.Decode(dst); err != nil {
		if strings.Contains(err.Error(), "unknown field") {
			return errUnknownField
		}
		return err
	}
	return nil
}

// pathID parses a positive integer URL parameter.
func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
