package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/roomsync/roommate-finder/internal/logging"
	"github.com/roomsync/roommate-finder/internal/store"
	"github.com/roomsync/roommate-finder/internal/validation"
)

// targetError maps store errors for user-to-user actions onto responses.
func targetError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, store.ErrSelfReference):
		writeError(w, http.StatusBadRequest, "self_reference")
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found")
	default:
		writeInternal(w, r, "db_error", err)
	}
}

func listBlocksHandler(st Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ids, err := st.BlockedIDs(r.Context(), userIDFrom(r.Context()))
		if err != nil {
			writeInternal(w, r, "db_error", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"blocked": ids})
	}
}

func blockHandler(st Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		targetID, ok := pathID(r, "id")
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_id")
			return
		}
		if err := st.Block(r.Context(), userIDFrom(r.Context()), targetID); err != nil {
			targetError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"blocked": targetID})
	}
}

func unblockHandler(st Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		targetID, ok := pathID(r, "id")
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_id")
			return
		}
		if err := st.Unblock(r.Context(), userIDFrom(r.Context()), targetID); err != nil {
			targetError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

type reportRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

func reportHandler(st Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		targetID, ok := pathID(r, "id")
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_id")
			return
		}
		var req reportRequest
		if err := decodeJSON(r, &req, false); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_json")
			return
		}
		req.Reason = strings.TrimSpace(req.Reason)
		if err := validation.Struct(req); err != nil {
			writeErrorDetails(w, http.StatusBadRequest, "validation_failed", err)
			return
		}

		reporterID := userIDFrom(r.Context())
		report, err := st.CreateReport(r.Context(), reporterID, targetID, req.Reason)
		if err != nil {
			targetError(w, r, err)
			return
		}
		logging.Ctx(r.Context()).Warn().
			Int64("reporter_id", reporterID).
			Int64("reported_user_id", targetID).
			Msg("user reported")
		writeJSON(w, http.StatusCreated, report)
	}
}

type matchResponse struct {
	Matched     bool        `json:"matched"`
	Match       store.Match `json:"match"`
	DeleteAfter time.Time   `json:"delete_after"`
}

// matchHandler records a match. Both profiles are retired once the
// retention window has passed.
func matchHandler(st Store, retention time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		targetID, ok := pathID(r, "id")
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_id")
			return
		}
		m, err := st.RecordMatch(r.Context(), userIDFrom(r.Context()), targetID)
		if err != nil {
			targetError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, matchResponse{
			Matched:     true,
			Match:       m,
			DeleteAfter: m.CreatedAt.Add(retention),
		})
	}
}

type matchListEntry struct {
	store.Match
	DeleteAfter time.Time `json:"delete_after"`
}

// listMatchesHandler lists the caller's matches in either direction with the
// time their profiles become eligible for purging.
func listMatchesHandler(st Store, retention time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		matches, err := st.MatchesFor(r.Context(), userIDFrom(r.Context()))
		if err != nil {
			writeInternal(w, r, "db_error", err)
			return
		}
		out := make([]matchListEntry, 0, len(matches))
		for _, m := range matches {
			out = append(out, matchListEntry{Match: m, DeleteAfter: m.CreatedAt.Add(retention)})
		}
		writeJSON(w, http.StatusOK, map[string]any{"matches": out})
	}
}
