package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/roomsync/roommate-finder/internal/logging"
	"github.com/roomsync/roommate-finder/internal/store"
)

type meResponse struct {
	ID         int64     `json:"id"`
	Email      string    `json:"email"`
	Username   string    `json:"username"`
	CreatedAt  time.Time `json:"created_at"`
	HasProfile bool      `json:"has_profile"`
}

func meHandler(st Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := userIDFrom(r.Context())
		user, err := st.UserByID(r.Context(), userID)
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found")
			return
		} else if err != nil {
			writeInternal(w, r, "db_error", err)
			return
		}

		_, err = st.ProfileByUserID(r.Context(), userID)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			writeInternal(w, r, "db_error", err)
			return
		}

		writeJSON(w, http.StatusOK, meResponse{
			ID:         user.ID,
			Email:      user.Email,
			Username:   user.Username,
			CreatedAt:  user.CreatedAt,
			HasProfile: err == nil,
		})
	}
}

func deleteMeHandler(st Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := userIDFrom(r.Context())
		err := st.DeleteUser(r.Context(), userID)
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found")
			return
		} else if err != nil {
			writeInternal(w, r, "db_error", err)
			return
		}
		logging.Ctx(r.Context()).Info().Int64("user_id", userID).Msg("account deleted")
		w.WriteHeader(http.StatusNoContent)
	}
}
