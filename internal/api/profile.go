package api

import (
	"errors"
	"net/http"

	"github.com/roomsync/roommate-finder/internal/matching"
	"github.com/roomsync/roommate-finder/internal/store"
	"github.com/roomsync/roommate-finder/internal/validation"
)

type profileRequest struct {
	Location    string           `json:"location" validate:"max=200"`
	Budget      string           `json:"budget" validate:"max=100"`
	Lifestyle   string           `json:"lifestyle" validate:"max=200"`
	Smoking     string           `json:"smoking" validate:"max=100"`
	Pets        string           `json:"pets" validate:"max=100"`
	Cleanliness string           `json:"cleanliness" validate:"max=100"`
	Weights     matching.Weights `json:"weights,omitempty"`
}

func getProfileHandler(st Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := st.ProfileByUserID(r.Context(), userIDFrom(r.Context()))
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found")
			return
		} else if err != nil {
			writeInternal(w, r, "db_error", err)
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}

func putProfileHandler(st Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req profileRequest
		if err := decodeJSON(r, &req, true); err != nil {
			if errors.Is(err, errUnknownField) {
				writeError(w, http.StatusBadRequest, "unknown_field")
				return
			}
			writeError(w, http.StatusBadRequest, "invalid_json")
			return
		}
		if err := validation.Struct(req); err != nil {
			writeErrorDetails(w, http.StatusBadRequest, "validation_failed", err)
			return
		}
		if err := req.Weights.Validate(); err != nil {
			writeErrorDetails(w, http.StatusBadRequest, "invalid_weights", err.Error())
			return
		}

		p, err := st.UpsertProfile(r.Context(), store.Profile{
			UserID:      userIDFrom(r.Context()),
			Location:    req.Location,
			Budget:      req.Budget,
			Lifestyle:   req.Lifestyle,
			Smoking:     req.Smoking,
			Pets:        req.Pets,
			Cleanliness: req.Cleanliness,
			Weights:     req.Weights,
		})
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found")
			return
		} else if err != nil {
			writeInternal(w, r, "db_error", err)
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}

func deleteProfileHandler(st Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := st.DeleteProfile(r.Context(), userIDFrom(r.Context()))
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found")
			return
		} else if err != nil {
			writeInternal(w, r, "db_error", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
