package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/roomsync/roommate-finder/internal/logging"
	"github.com/roomsync/roommate-finder/internal/matching"
	"github.com/roomsync/roommate-finder/internal/metrics"
	"github.com/roomsync/roommate-finder/internal/store"
)

type candidateResponse struct {
	UserID          int64   `json:"user_id"`
	Username        string  `json:"username"`
	Location        string  `json:"location"`
	Budget          string  `json:"budget"`
	Lifestyle       string  `json:"lifestyle"`
	Smoking         string  `json:"smoking,omitempty"`
	Pets            string  `json:"pets,omitempty"`
	Cleanliness     string  `json:"cleanliness,omitempty"`
	Score           int     `json:"score"`
	ScorePercentage float64 `json:"score_percentage"`
}

type placeholder struct {
	Username string `json:"username"`
	Message  string `json:"message"`
}

var noCandidates = placeholder{
	Username: "No matches yet",
	Message:  "Nobody fits your preferences right now. Check back later or adjust your profile.",
}

type candidatesResponse struct {
	Candidates  []candidateResponse `json:"candidates"`
	Weights     matching.Weights    `json:"weights"`
	Placeholder *placeholder        `json:"placeholder,omitempty"`
}

// candidateQuery holds the parsed ?limit= and ?require= parameters.
type candidateQuery struct {
	limit    int
	required []string
}

func parseCandidateQuery(r *http.Request, opts Options) (candidateQuery, string) {
	q := candidateQuery{limit: opts.DefaultLimit}

	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return q, "invalid_limit"
		}
		q.limit = n
	}
	if opts.MaxLimit > 0 && (q.limit <= 0 || q.limit > opts.MaxLimit) {
		q.limit = opts.MaxLimit
	}

	seen := map[string]bool{}
	add := func(key string) bool {
		key = strings.ToLower(strings.TrimSpace(key))
		if key == "" || seen[key] {
			return true
		}
		if !matching.IsField(key) {
			return false
		}
		seen[key] = true
		q.required = append(q.required, key)
		return true
	}
	for _, key := range opts.RequiredKeys {
		add(key)
	}
	for _, raw := range r.URL.Query()["require"] {
		for _, key := range strings.Split(raw, ",") {
			if !add(key) {
				return q, "invalid_require"
			}
		}
	}
	return q, ""
}

// candidatesHandler ranks every non-blocked profile against the caller's.
func candidatesHandler(st Store, opts Options) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q, code := parseCandidateQuery(r, opts)
		if code != "" {
			writeError(w, http.StatusBadRequest, code)
			return
		}

		userID := userIDFrom(r.Context())
		me, err := st.ProfileByUserID(r.Context(), userID)
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusForbidden, "incomplete_profile")
			return
		} else if err != nil {
			writeInternal(w, r, "db_error", err)
			return
		}

		others, err := st.Candidates(r.Context(), userID)
		if err != nil {
			writeInternal(w, r, "db_error", err)
			return
		}

		byID := make(map[string]store.Profile, len(others))
		pool := make([]matching.Profile, 0, len(others))
		for _, o := range others {
			mp := o.Matching()
			byID[mp.UserID] = o
			pool = append(pool, mp)
		}

		weights := me.Weights
		if len(weights) == 0 {
			weights = matching.DefaultWeights()
		}
		ranked := matching.Rank(me.Matching(), pool, matching.RankOptions{
			Weights:  weights,
			TopK:     q.limit,
			Required: q.required,
		})
		metrics.CandidatesRanked.Observe(float64(len(pool)))

		resp := candidatesResponse{
			Candidates: make([]candidateResponse, 0, len(ranked)),
			Weights:    weights,
		}
		for _, s := range ranked {
			p := byID[s.Profile.UserID]
			resp.Candidates = append(resp.Candidates, candidateResponse{
				UserID:          p.UserID,
				Username:        p.Username,
				Location:        p.Location,
				Budget:          p.Budget,
				Lifestyle:       p.Lifestyle,
				Smoking:         p.Smoking,
				Pets:            p.Pets,
				Cleanliness:     p.Cleanliness,
				Score:           s.Score,
				ScorePercentage: matching.Percent(s.Score, weights),
			})
		}
		if len(resp.Candidates) == 0 {
			resp.Placeholder = &noCandidates
		}

		logging.Ctx(r.Context()).Debug().
			Int64("user_id", userID).
			Int("pool", len(pool)).
			Int("returned", len(resp.Candidates)).
			Msg("candidates ranked")
		writeJSON(w, http.StatusOK, resp)
	}
}
