package api

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roomsync/roommate-finder/internal/config"
	"github.com/roomsync/roommate-finder/internal/store"
)

const testSecret = "test-secret-key-for-testing"

type testEnv struct {
	t   *testing.T
	h   http.Handler
	st  *store.Store
	now time.Time
}

func newTestEnv(t *testing.T, mutate ...func(*Options)) *testEnv {
	t.Helper()
	ctx := context.Background()
	st, err := store.Open(ctx, config.DatabaseConfig{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "api.db")})
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.Migrate(ctx))

	now := time.Now().UTC().Truncate(time.Second)
	opts := Options{
		JWTSecret:      testSecret,
		TokenTTL:       time.Hour,
		MaxLimit:       100,
		MatchRetention: 240 * time.Hour,
		Now:            func() time.Time { return now },
	}
	for _, m := range mutate {
		m(&opts)
	}
	return &testEnv{t: t, h: NewRouter(st, opts), st: st, now: now}
}

func (e *testEnv) do(method, path, token string, body any) *httptest.ResponseRecorder {
	e.t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(e.t, json.NewEncoder(&buf).Encode(b))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	e.h.ServeHTTP(rr, req)
	return rr
}

func (e *testEnv) register(username string) (string, int64) {
	e.t.Helper()
	rr := e.do(http.MethodPost, "/register", "", map[string]string{
		"email":    username + "@example.com",
		"username": username,
		"password": "password123",
	})
	require.Equal(e.t, http.StatusCreated, rr.Code, rr.Body.String())
	var resp struct {
		Token string `json:"token"`
		ID    int64  `json:"id"`
	}
	decode(e.t, rr, &resp)
	require.NotEmpty(e.t, resp.Token)
	return resp.Token, resp.ID
}

func (e *testEnv) putProfile(token string, profile map[string]any) {
	e.t.Helper()
	rr := e.do(http.MethodPut, "/me/profile", token, profile)
	require.Equal(e.t, http.StatusOK, rr.Code, rr.Body.String())
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), dst), rr.Body.String())
}

func errorCode(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	decode(t, rr, &body)
	return body.Error
}

func TestPublicEndpoints(t *testing.T) {
	env := newTestEnv(t)

	t.Run("base", func(t *testing.T) {
		rr := env.do(http.MethodGet, "/base", "", nil)
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
		assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
	})
	t.Run("request id echoed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/base", nil)
		req.Header.Set("X-Request-ID", "abc-123")
		rr := httptest.NewRecorder()
		env.h.ServeHTTP(rr, req)
		assert.Equal(t, "abc-123", rr.Header().Get("X-Request-ID"))
	})
	t.Run("health", func(t *testing.T) {
		rr := env.do(http.MethodGet, "/health", "", nil)
		assert.Equal(t, http.StatusOK, rr.Code)
	})
	t.Run("metrics", func(t *testing.T) {
		env.do(http.MethodPost, "/login", "", "{}")
		rr := env.do(http.MethodGet, "/metrics", "", nil)
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), "roommate_api_requests_total")
	})
	t.Run("unknown route", func(t *testing.T) {
		rr := env.do(http.MethodGet, "/nope", "", nil)
		assert.Equal(t, http.StatusNotFound, rr.Code)
		assert.Equal(t, "not_found", errorCode(t, rr))
	})
	t.Run("wrong method", func(t *testing.T) {
		rr := env.do(http.MethodGet, "/register", "", nil)
		assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
		assert.Equal(t, "invalid_method", errorCode(t, rr))
	})
}

func TestAuthenticationSuite(t *testing.T) {
	env := newTestEnv(t)
	env.register("casey")

	t.Run("Registration", func(t *testing.T) {
		tests := []struct {
			name           string
			body           any
			expectedStatus int
			expectedError  string
		}{
			{
				name:           "Valid Registration",
				body:           map[string]string{"email": "New@Example.com ", "username": "newbie", "password": "password123"},
				expectedStatus: http.StatusCreated,
			},
			{
				name:           "Duplicate Email",
				body:           map[string]string{"email": "casey@example.com", "username": "other1", "password": "password123"},
				expectedStatus: http.StatusConflict,
				expectedError:  "email_exists",
			},
			{
				name:           "Duplicate Username",
				body:           map[string]string{"email": "other@example.com", "username": "casey", "password": "password123"},
				expectedStatus: http.StatusConflict,
				expectedError:  "username_exists",
			},
			{
				name:           "Missing Fields",
				body:           map[string]string{"email": "x@example.com"},
				expectedStatus: http.StatusBadRequest,
				expectedError:  "missing_fields",
			},
			{
				name:           "Invalid Email",
				body:           map[string]string{"email": "not-an-email", "username": "valid1", "password": "password123"},
				expectedStatus: http.StatusBadRequest,
				expectedError:  "validation_failed",
			},
			{
				name:           "Short Password",
				body:           map[string]string{"email": "short@example.com", "username": "shorty", "password": "abc"},
				expectedStatus: http.StatusBadRequest,
				expectedError:  "validation_failed",
			},
			{
				name:           "Invalid JSON",
				body:           "{not json",
				expectedStatus: http.StatusBadRequest,
				expectedError:  "invalid_json",
			},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				rr := env.do(http.MethodPost, "/register", "", tt.body)
				require.Equal(t, tt.expectedStatus, rr.Code, rr.Body.String())
				if tt.expectedError != "" {
					assert.Equal(t, tt.expectedError, errorCode(t, rr))
				}
			})
		}
	})

	t.Run("Login", func(t *testing.T) {
		tests := []struct {
			name           string
			email          string
			password       string
			expectedStatus int
		}{
			{"Valid Login", "casey@example.com", "password123", http.StatusOK},
			{"Email Is Case Insensitive", "  CASEY@example.com", "password123", http.StatusOK},
			{"Wrong Password", "casey@example.com", "wrongpass1", http.StatusUnauthorized},
			{"Unknown Email", "nobody@example.com", "password123", http.StatusUnauthorized},
			{"Missing Password", "casey@example.com", "", http.StatusBadRequest},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				rr := env.do(http.MethodPost, "/login", "", map[string]string{"email": tt.email, "password": tt.password})
				require.Equal(t, tt.expectedStatus, rr.Code, rr.Body.String())
				if tt.expectedStatus == http.StatusUnauthorized {
					assert.Equal(t, "invalid_credentials", errorCode(t, rr))
				}
			})
		}
	})

	t.Run("Bearer Token", func(t *testing.T) {
		rr := env.do(http.MethodGet, "/me", "", nil)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)

		rr = env.do(http.MethodGet, "/me", "garbage", nil)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Equal(t, "invalid_token", errorCode(t, rr))

		stale := &tokens{secret: []byte(testSecret), ttl: time.Minute, now: func() time.Time { return env.now.Add(-time.Hour) }}
		expired, err := stale.issue(1)
		require.NoError(t, err)
		rr = env.do(http.MethodGet, "/me", expired, nil)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)

		forged := &tokens{secret: []byte("other-secret"), ttl: time.Hour, now: func() time.Time { return env.now }}
		bad, err := forged.issue(1)
		require.NoError(t, err)
		rr = env.do(http.MethodGet, "/me", bad, nil)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func TestLoginRateLimit(t *testing.T) {
	env := newTestEnv(t, func(o *Options) {
		o.LoginRateLimit = 2
		o.LoginRateWindow = time.Minute
	})
	body := map[string]string{"email": "nobody@example.com", "password": "password123"}
	assert.Equal(t, http.StatusUnauthorized, env.do(http.MethodPost, "/login", "", body).Code)
	assert.Equal(t, http.StatusUnauthorized, env.do(http.MethodPost, "/login", "", body).Code)
	assert.Equal(t, http.StatusTooManyRequests, env.do(http.MethodPost, "/login", "", body).Code)
}

func TestMeAndProfile(t *testing.T) {
	env := newTestEnv(t)
	token, id := env.register("dana")

	rr := env.do(http.MethodGet, "/me", token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var me meResponse
	decode(t, rr, &me)
	assert.Equal(t, id, me.ID)
	assert.Equal(t, "dana", me.Username)
	assert.False(t, me.HasProfile)

	rr = env.do(http.MethodGet, "/me/profile", token, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	t.Run("unknown field rejected", func(t *testing.T) {
		rr := env.do(http.MethodPut, "/me/profile", token, map[string]any{"location": "Oslo", "favourite_colour": "blue"})
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "unknown_field", errorCode(t, rr))
	})
	t.Run("invalid weights rejected", func(t *testing.T) {
		rr := env.do(http.MethodPut, "/me/profile", token, map[string]any{
			"location": "Oslo",
			"weights":  map[string]float64{"location": -1},
		})
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "invalid_weights", errorCode(t, rr))

		rr = env.do(http.MethodPut, "/me/profile", token, map[string]any{
			"weights": map[string]float64{"salary": 10},
		})
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
	t.Run("save and read back", func(t *testing.T) {
		env.putProfile(token, map[string]any{
			"location":  "Oslo",
			"budget":    "$750/mo",
			"lifestyle": "Early Sleeper",
			"weights":   map[string]float64{"location": 50, "pets": 10},
		})
		rr := env.do(http.MethodGet, "/me/profile", token, nil)
		require.Equal(t, http.StatusOK, rr.Code)
		var p store.Profile
		decode(t, rr, &p)
		assert.Equal(t, "Oslo", p.Location)
		assert.Equal(t, "$750/mo", p.Budget)
		assert.Equal(t, "dana", p.Username)
		assert.InDelta(t, 50, p.Weights["location"], 0)

		rr = env.do(http.MethodGet, "/me", token, nil)
		decode(t, rr, &me)
		assert.True(t, me.HasProfile)
	})
	t.Run("delete profile", func(t *testing.T) {
		rr := env.do(http.MethodDelete, "/me/profile", token, nil)
		assert.Equal(t, http.StatusNoContent, rr.Code)

		rr = env.do(http.MethodGet, "/me/profile", token, nil)
		assert.Equal(t, http.StatusNotFound, rr.Code)
		rr = env.do(http.MethodDelete, "/me/profile", token, nil)
		assert.Equal(t, http.StatusNotFound, rr.Code)

		rr = env.do(http.MethodGet, "/me", token, nil)
		decode(t, rr, &me)
		assert.False(t, me.HasProfile)
	})
	t.Run("delete account", func(t *testing.T) {
		rr := env.do(http.MethodDelete, "/me", token, nil)
		assert.Equal(t, http.StatusNoContent, rr.Code)

		rr = env.do(http.MethodGet, "/me", token, nil)
		assert.Equal(t, http.StatusNotFound, rr.Code)

		rr = env.do(http.MethodPost, "/login", "", map[string]string{"email": "dana@example.com", "password": "password123"})
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

type candidatesBody struct {
	Candidates  []candidateResponse `json:"candidates"`
	Placeholder *placeholder        `json:"placeholder"`
}

func usernames(body candidatesBody) []string {
	out := make([]string, len(body.Candidates))
	for i, c := range body.Candidates {
		out[i] = c.Username
	}
	return out
}

func TestCandidates(t *testing.T) {
	env := newTestEnv(t)
	meToken, _ := env.register("seeker")
	annieToken, annieID := env.register("annie")
	bobbyToken, bobbyID := env.register("bobby")

	get := func(query string) (*httptest.ResponseRecorder, candidatesBody) {
		rr := env.do(http.MethodGet, "/candidates"+query, meToken, nil)
		var body candidatesBody
		if rr.Code == http.StatusOK {
			decode(t, rr, &body)
		}
		return rr, body
	}

	t.Run("requires own profile", func(t *testing.T) {
		rr, _ := get("")
		assert.Equal(t, http.StatusForbidden, rr.Code)
		assert.Equal(t, "incomplete_profile", errorCode(t, rr))
	})

	env.putProfile(meToken, map[string]any{"location": "Seattle", "budget": "800", "lifestyle": "early sleeper"})

	t.Run("placeholder when nobody else has a profile", func(t *testing.T) {
		rr, body := get("")
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Empty(t, body.Candidates)
		require.NotNil(t, body.Placeholder)
		assert.Contains(t, rr.Body.String(), `"candidates":[]`)
	})

	env.putProfile(bobbyToken, map[string]any{"location": "Portland", "budget": "800", "lifestyle": "night owl"})
	env.putProfile(annieToken, map[string]any{"location": "Seattle", "budget": "750", "lifestyle": "early sleeper"})

	t.Run("ranked best first", func(t *testing.T) {
		rr, body := get("")
		require.Equal(t, http.StatusOK, rr.Code)
		require.Len(t, body.Candidates, 2)
		assert.Nil(t, body.Placeholder)

		assert.Equal(t, annieID, body.Candidates[0].UserID)
		assert.Equal(t, 100, body.Candidates[0].Score)
		assert.InDelta(t, 100, body.Candidates[0].ScorePercentage, 0.001)
		assert.Equal(t, bobbyID, body.Candidates[1].UserID)
		assert.Equal(t, 30, body.Candidates[1].Score)
		assert.InDelta(t, 30, body.Candidates[1].ScorePercentage, 0.001)
	})
	t.Run("limit", func(t *testing.T) {
		_, body := get("?limit=1")
		assert.Equal(t, []string{"annie"}, usernames(body))

		rr, _ := get("?limit=-2")
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "invalid_limit", errorCode(t, rr))
	})
	t.Run("require", func(t *testing.T) {
		env.putProfile(bobbyToken, map[string]any{"budget": "800", "lifestyle": "night owl"})
		_, body := get("?require=location")
		assert.Equal(t, []string{"annie"}, usernames(body))

		_, body = get("")
		assert.Equal(t, []string{"annie", "bobby"}, usernames(body))

		rr, _ := get("?require=location,salary")
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "invalid_require", errorCode(t, rr))
	})
	t.Run("blocked users are hidden both ways", func(t *testing.T) {
		rr := env.do(http.MethodPost, fmt.Sprintf("/users/%d/block", annieID), meToken, nil)
		require.Equal(t, http.StatusOK, rr.Code)
		_, body := get("")
		assert.Equal(t, []string{"bobby"}, usernames(body))

		rr = env.do(http.MethodDelete, fmt.Sprintf("/users/%d/block", annieID), meToken, nil)
		require.Equal(t, http.StatusNoContent, rr.Code)

		rr = env.do(http.MethodPost, fmt.Sprintf("/users/%d/block", bobbyID+100), meToken, nil)
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
	t.Run("blocked by the other side", func(t *testing.T) {
		rr := env.do(http.MethodGet, "/me", meToken, nil)
		var me meResponse
		decode(t, rr, &me)

		rr = env.do(http.MethodPost, fmt.Sprintf("/users/%d/block", me.ID), bobbyToken, nil)
		require.Equal(t, http.StatusOK, rr.Code)
		_, body := get("")
		assert.Equal(t, []string{"annie"}, usernames(body))
	})
	t.Run("personal weights", func(t *testing.T) {
		env.putProfile(meToken, map[string]any{
			"location":  "Seattle",
			"budget":    "800",
			"lifestyle": "early sleeper",
			"weights":   map[string]float64{"location": 1, "budget": 1},
		})
		_, body := get("")
		require.Len(t, body.Candidates, 1)
		assert.Equal(t, 2, body.Candidates[0].Score)
		assert.InDelta(t, 100, body.Candidates[0].ScorePercentage, 0.001)
	})
}

func TestBlocksReportsMatches(t *testing.T) {
	env := newTestEnv(t)
	token, myID := env.register("erin")
	otherToken, otherID := env.register("frank")
	loneToken, _ := env.register("gwen")
	path := func(id int64, action string) string { return fmt.Sprintf("/users/%d/%s", id, action) }

	t.Run("block list", func(t *testing.T) {
		require.Equal(t, http.StatusOK, env.do(http.MethodPost, path(otherID, "block"), token, nil).Code)
		require.Equal(t, http.StatusOK, env.do(http.MethodPost, path(otherID, "block"), token, nil).Code)

		rr := env.do(http.MethodGet, "/me/blocks", token, nil)
		require.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, fmt.Sprintf(`{"blocked":[%d]}`, otherID), rr.Body.String())

		rr = env.do(http.MethodPost, path(myID, "block"), token, nil)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "self_reference", errorCode(t, rr))

		rr = env.do(http.MethodPost, "/users/abc/block", token, nil)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "invalid_id", errorCode(t, rr))
	})
	t.Run("report", func(t *testing.T) {
		rr := env.do(http.MethodPost, path(otherID, "report"), token, map[string]string{"reason": "  fake listing "})
		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
		var report store.Report
		decode(t, rr, &report)
		assert.Equal(t, "fake listing", report.Reason)
		assert.Equal(t, myID, report.ReporterID)

		rr = env.do(http.MethodPost, path(otherID, "report"), token, map[string]string{"reason": "   "})
		assert.Equal(t, http.StatusBadRequest, rr.Code)

		rr = env.do(http.MethodPost, path(otherID, "report"), token, map[string]string{"reason": strings.Repeat("x", 501)})
		assert.Equal(t, http.StatusBadRequest, rr.Code)

		rr = env.do(http.MethodPost, path(myID, "report"), token, map[string]string{"reason": "me"})
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
	t.Run("match", func(t *testing.T) {
		rr := env.do(http.MethodPost, path(otherID, "match"), token, nil)
		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
		var resp matchResponse
		decode(t, rr, &resp)
		assert.True(t, resp.Matched)
		assert.Equal(t, otherID, resp.Match.MatchedUserID)
		assert.Equal(t, resp.Match.CreatedAt.Add(240*time.Hour), resp.DeleteAfter)

		rr = env.do(http.MethodPost, path(9999, "match"), token, nil)
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
	t.Run("match list", func(t *testing.T) {
		var body struct {
			Matches []matchListEntry `json:"matches"`
		}
		rr := env.do(http.MethodGet, "/me/matches", token, nil)
		require.Equal(t, http.StatusOK, rr.Code)
		decode(t, rr, &body)
		require.Len(t, body.Matches, 1)
		assert.Equal(t, myID, body.Matches[0].UserID)
		assert.Equal(t, otherID, body.Matches[0].MatchedUserID)
		assert.Equal(t, body.Matches[0].CreatedAt.Add(240*time.Hour), body.Matches[0].DeleteAfter)

		rr = env.do(http.MethodGet, "/me/matches", otherToken, nil)
		require.Equal(t, http.StatusOK, rr.Code)
		decode(t, rr, &body)
		require.Len(t, body.Matches, 1)
		assert.Equal(t, otherID, body.Matches[0].MatchedUserID)

		rr = env.do(http.MethodGet, "/me/matches", loneToken, nil)
		require.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"matches":[]}`, rr.Body.String())
	})
}
