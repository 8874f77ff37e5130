// Package api is the JSON web layer: registration and login, profile
// editing, ranked candidates, blocking, reporting and matching.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/roomsync/roommate-finder/internal/config"
	"github.com/roomsync/roommate-finder/internal/store"
)

// Store is the persistence the handlers need. *store.Store implements it.
type Store interface {
	Ping(ctx context.Context) error
	CreateUser(ctx context.Context, email, username, passwordHash string) (store.User, error)
	UserByEmail(ctx context.Context, email string) (store.User, error)
	UserByID(ctx context.Context, id int64) (store.User, error)
	DeleteUser(ctx context.Context, id int64) error
	UpsertProfile(ctx context.Context, p store.Profile) (store.Profile, error)
	ProfileByUserID(ctx context.Context, userID int64) (store.Profile, error)
	DeleteProfile(ctx context.Context, userID int64) error
	Candidates(ctx context.Context, userID int64) ([]store.Profile, error)
	Block(ctx context.Context, userID, blockedID int64) error
	Unblock(ctx context.Context, userID, blockedID int64) error
	BlockedIDs(ctx context.Context, userID int64) ([]int64, error)
	CreateReport(ctx context.Context, reporterID, reportedID int64, reason string) (store.Report, error)
	RecordMatch(ctx context.Context, userID, matchedID int64) (store.Match, error)
	MatchesFor(ctx context.Context, userID int64) ([]store.Match, error)
}

// Options configures the router.
type Options struct {
	JWTSecret       string
	TokenTTL        time.Duration
	CORSOrigins     []string
	LoginRateLimit  int
	LoginRateWindow time.Duration
	DefaultLimit    int
	MaxLimit        int
	RequiredKeys    []string
	MatchRetention  time.Duration
	// Now overrides the clock used for tokens. Nil means time.Now.
	Now func() time.Time
}

// OptionsFromConfig collects the router settings from the loaded config.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		JWTSecret:       cfg.Auth.JWTSecret,
		TokenTTL:        cfg.Auth.TokenTTL,
		CORSOrigins:     cfg.Server.CORSOrigins,
		LoginRateLimit:  cfg.Server.LoginRateLimit,
		LoginRateWindow: cfg.Server.LoginRateWindow,
		DefaultLimit:    cfg.Matching.DefaultLimit,
		MaxLimit:        cfg.Matching.MaxLimit,
		RequiredKeys:    cfg.Matching.RequiredKeys,
		MatchRetention:  cfg.Sweeper.Retention,
	}
}

// NewRouter wires every route onto a chi router.
func NewRouter(st Store, opts Options) http.Handler {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = 24 * time.Hour
	}
	tk := &tokens{secret: []byte(opts.JWTSecret), ttl: opts.TokenTTL, now: opts.Now}

	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(chimiddleware.RealIP)
	r.Use(accessLog)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins(opts.CORSOrigins),
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/base", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/health", healthHandler(st))
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(instrument)
		r.Post("/register", registerHandler(st, tk))
		login := loginHandler(st, tk)
		if opts.LoginRateLimit > 0 && opts.LoginRateWindow > 0 {
			r.With(httprate.LimitByIP(opts.LoginRateLimit, opts.LoginRateWindow)).Post("/login", login)
		} else {
			r.Post("/login", login)
		}

		r.Group(func(r chi.Router) {
			r.Use(tk.authenticate)
			r.Get("/me", meHandler(st))
			r.Delete("/me", deleteMeHandler(st))
			r.Get("/me/profile", getProfileHandler(st))
			r.Put("/me/profile", putProfileHandler(st))
			r.Delete("/me/profile", deleteProfileHandler(st))
			r.Get("/me/blocks", listBlocksHandler(st))
			r.Get("/me/matches", listMatchesHandler(st, opts.MatchRetention))
			r.Get("/candidates", candidatesHandler(st, opts))
			r.Post("/users/{id}/block", blockHandler(st))
			r.Delete("/users/{id}/block", unblockHandler(st))
			r.Post("/users/{id}/report", reportHandler(st))
			r.Post("/users/{id}/match", matchHandler(st, opts.MatchRetention))
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not_found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "invalid_method")
	})
	return r
}

func corsOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}

func healthHandler(st Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := st.Ping(ctx); err != nil {
			writeError(w, http.StatusServiceUnavailable, "db_unavailable")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "database": "ok"})
	}
}
