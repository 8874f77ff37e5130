package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/roomsync/roommate-finder/internal/logging"
	"github.com/roomsync/roommate-finder/internal/store"
	"github.com/roomsync/roommate-finder/internal/validation"
)

type userIDKey struct{}

// userIDFrom returns the authenticated user id stored by authenticate.
func userIDFrom(ctx context.Context) int64 {
	id, _ := ctx.Value(userIDKey{}).(int64)
	return id
}

type tokenClaims struct {
	UserID int64 `json:"user_id"`
	jwt.RegisteredClaims
}

// tokens issues and verifies HS256 bearer tokens.
type tokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func (t *tokens) issue(userID int64) (string, error) {
	now := t.now()
	claims := tokenClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

func (t *tokens) parse(raw string) (int64, error) {
	var claims tokenClaims
	_, err := jwt.ParseWithClaims(raw, &claims,
		func(*jwt.Token) (any, error) { return t.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return 0, err
	}
	if claims.UserID <= 0 {
		return 0, fmt.Errorf("token has no user id")
	}
	return claims.UserID, nil
}

func (t *tokens) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		userID, err := t.parse(strings.TrimPrefix(authHeader, "Bearer "))
		if err != nil {
			logging.Ctx(r.Context()).Debug().Err(err).Msg("rejected bearer token")
			writeError(w, http.StatusUnauthorized, "invalid_token")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userIDKey{}, userID)))
	})
}

type registerRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Username string `json:"username" validate:"required,alphanum,min=3,max=32"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func registerHandler(st Store, tk *tokens) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerRequest
		if err := decodeJSON(r, &req, false); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_json")
			return
		}

		req.Email = strings.ToLower(strings.TrimSpace(req.Email))
		req.Username = strings.TrimSpace(req.Username)
		if req.Email == "" || req.Username == "" || req.Password == "" {
			writeError(w, http.StatusBadRequest, "missing_fields")
			return
		}
		if err := validation.Struct(req); err != nil {
			writeErrorDetails(w, http.StatusBadRequest, "validation_failed", err)
			return
		}

		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			writeInternal(w, r, "hash_error", err)
			return
		}

		user, err := st.CreateUser(r.Context(), req.Email, req.Username, string(hashedPassword))
		switch {
		case errors.Is(err, store.ErrEmailTaken):
			writeError(w, http.StatusConflict, "email_exists")
			return
		case errors.Is(err, store.ErrUsernameTaken):
			writeError(w, http.StatusConflict, "username_exists")
			return
		case err != nil:
			writeInternal(w, r, "register_error", err)
			return
		}

		// Registration logs the user straight in.
		tokenString, err := tk.issue(user.ID)
		if err != nil {
			writeInternal(w, r, "token_generation_error", err)
			return
		}

		logging.Ctx(r.Context()).Info().Int64("user_id", user.ID).Msg("user registered")
		writeJSON(w, http.StatusCreated, map[string]any{"token": tokenString, "id": user.ID})
	}
}

func loginHandler(st Store, tk *tokens) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := decodeJSON(r, &req, false); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_json")
			return
		}

		req.Email = strings.ToLower(strings.TrimSpace(req.Email))
		if req.Email == "" || req.Password == "" {
			writeError(w, http.StatusBadRequest, "missing_fields")
			return
		}

		user, err := st.UserByEmail(r.Context(), req.Email)
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusUnauthorized, "invalid_credentials")
			return
		} else if err != nil {
			writeInternal(w, r, "db_error", err)
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
			writeError(w, http.StatusUnauthorized, "invalid_credentials")
			return
		}

		tokenString, err := tk.issue(user.ID)
		if err != nil {
			writeInternal(w, r, "token_generation_error", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"token": tokenString, "id": user.ID})
	}
}
