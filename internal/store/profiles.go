package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"github.com/roomsync/roommate-finder/internal/matching"
)

// Profile is a user's stored roommate profile. Username is read from the
// users table and ignored on write. Weights is the user's optional scoring
// override; nil means the defaults.
type Profile struct {
	UserID      int64            `json:"user_id"`
	Username    string           `json:"username"`
	Location    string           `json:"location"`
	Budget      string           `json:"budget"`
	Lifestyle   string           `json:"lifestyle"`
	Smoking     string           `json:"smoking"`
	Pets        string           `json:"pets"`
	Cleanliness string           `json:"cleanliness"`
	Weights     matching.Weights `json:"weights,omitempty"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// Matching converts p into the ranker's profile shape.
func (p Profile) Matching() matching.Profile {
	return matching.Profile{
		UserID:      strconv.FormatInt(p.UserID, 10),
		Username:    p.Username,
		Location:    p.Location,
		Budget:      p.Budget,
		Lifestyle:   p.Lifestyle,
		Smoking:     p.Smoking,
		Pets:        p.Pets,
		Cleanliness: p.Cleanliness,
	}
}

// UpsertProfile creates or replaces the profile of p.UserID and returns the
// stored row.
func (s *Store) UpsertProfile(ctx context.Context, p Profile) (Profile, error) {
	var weights sql.NullString
	if len(p.Weights) > 0 {
		b, err := json.Marshal(p.Weights)
		if err != nil {
			return Profile{}, fmt.Errorf("encode weights: %w", err)
		}
		weights = sql.NullString{String: string(b), Valid: true}
	}

	_, err := s.exec(ctx, `
		INSERT INTO profiles (user_id, location, budget, lifestyle, smoking, pets, cleanliness, weights, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			location    = excluded.location,
			budget      = excluded.budget,
			lifestyle   = excluded.lifestyle,
			smoking     = excluded.smoking,
			pets        = excluded.pets,
			cleanliness = excluded.cleanliness,
			weights     = excluded.weights,
			updated_at  = excluded.updated_at`,
		p.UserID, p.Location, p.Budget, p.Lifestyle, p.Smoking, p.Pets, p.Cleanliness, weights, s.unixNow(),
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return Profile{}, ErrNotFound
		}
		return Profile{}, fmt.Errorf("upsert profile: %w", err)
	}
	return s.ProfileByUserID(ctx, p.UserID)
}

const profileSelect = `
	SELECT p.user_id, u.username, p.location, p.budget, p.lifestyle, p.smoking, p.pets,
		p.cleanliness, p.weights, p.updated_at
	FROM profiles p
	JOIN users u ON u.id = p.user_id`

func scanProfile(row interface{ Scan(...any) error }) (Profile, error) {
	var (
		p       Profile
		weights sql.NullString
		updated int64
	)
	err := row.Scan(&p.UserID, &p.Username, &p.Location, &p.Budget, &p.Lifestyle,
		&p.Smoking, &p.Pets, &p.Cleanliness, &weights, &updated)
	if err != nil {
		return Profile{}, err
	}
	if weights.Valid && weights.String != "" {
		if err := json.Unmarshal([]byte(weights.String), &p.Weights); err != nil {
			return Profile{}, fmt.Errorf("%w: user %d: %v", ErrInvalidWeights, p.UserID, err)
		}
	}
	p.UpdatedAt = fromUnix(updated)
	return p, nil
}

// ProfileByUserID returns the profile of userID or ErrNotFound.
func (s *Store) ProfileByUserID(ctx context.Context, userID int64) (Profile, error) {
	p, err := scanProfile(s.queryRow(ctx, profileSelect+` WHERE p.user_id = ?`, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return Profile{}, ErrNotFound
	}
	if err != nil {
		return Profile{}, fmt.Errorf("profile by user: %w", err)
	}
	return p, nil
}

// DeleteProfile removes the profile of userID.
func (s *Store) DeleteProfile(ctx context.Context, userID int64) error {
	res, err := s.exec(ctx, `DELETE FROM profiles WHERE user_id = ?`, userID)
	if err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// Candidates returns every other user's profile ordered by user id, leaving
// out users that userID blocked and users that blocked userID.
func (s *Store) Candidates(ctx context.Context, userID int64) ([]Profile, error) {
	rows, err := s.query(ctx, profileSelect+`
		WHERE p.user_id <> ?
		  AND NOT EXISTS (
			SELECT 1 FROM blocks b
			WHERE (b.user_id = ? AND b.blocked_user_id = p.user_id)
			   OR (b.user_id = p.user_id AND b.blocked_user_id = ?)
		  )
		ORDER BY p.user_id`,
		userID, userID, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("candidates: %w", err)
	}
	defer rows.Close()

	var out []Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("candidates: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("candidates: %w", err)
	}
	return out, nil
}
