package store

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Match records that UserID accepted MatchedUserID as a roommate.
type Match struct {
	ID            int64     `json:"id"`
	UserID        int64     `json:"user_id"`
	MatchedUserID int64     `json:"matched_user_id"`
	CreatedAt     time.Time `json:"created_at"`
}

// RecordMatch stores a match. Recording the same pair again returns the
// existing row unchanged.
func (s *Store) RecordMatch(ctx context.Context, userID, matchedID int64) (Match, error) {
	if userID == matchedID {
		return Match{}, ErrSelfReference
	}
	var m Match
	err := s.WithTx(ctx, func(tx *Store) error {
		_, err := tx.exec(ctx, `
			INSERT INTO matches (user_id, matched_user_id, created_at)
			VALUES (?, ?, ?)
			ON CONFLICT (user_id, matched_user_id) DO NOTHING`,
			userID, matchedID, tx.unixNow(),
		)
		if err != nil {
			if isForeignKeyViolation(err) {
				return ErrNotFound
			}
			return err
		}

		var created int64
		err = tx.queryRow(ctx, `
			SELECT id, user_id, matched_user_id, created_at
			FROM matches WHERE user_id = ? AND matched_user_id = ?`,
			userID, matchedID,
		).Scan(&m.ID, &m.UserID, &m.MatchedUserID, &created)
		if err != nil {
			return err
		}
		m.CreatedAt = fromUnix(created)
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Match{}, err
		}
		return Match{}, fmt.Errorf("record match: %w", err)
	}
	return m, nil
}

// MatchesFor lists the matches userID takes part in, oldest first.
func (s *Store) MatchesFor(ctx context.Context, userID int64) ([]Match, error) {
	rows, err := s.query(ctx, `
		SELECT id, user_id, matched_user_id, created_at
		FROM matches WHERE user_id = ? OR matched_user_id = ?
		ORDER BY created_at, id`, userID, userID)
	if err != nil {
		return nil, fmt.Errorf("matches for: %w", err)
	}
	defer rows.Close()

	out := []Match{}
	for rows.Next() {
		var (
			m       Match
			created int64
		)
		if err := rows.Scan(&m.ID, &m.UserID, &m.MatchedUserID, &created); err != nil {
			return nil, fmt.Errorf("matches for: %w", err)
		}
		m.CreatedAt = fromUnix(created)
		out = append(out, m)
	}
	return out, rows.Err()
}

// PurgeMatchedProfiles deletes the profiles of both parties of every match
// created at or before cutoff, then drops those matches. It returns the
// number of profiles deleted.
func (s *Store) PurgeMatchedProfiles(ctx context.Context, cutoff time.Time) (int64, error) {
	var purged int64
	err := s.WithTx(ctx, func(tx *Store) error {
		c := cutoff.Unix()
		res, err := tx.exec(ctx, `
			DELETE FROM profiles WHERE user_id IN (
				SELECT user_id FROM matches WHERE created_at <= ?
				UNION
				SELECT matched_user_id FROM matches WHERE created_at <= ?
			)`, c, c)
		if err != nil {
			return err
		}
		if purged, err = res.RowsAffected(); err != nil {
			return err
		}
		_, err = tx.exec(ctx, `DELETE FROM matches WHERE created_at <= ?`, c)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("purge matched profiles: %w", err)
	}
	return purged, nil
}
