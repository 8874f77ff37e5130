package store

import (
	"context"
	"fmt"
)

// Block hides blockedID from userID's candidates and vice versa. Blocking
// twice is a no-op.
func (s *Store) Block(ctx context.Context, userID, blockedID int64) error {
	if userID == blockedID {
		return ErrSelfReference
	}
	_, err := s.exec(ctx, `
		INSERT INTO blocks (user_id, blocked_user_id, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT (user_id, blocked_user_id) DO NOTHING`,
		userID, blockedID, s.unixNow(),
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrNotFound
		}
		return fmt.Errorf("block user: %w", err)
	}
	return nil
}

// Unblock removes a block. Removing a missing block is a no-op.
func (s *Store) Unblock(ctx context.Context, userID, blockedID int64) error {
	if userID == blockedID {
		return ErrSelfReference
	}
	if _, err := s.exec(ctx, `DELETE FROM blocks WHERE user_id = ? AND blocked_user_id = ?`, userID, blockedID); err != nil {
		return fmt.Errorf("unblock user: %w", err)
	}
	return nil
}

// BlockedIDs lists the users userID has blocked, in ascending order.
func (s *Store) BlockedIDs(ctx context.Context, userID int64) ([]int64, error) {
	rows, err := s.query(ctx, `SELECT blocked_user_id FROM blocks WHERE user_id = ? ORDER BY blocked_user_id`, userID)
	if err != nil {
		return nil, fmt.Errorf("blocked ids: %w", err)
	}
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("blocked ids: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
