package store

import (
	"context"
	"fmt"
	"time"
)

// Report is a moderation report filed by one user against another.
type Report struct {
	ID             int64     `json:"id"`
	ReporterID     int64     `json:"reporter_id"`
	ReportedUserID int64     `json:"reported_user_id"`
	Reason         string    `json:"reason"`
	CreatedAt      time.Time `json:"created_at"`
}

// CreateReport stores a report. Reporting yourself yields ErrSelfReference
// and reporting an unknown user ErrNotFound.
func (s *Store) CreateReport(ctx context.Context, reporterID, reportedID int64, reason string) (Report, error) {
	if reporterID == reportedID {
		return Report{}, ErrSelfReference
	}
	r := Report{ReporterID: reporterID, ReportedUserID: reportedID, Reason: reason}
	created := s.unixNow()
	err := s.queryRow(ctx, `
		INSERT INTO reports (reporter_id, reported_user_id, reason, created_at)
		VALUES (?, ?, ?, ?)
		RETURNING id`,
		reporterID, reportedID, reason, created,
	).Scan(&r.ID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return Report{}, ErrNotFound
		}
		return Report{}, fmt.Errorf("create report: %w", err)
	}
	r.CreatedAt = fromUnix(created)
	return r, nil
}

// ReportsAgainst lists reports filed against userID, oldest first.
func (s *Store) ReportsAgainst(ctx context.Context, userID int64) ([]Report, error) {
	rows, err := s.query(ctx, `
		SELECT id, reporter_id, reported_user_id, reason, created_at
		FROM reports WHERE reported_user_id = ? ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("reports against: %w", err)
	}
	defer rows.Close()

	var out []Report
	for rows.Next() {
		var (
			r       Report
			created int64
		)
		if err := rows.Scan(&r.ID, &r.ReporterID, &r.ReportedUserID, &r.Reason, &created); err != nil {
			return nil, fmt.Errorf("reports against: %w", err)
		}
		r.CreatedAt = fromUnix(created)
		out = append(out, r)
	}
	return out, rows.Err()
}
