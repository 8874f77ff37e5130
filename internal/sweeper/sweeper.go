// Package sweeper retires roommate profiles once a match is old enough.
package sweeper

import (
	"context"
	"fmt"
	"time"

	"github.com/roomsync/roommate-finder/internal/logging"
	"github.com/roomsync/roommate-finder/internal/metrics"
)

// Purger deletes the profiles of matches created at or before cutoff.
// *store.Store implements it.
type Purger interface {
	PurgeMatchedProfiles(ctx context.Context, cutoff time.Time) (int64, error)
}

// Sweeper periodically purges matched profiles. It implements
// suture.Service.
type Sweeper struct {
	purger    Purger
	interval  time.Duration
	retention time.Duration
	now       func() time.Time
}

// New returns a Sweeper. Non-positive durations fall back to one hour and
// ten days.
func New(p Purger, interval, retention time.Duration) *Sweeper {
	if interval <= 0 {
		interval = time.Hour
	}
	if retention <= 0 {
		retention = 240 * time.Hour
	}
	return &Sweeper{purger: p, interval: interval, retention: retention, now: time.Now}
}

// RunOnce purges every profile whose match is older than the retention
// window and returns how many were deleted.
func (s *Sweeper) RunOnce(ctx context.Context) (int64, error) {
	cutoff := s.now().Add(-s.retention)
	n, err := s.purger.PurgeMatchedProfiles(ctx, cutoff)
	if err != nil {
		metrics.SweepErrors.Inc()
		return 0, fmt.Errorf("sweep: %w", err)
	}
	metrics.ProfilesPurged.Add(float64(n))
	if n > 0 {
		logging.Info().Int64("purged", n).Time("cutoff", cutoff).Msg("retired matched profiles")
	}
	return n, nil
}

// Serve sweeps once immediately, then every interval until ctx is done.
// Failed sweeps are logged and retried on the next tick.
func (s *Sweeper) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if _, err := s.RunOnce(ctx); err != nil && ctx.Err() == nil {
			logging.Error().Err(err).Msg("profile sweep failed")
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (s *Sweeper) String() string {
	return "profile-sweeper"
}
