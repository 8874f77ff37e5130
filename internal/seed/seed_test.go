package seed

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/roomsync/roommate-finder/internal/config"
	"github.com/roomsync/roommate-finder/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	ctx := context.Background()
	st, err := store.Open(ctx, config.DatabaseConfig{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "seed.db")})
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.Migrate(ctx))
	return st
}

func TestRun(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	opts := Options{Count: 25, Seed: 7, BlockRate: 0.5, MatchRate: 0.3, Password: "test1234"}
	sum, err := Run(ctx, st, opts)
	require.NoError(t, err)
	assert.Equal(t, 25, sum.Users)
	assert.Equal(t, 25, sum.Total)

	n, err := st.CountUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, 25, n)

	u, err := st.UserByEmail(ctx, "user1@test.local")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("test1234")))

	p, err := st.ProfileByUserID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Seattle", p.Location)

	t.Run("rerun without truncate conflicts", func(t *testing.T) {
		_, err := Run(ctx, st, opts)
		assert.ErrorIs(t, err, store.ErrEmailTaken)
		n, err := st.CountUsers(ctx)
		require.NoError(t, err)
		assert.Equal(t, 25, n)
	})

	t.Run("truncate and rerun is deterministic", func(t *testing.T) {
		opts.Truncate = true
		again, err := Run(ctx, st, opts)
		require.NoError(t, err)
		assert.Equal(t, sum, again)
	})
}

func TestRunTotalIncludesExistingUsers(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	_, err := st.CreateUser(ctx, "extra@example.com", "extra", "hash")
	require.NoError(t, err)

	sum, err := Run(ctx, st, Options{Count: 10, Seed: 1, Password: "test1234"})
	require.NoError(t, err)
	assert.Equal(t, 10, sum.Users)
	assert.Equal(t, 11, sum.Total)
}

func TestOptionsValidate(t *testing.T) {
	assert.NoError(t, DefaultOptions().validate())

	bad := DefaultOptions()
	bad.Count = 0
	assert.Error(t, bad.validate())

	bad = DefaultOptions()
	bad.MatchRate = 1.5
	assert.Error(t, bad.validate())

	bad = DefaultOptions()
	bad.Password = ""
	assert.Error(t, bad.validate())
}
