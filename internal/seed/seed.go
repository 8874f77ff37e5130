// Package seed fills a store with deterministic fake users and roommate
// profiles for local development and load testing.
package seed

import (
	"context"
	"fmt"
	"math/rand"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/roomsync/roommate-finder/internal/logging"
	"github.com/roomsync/roommate-finder/internal/store"
)

// Options controls a seeding run.
type Options struct {
	Count     int     // users to create, including the two fixed test users
	Seed      int64   // RNG seed (deterministic)
	Truncate  bool    // delete existing rows first
	BlockRate float64 // chance per user of blocking one random other user
	MatchRate float64 // chance per user of matching one random other user
	Password  string  // same password for everyone (easy login)
}

// DefaultOptions mirrors the command-line defaults.
func DefaultOptions() Options {
	return Options{
		Count:     300,
		Seed:      42,
		BlockRate: 0.05,
		MatchRate: 0.02,
		Password:  "test1234",
	}
}

func (o Options) validate() error {
	if o.Count < 1 {
		return fmt.Errorf("count must be at least 1")
	}
	if o.BlockRate < 0 || o.BlockRate > 1 || o.MatchRate < 0 || o.MatchRate > 1 {
		return fmt.Errorf("rates must be in range 0..1")
	}
	if o.Password == "" {
		return fmt.Errorf("password must not be empty")
	}
	return nil
}

// Summary reports what a run inserted.
type Summary struct {
	Users   int
	Blocks  int
	Matches int
	// Total is the user count after the run, seeded rows included.
	Total int
}

// Seeder is the store surface Run needs.
type Seeder interface {
	WithTx(ctx context.Context, fn func(tx *store.Store) error) error
}

// Run inserts users, profiles, blocks and matches in a single transaction.
func Run(ctx context.Context, st Seeder, opts Options) (Summary, error) {
	if err := opts.validate(); err != nil {
		return Summary{}, err
	}
	r := rand.New(rand.NewSource(opts.Seed))

	pwHash, err := bcrypt.GenerateFromPassword([]byte(opts.Password), bcrypt.DefaultCost)
	if err != nil {
		return Summary{}, fmt.Errorf("bcrypt: %w", err)
	}

	var sum Summary
	err = st.WithTx(ctx, func(tx *store.Store) error {
		if opts.Truncate {
			if err := tx.Reset(ctx); err != nil {
				return err
			}
			logging.Info().Msg("truncated users, profiles, blocks, reports, matches")
		}

		ids, err := insertUsers(ctx, tx, r, opts.Count, string(pwHash))
		if err != nil {
			return fmt.Errorf("insert users: %w", err)
		}
		sum.Users = len(ids)
		logging.Info().Int("count", len(ids)).Msg("inserted users")

		if err := insertProfiles(ctx, tx, r, ids); err != nil {
			return fmt.Errorf("insert profiles: %w", err)
		}

		if sum.Blocks, err = insertBlocks(ctx, tx, r, ids, opts.BlockRate); err != nil {
			return fmt.Errorf("insert blocks: %w", err)
		}
		if sum.Matches, err = insertMatches(ctx, tx, r, ids, opts.MatchRate); err != nil {
			return fmt.Errorf("insert matches: %w", err)
		}
		if sum.Total, err = tx.CountUsers(ctx); err != nil {
			return fmt.Errorf("count users: %w", err)
		}
		return nil
	})
	if err != nil {
		return Summary{}, err
	}
	logging.Info().Int("users", sum.Users).Int("blocks", sum.Blocks).Int("matches", sum.Matches).Int("total_users", sum.Total).Msg("seed complete")
	return sum, nil
}

var testUsers = []struct {
	email, username string
	profile         store.Profile
}{
	{"user1@test.local", "user1", store.Profile{Location: "Seattle", Budget: "$800/mo", Lifestyle: "early sleeper", Smoking: "no", Pets: "cat", Cleanliness: "tidy"}},
	{"user2@test.local", "user2", store.Profile{Location: "Seattle", Budget: "750", Lifestyle: "early sleeper", Smoking: "no", Pets: "none", Cleanliness: "tidy"}},
}

func insertUsers(ctx context.Context, tx *store.Store, r *rand.Rand, n int, pwHash string) ([]int64, error) {
	used := make(map[string]struct{}, n)
	ids := make([]int64, 0, n)
	for i := 0; i < n; i++ {
		var email, username string
		if i < len(testUsers) {
			email, username = testUsers[i].email, testUsers[i].username
		} else {
			username = uniqueUsername(r, used)
			domain := []string{"example.com", "mail.test", "dev.local"}[r.Intn(3)]
			email = username + "@" + domain
		}
		u, err := tx.CreateUser(ctx, email, username, pwHash)
		if err != nil {
			return nil, fmt.Errorf("insert user %d (%s): %w", i, email, err)
		}
		ids = append(ids, u.ID)
	}
	return ids, nil
}

func uniqueUsername(r *rand.Rand, used map[string]struct{}) string {
	for {
		first := []string{"alex", "sam", "mia", "li", "noah", "olivia", "leo", "emil", "sara", "luca", "milla", "mikko", "eeva", "niklas", "sofia"}[r.Intn(15)]
		last := []string{"korhonen", "virtanen", "nieminen", "laine", "heikkinen", "koski", "maki", "aho", "salmi", "rantanen"}[r.Intn(10)]
		name := strings.ToLower(fmt.Sprintf("%s%s%d", first, last, r.Intn(10000)))
		if _, ok := used[name]; !ok {
			used[name] = struct{}{}
			return name
		}
	}
}

var (
	cities      = []string{"Seattle", "Portland", "Helsinki", "Espoo", "Tampere", "Austin", "  seattle "}
	budgets     = []string{"650", "$750/mo", "800", "$900/mo", "1,200", "low", "medium", "high budget", ""}
	lifestyles  = []string{"early sleeper", "night owl", "Early  Sleeper", "social", "quiet", "remote worker"}
	smoking     = []string{"no", "yes", "outside only", ""}
	pets        = []string{"none", "cat", "dog", "allergic", ""}
	cleanliness = []string{"tidy", "relaxed", "very tidy", ""}
)

func pick(r *rand.Rand, from []string) string {
	return from[r.Intn(len(from))]
}

func insertProfiles(ctx context.Context, tx *store.Store, r *rand.Rand, ids []int64) error {
	for i, id := range ids {
		var p store.Profile
		if i < len(testUsers) {
			p = testUsers[i].profile
		} else {
			p = store.Profile{
				Location:    pick(r, cities),
				Budget:      pick(r, budgets),
				Lifestyle:   pick(r, lifestyles),
				Smoking:     pick(r, smoking),
				Pets:        pick(r, pets),
				Cleanliness: pick(r, cleanliness),
			}
			// Some users never finish their profile.
			if r.Float64() < 0.1 {
				continue
			}
		}
		p.UserID = id
		if _, err := tx.UpsertProfile(ctx, p); err != nil {
			return fmt.Errorf("profile for user %d: %w", id, err)
		}
	}
	return nil
}

// randomOther picks a user other than ids[i], skipping the fixed test users.
func randomOther(r *rand.Rand, ids []int64, i int) (int64, bool) {
	first := len(testUsers)
	if len(ids)-first < 2 {
		return 0, false
	}
	for {
		j := first + r.Intn(len(ids)-first)
		if j != i {
			return ids[j], true
		}
	}
}

func insertBlocks(ctx context.Context, tx *store.Store, r *rand.Rand, ids []int64, rate float64) (int, error) {
	n := 0
	for i := len(testUsers); i < len(ids); i++ {
		if r.Float64() >= rate {
			continue
		}
		target, ok := randomOther(r, ids, i)
		if !ok {
			break
		}
		if err := tx.Block(ctx, ids[i], target); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

func insertMatches(ctx context.Context, tx *store.Store, r *rand.Rand, ids []int64, rate float64) (int, error) {
	n := 0
	for i := len(testUsers); i < len(ids); i++ {
		if r.Float64() >= rate {
			continue
		}
		target, ok := randomOther(r, ids, i)
		if !ok {
			break
		}
		if _, err := tx.RecordMatch(ctx, ids[i], target); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}
