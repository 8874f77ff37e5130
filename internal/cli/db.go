package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/roomsync/roommate-finder/internal/seed"
	"github.com/roomsync/roommate-finder/internal/sweeper"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the database schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			st, err := openStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer st.Close()
			fmt.Fprintf(cmd.OutOrStdout(), "schema ready (%s)\n", st.Dialect())
			return nil
		},
	}
}

func newSeedCmd() *cobra.Command {
	opts := seed.DefaultOptions()
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert deterministic fake users and profiles",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			st, err := openStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			sum, err := seed.Run(cmd.Context(), st, opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d users, %d blocks, %d matches (%d users total)\n", sum.Users, sum.Blocks, sum.Matches, sum.Total)
			return nil
		},
	}
	f := cmd.Flags()
	f.IntVar(&opts.Count, "count", opts.Count, "Number of users to create")
	f.Int64Var(&opts.Seed, "seed", opts.Seed, "RNG seed (deterministic)")
	f.BoolVar(&opts.Truncate, "truncate", opts.Truncate, "Delete existing rows before seeding")
	f.Float64Var(&opts.BlockRate, "block-rate", opts.BlockRate, "Chance per user of blocking someone (0..1)")
	f.Float64Var(&opts.MatchRate, "match-rate", opts.MatchRate, "Chance per user of matching someone (0..1)")
	f.StringVar(&opts.Password, "password", opts.Password, "Password assigned to all users")
	return cmd
}

func newPurgeCmd() *cobra.Command {
	var retention time.Duration
	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete profiles whose match is older than the retention window",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if retention <= 0 {
				retention = cfg.Sweeper.Retention
			}
			st, err := openStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			n, err := sweeper.New(st, cfg.Sweeper.Interval, retention).RunOnce(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "purged %d profiles\n", n)
			return nil
		},
	}
	cmd.Flags().DurationVar(&retention, "retention", 0, "Override the configured retention (e.g. 240h)")
	return cmd
}
