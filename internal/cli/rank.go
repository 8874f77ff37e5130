package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/roomsync/roommate-finder/internal/logging"
	"github.com/roomsync/roommate-finder/internal/matching"
)

type rankFlags struct {
	me         string
	candidates string
	weights    string
	top        int
	require    []string
}

type rankedEntry struct {
	Profile         matching.Profile `json:"profile"`
	Score           int              `json:"score"`
	ScorePercentage float64          `json:"score_percentage"`
}

// newRankCmd ranks profiles from JSON files without touching a database.
//
//	roommate rank --me me.json --candidates others.json --top 5 --require location
func newRankCmd() *cobra.Command {
	var f rankFlags
	cmd := &cobra.Command{
		Use:   "rank",
		Short: "Rank candidate profiles from JSON files against one profile",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logging.Init(logging.Config{Level: logLevelOr("warn"), Format: "console", Output: cmd.ErrOrStderr()})

			var meFields map[string]any
			if err := readJSON(f.me, &meFields); err != nil {
				return err
			}
			var candFields []map[string]any
			if err := readJSON(f.candidates, &candFields); err != nil {
				return err
			}

			var weights matching.Weights
			if f.weights != "" {
				if err := readJSON(f.weights, &weights); err != nil {
					return err
				}
				if err := weights.Validate(); err != nil {
					return fmt.Errorf("weights: %w", err)
				}
			}
			for _, key := range f.require {
				if !matching.IsField(key) {
					return fmt.Errorf("unknown required key %q (known: %s)", key, strings.Join(matching.Fields(), ", "))
				}
			}

			me := toProfile(meFields, "me")
			pool := make([]matching.Profile, 0, len(candFields))
			for i, fields := range candFields {
				pool = append(pool, toProfile(fields, fmt.Sprintf("candidate %d", i)))
			}

			ranked := matching.Rank(me, pool, matching.RankOptions{Weights: weights, TopK: f.top, Required: f.require})
			out := make([]rankedEntry, 0, len(ranked))
			for _, s := range ranked {
				out = append(out, rankedEntry{Profile: s.Profile, Score: s.Score, ScorePercentage: matching.Percent(s.Score, weights)})
			}

			b, err := json.MarshalIndent(out, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(b))
			return nil
		},
	}
	cmd.Flags().StringVar(&f.me, "me", "", "JSON object with the requesting profile")
	cmd.Flags().StringVar(&f.candidates, "candidates", "", "JSON array of candidate profiles")
	cmd.Flags().StringVar(&f.weights, "weights", "", "JSON object overriding the default weights")
	cmd.Flags().IntVar(&f.top, "top", 0, "Keep only the best N candidates (0 keeps all)")
	cmd.Flags().StringSliceVar(&f.require, "require", nil, "Drop candidates missing any of these fields")
	_ = cmd.MarkFlagRequired("me")
	_ = cmd.MarkFlagRequired("candidates")
	return cmd
}

func logLevelOr(fallback string) string {
	if logLevel != "" {
		return logLevel
	}
	return fallback
}

func readJSON(path string, dst any) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func toProfile(fields map[string]any, label string) matching.Profile {
	p, unknown := matching.FromFields(fields)
	if len(unknown) > 0 {
		logging.Warn().Str("profile", label).Strs("ignored", unknown).Msg("ignoring unrecognized fields")
	}
	return p
}
