package matching

import "sort"

// RankOptions tunes a Rank call. The zero value ranks every candidate with
// DefaultWeights.
type RankOptions struct {
	// Weights overrides DefaultWeights when non-empty.
	Weights Weights
	// TopK truncates the result. Zero or negative keeps everything.
	TopK int
	// Required drops candidates whose value for any listed field normalizes
	// to the empty string.
	Required []string
}

// Scored pairs a candidate with its compatibility score.
type Scored struct {
	Profile Profile `json:"profile"`
	Score   int     `json:"score"`
}

// Rank scores every eligible candidate against me and returns them best
// first. Equal scores are ordered by normalized username (or user id when
// the username is empty) and finally by the full profile rendering, so the
// output does not depend on the order candidates were passed in.
func Rank(me Profile, candidates []Profile, opts RankOptions) []Scored {
	scored := make([]Scored, 0, len(candidates))
	for _, c := range candidates {
		if !hasRequired(c, opts.Required) {
			continue
		}
		scored = append(scored, Scored{Profile: c, Score: Score(me, c, opts.Weights)})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		a, b := scored[i], scored[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		ka, kb := identityKey(a.Profile), identityKey(b.Profile)
		if ka != kb {
			return ka < kb
		}
		return a.Profile.String() < b.Profile.String()
	})

	if opts.TopK > 0 && len(scored) > opts.TopK {
		scored = scored[:opts.TopK]
	}
	return scored
}

func hasRequired(p Profile, keys []string) bool {
	for _, k := range keys {
		if Normalize(Field(p, k)) == "" {
			return false
		}
	}
	return true
}

func identityKey(p Profile) string {
	if name := Normalize(p.Username); name != "" {
		return name
	}
	return p.UserID
}
