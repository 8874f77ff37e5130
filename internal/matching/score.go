package matching

import (
	"fmt"
	"math"
	"sort"
)

// Criterion names a scored dimension of a profile.
type Criterion string

const (
	Location    Criterion = FieldLocation
	Budget      Criterion = FieldBudget
	Lifestyle   Criterion = FieldLifestyle
	Smoking     Criterion = FieldSmoking
	Pets        Criterion = FieldPets
	Cleanliness Criterion = FieldCleanliness
)

// Criteria lists every recognized criterion in scoring order.
func Criteria() []Criterion {
	return []Criterion{Location, Budget, Lifestyle, Smoking, Pets, Cleanliness}
}

// Weights maps criteria to non-negative weights. A nil or empty Weights means
// "use DefaultWeights".
type Weights map[Criterion]float64

// DefaultWeights returns the stock configuration. The optional extras
// (smoking, pets, cleanliness) are off.
func DefaultWeights() Weights {
	return Weights{
		Location:  40,
		Budget:    30,
		Lifestyle: 30,
	}
}

// orDefault resolves the "no override" case.
func (w Weights) orDefault() Weights {
	if len(w) == 0 {
		return DefaultWeights()
	}
	return w
}

// Validate rejects unknown criteria and negative or non-finite weights.
func (w Weights) Validate() error {
	known := make(map[Criterion]bool, len(Criteria()))
	for _, c := range Criteria() {
		known[c] = true
	}
	keys := make([]string, 0, len(w))
	for c := range w {
		keys = append(keys, string(c))
	}
	sort.Strings(keys)
	for _, k := range keys {
		c := Criterion(k)
		if !known[c] {
			return fmt.Errorf("unknown criterion %q", k)
		}
		if v := w[c]; v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("criterion %q: weight must be a non-negative number, got %v", k, v)
		}
	}
	return nil
}

// Total is the highest raw score the weights can produce.
func (w Weights) Total() float64 {
	total := 0.0
	for _, v := range w.orDefault() {
		if v > 0 {
			total += v
		}
	}
	return total
}

// Percent expresses score as a share (0-100) of the best score achievable
// under w. It is a display helper and never feeds back into ranking.
func Percent(score int, w Weights) float64 {
	total := w.Total()
	if total == 0 {
		return 0
	}
	pct := float64(score) * 100 / total
	if pct > 100 {
		pct = 100
	}
	return pct
}

// Score computes the weighted compatibility of other for me.
//
// Text criteria add their weight only when both normalized values are
// non-empty and equal. Budget adds its weight whenever both values land in
// the same bucket, and that includes two unknown buckets: a profile with no
// budget matches another profile with no budget. The override, when given,
// is used as-is with no rescaling.
func Score(me, other Profile, w Weights) int {
	w = w.orDefault()
	score := 0.0

	for _, c := range Criteria() {
		weight := w[c]
		if weight <= 0 {
			continue
		}
		mine, theirs := Field(me, string(c)), Field(other, string(c))
		if c == Budget {
			if BucketBudget(mine) == BucketBudget(theirs) {
				score += weight
			}
			continue
		}
		a, b := Normalize(mine), Normalize(theirs)
		if a != "" && b != "" && a == b {
			score += weight
		}
	}

	return int(math.Round(score))
}
