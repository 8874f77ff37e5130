package matching

import (
	"regexp"
	"strconv"
	"strings"
)

// Normalize lower-cases s, trims it and collapses internal whitespace runs to
// a single space. It is the equality key for every free-text comparison.
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// Bucket is a coarse budget category.
type Bucket string

const (
	BucketLow     Bucket = "low"
	BucketMid     Bucket = "mid"
	BucketHigh    Bucket = "high"
	BucketUnknown Bucket = "unknown"
)

// Bucket thresholds, in the same currency unit the user typed.
const (
	midBudgetFloor  = 700
	highBudgetFloor = 900
)

// First run of digits. Thousands groups ("1,200") and one decimal fraction
// stay inside the run.
var amountPattern = regexp.MustCompile(`\d+(?:,\d{3})*(?:\.\d+)?`)

// BudgetAmount extracts the first numeric amount embedded in a budget value
// such as "$900/mo". ok is false when the value carries no digits.
func BudgetAmount(value string) (amount float64, ok bool) {
	m := amountPattern.FindString(value)
	if m == "" {
		return 0, false
	}
	n, err := strconv.ParseFloat(strings.ReplaceAll(m, ",", ""), 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// BucketBudget classifies a raw budget value. A recoverable amount always
// wins; keywords are only consulted when the value has no digits at all.
func BucketBudget(value string) Bucket {
	if n, ok := BudgetAmount(value); ok {
		switch {
		case n < midBudgetFloor:
			return BucketLow
		case n < highBudgetFloor:
			return BucketMid
		default:
			return BucketHigh
		}
	}

	b := Normalize(value)
	switch {
	case b == "":
		return BucketUnknown
	case strings.Contains(b, "low"):
		return BucketLow
	case strings.Contains(b, "mid"), strings.Contains(b, "medium"):
		return BucketMid
	case strings.Contains(b, "high"):
		return BucketHigh
	}
	return BucketUnknown
}
