package store

import (
	"errors"
	"strings"

	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var (
	ErrNotFound       = errors.New("store: not found")
	ErrEmailTaken     = errors.New("store: email already registered")
	ErrUsernameTaken  = errors.New("store: username already taken")
	ErrSelfReference  = errors.New("store: user cannot target themselves")
	ErrInvalidWeights = errors.New("store: stored weights are not valid JSON")
)

// constraintError classifies driver errors. It returns "unique" or "foreign"
// along with the driver message, or "" when err is not a constraint error.
func constraintError(err error) (kind, msg string) {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code.Name() {
		case "unique_violation":
			return "unique", pqErr.Constraint + " " + pqErr.Message
		case "foreign_key_violation":
			return "foreign", pqErr.Message
		}
		return "", ""
	}

	var sqErr *sqlite.Error
	if errors.As(err, &sqErr) {
		switch sqErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return "unique", sqErr.Error()
		case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
			return "foreign", sqErr.Error()
		}
		if sqErr.Code()&0xff == sqlite3.SQLITE_CONSTRAINT {
			m := sqErr.Error()
			switch {
			case strings.Contains(m, "UNIQUE"):
				return "unique", m
			case strings.Contains(m, "FOREIGN KEY"):
				return "foreign", m
			}
		}
	}
	return "", ""
}

// userConflict maps a unique violation on users to the matching sentinel.
func userConflict(err error) error {
	kind, msg := constraintError(err)
	if kind != "unique" {
		return nil
	}
	if strings.Contains(msg, "username") {
		return ErrUsernameTaken
	}
	return ErrEmailTaken
}

func isForeignKeyViolation(err error) bool {
	kind, _ := constraintError(err)
	return kind == "foreign"
}
