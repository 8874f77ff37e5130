package store

import (
	"context"
	"fmt"
	"strings"
)

func (s *Store) schema() []string {
	pk, integer := "INTEGER PRIMARY KEY AUTOINCREMENT", "INTEGER"
	if s.dialect == dialectPostgres {
		pk, integer = "BIGSERIAL PRIMARY KEY", "BIGINT"
	}
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id            {pk},
			email         TEXT NOT NULL UNIQUE,
			username      TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			created_at    {int} NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS profiles (
			user_id     {int} PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
			location    TEXT NOT NULL DEFAULT '',
			budget      TEXT NOT NULL DEFAULT '',
			lifestyle   TEXT NOT NULL DEFAULT '',
			smoking     TEXT NOT NULL DEFAULT '',
			pets        TEXT NOT NULL DEFAULT '',
			cleanliness TEXT NOT NULL DEFAULT '',
			weights     TEXT,
			updated_at  {int} NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS blocks (
			user_id         {int} NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			blocked_user_id {int} NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			created_at      {int} NOT NULL,
			PRIMARY KEY (user_id, blocked_user_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_blocks_blocked ON blocks(blocked_user_id)`,
		`CREATE TABLE IF NOT EXISTS reports (
			id               {pk},
			reporter_id      {int} NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			reported_user_id {int} NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			reason           TEXT NOT NULL DEFAULT '',
			created_at       {int} NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS matches (
			id              {pk},
			user_id         {int} NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			matched_user_id {int} NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			created_at      {int} NOT NULL,
			UNIQUE (user_id, matched_user_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_matches_created ON matches(created_at)`,
	}
	r := strings.NewReplacer("{pk}", pk, "{int}", integer)
	for i, stmt := range stmts {
		stmts[i] = r.Replace(stmt)
	}
	return stmts
}

// Migrate creates the tables and indexes if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range s.schema() {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate %s: %w", s.dialect, err)
		}
	}
	return nil
}
