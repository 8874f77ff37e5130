package store

import (
	"context"
	"database/sql"
)

// WithTx runs fn inside a transaction. The Store passed to fn is bound to the
// transaction and must be used for every query in fn. The transaction is
// rolled back if fn returns an error or panics. Nested calls reuse the outer
// transaction.
func (s *Store) WithTx(ctx context.Context, fn func(tx *Store) error) error {
	if s.inTx {
		return fn(s)
	}

	opts := &sql.TxOptions{}
	if s.dialect == dialectPostgres {
		opts.Isolation = sql.LevelReadCommitted
	}
	tx, err := s.db.BeginTx(ctx, opts)
	if err != nil {
		return err
	}

	defer func() {
		// If the callback panics, make sure to rollback before re-panicking
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	txStore := &Store{db: s.db, q: tx, dialect: s.dialect, inTx: true, now: s.now}
	if err := fn(txStore); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
