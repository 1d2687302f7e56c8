package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// UnitOfWork is the scoped transaction primitive every mutating
// operation of the booking engine runs through: acquire a tx, run the
// protocol, commit or roll back on every exit path.  Having one
// reusable primitive keeps the rollback guarantee out of the
// individual operations.
type UnitOfWork struct {
	db *sql.DB
}

// NewUnitOfWork binds the unit of work to a database handle.
func NewUnitOfWork(db *sql.DB) *UnitOfWork { return &UnitOfWork{db: db} }

// Run executes fn inside a transaction.  The transaction is rolled
// back when fn returns an error or panics, and committed otherwise.
// The error returned by fn is passed through unchanged so callers can
// match sentinel values with errors.Is, except that InnoDB
// deadlock/lock-wait aborts are mapped to ErrLockContention; those
// can surface from any statement of the transaction, so classifying
// them here covers every write path at once.
func (u *UnitOfWork) Run(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := u.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(tx); err != nil {
		return wrapLockContention(err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", wrapLockContention(err))
	}
	committed = true
	return nil
}
