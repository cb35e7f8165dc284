package repos

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// UnitOfWork is the transaction boundary of one ledger operation.
type UnitOfWork struct{ db *sqlx.DB }

func NewUnitOfWork(db *sqlx.DB) *UnitOfWork { return &UnitOfWork{db: db} }

type txState struct {
	tx          *sqlx.Tx
	afterCommit []func()
}

// Run executes fn inside a transaction carried by the context. A Run nested inside another
// joins the outer transaction, so only the outermost call commits.
// fn must route every query through the ctx it receives.
func (u *UnitOfWork) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*txState); ok {
		return fn(ctx)
	}
	tx, err := u.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	st := &txState{tx: tx}
	if err := fn(context.WithValue(ctx, txKey{}, st)); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	for _, f := range st.afterCommit {
		f()
	}
	return nil
}

// AfterCommit defers f until the outermost transaction in ctx commits. Outside a
// transaction f runs immediately. f is dropped on rollback.
func AfterCommit(ctx context.Context, f func()) {
	if st, ok := ctx.Value(txKey{}).(*txState); ok {
		st.afterCommit = append(st.afterCommit, f)
		return
	}
	f()
}

// InTx reports whether ctx carries a transaction.
func InTx(ctx context.Context) bool {
	_, ok := ctx.Value(txKey{}).(*txState)
	return ok
}
