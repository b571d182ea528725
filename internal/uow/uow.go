package uow

import (
	"context"

	"github.com/jackc/pgx/v5"

	postgres "github.com/altavia/airways/internal/repository/postgres"
)

// AfterCommit is a function that runs after a successful transaction commit.
// Cache invalidation and change notifications go here so they never fire for
// a rolled-back purchase.
type AfterCommit func(ctx context.Context)

// UoW represents a unit of work: one database transaction per operation,
// handed to the closure as a scoped handle.
type UoW struct {
	store *postgres.Store
}

func NewUoW(store *postgres.Store) *UoW {
	return &UoW{store: store}
}

// Do runs fn inside the transaction. After a successful commit,
// it executes all after-commit hooks.
func (u *UoW) Do(
	ctx context.Context,
	fn func(ctx context.Context, tx postgres.DB, after func(AfterCommit)) error,
) error {
	return u.DoWithOpts(ctx, nil, fn)
}

// maxAttempts bounds the serialization-failure retries. Serializable
// transactions lose to 40001 under contention and are safe to rerun as a
// whole.
const maxAttempts = 3

// DoWithOpts runs fn inside the transaction with the given options, retrying
// the whole transaction on serialization failures. After a successful commit,
// it executes all after-commit hooks.
func (u *UoW) DoWithOpts(
	ctx context.Context,
	opts *pgx.TxOptions,
	fn func(ctx context.Context, tx postgres.DB, after func(AfterCommit)) error,
) error {
	var err error

	for attempt := 0; attempt < maxAttempts; attempt++ {
		var hooks []AfterCommit

		err = u.store.RunTx(ctx, opts, func(ctx context.Context, tx postgres.DB) error {
			return fn(ctx, tx, func(h AfterCommit) {
				hooks = append(hooks, h)
			})
		})
		if err == nil {
			for _, h := range hooks {
				h(ctx)
			}
			return nil
		}

		if !postgres.IsRetryable(err) || ctx.Err() != nil {
			return err
		}
	}

	return err
}
