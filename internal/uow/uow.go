package uow

import (
	"context"
	"errors"

	"github.com/kirinyoku/tixcore/internal/repository"
)

const maxAttempts = 3

// AfterCommit is a function that runs after a successful transaction commit.
type AfterCommit func(ctx context.Context)

// UoW represents a unit of work.
type UoW struct {
	store repository.Store
}

func NewUoW(store repository.Store) *UoW {
	return &UoW{store: store}
}

// Do runs fn inside the transaction. After a successful commit,
// it executes all after-commit hooks. A transaction that loses a
// serialization race is replayed from scratch a bounded number of times.
func (u *UoW) Do(
	ctx context.Context,
	fn func(ctx context.Context, tx repository.Repos, after func(AfterCommit)) error,
) error {
	var err error

	for attempt := 0; attempt < maxAttempts; attempt++ {
		var hooks []AfterCommit

		err = u.store.WithinTx(ctx, func(ctx context.Context, tx repository.Repos) error {
			return fn(ctx, tx, func(h AfterCommit) {
				hooks = append(hooks, h)
			})
		})
		if errors.Is(err, repository.ErrTxConflict) && ctx.Err() == nil {
			continue
		}
		if err != nil {
			return err
		}

		for _, h := range hooks {
			h(ctx)
		}

		return nil
	}

	return err
}
