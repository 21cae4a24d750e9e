package postgres

import (
	"context"
	_ "embed"
	"fmt"
)

//go:embed schema.sql
var schema string

// Migrate creates the tables and uniqueness indexes if they are missing. It
// is safe to run on every start.
func (s *Store) Migrate(ctx context.Context) error {
	const op = "postgres.Store.Migrate"

	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
