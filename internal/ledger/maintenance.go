package ledger

import (
	"context"
	"fmt"

	"github.com/jask/jaskledger/internal/repoerr"
)

// userTables are wiped by Reset, dependents first. Settings survive.
var userTables = []string{
	"pending_transactions",
	"learned_corrections",
	"transactions",
	"categories",
	"accounts",
}

// Reset deletes all user data in one unit of work, keeping the schema and
// persisted settings.
func (s *Store) Reset(ctx context.Context) error {
	return s.mutate(ctx, "reset", true, func(u *unit) error {
		for _, t := range userTables {
			if _, err := u.q.ExecContext(ctx, "DELETE FROM "+t); err != nil {
				return repoerr.Save(t, fmt.Errorf("reset table %s: %w", t, err))
			}
		}
		return nil
	})
}
