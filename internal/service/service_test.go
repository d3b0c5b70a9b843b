package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jask/jaskledger/internal/database"
	"github.com/jask/jaskledger/internal/domain"
	"github.com/jask/jaskledger/internal/ledger"
	"github.com/jask/jaskledger/internal/repoerr"
)

func newTestStore(t *testing.T) *ledger.Store {
	t.Helper()
	s, err := ledger.Open(context.Background(), ledger.OpenConfig{
		Path:        filepath.Join(t.TempDir(), "ledger.db"),
		AutoMigrate: true,
	}, ledger.Options{NotifyDebounce: 10 * time.Millisecond, Logger: zerolog.Nop()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// newSeededStore adds the default categories and the #cash account.
func newSeededStore(t *testing.T) (*ledger.Store, domain.Account) {
	t.Helper()
	s := newTestStore(t)
	require.NoError(t, database.SeedDefaults(context.Background(), s.DB(), "UAH"))
	cash, err := s.GetDefaultAccount(context.Background())
	require.NoError(t, err)
	return s, cash
}

func categoryNamed(t *testing.T, s *ledger.Store, name string) domain.Category {
	t.Helper()
	cats, err := s.GetAllCategories(context.Background())
	require.NoError(t, err)
	c, ok := domain.ResolveCategory(name, cats)
	require.True(t, ok, "no category %q", name)
	return c
}

func newExpense(acct domain.Account, amount, description string) domain.Transaction {
	id := acct.ID
	return domain.Transaction{
		Date:          time.Date(2026, 5, 10, 18, 0, 0, 0, time.UTC),
		Type:          domain.Expense,
		Amount:        decimal.RequireFromString(amount),
		Description:   description,
		FromAccountID: &id,
	}
}

func requireBalance(t *testing.T, s *ledger.Store, id uuid.UUID, want string) {
	t.Helper()
	a, err := s.GetAccount(context.Background(), id)
	require.NoError(t, err)
	require.True(t, decimal.RequireFromString(want).Equal(a.Balance), "balance %s, want %s", a.Balance, want)
}

func requireKind(t *testing.T, err error, want repoerr.Kind) {
	t.Helper()
	require.Error(t, err)
	got, ok := repoerr.KindOf(err)
	require.True(t, ok, "untyped error %v", err)
	require.Equal(t, want, got, "error: %v", err)
}

func ptr[T any](v T) *T { return &v }
