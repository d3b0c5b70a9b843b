package ledger

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jask/jaskledger/internal/domain"
	"github.com/jask/jaskledger/internal/repoerr"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), OpenConfig{
		Path:        filepath.Join(t.TempDir(), "ledger.db"),
		AutoMigrate: true,
	}, Options{NotifyDebounce: 10 * time.Millisecond})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func mustAccount(t *testing.T, s *Store, tag string, balance string) domain.Account {
	t.Helper()
	a, err := s.CreateAccount(context.Background(), domain.Account{
		Name:     tag[1:],
		Tag:      tag,
		Balance:  decimal.RequireFromString(balance),
		Type:     domain.AccountCash,
		Currency: "UAH",
	})
	require.NoError(t, err)
	return a
}

func mustCategory(t *testing.T, s *Store, name string) domain.Category {
	t.Helper()
	c, err := s.CreateCategory(context.Background(), domain.Category{Name: name, Icon: "tag", Color: "#112233"})
	require.NoError(t, err)
	return c
}

func expense(acct domain.Account, amount string, cat *domain.Category) domain.Transaction {
	id := acct.ID
	t := domain.Transaction{
		Date:          time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Type:          domain.Expense,
		Amount:        decimal.RequireFromString(amount),
		Description:   "test expense",
		FromAccountID: &id,
	}
	if cat != nil {
		cid := cat.ID
		t.CategoryID = &cid
	}
	return t
}

func requireBalance(t *testing.T, s *Store, id uuid.UUID, want string) {
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

func TestOpenWithoutMigrationRequiresMigration(t *testing.T) {
	t.Parallel()

	_, err := Open(context.Background(), OpenConfig{
		Path: filepath.Join(t.TempDir(), "fresh.db"),
	}, Options{})
	requireKind(t, err, repoerr.MigrationRequired)
}

func TestOpenAfterMigrationChecksSchema(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "ledger.db")
	s, err := Open(context.Background(), OpenConfig{Path: path, AutoMigrate: true}, Options{})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(context.Background(), OpenConfig{Path: path}, Options{})
	require.NoError(t, err)
	require.NoError(t, s.Close())
}

func TestClosedStoreIsUnavailable(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	require.NoError(t, s.DB().Close())
	_, err := s.GetAllAccounts(context.Background())
	requireKind(t, err, repoerr.ContextUnavailable)
}

func TestBalanceFollowsCreateAndDelete(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestStore(t)

	cash := mustAccount(t, s, "#cash", "1000")
	tx, err := s.CreateTransaction(ctx, expense(cash, "250", nil))
	require.NoError(t, err)
	requireBalance(t, s, cash.ID, "750")

	require.NoError(t, s.DeleteTransaction(ctx, tx.ID))
	requireBalance(t, s, cash.ID, "1000")
}

func TestUpdateMovesEffectBetweenAccounts(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestStore(t)

	cash := mustAccount(t, s, "#cash", "1000")
	card := mustAccount(t, s, "#card", "500")

	tx, err := s.CreateTransaction(ctx, expense(cash, "100", nil))
	require.NoError(t, err)

	tx.FromAccountID = &card.ID
	tx.Amount = decimal.RequireFromString("40.5")
	updated, err := s.UpdateTransaction(ctx, tx)
	require.NoError(t, err)
	require.Equal(t, tx.CreatedAt, updated.CreatedAt)
	requireBalance(t, s, cash.ID, "1000")
	requireBalance(t, s, card.ID, "459.5")

	// Income credits the to-account.
	updated.Type = domain.Income
	updated.FromAccountID = nil
	updated.ToAccountID = &card.ID
	_, err = s.UpdateTransaction(ctx, updated)
	require.NoError(t, err)
	requireBalance(t, s, card.ID, "540.5")
}

func TestTransferTouchesBothAccounts(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestStore(t)

	cash := mustAccount(t, s, "#cash", "100")
	card := mustAccount(t, s, "#card", "0")

	out := expense(cash, "30", nil)
	out.Type = domain.TransferOut
	out.ToAccountID = &card.ID
	_, err := s.CreateTransaction(ctx, out)
	require.NoError(t, err)

	in := out
	in.Type = domain.TransferIn
	_, err = s.CreateTransaction(ctx, in)
	require.NoError(t, err)

	requireBalance(t, s, cash.ID, "70")
	requireBalance(t, s, card.ID, "30")

	onCash, err := s.GetTransactions(ctx, domain.TransactionFilter{AccountID: &cash.ID})
	require.NoError(t, err)
	require.Len(t, onCash, 1)
	require.Equal(t, domain.TransferOut, onCash[0].Type)

	onCard, err := s.GetTransactions(ctx, domain.TransactionFilter{AccountID: &card.ID})
	require.NoError(t, err)
	require.Len(t, onCard, 1)
	require.Equal(t, domain.TransferIn, onCard[0].Type)
}

func TestFailedCreateLeavesBalance(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestStore(t)

	cash := mustAccount(t, s, "#cash", "100")
	bad := expense(cash, "10", nil)
	missing := uuid.New()
	bad.CategoryID = &missing
	_, err := s.CreateTransaction(ctx, bad)
	requireKind(t, err, repoerr.InvalidData)
	requireBalance(t, s, cash.ID, "100")

	_, err = s.UpdateTransaction(ctx, expense(cash, "10", nil))
	requireKind(t, err, repoerr.EntityNotFound)
	requireKind(t, s.DeleteTransaction(ctx, uuid.New()), repoerr.EntityNotFound)
	requireBalance(t, s, cash.ID, "100")
}

func TestTransactionValidation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestStore(t)
	cash := mustAccount(t, s, "#cash", "0")

	cases := []struct {
		name   string
		mutate func(*domain.Transaction)
	}{
		{"negative", func(t *domain.Transaction) { t.Amount = decimal.RequireFromString("-1") }},
		{"zero", func(t *domain.Transaction) { t.Amount = decimal.Zero }},
		{"too precise", func(t *domain.Transaction) { t.Amount = decimal.RequireFromString("0.000000001") }},
		{"no account", func(t *domain.Transaction) { t.FromAccountID = nil }},
		{"unknown type", func(t *domain.Transaction) { t.Type = "refund" }},
		{"no date", func(t *domain.Transaction) { t.Date = time.Time{} }},
		{"blank merchant", func(t *domain.Transaction) { m := "  "; t.MerchantName = &m }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tx := expense(cash, "10", nil)
			tc.mutate(&tx)
			_, err := s.CreateTransaction(ctx, tx)
			requireKind(t, err, repoerr.InvalidData)
		})
	}
	requireBalance(t, s, cash.ID, "0")
}

func TestCreateDuplicateIDConflicts(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestStore(t)
	cash := mustAccount(t, s, "#cash", "0")

	tx, err := s.CreateTransaction(ctx, expense(cash, "5", nil))
	require.NoError(t, err)
	_, err = s.CreateTransaction(ctx, tx)
	requireKind(t, err, repoerr.ConflictDetected)
	requireBalance(t, s, cash.ID, "-5")
}

func TestGetTransactionsFilters(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestStore(t)

	cash := mustAccount(t, s, "#cash", "0")
	card := mustAccount(t, s, "#card", "0")
	food := mustCategory(t, s, "food")

	early := expense(cash, "1", &food)
	early.Date = time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	late := expense(card, "2", nil)
	late.Date = time.Date(2026, 2, 5, 0, 0, 0, 0, time.UTC)
	for _, tx := range []domain.Transaction{early, late} {
		_, err := s.CreateTransaction(ctx, tx)
		require.NoError(t, err)
	}

	all, err := s.GetAllTransactions(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.True(t, all[0].Date.After(all[1].Date), "newest first")

	byAcct, err := s.GetTransactions(ctx, domain.TransactionFilter{AccountID: &card.ID})
	require.NoError(t, err)
	require.Len(t, byAcct, 1)

	byCat, err := s.GetTransactions(ctx, domain.TransactionFilter{CategoryID: &food.ID})
	require.NoError(t, err)
	require.Len(t, byCat, 1)
	require.Equal(t, cash.ID, *byCat[0].FromAccountID)

	byDate, err := s.GetTransactions(ctx, domain.TransactionFilter{From: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)})
	require.NoError(t, err)
	require.Len(t, byDate, 1)
	require.Equal(t, card.ID, *byDate[0].FromAccountID)
}
