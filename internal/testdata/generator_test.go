package testdata

import (
	"context"
	"math/rand"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jask/jaskledger/internal/database"
	"github.com/jask/jaskledger/internal/domain"
	"github.com/jask/jaskledger/internal/ledger"
)

func TestSeedKeepsBalanceConsistent(t *testing.T) {
	ctx := context.Background()
	s, err := ledger.Open(ctx, ledger.OpenConfig{
		Path:        filepath.Join(t.TempDir(), "ledger.db"),
		AutoMigrate: true,
	}, ledger.Options{Logger: zerolog.Nop()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, database.SeedDefaults(ctx, s.DB(), "UAH"))

	res, err := Seed(ctx, s, rand.New(rand.NewSource(7)), Options{
		Transactions: 40,
		Splits:       3,
		Pending:      5,
		Now:          time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.Len(t, res.Transactions, 40)
	require.Len(t, res.Pending, 5)

	want := decimal.Zero
	parents := 0
	for _, tx := range res.Transactions {
		if tx.IsSplitParent {
			parents++
			require.Len(t, tx.Splits, 2)
		}
		if tx.Type.Debits() {
			want = want.Sub(tx.EffectiveAmount())
		} else {
			want = want.Add(tx.EffectiveAmount())
		}
	}
	require.Equal(t, 3, parents)

	acct, err := s.GetAccount(ctx, res.Account.ID)
	require.NoError(t, err)
	require.True(t, acct.Balance.Equal(want), "balance %s, want %s", acct.Balance, want)

	open, err := s.GetPendingTransactions(ctx, &res.Account.ID)
	require.NoError(t, err)
	require.Len(t, open, 5)

	all, err := s.GetTransactions(ctx, domain.TransactionFilter{AccountID: &res.Account.ID})
	require.NoError(t, err)
	require.Len(t, all, 40)
}
