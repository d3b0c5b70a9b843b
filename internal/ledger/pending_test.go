package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jask/jaskledger/internal/domain"
	"github.com/jask/jaskledger/internal/repoerr"
)

func pendingFor(acct domain.Account, bankID string) domain.PendingTransaction {
	merchant := "Сільпо"
	return domain.PendingTransaction{
		BankTransactionID: bankID,
		Amount:            decimal.RequireFromString("120.40"),
		Description:       "SILPO KYIV",
		MerchantName:      &merchant,
		Date:              time.Date(2026, 4, 2, 9, 30, 0, 0, time.UTC),
		Type:              domain.Expense,
		AccountID:         acct.ID,
		Confidence:        0.85,
	}
}

func TestProcessPendingTwice(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestStore(t)

	cash := mustAccount(t, s, "#cash", "500")
	p, err := s.CreatePendingTransaction(ctx, pendingFor(cash, "b-1"))
	require.NoError(t, err)
	require.Equal(t, domain.PendingOpen, p.Status)

	created, err := s.ProcessPendingTransaction(ctx, p.ID, p.ToTransaction(nil))
	require.NoError(t, err)
	requireBalance(t, s, cash.ID, "379.60")

	_, err = s.ProcessPendingTransaction(ctx, p.ID, p.ToTransaction(nil))
	requireKind(t, err, repoerr.EntityNotFound)
	requireKind(t, s.DismissPendingTransaction(ctx, p.ID), repoerr.EntityNotFound)

	all, err := s.GetAllTransactions(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	require.Equal(t, created.ID, all[0].ID)
	requireBalance(t, s, cash.ID, "379.60")

	_, err = s.GetPendingTransaction(ctx, p.ID)
	requireKind(t, err, repoerr.EntityNotFound)
	open, err := s.GetPendingTransactions(ctx, nil)
	require.NoError(t, err)
	require.Empty(t, open)
}

func TestProcessPendingFailureKeepsRecordOpen(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestStore(t)

	cash := mustAccount(t, s, "#cash", "0")
	p, err := s.CreatePendingTransaction(ctx, pendingFor(cash, "b-1"))
	require.NoError(t, err)

	bad := p.ToTransaction(nil)
	bad.Amount = decimal.Zero
	_, err = s.ProcessPendingTransaction(ctx, p.ID, bad)
	requireKind(t, err, repoerr.InvalidData)

	still, err := s.GetPendingTransaction(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, p.ID, still.ID)
	requireBalance(t, s, cash.ID, "0")
}

func TestPendingListAndDismiss(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestStore(t)

	cash := mustAccount(t, s, "#cash", "0")
	card := mustAccount(t, s, "#card", "0")
	a, err := s.CreatePendingTransaction(ctx, pendingFor(cash, "b-1"))
	require.NoError(t, err)
	_, err = s.CreatePendingTransaction(ctx, pendingFor(card, "b-2"))
	require.NoError(t, err)

	forCash, err := s.GetPendingTransactions(ctx, &cash.ID)
	require.NoError(t, err)
	require.Len(t, forCash, 1)
	allOpen, err := s.GetPendingTransactions(ctx, nil)
	require.NoError(t, err)
	require.Len(t, allOpen, 2)

	exists, err := s.PendingBankIDExists(ctx, "b-1")
	require.NoError(t, err)
	require.True(t, exists)

	require.NoError(t, s.DismissPendingTransaction(ctx, a.ID))
	exists, err = s.PendingBankIDExists(ctx, "b-1")
	require.NoError(t, err)
	require.True(t, exists, "dismissed tombstone still blocks re-import")

	txs, err := s.GetAllTransactions(ctx)
	require.NoError(t, err)
	require.Empty(t, txs)

	n, err := s.PurgeTransitioned(ctx, time.Now().Add(time.Hour))
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	exists, err = s.PendingBankIDExists(ctx, "b-1")
	require.NoError(t, err)
	require.False(t, exists)
}

func TestPendingValidation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestStore(t)
	cash := mustAccount(t, s, "#cash", "0")

	p := pendingFor(cash, " ")
	_, err := s.CreatePendingTransaction(ctx, p)
	requireKind(t, err, repoerr.InvalidData)

	p = pendingFor(cash, "b-1")
	p.Confidence = 1.5
	_, err = s.CreatePendingTransaction(ctx, p)
	requireKind(t, err, repoerr.InvalidData)

	p = pendingFor(domain.Account{ID: uuid.New()}, "b-1")
	_, err = s.CreatePendingTransaction(ctx, p)
	requireKind(t, err, repoerr.InvalidData)
}

func TestLearnedCorrectionsAndSettings(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.SaveLearnedCorrection(ctx, domain.LearnedCorrection{Key: "сільпо", Source: domain.FromMerchant, CategoryName: "Продукти"}))
	require.NoError(t, s.SaveLearnedCorrection(ctx, domain.LearnedCorrection{Key: "сільпо", Source: domain.FromMerchant, CategoryName: "Продукти"}))
	requireKind(t, s.SaveLearnedCorrection(ctx, domain.LearnedCorrection{Key: " "}), repoerr.InvalidData)

	list, err := s.LearnedCorrections(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	mustCategory(t, s, "Продукти")
	res, err := s.RenameCategoryKey(ctx, "Продукти", domain.KeyGroceries)
	require.NoError(t, err)
	require.True(t, res.Category)
	require.EqualValues(t, 1, res.Corrections)

	list, err = s.LearnedCorrections(ctx)
	require.NoError(t, err)
	require.Equal(t, domain.KeyGroceries, list[0].CategoryName)

	_, ok, err := s.GetSetting(ctx, "flag")
	require.NoError(t, err)
	require.False(t, ok)
	require.NoError(t, s.SetSetting(ctx, "flag", "1"))
	v, ok, err := s.GetSetting(ctx, "flag")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "1", v)
}
