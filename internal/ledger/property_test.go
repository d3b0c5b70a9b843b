package ledger

import (
	"context"
	"math/rand"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jask/jaskledger/internal/domain"
)

// TestBalanceInvariantUnderRandomEdits drives a fixed-seed mix of creates,
// updates, deletes and doomed batches, then checks every balance against the
// history it should be a projection of.
func TestBalanceInvariantUnderRandomEdits(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestStore(t)
	r := rand.New(rand.NewSource(42))

	accts := []domain.Account{
		mustAccount(t, s, "#cash", "1000"),
		mustAccount(t, s, "#card", "250.50"),
		mustAccount(t, s, "#save", "0"),
	}
	initial := map[uuid.UUID]decimal.Decimal{}
	for _, a := range accts {
		initial[a.ID] = a.Balance
	}
	types := []domain.TransactionType{domain.Expense, domain.Income, domain.TransferOut, domain.TransferIn}

	random := func() domain.Transaction {
		from := accts[r.Intn(len(accts))].ID
		to := accts[r.Intn(len(accts))].ID
		for to == from {
			to = accts[r.Intn(len(accts))].ID
		}
		typ := types[r.Intn(len(types))]
		tx := expense(accts[0], "1", nil)
		tx.Type = typ
		tx.Amount = decimal.New(int64(r.Intn(100000)+1), -2)
		tx.FromAccountID, tx.ToAccountID = nil, nil
		if typ.Debits() {
			tx.FromAccountID = &from
		}
		if typ.Credits() || r.Intn(2) == 0 {
			tx.ToAccountID = &to
		}
		return tx
	}

	var live []domain.Transaction
	for i := 0; i < 300; i++ {
		switch op := r.Intn(10); {
		case op < 5 || len(live) == 0:
			tx, err := s.CreateTransaction(ctx, random())
			require.NoError(t, err)
			live = append(live, tx)
		case op < 7:
			idx := r.Intn(len(live))
			next := random()
			next.ID = live[idx].ID
			tx, err := s.UpdateTransaction(ctx, next)
			require.NoError(t, err)
			live[idx] = tx
		case op < 9:
			idx := r.Intn(len(live))
			require.NoError(t, s.DeleteTransaction(ctx, live[idx].ID))
			live = append(live[:idx], live[idx+1:]...)
		default:
			before, err := s.loadSnapshot(ctx)
			require.NoError(t, err)
			ghost := random()
			ghost.ID = uuid.New()
			err = s.PerformAtomic(ctx, live[:1], []domain.Transaction{ghost}, []domain.Transaction{random()})
			require.Error(t, err)
			after, err := s.loadSnapshot(ctx)
			require.NoError(t, err)
			require.Equal(t, before.Accounts, after.Accounts)
		}
	}

	want := map[uuid.UUID]decimal.Decimal{}
	for id, b := range initial {
		want[id] = b
	}
	stored, err := s.GetAllTransactions(ctx)
	require.NoError(t, err)
	require.Len(t, stored, len(live))
	for _, tx := range stored {
		for _, e := range tx.Effects() {
			want[e.AccountID] = want[e.AccountID].Add(e.Delta)
		}
	}
	for _, a := range accts {
		requireBalance(t, s, a.ID, want[a.ID].String())
	}
}
