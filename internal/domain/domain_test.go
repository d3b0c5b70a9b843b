package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestEffectsSignRule(t *testing.T) {
	from, to := uuid.New(), uuid.New()
	amt := decimal.RequireFromString("12.5")
	base := Transaction{Amount: amt, FromAccountID: &from, ToAccountID: &to}

	cases := []struct {
		typ  TransactionType
		want []Effect
	}{
		{Expense, []Effect{{from, amt.Neg()}}},
		{TransferOut, []Effect{{from, amt.Neg()}}},
		{Income, []Effect{{to, amt}}},
		{TransferIn, []Effect{{to, amt}}},
	}
	for _, tc := range cases {
		tx := base
		tx.Type = tc.typ
		require.Equal(t, tc.want, tx.Effects(), tc.typ)
	}

	parent := base
	parent.Type = Expense
	parent.IsSplitParent = true
	require.Empty(t, parent.Effects())

	require.Equal(t, []Effect{{from, amt}}, Reverse([]Effect{{from, amt.Neg()}}))
}

func TestEffectiveAmountAndCategory(t *testing.T) {
	food, fuel := uuid.New(), uuid.New()
	child := func(amount string, cat uuid.UUID) Transaction {
		return Transaction{Amount: decimal.RequireFromString(amount), CategoryID: &cat}
	}
	parent := Transaction{IsSplitParent: true, Splits: []Transaction{
		child("200", fuel),
		child("300", food),
		child("300", fuel),
	}}
	require.True(t, decimal.RequireFromString("800").Equal(parent.EffectiveAmount()))
	require.Equal(t, food, *parent.EffectiveCategoryID(), "earliest of the largest wins")

	regular := child("5", fuel)
	require.Equal(t, fuel, *regular.EffectiveCategoryID())
	require.Nil(t, Transaction{IsSplitParent: true}.EffectiveCategoryID())
}

func TestTransactionValidate(t *testing.T) {
	acct := uuid.New()
	ok := Transaction{
		ID:            uuid.New(),
		Date:          time.Now(),
		Type:          Expense,
		Amount:        decimal.RequireFromString("1"),
		FromAccountID: &acct,
	}
	require.NoError(t, ok.Validate())

	parent := ok
	parent.IsSplitParent = true
	require.Error(t, parent.Validate(), "parent with amount")
	parent.Amount = decimal.Zero
	require.NoError(t, parent.Validate())

	self := ok
	self.ParentID = &self.ID
	require.Error(t, self.Validate())

	same := ok
	same.ToAccountID = &acct
	require.Error(t, same.Validate())
}

func TestAccountValidate(t *testing.T) {
	a := Account{Name: "Cash", Tag: "#cash", Type: AccountCash, Currency: "UAH"}
	require.NoError(t, a.Validate())

	bad := a
	bad.Type = "crypto"
	require.Error(t, bad.Validate())
	require.True(t, ValidCurrency("eur"))
	require.False(t, ValidCurrency(""))
	require.Equal(t, "#cash", TagKey(" #CASH "))
}

func TestResolveCategoryAliases(t *testing.T) {
	legacy := []Category{{ID: uuid.New(), Name: "Продукти"}}
	canonical := []Category{{ID: uuid.New(), Name: KeyGroceries}}

	c, ok := ResolveCategory(KeyGroceries, legacy)
	require.True(t, ok)
	require.Equal(t, legacy[0].ID, c.ID)

	c, ok = ResolveCategory("продукти", canonical)
	require.True(t, ok)
	require.Equal(t, canonical[0].ID, c.ID)

	_, ok = ResolveCategory("unknown", canonical)
	require.False(t, ok)
	_, ok = ResolveCategory("", canonical)
	require.False(t, ok)

	require.Len(t, LegacyNames(), 15)
	key, ok := CanonicalKey("Інше")
	require.True(t, ok)
	require.Equal(t, KeyOther, key)
}

func TestFilterMatches(t *testing.T) {
	acct, other := uuid.New(), uuid.New()
	day := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	tx := Transaction{Date: day, Type: Income, ToAccountID: &acct}

	require.True(t, TransactionFilter{}.Matches(tx))
	require.True(t, TransactionFilter{AccountID: &acct}.Matches(tx))
	require.False(t, TransactionFilter{AccountID: &other}.Matches(tx))
	require.True(t, TransactionFilter{From: day, To: day}.Matches(tx))
	require.False(t, TransactionFilter{From: day.Add(time.Hour)}.Matches(tx))
	require.False(t, TransactionFilter{CategoryID: &other}.Matches(tx))

	out := Transaction{Date: day, Type: TransferOut, FromAccountID: &acct, ToAccountID: &other}
	in := out
	in.Type = TransferIn
	require.True(t, TransactionFilter{AccountID: &acct}.Matches(out))
	require.False(t, TransactionFilter{AccountID: &acct}.Matches(in))
	require.True(t, TransactionFilter{AccountID: &other}.Matches(in))
	require.False(t, TransactionFilter{AccountID: &other}.Matches(out))

	parent := Transaction{Date: day, Type: Expense, FromAccountID: &acct, IsSplitParent: true}
	require.True(t, TransactionFilter{AccountID: &acct}.Matches(parent))
}
