package main

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jask/jaskledger/internal/domain"
)

func TestFormatAmount(t *testing.T) {
	require.Equal(t, "$1,234.50", formatAmount(decimal.RequireFromString("1234.5"), "USD"))
	require.Equal(t, "$0.13", formatAmount(decimal.RequireFromString("0.125"), "usd"))
	require.Equal(t, "12.30 XYZ", formatAmount(decimal.RequireFromString("12.3"), "XYZ"))
}

func TestSigned(t *testing.T) {
	amt := decimal.RequireFromString("10")
	require.True(t, signed(domain.Transaction{Type: domain.Expense, Amount: amt}).Equal(amt.Neg()))
	require.True(t, signed(domain.Transaction{Type: domain.Income, Amount: amt}).Equal(amt))
}

func TestSplitItemsFlag(t *testing.T) {
	var v splitItemsVal
	require.NoError(t, v.Set("12.50:groceries"))
	require.NoError(t, v.Set("7:household:soap and sponges"))
	require.Error(t, v.Set("12.50"))
	require.Error(t, v.Set("abc:groceries"))

	items := v.items()
	require.Len(t, items, 2)
	require.True(t, items[0].Amount.Equal(decimal.RequireFromString("12.5")))
	require.Equal(t, "groceries", items[0].Category)
	require.Empty(t, items[0].Description)
	require.Equal(t, "soap and sponges", items[1].Description)
}
