package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jask/jaskledger/internal/repoerr"
)

// MaxAmountScale is the number of fractional digits an amount may carry.
const MaxAmountScale = 8

type TransactionType string

const (
	Expense     TransactionType = "expense"
	Income      TransactionType = "income"
	TransferOut TransactionType = "transferOut"
	TransferIn  TransactionType = "transferIn"
)

func (t TransactionType) Valid() bool {
	switch t {
	case Expense, Income, TransferOut, TransferIn:
		return true
	}
	return false
}

// Debits reports whether the type draws on the from-account.
func (t TransactionType) Debits() bool { return t == Expense || t == TransferOut }

// Credits reports whether the type pays into the to-account.
func (t TransactionType) Credits() bool { return t == Income || t == TransferIn }

// Transaction is one ledger row. A split parent is a zero-amount placeholder
// whose real amounts live on its children; Splits is only populated when a
// parent is read back from the store.
type Transaction struct {
	ID            uuid.UUID
	CreatedAt     time.Time
	Date          time.Time
	Type          TransactionType
	Amount        decimal.Decimal
	CategoryID    *uuid.UUID
	Description   string
	MerchantName  *string
	FromAccountID *uuid.UUID
	ToAccountID   *uuid.UUID
	ParentID      *uuid.UUID
	IsSplitParent bool
	SplitIndex    int
	Splits        []Transaction
}

func (t Transaction) IsSplitChild() bool { return t.ParentID != nil }

// EffectiveAmount is the sum of the children for a split parent and the
// stored amount otherwise.
func (t Transaction) EffectiveAmount() decimal.Decimal {
	if !t.IsSplitParent {
		return t.Amount
	}
	sum := decimal.Zero
	for _, c := range t.Splits {
		sum = sum.Add(c.Amount)
	}
	return sum
}

// EffectiveCategoryID is the category of the largest child for a split
// parent (earliest child wins a tie) and the stored category otherwise.
func (t Transaction) EffectiveCategoryID() *uuid.UUID {
	if !t.IsSplitParent {
		return t.CategoryID
	}
	var best *Transaction
	for i := range t.Splits {
		c := &t.Splits[i]
		if best == nil || c.Amount.GreaterThan(best.Amount) {
			best = c
		}
	}
	if best == nil {
		return nil
	}
	return best.CategoryID
}

// Effect is a signed change to one account balance.
type Effect struct {
	AccountID uuid.UUID
	Delta     decimal.Decimal
}

// Effects returns the balance changes this record applies when stored.
// Split parents are neutral.
func (t Transaction) Effects() []Effect {
	if t.IsSplitParent {
		return nil
	}
	var out []Effect
	if t.Type.Debits() && t.FromAccountID != nil {
		out = append(out, Effect{AccountID: *t.FromAccountID, Delta: t.Amount.Neg()})
	}
	if t.Type.Credits() && t.ToAccountID != nil {
		out = append(out, Effect{AccountID: *t.ToAccountID, Delta: t.Amount})
	}
	return out
}

// Affects reports whether the record debits or credits account. A transfer
// leg only affects its own side; the counterpart account is informational.
// Split parents are judged by their type so they list with their children.
func (t Transaction) Affects(account uuid.UUID) bool {
	if t.Type.Debits() && t.FromAccountID != nil && *t.FromAccountID == account {
		return true
	}
	return t.Type.Credits() && t.ToAccountID != nil && *t.ToAccountID == account
}

// Reverse negates a set of effects.
func Reverse(effects []Effect) []Effect {
	out := make([]Effect, len(effects))
	for i, e := range effects {
		out[i] = Effect{AccountID: e.AccountID, Delta: e.Delta.Neg()}
	}
	return out
}

func (t Transaction) Validate() error {
	if !t.Type.Valid() {
		return repoerr.Invalid("transaction", "unknown transaction type %q", t.Type)
	}
	if t.Date.IsZero() {
		return repoerr.Invalid("transaction", "date is required")
	}
	if t.Amount.IsNegative() {
		return repoerr.Invalid("transaction", "amount %s is negative", t.Amount)
	}
	if -t.Amount.Exponent() > MaxAmountScale {
		return repoerr.Invalid("transaction", "amount %s has more than %d fractional digits", t.Amount, MaxAmountScale)
	}
	if t.IsSplitParent {
		if !t.Amount.IsZero() {
			return repoerr.Invalid("transaction", "split parent must carry a zero amount")
		}
		if t.CategoryID != nil {
			return repoerr.Invalid("transaction", "split parent must not carry a category")
		}
		if t.ParentID != nil {
			return repoerr.Invalid("transaction", "split parent cannot itself be a split child")
		}
	} else if t.Amount.IsZero() {
		return repoerr.Invalid("transaction", "amount must be positive")
	}
	if t.ParentID != nil {
		if len(t.Splits) > 0 {
			return repoerr.Invalid("transaction", "split child cannot carry splits")
		}
		if *t.ParentID == t.ID {
			return repoerr.Invalid("transaction", "transaction cannot be its own parent")
		}
	}
	if t.Type.Debits() && t.FromAccountID == nil {
		return repoerr.Invalid("transaction", "%s requires a from account", t.Type)
	}
	if t.Type.Credits() && t.ToAccountID == nil {
		return repoerr.Invalid("transaction", "%s requires a to account", t.Type)
	}
	if t.FromAccountID != nil && t.ToAccountID != nil && *t.FromAccountID == *t.ToAccountID {
		return repoerr.Invalid("transaction", "from and to account must differ")
	}
	if t.MerchantName != nil && strings.TrimSpace(*t.MerchantName) == "" {
		return repoerr.Invalid("transaction", "merchant name is blank")
	}
	return nil
}

// TransactionFilter narrows a top-level listing. Zero fields do not filter.
type TransactionFilter struct {
	AccountID  *uuid.UUID // matches the account the record moves money on
	From       time.Time  // inclusive
	To         time.Time  // inclusive
	CategoryID *uuid.UUID // effective category for split parents
}

// Matches applies the filter to a fully loaded top-level record.
func (f TransactionFilter) Matches(t Transaction) bool {
	if f.AccountID != nil && !t.Affects(*f.AccountID) {
		return false
	}
	if !f.From.IsZero() && t.Date.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && t.Date.After(f.To) {
		return false
	}
	if f.CategoryID != nil {
		c := t.EffectiveCategoryID()
		if c == nil || *c != *f.CategoryID {
			return false
		}
	}
	return true
}
