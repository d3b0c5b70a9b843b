package main

import (
	"fmt"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jask/jaskledger/internal/domain"
)

// formatAmount renders d in the currency's own notation, rounded to its
// minor unit. Unknown codes fall back to two decimals and the raw code.
func formatAmount(d decimal.Decimal, code string) string {
	cur := money.GetCurrency(strings.ToUpper(code))
	if cur == nil {
		return d.StringFixed(2) + " " + code
	}
	minor := d.Shift(int32(cur.Fraction)).Round(0).IntPart()
	return money.New(minor, cur.Code).Display()
}

// signed renders a record's amount from the point of view of the account
// it draws on or pays into.
func signed(t domain.Transaction) decimal.Decimal {
	amt := t.EffectiveAmount()
	if t.Type.Debits() {
		return amt.Neg()
	}
	return amt
}

func shortID(id uuid.UUID) string { return id.String()[:8] }

func categoryLabel(id *uuid.UUID, names map[uuid.UUID]string) string {
	if id == nil {
		return "-"
	}
	if n, ok := names[*id]; ok {
		return n
	}
	return shortID(*id)
}

// splitItemsVal collects repeated -item amount:category[:description] flags.
type splitItemsVal struct {
	raw []string
}

func (v *splitItemsVal) String() string { return strings.Join(v.raw, ",") }

func (v *splitItemsVal) Set(s string) error {
	parts := strings.SplitN(s, ":", 3)
	if len(parts) < 2 {
		return fmt.Errorf("item %q: want amount:category[:description]", s)
	}
	if _, err := decimal.NewFromString(parts[0]); err != nil {
		return fmt.Errorf("item %q: %w", s, err)
	}
	v.raw = append(v.raw, s)
	return nil
}

type rawSplitItem struct {
	Amount      decimal.Decimal
	Category    string
	Description string
}

func (v *splitItemsVal) items() []rawSplitItem {
	out := make([]rawSplitItem, 0, len(v.raw))
	for _, s := range v.raw {
		parts := strings.SplitN(s, ":", 3)
		it := rawSplitItem{Amount: decimal.RequireFromString(parts[0]), Category: parts[1]}
		if len(parts) == 3 {
			it.Description = parts[2]
		}
		out = append(out, it)
	}
	return out
}

// parseID accepts a full uuid.
func parseID(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(s))
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid id %q: %w", s, err)
	}
	return id, nil
}
