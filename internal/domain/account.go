// Package domain holds the ledger entities and the rules that make a record
// valid before it reaches storage.
package domain

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Rhymond/go-money"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jask/jaskledger/internal/repoerr"
)

// TagMarker must prefix every account tag.
const TagMarker = "#"

const maxTagLen = 32

type AccountType string

const (
	AccountCash       AccountType = "cash"
	AccountCard       AccountType = "card"
	AccountSavings    AccountType = "savings"
	AccountInvestment AccountType = "investment"
)

func (t AccountType) Valid() bool {
	switch t {
	case AccountCash, AccountCard, AccountSavings, AccountInvestment:
		return true
	}
	return false
}

// Account is a balance-carrying container of transactions.
type Account struct {
	ID        uuid.UUID
	Name      string
	Tag       string
	Balance   decimal.Decimal
	IsDefault bool
	Type      AccountType
	Currency  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TagKey is the case-insensitive identity of a tag.
func TagKey(tag string) string {
	return strings.ToLower(strings.TrimSpace(tag))
}

// ValidCurrency reports whether code is a known ISO 4217 currency.
func ValidCurrency(code string) bool {
	if code == "" {
		return false
	}
	return money.GetCurrency(strings.ToUpper(code)) != nil
}

func (a Account) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return repoerr.Invalid("account", "name is required")
	}
	tag := strings.TrimSpace(a.Tag)
	if !strings.HasPrefix(tag, TagMarker) {
		return repoerr.Invalid("account", "tag %q must start with %q", a.Tag, TagMarker)
	}
	if n := utf8.RuneCountInString(tag); n < 2 || n > maxTagLen {
		return repoerr.Invalid("account", "tag %q must be 2..%d characters", a.Tag, maxTagLen)
	}
	if strings.ContainsAny(tag, " \t\n") {
		return repoerr.Invalid("account", "tag %q must not contain whitespace", a.Tag)
	}
	if !a.Type.Valid() {
		return repoerr.Invalid("account", "unknown account type %q", a.Type)
	}
	if !ValidCurrency(a.Currency) {
		return repoerr.Invalid("account", "unknown currency %q", a.Currency)
	}
	return nil
}
