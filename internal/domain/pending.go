package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jask/jaskledger/internal/repoerr"
)

type PendingStatus string

const (
	PendingOpen      PendingStatus = "pending"
	PendingProcessed PendingStatus = "processed"
	PendingDismissed PendingStatus = "dismissed"
)

// PendingTransaction is an imported candidate awaiting confirmation.
type PendingTransaction struct {
	ID                  uuid.UUID
	BankTransactionID   string
	Amount              decimal.Decimal
	Description         string
	MerchantName        *string
	Date                time.Time
	Type                TransactionType
	AccountID           uuid.UUID
	SuggestedCategoryID *uuid.UUID
	Confidence          float64
	ImportedAt          time.Time
	Status              PendingStatus
	TransactionID       *uuid.UUID // set once processed
}

func (p PendingTransaction) Validate() error {
	if strings.TrimSpace(p.BankTransactionID) == "" {
		return repoerr.Invalid("pending transaction", "bank transaction id is required")
	}
	if !p.Amount.IsPositive() {
		return repoerr.Invalid("pending transaction", "amount must be positive")
	}
	if !p.Type.Valid() {
		return repoerr.Invalid("pending transaction", "unknown transaction type %q", p.Type)
	}
	if p.AccountID == uuid.Nil {
		return repoerr.Invalid("pending transaction", "account is required")
	}
	if p.Date.IsZero() {
		return repoerr.Invalid("pending transaction", "date is required")
	}
	if p.Confidence < 0 || p.Confidence > 1 {
		return repoerr.Invalid("pending transaction", "confidence %v outside [0,1]", p.Confidence)
	}
	return nil
}

// ToTransaction builds the ledger record this candidate becomes. The owning
// account is the from-account for debits and the to-account for credits.
func (p PendingTransaction) ToTransaction(categoryID *uuid.UUID) Transaction {
	acct := p.AccountID
	t := Transaction{
		Date:         p.Date,
		Type:         p.Type,
		Amount:       p.Amount,
		CategoryID:   categoryID,
		Description:  p.Description,
		MerchantName: p.MerchantName,
	}
	if p.Type.Debits() {
		t.FromAccountID = &acct
	} else {
		t.ToAccountID = &acct
	}
	return t
}

// CorrectionSource records which input a learned key came from.
type CorrectionSource string

const (
	FromMerchant    CorrectionSource = "merchant"
	FromDescription CorrectionSource = "description"
)

// LearnedCorrection maps a normalized merchant or description key to a
// category name.
type LearnedCorrection struct {
	Key          string
	Source       CorrectionSource
	CategoryName string
	UpdatedAt    time.Time
}
