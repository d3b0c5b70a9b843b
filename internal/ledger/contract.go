package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jask/jaskledger/internal/domain"
)

// Ledger is the store contract the services depend on.
type Ledger interface {
	CreateAccount(ctx context.Context, a domain.Account) (domain.Account, error)
	UpdateAccount(ctx context.Context, a domain.Account) (domain.Account, error)
	DeleteAccount(ctx context.Context, id uuid.UUID) error
	GetAccount(ctx context.Context, id uuid.UUID) (domain.Account, error)
	GetAccountByTag(ctx context.Context, tag string) (domain.Account, error)
	GetAllAccounts(ctx context.Context) ([]domain.Account, error)
	GetDefaultAccount(ctx context.Context) (domain.Account, error)

	CreateCategory(ctx context.Context, c domain.Category) (domain.Category, error)
	UpdateCategory(ctx context.Context, c domain.Category) (domain.Category, error)
	DeleteCategory(ctx context.Context, id uuid.UUID) error
	GetCategory(ctx context.Context, id uuid.UUID) (domain.Category, error)
	GetAllCategories(ctx context.Context) ([]domain.Category, error)

	CreateTransaction(ctx context.Context, t domain.Transaction) (domain.Transaction, error)
	UpdateTransaction(ctx context.Context, t domain.Transaction) (domain.Transaction, error)
	DeleteTransaction(ctx context.Context, id uuid.UUID) error
	GetTransaction(ctx context.Context, id uuid.UUID) (domain.Transaction, error)
	GetAllTransactions(ctx context.Context) ([]domain.Transaction, error)
	GetTransactions(ctx context.Context, f domain.TransactionFilter) ([]domain.Transaction, error)
	PerformAtomic(ctx context.Context, del, update, create []domain.Transaction) error

	CreatePendingTransaction(ctx context.Context, p domain.PendingTransaction) (domain.PendingTransaction, error)
	GetPendingTransaction(ctx context.Context, id uuid.UUID) (domain.PendingTransaction, error)
	GetPendingTransactions(ctx context.Context, accountID *uuid.UUID) ([]domain.PendingTransaction, error)
	PendingBankIDExists(ctx context.Context, bankID string) (bool, error)
	ProcessPendingTransaction(ctx context.Context, id uuid.UUID, as domain.Transaction) (domain.Transaction, error)
	DismissPendingTransaction(ctx context.Context, id uuid.UUID) error
	PurgeTransitioned(ctx context.Context, cutoff time.Time) (int64, error)

	LearnedCorrections(ctx context.Context) ([]domain.LearnedCorrection, error)
	SaveLearnedCorrection(ctx context.Context, c domain.LearnedCorrection) error
	RenameCategoryKey(ctx context.Context, from, to string) (RenameResult, error)
	GetSetting(ctx context.Context, key string) (string, bool, error)
	SetSetting(ctx context.Context, key, value string) error

	SubscribeTransactions() (<-chan []domain.Transaction, func())
	SubscribeAccounts() (<-chan []domain.Account, func())
	SubscribeCategories() (<-chan []domain.Category, func())
}

var _ Ledger = (*Store)(nil)
