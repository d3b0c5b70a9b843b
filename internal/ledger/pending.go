package ledger

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jask/jaskledger/internal/domain"
	"github.com/jask/jaskledger/internal/repoerr"
)

// CreatePendingTransaction stages an imported candidate. Staging does not
// touch balances or publish a snapshot.
func (s *Store) CreatePendingTransaction(ctx context.Context, p domain.PendingTransaction) (domain.PendingTransaction, error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.BankTransactionID = strings.TrimSpace(p.BankTransactionID)
	p.Status = domain.PendingOpen
	p.TransactionID = nil
	p.Date = p.Date.UTC()
	if err := p.Validate(); err != nil {
		return domain.PendingTransaction{}, err
	}
	err := s.mutate(ctx, "stage pending", false, func(u *unit) error {
		if _, err := u.loadAccount(ctx, p.AccountID); err != nil {
			if errors.Is(err, repoerr.ErrNotFound) {
				return repoerr.Invalid("pending transaction", "account %s does not exist", p.AccountID)
			}
			return err
		}
		if p.SuggestedCategoryID != nil {
			if _, err := u.loadCategory(ctx, *p.SuggestedCategoryID); err != nil {
				// A stale suggestion is dropped rather than rejected.
				p.SuggestedCategoryID = nil
				p.Confidence = 0
			}
		}
		if p.ImportedAt.IsZero() {
			p.ImportedAt = u.now()
		}
		if err := u.pending.Insert(ctx, p); err != nil {
			return repoerr.Save("pending transaction", err)
		}
		return nil
	})
	if err != nil {
		return domain.PendingTransaction{}, err
	}
	return p, nil
}

// GetPendingTransaction returns an open record; transitioned ones are not
// found.
func (s *Store) GetPendingTransaction(ctx context.Context, id uuid.UUID) (domain.PendingTransaction, error) {
	var out domain.PendingTransaction
	err := s.read(ctx, func(u *unit) error {
		var err error
		out, err = u.loadOpenPending(ctx, id)
		return err
	})
	return out, err
}

// GetPendingTransactions lists open records for one account, or for all
// accounts when accountID is nil.
func (s *Store) GetPendingTransactions(ctx context.Context, accountID *uuid.UUID) ([]domain.PendingTransaction, error) {
	var out []domain.PendingTransaction
	err := s.read(ctx, func(u *unit) error {
		var err error
		out, err = u.pending.ListOpen(ctx, accountID)
		return err
	})
	return out, err
}

// PendingBankIDExists reports whether bankID was ever staged. Processed and
// dismissed tombstones count until PurgeTransitioned removes them.
func (s *Store) PendingBankIDExists(ctx context.Context, bankID string) (bool, error) {
	var ok bool
	err := s.read(ctx, func(u *unit) error {
		var err error
		ok, err = u.pending.SeenBankID(ctx, strings.TrimSpace(bankID))
		return err
	})
	return ok, err
}

// ProcessPendingTransaction commits as through the normal create path and
// retires the pending record in the same unit of work. A record that was
// already processed or dismissed is EntityNotFound.
func (s *Store) ProcessPendingTransaction(ctx context.Context, id uuid.UUID, as domain.Transaction) (domain.Transaction, error) {
	var out domain.Transaction
	err := s.mutate(ctx, "process pending", true, func(u *unit) error {
		if _, err := u.loadOpenPending(ctx, id); err != nil {
			return err
		}
		created, err := u.createTransaction(ctx, as)
		if err != nil {
			return err
		}
		if err := u.verifySplits(ctx); err != nil {
			return err
		}
		if err := u.transition(ctx, id, domain.PendingProcessed, &created.ID); err != nil {
			return err
		}
		out = created
		return nil
	})
	return out, err
}

// DismissPendingTransaction retires a record without producing a
// transaction.
func (s *Store) DismissPendingTransaction(ctx context.Context, id uuid.UUID) error {
	return s.mutate(ctx, "dismiss pending", false, func(u *unit) error {
		return u.transition(ctx, id, domain.PendingDismissed, nil)
	})
}

// PurgeTransitioned deletes processed and dismissed records imported before
// cutoff and returns how many went.
func (s *Store) PurgeTransitioned(ctx context.Context, cutoff time.Time) (int64, error) {
	var n int64
	err := s.mutate(ctx, "purge pending", false, func(u *unit) error {
		var err error
		n, err = u.pending.DeleteTransitionedBefore(ctx, cutoff)
		if err != nil {
			return repoerr.Save("pending transaction", err)
		}
		return nil
	})
	return n, err
}

func (u *unit) loadOpenPending(ctx context.Context, id uuid.UUID) (domain.PendingTransaction, error) {
	p, err := u.pending.Get(ctx, id)
	if err != nil {
		return domain.PendingTransaction{}, repoerr.Fetch("pending transaction", err)
	}
	if p == nil || p.Status != domain.PendingOpen {
		return domain.PendingTransaction{}, repoerr.NotFound("pending transaction", id.String())
	}
	return *p, nil
}

func (u *unit) transition(ctx context.Context, id uuid.UUID, to domain.PendingStatus, txID *uuid.UUID) error {
	ok, err := u.pending.Transition(ctx, id, to, txID)
	if err != nil {
		return repoerr.Save("pending transaction", err)
	}
	if !ok {
		return repoerr.NotFound("pending transaction", id.String())
	}
	return nil
}
