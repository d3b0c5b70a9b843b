package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jask/jaskledger/internal/domain"
	"github.com/jask/jaskledger/internal/ledger"
)

// Stager moves imported candidates through pending → processed | dismissed.
type Stager struct {
	store  ledger.Ledger
	engine *Engine
	log    zerolog.Logger
}

func NewStager(store ledger.Ledger, engine *Engine, log zerolog.Logger) *Stager {
	return &Stager{store: store, engine: engine, log: log.With().Str("component", "stager").Logger()}
}

// Stage stores p, filling in a suggested category when it has none.
func (s *Stager) Stage(ctx context.Context, p domain.PendingTransaction) (domain.PendingTransaction, error) {
	if p.SuggestedCategoryID == nil && s.engine != nil {
		sug, err := s.engine.Suggest(ctx, p.Description, p.MerchantName)
		if err != nil {
			return domain.PendingTransaction{}, err
		}
		p.SuggestedCategoryID = sug.CategoryID()
		p.Confidence = sug.Confidence
	}
	staged, err := s.store.CreatePendingTransaction(ctx, p)
	if err != nil {
		return domain.PendingTransaction{}, err
	}
	s.log.Debug().Str("bank_id", staged.BankTransactionID).Float64("confidence", staged.Confidence).Msg("staged")
	return staged, nil
}

// List returns open records for accountID, or all when it is nil.
func (s *Stager) List(ctx context.Context, accountID *uuid.UUID) ([]domain.PendingTransaction, error) {
	return s.store.GetPendingTransactions(ctx, accountID)
}

// IsStaged reports whether bankID was already staged, whatever became of it.
func (s *Stager) IsStaged(ctx context.Context, bankID string) (bool, error) {
	return s.store.PendingBankIDExists(ctx, bankID)
}

// Accept commits the pending record as a transaction. A nil categoryID takes
// the suggestion; a category other than the suggestion is learned first so
// the next import of the same merchant gets it.
func (s *Stager) Accept(ctx context.Context, id uuid.UUID, categoryID *uuid.UUID) (domain.Transaction, error) {
	p, err := s.store.GetPendingTransaction(ctx, id)
	if err != nil {
		return domain.Transaction{}, err
	}
	if categoryID == nil {
		categoryID = p.SuggestedCategoryID
	} else if s.engine != nil && (p.SuggestedCategoryID == nil || *p.SuggestedCategoryID != *categoryID) {
		cat, err := s.store.GetCategory(ctx, *categoryID)
		if err != nil {
			return domain.Transaction{}, err
		}
		if err := s.engine.Learn(ctx, p.Description, p.MerchantName, cat); err != nil {
			return domain.Transaction{}, err
		}
	}
	tx, err := s.store.ProcessPendingTransaction(ctx, id, p.ToTransaction(categoryID))
	if err != nil {
		return domain.Transaction{}, err
	}
	s.log.Info().Stringer("pending", id).Stringer("transaction", tx.ID).Msg("pending accepted")
	return tx, nil
}

// Dismiss retires the record without creating a transaction.
func (s *Stager) Dismiss(ctx context.Context, id uuid.UUID) error {
	if err := s.store.DismissPendingTransaction(ctx, id); err != nil {
		return err
	}
	s.log.Info().Stringer("pending", id).Msg("pending dismissed")
	return nil
}
