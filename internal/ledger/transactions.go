package ledger

import (
	"context"

	"github.com/google/uuid"

	"github.com/jask/jaskledger/internal/database/repository"
	"github.com/jask/jaskledger/internal/domain"
)

// CreateTransaction stores t and applies its balance effect.
func (s *Store) CreateTransaction(ctx context.Context, t domain.Transaction) (domain.Transaction, error) {
	var out domain.Transaction
	err := s.mutate(ctx, "create transaction", true, func(u *unit) error {
		var err error
		if out, err = u.createTransaction(ctx, t); err != nil {
			return err
		}
		return u.verifySplits(ctx)
	})
	return out, err
}

// UpdateTransaction replaces the stored record, moving its balance effect.
func (s *Store) UpdateTransaction(ctx context.Context, t domain.Transaction) (domain.Transaction, error) {
	var out domain.Transaction
	err := s.mutate(ctx, "update transaction", true, func(u *unit) error {
		var err error
		if out, err = u.updateTransaction(ctx, t); err != nil {
			return err
		}
		if err := u.verifySplits(ctx); err != nil {
			return err
		}
		out, err = u.withSplits(ctx, out)
		return err
	})
	return out, err
}

// DeleteTransaction removes a record and reverses its effect. A split parent
// that still has children cannot be deleted this way; use the split manager.
func (s *Store) DeleteTransaction(ctx context.Context, id uuid.UUID) error {
	return s.mutate(ctx, "delete transaction", true, func(u *unit) error {
		if _, err := u.deleteTransaction(ctx, id); err != nil {
			return err
		}
		return u.verifySplits(ctx)
	})
}

// PerformAtomic applies deletes, then updates, then creates as one unit of
// work. Any failure leaves records and balances exactly as they were.
func (s *Store) PerformAtomic(ctx context.Context, del, update, create []domain.Transaction) error {
	return s.mutate(ctx, "atomic batch", true, func(u *unit) error {
		for _, t := range del {
			if _, err := u.deleteTransaction(ctx, t.ID); err != nil {
				return err
			}
		}
		for _, t := range update {
			if _, err := u.updateTransaction(ctx, t); err != nil {
				return err
			}
		}
		for _, t := range create {
			if _, err := u.createTransaction(ctx, t); err != nil {
				return err
			}
		}
		return u.verifySplits(ctx)
	})
}

// GetTransaction returns one record; a split parent comes with its children.
func (s *Store) GetTransaction(ctx context.Context, id uuid.UUID) (domain.Transaction, error) {
	var out domain.Transaction
	err := s.read(ctx, func(u *unit) error {
		t, err := u.loadTransaction(ctx, id)
		if err != nil {
			return err
		}
		out, err = u.withSplits(ctx, t)
		return err
	})
	return out, err
}

// GetAllTransactions lists every top-level record, newest first. Split
// children appear only inside their parent.
func (s *Store) GetAllTransactions(ctx context.Context) ([]domain.Transaction, error) {
	return s.GetTransactions(ctx, domain.TransactionFilter{})
}

// GetTransactions lists top-level records matching f.
func (s *Store) GetTransactions(ctx context.Context, f domain.TransactionFilter) ([]domain.Transaction, error) {
	var out []domain.Transaction
	err := s.read(ctx, func(u *unit) error {
		var err error
		out, err = u.listTopLevel(ctx, f)
		return err
	})
	return out, err
}

func (u *unit) listTopLevel(ctx context.Context, f domain.TransactionFilter) ([]domain.Transaction, error) {
	rows, err := u.transactions.ListTopLevel(ctx, repository.TransactionFilters{
		AccountID: f.AccountID,
		From:      f.From,
		To:        f.To,
	})
	if err != nil {
		return nil, fetchErr(err)
	}
	var parents []uuid.UUID
	for _, t := range rows {
		if t.IsSplitParent {
			parents = append(parents, t.ID)
		}
	}
	children, err := u.transactions.ChildrenOf(ctx, parents)
	if err != nil {
		return nil, fetchErr(err)
	}
	out := make([]domain.Transaction, 0, len(rows))
	for _, t := range rows {
		if t.IsSplitParent {
			t.Splits = children[t.ID]
		}
		if f.Matches(t) {
			out = append(out, t)
		}
	}
	return out, nil
}
