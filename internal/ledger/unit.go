package ledger

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/jask/jaskledger/internal/database/repository"
	"github.com/jask/jaskledger/internal/domain"
	"github.com/jask/jaskledger/internal/repoerr"
)

// unit is one unit of work: every repo bound to the same sql.Tx. Nothing in
// a unit may touch Store.db, which holds a single connection.
type unit struct {
	q            repository.Querier
	accounts     *repository.AccountRepo
	categories   *repository.CategoryRepo
	transactions *repository.TransactionRepo
	pending      *repository.PendingRepo
	corrections  *repository.CorrectionRepo
	settings     *repository.SettingsRepo
	now          func() time.Time

	// touched collects ids whose split relationships must be rechecked
	// before commit.
	touched map[uuid.UUID]struct{}
}

func newUnit(tx *sql.Tx, now func() time.Time) *unit {
	return &unit{
		q:            tx,
		accounts:     repository.NewAccountRepo(tx),
		categories:   repository.NewCategoryRepo(tx),
		transactions: repository.NewTransactionRepo(tx),
		pending:      repository.NewPendingRepo(tx),
		corrections:  repository.NewCorrectionRepo(tx),
		settings:     repository.NewSettingsRepo(tx),
		now:          now,
		touched:      make(map[uuid.UUID]struct{}),
	}
}

// applyEffects adds each delta to its account balance.
func (u *unit) applyEffects(ctx context.Context, effects []domain.Effect) error {
	for _, e := range effects {
		acct, err := u.accounts.Get(ctx, e.AccountID)
		if err != nil {
			return repoerr.Fetch("account", err)
		}
		if acct == nil {
			return repoerr.Invalid("transaction", "account %s does not exist", e.AccountID)
		}
		if err := u.accounts.SetBalance(ctx, acct.ID, acct.Balance.Add(e.Delta)); err != nil {
			return repoerr.Save("account", err)
		}
	}
	return nil
}

func (u *unit) loadTransaction(ctx context.Context, id uuid.UUID) (domain.Transaction, error) {
	t, err := u.transactions.Get(ctx, id)
	if err != nil {
		return domain.Transaction{}, repoerr.Fetch("transaction", err)
	}
	if t == nil {
		return domain.Transaction{}, repoerr.NotFound("transaction", id.String())
	}
	return *t, nil
}

// withSplits loads the children of a split parent.
func (u *unit) withSplits(ctx context.Context, t domain.Transaction) (domain.Transaction, error) {
	if !t.IsSplitParent {
		return t, nil
	}
	children, err := u.transactions.Children(ctx, t.ID)
	if err != nil {
		return domain.Transaction{}, repoerr.Fetch("transaction", err)
	}
	t.Splits = children
	return t, nil
}

// checkReferences verifies the accounts and category t points at exist.
func (u *unit) checkReferences(ctx context.Context, t domain.Transaction) error {
	for _, id := range []*uuid.UUID{t.FromAccountID, t.ToAccountID} {
		if id == nil {
			continue
		}
		acct, err := u.accounts.Get(ctx, *id)
		if err != nil {
			return repoerr.Fetch("account", err)
		}
		if acct == nil {
			return repoerr.Invalid("transaction", "account %s does not exist", *id)
		}
	}
	if t.CategoryID != nil {
		cat, err := u.categories.Get(ctx, *t.CategoryID)
		if err != nil {
			return repoerr.Fetch("category", err)
		}
		if cat == nil {
			return repoerr.Invalid("transaction", "category %s does not exist", *t.CategoryID)
		}
	}
	return nil
}

func (u *unit) touch(t domain.Transaction) {
	u.touched[t.ID] = struct{}{}
	if t.ParentID != nil {
		u.touched[*t.ParentID] = struct{}{}
	}
}

func (u *unit) normalize(t domain.Transaction) domain.Transaction {
	t.Date = t.Date.UTC()
	t.CreatedAt = t.CreatedAt.UTC()
	t.Splits = nil
	if t.ParentID == nil {
		t.SplitIndex = 0
	}
	return t
}

func (u *unit) createTransaction(ctx context.Context, t domain.Transaction) (domain.Transaction, error) {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = u.now()
	}
	if err := t.Validate(); err != nil {
		return domain.Transaction{}, err
	}
	t = u.normalize(t)
	existing, err := u.transactions.Get(ctx, t.ID)
	if err != nil {
		return domain.Transaction{}, repoerr.Fetch("transaction", err)
	}
	if existing != nil {
		return domain.Transaction{}, repoerr.Conflict("transaction", "id %s already exists", t.ID)
	}
	if err := u.checkReferences(ctx, t); err != nil {
		return domain.Transaction{}, err
	}
	if err := u.applyEffects(ctx, t.Effects()); err != nil {
		return domain.Transaction{}, err
	}
	if err := u.transactions.Insert(ctx, t); err != nil {
		return domain.Transaction{}, repoerr.Save("transaction", err)
	}
	u.touch(t)
	return t, nil
}

// updateTransaction reverses the stored record's effect and applies the new
// one. The stored creation time is kept.
func (u *unit) updateTransaction(ctx context.Context, t domain.Transaction) (domain.Transaction, error) {
	old, err := u.loadTransaction(ctx, t.ID)
	if err != nil {
		return domain.Transaction{}, err
	}
	t.CreatedAt = old.CreatedAt
	if err := t.Validate(); err != nil {
		return domain.Transaction{}, err
	}
	t = u.normalize(t)
	if err := u.checkReferences(ctx, t); err != nil {
		return domain.Transaction{}, err
	}
	if err := u.applyEffects(ctx, domain.Reverse(old.Effects())); err != nil {
		return domain.Transaction{}, err
	}
	if err := u.applyEffects(ctx, t.Effects()); err != nil {
		return domain.Transaction{}, err
	}
	if err := u.transactions.Update(ctx, t); err != nil {
		return domain.Transaction{}, repoerr.Save("transaction", err)
	}
	u.touch(old)
	u.touch(t)
	return t, nil
}

func (u *unit) deleteTransaction(ctx context.Context, id uuid.UUID) (domain.Transaction, error) {
	old, err := u.loadTransaction(ctx, id)
	if err != nil {
		return domain.Transaction{}, err
	}
	if err := u.applyEffects(ctx, domain.Reverse(old.Effects())); err != nil {
		return domain.Transaction{}, err
	}
	if err := u.transactions.Delete(ctx, id); err != nil {
		return domain.Transaction{}, repoerr.Save("transaction", err)
	}
	u.touch(old)
	return old, nil
}

// verifySplits rechecks parent/child consistency for every touched id:
// children need an existing flagged parent that is not itself a child, and
// a flagged parent needs at least one child.
func (u *unit) verifySplits(ctx context.Context) error {
	ids := make([]uuid.UUID, 0, len(u.touched))
	for id := range u.touched {
		ids = append(ids, id)
	}
	children, err := u.transactions.ChildrenOf(ctx, ids)
	if err != nil {
		return repoerr.Fetch("transaction", err)
	}
	for _, id := range ids {
		row, err := u.transactions.Get(ctx, id)
		if err != nil {
			return repoerr.Fetch("transaction", err)
		}
		kids := children[id]
		switch {
		case row == nil && len(kids) > 0:
			return repoerr.Conflict("transaction", "%d split children reference missing parent %s", len(kids), id)
		case row == nil:
		case len(kids) > 0 && !row.IsSplitParent:
			return repoerr.Conflict("transaction", "%s has split children but is not a split parent", id)
		case len(kids) > 0 && row.ParentID != nil:
			return repoerr.Conflict("transaction", "split child %s cannot have children", id)
		case row.IsSplitParent && len(kids) == 0:
			return repoerr.Conflict("transaction", "split parent %s has no children", id)
		}
	}
	u.touched = make(map[uuid.UUID]struct{})
	return nil
}
