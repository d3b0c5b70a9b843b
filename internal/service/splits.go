package service

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jask/jaskledger/internal/domain"
	"github.com/jask/jaskledger/internal/ledger"
	"github.com/jask/jaskledger/internal/repoerr"
)

// SplitItem is one share of a split transaction. An empty Description
// inherits the original's.
type SplitItem struct {
	Amount      decimal.Decimal
	CategoryID  *uuid.UUID
	Description string
}

// SplitResult is what a split edit left in the store.
type SplitResult struct {
	Parent   *domain.Transaction // nil when the parent was not retained
	Children []domain.Transaction
}

// SplitManager edits split hierarchies. Every operation is one atomic batch;
// on failure the store error is returned as is and no bookkeeping changes.
type SplitManager struct {
	store ledger.Ledger
	log   zerolog.Logger

	mu       sync.Mutex
	expanded map[uuid.UUID]bool
}

func NewSplitManager(store ledger.Ledger, log zerolog.Logger) *SplitManager {
	return &SplitManager{
		store:    store,
		log:      log.With().Str("component", "splits").Logger(),
		expanded: make(map[uuid.UUID]bool),
	}
}

// CreateSplit replaces a regular transaction with items. With retainParent
// the original id becomes a zero-amount parent over the items; otherwise the
// items become standalone transactions. Item totals are not reconciled
// against the original amount.
func (m *SplitManager) CreateSplit(ctx context.Context, originalID uuid.UUID, items []SplitItem, retainParent bool) (SplitResult, error) {
	orig, err := m.store.GetTransaction(ctx, originalID)
	if err != nil {
		return SplitResult{}, err
	}
	if orig.IsSplitParent || orig.IsSplitChild() {
		return SplitResult{}, repoerr.Invalid("split", "transaction %s is already part of a split", orig.ID)
	}
	if err := checkItems(items); err != nil {
		return SplitResult{}, err
	}

	res, create := buildSplit(orig, items, retainParent)
	if err := m.store.PerformAtomic(ctx, []domain.Transaction{orig}, nil, create); err != nil {
		return SplitResult{}, err
	}
	if retainParent {
		m.SetExpanded(orig.ID, true)
	}
	m.log.Info().Stringer("id", orig.ID).Int("items", len(items)).Bool("retain", retainParent).Msg("split created")
	return res, nil
}

// UpdateSplit replaces the children of a split parent. Without retainParent
// the parent is removed too and the items become standalone.
func (m *SplitManager) UpdateSplit(ctx context.Context, parentID uuid.UUID, items []SplitItem, retainParent bool) (SplitResult, error) {
	parent, err := m.loadParent(ctx, parentID)
	if err != nil {
		return SplitResult{}, err
	}
	if err := checkItems(items); err != nil {
		return SplitResult{}, err
	}

	del := append([]domain.Transaction(nil), parent.Splits...)
	var update []domain.Transaction
	res, create := buildSplit(parent, items, retainParent)
	if retainParent {
		p := *res.Parent
		update = append(update, p)
		create = create[1:] // parent is updated in place, not recreated
	} else {
		del = append(del, parent)
	}
	if err := m.store.PerformAtomic(ctx, del, update, create); err != nil {
		return SplitResult{}, err
	}
	if !retainParent {
		m.SetExpanded(parentID, false)
	}
	return res, nil
}

// ConvertToRegular folds a split back into one transaction carrying the
// children's total. A nil categoryID keeps the effective category.
func (m *SplitManager) ConvertToRegular(ctx context.Context, parentID uuid.UUID, categoryID *uuid.UUID) (domain.Transaction, error) {
	parent, err := m.loadParent(ctx, parentID)
	if err != nil {
		return domain.Transaction{}, err
	}
	total := parent.EffectiveAmount()
	if categoryID == nil {
		categoryID = parent.EffectiveCategoryID()
	}

	regular := parent
	regular.Splits = nil
	regular.IsSplitParent = false
	regular.Amount = total
	regular.CategoryID = categoryID
	if err := m.store.PerformAtomic(ctx, parent.Splits, []domain.Transaction{regular}, nil); err != nil {
		return domain.Transaction{}, err
	}
	m.SetExpanded(parentID, false)
	return regular, nil
}

// DeleteSplit removes a split. With cascade the children go too; without it
// they are detached and survive as standalone transactions.
func (m *SplitManager) DeleteSplit(ctx context.Context, parentID uuid.UUID, cascade bool) error {
	parent, err := m.loadParent(ctx, parentID)
	if err != nil {
		return err
	}
	var (
		del    = []domain.Transaction{parent}
		update []domain.Transaction
	)
	if cascade {
		del = append(del, parent.Splits...)
	} else {
		for _, c := range parent.Splits {
			c.ParentID = nil
			c.SplitIndex = 0
			update = append(update, c)
		}
	}
	if err := m.store.PerformAtomic(ctx, del, update, nil); err != nil {
		return err
	}
	m.SetExpanded(parentID, false)
	m.log.Info().Stringer("id", parentID).Bool("cascade", cascade).Msg("split deleted")
	return nil
}

// IsExpanded reports whether the parent's children are shown.
func (m *SplitManager) IsExpanded(id uuid.UUID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.expanded[id]
}

func (m *SplitManager) SetExpanded(id uuid.UUID, on bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if on {
		m.expanded[id] = true
		return
	}
	delete(m.expanded, id)
}

func (m *SplitManager) loadParent(ctx context.Context, id uuid.UUID) (domain.Transaction, error) {
	t, err := m.store.GetTransaction(ctx, id)
	if err != nil {
		return domain.Transaction{}, err
	}
	if !t.IsSplitParent {
		return domain.Transaction{}, repoerr.Invalid("split", "transaction %s is not a split parent", id)
	}
	return t, nil
}

func checkItems(items []SplitItem) error {
	if len(items) == 0 {
		return repoerr.Invalid("split", "at least one split item is required")
	}
	for i, it := range items {
		if !it.Amount.IsPositive() {
			return repoerr.Invalid("split", "item %d amount must be positive", i+1)
		}
	}
	return nil
}

// buildSplit lays items out over base. With retain the first record in
// create is the parent placeholder, reusing base's id.
func buildSplit(base domain.Transaction, items []SplitItem, retain bool) (SplitResult, []domain.Transaction) {
	var (
		res    SplitResult
		create []domain.Transaction
	)
	template := base
	template.Splits = nil
	template.ParentID = nil
	template.SplitIndex = 0
	template.IsSplitParent = false

	if retain {
		parent := template
		parent.Amount = decimal.Zero
		parent.CategoryID = nil
		parent.IsSplitParent = true
		res.Parent = &parent
		create = append(create, parent)
	}
	for i, it := range items {
		c := template
		c.ID = uuid.New()
		c.CreatedAt = base.CreatedAt
		c.Amount = it.Amount
		c.CategoryID = it.CategoryID
		if d := strings.TrimSpace(it.Description); d != "" {
			c.Description = d
		}
		if retain {
			pid := base.ID
			c.ParentID = &pid
			c.SplitIndex = i
		}
		res.Children = append(res.Children, c)
		create = append(create, c)
	}
	if res.Parent != nil {
		res.Parent.Splits = res.Children
	}
	return res, create
}
