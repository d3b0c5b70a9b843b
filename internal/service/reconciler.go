package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/agnivade/levenshtein"
	"github.com/google/uuid"

	"github.com/jask/jaskledger/internal/domain"
	"github.com/jask/jaskledger/internal/ledger"
)

const (
	duplicateWindowDays = 7
	maxDistanceRatio    = 0.4
)

// Match is a committed transaction that looks like a pending record.
type Match struct {
	Transaction domain.Transaction
	Similarity  float64 // 1 for identical descriptions
}

// Reconciler finds committed transactions a pending record may duplicate,
// so the user can dismiss it instead of double counting.
type Reconciler struct {
	store ledger.Ledger
}

func NewReconciler(store ledger.Ledger) *Reconciler { return &Reconciler{store: store} }

// Duplicates lists candidates for pendingID, most similar first: same
// account, type and amount, dated within a week, with a description edit
// distance under 40% of the longer text.
func (r *Reconciler) Duplicates(ctx context.Context, pendingID uuid.UUID) ([]Match, error) {
	p, err := r.store.GetPendingTransaction(ctx, pendingID)
	if err != nil {
		return nil, err
	}
	window := duplicateWindowDays * 24 * time.Hour
	txs, err := r.store.GetTransactions(ctx, domain.TransactionFilter{
		AccountID: &p.AccountID,
		From:      p.Date.Add(-window),
		To:        p.Date.Add(window),
	})
	if err != nil {
		return nil, err
	}

	var out []Match
	for _, t := range txs {
		for _, c := range flatten(t) {
			if !matchFuzzyCandidate(p, c) {
				continue
			}
			out = append(out, Match{Transaction: c, Similarity: similarity(p.Description, c.Description)})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Similarity > out[j].Similarity })
	return out, nil
}

// flatten yields the records that carry amounts: children of a split
// parent, or the record itself.
func flatten(t domain.Transaction) []domain.Transaction {
	if t.IsSplitParent {
		return t.Splits
	}
	return []domain.Transaction{t}
}

func matchFuzzyCandidate(p domain.PendingTransaction, t domain.Transaction) bool {
	if p.Type != t.Type || !p.Amount.Equal(t.Amount) {
		return false
	}
	if daysApart(p.Date, t.Date) > duplicateWindowDays {
		return false
	}
	a, b := strings.ToUpper(p.Description), strings.ToUpper(t.Description)
	longest := max(runeLen(a), runeLen(b))
	if longest == 0 {
		return true
	}
	return float64(levenshtein.ComputeDistance(a, b))/float64(longest) < maxDistanceRatio
}

func daysApart(a, b time.Time) int {
	d := a.Sub(b)
	if d < 0 {
		d = -d
	}
	return int(d.Hours() / 24)
}

func similarity(a, b string) float64 {
	a, b = strings.ToUpper(a), strings.ToUpper(b)
	longest := max(runeLen(a), runeLen(b))
	if longest == 0 {
		return 1
	}
	return 1 - float64(levenshtein.ComputeDistance(a, b))/float64(longest)
}

func runeLen(s string) int { return len([]rune(s)) }
