// Package testdata fills a ledger with plausible sample activity for demos
// and load tests.
package testdata

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jask/jaskledger/internal/domain"
	"github.com/jask/jaskledger/internal/ledger"
)

type sample struct {
	Description string
	Merchant    string
	Category    string
	Type        domain.TransactionType
	Min, Max    int // whole currency units
}

var samples = []sample{
	{"POS SILPO KYIV", "Сільпо", domain.KeyGroceries, domain.Expense, 80, 1500},
	{"ATB MARKET 1123", "АТБ", domain.KeyGroceries, domain.Expense, 40, 900},
	{"UBER TRIP", "Uber", domain.KeyTransport, domain.Expense, 90, 400},
	{"BOLT FOOD ORDER", "Bolt Food", domain.KeyRestaurants, domain.Expense, 200, 700},
	{"NETFLIX.COM", "Netflix", domain.KeyEntertainment, domain.Expense, 199, 199},
	{"APTEKA ANC", "АНЦ", domain.KeyHealth, domain.Expense, 60, 1200},
	{"KYIVENERGO", "", domain.KeyUtilities, domain.Expense, 400, 2200},
	{"ЗАРПЛАТА", "", domain.KeySalary, domain.Income, 30000, 45000},
}

// Options shape a generated ledger.
type Options struct {
	Transactions int
	Splits       int // how many of the expenses also get split in two
	Pending      int
	Days         int // spread of transaction dates back from Now
	Now          time.Time
}

// Result lists what Seed created.
type Result struct {
	Account      domain.Account
	Transactions []domain.Transaction
	Pending      []domain.PendingTransaction
}

// Seed creates a sample card account and fills it. Categories must already
// exist under their canonical keys. rnd makes the run reproducible.
func Seed(ctx context.Context, store ledger.Ledger, rnd *rand.Rand, opts Options) (Result, error) {
	var res Result
	if opts.Now.IsZero() {
		opts.Now = time.Now().UTC()
	}
	if opts.Days <= 0 {
		opts.Days = 30
	}

	cats, err := store.GetAllCategories(ctx)
	if err != nil {
		return res, err
	}
	byKey := map[string]uuid.UUID{}
	keys := []string{domain.KeyShopping}
	for _, s := range samples {
		keys = append(keys, s.Category)
	}
	for _, k := range keys {
		c, ok := domain.ResolveCategory(k, cats)
		if !ok {
			return res, fmt.Errorf("sample category %q missing", k)
		}
		byKey[k] = c.ID
	}

	res.Account, err = store.CreateAccount(ctx, domain.Account{
		ID:       uuid.New(),
		Name:     "Sample Card",
		Tag:      "#sample" + uuid.NewString()[:4],
		Type:     domain.AccountCard,
		Currency: "UAH",
	})
	if err != nil {
		return res, err
	}
	acct := res.Account.ID

	var expenses []domain.Transaction
	for i := 0; i < opts.Transactions; i++ {
		s := samples[rnd.Intn(len(samples))]
		catID := byKey[s.Category]
		t := domain.Transaction{
			ID:          uuid.New(),
			Date:        opts.Now.AddDate(0, 0, -rnd.Intn(opts.Days)),
			Type:        s.Type,
			Amount:      amountBetween(rnd, s.Min, s.Max),
			CategoryID:  &catID,
			Description: s.Description,
		}
		if s.Merchant != "" {
			m := s.Merchant
			t.MerchantName = &m
		}
		if s.Type.Debits() {
			t.FromAccountID = &acct
		} else {
			t.ToAccountID = &acct
		}
		t, err = store.CreateTransaction(ctx, t)
		if err != nil {
			return res, err
		}
		res.Transactions = append(res.Transactions, t)
		if t.Type == domain.Expense {
			expenses = append(expenses, t)
		}
	}

	for i := 0; i < opts.Splits && i < len(expenses); i++ {
		parent, err := splitInTwo(ctx, store, expenses[i], byKey[domain.KeyShopping])
		if err != nil {
			return res, err
		}
		for j := range res.Transactions {
			if res.Transactions[j].ID == parent.ID {
				res.Transactions[j] = parent
			}
		}
	}

	for i := 0; i < opts.Pending; i++ {
		s := samples[rnd.Intn(len(samples))]
		p, err := store.CreatePendingTransaction(ctx, domain.PendingTransaction{
			ID:                uuid.New(),
			BankTransactionID: fmt.Sprintf("sample-%d-%s", i, uuid.NewString()[:8]),
			Amount:            amountBetween(rnd, s.Min, s.Max),
			Description:       s.Description,
			Date:              opts.Now.AddDate(0, 0, -rnd.Intn(3)),
			Type:              s.Type,
			AccountID:         acct,
		})
		if err != nil {
			return res, err
		}
		res.Pending = append(res.Pending, p)
	}
	return res, nil
}

// splitInTwo turns t into a parent with two children: most of the amount in
// the original category and the rest under alt.
func splitInTwo(ctx context.Context, store ledger.Ledger, t domain.Transaction, alt uuid.UUID) (domain.Transaction, error) {
	first := t.Amount.Mul(decimal.NewFromFloat(0.7)).Round(2)
	t.Splits = nil
	parent := t
	parent.Amount = decimal.Zero
	parent.CategoryID = nil
	parent.IsSplitParent = true

	child := func(idx int, amt decimal.Decimal, cat *uuid.UUID) domain.Transaction {
		c := t
		c.ID = uuid.New()
		c.Amount = amt
		c.CategoryID = cat
		c.ParentID = &parent.ID
		c.SplitIndex = idx
		return c
	}
	kids := []domain.Transaction{
		child(0, first, t.CategoryID),
		child(1, t.Amount.Sub(first), &alt),
	}
	create := append([]domain.Transaction{parent}, kids...)
	if err := store.PerformAtomic(ctx, []domain.Transaction{t}, nil, create); err != nil {
		return domain.Transaction{}, err
	}
	return store.GetTransaction(ctx, parent.ID)
}

func amountBetween(rnd *rand.Rand, lo, hi int) decimal.Decimal {
	units := lo
	if hi > lo {
		units += rnd.Intn(hi - lo + 1)
	}
	cents := rnd.Intn(100)
	return decimal.New(int64(units*100+cents), -2)
}
