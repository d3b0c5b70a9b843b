package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/subcommands"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jask/jaskledger/internal/domain"
	"github.com/jask/jaskledger/internal/service"
)

type addCmd struct {
	kind        string
	amount      string
	account     string
	to          string
	category    string
	description string
	merchant    string
	date        string
}

func (*addCmd) Name() string     { return "add" }
func (*addCmd) Synopsis() string { return "record an expense, income or transfer" }
func (*addCmd) Usage() string {
	return `add -amount <amount> [-type expense|income|transfer] [-account <#tag>] [-to <#tag>] [-category <name>] [-d <description>] [-merchant <name>] [-date YYYY-MM-DD]

  Records a transaction and updates account balances. A transfer is stored
  as a transferOut on -account and a transferIn on -to in one batch.
  Without -category the category is suggested from the description.
`
}

func (c *addCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.kind, "type", "expense", "Kind of record: expense, income or transfer")
	f.StringVar(&c.amount, "amount", "", "Positive amount (required)")
	f.StringVar(&c.account, "account", "", "Account tag (defaults to the default account)")
	f.StringVar(&c.to, "to", "", "Destination account tag for a transfer")
	f.StringVar(&c.category, "category", "", "Category name or key")
	f.StringVar(&c.description, "d", "", "Description")
	f.StringVar(&c.merchant, "merchant", "", "Merchant name")
	f.StringVar(&c.date, "date", "", "Transaction date (defaults to today)")
}

func (c *addCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	amount, err := decimal.NewFromString(c.amount)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing amount: %v\n", err)
		return subcommands.ExitUsageError
	}
	kind := strings.ToLower(c.kind)
	if kind == "transfer" && c.to == "" {
		fmt.Fprintln(os.Stderr, "Error: a transfer needs -to.")
		return subcommands.ExitUsageError
	}

	a, err := openApp(ctx)
	if err != nil {
		report(err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	date, err := a.parseDate(c.date)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing date: %v\n", err)
		return subcommands.ExitUsageError
	}
	acct, err := a.account(ctx, c.account)
	if err != nil {
		report(err)
		return subcommands.ExitFailure
	}
	var merchant *string
	if m := strings.TrimSpace(c.merchant); m != "" {
		merchant = &m
	}

	base := domain.Transaction{Date: date, Amount: amount, Description: c.description, MerchantName: merchant}
	switch kind {
	case "transfer":
		dest, err := a.store.GetAccountByTag(ctx, c.to)
		if err != nil {
			report(err)
			return subcommands.ExitFailure
		}
		out, in := base, base
		out.ID, out.Type, out.FromAccountID, out.ToAccountID = uuid.New(), domain.TransferOut, &acct.ID, &dest.ID
		in.ID, in.Type, in.FromAccountID, in.ToAccountID = uuid.New(), domain.TransferIn, &acct.ID, &dest.ID
		if err := a.store.PerformAtomic(ctx, nil, nil, []domain.Transaction{out, in}); err != nil {
			report(err)
			return subcommands.ExitFailure
		}
		fmt.Printf("transferred %s from %s to %s\n", formatAmount(amount, acct.Currency), acct.Tag, dest.Tag)
		return subcommands.ExitSuccess
	case "expense":
		base.Type, base.FromAccountID = domain.Expense, &acct.ID
	case "income":
		base.Type, base.ToAccountID = domain.Income, &acct.ID
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown type %q\n", c.kind)
		return subcommands.ExitUsageError
	}

	if c.category != "" {
		cat, err := a.category(ctx, c.category)
		if err != nil {
			report(err)
			return subcommands.ExitFailure
		}
		base.CategoryID = &cat.ID
	} else {
		sug, err := a.engine.Suggest(ctx, c.description, merchant)
		if err != nil {
			report(err)
			return subcommands.ExitFailure
		}
		if sug.AutoAccept() {
			base.CategoryID = sug.CategoryID()
		}
	}

	t, err := a.store.CreateTransaction(ctx, base)
	if err != nil {
		report(err)
		return subcommands.ExitFailure
	}
	fmt.Println(t.ID)
	return subcommands.ExitSuccess
}

type listCmd struct {
	account  string
	from     string
	to       string
	category string
	splits   bool
}

func (*listCmd) Name() string     { return "list" }
func (*listCmd) Synopsis() string { return "list transactions, newest first" }
func (*listCmd) Usage() string {
	return `list [-account <#tag>] [-from YYYY-MM-DD] [-to YYYY-MM-DD] [-category <name>] [-splits]

  Lists top-level transactions. Split parents show the sum of their
  children; -splits prints the children below each parent.
`
}

func (c *listCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.account, "account", "", "Only records touching this account")
	f.StringVar(&c.from, "from", "", "First date, inclusive")
	f.StringVar(&c.to, "to", "", "Last date, inclusive")
	f.StringVar(&c.category, "category", "", "Only records in this category")
	f.BoolVar(&c.splits, "splits", false, "Show split children")
}

func (c *listCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := openApp(ctx)
	if err != nil {
		report(err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	var filter domain.TransactionFilter
	if c.account != "" {
		acct, err := a.store.GetAccountByTag(ctx, c.account)
		if err != nil {
			report(err)
			return subcommands.ExitFailure
		}
		filter.AccountID = &acct.ID
	}
	if c.from != "" {
		if filter.From, err = a.parseDate(c.from); err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing -from: %v\n", err)
			return subcommands.ExitUsageError
		}
	}
	if c.to != "" {
		d, err := a.parseDate(c.to)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing -to: %v\n", err)
			return subcommands.ExitUsageError
		}
		filter.To = d.AddDate(0, 0, 1).Add(-1)
	}
	if c.category != "" {
		cat, err := a.category(ctx, c.category)
		if err != nil {
			report(err)
			return subcommands.ExitFailure
		}
		filter.CategoryID = &cat.ID
	}

	txs, err := a.store.GetTransactions(ctx, filter)
	if err != nil {
		report(err)
		return subcommands.ExitFailure
	}
	names, err := a.categoryNames(ctx)
	if err != nil {
		report(err)
		return subcommands.ExitFailure
	}
	currency := a.cfg.UI.DefaultCurrency
	for _, t := range txs {
		mark := " "
		if t.IsSplitParent {
			mark = "+"
		}
		fmt.Printf("%s %s %s %-12s %14s  %-16s %s\n", mark, t.ID, t.Date.In(a.loc).Format("2006-01-02"), t.Type,
			formatAmount(signed(t), currency), categoryLabel(t.EffectiveCategoryID(), names), t.Description)
		if !c.splits {
			continue
		}
		for _, s := range t.Splits {
			fmt.Printf("    %d %s %14s  %-16s %s\n", s.SplitIndex, shortID(s.ID),
				formatAmount(signed(s), currency), categoryLabel(s.CategoryID, names), s.Description)
		}
	}
	return subcommands.ExitSuccess
}

type splitCmd struct {
	items  splitItemsVal
	retain bool
}

func (*splitCmd) Name() string     { return "split" }
func (*splitCmd) Synopsis() string { return "split a transaction into categorized parts" }
func (*splitCmd) Usage() string {
	return `split -item amount:category[:description] [-item ...] [-retain=false] <transaction-id>

  Replaces the transaction with children carrying the given amounts. With
  -retain (the default) a zero-amount parent groups them; otherwise the
  children stand alone. Splitting an existing split parent replaces its
  current children.
`
}

func (c *splitCmd) SetFlags(f *flag.FlagSet) {
	f.Var(&c.items, "item", "Split part as amount:category[:description], repeatable")
	f.BoolVar(&c.retain, "retain", true, "Keep a parent grouping the parts")
}

func (c *splitCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 || len(c.items.raw) == 0 {
		fmt.Fprintln(os.Stderr, "Error: one transaction id and at least one -item are required.")
		return subcommands.ExitUsageError
	}
	id, err := parseID(f.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}
	a, err := openApp(ctx)
	if err != nil {
		report(err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	var items []service.SplitItem
	for _, raw := range c.items.items() {
		cat, err := a.category(ctx, raw.Category)
		if err != nil {
			report(err)
			return subcommands.ExitFailure
		}
		items = append(items, service.SplitItem{Amount: raw.Amount, CategoryID: &cat.ID, Description: raw.Description})
	}

	orig, err := a.store.GetTransaction(ctx, id)
	if err != nil {
		report(err)
		return subcommands.ExitFailure
	}
	var res service.SplitResult
	if orig.IsSplitParent {
		res, err = a.splits.UpdateSplit(ctx, id, items, c.retain)
	} else {
		res, err = a.splits.CreateSplit(ctx, id, items, c.retain)
	}
	if err != nil {
		report(err)
		return subcommands.ExitFailure
	}
	if res.Parent != nil {
		fmt.Println("parent", res.Parent.ID)
	}
	for _, ch := range res.Children {
		fmt.Println("part  ", ch.ID)
	}
	return subcommands.ExitSuccess
}

type unsplitCmd struct {
	category string
	cascade  bool
	merge    bool
}

func (*unsplitCmd) Name() string     { return "unsplit" }
func (*unsplitCmd) Synopsis() string { return "undo a split" }
func (*unsplitCmd) Usage() string {
	return `unsplit [-merge [-category <name>]] [-cascade] <parent-id>

  With -merge the parts collapse back into one regular transaction whose
  amount is their sum. Otherwise the parent is deleted: with -cascade its
  parts go too, without it they remain as standalone transactions.
`
}

func (c *unsplitCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.merge, "merge", false, "Collapse the parts into one regular transaction")
	f.StringVar(&c.category, "category", "", "Category of the merged transaction (defaults to the largest part's)")
	f.BoolVar(&c.cascade, "cascade", false, "Delete the parts along with the parent")
}

func (c *unsplitCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: one parent id is required.")
		return subcommands.ExitUsageError
	}
	id, err := parseID(f.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}
	a, err := openApp(ctx)
	if err != nil {
		report(err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	if !c.merge {
		if err := a.splits.DeleteSplit(ctx, id, c.cascade); err != nil {
			report(err)
			return subcommands.ExitFailure
		}
		return subcommands.ExitSuccess
	}

	var catID *uuid.UUID
	if c.category != "" {
		cat, err := a.category(ctx, c.category)
		if err != nil {
			report(err)
			return subcommands.ExitFailure
		}
		catID = &cat.ID
	}
	t, err := a.splits.ConvertToRegular(ctx, id, catID)
	if err != nil {
		report(err)
		return subcommands.ExitFailure
	}
	fmt.Println(t.ID)
	return subcommands.ExitSuccess
}
