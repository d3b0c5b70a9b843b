package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
	"github.com/google/uuid"

	"github.com/jask/jaskledger/internal/service"
)

type pendingCmd struct {
	account    string
	duplicates bool
}

func (*pendingCmd) Name() string     { return "pending" }
func (*pendingCmd) Synopsis() string { return "list bank transactions waiting for review" }
func (*pendingCmd) Usage() string {
	return `pending [-account <#tag>] [-duplicates]

  Lists open pending transactions with their suggested category and
  confidence. Suggestions that would be accepted automatically are marked
  with '!'. With -duplicates each record lists committed transactions that
  look like the same payment.
`
}

func (c *pendingCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.account, "account", "", "Only records for this account")
	f.BoolVar(&c.duplicates, "duplicates", false, "Show likely duplicates already in the ledger")
}

func (c *pendingCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := openApp(ctx)
	if err != nil {
		report(err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	var accountID *uuid.UUID
	if c.account != "" {
		acct, err := a.store.GetAccountByTag(ctx, c.account)
		if err != nil {
			report(err)
			return subcommands.ExitFailure
		}
		accountID = &acct.ID
	}
	items, err := a.stager.List(ctx, accountID)
	if err != nil {
		report(err)
		return subcommands.ExitFailure
	}
	names, err := a.categoryNames(ctx)
	if err != nil {
		report(err)
		return subcommands.ExitFailure
	}
	for _, p := range items {
		mark := " "
		if p.Confidence >= service.AutoAcceptThreshold {
			mark = "!"
		}
		fmt.Printf("%s %s %s %-11s %12s  %-16s %.2f %s\n", mark, p.ID, p.Date.In(a.loc).Format("2006-01-02"), p.Type,
			p.Amount.StringFixed(2), categoryLabel(p.SuggestedCategoryID, names), p.Confidence, p.Description)
		if !c.duplicates {
			continue
		}
		matches, err := a.reconciler.Duplicates(ctx, p.ID)
		if err != nil {
			report(err)
			return subcommands.ExitFailure
		}
		for _, m := range matches {
			fmt.Printf("    ~ %s %s %.2f %s\n", m.Transaction.ID, m.Transaction.Date.In(a.loc).Format("2006-01-02"), m.Similarity, m.Transaction.Description)
		}
	}
	return subcommands.ExitSuccess
}

type importCmd struct {
	account string
}

func (*importCmd) Name() string     { return "import" }
func (*importCmd) Synopsis() string { return "stage a bank statement CSV for review" }
func (*importCmd) Usage() string {
	return `import [-account <#tag>] <file.csv>

  Reads rows of date, amount, description, merchant, bank_id. Negative
  amounts are expenses, positive ones income; "1 234,50" and "1,234.50"
  both read as 1234.50. Rows staged before are skipped, even once accepted
  or dismissed. Nothing reaches the ledger until it is accepted.
`
}

func (c *importCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.account, "account", "", "Account the statement belongs to (defaults to the default account)")
}

func (c *importCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: one CSV file is required.")
		return subcommands.ExitUsageError
	}
	file, err := os.Open(f.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer file.Close()

	a, err := openApp(ctx)
	if err != nil {
		report(err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	acct, err := a.account(ctx, c.account)
	if err != nil {
		report(err)
		return subcommands.ExitFailure
	}
	res, err := a.ingest.ImportCSV(ctx, file, acct.Tag, a.loc)
	if err != nil {
		report(err)
		return subcommands.ExitFailure
	}
	for _, rowErr := range res.Errors {
		fmt.Fprintln(os.Stderr, "warning:", rowErr)
	}
	fmt.Printf("staged %d, skipped %d, failed %d\n", res.Imported, res.Skipped, len(res.Errors))
	return subcommands.ExitSuccess
}

type acceptCmd struct {
	category string
}

func (*acceptCmd) Name() string     { return "accept" }
func (*acceptCmd) Synopsis() string { return "commit a pending transaction to the ledger" }
func (*acceptCmd) Usage() string {
	return `accept [-category <name>] <pending-id>

  Commits the pending record. Without -category the suggestion is used;
  choosing a different category teaches the categorizer for next time.
`
}

func (c *acceptCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.category, "category", "", "Category to file the transaction under")
}

func (c *acceptCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: one pending id is required.")
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

	var catID *uuid.UUID
	if c.category != "" {
		cat, err := a.category(ctx, c.category)
		if err != nil {
			report(err)
			return subcommands.ExitFailure
		}
		catID = &cat.ID
	}
	t, err := a.stager.Accept(ctx, id, catID)
	if err != nil {
		report(err)
		return subcommands.ExitFailure
	}
	fmt.Println(t.ID)
	return subcommands.ExitSuccess
}

type dismissCmd struct{}

func (*dismissCmd) Name() string     { return "dismiss" }
func (*dismissCmd) Synopsis() string { return "discard a pending transaction" }
func (*dismissCmd) Usage() string {
	return `dismiss <pending-id> [<pending-id> ...]
`
}

func (*dismissCmd) SetFlags(*flag.FlagSet) {}

func (*dismissCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Error: at least one pending id is required.")
		return subcommands.ExitUsageError
	}
	a, err := openApp(ctx)
	if err != nil {
		report(err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	status := subcommands.ExitSuccess
	for _, arg := range f.Args() {
		id, err := parseID(arg)
		if err == nil {
			err = a.stager.Dismiss(ctx, id)
		}
		if err != nil {
			report(err)
			status = subcommands.ExitFailure
		}
	}
	return status
}
