package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/subcommands"
	"github.com/google/uuid"

	"github.com/jask/jaskledger/internal/domain"
)

type accountsCmd struct{}

func (*accountsCmd) Name() string     { return "accounts" }
func (*accountsCmd) Synopsis() string { return "list accounts and their balances" }
func (*accountsCmd) Usage() string {
	return `accounts

  Lists every account with its tag, type and current balance. The default
  account is marked with '*'.
`
}

func (*accountsCmd) SetFlags(*flag.FlagSet) {}

func (*accountsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := openApp(ctx)
	if err != nil {
		report(err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	accts, err := a.store.GetAllAccounts(ctx)
	if err != nil {
		report(err)
		return subcommands.ExitFailure
	}
	for _, acct := range accts {
		mark := " "
		if acct.IsDefault {
			mark = "*"
		}
		fmt.Printf("%s %-12s %-20s %-10s %16s\n", mark, acct.Tag, acct.Name, acct.Type, formatAmount(acct.Balance, acct.Currency))
	}
	return subcommands.ExitSuccess
}

type addAccountCmd struct {
	name      string
	tag       string
	kind      string
	currency  string
	isDefault bool
}

func (*addAccountCmd) Name() string     { return "add-account" }
func (*addAccountCmd) Synopsis() string { return "create a new account" }
func (*addAccountCmd) Usage() string {
	return `add-account -name <name> -tag <#tag> [-type cash|card|savings|investment] [-currency <code>] [-default]

  Creates an account. Tags start with '#' and are unique regardless of case.
  The first account ever created becomes the default.
`
}

func (c *addAccountCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.name, "name", "", "Account name (required)")
	f.StringVar(&c.tag, "tag", "", "Account tag, e.g. #card (required)")
	f.StringVar(&c.kind, "type", string(domain.AccountCard), "Account type")
	f.StringVar(&c.currency, "currency", "", "ISO 4217 currency code (defaults to ui.default_currency)")
	f.BoolVar(&c.isDefault, "default", false, "Make this the default account")
}

func (c *addAccountCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.name == "" || c.tag == "" {
		fmt.Fprintln(os.Stderr, "Error: -name and -tag are required.")
		return subcommands.ExitUsageError
	}
	a, err := openApp(ctx)
	if err != nil {
		report(err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	currency := c.currency
	if currency == "" {
		currency = a.cfg.UI.DefaultCurrency
	}
	acct, err := a.store.CreateAccount(ctx, domain.Account{
		ID:        uuid.New(),
		Name:      c.name,
		Tag:       c.tag,
		Type:      domain.AccountType(strings.ToLower(c.kind)),
		Currency:  currency,
		IsDefault: c.isDefault,
	})
	if err != nil {
		report(err)
		return subcommands.ExitFailure
	}
	fmt.Printf("created %s %s (%s)\n", acct.Tag, acct.Name, acct.ID)
	return subcommands.ExitSuccess
}
