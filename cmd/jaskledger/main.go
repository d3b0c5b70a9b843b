package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"
)

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")
	Register(commander)

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}

// Register the subcommands.
func Register(c *subcommands.Commander) {
	c.Register(&accountsCmd{}, "accounts")
	c.Register(&addAccountCmd{}, "accounts")

	c.Register(&categoriesCmd{}, "categories")
	c.Register(&suggestCmd{}, "categories")
	c.Register(&learnCmd{}, "categories")

	c.Register(&addCmd{}, "transactions")
	c.Register(&listCmd{}, "transactions")
	c.Register(&splitCmd{}, "transactions")
	c.Register(&unsplitCmd{}, "transactions")

	c.Register(&pendingCmd{}, "pending")
	c.Register(&importCmd{}, "pending")
	c.Register(&acceptCmd{}, "pending")
	c.Register(&dismissCmd{}, "pending")
	c.Register(&watchCmd{}, "pending")

	c.Register(&migrateKeysCmd{}, "maintenance")
	c.Register(&resetCmd{}, "maintenance")
	c.Register(&seedDemoCmd{}, "maintenance")
}

var dbPath = flag.String("db", "", "Path to the ledger database (overrides database.path from config)")
