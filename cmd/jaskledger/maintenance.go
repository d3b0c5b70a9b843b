package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/google/subcommands"

	"github.com/jask/jaskledger/internal/service"
	"github.com/jask/jaskledger/internal/testdata"
)

type migrateKeysCmd struct{}

func (*migrateKeysCmd) Name() string { return "migrate-keys" }
func (*migrateKeysCmd) Synopsis() string {
	return "rename legacy localized categories to canonical keys"
}
func (*migrateKeysCmd) Usage() string {
	return `migrate-keys

  Renames categories still stored under their legacy localized names and
  repoints learned corrections. The migration also runs on every start;
  once complete it is a no-op. Legacy categories whose canonical name is
  already taken are kept and listed.
`
}

func (*migrateKeysCmd) SetFlags(*flag.FlagSet) {}

func (*migrateKeysCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := openApp(ctx)
	if err != nil {
		report(err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	rep, err := a.maintenance.MigrateCategoryKeys(ctx)
	if err != nil {
		report(err)
		return subcommands.ExitFailure
	}
	if rep.Skipped {
		fmt.Println("category keys already migrated")
		return subcommands.ExitSuccess
	}
	fmt.Printf("renamed %d categories, rewrote %d corrections\n", rep.CategoriesRenamed, rep.CorrectionsRewritten)
	if len(rep.Conflicts) > 0 {
		fmt.Println("kept (canonical name taken):", strings.Join(rep.Conflicts, ", "))
	}
	return subcommands.ExitSuccess
}

type resetCmd struct {
	yes bool
}

func (*resetCmd) Name() string     { return "reset" }
func (*resetCmd) Synopsis() string { return "delete all ledger data" }
func (*resetCmd) Usage() string {
	return `reset -yes

  Deletes every account, category, transaction, pending record and learned
  correction. Settings and the schema are kept. The default categories and
  account are seeded again on the next start.
`
}

func (c *resetCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.yes, "yes", false, "Confirm the reset")
}

func (c *resetCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if !c.yes {
		fmt.Fprintln(os.Stderr, "Error: reset deletes all data; pass -yes to confirm.")
		return subcommands.ExitUsageError
	}
	a, err := openApp(ctx)
	if err != nil {
		report(err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	if err := a.maintenance.Reset(ctx); err != nil {
		report(err)
		return subcommands.ExitFailure
	}
	fmt.Println("ledger reset")
	return subcommands.ExitSuccess
}

type watchCmd struct {
	account  string
	interval time.Duration
	purge    time.Duration
}

func (*watchCmd) Name() string     { return "watch" }
func (*watchCmd) Synopsis() string { return "stage statements dropped into a directory" }
func (*watchCmd) Usage() string {
	return `watch [-account <#tag>] [-interval <duration>] [-purge <age>] <dir>

  Polls dir for statement CSVs and stages their rows for review until
  interrupted. SIGUSR1 pauses polling and SIGUSR2 resumes it. With -purge,
  accepted and dismissed records older than the given age are removed on
  exit.
`
}

func (c *watchCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.account, "account", "", "Account the statements belong to (defaults to the default account)")
	f.DurationVar(&c.interval, "interval", 0, "Poll interval (defaults to pending.poll_interval)")
	f.DurationVar(&c.purge, "purge", 0, "Remove reviewed pending records older than this on exit")
}

func (c *watchCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: one directory is required.")
		return subcommands.ExitUsageError
	}
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
	interval := c.interval
	if interval <= 0 {
		interval = a.cfg.Pending.PollInterval
	}
	feed := &service.DirFeed{Dir: f.Arg(0), AccountID: acct.ID, TZ: a.loc, Log: a.log}
	mon := service.NewMonitor(feed, a.stager, interval, a.log)
	mon.PersistCursor(a.store, "feed_cursor:"+acct.ID.String()+":"+filepath.Clean(f.Arg(0)))

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := mon.Start(ctx); err != nil {
		report(err)
		return subcommands.ExitFailure
	}

	pauses := make(chan os.Signal, 1)
	signal.Notify(pauses, syscall.SIGUSR1, syscall.SIGUSR2)
	defer signal.Stop(pauses)

	for {
		select {
		case sig := <-pauses:
			if sig == syscall.SIGUSR1 {
				mon.Pause()
			} else {
				mon.Resume()
			}
		case <-ctx.Done():
			mon.Stop()
			if c.purge > 0 {
				n, err := a.store.PurgeTransitioned(context.Background(), time.Now().Add(-c.purge))
				if err != nil {
					report(err)
					return subcommands.ExitFailure
				}
				a.log.Info().Int64("purged", n).Msg("reviewed pending records removed")
			}
			return subcommands.ExitSuccess
		}
	}
}

type seedDemoCmd struct {
	transactions int
	splits       int
	pending      int
	seed         int64
}

func (*seedDemoCmd) Name() string     { return "seed-demo" }
func (*seedDemoCmd) Synopsis() string { return "add a sample account with generated activity" }
func (*seedDemoCmd) Usage() string {
	return `seed-demo [-n <transactions>] [-splits <n>] [-pending <n>] [-seed <n>]
`
}

func (c *seedDemoCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.transactions, "n", 50, "Number of transactions")
	f.IntVar(&c.splits, "splits", 3, "Number of expenses to split")
	f.IntVar(&c.pending, "pending", 5, "Number of pending records")
	f.Int64Var(&c.seed, "seed", 0, "Random seed (0 picks one from the clock)")
}

func (c *seedDemoCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := openApp(ctx)
	if err != nil {
		report(err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	seed := c.seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	res, err := testdata.Seed(ctx, a.store, rand.New(rand.NewSource(seed)), testdata.Options{
		Transactions: c.transactions,
		Splits:       c.splits,
		Pending:      c.pending,
	})
	if err != nil {
		report(err)
		return subcommands.ExitFailure
	}
	fmt.Printf("created %s with %d transactions and %d pending (seed %d)\n",
		res.Account.Tag, len(res.Transactions), len(res.Pending), seed)
	return subcommands.ExitSuccess
}
