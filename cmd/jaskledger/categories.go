package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/subcommands"

	"github.com/jask/jaskledger/internal/service"
)

type categoriesCmd struct{}

func (*categoriesCmd) Name() string     { return "categories" }
func (*categoriesCmd) Synopsis() string { return "list categories" }
func (*categoriesCmd) Usage() string {
	return `categories
`
}

func (*categoriesCmd) SetFlags(*flag.FlagSet) {}

func (*categoriesCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := openApp(ctx)
	if err != nil {
		report(err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	cats, err := a.store.GetAllCategories(ctx)
	if err != nil {
		report(err)
		return subcommands.ExitFailure
	}
	for _, c := range cats {
		fmt.Printf("%3d %-18s %-12s %s\n", c.SortOrder, c.Name, c.Icon, c.Color)
	}
	return subcommands.ExitSuccess
}

type suggestCmd struct {
	merchant string
}

func (*suggestCmd) Name() string     { return "suggest" }
func (*suggestCmd) Synopsis() string { return "suggest a category for a description" }
func (*suggestCmd) Usage() string {
	return `suggest [-merchant <name>] [<description>]

  Prints the suggested category, its confidence and where it came from.
  Without a description, lines are read from stdin as they are typed and
  a suggestion is printed once input pauses.
`
}

func (c *suggestCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.merchant, "merchant", "", "Merchant name")
}

func (c *suggestCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := openApp(ctx)
	if err != nil {
		report(err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	var merchant *string
	if m := strings.TrimSpace(c.merchant); m != "" {
		merchant = &m
	}

	if f.NArg() > 0 {
		sug, err := a.engine.Suggest(ctx, strings.Join(f.Args(), " "), merchant)
		if err != nil {
			report(err)
			return subcommands.ExitFailure
		}
		printSuggestion(sug)
		return subcommands.ExitSuccess
	}

	delivered := make(chan service.SuggestResult, 16)
	sg := service.NewSuggester(a.engine, a.cfg.Suggest.Debounce, func(r service.SuggestResult) {
		select {
		case delivered <- r:
		default:
		}
	})
	defer sg.Close()

	last := ""
	sc := bufio.NewScanner(os.Stdin)
	for sc.Scan() {
		last = sc.Text()
		sg.Update(ctx, service.SuggestInput{Description: last, Merchant: merchant})
		drain(delivered)
	}
	if err := sc.Err(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	if last == "" {
		return subcommands.ExitSuccess
	}

	timeout := time.After(a.cfg.Suggest.Debounce + 5*time.Second)
	for {
		select {
		case r := <-delivered:
			if r.Err != nil {
				report(r.Err)
				return subcommands.ExitFailure
			}
			fmt.Printf("%s => ", r.Input.Description)
			printSuggestion(r.Suggestion)
			if r.Input.Description == last {
				return subcommands.ExitSuccess
			}
		case <-timeout:
			fmt.Fprintln(os.Stderr, "Error: suggestion timed out")
			return subcommands.ExitFailure
		}
	}
}

// drain prints results that arrived while input was still coming in.
func drain(ch <-chan service.SuggestResult) {
	for {
		select {
		case r := <-ch:
			if r.Err != nil {
				report(r.Err)
				continue
			}
			fmt.Printf("%s => ", r.Input.Description)
			printSuggestion(r.Suggestion)
		default:
			return
		}
	}
}

func printSuggestion(s service.Suggestion) {
	name := "-"
	if s.Category != nil {
		name = s.Category.Name
	}
	auto := ""
	if s.AutoAccept() {
		auto = " (auto)"
	}
	fmt.Printf("%s %.2f %s%s\n", name, s.Confidence, s.Source, auto)
}

type learnCmd struct {
	merchant string
	category string
}

func (*learnCmd) Name() string     { return "learn" }
func (*learnCmd) Synopsis() string { return "teach the categorizer a correction" }
func (*learnCmd) Usage() string {
	return `learn -category <name> [-merchant <name>] [<description>]

  Records that the merchant, or the description when no merchant is given,
  belongs in the category. Later suggestions for it use the correction.
`
}

func (c *learnCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.merchant, "merchant", "", "Merchant name")
	f.StringVar(&c.category, "category", "", "Category name or key (required)")
}

func (c *learnCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	desc := strings.Join(f.Args(), " ")
	if c.category == "" || (desc == "" && c.merchant == "") {
		fmt.Fprintln(os.Stderr, "Error: -category and a merchant or description are required.")
		return subcommands.ExitUsageError
	}
	a, err := openApp(ctx)
	if err != nil {
		report(err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	cat, err := a.category(ctx, c.category)
	if err != nil {
		report(err)
		return subcommands.ExitFailure
	}
	var merchant *string
	if m := strings.TrimSpace(c.merchant); m != "" {
		merchant = &m
	}
	if err := a.engine.Learn(ctx, desc, merchant, cat); err != nil {
		report(err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
