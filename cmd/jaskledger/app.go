package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jask/jaskledger/internal/config"
	"github.com/jask/jaskledger/internal/database"
	"github.com/jask/jaskledger/internal/domain"
	"github.com/jask/jaskledger/internal/ledger"
	"github.com/jask/jaskledger/internal/logger"
	"github.com/jask/jaskledger/internal/repoerr/policy"
	"github.com/jask/jaskledger/internal/service"
)

// app bundles the store and the services built on it for one command run.
type app struct {
	cfg   config.Config
	log   zerolog.Logger
	loc   *time.Location
	store *ledger.Store

	engine      *service.Engine
	stager      *service.Stager
	splits      *service.SplitManager
	ingest      *service.IngestService
	reconciler  *service.Reconciler
	maintenance *service.MaintenanceService
}

// openApp loads config, opens and seeds the database and runs the one-time
// category key migration.
func openApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if *dbPath != "" {
		cfg.Database.Path = *dbPath
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Format)

	store, err := ledger.Open(ctx,
		ledger.OpenConfig{Path: cfg.Database.Path, AutoMigrate: cfg.Database.AutoMigrate},
		ledger.Options{NotifyDebounce: cfg.Ledger.NotifyDebounce, Logger: log},
	)
	if err != nil {
		return nil, err
	}
	if err := database.SeedDefaults(ctx, store.DB(), strings.ToUpper(cfg.UI.DefaultCurrency)); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("seed defaults: %w", err)
	}

	loc, err := time.LoadLocation(cfg.UI.Timezone)
	if err != nil {
		log.Warn().Err(err).Str("timezone", cfg.UI.Timezone).Msg("using local timezone")
		loc = time.Local
	}

	a := &app{cfg: cfg, log: log, loc: loc, store: store}
	a.engine = service.NewEngine(store, nil, log)
	a.stager = service.NewStager(store, a.engine, log)
	a.splits = service.NewSplitManager(store, log)
	a.ingest = &service.IngestService{Store: store, Stager: a.stager}
	a.reconciler = service.NewReconciler(store)
	a.maintenance = &service.MaintenanceService{Store: store, DB: store.DB(), Log: log}

	if _, err := a.maintenance.MigrateCategoryKeys(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("migrate category keys: %w", err)
	}
	return a, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.log.Error().Err(err).Msg("close store")
	}
}

// report prints err on stderr with its severity and a retry hint.
func report(err error) {
	c := policy.Classify(err)
	if !c.Typed {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return
	}
	hint := ""
	if c.Retryable {
		hint = " (retry may succeed)"
	}
	fmt.Fprintf(os.Stderr, "%s: %v%s\n", c.Severity, err, hint)
}

// account resolves a tag, or the default account when tag is empty.
func (a *app) account(ctx context.Context, tag string) (domain.Account, error) {
	if tag == "" {
		return a.store.GetDefaultAccount(ctx)
	}
	return a.store.GetAccountByTag(ctx, tag)
}

// category resolves a category by name, canonical key or legacy alias.
func (a *app) category(ctx context.Context, name string) (domain.Category, error) {
	cats, err := a.store.GetAllCategories(ctx)
	if err != nil {
		return domain.Category{}, err
	}
	if c, ok := domain.ResolveCategory(name, cats); ok {
		return c, nil
	}
	return domain.Category{}, fmt.Errorf("unknown category %q", name)
}

func (a *app) categoryNames(ctx context.Context) (map[uuid.UUID]string, error) {
	cats, err := a.store.GetAllCategories(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[uuid.UUID]string, len(cats))
	for _, c := range cats {
		names[c.ID] = c.Name
	}
	return names, nil
}

func (a *app) parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Now().In(a.loc), nil
	}
	return time.ParseInLocation("2006-01-02", s, a.loc)
}
