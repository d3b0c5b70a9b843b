package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/jask/jaskledger/internal/domain"
	"github.com/jask/jaskledger/internal/ledger"
	"github.com/jask/jaskledger/internal/repoerr"
)

// CategoryKeysMigratedFlag is the setting recording a finished key migration.
const CategoryKeysMigratedFlag = "category_keys_migrated"

// MaintenanceStore is the part of the store maintenance needs.
type MaintenanceStore interface {
	GetSetting(ctx context.Context, key string) (string, bool, error)
	SetSetting(ctx context.Context, key, value string) error
	RenameCategoryKey(ctx context.Context, from, to string) (ledger.RenameResult, error)
	Reset(ctx context.Context) error
}

// MaintenanceService houses destructive/ops actions surfaced through the CLI.
type MaintenanceService struct {
	Store MaintenanceStore
	DB    *sql.DB // optional, for VACUUM after Reset
	Log   zerolog.Logger
}

// Reset wipes all user data. It keeps the schema intact so the app can continue running.
func (s *MaintenanceService) Reset(ctx context.Context) error {
	if s.Store == nil {
		return fmt.Errorf("maintenance: store not configured")
	}
	if err := s.Store.Reset(ctx); err != nil {
		return err
	}
	if s.DB != nil {
		_, _ = s.DB.ExecContext(ctx, "VACUUM")
	}
	s.Log.Info().Msg("user data reset")
	return nil
}

// MigrationReport counts what a key migration changed.
type MigrationReport struct {
	Skipped              bool // already migrated, nothing read or written
	CategoriesRenamed    int
	CorrectionsRewritten int64
	Conflicts            []string // legacy names left alone because the canonical name exists
}

// Writes is the total number of rows the run changed.
func (r MigrationReport) Writes() int64 {
	return int64(r.CategoriesRenamed) + r.CorrectionsRewritten
}

// MigrateCategoryKeys renames legacy localized categories to their canonical
// keys and repoints learned corrections. It runs once; later calls see the
// completion flag and return a skipped report. A run interrupted midway is
// safe to repeat because each rename is its own unit of work and renamed
// names no longer match.
func (s *MaintenanceService) MigrateCategoryKeys(ctx context.Context) (MigrationReport, error) {
	var rep MigrationReport
	done, ok, err := s.Store.GetSetting(ctx, CategoryKeysMigratedFlag)
	if err != nil {
		return rep, err
	}
	if ok && done == "1" {
		rep.Skipped = true
		return rep, nil
	}

	for _, legacy := range domain.LegacyNames() {
		canonical, _ := domain.CanonicalKey(legacy)
		res, err := s.Store.RenameCategoryKey(ctx, legacy, canonical)
		if errors.Is(err, repoerr.ErrConflict) {
			s.Log.Warn().Str("legacy", legacy).Str("canonical", canonical).Msg("canonical category exists; legacy category kept")
			rep.Conflicts = append(rep.Conflicts, legacy)
			continue
		}
		if err != nil {
			return rep, err
		}
		if res.Category {
			rep.CategoriesRenamed++
		}
		rep.CorrectionsRewritten += res.Corrections
	}

	if err := s.Store.SetSetting(ctx, CategoryKeysMigratedFlag, "1"); err != nil {
		return rep, err
	}
	s.Log.Info().
		Int("categories", rep.CategoriesRenamed).
		Int64("corrections", rep.CorrectionsRewritten).
		Int("conflicts", len(rep.Conflicts)).
		Msg("category keys migrated")
	return rep, nil
}
