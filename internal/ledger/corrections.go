package ledger

import (
	"context"
	"strings"

	"github.com/jask/jaskledger/internal/domain"
	"github.com/jask/jaskledger/internal/repoerr"
)

// LearnedCorrections returns every stored override, ordered by key.
func (s *Store) LearnedCorrections(ctx context.Context) ([]domain.LearnedCorrection, error) {
	var out []domain.LearnedCorrection
	err := s.read(ctx, func(u *unit) error {
		var err error
		out, err = u.corrections.List(ctx)
		return err
	})
	return out, err
}

// SaveLearnedCorrection inserts or replaces the override for c.Key.
func (s *Store) SaveLearnedCorrection(ctx context.Context, c domain.LearnedCorrection) error {
	if strings.TrimSpace(c.Key) == "" {
		return repoerr.Invalid("learned correction", "key is required")
	}
	if strings.TrimSpace(c.CategoryName) == "" {
		return repoerr.Invalid("learned correction", "category name is required")
	}
	return s.mutate(ctx, "learn correction", false, func(u *unit) error {
		c.UpdatedAt = u.now()
		if err := u.corrections.Upsert(ctx, c); err != nil {
			return repoerr.Save("learned correction", err)
		}
		return nil
	})
}

func (s *Store) GetSetting(ctx context.Context, key string) (string, bool, error) {
	var (
		value string
		ok    bool
	)
	err := s.read(ctx, func(u *unit) error {
		var err error
		value, ok, err = u.settings.Get(ctx, key)
		return err
	})
	return value, ok, err
}

func (s *Store) SetSetting(ctx context.Context, key, value string) error {
	return s.mutate(ctx, "set setting", false, func(u *unit) error {
		if err := u.settings.Set(ctx, key, value); err != nil {
			return repoerr.Save("setting", err)
		}
		return nil
	})
}

// RenameResult counts the rows a category rename rewrote.
type RenameResult struct {
	Category    bool
	Corrections int64
}

// RenameCategoryKey renames the category named from to to and rewrites
// learned corrections that point at from, in one unit of work. A missing
// source is a no-op; an existing target is a conflict.
func (s *Store) RenameCategoryKey(ctx context.Context, from, to string) (RenameResult, error) {
	var res RenameResult
	err := s.mutate(ctx, "rename category key", true, func(u *unit) error {
		src, err := u.categories.ByName(ctx, from)
		if err != nil {
			return repoerr.Fetch("category", err)
		}
		if src != nil {
			dst, err := u.categories.ByName(ctx, to)
			if err != nil {
				return repoerr.Fetch("category", err)
			}
			if dst != nil && dst.ID != src.ID {
				return repoerr.Conflict("category", "cannot rename %q: %q already exists", from, to)
			}
			src.Name = to
			if err := u.categories.Update(ctx, *src); err != nil {
				return repoerr.Save("category", err)
			}
			res.Category = true
		}
		n, err := u.corrections.RenameCategory(ctx, from, to)
		if err != nil {
			return repoerr.Save("learned correction", err)
		}
		res.Corrections = n
		return nil
	})
	return res, err
}
