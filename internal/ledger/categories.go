package ledger

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/jask/jaskledger/internal/domain"
	"github.com/jask/jaskledger/internal/repoerr"
)

func (s *Store) CreateCategory(ctx context.Context, c domain.Category) (domain.Category, error) {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	c.Name = strings.TrimSpace(c.Name)
	if err := c.Validate(); err != nil {
		return domain.Category{}, err
	}
	err := s.mutate(ctx, "create category", true, func(u *unit) error {
		if err := u.checkNameFree(ctx, c.Name, uuid.Nil); err != nil {
			return err
		}
		if err := u.categories.Insert(ctx, c); err != nil {
			return repoerr.Save("category", err)
		}
		return nil
	})
	if err != nil {
		return domain.Category{}, err
	}
	return c, nil
}

func (s *Store) UpdateCategory(ctx context.Context, c domain.Category) (domain.Category, error) {
	c.Name = strings.TrimSpace(c.Name)
	if err := c.Validate(); err != nil {
		return domain.Category{}, err
	}
	err := s.mutate(ctx, "update category", true, func(u *unit) error {
		if _, err := u.loadCategory(ctx, c.ID); err != nil {
			return err
		}
		if err := u.checkNameFree(ctx, c.Name, c.ID); err != nil {
			return err
		}
		if err := u.categories.Update(ctx, c); err != nil {
			return repoerr.Save("category", err)
		}
		return nil
	})
	if err != nil {
		return domain.Category{}, err
	}
	return c, nil
}

// DeleteCategory removes a category no transaction references. Pending
// suggestions pointing at it are cleared.
func (s *Store) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	return s.mutate(ctx, "delete category", true, func(u *unit) error {
		c, err := u.loadCategory(ctx, id)
		if err != nil {
			return err
		}
		n, err := u.categories.CountReferences(ctx, id)
		if err != nil {
			return repoerr.Fetch("category", err)
		}
		if n > 0 {
			return repoerr.Conflict("category", "%s is used by %d transactions", c.Name, n)
		}
		if err := u.categories.Delete(ctx, id); err != nil {
			return repoerr.Save("category", err)
		}
		return nil
	})
}

func (s *Store) GetAllCategories(ctx context.Context) ([]domain.Category, error) {
	out, err := s.categoriesRepo().List(ctx)
	if err != nil {
		return nil, fetchErr(err)
	}
	return out, nil
}

func (s *Store) GetCategory(ctx context.Context, id uuid.UUID) (domain.Category, error) {
	c, err := s.categoriesRepo().Get(ctx, id)
	if err != nil {
		return domain.Category{}, fetchErr(err)
	}
	if c == nil {
		return domain.Category{}, repoerr.NotFound("category", id.String())
	}
	return *c, nil
}

func (u *unit) loadCategory(ctx context.Context, id uuid.UUID) (domain.Category, error) {
	c, err := u.categories.Get(ctx, id)
	if err != nil {
		return domain.Category{}, repoerr.Fetch("category", err)
	}
	if c == nil {
		return domain.Category{}, repoerr.NotFound("category", id.String())
	}
	return *c, nil
}

func (u *unit) checkNameFree(ctx context.Context, name string, self uuid.UUID) error {
	other, err := u.categories.ByName(ctx, name)
	if err != nil {
		return repoerr.Fetch("category", err)
	}
	if other != nil && other.ID != self {
		return repoerr.Conflict("category", "name %q is already used", name)
	}
	return nil
}
