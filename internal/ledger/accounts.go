package ledger

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/jask/jaskledger/internal/domain"
	"github.com/jask/jaskledger/internal/repoerr"
)

// CreateAccount stores a new account. The first account always becomes the
// default; creating a default account demotes the previous one.
func (s *Store) CreateAccount(ctx context.Context, a domain.Account) (domain.Account, error) {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	a.Tag = strings.TrimSpace(a.Tag)
	a.Currency = strings.ToUpper(strings.TrimSpace(a.Currency))
	if err := a.Validate(); err != nil {
		return domain.Account{}, err
	}
	err := s.mutate(ctx, "create account", true, func(u *unit) error {
		if err := u.checkTagFree(ctx, a.Tag, uuid.Nil); err != nil {
			return err
		}
		n, err := u.accounts.Count(ctx)
		if err != nil {
			return repoerr.Fetch("account", err)
		}
		if n == 0 {
			a.IsDefault = true
		}
		if a.IsDefault {
			if err := u.accounts.ClearDefault(ctx); err != nil {
				return repoerr.Save("account", err)
			}
		}
		a.CreatedAt = u.now()
		a.UpdatedAt = a.CreatedAt
		if err := u.accounts.Insert(ctx, a); err != nil {
			return repoerr.Save("account", err)
		}
		return nil
	})
	if err != nil {
		return domain.Account{}, err
	}
	return a, nil
}

// UpdateAccount edits an account. Setting IsDefault moves the default here;
// clearing it on the current default is a conflict because exactly one
// account must stay default. The balance is derived and never taken from a.
func (s *Store) UpdateAccount(ctx context.Context, a domain.Account) (domain.Account, error) {
	a.Tag = strings.TrimSpace(a.Tag)
	a.Currency = strings.ToUpper(strings.TrimSpace(a.Currency))
	if err := a.Validate(); err != nil {
		return domain.Account{}, err
	}
	err := s.mutate(ctx, "update account", true, func(u *unit) error {
		old, err := u.loadAccount(ctx, a.ID)
		if err != nil {
			return err
		}
		if err := u.checkTagFree(ctx, a.Tag, a.ID); err != nil {
			return err
		}
		if old.IsDefault && !a.IsDefault {
			return repoerr.Conflict("account", "%s is the default account; make another account default instead", old.Tag)
		}
		if a.IsDefault && !old.IsDefault {
			if err := u.accounts.ClearDefault(ctx); err != nil {
				return repoerr.Save("account", err)
			}
		}
		a.Balance = old.Balance
		a.CreatedAt = old.CreatedAt
		a.UpdatedAt = u.now()
		if err := u.accounts.Update(ctx, a); err != nil {
			return repoerr.Save("account", err)
		}
		return nil
	})
	if err != nil {
		return domain.Account{}, err
	}
	return a, nil
}

// DeleteAccount removes an account that owns no transactions and is not the
// last one. Deleting the default promotes the oldest remaining account.
func (s *Store) DeleteAccount(ctx context.Context, id uuid.UUID) error {
	return s.mutate(ctx, "delete account", true, func(u *unit) error {
		old, err := u.loadAccount(ctx, id)
		if err != nil {
			return err
		}
		n, err := u.accounts.Count(ctx)
		if err != nil {
			return repoerr.Fetch("account", err)
		}
		if n <= 1 {
			return repoerr.Conflict("account", "cannot delete the last remaining account")
		}
		owned, err := u.accounts.CountTransactions(ctx, id)
		if err != nil {
			return repoerr.Fetch("account", err)
		}
		if owned > 0 {
			return repoerr.Conflict("account", "%s still owns %d transactions", old.Tag, owned)
		}
		open, err := u.accounts.CountOpenPending(ctx, id)
		if err != nil {
			return repoerr.Fetch("account", err)
		}
		if open > 0 {
			return repoerr.Conflict("account", "%s still has %d pending imports", old.Tag, open)
		}
		if err := u.accounts.Delete(ctx, id); err != nil {
			return repoerr.Save("account", err)
		}
		if !old.IsDefault {
			return nil
		}
		rest, err := u.accounts.List(ctx)
		if err != nil {
			return repoerr.Fetch("account", err)
		}
		if err := u.accounts.SetDefault(ctx, rest[0].ID); err != nil {
			return repoerr.Save("account", err)
		}
		return nil
	})
}

func (s *Store) GetAllAccounts(ctx context.Context) ([]domain.Account, error) {
	out, err := s.accountsRepo().List(ctx)
	if err != nil {
		return nil, fetchErr(err)
	}
	return out, nil
}

func (s *Store) GetAccount(ctx context.Context, id uuid.UUID) (domain.Account, error) {
	a, err := s.accountsRepo().Get(ctx, id)
	if err != nil {
		return domain.Account{}, fetchErr(err)
	}
	if a == nil {
		return domain.Account{}, repoerr.NotFound("account", id.String())
	}
	return *a, nil
}

// GetAccountByTag looks a tag up case-insensitively.
func (s *Store) GetAccountByTag(ctx context.Context, tag string) (domain.Account, error) {
	a, err := s.accountsRepo().ByTag(ctx, tag)
	if err != nil {
		return domain.Account{}, fetchErr(err)
	}
	if a == nil {
		return domain.Account{}, repoerr.NotFound("account", tag)
	}
	return *a, nil
}

// GetDefaultAccount returns the default account, or EntityNotFound when no
// account exists.
func (s *Store) GetDefaultAccount(ctx context.Context) (domain.Account, error) {
	a, err := s.accountsRepo().Default(ctx)
	if err != nil {
		return domain.Account{}, fetchErr(err)
	}
	if a == nil {
		return domain.Account{}, repoerr.NotFound("account", "default")
	}
	return *a, nil
}

func (u *unit) loadAccount(ctx context.Context, id uuid.UUID) (domain.Account, error) {
	a, err := u.accounts.Get(ctx, id)
	if err != nil {
		return domain.Account{}, repoerr.Fetch("account", err)
	}
	if a == nil {
		return domain.Account{}, repoerr.NotFound("account", id.String())
	}
	return *a, nil
}

func (u *unit) checkTagFree(ctx context.Context, tag string, self uuid.UUID) error {
	other, err := u.accounts.ByTag(ctx, tag)
	if err != nil {
		return repoerr.Fetch("account", err)
	}
	if other != nil && other.ID != self {
		return repoerr.Conflict("account", "tag %s is already used by %s", tag, other.Name)
	}
	return nil
}
