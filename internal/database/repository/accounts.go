package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jask/jaskledger/internal/domain"
)

// AccountRepo handles accounts.
type AccountRepo struct {
	db Querier
}

func NewAccountRepo(db Querier) *AccountRepo {
	return &AccountRepo{db: db}
}

const accountColumns = `id, name, tag, balance, is_default, account_type, currency, created_at, updated_at`

func (r *AccountRepo) Insert(ctx context.Context, a domain.Account) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO accounts(id, name, tag, tag_key, balance, is_default, account_type, currency, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, a.ID, a.Name, a.Tag, domain.TagKey(a.Tag), a.Balance, boolInt(a.IsDefault), string(a.Type), a.Currency, a.CreatedAt, a.UpdatedAt)
	return err
}

func (r *AccountRepo) Update(ctx context.Context, a domain.Account) error {
	_, err := r.db.ExecContext(ctx, `
	UPDATE accounts SET
	 name=?, tag=?, tag_key=?, balance=?, is_default=?, account_type=?, currency=?, updated_at=?
	WHERE id=?
	`, a.Name, a.Tag, domain.TagKey(a.Tag), a.Balance, boolInt(a.IsDefault), string(a.Type), a.Currency, a.UpdatedAt, a.ID)
	return err
}

// SetBalance overwrites the stored balance.
func (r *AccountRepo) SetBalance(ctx context.Context, id uuid.UUID, balance decimal.Decimal) error {
	_, err := r.db.ExecContext(ctx, `UPDATE accounts SET balance = ? WHERE id = ?`, balance, id)
	return err
}

// ClearDefault drops the default flag from every account.
func (r *AccountRepo) ClearDefault(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `UPDATE accounts SET is_default = 0 WHERE is_default = 1`)
	return err
}

func (r *AccountRepo) SetDefault(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `UPDATE accounts SET is_default = 1 WHERE id = ?`, id)
	return err
}

func (r *AccountRepo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, id)
	return err
}

func (r *AccountRepo) Get(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id)
	return scanAccountRow(row)
}

// ByTag looks a tag up case-insensitively.
func (r *AccountRepo) ByTag(ctx context.Context, tag string) (*domain.Account, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE tag_key = ?`, domain.TagKey(tag))
	return scanAccountRow(row)
}

func (r *AccountRepo) Default(ctx context.Context) (*domain.Account, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE is_default = 1`)
	return scanAccountRow(row)
}

func (r *AccountRepo) List(ctx context.Context) ([]domain.Account, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+accountColumns+` FROM accounts ORDER BY created_at, name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *AccountRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM accounts`).Scan(&n)
	return n, err
}

// CountTransactions counts transactions drawing on or paying into id.
func (r *AccountRepo) CountTransactions(ctx context.Context, id uuid.UUID) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions WHERE from_account_id = ? OR to_account_id = ?`, id, id).Scan(&n)
	return n, err
}

// CountOpenPending counts pending imports still awaiting a decision for id.
func (r *AccountRepo) CountOpenPending(ctx context.Context, id uuid.UUID) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM pending_transactions WHERE account_id = ? AND status = 'pending'`, id).Scan(&n)
	return n, err
}

func scanAccountRow(row *sql.Row) (*domain.Account, error) {
	a, err := scanAccount(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

func scanAccount(row scanner) (domain.Account, error) {
	var a domain.Account
	var isDefault int
	var typ string
	if err := row.Scan(&a.ID, &a.Name, &a.Tag, &a.Balance, &isDefault, &typ, &a.Currency, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return domain.Account{}, err
	}
	a.IsDefault = isDefault == 1
	a.Type = domain.AccountType(typ)
	return a, nil
}
