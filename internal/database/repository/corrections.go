package repository

import (
	"context"
	"database/sql"

	"github.com/jask/jaskledger/internal/domain"
)

// CorrectionRepo stores learned categorization overrides.
type CorrectionRepo struct{ db Querier }

func NewCorrectionRepo(db Querier) *CorrectionRepo { return &CorrectionRepo{db: db} }

func (r *CorrectionRepo) Upsert(ctx context.Context, c domain.LearnedCorrection) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO learned_corrections(key, source, category_name, updated_at)
	VALUES(?, ?, ?, ?)
	ON CONFLICT(key) DO UPDATE SET
	 source=excluded.source,
	 category_name=excluded.category_name,
	 updated_at=excluded.updated_at
	`, c.Key, string(c.Source), c.CategoryName, c.UpdatedAt)
	return err
}

func (r *CorrectionRepo) List(ctx context.Context) ([]domain.LearnedCorrection, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT key, source, category_name, updated_at FROM learned_corrections ORDER BY key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.LearnedCorrection
	for rows.Next() {
		var c domain.LearnedCorrection
		var source string
		if err := rows.Scan(&c.Key, &source, &c.CategoryName, &c.UpdatedAt); err != nil {
			return nil, err
		}
		c.Source = domain.CorrectionSource(source)
		out = append(out, c)
	}
	return out, rows.Err()
}

// RenameCategory rewrites every correction pointing at from to point at to.
func (r *CorrectionRepo) RenameCategory(ctx context.Context, from, to string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE learned_corrections SET category_name = ? WHERE category_name = ?`, to, from)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// SettingsRepo is a small key/value table for persisted flags.
type SettingsRepo struct{ db Querier }

func NewSettingsRepo(db Querier) *SettingsRepo { return &SettingsRepo{db: db} }

func (r *SettingsRepo) Get(ctx context.Context, key string) (string, bool, error) {
	var v string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&v)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (r *SettingsRepo) Set(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO settings(key, value) VALUES (?, ?)
	ON CONFLICT(key) DO UPDATE SET value=excluded.value
	`, key, value)
	return err
}
