package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/jask/jaskledger/internal/domain"
)

// CategoryRepo handles categories.
type CategoryRepo struct {
	db Querier
}

func NewCategoryRepo(db Querier) *CategoryRepo {
	return &CategoryRepo{db: db}
}

func (r *CategoryRepo) Insert(ctx context.Context, c domain.Category) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO categories(id, name, name_key, icon, color, sort_order)
	VALUES (?, ?, ?, ?, ?, ?)
	`, c.ID, c.Name, domain.NameKey(c.Name), c.Icon, c.Color, c.SortOrder)
	return err
}

func (r *CategoryRepo) Update(ctx context.Context, c domain.Category) error {
	_, err := r.db.ExecContext(ctx, `
	UPDATE categories SET name=?, name_key=?, icon=?, color=?, sort_order=? WHERE id=?
	`, c.Name, domain.NameKey(c.Name), c.Icon, c.Color, c.SortOrder, c.ID)
	return err
}

func (r *CategoryRepo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
	return err
}

func (r *CategoryRepo) Get(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, name, icon, color, sort_order FROM categories WHERE id = ?`, id)
	return scanCategoryRow(row)
}

// ByName looks a name up case-insensitively.
func (r *CategoryRepo) ByName(ctx context.Context, name string) (*domain.Category, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, name, icon, color, sort_order FROM categories WHERE name_key = ?`, domain.NameKey(name))
	return scanCategoryRow(row)
}

func (r *CategoryRepo) List(ctx context.Context) ([]domain.Category, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, icon, color, sort_order FROM categories ORDER BY sort_order, name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.Category
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Icon, &c.Color, &c.SortOrder); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// CountReferences counts transactions tagged with id.
func (r *CategoryRepo) CountReferences(ctx context.Context, id uuid.UUID) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions WHERE category_id = ?`, id).Scan(&n)
	return n, err
}

func scanCategoryRow(row *sql.Row) (*domain.Category, error) {
	var c domain.Category
	if err := row.Scan(&c.ID, &c.Name, &c.Icon, &c.Color, &c.SortOrder); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}
