package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jask/jaskledger/internal/domain"
)

// TransactionFilters defines SQL-side list filters. Category filtering is
// applied by the caller because split parents match on their children.
type TransactionFilters struct {
	AccountID *uuid.UUID
	From      time.Time
	To        time.Time
}

// TransactionRepo handles transactions.
type TransactionRepo struct {
	db Querier
}

func NewTransactionRepo(db Querier) *TransactionRepo { return &TransactionRepo{db: db} }

const transactionColumns = `id, created_at, date, tx_type, amount, category_id, description, merchant_name,
 from_account_id, to_account_id, parent_transaction_id, is_split_parent, split_index`

func (r *TransactionRepo) Insert(ctx context.Context, t domain.Transaction) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO transactions(`+transactionColumns+`)
	VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
	`,
		t.ID, t.CreatedAt, t.Date, string(t.Type), t.Amount, t.CategoryID, t.Description, t.MerchantName,
		t.FromAccountID, t.ToAccountID, t.ParentID, boolInt(t.IsSplitParent), t.SplitIndex)
	return err
}

func (r *TransactionRepo) Update(ctx context.Context, t domain.Transaction) error {
	_, err := r.db.ExecContext(ctx, `
	UPDATE transactions SET
	 date=?, tx_type=?, amount=?, category_id=?, description=?, merchant_name=?,
	 from_account_id=?, to_account_id=?, parent_transaction_id=?, is_split_parent=?, split_index=?
	WHERE id=?
	`,
		t.Date, string(t.Type), t.Amount, t.CategoryID, t.Description, t.MerchantName,
		t.FromAccountID, t.ToAccountID, t.ParentID, boolInt(t.IsSplitParent), t.SplitIndex, t.ID)
	return err
}

func (r *TransactionRepo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	return err
}

// Get returns the row without its splits.
func (r *TransactionRepo) Get(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = ?`, id)
	t, err := scanTransaction(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

// Children returns the split children of parentID in split order.
func (r *TransactionRepo) Children(ctx context.Context, parentID uuid.UUID) ([]domain.Transaction, error) {
	return r.query(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE parent_transaction_id = ? ORDER BY split_index, created_at, id`, parentID)
}

// ChildrenOf groups the split children of every id in parentIDs.
func (r *TransactionRepo) ChildrenOf(ctx context.Context, parentIDs []uuid.UUID) (map[uuid.UUID][]domain.Transaction, error) {
	out := make(map[uuid.UUID][]domain.Transaction)
	if len(parentIDs) == 0 {
		return out, nil
	}
	args := make([]interface{}, len(parentIDs))
	for i, id := range parentIDs {
		args[i] = id
	}
	children, err := r.query(ctx, `SELECT `+transactionColumns+` FROM transactions
	WHERE parent_transaction_id IN (`+placeholders(len(parentIDs))+`)
	ORDER BY split_index, created_at, id`, args...)
	if err != nil {
		return nil, err
	}
	for _, c := range children {
		out[*c.ParentID] = append(out[*c.ParentID], c)
	}
	return out, nil
}

// ListTopLevel returns every row that is not a split child, newest first.
func (r *TransactionRepo) ListTopLevel(ctx context.Context, f TransactionFilters) ([]domain.Transaction, error) {
	where := []string{"parent_transaction_id IS NULL"}
	var args []interface{}

	if f.AccountID != nil {
		where = append(where, "(from_account_id = ? OR to_account_id = ?)")
		args = append(args, *f.AccountID, *f.AccountID)
	}
	if !f.From.IsZero() {
		where = append(where, "date >= ?")
		args = append(args, f.From.UTC())
	}
	if !f.To.IsZero() {
		where = append(where, "date <= ?")
		args = append(args, f.To.UTC())
	}

	query := "SELECT " + transactionColumns + " FROM transactions WHERE " + strings.Join(where, " AND ") +
		" ORDER BY date DESC, created_at DESC, id"
	return r.query(ctx, query, args...)
}

func (r *TransactionRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions`).Scan(&n)
	return n, err
}

func (r *TransactionRepo) query(ctx context.Context, query string, args ...interface{}) ([]domain.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// scanTransaction handles nullable fields for both Row and Rows.
func scanTransaction(row scanner) (domain.Transaction, error) {
	var t domain.Transaction
	var typ string
	var merchant sql.NullString
	var category, from, to, parent uuid.NullUUID
	var isParent int
	if err := row.Scan(&t.ID, &t.CreatedAt, &t.Date, &typ, &t.Amount, &category, &t.Description, &merchant,
		&from, &to, &parent, &isParent, &t.SplitIndex); err != nil {
		return domain.Transaction{}, err
	}
	t.Type = domain.TransactionType(typ)
	t.CategoryID = nullUUID(category)
	t.MerchantName = nullString(merchant)
	t.FromAccountID = nullUUID(from)
	t.ToAccountID = nullUUID(to)
	t.ParentID = nullUUID(parent)
	t.IsSplitParent = isParent == 1
	t.CreatedAt = t.CreatedAt.UTC()
	t.Date = t.Date.UTC()
	return t, nil
}
