package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/jask/jaskledger/internal/domain"
)

// PendingRepo handles staged imports.
type PendingRepo struct{ db Querier }

func NewPendingRepo(db Querier) *PendingRepo { return &PendingRepo{db: db} }

const pendingColumns = `id, bank_transaction_id, amount, description, merchant_name, date, tx_type, account_id,
 suggested_category_id, confidence, imported_at, status, transaction_id`

func (r *PendingRepo) Insert(ctx context.Context, p domain.PendingTransaction) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO pending_transactions(`+pendingColumns+`)
	VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, p.ID, p.BankTransactionID, p.Amount, p.Description, p.MerchantName, p.Date, string(p.Type), p.AccountID,
		p.SuggestedCategoryID, p.Confidence, p.ImportedAt, string(p.Status), p.TransactionID)
	return err
}

// Get returns the record whatever its status.
func (r *PendingRepo) Get(ctx context.Context, id uuid.UUID) (*domain.PendingTransaction, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+pendingColumns+` FROM pending_transactions WHERE id = ?`, id)
	p, err := scanPending(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

// ListOpen returns records still awaiting a decision, optionally for one account.
func (r *PendingRepo) ListOpen(ctx context.Context, accountID *uuid.UUID) ([]domain.PendingTransaction, error) {
	query := `SELECT ` + pendingColumns + ` FROM pending_transactions WHERE status = 'pending'`
	var args []interface{}
	if accountID != nil {
		query += ` AND account_id = ?`
		args = append(args, *accountID)
	}
	query += ` ORDER BY date DESC, imported_at DESC, id`
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.PendingTransaction
	for rows.Next() {
		p, err := scanPending(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// SeenBankID reports whether any record, open or transitioned, carries
// bankID.
func (r *PendingRepo) SeenBankID(ctx context.Context, bankID string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM pending_transactions WHERE bank_transaction_id = ?`, bankID).Scan(&n)
	return n > 0, err
}

// Transition moves an open record to a terminal status. It reports false
// when the record is missing or already transitioned.
func (r *PendingRepo) Transition(ctx context.Context, id uuid.UUID, status domain.PendingStatus, transactionID *uuid.UUID) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
	UPDATE pending_transactions SET status = ?, transaction_id = ?
	WHERE id = ? AND status = 'pending'
	`, string(status), transactionID, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

// DeleteTransitionedBefore removes terminal records imported before t.
func (r *PendingRepo) DeleteTransitionedBefore(ctx context.Context, t time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM pending_transactions WHERE status != 'pending' AND imported_at < ?`, t.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func scanPending(row scanner) (domain.PendingTransaction, error) {
	var p domain.PendingTransaction
	var typ, status string
	var merchant sql.NullString
	var category, txID uuid.NullUUID
	if err := row.Scan(&p.ID, &p.BankTransactionID, &p.Amount, &p.Description, &merchant, &p.Date, &typ, &p.AccountID,
		&category, &p.Confidence, &p.ImportedAt, &status, &txID); err != nil {
		return domain.PendingTransaction{}, err
	}
	p.Type = domain.TransactionType(typ)
	p.Status = domain.PendingStatus(status)
	p.MerchantName = nullString(merchant)
	p.SuggestedCategoryID = nullUUID(category)
	p.TransactionID = nullUUID(txID)
	p.Date = p.Date.UTC()
	p.ImportedAt = p.ImportedAt.UTC()
	return p, nil
}
