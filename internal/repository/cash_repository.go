package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/lapanclass-api/internal/models"
)

// CashRepository persists the class treasury book.
type CashRepository struct {
	db *sqlx.DB
}

// NewCashRepository constructs the repository.
func NewCashRepository(db *sqlx.DB) *CashRepository {
	return &CashRepository{db: db}
}

// List returns the transactions of a class within [from, to], oldest first.
func (r *CashRepository) List(ctx context.Context, classID string, from, to time.Time) ([]models.CashTransaction, error) {
	const query = `SELECT id, class_id, type, amount, description, date, recorded_by, created_at FROM cash_transactions WHERE class_id = $1 AND date >= $2 AND date <= $3 ORDER BY date ASC, created_at ASC`
	var txs []models.CashTransaction
	if err := r.db.SelectContext(ctx, &txs, query, classID, dateArg(from), dateArg(to)); err != nil {
		return nil, fmt.Errorf("list cash transactions: %w", err)
	}
	return txs, nil
}

// Balance sums the whole book of a class.
func (r *CashRepository) Balance(ctx context.Context, classID string) (*models.CashBalance, error) {
	const query = `SELECT $1::text AS class_id,
COALESCE(SUM(CASE WHEN type = 'IN' THEN amount ELSE 0 END), 0) AS total_in,
COALESCE(SUM(CASE WHEN type = 'OUT' THEN amount ELSE 0 END), 0) AS total_out
FROM cash_transactions WHERE class_id = $1`
	var balance models.CashBalance
	if err := r.db.GetContext(ctx, &balance, query, classID); err != nil {
		return nil, fmt.Errorf("cash balance: %w", err)
	}
	balance.Balance = balance.TotalIn - balance.TotalOut
	return &balance, nil
}

// Create records a transaction.
func (r *CashRepository) Create(ctx context.Context, tx *models.CashTransaction) error {
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO cash_transactions (id, class_id, type, amount, description, date, recorded_by, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	if _, err := r.db.ExecContext(ctx, query, tx.ID, tx.ClassID, tx.Type, tx.Amount, tx.Description, dateArg(tx.Date), tx.RecordedBy, tx.CreatedAt); err != nil {
		return fmt.Errorf("create cash transaction: %w", err)
	}
	return nil
}

// FindByID returns one transaction.
func (r *CashRepository) FindByID(ctx context.Context, id string) (*models.CashTransaction, error) {
	const query = `SELECT id, class_id, type, amount, description, date, recorded_by, created_at FROM cash_transactions WHERE id = $1`
	var tx models.CashTransaction
	if err := r.db.GetContext(ctx, &tx, query, id); err != nil {
		return nil, err
	}
	return &tx, nil
}

// Delete removes a transaction.
func (r *CashRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM cash_transactions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete cash transaction: %w", err)
	}
	return expectAffected(res)
}
