package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/lapanclass-api/internal/models"
)

// HolidayRepository persists explicit holiday and event entries.
type HolidayRepository struct {
	db *sqlx.DB
}

// NewHolidayRepository constructs the repository.
func NewHolidayRepository(db *sqlx.DB) *HolidayRepository {
	return &HolidayRepository{db: db}
}

// ListRange returns the entries dated within [from, to] ordered by date.
func (r *HolidayRepository) ListRange(ctx context.Context, from, to time.Time) ([]models.Holiday, error) {
	const query = `SELECT id, date, label, type, created_at, updated_at FROM holidays WHERE date >= $1 AND date <= $2 ORDER BY date ASC`
	var holidays []models.Holiday
	if err := r.db.SelectContext(ctx, &holidays, query, dateArg(from), dateArg(to)); err != nil {
		return nil, fmt.Errorf("list holidays: %w", err)
	}
	return holidays, nil
}

// FindByID returns a single entry.
func (r *HolidayRepository) FindByID(ctx context.Context, id string) (*models.Holiday, error) {
	const query = `SELECT id, date, label, type, created_at, updated_at FROM holidays WHERE id = $1`
	var holiday models.Holiday
	if err := r.db.GetContext(ctx, &holiday, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find holiday: %w", err)
	}
	return &holiday, nil
}

// ExistsByDate checks whether another entry already occupies the date.
func (r *HolidayRepository) ExistsByDate(ctx context.Context, date time.Time, excludeID string) (bool, error) {
	query := "SELECT 1 FROM holidays WHERE date = $1"
	args := []interface{}{dateArg(date)}
	if excludeID != "" {
		query += " AND id <> $2"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check holiday date: %w", err)
	}
	return true, nil
}

// Create inserts an entry.
func (r *HolidayRepository) Create(ctx context.Context, holiday *models.Holiday) error {
	if holiday.ID == "" {
		holiday.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if holiday.CreatedAt.IsZero() {
		holiday.CreatedAt = now
	}
	holiday.UpdatedAt = now

	const query = `INSERT INTO holidays (id, date, label, type, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err := r.db.ExecContext(ctx, query, holiday.ID, dateArg(holiday.Date), holiday.Label, holiday.Type, holiday.CreatedAt, holiday.UpdatedAt); err != nil {
		return fmt.Errorf("create holiday: %w", err)
	}
	return nil
}

// Update modifies an entry.
func (r *HolidayRepository) Update(ctx context.Context, holiday *models.Holiday) error {
	holiday.UpdatedAt = time.Now().UTC()
	const query = `UPDATE holidays SET date = $2, label = $3, type = $4, updated_at = $5 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, holiday.ID, dateArg(holiday.Date), holiday.Label, holiday.Type, holiday.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update holiday: %w", err)
	}
	return expectAffected(res)
}

// Delete removes an entry.
func (r *HolidayRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM holidays WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete holiday: %w", err)
	}
	return expectAffected(res)
}
