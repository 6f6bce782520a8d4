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

const semesterColumns = `id, class_level, semester, start_date, end_date, created_at, updated_at`

// SemesterRepository persists semester date spans per class level.
type SemesterRepository struct {
	db *sqlx.DB
}

// NewSemesterRepository constructs the repository.
func NewSemesterRepository(db *sqlx.DB) *SemesterRepository {
	return &SemesterRepository{db: db}
}

// List returns configs, optionally for one class level, newest first.
func (r *SemesterRepository) List(ctx context.Context, classLevel string) ([]models.SemesterConfig, error) {
	query := `SELECT ` + semesterColumns + ` FROM semester_configs`
	args := []interface{}{}
	if classLevel != "" {
		query += " WHERE class_level = $1"
		args = append(args, classLevel)
	}
	query += " ORDER BY start_date DESC, semester DESC"
	var configs []models.SemesterConfig
	if err := r.db.SelectContext(ctx, &configs, query, args...); err != nil {
		return nil, fmt.Errorf("list semester configs: %w", err)
	}
	return configs, nil
}

// FindByID returns a single config.
func (r *SemesterRepository) FindByID(ctx context.Context, id string) (*models.SemesterConfig, error) {
	query := `SELECT ` + semesterColumns + ` FROM semester_configs WHERE id = $1`
	var cfg models.SemesterConfig
	if err := r.db.GetContext(ctx, &cfg, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find semester config: %w", err)
	}
	return &cfg, nil
}

// FindCovering returns the most recently started config of the level whose span contains date.
func (r *SemesterRepository) FindCovering(ctx context.Context, classLevel string, date time.Time) (*models.SemesterConfig, error) {
	query := `SELECT ` + semesterColumns + ` FROM semester_configs WHERE class_level = $1 AND start_date <= $2 AND end_date >= $2 ORDER BY start_date DESC LIMIT 1`
	var cfg models.SemesterConfig
	if err := r.db.GetContext(ctx, &cfg, query, classLevel, dateArg(date)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find current semester: %w", err)
	}
	return &cfg, nil
}

// Create inserts a config.
func (r *SemesterRepository) Create(ctx context.Context, cfg *models.SemesterConfig) error {
	if cfg.ID == "" {
		cfg.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if cfg.CreatedAt.IsZero() {
		cfg.CreatedAt = now
	}
	cfg.UpdatedAt = now
	const query = `INSERT INTO semester_configs (id, class_level, semester, start_date, end_date, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`
	if _, err := r.db.ExecContext(ctx, query, cfg.ID, cfg.ClassLevel, cfg.Semester, dateArg(cfg.StartDate), dateArg(cfg.EndDate), cfg.CreatedAt, cfg.UpdatedAt); err != nil {
		return fmt.Errorf("create semester config: %w", err)
	}
	return nil
}

// Update modifies a config.
func (r *SemesterRepository) Update(ctx context.Context, cfg *models.SemesterConfig) error {
	cfg.UpdatedAt = time.Now().UTC()
	const query = `UPDATE semester_configs SET class_level = $2, semester = $3, start_date = $4, end_date = $5, updated_at = $6 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, cfg.ID, cfg.ClassLevel, cfg.Semester, dateArg(cfg.StartDate), dateArg(cfg.EndDate), cfg.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update semester config: %w", err)
	}
	return expectAffected(res)
}

// Delete removes a config.
func (r *SemesterRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM semester_configs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete semester config: %w", err)
	}
	return expectAffected(res)
}
