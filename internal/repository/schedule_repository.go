package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/lapanclass-api/internal/models"
)

// ScheduleRepository handles persistence for weekly lesson slots.
type ScheduleRepository struct {
	db *sqlx.DB
}

// NewScheduleRepository constructs a schedule repository.
func NewScheduleRepository(db *sqlx.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

// ListByClass returns the schedule of a class, optionally limited to one weekday.
func (r *ScheduleRepository) ListByClass(ctx context.Context, classID string, dayOfWeek int) ([]models.ScheduleDetail, error) {
	query := `SELECT sc.id, sc.class_id, sc.subject_id, sc.day_of_week, sc.start_time, sc.end_time, sc.room, sc.created_at, sc.updated_at, sub.name AS subject_name
FROM schedules sc
JOIN subjects sub ON sub.id = sc.subject_id
WHERE sc.class_id = $1`
	args := []interface{}{classID}
	if dayOfWeek > 0 {
		query += " AND sc.day_of_week = $2"
		args = append(args, dayOfWeek)
	}
	query += " ORDER BY sc.day_of_week, sc.start_time"

	var schedules []models.ScheduleDetail
	if err := r.db.SelectContext(ctx, &schedules, query, args...); err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	return schedules, nil
}

// FindByID returns a schedule by ID.
func (r *ScheduleRepository) FindByID(ctx context.Context, id string) (*models.Schedule, error) {
	const query = `SELECT id, class_id, subject_id, day_of_week, start_time, end_time, room, created_at, updated_at FROM schedules WHERE id = $1`
	var schedule models.Schedule
	if err := r.db.GetContext(ctx, &schedule, query, id); err != nil {
		return nil, err
	}
	return &schedule, nil
}

// Create inserts a schedule slot.
func (r *ScheduleRepository) Create(ctx context.Context, schedule *models.Schedule) error {
	if schedule.ID == "" {
		schedule.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if schedule.CreatedAt.IsZero() {
		schedule.CreatedAt = now
	}
	schedule.UpdatedAt = now

	const query = `INSERT INTO schedules (id, class_id, subject_id, day_of_week, start_time, end_time, room, created_at, updated_at) VALUES (:id, :class_id, :subject_id, :day_of_week, :start_time, :end_time, :room, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, schedule); err != nil {
		return fmt.Errorf("create schedule: %w", err)
	}
	return nil
}

// Update modifies a schedule slot.
func (r *ScheduleRepository) Update(ctx context.Context, schedule *models.Schedule) error {
	schedule.UpdatedAt = time.Now().UTC()
	const query = `UPDATE schedules SET subject_id = :subject_id, day_of_week = :day_of_week, start_time = :start_time, end_time = :end_time, room = :room, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, schedule); err != nil {
		return fmt.Errorf("update schedule: %w", err)
	}
	return nil
}

// Delete removes a schedule slot.
func (r *ScheduleRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM schedules WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete schedule: %w", err)
	}
	return nil
}
