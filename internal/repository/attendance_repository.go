package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/lapanclass-api/internal/models"
)

const attendanceColumns = `id, student_id, class_id, date, status, note, proof_path, approved, created_at, updated_at`

const attendanceUpsertConflict = `ON CONFLICT (student_id, date)
DO UPDATE SET class_id = EXCLUDED.class_id, status = EXCLUDED.status, note = EXCLUDED.note, proof_path = EXCLUDED.proof_path, approved = EXCLUDED.approved, updated_at = EXCLUDED.updated_at
RETURNING ` + attendanceColumns

// AttendanceRepository persists daily attendance records and their period children.
// Every write is keyed on (student_id, date); concurrent writers resolve last-write-wins.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs the repository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// UpsertWithPeriods writes one record and replaces its period children with the given periods.
// A nil or empty slice leaves the record without children.
func (r *AttendanceRepository) UpsertWithPeriods(ctx context.Context, record *models.AttendanceRecord, periods []int) (*models.AttendanceRecord, error) {
	prepareAttendance(record, time.Now().UTC())

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin upsert attendance: %w", err)
	}
	query := `INSERT INTO attendance_records (` + attendanceColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
` + attendanceUpsertConflict
	var stored models.AttendanceRecord
	if err := tx.GetContext(ctx, &stored, query, attendanceArgs(record)...); err != nil {
		tx.Rollback() //nolint:errcheck
		return nil, fmt.Errorf("upsert attendance: %w", err)
	}
	if err := replacePeriods(ctx, tx, []string{stored.ID}, stored.ID, periods); err != nil {
		tx.Rollback() //nolint:errcheck
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit upsert attendance: %w", err)
	}
	return &stored, nil
}

// BulkUpsert writes all records with one multi-row upsert and drops the period children of
// every affected record. Existing rows for the same (student, date) are overwritten.
func (r *AttendanceRepository) BulkUpsert(ctx context.Context, records []models.AttendanceRecord) ([]models.AttendanceRecord, error) {
	if len(records) == 0 {
		return []models.AttendanceRecord{}, nil
	}
	now := time.Now().UTC()
	values := make([]string, 0, len(records))
	args := make([]interface{}, 0, len(records)*10)
	for i := range records {
		prepareAttendance(&records[i], now)
		base := len(args)
		placeholders := make([]string, 10)
		for j := range placeholders {
			placeholders[j] = fmt.Sprintf("$%d", base+j+1)
		}
		values = append(values, "("+strings.Join(placeholders, ", ")+")")
		args = append(args, attendanceArgs(&records[i])...)
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin bulk upsert attendance: %w", err)
	}
	query := `INSERT INTO attendance_records (` + attendanceColumns + `)
VALUES ` + strings.Join(values, ", ") + `
` + attendanceUpsertConflict
	var stored []models.AttendanceRecord
	if err := tx.SelectContext(ctx, &stored, query, args...); err != nil {
		tx.Rollback() //nolint:errcheck
		return nil, fmt.Errorf("bulk upsert attendance: %w", err)
	}
	ids := make([]string, 0, len(stored))
	for _, rec := range stored {
		ids = append(ids, rec.ID)
	}
	if err := replacePeriods(ctx, tx, ids, "", nil); err != nil {
		tx.Rollback() //nolint:errcheck
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit bulk upsert attendance: %w", err)
	}
	return stored, nil
}

// FindByID returns one record.
func (r *AttendanceRepository) FindByID(ctx context.Context, id string) (*models.AttendanceRecord, error) {
	query := `SELECT ` + attendanceColumns + ` FROM attendance_records WHERE id = $1`
	var record models.AttendanceRecord
	if err := r.db.GetContext(ctx, &record, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find attendance: %w", err)
	}
	return &record, nil
}

// FindByStudentDate returns the record of a student on a date.
func (r *AttendanceRepository) FindByStudentDate(ctx context.Context, studentID string, date time.Time) (*models.AttendanceRecord, error) {
	query := `SELECT ` + attendanceColumns + ` FROM attendance_records WHERE student_id = $1 AND date = $2`
	var record models.AttendanceRecord
	if err := r.db.GetContext(ctx, &record, query, studentID, dateArg(date)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find attendance by student date: %w", err)
	}
	return &record, nil
}

// Approve marks a record approved.
func (r *AttendanceRepository) Approve(ctx context.Context, id string) error {
	const query = `UPDATE attendance_records SET approved = TRUE, updated_at = $2 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("approve attendance: %w", err)
	}
	return expectAffected(res)
}

// Delete removes a record after its period children.
func (r *AttendanceRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete attendance: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM attendance_periods WHERE attendance_id = $1`, id); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("delete attendance periods: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM attendance_records WHERE id = $1`, id)
	if err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("delete attendance: %w", err)
	}
	if err := expectAffected(res); err != nil {
		tx.Rollback() //nolint:errcheck
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete attendance: %w", err)
	}
	return nil
}

// List returns records with student metadata ordered by date and roll number.
func (r *AttendanceRepository) List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceRecordDetail, error) {
	var f filters
	if filter.ClassID != "" {
		f.add("ar.class_id = ?", filter.ClassID)
	}
	if filter.StudentID != "" {
		f.add("ar.student_id = ?", filter.StudentID)
	}
	if !filter.DateFrom.IsZero() {
		f.add("ar.date >= ?", dateArg(filter.DateFrom))
	}
	if !filter.DateTo.IsZero() {
		f.add("ar.date <= ?", dateArg(filter.DateTo))
	}
	if filter.Status != nil && filter.Status.Valid() {
		f.add("ar.status = ?", *filter.Status)
	}
	if filter.Approved != nil {
		f.add("ar.approved = ?", *filter.Approved)
	}

	query := `SELECT ar.id, ar.student_id, ar.class_id, ar.date, ar.status, ar.note, ar.proof_path, ar.approved, ar.created_at, ar.updated_at, s.full_name AS student_name, s.nomor_absen
FROM attendance_records ar
JOIN students s ON s.id = ar.student_id` + f.where() + `
ORDER BY ar.date ASC, s.nomor_absen ASC`

	var rows []models.AttendanceRecordDetail
	if err := r.db.SelectContext(ctx, &rows, query, f.args...); err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	return rows, nil
}

// ListPeriods returns the covered periods per attendance id.
func (r *AttendanceRepository) ListPeriods(ctx context.Context, attendanceIDs []string) (map[string][]int, error) {
	result := make(map[string][]int)
	if len(attendanceIDs) == 0 {
		return result, nil
	}
	const query = `SELECT id, attendance_id, period FROM attendance_periods WHERE attendance_id = ANY($1) ORDER BY attendance_id, period`
	var rows []models.AttendancePeriod
	if err := r.db.SelectContext(ctx, &rows, query, pq.Array(attendanceIDs)); err != nil {
		return nil, fmt.Errorf("list attendance periods: %w", err)
	}
	for _, row := range rows {
		result[row.AttendanceID] = append(result[row.AttendanceID], row.Period)
	}
	return result, nil
}

// replacePeriods deletes the children of every id and, when owner is set, inserts the new periods for it.
func replacePeriods(ctx context.Context, tx *sqlx.Tx, ids []string, owner string, periods []int) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM attendance_periods WHERE attendance_id = ANY($1)`, pq.Array(ids)); err != nil {
		return fmt.Errorf("clear attendance periods: %w", err)
	}
	if owner == "" || len(periods) == 0 {
		return nil
	}
	values := make([]string, 0, len(periods))
	args := make([]interface{}, 0, len(periods)*3)
	for _, period := range periods {
		n := len(args)
		values = append(values, fmt.Sprintf("($%d, $%d, $%d)", n+1, n+2, n+3))
		args = append(args, uuid.NewString(), owner, period)
	}
	query := `INSERT INTO attendance_periods (id, attendance_id, period) VALUES ` + strings.Join(values, ", ")
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert attendance periods: %w", err)
	}
	return nil
}

func prepareAttendance(record *models.AttendanceRecord, now time.Time) {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now
}

func attendanceArgs(record *models.AttendanceRecord) []interface{} {
	return []interface{}{
		record.ID,
		record.StudentID,
		record.ClassID,
		dateArg(record.Date),
		record.Status,
		record.Note,
		record.ProofPath,
		record.Approved,
		record.CreatedAt,
		record.UpdatedAt,
	}
}
