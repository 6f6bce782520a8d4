package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lapanclass-api/internal/models"
)

var attendanceRowColumns = []string{"id", "student_id", "class_id", "date", "status", "note", "proof_path", "approved", "created_at", "updated_at"}

func TestUpsertWithPeriodsReplacesChildren(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	now := time.Now()
	day := time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)
	note := "Izin jam ke-1 s/d 2"

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO attendance_records")).
		WithArgs(sqlmock.AnyArg(), "stu-1", "class-1", "2026-10-19", models.AttendanceStatusExcused, &note, nil, true, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(attendanceRowColumns).
			AddRow("att-1", "stu-1", "class-1", day, "I", note, nil, true, now, now))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM attendance_periods WHERE attendance_id = ANY($1)")).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO attendance_periods (id, attendance_id, period) VALUES ($1, $2, $3), ($4, $5, $6)")).
		WithArgs(sqlmock.AnyArg(), "att-1", 1, sqlmock.AnyArg(), "att-1", 2).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	record := &models.AttendanceRecord{StudentID: "stu-1", ClassID: "class-1", Date: day, Status: models.AttendanceStatusExcused, Note: &note, Approved: true}
	stored, err := repo.UpsertWithPeriods(context.Background(), record, []int{1, 2})
	require.NoError(t, err)
	assert.Equal(t, "att-1", stored.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertWithoutPeriodsOnlyClears(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	now := time.Now()
	day := time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO attendance_records").
		WillReturnRows(sqlmock.NewRows(attendanceRowColumns).AddRow("att-1", "stu-1", "class-1", day, "A", nil, nil, true, now, now))
	mock.ExpectExec("DELETE FROM attendance_periods").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	_, err := repo.UpsertWithPeriods(context.Background(), &models.AttendanceRecord{StudentID: "stu-1", ClassID: "class-1", Date: day, Status: models.AttendanceStatusAbsent, Approved: true}, nil)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBulkUpsertIssuesSingleStatement(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	now := time.Now()
	day := time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)
	records := []models.AttendanceRecord{
		{StudentID: "stu-1", ClassID: "class-1", Date: day, Status: models.AttendanceStatusPresent, Approved: true},
		{StudentID: "stu-2", ClassID: "class-1", Date: day, Status: models.AttendanceStatusPresent, Approved: true},
	}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10), ($11, $12, $13, $14, $15, $16, $17, $18, $19, $20)\nON CONFLICT (student_id, date)")).
		WillReturnRows(sqlmock.NewRows(attendanceRowColumns).
			AddRow("att-old", "stu-1", "class-1", day, "H", nil, nil, true, now, now).
			AddRow("att-new", "stu-2", "class-1", day, "H", nil, nil, true, now, now))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM attendance_periods WHERE attendance_id = ANY($1)")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	stored, err := repo.BulkUpsert(context.Background(), records)
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.Equal(t, "att-old", stored[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBulkUpsertFailureRollsBack(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO attendance_records").WillReturnError(sql.ErrConnDone)
	mock.ExpectRollback()

	_, err := repo.BulkUpsert(context.Background(), []models.AttendanceRecord{{StudentID: "stu-1", ClassID: "class-1", Date: time.Now(), Status: models.AttendanceStatusPresent}})
	require.Error(t, err)
	assert.ErrorIs(t, err, sql.ErrConnDone)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteAttendanceRemovesChildrenFirst(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM attendance_periods WHERE attendance_id = $1")).WithArgs("att-1").WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM attendance_records WHERE id = $1")).WithArgs("att-1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Delete(context.Background(), "att-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListAttendanceRange(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	now := time.Now()
	day := time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE ar.class_id = $1 AND ar.date >= $2 AND ar.date <= $3")).
		WithArgs("class-1", "2026-10-01", "2026-10-31").
		WillReturnRows(sqlmock.NewRows(append(attendanceRowColumns, "student_name", "nomor_absen")).
			AddRow("att-1", "stu-1", "class-1", day, "S", nil, "stu-1/S_1.jpg", false, now, now, "Ani", 1))

	rows, err := repo.List(context.Background(), models.AttendanceFilter{
		ClassID:  "class-1",
		DateFrom: time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
		DateTo:   time.Date(2026, 10, 31, 23, 59, 59, 0, time.UTC),
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Ani", rows[0].StudentName)
	require.NotNil(t, rows[0].ProofPath)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListPeriodsGroupsByRecord(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM attendance_periods WHERE attendance_id = ANY($1)")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "attendance_id", "period"}).
			AddRow("p1", "att-1", 1).
			AddRow("p2", "att-1", 2).
			AddRow("p3", "att-2", 5))

	periods, err := repo.ListPeriods(context.Background(), []string{"att-1", "att-2"})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, periods["att-1"])
	assert.Equal(t, []int{5}, periods["att-2"])

	empty, err := repo.ListPeriods(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
	assert.NoError(t, mock.ExpectationsWereMet())
}
