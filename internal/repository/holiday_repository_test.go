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

func TestHolidayRepositoryListRangeUsesDateKeys(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewHolidayRepository(db)

	jakarta := time.FixedZone("WIB", 7*3600)
	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("FROM holidays WHERE date >= $1 AND date <= $2 ORDER BY date ASC")).
		WithArgs("2026-08-01", "2026-08-31").
		WillReturnRows(sqlmock.NewRows([]string{"id", "date", "label", "type", "created_at", "updated_at"}).
			AddRow("h1", time.Date(2026, 8, 17, 0, 0, 0, 0, time.UTC), "Hari Kemerdekaan", "HOLIDAY", now, now))

	holidays, err := repo.ListRange(context.Background(),
		time.Date(2026, 8, 1, 0, 0, 0, 0, jakarta),
		time.Date(2026, 8, 31, 23, 59, 59, 0, jakarta))
	require.NoError(t, err)
	require.Len(t, holidays, 1)
	assert.Equal(t, models.HolidayTypeHoliday, holidays[0].Type)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHolidayRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewHolidayRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO holidays (id, date, label, type, created_at, updated_at)")).
		WithArgs(sqlmock.AnyArg(), "2026-10-28", "Lomba", models.HolidayTypeEvent, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	holiday := &models.Holiday{Date: time.Date(2026, 10, 28, 0, 0, 0, 0, time.UTC), Label: "Lomba", Type: models.HolidayTypeEvent}
	require.NoError(t, repo.Create(context.Background(), holiday))
	assert.NotEmpty(t, holiday.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHolidayRepositoryDeleteMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewHolidayRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM holidays WHERE id = $1")).
		WithArgs("nope").
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, repo.Delete(context.Background(), "nope"), sql.ErrNoRows)
}

func TestCashRepositoryBalance(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCashRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM cash_transactions WHERE class_id = $1")).
		WithArgs("class-1").
		WillReturnRows(sqlmock.NewRows([]string{"class_id", "total_in", "total_out"}).AddRow("class-1", 150000, 40000))

	balance, err := repo.Balance(context.Background(), "class-1")
	require.NoError(t, err)
	assert.Equal(t, int64(110000), balance.Balance)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSemesterRepositoryFindCovering(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSemesterRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("WHERE class_level = $1 AND start_date <= $2 AND end_date >= $2 ORDER BY start_date DESC LIMIT 1")).
		WithArgs("VIII", "2026-10-19").
		WillReturnRows(sqlmock.NewRows([]string{"id", "class_level", "semester", "start_date", "end_date", "created_at", "updated_at"}).
			AddRow("sem-1", "VIII", 1, time.Date(2026, 7, 13, 0, 0, 0, 0, time.UTC), time.Date(2026, 12, 18, 0, 0, 0, 0, time.UTC), now, now))

	cfg, err := repo.FindCovering(context.Background(), "VIII", time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.Semester)
	assert.NoError(t, mock.ExpectationsWereMet())
}
