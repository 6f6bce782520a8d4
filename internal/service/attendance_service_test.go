package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/noah-isme/lapanclass-api/internal/calendar"
	"github.com/noah-isme/lapanclass-api/internal/models"
	appErrors "github.com/noah-isme/lapanclass-api/pkg/errors"
)

// mockAttendanceRepo keeps one row per (student, date) and stores dates the way the
// driver returns DATE columns: UTC midnight of the civil date.
type mockAttendanceRepo struct {
	records    map[string]models.AttendanceRecord
	periods    map[string][]int
	bulkCalls  int
	upserts    int
	approved   []string
	deleted    []string
	nextID     int
	upsertErr  error
	lastFilter models.AttendanceFilter
}

func newMockAttendanceRepo() *mockAttendanceRepo {
	return &mockAttendanceRepo{records: map[string]models.AttendanceRecord{}, periods: map[string][]int{}}
}

func (m *mockAttendanceRepo) key(studentID string, date time.Time) string {
	return studentID + "|" + calendar.DateKey(date)
}

func (m *mockAttendanceRepo) put(record models.AttendanceRecord, periods []int) models.AttendanceRecord {
	y, mo, d := record.Date.Date()
	record.Date = utcDate(y, mo, d)
	k := m.key(record.StudentID, record.Date)
	if existing, ok := m.records[k]; ok {
		record.ID = existing.ID
	} else {
		m.nextID++
		record.ID = fmt.Sprintf("att-%d", m.nextID)
	}
	m.records[k] = record
	delete(m.periods, record.ID)
	if len(periods) > 0 {
		m.periods[record.ID] = append([]int(nil), periods...)
	}
	return record
}

func (m *mockAttendanceRepo) UpsertWithPeriods(ctx context.Context, record *models.AttendanceRecord, periods []int) (*models.AttendanceRecord, error) {
	if m.upsertErr != nil {
		return nil, m.upsertErr
	}
	m.upserts++
	stored := m.put(*record, periods)
	return &stored, nil
}

func (m *mockAttendanceRepo) BulkUpsert(ctx context.Context, records []models.AttendanceRecord) ([]models.AttendanceRecord, error) {
	if m.upsertErr != nil {
		return nil, m.upsertErr
	}
	m.bulkCalls++
	out := make([]models.AttendanceRecord, 0, len(records))
	for _, rec := range records {
		out = append(out, m.put(rec, nil))
	}
	return out, nil
}

func (m *mockAttendanceRepo) FindByID(ctx context.Context, id string) (*models.AttendanceRecord, error) {
	for _, rec := range m.records {
		if rec.ID == id {
			rec := rec
			return &rec, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockAttendanceRepo) FindByStudentDate(ctx context.Context, studentID string, date time.Time) (*models.AttendanceRecord, error) {
	if rec, ok := m.records[m.key(studentID, date)]; ok {
		return &rec, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAttendanceRepo) Approve(ctx context.Context, id string) error {
	for k, rec := range m.records {
		if rec.ID == id {
			rec.Approved = true
			m.records[k] = rec
			m.approved = append(m.approved, id)
			return nil
		}
	}
	return sql.ErrNoRows
}

func (m *mockAttendanceRepo) Delete(ctx context.Context, id string) error {
	for k, rec := range m.records {
		if rec.ID == id {
			delete(m.records, k)
			delete(m.periods, id)
			m.deleted = append(m.deleted, id)
			return nil
		}
	}
	return sql.ErrNoRows
}

func (m *mockAttendanceRepo) List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceRecordDetail, error) {
	m.lastFilter = filter
	var out []models.AttendanceRecordDetail
	for _, rec := range m.records {
		if filter.ClassID != "" && rec.ClassID != filter.ClassID {
			continue
		}
		if filter.StudentID != "" && rec.StudentID != filter.StudentID {
			continue
		}
		key := calendar.DateKey(rec.Date)
		if !filter.DateFrom.IsZero() && key < calendar.DateKey(filter.DateFrom) {
			continue
		}
		if !filter.DateTo.IsZero() && key > calendar.DateKey(filter.DateTo) {
			continue
		}
		if filter.Approved != nil && rec.Approved != *filter.Approved {
			continue
		}
		if filter.Status != nil && rec.Status != *filter.Status {
			continue
		}
		out = append(out, models.AttendanceRecordDetail{AttendanceRecord: rec})
	}
	return out, nil
}

func (m *mockAttendanceRepo) ListPeriods(ctx context.Context, ids []string) (map[string][]int, error) {
	out := map[string][]int{}
	for _, id := range ids {
		if p, ok := m.periods[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

type proofLinkStub struct{}

func (proofLinkStub) PublicURL(key string) (string, error) { return "https://files.test/" + key, nil }

func newClassRoster() *mockStudentRepo {
	return &mockStudentRepo{students: map[string]models.Student{
		"s1": {ID: "s1", ClassID: "c1", NomorAbsen: 1, FullName: "Andi"},
		"s2": {ID: "s2", ClassID: "c1", NomorAbsen: 2, FullName: "Bela"},
		"s3": {ID: "s3", ClassID: "c1", NomorAbsen: 3, FullName: "Citra"},
		"s9": {ID: "s9", ClassID: "c2", NomorAbsen: 1, FullName: "Dodi"},
	}}
}

func newAttendanceFixture(t *testing.T) (*AttendanceService, *mockAttendanceRepo, *MetricsService) {
	t.Helper()
	holidays, _, _ := newHolidayFixture(t)
	repo := newMockAttendanceRepo()
	metrics := NewMetricsService()
	svc := NewAttendanceService(repo, newClassRoster(), holidays, proofLinkStub{}, metrics, holidays.Location(), nil, zap.NewNop())
	return svc, repo, metrics
}

func TestAttendanceServiceMarkAllPresentOverwritesDay(t *testing.T) {
	svc, repo, metrics := newAttendanceFixture(t)
	repo.put(models.AttendanceRecord{
		StudentID: "s1", ClassID: "c1", Date: utcDate(2026, time.August, 18),
		Status: models.AttendanceStatusSick, ProofPath: strPtr("s1/s_1.jpg"),
	}, []int{1, 2})

	records, err := svc.MarkAllPresent(context.Background(), officerSession, models.MarkAllPresentRequest{ClassID: "c1", Date: "2026-08-18"})
	require.NoError(t, err)
	assert.Len(t, records, 3)
	assert.Equal(t, 1, repo.bulkCalls)

	overwritten := repo.records["s1|2026-08-18"]
	assert.Equal(t, models.AttendanceStatusPresent, overwritten.Status)
	assert.True(t, overwritten.Approved)
	assert.Nil(t, overwritten.ProofPath)
	assert.Empty(t, repo.periods[overwritten.ID])
	assert.Equal(t, uint64(3), metrics.Snapshot().AttendanceWrites)
}

func TestAttendanceServiceMarkAllPresentRespectsCalendar(t *testing.T) {
	svc, repo, _ := newAttendanceFixture(t)

	_, err := svc.MarkAllPresent(context.Background(), officerSession, models.MarkAllPresentRequest{ClassID: "c1", Date: "2026-08-17"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrAttendanceLocked.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "HUT RI")

	_, err = svc.MarkAllPresent(context.Background(), officerSession, models.MarkAllPresentRequest{ClassID: "c1", Date: "2026-08-22"})
	require.Error(t, err)
	assert.Contains(t, appErrors.FromError(err).Message, calendar.WeekendLabel)
	assert.Zero(t, repo.bulkCalls)

	records, err := svc.MarkAllPresent(context.Background(), officerSession, models.MarkAllPresentRequest{ClassID: "c1", Date: "2026-08-20"})
	require.NoError(t, err)
	assert.Len(t, records, 3)
}

func TestAttendanceServiceMarkAllPresentRequiresManager(t *testing.T) {
	svc, repo, _ := newAttendanceFixture(t)

	_, err := svc.MarkAllPresent(context.Background(), studentSession, models.MarkAllPresentRequest{ClassID: "c1", Date: "2026-08-18"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	_, err = svc.MarkAllPresent(context.Background(), officerSession, models.MarkAllPresentRequest{ClassID: "c2", Date: "2026-08-18"})
	require.Error(t, err)
	assert.Zero(t, repo.bulkCalls)
}

func TestAttendanceServiceMarkAllPresentStoreFailure(t *testing.T) {
	svc, repo, _ := newAttendanceFixture(t)
	repo.upsertErr = errors.New("connection reset")

	_, err := svc.MarkAllPresent(context.Background(), adminSession, models.MarkAllPresentRequest{ClassID: "c1", Date: "2026-08-18"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
}

func TestAttendanceServiceSetStatusClearsPeriods(t *testing.T) {
	svc, repo, _ := newAttendanceFixture(t)
	existing := repo.put(models.AttendanceRecord{StudentID: "s2", ClassID: "c1", Date: utcDate(2026, time.August, 19), Status: models.AttendanceStatusExcused}, []int{3, 4})

	record, err := svc.SetStatus(context.Background(), officerSession, models.SetAttendanceRequest{
		StudentID: "s2", Date: "2026-08-19", Status: "a", Note: strPtr("  bolos  "),
	})
	require.NoError(t, err)
	assert.Equal(t, existing.ID, record.ID)
	assert.Equal(t, models.AttendanceStatusAbsent, record.Status)
	assert.True(t, record.Approved)
	require.NotNil(t, record.Note)
	assert.Equal(t, "bolos", *record.Note)
	assert.Empty(t, repo.periods[existing.ID])
}

func TestAttendanceServiceSetStatusLogsOverwrittenStatus(t *testing.T) {
	svc, repo, _ := newAttendanceFixture(t)
	core, logs := observer.New(zapcore.InfoLevel)
	svc.logger = zap.New(core)
	repo.put(models.AttendanceRecord{StudentID: "s2", ClassID: "c1", Date: utcDate(2026, time.August, 19), Status: models.AttendanceStatusSick}, nil)

	_, err := svc.SetStatus(context.Background(), officerSession, models.SetAttendanceRequest{StudentID: "s2", Date: "2026-08-19", Status: "H"})
	require.NoError(t, err)
	entries := logs.FilterMessage("attendance overwritten").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "S", fields["previous_status"])
	assert.Equal(t, false, fields["previous_approved"])
	assert.Equal(t, "H", fields["status"])

	_, err = svc.SetStatus(context.Background(), officerSession, models.SetAttendanceRequest{StudentID: "s1", Date: "2026-08-19", Status: "H"})
	require.NoError(t, err)
	assert.Len(t, logs.FilterMessage("attendance overwritten").All(), 1)
}

func TestAttendanceServiceSetStatusRejectsUnknownStatus(t *testing.T) {
	svc, repo, _ := newAttendanceFixture(t)

	_, err := svc.SetStatus(context.Background(), officerSession, models.SetAttendanceRequest{StudentID: "s2", Date: "2026-08-19", Status: "X"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Zero(t, repo.upserts)
}

func TestAttendanceServiceListScopesStudents(t *testing.T) {
	svc, repo, _ := newAttendanceFixture(t)
	repo.put(models.AttendanceRecord{StudentID: "s1", ClassID: "c1", Date: utcDate(2026, time.August, 18), Status: models.AttendanceStatusSick, ProofPath: strPtr("s1/s_1.jpg")}, []int{2, 3})
	repo.put(models.AttendanceRecord{StudentID: "s2", ClassID: "c1", Date: utcDate(2026, time.August, 18), Status: models.AttendanceStatusPresent}, nil)

	r := calendar.DateRange(calendar.ModeWeek, time.Date(2026, time.August, 18, 0, 0, 0, 0, svc.location), 0, 0)
	records, err := svc.List(context.Background(), studentSession, AttendanceQuery{ClassID: "c1", StudentID: "s2", Range: r})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "s1", records[0].StudentID)
	assert.Equal(t, []int{2, 3}, records[0].Periods)
	assert.Equal(t, "https://files.test/s1/s_1.jpg", records[0].ProofURL)

	records, err = svc.List(context.Background(), officerSession, AttendanceQuery{Range: r})
	require.NoError(t, err)
	assert.Len(t, records, 2)
	assert.Equal(t, "c1", repo.lastFilter.ClassID)

	_, err = svc.List(context.Background(), officerSession, AttendanceQuery{ClassID: "c2", Range: r})
	require.Error(t, err)
}

func TestAttendanceServiceGrid(t *testing.T) {
	svc, repo, _ := newAttendanceFixture(t)
	repo.put(models.AttendanceRecord{StudentID: "s1", ClassID: "c1", Date: utcDate(2026, time.August, 18), Status: models.AttendanceStatusSick}, nil)
	repo.put(models.AttendanceRecord{StudentID: "s1", ClassID: "c1", Date: utcDate(2026, time.August, 19), Status: models.AttendanceStatusAbsent}, nil)

	r := calendar.DateRange(calendar.ModeWeek, time.Date(2026, time.August, 19, 0, 0, 0, 0, svc.location), 0, 0)
	grid, err := svc.Grid(context.Background(), studentSession, "c1", r)
	require.NoError(t, err)
	assert.Equal(t, "2026-08-17", grid.Start)
	assert.Equal(t, "2026-08-23", grid.End)
	require.Len(t, grid.Days, 7)
	assert.False(t, grid.Days[0].CanRecord)
	require.NotNil(t, grid.Days[0].Holiday)
	assert.Equal(t, "HUT RI", *grid.Days[0].Holiday)
	assert.True(t, grid.Days[3].CanRecord)
	assert.Len(t, grid.Rows, 3)

	for _, row := range grid.Rows {
		if row.StudentID != "s1" {
			assert.Empty(t, row.Statuses)
			continue
		}
		assert.Equal(t, models.AttendanceStatusSick, row.Statuses["2026-08-18"])
		assert.Equal(t, 1, row.Summary.Sick)
		assert.Equal(t, 1, row.Summary.Absent)
		assert.Equal(t, 2, row.Summary.Total)
	}
}

func TestAttendanceServiceDailySummary(t *testing.T) {
	svc, repo, _ := newAttendanceFixture(t)
	repo.put(models.AttendanceRecord{StudentID: "s1", ClassID: "c1", Date: utcDate(2026, time.August, 20), Status: models.AttendanceStatusPresent}, nil)
	repo.put(models.AttendanceRecord{StudentID: "s2", ClassID: "c1", Date: utcDate(2026, time.August, 20), Status: models.AttendanceStatusExcused}, nil)

	summary, err := svc.DailySummary(context.Background(), officerSession, "c1", time.Date(2026, time.August, 20, 0, 0, 0, 0, svc.location))
	require.NoError(t, err)
	assert.True(t, summary.CanRecord)
	require.NotNil(t, summary.HolidayStatus)
	assert.Equal(t, "Pentas Seni", *summary.HolidayStatus)
	assert.Equal(t, 3, summary.Students)
	assert.Equal(t, 1, summary.Summary.Present)
	assert.Equal(t, 1, summary.Summary.Excused)
	assert.Equal(t, 1, summary.Unrecorded)
	assert.Equal(t, "Kamis, 20 Agustus 2026", summary.Label)
}
