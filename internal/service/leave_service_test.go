package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/lapanclass-api/internal/models"
	appErrors "github.com/noah-isme/lapanclass-api/pkg/errors"
)

type memoryProofStore struct {
	objects   map[string][]byte
	types     map[string]string
	deleted   []string
	deleteErr error
}

func newMemoryProofStore() *memoryProofStore {
	return &memoryProofStore{objects: map[string][]byte{}, types: map[string]string{}}
}

func (m *memoryProofStore) Upload(ctx context.Context, key string, r io.Reader, contentType string) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	m.objects[key] = data
	m.types[key] = contentType
	return key, nil
}

func (m *memoryProofStore) PublicURL(key string) (string, error) {
	return "https://files.test/" + key, nil
}

func (m *memoryProofStore) Delete(ctx context.Context, key string) error {
	m.deleted = append(m.deleted, key)
	if m.deleteErr != nil {
		return m.deleteErr
	}
	delete(m.objects, key)
	return nil
}

type recordingAudit struct {
	entries []models.AuditLog
}

func (r *recordingAudit) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	r.entries = append(r.entries, *log)
	return nil
}

type leaveFixture struct {
	svc     *LeaveService
	repo    *mockAttendanceRepo
	store   *memoryProofStore
	audits  *recordingAudit
	metrics *MetricsService
}

func newLeaveFixture(t *testing.T) leaveFixture {
	t.Helper()
	holidays, _, _ := newHolidayFixture(t)
	repo := newMockAttendanceRepo()
	store := newMemoryProofStore()
	audits := &recordingAudit{}
	metrics := NewMetricsService()
	svc := NewLeaveService(repo, newClassRoster(), holidays, store, audits, metrics, LeaveConfig{
		MaxFileSizeBytes: 1024,
		AllowedMIMEs:     []string{"image/jpeg", "image/png", "application/pdf"},
	}, holidays.Location(), nil, zap.NewNop())
	svc.now = func() time.Time { return time.UnixMilli(1786000000000) }
	return leaveFixture{svc: svc, repo: repo, store: store, audits: audits, metrics: metrics}
}

func jpegProof() *models.UploadedFile {
	return &models.UploadedFile{Filename: "Surat.JPG", ContentType: "image/jpeg", Content: []byte("\xff\xd8\xff\xe0 fake jpeg")}
}

func TestLeaveServiceSubmitStoresPendingRequest(t *testing.T) {
	f := newLeaveFixture(t)

	record, err := f.svc.SubmitLeave(context.Background(), studentSession, models.LeaveRequest{
		Date: "2026-08-18", Status: "s", StartTime: "07:00", EndTime: "09:30",
	}, jpegProof())
	require.NoError(t, err)
	assert.Equal(t, models.AttendanceStatusSick, record.Status)
	assert.False(t, record.Approved)
	assert.Equal(t, []int{1, 2, 3, 4}, record.Periods)
	require.NotNil(t, record.ProofPath)
	assert.Equal(t, "s1/s_1786000000000.jpg", *record.ProofPath)
	assert.Equal(t, "https://files.test/s1/s_1786000000000.jpg", record.ProofURL)
	assert.Equal(t, "image/jpeg", f.store.types[*record.ProofPath])
	assert.Equal(t, []int{1, 2, 3, 4}, f.repo.periods[record.ID])
}

func TestLeaveServiceResubmissionReplacesDay(t *testing.T) {
	f := newLeaveFixture(t)

	first, err := f.svc.SubmitLeave(context.Background(), studentSession, models.LeaveRequest{
		Date: "2026-08-18", Status: models.AttendanceStatusSick, StartTime: "07:00", EndTime: "08:00",
	}, jpegProof())
	require.NoError(t, err)

	second, err := f.svc.SubmitLeave(context.Background(), studentSession, models.LeaveRequest{
		Date: "2026-08-18", Status: models.AttendanceStatusExcused,
	}, jpegProof())
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, f.repo.records, 1)
	assert.Equal(t, models.AttendanceStatusExcused, f.repo.records["s1|2026-08-18"].Status)
	assert.Empty(t, f.repo.periods[second.ID])
}

func TestLeaveServiceSubmitValidatesProof(t *testing.T) {
	f := newLeaveFixture(t)
	req := models.LeaveRequest{Date: "2026-08-18", Status: models.AttendanceStatusSick}

	_, err := f.svc.SubmitLeave(context.Background(), studentSession, req, nil)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	big := jpegProof()
	big.Content = []byte(strings.Repeat("x", 2048))
	_, err = f.svc.SubmitLeave(context.Background(), studentSession, req, big)
	require.Error(t, err)

	exe := &models.UploadedFile{Filename: "virus.exe", Content: []byte("MZ\x90\x00 binary")}
	_, err = f.svc.SubmitLeave(context.Background(), studentSession, req, exe)
	require.Error(t, err)
	assert.Contains(t, appErrors.FromError(err).Message, "not allowed")

	pdf := &models.UploadedFile{Filename: "surat.pdf", ContentType: "application/octet-stream", Content: []byte("%PDF-1.4\n%fake")}
	_, err = f.svc.SubmitLeave(context.Background(), studentSession, req, pdf)
	require.NoError(t, err)

	assert.Len(t, f.store.objects, 1)
}

func TestLeaveServiceSubmitRejectsBadRequests(t *testing.T) {
	f := newLeaveFixture(t)

	_, err := f.svc.SubmitLeave(context.Background(), officerSession, models.LeaveRequest{Date: "2026-08-18", Status: models.AttendanceStatusSick}, jpegProof())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	_, err = f.svc.SubmitLeave(context.Background(), studentSession, models.LeaveRequest{Date: "2026-08-18", Status: models.AttendanceStatusAbsent}, jpegProof())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = f.svc.SubmitLeave(context.Background(), studentSession, models.LeaveRequest{
		Date: "2026-08-18", Status: models.AttendanceStatusSick, StartTime: "10:00", EndTime: "09:00",
	}, jpegProof())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = f.svc.SubmitLeave(context.Background(), studentSession, models.LeaveRequest{Date: "2026-08-17", Status: models.AttendanceStatusSick}, jpegProof())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrAttendanceLocked.Code, appErrors.FromError(err).Code)

	assert.Empty(t, f.store.objects)
	assert.Zero(t, f.repo.upserts)
}

func TestLeaveServicePartialLeave(t *testing.T) {
	f := newLeaveFixture(t)

	record, err := f.svc.RecordPartialLeave(context.Background(), officerSession, models.PartialLeaveRequest{StudentID: "s2", Date: "2026-08-19", From: 3, To: 5})
	require.NoError(t, err)
	assert.Equal(t, models.AttendanceStatusExcused, record.Status)
	require.NotNil(t, record.Note)
	assert.Equal(t, "Izin jam ke-3 s/d 5", *record.Note)
	assert.Equal(t, []int{3, 4, 5}, f.repo.periods[record.ID])
	assert.True(t, record.Approved)

	record, err = f.svc.RecordPartialLeave(context.Background(), officerSession, models.PartialLeaveRequest{StudentID: "s2", Date: "2026-08-19", From: 9, To: 10})
	require.NoError(t, err)
	assert.Equal(t, []int{9, 10}, f.repo.periods[record.ID])
}

func TestLeaveServicePartialLeaveRejectsBadSpanBeforeWriting(t *testing.T) {
	f := newLeaveFixture(t)

	for _, span := range [][2]int{{0, 3}, {5, 3}, {9, 11}} {
		_, err := f.svc.RecordPartialLeave(context.Background(), officerSession, models.PartialLeaveRequest{StudentID: "s2", Date: "2026-08-19", From: span[0], To: span[1]})
		require.Error(t, err)
		assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	}
	assert.Zero(t, f.repo.upserts)

	_, err := f.svc.RecordPartialLeave(context.Background(), studentSession, models.PartialLeaveRequest{StudentID: "s2", Date: "2026-08-19", From: 1, To: 2})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestLeaveServiceApproveAndList(t *testing.T) {
	f := newLeaveFixture(t)
	submitted, err := f.svc.SubmitLeave(context.Background(), studentSession, models.LeaveRequest{Date: "2026-08-18", Status: models.AttendanceStatusSick}, jpegProof())
	require.NoError(t, err)

	pending, err := f.svc.ListPending(context.Background(), officerSession, "")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.NotEmpty(t, pending[0].ProofURL)

	approved, err := f.svc.ApproveLeave(context.Background(), officerSession, submitted.ID)
	require.NoError(t, err)
	assert.True(t, approved.Approved)
	assert.Equal(t, []string{submitted.ID}, f.repo.approved)
	require.Len(t, f.audits.entries, 1)
	assert.Equal(t, models.AuditActionLeaveApprove, f.audits.entries[0].Action)

	pending, err = f.svc.ListPending(context.Background(), officerSession, "c1")
	require.NoError(t, err)
	assert.Empty(t, pending)

	decisions := f.metrics.Snapshot().LeaveDecisions
	assert.EqualValues(t, 1, decisions[LeaveDecisionSubmitted])
	assert.EqualValues(t, 1, decisions[LeaveDecisionApproved])

	_, err = f.svc.ApproveLeave(context.Background(), officerSession, "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestLeaveServiceRejectDeletesRecordAndProof(t *testing.T) {
	f := newLeaveFixture(t)
	submitted, err := f.svc.SubmitLeave(context.Background(), studentSession, models.LeaveRequest{Date: "2026-08-18", Status: models.AttendanceStatusSick}, jpegProof())
	require.NoError(t, err)
	f.store.deleteErr = errors.New("bucket unavailable")

	require.NoError(t, f.svc.RejectLeave(context.Background(), officerSession, submitted.ID))
	assert.Equal(t, []string{submitted.ID}, f.repo.deleted)
	assert.Equal(t, []string{*submitted.ProofPath}, f.store.deleted)
	require.Len(t, f.audits.entries, 1)
	assert.Equal(t, models.AuditActionLeaveReject, f.audits.entries[0].Action)

	err = f.svc.RejectLeave(context.Background(), officerSession, submitted.ID)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestLeaveServiceRejectLeavesSettledRecordsAlone(t *testing.T) {
	f := newLeaveFixture(t)
	present := f.repo.put(models.AttendanceRecord{StudentID: "s2", ClassID: "c1", Date: utcDate(2026, time.August, 19), Status: models.AttendanceStatusPresent, Approved: true}, nil)

	err := f.svc.RejectLeave(context.Background(), officerSession, present.ID)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)

	submitted, err := f.svc.SubmitLeave(context.Background(), studentSession, models.LeaveRequest{Date: "2026-08-18", Status: models.AttendanceStatusSick}, jpegProof())
	require.NoError(t, err)
	_, err = f.svc.ApproveLeave(context.Background(), officerSession, submitted.ID)
	require.NoError(t, err)

	err = f.svc.RejectLeave(context.Background(), officerSession, submitted.ID)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)

	assert.Empty(t, f.repo.deleted)
	assert.Empty(t, f.store.deleted)
	assert.Len(t, f.repo.records, 2)
	require.Len(t, f.audits.entries, 1)
	assert.Equal(t, models.AuditActionLeaveApprove, f.audits.entries[0].Action)
	assert.Zero(t, f.metrics.Snapshot().LeaveDecisions[LeaveDecisionRejected])
}

func TestLeaveServiceSubmitRequiresBothTimes(t *testing.T) {
	f := newLeaveFixture(t)

	for _, req := range []models.LeaveRequest{
		{Date: "2026-08-18", Status: models.AttendanceStatusSick, StartTime: "07:00"},
		{Date: "2026-08-18", Status: models.AttendanceStatusSick, EndTime: "09:00"},
		{Date: "2026-08-18", Status: models.AttendanceStatusSick, StartTime: "7am", EndTime: "09:00"},
	} {
		_, err := f.svc.SubmitLeave(context.Background(), studentSession, req, jpegProof())
		require.Error(t, err)
		appErr := appErrors.FromError(err)
		assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
		assert.NotContains(t, appErr.Message, "must be before")
	}
	assert.Zero(t, f.repo.upserts)
	assert.Empty(t, f.store.objects)
}
