package service

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/lapanclass-api/internal/calendar"
	"github.com/noah-isme/lapanclass-api/internal/models"
	appErrors "github.com/noah-isme/lapanclass-api/pkg/errors"
	"github.com/noah-isme/lapanclass-api/pkg/storage"
)

type proofStore interface {
	Upload(ctx context.Context, key string, r io.Reader, contentType string) (string, error)
	PublicURL(key string) (string, error)
	Delete(ctx context.Context, key string) error
}

type auditRecorder interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// LeaveConfig bounds uploaded proof files.
type LeaveConfig struct {
	MaxFileSizeBytes int64
	AllowedMIMEs     []string
}

// LeaveService handles sick/excused requests and their approval.
type LeaveService struct {
	repo      attendanceRepository
	students  attendanceStudentLookup
	holidays  HolidayRegistry
	store     proofStore
	audits    auditRecorder
	metrics   *MetricsService
	config    LeaveConfig
	location  *time.Location
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewLeaveService constructs the leave workflow service.
func NewLeaveService(repo attendanceRepository, students attendanceStudentLookup, holidays HolidayRegistry, store proofStore, audits auditRecorder, metrics *MetricsService, cfg LeaveConfig, location *time.Location, validate *validator.Validate, logger *zap.Logger) *LeaveService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if location == nil {
		location = time.UTC
	}
	if cfg.MaxFileSizeBytes <= 0 {
		cfg.MaxFileSizeBytes = 5 * 1024 * 1024
	}
	return &LeaveService{
		repo:      repo,
		students:  students,
		holidays:  holidays,
		store:     store,
		audits:    audits,
		metrics:   metrics,
		config:    cfg,
		location:  location,
		validator: validate,
		logger:    logger,
		now:       time.Now,
	}
}

// SubmitLeave stores a student's own S/I request with its proof. The record waits for approval,
// and a second submission on the same day replaces the first.
func (s *LeaveService) SubmitLeave(ctx context.Context, session models.Session, req models.LeaveRequest, proof *models.UploadedFile) (*models.AttendanceRecordDetail, error) {
	if session.Role != models.RoleStudent || session.StudentID == "" {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only students can submit leave requests")
	}
	req.Status = models.AttendanceStatus(strings.ToUpper(string(req.Status)))
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid leave payload")
	}
	contentType, err := s.checkProof(proof)
	if err != nil {
		return nil, err
	}
	date, err := calendar.ParseDate(req.Date, s.location)
	if err != nil {
		return nil, appErrors.Validation(err, "invalid leave date")
	}

	var periods []int
	if req.StartTime != "" || req.EndTime != "" {
		if req.StartTime == "" || req.EndTime == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "start_time and end_time must be given together")
		}
		start, err := calendar.ParseClock(req.StartTime)
		if err != nil {
			return nil, appErrors.Validation(err, "invalid start_time, expected HH:MM")
		}
		end, err := calendar.ParseClock(req.EndTime)
		if err != nil {
			return nil, appErrors.Validation(err, "invalid end_time, expected HH:MM")
		}
		if start >= end {
			return nil, appErrors.Clone(appErrors.ErrValidation, "start_time must be before end_time")
		}
		periods = calendar.TimeToPeriods(req.StartTime, req.EndTime)
	}

	student, err := loadStudent(ctx, s.students, session.StudentID)
	if err != nil {
		return nil, err
	}
	if err := ensureRecordable(ctx, s.holidays, date); err != nil {
		return nil, err
	}

	key := storage.ProofKey(student.ID, strings.ToLower(string(req.Status)), s.now(), proof.Filename)
	stored, err := s.store.Upload(ctx, key, bytes.NewReader(proof.Content), contentType)
	if err != nil {
		s.logger.Error("proof upload failed", zap.String("student_id", student.ID), zap.Error(err))
		return nil, appErrors.Internal(err, "failed to store proof file")
	}

	record := &models.AttendanceRecord{
		StudentID: student.ID,
		ClassID:   student.ClassID,
		Date:      date,
		Status:    req.Status,
		Note:      trimNote(req.Note),
		ProofPath: &stored,
		Approved:  false,
	}
	saved, err := s.repo.UpsertWithPeriods(ctx, record, periods)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to record leave request")
	}
	s.metrics.RecordAttendanceWrites("submit_leave", 1)
	s.metrics.RecordLeaveDecision(LeaveDecisionSubmitted)
	s.metrics.ObserveProofUpload(len(proof.Content))
	s.logger.Info("leave submitted",
		zap.String("student_id", student.ID),
		zap.String("date", req.Date),
		zap.String("status", string(req.Status)),
		zap.Ints("periods", periods),
	)
	return s.detail(saved, student, periods), nil
}

// RecordPartialLeave excuses a student for periods from..to of one day.
func (s *LeaveService) RecordPartialLeave(ctx context.Context, session models.Session, req models.PartialLeaveRequest) (*models.AttendanceRecordDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid partial leave payload")
	}
	periods, err := calendar.PeriodSpan(req.From, req.To)
	if err != nil {
		return nil, appErrors.Validation(err, err.Error())
	}
	date, err := calendar.ParseDate(req.Date, s.location)
	if err != nil {
		return nil, appErrors.Validation(err, "invalid attendance date")
	}
	student, err := loadStudent(ctx, s.students, req.StudentID)
	if err != nil {
		return nil, err
	}
	if err := requireClassManager(session, student.ClassID); err != nil {
		return nil, err
	}
	if err := ensureRecordable(ctx, s.holidays, date); err != nil {
		return nil, err
	}

	note := fmt.Sprintf("Izin jam ke-%d s/d %d", req.From, req.To)
	record := &models.AttendanceRecord{
		StudentID: student.ID,
		ClassID:   student.ClassID,
		Date:      date,
		Status:    models.AttendanceStatusExcused,
		Note:      &note,
		Approved:  true,
	}
	saved, err := s.repo.UpsertWithPeriods(ctx, record, periods)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to record partial leave")
	}
	s.metrics.RecordAttendanceWrites("partial_leave", 1)
	return s.detail(saved, student, periods), nil
}

// ListPending returns unapproved leave requests of a class, oldest date first.
func (s *LeaveService) ListPending(ctx context.Context, session models.Session, classID string) ([]models.AttendanceRecordDetail, error) {
	if classID == "" && !session.IsAdmin() {
		classID = session.ClassID
	}
	if classID != "" {
		if err := requireClassManager(session, classID); err != nil {
			return nil, err
		}
	} else if !session.IsAdmin() {
		return nil, appErrors.ErrForbidden
	}
	approved := false
	records, err := s.repo.List(ctx, models.AttendanceFilter{ClassID: classID, Approved: &approved})
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list leave requests")
	}
	if len(records) == 0 {
		return records, nil
	}
	ids := make([]string, 0, len(records))
	for _, rec := range records {
		ids = append(ids, rec.ID)
	}
	periods, err := s.repo.ListPeriods(ctx, ids)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load attendance periods")
	}
	for i := range records {
		records[i].Periods = periods[records[i].ID]
		records[i].ProofURL = proofURL(s.store, records[i].ProofPath, s.logger)
	}
	return records, nil
}

// ApproveLeave marks a pending request approved.
func (s *LeaveService) ApproveLeave(ctx context.Context, session models.Session, id string) (*models.AttendanceRecord, error) {
	record, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := requireClassManager(session, record.ClassID); err != nil {
		return nil, err
	}
	if record.Approved {
		return record, nil
	}
	if err := s.repo.Approve(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NotFound("attendance record")
		}
		return nil, appErrors.Internal(err, "failed to approve leave request")
	}
	record.Approved = true
	s.metrics.RecordLeaveDecision(LeaveDecisionApproved)
	s.audit(ctx, session.UserID, models.AuditActionLeaveApprove, record)
	return record, nil
}

// RejectLeave deletes a pending request and then, best effort, its proof object. Approved
// records and non-leave statuses are left alone.
func (s *LeaveService) RejectLeave(ctx context.Context, session models.Session, id string) error {
	record, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := requireClassManager(session, record.ClassID); err != nil {
		return err
	}
	if record.Approved || !record.Status.IsLeave() {
		return appErrors.Clone(appErrors.ErrConflict, "only pending leave requests can be rejected")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.NotFound("attendance record")
		}
		return appErrors.Internal(err, "failed to reject leave request")
	}
	if record.ProofPath != nil && *record.ProofPath != "" {
		if err := s.store.Delete(ctx, *record.ProofPath); err != nil {
			s.logger.Warn("failed to delete proof object", zap.String("key", *record.ProofPath), zap.Error(err))
		}
	}
	s.metrics.RecordLeaveDecision(LeaveDecisionRejected)
	s.audit(ctx, session.UserID, models.AuditActionLeaveReject, record)
	return nil
}

// checkProof enforces presence, size and MIME type of the uploaded proof.
func (s *LeaveService) checkProof(proof *models.UploadedFile) (string, error) {
	if proof == nil || len(proof.Content) == 0 {
		return "", appErrors.Clone(appErrors.ErrValidation, "proof file is required")
	}
	size := proof.Size
	if size <= 0 {
		size = int64(len(proof.Content))
	}
	if size > s.config.MaxFileSizeBytes {
		return "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("proof file exceeds %d bytes", s.config.MaxFileSizeBytes))
	}
	contentType := strings.TrimSpace(strings.Split(proof.ContentType, ";")[0])
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = strings.Split(http.DetectContentType(proof.Content), ";")[0]
	}
	if len(s.config.AllowedMIMEs) == 0 {
		return contentType, nil
	}
	for _, allowed := range s.config.AllowedMIMEs {
		if strings.EqualFold(allowed, contentType) {
			return contentType, nil
		}
	}
	return "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("proof file type %s is not allowed", contentType))
}

func (s *LeaveService) load(ctx context.Context, id string) (*models.AttendanceRecord, error) {
	record, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NotFound("attendance record")
		}
		return nil, appErrors.Internal(err, "failed to load attendance record")
	}
	return record, nil
}

func (s *LeaveService) detail(record *models.AttendanceRecord, student *models.Student, periods []int) *models.AttendanceRecordDetail {
	return &models.AttendanceRecordDetail{
		AttendanceRecord: *record,
		StudentName:      student.FullName,
		NomorAbsen:       student.NomorAbsen,
		Periods:          periods,
		ProofURL:         proofURL(s.store, record.ProofPath, s.logger),
	}
}

func (s *LeaveService) audit(ctx context.Context, actorID, action string, record *models.AttendanceRecord) {
	if s.audits == nil {
		return
	}
	values, _ := json.Marshal(map[string]interface{}{
		"student_id": record.StudentID,
		"date":       recordDateKey(record.Date),
		"status":     record.Status,
	})
	entry := &models.AuditLog{
		Action:     action,
		Resource:   "attendance_records",
		ResourceID: &record.ID,
		OldValues:  values,
	}
	if actorID != "" {
		entry.UserID = &actorID
	}
	if err := s.audits.CreateAuditLog(ctx, entry); err != nil {
		s.logger.Warn("failed to record audit log", zap.String("action", action), zap.Error(err))
	}
}
