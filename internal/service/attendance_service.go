package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/lapanclass-api/internal/calendar"
	"github.com/noah-isme/lapanclass-api/internal/models"
	appErrors "github.com/noah-isme/lapanclass-api/pkg/errors"
)

type attendanceRepository interface {
	UpsertWithPeriods(ctx context.Context, record *models.AttendanceRecord, periods []int) (*models.AttendanceRecord, error)
	BulkUpsert(ctx context.Context, records []models.AttendanceRecord) ([]models.AttendanceRecord, error)
	FindByID(ctx context.Context, id string) (*models.AttendanceRecord, error)
	FindByStudentDate(ctx context.Context, studentID string, date time.Time) (*models.AttendanceRecord, error)
	Approve(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceRecordDetail, error)
	ListPeriods(ctx context.Context, attendanceIDs []string) (map[string][]int, error)
}

type attendanceStudentLookup interface {
	ListByClass(ctx context.Context, classID string) ([]models.Student, error)
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

// proofLinker turns stored proof keys into download links.
type proofLinker interface {
	PublicURL(key string) (string, error)
}

// AttendanceQuery selects records for listings.
type AttendanceQuery struct {
	ClassID   string
	StudentID string
	Range     calendar.Range
	Status    *models.AttendanceStatus
	Approved  *bool
}

// AttendanceService records daily attendance and builds the class views over it.
type AttendanceService struct {
	repo      attendanceRepository
	students  attendanceStudentLookup
	holidays  HolidayRegistry
	proofs    proofLinker
	metrics   *MetricsService
	location  *time.Location
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAttendanceService constructs the attendance service.
func NewAttendanceService(repo attendanceRepository, students attendanceStudentLookup, holidays HolidayRegistry, proofs proofLinker, metrics *MetricsService, location *time.Location, validate *validator.Validate, logger *zap.Logger) *AttendanceService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if location == nil {
		location = time.UTC
	}
	return &AttendanceService{
		repo:      repo,
		students:  students,
		holidays:  holidays,
		proofs:    proofs,
		metrics:   metrics,
		location:  location,
		validator: validate,
		logger:    logger,
	}
}

// MarkAllPresent writes status H for every student of the class with one batched upsert.
// Records already present for the date are overwritten and lose their period children.
func (s *AttendanceService) MarkAllPresent(ctx context.Context, session models.Session, req models.MarkAllPresentRequest) ([]models.AttendanceRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid mark all present payload")
	}
	if err := requireClassManager(session, req.ClassID); err != nil {
		return nil, err
	}
	date, err := calendar.ParseDate(req.Date, s.location)
	if err != nil {
		return nil, appErrors.Validation(err, "invalid attendance date")
	}
	if err := ensureRecordable(ctx, s.holidays, date); err != nil {
		return nil, err
	}

	students, err := s.students.ListByClass(ctx, req.ClassID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load class roster")
	}
	records := make([]models.AttendanceRecord, 0, len(students))
	for _, student := range students {
		records = append(records, models.AttendanceRecord{
			StudentID: student.ID,
			ClassID:   req.ClassID,
			Date:      date,
			Status:    models.AttendanceStatusPresent,
			Approved:  true,
		})
	}

	stored, err := s.repo.BulkUpsert(ctx, records)
	if err != nil {
		s.logger.Error("mark all present failed", zap.String("class_id", req.ClassID), zap.String("date", req.Date), zap.Error(err))
		return nil, appErrors.Internal(err, "failed to record attendance")
	}
	s.metrics.RecordAttendanceWrites("mark_all_present", len(stored))
	s.logger.Info("class marked present",
		zap.String("class_id", req.ClassID),
		zap.String("date", req.Date),
		zap.Int("records", len(stored)),
		zap.String("by", session.UserID),
	)
	return stored, nil
}

// SetStatus is the manual officer edit of one student's day. It clears any period children.
func (s *AttendanceService) SetStatus(ctx context.Context, session models.Session, req models.SetAttendanceRequest) (*models.AttendanceRecord, error) {
	req.Status = models.AttendanceStatus(strings.ToUpper(string(req.Status)))
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid attendance payload")
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

	previous, err := s.repo.FindByStudentDate(ctx, student.ID, date)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Internal(err, "failed to load attendance record")
	}

	record := &models.AttendanceRecord{
		StudentID: student.ID,
		ClassID:   student.ClassID,
		Date:      date,
		Status:    req.Status,
		Note:      trimNote(req.Note),
		Approved:  true,
	}
	stored, err := s.repo.UpsertWithPeriods(ctx, record, nil)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to record attendance")
	}
	s.metrics.RecordAttendanceWrites("set_status", 1)
	if previous != nil && (previous.Status != stored.Status || !previous.Approved) {
		s.logger.Info("attendance overwritten",
			zap.String("record_id", stored.ID),
			zap.String("actor_id", session.UserID),
			zap.String("previous_status", string(previous.Status)),
			zap.Bool("previous_approved", previous.Approved),
			zap.String("status", string(stored.Status)),
		)
	}
	return stored, nil
}

// List returns records with their periods and proof links. Students only see their own rows.
func (s *AttendanceService) List(ctx context.Context, session models.Session, query AttendanceQuery) ([]models.AttendanceRecordDetail, error) {
	if err := s.authorizeRead(ctx, session, &query); err != nil {
		return nil, err
	}
	return s.list(ctx, query)
}

func (s *AttendanceService) list(ctx context.Context, query AttendanceQuery) ([]models.AttendanceRecordDetail, error) {
	records, err := s.repo.List(ctx, models.AttendanceFilter{
		ClassID:   query.ClassID,
		StudentID: query.StudentID,
		DateFrom:  query.Range.Start,
		DateTo:    query.Range.End,
		Status:    query.Status,
		Approved:  query.Approved,
	})
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list attendance")
	}
	if err := s.enrich(ctx, records); err != nil {
		return nil, err
	}
	return records, nil
}

// Grid builds the student-by-day matrix of a class over a range.
func (s *AttendanceService) Grid(ctx context.Context, session models.Session, classID string, r calendar.Range) (*models.AttendanceGrid, error) {
	if err := requireClassMember(session, classID); err != nil {
		return nil, err
	}
	students, err := s.students.ListByClass(ctx, classID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load class roster")
	}
	set, err := s.holidays.Registry(ctx, r)
	if err != nil {
		return nil, err
	}
	records, err := s.repo.List(ctx, models.AttendanceFilter{ClassID: classID, DateFrom: r.Start, DateTo: r.End})
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list attendance")
	}

	days := calendar.Days(r)
	grid := &models.AttendanceGrid{
		ClassID: classID,
		Start:   r.StartKey(),
		End:     r.EndKey(),
		Days:    make([]models.GridDay, 0, len(days)),
		Rows:    make([]models.AttendanceGridRow, 0, len(students)),
	}
	for _, day := range days {
		column := models.GridDay{Date: calendar.DateKey(day), CanRecord: calendar.CanRecordAttendance(day, set)}
		if text, ok := calendar.HolidayStatusText(day, set); ok {
			column.Holiday = &text
		}
		grid.Days = append(grid.Days, column)
	}

	byStudent := make(map[string]map[string]models.AttendanceStatus, len(students))
	for _, rec := range records {
		statuses, ok := byStudent[rec.StudentID]
		if !ok {
			statuses = make(map[string]models.AttendanceStatus)
			byStudent[rec.StudentID] = statuses
		}
		statuses[recordDateKey(rec.Date)] = rec.Status
	}
	for _, student := range students {
		row := models.AttendanceGridRow{
			StudentID:  student.ID,
			NomorAbsen: student.NomorAbsen,
			FullName:   student.FullName,
			Statuses:   byStudent[student.ID],
		}
		if row.Statuses == nil {
			row.Statuses = map[string]models.AttendanceStatus{}
		}
		for _, status := range row.Statuses {
			row.Summary.Add(status)
		}
		grid.Rows = append(grid.Rows, row)
	}
	return grid, nil
}

// DailySummary counts the statuses of a class on one date.
func (s *AttendanceService) DailySummary(ctx context.Context, session models.Session, classID string, date time.Time) (*models.DailySummary, error) {
	if err := requireClassMember(session, classID); err != nil {
		return nil, err
	}
	r := calendar.DateRange(calendar.ModeDay, date, 0, 0)
	set, err := s.holidays.Registry(ctx, r)
	if err != nil {
		return nil, err
	}
	students, err := s.students.ListByClass(ctx, classID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load class roster")
	}
	records, err := s.repo.List(ctx, models.AttendanceFilter{ClassID: classID, DateFrom: r.Start, DateTo: r.End})
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list attendance")
	}

	summary := &models.DailySummary{
		Date:      calendar.DateKey(date),
		Label:     calendar.FormatIndonesian(date),
		CanRecord: calendar.CanRecordAttendance(date, set),
		Students:  len(students),
	}
	if text, ok := calendar.HolidayStatusText(date, set); ok {
		summary.HolidayStatus = &text
	}
	for _, rec := range records {
		summary.Summary.Add(rec.Status)
	}
	summary.Unrecorded = summary.Students - summary.Summary.Total
	if summary.Unrecorded < 0 {
		summary.Unrecorded = 0
	}
	return summary, nil
}

// authorizeRead narrows a query to what the session may see.
func (s *AttendanceService) authorizeRead(ctx context.Context, session models.Session, query *AttendanceQuery) error {
	if session.Role == models.RoleStudent {
		if session.StudentID == "" {
			return appErrors.Clone(appErrors.ErrForbidden, "account is not linked to a student")
		}
		query.StudentID = session.StudentID
		query.ClassID = session.ClassID
		return nil
	}
	if query.ClassID == "" && query.StudentID != "" {
		student, err := loadStudent(ctx, s.students, query.StudentID)
		if err != nil {
			return err
		}
		query.ClassID = student.ClassID
	}
	if query.ClassID == "" && !session.IsAdmin() {
		query.ClassID = session.ClassID
	}
	if query.ClassID == "" {
		return nil
	}
	return requireClassMember(session, query.ClassID)
}

// enrich attaches period children and proof links to the records.
func (s *AttendanceService) enrich(ctx context.Context, records []models.AttendanceRecordDetail) error {
	if len(records) == 0 {
		return nil
	}
	ids := make([]string, 0, len(records))
	for _, rec := range records {
		ids = append(ids, rec.ID)
	}
	periods, err := s.repo.ListPeriods(ctx, ids)
	if err != nil {
		return appErrors.Internal(err, "failed to load attendance periods")
	}
	for i := range records {
		records[i].Periods = periods[records[i].ID]
		records[i].ProofURL = proofURL(s.proofs, records[i].ProofPath, s.logger)
	}
	return nil
}

// ensureRecordable is the attendance write gate: weekends and HOLIDAY entries are closed.
func ensureRecordable(ctx context.Context, holidays HolidayRegistry, date time.Time) error {
	set, err := holidays.Registry(ctx, calendar.DateRange(calendar.ModeDay, date, 0, 0))
	if err != nil {
		return err
	}
	if calendar.CanRecordAttendance(date, set) {
		return nil
	}
	text, _ := calendar.HolidayStatusText(date, set)
	return appErrors.Clone(appErrors.ErrAttendanceLocked, "attendance cannot be recorded on "+calendar.DateKey(date)+": "+text)
}

func loadStudent(ctx context.Context, students attendanceStudentLookup, id string) (*models.Student, error) {
	student, err := students.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NotFound("student")
		}
		return nil, appErrors.Internal(err, "failed to load student")
	}
	return student, nil
}

func proofURL(proofs proofLinker, key *string, logger *zap.Logger) string {
	if proofs == nil || key == nil || *key == "" {
		return ""
	}
	link, err := proofs.PublicURL(*key)
	if err != nil {
		logger.Warn("failed to build proof url", zap.String("key", *key), zap.Error(err))
		return ""
	}
	return link
}

func trimNote(note *string) *string {
	if note == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*note)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// recordDateKey keys a stored DATE value, which the driver returns as UTC midnight.
func recordDateKey(date time.Time) string {
	return date.UTC().Format(calendar.DateLayout)
}
