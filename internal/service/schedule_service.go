package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/lapanclass-api/internal/calendar"
	"github.com/noah-isme/lapanclass-api/internal/models"
	appErrors "github.com/noah-isme/lapanclass-api/pkg/errors"
)

type scheduleRepository interface {
	ListByClass(ctx context.Context, classID string, dayOfWeek int) ([]models.ScheduleDetail, error)
	FindByID(ctx context.Context, id string) (*models.Schedule, error)
	Create(ctx context.Context, schedule *models.Schedule) error
	Update(ctx context.Context, schedule *models.Schedule) error
	Delete(ctx context.Context, id string) error
}

type scheduleSubjectLookup interface {
	FindByID(ctx context.Context, id string) (*models.Subject, error)
}

// ScheduleService manages the weekly lesson slots of a class.
type ScheduleService struct {
	repo      scheduleRepository
	subjects  scheduleSubjectLookup
	validator *validator.Validate
	logger    *zap.Logger
}

// NewScheduleService constructs ScheduleService.
func NewScheduleService(repo scheduleRepository, subjects scheduleSubjectLookup, validate *validator.Validate, logger *zap.Logger) *ScheduleService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleService{repo: repo, subjects: subjects, validator: validate, logger: logger}
}

// List returns the class schedule with the periods each slot covers.
func (s *ScheduleService) List(ctx context.Context, session models.Session, classID string, dayOfWeek int) ([]models.ScheduleDetail, error) {
	if err := requireClassMember(session, classID); err != nil {
		return nil, err
	}
	if dayOfWeek < 0 || dayOfWeek > 6 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "day_of_week must be between 1 and 6")
	}
	schedules, err := s.repo.ListByClass(ctx, classID, dayOfWeek)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list schedules")
	}
	for i := range schedules {
		schedules[i].Periods = calendar.TimeToPeriods(schedules[i].StartTime, schedules[i].EndTime)
	}
	return schedules, nil
}

// Create adds a lesson slot.
func (s *ScheduleService) Create(ctx context.Context, session models.Session, req models.ScheduleRequest) (*models.ScheduleDetail, error) {
	subject, err := s.validate(ctx, session, req)
	if err != nil {
		return nil, err
	}

	schedule := &models.Schedule{
		ClassID:   req.ClassID,
		SubjectID: req.SubjectID,
		DayOfWeek: req.DayOfWeek,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Room:      req.Room,
	}
	if err := s.repo.Create(ctx, schedule); err != nil {
		return nil, appErrors.Internal(err, "failed to create schedule")
	}
	return detailOf(schedule, subject), nil
}

// Update modifies a lesson slot within the same class.
func (s *ScheduleService) Update(ctx context.Context, session models.Session, id string, req models.ScheduleRequest) (*models.ScheduleDetail, error) {
	schedule, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.ClassID != schedule.ClassID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "schedule cannot move to another class")
	}
	subject, err := s.validate(ctx, session, req)
	if err != nil {
		return nil, err
	}

	schedule.SubjectID = req.SubjectID
	schedule.DayOfWeek = req.DayOfWeek
	schedule.StartTime = req.StartTime
	schedule.EndTime = req.EndTime
	schedule.Room = req.Room
	if err := s.repo.Update(ctx, schedule); err != nil {
		return nil, appErrors.Internal(err, "failed to update schedule")
	}
	return detailOf(schedule, subject), nil
}

// Delete removes a lesson slot.
func (s *ScheduleService) Delete(ctx context.Context, session models.Session, id string) error {
	schedule, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := requireClassManager(session, schedule.ClassID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Internal(err, "failed to delete schedule")
	}
	return nil
}

func (s *ScheduleService) validate(ctx context.Context, session models.Session, req models.ScheduleRequest) (*models.Subject, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid schedule payload")
	}
	start, _ := calendar.ParseClock(req.StartTime)
	end, _ := calendar.ParseClock(req.EndTime)
	if start >= end {
		return nil, appErrors.Clone(appErrors.ErrValidation, "start_time must be before end_time")
	}
	if err := requireClassManager(session, req.ClassID); err != nil {
		return nil, err
	}

	subject, err := s.subjects.FindByID(ctx, req.SubjectID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "subject not found")
		}
		return nil, appErrors.Internal(err, "failed to load subject")
	}
	if subject.ClassID != req.ClassID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "subject belongs to another class")
	}
	return subject, nil
}

func (s *ScheduleService) load(ctx context.Context, id string) (*models.Schedule, error) {
	schedule, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NotFound("schedule")
		}
		return nil, appErrors.Internal(err, "failed to load schedule")
	}
	return schedule, nil
}

func detailOf(schedule *models.Schedule, subject *models.Subject) *models.ScheduleDetail {
	return &models.ScheduleDetail{
		Schedule:    *schedule,
		SubjectName: subject.Name,
		Periods:     calendar.TimeToPeriods(schedule.StartTime, schedule.EndTime),
	}
}
