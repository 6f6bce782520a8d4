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

type semesterRepository interface {
	List(ctx context.Context, classLevel string) ([]models.SemesterConfig, error)
	FindByID(ctx context.Context, id string) (*models.SemesterConfig, error)
	FindCovering(ctx context.Context, classLevel string, date time.Time) (*models.SemesterConfig, error)
	Create(ctx context.Context, cfg *models.SemesterConfig) error
	Update(ctx context.Context, cfg *models.SemesterConfig) error
	Delete(ctx context.Context, id string) error
}

// SemesterService manages semester spans per class level. Overlapping spans are accepted.
type SemesterService struct {
	repo      semesterRepository
	location  *time.Location
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSemesterService constructs SemesterService.
func NewSemesterService(repo semesterRepository, location *time.Location, validate *validator.Validate, logger *zap.Logger) *SemesterService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if location == nil {
		location = time.UTC
	}
	return &SemesterService{repo: repo, location: location, validator: validate, logger: logger}
}

// List returns configs, optionally for one class level.
func (s *SemesterService) List(ctx context.Context, classLevel string) ([]models.SemesterConfig, error) {
	configs, err := s.repo.List(ctx, strings.TrimSpace(classLevel))
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list semester configs")
	}
	return configs, nil
}

// Current returns the semester of a class level covering date.
func (s *SemesterService) Current(ctx context.Context, classLevel string, date time.Time) (*models.SemesterConfig, error) {
	classLevel = strings.TrimSpace(classLevel)
	if classLevel == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "class_level is required")
	}
	cfg, err := s.repo.FindCovering(ctx, classLevel, date)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no semester covers "+calendar.DateKey(date))
		}
		return nil, appErrors.Internal(err, "failed to resolve current semester")
	}
	return cfg, nil
}

// Create stores a config after checking end > start.
func (s *SemesterService) Create(ctx context.Context, req models.SemesterConfigRequest) (*models.SemesterConfig, error) {
	cfg, err := s.build(req)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, cfg); err != nil {
		return nil, appErrors.Internal(err, "failed to create semester config")
	}
	return cfg, nil
}

// Update replaces a config.
func (s *SemesterService) Update(ctx context.Context, id string, req models.SemesterConfigRequest) (*models.SemesterConfig, error) {
	cfg, err := s.build(req)
	if err != nil {
		return nil, err
	}
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NotFound("semester config")
		}
		return nil, appErrors.Internal(err, "failed to load semester config")
	}
	cfg.ID = existing.ID
	cfg.CreatedAt = existing.CreatedAt
	if err := s.repo.Update(ctx, cfg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NotFound("semester config")
		}
		return nil, appErrors.Internal(err, "failed to update semester config")
	}
	return cfg, nil
}

// Delete removes a config.
func (s *SemesterService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.NotFound("semester config")
		}
		return appErrors.Internal(err, "failed to delete semester config")
	}
	return nil
}

func (s *SemesterService) build(req models.SemesterConfigRequest) (*models.SemesterConfig, error) {
	req.ClassLevel = strings.TrimSpace(req.ClassLevel)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid semester payload")
	}
	start, err := calendar.ParseDate(req.StartDate, s.location)
	if err != nil {
		return nil, appErrors.Validation(err, "invalid start_date")
	}
	end, err := calendar.ParseDate(req.EndDate, s.location)
	if err != nil {
		return nil, appErrors.Validation(err, "invalid end_date")
	}
	if !end.After(start) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end_date must be after start_date")
	}
	return &models.SemesterConfig{
		ClassLevel: req.ClassLevel,
		Semester:   req.Semester,
		StartDate:  start,
		EndDate:    end,
	}, nil
}
