package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/lapanclass-api/internal/models"
	appErrors "github.com/noah-isme/lapanclass-api/pkg/errors"
)

type subjectRepository interface {
	ListByClass(ctx context.Context, classID string) ([]models.Subject, error)
	FindByID(ctx context.Context, id string) (*models.Subject, error)
	ExistsByName(ctx context.Context, classID, name string, excludeID string) (bool, error)
	Create(ctx context.Context, subject *models.Subject) error
	Update(ctx context.Context, subject *models.Subject) error
	Delete(ctx context.Context, id string) error
	CountSchedules(ctx context.Context, id string) (int, error)
}

// SubjectService manages the subjects taught in a class.
type SubjectService struct {
	repo      subjectRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSubjectService constructs SubjectService.
func NewSubjectService(repo subjectRepository, validate *validator.Validate, logger *zap.Logger) *SubjectService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubjectService{repo: repo, validator: validate, logger: logger}
}

// List returns the subjects of a class.
func (s *SubjectService) List(ctx context.Context, session models.Session, classID string) ([]models.Subject, error) {
	if err := requireClassMember(session, classID); err != nil {
		return nil, err
	}
	subjects, err := s.repo.ListByClass(ctx, classID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list subjects")
	}
	return subjects, nil
}

// Create adds a subject; names are unique per class, ignoring case.
func (s *SubjectService) Create(ctx context.Context, session models.Session, req models.SubjectRequest) (*models.Subject, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid subject payload")
	}
	if err := requireClassManager(session, req.ClassID); err != nil {
		return nil, err
	}
	if err := s.ensureUniqueName(ctx, req.ClassID, req.Name, ""); err != nil {
		return nil, err
	}

	subject := &models.Subject{ClassID: req.ClassID, Name: req.Name, TeacherName: req.TeacherName}
	if err := s.repo.Create(ctx, subject); err != nil {
		return nil, appErrors.Store(err, "subject name already exists in this class", "failed to create subject")
	}
	return subject, nil
}

// Update renames a subject or changes its teacher. The owning class is fixed.
func (s *SubjectService) Update(ctx context.Context, session models.Session, id string, req models.SubjectRequest) (*models.Subject, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid subject payload")
	}

	subject, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := requireClassManager(session, subject.ClassID); err != nil {
		return nil, err
	}
	if req.ClassID != subject.ClassID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "subject cannot move to another class")
	}
	if err := s.ensureUniqueName(ctx, subject.ClassID, req.Name, id); err != nil {
		return nil, err
	}

	subject.Name = req.Name
	subject.TeacherName = req.TeacherName
	if err := s.repo.Update(ctx, subject); err != nil {
		return nil, appErrors.Store(err, "subject name already exists in this class", "failed to update subject")
	}
	return subject, nil
}

// Delete removes a subject that no schedule references.
func (s *SubjectService) Delete(ctx context.Context, session models.Session, id string) error {
	subject, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := requireClassManager(session, subject.ClassID); err != nil {
		return err
	}

	count, err := s.repo.CountSchedules(ctx, id)
	if err != nil {
		return appErrors.Internal(err, "failed to check subject schedules")
	}
	if count > 0 {
		return appErrors.Clone(appErrors.ErrConflict, "subject is still scheduled")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Internal(err, "failed to delete subject")
	}
	return nil
}

func (s *SubjectService) load(ctx context.Context, id string) (*models.Subject, error) {
	subject, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NotFound("subject")
		}
		return nil, appErrors.Internal(err, "failed to load subject")
	}
	return subject, nil
}

func (s *SubjectService) ensureUniqueName(ctx context.Context, classID, name, excludeID string) error {
	exists, err := s.repo.ExistsByName(ctx, classID, name, excludeID)
	if err != nil {
		return appErrors.Internal(err, "failed to check subject name")
	}
	if exists {
		return appErrors.Clone(appErrors.ErrConflict, "subject name already exists in this class")
	}
	return nil
}
