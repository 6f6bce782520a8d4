package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/lapanclass-api/internal/models"
	appErrors "github.com/noah-isme/lapanclass-api/pkg/errors"
)

type studentRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error)
	ListByClass(ctx context.Context, classID string) ([]models.Student, error)
	FindByID(ctx context.Context, id string) (*models.Student, error)
	ExistsByNomorAbsen(ctx context.Context, classID string, nomorAbsen int, excludeID string) (bool, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
	Delete(ctx context.Context, id string) error
}

// StudentService handles the class roster.
type StudentService struct {
	repo      studentRepository
	classes   authClassLookup
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService constructs the student service.
func NewStudentService(repo studentRepository, classes authClassLookup, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, classes: classes, validator: validate, logger: logger}
}

// List returns students and pagination metadata.
func (s *StudentService) List(ctx context.Context, session models.Session, filter models.StudentFilter) ([]models.Student, *models.Pagination, error) {
	if !session.IsAdmin() {
		filter.ClassID = session.ClassID
	}
	students, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list students")
	}
	return students, paginationFor(filter.Page, filter.PageSize, total), nil
}

// Roster returns the students of a class ordered by roll number.
func (s *StudentService) Roster(ctx context.Context, session models.Session, classID string) ([]models.Student, error) {
	if err := requireClassMember(session, classID); err != nil {
		return nil, err
	}
	students, err := s.repo.ListByClass(ctx, classID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load class roster")
	}
	return students, nil
}

// Get returns a student by ID.
func (s *StudentService) Get(ctx context.Context, session models.Session, id string) (*models.Student, error) {
	student, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := requireClassMember(session, student.ClassID); err != nil {
		return nil, err
	}
	return student, nil
}

// Create registers a student. Roll numbers are unique within a class.
func (s *StudentService) Create(ctx context.Context, session models.Session, req models.StudentRequest) (*models.Student, error) {
	req.FullName = strings.TrimSpace(req.FullName)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid student payload")
	}
	if err := requireClassManager(session, req.ClassID); err != nil {
		return nil, err
	}
	if err := s.ensureClass(ctx, req.ClassID); err != nil {
		return nil, err
	}
	if err := s.ensureRollNumber(ctx, req.ClassID, req.NomorAbsen, ""); err != nil {
		return nil, err
	}

	student := &models.Student{
		ClassID:    req.ClassID,
		NomorAbsen: req.NomorAbsen,
		NIS:        req.NIS,
		FullName:   req.FullName,
		Gender:     req.Gender,
	}
	if err := s.repo.Create(ctx, student); err != nil {
		return nil, appErrors.Store(err, "roll number already used in this class", "failed to create student")
	}
	return student, nil
}

// Update modifies a student. Moving a student requires rights on both classes.
func (s *StudentService) Update(ctx context.Context, session models.Session, id string, req models.StudentRequest) (*models.Student, error) {
	req.FullName = strings.TrimSpace(req.FullName)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid student payload")
	}

	student, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := requireClassManager(session, student.ClassID); err != nil {
		return nil, err
	}
	if req.ClassID != student.ClassID {
		if err := requireClassManager(session, req.ClassID); err != nil {
			return nil, err
		}
		if err := s.ensureClass(ctx, req.ClassID); err != nil {
			return nil, err
		}
	}
	if err := s.ensureRollNumber(ctx, req.ClassID, req.NomorAbsen, id); err != nil {
		return nil, err
	}

	student.ClassID = req.ClassID
	student.NomorAbsen = req.NomorAbsen
	student.NIS = req.NIS
	student.FullName = req.FullName
	student.Gender = req.Gender
	if err := s.repo.Update(ctx, student); err != nil {
		return nil, appErrors.Store(err, "roll number already used in this class", "failed to update student")
	}
	return student, nil
}

// Delete removes a student. Attendance rows go with it through the foreign key.
func (s *StudentService) Delete(ctx context.Context, session models.Session, id string) error {
	student, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := requireClassManager(session, student.ClassID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Internal(err, "failed to delete student")
	}
	return nil
}

func (s *StudentService) load(ctx context.Context, id string) (*models.Student, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NotFound("student")
		}
		return nil, appErrors.Internal(err, "failed to load student")
	}
	return student, nil
}

func (s *StudentService) ensureClass(ctx context.Context, classID string) error {
	if s.classes == nil {
		return nil
	}
	if _, err := s.classes.FindByID(ctx, classID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrValidation, "class not found")
		}
		return appErrors.Internal(err, "failed to load class")
	}
	return nil
}

func (s *StudentService) ensureRollNumber(ctx context.Context, classID string, nomorAbsen int, excludeID string) error {
	exists, err := s.repo.ExistsByNomorAbsen(ctx, classID, nomorAbsen, excludeID)
	if err != nil {
		return appErrors.Internal(err, "failed to check roll number")
	}
	if exists {
		return appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("roll number %d is already used in this class", nomorAbsen))
	}
	return nil
}
