package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/lapanclass-api/internal/models"
	appErrors "github.com/noah-isme/lapanclass-api/pkg/errors"
)

type userRepository interface {
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Approve(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// CreateUserRequest represents the admin payload for creating accounts directly.
type CreateUserRequest struct {
	Username  string          `json:"username" validate:"required,min=3,max=64"`
	Password  string          `json:"password" validate:"required,min=6"`
	FullName  string          `json:"full_name" validate:"required"`
	Role      models.UserRole `json:"role" validate:"required,oneof=ADMIN KETUA SEKRETARIS BENDAHARA WALI_KELAS STUDENT"`
	ClassID   *string         `json:"class_id" validate:"required_unless=Role ADMIN"`
	StudentID *string         `json:"student_id" validate:"required_if=Role STUDENT"`
}

// UserService handles account management and the officer approval queue.
type UserService struct {
	repo      userRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewUserService creates an instance of UserService.
func NewUserService(repo userRepository, validate *validator.Validate, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = NewValidator()
	}
	return &UserService{repo: repo, validator: validate, logger: logger}
}

// List returns paginated users and pagination metadata.
func (s *UserService) List(ctx context.Context, filter models.UserFilter) ([]models.User, *models.Pagination, error) {
	users, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list users")
	}
	return users, paginationFor(filter.Page, filter.PageSize, total), nil
}

// ListPending returns officer accounts waiting for approval.
func (s *UserService) ListPending(ctx context.Context, page, pageSize int) ([]models.User, *models.Pagination, error) {
	approved := false
	return s.List(ctx, models.UserFilter{Approved: &approved, Page: page, PageSize: pageSize, SortBy: "created_at", SortOrder: "asc"})
}

// Get returns a user by ID.
func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NotFound("user")
		}
		return nil, appErrors.Internal(err, "failed to load user")
	}
	return user, nil
}

// Create adds an approved account. Admins use it for other admins and student logins.
func (s *UserService) Create(ctx context.Context, req CreateUserRequest, actorID string) (*models.User, error) {
	req.Username = strings.TrimSpace(req.Username)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid create user payload")
	}

	if _, err := s.repo.FindByUsername(ctx, req.Username); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "username already taken")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Internal(err, "failed to check username uniqueness")
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to hash password")
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Username:     req.Username,
		FullName:     req.FullName,
		Role:         req.Role,
		ClassID:      req.ClassID,
		StudentID:    req.StudentID,
		Approved:     true,
		Active:       true,
		PasswordHash: string(passwordHash),
	}
	if user.Role == models.RoleAdmin {
		user.ClassID = nil
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, appErrors.Store(err, "username already taken", "failed to create user")
	}

	s.audit(ctx, actorID, models.AuditActionRegister, user.ID, nil, map[string]interface{}{"username": user.Username, "role": user.Role})
	return user, nil
}

// Approve activates a pending officer registration.
func (s *UserService) Approve(ctx context.Context, id string, actorID string) (*models.User, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.Approved {
		return user, nil
	}

	if err := s.repo.Approve(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NotFound("user")
		}
		return nil, appErrors.Internal(err, "failed to approve user")
	}
	user.Approved = true

	s.audit(ctx, actorID, models.AuditActionUserApprove, id, map[string]interface{}{"approved": false}, map[string]interface{}{"approved": true})
	return user, nil
}

// Reject removes a pending registration. Approved accounts cannot be rejected.
func (s *UserService) Reject(ctx context.Context, id string, actorID string) error {
	user, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if user.Approved {
		return appErrors.Clone(appErrors.ErrConflict, "account is already approved")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.NotFound("user")
		}
		return appErrors.Internal(err, "failed to reject user")
	}

	s.audit(ctx, actorID, models.AuditActionUserReject, id, map[string]interface{}{"username": user.Username, "role": user.Role}, nil)
	return nil
}

func (s *UserService) audit(ctx context.Context, actorID, action, resourceID string, oldValues, newValues map[string]interface{}) {
	entry := &models.AuditLog{
		Action:     action,
		Resource:   "users",
		ResourceID: &resourceID,
	}
	if actorID != "" {
		entry.UserID = &actorID
	}
	if oldValues != nil {
		entry.OldValues, _ = json.Marshal(oldValues)
	}
	if newValues != nil {
		entry.NewValues, _ = json.Marshal(newValues)
	}
	if err := s.repo.CreateAuditLog(ctx, entry); err != nil {
		s.logger.Warn("failed to record user audit log", zap.String("action", action), zap.Error(err))
	}
}

func paginationFor(page, pageSize, total int) *models.Pagination {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	return &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}
}
