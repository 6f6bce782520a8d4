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

type cashRepository interface {
	List(ctx context.Context, classID string, from, to time.Time) ([]models.CashTransaction, error)
	Balance(ctx context.Context, classID string) (*models.CashBalance, error)
	Create(ctx context.Context, tx *models.CashTransaction) error
	FindByID(ctx context.Context, id string) (*models.CashTransaction, error)
	Delete(ctx context.Context, id string) error
}

// CashService keeps the class treasury book. Only admins and the class treasurer write to it.
type CashService struct {
	repo      cashRepository
	location  *time.Location
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCashService constructs CashService.
func NewCashService(repo cashRepository, location *time.Location, validate *validator.Validate, logger *zap.Logger) *CashService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if location == nil {
		location = time.UTC
	}
	return &CashService{repo: repo, location: location, validator: validate, logger: logger}
}

// Record adds an income or expense entry.
func (s *CashService) Record(ctx context.Context, session models.Session, req models.CashTransactionRequest) (*models.CashTransaction, error) {
	req.Type = models.CashType(strings.ToUpper(string(req.Type)))
	req.Description = strings.TrimSpace(req.Description)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid cash transaction payload")
	}
	date, err := calendar.ParseDate(req.Date, s.location)
	if err != nil {
		return nil, appErrors.Validation(err, "invalid transaction date")
	}
	if err := requireTreasurer(session, req.ClassID); err != nil {
		return nil, err
	}

	tx := &models.CashTransaction{
		ClassID:     req.ClassID,
		Type:        req.Type,
		Amount:      req.Amount,
		Description: req.Description,
		Date:        date,
		RecordedBy:  session.UserID,
	}
	if err := s.repo.Create(ctx, tx); err != nil {
		return nil, appErrors.Internal(err, "failed to record cash transaction")
	}
	s.logger.Info("cash transaction recorded",
		zap.String("class_id", tx.ClassID),
		zap.String("type", string(tx.Type)),
		zap.Int64("amount", tx.Amount),
	)
	return tx, nil
}

// List returns the entries of a class within a range.
func (s *CashService) List(ctx context.Context, session models.Session, classID string, r calendar.Range) ([]models.CashTransaction, error) {
	if err := requireClassMember(session, classID); err != nil {
		return nil, err
	}
	txs, err := s.repo.List(ctx, classID, r.Start, r.End)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list cash transactions")
	}
	return txs, nil
}

// Balance sums the whole book of a class.
func (s *CashService) Balance(ctx context.Context, session models.Session, classID string) (*models.CashBalance, error) {
	if err := requireClassMember(session, classID); err != nil {
		return nil, err
	}
	balance, err := s.repo.Balance(ctx, classID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to compute cash balance")
	}
	return balance, nil
}

// Delete removes an entry.
func (s *CashService) Delete(ctx context.Context, session models.Session, id string) error {
	tx, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.NotFound("cash transaction")
		}
		return appErrors.Internal(err, "failed to load cash transaction")
	}
	if err := requireTreasurer(session, tx.ClassID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.NotFound("cash transaction")
		}
		return appErrors.Internal(err, "failed to delete cash transaction")
	}
	return nil
}
