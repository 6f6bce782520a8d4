package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/lapanclass-api/internal/calendar"
	"github.com/noah-isme/lapanclass-api/internal/models"
	appErrors "github.com/noah-isme/lapanclass-api/pkg/errors"
)

type holidayRepository interface {
	ListRange(ctx context.Context, from, to time.Time) ([]models.Holiday, error)
	FindByID(ctx context.Context, id string) (*models.Holiday, error)
	ExistsByDate(ctx context.Context, date time.Time, excludeID string) (bool, error)
	Create(ctx context.Context, holiday *models.Holiday) error
	Update(ctx context.Context, holiday *models.Holiday) error
	Delete(ctx context.Context, id string) error
}

// HolidayRegistry is the read side other services use to gate and label dates.
type HolidayRegistry interface {
	Registry(ctx context.Context, r calendar.Range) (calendar.HolidaySet, error)
}

// HolidayService maintains the holiday/event registry and answers calendar questions.
type HolidayService struct {
	repo      holidayRepository
	cache     *CacheService
	cacheTTL  time.Duration
	location  *time.Location
	validator *validator.Validate
	logger    *zap.Logger
}

// NewHolidayService constructs HolidayService. A nil cache disables caching.
func NewHolidayService(repo holidayRepository, cache *CacheService, cacheTTL time.Duration, location *time.Location, validate *validator.Validate, logger *zap.Logger) *HolidayService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if location == nil {
		location = time.UTC
	}
	return &HolidayService{repo: repo, cache: cache, cacheTTL: cacheTTL, location: location, validator: validate, logger: logger}
}

// Location is the time zone dates are interpreted in.
func (s *HolidayService) Location() *time.Location {
	return s.location
}

// List returns the stored entries within a range.
func (s *HolidayService) List(ctx context.Context, r calendar.Range) ([]models.Holiday, error) {
	set, err := s.Registry(ctx, r)
	if err != nil {
		return nil, err
	}
	entries := make([]models.Holiday, 0, len(set))
	for _, entry := range set.Entries() {
		key := calendar.DateKey(entry.Date)
		if key >= r.StartKey() && key <= r.EndKey() {
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

// Registry returns the entries of every month the range touches. Months are cached independently.
func (s *HolidayService) Registry(ctx context.Context, r calendar.Range) (calendar.HolidaySet, error) {
	set := calendar.HolidaySet{}
	for _, month := range monthsOf(r) {
		entries, err := s.month(ctx, month)
		if err != nil {
			return nil, err
		}
		for _, entry := range entries {
			set[calendar.DateKey(entry.Date)] = entry
		}
	}
	return set, nil
}

func (s *HolidayService) month(ctx context.Context, first time.Time) ([]models.Holiday, error) {
	key := holidayCacheKey(first)
	var cached []models.Holiday
	if s.cache.Get(ctx, key, &cached) {
		return cached, nil
	}

	bounds := calendar.DateRange(calendar.ModeMonth, first, 0, 0)
	entries, err := s.repo.ListRange(ctx, bounds.Start, bounds.End)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load holidays")
	}
	if entries == nil {
		entries = []models.Holiday{}
	}
	s.cache.Set(ctx, key, entries, s.cacheTTL)
	return entries, nil
}

// Create registers a new entry. Only one entry may exist per date.
func (s *HolidayService) Create(ctx context.Context, req models.HolidayRequest) (*models.Holiday, error) {
	date, err := s.validate(&req)
	if err != nil {
		return nil, err
	}
	if err := s.ensureFreeDate(ctx, date, ""); err != nil {
		return nil, err
	}

	holiday := &models.Holiday{Date: date, Label: req.Label, Type: req.Type}
	if err := s.repo.Create(ctx, holiday); err != nil {
		return nil, appErrors.Store(err, "another calendar entry already uses this date", "failed to create holiday")
	}
	s.invalidate(ctx, date)
	s.logger.Info("holiday registered", zap.String("date", calendar.DateKey(date)), zap.String("type", string(holiday.Type)))
	return holiday, nil
}

// Update changes an entry, possibly moving it to another date.
func (s *HolidayService) Update(ctx context.Context, id string, req models.HolidayRequest) (*models.Holiday, error) {
	date, err := s.validate(&req)
	if err != nil {
		return nil, err
	}
	holiday, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.ensureFreeDate(ctx, date, id); err != nil {
		return nil, err
	}

	previous := holiday.Date
	holiday.Date = date
	holiday.Label = req.Label
	holiday.Type = req.Type
	if err := s.repo.Update(ctx, holiday); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NotFound("holiday")
		}
		return nil, appErrors.Store(err, "another calendar entry already uses this date", "failed to update holiday")
	}
	s.invalidate(ctx, previous, date)
	return holiday, nil
}

// Delete removes an entry.
func (s *HolidayService) Delete(ctx context.Context, id string) error {
	holiday, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.NotFound("holiday")
		}
		return appErrors.Internal(err, "failed to delete holiday")
	}
	s.invalidate(ctx, holiday.Date)
	return nil
}

// DayStatus describes how the calendar treats one date.
func (s *HolidayService) DayStatus(ctx context.Context, date time.Time) (*models.DayStatus, error) {
	r := calendar.DateRange(calendar.ModeDay, date, 0, 0)
	set, err := s.Registry(ctx, r)
	if err != nil {
		return nil, err
	}
	status := dayStatus(date, set)
	return &status, nil
}

// MonthCalendar lists every day of a month with its status and the number of school days.
func (s *HolidayService) MonthCalendar(ctx context.Context, year int, month time.Month) (*models.MonthCalendar, error) {
	if month < time.January || month > time.December {
		return nil, appErrors.Clone(appErrors.ErrValidation, "month must be between 1 and 12")
	}
	if year < 1900 || year > 9999 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "year is out of range")
	}
	r := calendar.DateRange(calendar.ModeMonth, time.Now().In(s.location), year, month)
	set, err := s.Registry(ctx, r)
	if err != nil {
		return nil, err
	}

	days := calendar.Days(r)
	out := &models.MonthCalendar{
		Year:       year,
		Month:      int(month),
		MonthName:  calendar.MonthName(month),
		SchoolDays: calendar.SchoolDays(r, set),
		Days:       make([]models.DayStatus, 0, len(days)),
	}
	for _, day := range days {
		out.Days = append(out.Days, dayStatus(day, set))
	}
	return out, nil
}

func dayStatus(date time.Time, set calendar.HolidaySet) models.DayStatus {
	status := models.DayStatus{
		Date:      calendar.DateKey(date),
		Label:     calendar.FormatIndonesian(date),
		Weekend:   calendar.IsWeekend(date),
		CanRecord: calendar.CanRecordAttendance(date, set),
	}
	if entry, ok := set.Lookup(status.Date); ok {
		entry := entry
		status.Holiday = &entry
	}
	if text, ok := calendar.HolidayStatusText(date, set); ok {
		status.Status = &text
	}
	return status
}

func (s *HolidayService) validate(req *models.HolidayRequest) (time.Time, error) {
	req.Label = strings.TrimSpace(req.Label)
	req.Type = models.HolidayType(strings.ToUpper(string(req.Type)))
	if err := s.validator.Struct(req); err != nil {
		return time.Time{}, appErrors.Validation(err, "invalid holiday payload")
	}
	date, err := calendar.ParseDate(req.Date, s.location)
	if err != nil {
		return time.Time{}, appErrors.Validation(err, "invalid holiday date")
	}
	return date, nil
}

func (s *HolidayService) ensureFreeDate(ctx context.Context, date time.Time, excludeID string) error {
	exists, err := s.repo.ExistsByDate(ctx, date, excludeID)
	if err != nil {
		return appErrors.Internal(err, "failed to check holiday date")
	}
	if exists {
		return appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("an entry already exists on %s", calendar.DateKey(date)))
	}
	return nil
}

func (s *HolidayService) load(ctx context.Context, id string) (*models.Holiday, error) {
	holiday, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NotFound("holiday")
		}
		return nil, appErrors.Internal(err, "failed to load holiday")
	}
	return holiday, nil
}

func (s *HolidayService) invalidate(ctx context.Context, dates ...time.Time) {
	keys := make([]string, 0, len(dates))
	for _, d := range dates {
		keys = append(keys, holidayCacheKey(d))
	}
	s.cache.Invalidate(ctx, keys...)
}

func holidayCacheKey(date time.Time) string {
	return fmt.Sprintf("holidays:%04d-%02d", date.Year(), int(date.Month()))
}

// monthsOf returns the first day of every month the range touches.
func monthsOf(r calendar.Range) []time.Time {
	first := time.Date(r.Start.Year(), r.Start.Month(), 1, 0, 0, 0, 0, r.Start.Location())
	last := time.Date(r.End.Year(), r.End.Month(), 1, 0, 0, 0, 0, r.Start.Location())
	var months []time.Time
	for m := first; !m.After(last); m = m.AddDate(0, 1, 0) {
		months = append(months, m)
	}
	return months
}
