package service

import (
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/lapanclass-api/internal/calendar"
	"github.com/noah-isme/lapanclass-api/internal/models"
)

// NewValidator returns a validator with the domain tags registered. Services share one instance.
func NewValidator() *validator.Validate {
	v := validator.New()
	RegisterValidations(v)
	return v
}

// RegisterValidations installs the domain tags on an existing validator.
func RegisterValidations(v *validator.Validate) {
	v.RegisterValidation("attendance_status", func(fl validator.FieldLevel) bool { //nolint:errcheck
		return models.AttendanceStatus(strings.ToUpper(fl.Field().String())).Valid()
	})
	v.RegisterValidation("leave_status", func(fl validator.FieldLevel) bool { //nolint:errcheck
		return models.AttendanceStatus(strings.ToUpper(fl.Field().String())).IsLeave()
	})
	v.RegisterValidation("clock", func(fl validator.FieldLevel) bool { //nolint:errcheck
		_, err := calendar.ParseClock(fl.Field().String())
		return err == nil
	})
	v.RegisterValidation("holiday_type", func(fl validator.FieldLevel) bool { //nolint:errcheck
		return models.HolidayType(strings.ToUpper(fl.Field().String())).Valid()
	})
	v.RegisterValidation("cash_type", func(fl validator.FieldLevel) bool { //nolint:errcheck
		t := models.CashType(strings.ToUpper(fl.Field().String()))
		return t == models.CashTypeIn || t == models.CashTypeOut
	})
	v.RegisterValidation("officer_role", func(fl validator.FieldLevel) bool { //nolint:errcheck
		return models.UserRole(strings.ToUpper(fl.Field().String())).IsOfficer()
	})
}
