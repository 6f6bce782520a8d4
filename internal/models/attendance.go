package models

import "time"

// AttendanceStatus represents the status for attendance records.
type AttendanceStatus string

const (
	AttendanceStatusPresent AttendanceStatus = "H"
	AttendanceStatusSick    AttendanceStatus = "S"
	AttendanceStatusExcused AttendanceStatus = "I"
	AttendanceStatusAbsent  AttendanceStatus = "A"
)

// AttendanceStatuses lists the statuses in display order.
var AttendanceStatuses = []AttendanceStatus{
	AttendanceStatusPresent,
	AttendanceStatusSick,
	AttendanceStatusExcused,
	AttendanceStatusAbsent,
}

// Valid returns true when the status is a supported value.
func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendanceStatusPresent, AttendanceStatusSick, AttendanceStatusExcused, AttendanceStatusAbsent:
		return true
	default:
		return false
	}
}

// IsLeave reports whether a student may request the status themselves.
func (s AttendanceStatus) IsLeave() bool {
	return s == AttendanceStatusSick || s == AttendanceStatusExcused
}

// AttendanceRecord is the single daily attendance row of a student.
type AttendanceRecord struct {
	ID        string           `db:"id" json:"id"`
	StudentID string           `db:"student_id" json:"student_id"`
	ClassID   string           `db:"class_id" json:"class_id"`
	Date      time.Time        `db:"date" json:"date"`
	Status    AttendanceStatus `db:"status" json:"status"`
	Note      *string          `db:"note" json:"note,omitempty"`
	ProofPath *string          `db:"proof_path" json:"proof_path,omitempty"`
	Approved  bool             `db:"approved" json:"approved"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt time.Time        `db:"updated_at" json:"updated_at"`
}

// AttendanceRecordDetail extends a record with student metadata and covered periods.
type AttendanceRecordDetail struct {
	AttendanceRecord
	StudentName string `db:"student_name" json:"student_name"`
	NomorAbsen  int    `db:"nomor_absen" json:"nomor_absen"`
	Periods     []int  `db:"-" json:"periods,omitempty"`
	ProofURL    string `db:"-" json:"proof_url,omitempty"`
}

// AttendancePeriod records one class period covered by a partial-day leave.
type AttendancePeriod struct {
	ID           string `db:"id" json:"id"`
	AttendanceID string `db:"attendance_id" json:"attendance_id"`
	Period       int    `db:"period" json:"period"`
}

// AttendanceFilter scopes listing queries.
type AttendanceFilter struct {
	ClassID   string
	StudentID string
	DateFrom  time.Time
	DateTo    time.Time
	Status    *AttendanceStatus
	Approved  *bool
}

// MarkAllPresentRequest marks every student of a class present on a date.
type MarkAllPresentRequest struct {
	ClassID string `json:"class_id" validate:"required"`
	Date    string `json:"date" validate:"required,datetime=2006-01-02"`
}

// SetAttendanceRequest is a manual officer edit of one record.
type SetAttendanceRequest struct {
	StudentID string           `json:"student_id" validate:"required"`
	Date      string           `json:"date" validate:"required,datetime=2006-01-02"`
	Status    AttendanceStatus `json:"status" validate:"required,attendance_status"`
	Note      *string          `json:"note" validate:"omitempty,max=255"`
}

// LeaveRequest is a student's self-service sick/excused request. Proof arrives as a multipart file.
type LeaveRequest struct {
	Date      string           `form:"date" json:"date" validate:"required,datetime=2006-01-02"`
	Status    AttendanceStatus `form:"status" json:"status" validate:"required,leave_status"`
	Note      *string          `form:"note" json:"note" validate:"omitempty,max=255"`
	StartTime string           `form:"start_time" json:"start_time" validate:"required_with=EndTime,omitempty,clock"`
	EndTime   string           `form:"end_time" json:"end_time" validate:"required_with=StartTime,omitempty,clock"`
}

// PartialLeaveRequest excuses a student for periods N through M of a day.
type PartialLeaveRequest struct {
	StudentID string `json:"student_id" validate:"required"`
	Date      string `json:"date" validate:"required,datetime=2006-01-02"`
	From      int    `json:"from_period"`
	To        int    `json:"to_period"`
}

// UploadedFile carries proof content from the transport layer to the service.
type UploadedFile struct {
	Filename    string
	ContentType string
	Size        int64
	Content     []byte
}

// AttendanceSummary counts records per status.
type AttendanceSummary struct {
	Present int `json:"present"`
	Sick    int `json:"sick"`
	Excused int `json:"excused"`
	Absent  int `json:"absent"`
	Total   int `json:"total"`
}

// Add increments the counter of the given status.
func (s *AttendanceSummary) Add(status AttendanceStatus) {
	switch status {
	case AttendanceStatusPresent:
		s.Present++
	case AttendanceStatusSick:
		s.Sick++
	case AttendanceStatusExcused:
		s.Excused++
	case AttendanceStatusAbsent:
		s.Absent++
	default:
		return
	}
	s.Total++
}

// DailySummary summarises a class on one date.
type DailySummary struct {
	Date          string            `json:"date"`
	Label         string            `json:"label"`
	CanRecord     bool              `json:"can_record"`
	HolidayStatus *string           `json:"holiday_status,omitempty"`
	Students      int               `json:"students"`
	Unrecorded    int               `json:"unrecorded"`
	Summary       AttendanceSummary `json:"summary"`
}

// AttendanceGrid is the student-by-day matrix of a class over a range.
type AttendanceGrid struct {
	ClassID string              `json:"class_id"`
	Start   string              `json:"start"`
	End     string              `json:"end"`
	Days    []GridDay           `json:"days"`
	Rows    []AttendanceGridRow `json:"rows"`
}

// GridDay describes one column of the grid.
type GridDay struct {
	Date      string  `json:"date"`
	CanRecord bool    `json:"can_record"`
	Holiday   *string `json:"holiday,omitempty"`
}

// AttendanceGridRow is one student's line in the grid, keyed by ISO date.
type AttendanceGridRow struct {
	StudentID  string                      `json:"student_id"`
	NomorAbsen int                         `json:"nomor_absen"`
	FullName   string                      `json:"full_name"`
	Statuses   map[string]AttendanceStatus `json:"statuses"`
	Summary    AttendanceSummary           `json:"summary"`
}
