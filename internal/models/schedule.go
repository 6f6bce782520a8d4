package models

import "time"

// Schedule represents a weekly lesson slot of a class.
type Schedule struct {
	ID        string    `db:"id" json:"id"`
	ClassID   string    `db:"class_id" json:"class_id"`
	SubjectID string    `db:"subject_id" json:"subject_id"`
	DayOfWeek int       `db:"day_of_week" json:"day_of_week"`
	StartTime string    `db:"start_time" json:"start_time"`
	EndTime   string    `db:"end_time" json:"end_time"`
	Room      *string   `db:"room" json:"room,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// ScheduleDetail enriches a schedule with the subject name and the periods it covers.
type ScheduleDetail struct {
	Schedule
	SubjectName string `db:"subject_name" json:"subject_name"`
	Periods     []int  `db:"-" json:"periods"`
}

// ScheduleRequest is the create/update payload of a schedule. Day of week follows ISO numbering (1 = Monday).
type ScheduleRequest struct {
	ClassID   string  `json:"class_id" validate:"required"`
	SubjectID string  `json:"subject_id" validate:"required"`
	DayOfWeek int     `json:"day_of_week" validate:"required,min=1,max=6"`
	StartTime string  `json:"start_time" validate:"required,clock"`
	EndTime   string  `json:"end_time" validate:"required,clock"`
	Room      *string `json:"room"`
}
