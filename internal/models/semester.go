package models

import "time"

// SemesterConfig defines the date span of a semester for a class level.
// Overlapping or duplicate entries are accepted.
type SemesterConfig struct {
	ID         string    `db:"id" json:"id"`
	ClassLevel string    `db:"class_level" json:"class_level"`
	Semester   int       `db:"semester" json:"semester"`
	StartDate  time.Time `db:"start_date" json:"start_date"`
	EndDate    time.Time `db:"end_date" json:"end_date"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// SemesterConfigRequest is the create/update payload of a semester config.
type SemesterConfigRequest struct {
	ClassLevel string `json:"class_level" validate:"required"`
	Semester   int    `json:"semester" validate:"required,oneof=1 2"`
	StartDate  string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate    string `json:"end_date" validate:"required,datetime=2006-01-02"`
}
