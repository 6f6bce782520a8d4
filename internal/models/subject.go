package models

import "time"

// Subject represents a subject taught in a class.
type Subject struct {
	ID          string    `db:"id" json:"id"`
	ClassID     string    `db:"class_id" json:"class_id"`
	Name        string    `db:"name" json:"name"`
	TeacherName *string   `db:"teacher_name" json:"teacher_name,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// SubjectRequest is the create/update payload of a subject.
type SubjectRequest struct {
	ClassID     string  `json:"class_id" validate:"required"`
	Name        string  `json:"name" validate:"required"`
	TeacherName *string `json:"teacher_name"`
}
