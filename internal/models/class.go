package models

import "time"

// Class represents a school class.
type Class struct {
	ID              string    `db:"id" json:"id"`
	Name            string    `db:"name" json:"name"`
	Level           string    `db:"level" json:"level"`
	HomeroomTeacher *string   `db:"homeroom_teacher" json:"homeroom_teacher,omitempty"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// ClassDetail extends Class with aggregate counts.
type ClassDetail struct {
	Class
	StudentCount int `db:"student_count" json:"student_count"`
}

// ClassFilter defines filter criteria for listing classes.
type ClassFilter struct {
	Level     string
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// ClassRequest is the create/update payload of a class.
type ClassRequest struct {
	Name            string  `json:"name" validate:"required"`
	Level           string  `json:"level" validate:"required"`
	HomeroomTeacher *string `json:"homeroom_teacher"`
}
