package models

import "time"

// Student represents a learner registered in a class.
type Student struct {
	ID         string    `db:"id" json:"id"`
	ClassID    string    `db:"class_id" json:"class_id"`
	NomorAbsen int       `db:"nomor_absen" json:"nomor_absen"`
	NIS        string    `db:"nis" json:"nis"`
	FullName   string    `db:"full_name" json:"full_name"`
	Gender     string    `db:"gender" json:"gender"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// StudentFilter encapsulates allowed search parameters for listing students.
type StudentFilter struct {
	Search    string
	ClassID   string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// StudentRequest is the create/update payload of a student.
type StudentRequest struct {
	ClassID    string `json:"class_id" validate:"required"`
	NomorAbsen int    `json:"nomor_absen" validate:"required,min=1"`
	NIS        string `json:"nis" validate:"required,max=32"`
	FullName   string `json:"full_name" validate:"required"`
	Gender     string `json:"gender" validate:"omitempty,oneof=L P"`
}
