package models

import "time"

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleAdmin      UserRole = "ADMIN"
	RoleKetua      UserRole = "KETUA"
	RoleSekretaris UserRole = "SEKRETARIS"
	RoleBendahara  UserRole = "BENDAHARA"
	RoleWaliKelas  UserRole = "WALI_KELAS"
	RoleStudent    UserRole = "STUDENT"
)

// OfficerRoles lists the class officer (pengurus) roles.
var OfficerRoles = []UserRole{RoleKetua, RoleSekretaris, RoleBendahara, RoleWaliKelas}

// IsOfficer reports whether the role is one of the class officer roles.
func (r UserRole) IsOfficer() bool {
	for _, role := range OfficerRoles {
		if r == role {
			return true
		}
	}
	return false
}

// Valid reports whether the role is known.
func (r UserRole) Valid() bool {
	return r == RoleAdmin || r == RoleStudent || r.IsOfficer()
}

// User represents an application user stored in the users table.
type User struct {
	ID           string     `db:"id" json:"id"`
	Username     string     `db:"username" json:"username"`
	PasswordHash string     `db:"password_hash" json:"-"`
	FullName     string     `db:"full_name" json:"full_name"`
	Role         UserRole   `db:"role" json:"role"`
	ClassID      *string    `db:"class_id" json:"class_id,omitempty"`
	StudentID    *string    `db:"student_id" json:"student_id,omitempty"`
	Approved     bool       `db:"approved" json:"approved"`
	Active       bool       `db:"active" json:"active"`
	LastLogin    *time.Time `db:"last_login" json:"last_login,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// UserFilter captures filtering criteria for listing users.
type UserFilter struct {
	Role      *UserRole
	ClassID   string
	Approved  *bool
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
