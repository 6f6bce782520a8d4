package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// LoginRequest holds credentials for authenticating a user.
type LoginRequest struct {
	Username  string `json:"username" validate:"required"`
	Password  string `json:"password" validate:"required"`
	IP        string `json:"-"`
	UserAgent string `json:"-"`
}

// LoginResponse returns the issued tokens and the session profile.
type LoginResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresIn    int64     `json:"expires_in"`
	User         Session   `json:"user"`
	IssuedAt     time.Time `json:"issued_at"`
}

// RefreshTokenRequest exchanges a refresh token for a new access token.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
	IP           string `json:"-"`
	UserAgent    string `json:"-"`
}

// RefreshTokenResponse returns the refreshed tokens.
type RefreshTokenResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresIn    int64     `json:"expires_in"`
	IssuedAt     time.Time `json:"issued_at"`
}

// ChangePasswordRequest payload for updating password.
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=6"`
}

// RegisterOfficerRequest is the self-registration payload of a class officer.
// Accounts created this way wait for admin approval.
type RegisterOfficerRequest struct {
	Username string   `json:"username" validate:"required,min=3,max=64"`
	Password string   `json:"password" validate:"required,min=6"`
	FullName string   `json:"full_name" validate:"required"`
	Role     UserRole `json:"role" validate:"required,officer_role"`
	ClassID  string   `json:"class_id" validate:"required"`
}

// Session is the explicit, per-request view of the authenticated user.
type Session struct {
	UserID    string   `json:"id"`
	Username  string   `json:"username"`
	FullName  string   `json:"full_name"`
	Role      UserRole `json:"role"`
	ClassID   string   `json:"class_id,omitempty"`
	StudentID string   `json:"student_id,omitempty"`
}

// IsAdmin reports whether the session belongs to an administrator.
func (s Session) IsAdmin() bool { return s.Role == RoleAdmin }

// CanManageClass reports whether the session may manage data of the given class.
func (s Session) CanManageClass(classID string) bool {
	if s.IsAdmin() {
		return true
	}
	return s.Role.IsOfficer() && s.ClassID != "" && s.ClassID == classID
}

// SessionFromUser builds the session profile of a stored user.
func SessionFromUser(u *User) Session {
	session := Session{
		UserID:   u.ID,
		Username: u.Username,
		FullName: u.FullName,
		Role:     u.Role,
	}
	if u.ClassID != nil {
		session.ClassID = *u.ClassID
	}
	if u.StudentID != nil {
		session.StudentID = *u.StudentID
	}
	return session
}

// JWTClaims represents the JWT payload for access tokens.
type JWTClaims struct {
	UserID    string   `json:"user_id"`
	Username  string   `json:"username"`
	FullName  string   `json:"full_name"`
	Role      UserRole `json:"role"`
	ClassID   string   `json:"class_id,omitempty"`
	StudentID string   `json:"student_id,omitempty"`
	jwt.RegisteredClaims
}

// Session converts the token claims into the request session.
func (c *JWTClaims) Session() Session {
	return Session{
		UserID:    c.UserID,
		Username:  c.Username,
		FullName:  c.FullName,
		Role:      c.Role,
		ClassID:   c.ClassID,
		StudentID: c.StudentID,
	}
}
