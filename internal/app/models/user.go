package models

import (
	"time"
)

// DefaultProfilePic is stored for users who never set a picture
const DefaultProfilePic = "default.jpg"

// User defines the user model based on the 'users' table
type User struct {
	ID            int64      `json:"id" db:"id" example:"1"`
	Name          string     `json:"name" db:"name" example:"Ada Lovelace"`
	Username      string     `json:"username" db:"username" example:"ada"`
	Email         string     `json:"email" db:"email" example:"ada@uni.edu"`
	Password      string     `json:"-" db:"password"`
	ProfilePic    string     `json:"profilePic" db:"profile_pic" example:"default.jpg"`
	AboutMe       string     `json:"aboutMe" db:"about_me"`
	UserType      UserType   `json:"userType" db:"user_type" example:"student"`
	ProfID        *int64     `json:"profId,omitempty" db:"prof_id"` // supervising professor, students only
	EmailVerified bool       `json:"emailVerified" db:"email_verified"`
	CreatedAt     time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time  `json:"updatedAt" db:"updated_at"`
	LastLoginAt   *time.Time `json:"lastLoginAt,omitempty" db:"last_login_at"`
}

// IsProfessor reports whether the user may supervise students
func (u *User) IsProfessor() bool {
	return u.UserType == UserTypeProfessor
}

// IsSupervisedBy reports whether profID is the user's accepted supervisor
func (u *User) IsSupervisedBy(profID int64) bool {
	return u.ProfID != nil && *u.ProfID == profID
}

// RefreshToken is a persisted, revocable refresh token
type RefreshToken struct {
	ID         int64     `db:"id"`
	Token      string    `db:"token"`
	UserID     int64     `db:"user_id"`
	ExpiryDate time.Time `db:"expiry_date"`
	IsRevoked  bool      `db:"is_revoked"`
	CreatedAt  time.Time `db:"created_at"`
}

// Expired reports whether the token is past its expiry at now
func (t *RefreshToken) Expired(now time.Time) bool {
	return now.After(t.ExpiryDate)
}
