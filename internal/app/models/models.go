package models

import (
	"fmt"
	"time"
)

// UserType distinguishes the two kinds of accounts
type UserType string

const (
	UserTypeStudent   UserType = "student"
	UserTypeProfessor UserType = "professor"
)

// Valid reports whether t is a known user type
func (t UserType) Valid() bool {
	return t == UserTypeStudent || t == UserTypeProfessor
}

// RefKind tells which table a Ref points into
type RefKind string

const (
	RefKindUser RefKind = "user"
	RefKindLab  RefKind = "lab"
)

// ParseRefKind converts the path/query form of a kind into a RefKind
func ParseRefKind(s string) (RefKind, error) {
	switch RefKind(s) {
	case RefKindUser, RefKindLab:
		return RefKind(s), nil
	default:
		return "", fmt.Errorf("unknown reference kind %q", s)
	}
}

// Ref identifies either a user or a lab. Post authors and subscription
// followees are both Refs.
type Ref struct {
	Kind RefKind `json:"type" example:"user"`
	ID   int64   `json:"id" example:"1"`
}

// UserRef builds a reference to a user
func UserRef(id int64) Ref {
	return Ref{Kind: RefKindUser, ID: id}
}

// LabRef builds a reference to a lab
func LabRef(id int64) Ref {
	return Ref{Kind: RefKindLab, ID: id}
}

func (r Ref) IsUser() bool { return r.Kind == RefKindUser }
func (r Ref) IsLab() bool  { return r.Kind == RefKindLab }

func (r Ref) String() string {
	return fmt.Sprintf("%s:%d", r.Kind, r.ID)
}

// Interest is an entry in the controlled topic vocabulary
type Interest struct {
	ID   int64  `json:"id" db:"id" example:"3"`
	Name string `json:"name" db:"name" example:"Machine Learning"`
}

// Subscription is a follow edge from a user to a user or lab
type Subscription struct {
	FollowerID int64     `json:"followerId" db:"follower_id"`
	Followee   Ref       `json:"followee"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
}

// PendingApproval is a supervision request awaiting the professor's decision
type PendingApproval struct {
	ProfID    int64     `json:"profId" db:"prof_id"`
	StudentID int64     `json:"studentId" db:"student_id"`
	Relation  bool      `json:"relation" db:"relation"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	Student   *User     `json:"student,omitempty"`
}

// UserFollowers pairs a user with the number of users following them
type UserFollowers struct {
	User      *User `json:"user"`
	Followers int64 `json:"followers"`
}
