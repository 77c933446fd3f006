package models

import "time"

// DefaultLabImage is stored for labs created without an image
const DefaultLabImage = "default_lab.jpg"

// Lab is a research group users can join and follow
type Lab struct {
	ID          int64     `json:"id" db:"id" example:"1"`
	Name        string    `json:"name" db:"name" example:"Vision Lab"`
	Description string    `json:"description" db:"description"`
	Image       string    `json:"image" db:"image" example:"default_lab.jpg"`
	CreatedBy   int64     `json:"createdBy" db:"created_by"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
}

// LabMember links a user to a lab
type LabMember struct {
	LabID    int64     `json:"labId" db:"lab_id"`
	UserID   int64     `json:"userId" db:"user_id"`
	JoinedAt time.Time `json:"joinedAt" db:"joined_at"`
}
