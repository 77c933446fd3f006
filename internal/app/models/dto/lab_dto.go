package dto

import (
	"time"

	"github.com/yigit/labsphere/internal/app/models"
)

// CreateLabRequest is the lab creation form
type CreateLabRequest struct {
	Name        string `json:"name" binding:"required,min=2,max=30" example:"Vision Lab"`
	Description string `json:"description" binding:"max=1000"`
	Image       string `json:"image" binding:"max=255"`
}

// LabResponse is the summary of a lab
type LabResponse struct {
	ID          int64     `json:"id" example:"1"`
	Name        string    `json:"name" example:"Vision Lab"`
	Description string    `json:"description"`
	Image       string    `json:"image" example:"default_lab.jpg"`
	CreatedBy   int64     `json:"createdBy"`
	CreatedAt   time.Time `json:"createdAt"`
}

// NewLabResponse maps a lab
func NewLabResponse(l *models.Lab) LabResponse {
	return LabResponse{
		ID:          l.ID,
		Name:        l.Name,
		Description: l.Description,
		Image:       l.Image,
		CreatedBy:   l.CreatedBy,
		CreatedAt:   l.CreatedAt,
	}
}

// NewLabResponses maps labs, never returning nil
func NewLabResponses(labs []*models.Lab) []LabResponse {
	out := make([]LabResponse, 0, len(labs))
	for _, l := range labs {
		out = append(out, NewLabResponse(l))
	}
	return out
}

// LabListResponse is one page of labs
type LabListResponse struct {
	Labs       []LabResponse  `json:"labs"`
	Pagination PaginationInfo `json:"pagination"`
}

// LabDetailResponse is the lab page
type LabDetailResponse struct {
	Lab           LabResponse    `json:"lab"`
	Members       []UserResponse `json:"members"`
	MemberCount   int64          `json:"memberCount"`
	FollowerCount int64          `json:"followerCount"`
	IsMember      bool           `json:"isMember"`
	IsFollowing   bool           `json:"isFollowing"`
	Posts         []PostResponse `json:"posts"`
}
