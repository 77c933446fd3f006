package dto

import (
	"time"

	"github.com/yigit/labsphere/internal/app/models"
)

// FollowResponse reports the follow state after a follow or unfollow
type FollowResponse struct {
	Followee  models.Ref `json:"followee"`
	Following bool       `json:"following"`
}

// SupervisionRequest asks a professor, by email, to supervise the caller
type SupervisionRequest struct {
	ProfEmail string `json:"profEmail" binding:"required,email" example:"turing@uni.edu"`
}

// SupervisionResponse reports whether a pending approval was created.
// Warning is set when the request was skipped as redundant.
type SupervisionResponse struct {
	Created bool   `json:"created"`
	Warning string `json:"warning,omitempty" example:"You already requested approval from this professor"`
}

// PendingApprovalResponse is one request in a professor's queue
type PendingApprovalResponse struct {
	Student     UserResponse `json:"student"`
	RequestedAt time.Time    `json:"requestedAt"`
}

// NewPendingApprovalResponses maps pending approvals, never returning nil
func NewPendingApprovalResponses(approvals []*models.PendingApproval) []PendingApprovalResponse {
	out := make([]PendingApprovalResponse, 0, len(approvals))
	for _, a := range approvals {
		resp := PendingApprovalResponse{RequestedAt: a.CreatedAt}
		if a.Student != nil {
			resp.Student = NewUserResponse(a.Student)
		} else {
			resp.Student = UserResponse{ID: a.StudentID}
		}
		out = append(out, resp)
	}
	return out
}

// ApprovalsResponse is the professor's approvals page
type ApprovalsResponse struct {
	Pending  []PendingApprovalResponse `json:"pending"`
	Students []UserResponse            `json:"students"`
}

// TrendingUserResponse is a user ranked by follower count
type TrendingUserResponse struct {
	User      UserResponse `json:"user"`
	Followers int64        `json:"followers" example:"12"`
}

// TrendingResponse lists the most liked posts and most followed users
type TrendingResponse struct {
	Posts []PostResponse         `json:"posts"`
	Users []TrendingUserResponse `json:"users"`
}

// SearchQuery is bound from the query string of GET /search
type SearchQuery struct {
	Kind  string `form:"kind" binding:"required,oneof=student professor lab interest" example:"student"`
	Query string `form:"q" binding:"required,max=100" example:"ada"`
}

// SearchResponse holds users for person and interest searches, labs for lab searches
type SearchResponse struct {
	Kind  string         `json:"kind"`
	Query string         `json:"query"`
	Users []UserResponse `json:"users,omitempty"`
	Labs  []LabResponse  `json:"labs,omitempty"`
}
