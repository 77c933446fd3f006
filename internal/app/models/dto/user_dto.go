package dto

import (
	"time"

	"github.com/yigit/labsphere/internal/app/models"
)

// UserResponse is the public summary of a user
type UserResponse struct {
	ID         int64  `json:"id" example:"1"`
	Name       string `json:"name" example:"Ada Lovelace"`
	Username   string `json:"username" example:"ada"`
	ProfilePic string `json:"profilePic" example:"default.jpg"`
	AboutMe    string `json:"aboutMe,omitempty"`
	UserType   string `json:"userType" example:"student"`
}

// NewUserResponse maps a user to its public summary
func NewUserResponse(u *models.User) UserResponse {
	return UserResponse{
		ID:         u.ID,
		Name:       u.Name,
		Username:   u.Username,
		ProfilePic: u.ProfilePic,
		AboutMe:    u.AboutMe,
		UserType:   string(u.UserType),
	}
}

// NewUserResponses maps a slice of users, never returning nil
func NewUserResponses(users []*models.User) []UserResponse {
	out := make([]UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, NewUserResponse(u))
	}
	return out
}

// AccountResponse is what the owner of an account sees
type AccountResponse struct {
	UserResponse
	Email         string             `json:"email" example:"ada@uni.edu"`
	EmailVerified bool               `json:"emailVerified"`
	ProfID        *int64             `json:"profId,omitempty"`
	Interests     []InterestResponse `json:"interests"`
	Labs          []LabResponse      `json:"labs,omitempty"`
	CreatedAt     time.Time          `json:"createdAt"`
}

// NewAccountResponse maps a user and its interests to the owner's view
func NewAccountResponse(u *models.User, interests []*models.Interest) *AccountResponse {
	return &AccountResponse{
		UserResponse:  NewUserResponse(u),
		Email:         u.Email,
		EmailVerified: u.EmailVerified,
		ProfID:        u.ProfID,
		Interests:     NewInterestResponses(interests),
		CreatedAt:     u.CreatedAt,
	}
}

// UpdateAccountRequest is the account form. Password and ProfEmail are optional.
type UpdateAccountRequest struct {
	Name       string `json:"name" binding:"required,notblank,max=100"`
	Username   string `json:"username" binding:"required,min=2,max=20,username"`
	Email      string `json:"email" binding:"required,email"`
	AboutMe    string `json:"aboutMe" binding:"max=1000"`
	ProfilePic string `json:"profilePic" binding:"max=255"`
	Password   string `json:"password" binding:"omitempty,min=8"`
	ProfEmail  string `json:"profEmail" binding:"omitempty,email"`
}

// UpdateAccountResponse returns the saved account and, when a supervision
// request was part of the update, its outcome.
type UpdateAccountResponse struct {
	Account     *AccountResponse     `json:"account"`
	Supervision *SupervisionResponse `json:"supervision,omitempty"`
}

// InterestResponse is one vocabulary entry
type InterestResponse struct {
	ID   int64  `json:"id" example:"3"`
	Name string `json:"name" example:"Robotics"`
}

// NewInterestResponses maps interests, never returning nil
func NewInterestResponses(interests []*models.Interest) []InterestResponse {
	out := make([]InterestResponse, 0, len(interests))
	for _, i := range interests {
		out = append(out, InterestResponse{ID: i.ID, Name: i.Name})
	}
	return out
}

// SetInterestsRequest replaces a user's interests
type SetInterestsRequest struct {
	InterestIDs []int64 `json:"interestIds" binding:"dive,min=1"`
}

// ProfileResponse is the public profile page of a user
type ProfileResponse struct {
	User           UserResponse       `json:"user"`
	Followers      []UserResponse     `json:"followers"`
	FollowingUsers []UserResponse     `json:"followingUsers"`
	FollowingLabs  []LabResponse      `json:"followingLabs"`
	IsFollowing    bool               `json:"isFollowing"`
	Interests      []InterestResponse `json:"interests"`
	Posts          []PostResponse     `json:"posts"`
}
