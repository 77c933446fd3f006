package dto

import (
	"time"

	"github.com/yigit/labsphere/internal/app/models"
)

// CreatePostRequest is the new-post form. Without AuthorType the post is
// published as the caller; with "lab" it is published as LabID.
type CreatePostRequest struct {
	Title      string `json:"title" binding:"required,notblank,max=100" example:"New preprint"`
	Content    string `json:"content" binding:"required,notblank" example:"Our paper on ..."`
	AuthorType string `json:"authorType" binding:"omitempty,oneof=user lab" example:"lab"`
	LabID      int64  `json:"labId" binding:"required_if=AuthorType lab" example:"2"`
}

// PostResponse is a post as returned by the API
type PostResponse struct {
	ID        int64      `json:"id" example:"10"`
	Title     string     `json:"title"`
	Content   string     `json:"content"`
	Author    models.Ref `json:"author"`
	LikeCount int64      `json:"likeCount" example:"3"`
	CreatedAt time.Time  `json:"createdAt"`
}

// NewPostResponse maps a post
func NewPostResponse(p *models.Post) PostResponse {
	return PostResponse{
		ID:        p.ID,
		Title:     p.Title,
		Content:   p.Content,
		Author:    p.Author,
		LikeCount: p.LikeCount,
		CreatedAt: p.CreatedAt,
	}
}

// NewPostResponses maps posts, never returning nil
func NewPostResponses(posts []*models.Post) []PostResponse {
	out := make([]PostResponse, 0, len(posts))
	for _, p := range posts {
		out = append(out, NewPostResponse(p))
	}
	return out
}

// PostDetailResponse is a single post. Liked is only meaningful for an
// authenticated caller.
type PostDetailResponse struct {
	PostResponse
	Liked bool `json:"liked"`
}

// PostListResponse is one page of posts
type PostListResponse struct {
	Posts      []PostResponse `json:"posts"`
	Pagination PaginationInfo `json:"pagination"`
}

// LikeResponse reports the state of a post after a like or unlike
type LikeResponse struct {
	PostID    int64 `json:"postId" example:"10"`
	Liked     bool  `json:"liked" example:"true"`
	LikeCount int64 `json:"likeCount" example:"4"`
}
