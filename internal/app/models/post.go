package models

import "time"

// Post is authored either by a user or by a lab
type Post struct {
	ID        int64     `json:"id" db:"id" example:"10"`
	Title     string    `json:"title" db:"title"`
	Content   string    `json:"content" db:"content"`
	Author    Ref       `json:"author"`
	LikeCount int64     `json:"likeCount" db:"like_count"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// Like marks that a user liked a post. A user likes a post at most once.
type Like struct {
	PostID    int64     `json:"postId" db:"post_id"`
	UserID    int64     `json:"userId" db:"user_id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}
