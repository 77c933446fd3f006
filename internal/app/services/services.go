package services

import (
	"github.com/yigit/labsphere/internal/app/models"
)

// PostNotifier is told about every newly created post together with the
// ids of the users following its author.
type PostNotifier interface {
	PostPublished(recipientIDs []int64, post *models.Post)
}

type noopNotifier struct{}

func (noopNotifier) PostPublished([]int64, *models.Post) {}

// PostPage is one page of posts plus the total number of matching posts
type PostPage struct {
	Posts []*models.Post
	Total int64
	Page  int
	Size  int
}

func emptyPostPage(page, size int) *PostPage {
	return &PostPage{Posts: []*models.Post{}, Page: page, Size: size}
}
