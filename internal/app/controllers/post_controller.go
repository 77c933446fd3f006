package controllers

import (
	"github.com/gin-gonic/gin"
	"github.com/yigit/labsphere/internal/app/models"
	"github.com/yigit/labsphere/internal/app/models/dto"
	"github.com/yigit/labsphere/internal/app/services"
	"github.com/yigit/labsphere/internal/middleware"
	"github.com/yigit/labsphere/internal/pkg/helpers"
)

// PostController handles posts, likes and the feed
type PostController struct {
	contentService services.ContentService
	pageSize       int
}

// NewPostController creates a new PostController
func NewPostController(contentService services.ContentService, pageSize int) *PostController {
	return &PostController{contentService: contentService, pageSize: pageSize}
}

func postList(page *services.PostPage) dto.PostListResponse {
	return dto.PostListResponse{
		Posts:      dto.NewPostResponses(page.Posts),
		Pagination: helpers.NewPaginationInfo(page.Total, page.Page, page.Size),
	}
}

// CreatePost publishes a post as the caller or as one of their labs
// @Summary Create a post
// @Tags posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreatePostRequest true "Post"
// @Success 201 {object} dto.APIResponse{data=dto.PostResponse}
// @Failure 400 {object} dto.ErrorResponse "Validation failed"
// @Failure 403 {object} dto.ErrorResponse "Not a member of the lab or email not verified"
// @Failure 404 {object} dto.ErrorResponse "Lab not found"
// @Router /posts [post]
func (c *PostController) CreatePost(ctx *gin.Context) {
	userID, ok := requireUser(ctx)
	if !ok {
		return
	}

	var req dto.CreatePostRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	author := models.UserRef(userID)
	if req.AuthorType == string(models.RefKindLab) {
		author = models.LabRef(req.LabID)
	}

	post, err := c.contentService.CreatePost(ctx.Request.Context(), userID, author, req.Title, req.Content)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondCreated(ctx, dto.NewPostResponse(post), "Your post has been created!")
}

// ListPosts lists every post, newest first
// @Summary List posts
// @Tags posts
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param size query int false "Page size" default(10)
// @Success 200 {object} dto.APIResponse{data=dto.PostListResponse}
// @Router /posts [get]
func (c *PostController) ListPosts(ctx *gin.Context) {
	page, size := helpers.ParsePaginationParams(ctx, c.pageSize)

	result, err := c.contentService.ListPosts(ctx.Request.Context(), page, size)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, postList(result), "")
}

// GetPost returns a single post. liked reports whether an authenticated
// caller likes it.
// @Summary Get a post
// @Tags posts
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {object} dto.APIResponse{data=dto.PostDetailResponse}
// @Failure 404 {object} dto.ErrorResponse "Post not found"
// @Router /posts/{id} [get]
func (c *PostController) GetPost(ctx *gin.Context) {
	postID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	post, err := c.contentService.GetPost(ctx.Request.Context(), postID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	resp := dto.PostDetailResponse{PostResponse: dto.NewPostResponse(post)}
	if viewerID, ok := middleware.CurrentUserID(ctx); ok {
		if resp.Liked, err = c.contentService.HasLiked(ctx.Request.Context(), viewerID, postID); err != nil {
			middleware.HandleAPIError(ctx, err)
			return
		}
	}
	respondOK(ctx, resp, "")
}

// Like likes a post. Liking twice has no further effect.
// @Summary Like a post
// @Tags posts
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 200 {object} dto.APIResponse{data=dto.LikeResponse}
// @Failure 404 {object} dto.ErrorResponse "Post not found"
// @Router /posts/{id}/like [post]
func (c *PostController) Like(ctx *gin.Context) {
	c.toggleLike(ctx, true)
}

// Unlike removes the caller's like from a post
// @Summary Unlike a post
// @Tags posts
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 200 {object} dto.APIResponse{data=dto.LikeResponse}
// @Failure 404 {object} dto.ErrorResponse "Post not found"
// @Router /posts/{id}/like [delete]
func (c *PostController) Unlike(ctx *gin.Context) {
	c.toggleLike(ctx, false)
}

func (c *PostController) toggleLike(ctx *gin.Context, like bool) {
	userID, ok := requireUser(ctx)
	if !ok {
		return
	}
	postID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	var (
		res *services.LikeResult
		err error
	)
	if like {
		res, err = c.contentService.Like(ctx.Request.Context(), userID, postID)
	} else {
		res, err = c.contentService.Unlike(ctx.Request.Context(), userID, postID)
	}
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, dto.LikeResponse{PostID: res.PostID, Liked: res.Liked, LikeCount: res.LikeCount}, "")
}

// Feed returns posts from followed users and labs, newest first
// @Summary Get my feed
// @Tags feed
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number" default(1)
// @Param size query int false "Page size" default(10)
// @Success 200 {object} dto.APIResponse{data=dto.PostListResponse}
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Router /feed [get]
func (c *PostController) Feed(ctx *gin.Context) {
	userID, ok := requireUser(ctx)
	if !ok {
		return
	}
	page, size := helpers.ParsePaginationParams(ctx, c.pageSize)

	result, err := c.contentService.Feed(ctx.Request.Context(), userID, page, size)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, postList(result), "")
}
