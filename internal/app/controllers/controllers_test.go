package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/labsphere/internal/app/models"
	"github.com/yigit/labsphere/internal/app/models/dto"
	"github.com/yigit/labsphere/internal/app/services"
	"github.com/yigit/labsphere/internal/middleware"
	"github.com/yigit/labsphere/internal/pkg/apperrors"
	"github.com/yigit/labsphere/internal/pkg/validation"
)

func init() {
	gin.SetMode(gin.TestMode)
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = validation.RegisterCustomValidations(v)
	}
}

// testRouter authenticates requests carrying X-Test-User, standing in for JWTAuth
func testRouter() *gin.Engine {
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if raw := c.GetHeader("X-Test-User"); raw != "" {
			id, _ := strconv.ParseInt(raw, 10, 64)
			c.Set(middleware.ContextUserID, id)
		}
		c.Next()
	})
	return r
}

type envelope struct {
	Success bool             `json:"success"`
	Message string           `json:"message"`
	Data    json.RawMessage  `json:"data"`
	Error   *dto.ErrorDetail `json:"error"`
}

func do(t *testing.T, r *gin.Engine, method, path string, userID int64, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if userID != 0 {
		req.Header.Set("X-Test-User", strconv.FormatInt(userID, 10))
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

// stubContent overrides only the methods a test needs; the rest panic.
type stubContent struct {
	services.ContentService
	created  *models.Post
	author   models.Ref
	feedErr  error
	feedPage *services.PostPage
	search   *services.SearchResult
	liked    map[int64]bool
}

func (s *stubContent) CreatePost(_ context.Context, actorID int64, author models.Ref, title, content string) (*models.Post, error) {
	s.author = author
	s.created = &models.Post{ID: 1, Title: title, Content: content, Author: author, CreatedAt: time.Now()}
	return s.created, nil
}

func (s *stubContent) GetPost(_ context.Context, postID int64) (*models.Post, error) {
	if postID != 1 {
		return nil, apperrors.ErrPostNotFound
	}
	return &models.Post{ID: 1, Title: "t", Author: models.UserRef(1)}, nil
}

func (s *stubContent) HasLiked(_ context.Context, userID, postID int64) (bool, error) {
	return s.liked[userID], nil
}

func (s *stubContent) Like(_ context.Context, userID, postID int64) (*services.LikeResult, error) {
	if postID != 1 {
		return nil, apperrors.ErrPostNotFound
	}
	return &services.LikeResult{PostID: postID, Liked: true, LikeCount: 1}, nil
}

func (s *stubContent) Unlike(_ context.Context, userID, postID int64) (*services.LikeResult, error) {
	return &services.LikeResult{PostID: postID, Liked: false}, nil
}

func (s *stubContent) Feed(_ context.Context, userID int64, page, size int) (*services.PostPage, error) {
	if s.feedErr != nil {
		return nil, s.feedErr
	}
	s.feedPage.Page, s.feedPage.Size = page, size
	return s.feedPage, nil
}

func (s *stubContent) Search(_ context.Context, kind services.SearchKind, query string) (*services.SearchResult, error) {
	if _, err := services.ParseSearchKind(string(kind)); err != nil {
		return nil, err
	}
	s.search.Kind, s.search.Query = kind, query
	return s.search, nil
}

func TestPostController_CreatePost(t *testing.T) {
	content := &stubContent{}
	ctrl := NewPostController(content, 10)
	r := testRouter()
	r.POST("/posts", ctrl.CreatePost)

	t.Run("as user", func(t *testing.T) {
		w, env := do(t, r, http.MethodPost, "/posts", 7, dto.CreatePostRequest{Title: "Hello", Content: "World"})
		require.Equal(t, http.StatusCreated, w.Code)
		assert.True(t, env.Success)
		assert.Equal(t, models.UserRef(7), content.author)
	})

	t.Run("as lab", func(t *testing.T) {
		w, _ := do(t, r, http.MethodPost, "/posts", 7, dto.CreatePostRequest{Title: "Hello", Content: "World", AuthorType: "lab", LabID: 3})
		require.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, models.LabRef(3), content.author)
	})

	t.Run("blank title", func(t *testing.T) {
		w, env := do(t, r, http.MethodPost, "/posts", 7, dto.CreatePostRequest{Title: "   ", Content: "World"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		require.NotNil(t, env.Error)
		assert.Equal(t, dto.ErrorCodeValidationFailed, env.Error.Code)
	})

	t.Run("anonymous", func(t *testing.T) {
		w, _ := do(t, r, http.MethodPost, "/posts", 0, dto.CreatePostRequest{Title: "a", Content: "b"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestPostController_GetPostAndLike(t *testing.T) {
	ctrl := NewPostController(&stubContent{liked: map[int64]bool{2: true}}, 10)
	r := testRouter()
	r.GET("/posts/:id", ctrl.GetPost)
	r.POST("/posts/:id/like", ctrl.Like)
	r.DELETE("/posts/:id/like", ctrl.Unlike)

	w, env := do(t, r, http.MethodGet, "/posts/1", 0, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var detail dto.PostDetailResponse
	require.NoError(t, json.Unmarshal(env.Data, &detail))
	assert.Equal(t, int64(1), detail.ID)
	assert.False(t, detail.Liked)

	w, env = do(t, r, http.MethodGet, "/posts/1", 2, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(env.Data, &detail))
	assert.True(t, detail.Liked)

	w, env = do(t, r, http.MethodGet, "/posts/1", 3, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(env.Data, &detail))
	assert.False(t, detail.Liked)

	w, env = do(t, r, http.MethodGet, "/posts/9", 0, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, dto.ErrorCodeResourceNotFound, env.Error.Code)

	w, _ = do(t, r, http.MethodGet, "/posts/abc", 0, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env = do(t, r, http.MethodPost, "/posts/1/like", 2, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var like dto.LikeResponse
	require.NoError(t, json.Unmarshal(env.Data, &like))
	assert.True(t, like.Liked)
	assert.Equal(t, int64(1), like.LikeCount)

	w, _ = do(t, r, http.MethodPost, "/posts/5/like", 2, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, env = do(t, r, http.MethodDelete, "/posts/1/like", 2, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(env.Data, &like))
	assert.False(t, like.Liked)
}

func TestPostController_Feed(t *testing.T) {
	content := &stubContent{feedPage: &services.PostPage{
		Posts: []*models.Post{{ID: 2, Title: "p2"}, {ID: 1, Title: "p1"}},
		Total: 12,
	}}
	ctrl := NewPostController(content, 10)
	r := testRouter()
	r.GET("/feed", ctrl.Feed)

	w, env := do(t, r, http.MethodGet, "/feed?page=2&size=5", 4, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var list dto.PostListResponse
	require.NoError(t, json.Unmarshal(env.Data, &list))
	require.Len(t, list.Posts, 2)
	assert.Equal(t, int64(2), list.Posts[0].ID)
	assert.Equal(t, 2, list.Pagination.CurrentPage)
	assert.Equal(t, 5, list.Pagination.PageSize)
	assert.Equal(t, 3, list.Pagination.TotalPages)

	content.feedErr = errors.New("connection reset")
	w, env = do(t, r, http.MethodGet, "/feed", 4, nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, env.Error.Message, "connection reset")
}

type stubSocial struct {
	services.SocialService
	followed  []models.Ref
	followErr error
	resolved  services.SupervisionDecision
	request   *services.SupervisionResult
}

func (s *stubSocial) Follow(_ context.Context, followerID int64, followee models.Ref) error {
	if s.followErr != nil {
		return s.followErr
	}
	s.followed = append(s.followed, followee)
	return nil
}

func (s *stubSocial) Unfollow(_ context.Context, followerID int64, followee models.Ref) error {
	return apperrors.NewResourceNotFoundError("You are not following " + followee.String())
}

func (s *stubSocial) RequestSupervision(_ context.Context, studentID int64, profEmail string) (*services.SupervisionResult, error) {
	return s.request, nil
}

func (s *stubSocial) ResolveSupervision(_ context.Context, profID, studentID int64, decision services.SupervisionDecision) error {
	s.resolved = decision
	return nil
}

func (s *stubSocial) PendingApprovals(_ context.Context, profID int64) ([]*models.PendingApproval, error) {
	return []*models.PendingApproval{{ProfID: profID, StudentID: 5, Student: &models.User{ID: 5, Username: "stu"}}}, nil
}

func (s *stubSocial) Students(_ context.Context, profID int64) ([]*models.User, error) {
	return nil, nil
}

func TestSocialController_Follow(t *testing.T) {
	social := &stubSocial{}
	ctrl := NewSocialController(social)
	r := testRouter()
	r.POST("/follow/:type/:id", ctrl.Follow)
	r.DELETE("/follow/:type/:id", ctrl.Unfollow)

	w, env := do(t, r, http.MethodPost, "/follow/lab/3", 1, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp dto.FollowResponse
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	assert.Equal(t, models.LabRef(3), resp.Followee)
	assert.True(t, resp.Following)
	assert.Equal(t, []models.Ref{models.LabRef(3)}, social.followed)

	w, _ = do(t, r, http.MethodPost, "/follow/group/3", 1, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	social.followErr = apperrors.NewConflictError("You are already following this user")
	w, env = do(t, r, http.MethodPost, "/follow/user/2", 1, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "You are already following this user", env.Error.Message)

	w, _ = do(t, r, http.MethodDelete, "/follow/user/2", 1, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSocialController_Supervision(t *testing.T) {
	social := &stubSocial{request: &services.SupervisionResult{Warning: "You already requested approval from this professor"}}
	ctrl := NewSocialController(social)
	r := testRouter()
	r.POST("/supervision", ctrl.RequestSupervision)
	r.GET("/approvals", ctrl.ListApprovals)
	r.POST("/approvals/:studentId/:action", ctrl.ResolveApproval)

	w, env := do(t, r, http.MethodPost, "/supervision", 5, dto.SupervisionRequest{ProfEmail: "prof@uni.edu"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, social.request.Warning, env.Message)

	w, _ = do(t, r, http.MethodPost, "/supervision", 5, dto.SupervisionRequest{ProfEmail: "not-an-email"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env = do(t, r, http.MethodGet, "/approvals", 9, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var approvals dto.ApprovalsResponse
	require.NoError(t, json.Unmarshal(env.Data, &approvals))
	require.Len(t, approvals.Pending, 1)
	assert.Equal(t, "stu", approvals.Pending[0].Student.Username)
	assert.NotNil(t, approvals.Students)

	w, _ = do(t, r, http.MethodPost, "/approvals/5/accept", 9, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, services.DecisionAccept, social.resolved)

	w, _ = do(t, r, http.MethodPost, "/approvals/5/delete", 9, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, services.DecisionReject, social.resolved)

	w, _ = do(t, r, http.MethodPost, "/approvals/5/maybe", 9, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

type stubAccount struct {
	services.AccountService
	updateErr error
	update    services.AccountUpdate
}

func (s *stubAccount) account(userID int64) *services.Account {
	return &services.Account{
		User: &models.User{ID: userID, Username: "stu", Email: "stu@uni.edu"},
		Labs: []*models.Lab{{ID: 3, Name: "Vision"}},
	}
}

func (s *stubAccount) GetAccount(_ context.Context, userID int64) (*services.Account, error) {
	return s.account(userID), nil
}

func (s *stubAccount) UpdateAccount(_ context.Context, userID int64, update services.AccountUpdate) (*services.Account, *services.SupervisionResult, error) {
	s.update = update
	if s.updateErr != nil {
		return nil, nil, s.updateErr
	}
	return s.account(userID), nil, nil
}

func TestAccountController(t *testing.T) {
	account := &stubAccount{}
	ctrl := NewAccountController(account)
	r := testRouter()
	r.GET("/account", ctrl.GetAccount)
	r.PUT("/account", ctrl.UpdateAccount)

	w, env := do(t, r, http.MethodGet, "/account", 5, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var acc dto.AccountResponse
	require.NoError(t, json.Unmarshal(env.Data, &acc))
	require.Len(t, acc.Labs, 1)
	assert.Equal(t, "Vision", acc.Labs[0].Name)

	form := dto.UpdateAccountRequest{Name: "Stu", Username: "stu", Email: "stu@uni.edu", ProfEmail: "prof@uni.edu"}
	account.updateErr = apperrors.ErrEmailNotVerified
	w, env = do(t, r, http.MethodPut, "/account", 5, form)
	assert.Equal(t, http.StatusForbidden, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, dto.ErrorCodeEmailNotVerified, env.Error.Code)
	assert.Equal(t, "prof@uni.edu", account.update.ProfEmail)

	account.updateErr = nil
	w, env = do(t, r, http.MethodPut, "/account", 5, form)
	require.Equal(t, http.StatusOK, w.Code)
	var updated dto.UpdateAccountResponse
	require.NoError(t, json.Unmarshal(env.Data, &updated))
	assert.Len(t, updated.Account.Labs, 1)
	assert.Nil(t, updated.Supervision)

	w, _ = do(t, r, http.MethodGet, "/account", 0, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

type stubLabs struct {
	services.LabService
	joined map[int64]bool
}

func (s *stubLabs) JoinLab(_ context.Context, labID, userID int64) error {
	if s.joined[labID] {
		return apperrors.NewConflictError("You are already a member of this lab")
	}
	s.joined[labID] = true
	return nil
}

func (s *stubLabs) GetLab(_ context.Context, labID, viewerID int64) (*services.LabDetail, error) {
	if labID != 1 {
		return nil, apperrors.ErrLabNotFound
	}
	return &services.LabDetail{
		Lab:         &models.Lab{ID: 1, Name: "Vision"},
		MemberCount: 1,
		IsMember:    viewerID == 2,
	}, nil
}

func TestLabController(t *testing.T) {
	ctrl := NewLabController(&stubLabs{joined: map[int64]bool{}})
	r := testRouter()
	r.GET("/labs/:id", ctrl.GetLab)
	r.POST("/labs/:id/members", ctrl.JoinLab)
	r.POST("/labs", ctrl.CreateLab)

	w, env := do(t, r, http.MethodGet, "/labs/1", 2, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var detail dto.LabDetailResponse
	require.NoError(t, json.Unmarshal(env.Data, &detail))
	assert.True(t, detail.IsMember)
	assert.NotNil(t, detail.Members)

	w, env = do(t, r, http.MethodGet, "/labs/1", 0, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(env.Data, &detail))
	assert.False(t, detail.IsMember)

	w, _ = do(t, r, http.MethodGet, "/labs/4", 0, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = do(t, r, http.MethodPost, "/labs/1/members", 3, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w, _ = do(t, r, http.MethodPost, "/labs/1/members", 3, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w, _ = do(t, r, http.MethodPost, "/labs", 3, dto.CreateLabRequest{Name: "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDiscoveryController_Search(t *testing.T) {
	content := &stubContent{search: &services.SearchResult{Users: []*models.User{{ID: 1, Username: "ada"}}}}
	ctrl := NewDiscoveryController(content, nil)
	r := testRouter()
	r.GET("/search", ctrl.Search)

	w, env := do(t, r, http.MethodGet, "/search?kind=student&q=Ad", 0, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp dto.SearchResponse
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	assert.Equal(t, "student", resp.Kind)
	assert.Equal(t, "Ad", resp.Query)
	require.Len(t, resp.Users, 1)

	w, _ = do(t, r, http.MethodGet, "/search?kind=course&q=Ad", 0, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = do(t, r, http.MethodGet, "/search?kind=lab", 0, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

type pingFunc func(context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthController(t *testing.T) {
	r := testRouter()
	r.GET("/ok", NewHealthController(pingFunc(func(context.Context) error { return nil })).Health)
	r.GET("/down", NewHealthController(pingFunc(func(context.Context) error { return errors.New("refused") })).Health)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/down", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
