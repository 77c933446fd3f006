package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/labsphere/internal/app/auth"
	"github.com/yigit/labsphere/internal/app/models"
	"github.com/yigit/labsphere/internal/app/repositories"
	"github.com/yigit/labsphere/internal/pkg/apperrors"
	"github.com/yigit/labsphere/internal/pkg/helpers"
)

// SearchKind selects which entities a search runs against
type SearchKind string

const (
	SearchStudent   SearchKind = "student"
	SearchProfessor SearchKind = "professor"
	SearchLab       SearchKind = "lab"
	SearchInterest  SearchKind = "interest"
)

// ParseSearchKind validates a search kind coming from a request
func ParseSearchKind(s string) (SearchKind, error) {
	switch k := SearchKind(s); k {
	case SearchStudent, SearchProfessor, SearchLab, SearchInterest:
		return k, nil
	default:
		return "", apperrors.NewValidationError(fmt.Sprintf("unknown search kind %q", s))
	}
}

// SearchResult holds users for the person and interest kinds and labs for the lab kind
type SearchResult struct {
	Kind  SearchKind
	Query string
	Users []*models.User
	Labs  []*models.Lab
}

// TrendingResult is the most liked posts and the most followed users
type TrendingResult struct {
	Posts []*models.Post
	Users []*models.UserFollowers
}

// LikeResult is the state of a post after a like or unlike
type LikeResult struct {
	PostID    int64
	Liked     bool
	LikeCount int64
}

// ContentConfig holds the feed sizing knobs
type ContentConfig struct {
	PageSize      int
	TrendingLimit int
}

// ContentService publishes posts and builds the feed, trending and search views
type ContentService interface {
	CreatePost(ctx context.Context, actorID int64, author models.Ref, title, content string) (*models.Post, error)
	GetPost(ctx context.Context, postID int64) (*models.Post, error)
	ListPosts(ctx context.Context, page, size int) (*PostPage, error)
	PostsBy(ctx context.Context, author models.Ref, page, size int) (*PostPage, error)
	Like(ctx context.Context, userID, postID int64) (*LikeResult, error)
	Unlike(ctx context.Context, userID, postID int64) (*LikeResult, error)
	HasLiked(ctx context.Context, userID, postID int64) (bool, error)
	Feed(ctx context.Context, userID int64, page, size int) (*PostPage, error)
	Trending(ctx context.Context) (*TrendingResult, error)
	Search(ctx context.Context, kind SearchKind, query string) (*SearchResult, error)
}

type contentServiceImpl struct {
	postRepo     repositories.IPostRepository
	likeRepo     repositories.ILikeRepository
	subRepo      repositories.ISubscriptionRepository
	userRepo     repositories.IUserRepository
	labRepo      repositories.ILabRepository
	interestRepo repositories.IInterestRepository
	authz        *auth.AuthorizationService
	notifier     PostNotifier
	config       ContentConfig
	logger       zerolog.Logger
	now          func() time.Time
}

// NewContentService creates a new ContentService. A nil notifier disables live delivery.
func NewContentService(
	postRepo repositories.IPostRepository,
	likeRepo repositories.ILikeRepository,
	subRepo repositories.ISubscriptionRepository,
	userRepo repositories.IUserRepository,
	labRepo repositories.ILabRepository,
	interestRepo repositories.IInterestRepository,
	authz *auth.AuthorizationService,
	notifier PostNotifier,
	config ContentConfig,
	logger zerolog.Logger,
) ContentService {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	if config.PageSize <= 0 {
		config.PageSize = helpers.DefaultPageSize
	}
	if config.TrendingLimit <= 0 {
		config.TrendingLimit = 5
	}
	return &contentServiceImpl{
		postRepo:     postRepo,
		likeRepo:     likeRepo,
		subRepo:      subRepo,
		userRepo:     userRepo,
		labRepo:      labRepo,
		interestRepo: interestRepo,
		authz:        authz,
		notifier:     notifier,
		config:       config,
		logger:       logger,
		now:          time.Now,
	}
}

func (s *contentServiceImpl) pageSize(size int) int {
	if size <= 0 {
		return s.config.PageSize
	}
	return size
}

// CreatePost stores a post written by actorID either as themself or on
// behalf of a lab they belong to, then pushes it to the author's followers.
func (s *contentServiceImpl) CreatePost(ctx context.Context, actorID int64, author models.Ref, title, content string) (*models.Post, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, apperrors.NewValidationError("title is required")
	}
	if strings.TrimSpace(content) == "" {
		return nil, apperrors.NewValidationError("content is required")
	}
	if author.Kind == "" {
		author = models.UserRef(actorID)
	}
	if err := s.authz.ValidatePostAuthor(ctx, actorID, author); err != nil {
		return nil, err
	}

	post := &models.Post{
		Title:     title,
		Content:   content,
		Author:    author,
		CreatedAt: s.now(),
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}

	s.logger.Info().Int64("postID", post.ID).Str("author", author.String()).Msg("Post created")

	recipients, err := s.subRepo.FollowerIDs(ctx, author)
	if err != nil {
		s.logger.Warn().Err(err).Int64("postID", post.ID).Msg("Could not load followers for live delivery")
		return post, nil
	}
	if len(recipients) > 0 {
		s.notifier.PostPublished(recipients, post)
	}
	return post, nil
}

func (s *contentServiceImpl) GetPost(ctx context.Context, postID int64) (*models.Post, error) {
	return s.postRepo.GetByID(ctx, postID)
}

func (s *contentServiceImpl) ListPosts(ctx context.Context, page, size int) (*PostPage, error) {
	offset, limit := helpers.CalculateOffsetLimit(page, s.pageSize(size))
	posts, total, err := s.postRepo.List(ctx, offset, limit)
	if err != nil {
		return nil, err
	}
	return &PostPage{Posts: posts, Total: total, Page: max(page, 1), Size: limit}, nil
}

func (s *contentServiceImpl) PostsBy(ctx context.Context, author models.Ref, page, size int) (*PostPage, error) {
	offset, limit := helpers.CalculateOffsetLimit(page, s.pageSize(size))
	posts, total, err := s.postRepo.ListByAuthor(ctx, author, offset, limit)
	if err != nil {
		return nil, err
	}
	return &PostPage{Posts: posts, Total: total, Page: max(page, 1), Size: limit}, nil
}

// Like records userID's like on postID. Liking twice leaves the count unchanged.
func (s *contentServiceImpl) Like(ctx context.Context, userID, postID int64) (*LikeResult, error) {
	count, err := s.likeRepo.Like(ctx, postID, userID)
	if err != nil {
		return nil, err
	}
	s.logger.Debug().Int64("postID", postID).Int64("userID", userID).Int64("likes", count).Msg("Post liked")
	return &LikeResult{PostID: postID, Liked: true, LikeCount: count}, nil
}

// Unlike removes userID's like if present
func (s *contentServiceImpl) Unlike(ctx context.Context, userID, postID int64) (*LikeResult, error) {
	count, err := s.likeRepo.Unlike(ctx, postID, userID)
	if err != nil {
		return nil, err
	}
	s.logger.Debug().Int64("postID", postID).Int64("userID", userID).Int64("likes", count).Msg("Post unliked")
	return &LikeResult{PostID: postID, Liked: false, LikeCount: count}, nil
}

func (s *contentServiceImpl) HasLiked(ctx context.Context, userID, postID int64) (bool, error) {
	return s.likeRepo.HasLiked(ctx, postID, userID)
}

// Feed returns posts written by the users and labs userID follows, newest first.
func (s *contentServiceImpl) Feed(ctx context.Context, userID int64, page, size int) (*PostPage, error) {
	offset, limit := helpers.CalculateOffsetLimit(page, s.pageSize(size))
	page = max(page, 1)

	userIDs, err := s.subRepo.FolloweeIDs(ctx, userID, models.RefKindUser)
	if err != nil {
		return nil, fmt.Errorf("failed to load followed users: %w", err)
	}
	labIDs, err := s.subRepo.FolloweeIDs(ctx, userID, models.RefKindLab)
	if err != nil {
		return nil, fmt.Errorf("failed to load followed labs: %w", err)
	}
	if len(userIDs) == 0 && len(labIDs) == 0 {
		return emptyPostPage(page, limit), nil
	}

	posts, total, err := s.postRepo.ListByAuthors(ctx, userIDs, labIDs, offset, limit)
	if err != nil {
		return nil, err
	}
	return &PostPage{Posts: posts, Total: total, Page: page, Size: limit}, nil
}

func (s *contentServiceImpl) Trending(ctx context.Context) (*TrendingResult, error) {
	posts, err := s.postRepo.TopLiked(ctx, s.config.TrendingLimit)
	if err != nil {
		return nil, err
	}
	users, err := s.subRepo.TopFollowedUsers(ctx, s.config.TrendingLimit)
	if err != nil {
		return nil, err
	}
	return &TrendingResult{Posts: posts, Users: users}, nil
}

// Search matches query as a substring of names. A blank query is rejected.
func (s *contentServiceImpl) Search(ctx context.Context, kind SearchKind, query string) (*SearchResult, error) {
	if _, err := ParseSearchKind(string(kind)); err != nil {
		return nil, err
	}
	if strings.TrimSpace(query) == "" {
		return nil, apperrors.NewValidationError("search query is required")
	}

	result := &SearchResult{Kind: kind, Query: query, Users: []*models.User{}, Labs: []*models.Lab{}}
	var err error
	switch kind {
	case SearchStudent:
		result.Users, err = s.userRepo.SearchByName(ctx, models.UserTypeStudent, query)
	case SearchProfessor:
		result.Users, err = s.userRepo.SearchByName(ctx, models.UserTypeProfessor, query)
	case SearchLab:
		result.Labs, err = s.labRepo.SearchByName(ctx, query)
	case SearchInterest:
		result.Users, err = s.interestRepo.UsersByInterestName(ctx, query)
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}
