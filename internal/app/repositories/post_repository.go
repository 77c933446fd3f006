package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/labsphere/internal/app/models"
	"github.com/yigit/labsphere/internal/pkg/apperrors"
	"github.com/yigit/labsphere/internal/pkg/logger"
)

// IPostRepository defines post storage
type IPostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id int64) (*models.Post, error)
	List(ctx context.Context, offset uint64, limit int) ([]*models.Post, int64, error)
	ListByAuthor(ctx context.Context, author models.Ref, offset uint64, limit int) ([]*models.Post, int64, error)
	ListByAuthors(ctx context.Context, userIDs, labIDs []int64, offset uint64, limit int) ([]*models.Post, int64, error)
	TopLiked(ctx context.Context, limit int) ([]*models.Post, error)
}

// PostRepository handles post database operations
type PostRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewPostRepository creates a new PostRepository
func NewPostRepository(db *pgxpool.Pool) *PostRepository {
	return &PostRepository{db: db, sb: psql}
}

// Create inserts a post with a zero like count
func (r *PostRepository) Create(ctx context.Context, post *models.Post) error {
	var authorID, labID *int64
	if post.Author.IsUser() {
		authorID = &post.Author.ID
	} else {
		labID = &post.Author.ID
	}
	if post.CreatedAt.IsZero() {
		post.CreatedAt = time.Now()
	}
	post.LikeCount = 0

	sql, args, err := r.sb.Insert("posts").
		Columns("title", "content", "author_type", "author_id", "lab_id", "like_count", "created_at").
		Values(post.Title, post.Content, string(post.Author.Kind), authorID, labID, 0, post.CreatedAt).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create post query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&post.ID); err != nil {
		logger.Error().Err(err).Str("author", post.Author.String()).Msg("Error creating post")
		return fmt.Errorf("error creating post: %w", err)
	}
	return nil
}

func (r *PostRepository) GetByID(ctx context.Context, id int64) (*models.Post, error) {
	sql, args, err := r.sb.Select(postColumns...).From("posts").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get post query: %w", err)
	}

	post, err := scanPost(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrPostNotFound
		}
		return nil, fmt.Errorf("error getting post: %w", err)
	}
	return post, nil
}

// List returns every post, newest first
func (r *PostRepository) List(ctx context.Context, offset uint64, limit int) ([]*models.Post, int64, error) {
	return r.page(ctx, nil, offset, limit)
}

// ListByAuthor returns the posts of a single user or lab, newest first
func (r *PostRepository) ListByAuthor(ctx context.Context, author models.Ref, offset uint64, limit int) ([]*models.Post, int64, error) {
	return r.page(ctx, authorFilter(author), offset, limit)
}

// ListByAuthors returns posts written by any of userIDs or by any of labIDs
func (r *PostRepository) ListByAuthors(ctx context.Context, userIDs, labIDs []int64, offset uint64, limit int) ([]*models.Post, int64, error) {
	filter := feedFilter(userIDs, labIDs)
	if filter == nil {
		return []*models.Post{}, 0, nil
	}
	return r.page(ctx, filter, offset, limit)
}

// TopLiked ranks posts by like count, ties broken by ascending id
func (r *PostRepository) TopLiked(ctx context.Context, limit int) ([]*models.Post, error) {
	return queryPosts(ctx, r.db, topLikedPostsQuery(limit))
}

func (r *PostRepository) page(ctx context.Context, where squirrel.Sqlizer, offset uint64, limit int) ([]*models.Post, int64, error) {
	countQ := r.sb.Select("COUNT(*)").From("posts")
	if where != nil {
		countQ = countQ.Where(where)
	}
	total, err := queryCount(ctx, r.db, countQ)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []*models.Post{}, 0, nil
	}

	posts, err := queryPosts(ctx, r.db, pagedPostsQuery(where, offset, limit))
	if err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

func authorFilter(author models.Ref) squirrel.Sqlizer {
	if author.IsLab() {
		return squirrel.Eq{"author_type": string(models.RefKindLab), "lab_id": author.ID}
	}
	return squirrel.Eq{"author_type": string(models.RefKindUser), "author_id": author.ID}
}

// feedFilter matches posts authored by a followed user or a followed lab.
// It returns nil when both sets are empty.
func feedFilter(userIDs, labIDs []int64) squirrel.Sqlizer {
	var or squirrel.Or
	if len(userIDs) > 0 {
		or = append(or, squirrel.Eq{"author_type": string(models.RefKindUser), "author_id": userIDs})
	}
	if len(labIDs) > 0 {
		or = append(or, squirrel.Eq{"author_type": string(models.RefKindLab), "lab_id": labIDs})
	}
	if len(or) == 0 {
		return nil
	}
	return or
}

func pagedPostsQuery(where squirrel.Sqlizer, offset uint64, limit int) squirrel.SelectBuilder {
	q := psql.Select(postColumns...).From("posts")
	if where != nil {
		q = q.Where(where)
	}
	return q.OrderBy("created_at DESC", "id DESC").Offset(offset).Limit(uint64(limit))
}

func topLikedPostsQuery(limit int) squirrel.SelectBuilder {
	return psql.Select(postColumns...).
		From("posts").
		OrderBy("like_count DESC", "id ASC").
		Limit(uint64(limit))
}
