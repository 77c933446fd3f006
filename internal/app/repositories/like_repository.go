package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/labsphere/internal/db"
	"github.com/yigit/labsphere/internal/pkg/apperrors"
	"github.com/yigit/labsphere/internal/pkg/logger"
)

// ILikeRepository defines like storage. Like and Unlike return the post's
// like count after the change.
type ILikeRepository interface {
	Like(ctx context.Context, postID, userID int64) (int64, error)
	Unlike(ctx context.Context, postID, userID int64) (int64, error)
	HasLiked(ctx context.Context, postID, userID int64) (bool, error)
}

// LikeRepository keeps the likes table and posts.like_count consistent
type LikeRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewLikeRepository creates a new LikeRepository
func NewLikeRepository(db *pgxpool.Pool) *LikeRepository {
	return &LikeRepository{db: db, sb: psql}
}

// Like records the like if absent and recomputes the like count in the same transaction
func (r *LikeRepository) Like(ctx context.Context, postID, userID int64) (int64, error) {
	return r.mutate(ctx, postID, r.sb.Insert("likes").
		Columns("post_id", "user_id", "created_at").
		Values(postID, userID, time.Now()).
		Suffix("ON CONFLICT (post_id, user_id) DO NOTHING"))
}

// Unlike removes the like if present and recomputes the like count in the same transaction
func (r *LikeRepository) Unlike(ctx context.Context, postID, userID int64) (int64, error) {
	return r.mutate(ctx, postID, r.sb.Delete("likes").Where(squirrel.Eq{"post_id": postID, "user_id": userID}))
}

func (r *LikeRepository) HasLiked(ctx context.Context, postID, userID int64) (bool, error) {
	return queryExists(ctx, r.db, r.sb.Select("1").From("likes").Where(squirrel.Eq{"post_id": postID, "user_id": userID}))
}

// mutate locks the post row, applies change and rewrites like_count from the
// likes table. The row lock serializes concurrent likes on one post.
func (r *LikeRepository) mutate(ctx context.Context, postID int64, change squirrel.Sqlizer) (int64, error) {
	var count int64
	err := db.WithTx(ctx, r.db, func(ctx context.Context, tx pgx.Tx) error {
		lockSQL, lockArgs, err := r.sb.Select("id").From("posts").Where(squirrel.Eq{"id": postID}).Suffix("FOR UPDATE").ToSql()
		if err != nil {
			return fmt.Errorf("error building SQL: %w", err)
		}
		var id int64
		if err := tx.QueryRow(ctx, lockSQL, lockArgs...).Scan(&id); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.ErrPostNotFound
			}
			return fmt.Errorf("error locking post: %w", err)
		}

		if _, err := execAffected(ctx, tx, change); err != nil {
			return fmt.Errorf("error updating likes: %w", err)
		}

		countSQL, countArgs, err := likeCountUpdate(r.sb, postID).ToSql()
		if err != nil {
			return fmt.Errorf("error building SQL: %w", err)
		}
		return tx.QueryRow(ctx, countSQL, countArgs...).Scan(&count)
	})
	if err != nil {
		if !errors.Is(err, apperrors.ErrPostNotFound) {
			logger.Error().Err(err).Int64("postID", postID).Msg("Error updating like count")
		}
		return 0, err
	}
	return count, nil
}

func likeCountUpdate(sb squirrel.StatementBuilderType, postID int64) squirrel.UpdateBuilder {
	return sb.Update("posts").
		Set("like_count", squirrel.Expr("(SELECT COUNT(*) FROM likes WHERE post_id = ?)", postID)).
		Where(squirrel.Eq{"id": postID}).
		Suffix("RETURNING like_count")
}
