package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/labsphere/internal/app/models"
	"github.com/yigit/labsphere/internal/pkg/apperrors"
	"github.com/yigit/labsphere/internal/pkg/dberrors"
	"github.com/yigit/labsphere/internal/pkg/logger"
)

// ISubscriptionRepository defines follow-edge storage
type ISubscriptionRepository interface {
	Create(ctx context.Context, followerID int64, followee models.Ref) (bool, error)
	Delete(ctx context.Context, followerID int64, followee models.Ref) (bool, error)
	Exists(ctx context.Context, followerID int64, followee models.Ref) (bool, error)
	FolloweeIDs(ctx context.Context, followerID int64, kind models.RefKind) ([]int64, error)
	FollowerIDs(ctx context.Context, followee models.Ref) ([]int64, error)
	Followers(ctx context.Context, followee models.Ref) ([]*models.User, error)
	FollowedUsers(ctx context.Context, followerID int64) ([]*models.User, error)
	FollowedLabs(ctx context.Context, followerID int64) ([]*models.Lab, error)
	CountFollowers(ctx context.Context, followee models.Ref) (int64, error)
	TopFollowedUsers(ctx context.Context, limit int) ([]*models.UserFollowers, error)
}

// SubscriptionRepository stores follow edges in the subscriptions table
type SubscriptionRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewSubscriptionRepository creates a new SubscriptionRepository
func NewSubscriptionRepository(db *pgxpool.Pool) *SubscriptionRepository {
	return &SubscriptionRepository{db: db, sb: psql}
}

func edge(followerID int64, followee models.Ref) squirrel.Eq {
	return squirrel.Eq{
		"follower_id":   followerID,
		"followee_id":   followee.ID,
		"followee_type": string(followee.Kind),
	}
}

// Create inserts the edge and reports whether it was new
func (r *SubscriptionRepository) Create(ctx context.Context, followerID int64, followee models.Ref) (bool, error) {
	affected, err := execAffected(ctx, r.db, r.sb.Insert("subscriptions").
		Columns("follower_id", "followee_id", "followee_type", "created_at").
		Values(followerID, followee.ID, string(followee.Kind), time.Now()).
		Suffix("ON CONFLICT (follower_id, followee_id, followee_type) DO NOTHING"))
	if err != nil {
		if dberrors.IsCheckViolation(err) {
			return false, apperrors.NewConflictError("you cannot follow yourself")
		}
		logger.Error().Err(err).Int64("followerID", followerID).Str("followee", followee.String()).Msg("Error creating subscription")
		return false, fmt.Errorf("error creating subscription: %w", err)
	}
	return affected == 1, nil
}

// Delete removes the edge and reports whether one existed
func (r *SubscriptionRepository) Delete(ctx context.Context, followerID int64, followee models.Ref) (bool, error) {
	affected, err := execAffected(ctx, r.db, r.sb.Delete("subscriptions").Where(edge(followerID, followee)))
	if err != nil {
		return false, fmt.Errorf("error deleting subscription: %w", err)
	}
	return affected > 0, nil
}

func (r *SubscriptionRepository) Exists(ctx context.Context, followerID int64, followee models.Ref) (bool, error) {
	return queryExists(ctx, r.db, r.sb.Select("1").From("subscriptions").Where(edge(followerID, followee)))
}

// FolloweeIDs returns the ids of every followee of the given kind
func (r *SubscriptionRepository) FolloweeIDs(ctx context.Context, followerID int64, kind models.RefKind) ([]int64, error) {
	return queryIDs(ctx, r.db, r.sb.Select("followee_id").
		From("subscriptions").
		Where(squirrel.Eq{"follower_id": followerID, "followee_type": string(kind)}).
		OrderBy("followee_id"))
}

// FollowerIDs returns the ids of every user following followee
func (r *SubscriptionRepository) FollowerIDs(ctx context.Context, followee models.Ref) ([]int64, error) {
	return queryIDs(ctx, r.db, r.sb.Select("follower_id").
		From("subscriptions").
		Where(squirrel.Eq{"followee_id": followee.ID, "followee_type": string(followee.Kind)}).
		OrderBy("follower_id"))
}

func (r *SubscriptionRepository) Followers(ctx context.Context, followee models.Ref) ([]*models.User, error) {
	return queryUsers(ctx, r.db, r.sb.Select(userColumns("u")...).
		From("subscriptions s").
		Join("users u ON u.id = s.follower_id").
		Where(squirrel.Eq{"s.followee_id": followee.ID, "s.followee_type": string(followee.Kind)}).
		OrderBy("s.created_at DESC", "u.id"))
}

func (r *SubscriptionRepository) FollowedUsers(ctx context.Context, followerID int64) ([]*models.User, error) {
	return queryUsers(ctx, r.db, r.sb.Select(userColumns("u")...).
		From("subscriptions s").
		Join("users u ON u.id = s.followee_id").
		Where(squirrel.Eq{"s.follower_id": followerID, "s.followee_type": string(models.RefKindUser)}).
		OrderBy("s.created_at DESC", "u.id"))
}

func (r *SubscriptionRepository) FollowedLabs(ctx context.Context, followerID int64) ([]*models.Lab, error) {
	return queryLabs(ctx, r.db, r.sb.Select(labColumns("l")...).
		From("subscriptions s").
		Join("labs l ON l.id = s.followee_id").
		Where(squirrel.Eq{"s.follower_id": followerID, "s.followee_type": string(models.RefKindLab)}).
		OrderBy("s.created_at DESC", "l.id"))
}

func (r *SubscriptionRepository) CountFollowers(ctx context.Context, followee models.Ref) (int64, error) {
	return queryCount(ctx, r.db, r.sb.Select("COUNT(*)").
		From("subscriptions").
		Where(squirrel.Eq{"followee_id": followee.ID, "followee_type": string(followee.Kind)}))
}

// TopFollowedUsers ranks followed users by follower count, ties broken by
// ascending id. Users nobody follows are not ranked.
func (r *SubscriptionRepository) TopFollowedUsers(ctx context.Context, limit int) ([]*models.UserFollowers, error) {
	sql, args, err := topFollowedUsersQuery(limit).ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	ranked := make([]*models.UserFollowers, 0, limit)
	for rows.Next() {
		entry := &models.UserFollowers{}
		if entry.User, err = scanUser(rows, &entry.Followers); err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		ranked = append(ranked, entry)
	}
	return ranked, rows.Err()
}

func topFollowedUsersQuery(limit int) squirrel.SelectBuilder {
	cols := append(userColumns("u"), "COUNT(s.follower_id) AS followers")
	return psql.Select(cols...).
		From("subscriptions s").
		Join("users u ON u.id = s.followee_id").
		Where(squirrel.Eq{"s.followee_type": string(models.RefKindUser)}).
		GroupBy("u.id").
		OrderBy("followers DESC", "u.id ASC").
		Limit(uint64(limit))
}
