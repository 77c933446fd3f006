package repositories

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/labsphere/internal/app/models"
	"github.com/yigit/labsphere/internal/db"
	"github.com/yigit/labsphere/internal/pkg/helpers"
)

// IInterestRepository defines storage for the interest vocabulary and user interests
type IInterestRepository interface {
	List(ctx context.Context) ([]*models.Interest, error)
	GetByIDs(ctx context.Context, ids []int64) ([]*models.Interest, error)
	ListForUser(ctx context.Context, userID int64) ([]*models.Interest, error)
	ReplaceForUser(ctx context.Context, userID int64, interestIDs []int64) error
	UsersByInterestName(ctx context.Context, query string) ([]*models.User, error)
	EnsureNames(ctx context.Context, names []string) (int64, error)
}

// InterestRepository handles interests and user_interests
type InterestRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewInterestRepository creates a new InterestRepository
func NewInterestRepository(db *pgxpool.Pool) *InterestRepository {
	return &InterestRepository{db: db, sb: psql}
}

func (r *InterestRepository) query(ctx context.Context, builder squirrel.SelectBuilder) ([]*models.Interest, error) {
	sql, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}

	interests, err := pgx.CollectRows(rows, pgx.RowToAddrOfStructByPos[models.Interest])
	if err != nil {
		return nil, fmt.Errorf("error scanning interests: %w", err)
	}
	return interests, nil
}

// List returns the whole vocabulary ordered by name
func (r *InterestRepository) List(ctx context.Context) ([]*models.Interest, error) {
	return r.query(ctx, r.sb.Select("id", "name").From("interests").OrderBy("name"))
}

func (r *InterestRepository) GetByIDs(ctx context.Context, ids []int64) ([]*models.Interest, error) {
	if len(ids) == 0 {
		return []*models.Interest{}, nil
	}
	return r.query(ctx, r.sb.Select("id", "name").From("interests").Where(squirrel.Eq{"id": ids}).OrderBy("name"))
}

func (r *InterestRepository) ListForUser(ctx context.Context, userID int64) ([]*models.Interest, error) {
	return r.query(ctx, r.sb.Select("i.id", "i.name").
		From("user_interests ui").
		Join("interests i ON i.id = ui.interest_id").
		Where(squirrel.Eq{"ui.user_id": userID}).
		OrderBy("i.name"))
}

// ReplaceForUser swaps the user's interests for interestIDs atomically
func (r *InterestRepository) ReplaceForUser(ctx context.Context, userID int64, interestIDs []int64) error {
	return db.WithTx(ctx, r.db, func(ctx context.Context, tx pgx.Tx) error {
		if _, err := execAffected(ctx, tx, r.sb.Delete("user_interests").Where(squirrel.Eq{"user_id": userID})); err != nil {
			return fmt.Errorf("error clearing user interests: %w", err)
		}
		if len(interestIDs) == 0 {
			return nil
		}

		insert := r.sb.Insert("user_interests").Columns("user_id", "interest_id")
		for _, id := range interestIDs {
			insert = insert.Values(userID, id)
		}
		if _, err := execAffected(ctx, tx, insert.Suffix("ON CONFLICT DO NOTHING")); err != nil {
			return fmt.Errorf("error inserting user interests: %w", err)
		}
		return nil
	})
}

// UsersByInterestName returns the distinct users attached to any interest
// whose name contains query, case-sensitively
func (r *InterestRepository) UsersByInterestName(ctx context.Context, query string) ([]*models.User, error) {
	return queryUsers(ctx, r.db, usersByInterestQuery(query))
}

func usersByInterestQuery(query string) squirrel.SelectBuilder {
	return psql.Select(userColumns("u")...).
		Distinct().
		From("users u").
		Join("user_interests ui ON ui.user_id = u.id").
		Join("interests i ON i.id = ui.interest_id").
		Where(squirrel.Like{"i.name": helpers.ContainsPattern(query)}).
		OrderBy("u.id")
}

// EnsureNames inserts any missing vocabulary entries and returns how many were added
func (r *InterestRepository) EnsureNames(ctx context.Context, names []string) (int64, error) {
	if len(names) == 0 {
		return 0, nil
	}

	insert := r.sb.Insert("interests").Columns("name")
	for _, n := range names {
		insert = insert.Values(n)
	}
	added, err := execAffected(ctx, r.db, insert.Suffix("ON CONFLICT (name) DO NOTHING"))
	if err != nil {
		return 0, fmt.Errorf("error seeding interests: %w", err)
	}
	return added, nil
}
