package repositories

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/labsphere/internal/app/models"
)

// psql is the statement builder every repository starts from
var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// Repositories holds all the repository instances
type Repositories struct {
	UserRepository         *UserRepository
	LabRepository          *LabRepository
	PostRepository         *PostRepository
	LikeRepository         *LikeRepository
	SubscriptionRepository *SubscriptionRepository
	ApprovalRepository     *ApprovalRepository
	InterestRepository     *InterestRepository
	TokenRepository        *TokenRepository
}

// NewRepositories initializes all repositories
func NewRepositories(db *pgxpool.Pool) *Repositories {
	return &Repositories{
		UserRepository:         NewUserRepository(db),
		LabRepository:          NewLabRepository(db),
		PostRepository:         NewPostRepository(db),
		LikeRepository:         NewLikeRepository(db),
		SubscriptionRepository: NewSubscriptionRepository(db),
		ApprovalRepository:     NewApprovalRepository(db),
		InterestRepository:     NewInterestRepository(db),
		TokenRepository:        NewTokenRepository(db),
	}
}

// querier is satisfied by both *pgxpool.Pool and pgx.Tx
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type rowScanner interface {
	Scan(dest ...any) error
}

// userColumns lists the users columns in scanUser order, qualified by alias when given
func userColumns(alias string) []string {
	cols := []string{
		"id", "name", "username", "email", "password", "profile_pic", "about_me",
		"user_type", "prof_id", "email_verified", "created_at", "updated_at", "last_login_at",
	}
	if alias == "" {
		return cols
	}
	for i, c := range cols {
		cols[i] = alias + "." + c
	}
	return cols
}

// scanUser reads the userColumns of row followed by any extra selected columns
func scanUser(row rowScanner, extra ...any) (*models.User, error) {
	u := &models.User{}
	dest := []any{
		&u.ID, &u.Name, &u.Username, &u.Email, &u.Password, &u.ProfilePic, &u.AboutMe,
		&u.UserType, &u.ProfID, &u.EmailVerified, &u.CreatedAt, &u.UpdatedAt, &u.LastLoginAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	return u, nil
}

func labColumns(alias string) []string {
	cols := []string{"id", "name", "description", "image", "created_by", "created_at"}
	if alias == "" {
		return cols
	}
	for i, c := range cols {
		cols[i] = alias + "." + c
	}
	return cols
}

func scanLab(row rowScanner) (*models.Lab, error) {
	l := &models.Lab{}
	var createdBy *int64
	if err := row.Scan(&l.ID, &l.Name, &l.Description, &l.Image, &createdBy, &l.CreatedAt); err != nil {
		return nil, err
	}
	if createdBy != nil {
		l.CreatedBy = *createdBy
	}
	return l, nil
}

var postColumns = []string{"id", "title", "content", "author_type", "author_id", "lab_id", "like_count", "created_at"}

func scanPost(row rowScanner) (*models.Post, error) {
	p := &models.Post{}
	var authorType string
	var authorID, labID *int64
	if err := row.Scan(&p.ID, &p.Title, &p.Content, &authorType, &authorID, &labID, &p.LikeCount, &p.CreatedAt); err != nil {
		return nil, err
	}

	switch models.RefKind(authorType) {
	case models.RefKindUser:
		if authorID == nil {
			return nil, fmt.Errorf("post %d: user author without author_id", p.ID)
		}
		p.Author = models.UserRef(*authorID)
	case models.RefKindLab:
		if labID == nil {
			return nil, fmt.Errorf("post %d: lab author without lab_id", p.ID)
		}
		p.Author = models.LabRef(*labID)
	default:
		return nil, fmt.Errorf("post %d: unknown author type %q", p.ID, authorType)
	}
	return p, nil
}

// queryUsers runs a users select and scans every row
func queryUsers(ctx context.Context, q querier, builder squirrel.SelectBuilder) ([]*models.User, error) {
	sql, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	users := make([]*models.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning user row: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func queryLabs(ctx context.Context, q querier, builder squirrel.SelectBuilder) ([]*models.Lab, error) {
	sql, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	labs := make([]*models.Lab, 0)
	for rows.Next() {
		l, err := scanLab(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning lab row: %w", err)
		}
		labs = append(labs, l)
	}
	return labs, rows.Err()
}

func queryPosts(ctx context.Context, q querier, builder squirrel.SelectBuilder) ([]*models.Post, error) {
	sql, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	posts := make([]*models.Post, 0)
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning post row: %w", err)
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

func queryIDs(ctx context.Context, q querier, builder squirrel.SelectBuilder) ([]int64, error) {
	sql, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}

	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("error scanning ids: %w", err)
	}
	return ids, nil
}

func queryCount(ctx context.Context, q querier, builder squirrel.SelectBuilder) (int64, error) {
	sql, args, err := builder.ToSql()
	if err != nil {
		return 0, fmt.Errorf("error building SQL: %w", err)
	}

	var count int64
	if err := q.QueryRow(ctx, sql, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("error executing count query: %w", err)
	}
	return count, nil
}

func queryExists(ctx context.Context, q querier, builder squirrel.SelectBuilder) (bool, error) {
	inner, args, err := builder.ToSql()
	if err != nil {
		return false, fmt.Errorf("error building SQL: %w", err)
	}

	var exists bool
	if err := q.QueryRow(ctx, "SELECT EXISTS("+inner+")", args...).Scan(&exists); err != nil {
		return false, fmt.Errorf("error executing exists query: %w", err)
	}
	return exists, nil
}

// execAffected runs a write and returns the number of affected rows
func execAffected(ctx context.Context, q querier, builder squirrel.Sqlizer) (int64, error) {
	sql, args, err := builder.ToSql()
	if err != nil {
		return 0, fmt.Errorf("error building SQL: %w", err)
	}

	tag, err := q.Exec(ctx, sql, args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

var (
	_ IUserRepository         = (*UserRepository)(nil)
	_ ILabRepository          = (*LabRepository)(nil)
	_ IPostRepository         = (*PostRepository)(nil)
	_ ILikeRepository         = (*LikeRepository)(nil)
	_ ISubscriptionRepository = (*SubscriptionRepository)(nil)
	_ IApprovalRepository     = (*ApprovalRepository)(nil)
	_ IInterestRepository     = (*InterestRepository)(nil)
	_ ITokenRepository        = (*TokenRepository)(nil)
)
