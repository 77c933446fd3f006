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
	"github.com/yigit/labsphere/internal/pkg/dberrors"
	"github.com/yigit/labsphere/internal/pkg/helpers"
	"github.com/yigit/labsphere/internal/pkg/logger"
)

// IUserRepository defines the interface for user-related database operations
type IUserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	Update(ctx context.Context, user *models.User) error
	SetEmailVerified(ctx context.Context, userID int64, verified bool) error
	UpdateLastLogin(ctx context.Context, userID int64) error
	ListByProfessor(ctx context.Context, profID int64) ([]*models.User, error)
	SearchByName(ctx context.Context, userType models.UserType, query string) ([]*models.User, error)
}

// UserRepository handles user database operations
type UserRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db, sb: psql}
}

// uniqueViolation maps a users unique-constraint failure to the matching app error
func uniqueViolation(err error) error {
	switch {
	case dberrors.IsDuplicateConstraintError(err, "users_email_key"):
		return apperrors.ErrEmailAlreadyExists
	case dberrors.IsDuplicateConstraintError(err, "users_username_key"):
		return apperrors.ErrUsernameAlreadyExists
	default:
		return nil
	}
}

// Create inserts a user and fills in its id and timestamps
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ProfilePic == "" {
		user.ProfilePic = models.DefaultProfilePic
	}

	sql, args, err := r.sb.Insert("users").
		Columns("name", "username", "email", "password", "profile_pic", "about_me", "user_type", "email_verified").
		Values(user.Name, user.Username, user.Email, user.Password, user.ProfilePic, user.AboutMe, user.UserType, user.EmailVerified).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create user query: %w", err)
	}

	err = r.db.QueryRow(ctx, sql, args...).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if mapped := uniqueViolation(err); mapped != nil {
			return mapped
		}
		logger.Error().Err(err).Str("username", user.Username).Msg("Error creating user")
		return fmt.Errorf("error creating user: %w", err)
	}

	return nil
}

func (r *UserRepository) getOne(ctx context.Context, where squirrel.Sqlizer) (*models.User, error) {
	sql, args, err := r.sb.Select(userColumns("")...).From("users").Where(where).Limit(1).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get user query: %w", err)
	}

	user, err := scanUser(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("error getting user: %w", err)
	}
	return user, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return r.getOne(ctx, squirrel.Eq{"id": id})
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, squirrel.Eq{"email": email})
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.getOne(ctx, squirrel.Eq{"username": username})
}

// EmailExists checks if an email already exists
func (r *UserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	return queryExists(ctx, r.db, r.sb.Select("1").From("users").Where(squirrel.Eq{"email": email}))
}

// UsernameExists checks if a username is already taken
func (r *UserRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	return queryExists(ctx, r.db, r.sb.Select("1").From("users").Where(squirrel.Eq{"username": username}))
}

// Update writes the editable account fields of user
func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	user.UpdatedAt = time.Now()

	affected, err := execAffected(ctx, r.db, r.sb.Update("users").
		Set("name", user.Name).
		Set("username", user.Username).
		Set("email", user.Email).
		Set("password", user.Password).
		Set("profile_pic", user.ProfilePic).
		Set("about_me", user.AboutMe).
		Set("email_verified", user.EmailVerified).
		Set("updated_at", user.UpdatedAt).
		Where(squirrel.Eq{"id": user.ID}))
	if err != nil {
		if mapped := uniqueViolation(err); mapped != nil {
			return mapped
		}
		logger.Error().Err(err).Int64("userID", user.ID).Msg("Error updating user")
		return fmt.Errorf("error updating user: %w", err)
	}
	if affected == 0 {
		return apperrors.ErrUserNotFound
	}
	return nil
}

// SetEmailVerified flips the verification flag
func (r *UserRepository) SetEmailVerified(ctx context.Context, userID int64, verified bool) error {
	affected, err := execAffected(ctx, r.db, r.sb.Update("users").
		Set("email_verified", verified).
		Set("updated_at", time.Now()).
		Where(squirrel.Eq{"id": userID}))
	if err != nil {
		return fmt.Errorf("error updating email verification: %w", err)
	}
	if affected == 0 {
		return apperrors.ErrUserNotFound
	}
	return nil
}

// UpdateLastLogin updates the last login time
func (r *UserRepository) UpdateLastLogin(ctx context.Context, userID int64) error {
	_, err := execAffected(ctx, r.db, r.sb.Update("users").
		Set("last_login_at", time.Now()).
		Where(squirrel.Eq{"id": userID}))
	if err != nil {
		return fmt.Errorf("failed to update last login time: %w", err)
	}
	return nil
}

// ListByProfessor returns the students supervised by profID
func (r *UserRepository) ListByProfessor(ctx context.Context, profID int64) ([]*models.User, error) {
	return queryUsers(ctx, r.db, r.sb.Select(userColumns("")...).
		From("users").
		Where(squirrel.Eq{"prof_id": profID}).
		OrderBy("name", "id"))
}

// SearchByName returns users of userType whose name contains query, case-sensitively
func (r *UserRepository) SearchByName(ctx context.Context, userType models.UserType, query string) ([]*models.User, error) {
	return queryUsers(ctx, r.db, searchUsersQuery(userType, query))
}

func searchUsersQuery(userType models.UserType, query string) squirrel.SelectBuilder {
	return psql.Select(userColumns("")...).
		From("users").
		Where(squirrel.Eq{"user_type": userType}).
		Where(squirrel.Like{"name": helpers.ContainsPattern(query)}).
		OrderBy("name", "id")
}
