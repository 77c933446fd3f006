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
	"github.com/yigit/labsphere/internal/db"
	"github.com/yigit/labsphere/internal/pkg/apperrors"
	"github.com/yigit/labsphere/internal/pkg/dberrors"
	"github.com/yigit/labsphere/internal/pkg/helpers"
	"github.com/yigit/labsphere/internal/pkg/logger"
)

// ILabRepository defines lab and lab membership storage
type ILabRepository interface {
	Create(ctx context.Context, lab *models.Lab) error
	GetByID(ctx context.Context, id int64) (*models.Lab, error)
	List(ctx context.Context, offset uint64, limit int) ([]*models.Lab, int64, error)
	SearchByName(ctx context.Context, query string) ([]*models.Lab, error)
	AddMember(ctx context.Context, labID, userID int64) (bool, error)
	RemoveMember(ctx context.Context, labID, userID int64) (bool, error)
	IsMember(ctx context.Context, labID, userID int64) (bool, error)
	Members(ctx context.Context, labID int64) ([]*models.User, error)
	CountMembers(ctx context.Context, labID int64) (int64, error)
	ListForMember(ctx context.Context, userID int64) ([]*models.Lab, error)
}

// LabRepository handles labs and lab_members
type LabRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewLabRepository creates a new LabRepository
func NewLabRepository(db *pgxpool.Pool) *LabRepository {
	return &LabRepository{db: db, sb: psql}
}

// Create inserts the lab and makes its creator the first member
func (r *LabRepository) Create(ctx context.Context, lab *models.Lab) error {
	if lab.Image == "" {
		lab.Image = models.DefaultLabImage
	}
	lab.CreatedAt = time.Now()

	return db.WithTx(ctx, r.db, func(ctx context.Context, tx pgx.Tx) error {
		sql, args, err := r.sb.Insert("labs").
			Columns("name", "description", "image", "created_by", "created_at").
			Values(lab.Name, lab.Description, lab.Image, lab.CreatedBy, lab.CreatedAt).
			Suffix("RETURNING id").
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build create lab query: %w", err)
		}
		if err := tx.QueryRow(ctx, sql, args...).Scan(&lab.ID); err != nil {
			logger.Error().Err(err).Str("name", lab.Name).Msg("Error creating lab")
			return fmt.Errorf("error creating lab: %w", err)
		}

		if _, err := execAffected(ctx, tx, r.memberInsert(lab.ID, lab.CreatedBy)); err != nil {
			return fmt.Errorf("error adding lab creator as member: %w", err)
		}
		return nil
	})
}

func (r *LabRepository) GetByID(ctx context.Context, id int64) (*models.Lab, error) {
	sql, args, err := r.sb.Select(labColumns("")...).From("labs").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get lab query: %w", err)
	}

	lab, err := scanLab(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrLabNotFound
		}
		return nil, fmt.Errorf("error getting lab: %w", err)
	}
	return lab, nil
}

// List returns labs ordered by name
func (r *LabRepository) List(ctx context.Context, offset uint64, limit int) ([]*models.Lab, int64, error) {
	total, err := queryCount(ctx, r.db, r.sb.Select("COUNT(*)").From("labs"))
	if err != nil {
		return nil, 0, err
	}

	labs, err := queryLabs(ctx, r.db, r.sb.Select(labColumns("")...).
		From("labs").
		OrderBy("name", "id").
		Offset(offset).
		Limit(uint64(limit)))
	if err != nil {
		return nil, 0, err
	}
	return labs, total, nil
}

// SearchByName returns labs whose name contains query, case-sensitively
func (r *LabRepository) SearchByName(ctx context.Context, query string) ([]*models.Lab, error) {
	return queryLabs(ctx, r.db, r.sb.Select(labColumns("")...).
		From("labs").
		Where(squirrel.Like{"name": helpers.ContainsPattern(query)}).
		OrderBy("name", "id"))
}

func (r *LabRepository) memberInsert(labID, userID int64) squirrel.InsertBuilder {
	return r.sb.Insert("lab_members").
		Columns("lab_id", "user_id", "joined_at").
		Values(labID, userID, time.Now()).
		Suffix("ON CONFLICT (lab_id, user_id) DO NOTHING")
}

// AddMember reports whether the user was not already a member
func (r *LabRepository) AddMember(ctx context.Context, labID, userID int64) (bool, error) {
	affected, err := execAffected(ctx, r.db, r.memberInsert(labID, userID))
	if err != nil {
		if dberrors.IsForeignKeyViolation(err) {
			return false, apperrors.ErrLabNotFound
		}
		return false, fmt.Errorf("error adding lab member: %w", err)
	}
	return affected == 1, nil
}

// RemoveMember reports whether a membership was removed
func (r *LabRepository) RemoveMember(ctx context.Context, labID, userID int64) (bool, error) {
	affected, err := execAffected(ctx, r.db, r.sb.Delete("lab_members").Where(squirrel.Eq{"lab_id": labID, "user_id": userID}))
	if err != nil {
		return false, fmt.Errorf("error removing lab member: %w", err)
	}
	return affected > 0, nil
}

func (r *LabRepository) IsMember(ctx context.Context, labID, userID int64) (bool, error) {
	return queryExists(ctx, r.db, r.sb.Select("1").From("lab_members").Where(squirrel.Eq{"lab_id": labID, "user_id": userID}))
}

// Members returns the lab's members in join order
func (r *LabRepository) Members(ctx context.Context, labID int64) ([]*models.User, error) {
	return queryUsers(ctx, r.db, r.sb.Select(userColumns("u")...).
		From("lab_members m").
		Join("users u ON u.id = m.user_id").
		Where(squirrel.Eq{"m.lab_id": labID}).
		OrderBy("m.joined_at", "u.id"))
}

func (r *LabRepository) CountMembers(ctx context.Context, labID int64) (int64, error) {
	return queryCount(ctx, r.db, r.sb.Select("COUNT(*)").From("lab_members").Where(squirrel.Eq{"lab_id": labID}))
}

// ListForMember returns the labs userID belongs to
func (r *LabRepository) ListForMember(ctx context.Context, userID int64) ([]*models.Lab, error) {
	return queryLabs(ctx, r.db, r.sb.Select(labColumns("l")...).
		From("lab_members m").
		Join("labs l ON l.id = m.lab_id").
		Where(squirrel.Eq{"m.user_id": userID}).
		OrderBy("l.name", "l.id"))
}
