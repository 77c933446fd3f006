package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/labsphere/internal/app/models"
	"github.com/yigit/labsphere/internal/db"
	"github.com/yigit/labsphere/internal/pkg/apperrors"
	"github.com/yigit/labsphere/internal/pkg/logger"
)

// IApprovalRepository defines storage for pending supervision requests
type IApprovalRepository interface {
	Create(ctx context.Context, profID, studentID int64) (bool, error)
	Exists(ctx context.Context, profID, studentID int64) (bool, error)
	ListForProfessor(ctx context.Context, profID int64) ([]*models.PendingApproval, error)
	Accept(ctx context.Context, profID, studentID int64) error
	Delete(ctx context.Context, profID, studentID int64) (bool, error)
}

// ApprovalRepository handles the pending_approvals table
type ApprovalRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewApprovalRepository creates a new ApprovalRepository
func NewApprovalRepository(db *pgxpool.Pool) *ApprovalRepository {
	return &ApprovalRepository{db: db, sb: psql}
}

func pendingRow(profID, studentID int64) squirrel.Eq {
	return squirrel.Eq{"prof_id": profID, "student_id": studentID, "relation": false}
}

// Create inserts a pending request and reports whether it was new
func (r *ApprovalRepository) Create(ctx context.Context, profID, studentID int64) (bool, error) {
	affected, err := execAffected(ctx, r.db, r.sb.Insert("pending_approvals").
		Columns("prof_id", "student_id", "relation", "created_at").
		Values(profID, studentID, false, time.Now()).
		Suffix("ON CONFLICT (prof_id, student_id) DO NOTHING"))
	if err != nil {
		logger.Error().Err(err).Int64("profID", profID).Int64("studentID", studentID).Msg("Error creating pending approval")
		return false, fmt.Errorf("error creating pending approval: %w", err)
	}
	return affected == 1, nil
}

func (r *ApprovalRepository) Exists(ctx context.Context, profID, studentID int64) (bool, error) {
	return queryExists(ctx, r.db, r.sb.Select("1").From("pending_approvals").Where(pendingRow(profID, studentID)))
}

// ListForProfessor returns pending requests with their students, oldest first
func (r *ApprovalRepository) ListForProfessor(ctx context.Context, profID int64) ([]*models.PendingApproval, error) {
	cols := append(userColumns("u"), "p.prof_id", "p.student_id", "p.relation", "p.created_at")
	sql, args, err := r.sb.Select(cols...).
		From("pending_approvals p").
		Join("users u ON u.id = p.student_id").
		Where(squirrel.Eq{"p.prof_id": profID, "p.relation": false}).
		OrderBy("p.created_at", "p.student_id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	approvals := make([]*models.PendingApproval, 0)
	for rows.Next() {
		a := &models.PendingApproval{}
		if a.Student, err = scanUser(rows, &a.ProfID, &a.StudentID, &a.Relation, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		approvals = append(approvals, a)
	}
	return approvals, rows.Err()
}

// Accept deletes the pending row and assigns the professor to the student
// in one transaction. ErrApprovalNotFound when nothing is pending.
func (r *ApprovalRepository) Accept(ctx context.Context, profID, studentID int64) error {
	return db.WithTx(ctx, r.db, func(ctx context.Context, tx pgx.Tx) error {
		deleted, err := execAffected(ctx, tx, r.sb.Delete("pending_approvals").Where(pendingRow(profID, studentID)))
		if err != nil {
			return fmt.Errorf("error deleting pending approval: %w", err)
		}
		if deleted == 0 {
			return apperrors.ErrApprovalNotFound
		}

		updated, err := execAffected(ctx, tx, r.sb.Update("users").
			Set("prof_id", profID).
			Set("updated_at", time.Now()).
			Where(squirrel.Eq{"id": studentID}))
		if err != nil {
			return fmt.Errorf("error assigning supervisor: %w", err)
		}
		if updated == 0 {
			return apperrors.ErrUserNotFound
		}
		return nil
	})
}

// Delete removes a pending request and reports whether one existed
func (r *ApprovalRepository) Delete(ctx context.Context, profID, studentID int64) (bool, error) {
	affected, err := execAffected(ctx, r.db, r.sb.Delete("pending_approvals").Where(pendingRow(profID, studentID)))
	if err != nil {
		return false, fmt.Errorf("error deleting pending approval: %w", err)
	}
	return affected > 0, nil
}
