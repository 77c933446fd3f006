package auth

import (
	"context"

	"github.com/yigit/labsphere/internal/app/models"
	"github.com/yigit/labsphere/internal/app/repositories"
	"github.com/yigit/labsphere/internal/pkg/apperrors"
	"github.com/yigit/labsphere/internal/pkg/logger"
)

// AuthorizationService answers "may this user do that" questions
type AuthorizationService struct {
	userRepo repositories.IUserRepository
	labRepo  repositories.ILabRepository
}

// NewAuthorizationService creates a new AuthorizationService
func NewAuthorizationService(userRepo repositories.IUserRepository, labRepo repositories.ILabRepository) *AuthorizationService {
	return &AuthorizationService{
		userRepo: userRepo,
		labRepo:  labRepo,
	}
}

// IsProfessor checks if the user is a professor
func (s *AuthorizationService) IsProfessor(ctx context.Context, userID int64) (bool, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return false, err
	}
	return user.IsProfessor(), nil
}

// ValidateProfessor returns a forbidden error unless userID is a professor
func (s *AuthorizationService) ValidateProfessor(ctx context.Context, userID int64) error {
	ok, err := s.IsProfessor(ctx, userID)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.NewForbiddenError("only professors can manage supervision requests")
	}
	return nil
}

// ValidateLabMember returns ErrLabNotFound for unknown labs and a forbidden
// error when userID is not a member.
func (s *AuthorizationService) ValidateLabMember(ctx context.Context, labID, userID int64) error {
	if _, err := s.labRepo.GetByID(ctx, labID); err != nil {
		return err
	}

	member, err := s.labRepo.IsMember(ctx, labID, userID)
	if err != nil {
		logger.Error().Err(err).Int64("labID", labID).Int64("userID", userID).Msg("Error checking lab membership")
		return err
	}
	if !member {
		return apperrors.NewForbiddenError("only lab members can post on behalf of the lab")
	}
	return nil
}

// ValidatePostAuthor checks that actorID may publish as author
func (s *AuthorizationService) ValidatePostAuthor(ctx context.Context, actorID int64, author models.Ref) error {
	switch author.Kind {
	case models.RefKindUser:
		if author.ID != actorID {
			return apperrors.NewForbiddenError("you can only post as yourself")
		}
		return nil
	case models.RefKindLab:
		return s.ValidateLabMember(ctx, author.ID, actorID)
	default:
		return apperrors.NewValidationError("unknown author type")
	}
}
