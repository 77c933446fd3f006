package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/yigit/labsphere/internal/app/auth"
	"github.com/yigit/labsphere/internal/app/models"
	"github.com/yigit/labsphere/internal/app/repositories"
	"github.com/yigit/labsphere/internal/pkg/apperrors"
	"github.com/yigit/labsphere/internal/pkg/email"
)

// SupervisionDecision is a professor's answer to a pending request
type SupervisionDecision string

const (
	DecisionAccept SupervisionDecision = "accept"
	DecisionReject SupervisionDecision = "reject"
)

// ParseSupervisionDecision accepts "accept", "reject" and its alias "delete"
func ParseSupervisionDecision(s string) (SupervisionDecision, error) {
	switch s {
	case "accept":
		return DecisionAccept, nil
	case "reject", "delete":
		return DecisionReject, nil
	default:
		return "", apperrors.NewValidationError(fmt.Sprintf("unknown decision %q", s))
	}
}

// SupervisionResult reports whether a pending approval was created
type SupervisionResult struct {
	Created bool
	Warning string
}

const (
	warnAlreadySupervised = "This professor already supervises you"
	warnAlreadyRequested  = "You already requested approval from this professor"
)

// Following lists everything a user follows
type Following struct {
	Users []*models.User
	Labs  []*models.Lab
}

// SocialService maintains the follow graph and the supervision workflow
type SocialService interface {
	Follow(ctx context.Context, followerID int64, followee models.Ref) error
	Unfollow(ctx context.Context, followerID int64, followee models.Ref) error
	IsFollowing(ctx context.Context, followerID int64, followee models.Ref) (bool, error)
	Followers(ctx context.Context, userID int64) ([]*models.User, error)
	Following(ctx context.Context, userID int64) (*Following, error)
	ValidateSupervisionRequest(ctx context.Context, studentID int64, profEmail string) (*models.User, error)
	RequestSupervision(ctx context.Context, studentID int64, profEmail string) (*SupervisionResult, error)
	ResolveSupervision(ctx context.Context, profID, studentID int64, decision SupervisionDecision) error
	PendingApprovals(ctx context.Context, profID int64) ([]*models.PendingApproval, error)
	Students(ctx context.Context, profID int64) ([]*models.User, error)
}

type socialServiceImpl struct {
	userRepo     repositories.IUserRepository
	labRepo      repositories.ILabRepository
	subRepo      repositories.ISubscriptionRepository
	approvalRepo repositories.IApprovalRepository
	authz        *auth.AuthorizationService
	emailService email.EmailService
	logger       zerolog.Logger
}

// NewSocialService creates a new SocialService
func NewSocialService(
	userRepo repositories.IUserRepository,
	labRepo repositories.ILabRepository,
	subRepo repositories.ISubscriptionRepository,
	approvalRepo repositories.IApprovalRepository,
	authz *auth.AuthorizationService,
	emailService email.EmailService,
	logger zerolog.Logger,
) SocialService {
	return &socialServiceImpl{
		userRepo:     userRepo,
		labRepo:      labRepo,
		subRepo:      subRepo,
		approvalRepo: approvalRepo,
		authz:        authz,
		emailService: emailService,
		logger:       logger,
	}
}

// ensureFolloweeExists returns a not-found error for unknown users and labs
func (s *socialServiceImpl) ensureFolloweeExists(ctx context.Context, followee models.Ref) error {
	switch followee.Kind {
	case models.RefKindUser:
		_, err := s.userRepo.GetByID(ctx, followee.ID)
		return err
	case models.RefKindLab:
		_, err := s.labRepo.GetByID(ctx, followee.ID)
		return err
	default:
		return apperrors.NewValidationError("followee must be a user or a lab")
	}
}

// Follow adds the edge follower -> followee. Following yourself or
// following twice is a conflict.
func (s *socialServiceImpl) Follow(ctx context.Context, followerID int64, followee models.Ref) error {
	if followee.IsUser() && followee.ID == followerID {
		return apperrors.NewConflictError("you cannot follow yourself")
	}
	if err := s.ensureFolloweeExists(ctx, followee); err != nil {
		return err
	}

	created, err := s.subRepo.Create(ctx, followerID, followee)
	if err != nil {
		return err
	}
	if !created {
		return apperrors.NewConflictError("you are already following " + string(followee.Kind) + " " + fmt.Sprint(followee.ID))
	}

	s.logger.Info().Int64("followerID", followerID).Str("followee", followee.String()).Msg("Follow created")
	return nil
}

// Unfollow removes the edge, failing with not-found when there is none
func (s *socialServiceImpl) Unfollow(ctx context.Context, followerID int64, followee models.Ref) error {
	deleted, err := s.subRepo.Delete(ctx, followerID, followee)
	if err != nil {
		return err
	}
	if !deleted {
		return apperrors.NewResourceNotFoundError("you are not following " + string(followee.Kind) + " " + fmt.Sprint(followee.ID))
	}

	s.logger.Info().Int64("followerID", followerID).Str("followee", followee.String()).Msg("Follow removed")
	return nil
}

func (s *socialServiceImpl) IsFollowing(ctx context.Context, followerID int64, followee models.Ref) (bool, error) {
	return s.subRepo.Exists(ctx, followerID, followee)
}

func (s *socialServiceImpl) Followers(ctx context.Context, userID int64) ([]*models.User, error) {
	return s.subRepo.Followers(ctx, models.UserRef(userID))
}

func (s *socialServiceImpl) Following(ctx context.Context, userID int64) (*Following, error) {
	users, err := s.subRepo.FollowedUsers(ctx, userID)
	if err != nil {
		return nil, err
	}
	labs, err := s.subRepo.FollowedLabs(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &Following{Users: users, Labs: labs}, nil
}

// ValidateSupervisionRequest resolves profEmail to a professor other than the student
func (s *socialServiceImpl) ValidateSupervisionRequest(ctx context.Context, studentID int64, profEmail string) (*models.User, error) {
	prof, err := s.userRepo.GetByEmail(ctx, profEmail)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, apperrors.NewResourceNotFoundError("no professor is registered with that email")
		}
		return nil, err
	}
	if prof.ID == studentID {
		return nil, apperrors.NewValidationError("you cannot supervise yourself")
	}
	if !prof.IsProfessor() {
		return nil, apperrors.NewValidationError("that user is not a professor")
	}
	return prof, nil
}

// RequestSupervision files a pending approval from the student to the
// professor owning profEmail. An existing relation or pending request is
// reported as a warning and nothing is created.
func (s *socialServiceImpl) RequestSupervision(ctx context.Context, studentID int64, profEmail string) (*SupervisionResult, error) {
	prof, err := s.ValidateSupervisionRequest(ctx, studentID, profEmail)
	if err != nil {
		return nil, err
	}

	student, err := s.userRepo.GetByID(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if student.UserType != models.UserTypeStudent {
		return nil, apperrors.NewValidationError("only students can request supervision")
	}
	if student.IsSupervisedBy(prof.ID) {
		return &SupervisionResult{Warning: warnAlreadySupervised}, nil
	}

	pending, err := s.approvalRepo.Exists(ctx, prof.ID, studentID)
	if err != nil {
		return nil, err
	}
	if pending {
		return &SupervisionResult{Warning: warnAlreadyRequested}, nil
	}

	created, err := s.approvalRepo.Create(ctx, prof.ID, studentID)
	if err != nil {
		return nil, err
	}
	if !created {
		return &SupervisionResult{Warning: warnAlreadyRequested}, nil
	}

	if err := s.emailService.SendSupervisionRequestEmail(prof.Email, prof.Name, student.Name); err != nil {
		s.logger.Warn().Err(err).Int64("profID", prof.ID).Msg("Failed to notify professor about supervision request")
	}

	s.logger.Info().Int64("profID", prof.ID).Int64("studentID", studentID).Msg("Supervision requested")
	return &SupervisionResult{Created: true}, nil
}

// ResolveSupervision accepts or rejects the pending request of studentID
func (s *socialServiceImpl) ResolveSupervision(ctx context.Context, profID, studentID int64, decision SupervisionDecision) error {
	if err := s.authz.ValidateProfessor(ctx, profID); err != nil {
		return err
	}

	switch decision {
	case DecisionAccept:
		if err := s.approvalRepo.Accept(ctx, profID, studentID); err != nil {
			return err
		}
	case DecisionReject:
		deleted, err := s.approvalRepo.Delete(ctx, profID, studentID)
		if err != nil {
			return err
		}
		if !deleted {
			return apperrors.ErrApprovalNotFound
		}
	default:
		return apperrors.NewValidationError(fmt.Sprintf("unknown decision %q", decision))
	}

	s.logger.Info().Int64("profID", profID).Int64("studentID", studentID).Str("decision", string(decision)).Msg("Supervision request resolved")
	return nil
}

func (s *socialServiceImpl) PendingApprovals(ctx context.Context, profID int64) ([]*models.PendingApproval, error) {
	if err := s.authz.ValidateProfessor(ctx, profID); err != nil {
		return nil, err
	}
	return s.approvalRepo.ListForProfessor(ctx, profID)
}

func (s *socialServiceImpl) Students(ctx context.Context, profID int64) ([]*models.User, error) {
	if err := s.authz.ValidateProfessor(ctx, profID); err != nil {
		return nil, err
	}
	return s.userRepo.ListByProfessor(ctx, profID)
}
