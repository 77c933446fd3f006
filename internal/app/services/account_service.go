package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/yigit/labsphere/internal/app/models"
	"github.com/yigit/labsphere/internal/app/repositories"
	"github.com/yigit/labsphere/internal/pkg/apperrors"
	pkgauth "github.com/yigit/labsphere/internal/pkg/auth"
)

const profileRecentPosts = 10

// VerificationSender issues a fresh email verification message
type VerificationSender interface {
	SendVerification(ctx context.Context, user *models.User) error
}

// AccountUpdate carries the editable account fields. Password and ProfEmail
// are left untouched when empty.
type AccountUpdate struct {
	Name       string
	Username   string
	Email      string
	AboutMe    string
	ProfilePic string
	Password   string
	ProfEmail  string
}

// Account is a user with the interests they picked and the labs they belong to
type Account struct {
	User      *models.User
	Interests []*models.Interest
	Labs      []*models.Lab
}

// Profile is the public page of a user
type Profile struct {
	User        *models.User
	Followers   []*models.User
	Following   *Following
	IsFollowing bool
	Interests   []*models.Interest
	Posts       []*models.Post
}

// AccountService manages a user's own account and public profile
type AccountService interface {
	GetAccount(ctx context.Context, userID int64) (*Account, error)
	UpdateAccount(ctx context.Context, userID int64, update AccountUpdate) (*Account, *SupervisionResult, error)
	PublicProfile(ctx context.Context, viewerID int64, username string) (*Profile, error)
	ListInterests(ctx context.Context) ([]*models.Interest, error)
	SetInterests(ctx context.Context, userID int64, interestIDs []int64) ([]*models.Interest, error)
}

type accountServiceImpl struct {
	userRepo     repositories.IUserRepository
	interestRepo repositories.IInterestRepository
	postRepo     repositories.IPostRepository
	social       SocialService
	labs         LabService
	verifier     VerificationSender
	logger       zerolog.Logger
}

// NewAccountService creates a new AccountService
func NewAccountService(
	userRepo repositories.IUserRepository,
	interestRepo repositories.IInterestRepository,
	postRepo repositories.IPostRepository,
	social SocialService,
	labs LabService,
	verifier VerificationSender,
	logger zerolog.Logger,
) AccountService {
	return &accountServiceImpl{
		userRepo:     userRepo,
		interestRepo: interestRepo,
		postRepo:     postRepo,
		social:       social,
		labs:         labs,
		verifier:     verifier,
		logger:       logger,
	}
}

func (s *accountServiceImpl) GetAccount(ctx context.Context, userID int64) (*Account, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.account(ctx, user)
}

func (s *accountServiceImpl) account(ctx context.Context, user *models.User) (*Account, error) {
	interests, err := s.interestRepo.ListForUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	labs, err := s.labs.LabsOf(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return &Account{User: user, Interests: interests, Labs: labs}, nil
}

// UpdateAccount saves the account form. A changed email must be verified
// again and a non-empty ProfEmail files a supervision request. Every check
// runs before anything is written.
func (s *accountServiceImpl) UpdateAccount(ctx context.Context, userID int64, update AccountUpdate) (*Account, *SupervisionResult, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, nil, err
	}

	if update.ProfEmail != "" {
		if err := s.checkSupervisionRequest(ctx, user, update.ProfEmail); err != nil {
			return nil, nil, err
		}
	}

	update.Username = strings.TrimSpace(update.Username)
	update.Email = strings.ToLower(strings.TrimSpace(update.Email))

	if update.Username != user.Username {
		taken, err := s.userRepo.UsernameExists(ctx, update.Username)
		if err != nil {
			return nil, nil, err
		}
		if taken {
			return nil, nil, apperrors.ErrUsernameAlreadyExists
		}
	}

	emailChanged := update.Email != user.Email
	if emailChanged {
		taken, err := s.userRepo.EmailExists(ctx, update.Email)
		if err != nil {
			return nil, nil, err
		}
		if taken {
			return nil, nil, apperrors.ErrEmailAlreadyExists
		}
		user.EmailVerified = false
	}

	if update.Password != "" {
		hashed, err := pkgauth.HashPassword(update.Password)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to hash password: %w", err)
		}
		user.Password = hashed
	}

	user.Name = strings.TrimSpace(update.Name)
	user.Username = update.Username
	user.Email = update.Email
	user.AboutMe = update.AboutMe
	if update.ProfilePic != "" {
		user.ProfilePic = update.ProfilePic
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, nil, err
	}
	s.logger.Info().Int64("userID", userID).Bool("emailChanged", emailChanged).Msg("Account updated")

	if emailChanged && s.verifier != nil {
		if err := s.verifier.SendVerification(ctx, user); err != nil {
			s.logger.Warn().Err(err).Int64("userID", userID).Msg("Failed to send verification email after email change")
		}
	}

	var supervision *SupervisionResult
	if update.ProfEmail != "" {
		supervision, err = s.social.RequestSupervision(ctx, userID, update.ProfEmail)
		if err != nil {
			return nil, nil, err
		}
	}

	account, err := s.account(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	return account, supervision, nil
}

// checkSupervisionRequest applies the POST /supervision rules, verified email
// included, to a ProfEmail sent with the account form.
func (s *accountServiceImpl) checkSupervisionRequest(ctx context.Context, user *models.User, profEmail string) error {
	if !user.EmailVerified {
		return apperrors.ErrEmailNotVerified
	}
	if user.UserType != models.UserTypeStudent {
		return apperrors.NewValidationError("only students can request supervision")
	}
	_, err := s.social.ValidateSupervisionRequest(ctx, user.ID, profEmail)
	return err
}

// PublicProfile loads the profile of username as seen by viewerID (0 for anonymous)
func (s *accountServiceImpl) PublicProfile(ctx context.Context, viewerID int64, username string) (*Profile, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	profile := &Profile{User: user}
	if profile.Followers, err = s.social.Followers(ctx, user.ID); err != nil {
		return nil, err
	}
	if profile.Following, err = s.social.Following(ctx, user.ID); err != nil {
		return nil, err
	}
	if profile.Interests, err = s.interestRepo.ListForUser(ctx, user.ID); err != nil {
		return nil, err
	}
	if profile.Posts, _, err = s.postRepo.ListByAuthor(ctx, models.UserRef(user.ID), 0, profileRecentPosts); err != nil {
		return nil, err
	}
	if viewerID != 0 && viewerID != user.ID {
		if profile.IsFollowing, err = s.social.IsFollowing(ctx, viewerID, models.UserRef(user.ID)); err != nil {
			return nil, err
		}
	}
	return profile, nil
}

func (s *accountServiceImpl) ListInterests(ctx context.Context) ([]*models.Interest, error) {
	return s.interestRepo.List(ctx)
}

// SetInterests replaces the user's interests. Every id must exist in the vocabulary.
func (s *accountServiceImpl) SetInterests(ctx context.Context, userID int64, interestIDs []int64) ([]*models.Interest, error) {
	ids := make([]int64, 0, len(interestIDs))
	seen := make(map[int64]struct{}, len(interestIDs))
	for _, id := range interestIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	if len(ids) > 0 {
		known, err := s.interestRepo.GetByIDs(ctx, ids)
		if err != nil {
			return nil, err
		}
		if len(known) != len(ids) {
			return nil, apperrors.NewValidationError("unknown interest id")
		}
	}

	if err := s.interestRepo.ReplaceForUser(ctx, userID, ids); err != nil {
		if errors.Is(err, apperrors.ErrResourceNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to save interests: %w", err)
	}
	return s.interestRepo.ListForUser(ctx, userID)
}
