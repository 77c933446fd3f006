package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/labsphere/internal/app/models"
	"github.com/yigit/labsphere/internal/app/models/dto"
	"github.com/yigit/labsphere/internal/app/repositories"
	"github.com/yigit/labsphere/internal/pkg/apperrors"
	"github.com/yigit/labsphere/internal/pkg/auth"
	"github.com/yigit/labsphere/internal/pkg/email"
)

// Registration is a validated sign-up form
type Registration struct {
	Name     string
	Username string
	Email    string
	Password string
	UserType models.UserType
}

// AuthService handles authentication operations
type AuthService struct {
	userRepo     repositories.IUserRepository
	tokenRepo    repositories.ITokenRepository
	jwtService   *auth.JWTService
	emailService email.EmailService
	logger       zerolog.Logger
	now          func() time.Time
}

// NewAuthService creates a new AuthService
func NewAuthService(
	userRepo repositories.IUserRepository,
	tokenRepo repositories.ITokenRepository,
	jwtService *auth.JWTService,
	emailService email.EmailService,
	logger zerolog.Logger,
) *AuthService {
	return &AuthService{
		userRepo:     userRepo,
		tokenRepo:    tokenRepo,
		jwtService:   jwtService,
		emailService: emailService,
		logger:       logger,
		now:          time.Now,
	}
}

// Register creates an unverified account and mails a verification link.
// No session is issued; the user logs in afterwards.
func (s *AuthService) Register(ctx context.Context, reg Registration) (*models.User, error) {
	reg.Email = strings.ToLower(strings.TrimSpace(reg.Email))
	reg.Username = strings.TrimSpace(reg.Username)

	if !reg.UserType.Valid() {
		return nil, apperrors.NewValidationError("user type must be student or professor")
	}

	exists, err := s.userRepo.UsernameExists(ctx, reg.Username)
	if err != nil {
		return nil, fmt.Errorf("error checking if username exists: %w", err)
	}
	if exists {
		return nil, apperrors.ErrUsernameAlreadyExists
	}

	exists, err = s.userRepo.EmailExists(ctx, reg.Email)
	if err != nil {
		return nil, fmt.Errorf("error checking if email exists: %w", err)
	}
	if exists {
		return nil, apperrors.ErrEmailAlreadyExists
	}

	hashedPassword, err := auth.HashPassword(reg.Password)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	user := &models.User{
		Name:       strings.TrimSpace(reg.Name),
		Username:   reg.Username,
		Email:      reg.Email,
		Password:   hashedPassword,
		ProfilePic: models.DefaultProfilePic,
		UserType:   reg.UserType,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info().Int64("userID", user.ID).Str("userType", string(user.UserType)).Msg("User registered")

	if err := s.SendVerification(ctx, user); err != nil {
		s.logger.Warn().Err(err).Int64("userID", user.ID).Msg("Failed to send verification email")
	}
	return user, nil
}

// Login authenticates a user by email and password
func (s *AuthService) Login(ctx context.Context, emailAddr, password string) (*dto.TokenResponse, *models.User, error) {
	user, err := s.userRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(emailAddr)))
	if err != nil {
		if errors.Is(err, apperrors.ErrResourceNotFound) {
			return nil, nil, apperrors.ErrInvalidCredentials
		}
		return nil, nil, err
	}

	if !auth.CheckPassword(user.Password, password) {
		return nil, nil, apperrors.ErrInvalidCredentials
	}

	tokens, err := s.generateTokenResponse(ctx, user)
	if err != nil {
		return nil, nil, err
	}

	if err := s.userRepo.UpdateLastLogin(ctx, user.ID); err != nil {
		s.logger.Warn().Err(err).Int64("userID", user.ID).Msg("Failed to record last login")
	}
	return tokens, user, nil
}

// RefreshToken rotates a refresh token and issues a new access token
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*dto.TokenResponse, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return nil, apperrors.ErrTokenInvalid
	}

	stored, err := s.tokenRepo.GetTokenByValue(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	if stored.IsRevoked {
		return nil, apperrors.ErrTokenRevoked
	}
	if stored.Expired(s.now()) {
		_ = s.tokenRepo.RevokeToken(ctx, refreshToken)
		return nil, apperrors.ErrTokenExpired
	}

	user, err := s.userRepo.GetByID(ctx, stored.UserID)
	if err != nil {
		return nil, err
	}

	// Revoke before issuing so a refresh token can never be replayed
	if err := s.tokenRepo.RevokeToken(ctx, refreshToken); err != nil {
		return nil, fmt.Errorf("failed to revoke old token: %w", err)
	}
	return s.generateTokenResponse(ctx, user)
}

// Logout revokes the given refresh token
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if err := s.tokenRepo.RevokeToken(ctx, refreshToken); err != nil {
		if errors.Is(err, apperrors.ErrTokenNotFound) {
			return nil
		}
		return err
	}
	return nil
}

// VerifyEmail marks the address in a verification token as verified
func (s *AuthService) VerifyEmail(ctx context.Context, token string) (*models.User, error) {
	claims, err := s.jwtService.ValidateEmailToken(token)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	// A token minted for a previous address does not verify the current one
	if !strings.EqualFold(user.Email, claims.Email) {
		return nil, apperrors.ErrTokenInvalid
	}
	if user.EmailVerified {
		return nil, apperrors.ErrEmailAlreadyVerified
	}

	if err := s.userRepo.SetEmailVerified(ctx, user.ID, true); err != nil {
		return nil, err
	}
	user.EmailVerified = true

	s.logger.Info().Int64("userID", user.ID).Msg("Email verified")
	if err := s.emailService.SendWelcomeEmail(user.Email, user.Name); err != nil {
		s.logger.Warn().Err(err).Int64("userID", user.ID).Msg("Failed to send welcome email")
	}
	return user, nil
}

// ResendVerification mails a new verification link to an unverified user
func (s *AuthService) ResendVerification(ctx context.Context, userID int64) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.EmailVerified {
		return apperrors.ErrEmailAlreadyVerified
	}
	return s.SendVerification(ctx, user)
}

// SendVerification mints a verification token for user and mails it
func (s *AuthService) SendVerification(ctx context.Context, user *models.User) error {
	token, err := s.jwtService.GenerateEmailToken(user)
	if err != nil {
		return err
	}
	return s.emailService.SendVerificationEmail(user.Email, user.Name, token)
}

// IsEmailVerified reports whether the user confirmed their address
func (s *AuthService) IsEmailVerified(ctx context.Context, userID int64) (bool, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return false, err
	}
	return user.EmailVerified, nil
}

func (s *AuthService) generateTokenResponse(ctx context.Context, user *models.User) (*dto.TokenResponse, error) {
	pair, err := s.jwtService.GenerateTokenPair(user)
	if err != nil {
		return nil, fmt.Errorf("token generation error: %w", err)
	}

	if err := s.tokenRepo.CreateToken(ctx, pair.RefreshToken, user.ID, pair.RefreshExpiry); err != nil {
		return nil, fmt.Errorf("token saving error: %w", err)
	}

	return &dto.TokenResponse{
		AccessToken:           pair.AccessToken,
		RefreshToken:          pair.RefreshToken,
		TokenType:             "Bearer",
		ExpiresIn:             pair.ExpiresIn,
		RefreshTokenExpiresIn: pair.RefreshExpiresIn,
	}, nil
}
