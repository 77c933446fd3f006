package controllers

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/labsphere/internal/app/models"
	"github.com/yigit/labsphere/internal/app/models/dto"
	"github.com/yigit/labsphere/internal/app/services"
	"github.com/yigit/labsphere/internal/middleware"
)

// Authenticator is the part of the auth service the HTTP layer uses
type Authenticator interface {
	Register(ctx context.Context, reg services.Registration) (*models.User, error)
	Login(ctx context.Context, email, password string) (*dto.TokenResponse, *models.User, error)
	RefreshToken(ctx context.Context, refreshToken string) (*dto.TokenResponse, error)
	Logout(ctx context.Context, refreshToken string) error
	VerifyEmail(ctx context.Context, token string) (*models.User, error)
	ResendVerification(ctx context.Context, userID int64) error
}

// AuthController handles authentication related operations
type AuthController struct {
	authService Authenticator
	logger      zerolog.Logger
}

// NewAuthController creates a new AuthController
func NewAuthController(authService Authenticator, logger zerolog.Logger) *AuthController {
	return &AuthController{
		authService: authService,
		logger:      logger,
	}
}

// Register handles user registration
// @Summary Register a new user
// @Description Creates a student or professor account and mails a verification link. No session is issued.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.RegisterRequest true "User registration information"
// @Success 201 {object} dto.APIResponse{data=dto.AccountResponse} "User registered. Check email for verification link."
// @Failure 400 {object} dto.ErrorResponse "Invalid request format"
// @Failure 409 {object} dto.ErrorResponse "Email or username already in use"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /auth/register [post]
func (c *AuthController) Register(ctx *gin.Context) {
	var req dto.RegisterRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	user, err := c.authService.Register(ctx.Request.Context(), services.Registration{
		Name:     req.Name,
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		UserType: models.UserType(req.UserType),
	})
	if err != nil {
		c.logger.Warn().Err(err).Str("username", req.Username).Msg("Failed to register user")
		middleware.HandleAPIError(ctx, err)
		return
	}

	respondCreated(ctx, dto.NewAccountResponse(user, nil), "Your account has been created. Check your email to verify it.")
}

// Login handles user login
// @Summary User login
// @Description Authenticates a user and returns an access token and a refresh token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.LoginRequest true "Login credentials"
// @Success 200 {object} dto.APIResponse{data=dto.AuthResponse} "Login successful"
// @Failure 400 {object} dto.ErrorResponse "Invalid request format"
// @Failure 401 {object} dto.ErrorResponse "Invalid credentials"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /auth/login [post]
func (c *AuthController) Login(ctx *gin.Context) {
	var req dto.LoginRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	tokens, user, err := c.authService.Login(ctx.Request.Context(), req.Email, req.Password)
	if err != nil {
		c.logger.Warn().Err(err).Str("email", req.Email).Msg("Login failed")
		middleware.HandleAPIError(ctx, err)
		return
	}

	c.logger.Info().Int64("userID", user.ID).Msg("User logged in successfully")
	respondOK(ctx, dto.AuthResponse{Token: *tokens, User: dto.NewAccountResponse(user, nil)}, "")
}

// RefreshToken handles refresh token request
// @Summary Refresh access token
// @Description Rotates a refresh token and returns a new token pair
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.RefreshTokenRequest true "Refresh token"
// @Success 200 {object} dto.APIResponse{data=dto.TokenResponse} "Token refreshed successfully"
// @Failure 400 {object} dto.ErrorResponse "Invalid request format"
// @Failure 401 {object} dto.ErrorResponse "Invalid, expired or revoked refresh token"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /auth/refresh [post]
func (c *AuthController) RefreshToken(ctx *gin.Context) {
	var req dto.RefreshTokenRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	tokens, err := c.authService.RefreshToken(ctx.Request.Context(), req.RefreshToken)
	if err != nil {
		c.logger.Warn().Err(err).Msg("Refresh token failed")
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, tokens, "")
}

// Logout revokes a refresh token
// @Summary Log out
// @Description Revokes the given refresh token. Unknown tokens are ignored.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.RefreshTokenRequest true "Refresh token"
// @Success 200 {object} dto.APIResponse "Logged out"
// @Failure 400 {object} dto.ErrorResponse "Invalid request format"
// @Router /auth/logout [post]
func (c *AuthController) Logout(ctx *gin.Context) {
	var req dto.RefreshTokenRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	if err := c.authService.Logout(ctx.Request.Context(), req.RefreshToken); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, nil, "You have been logged out.")
}

// VerifyEmail handles email verification
// @Summary Verify email address
// @Description Verifies a user's email address using the token from the verification mail
// @Tags auth
// @Produce json
// @Param token path string true "Verification token"
// @Success 200 {object} dto.APIResponse{data=dto.AccountResponse} "Email verified successfully"
// @Failure 401 {object} dto.ErrorResponse "Invalid or expired token"
// @Failure 409 {object} dto.ErrorResponse "Email already verified"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /auth/verify/{token} [get]
func (c *AuthController) VerifyEmail(ctx *gin.Context) {
	user, err := c.authService.VerifyEmail(ctx.Request.Context(), ctx.Param("token"))
	if err != nil {
		c.logger.Warn().Err(err).Msg("Email verification failed")
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, dto.NewAccountResponse(user, nil), "Your email has been verified.")
}

// ResendVerification mails a new verification link to the caller
// @Summary Resend verification email
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse "Verification email sent"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 409 {object} dto.ErrorResponse "Email already verified"
// @Router /auth/resend-verification [post]
func (c *AuthController) ResendVerification(ctx *gin.Context) {
	userID, ok := requireUser(ctx)
	if !ok {
		return
	}

	if err := c.authService.ResendVerification(ctx.Request.Context(), userID); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, nil, "A new verification email has been sent.")
}
