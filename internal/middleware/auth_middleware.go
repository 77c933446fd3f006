package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/labsphere/internal/app/models/dto"
	"github.com/yigit/labsphere/internal/pkg/apperrors"
	"github.com/yigit/labsphere/internal/pkg/auth"
	"github.com/yigit/labsphere/internal/pkg/logger"
)

// Context keys set by the authentication middleware
const (
	ContextUserID   = "userID"
	ContextEmail    = "email"
	ContextUserType = "userType"
)

// EmailVerifier reports whether a user confirmed their email address
type EmailVerifier interface {
	IsEmailVerified(ctx context.Context, userID int64) (bool, error)
}

// AuthMiddleware for authentication and authorization
type AuthMiddleware struct {
	jwtService *auth.JWTService
	verifier   EmailVerifier
}

// NewAuthMiddleware creates a new AuthMiddleware
func NewAuthMiddleware(jwtService *auth.JWTService, verifier EmailVerifier) *AuthMiddleware {
	return &AuthMiddleware{
		jwtService: jwtService,
		verifier:   verifier,
	}
}

// rawToken reads the token from the Authorization header, falling back to
// the "token" query parameter for websocket clients that cannot set headers.
func rawToken(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); h != "" {
		return h
	}
	return c.Query("token")
}

func (m *AuthMiddleware) authenticate(c *gin.Context) error {
	header := rawToken(c)
	if header == "" {
		return apperrors.ErrTokenNotFound
	}

	tokenString, err := auth.ExtractBearerToken(header)
	if err != nil {
		return err
	}

	claims, err := m.jwtService.ValidateAndExtractClaims(tokenString)
	if err != nil {
		return err
	}

	c.Set(ContextUserID, claims.UserID)
	c.Set(ContextEmail, claims.Email)
	c.Set(ContextUserType, claims.UserType)
	return nil
}

// JWTAuth middleware for JWT token validation
func (m *AuthMiddleware) JWTAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := m.authenticate(c); err != nil {
			errorCode := dto.ErrorCodeInvalidToken
			details := "Invalid token"
			switch {
			case errors.Is(err, apperrors.ErrTokenNotFound):
				errorCode = dto.ErrorCodeUnauthorized
				details = "Authorization header missing"
			case errors.Is(err, apperrors.ErrTokenExpired):
				errorCode = dto.ErrorCodeExpiredToken
				details = "Token has expired"
			}

			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(
				dto.NewErrorDetail(errorCode, "Authentication required").WithDetails(details)))
			return
		}
		c.Next()
	}
}

// OptionalJWTAuth identifies the caller when a valid token is present and
// otherwise lets the request through anonymously.
func (m *AuthMiddleware) OptionalJWTAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := m.authenticate(c); err != nil && !errors.Is(err, apperrors.ErrTokenNotFound) {
			logger.Debug().Err(err).Str("path", c.FullPath()).Msg("Ignoring invalid optional token")
		}
		c.Next()
	}
}

// EmailVerificationRequired blocks users who have not verified their email
func (m *AuthMiddleware) EmailVerificationRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := CurrentUserID(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(
				dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required").WithDetails("User information not found")))
			return
		}

		verified, err := m.verifier.IsEmailVerified(c.Request.Context(), userID)
		if err != nil {
			HandleAPIError(c, err)
			c.Abort()
			return
		}

		if !verified {
			c.AbortWithStatusJSON(http.StatusForbidden, dto.NewErrorResponse(
				dto.NewErrorDetail(dto.ErrorCodeEmailNotVerified, "Email not verified").
					WithDetails("Please verify your email address before accessing this resource")))
			return
		}

		c.Next()
	}
}

// CurrentUserID returns the authenticated user's id, if any
func CurrentUserID(c *gin.Context) (int64, bool) {
	id := c.GetInt64(ContextUserID)
	return id, id > 0
}
