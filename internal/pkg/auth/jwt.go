package auth

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/yigit/labsphere/internal/app/models"
	"github.com/yigit/labsphere/internal/pkg/apperrors"
)

// PurposeEmailVerification marks tokens that may only verify an email address
const PurposeEmailVerification = "email-verify"

// JWTConfig defines JWT configuration settings
type JWTConfig struct {
	SecretKey       string
	AccessTokenExp  time.Duration
	RefreshTokenExp time.Duration
	EmailTokenExp   time.Duration
	TokenIssuer     string
}

// JWTService handles JWT operations
type JWTService struct {
	config JWTConfig
	now    func() time.Time
}

// NewJWTService creates a new JWT service
func NewJWTService(config JWTConfig) *JWTService {
	return &JWTService{
		config: config,
		now:    time.Now,
	}
}

// Claims defines access token content
type Claims struct {
	UserID   int64  `json:"userId"`
	Email    string `json:"email"`
	UserType string `json:"userType"`
	// Purpose is empty on access tokens; purpose-bound tokens never authenticate requests
	Purpose string `json:"purpose,omitempty"`
	jwt.RegisteredClaims
}

// EmailClaims defines email verification token content
type EmailClaims struct {
	UserID  int64  `json:"userId"`
	Email   string `json:"email"`
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

// TokenPair is an access JWT together with an opaque refresh token
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	ExpiresIn        int64
	RefreshExpiresIn int64
	RefreshExpiry    time.Time
}

// GenerateTokenPair creates an access and refresh token pair for user
func (s *JWTService) GenerateTokenPair(user *models.User) (*TokenPair, error) {
	now := s.now()

	claims := &Claims{
		UserID:   user.ID,
		Email:    user.Email,
		UserType: string(user.UserType),
		RegisteredClaims: s.registered(user.ID, now, s.config.AccessTokenExp),
	}

	accessToken, err := s.sign(claims)
	if err != nil {
		return nil, fmt.Errorf("failed to create access token: %w", err)
	}

	return &TokenPair{
		AccessToken:      accessToken,
		RefreshToken:     uuid.New().String(),
		ExpiresIn:        int64(s.config.AccessTokenExp.Seconds()),
		RefreshExpiresIn: int64(s.config.RefreshTokenExp.Seconds()),
		RefreshExpiry:    now.Add(s.config.RefreshTokenExp),
	}, nil
}

// GenerateEmailToken creates a signed, time-limited email verification token
func (s *JWTService) GenerateEmailToken(user *models.User) (string, error) {
	claims := &EmailClaims{
		UserID:           user.ID,
		Email:            user.Email,
		Purpose:          PurposeEmailVerification,
		RegisteredClaims: s.registered(user.ID, s.now(), s.config.EmailTokenExp),
	}

	token, err := s.sign(claims)
	if err != nil {
		return "", fmt.Errorf("failed to create email token: %w", err)
	}
	return token, nil
}

// ValidateToken validates an access token
func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	if err := s.parse(tokenString, claims); err != nil {
		return nil, err
	}
	if claims.Purpose != "" {
		return nil, apperrors.ErrTokenInvalid
	}
	return claims, nil
}

// ValidateEmailToken validates an email verification token. Tokens with
// any other purpose are rejected as invalid.
func (s *JWTService) ValidateEmailToken(tokenString string) (*EmailClaims, error) {
	claims := &EmailClaims{}
	if err := s.parse(tokenString, claims); err != nil {
		return nil, err
	}
	if claims.Purpose != PurposeEmailVerification || claims.UserID <= 0 {
		return nil, apperrors.ErrTokenInvalid
	}
	return claims, nil
}

// ValidateAndExtractClaims validates an access token and checks its identity fields
func (s *JWTService) ValidateAndExtractClaims(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, apperrors.ErrTokenInvalid
	}

	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}

	if claims.UserID <= 0 || claims.Email == "" {
		return nil, apperrors.ErrTokenInvalid
	}

	return claims, nil
}

// RefreshTokenExpiry returns the expiry of a refresh token issued now
func (s *JWTService) RefreshTokenExpiry() time.Time {
	return s.now().Add(s.config.RefreshTokenExp)
}

func (s *JWTService) registered(userID int64, now time.Time, ttl time.Duration) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		Issuer:    s.config.TokenIssuer,
		Subject:   strconv.FormatInt(userID, 10),
		ID:        uuid.New().String(),
	}
}

func (s *JWTService) sign(claims jwt.Claims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.config.SecretKey))
}

func (s *JWTService) parse(tokenString string, claims jwt.Claims) error {
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.SecretKey), nil
	},
		jwt.WithIssuer(s.config.TokenIssuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return apperrors.ErrTokenExpired
		}
		return fmt.Errorf("%w: %v", apperrors.ErrTokenInvalid, err)
	}
	if !token.Valid {
		return apperrors.ErrTokenInvalid
	}
	return nil
}

// ExtractBearerToken extracts the token from the Authorization header.
// A bare token without the "Bearer " prefix is accepted as is.
func ExtractBearerToken(authHeader string) (string, error) {
	authHeader = strings.TrimSpace(strings.Trim(authHeader, "\"'"))
	if authHeader == "" {
		return "", apperrors.ErrTokenInvalid
	}

	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer ")), nil
	}

	return authHeader, nil
}
