package dto

// RegisterRequest is the sign-up form
type RegisterRequest struct {
	Name            string `json:"name" binding:"required,notblank,max=100" example:"Ada Lovelace"`
	Username        string `json:"username" binding:"required,min=2,max=20,username" example:"ada"`
	Email           string `json:"email" binding:"required,email" example:"ada@uni.edu"`
	Password        string `json:"password" binding:"required,min=8" example:"s3cretpass"`
	ConfirmPassword string `json:"confirmPassword" binding:"required,eqfield=Password" example:"s3cretpass"`
	UserType        string `json:"userType" binding:"required,oneof=student professor" example:"student"`
}

// LoginRequest represents login credentials
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email" example:"ada@uni.edu"`
	Password string `json:"password" binding:"required" example:"s3cretpass"`
}

// RefreshTokenRequest carries a refresh token for rotation or revocation
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// TokenResponse represents JWT token information
type TokenResponse struct {
	AccessToken           string `json:"accessToken"`
	TokenType             string `json:"tokenType" example:"Bearer"`
	ExpiresIn             int64  `json:"expiresIn" example:"3600"`
	RefreshToken          string `json:"refreshToken,omitempty"`
	RefreshTokenExpiresIn int64  `json:"refreshTokenExpiresIn,omitempty" example:"2592000"`
}

// AuthResponse represents successful authentication response
type AuthResponse struct {
	Token TokenResponse    `json:"token"`
	User  *AccountResponse `json:"user"`
}
