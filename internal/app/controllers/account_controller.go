package controllers

import (
	"github.com/gin-gonic/gin"
	"github.com/yigit/labsphere/internal/app/models/dto"
	"github.com/yigit/labsphere/internal/app/services"
	"github.com/yigit/labsphere/internal/middleware"
)

// AccountController serves the caller's account and public profiles
type AccountController struct {
	accountService services.AccountService
}

// NewAccountController creates a new AccountController
func NewAccountController(accountService services.AccountService) *AccountController {
	return &AccountController{accountService: accountService}
}

// GetAccount returns the caller's account
// @Summary Get my account
// @Tags account
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.AccountResponse}
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Router /account [get]
func (c *AccountController) GetAccount(ctx *gin.Context) {
	userID, ok := requireUser(ctx)
	if !ok {
		return
	}

	account, err := c.accountService.GetAccount(ctx.Request.Context(), userID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, accountResponse(account), "")
}

func accountResponse(account *services.Account) *dto.AccountResponse {
	resp := dto.NewAccountResponse(account.User, account.Interests)
	resp.Labs = dto.NewLabResponses(account.Labs)
	return resp
}

// UpdateAccount saves the account form
// @Summary Update my account
// @Description Updates profile fields. A changed email must be verified again. A professor email files a supervision request.
// @Tags account
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.UpdateAccountRequest true "Account fields"
// @Success 200 {object} dto.APIResponse{data=dto.UpdateAccountResponse}
// @Failure 400 {object} dto.ErrorResponse "Validation failed"
// @Failure 403 {object} dto.ErrorResponse "Supervision requested before verifying the email"
// @Failure 404 {object} dto.ErrorResponse "Professor not found"
// @Failure 409 {object} dto.ErrorResponse "Email or username already in use"
// @Router /account [put]
func (c *AccountController) UpdateAccount(ctx *gin.Context) {
	userID, ok := requireUser(ctx)
	if !ok {
		return
	}

	var req dto.UpdateAccountRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	account, supervision, err := c.accountService.UpdateAccount(ctx.Request.Context(), userID, services.AccountUpdate{
		Name:       req.Name,
		Username:   req.Username,
		Email:      req.Email,
		AboutMe:    req.AboutMe,
		ProfilePic: req.ProfilePic,
		Password:   req.Password,
		ProfEmail:  req.ProfEmail,
	})
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	resp := dto.UpdateAccountResponse{Account: accountResponse(account)}
	if supervision != nil {
		resp.Supervision = &dto.SupervisionResponse{Created: supervision.Created, Warning: supervision.Warning}
	}
	respondOK(ctx, resp, "Your account has been updated.")
}

// SetInterests replaces the caller's interests
// @Summary Set my interests
// @Tags account
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.SetInterestsRequest true "Interest ids"
// @Success 200 {object} dto.APIResponse{data=[]dto.InterestResponse}
// @Failure 400 {object} dto.ErrorResponse "Unknown interest id"
// @Router /account/interests [put]
func (c *AccountController) SetInterests(ctx *gin.Context) {
	userID, ok := requireUser(ctx)
	if !ok {
		return
	}

	var req dto.SetInterestsRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	interests, err := c.accountService.SetInterests(ctx.Request.Context(), userID, req.InterestIDs)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, dto.NewInterestResponses(interests), "")
}

// GetProfile returns a user's public profile
// @Summary Get a user's profile
// @Description Public page of a user. isFollowing is set when the caller is authenticated.
// @Tags users
// @Produce json
// @Param username path string true "Username"
// @Success 200 {object} dto.APIResponse{data=dto.ProfileResponse}
// @Failure 404 {object} dto.ErrorResponse "User not found"
// @Router /users/{username} [get]
func (c *AccountController) GetProfile(ctx *gin.Context) {
	viewerID, _ := middleware.CurrentUserID(ctx)

	profile, err := c.accountService.PublicProfile(ctx.Request.Context(), viewerID, ctx.Param("username"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	respondOK(ctx, dto.ProfileResponse{
		User:           dto.NewUserResponse(profile.User),
		Followers:      dto.NewUserResponses(profile.Followers),
		FollowingUsers: dto.NewUserResponses(profile.Following.Users),
		FollowingLabs:  dto.NewLabResponses(profile.Following.Labs),
		IsFollowing:    profile.IsFollowing,
		Interests:      dto.NewInterestResponses(profile.Interests),
		Posts:          dto.NewPostResponses(profile.Posts),
	}, "")
}
