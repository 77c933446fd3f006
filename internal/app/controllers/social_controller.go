package controllers

import (
	"github.com/gin-gonic/gin"
	"github.com/yigit/labsphere/internal/app/models"
	"github.com/yigit/labsphere/internal/app/models/dto"
	"github.com/yigit/labsphere/internal/app/services"
	"github.com/yigit/labsphere/internal/middleware"
	"github.com/yigit/labsphere/internal/pkg/apperrors"
)

// SocialController handles follows and supervision requests
type SocialController struct {
	socialService services.SocialService
}

// NewSocialController creates a new SocialController
func NewSocialController(socialService services.SocialService) *SocialController {
	return &SocialController{socialService: socialService}
}

func followeeFromPath(ctx *gin.Context) (models.Ref, bool) {
	kind, err := models.ParseRefKind(ctx.Param("type"))
	if err != nil {
		middleware.HandleAPIError(ctx, apperrors.NewBadRequestError("followee type must be user or lab"))
		return models.Ref{}, false
	}
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return models.Ref{}, false
	}
	return models.Ref{Kind: kind, ID: id}, true
}

// Follow follows a user or a lab
// @Summary Follow a user or lab
// @Tags social
// @Produce json
// @Security BearerAuth
// @Param type path string true "Followee type" Enums(user, lab)
// @Param id path int true "Followee ID"
// @Success 200 {object} dto.APIResponse{data=dto.FollowResponse}
// @Failure 404 {object} dto.ErrorResponse "Followee not found"
// @Failure 409 {object} dto.ErrorResponse "Already following or following yourself"
// @Router /follow/{type}/{id} [post]
func (c *SocialController) Follow(ctx *gin.Context) {
	userID, ok := requireUser(ctx)
	if !ok {
		return
	}
	followee, ok := followeeFromPath(ctx)
	if !ok {
		return
	}

	if err := c.socialService.Follow(ctx.Request.Context(), userID, followee); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, dto.FollowResponse{Followee: followee, Following: true}, "You are now following "+followee.String())
}

// Unfollow stops following a user or a lab
// @Summary Unfollow a user or lab
// @Tags social
// @Produce json
// @Security BearerAuth
// @Param type path string true "Followee type" Enums(user, lab)
// @Param id path int true "Followee ID"
// @Success 200 {object} dto.APIResponse{data=dto.FollowResponse}
// @Failure 404 {object} dto.ErrorResponse "Not following"
// @Router /follow/{type}/{id} [delete]
func (c *SocialController) Unfollow(ctx *gin.Context) {
	userID, ok := requireUser(ctx)
	if !ok {
		return
	}
	followee, ok := followeeFromPath(ctx)
	if !ok {
		return
	}

	if err := c.socialService.Unfollow(ctx.Request.Context(), userID, followee); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, dto.FollowResponse{Followee: followee, Following: false}, "You unfollowed "+followee.String())
}

// RequestSupervision asks a professor to supervise the caller
// @Summary Request supervision
// @Tags supervision
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.SupervisionRequest true "Professor email"
// @Success 200 {object} dto.APIResponse{data=dto.SupervisionResponse}
// @Failure 400 {object} dto.ErrorResponse "Not a professor"
// @Failure 404 {object} dto.ErrorResponse "No user with that email"
// @Router /supervision [post]
func (c *SocialController) RequestSupervision(ctx *gin.Context) {
	userID, ok := requireUser(ctx)
	if !ok {
		return
	}

	var req dto.SupervisionRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	res, err := c.socialService.RequestSupervision(ctx.Request.Context(), userID, req.ProfEmail)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	message := "Your request has been sent."
	if !res.Created {
		message = res.Warning
	}
	respondOK(ctx, dto.SupervisionResponse{Created: res.Created, Warning: res.Warning}, message)
}

// ListApprovals returns the professor's pending requests and current students
// @Summary List supervision requests
// @Tags supervision
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.ApprovalsResponse}
// @Failure 403 {object} dto.ErrorResponse "Not a professor"
// @Router /approvals [get]
func (c *SocialController) ListApprovals(ctx *gin.Context) {
	userID, ok := requireUser(ctx)
	if !ok {
		return
	}

	pending, err := c.socialService.PendingApprovals(ctx.Request.Context(), userID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	students, err := c.socialService.Students(ctx.Request.Context(), userID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	respondOK(ctx, dto.ApprovalsResponse{
		Pending:  dto.NewPendingApprovalResponses(pending),
		Students: dto.NewUserResponses(students),
	}, "")
}

// ResolveApproval accepts or rejects a student's request
// @Summary Resolve a supervision request
// @Tags supervision
// @Produce json
// @Security BearerAuth
// @Param studentId path int true "Student ID"
// @Param action path string true "Decision" Enums(accept, reject, delete)
// @Success 200 {object} dto.APIResponse
// @Failure 400 {object} dto.ErrorResponse "Unknown action"
// @Failure 403 {object} dto.ErrorResponse "Not a professor"
// @Failure 404 {object} dto.ErrorResponse "No pending request"
// @Router /approvals/{studentId}/{action} [post]
func (c *SocialController) ResolveApproval(ctx *gin.Context) {
	userID, ok := requireUser(ctx)
	if !ok {
		return
	}
	studentID, ok := parseIDParam(ctx, "studentId")
	if !ok {
		return
	}
	decision, err := services.ParseSupervisionDecision(ctx.Param("action"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	if err := c.socialService.ResolveSupervision(ctx.Request.Context(), userID, studentID, decision); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	message := "Request rejected."
	if decision == services.DecisionAccept {
		message = "Request accepted."
	}
	respondOK(ctx, nil, message)
}
