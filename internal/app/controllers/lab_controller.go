package controllers

import (
	"github.com/gin-gonic/gin"
	"github.com/yigit/labsphere/internal/app/models/dto"
	"github.com/yigit/labsphere/internal/app/services"
	"github.com/yigit/labsphere/internal/middleware"
	"github.com/yigit/labsphere/internal/pkg/helpers"
)

// LabController handles labs and lab membership
type LabController struct {
	labService services.LabService
}

// NewLabController creates a new LabController
func NewLabController(labService services.LabService) *LabController {
	return &LabController{labService: labService}
}

// ListLabs lists labs
// @Summary List labs
// @Tags labs
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param size query int false "Page size" default(10)
// @Success 200 {object} dto.APIResponse{data=dto.LabListResponse}
// @Router /labs [get]
func (c *LabController) ListLabs(ctx *gin.Context) {
	page, size := helpers.ParsePaginationParams(ctx, helpers.DefaultPageSize)

	result, err := c.labService.ListLabs(ctx.Request.Context(), page, size)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, dto.LabListResponse{
		Labs:       dto.NewLabResponses(result.Labs),
		Pagination: helpers.NewPaginationInfo(result.Total, result.Page, result.Size),
	}, "")
}

// CreateLab creates a lab with the caller as its first member
// @Summary Create a lab
// @Tags labs
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateLabRequest true "Lab"
// @Success 201 {object} dto.APIResponse{data=dto.LabResponse}
// @Failure 400 {object} dto.ErrorResponse "Validation failed"
// @Router /labs [post]
func (c *LabController) CreateLab(ctx *gin.Context) {
	userID, ok := requireUser(ctx)
	if !ok {
		return
	}

	var req dto.CreateLabRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	lab, err := c.labService.CreateLab(ctx.Request.Context(), userID, req.Name, req.Description, req.Image)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondCreated(ctx, dto.NewLabResponse(lab), "Lab created.")
}

// GetLab returns a lab page
// @Summary Get a lab
// @Tags labs
// @Produce json
// @Param id path int true "Lab ID"
// @Success 200 {object} dto.APIResponse{data=dto.LabDetailResponse}
// @Failure 404 {object} dto.ErrorResponse "Lab not found"
// @Router /labs/{id} [get]
func (c *LabController) GetLab(ctx *gin.Context) {
	labID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	viewerID, _ := middleware.CurrentUserID(ctx)

	detail, err := c.labService.GetLab(ctx.Request.Context(), labID, viewerID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, dto.LabDetailResponse{
		Lab:           dto.NewLabResponse(detail.Lab),
		Members:       dto.NewUserResponses(detail.Members),
		MemberCount:   detail.MemberCount,
		FollowerCount: detail.FollowerCount,
		IsMember:      detail.IsMember,
		IsFollowing:   detail.IsFollowing,
		Posts:         dto.NewPostResponses(detail.Posts),
	}, "")
}

// JoinLab adds the caller to a lab
// @Summary Join a lab
// @Tags labs
// @Produce json
// @Security BearerAuth
// @Param id path int true "Lab ID"
// @Success 200 {object} dto.APIResponse
// @Failure 404 {object} dto.ErrorResponse "Lab not found"
// @Failure 409 {object} dto.ErrorResponse "Already a member"
// @Router /labs/{id}/members [post]
func (c *LabController) JoinLab(ctx *gin.Context) {
	c.membership(ctx, true)
}

// LeaveLab removes the caller from a lab
// @Summary Leave a lab
// @Tags labs
// @Produce json
// @Security BearerAuth
// @Param id path int true "Lab ID"
// @Success 200 {object} dto.APIResponse
// @Failure 404 {object} dto.ErrorResponse "Lab not found or not a member"
// @Router /labs/{id}/members [delete]
func (c *LabController) LeaveLab(ctx *gin.Context) {
	c.membership(ctx, false)
}

func (c *LabController) membership(ctx *gin.Context, join bool) {
	userID, ok := requireUser(ctx)
	if !ok {
		return
	}
	labID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	var err error
	message := "You joined the lab."
	if join {
		err = c.labService.JoinLab(ctx.Request.Context(), labID, userID)
	} else {
		err = c.labService.LeaveLab(ctx.Request.Context(), labID, userID)
		message = "You left the lab."
	}
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, nil, message)
}
