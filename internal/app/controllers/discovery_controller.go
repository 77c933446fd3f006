package controllers

import (
	"github.com/gin-gonic/gin"
	"github.com/yigit/labsphere/internal/app/models/dto"
	"github.com/yigit/labsphere/internal/app/services"
	"github.com/yigit/labsphere/internal/middleware"
)

// DiscoveryController serves trending, search and the interest vocabulary
type DiscoveryController struct {
	contentService services.ContentService
	accountService services.AccountService
}

// NewDiscoveryController creates a new DiscoveryController
func NewDiscoveryController(contentService services.ContentService, accountService services.AccountService) *DiscoveryController {
	return &DiscoveryController{contentService: contentService, accountService: accountService}
}

// Trending returns the most liked posts and most followed users
// @Summary Trending posts and users
// @Tags discovery
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.TrendingResponse}
// @Router /trending [get]
func (c *DiscoveryController) Trending(ctx *gin.Context) {
	result, err := c.contentService.Trending(ctx.Request.Context())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	users := make([]dto.TrendingUserResponse, 0, len(result.Users))
	for _, u := range result.Users {
		users = append(users, dto.TrendingUserResponse{User: dto.NewUserResponse(u.User), Followers: u.Followers})
	}
	respondOK(ctx, dto.TrendingResponse{Posts: dto.NewPostResponses(result.Posts), Users: users}, "")
}

// Search finds students, professors, labs or users sharing an interest
// @Summary Search
// @Description Case-sensitive substring match on names
// @Tags discovery
// @Produce json
// @Param kind query string true "What to search" Enums(student, professor, lab, interest)
// @Param q query string true "Search text"
// @Success 200 {object} dto.APIResponse{data=dto.SearchResponse}
// @Failure 400 {object} dto.ErrorResponse "Invalid kind or empty query"
// @Router /search [get]
func (c *DiscoveryController) Search(ctx *gin.Context) {
	var query dto.SearchQuery
	if !middleware.BindQuery(ctx, &query) {
		return
	}

	result, err := c.contentService.Search(ctx.Request.Context(), services.SearchKind(query.Kind), query.Query)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	resp := dto.SearchResponse{Kind: string(result.Kind), Query: result.Query}
	if result.Kind == services.SearchLab {
		resp.Labs = dto.NewLabResponses(result.Labs)
	} else {
		resp.Users = dto.NewUserResponses(result.Users)
	}
	respondOK(ctx, resp, "")
}

// ListInterests returns the interest vocabulary
// @Summary List interests
// @Tags discovery
// @Produce json
// @Success 200 {object} dto.APIResponse{data=[]dto.InterestResponse}
// @Router /interests [get]
func (c *DiscoveryController) ListInterests(ctx *gin.Context) {
	interests, err := c.accountService.ListInterests(ctx.Request.Context())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, dto.NewInterestResponses(interests), "")
}
