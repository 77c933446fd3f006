package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/yigit/labsphere/internal/app/controllers"
	"github.com/yigit/labsphere/internal/middleware"
	"github.com/yigit/labsphere/internal/pkg/websocket"
)

// Controllers groups every handler the route table needs
type Controllers struct {
	Auth      *controllers.AuthController
	Account   *controllers.AccountController
	Post      *controllers.PostController
	Social    *controllers.SocialController
	Lab       *controllers.LabController
	Discovery *controllers.DiscoveryController
	Health    *controllers.HealthController
	LiveFeed  *websocket.Handler
}

// SetupRouter configures all application routes
func SetupRouter(router *gin.Engine, c Controllers, authMiddleware *middleware.AuthMiddleware) {
	v1 := router.Group("/api/v1")

	v1.GET("/health", c.Health.Health)

	// --- Public routes ---
	auth := v1.Group("/auth")
	{
		auth.POST("/register", c.Auth.Register)
		auth.POST("/login", c.Auth.Login)
		auth.POST("/refresh", c.Auth.RefreshToken)
		auth.POST("/logout", c.Auth.Logout)
		auth.GET("/verify/:token", c.Auth.VerifyEmail)
	}

	v1.GET("/posts", c.Post.ListPosts)
	v1.GET("/labs", c.Lab.ListLabs)
	v1.GET("/trending", c.Discovery.Trending)
	v1.GET("/search", c.Discovery.Search)
	v1.GET("/interests", c.Discovery.ListInterests)

	// Pages that look different to a signed-in viewer
	optional := v1.Group("")
	optional.Use(authMiddleware.OptionalJWTAuth())
	{
		optional.GET("/users/:username", c.Account.GetProfile)
		optional.GET("/posts/:id", c.Post.GetPost)
		optional.GET("/labs/:id", c.Lab.GetLab)
	}

	// --- Authenticated routes ---
	authenticated := v1.Group("")
	authenticated.Use(authMiddleware.JWTAuth())
	{
		// Reachable before the email address is verified
		authenticated.POST("/auth/resend-verification", c.Auth.ResendVerification)
		authenticated.GET("/account", c.Account.GetAccount)
		authenticated.PUT("/account", c.Account.UpdateAccount)
		authenticated.GET("/feed", c.Post.Feed)
		authenticated.GET("/feed/live", c.LiveFeed.HandleConnection)
	}

	verified := authenticated.Group("")
	verified.Use(authMiddleware.EmailVerificationRequired())
	{
		verified.PUT("/account/interests", c.Account.SetInterests)

		verified.POST("/posts", c.Post.CreatePost)
		verified.POST("/posts/:id/like", c.Post.Like)
		verified.DELETE("/posts/:id/like", c.Post.Unlike)

		verified.POST("/follow/:type/:id", c.Social.Follow)
		verified.DELETE("/follow/:type/:id", c.Social.Unfollow)

		verified.POST("/supervision", c.Social.RequestSupervision)
		verified.GET("/approvals", c.Social.ListApprovals)
		verified.POST("/approvals/:studentId/:action", c.Social.ResolveApproval)

		verified.POST("/labs", c.Lab.CreateLab)
		verified.POST("/labs/:id/members", c.Lab.JoinLab)
		verified.DELETE("/labs/:id/members", c.Lab.LeaveLab)
	}
}
