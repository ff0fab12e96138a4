package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/souqly/backend/internal/config"
	"github.com/souqly/backend/internal/handlers"
	"github.com/souqly/backend/internal/middleware"
	"github.com/souqly/backend/internal/ratelimit"
	"github.com/souqly/backend/internal/services/listing"
)

// RegisterRoutes configures all API routes
func RegisterRoutes(router *gin.Engine, db *gorm.DB, limiter ratelimit.Limiter, listingService *listing.Service, cfg *config.Config) {
	ipLimiter := middleware.NewIPRateLimiter(cfg.RateLimit.IPPerSecond, cfg.RateLimit.IPBurst)
	router.Use(ipLimiter.Middleware())

	authHandler := handlers.NewAuthHandler(db)
	listingHandler := handlers.NewListingHandler(listingService)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.Static(cfg.Uploads.BaseURL, cfg.Uploads.Dir)

	auth := router.Group("/api/auth")
	{
		auth.POST("/register/",
			middleware.ActionRateLimiter(limiter, "register", cfg.RateLimit.RegisterAttempts),
			authHandler.Register)
		auth.POST("/login/",
			middleware.ActionRateLimiter(limiter, "login", cfg.RateLimit.LoginAttempts),
			authHandler.Login)
		auth.POST("/refresh/", authHandler.RefreshToken)

		profile := auth.Group("/", middleware.AuthMiddleware())
		{
			profile.GET("/profile/", authHandler.GetProfile)
			profile.PUT("/profile/", authHandler.UpdateProfile)
			profile.PATCH("/profile/", authHandler.UpdateProfile)

			profile.POST("/2fa/setup/", authHandler.SetupTwoFactor)
			profile.POST("/2fa/enable/", authHandler.EnableTwoFactor)
			profile.POST("/2fa/disable/", authHandler.DisableTwoFactor)
		}
	}

	listings := router.Group("/api/listings")
	{
		// Reads work with or without a token; a staff token widens visibility
		listings.GET("/", middleware.OptionalAuthMiddleware(), listingHandler.List)
		listings.GET("/:id/", middleware.OptionalAuthMiddleware(), listingHandler.Get)

		authed := listings.Group("/", middleware.AuthMiddleware())
		{
			authed.POST("/", listingHandler.Create)
			authed.GET("/my_listings/", listingHandler.MyListings)
			authed.PUT("/:id/", listingHandler.Update)
			authed.PATCH("/:id/", listingHandler.Update)
			authed.DELETE("/:id/", listingHandler.Delete)

			authed.POST("/:id/approve/", middleware.StaffMiddleware(), listingHandler.Approve)
			authed.POST("/:id/reject/", middleware.StaffMiddleware(), listingHandler.Reject)
			authed.POST("/:id/mark_sold/", listingHandler.MarkSold)
		}
	}
}
