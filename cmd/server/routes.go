package main

import (
	"github.com/gin-gonic/gin"
	"github.com/mediafolio/mediafolio/internal/handlers"
	"github.com/mediafolio/mediafolio/internal/metrics"
	"github.com/mediafolio/mediafolio/internal/middleware"
	"github.com/mediafolio/mediafolio/pkg/logger"
)

// registerRoutes sets up all HTTP routes on the given Gin engine.
func registerRoutes(r *gin.Engine, svc *appServices) {
	// Middleware
	r.Use(logger.GinLogger(), logger.GinRecovery())
	r.Use(metrics.Middleware())
	r.Use(middleware.CORS(svc.corsOrigins...))

	authLimiter := middleware.NewRateLimiter(1, 5)
	uploadLimiter := middleware.NewRateLimiter(0.5, 10)

	r.GET("/health", svc.healthHandler.CheckHealth)
	r.GET("/metrics", handlers.Metrics())

	api := r.Group("/api")
	api.Use(middleware.AuditLog())
	{
		// Auth routes (public)
		auth := api.Group("/auth")
		{
			auth.POST("/register", authLimiter.Middleware(), svc.authHandler.Register)
			auth.POST("/login", authLimiter.Middleware(), svc.authHandler.Login)
			auth.POST("/refresh", svc.authHandler.Refresh)
			auth.GET("/config", svc.authHandler.GetAuthConfig)
		}

		// Public reads; a valid token widens what is visible
		public := api.Group("")
		public.Use(middleware.OptionalAuth())
		{
			public.GET("/profiles/:username", svc.profileHandler.Get)
			public.GET("/profiles/:username/avatar", svc.profileHandler.Avatar)
			public.GET("/teams/:id", svc.teamHandler.Get)
			public.GET("/media/:id/file", svc.mediaHandler.File)
			public.GET("/projects", svc.projectHandler.Browse)
			public.GET("/projects/:slug", svc.projectHandler.Detail)
			public.GET("/projects/:slug/media", svc.interactionHandler.ListMedia)
			public.GET("/projects/:slug/thumbnail", svc.projectHandler.Thumbnail)
			public.GET("/categories", svc.categoryHandler.List)
			public.GET("/categories/:slug", svc.categoryHandler.Get)
		}

		// Protected routes
		protected := api.Group("")
		protected.Use(middleware.AuthRequired())
		{
			// Auth
			protected.GET("/auth/me", svc.authHandler.GetCurrentUser)
			protected.POST("/auth/logout", svc.authHandler.Logout)
			protected.POST("/auth/change-password", svc.authHandler.ChangePassword)

			// Profile
			protected.PUT("/profile", svc.profileHandler.Update)
			protected.POST("/profile/avatar", uploadLimiter.PerUser(), svc.profileHandler.UploadAvatar)

			// Teams
			protected.GET("/teams", svc.teamHandler.List)
			protected.POST("/teams", svc.teamHandler.Create)
			protected.DELETE("/teams/:id", svc.teamHandler.Delete)
			protected.POST("/teams/:id/members", svc.teamHandler.AddMember)
			protected.PUT("/teams/:id/members/:userID", svc.teamHandler.UpdateMember)
			protected.DELETE("/teams/:id/members/:userID", svc.teamHandler.RemoveMember)

			// Media library
			protected.GET("/media", svc.mediaHandler.Library)
			protected.POST("/media", uploadLimiter.PerUser(), svc.mediaHandler.Upload)
			protected.GET("/media/:id", svc.mediaHandler.Get)
			protected.PUT("/media/:id", svc.mediaHandler.Update)
			protected.DELETE("/media/:id", svc.mediaHandler.Delete)

			// Projects
			protected.GET("/dashboard", svc.projectHandler.Dashboard)
			protected.POST("/projects", svc.projectHandler.Create)
			protected.PUT("/projects/:slug", svc.projectHandler.Update)
			protected.DELETE("/projects/:slug", svc.projectHandler.Delete)
			protected.POST("/projects/:slug/publish", svc.projectHandler.Publish)
			protected.POST("/projects/:slug/archive", svc.projectHandler.Archive)
			protected.POST("/projects/:slug/thumbnail", uploadLimiter.PerUser(), svc.projectHandler.UploadThumbnail)

			// Associations and interactions
			protected.POST("/projects/:slug/media", svc.interactionHandler.AddMedia)
			protected.DELETE("/associations/:id", svc.interactionHandler.RemoveMedia)
			protected.POST("/projects/:slug/comments", svc.interactionHandler.Comment)
			protected.DELETE("/comments/:id", svc.interactionHandler.DeleteComment)
			protected.POST("/projects/:slug/like", svc.interactionHandler.ToggleLike)
		}

		// Admin routes
		admin := api.Group("/admin")
		admin.Use(middleware.AuthRequired(), middleware.AdminRequired())
		{
			admin.POST("/categories", svc.categoryHandler.Create)
			admin.GET("/system-logs", svc.systemLogHandler.List)
			admin.GET("/system-logs/modules", svc.systemLogHandler.GetModules)
		}
	}
}
