package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/stemsi/courseware/internal/config"
	"github.com/stemsi/courseware/internal/handler"
	"github.com/stemsi/courseware/internal/middleware"
	"github.com/stemsi/courseware/internal/model"
	"github.com/stemsi/courseware/internal/response"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth      *handler.AuthHandler
	Course    *handler.CourseHandler
	Folder    *handler.FolderHandler
	Roster    *handler.RosterHandler
	Dashboard *handler.DashboardHandler
	WS        *handler.WSHandler
	System    *handler.SystemHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	verifier middleware.TokenVerifier,
	loginLimiter *middleware.RateLimiter,
	handlers *Handlers,
	cfg *config.Config,
	log zerolog.Logger,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.New()
	router.Use(gin.Recovery())

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Request ID first so the access log and every envelope carry it.
	router.Use(response.RequestIDMiddleware())
	router.Use(middleware.RequestLogger(log))
	router.Use(middleware.Metrics())

	// Uploads are mostly already-compressed media.
	router.Use(middleware.BrotliWithConfig(middleware.BrotliConfig{
		Quality:      middleware.DefaultBrotliConfig.Quality,
		MinLength:    middleware.DefaultBrotliConfig.MinLength,
		SkipPrefixes: []string{"/uploads", "/metrics"},
	}))

	// Stored file names are random, so a year of caching is safe.
	uploadsGroup := router.Group("/uploads")
	uploadsGroup.Use(middleware.CacheControl(365*24*time.Hour, true))
	{
		uploadsGroup.Static("/", cfg.UploadDir)
	}

	router.GET("/health", handlers.System.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	requireJWT := middleware.RequireAdminJWT(verifier)

	// ─── 1. Auth Group (Rate Limited) ──────────────────────────────────
	auth := router.Group("/api/v1/auth")
	{
		auth.POST("/admin/login", loginLimiter.Middleware(), handlers.Auth.AdminLogin)
		auth.GET("/admin/me", requireJWT, handlers.Auth.GetAdminProfile)
		auth.POST("/admin/logout", requireJWT, handlers.Auth.AdminLogout)
	}

	api := router.Group("/api/v1")

	// ─── 2. Courses & Batches ──────────────────────────────────────────
	api.GET("/courses", handlers.Course.ListCourses)
	api.GET("/courses/:course_id/batches", handlers.Course.ListBatches)
	api.POST("/courses",
		requireJWT, middleware.RequirePermission(model.PermissionCoursesWrite),
		handlers.Course.CreateCourse,
	)
	api.PUT("/courses/:course_id",
		requireJWT, middleware.RequirePermission(model.PermissionCoursesWrite),
		handlers.Course.UpdateCourse,
	)
	api.DELETE("/courses/:course_id",
		requireJWT, middleware.RequirePermission(model.PermissionCoursesWrite),
		handlers.Course.DeleteCourse,
	)
	api.POST("/courses/:course_id/batches",
		requireJWT, middleware.RequirePermission(model.PermissionCoursesWrite),
		handlers.Course.CreateBatch,
	)

	// ─── 3. Folders & Files ────────────────────────────────────────────
	api.GET("/batches/:batch_id/folders", handlers.Folder.ListFolders)
	api.GET("/folders/:folder_id/files", handlers.Folder.ListFiles)

	content := api.Group("")
	content.Use(requireJWT, middleware.RequirePermission(model.PermissionContentWrite))
	{
		content.POST("/folders", handlers.Folder.CreateFolder)
		content.PUT("/folders/:folder_id", handlers.Folder.RenameFolder)
		content.PATCH("/folders/:folder_id", handlers.Folder.RenameFolder)
		content.DELETE("/folders/:folder_id", handlers.Folder.DeleteFolder)
		content.POST("/folders/:folder_id/files", handlers.Folder.UploadFile)
	}

	// ─── 4. Roster ─────────────────────────────────────────────────────
	api.GET("/courses/:course_id/batches/:batch_id/students", handlers.Roster.ListMembers)
	api.GET("/admin/students", handlers.Roster.ListStudents)
	api.GET("/admin/dashboard", requireJWT, handlers.Dashboard.GetDashboardData)

	roster := api.Group("/courses/:course_id/batches/:batch_id/students")
	roster.Use(requireJWT, middleware.RequirePermission(model.PermissionRosterWrite))
	{
		roster.POST("", handlers.Roster.AddMember)
		roster.DELETE("/:student", handlers.Roster.RemoveMember)
	}

	// ─── 5. WebSocket ──────────────────────────────────────────────────
	ws := router.Group("/ws/v1")
	{
		ws.GET("/batches/:batch_id/events", handlers.WS.BatchEvents)
	}

	return router
}
