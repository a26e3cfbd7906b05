package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/cppla/jobboard/config"
	"github.com/cppla/jobboard/controllers"
	"github.com/cppla/jobboard/middleware"
	"github.com/cppla/jobboard/services"
	"github.com/cppla/jobboard/utils"
)

// Services bundles what the controllers need.
type Services struct {
	Accounts     *services.AccountService
	Jobs         *services.JobService
	Applications *services.ApplicationService
}

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(svc Services) *gin.Engine {
	cfg := config.Get()
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	// access log and panics go to their own rolling file
	gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
	if err == nil {
		r.Use(utils.Ginzap(gl, time.RFC3339, true))
		r.Use(utils.RecoveryWithZap(gl, false))
	} else {
		utils.Sugar.Warnf("gin logger unavailable, falling back to default recovery: %v", err)
		r.Use(gin.Recovery())
	}

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	// a multipart request keeps up to this much in memory; the rest spills to temp files
	r.MaxMultipartMemory = 8 << 20

	r.GET("/", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{
			"name": cfg.AppName,
			"routes": gin.H{
				"register": []string{"/api/v1/auth/register/student", "/api/v1/auth/register/company"},
				"login":    "/api/v1/auth/login",
				"search":   "/api/v1/search/jobs?q=",
			},
		})
	})
	r.GET("/health", func(ctx *gin.Context) {
		redis := utils.RedisStatus(ctx.Request.Context())
		if redis == utils.RedisUnreachable {
			utils.Respond(ctx, http.StatusServiceUnavailable, 50300, "degraded", gin.H{"status": "degraded", "redis": redis})
			return
		}
		utils.Success(ctx, gin.H{"status": "ok", "redis": redis})
	})

	authController := controllers.NewAuthController(svc.Accounts, time.Duration(cfg.RegisterAttemptCooldownSec)*time.Second)
	jobController := controllers.NewJobController(svc.Jobs)
	appController := controllers.NewApplicationController(svc.Applications, int64(cfg.UploadMaxSizeMB)<<20)

	limiter := middleware.NewRateLimiter(cfg.RateLimitPerMinute)
	api := r.Group("/api/v1")

	authGroup := api.Group("/auth")
	authGroup.Use(limiter.Middleware())
	authGroup.POST("/register/student", authController.RegisterStudent)
	authGroup.POST("/register/company", authController.RegisterCompany)
	authGroup.POST("/login", authController.Login)
	authGroup.POST("/logout", middleware.AuthRequired(), authController.Logout)

	protected := api.Group("")
	protected.Use(middleware.AuthRequired(), limiter.Middleware())
	protected.GET("/dashboard", authController.Dashboard)
	protected.GET("/search/jobs", jobController.SearchJobs)
	protected.GET("/search/jobs/:id", jobController.JobDetail)
	protected.GET("/applications/:id/cv", appController.DownloadCV)

	company := protected.Group("")
	company.Use(middleware.CompanyOnly())
	company.GET("/jobs", jobController.ListJobs)
	company.POST("/jobs", jobController.CreateJob)
	company.GET("/jobs/:id", jobController.GetJob)
	company.PUT("/jobs/:id", jobController.UpdateJob)
	company.GET("/jobs/:id/delete", jobController.ConfirmDelete)
	company.POST("/jobs/:id/delete", jobController.DeleteJob)
	company.GET("/jobs/:id/applications", jobController.JobApplications)
	company.GET("/applications/received", appController.Received)
	company.GET("/applications/:id/detail", appController.Detail)
	company.POST("/applications/:id/status/:status", appController.UpdateStatus)

	student := protected.Group("")
	student.Use(middleware.StudentOnly())
	student.POST("/apply/:id", appController.Apply)
	student.GET("/my-applications", appController.MyApplications)
	student.POST("/my-applications/:id/delete", appController.DeleteMyApplication)

	r.NoRoute(func(ctx *gin.Context) {
		if strings.HasPrefix(ctx.Request.URL.Path, "/api/") {
			utils.Error(ctx, http.StatusNotFound, 40400, "api route not found")
			return
		}
		utils.Error(ctx, http.StatusNotFound, 40400, "not found")
	})
	r.NoMethod(func(ctx *gin.Context) {
		utils.Error(ctx, http.StatusMethodNotAllowed, 40500, "method not allowed")
	})
	r.HandleMethodNotAllowed = true

	return r
}
