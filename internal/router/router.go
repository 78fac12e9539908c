package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/lms-go-api/internal/handler"
	"github.com/noah-isme/lms-go-api/internal/middleware"
	"github.com/noah-isme/lms-go-api/internal/models"
	"github.com/noah-isme/lms-go-api/internal/repository"
	"github.com/noah-isme/lms-go-api/internal/service"
	"github.com/noah-isme/lms-go-api/pkg/config"
	"github.com/noah-isme/lms-go-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/lms-go-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/lms-go-api/pkg/middleware/requestid"
)

// Dependencies carries everything the HTTP surface needs.
type Dependencies struct {
	Config  *config.Config
	Logger  *zap.Logger
	Auth    *service.AuthService
	Metrics *service.MetricsService
	Users   *repository.UserRepository

	AuthHandler      *handler.AuthHandler
	ComponentHandler *handler.GradeComponentHandler
	RuleHandler      *handler.GradeRuleHandler
	GradeHandler     *handler.GradeHandler
	ProgressHandler  *handler.ProgressHandler
	MetricsHandler   *handler.MetricsHandler
}

// New assembles the gin engine with middleware and all routes.
func New(deps Dependencies) *gin.Engine {
	if deps.Config.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(deps.Logger))
	r.Use(corsmiddleware.New(deps.Config.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(deps.Metrics))

	r.GET("/health", deps.MetricsHandler.Health)
	r.GET("/metrics", deps.MetricsHandler.Prometheus)
	r.GET("/metrics/snapshot", deps.MetricsHandler.Snapshot)
	r.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	if deps.Config.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(deps.Config.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/login", deps.AuthHandler.Login)
		auth.POST("/refresh", deps.AuthHandler.Refresh)
		auth.POST("/logout", middleware.JWT(deps.Auth), deps.AuthHandler.Logout)
		auth.POST("/change-password", middleware.JWT(deps.Auth), deps.AuthHandler.ChangePassword)
		auth.GET("/me", middleware.JWT(deps.Auth), deps.AuthHandler.Me)
	}

	protected := api.Group("")
	protected.Use(middleware.JWT(deps.Auth))

	staff := middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin, models.RoleTeacher)
	admin := middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin)

	components := protected.Group("/grade-components")
	{
		components.GET("", deps.ComponentHandler.List)
		components.POST("", admin, middleware.Audit(deps.Users, "create", "grade_component"), deps.ComponentHandler.Create)
		components.PUT("/:code", admin, middleware.Audit(deps.Users, "update", "grade_component"), deps.ComponentHandler.Update)
		components.DELETE("/:code", admin, middleware.Audit(deps.Users, "delete", "grade_component"), deps.ComponentHandler.Delete)
	}

	rules := protected.Group("/grade-rules")
	{
		rules.GET("", staff, deps.RuleHandler.List)
		rules.GET("/resolve", staff, deps.RuleHandler.Resolve)
		rules.PUT("", staff, middleware.Audit(deps.Users, "upsert", "grade_rule"), deps.RuleHandler.Upsert)
	}

	protected.POST("/grades", staff, middleware.Audit(deps.Users, "save", "grade"), deps.GradeHandler.Save)

	classes := protected.Group("/classes/:classId")
	{
		classes.GET("/grades", staff, deps.GradeHandler.Board)
		classes.GET("/grades/export", staff, deps.GradeHandler.Export)
		classes.POST("/grades/recalculate", staff, deps.GradeHandler.Recalculate)
		classes.POST("/grades/finalize", staff, middleware.Audit(deps.Users, "finalize", "grades"), deps.GradeHandler.Finalize)
		classes.GET("/grades/:studentId", deps.GradeHandler.FinalGrade)
	}

	progress := protected.Group("")
	{
		progress.POST("/progress/watch", deps.ProgressHandler.Watch)
		progress.GET("/chapters/:chapterId/locks", deps.ProgressHandler.LessonLocks)
		progress.GET("/chapters/:chapterId/progress", deps.ProgressHandler.ChapterProgress)
		progress.GET("/subjects/:subjectId/progress", deps.ProgressHandler.SubjectOverview)
	}

	return r
}
