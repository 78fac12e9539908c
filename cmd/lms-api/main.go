package main

import (
	"fmt"
	"log"

	_ "github.com/noah-isme/lms-go-api/api/swagger"
	"github.com/noah-isme/lms-go-api/internal/handler"
	"github.com/noah-isme/lms-go-api/internal/repository"
	"github.com/noah-isme/lms-go-api/internal/router"
	"github.com/noah-isme/lms-go-api/internal/service"
	"github.com/noah-isme/lms-go-api/pkg/cache"
	"github.com/noah-isme/lms-go-api/pkg/config"
	"github.com/noah-isme/lms-go-api/pkg/database"
	"github.com/noah-isme/lms-go-api/pkg/logger"
)

// @title LMS API
// @version 1.0.0
// @description Grade computation and video progress engine for the LMS.
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	metricsService := service.NewMetricsService()

	var cacheService *service.CacheService
	if cfg.Cache.Enabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Fatalw("failed to connect to redis", "error", err)
		}
		defer redisClient.Close()
		cacheRepo := repository.NewCacheRepository(redisClient, logr)
		cacheService = service.NewCacheService(cacheRepo, metricsService, cfg.Cache.TTL, logr, true)
	}

	userRepo := repository.NewUserRepository(db)
	componentRepo := repository.NewGradeComponentRepository(db)
	ruleRepo := repository.NewGradeRuleRepository(db)
	gradeRepo := repository.NewGradeRepository(db)
	finalRepo := repository.NewFinalGradeRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	progressRepo := repository.NewProgressRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)

	authService := service.NewAuthService(userRepo, nil, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "lms-api",
	})
	componentService := service.NewGradeComponentService(componentRepo, nil, logr)
	ruleService := service.NewGradeRuleService(ruleRepo, componentRepo, nil, logr)
	progressService := service.NewProgressService(progressRepo, courseRepo, cfg.Progress.CompletionThreshold, nil, logr)
	gradeService := service.NewGradeService(
		gradeRepo,
		finalRepo,
		courseRepo,
		ruleService,
		componentRepo,
		progressService,
		assignmentRepo,
		attendanceRepo,
		cacheService,
		metricsService,
		cfg.Grading,
		nil,
		logr,
	)
	exportService := service.NewExportService(gradeService)

	engine := router.New(router.Dependencies{
		Config:           cfg,
		Logger:           logr,
		Auth:             authService,
		Metrics:          metricsService,
		Users:            userRepo,
		AuthHandler:      handler.NewAuthHandler(authService),
		ComponentHandler: handler.NewGradeComponentHandler(componentService),
		RuleHandler:      handler.NewGradeRuleHandler(ruleService),
		GradeHandler:     handler.NewGradeHandler(gradeService, exportService),
		ProgressHandler:  handler.NewProgressHandler(progressService),
		MetricsHandler:   handler.NewMetricsHandler(metricsService),
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := engine.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
