package main

import (
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	_ "github.com/learnhub/learnhub-api/api/swagger"
	"github.com/learnhub/learnhub-api/internal/handler"
	"github.com/learnhub/learnhub-api/internal/middleware"
	"github.com/learnhub/learnhub-api/internal/repository"
	"github.com/learnhub/learnhub-api/internal/service"
	"github.com/learnhub/learnhub-api/pkg/cache"
	"github.com/learnhub/learnhub-api/pkg/config"
	"github.com/learnhub/learnhub-api/pkg/database"
	"github.com/learnhub/learnhub-api/pkg/export"
	"github.com/learnhub/learnhub-api/pkg/logger"
	corsmiddleware "github.com/learnhub/learnhub-api/pkg/middleware/cors"
	reqidmiddleware "github.com/learnhub/learnhub-api/pkg/middleware/requestid"
)

// @title LearnHub API
// @version 1.0.0
// @description REST backend for the LearnHub online course platform
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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

	if cfg.Database.RunMigrations {
		if err := database.Migrate(db); err != nil {
			logr.Sugar().Fatalw("failed to run migrations", "error", err)
		}
		logr.Info("migrations applied")
	}

	metricsSvc := service.NewMetricsService()

	var cacheRepo service.CacheRepository
	if cfg.Cache.Enabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, continuing without cache", "error", err)
		} else {
			repo := repository.NewCacheRepository(redisClient, logr)
			defer repo.Close() //nolint:errcheck
			cacheRepo = repo
		}
	}
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Cache.TTL, logr, cfg.Cache.Enabled && cacheRepo != nil)

	validate := validator.New()
	policy := service.NewAccessPolicy()

	userRepo := repository.NewUserRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	lessonRepo := repository.NewLessonRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)

	authSvc := service.NewAuthService(userRepo, validate, logr, cfg.JWT)
	userSvc := service.NewUserService(userRepo, courseRepo, policy, validate, logr)
	courseSvc := service.NewCourseService(courseRepo, lessonRepo, enrollmentRepo, policy, cacheSvc, metricsSvc, validate, logr)
	lessonSvc := service.NewLessonService(lessonRepo, courseRepo, policy, cacheSvc, validate, logr)
	enrollmentSvc := service.NewEnrollmentService(enrollmentRepo, courseRepo, lessonRepo, userRepo, cacheSvc, export.NewCertificateRenderer(), cfg.Certificates, logr)

	handlers := handler.Handlers{
		Auth:       handler.NewAuthHandler(authSvc),
		User:       handler.NewUserHandler(userSvc),
		Course:     handler.NewCourseHandler(courseSvc),
		Lesson:     handler.NewLessonHandler(lessonSvc),
		Enrollment: handler.NewEnrollmentHandler(enrollmentSvc),
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	handler.RegisterRoutes(r, cfg, handlers, authSvc, metricsSvc)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Info("server starting", zap.String("addr", addr), zap.String("env", cfg.Env))
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
