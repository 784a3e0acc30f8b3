package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/learnhub/learnhub-api/internal/middleware"
	"github.com/learnhub/learnhub-api/internal/models"
	"github.com/learnhub/learnhub-api/internal/service"
	"github.com/learnhub/learnhub-api/pkg/config"
)

// Handlers bundles every HTTP handler for route registration.
type Handlers struct {
	Auth       *AuthHandler
	User       *UserHandler
	Course     *CourseHandler
	Lesson     *LessonHandler
	Enrollment *EnrollmentHandler
}

// RegisterRoutes mounts all API routes on the engine under cfg.APIPrefix.
func RegisterRoutes(r *gin.Engine, cfg *config.Config, h Handlers, authSvc *service.AuthService, metricsSvc *service.MetricsService) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"success":     true,
			"message":     "server is running",
			"environment": cfg.Env,
		})
	})

	if metricsSvc != nil {
		r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))
	}
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/register", h.Auth.Register)
		auth.POST("/login", h.Auth.Login)
		auth.POST("/refresh", h.Auth.Refresh)
		auth.GET("/me", middleware.JWT(authSvc), h.Auth.Me)
	}

	users := api.Group("/users")
	{
		users.GET("", middleware.JWT(authSvc), middleware.RequireRoles(models.RoleAdmin), h.User.List)
		users.PUT("/profile", middleware.JWT(authSvc), h.User.UpdateProfile)
		users.GET("/:id", h.User.Profile)
		users.DELETE("/:id", middleware.JWT(authSvc), middleware.RequireRoles(models.RoleAdmin), h.User.Delete)
	}

	courses := api.Group("/courses")
	{
		courses.GET("", middleware.OptionalJWT(authSvc), h.Course.List)
		courses.POST("", middleware.JWT(authSvc), middleware.RequireRoles(models.RoleInstructor, models.RoleAdmin), h.Course.Create)
		courses.GET("/instructor/my-courses", middleware.JWT(authSvc), h.Course.MyCourses)
		courses.GET("/:id", middleware.OptionalJWT(authSvc), h.Course.Get)
		courses.PUT("/:id", middleware.JWT(authSvc), h.Course.Update)
		courses.DELETE("/:id", middleware.JWT(authSvc), h.Course.Delete)
		courses.PATCH("/:id/publish", middleware.JWT(authSvc), h.Course.TogglePublish)
		courses.POST("/:id/reviews", middleware.JWT(authSvc), h.Course.AddReview)
		courses.POST("/:id/lessons", middleware.JWT(authSvc), h.Lesson.Create)
		courses.GET("/:id/lessons", h.Lesson.ListByCourse)
	}

	lessons := api.Group("/lessons")
	{
		lessons.GET("/:id", h.Lesson.Get)
		lessons.PUT("/:id", middleware.JWT(authSvc), h.Lesson.Update)
		lessons.DELETE("/:id", middleware.JWT(authSvc), h.Lesson.Delete)
	}

	enrollments := api.Group("/enrollments", middleware.JWT(authSvc))
	{
		enrollments.GET("/my-enrollments", h.Enrollment.MyEnrollments)
		enrollments.POST("/:courseId/enroll", h.Enrollment.Enroll)
		enrollments.GET("/:courseId", h.Enrollment.Detail)
		enrollments.DELETE("/:courseId/unenroll", h.Enrollment.Unenroll)
		enrollments.POST("/:courseId/lessons/:lessonId/complete", h.Enrollment.CompleteLesson)
		enrollments.GET("/:courseId/certificate", h.Enrollment.Certificate)
	}
}
