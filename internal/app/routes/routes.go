package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/campuspulse/campuspulse/internal/app/controllers"
	"github.com/campuspulse/campuspulse/internal/middleware"
	"github.com/campuspulse/campuspulse/internal/pkg/auth"
	"github.com/gin-gonic/gin"
)

// SetupRouter configures all application routes
func SetupRouter(
	router *gin.Engine,
	authController *controllers.AuthController,
	courseController *controllers.CourseController,
	studentController *controllers.StudentController,
	enrollmentController *controllers.EnrollmentController,
	aiController *controllers.AIController,
	dashboardController *controllers.DashboardController,
	authMiddleware *middleware.AuthMiddleware,
	loginLimit gin.HandlerFunc,
) {
	v1 := router.Group("/api/v1")

	// --- Public routes ---
	v1.POST("/login", loginLimit, authController.Login)

	// --- Authenticated routes ---
	authenticated := v1.Group("")
	authenticated.Use(authMiddleware.JWTAuth())

	teacherOnly := authMiddleware.RoleRequired(auth.RoleTeacher)

	authenticated.POST("/logout", authController.Logout)
	authenticated.GET("/dashboard", dashboardController.GetDashboard)

	courses := authenticated.Group("/courses")
	{
		courses.GET("", courseController.GetAllCourses)
		courses.GET("/:id", courseController.GetCourseByID)

		coursesTeacher := courses.Group("", teacherOnly)
		{
			coursesTeacher.GET("/export", courseController.ExportCourses)
			coursesTeacher.POST("", courseController.CreateCourse)
			coursesTeacher.PUT("/:id", courseController.UpdateCourse)
			coursesTeacher.DELETE("/:id", courseController.DeleteCourse)
		}
	}

	students := authenticated.Group("/students")
	{
		// Ownership is checked by the controller
		students.PUT("/:id/credential", authController.ChangeCredential)

		studentsTeacher := students.Group("", teacherOnly)
		{
			studentsTeacher.GET("", studentController.GetAllStudents)
			studentsTeacher.POST("", studentController.CreateStudent)
			studentsTeacher.GET("/:id", studentController.GetStudentByID)
			studentsTeacher.PUT("/:id", studentController.UpdateStudent)
			studentsTeacher.DELETE("/:id", studentController.DeleteStudent)
		}
	}

	enrollments := authenticated.Group("/enrollments")
	{
		enrollments.GET("", enrollmentController.GetEnrollments)
		enrollments.POST("", enrollmentController.CreateEnrollment)
	}

	ai := authenticated.Group("/ai", teacherOnly)
	{
		ai.POST("/course-description", aiController.GenerateCourseDescription)
		ai.POST("/resource-optimization", aiController.SuggestResourceOptimizations)
	}
}

// SetupOperationalRoutes registers /ping, /health and /metrics
func SetupOperationalRoutes(router *gin.Engine, ping func(ctx context.Context) error, metrics http.Handler) {
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong", "status": "success"})
	})

	router.GET("/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if ping != nil {
			if err := ping(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "database": "down"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "database": "up"})
	})

	if metrics != nil {
		router.GET("/metrics", gin.WrapH(metrics))
	}
}
