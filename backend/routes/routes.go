package routes

import (
	"log"

	"lms/backend/config"
	"lms/backend/controllers"
	"lms/backend/middleware"
	"lms/backend/models"
	"lms/backend/services"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Services bundles the shared service layer handed to the controllers.
type Services struct {
	Attempts     *services.AttemptService
	Requirements *services.RequirementService
	Progress     *services.ProgressService
	Tasks        *services.TaskRunner
}

func SetupRoutes(app *fiber.App, db *gorm.DB, cfg *config.Config, rdb *redis.Client, logger *log.Logger, svc Services) {
	// Auth routes
	authController := controllers.NewAuthController(db, cfg, rdb, logger, svc.Tasks)
	app.Post("/api/auth/register", authController.Register)
	app.Post("/api/auth/login", authController.Login)

	// Middleware
	authMiddleware := middleware.AuthMiddleware(cfg)

	// User routes
	userController := controllers.NewUserController(db, cfg, logger)
	app.Get("/api/user/profile", authMiddleware, userController.GetProfile)
	app.Put("/api/user/profile", authMiddleware, userController.UpdateProfile)

	// Catalog routes
	overviewController := controllers.NewOverviewController(db, cfg, logger)
	app.Get("/api/overview/courses", authMiddleware, overviewController.SearchCourses)
	app.Get("/api/overview/topics", authMiddleware, overviewController.GetTopics)

	// Courses routes
	coursesController := controllers.NewCoursesController(db, cfg, logger, svc.Progress, svc.Tasks)
	courses := app.Group("/api/courses", authMiddleware)
	courses.Get("/:id", coursesController.GetCourseDetails)
	courses.Post("/:id/enroll", middleware.RequireCapability(models.CapEnrollInCourse), coursesController.Enroll)
	courses.Delete("/:id/enroll", middleware.RequireCapability(models.CapEnrollInCourse), coursesController.DropEnrollment)

	// Lesson tracking routes
	lessonsController := controllers.NewLessonsController(db, cfg, logger, svc.Requirements)
	lessons := app.Group("/api/lessons", authMiddleware, middleware.RequireCapability(models.CapTrackProgress))
	lessons.Post("/:id/track-time", lessonsController.TrackTime)
	lessons.Post("/:id/track-video", lessonsController.TrackVideo)
	lessons.Get("/:id/progress", lessonsController.GetLessonProgress)
	lessons.Post("/:id/complete", lessonsController.CompleteLesson)

	// Tests routes
	testsController := controllers.NewTestsController(db, cfg, logger, svc.Attempts)
	tests := app.Group("/api/tests", authMiddleware)
	tests.Get("/available", testsController.GetAvailableTests)
	tests.Post("/:id/start", middleware.RequireCapability(models.CapTakeTests), testsController.StartTest)
	tests.Get("/:id/attempts", testsController.GetAttempts)
	tests.Get("/:id/attempts/:attemptId", testsController.GetAttemptDetail)
	tests.Put("/:id/attempts/:attemptId/submit", middleware.RequireCapability(models.CapTakeTests), testsController.SubmitAttempt)

	// Progress routes
	progressController := controllers.NewProgressController(db, cfg, logger, svc.Progress, svc.Requirements)
	progress := app.Group("/api/progress", authMiddleware)
	progress.Get("/enrollments", progressController.GetEnrollments)
	progress.Get("/summary", progressController.GetLearningSummary)
	progress.Get("/courses/:id", progressController.GetCourseProgress)
	progress.Post("/courses/:id/recompute", progressController.RecomputeProgress)

	// Admin routes for courses
	adminCourses := app.Group("/api/admin/courses", authMiddleware, middleware.RequireCapability(models.CapManageCourses))
	adminCourses.Post("/", coursesController.CreateCourse)
	adminCourses.Put("/:id", coursesController.UpdateCourse)
	adminCourses.Post("/:id/lessons", coursesController.AddLesson)
	adminCourses.Put("/:id/lessons/:lessonId", coursesController.UpdateLesson)
	adminCourses.Put("/:id/lessons-order", coursesController.ReorderLessons)
	adminCourses.Delete("/:id", middleware.RequireCapability(models.CapDeleteContent), coursesController.DeleteCourse)

	// Admin routes for tests
	adminTests := app.Group("/api/admin/tests", authMiddleware, middleware.RequireCapability(models.CapManageTests))
	adminTests.Post("/", testsController.CreateTest)
	adminTests.Put("/:id", testsController.UpdateTest)
	adminTests.Post("/:id/questions", testsController.AddQuestion)
	adminTests.Put("/:id/questions/:questionId", testsController.UpdateQuestion)
	adminTests.Delete("/:id", middleware.RequireCapability(models.CapDeleteContent), testsController.DeleteTest)

	// Analytics routes
	analyticsController := controllers.NewAnalyticsController(db, cfg, logger)
	analytics := app.Group("/api/analytics", authMiddleware, middleware.RequireCapability(models.CapViewAnalytics))
	analytics.Get("/tests/:id", analyticsController.GetTestStatistics)
	analytics.Get("/courses/:id", analyticsController.GetCourseAnalytics)

	// Admin user management
	userAdmin := app.Group("/api/admin/users", authMiddleware, middleware.RequireCapability(models.CapManageUsers))
	userAdmin.Put("/:id/role", userController.SetRole)
}
