package routes

import (
	"quizapp/backend/config"
	"quizapp/backend/controllers"
	"quizapp/backend/middleware"
	"quizapp/backend/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func SetupRoutes(app *fiber.App, db *gorm.DB, cfg *config.Config) {
	// Auth routes
	authController := controllers.NewAuthController(db, cfg)
	app.Post("/api/auth/register", authController.Register)
	app.Post("/api/auth/login", authController.Login)

	// Middleware
	authMiddleware := middleware.AuthMiddleware(cfg)
	participantOnly := middleware.RoleMiddleware(models.RoleParticipant)
	experimenterOnly := middleware.RoleMiddleware(models.RoleExperimenter)

	// User routes
	userController := controllers.NewUserController(db, cfg)
	app.Get("/api/user/profile", authMiddleware, userController.GetProfile)
	app.Put("/api/user/profile", authMiddleware, userController.UpdateProfile)
	app.Put("/api/users/:id/role", authMiddleware, experimenterOnly, userController.SetRole)

	// Progress routes
	progressController := controllers.NewProgressController(db, cfg)
	app.Get("/api/progress", authMiddleware, participantOnly, progressController.GetProgress)

	// Experiment routes
	experimentsController := controllers.NewExperimentsController(db, cfg)
	experiments := app.Group("/api/experiments", authMiddleware)
	experiments.Get("/", experimentsController.ListExperiments)
	experiments.Post("/", experimenterOnly, experimentsController.CreateExperiment)
	experiments.Get("/:id", experimentsController.GetExperiment)
	experiments.Put("/:id", experimenterOnly, experimentsController.UpdateExperiment)
	experiments.Delete("/:id", experimenterOnly, experimentsController.DeleteExperiment)

	experiments.Get("/:id/results", experimenterOnly, experimentsController.Results)
	experiments.Get("/:id/assignment_sets", experimenterOnly, experimentsController.ListAssignmentSets)
	experiments.Post("/:id/assignment_sets", experimenterOnly, experimentsController.CreateAssignmentSet)
	experiments.Post("/:id/assignments/import", experimenterOnly, experimentsController.ImportAssignments)
	experiments.Get("/:id/assignments/export", experimenterOnly, experimentsController.ExportAssignments)

	experiments.Get("/:id/assignments/:aid", participantOnly, experimentsController.GetAssignment)
	experiments.Patch("/:id/assignments/:aid", participantOnly, experimentsController.AnswerAssignment)
	experiments.Get("/:id/confirm_done", participantOnly, experimentsController.ConfirmDone)
	experiments.Patch("/:id/finalize", participantOnly, experimentsController.Finalize)
	experiments.Get("/:id/done", participantOnly, experimentsController.Done)

	// Activity routes
	activitiesController := controllers.NewActivitiesController(db, cfg)
	activities := app.Group("/api/activities", authMiddleware, experimenterOnly)
	activities.Get("/", activitiesController.ListActivities)
	activities.Post("/", activitiesController.CreateActivity)
	activities.Get("/types", activitiesController.ActivityTypes)
	activities.Get("/:id", activitiesController.GetActivity)
	activities.Put("/:id", activitiesController.UpdateActivity)
	activities.Delete("/:id", activitiesController.DeleteActivity)
	activities.Post("/:id/datasets", activitiesController.LinkDataset)
	activities.Delete("/:id/datasets/:dsid", activitiesController.UnlinkDataset)
	activities.Post("/:id/choices", activitiesController.CreateChoice)
	activities.Put("/:id/choices/:cid", activitiesController.UpdateChoice)
	activities.Delete("/:id/choices/:cid", activitiesController.DeleteChoice)

	// Dataset routes
	datasetsController := controllers.NewDatasetsController(db, cfg)
	datasets := app.Group("/api/datasets", authMiddleware, experimenterOnly)
	datasets.Get("/", datasetsController.ListDatasets)
	datasets.Post("/", datasetsController.CreateDataset)
	datasets.Get("/:id", datasetsController.GetDataset)
	datasets.Put("/:id", datasetsController.UpdateDataset)
	datasets.Delete("/:id", datasetsController.DeleteDataset)
	datasets.Post("/:id/media_items", datasetsController.CreateMediaItem)
	datasets.Get("/:id/media_items/:mid", datasetsController.GetMediaItem)
	datasets.Put("/:id/media_items/:mid", datasetsController.UpdateMediaItem)
	datasets.Delete("/:id/media_items/:mid", datasetsController.DeleteMediaItem)
}
