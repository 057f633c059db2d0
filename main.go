package main

import (
	"log"
	"ventylab/ai"
	"ventylab/config"
	aiController "ventylab/controllers/ai"
	progressController "ventylab/controllers/progress"
	"ventylab/database"
	"ventylab/routers/aiRoutes"
	"ventylab/routers/authRoutes"
	"ventylab/routers/changelogRoutes"
	"ventylab/routers/curriculumRoutes"
	"ventylab/routers/overrideRoutes"
	"ventylab/routers/progressRoutes"
	"ventylab/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
)

func main() {
	config.LoadConfig()
	database.ConnectDb()

	app := fiber.New()

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE",
		AllowHeaders: "Content-Type,Authorization",
	}))

	// Enable the built-in logger middleware to log all requests
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${ip} ${method} ${path} ${status} ${latency}\n",
	}))

	// Wire the AI provider chain and hand it to the analysis controller
	manager := ai.NewManager(config.AppConfig)
	aiController.Setup(manager)

	authRoutes.SetupAuthRoutes(app)
	curriculumRoutes.SetupAdminCurriculumRoutes(app)
	curriculumRoutes.SetupCurriculumRoutes(app)
	progressRoutes.SetupProgressRoutes(app)
	overrideRoutes.SetupOverrideRoutes(app)
	changelogRoutes.SetupChangelogRoutes(app)
	aiRoutes.SetupAIRoutes(app)

	utils.InitializeMaintenanceScheduler(manager, progressController.RefreshModuleAggregate)

	log.Printf("Server is running on port %s", config.AppConfig.Port)
	log.Fatal(app.Listen(":" + config.AppConfig.Port))
}
