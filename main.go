package main

import (
	"context"
	"log"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"

	"app/agent"
	"app/config"
	"app/database"
	"app/handlers"
	"app/logger"
	"app/models"
	"app/routes"
	"app/store"
)

func main() {
	// Load .env file
	err := godotenv.Load()
	if err != nil {
		log.Println("Error loading .env file, using environment variables")
	}

	// Load configuration
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}
	if err := config.Load(); err != nil {
		log.Fatal(err)
	}

	appLog, err := logger.NewZapLogger(config.AppConfig.LogLevel)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer appLog.Sync()

	// Initialize database
	database.Connect(databaseURL)
	defer database.Close()

	// Wire the agent core
	ctx := context.Background()
	db := database.GetDB()

	history := &store.OrderHistory{DB: db}
	inventory := &store.Inventory{DB: db}
	suggestions := &store.Suggestions{DB: db}
	auditLog := &store.AgentLog{DB: db}
	orders := store.NewOrders(ctx, db, appLog, auditLog)

	reorderCfg := config.AppConfig.Reorder
	runner := &agent.Runner{
		History:     history,
		Inventory:   inventory,
		Suggestions: suggestions,
		Users:       history,
		Audit:       auditLog,
		Log:         appLog,
		Params: models.ReorderParameters{
			LookbackDays:  reorderCfg.LookbackDays,
			LeadTimeDays:  reorderCfg.LeadTimeDays,
			SafetyFactor:  reorderCfg.SafetyFactor,
			ReorderBuffer: reorderCfg.ReorderBuffer,
		},
		Workers:     reorderCfg.Workers,
		UserTimeout: reorderCfg.UserTimeout,
	}

	lifecycle := &agent.Lifecycle{
		Suggestions: suggestions,
		Orders:      orders,
		Audit:       auditLog,
		Log:         appLog,
	}

	handlers.Setup(handlers.Deps{
		Runner:      runner,
		Orders:      orders,
		Lifecycle:   lifecycle,
		Suggestions: suggestions,
		Audit:       auditLog,
		Log:         appLog,
	})

	app := fiber.New()

	// Add CORS middleware
	app.Use(cors.New())

	// Setup routes
	routes.SetupRoutes(app)

	// Start server
	log.Fatal(app.Listen(":3000"))
}
