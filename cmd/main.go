package main

import (
	"context"
	"fmt"
	"os"

	"github.com/prodmanhq/prodman-backend/internal/db"
	"github.com/prodmanhq/prodman-backend/internal/handlers"
	"github.com/prodmanhq/prodman-backend/internal/logger"
	"github.com/prodmanhq/prodman-backend/internal/middleware"
	"github.com/prodmanhq/prodman-backend/internal/repos"
	"github.com/prodmanhq/prodman-backend/internal/server"
	"github.com/prodmanhq/prodman-backend/internal/services"
	"github.com/prodmanhq/prodman-backend/internal/sessions"
	"github.com/prodmanhq/prodman-backend/internal/utils"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Env
	log.Info("Loading environment variables from main...")
	redisAddr := utils.GetEnv("REDIS_ADDR", "localhost:6379", log)
	openapiPath := utils.GetEnv("OPENAPI_PATH", "docs/openapi.yaml", log)

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	if err = postgresService.AutoMigrateAll(); err != nil {
		log.Error("Postgres auto migration failed", "error", err)
		os.Exit(1)
	}
	thePG := postgresService.DB()

	// Sessions
	log.Info("Setting up session store from main...")
	sessionStore, err := sessions.NewRedisStore(log, redisAddr)
	if err != nil {
		log.Error("Could not init session store", "error", err)
		os.Exit(1)
	}
	defer sessionStore.Close()

	// Repos
	log.Info("Setting up Repos from main...")
	userRepo := repos.NewUserRepo(thePG, log)
	taskRepo := repos.NewTaskRepo(thePG, log)
	subtaskRepo := repos.NewSubtaskRepo(thePG, log)
	subtaskEventRepo := repos.NewSubtaskEventRepo(thePG, log)
	productRepo := repos.NewProductRepo(thePG, log)
	categoryRepo := repos.NewCategoryRepo(thePG, log)
	stockLedger := repos.NewStockLedger(thePG, log)
	configRepo := repos.NewConfigRepo(thePG, log)

	// Services
	log.Info("Setting up Services from main...")
	configService := services.NewConfigService(thePG, log, configRepo)
	if err = configService.SeedDefaults(context.Background()); err != nil {
		log.Error("Config seeding failed", "error", err)
		os.Exit(1)
	}
	authService := services.NewAuthService(thePG, log, userRepo, configService, sessionStore)
	userService := services.NewUserService(thePG, log, userRepo)
	productService := services.NewProductService(thePG, log, productRepo, categoryRepo)
	taskService := services.NewTaskService(thePG, log, taskRepo, subtaskRepo, subtaskEventRepo)
	dispatchService := services.NewDispatchService(thePG, log, taskRepo, subtaskRepo, configService)
	completionService := services.NewCompletionService(thePG, log, taskRepo, subtaskRepo, subtaskEventRepo, stockLedger)
	productionService := services.NewProductionService(thePG, log, subtaskEventRepo)

	// Handlers
	log.Info("Setting up handlers from main...")
	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(userService)
	configHandler := handlers.NewConfigHandler(configService)
	workerHandler := handlers.NewWorkerHandler(dispatchService, completionService, userService)
	taskHandler := handlers.NewTaskHandler(taskService)
	productHandler := handlers.NewProductHandler(productService)
	productionHandler := handlers.NewProductionHandler(productionService)
	docsHandler, err := handlers.NewDocsHandler(openapiPath)
	if err != nil {
		log.Error("Could not load OpenAPI document", "error", err)
		os.Exit(1)
	}

	// Middleware
	log.Info("Setting up middleware from main...")
	sessionMiddleware := middleware.NewSessionMiddleware(log, sessionStore)

	// Router
	log.Info("Setting up router from main...")
	router := server.NewRouter(server.RouterConfig{
		AuthHandler:       authHandler,
		UserHandler:       userHandler,
		ConfigHandler:     configHandler,
		WorkerHandler:     workerHandler,
		TaskHandler:       taskHandler,
		ProductHandler:    productHandler,
		ProductionHandler: productionHandler,
		DocsHandler:       docsHandler,
		SessionMiddleware: sessionMiddleware,
	})

	port := utils.GetEnv("PORT", "8080", log)
	fmt.Printf("Server listening on :%s\n", port)
	if err := router.Run(":" + port); err != nil {
		log.Warn("Server failed", "error", err)
	}
}
