package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/prodmanhq/prodman-backend/internal/handlers"
	"github.com/prodmanhq/prodman-backend/internal/middleware"
)

type RouterConfig struct {
	AuthHandler       *handlers.AuthHandler
	UserHandler       *handlers.UserHandler
	ConfigHandler     *handlers.ConfigHandler
	WorkerHandler     *handlers.WorkerHandler
	TaskHandler       *handlers.TaskHandler
	ProductHandler    *handlers.ProductHandler
	ProductionHandler *handlers.ProductionHandler
	DocsHandler       *handlers.DocsHandler
	SessionMiddleware *middleware.SessionMiddleware
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	// Cors
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{
			"http://localhost:80",
			"http://localhost:3000",
			"http://localhost:5173",
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	// ===============
	// || Public    ||
	// ===============
	router.GET("/healthcheck", handlers.HealthCheck)
	router.GET("/openapi", cfg.DocsHandler.OpenAPI)

	auth := router.Group("/auth")
	auth.POST("/login", cfg.AuthHandler.Login)
	auth.POST("/register", cfg.AuthHandler.Register)
	auth.DELETE("/logout", cfg.AuthHandler.Logout)

	// ===============
	// || Worker    ||
	// ===============
	// The active-worker listing feeds the login screen's worker picker, so
	// it stays reachable without a session.
	worker := router.Group("/worker")
	worker.GET("/active", cfg.WorkerHandler.ActiveWorkers)
	worker.Use(cfg.SessionMiddleware.RequireSession())
	worker.GET("/task", cfg.WorkerHandler.NextTask)
	worker.POST("/completeSubtask/:subtaskId", cfg.WorkerHandler.CompleteSubtask)

	// ===============
	// || Admin     ||
	// ===============
	admin := router.Group("/")
	admin.Use(cfg.SessionMiddleware.RequireAdmin())

	// Config
	admin.GET("/config", cfg.ConfigHandler.Get)
	admin.PUT("/config", cfg.ConfigHandler.Update)

	// Tasks
	admin.GET("/tasks", cfg.TaskHandler.List)
	admin.POST("/tasks", cfg.TaskHandler.Create)
	admin.GET("/tasks/:id", cfg.TaskHandler.Get)
	admin.PUT("/tasks/:id", cfg.TaskHandler.Update)
	admin.DELETE("/tasks/:id", cfg.TaskHandler.Delete)

	// Products & categories
	admin.GET("/products/categories", cfg.ProductHandler.ListCategories)
	admin.POST("/products/categories", cfg.ProductHandler.CreateCategory)
	admin.PUT("/products/categories/:id", cfg.ProductHandler.UpdateCategory)
	admin.DELETE("/products/categories/:id", cfg.ProductHandler.DeleteCategory)
	admin.GET("/products", cfg.ProductHandler.List)
	admin.POST("/products", cfg.ProductHandler.Create)
	admin.GET("/products/:id", cfg.ProductHandler.Get)
	admin.PUT("/products/:id", cfg.ProductHandler.Update)
	admin.DELETE("/products/:id", cfg.ProductHandler.Delete)

	// Production reporting
	admin.GET("/production", cfg.ProductionHandler.ListEvents)
	admin.GET("/production/report", cfg.ProductionHandler.Report)

	// Users
	admin.GET("/users", cfg.UserHandler.List)
	admin.POST("/users", cfg.UserHandler.Create)
	admin.GET("/users/:id", cfg.UserHandler.Get)
	admin.PUT("/users/:id", cfg.UserHandler.Update)
	admin.PUT("/users/:id/credentials", cfg.UserHandler.UpdateCredentials)

	return router
}
