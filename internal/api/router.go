package api

import (
	"aichat-backend/config"
	"aichat-backend/internal/api/v1/auth"
	"aichat-backend/internal/api/v1/notification"
	userRoutes "aichat-backend/internal/api/v1/user"
	"aichat-backend/internal/database"
	"aichat-backend/internal/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// NewRouter connects the backing stores and returns the configured engine.
func NewRouter() (*gin.Engine, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}

	_, err = database.Connect(cfg.DSN())
	if err != nil {
		return nil, err
	}

	err = database.ConnectRedis(cfg)
	if err != nil {
		return nil, err
	}

	return NewEngine(), nil
}

// NewEngine builds the route tree without touching the backing stores.
// Tests wire database.DB / database.RedisClient themselves and call this.
func NewEngine() *gin.Engine {
	router := gin.New()
	router.Use(middleware.Logger(), gin.Recovery())

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", "http://localhost:8080"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	v1 := router.Group("/api/v1")
	{
		auth.RegisterRoutes(v1)

		authorized := v1.Group("/")
		authorized.Use(middleware.AuthMiddleware())
		{
			userRoutes.RegisterRoutes(authorized)
			notification.RegisterRoutes(authorized)
		}

		// Privileged ledger/notification writes stay on the documented
		// paths but behind the admin gate.
		admin := v1.Group("/")
		admin.Use(middleware.AdminAuthMiddleware())
		{
			userRoutes.RegisterAdminRoutes(admin)
			notification.RegisterAdminRoutes(admin)
		}
	}

	return router
}
