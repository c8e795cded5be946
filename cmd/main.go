package main

import (
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/TheFlashe/diplom-neto/internal/handler"
	"github.com/TheFlashe/diplom-neto/internal/mailer"
	"github.com/TheFlashe/diplom-neto/internal/middleware"
	"github.com/TheFlashe/diplom-neto/internal/service"
	"github.com/TheFlashe/diplom-neto/pkg/config"
	"github.com/TheFlashe/diplom-neto/pkg/database"
	"github.com/TheFlashe/diplom-neto/pkg/jwtutil"
	"github.com/TheFlashe/diplom-neto/pkg/logger"
	"github.com/TheFlashe/diplom-neto/prometheus"
)

func main() {
	// Load configuration from .env file and environment variables
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log := logger.GetLogger()
	log.Info("Starting marketplace service...", zap.String("environment", cfg.Server.Env))

	// Initialize database
	if err := database.InitDB(cfg); err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	log.Info("Database connection established")

	// Initialize JWT utility
	jwtutil.Initialize(&cfg.JWT)
	log.Info("JWT utility initialized")

	// Initialize Prometheus metrics
	prometheus.InitMetrics(cfg)
	log.Info("Prometheus metrics initialized")

	// Wire services
	db := database.GetDB()
	mail := mailer.New(db, cfg.SMTP, log)
	orders := service.NewOrderService(db, mail, log)
	importer := service.NewImporter(db, log)

	authHandler := handler.NewAuthHandler(mail)
	basketHandler := handler.NewBasketHandler(orders)
	orderHandler := handler.NewOrderHandler(orders)
	partnerHandler := handler.NewPartnerHandler(importer)

	// Initialize Echo framework
	e := echo.New()

	// Apply global middleware - order matters
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(middleware.RequestIDMiddleware)
	e.Use(middleware.MetricsMiddleware)

	// Public routes - no authentication required
	e.GET("/health", handler.HealthCheck)
	e.GET("/metrics", handler.MetricsHandler)

	// Authentication routes
	auth := e.Group("/api/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)

	// Public catalog routes
	e.GET("/api/shops", handler.ListShops)
	e.GET("/api/shops/:id", handler.GetShop)
	e.GET("/api/categories", handler.ListCategories)
	e.GET("/api/products", handler.ListProducts)
	e.GET("/api/product-info", handler.ListProductInfo)
	e.GET("/api/product-info/:id", handler.GetProductInfo)

	// Authenticated routes
	api := e.Group("/api")
	api.Use(middleware.AuthMiddleware)

	// User profile
	api.GET("/auth/profile", authHandler.Profile)
	api.PUT("/auth/profile", authHandler.UpdateProfile)
	api.POST("/auth/change-password", authHandler.ChangePassword)

	// Contacts
	contacts := api.Group("/contacts")
	contacts.GET("", handler.ListContacts)
	contacts.POST("", handler.CreateContact)
	contacts.PUT("/:id", handler.UpdateContact)
	contacts.DELETE("/:id", handler.DeleteContact)

	// Basket
	basket := api.Group("/basket")
	basket.GET("", basketHandler.Get)
	basket.POST("/items", basketHandler.AddItems)
	basket.PUT("/items", basketHandler.UpdateItems)
	basket.DELETE("/items", basketHandler.RemoveItems)
	basket.DELETE("", basketHandler.Clear)

	// Orders
	ordersGroup := api.Group("/orders")
	ordersGroup.GET("", orderHandler.List)
	ordersGroup.POST("", orderHandler.Checkout)
	ordersGroup.GET("/:id", orderHandler.Get)
	ordersGroup.PATCH("/:id/status", orderHandler.UpdateStatus)
	ordersGroup.POST("/:id/cancel", orderHandler.Cancel)

	// Partner feed update
	api.POST("/partner/update", partnerHandler.Update)

	// Start server
	port := cfg.Server.Port
	log.Info("Starting server", zap.String("port", port))
	if err := e.Start(":" + port); err != nil {
		log.Fatal("Failed to start server", zap.Error(err))
	}
}
