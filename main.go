package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/drinkmates/aqualine-api/config"
	"github.com/drinkmates/aqualine-api/controllers"
	"github.com/drinkmates/aqualine-api/middleware"
	"github.com/drinkmates/aqualine-api/models"
	"github.com/drinkmates/aqualine-api/services"
	"github.com/drinkmates/aqualine-api/utils"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	log.Println("Starting DrinkMates AquaLine API server...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	utils.InitLogger(cfg.LogLevel, os.Stdout)
	utils.LogInfo("Configuration loaded: %s", cfg)

	if err := config.ConnectDatabase(cfg); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	db := config.GetDB()
	if err := models.Migrate(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	utils.LogInfo("Database migration completed successfully")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	services.InitOrderService(db, services.NewNotifier(cfg))
	services.InitPaymentGateway(cfg)
	if cfg.S3Enabled() {
		s3Service, err := services.InitS3Service(ctx, cfg)
		if err != nil {
			log.Fatalf("Failed to initialize S3: %v", err)
		}
		services.InitImageService(s3Service)
		utils.LogInfo("Proof photos stored in S3 bucket %s", cfg.AWSS3Bucket)
	} else {
		services.InitLocalImageService(utils.UploadDir)
		utils.LogInfo("Proof photos stored under %s", utils.UploadDir)
	}

	// one cache holds the rate limit windows, the other remembers payment callbacks
	rateCache := utils.NewTTLCache(time.Minute)
	defer rateCache.Stop()
	replayCache := utils.NewTTLCache(10 * time.Minute)
	defer replayCache.Stop()

	limiter := middleware.NewRateLimiter(rateCache, "api", cfg.RateLimitRequests, cfg.RateLimitWindow)
	router := setupRouter(cfg, middleware.EnsureValidToken(cfg), replayCache, limiter)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		utils.LogInfo("Server is running on http://localhost:%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	utils.LogInfo("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		utils.LogError("Server shutdown error: %v", err)
	}
}

// setupRouter builds the engine with middleware and every route.
// auth authenticates API callers; limiter may be nil.
func setupRouter(cfg *config.Config, auth gin.HandlerFunc, replay *utils.TTLCache, limiter *middleware.RateLimiter) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger())
	router.Use(cors.New(corsConfig(cfg.CORSAllowedOrigins)))
	if limiter != nil {
		router.Use(limiter.Middleware())
	}

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", healthCheck)
		v1.GET("/database/status", databaseStatus)

		controllers.RegisterRoutes(v1, auth, replay)
	}

	return router
}

// corsConfig allows the given origins; an empty list or "*" allows any origin without credentials
func corsConfig(origins []string) cors.Config {
	c := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders: []string{"Content-Disposition", middleware.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	for _, origin := range origins {
		if origin == "*" {
			c.AllowAllOrigins = true
			return c
		}
	}
	if len(origins) == 0 {
		c.AllowAllOrigins = true
		return c
	}
	c.AllowOrigins = origins
	c.AllowCredentials = true
	return c
}

// healthCheck handles the health check endpoint
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "DrinkMates AquaLine API is running",
	})
}

// databaseStatus checks database connectivity and returns table information
func databaseStatus(c *gin.Context) {
	db := config.GetDB()
	if db == nil {
		utils.Error(c, http.StatusServiceUnavailable, "DATABASE_ERROR", "Database is not connected")
		return
	}

	sqlDB, err := db.DB()
	if err != nil {
		utils.Error(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to get database instance")
		return
	}

	if err := sqlDB.PingContext(c.Request.Context()); err != nil {
		utils.Error(c, http.StatusInternalServerError, "DATABASE_CONNECTION_ERROR", "Database connection failed")
		return
	}

	tables, err := db.WithContext(c.Request.Context()).Migrator().GetTables()
	if err != nil {
		utils.Error(c, http.StatusInternalServerError, "DATABASE_QUERY_ERROR", "Failed to query tables")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Database connected",
		"dialect": db.Dialector.Name(),
		"tables":  tables,
	})
}
