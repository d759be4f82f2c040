package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/SamuelMMedeiros/BV-Celular-sub002/internal/handler"
	mid "github.com/SamuelMMedeiros/BV-Celular-sub002/internal/middleware"
	"github.com/SamuelMMedeiros/BV-Celular-sub002/internal/push"
	"github.com/SamuelMMedeiros/BV-Celular-sub002/internal/service"
	"github.com/SamuelMMedeiros/BV-Celular-sub002/internal/session"
	"github.com/SamuelMMedeiros/BV-Celular-sub002/pkg/config"
	"github.com/SamuelMMedeiros/BV-Celular-sub002/pkg/database"
	"github.com/SamuelMMedeiros/BV-Celular-sub002/pkg/jwtutil"
	"github.com/SamuelMMedeiros/BV-Celular-sub002/pkg/logger"
	"github.com/SamuelMMedeiros/BV-Celular-sub002/pkg/storage"
	"github.com/SamuelMMedeiros/BV-Celular-sub002/prometheus"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	// Load .env file; environments without one use the process environment
	_ = godotenv.Load()

	// Load configuration
	appConfig, err := config.Load()
	if err != nil {
		// Can't use structured logger yet since it's not initialized
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	logger.InitLogger(appConfig)
	log := logger.GetLogger()
	defer log.Sync()

	log.Info("Starting "+appConfig.ServiceName, appConfig.LogConfig()...)

	jwtUtil := jwtutil.NewJWTUtil(&appConfig.JWT)

	// Initialize Prometheus metrics
	prometheus.InitMetrics(appConfig)
	log.Info("Prometheus metrics initialized",
		zap.String("metrics_prefix", appConfig.Metrics.Prefix))

	// Initialize database
	db, err := database.InitDB(appConfig)
	if err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	log.Info("Database connection established", zap.String("driver", appConfig.DB.Driver))

	if created, err := database.SeedAdmin(db, appConfig.Admin); err != nil {
		log.Fatal("Failed to seed admin account", zap.Error(err))
	} else if created {
		log.Info("Admin account created", zap.String("email", appConfig.Admin.Email))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	images, err := storage.NewObjectStore(ctx, &appConfig.Storage)
	if err != nil {
		log.Fatal("Failed to initialize image storage", zap.Error(err))
	}
	log.Info("Image storage ready",
		zap.String("endpoint", appConfig.Storage.Endpoint),
		zap.String("bucket", appConfig.Storage.BucketName))

	var sender push.Sender
	if appConfig.PushEnabled() {
		sender = push.NewWebPushSender(&appConfig.Push)
		log.Info("Web Push delivery enabled")
	} else {
		log.Warn("VAPID keys not configured, push broadcasts are disabled")
	}

	routes := &handler.Routes{
		Health:    handler.NewHealthHandler(db, appConfig.ServiceName),
		Auth:      handler.NewAuthHandler(service.NewAccountService(db), jwtUtil, appConfig.Server.Env == "production"),
		Products:  handler.NewProductHandler(service.NewProductService(db, images, log)),
		Stores:    handler.NewStoreHandler(service.NewStoreService(db)),
		Employees: handler.NewEmployeeHandler(service.NewEmployeeService(db)),
		Push:      handler.NewPushHandler(push.NewService(db, sender, log), appConfig.Push.VAPIDPublicKey),
		Pages:     handler.NewPageHandler(appConfig.Web.IndexFile),
	}

	// Initialize Echo instance
	e := echo.New()
	e.HideBanner = true
	e.Validator = mid.NewValidator()

	// Middleware
	e.Use(middleware.Recover())
	e.Use(mid.RequestIDMiddleware)
	e.Use(prometheus.MetricsMiddleware)
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     appConfig.CORSOrigins,
		AllowCredentials: true,
	}))

	// Metrics endpoint
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Built storefront assets
	e.Static("/assets", appConfig.Web.StaticDir)

	resolver := session.NewResolver(session.NewGormLookup(db))
	routes.Register(e, mid.JWTMiddleware(jwtUtil), mid.SessionMiddleware(resolver))

	// Start server
	port := appConfig.Server.Port
	go func() {
		log.Info("Starting server", zap.String("port", port))
		if err := e.Start(":" + port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown failed", zap.Error(err))
	}
}
