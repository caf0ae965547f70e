package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"tiyeni/internal/config"
	"tiyeni/internal/handlers"
	"tiyeni/internal/middleware"
	"tiyeni/internal/repositories/mongodb"
	"tiyeni/internal/services"
	"tiyeni/internal/utils"
	"tiyeni/pkg/authn"
	"tiyeni/pkg/cache"
	"tiyeni/pkg/database"
	"tiyeni/pkg/logger"
	"tiyeni/pkg/maps"
	"tiyeni/pkg/pubsub"
	"tiyeni/pkg/storage"
	"tiyeni/pkg/websocket"
	"tiyeni/routes"
)

func main() {
	// A missing .env is fine; the environment may already be populated.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger, err := logger.NewLogger(&logger.Config{
		Level:   logger.LogLevel(cfg.App.LogLevel),
		Format:  cfg.App.LogFormat,
		Output:  cfg.App.LogOutput,
		Caller:  cfg.App.Debug,
		AppName: cfg.App.Name,
		Version: cfg.App.Version,
	})
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, appLogger); err != nil {
		appLogger.WithError(err).Fatal("server stopped")
	}
}

func run(ctx context.Context, cfg *config.Config, appLogger *logger.Logger) error {
	db, err := database.NewMongoDB(&database.DatabaseConfig{
		URI:            cfg.Database.URI,
		Database:       cfg.Database.Database,
		MaxPoolSize:    cfg.Database.MaxPoolSize,
		MinPoolSize:    cfg.Database.MinPoolSize,
		ConnectTimeout: cfg.Database.ConnectTimeout,
		SocketTimeout:  cfg.Database.SocketTimeout,
	})
	if err != nil {
		return fmt.Errorf("connect mongodb: %w", err)
	}
	defer db.Close()

	if cfg.Database.RunMigrations {
		if err := database.NewMigrator(db.Database, appLogger).Up(ctx); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
	}

	checks := map[string]handlers.HealthCheck{"mongodb": db.Ping}

	var (
		bus        pubsub.Bus
		queryCache cache.Cache
	)
	if cfg.App.EventBus == "redis" {
		redisClient, err := cache.NewRedisClient(&cache.RedisConfig{
			Host:         cfg.Redis.Host,
			Port:         cfg.Redis.Port,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer redisClient.Close()

		bus = pubsub.NewRedisBus(redisClient, "tiyeni:", appLogger)
		queryCache = cache.NewRedisCache(redisClient, "tiyeni:")
		checks["redis"] = func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}
	} else {
		bus = pubsub.NewMemoryBus()
		queryCache = cache.NewMemoryCache()
	}
	defer bus.Close()

	fileStorage, err := newStorage(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}

	placeProvider, err := newPlaceProvider(cfg.Maps)
	if err != nil {
		return fmt.Errorf("init maps: %w", err)
	}

	var identity services.IdentityProvider
	if cfg.Auth.Provider == "firebase" {
		firebaseAuth, err := authn.NewFirebaseAuth(ctx, &authn.FirebaseConfig{
			ProjectID:         cfg.Auth.Firebase.ProjectID,
			CredentialsFile:   cfg.Auth.Firebase.CredentialsFile,
			CredentialsBase64: cfg.Auth.Firebase.CredentialsBase64,
		})
		if err != nil {
			return fmt.Errorf("init firebase auth: %w", err)
		}
		identity = firebaseAuth
	}

	// Repositories
	userRepo := mongodb.NewUserRepository(db.Database)
	driverRepo := mongodb.NewDriverRepository(db.Database)
	vehicleRepo := mongodb.NewVehicleRepository(db.Database)
	tripRepo := mongodb.NewTripRepository(db.Database)
	bookingRepo := mongodb.NewBookingRepository(db.Database)

	// Services
	deps := services.Deps{
		Tx:      db,
		Bus:     bus,
		Logger:  appLogger,
		Clock:   services.SystemClock,
		Timeout: cfg.App.BackendTimeout,
	}
	imageService := services.NewImageService(fileStorage, utils.MaxImageDimension, cfg.Storage.UploadTimeout, appLogger)
	authService := services.NewAuthService(deps, userRepo, queryCache, identity, services.AuthConfig{
		JWTSecret: cfg.Security.JWTSecret,
		TokenTTL:  cfg.Security.JWTAccessTokenTTL,
	})
	routeService := services.NewRouteService()
	driverService := services.NewDriverService(deps, driverRepo, userRepo, imageService)
	vehicleService := services.NewVehicleService(deps, vehicleRepo, imageService)
	tripService := services.NewTripService(deps, tripRepo, vehicleRepo, driverRepo, userRepo, routeService)
	bookingService := services.NewBookingService(deps, bookingRepo, tripRepo, userRepo)
	geocodeService := services.NewGeocodeService(placeProvider, queryCache, appLogger)

	// Websocket
	hub := websocket.NewHub(appLogger)
	go hub.Run(ctx)
	wsHandler := websocket.NewHandler(hub, &websocket.Backend{
		Auth:     authService,
		Trips:    tripService,
		Bookings: bookingService,
		Places:   geocodeService,
	}, websocket.Config{
		ReadBufferSize:   cfg.WebSocket.ReadBufferSize,
		WriteBufferSize:  cfg.WebSocket.WriteBufferSize,
		HandshakeTimeout: cfg.WebSocket.HandshakeTimeout,
		PongTimeout:      cfg.WebSocket.PongTimeout,
		MaxSubscriptions: cfg.WebSocket.MaxSubscriptions,
		AllowedOrigins:   cfg.WebSocket.AllowedOrigins,
	}, appLogger)

	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	if err := router.SetTrustedProxies(cfg.Security.TrustedProxies); err != nil {
		return fmt.Errorf("set trusted proxies: %w", err)
	}

	// Global middleware
	router.Use(middleware.RecoveryMiddleware(appLogger))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware(appLogger))
	router.Use(middleware.CORSMiddleware(cfg.Security.CORSAllowedOrigins))

	routes.SetupAPIRoutes(router, &routes.Handlers{
		Auth:    handlers.NewAuthHandler(authService),
		Route:   handlers.NewRouteHandler(routeService),
		Driver:  handlers.NewDriverHandler(driverService),
		Vehicle: handlers.NewVehicleHandler(vehicleService),
		Trip:    handlers.NewTripHandler(tripService),
		Booking: handlers.NewBookingHandler(bookingService),
		Geocode: handlers.NewGeocodeHandler(geocodeService),
		Health:  handlers.NewHealthHandler(checks),
	}, authService)
	router.GET(cfg.WebSocket.Path, wsHandler.HandleWebSocket)

	if cfg.Storage.Provider == "local" {
		router.Static("/uploads", cfg.Storage.Local.BasePath)
	}

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.App.Host, cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		appLogger.WithField("addr", server.Addr).Info("starting server")
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	appLogger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func newStorage(ctx context.Context, cfg *config.StorageConfig) (storage.StorageProvider, error) {
	switch cfg.Provider {
	case "aws":
		return storage.NewAWSS3Storage(ctx, cfg.AWS.Region, cfg.AWS.Bucket, cfg.AWS.CDNDomain)
	case "gcp":
		return storage.NewGCPStorage(ctx, cfg.GCP.Bucket, cfg.GCP.CredentialsFile, cfg.GCP.CDNDomain)
	default:
		return storage.NewLocalStorage(cfg.Local.BasePath, cfg.Local.BaseURL)
	}
}

func newPlaceProvider(cfg *config.MapsConfig) (maps.AutocompleteProvider, error) {
	if cfg.Provider == "google" {
		return maps.NewGoogleMapsProvider(cfg.GoogleMaps.APIKey, cfg.GoogleMaps.Country)
	}
	return maps.NewGeoapifyProvider(cfg.Geoapify.APIKey, cfg.Geoapify.BaseURL, cfg.Timeout), nil
}
