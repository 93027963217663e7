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

	"crm-intake-backend/config"
	_ "crm-intake-backend/docs" // Important for Swagger
	v1 "crm-intake-backend/internal/delivery/http/v1"
	"crm-intake-backend/internal/domain"
	"crm-intake-backend/internal/repository/cache"
	"crm-intake-backend/internal/repository/postgres"
	"crm-intake-backend/internal/usecase"
	"crm-intake-backend/pkg/auth"
	"crm-intake-backend/pkg/database"
	"crm-intake-backend/pkg/diagnostics"
	"crm-intake-backend/pkg/logger"
	"crm-intake-backend/pkg/monday"
	"crm-intake-backend/pkg/redis"
	"crm-intake-backend/pkg/resend"
	"crm-intake-backend/pkg/security"
	"crm-intake-backend/pkg/supabase"
	"crm-intake-backend/pkg/validation"

	goredis "github.com/redis/go-redis/v9"
)

// @title           CRM Intake API
// @version         1.0
// @description     Authenticated intake form that writes contacts to the board and the messaging platform.
// @host            localhost:8080
// @BasePath        /v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// 1. Load Config
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 2. Setup Loggers
	logger.Init(cfg.LogLevel)
	environment := "development"
	if cfg.IsProduction() {
		environment = "production"
	}
	secLog := security.InitSecurityLogger("crm-intake-backend", environment)
	defer func() { _ = secLog.Sync() }()
	logger.Log.Info("Starting CRM intake backend", "port", cfg.Port, "environment", environment)

	ctx := context.Background()

	// 3. Setup Database
	dbPool, err := database.NewPostgresConnection(ctx, cfg.DBUrl)
	if err != nil {
		logger.Log.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer dbPool.Close()

	// 4. Setup Redis (optional)
	var redisClient *goredis.Client
	redisClient, err = redis.Connect(ctx, redis.Config{URL: cfg.UpstashRedisURL, Password: cfg.UpstashRedisPassword})
	switch {
	case errors.Is(err, redis.ErrNotConfigured):
		logger.Log.Warn("Redis not configured, using in-memory rate limits and cache")
	case err != nil:
		logger.Log.Warn("Redis unavailable, using in-memory rate limits and cache", "error", err)
		redisClient = nil
	default:
		defer redisClient.Close()
	}

	// 5. Setup External Clients
	httpClient := &http.Client{Timeout: cfg.HTTPClientTimeout}
	board := monday.NewClient(monday.Config{
		APIURL:     cfg.MondayAPIURL,
		Token:      cfg.MondayAPIToken,
		BoardID:    cfg.MondayBoardID,
		APIVersion: cfg.MondayAPIVersion,
	}, httpClient)
	messaging := resend.NewClient(resend.Config{
		BaseURL: cfg.ResendAPIURL,
		APIKey:  cfg.ResendAPIKey,
	}, httpClient)
	identity := supabase.NewClient(supabase.Config{
		URL:            cfg.SupabaseUrl,
		AnonKey:        cfg.SupabaseKey,
		ServiceRoleKey: cfg.SupabaseServiceRoleKey,
	}, httpClient)

	// 6. Setup Diagnostics
	sinks := diagnostics.MultiSink{diagnostics.LogSink{}}
	storeCfg := diagnostics.StoreConfig{
		Provider:        diagnostics.Provider(cfg.S3Provider),
		AccessKeyID:     cfg.S3AccessKeyID,
		SecretAccessKey: cfg.S3SecretAccessKey,
		Region:          cfg.S3Region,
		Bucket:          cfg.DiagnosticsBucket,
		WasabiEndpoint:  cfg.WasabiEndpoint,
	}
	if storeCfg.Enabled() {
		s3Client, err := diagnostics.NewS3Client(ctx, storeCfg)
		if err != nil {
			logger.Log.Warn("Diagnostics archive disabled", "error", err)
		} else {
			sinks = append(sinks, diagnostics.NewS3Sink(s3Client, storeCfg.Bucket))
		}
	}

	// 7. Setup Repositories
	userRepo := postgres.NewUserRepository(dbPool)
	catalogCache := cache.NewCatalogCache(redisClient, cfg.CatalogCacheTTL)

	// 8. Setup UseCases
	loginTracker := security.NewLoginTracker(security.LoginTrackerConfig{
		MaxAttempts:   cfg.FailedLoginMaxAttempts,
		AttemptWindow: time.Duration(cfg.FailedLoginBlockMinutes) * time.Minute,
		BlockDuration: time.Duration(cfg.FailedLoginBlockMinutes) * time.Minute,
		UseIPTracking: true,
	}, redisClient, secLog)

	catalogUC := usecase.NewCatalogUsecase(board, messaging, catalogCache)
	intakeUC := usecase.NewIntakeUsecase(board, messaging, catalogUC, sinks, validation.New())
	authUC := usecase.NewAuthUsecase(userRepo, identity, loginTracker, secLog, usecase.AuthConfig{
		AdminEmails:               cfg.AdminEmails,
		ResetRedirectURL:          cfg.FrontendURL + "/auth/update-password",
		ForgotPasswordMinDuration: 2 * time.Second,
	})
	adminUC := usecase.NewAdminUsecase(identity, userRepo, secLog)
	probes := map[string]usecase.Probe{"database": dbPool.Ping}
	if redisClient != nil {
		probes["redis"] = func(ctx context.Context) error { return redis.HealthCheck(ctx, redisClient) }
	}
	healthUC := usecase.NewHealthUsecase(map[string]usecase.Configurable{
		domain.SystemBoard:     board,
		domain.SystemMessaging: messaging,
		domain.SystemIdentity:  identity,
	}, probes)

	// 9. Setup Auth Provider (JWKS)
	jwksProvider := auth.NewProvider(cfg.SupabaseUrl+"/auth/v1/.well-known/jwks.json", httpClient)

	// 10. Setup Router
	router := v1.NewRouter(v1.RouterDeps{
		AuthUC:       authUC,
		AdminUC:      adminUC,
		IntakeUC:     intakeUC,
		CatalogUC:    catalogUC,
		HealthUC:     healthUC,
		JWKSProvider: jwksProvider,
		Redis:        redisClient,
		SecurityLog:  secLog,
		Config:       cfg,
	})

	// 11. Start Server
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Error("Listen failed", "error", err)
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error("Server forced to shutdown", "error", err)
	}

	logger.Log.Info("Server exiting")
}
