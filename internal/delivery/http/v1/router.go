package v1

import (
	"time"

	"crm-intake-backend/config"
	"crm-intake-backend/internal/delivery/http/middleware"
	"crm-intake-backend/internal/domain"
	"crm-intake-backend/internal/usecase"
	"crm-intake-backend/pkg/auth"
	"crm-intake-backend/pkg/security"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

type RouterDeps struct {
	AuthUC       domain.AuthUsecase
	AdminUC      domain.AdminUsecase
	IntakeUC     domain.IntakeUsecase
	CatalogUC    domain.CatalogUsecase
	HealthUC     usecase.HealthUsecase
	JWKSProvider *auth.Provider
	Redis        *goredis.Client // nil selects the in-memory rate limiter
	SecurityLog  *security.SecurityLogger
	Config       *config.Config
}

func NewRouter(deps RouterDeps) *gin.Engine {
	r := gin.New()

	cfg := deps.Config
	window := time.Duration(cfg.RateLimitWindowSeconds) * time.Second

	// CORS must be first so preflights never hit the limiter
	r.Use(middleware.CORSMiddleware([]string{cfg.FrontendURL}, cfg.IsProduction()))
	r.Use(gin.Recovery())
	r.Use(gin.Logger())
	r.Use(middleware.RequestID())
	r.Use(middleware.SecurityHeadersMiddleware())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.CSRFMiddleware(cfg.IsProduction(), deps.SecurityLog))
	r.Use(middleware.NewRateLimiter(middleware.GlobalRateLimitConfig(cfg.RateLimitGlobalThreshold, window), deps.Redis, deps.SecurityLog).Middleware())

	v1 := r.Group("/v1")

	NewHealthHandler(v1, deps.HealthUC)
	v1.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	protected := v1.Group("")
	protected.Use(middleware.AuthMiddleware(deps.JWKSProvider, cfg.SupabaseJWTSecret, deps.AuthUC, deps.SecurityLog))

	admin := protected.Group("")
	admin.Use(middleware.AdminOnly(deps.SecurityLog))

	loginLimiter := middleware.NewRateLimiter(middleware.LoginRateLimitConfig(cfg.RateLimitLoginThreshold, window), deps.Redis, deps.SecurityLog)

	NewAuthHandler(v1, protected, deps.AuthUC, cfg.IsProduction(), loginLimiter.Middleware())
	NewIntakeHandler(protected, deps.IntakeUC, deps.CatalogUC)
	NewAdminHandler(admin, deps.AdminUC)

	return r
}
