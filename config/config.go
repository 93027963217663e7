package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultMondayAPIURL = "https://api.monday.com/v2"
	defaultResendAPIURL = "https://api.resend.com"
)

type Config struct {
	Port        string
	DBUrl       string
	FrontendURL string
	LogLevel    string
	// Identity provider (Supabase Auth)
	SupabaseUrl            string
	SupabaseKey            string
	SupabaseServiceRoleKey string // Admin API key, needed to provision users
	SupabaseJWTSecret      string
	AdminEmails            []string // Synced with the admin role at login
	// Work-management board (monday.com)
	MondayAPIURL     string
	MondayAPIToken   string
	MondayBoardID    string
	MondayAPIVersion string
	// Messaging platform (Resend)
	ResendAPIURL string
	ResendAPIKey string
	// Outbound HTTP
	HTTPClientTimeout time.Duration
	CatalogCacheTTL   time.Duration
	// Redis/Upstash Configuration
	UpstashRedisURL      string
	UpstashRedisPassword string
	// Rate Limiting Configuration
	RateLimitWindowSeconds   int
	RateLimitLoginThreshold  int
	RateLimitGlobalThreshold int
	FailedLoginBlockMinutes  int
	FailedLoginMaxAttempts   int
	// Diagnostics archive (optional, S3-compatible)
	DiagnosticsBucket string
	S3Provider        string
	S3Region          string
	S3AccessKeyID     string
	S3SecretAccessKey string
	WasabiEndpoint    string
}

func LoadConfig() (*Config, error) {
	// Load .env file when present (local development only)
	_ = godotenv.Load()

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		DBUrl:       getEnv("DATABASE_URL", ""),
		FrontendURL: strings.TrimRight(getEnv("FRONTEND_URL", "http://localhost:3000"), "/"),
		LogLevel:    getEnv("LOG_LEVEL", "debug"),
		// Trailing slash removed to avoid double slashes when joining paths
		SupabaseUrl:            strings.TrimRight(getEnv("SUPABASE_URL", ""), "/"),
		SupabaseKey:            getEnv("SUPABASE_KEY", getEnv("SUPABASE_ANON_KEY", "")),
		SupabaseServiceRoleKey: getEnv("SUPABASE_SERVICE_ROLE_KEY", ""),
		SupabaseJWTSecret:      getEnv("SUPABASE_JWT_SECRET", getEnv("SUPABASE_JWT_KEY", "")),
		AdminEmails:            getEnvList("ADMIN_EMAILS"),
		MondayAPIURL:           getEnv("MONDAY_API_URL", defaultMondayAPIURL),
		MondayAPIToken:         getEnv("MONDAY_API_TOKEN", ""),
		MondayBoardID:          getEnv("MONDAY_BOARD_ID", ""),
		MondayAPIVersion:       getEnv("MONDAY_API_VERSION", "2024-10"),
		ResendAPIURL:           strings.TrimRight(getEnv("RESEND_API_URL", defaultResendAPIURL), "/"),
		ResendAPIKey:           getEnv("RESEND_API_KEY", ""),
		HTTPClientTimeout:      time.Duration(getEnvInt("HTTP_CLIENT_TIMEOUT_SECONDS", 15)) * time.Second,
		CatalogCacheTTL:        time.Duration(getEnvInt("CATALOG_CACHE_TTL_SECONDS", 300)) * time.Second,
		// Redis/Upstash Configuration
		UpstashRedisURL:      getEnv("UPSTASH_REDIS_URL", ""),
		UpstashRedisPassword: getEnv("UPSTASH_REDIS_PASSWORD", ""),
		// Rate Limiting Configuration
		RateLimitWindowSeconds:   getEnvInt("RATE_LIMIT_WINDOW_SECONDS", 60),
		RateLimitLoginThreshold:  getEnvInt("RATE_LIMIT_LOGIN_THRESHOLD", 10),
		RateLimitGlobalThreshold: getEnvInt("RATE_LIMIT_GLOBAL_THRESHOLD", 100),
		FailedLoginBlockMinutes:  getEnvInt("FAILED_LOGIN_BLOCK_MINUTES", 15),
		FailedLoginMaxAttempts:   getEnvInt("FAILED_LOGIN_MAX_ATTEMPTS", 5),
		// Diagnostics archive
		DiagnosticsBucket: getEnv("DIAGNOSTICS_S3_BUCKET", ""),
		S3Provider:        getEnv("S3_PROVIDER", "aws"),
		S3Region:          getEnv("S3_REGION", "us-east-1"),
		S3AccessKeyID:     getEnv("S3_ACCESS_KEY_ID", ""),
		S3SecretAccessKey: getEnv("S3_SECRET_ACCESS_KEY", ""),
		WasabiEndpoint:    getEnv("WASABI_ENDPOINT", ""),
	}

	// Missing integration credentials are not fatal at startup: the intake
	// endpoints answer with a configuration error instead.
	if cfg.DBUrl == "" {
		log.Println("WARNING: DATABASE_URL is missing. Application may fail to connect.")
	}
	if cfg.MondayAPIToken == "" || cfg.MondayBoardID == "" {
		log.Println("WARNING: MONDAY_API_TOKEN or MONDAY_BOARD_ID not configured. Board writes are disabled.")
	}
	if cfg.ResendAPIKey == "" {
		log.Println("WARNING: RESEND_API_KEY not configured. Contact writes are disabled.")
	}
	if cfg.UpstashRedisURL == "" {
		log.Println("WARNING: UPSTASH_REDIS_URL not configured. Rate limiting and option cache will use in-memory fallback.")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvInt returns an integer environment variable or fallback if not set/invalid
func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

// getEnvBool returns a boolean environment variable or fallback if not set/invalid
func getEnvBool(key string, fallback bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return fallback
}

// getEnvList splits a comma separated variable, dropping blanks
func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(getEnv(key, ""), ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, strings.ToLower(p))
		}
	}
	return out
}

// IsProduction mirrors gin's release mode switch
func (c *Config) IsProduction() bool {
	return getEnvBool("PRODUCTION", os.Getenv("GIN_MODE") == "release")
}
