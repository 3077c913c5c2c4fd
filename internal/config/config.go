package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Backing store kinds.
const (
	StoreMemory   = "memory"
	StoreFile     = "file"
	StorePostgres = "postgres"
)

// OTP store kinds.
const (
	OTPStoreMemory = "memory"
	OTPStoreRedis  = "redis"
)

// Config contains runtime configuration values.
type Config struct {
	Environment string
	HTTPPort    string
	ServiceName string

	// StoreKind selects the agent/user backing store: memory, file, or
	// postgres.
	StoreKind   string
	DataDir     string
	DatabaseURL string

	// OTPStoreKind selects where pending one-time codes live: memory or
	// redis.
	OTPStoreKind  string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	OTPTTL        time.Duration

	// DemoMode pins the issued OTP to DemoOTP so the flow can be exercised
	// without a delivery channel.
	DemoMode bool
	DemoOTP  string

	// Gemini enrichment. An empty API key selects the deterministic stub.
	GeminiAPIKey  string
	GeminiModel   string
	GeminiBaseURL string
	GeminiTimeout time.Duration

	SeedSampleData bool

	RateLimitRPM      int
	TelemetryEndpoint string
	TelemetryInsecure bool

	CORSAllowedOrigins   []string
	CORSAllowedMethods   []string
	CORSAllowedHeaders   []string
	CORSAllowCredentials bool
}

// Load reads configuration from environment variables with sane defaults.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Environment:          getEnv("APP_ENV", "development"),
		HTTPPort:             getEnv("HTTP_PORT", "3780"),
		ServiceName:          getEnv("SERVICE_NAME", "bbf-onboarding"),
		StoreKind:            strings.ToLower(getEnv("STORE", StoreMemory)),
		DataDir:              getEnv("DATA_DIR", "data"),
		DatabaseURL:          os.Getenv("DATABASE_URL"),
		OTPStoreKind:         strings.ToLower(getEnv("OTP_STORE", OTPStoreMemory)),
		RedisAddr:            getEnv("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPassword:        os.Getenv("REDIS_PASSWORD"),
		RedisDB:              getInt("REDIS_DB", 0),
		OTPTTL:               getDuration("OTP_TTL", 10*time.Minute),
		DemoMode:             getBool("DEMO_MODE", true),
		DemoOTP:              getEnv("DEMO_OTP", "123456"),
		GeminiAPIKey:         os.Getenv("GEMINI_API_KEY"),
		GeminiModel:          getEnv("GEMINI_MODEL", "gemini-3-flash-preview"),
		GeminiBaseURL:        getEnv("GEMINI_BASE_URL", ""),
		GeminiTimeout:        getDuration("GEMINI_TIMEOUT", 15*time.Second),
		SeedSampleData:       getBool("SEED_SAMPLE_DATA", true),
		RateLimitRPM:         getInt("RATE_LIMIT_RPM", 600),
		TelemetryEndpoint:    os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		TelemetryInsecure:    getBool("OTEL_EXPORTER_OTLP_INSECURE", true),
		CORSAllowedOrigins:   getList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		CORSAllowedMethods:   getList("CORS_ALLOWED_METHODS", []string{"GET", "POST", "OPTIONS"}),
		CORSAllowedHeaders:   getList("CORS_ALLOWED_HEADERS", []string{"Authorization", "Content-Type"}),
		CORSAllowCredentials: getBool("CORS_ALLOW_CREDENTIALS", false),
	}

	switch cfg.StoreKind {
	case StoreMemory, StoreFile:
	case StorePostgres:
		if cfg.DatabaseURL == "" {
			return Config{}, fmt.Errorf("DATABASE_URL is required when STORE=postgres")
		}
	default:
		return Config{}, fmt.Errorf("STORE must be one of memory, file, postgres")
	}

	switch cfg.OTPStoreKind {
	case OTPStoreMemory, OTPStoreRedis:
	default:
		return Config{}, fmt.Errorf("OTP_STORE must be one of memory, redis")
	}

	if len(cfg.DemoOTP) != 6 {
		return Config{}, fmt.Errorf("DEMO_OTP must be exactly 6 characters")
	}

	return cfg, nil
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}

func getDuration(key string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok {
		d, err := time.ParseDuration(v)
		if err == nil {
			return d
		}
	}
	return def
}

func getInt(key string, def int) int {
	if v, ok := os.LookupEnv(key); ok {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getBool(key string, def bool) bool {
	if v, ok := os.LookupEnv(key); ok {
		switch strings.ToLower(v) {
		case "1", "true", "t", "yes", "y", "on":
			return true
		case "0", "false", "f", "no", "n", "off":
			return false
		}
	}
	return def
}

func getList(key string, def []string) []string {
	if v, ok := os.LookupEnv(key); ok {
		parts := strings.Split(v, ",")
		var cleaned []string
		for _, p := range parts {
			trimmed := strings.TrimSpace(p)
			if trimmed != "" {
				cleaned = append(cleaned, trimmed)
			}
		}
		if len(cleaned) > 0 {
			return cleaned
		}
	}
	return def
}
