package config

import (
	"encoding/base64"
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	StoreMongo  = "mongo"
	StoreMemory = "memory"
)

// Config holds all service configuration loaded from environment variables.
type Config struct {
	Port          string
	PostgresDSN   string
	MongoURI      string
	MongoDB       string
	CarStore      string
	RedisAddr     string
	RedisPassword string
	JWTSecret     string
	JWTIssuer     string
	JWTTTL        time.Duration
	CORSOrigins   []string
	MaxImages     int
	MaxImageBytes int64
	LogLevel      string
	LogFormat     string
}

// Load reads the environment and fails when a required key is missing.
func Load() (*Config, error) {
	cfg := &Config{
		Port:          getenv("PORT", "8080"),
		PostgresDSN:   getenv("POSTGRES_DSN", ""),
		MongoURI:      getenv("MONGO_URI", ""),
		MongoDB:       getenv("MONGO_DB", "car_catalog"),
		CarStore:      strings.ToLower(getenv("CAR_STORE", StoreMongo)),
		RedisAddr:     getenv("REDIS_ADDR", "redis:6379"),
		RedisPassword: getenv("REDIS_PASSWORD", ""),
		JWTSecret:     getenv("JWT_SECRET", ""),
		JWTIssuer:     getenv("JWT_ISSUER", "car-catalog"),
		JWTTTL:        time.Duration(getint("JWT_TTL_MINUTES", 60)) * time.Minute,
		CORSOrigins:   parseCSV(getenv("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173")),
		MaxImages:     getint("MAX_IMAGES", 10),
		MaxImageBytes: int64(getint("MAX_IMAGE_BYTES", 5<<20)),
		LogLevel:      getenv("LOG_LEVEL", "info"),
		LogFormat:     getenv("LOG_FORMAT", "text"),
	}

	if cfg.PostgresDSN == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}
	switch cfg.CarStore {
	case StoreMongo:
		if cfg.MongoURI == "" {
			return nil, errors.New("MONGO_URI is required")
		}
	case StoreMemory:
	default:
		return nil, errors.New("CAR_STORE must be mongo or memory")
	}
	return cfg, nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.Port
}

// MaxUploadBytes bounds a whole multipart body. Kept images travel as base64
// text, so the budget is every image at its limit after base64 expansion,
// plus a megabyte for the other fields and multipart framing. Raw uploads
// are smaller than their encoding and fit the same budget.
func (c *Config) MaxUploadBytes() int64 {
	perImage := int64(base64.StdEncoding.EncodedLen(int(c.MaxImageBytes)))
	return int64(c.MaxImages)*perImage + 1<<20
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getint(key string, fallback int) int {
	n, err := strconv.Atoi(getenv(key, ""))
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func parseCSV(input string) []string {
	var out []string
	for _, part := range strings.Split(input, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
