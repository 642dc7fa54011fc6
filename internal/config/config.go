package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

var AppEnv Config

type Config struct {
	Port string
	Env  string

	MongoURI string
	DBName   string

	JWTSecret      string
	AccessTokenTTL time.Duration

	SiteFetchTimeout time.Duration
	PriceCacheTTL    time.Duration
	RespectRobots    bool
	ScraperUserAgent string
	SitesFile        string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	KafkaBrokers []string
	KafkaTopic   string

	OTLPEndpoint string
}

// Load reads .env (when present) and the process environment into AppEnv.
// It runs before the logger exists, so a missing .env is reported by the
// caller through LogEnvFile.
func Load() Config {
	envFileErr = godotenv.Load()

	AppEnv = Config{
		Port: getEnvOrDefault("PORT", "8080"),
		Env:  getEnvOrDefault("ENV", "development"),

		MongoURI: getEnvOrDefault("MONGO_URI", "mongodb://localhost:27017"),
		DBName:   getEnvOrDefault("DB_NAME", "trendhub"),

		JWTSecret:      getEnvOrDefault("JWT_SECRET", ""),
		AccessTokenTTL: getDurationEnv("ACCESS_TOKEN_TTL", 60, time.Minute),

		SiteFetchTimeout: getDurationEnv("SITE_FETCH_TIMEOUT", 5, time.Second),
		PriceCacheTTL:    getDurationEnv("PRICE_CACHE_TTL", 300, time.Second),
		RespectRobots:    getBoolEnv("RESPECT_ROBOTS", true),
		ScraperUserAgent: getEnvOrDefault("SCRAPER_USER_AGENT", ""),
		SitesFile:        getEnvOrDefault("SITES_FILE", "sites.yaml"),

		RedisAddr:     getEnvOrDefault("REDIS_ADDR", ""),
		RedisPassword: getEnvOrDefault("REDIS_PASSWORD", ""),
		RedisDB:       getIntEnv("REDIS_DB", 0),

		KafkaBrokers: getListEnv("KAFKA_BROKERS"),
		KafkaTopic:   getEnvOrDefault("KAFKA_TOPIC", "trendhub-events"),

		OTLPEndpoint: getEnvOrDefault("OTLP_ENDPOINT", ""),
	}
	return AppEnv
}

var envFileErr error

// LogEnvFile reports whether a .env file was loaded. Call it once the
// global logger is installed.
func LogEnvFile() {
	if envFileErr != nil {
		zap.L().Debug(".env not loaded", zap.Error(envFileErr))
	}
}

func (c Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue int, unit time.Duration) time.Duration {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			return time.Duration(parsed) * unit
		}
	}
	return time.Duration(defaultValue) * unit
}

func getIntEnv(key string, defaultValue int) int {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed >= 0 {
			return parsed
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getListEnv splits a comma separated variable, dropping empty items.
func getListEnv(key string) []string {
	var out []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
