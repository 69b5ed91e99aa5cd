package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPPort        string
	ShutdownTimeout time.Duration
	LogLevel        string
	APIToken        string

	Database    DatabaseConfig
	ObjectStore ObjectStoreConfig
	OpenAI      OpenAIConfig
}

type DatabaseConfig struct {
	// Driver selects the backing database: "postgres" or "sqlite".
	Driver string
	// DSN is the Postgres connection string. Ignored for sqlite.
	DSN string
	// Path is the sqlite database file. Ignored for postgres.
	Path string
}

type ObjectStoreConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	// SignedURLTTL bounds how long a minted recording URL stays valid.
	SignedURLTTL time.Duration
}

type OpenAIConfig struct {
	APIKey          string
	BaseURL         string
	TranscribeModel string
	SummaryModel    string
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		ShutdownTimeout: getDuration("HTTP_SHUTDOWN_TIMEOUT", 10*time.Second),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		APIToken:        os.Getenv("API_TOKEN"),
		Database: DatabaseConfig{
			Driver: getEnv("DB_DRIVER", "sqlite"),
			DSN:    os.Getenv("DATABASE_URL"),
			Path:   getEnv("SQLITE_PATH", "data/conversechronicle.db"),
		},
		ObjectStore: ObjectStoreConfig{
			Endpoint:     getEnv("OBJECT_STORE_ENDPOINT", "localhost:9000"),
			AccessKey:    os.Getenv("OBJECT_STORE_ACCESS_KEY"),
			SecretKey:    os.Getenv("OBJECT_STORE_SECRET_KEY"),
			Bucket:       getEnv("OBJECT_STORE_BUCKET", "recordings"),
			UseSSL:       getBool("OBJECT_STORE_USE_SSL", false),
			SignedURLTTL: getDuration("SIGNED_URL_TTL", time.Hour),
		},
		OpenAI: OpenAIConfig{
			APIKey:          os.Getenv("OPENAI_API_KEY"),
			BaseURL:         os.Getenv("OPENAI_BASE_URL"),
			TranscribeModel: getEnv("OPENAI_TRANSCRIBE_MODEL", "whisper-1"),
			SummaryModel:    getEnv("OPENAI_SUMMARY_MODEL", "gpt-4o-mini"),
		},
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// getDuration accepts a bare integer (seconds) or time.ParseDuration syntax
// ("15m", "1h30m").
func getDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}
