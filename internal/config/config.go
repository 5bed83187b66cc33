package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	ServerPort string
	ServerHost string

	// Embedding inference service
	EmbeddingURL   string
	EmbeddingModel string
	EmbeddingDim   int

	// Ranking constants. These were literals in an earlier iteration;
	// keep them named and overridable.
	CategoryBoost       float64
	TitleBoost          float64
	AbstentionThreshold float64

	// Forecasting
	ModelDir       string
	MinTrainPoints int
	TrainWorkers   int

	// Observability
	JaegerEndpoint string
}

func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "postgres"),
		DBName:     getEnv("DB_NAME", "retail_ops"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		ServerPort: getEnv("SERVER_PORT", "8080"),
		ServerHost: getEnv("SERVER_HOST", "localhost"),

		EmbeddingURL:   getEnv("EMBEDDING_URL", "http://localhost:8090"),
		EmbeddingModel: getEnv("EMBEDDING_MODEL", "paraphrase-multilingual-MiniLM-L12-v2"),
		EmbeddingDim:   getEnvInt("EMBEDDING_DIM", 384),

		CategoryBoost:       getEnvFloat("RANK_CATEGORY_BOOST", 0.3),
		TitleBoost:          getEnvFloat("RANK_TITLE_BOOST", 0.1),
		AbstentionThreshold: getEnvFloat("RANK_ABSTENTION_THRESHOLD", 1.5),

		ModelDir:       getEnv("MODEL_DIR", "models"),
		MinTrainPoints: getEnvInt("MIN_TRAIN_POINTS", 14),
		TrainWorkers:   getEnvInt("TRAIN_WORKERS", 4),

		JaegerEndpoint: getEnv("JAEGER_ENDPOINT", "http://localhost:14268/api/traces"),
	}

	if cfg.EmbeddingURL == "" {
		return nil, fmt.Errorf("EMBEDDING_URL is required")
	}
	if cfg.EmbeddingDim <= 0 {
		return nil, fmt.Errorf("EMBEDDING_DIM must be positive")
	}
	if cfg.MinTrainPoints < 2 {
		return nil, fmt.Errorf("MIN_TRAIN_POINTS must be at least 2")
	}

	return cfg, nil
}

func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}
