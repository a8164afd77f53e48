package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	HTTPPort        string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	LogLevel        string

	MongoURI    string
	MongoDBName string

	RedisAddr      string
	RedisPassword  string
	IdempotencyTTL time.Duration

	DBHost         string
	DBPort         int
	DBUser         string
	DBPassword     string
	DBName         string
	MigrationsPath string

	KafkaBrokers          []string
	OrderEventsTopic      string
	OrderEventsRetryTopic string

	EmailGroupID     string
	EmailBatchSize   int
	EmailBatchWait   time.Duration
	EmailConcurrency int
	EmailMaxAttempts int
	SendGridAPIKey   string
	SenderEmail      string
	GRPCHealthPort   string

	StripeSecretKey     string
	StripeWebhookSecret string

	CognitoClientID string
	AWSRegion       string

	CartMaxRetries int

	OTLPEndpoint string
}

// Load reads the process configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{
		HTTPPort:              getEnv("HTTP_PORT", "8080"),
		LogLevel:              getEnv("LOG_LEVEL", "info"),
		MongoURI:              getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDBName:           getEnv("MONGO_DB_NAME", "shopdb"),
		RedisAddr:             getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:         getEnv("REDIS_PASSWORD", ""),
		DBHost:                getEnv("DB_HOST", "localhost"),
		DBUser:                getEnv("DB_USER", "postgres"),
		DBPassword:            getEnv("DB_PASSWORD", "postgres"),
		DBName:                getEnv("DB_NAME", "orders"),
		MigrationsPath:        getEnv("MIGRATIONS_PATH", "./internal/repository/migrations"),
		KafkaBrokers:          splitList(getEnv("KAFKA_BROKERS", "localhost:9092")),
		OrderEventsTopic:      getEnv("ORDER_EVENTS_TOPIC", "order-events"),
		OrderEventsRetryTopic: getEnv("ORDER_EVENTS_RETRY_TOPIC", "order-events-retry"),
		EmailGroupID:          getEnv("EMAIL_GROUP_ID", "email-worker"),
		SendGridAPIKey:        getEnv("SENDGRID_API_KEY", ""),
		SenderEmail:           getEnv("SENDER_EMAIL", ""),
		GRPCHealthPort:        getEnv("GRPC_HEALTH_PORT", "50051"),
		StripeSecretKey:       getEnv("STRIPE_SECRET_KEY", ""),
		StripeWebhookSecret:   getEnv("STRIPE_WEBHOOK_SECRET", ""),
		CognitoClientID:       getEnv("COGNITO_CLIENT_ID", ""),
		AWSRegion:             getEnv("AWS_REGION", "us-east-1"),
		OTLPEndpoint:          getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
	}

	var err error
	if cfg.RequestTimeout, err = getDuration("REQUEST_TIMEOUT", "10s"); err != nil {
		return nil, err
	}
	if cfg.ShutdownTimeout, err = getDuration("SHUTDOWN_TIMEOUT", "15s"); err != nil {
		return nil, err
	}
	if cfg.IdempotencyTTL, err = getDuration("IDEMPOTENCY_TTL", "24h"); err != nil {
		return nil, err
	}
	if cfg.EmailBatchWait, err = getDuration("EMAIL_BATCH_WAIT", "5s"); err != nil {
		return nil, err
	}
	if cfg.DBPort, err = getInt("DB_PORT", "5432"); err != nil {
		return nil, err
	}
	if cfg.EmailBatchSize, err = getInt("EMAIL_BATCH_SIZE", "10"); err != nil {
		return nil, err
	}
	if cfg.EmailConcurrency, err = getInt("EMAIL_CONCURRENCY", "5"); err != nil {
		return nil, err
	}
	if cfg.EmailMaxAttempts, err = getInt("EMAIL_MAX_ATTEMPTS", "5"); err != nil {
		return nil, err
	}
	if cfg.CartMaxRetries, err = getInt("CART_MAX_RETRIES", "5"); err != nil {
		return nil, err
	}

	if cfg.EmailBatchSize <= 0 {
		return nil, fmt.Errorf("EMAIL_BATCH_SIZE must be positive, got %d", cfg.EmailBatchSize)
	}
	if cfg.CartMaxRetries <= 0 {
		return nil, fmt.Errorf("CART_MAX_RETRIES must be positive, got %d", cfg.CartMaxRetries)
	}
	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key, defaultValue string) (time.Duration, error) {
	d, err := time.ParseDuration(getEnv(key, defaultValue))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getInt(key, defaultValue string) (int, error) {
	n, err := strconv.Atoi(getEnv(key, defaultValue))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
