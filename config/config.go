package config

import (
	"fmt"
	"os"
	"time"
)

type Config struct {
	Environment string
	Name        string
	Version     string
	BaseURL     string
	HTTP        HTTPConfig
	Postgres    PostgresConfig
	JWT         JWTConfig
	SMTP        SMTPConfig
	Redis       RedisConfig
	Kafka       KafkaConfig
	S3          S3Config
	Elastic     ElasticConfig
	Stripe      StripeConfig
	SentryDSN   string

	ReminderInterval time.Duration
}

type HTTPConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	MaxHeaderMB  int
}

type PostgresConfig struct {
	Host               string
	Port               string
	Username           string
	Password           string
	DBName             string
	SSLMode            string
	MaxConnections     int
	MaxIdleConnections int
	MaxLifetime        time.Duration
}

type JWTConfig struct {
	SigningKey      string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

type SMTPConfig struct {
	Host string
	Port string
	User string
	Pass string
	From string
}

// Configured сообщает, настроен ли SMTP транспорт.
// Без хоста рассылка работает в dev-режиме: письма логируются, но не отправляются.
func (c SMTPConfig) Configured() bool {
	return c.Host != ""
}

type RedisConfig struct {
	Addr     string
	Password string
	SlotTTL  time.Duration
}

type KafkaConfig struct {
	Broker string
	Topic  string
}

type S3Config struct {
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	UseSSL          bool
}

type ElasticConfig struct {
	URL   string
	Index string
}

type StripeConfig struct {
	SecretKey string
	Currency  string
}

func NewConfig() (*Config, error) {
	httpReadTimeout, err := time.ParseDuration(getEnv("HTTP_READ_TIMEOUT", "10s"))
	if err != nil {
		return nil, err
	}

	httpWriteTimeout, err := time.ParseDuration(getEnv("HTTP_WRITE_TIMEOUT", "10s"))
	if err != nil {
		return nil, err
	}

	postgresMaxLifetime, err := time.ParseDuration(getEnv("POSTGRES_MAX_LIFETIME", "5m"))
	if err != nil {
		return nil, err
	}

	jwtAccessTokenTTL, err := time.ParseDuration(getEnv("JWT_ACCESS_TOKEN_TTL", "15m"))
	if err != nil {
		return nil, err
	}

	jwtRefreshTokenTTL, err := time.ParseDuration(getEnv("JWT_REFRESH_TOKEN_TTL", "24h"))
	if err != nil {
		return nil, err
	}

	slotCacheTTL, err := time.ParseDuration(getEnv("REDIS_SLOT_TTL", "2m"))
	if err != nil {
		return nil, err
	}

	reminderInterval, err := time.ParseDuration(getEnv("REMINDER_INTERVAL", "1h"))
	if err != nil {
		return nil, err
	}

	// NEXTAUTH_URL оставлен для совместимости с существующими деплоями,
	// APP_BASE_URL имеет приоритет.
	baseURL := getEnv("APP_BASE_URL", "")
	if baseURL == "" {
		baseURL = getEnv("NEXTAUTH_URL", "http://localhost:3000")
	}

	return &Config{
		ReminderInterval: reminderInterval,

		Environment: getEnv("APP_ENV", "development"),
		Name:        getEnv("APP_NAME", "mindwell"),
		Version:     getEnv("APP_VERSION", "1.0.0"),
		BaseURL:     baseURL,
		HTTP: HTTPConfig{
			Port:         getEnv("HTTP_PORT", "8080"),
			ReadTimeout:  httpReadTimeout,
			WriteTimeout: httpWriteTimeout,
			MaxHeaderMB:  getEnvAsInt("HTTP_MAX_HEADER_MB", 1),
		},
		Postgres: PostgresConfig{
			Host:               getEnv("POSTGRES_HOST", "localhost"),
			Port:               getEnv("POSTGRES_PORT", "5432"),
			Username:           getEnv("POSTGRES_USER", "postgres"),
			Password:           getEnv("POSTGRES_PASSWORD", "postgres"),
			DBName:             getEnv("POSTGRES_DB", "mindwell"),
			SSLMode:            getEnv("POSTGRES_SSL_MODE", "disable"),
			MaxConnections:     getEnvAsInt("POSTGRES_MAX_CONNECTIONS", 10),
			MaxIdleConnections: getEnvAsInt("POSTGRES_MAX_IDLE_CONNECTIONS", 5),
			MaxLifetime:        postgresMaxLifetime,
		},
		JWT: JWTConfig{
			SigningKey:      getEnv("JWT_SIGNING_KEY", "your_secret_key"),
			AccessTokenTTL:  jwtAccessTokenTTL,
			RefreshTokenTTL: jwtRefreshTokenTTL,
		},
		SMTP: SMTPConfig{
			Host: getEnv("SMTP_HOST", ""),
			Port: getEnv("SMTP_PORT", "587"),
			User: getEnv("SMTP_USER", ""),
			Pass: getEnv("SMTP_PASS", ""),
			From: getEnv("SMTP_FROM", "no-reply@mindwell.app"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_HOST", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			SlotTTL:  slotCacheTTL,
		},
		Kafka: KafkaConfig{
			Broker: getEnv("KAFKA_BROKER", ""),
			Topic:  getEnv("KAFKA_TOPIC", "appointment-events"),
		},
		S3: S3Config{
			Endpoint:        getEnv("S3_ENDPOINT", ""),
			Region:          getEnv("S3_REGION", "us-east-1"),
			AccessKeyID:     getEnv("S3_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("S3_SECRET_ACCESS_KEY", ""),
			Bucket:          getEnv("S3_BUCKET", "mindwell"),
			UseSSL:          getEnv("S3_USE_SSL", "true") == "true",
		},
		Elastic: ElasticConfig{
			URL:   getEnv("ELASTICSEARCH_URL", ""),
			Index: getEnv("ELASTICSEARCH_INDEX", "professionals"),
		},
		Stripe: StripeConfig{
			SecretKey: getEnv("STRIPE_SECRET_KEY", ""),
			Currency:  getEnv("STRIPE_CURRENCY", "eur"),
		},
		SentryDSN: getEnv("SENTRY_DSN", ""),
	}, nil
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value := 0
	_, err := fmt.Sscanf(valueStr, "%d", &value)
	if err != nil {
		return defaultValue
	}

	return value
}
