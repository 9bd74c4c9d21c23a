package utils

import (
	"errors"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App         AppConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	AMQP        AMQPConfig
	Reservation ReservationConfig
	Sweeper     SweeperConfig
	RateLimit   RateLimitConfig
	Webhook     WebhookConfig
}

type AppConfig struct {
	Name        string
	Port        string
	Debug       bool
	LogPath     string
	StoreDriver string // postgres | memory
	// SeedResources is only read by the memory driver, format "CODE:Name,CODE:Name".
	SeedResources string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	MaxConns int32
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

type AMQPConfig struct {
	URL      string
	Exchange string
	Queue    string
}

type ReservationConfig struct {
	HoldDuration    time.Duration
	MaxHoldDuration time.Duration
	LockTimeout     time.Duration
	LockRetries     int
	LockBackoff     time.Duration
}

type SweeperConfig struct {
	Interval      time.Duration
	BatchSize     int
	RetentionDays int
}

type RateLimitConfig struct {
	RPS      float64
	Burst    int
	IdleTTL  time.Duration
	TrustXFF bool
}

type WebhookConfig struct {
	// TokenHash is the bcrypt hash of the shared token payment providers send in X-Webhook-Token.
	TokenHash string
}

func LoadConfig() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.SetConfigType("env")

	// Set defaults
	viper.SetDefault("APP_NAME", "slot-booking")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("DEBUG", false)
	viper.SetDefault("LOG_PATH", "logs/")
	viper.SetDefault("STORE_DRIVER", "postgres")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_MAX_CONNS", 10)
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("REDIS_PREFIX", "slot-booking:outcomes")
	viper.SetDefault("AMQP_EXCHANGE", "booking.events")
	viper.SetDefault("AMQP_QUEUE", "slot-booking.payments")
	viper.SetDefault("HOLD_DURATION", "10m")
	viper.SetDefault("HOLD_MAX_DURATION", "60m")
	viper.SetDefault("LOCK_TIMEOUT", "2s")
	viper.SetDefault("LOCK_RETRIES", 3)
	viper.SetDefault("LOCK_BACKOFF", "50ms")
	viper.SetDefault("SWEEP_INTERVAL", "30s")
	viper.SetDefault("SWEEP_BATCH_SIZE", 100)
	viper.SetDefault("SWEEP_RETENTION_DAYS", 7)
	viper.SetDefault("RATE_LIMIT_RPS", 5)
	viper.SetDefault("RATE_LIMIT_BURST", 10)
	viper.SetDefault("RATE_LIMIT_IDLE_TTL", "15m")
	viper.SetDefault("RATE_LIMIT_TRUST_XFF", false)

	viper.AutomaticEnv()

	// .env is optional, container deployments pass everything through the environment
	if err := viper.ReadInConfig(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	config := &Config{
		App: AppConfig{
			Name:          viper.GetString("APP_NAME"),
			Port:          viper.GetString("PORT"),
			Debug:         viper.GetBool("DEBUG"),
			LogPath:       viper.GetString("LOG_PATH"),
			StoreDriver:   viper.GetString("STORE_DRIVER"),
			SeedResources: viper.GetString("SEED_RESOURCES"),
		},
		Database: DatabaseConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			Name:     viper.GetString("DB_NAME"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASS"),
			MaxConns: viper.GetInt32("DB_MAX_CONNS"),
		},
		Redis: RedisConfig{
			Addr:     viper.GetString("REDIS_ADDR"),
			Password: viper.GetString("REDIS_PASS"),
			DB:       viper.GetInt("REDIS_DB"),
			Prefix:   viper.GetString("REDIS_PREFIX"),
		},
		AMQP: AMQPConfig{
			URL:      viper.GetString("AMQP_URL"),
			Exchange: viper.GetString("AMQP_EXCHANGE"),
			Queue:    viper.GetString("AMQP_QUEUE"),
		},
		Reservation: ReservationConfig{
			HoldDuration:    viper.GetDuration("HOLD_DURATION"),
			MaxHoldDuration: viper.GetDuration("HOLD_MAX_DURATION"),
			LockTimeout:     viper.GetDuration("LOCK_TIMEOUT"),
			LockRetries:     viper.GetInt("LOCK_RETRIES"),
			LockBackoff:     viper.GetDuration("LOCK_BACKOFF"),
		},
		Sweeper: SweeperConfig{
			Interval:      viper.GetDuration("SWEEP_INTERVAL"),
			BatchSize:     viper.GetInt("SWEEP_BATCH_SIZE"),
			RetentionDays: viper.GetInt("SWEEP_RETENTION_DAYS"),
		},
		RateLimit: RateLimitConfig{
			RPS:      viper.GetFloat64("RATE_LIMIT_RPS"),
			Burst:    viper.GetInt("RATE_LIMIT_BURST"),
			IdleTTL:  viper.GetDuration("RATE_LIMIT_IDLE_TTL"),
			TrustXFF: viper.GetBool("RATE_LIMIT_TRUST_XFF"),
		},
		Webhook: WebhookConfig{
			TokenHash: viper.GetString("WEBHOOK_TOKEN_HASH"),
		},
	}

	return config, nil
}
