package utils

import (
	"errors"
	"fmt"
	"os"
	"time"

	"talent-escrow/internal/fee"

	"github.com/spf13/viper"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Escrow   EscrowConfig
	Redis    RedisConfig
	RabbitMQ RabbitMQConfig
	Tracing  TracingConfig
}

type AppConfig struct {
	Name    string
	Port    string
	Env     string
	Debug   bool
	LogPath string
}

type DatabaseConfig struct {
	Host        string
	Port        string
	Name        string
	User        string
	Password    string
	MaxConns    int32
	AutoMigrate bool
}

type AuthConfig struct {
	JWTSecret      string
	ServiceKeyHash string
}

type EscrowConfig struct {
	HoldPeriod         time.Duration
	FeeScheduleVersion int
	SweepEnabled       bool
	SweepInterval      time.Duration
	SweepBatch         int
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type RabbitMQConfig struct {
	URL      string
	Exchange string
}

type TracingConfig struct {
	Endpoint string
}

func LoadConfig() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.SetConfigType("env")

	// Set defaults
	viper.SetDefault("APP_NAME", "talent-escrow")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("ENV", "dev")
	viper.SetDefault("DEBUG", false)
	viper.SetDefault("LOG_PATH", "logs/")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_MAX_CONNS", 10)
	viper.SetDefault("DB_AUTO_MIGRATE", true)
	viper.SetDefault("ESCROW_HOLD_HOURS", 72)
	viper.SetDefault("FEE_SCHEDULE_VERSION", 1)
	viper.SetDefault("ESCROW_SWEEP_ENABLED", true)
	viper.SetDefault("ESCROW_SWEEP_INTERVAL_SECONDS", 60)
	viper.SetDefault("ESCROW_SWEEP_BATCH", 100)
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("RABBITMQ_EXCHANGE", "escrow.events")

	// .env is optional in containers where everything comes from the environment
	if err := viper.ReadInConfig(); err != nil && !errors.Is(err, os.ErrNotExist) {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	viper.AutomaticEnv()

	config := &Config{
		App: AppConfig{
			Name:    viper.GetString("APP_NAME"),
			Port:    viper.GetString("PORT"),
			Env:     viper.GetString("ENV"),
			Debug:   viper.GetBool("DEBUG"),
			LogPath: viper.GetString("LOG_PATH"),
		},
		Database: DatabaseConfig{
			Host:        viper.GetString("DB_HOST"),
			Port:        viper.GetString("DB_PORT"),
			Name:        viper.GetString("DB_NAME"),
			User:        viper.GetString("DB_USER"),
			Password:    viper.GetString("DB_PASS"),
			MaxConns:    viper.GetInt32("DB_MAX_CONNS"),
			AutoMigrate: viper.GetBool("DB_AUTO_MIGRATE"),
		},
		Auth: AuthConfig{
			JWTSecret:      viper.GetString("JWT_SECRET"),
			ServiceKeyHash: viper.GetString("SERVICE_KEY_HASH"),
		},
		Escrow: EscrowConfig{
			HoldPeriod:         time.Duration(viper.GetInt("ESCROW_HOLD_HOURS")) * time.Hour,
			FeeScheduleVersion: viper.GetInt("FEE_SCHEDULE_VERSION"),
			SweepEnabled:       viper.GetBool("ESCROW_SWEEP_ENABLED"),
			SweepInterval:      time.Duration(viper.GetInt("ESCROW_SWEEP_INTERVAL_SECONDS")) * time.Second,
			SweepBatch:         viper.GetInt("ESCROW_SWEEP_BATCH"),
		},
		Redis: RedisConfig{
			Addr:     viper.GetString("REDIS_ADDR"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		RabbitMQ: RabbitMQConfig{
			URL:      viper.GetString("RABBITMQ_URL"),
			Exchange: viper.GetString("RABBITMQ_EXCHANGE"),
		},
		Tracing: TracingConfig{
			Endpoint: viper.GetString("OTEL_EXPORTER_OTLP_ENDPOINT"),
		},
	}

	if config.Auth.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}
	if _, err := fee.Lookup(config.Escrow.FeeScheduleVersion); err != nil {
		return nil, fmt.Errorf("FEE_SCHEDULE_VERSION must be one of %v: %w", fee.Versions(), err)
	}

	return config, nil
}
