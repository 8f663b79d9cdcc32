package config

import (
	"log"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	DatabaseURL       string `mapstructure:"DATABASE_URL"`
	Env               string `mapstructure:"ENV"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`

	// Admin endpoints require this key in the x-admin-key header.
	AdminAPIKey string `mapstructure:"ADMIN_API_KEY"`

	// Redis configuration.
	RedisAddr    string `mapstructure:"REDIS_ADDR"`
	RedisPass    string `mapstructure:"REDIS_PASSWORD"`
	RedisCacheDB int    `mapstructure:"REDIS_CACHE_DB"`
	RedisJobDB   int    `mapstructure:"REDIS_JOB_DB"`

	// Payment gateway configuration. GATEWAY=memory selects the in-memory
	// gateway at wiring time (main.go), never inside business logic.
	PaymentGateway      string `mapstructure:"PAYMENT_GATEWAY"`
	StripeKey           string `mapstructure:"STRIPE_KEY"`
	StripeWebhookSecret string `mapstructure:"STRIPE_WEBHOOK_SECRET"`
	OnboardingReturnURL string `mapstructure:"ONBOARDING_RETURN_URL"`

	// Marketplace economics. Commission is in basis points of the order
	// price, e.g. 1500 = 15%.
	CommissionBps int `mapstructure:"COMMISSION_BPS"`

	// SLA maintenance. A sweep interval of zero disables the periodic job;
	// the manual trigger endpoint still works.
	SLASweepMinutes  int `mapstructure:"SLA_SWEEP_MINUTES"`
	AutoCompleteDays int `mapstructure:"AUTO_COMPLETE_DAYS"`
}

var AppConfig Config

func LoadConfig() {
	// Look for a config file named "config.yaml" in the current and "config" directory.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	// Automatically use environment variables where available.
	viper.AutomaticEnv()

	// Set default values.
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("MAX_REQUESTS_PER_MIN", 100)
	viper.SetDefault("ADMIN_API_KEY", "")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_CACHE_DB", 0)
	viper.SetDefault("REDIS_JOB_DB", 1)
	viper.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	viper.SetDefault("PAYMENT_GATEWAY", "stripe")
	viper.SetDefault("STRIPE_KEY", "")
	viper.SetDefault("STRIPE_WEBHOOK_SECRET", "")
	viper.SetDefault("ONBOARDING_RETURN_URL", "http://localhost:3000/provider/onboarding")
	viper.SetDefault("COMMISSION_BPS", 1500)
	viper.SetDefault("SLA_SWEEP_MINUTES", 30)
	viper.SetDefault("AUTO_COMPLETE_DAYS", 7)

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}
