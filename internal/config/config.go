package config

import (
	"time"

	"github.com/spf13/viper"
)

// Config carries everything the composition root needs. Values come from
// environment variables via viper; every knob has a sane default for local
// development.
type Config struct {
	AppPort     string
	Environment string
	// BaseURL is this server's public address, used to derive the webhook
	// notification URL handed to the payment gateway.
	BaseURL        string
	FrontendOrigin string

	MPAccessToken string
	MPBaseURL     string

	CatalogURL    string
	CatalogAPIKey string

	DatabaseURL string
	RabbitMQURL string

	JWTSecret     string
	AdminUsername string
	AdminPassword string

	// DownloadWindow is the entitlement window: how long approved orders
	// keep access to their download links.
	DownloadWindow time.Duration
	// OrderRetention bounds how long tracking records are kept before the
	// sweep removes them, independent of status.
	OrderRetention time.Duration
	SweepInterval  time.Duration
}

// Load reads configuration from the environment.
func Load() Config {
	viper.SetDefault("APP_PORT", ":3000")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("BASE_URL", "http://localhost:3000")
	viper.SetDefault("FRONTEND_ORIGIN", "http://localhost:5173")
	viper.SetDefault("MP_ACCESS_TOKEN", "")
	viper.SetDefault("MP_BASE_URL", "")
	viper.SetDefault("CATALOG_URL", "")
	viper.SetDefault("CATALOG_API_KEY", "")
	viper.SetDefault("DATABASE_URL", "")
	viper.SetDefault("RABBITMQ_URL", "")
	viper.SetDefault("JWT_SECRET", "dev_jwt_secret")
	viper.SetDefault("ADMIN_USERNAME", "")
	viper.SetDefault("ADMIN_PASSWORD", "")
	viper.SetDefault("DOWNLOAD_WINDOW_HOURS", 24)
	viper.SetDefault("ORDER_RETENTION_MINUTES", 60)
	viper.SetDefault("SWEEP_INTERVAL_MINUTES", 15)
	viper.AutomaticEnv() // Load environment variables

	return Config{
		AppPort:        viper.GetString("APP_PORT"),
		Environment:    viper.GetString("APP_ENV"),
		BaseURL:        viper.GetString("BASE_URL"),
		FrontendOrigin: viper.GetString("FRONTEND_ORIGIN"),
		MPAccessToken:  viper.GetString("MP_ACCESS_TOKEN"),
		MPBaseURL:      viper.GetString("MP_BASE_URL"),
		CatalogURL:     viper.GetString("CATALOG_URL"),
		CatalogAPIKey:  viper.GetString("CATALOG_API_KEY"),
		DatabaseURL:    viper.GetString("DATABASE_URL"),
		RabbitMQURL:    viper.GetString("RABBITMQ_URL"),
		JWTSecret:      viper.GetString("JWT_SECRET"),
		AdminUsername:  viper.GetString("ADMIN_USERNAME"),
		AdminPassword:  viper.GetString("ADMIN_PASSWORD"),
		DownloadWindow: time.Duration(viper.GetInt("DOWNLOAD_WINDOW_HOURS")) * time.Hour,
		OrderRetention: time.Duration(viper.GetInt("ORDER_RETENTION_MINUTES")) * time.Minute,
		SweepInterval:  time.Duration(viper.GetInt("SWEEP_INTERVAL_MINUTES")) * time.Minute,
	}
}

// IsProduction reports whether the app runs with the production profile.
// Debug-only endpoints stay hidden when this is true.
func (c Config) IsProduction() bool {
	return c.Environment == "production"
}
