package utils

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App         AppConfig
	Database    DatabaseConfig
	Gateway     GatewayConfig
	Reservation ReservationConfig
}

type AppConfig struct {
	Name    string
	Port    string
	Debug   bool
	LogPath string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	MaxConns int32
}

// GatewayConfig holds the per-owner credentials for the payment processor.
// It is passed explicitly into the gateway client, never read from ambient
// state.
type GatewayConfig struct {
	BaseURL    string
	APIKey     string
	MerchantID string
	Currency   string
	Timeout    time.Duration
}

type ReservationConfig struct {
	CodePrefix       string
	MaxDurationHours int
	PaymentGrace     time.Duration
	SweepInterval    time.Duration
}

func LoadConfig() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.SetConfigType("env")

	// Set defaults
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("DEBUG", false)
	viper.SetDefault("DB_MAX_CONNS", 10)
	viper.SetDefault("LOG_PATH", "logs/")
	viper.SetDefault("GATEWAY_CURRENCY", "PEN")
	viper.SetDefault("GATEWAY_TIMEOUT_SECONDS", 10)
	viper.SetDefault("RESERVATION_CODE_PREFIX", "RES")
	viper.SetDefault("RESERVATION_MAX_DURATION_HOURS", 24)
	viper.SetDefault("RESERVATION_PAYMENT_GRACE_MINUTES", 30)
	viper.SetDefault("RESERVATION_SWEEP_INTERVAL_MINUTES", 5)

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	viper.AutomaticEnv()

	config := &Config{
		App: AppConfig{
			Name:    viper.GetString("APP_NAME"),
			Port:    viper.GetString("PORT"),
			Debug:   viper.GetBool("DEBUG"),
			LogPath: viper.GetString("LOG_PATH"),
		},
		Database: DatabaseConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			Name:     viper.GetString("DB_NAME"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASS"),
			MaxConns: viper.GetInt32("DB_MAX_CONNS"),
		},
		Gateway: GatewayConfig{
			BaseURL:    viper.GetString("GATEWAY_BASE_URL"),
			APIKey:     viper.GetString("GATEWAY_API_KEY"),
			MerchantID: viper.GetString("GATEWAY_MERCHANT_ID"),
			Currency:   viper.GetString("GATEWAY_CURRENCY"),
			Timeout:    time.Duration(viper.GetInt("GATEWAY_TIMEOUT_SECONDS")) * time.Second,
		},
		Reservation: ReservationConfig{
			CodePrefix:       viper.GetString("RESERVATION_CODE_PREFIX"),
			MaxDurationHours: viper.GetInt("RESERVATION_MAX_DURATION_HOURS"),
			PaymentGrace:     time.Duration(viper.GetInt("RESERVATION_PAYMENT_GRACE_MINUTES")) * time.Minute,
			SweepInterval:    time.Duration(viper.GetInt("RESERVATION_SWEEP_INTERVAL_MINUTES")) * time.Minute,
		},
	}

	return config, nil
}
