package main

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port        string `mapstructure:"PORT"`
	Environment string `mapstructure:"ENVIRONMENT"`
	Version     string `mapstructure:"VERSION"`
	TLSCertFile string `mapstructure:"TLS_CERT_FILE"`
	TLSKeyFile  string `mapstructure:"TLS_KEY_FILE"`

	DB         DBConfig         `mapstructure:",squash"`
	Mail       MailConfig       `mapstructure:",squash"`
	RabbitMQ   RabbitMQConfig   `mapstructure:",squash"`
	Log        LogConfig        `mapstructure:",squash"`
	Engagement EngagementConfig `mapstructure:",squash"`
	RateLimit  RateLimitConfig  `mapstructure:",squash"`
}

type DBConfig struct {
	Host         string        `mapstructure:"POSTGRES_HOST"`
	Port         string        `mapstructure:"POSTGRES_PORT"`
	User         string        `mapstructure:"POSTGRES_USER"`
	Password     string        `mapstructure:"POSTGRES_PASSWORD"`
	Name         string        `mapstructure:"POSTGRES_DB"`
	MaxOpenConns int           `mapstructure:"POSTGRES_MAX_OPEN_CONNS"`
	MaxIdleConns int           `mapstructure:"POSTGRES_MAX_IDLE_CONNS"`
	MaxIdleTime  time.Duration `mapstructure:"POSTGRES_MAX_IDLE_TIME"`
}

type MailConfig struct {
	Host     string `mapstructure:"MAIL_HOST"`
	Port     int    `mapstructure:"MAIL_PORT"`
	User     string `mapstructure:"MAIL_USER"`
	Password string `mapstructure:"MAIL_PASSWORD"`
	Sender   string `mapstructure:"MAIL_SENDER"`
}

type RabbitMQConfig struct {
	Host     string `mapstructure:"RABBITMQ_HOST"`
	Port     string `mapstructure:"RABBITMQ_PORT"`
	User     string `mapstructure:"RABBITMQ_USER"`
	Password string `mapstructure:"RABBITMQ_PASSWORD"`
}

type LogConfig struct {
	Level  string `mapstructure:"LOG_LEVEL"`
	Format string `mapstructure:"LOG_FORMAT"`
}

type EngagementConfig struct {
	ViewDedupWindow   time.Duration `mapstructure:"VIEW_DEDUP_WINDOW"`
	TxMaxRetries      int           `mapstructure:"TX_MAX_RETRIES"`
	ReconcileInterval time.Duration `mapstructure:"RECONCILE_INTERVAL"`
	CacheTTL          time.Duration `mapstructure:"CACHE_TTL"`
}

type RateLimitConfig struct {
	Enabled bool    `mapstructure:"RATE_LIMIT_ENABLED"`
	RPS     float64 `mapstructure:"RATE_LIMIT_RPS"`
	Burst   int     `mapstructure:"RATE_LIMIT_BURST"`
}

var configDefaults = map[string]any{
	"PORT":                    "4000",
	"ENVIRONMENT":             "development",
	"VERSION":                 "1.0.0",
	"TLS_CERT_FILE":           "",
	"TLS_KEY_FILE":            "",
	"POSTGRES_HOST":           "localhost",
	"POSTGRES_PORT":           "5432",
	"POSTGRES_USER":           "",
	"POSTGRES_PASSWORD":       "",
	"POSTGRES_DB":             "",
	"POSTGRES_MAX_OPEN_CONNS": 25,
	"POSTGRES_MAX_IDLE_CONNS": 25,
	"POSTGRES_MAX_IDLE_TIME":  "15m",
	"MAIL_HOST":               "",
	"MAIL_PORT":               587,
	"MAIL_USER":               "",
	"MAIL_PASSWORD":           "",
	"MAIL_SENDER":             "",
	"RABBITMQ_HOST":           "localhost",
	"RABBITMQ_PORT":           "5672",
	"RABBITMQ_USER":           "guest",
	"RABBITMQ_PASSWORD":       "guest",
	"LOG_LEVEL":               "info",
	"LOG_FORMAT":              "text",
	"VIEW_DEDUP_WINDOW":       "24h",
	"TX_MAX_RETRIES":          5,
	"RECONCILE_INTERVAL":      "1h",
	"CACHE_TTL":               "30s",
	"RATE_LIMIT_ENABLED":      true,
	"RATE_LIMIT_RPS":          2,
	"RATE_LIMIT_BURST":        4,
}

// loadConfig reads the .env file at path. Environment variables override values from the file.
// An empty path loads defaults and the environment only.
func loadConfig(path string) (*Config, error) {
	v := viper.New()
	for key, value := range configDefaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("env")
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}
