package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Auth     AuthConfig     `yaml:"auth"`
	Payment  PaymentConfig  `yaml:"payment"`
	Pricing  PricingConfig  `yaml:"pricing"`
	Booking  BookingConfig  `yaml:"booking"`
	Log      LogConfig      `yaml:"log"`
	Worker   WorkerConfig   `yaml:"worker"`
}

type HTTPConfig struct {
	Address        string   `yaml:"address"`
	SwaggerDir     string   `yaml:"swagger_dir"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type DatabaseConfig struct {
	URL      string `yaml:"url"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int32  `yaml:"max_conns"`
	// Migrate applies the embedded schema on startup.
	Migrate bool `yaml:"migrate"`
}

func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s", d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type KafkaConfig struct {
	Brokers            []string `yaml:"brokers"`
	NotificationsTopic string   `yaml:"notifications_topic"`
	GroupID            string   `yaml:"group_id"`
}

type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
	Issuer    string `yaml:"issuer"`
}

type PaymentConfig struct {
	TimeoutMillis int     `yaml:"timeout_ms"`
	DeclineRate   float64 `yaml:"decline_rate"`
	LatencyMillis int     `yaml:"latency_ms"`
}

func (p PaymentConfig) Timeout() time.Duration {
	return time.Duration(p.TimeoutMillis) * time.Millisecond
}

func (p PaymentConfig) Latency() time.Duration {
	return time.Duration(p.LatencyMillis) * time.Millisecond
}

type PricingConfig struct {
	TaxRate float64 `yaml:"tax_rate"`
}

type BookingConfig struct {
	FlightsCacheTTL     int `yaml:"flights_cache_ttl_seconds"`
	NotifyTimeoutMillis int `yaml:"notify_timeout_ms"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type WorkerConfig struct {
	ShutdownTimeoutSeconds int `yaml:"shutdown_timeout_seconds"`
}

// LoadConfig reads an optional .env file, the YAML file at path and then
// environment overrides, in that order.
func LoadConfig(path string) (*Config, error) {
	// .env is optional outside of local development
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		HTTP:    HTTPConfig{Address: ":8080"},
		Kafka:   KafkaConfig{NotificationsTopic: "booking-notifications", GroupID: "airticket-notifier"},
		Auth:    AuthConfig{Issuer: "airticket"},
		Payment: PaymentConfig{TimeoutMillis: 5000, DeclineRate: 0.02, LatencyMillis: 200},
		Pricing: PricingConfig{TaxRate: 0.12},
		Booking: BookingConfig{FlightsCacheTTL: 60, NotifyTimeoutMillis: 5000},
		Log:     LogConfig{Level: "info", Format: "json"},
		Worker:  WorkerConfig{ShutdownTimeoutSeconds: 10},
	}
}

func (c *Config) applyEnv() {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Database.URL = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		c.Auth.JWTSecret = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}

func (c *Config) Validate() error {
	var errs []error
	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("auth.jwt_secret is required"))
	}
	if math.IsNaN(c.Pricing.TaxRate) || math.IsInf(c.Pricing.TaxRate, 0) || c.Pricing.TaxRate < 0 {
		errs = append(errs, fmt.Errorf("pricing.tax_rate must be a finite non-negative number, got %v", c.Pricing.TaxRate))
	}
	if c.Payment.TimeoutMillis <= 0 {
		errs = append(errs, errors.New("payment.timeout_ms must be positive"))
	}
	if c.Payment.DeclineRate < 0 || c.Payment.DeclineRate > 1 {
		errs = append(errs, errors.New("payment.decline_rate must be within [0, 1]"))
	}
	if c.Booking.NotifyTimeoutMillis <= 0 {
		errs = append(errs, errors.New("booking.notify_timeout_ms must be positive"))
	}
	return errors.Join(errs...)
}
