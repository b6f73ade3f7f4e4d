package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// ErrInvalidConfig возвращается, когда значения конфигурации противоречат друг другу
var ErrInvalidConfig = errors.New("config: invalid configuration")

// Config конфигурация сервиса
type Config struct {
	Server       ServerConfig       `toml:"server"`
	Database     DatabaseConfig     `toml:"database"`
	Logs         LogsConfig         `toml:"logs"`
	Metrics      MetricsConfig      `toml:"metrics"`
	Booking      BookingConfig      `toml:"booking"`
	Sweeper      SweeperConfig      `toml:"sweeper"`
	Outbox       OutboxConfig       `toml:"outbox"`
	Kafka        KafkaConfig        `toml:"kafka"`
	OpsGenerator OpsGeneratorConfig `toml:"ops_generator"`
	Auth         AuthConfig         `toml:"auth"`
	Payments     PaymentsConfig     `toml:"payments"`
}

type ServerConfig struct {
	HTTPPort        int `toml:"http_port"`
	ReadTimeout     int `toml:"read_timeout"`     // секунды
	WriteTimeout    int `toml:"write_timeout"`    // секунды
	IdleTimeout     int `toml:"idle_timeout"`     // секунды
	ShutdownTimeout int `toml:"shutdown_timeout"` // секунды
}

type DatabaseConfig struct {
	Host            string `toml:"host"`
	Port            int    `toml:"port"`
	User            string `toml:"user"`
	Password        string `toml:"password"`
	DBName          string `toml:"dbname"`
	SSLMode         string `toml:"sslmode"`
	MaxOpenConns    int    `toml:"max_open_conns"`
	MaxIdleConns    int    `toml:"max_idle_conns"`
	ConnMaxLifetime int    `toml:"conn_max_lifetime"` // секунды
	AutoMigrate     bool   `toml:"auto_migrate"`
	// SerializableRetries число повторов транзакции при ошибке сериализации
	SerializableRetries int `toml:"serializable_retries"`
}

// DSN строка подключения для lib/pq
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
}

type LogsConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

type MetricsConfig struct {
	Enabled     bool   `toml:"enabled"`
	Path        string `toml:"path"`
	ServiceName string `toml:"service_name"`
}

// BookingConfig параметры холдов и окна оплаты
type BookingConfig struct {
	DefaultHoldTTLMinutes int `toml:"default_hold_ttl_minutes"`
	MinHoldTTLMinutes     int `toml:"min_hold_ttl_minutes"`
	MaxHoldTTLMinutes     int `toml:"max_hold_ttl_minutes"`
	PaymentWindowMinutes  int `toml:"payment_window_minutes"`
	MaxNights             int `toml:"max_nights"`
}

type SweeperConfig struct {
	Enabled         bool `toml:"enabled"`
	IntervalSeconds int  `toml:"interval_seconds"`
	BatchSize       int  `toml:"batch_size"`
}

type OutboxConfig struct {
	Enabled             bool `toml:"enabled"`
	PollIntervalSeconds int  `toml:"poll_interval_seconds"`
	BatchSize           int  `toml:"batch_size"`
	MaxAttempts         int  `toml:"max_attempts"`
	BaseBackoffSeconds  int  `toml:"base_backoff_seconds"`
}

type KafkaConfig struct {
	Enabled bool     `toml:"enabled"`
	Brokers []string `toml:"brokers"`
	Topic   string   `toml:"topic"`
	Timeout int      `toml:"timeout"` // секунды
}

type OpsGeneratorConfig struct {
	Enabled bool   `toml:"enabled"`
	URL     string `toml:"url"`
	Timeout int    `toml:"timeout"` // секунды
}

type AuthConfig struct {
	// JWTSecret секрет HS256. Пустой секрет включает доверенные заголовки X-User-ID / X-User-Role.
	JWTSecret string `toml:"jwt_secret"`
	Issuer    string `toml:"issuer"`
}

type PaymentsConfig struct {
	DefaultProvider string `toml:"default_provider"`
}

// Load читает TOML файл, подгружает .env (если есть) и применяет переопределения из окружения
func Load(path string) (*Config, error) {
	cfg := defaults()

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("config: decode %s: %w", path, err)
	}

	// .env необязателен
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config: load .env: %w", err)
	}
	applyEnv(cfg)
	cfg.fillZeroes()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort:        8080,
			ReadTimeout:     15,
			WriteTimeout:    15,
			IdleTimeout:     60,
			ShutdownTimeout: 10,
		},
		Database: DatabaseConfig{
			Host:                "localhost",
			Port:                5432,
			SSLMode:             "disable",
			MaxOpenConns:        25,
			MaxIdleConns:        5,
			ConnMaxLifetime:     300,
			SerializableRetries: 3,
		},
		Logs:    LogsConfig{Level: "info"},
		Metrics: MetricsConfig{Path: "/metrics", ServiceName: "stay-booking-service"},
		Booking: BookingConfig{
			DefaultHoldTTLMinutes: 15,
			MinHoldTTLMinutes:     5,
			MaxHoldTTLMinutes:     60,
			PaymentWindowMinutes:  15,
			MaxNights:             90,
		},
		Sweeper: SweeperConfig{Enabled: true, IntervalSeconds: 60, BatchSize: 500},
		Outbox: OutboxConfig{
			Enabled:             true,
			PollIntervalSeconds: 2,
			BatchSize:           100,
			MaxAttempts:         10,
			BaseBackoffSeconds:  5,
		},
		Kafka:        KafkaConfig{Topic: "booking-events", Timeout: 5},
		OpsGenerator: OpsGeneratorConfig{Timeout: 5},
		Payments:     PaymentsConfig{DefaultProvider: "manual"},
	}
}

// applyEnv переопределяет секреты и адреса из окружения
func applyEnv(cfg *Config) {
	setString(&cfg.Database.Host, "DB_HOST")
	setInt(&cfg.Database.Port, "DB_PORT")
	setString(&cfg.Database.User, "DB_USER")
	setString(&cfg.Database.Password, "DB_PASSWORD")
	setString(&cfg.Database.DBName, "DB_NAME")
	setInt(&cfg.Server.HTTPPort, "HTTP_PORT")
	setString(&cfg.Auth.JWTSecret, "JWT_SECRET")
	setString(&cfg.OpsGenerator.URL, "OPS_GENERATOR_URL")

	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		brokers := make([]string, 0)
		for _, b := range strings.Split(v, ",") {
			if b = strings.TrimSpace(b); b != "" {
				brokers = append(brokers, b)
			}
		}
		cfg.Kafka.Brokers = brokers
	}
}

// fillZeroes подставляет значения по умолчанию для явно обнуленных ключей
func (c *Config) fillZeroes() {
	d := defaults()
	if c.Booking.PaymentWindowMinutes <= 0 {
		c.Booking.PaymentWindowMinutes = d.Booking.PaymentWindowMinutes
	}
	if c.Sweeper.IntervalSeconds <= 0 {
		c.Sweeper.IntervalSeconds = d.Sweeper.IntervalSeconds
	}
	if c.Sweeper.BatchSize <= 0 {
		c.Sweeper.BatchSize = d.Sweeper.BatchSize
	}
	if c.Outbox.PollIntervalSeconds <= 0 {
		c.Outbox.PollIntervalSeconds = d.Outbox.PollIntervalSeconds
	}
	if c.Outbox.BatchSize <= 0 {
		c.Outbox.BatchSize = d.Outbox.BatchSize
	}
	if c.Outbox.MaxAttempts <= 0 {
		c.Outbox.MaxAttempts = d.Outbox.MaxAttempts
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = d.Metrics.Path
	}
	if c.Payments.DefaultProvider == "" {
		c.Payments.DefaultProvider = d.Payments.DefaultProvider
	}
}

// Validate проверяет согласованность значений
func (c *Config) Validate() error {
	b := c.Booking
	if b.MinHoldTTLMinutes < 5 || b.MaxHoldTTLMinutes > 60 || b.MinHoldTTLMinutes > b.MaxHoldTTLMinutes {
		return fmt.Errorf("%w: hold ttl bounds must lie within [5,60], got [%d,%d]",
			ErrInvalidConfig, b.MinHoldTTLMinutes, b.MaxHoldTTLMinutes)
	}
	if b.DefaultHoldTTLMinutes < b.MinHoldTTLMinutes || b.DefaultHoldTTLMinutes > b.MaxHoldTTLMinutes {
		return fmt.Errorf("%w: default hold ttl %d outside [%d,%d]",
			ErrInvalidConfig, b.DefaultHoldTTLMinutes, b.MinHoldTTLMinutes, b.MaxHoldTTLMinutes)
	}
	if b.MaxNights < 0 {
		return fmt.Errorf("%w: max_nights must not be negative", ErrInvalidConfig)
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("%w: kafka enabled without brokers", ErrInvalidConfig)
	}
	if c.OpsGenerator.Enabled && c.OpsGenerator.URL == "" {
		return fmt.Errorf("%w: ops_generator enabled without url", ErrInvalidConfig)
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}
