package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. VENUEBOOKING_DATABASE_HOST.
const EnvPrefix = "VENUEBOOKING"

const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"

	EventsDriverKafka    = "kafka"
	EventsDriverRabbitMQ = "rabbitmq"
	EventsDriverNone     = "none"
)

type Config struct {
	HTTP     HTTPConfig     `yaml:"http" envconfig:"HTTP"`
	GRPC     GRPCConfig     `yaml:"grpc" envconfig:"GRPC"`
	Database DatabaseConfig `yaml:"database" envconfig:"DATABASE"`
	Redis    RedisConfig    `yaml:"redis" envconfig:"REDIS"`
	Kafka    KafkaConfig    `yaml:"kafka" envconfig:"KAFKA"`
	RabbitMQ RabbitMQConfig `yaml:"rabbitmq" envconfig:"RABBITMQ"`
	Events   EventsConfig   `yaml:"events" envconfig:"EVENTS"`
	Storage  StorageConfig  `yaml:"storage" envconfig:"STORAGE"`
	Booking  BookingConfig  `yaml:"booking" envconfig:"BOOKING"`
	Worker   WorkerConfig   `yaml:"worker" envconfig:"WORKER"`
	Auth     AuthConfig     `yaml:"auth" envconfig:"AUTH"`
	Log      LogConfig      `yaml:"log" envconfig:"LOG"`
	Tracing  TracingConfig  `yaml:"tracing" envconfig:"TRACING"`
}

type HTTPConfig struct {
	Address    string `yaml:"address" envconfig:"ADDRESS"`
	SwaggerDir string `yaml:"swagger_dir" envconfig:"SWAGGER_DIR"`
}

type GRPCConfig struct {
	Address string `yaml:"address" envconfig:"ADDRESS"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host" envconfig:"HOST"`
	Port     int    `yaml:"port" envconfig:"PORT"`
	User     string `yaml:"user" envconfig:"USER"`
	Password string `yaml:"password" envconfig:"PASSWORD"`
	Name     string `yaml:"name" envconfig:"NAME"`
	SSLMode  string `yaml:"ssl_mode" envconfig:"SSL_MODE"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s", d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type RedisConfig struct {
	Addr     string `yaml:"addr" envconfig:"ADDR"`
	Password string `yaml:"password" envconfig:"PASSWORD"`
	DB       int    `yaml:"db" envconfig:"DB"`
}

type KafkaConfig struct {
	Brokers            []string `yaml:"brokers" envconfig:"BROKERS"`
	BookingEventsTopic string   `yaml:"booking_events_topic" envconfig:"BOOKING_EVENTS_TOPIC"`
	NotificationsTopic string   `yaml:"notifications_topic" envconfig:"NOTIFICATIONS_TOPIC"`
	GroupID            string   `yaml:"group_id" envconfig:"GROUP_ID"`
}

type RabbitMQConfig struct {
	URL      string `yaml:"url" envconfig:"URL"`
	Exchange string `yaml:"exchange" envconfig:"EXCHANGE"`
	Queue    string `yaml:"queue" envconfig:"QUEUE"`
}

type EventsConfig struct {
	Driver string `yaml:"driver" envconfig:"DRIVER"`
}

type StorageConfig struct {
	Driver   string `yaml:"driver" envconfig:"DRIVER"`
	SeedPath string `yaml:"seed_path" envconfig:"SEED_PATH"`
}

type BookingConfig struct {
	Timezone            string `yaml:"timezone" envconfig:"TIMEZONE"`
	CalendarCacheTTL    int    `yaml:"calendar_cache_ttl_seconds" envconfig:"CALENDAR_CACHE_TTL_SECONDS"`
	MaxCalendarSpanDays int    `yaml:"max_calendar_span_days" envconfig:"MAX_CALENDAR_SPAN_DAYS"`
	PublishRetries      int    `yaml:"publish_retries" envconfig:"PUBLISH_RETRIES"`
}

// Location resolves Timezone, defaulting to UTC.
func (b BookingConfig) Location() (*time.Location, error) {
	if b.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(b.Timezone)
}

func (b BookingConfig) CacheTTL() time.Duration {
	return time.Duration(b.CalendarCacheTTL) * time.Second
}

type WorkerConfig struct {
	CompletionSweepMinutes int `yaml:"completion_sweep_minutes" envconfig:"COMPLETION_SWEEP_MINUTES"`
}

func (w WorkerConfig) SweepInterval() time.Duration {
	return time.Duration(w.CompletionSweepMinutes) * time.Minute
}

type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret" envconfig:"JWT_SECRET"`
}

type LogConfig struct {
	Level  string `yaml:"level" envconfig:"LEVEL"`
	Format string `yaml:"format" envconfig:"FORMAT"`
}

type TracingConfig struct {
	Enabled     bool    `yaml:"enabled" envconfig:"ENABLED"`
	Endpoint    string  `yaml:"endpoint" envconfig:"ENDPOINT"`
	ServiceName string  `yaml:"service_name" envconfig:"SERVICE_NAME"`
	SampleRatio float64 `yaml:"sample_ratio" envconfig:"SAMPLE_RATIO"`
}

// LoadConfig reads the YAML file at path, then applies a .env file (if
// any) and VENUEBOOKING_* environment variables on top of it.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		HTTP:     HTTPConfig{Address: ":8080"},
		GRPC:     GRPCConfig{Address: ":9090"},
		Database: DatabaseConfig{Port: 5432, SSLMode: "disable"},
		Kafka: KafkaConfig{
			BookingEventsTopic: "venue_booking_events",
			NotificationsTopic: "venue_notifications",
			GroupID:            "venuebooking-worker",
		},
		RabbitMQ: RabbitMQConfig{Exchange: "venuebooking", Queue: "venuebooking.notifications"},
		Events:   EventsConfig{Driver: EventsDriverKafka},
		Storage:  StorageConfig{Driver: StorageDriverPostgres},
		Booking: BookingConfig{
			Timezone:            "UTC",
			CalendarCacheTTL:    300,
			MaxCalendarSpanDays: 366,
			PublishRetries:      3,
		},
		Worker:  WorkerConfig{CompletionSweepMinutes: 15},
		Log:     LogConfig{Level: "info", Format: "json"},
		Tracing: TracingConfig{ServiceName: "venuebooking", SampleRatio: 1},
	}
}

func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case StorageDriverPostgres, StorageDriverMemory:
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	switch c.Events.Driver {
	case EventsDriverKafka, EventsDriverRabbitMQ, EventsDriverNone:
	default:
		return fmt.Errorf("unknown events driver %q", c.Events.Driver)
	}
	if _, err := c.Booking.Location(); err != nil {
		return fmt.Errorf("invalid booking timezone: %w", err)
	}
	if c.Booking.MaxCalendarSpanDays <= 0 {
		return fmt.Errorf("booking.max_calendar_span_days must be positive")
	}
	if c.Worker.CompletionSweepMinutes <= 0 {
		return fmt.Errorf("worker.completion_sweep_minutes must be positive")
	}
	return nil
}
