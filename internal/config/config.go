package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Env       string          `mapstructure:"env"`
	Log       LogConfig       `mapstructure:"log"`
	Server    ServerConfig    `mapstructure:"server"`
	Grpc      GrpcConfig      `mapstructure:"grpc"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Kafka     KafkaConfig     `mapstructure:"kafka"`
	Events    EventsConfig    `mapstructure:"events"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Portal    PortalConfig    `mapstructure:"portal"`
	Data      DataConfig      `mapstructure:"data"`
}

// LogConfig picks the slog level and handler. An empty format means JSON
// outside local development.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type ServerConfig struct {
	Port         string   `mapstructure:"port"`
	ReadTimeout  int      `mapstructure:"read_timeout_seconds"`
	WriteTimeout int      `mapstructure:"write_timeout_seconds"`
	IdleTimeout  int      `mapstructure:"idle_timeout_seconds"`
	CORSOrigins  []string `mapstructure:"cors_origins"`
}

// GrpcConfig holds the port of the gRPC health endpoint. Empty disables it.
type GrpcConfig struct {
	Port string `mapstructure:"port"`
}

type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            string `mapstructure:"port"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	DBName          string `mapstructure:"name"`
	SSLMode         string `mapstructure:"ssl_mode"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime_seconds"`
	ConnMaxIdleTime int    `mapstructure:"conn_max_idle_time_seconds"`
}

type RedisConfig struct {
	Addr       string `mapstructure:"addr"`
	Password   string `mapstructure:"password"`
	DB         int    `mapstructure:"db"`
	ResultsTTL int    `mapstructure:"results_ttl_seconds"`
}

type NATSConfig struct {
	URL     string `mapstructure:"url"`
	Subject string `mapstructure:"subject"`
}

type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

// EventsConfig selects where registration events go: "", "nats" or "kafka".
type EventsConfig struct {
	Driver string `mapstructure:"driver"`
}

type TelemetryConfig struct {
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
}

type PortalConfig struct {
	StudentName         string `mapstructure:"student_name"`
	SplashDelayMillis   int    `mapstructure:"splash_delay_ms"`
	LoginDelayMillis    int    `mapstructure:"login_delay_ms"`
	ApprovalDelayMillis int    `mapstructure:"approval_delay_ms"`
	ResultsDelayMillis  int    `mapstructure:"results_delay_ms"`
	MinCredits          int    `mapstructure:"min_credits"`
	MaxCredits          int    `mapstructure:"max_credits"`
	DefaultLevel        int    `mapstructure:"default_level"`
}

// DataConfig selects the catalog and results source: "static" or "postgres".
type DataConfig struct {
	Source string `mapstructure:"source"`
}

func (p PortalConfig) SplashDelay() time.Duration {
	return time.Duration(p.SplashDelayMillis) * time.Millisecond
}

func (p PortalConfig) LoginDelay() time.Duration {
	return time.Duration(p.LoginDelayMillis) * time.Millisecond
}

func (p PortalConfig) ApprovalDelay() time.Duration {
	return time.Duration(p.ApprovalDelayMillis) * time.Millisecond
}

func (p PortalConfig) ResultsDelay() time.Duration {
	return time.Duration(p.ResultsDelayMillis) * time.Millisecond
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "local")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.read_timeout_seconds", 15)
	v.SetDefault("server.write_timeout_seconds", 15)
	v.SetDefault("server.idle_timeout_seconds", 60)
	v.SetDefault("grpc.port", "")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.name", "coursemate")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("nats.url", "")
	v.SetDefault("events.driver", "")
	v.SetDefault("telemetry.otlp_endpoint", "")
	v.SetDefault("nats.subject", "coursemate.registrations")
	v.SetDefault("kafka.topic", "coursemate.registrations")
	v.SetDefault("redis.results_ttl_seconds", 300)
	v.SetDefault("portal.student_name", "John Doe")
	v.SetDefault("portal.splash_delay_ms", 3000)
	v.SetDefault("portal.login_delay_ms", 1500)
	v.SetDefault("portal.approval_delay_ms", 2000)
	v.SetDefault("portal.results_delay_ms", 1500)
	v.SetDefault("portal.min_credits", 15)
	v.SetDefault("portal.max_credits", 24)
	v.SetDefault("portal.default_level", 300)
	v.SetDefault("data.source", "static")
}

func Load() (*Config, error) {
	// Get environment from ENV, default to "local"
	env := os.Getenv("ENV")
	if env == "" {
		env = "local"
	}

	v := viper.New()
	setDefaults(v)

	v.SetConfigName(fmt.Sprintf("config.%s", env))
	v.SetConfigType("yaml")
	v.AddConfigPath("/configs")   // Kubernetes mount
	v.AddConfigPath("./configs")  // repo root
	v.AddConfigPath("../configs") // IDE from cmd/
	v.AddConfigPath("../../configs")

	// Config file is optional - defaults and ENV still apply
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// ENV overrides the file: server.port <- SERVER_PORT
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	_ = v.BindEnv("database.user", "DB_USER")
	_ = v.BindEnv("database.password", "DB_PASSWORD")
	_ = v.BindEnv("redis.addr", "REDIS_ADDR")
	_ = v.BindEnv("telemetry.otlp_endpoint", "OTEL_EXPORTER_OTLP_ENDPOINT")

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if config.Env == "" {
		config.Env = env
	}

	return &config, nil
}
