package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Storage drivers
const (
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	JWT       JWTConfig       `yaml:"jwt"`
	Log       LogConfig       `yaml:"log"`
	CORS      CORSConfig      `yaml:"cors"`
	Redis     RedisConfig     `yaml:"redis"`
	NATS      NATSConfig      `yaml:"nats"`
	AWS       AWSConfig       `yaml:"aws"`
	RateLimit RateLimitConfig `yaml:"ratelimit"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port int    `yaml:"port" env:"SERVER_PORT"`
	Host string `yaml:"host" env:"SERVER_HOST"`
}

// DatabaseConfig selects and locates the store
type DatabaseConfig struct {
	Driver string `yaml:"driver" env:"DATABASE_DRIVER"`
	URI    string `yaml:"uri" env:"DATABASE_URI"`
	Name   string `yaml:"name" env:"DATABASE_NAME"`
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret string        `yaml:"secret" env:"JWT_SECRET"`
	TTL    time.Duration `yaml:"ttl" env:"JWT_TTL"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string `yaml:"level" env:"LOG_LEVEL"`
}

// CORSConfig holds the allowed browser origins
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins" env:"CORS_ALLOWED_ORIGINS" envSeparator:","`
}

// RedisConfig enables the shared rate limiter when Addr is set
type RedisConfig struct {
	Addr     string `yaml:"addr" env:"REDIS_ADDR"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB"`
}

// NATSConfig enables event publishing when URL is set
type NATSConfig struct {
	URL           string `yaml:"url" env:"NATS_URL"`
	SubjectPrefix string `yaml:"subject_prefix" env:"NATS_SUBJECT_PREFIX"`
}

// AWSConfig holds the avatar bucket settings. Uploads are disabled without a bucket.
type AWSConfig struct {
	Region        string `yaml:"region" env:"AWS_REGION"`
	S3Bucket      string `yaml:"s3_bucket" env:"AWS_S3_BUCKET"`
	AccessKey     string `yaml:"access_key" env:"AWS_ACCESS_KEY_ID"`
	SecretKey     string `yaml:"secret_key" env:"AWS_SECRET_ACCESS_KEY"`
	Endpoint      string `yaml:"endpoint" env:"AWS_S3_ENDPOINT"`
	PublicBaseURL string `yaml:"public_base_url" env:"AWS_S3_PUBLIC_BASE_URL"`
}

// RateLimitConfig bounds login and signup attempts per email
type RateLimitConfig struct {
	Attempts int           `yaml:"attempts" env:"RATELIMIT_ATTEMPTS"`
	Window   time.Duration `yaml:"window" env:"RATELIMIT_WINDOW"`
}

// Default returns the configuration used when nothing overrides it
func Default() *Config {
	return &Config{
		Server:    ServerConfig{Port: 8080, Host: "0.0.0.0"},
		Database:  DatabaseConfig{Driver: DriverMongo, URI: "mongodb://localhost:27017", Name: "deep-thoughts"},
		JWT:       JWTConfig{TTL: 2 * time.Hour},
		Log:       LogConfig{Level: "info"},
		CORS:      CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}},
		NATS:      NATSConfig{SubjectPrefix: "thoughts"},
		AWS:       AWSConfig{Region: "us-east-1"},
		RateLimit: RateLimitConfig{Attempts: 5, Window: time.Minute},
	}
}

// Load builds the configuration from defaults, the YAML file at path (if it
// exists), a .env file and finally the process environment.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings the server cannot start without
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return fmt.Errorf("invalid config: jwt.secret is required")
	}
	switch c.Database.Driver {
	case DriverMongo, DriverPostgres:
		if c.Database.URI == "" {
			return fmt.Errorf("invalid config: database.uri is required for %s", c.Database.Driver)
		}
	case DriverMemory:
	default:
		return fmt.Errorf("invalid config: unknown database.driver %q", c.Database.Driver)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid config: server.port %d out of range", c.Server.Port)
	}
	if c.RateLimit.Attempts <= 0 || c.RateLimit.Window <= 0 {
		return fmt.Errorf("invalid config: ratelimit.attempts and ratelimit.window must be positive")
	}
	return nil
}

// Addr returns the listen address
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
