package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Bedrock  BedrockConfig  `yaml:"bedrock"`
	Review   ReviewConfig   `yaml:"review"`
	Archive  ArchiveConfig  `yaml:"archive"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

// GetHost returns the server host, with ECS detection
func (c ServerConfig) GetHost() string {
	// On ECS/container, listen on all interfaces
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("AWS_EXECUTION_ENV") != "" {
		return "0.0.0.0"
	}
	// Allow override via environment
	if host := os.Getenv("SERVER_HOST"); host != "" {
		return host
	}
	return c.Host
}

// DatabaseConfig holds the Postgres connection settings
type DatabaseConfig struct {
	URL string `yaml:"url"`
}

// RedisConfig holds the Redis connection settings for the usage tracker
type RedisConfig struct {
	URL string `yaml:"url"`
}

// BedrockConfig holds the AWS Bedrock settings for review generation
type BedrockConfig struct {
	Enabled bool   `yaml:"enabled"`
	ModelID string `yaml:"model_id"`
	Region  string `yaml:"region"`
}

// ReviewConfig holds the review orchestrator settings
type ReviewConfig struct {
	// RequiredPosts is the analyzed-post count that unlocks generation.
	RequiredPosts int `yaml:"required_posts"`
	// Timezone is the IANA name month windows are interpreted in.
	Timezone string `yaml:"timezone"`
	// TimeoutSeconds bounds one generation request end to end.
	TimeoutSeconds int `yaml:"timeout_seconds"`
}

// Timeout returns the configured generation timeout as a duration
func (c ReviewConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Location resolves the configured timezone, falling back to UTC.
func (c ReviewConfig) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid review timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// ArchiveConfig holds the S3 review archive settings
type ArchiveConfig struct {
	Enabled bool   `yaml:"enabled"`
	Bucket  string `yaml:"bucket"`
	Region  string `yaml:"region"`
	Prefix  string `yaml:"prefix"`
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	// Set defaults
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Bedrock.Region == "" {
		cfg.Bedrock.Region = "us-east-1"
	}
	if cfg.Review.RequiredPosts == 0 {
		cfg.Review.RequiredPosts = 10
	}
	if cfg.Review.TimeoutSeconds == 0 {
		cfg.Review.TimeoutSeconds = 120
	}
	if cfg.Archive.Region == "" {
		cfg.Archive.Region = cfg.Bedrock.Region
	}

	return &cfg, nil
}

// LoadFromEnv loads configuration with environment variable overrides.
// It automatically loads a .env file (if present) before reading env vars,
// so secrets can live in .env locally and in real env vars on ECS.
func LoadFromEnv(path string) (*Config, error) {
	// Load .env file if it exists (no error if missing)
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	// Override with environment variables if present
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Redis.URL = v
	}
	if v := os.Getenv("BEDROCK_MODEL_ID"); v != "" {
		cfg.Bedrock.ModelID = v
	}
	if v := os.Getenv("BEDROCK_REGION"); v != "" {
		cfg.Bedrock.Region = v
	}
	if v := os.Getenv("BEDROCK_ENABLED"); v != "" {
		cfg.Bedrock.Enabled = v == "true" || v == "1"
	}
	if v := os.Getenv("REVIEW_REQUIRED_POSTS"); v != "" {
		n, convErr := strconv.Atoi(v)
		if convErr != nil {
			return nil, fmt.Errorf("invalid REVIEW_REQUIRED_POSTS %q: %w", v, convErr)
		}
		cfg.Review.RequiredPosts = n
	}
	if v := os.Getenv("REVIEW_TIMEZONE"); v != "" {
		cfg.Review.Timezone = v
	}
	if v := os.Getenv("ARCHIVE_BUCKET"); v != "" {
		cfg.Archive.Bucket = v
		cfg.Archive.Enabled = true
	}
	if v := os.Getenv("ARCHIVE_REGION"); v != "" {
		cfg.Archive.Region = v
	}

	return cfg, nil
}
