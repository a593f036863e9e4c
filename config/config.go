package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds every runtime setting. Values come from an optional YAML file
// (CONFIG_FILE) and are overridden by environment variables.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Mongo       MongoConfig       `yaml:"mongo"`
	Redis       RedisConfig       `yaml:"redis"`
	Log         LogConfig         `yaml:"log"`
	Security    SecurityConfig    `yaml:"security"`
	Progression ProgressionConfig `yaml:"progression"`
}

type ServerConfig struct {
	Env  string `yaml:"env"` // dev, staging, production
	Port string `yaml:"port"`
}

type MongoConfig struct {
	URI      string `yaml:"uri"`
	Database string `yaml:"database"`
	// Store selects the persistence backend: mongo or memory.
	Store string `yaml:"store"`
}

// RedisConfig configures the session job queue. An empty Addr disables it.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	QueueKey string `yaml:"queue_key"`
	// MaxJobAttempts bounds how often a queued session is retried before it
	// is moved to the dead-letter list.
	MaxJobAttempts int `yaml:"max_job_attempts"`
}

type LogConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
	File  string `yaml:"file"`
}

type SecurityConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
}

type ProgressionConfig struct {
	MaxAttempts  int           `yaml:"max_attempts"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	// Timezone decides the server-side "today" when a session has no completion date.
	Timezone string `yaml:"timezone"`
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{Env: "dev", Port: "8080"},
		Mongo: MongoConfig{
			URI:      "mongodb://localhost:27017",
			Database: "mindset",
			Store:    "mongo",
		},
		Redis: RedisConfig{QueueKey: "mindset-session-jobs", MaxJobAttempts: 5},
		Log:   LogConfig{Level: "info"},
		Progression: ProgressionConfig{
			MaxAttempts:  5,
			WriteTimeout: 15 * time.Second,
			Timezone:     "UTC",
		},
	}
}

// Load reads .env (if present), the YAML file named by CONFIG_FILE (if set) and
// the environment, in that order of increasing precedence.
func Load() (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	cfg := defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}
	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.Server.Env = getEnv("ENV", cfg.Server.Env)
	cfg.Server.Port = getEnv("PORT", cfg.Server.Port)
	cfg.Mongo.URI = getEnv("MONGO_URI", cfg.Mongo.URI)
	cfg.Mongo.Database = getEnv("MONGO_DATABASE", cfg.Mongo.Database)
	cfg.Mongo.Store = getEnv("STORE", cfg.Mongo.Store)
	cfg.Redis.Addr = getEnv("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Username = getEnv("REDIS_USER", cfg.Redis.Username)
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.DB = getEnvInt("REDIS_DB", cfg.Redis.DB)
	cfg.Redis.QueueKey = getEnv("REDIS_QUEUE_KEY", cfg.Redis.QueueKey)
	cfg.Redis.MaxJobAttempts = getEnvInt("REDIS_MAX_JOB_ATTEMPTS", cfg.Redis.MaxJobAttempts)
	cfg.Log.Level = getEnv("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.File = getEnv("LOG_FILE", cfg.Log.File)
	cfg.Security.JWTSecret = getEnv("JWT_SECRET", cfg.Security.JWTSecret)
	cfg.Progression.MaxAttempts = getEnvInt("PROGRESSION_MAX_ATTEMPTS", cfg.Progression.MaxAttempts)
	cfg.Progression.Timezone = getEnv("PROGRESSION_TIMEZONE", cfg.Progression.Timezone)
	if v := os.Getenv("PROGRESSION_WRITE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Progression.WriteTimeout = d
		}
	}
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var problems []string

	if port, err := strconv.Atoi(c.Server.Port); err != nil || port < 1 || port > 65535 {
		problems = append(problems, fmt.Sprintf("invalid PORT value: %s (must be 1-65535)", c.Server.Port))
	}

	validEnvs := map[string]bool{"dev": true, "development": true, "staging": true, "production": true, "prod": true}
	if !validEnvs[c.Server.Env] {
		problems = append(problems, fmt.Sprintf("invalid ENV: %s", c.Server.Env))
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Log.Level] {
		problems = append(problems, fmt.Sprintf("invalid LOG_LEVEL: %s (must be: debug, info, warn, error)", c.Log.Level))
	}

	switch c.Mongo.Store {
	case "mongo":
		if c.Mongo.URI == "" {
			problems = append(problems, "MONGO_URI is required when STORE=mongo")
		}
	case "memory":
	default:
		problems = append(problems, fmt.Sprintf("invalid STORE: %s (must be: mongo, memory)", c.Mongo.Store))
	}

	if c.Security.JWTSecret == "" {
		problems = append(problems, "JWT_SECRET is required")
	}

	if c.Progression.MaxAttempts < 1 {
		problems = append(problems, "PROGRESSION_MAX_ATTEMPTS must be at least 1")
	}
	if c.Redis.MaxJobAttempts < 1 {
		problems = append(problems, "REDIS_MAX_JOB_ATTEMPTS must be at least 1")
	}
	if c.Progression.WriteTimeout <= 0 {
		problems = append(problems, "PROGRESSION_WRITE_TIMEOUT must be positive")
	}
	if _, err := time.LoadLocation(c.Progression.Timezone); err != nil {
		problems = append(problems, fmt.Sprintf("invalid PROGRESSION_TIMEZONE: %s", c.Progression.Timezone))
	}

	if len(problems) > 0 {
		return errors.New("config validation failed: " + strings.Join(problems, "; "))
	}
	return nil
}

// Location returns the configured timezone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Progression.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
