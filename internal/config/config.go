package config

import (
	"fmt"
	"net/url"
	"os"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	validBackends = []string{"memory", "file", "sqlite"}
	storageKeyRe  = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)
	currencyRe    = regexp.MustCompile(`^[A-Za-z]{3}$`)
)

type Config struct {
	// HTTP Server
	Port               string `yaml:"port"`
	RateLimitPerMinute int    `yaml:"rate_limit_per_minute"`

	// Storage
	DataBackend  string `yaml:"data_backend"`
	DataDir      string `yaml:"data_dir"`
	SQLiteDBPath string `yaml:"sqlite_db_path"`
	StorageKey   string `yaml:"storage_key"`

	// AMQP change notifications, disabled when the URL is empty
	AMQPURL      string `yaml:"amqp_url"`
	AMQPExchange string `yaml:"amqp_exchange"`
	AMQPQueue    string `yaml:"amqp_queue"`

	// Display
	Currency string `yaml:"currency"`
	LogLevel string `yaml:"log_level"`

	// ConfigFile is the YAML file the defaults were read from, if any
	ConfigFile string `yaml:"-"`
	fileErr    error
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Port:               "8081",
		RateLimitPerMinute: 60,
		DataBackend:        "file",
		DataDir:            "./data",
		SQLiteDBPath:       "./data/expenses.db",
		StorageKey:         "expenses",
		AMQPExchange:       "expenses",
		AMQPQueue:          "expense_changes",
		Currency:           "INR",
		LogLevel:           "info",
	}
}

// Load builds the configuration from defaults, then the optional YAML file
// named by CONFIG_FILE, then environment variables.
func Load() *Config {
	cfg := Defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		cfg.ConfigFile = path
		if err := cfg.mergeFile(path); err != nil {
			cfg.fileErr = err
		}
	}

	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.RateLimitPerMinute = getEnvInt("RATE_LIMIT_PER_MINUTE", cfg.RateLimitPerMinute)
	cfg.DataBackend = getEnv("DATA_BACKEND", cfg.DataBackend)
	cfg.DataDir = getEnv("DATA_DIR", cfg.DataDir)
	cfg.SQLiteDBPath = getEnv("SQLITE_DB_PATH", cfg.SQLiteDBPath)
	cfg.StorageKey = getEnv("STORAGE_KEY", cfg.StorageKey)
	cfg.AMQPURL = getEnv("AMQP_URL", cfg.AMQPURL)
	cfg.AMQPExchange = getEnv("AMQP_EXCHANGE", cfg.AMQPExchange)
	cfg.AMQPQueue = getEnv("AMQP_QUEUE", cfg.AMQPQueue)
	cfg.Currency = getEnv("CURRENCY", cfg.Currency)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)

	return &cfg
}

// mergeFile overlays non-zero values from a YAML file.
func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	var fc Config
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}

	overlay := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	overlay(&c.Port, fc.Port)
	overlay(&c.DataBackend, fc.DataBackend)
	overlay(&c.DataDir, fc.DataDir)
	overlay(&c.SQLiteDBPath, fc.SQLiteDBPath)
	overlay(&c.StorageKey, fc.StorageKey)
	overlay(&c.AMQPURL, fc.AMQPURL)
	overlay(&c.AMQPExchange, fc.AMQPExchange)
	overlay(&c.AMQPQueue, fc.AMQPQueue)
	overlay(&c.Currency, fc.Currency)
	overlay(&c.LogLevel, fc.LogLevel)
	if fc.RateLimitPerMinute != 0 {
		c.RateLimitPerMinute = fc.RateLimitPerMinute
	}
	return nil
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if c.fileErr != nil {
		errors = append(errors, c.fileErr.Error())
	}

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	// Validate data backend
	if !slices.Contains(validBackends, c.DataBackend) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}
	switch c.DataBackend {
	case "sqlite":
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		}
	case "file":
		if c.DataDir == "" {
			errors = append(errors, "data directory cannot be empty when using file backend")
		}
	}

	if !storageKeyRe.MatchString(c.StorageKey) {
		errors = append(errors, fmt.Sprintf("invalid storage key '%s': use letters, digits, '.', '_' or '-'", c.StorageKey))
	}

	// Validate AMQP URL if provided
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if !currencyRe.MatchString(c.Currency) {
		errors = append(errors, fmt.Sprintf("invalid currency '%s': must be a 3 letter ISO code", c.Currency))
	}

	if c.RateLimitPerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1", c.RateLimitPerMinute))
	} else if c.RateLimitPerMinute > 10000 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at most 10000", c.RateLimitPerMinute))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}
