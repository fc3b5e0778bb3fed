package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	domainconfig "diary-backend/domain/config"

	"github.com/BurntSushi/toml"
)

// Store backends
const (
	StoreMemory   = "memory"
	StoreSQLite   = "sqlite"
	StoreDynamoDB = "dynamodb"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerAddress string `toml:"server_address"`
	Environment   string `toml:"environment"`

	// Storage
	StoreBackend             string        `toml:"store_backend"`
	SQLitePath               string        `toml:"sqlite_path"`
	SubscriptionPollInterval time.Duration `toml:"subscription_poll_interval"`

	// AWS configuration
	AWSRegion     string `toml:"aws_region"`
	DynamoDBTable string `toml:"table_name"`
	EventBusName  string `toml:"event_bus_name"`

	// Lambda configuration
	IsLambda           bool   `toml:"is_lambda"`
	LambdaFunctionName string `toml:"-"`

	// Logging
	LogLevel string `toml:"log_level"`

	// Authentication
	JWTSecret string `toml:"jwt_secret"`
	JWTIssuer string `toml:"jwt_issuer"`

	// AI
	OpenRouterAPIKey string        `toml:"openrouter_api_key"`
	AIModel          string        `toml:"ai_model"`
	AIMaxAttempts    int           `toml:"ai_max_attempts"`
	AIBaseDelay      time.Duration `toml:"ai_base_delay"`
	AIRequestsPerMin int           `toml:"ai_requests_per_minute"`

	// Reports
	ReportUserIDs []string `toml:"report_user_ids"`

	// Feature flags
	EnableMetrics bool     `toml:"enable_metrics"`
	EnableTracing bool     `toml:"enable_tracing"`
	EnableCORS    bool     `toml:"enable_cors"`
	CORSOrigins   []string `toml:"cors_origins"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() *Config {
	domain := domainconfig.DefaultDomainConfig()
	return &Config{
		ServerAddress:            ":8080",
		Environment:              "development",
		StoreBackend:             StoreMemory,
		SQLitePath:               "diary.db",
		SubscriptionPollInterval: 2 * time.Second,
		AWSRegion:                "us-west-2",
		DynamoDBTable:            "diary",
		EventBusName:             "",
		LogLevel:                 "info",
		JWTIssuer:                "diary-backend",
		AIMaxAttempts:            domain.AIMaxAttempts,
		AIBaseDelay:              domain.AIBaseDelay,
		AIRequestsPerMin:         20,
		EnableCORS:               true,
		CORSOrigins:              []string{"http://localhost:3000", "http://localhost:5173"},
	}
}

// LoadConfig builds the configuration from defaults, then the TOML file named
// by CONFIG_FILE (if any), then environment variables.
func LoadConfig() (*Config, error) {
	cfg := Defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load is an alias for LoadConfig for backwards compatibility
func Load() (*Config, error) {
	return LoadConfig()
}

func (c *Config) applyEnv() {
	c.ServerAddress = getEnv("SERVER_ADDRESS", c.ServerAddress)
	c.Environment = getEnv("ENVIRONMENT", c.Environment)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)

	c.StoreBackend = strings.ToLower(getEnv("STORE_BACKEND", c.StoreBackend))
	c.SQLitePath = getEnv("SQLITE_PATH", c.SQLitePath)
	c.SubscriptionPollInterval = getEnvDuration("SUBSCRIPTION_POLL_INTERVAL", c.SubscriptionPollInterval)

	c.AWSRegion = getEnv("AWS_REGION", c.AWSRegion)
	c.DynamoDBTable = getEnv("TABLE_NAME", getEnv("DYNAMODB_TABLE", c.DynamoDBTable))
	c.EventBusName = getEnv("EVENT_BUS_NAME", c.EventBusName)

	c.LambdaFunctionName = getEnv("AWS_LAMBDA_FUNCTION_NAME", c.LambdaFunctionName)
	c.IsLambda = getEnvBool("IS_LAMBDA", c.IsLambda || c.LambdaFunctionName != "")

	c.JWTSecret = getEnv("JWT_SECRET", c.JWTSecret)
	c.JWTIssuer = getEnv("JWT_ISSUER", c.JWTIssuer)

	c.OpenRouterAPIKey = getEnv("OPENROUTER_API_KEY", c.OpenRouterAPIKey)
	c.AIModel = getEnv("AI_MODEL", c.AIModel)
	c.AIMaxAttempts = getEnvInt("AI_MAX_ATTEMPTS", c.AIMaxAttempts)
	c.AIBaseDelay = getEnvDuration("AI_BASE_DELAY", c.AIBaseDelay)
	c.AIRequestsPerMin = getEnvInt("AI_REQUESTS_PER_MINUTE", c.AIRequestsPerMin)

	c.ReportUserIDs = getEnvList("REPORT_USER_IDS", c.ReportUserIDs)

	c.EnableMetrics = getEnvBool("ENABLE_METRICS", c.EnableMetrics)
	c.EnableTracing = getEnvBool("ENABLE_TRACING", c.EnableTracing)
	c.EnableCORS = getEnvBool("ENABLE_CORS", c.EnableCORS)
	c.CORSOrigins = getEnvList("CORS_ALLOWED_ORIGINS", c.CORSOrigins)
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case StoreMemory:
	case StoreSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required for the sqlite store")
		}
	case StoreDynamoDB:
		if c.DynamoDBTable == "" {
			return fmt.Errorf("TABLE_NAME is required for the dynamodb store")
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}

	if c.AIMaxAttempts < 1 {
		return fmt.Errorf("AI_MAX_ATTEMPTS must be at least 1")
	}
	if c.AIBaseDelay < 0 {
		return fmt.Errorf("AI_BASE_DELAY cannot be negative")
	}
	if c.SubscriptionPollInterval <= 0 {
		return fmt.Errorf("SUBSCRIPTION_POLL_INTERVAL must be positive")
	}

	if c.Environment == "production" {
		if c.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET is required in production")
		}
		if c.OpenRouterAPIKey == "" {
			return fmt.Errorf("OPENROUTER_API_KEY is required in production")
		}
	}

	return nil
}

// Domain returns the domain configuration for this environment with the
// configured AI retry policy applied.
func (c *Config) Domain() *domainconfig.DomainConfig {
	d := domainconfig.LoadDomainConfig(c.Environment)
	d.AIMaxAttempts = c.AIMaxAttempts
	d.AIBaseDelay = c.AIBaseDelay
	return d
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvList splits a comma-separated variable, dropping empty items.
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
