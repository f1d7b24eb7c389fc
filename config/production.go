// Package config provides configuration management and environment variable handling for the application
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
)

// ProductionConfig holds all configuration for production environment
type ProductionConfig struct {
	Database   DatabaseConfig   `json:"database"`
	Server     ServerConfig     `json:"server"`
	Logging    LoggingConfig    `json:"logging"`
	Metrics    MetricsConfig    `json:"metrics"`
	Cache      CacheConfig      `json:"cache"`
	Blockchain BlockchainConfig `json:"blockchain"`
	Pricing    PricingConfig    `json:"pricing"`
	Deployment DeploymentConfig `json:"deployment"`
}

type DatabaseConfig struct {
	Host            string        `json:"host"`
	Port            int           `json:"port"`
	Name            string        `json:"name"`
	User            string        `json:"user"`
	Password        string        `json:"password"`
	SSLMode         string        `json:"ssl_mode"`
	MaxOpenConns    int           `json:"max_open_conns"`
	MaxIdleConns    int           `json:"max_idle_conns"`
	ConnMaxLifetime time.Duration `json:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `json:"conn_max_idle_time"`
}

type ServerConfig struct {
	Host            string        `json:"host"`
	Port            int           `json:"port"`
	ReadTimeout     time.Duration `json:"read_timeout"`
	WriteTimeout    time.Duration `json:"write_timeout"`
	IdleTimeout     time.Duration `json:"idle_timeout"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout"`
	BodyLimit       int           `json:"body_limit"`
}

type LoggingConfig struct {
	Level  string `json:"level"`  // debug, info, warn, error
	Format string `json:"format"` // json, text
	Output string `json:"output"` // stdout, file, both
}

type MetricsConfig struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

type CacheConfig struct {
	Enabled     bool          `json:"enabled"`
	RedisURL    string        `json:"redis_url"`
	RedisDB     int           `json:"redis_db"`
	RedisPrefix string        `json:"redis_prefix"`
	DefaultTTL  time.Duration `json:"default_ttl"`
}

// BlockchainConfig describes the deposit contract and the webhook provider credentials
type BlockchainConfig struct {
	ContractAddress string `json:"contract_address"` // campaign deposit contract, checksummed or lower-case
	WebhookSecret   string `json:"webhook_secret"`   // shared secret for Tenderly signature verification
	TokenDecimals   int    `json:"token_decimals"`   // payment token precision (USDC: 6)
	TokenSymbol     string `json:"token_symbol"`
	ChainName       string `json:"chain_name"`
	CodecVersion    string `json:"codec_version"` // target identifier codec scheme (v1|v2)
}

// PricingConfig holds the fixed price table for campaign actions, in minor currency units
type PricingConfig struct {
	FollowPriceMinor uint64 `json:"follow_price_minor"`
	LikePriceMinor   uint64 `json:"like_price_minor"`
}

type DeploymentConfig struct {
	Environment string `json:"environment"`
	Version     string `json:"version"`
	CommitHash  string `json:"commit_hash"`
}

// LoadProductionConfig loads and validates configuration from environment variables
func LoadProductionConfig() (*ProductionConfig, error) {
	// Load environment variables from .env file when present
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	cfg := &ProductionConfig{
		Database: DatabaseConfig{
			Host:            getEnvString("DB_HOST", "localhost"),
			Port:            getEnvInt("DB_PORT", 5432),
			Name:            getEnvString("DB_NAME", "xad"),
			User:            getEnvString("DB_USER", "postgres"),
			Password:        getEnvString("DB_PASSWORD", ""),
			SSLMode:         getEnvString("DB_SSL_MODE", "disable"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 10),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
			ConnMaxIdleTime: getEnvDuration("DB_CONN_MAX_IDLE_TIME", 10*time.Minute),
		},
		Server: ServerConfig{
			Host:            getEnvString("SERVER_HOST", "0.0.0.0"),
			Port:            getEnvInt("SERVER_PORT", 8080),
			ReadTimeout:     getEnvDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getEnvDuration("SERVER_WRITE_TIMEOUT", 10*time.Second),
			IdleTimeout:     getEnvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 15*time.Second),
			BodyLimit:       getEnvInt("SERVER_BODY_LIMIT", 4*1024*1024),
		},
		Logging: LoggingConfig{
			Level:  getEnvString("LOG_LEVEL", "info"),
			Format: getEnvString("LOG_FORMAT", "text"),
			Output: getEnvString("LOG_OUTPUT", "stdout"),
		},
		Metrics: MetricsConfig{
			Enabled: getEnvBool("METRICS_ENABLED", true),
			Path:    getEnvString("METRICS_PATH", "/metrics"),
		},
		Cache: CacheConfig{
			Enabled:     getEnvBool("CACHE_ENABLED", false),
			RedisURL:    getEnvString("CACHE_REDIS_URL", "redis://localhost:6379"),
			RedisDB:     getEnvInt("CACHE_REDIS_DB", 0),
			RedisPrefix: getEnvString("CACHE_REDIS_PREFIX", "xad"),
			DefaultTTL:  getEnvDuration("CACHE_DEFAULT_TTL", 24*time.Hour),
		},
		Blockchain: BlockchainConfig{
			ContractAddress: getEnvString("CAMPAIGN_CONTRACT_ADDRESS", ""),
			WebhookSecret:   getEnvString("TENDERLY_WEBHOOK_SECRET", ""),
			TokenDecimals:   getEnvInt("PAYMENT_TOKEN_DECIMALS", 6),
			TokenSymbol:     getEnvString("PAYMENT_TOKEN_SYMBOL", "USDC"),
			ChainName:       getEnvString("CHAIN_NAME", "base"),
			CodecVersion:    getEnvString("TARGET_CODEC_VERSION", "v1"),
		},
		Pricing: PricingConfig{
			FollowPriceMinor: uint64(getEnvInt("FOLLOW_PRICE_MINOR", 100)),
			LikePriceMinor:   uint64(getEnvInt("LIKE_PRICE_MINOR", 50)),
		},
		Deployment: DeploymentConfig{
			Environment: getEnvString("APP_ENV", "production"),
			Version:     getEnvString("APP_VERSION", "dev"),
			CommitHash:  getEnvString("APP_COMMIT_HASH", ""),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks configuration invariants that must hold before the service starts
func (c *ProductionConfig) Validate() error {
	if c.Blockchain.WebhookSecret == "" {
		return fmt.Errorf("TENDERLY_WEBHOOK_SECRET is required")
	}
	if c.Blockchain.ContractAddress == "" {
		return fmt.Errorf("CAMPAIGN_CONTRACT_ADDRESS is required")
	}
	if !common.IsHexAddress(c.Blockchain.ContractAddress) {
		return fmt.Errorf("CAMPAIGN_CONTRACT_ADDRESS is not a valid hex address: %s", c.Blockchain.ContractAddress)
	}
	if c.Blockchain.TokenDecimals < 3 {
		return fmt.Errorf("PAYMENT_TOKEN_DECIMALS must be at least 3, got %d", c.Blockchain.TokenDecimals)
	}
	switch c.Blockchain.CodecVersion {
	case "v1", "v2":
	default:
		return fmt.Errorf("TARGET_CODEC_VERSION must be v1 or v2, got %s", c.Blockchain.CodecVersion)
	}
	if c.Pricing.FollowPriceMinor == 0 || c.Pricing.LikePriceMinor == 0 {
		return fmt.Errorf("action prices must be positive")
	}
	return nil
}

func getEnvString(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
