package config

import (
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"

	defaultJWTSecret = "a-very-secret-key-should-be-longer-and-random"
)

var receiptPrefixPattern = regexp.MustCompile(`^[A-Z][A-Z0-9]{0,7}$`)

// Config holds application configuration.
type Config struct {
	DatabaseURL   string
	Port          string
	IsProduction  bool
	EnableDBCheck bool
	JWTSecret     string
	LogLevel      string

	// Ledger
	StoreDriver        string
	ReceiptPrefix      string
	LedgerMaxTxRetries int
	LedgerTxTimeout    time.Duration

	// Edge
	RateLimit          string // ulule formatted rate, e.g. "100-M"
	RedisURL           string
	CORSAllowedOrigins []string

	// Events
	AMQPURL           string
	LedgerEventsQueue string
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("ENABLE_DB_CHECK", false)
	viper.SetDefault("JWT_SECRET", defaultJWTSecret)
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("STORE_DRIVER", StoreDriverPostgres)
	viper.SetDefault("RECEIPT_PREFIX", "RC")
	viper.SetDefault("LEDGER_MAX_TX_RETRIES", 3)
	viper.SetDefault("LEDGER_TX_TIMEOUT", "10s")
	viper.SetDefault("RATE_LIMIT", "300-M")
	viper.SetDefault("REDIS_URL", "")
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")
	viper.SetDefault("AMQP_URL", "")
	viper.SetDefault("LEDGER_EVENTS_QUEUE", "fee_ledger_events")

	viper.AutomaticEnv()

	cfg := &Config{
		DatabaseURL:       viper.GetString("PGSQL_URL"),
		Port:              viper.GetString("PORT"),
		IsProduction:      viper.GetBool("IS_PRODUCTION"),
		EnableDBCheck:     viper.GetBool("ENABLE_DB_CHECK"),
		JWTSecret:         viper.GetString("JWT_SECRET"),
		LogLevel:          strings.ToLower(viper.GetString("LOG_LEVEL")),
		StoreDriver:       strings.ToLower(viper.GetString("STORE_DRIVER")),
		ReceiptPrefix:     strings.ToUpper(strings.TrimSpace(viper.GetString("RECEIPT_PREFIX"))),
		RateLimit:         viper.GetString("RATE_LIMIT"),
		RedisURL:          viper.GetString("REDIS_URL"),
		AMQPURL:           viper.GetString("AMQP_URL"),
		LedgerEventsQueue: viper.GetString("LEDGER_EVENTS_QUEUE"),
	}

	if cfg.Port == "" {
		cfg.Port = "8080"
		log.Printf("Warning: PORT environment variable not set. Defaulting to %s\n", cfg.Port)
	}

	if cfg.JWTSecret == "" || cfg.JWTSecret == defaultJWTSecret {
		if cfg.IsProduction {
			return nil, fmt.Errorf("JWT_SECRET must be set in production")
		}
		cfg.JWTSecret = defaultJWTSecret
		log.Println("Warning: JWT_SECRET environment variable not set. Using default insecure key.")
	}

	switch cfg.StoreDriver {
	case StoreDriverPostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("PGSQL_URL is required when STORE_DRIVER is %s", StoreDriverPostgres)
		}
	case StoreDriverMemory:
		if cfg.IsProduction {
			return nil, fmt.Errorf("STORE_DRIVER %s is not allowed in production", StoreDriverMemory)
		}
		log.Println("Warning: using the in-memory store, data is lost on restart.")
	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}

	if !receiptPrefixPattern.MatchString(cfg.ReceiptPrefix) {
		return nil, fmt.Errorf("invalid RECEIPT_PREFIX %q: expected 1-8 uppercase letters or digits starting with a letter", cfg.ReceiptPrefix)
	}

	cfg.LedgerMaxTxRetries = viper.GetInt("LEDGER_MAX_TX_RETRIES")
	if cfg.LedgerMaxTxRetries < 1 {
		log.Printf("Warning: LEDGER_MAX_TX_RETRIES %d is below 1. Defaulting to 1.\n", cfg.LedgerMaxTxRetries)
		cfg.LedgerMaxTxRetries = 1
	}

	txTimeoutStr := viper.GetString("LEDGER_TX_TIMEOUT")
	txTimeout, err := time.ParseDuration(txTimeoutStr)
	if err != nil || txTimeout <= 0 {
		txTimeout = 10 * time.Second
		log.Printf("Warning: Invalid value for LEDGER_TX_TIMEOUT ('%s'). Defaulting to %s.\n", txTimeoutStr, txTimeout)
	}
	cfg.LedgerTxTimeout = txTimeout

	for _, origin := range strings.Split(viper.GetString("CORS_ALLOWED_ORIGINS"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, origin)
		}
	}

	return cfg, nil
}
