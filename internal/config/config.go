package config

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

var ErrInvalidConfig = errors.New("invalid configuration")

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type Config struct {
	Port                      string `envconfig:"PORT" default:"8080"`
	VerifyToken               string `envconfig:"VERIFY_TOKEN"`
	WhatsAppToken             string `envconfig:"WHATSAPP_TOKEN"`
	PhoneNumberID             string `envconfig:"PHONE_NUMBER_ID"`
	WhatsAppBusinessAccountID string `envconfig:"WABA_ID"`
	GraphAPIURL               string `envconfig:"GRAPH_API_URL" default:"https://graph.facebook.com/v19.0"`

	StorageDriver string `envconfig:"STORAGE_DRIVER" default:"sqlite"`
	DBPath        string `envconfig:"DB_PATH" default:"./crm.db"`
	DBDSN         string `envconfig:"DB_DSN"`

	// CatalogFile is an optional YAML catalogue of empreendimentos loaded at startup.
	CatalogFile string `envconfig:"CATALOG_FILE"`

	// AutomationFailurePolicy is "continue" or "abort".
	AutomationFailurePolicy string `envconfig:"AUTOMATION_FAILURE_POLICY" default:"continue"`
	AgentID                 string `envconfig:"AGENT_ID" default:"agent"`

	SendRatePerSecond float64 `envconfig:"SEND_RATE_PER_SECOND" default:"20"`
	SendBurst         int     `envconfig:"SEND_BURST" default:"5"`

	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

// LoadConfig reads .env (if present) and the process environment.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Error loading .env file")
	}
	return FromEnv()
}

// FromEnv builds a Config from the process environment only.
func FromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	cfg.StorageDriver = strings.ToLower(strings.TrimSpace(cfg.StorageDriver))
	cfg.AutomationFailurePolicy = strings.ToLower(strings.TrimSpace(cfg.AutomationFailurePolicy))
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.StorageDriver {
	case DriverSQLite, DriverMemory:
	case DriverPostgres:
		if c.DBDSN == "" {
			return fmt.Errorf("%w: DB_DSN is required for the postgres driver", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown STORAGE_DRIVER %q", ErrInvalidConfig, c.StorageDriver)
	}

	switch c.AutomationFailurePolicy {
	case "continue", "abort":
	default:
		return fmt.Errorf("%w: AUTOMATION_FAILURE_POLICY must be continue or abort, got %q", ErrInvalidConfig, c.AutomationFailurePolicy)
	}

	if c.SendRatePerSecond <= 0 {
		return fmt.Errorf("%w: SEND_RATE_PER_SECOND must be positive", ErrInvalidConfig)
	}
	if c.SendBurst < 1 {
		return fmt.Errorf("%w: SEND_BURST must be at least 1", ErrInvalidConfig)
	}
	return nil
}

// MessagingEnabled reports whether real WhatsApp credentials are configured.
func (c *Config) MessagingEnabled() bool {
	return c.WhatsAppToken != "" && c.PhoneNumberID != ""
}
