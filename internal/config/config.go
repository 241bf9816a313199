package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tellerline/teller/internal/logging"
	"github.com/tellerline/teller/internal/store/csvstore"
	"github.com/tellerline/teller/internal/store/pgstore"
)

// FileName is the config file looked up in the data directory.
const FileName = "teller.yaml"

// Config represents the top-level teller.yaml configuration.
type Config struct {
	Bank   BankConfig     `yaml:"bank"`
	Store  StoreConfig    `yaml:"store"`
	Ledger LedgerConfig   `yaml:"ledger"`
	Auth   AuthConfig     `yaml:"auth"`
	Log    logging.Config `yaml:"log"`
	Server ServerConfig   `yaml:"server"`
}

// BankConfig identifies the bank.
type BankConfig struct {
	Name           string `yaml:"name"`
	FirstAccountID int    `yaml:"first_account_id"`
}

// StoreConfig selects the record store.
type StoreConfig struct {
	Backend  string         `yaml:"backend"` // "csv" or "postgres"
	Path     string         `yaml:"path"`    // csv only; relative to the config file
	Schema   string         `yaml:"schema"`  // csv only; "legacy" or "split"
	Postgres pgstore.Config `yaml:"postgres,omitempty"`
}

// LedgerConfig holds behavior flags for the transaction engine.
type LedgerConfig struct {
	// StrictExternalTransfers rejects an external transfer that would
	// deactivate its source instead of debiting without crediting.
	StrictExternalTransfers bool `yaml:"strict_external_transfers"`
}

// AuthConfig controls credential storage.
type AuthConfig struct {
	HashPasswords bool `yaml:"hash_passwords"`
}

// ServerConfig controls the HTTP API.
type ServerConfig struct {
	Addr         string        `yaml:"addr"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	Metrics      bool          `yaml:"metrics"`
}

const (
	BackendCSV      = "csv"
	BackendPostgres = "postgres"
)

// Load reads a teller.yaml file from disk. Fields missing from the file
// keep their Default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default("")
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new bank.
func Default(bankName string) *Config {
	return &Config{
		Bank: BankConfig{
			Name:           bankName,
			FirstAccountID: 10001,
		},
		Store: StoreConfig{
			Backend:  BackendCSV,
			Path:     "bank.csv",
			Schema:   string(csvstore.SchemaLegacy),
			Postgres: pgstore.DefaultConfig(),
		},
		Log: logging.DefaultConfig(),
		Server: ServerConfig{
			Addr:         ":8080",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			Metrics:      true,
		},
	}
}

// Validate checks enumerated fields.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case BackendCSV:
		if c.Store.Path == "" {
			return fmt.Errorf("config: store.path is required for the csv backend")
		}
		if _, err := csvstore.ParseSchema(c.Store.Schema); err != nil {
			return fmt.Errorf("config: %w", err)
		}
	case BackendPostgres:
		if c.Store.Postgres.DSN == "" {
			return fmt.Errorf("config: store.postgres.dsn is required for the postgres backend")
		}
	default:
		return fmt.Errorf("config: unknown store backend %q", c.Store.Backend)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// ApplyEnv overrides settings from TELLER_* environment variables.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("TELLER_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("TELLER_POSTGRES_DSN"); v != "" {
		c.Store.Postgres.DSN = v
	}
	if v := os.Getenv("TELLER_ADDR"); v != "" {
		c.Server.Addr = v
	}
}

// StorePath resolves the CSV path against the directory holding the config.
func (c *Config) StorePath(configDir string) string {
	if filepath.IsAbs(c.Store.Path) {
		return c.Store.Path
	}
	return filepath.Join(configDir, c.Store.Path)
}
