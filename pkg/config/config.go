// Package config provides configuration management for the tnodes numbering service.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Mesh        MeshConfig        `mapstructure:"mesh"`
	Transport   TransportConfig   `mapstructure:"transport"`
	ResultStore ResultStoreConfig `mapstructure:"resultstore"`
	Archive     ArchiveConfig     `mapstructure:"archive"`
	Log         LogConfig         `mapstructure:"log"`
}

// MeshConfig holds the simulated cohort's shape: how many ranks to run and
// how deeply to refine the synthetic forest each one builds.
type MeshConfig struct {
	DataDir        string `mapstructure:"data_dir"`
	NumRanks       int    `mapstructure:"num_ranks"`
	ElementsPerRank int   `mapstructure:"elements_per_rank"`
	RefineSeed     int64  `mapstructure:"refine_seed"`
}

// TransportConfig holds the communication fabric's tuning knobs.
type TransportConfig struct {
	Kind           string `mapstructure:"kind"` // "local" is the only fabric this repo ships
	ExchangeTimeoutSeconds int `mapstructure:"exchange_timeout_seconds"`
}

// ResultStoreConfig holds the database connection used to persist run
// summaries.
type ResultStoreConfig struct {
	Type     string `mapstructure:"type"` // postgres or mysql
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Database string `mapstructure:"database"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	MaxConns int    `mapstructure:"max_conns"`
}

// ArchiveConfig holds object storage configuration for archived non-local
// node-id tables and per-run node-id vectors.
type ArchiveConfig struct {
	Type      string `mapstructure:"type"` // cos or local
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	SecretID  string `mapstructure:"secret_id"`
	SecretKey string `mapstructure:"secret_key"`
	Domain    string `mapstructure:"domain"`     // e.g., "myqcloud.com"
	Scheme    string `mapstructure:"scheme"`     // e.g., "https" or "http"
	LocalPath string `mapstructure:"local_path"` // for local storage
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"` // json or text
}

// Load reads configuration from the specified file path.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/tnodes")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			fmt.Println("Config file not found, using defaults")
		} else if os.IsNotExist(err) {
			fmt.Printf("Config file %s not found, using defaults\n", configPath)
		} else {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// LoadFromReader loads configuration from an io.Reader (useful for testing).
func LoadFromReader(configType string, content []byte) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigType(configType)
	if err := v.ReadConfig(bytes.NewReader(content)); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("mesh.data_dir", "./data")
	v.SetDefault("mesh.num_ranks", 4)
	v.SetDefault("mesh.elements_per_rank", 16)
	v.SetDefault("mesh.refine_seed", 1)

	v.SetDefault("transport.kind", "local")
	v.SetDefault("transport.exchange_timeout_seconds", 30)

	v.SetDefault("resultstore.type", "postgres")
	v.SetDefault("resultstore.host", "localhost")
	v.SetDefault("resultstore.port", 5432)
	v.SetDefault("resultstore.max_conns", 10)

	v.SetDefault("archive.type", "local")
	v.SetDefault("archive.local_path", "./archive")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.output_path", "./logs")
	v.SetDefault("log.format", "text")
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.ResultStore.Host == "" {
		return fmt.Errorf("resultstore host is required")
	}
	if c.ResultStore.Type != "postgres" && c.ResultStore.Type != "mysql" {
		return fmt.Errorf("unsupported resultstore type: %s", c.ResultStore.Type)
	}

	// Archive config validation is delegated to the archive package.

	if c.Mesh.NumRanks < 1 {
		return fmt.Errorf("num_ranks must be at least 1")
	}

	return nil
}

// EnsureDataDir creates the simulation data directory if it doesn't exist.
func (c *Config) EnsureDataDir() error {
	if c.Mesh.DataDir == "" {
		return nil
	}
	return os.MkdirAll(c.Mesh.DataDir, 0755)
}

// GetRunDir returns the run-specific directory path.
func (c *Config) GetRunDir(runID string) string {
	return filepath.Join(c.Mesh.DataDir, runID)
}
