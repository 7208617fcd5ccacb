package model

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// DatabaseConfig holds settings for the SQLite store.
type DatabaseConfig struct {
	// Path is the database file location.
	Path string `mapstructure:"path" yaml:"path"`
}

// DependencyConfig holds dependency-graph policy settings.
type DependencyConfig struct {
	// RejectCycles controls whether adding a dependency edge that would
	// close a cycle fails the operation. When false the edge is accepted
	// and a warning is logged instead.
	RejectCycles bool `mapstructure:"reject_cycles" yaml:"reject_cycles"`
}

// ReportConfig holds settings for the daily report.
type ReportConfig struct {
	// Hour is the local hour of day (0-23) at which the report fires.
	Hour int `mapstructure:"hour" yaml:"hour"`

	// Recipients are the email addresses the report message is built for.
	Recipients []string `mapstructure:"recipients" yaml:"recipients"`

	// From is the sender address on the built message.
	From string `mapstructure:"from" yaml:"from"`

	// SMTPAddr is the host:port of the SMTP server used for delivery.
	SMTPAddr string `mapstructure:"smtp_addr" yaml:"smtp_addr"`
}

// ScanConfig holds settings for the virus-scan service.
type ScanConfig struct {
	// BaseURL is the root URL of the scan API.
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`

	// APIKeyRef is the keyring entry name holding the API key. When the
	// keyring has no such entry, APIKey is used as a fallback.
	APIKeyRef string `mapstructure:"api_key_ref" yaml:"api_key_ref"`
	APIKey    string `mapstructure:"api_key" yaml:"api_key"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Database     DatabaseConfig   `mapstructure:"database" yaml:"database"`
	Dependencies DependencyConfig `mapstructure:"dependencies" yaml:"dependencies"`
	Report       ReportConfig     `mapstructure:"report" yaml:"report"`
	Scan         ScanConfig       `mapstructure:"scan" yaml:"scan"`
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/tasktracker/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "tasktracker", "config.yaml")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	return &AppConfig{
		Database: DatabaseConfig{
			Path: filepath.Join(filepath.Dir(DefaultConfigPath()), "tasks.db"),
		},
		Dependencies: DependencyConfig{
			RejectCycles: true,
		},
		Report: ReportConfig{
			Hour:     8,
			From:     "tasktracker@localhost",
			SMTPAddr: "localhost:25",
		},
		Scan: ScanConfig{
			BaseURL:   "https://www.virustotal.com/api/v3",
			APIKeyRef: "scan-api-key",
		},
	}
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, it returns a default configuration.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// Set defaults so missing keys resolve to sensible values.
	def := defaultAppConfig()
	v.SetDefault("database.path", def.Database.Path)
	v.SetDefault("dependencies.reject_cycles", def.Dependencies.RejectCycles)
	v.SetDefault("report.hour", def.Report.Hour)
	v.SetDefault("report.from", def.Report.From)
	v.SetDefault("report.smtp_addr", def.Report.SMTPAddr)
	v.SetDefault("scan.base_url", def.Scan.BaseURL)
	v.SetDefault("scan.api_key_ref", def.Scan.APIKeyRef)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); ok {
			return def, nil
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return def, nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if cfg.Report.Hour < 0 || cfg.Report.Hour > 23 {
		return nil, fmt.Errorf("report.hour %d out of range", cfg.Report.Hour)
	}

	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("database", cfg.Database)
	v.Set("dependencies", cfg.Dependencies)
	v.Set("report", cfg.Report)
	v.Set("scan", cfg.Scan)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
