// Package config resolves the posdata CLI settings from flags, environment,
// .env files and an optional YAML config file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

var AppFs = afero.NewOsFs()

// Config holds the application configuration
type Config struct {
	Provider          string
	DatabaseURL       string
	MaxResults        int
	QueryTimeout      time.Duration
	MaxOpenConns      int
	Debug             bool
	Telemetry         bool
	TelemetryEndpoint string
}

// Load reads configuration. configFile overrides the search for
// .posdata.yaml in the working directory, $HOME and $HOME/.config/posdata.
// Environment variables use the POSDATA_ prefix; DATABASE_URL is honoured
// as a fallback for the connection string.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	v.SetFs(AppFs)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			return nil, err
		}
		v.SetConfigName(".posdata")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(home)
		v.AddConfigPath(filepath.Join(home, ".config", "posdata"))
	}

	v.SetEnvPrefix("POSDATA")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("provider", "")
	v.SetDefault("database_url", "")
	v.SetDefault("max_results", 100)
	v.SetDefault("query_timeout", 30*time.Second)
	v.SetDefault("max_open_conns", 0)
	v.SetDefault("debug", false)
	v.SetDefault("telemetry", false)
	v.SetDefault("telemetry_endpoint", "")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	// .env.local wins over .env; neither replaces variables already set.
	loadEnvFile(".env.local")
	loadEnvFile(".env")

	cfg := &Config{
		Provider:          v.GetString("provider"),
		DatabaseURL:       v.GetString("database_url"),
		MaxResults:        v.GetInt("max_results"),
		QueryTimeout:      v.GetDuration("query_timeout"),
		MaxOpenConns:      v.GetInt("max_open_conns"),
		Debug:             v.GetBool("debug"),
		Telemetry:         v.GetBool("telemetry"),
		TelemetryEndpoint: v.GetString("telemetry_endpoint"),
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if cfg.Provider == "" {
		cfg.Provider = DetectProvider(cfg.DatabaseURL)
	}
	return cfg, nil
}

func loadEnvFile(name string) {
	f, err := AppFs.Open(name)
	if err != nil {
		return
	}
	defer f.Close()

	vars, err := godotenv.Parse(f)
	if err != nil {
		return
	}
	for k, val := range vars {
		if os.Getenv(k) == "" {
			os.Setenv(k, val)
		}
	}
}

// DetectProvider guesses the backend from a connection string. It falls
// back to sqlite, which accepts plain file paths.
func DetectProvider(dsn string) string {
	lower := strings.ToLower(dsn)
	switch {
	case strings.HasPrefix(lower, "postgres://"), strings.HasPrefix(lower, "postgresql://"),
		strings.Contains(lower, "sslmode="):
		return "postgres"
	case strings.HasPrefix(lower, "sqlserver://"):
		return "sqlserver"
	case strings.Contains(lower, "@tcp("), strings.Contains(lower, "@unix("):
		return "mysql"
	default:
		return "sqlite"
	}
}

// Save writes the persistent settings to $HOME/.config/posdata/.posdata.yaml.
func Save(cfg *Config) (string, error) {
	v := viper.New()
	v.SetFs(AppFs)
	v.Set("provider", cfg.Provider)
	v.Set("database_url", cfg.DatabaseURL)
	v.Set("max_results", cfg.MaxResults)
	v.Set("query_timeout", cfg.QueryTimeout.String())
	v.Set("max_open_conns", cfg.MaxOpenConns)
	v.Set("telemetry", cfg.Telemetry)
	if cfg.TelemetryEndpoint != "" {
		v.Set("telemetry_endpoint", cfg.TelemetryEndpoint)
	}

	home, err := homedir.Dir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(home, ".config", "posdata")
	if err := AppFs.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, ".posdata.yaml")
	return path, v.WriteConfigAs(path)
}
