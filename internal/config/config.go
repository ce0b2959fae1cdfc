package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
	"github.com/xxxsen/common/logger"
)

const (
	// Dimension is the length every stored and query vector must have.
	Dimension = 3
	// SearchLimit is the number of neighbours returned by a similarity search.
	SearchLimit = 10
)

var sslModes = map[string]struct{}{
	"disable":     {},
	"allow":       {},
	"prefer":      {},
	"require":     {},
	"verify-ca":   {},
	"verify-full": {},
}

// Config is built once at process start and treated as read-only afterwards.
type Config struct {
	Database    DatabaseConfig
	HTTPPort    int
	Dimension   int
	SearchLimit int
	CORSOrigins []string
	LogConfig   logger.LogConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		quoteDSN(c.Host), c.Port, quoteDSN(c.User), quoteDSN(c.Password), quoteDSN(c.DBName), c.SSLMode)
}

// quoteDSN escapes a libpq keyword value. Empty values and values with
// spaces or quotes must be single-quoted.
func quoteDSN(value string) string {
	if value != "" && !strings.ContainsAny(value, " '\\") {
		return value
	}
	value = strings.ReplaceAll(value, `\`, `\\`)
	value = strings.ReplaceAll(value, `'`, `\'`)
	return "'" + value + "'"
}

// Load reads the environment, optionally seeded from a dotenv file.
// Process environment always wins over the file; a missing file is ignored.
func Load(envFile string) (*Config, error) {
	v := viper.New()
	v.SetDefault("db_host", "localhost")
	v.SetDefault("db_port", 5432)
	v.SetDefault("db_user", "postgres")
	v.SetDefault("db_password", "postgres")
	v.SetDefault("db_name", "postgres")
	v.SetDefault("db_sslmode", "disable")
	v.SetDefault("http_port", 5000)
	v.SetDefault("cors_allowed_origins", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_file", "")
	v.AutomaticEnv()

	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			v.SetConfigFile(envFile)
			v.SetConfigType("env")
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("read env file %s: %w", envFile, err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("stat env file %s: %w", envFile, err)
		}
	}

	cfg := &Config{
		Database: DatabaseConfig{
			Host:     strings.TrimSpace(v.GetString("db_host")),
			Port:     v.GetInt("db_port"),
			User:     v.GetString("db_user"),
			Password: v.GetString("db_password"),
			DBName:   strings.TrimSpace(v.GetString("db_name")),
			SSLMode:  strings.ToLower(strings.TrimSpace(v.GetString("db_sslmode"))),
		},
		HTTPPort:    v.GetInt("http_port"),
		Dimension:   Dimension,
		SearchLimit: SearchLimit,
		CORSOrigins: splitList(v.GetString("cors_allowed_origins")),
		LogConfig: logger.LogConfig{
			File:    v.GetString("log_file"),
			Level:   strings.ToLower(v.GetString("log_level")),
			Console: true,
		},
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func splitList(value string) []string {
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func (c *Config) validate() error {
	if c.Database.Host == "" {
		return fmt.Errorf("DB_HOST is required")
	}
	if c.Database.Port <= 0 || c.Database.Port > 65535 {
		return fmt.Errorf("DB_PORT must be between 1 and 65535, got %d", c.Database.Port)
	}
	if c.Database.DBName == "" {
		return fmt.Errorf("DB_NAME is required")
	}
	if _, ok := sslModes[c.Database.SSLMode]; !ok {
		return fmt.Errorf("DB_SSLMODE %q is not a valid libpq sslmode", c.Database.SSLMode)
	}
	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.HTTPPort)
	}
	if c.LogConfig.Level == "" {
		c.LogConfig.Level = "info"
	}
	return nil
}
