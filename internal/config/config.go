package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const (
	defaultEnv          = "dev"
	defaultDBPath       = "./dev.db"
	defaultPort         = "8080"
	defaultLogLevel     = "info"
	defaultTrimesterFee = 6500.0
)

// Config holds application configuration sourced from environment variables.
type Config struct {
	Env           string
	SessionSecret string
	DBPath        string
	Port          string
	LogLevel      string
	// TrimesterFee is the fixed fee used when the tuition form leaves it blank.
	TrimesterFee float64

	warnings []string
}

// Load reads environment variables and returns a populated Config.
func Load() Config {
	// Best-effort: load local dev environment variables.
	// We don't fail if the file is missing; production should use real env injection.
	_ = loadDotEnv(".env")

	return fromViper(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetDefault("env", defaultEnv)
	v.SetDefault("db_path", defaultDBPath)
	v.SetDefault("port", defaultPort)
	v.SetDefault("log_level", defaultLogLevel)
	v.SetDefault("trimester_fee", defaultTrimesterFee)
	v.SetDefault("session_secret", "")
	v.AutomaticEnv()
	return v
}

func fromViper(v *viper.Viper) Config {
	cfg := Config{
		Env:           strings.ToLower(v.GetString("env")),
		SessionSecret: v.GetString("session_secret"),
		DBPath:        v.GetString("db_path"),
		Port:          v.GetString("port"),
		LogLevel:      v.GetString("log_level"),
		TrimesterFee:  v.GetFloat64("trimester_fee"),
	}

	if cfg.TrimesterFee <= 0 {
		cfg.warnings = append(cfg.warnings, fmt.Sprintf("TRIMESTER_FEE must be positive, using %v", defaultTrimesterFee))
		cfg.TrimesterFee = defaultTrimesterFee
	}

	return cfg
}

// IsDev reports whether the app runs in local development mode.
func (c Config) IsDev() bool {
	return c.Env == "" || c.Env == defaultEnv
}

// Warnings lists configuration problems that do not prevent startup.
func (c Config) Warnings() []string {
	warnings := append([]string(nil), c.warnings...)
	if c.SessionSecret == "" {
		warnings = append(warnings, "SESSION_SECRET is not set")
	}
	return warnings
}
