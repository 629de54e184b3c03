package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const EnvPrefix = "CALC"

const (
	KeyListenAddr      = "listen_addr"
	KeyDatabaseDSN     = "database_dsn"
	KeyJWTSecret       = "jwt_secret"
	KeyTokenTTL        = "token_ttl"
	KeyLogLevel        = "log_level"
	KeyShutdownTimeout = "shutdown_timeout"
	KeyBaseURL         = "base_url"
	KeyWaitTimeout     = "wait_timeout"
	KeyRequestTimeout  = "request_timeout"
	KeyConfigFile      = "config"
)

type Config struct {
	ListenAddr      string
	DatabaseDSN     string
	JWTSecret       string
	TokenTTL        time.Duration
	LogLevel        string
	ShutdownTimeout time.Duration

	BaseURL        string
	WaitTimeout    time.Duration
	RequestTimeout time.Duration
}

// New returns a viper instance with defaults and CALC_* environment overrides.
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault(KeyListenAddr, ":8000")
	v.SetDefault(KeyDatabaseDSN, "calculator.db")
	v.SetDefault(KeyJWTSecret, "")
	v.SetDefault(KeyTokenTTL, 30*time.Minute)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyShutdownTimeout, 10*time.Second)
	v.SetDefault(KeyBaseURL, "http://localhost:8000")
	v.SetDefault(KeyWaitTimeout, 0)
	v.SetDefault(KeyRequestTimeout, 30*time.Second)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()
	return v
}

// LoadDotEnv reads KEY=value pairs from path into the process environment.
// A missing file is not an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func Load(v *viper.Viper) (Config, error) {
	if file := v.GetString(KeyConfigFile); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", file, err)
		}
	}

	cfg := Config{
		ListenAddr:      v.GetString(KeyListenAddr),
		DatabaseDSN:     v.GetString(KeyDatabaseDSN),
		JWTSecret:       v.GetString(KeyJWTSecret),
		TokenTTL:        v.GetDuration(KeyTokenTTL),
		LogLevel:        v.GetString(KeyLogLevel),
		ShutdownTimeout: v.GetDuration(KeyShutdownTimeout),
		BaseURL:         strings.TrimRight(v.GetString(KeyBaseURL), "/"),
		WaitTimeout:     v.GetDuration(KeyWaitTimeout),
		RequestTimeout:  v.GetDuration(KeyRequestTimeout),
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if c.TokenTTL <= 0 {
		return fmt.Errorf("%s must be positive, got %s", KeyTokenTTL, c.TokenTTL)
	}
	if c.ShutdownTimeout < 0 {
		return fmt.Errorf("%s must not be negative", KeyShutdownTimeout)
	}
	if c.WaitTimeout < 0 {
		return fmt.Errorf("%s must not be negative", KeyWaitTimeout)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("%s must be positive", KeyRequestTimeout)
	}
	if c.BaseURL == "" {
		return fmt.Errorf("%s must not be empty", KeyBaseURL)
	}
	return nil
}
