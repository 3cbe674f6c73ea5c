package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"txnarrator/internal/chain"
)

// ProviderEnv is the conventional provider variable, honoured when no rpc
// is configured otherwise.
const ProviderEnv = "WEB3_PROVIDER_URL"

// Config holds settings shared by every command.
type Config struct {
	RPCURL       string
	Multicall    string
	Signatures   string
	Labels       string
	PGDSN        string
	Concurrency  int
	CallTimeout  time.Duration
	BatchTimeout time.Duration
	MaxRetries   int
	RetryBackoff time.Duration
	MetricsAddr  string
	LogLevel     string
}

// Load merges .env, config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v, err := newViper(cfgFile, flags)
	if err != nil {
		return Config{}, err
	}
	return fromViper(v), nil
}

// Validate checks the settings needed to reach the chain.
func (c Config) Validate() error {
	if c.RPCURL == "" {
		return fmt.Errorf("rpc url is required (--rpc, NARRATOR_RPC or %s)", ProviderEnv)
	}
	if c.Concurrency <= 0 {
		return fmt.Errorf("concurrency must be positive, got %d", c.Concurrency)
	}
	if c.CallTimeout <= 0 {
		return fmt.Errorf("call-timeout must be positive, got %s", c.CallTimeout)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max-retries must not be negative, got %d", c.MaxRetries)
	}
	return nil
}

func newViper(cfgFile string, flags *pflag.FlagSet) (*viper.Viper, error) {
	if err := loadDotEnv(cfgFile); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetEnvPrefix("NARRATOR")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("multicall", chain.DefaultMulticall3.Hex())
	v.SetDefault("concurrency", 10)
	v.SetDefault("call-timeout", 10*time.Second)
	v.SetDefault("batch-timeout", time.Duration(0))
	v.SetDefault("max-retries", 3)
	v.SetDefault("retry-backoff", 500*time.Millisecond)
	v.SetDefault("log-level", "info")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}
	return v, nil
}

func fromViper(v *viper.Viper) Config {
	rpcURL := v.GetString("rpc")
	if rpcURL == "" {
		rpcURL = os.Getenv(ProviderEnv)
	}
	return Config{
		RPCURL:       strings.TrimSpace(rpcURL),
		Multicall:    v.GetString("multicall"),
		Signatures:   v.GetString("signatures"),
		Labels:       v.GetString("labels"),
		PGDSN:        v.GetString("pg-dsn"),
		Concurrency:  v.GetInt("concurrency"),
		CallTimeout:  v.GetDuration("call-timeout"),
		BatchTimeout: v.GetDuration("batch-timeout"),
		MaxRetries:   v.GetInt("max-retries"),
		RetryBackoff: v.GetDuration("retry-backoff"),
		MetricsAddr:  v.GetString("metrics-addr"),
		LogLevel:     v.GetString("log-level"),
	}
}

// loadDotEnv reads a .env next to the config file, or in the working
// directory. Variables already set in the environment are kept.
func loadDotEnv(cfgFile string) error {
	dir := "."
	if cfgFile != "" {
		dir = filepath.Dir(cfgFile)
	}
	envPath := filepath.Join(dir, ".env")
	if _, err := os.Stat(envPath); err != nil {
		return nil
	}
	if err := godotenv.Load(envPath); err != nil {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}
