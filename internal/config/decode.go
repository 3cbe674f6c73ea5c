package config

import (
	"fmt"

	"github.com/spf13/pflag"
)

// DecodeConfig holds configuration for the decode command.
type DecodeConfig struct {
	Config
	In     string
	Out    string
	Errors string
}

// LoadDecode merges config file, environment variables, and flags into DecodeConfig.
func LoadDecode(cfgFile string, flags *pflag.FlagSet) (DecodeConfig, error) {
	v, err := newViper(cfgFile, flags)
	if err != nil {
		return DecodeConfig{}, err
	}
	v.SetDefault("out", "./data/descriptions.jsonl")
	v.SetDefault("errors", "./data/decode_errors.jsonl")

	cfg := DecodeConfig{
		Config: fromViper(v),
		In:     v.GetString("in"),
		Out:    v.GetString("out"),
		Errors: v.GetString("errors"),
	}
	if cfg.In == "" {
		return DecodeConfig{}, fmt.Errorf("--in is required")
	}
	return cfg, nil
}

// TxConfig holds configuration for the tx command.
type TxConfig struct {
	Config
	Hash   string
	Source string
}

// LoadTx merges config file, environment variables, and flags into TxConfig.
func LoadTx(cfgFile string, flags *pflag.FlagSet) (TxConfig, error) {
	v, err := newViper(cfgFile, flags)
	if err != nil {
		return TxConfig{}, err
	}
	v.SetDefault("source", "rpc")

	cfg := TxConfig{
		Config: fromViper(v),
		Hash:   v.GetString("hash"),
		Source: v.GetString("source"),
	}
	if cfg.Hash == "" {
		return TxConfig{}, fmt.Errorf("--hash is required")
	}
	switch cfg.Source {
	case "rpc":
	case "postgres":
		if cfg.PGDSN == "" {
			return TxConfig{}, fmt.Errorf("--pg-dsn is required for source postgres")
		}
	default:
		return TxConfig{}, fmt.Errorf("unknown source %q (rpc|postgres)", cfg.Source)
	}
	return cfg, nil
}
