package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"txnarrator/internal/chain"
	"txnarrator/internal/narrate"
)

func main() {
	root := &cobra.Command{
		Use:          "narrator",
		Short:        "Describe DeFi transaction logs in plain sentences",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	txCmd := &cobra.Command{
		Use:   "tx",
		Short: "Describe one transaction and its logs",
		RunE:  runTx,
	}
	addSharedFlags(txCmd)
	txCmd.Flags().String("hash", "", "transaction hash")
	txCmd.Flags().String("source", "rpc", "transaction source (rpc, postgres)")
	root.AddCommand(txCmd)

	decodeCmd := &cobra.Command{
		Use:   "decode",
		Short: "Describe raw logs from a JSONL file",
		RunE:  runDecode,
	}
	addSharedFlags(decodeCmd)
	decodeCmd.Flags().String("in", "", "input raw logs JSONL")
	decodeCmd.Flags().String("out", "./data/descriptions.jsonl", "output descriptions JSONL")
	decodeCmd.Flags().String("errors", "./data/decode_errors.jsonl", "decode errors JSONL")
	root.AddCommand(decodeCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func addSharedFlags(cmd *cobra.Command) {
	cmd.Flags().String("rpc", "", "Ethereum RPC URL")
	cmd.Flags().String("multicall", chain.DefaultMulticall3.Hex(), "Multicall3 contract address")
	cmd.Flags().String("signatures", "", "signature table CSV (byte_sign,abi,text_sign)")
	cmd.Flags().String("labels", "", "address labels file (JSON or YAML)")
	cmd.Flags().String("pg-dsn", "", "Postgres DSN")
	cmd.Flags().Int("concurrency", narrate.DefaultConcurrency, "decode workers")
	cmd.Flags().Duration("call-timeout", 10*time.Second, "timeout per multicall attempt")
	cmd.Flags().Duration("batch-timeout", 0, "deadline for a whole decode batch, 0 disables")
	cmd.Flags().Int("max-retries", 3, "maximum multicall retries")
	cmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	cmd.Flags().String("metrics-addr", "", "serve Prometheus metrics on this address")
	cmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
