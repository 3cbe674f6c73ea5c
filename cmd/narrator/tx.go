package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"txnarrator/internal/config"
	"txnarrator/internal/display"
	"txnarrator/internal/labels"
	"txnarrator/internal/model"
	"txnarrator/internal/narrate"
	"txnarrator/internal/signature"
	"txnarrator/internal/txsource"
)

func runTx(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadTx(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p, err := newPipeline(ctx, cfg.Config, logger)
	if err != nil {
		return err
	}
	defer p.Close()

	var src txsource.Source = txsource.NewRPCSource(p.chain, logger)
	if cfg.Source == "postgres" {
		src = p.store
	}

	tx, err := src.GetTx(ctx, cfg.Hash)
	if err != nil {
		return err
	}
	results := narrate.DecodeAll(ctx, p.registry, tx.Logs, p.batch)

	logger.Info("transaction described",
		zap.String("tx_hash", tx.Hash),
		zap.String("source", cfg.Source),
		zap.Int("logs", len(tx.Logs)),
	)
	return renderTx(cmd.OutOrStdout(), tx, results, p.labels, p.sigs)
}

// renderTx prints the transaction header followed by one line per
// described log.
func renderTx(w io.Writer, tx model.Tx, results []narrate.Result, book *labels.Book, sigs *signature.Table) error {
	lines := []string{
		"=====================================",
		"Transaction:",
		"Txhash: " + tx.Hash,
		"Timestamp: " + display.Timestamp(tx.Timestamp),
		"From: " + describeHex(book, tx.From),
		"To: " + describeHex(book, tx.To),
		fmt.Sprintf("Gas: %d", tx.Gas),
		"Value: " + display.Ether(tx.Value) + " ETH",
		"Status: " + display.Status(tx.Status),
		"Input:\n\t" + narrate.DescribeInput(tx.Input, sigs),
	}
	for _, res := range results {
		if res.Text != "" {
			lines = append(lines, res.Text)
		}
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func describeHex(book *labels.Book, addr string) string {
	if !common.IsHexAddress(addr) {
		return addr
	}
	return book.DescribeVerbose(common.HexToAddress(addr))
}
