package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"txnarrator/internal/config"
	"txnarrator/internal/model"
	"txnarrator/internal/narrate"
	"txnarrator/internal/storage"
)

func runDecode(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadDecode(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.Out == "" {
		return fmt.Errorf("output path is required")
	}
	if cfg.Errors == "" {
		return fmt.Errorf("errors path is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p, err := newPipeline(ctx, cfg.Config, logger)
	if err != nil {
		return err
	}
	defer p.Close()

	inputFile, err := os.Open(cfg.In)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer inputFile.Close()

	logs, malformed, err := readRawLogs(inputFile)
	if err != nil {
		return err
	}

	errWriter, err := newJSONLWriter(cfg.Errors, false)
	if err != nil {
		return err
	}
	defer errWriter.Close()

	logger.Info("decode start",
		zap.String("in", cfg.In),
		zap.String("out", cfg.Out),
		zap.String("errors", cfg.Errors),
		zap.Int("logs", len(logs)),
		zap.Int("malformed", len(malformed)),
	)

	for _, errRecord := range malformed {
		writeDecodeError(errWriter, errRecord)
	}

	results := narrate.DecodeAll(ctx, p.registry, logs, p.batch)
	descriptions, counts := collectResults(logs, results, errWriter)
	sinks := []storage.Storage{storage.NewJsonlStorage(cfg.Out, storage.Truncate)}
	if p.store != nil {
		sinks = append(sinks, p.store)
	}
	for _, sink := range sinks {
		if err := sink.PutDescriptions(ctx, descriptions); err != nil {
			return fmt.Errorf("store descriptions: %w", err)
		}
	}

	logger.Info("decode complete",
		zap.Int("total", len(logs)+len(malformed)),
		zap.Int("described", counts[narrate.StatusDescribed]),
		zap.Int("recognized", counts[narrate.StatusRecognized]),
		zap.Int("skipped", counts[narrate.StatusUnknownSignature]+counts[narrate.StatusNoHandler]),
		zap.Int("failed", counts[narrate.StatusFailed]+counts[narrate.StatusInvalid]+len(malformed)),
		zap.Int("timed_out", counts[narrate.StatusTimedOut]),
	)
	return nil
}

// readRawLogs reads one RawLog per non-empty line. Lines that do not parse
// are returned as decode errors.
func readRawLogs(r io.Reader) ([]model.RawLog, []model.DecodeError, error) {
	scanner := bufio.NewScanner(r)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 10*1024*1024)

	var (
		logs      []model.RawLog
		malformed []model.DecodeError
		lineNo    int
	)
	for scanner.Scan() {
		lineNo++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var record model.RawLog
		if err := json.Unmarshal(line, &record); err != nil {
			malformed = append(malformed, model.DecodeError{
				Status: string(narrate.StatusInvalid),
				Error:  fmt.Sprintf("line %d: %v", lineNo, err),
			})
			continue
		}
		logs = append(logs, record)
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, fmt.Errorf("scan input: %w", err)
	}
	return logs, malformed, nil
}

// collectResults pairs results with their logs. Described and recognized
// logs become descriptions; failures go to errWriter.
func collectResults(logs []model.RawLog, results []narrate.Result, errWriter *jsonlWriter) ([]model.Description, map[narrate.Status]int) {
	counts := map[narrate.Status]int{}
	var descriptions []model.Description
	for i, res := range results {
		log := logs[i]
		counts[res.Status]++
		switch res.Status {
		case narrate.StatusDescribed, narrate.StatusRecognized:
			descriptions = append(descriptions, model.Description{
				BlockNumber: log.BlockNumber,
				TxHash:      log.TxHash,
				LogIndex:    log.LogIndex,
				Address:     log.Address,
				Signature:   res.Signature,
				Status:      string(res.Status),
				Text:        res.Text,
			})
		case narrate.StatusFailed, narrate.StatusInvalid, narrate.StatusTimedOut:
			err := res.Err
			if err == nil {
				err = errors.New(string(res.Status))
			}
			writeDecodeError(errWriter, decodeErrorFromLog(log, res.Status, err))
		}
	}
	return descriptions, counts
}

type jsonlWriter struct {
	file   *os.File
	writer *bufio.Writer
}

func newJSONLWriter(path string, appendMode bool) (*jsonlWriter, error) {
	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create dir: %w", err)
		}
	}

	flags := os.O_CREATE | os.O_WRONLY
	if appendMode {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}

	file, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}

	return &jsonlWriter{
		file:   file,
		writer: bufio.NewWriter(file),
	}, nil
}

func (w *jsonlWriter) Write(value interface{}) error {
	line, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	if _, err := w.writer.Write(line); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	if err := w.writer.WriteByte('\n'); err != nil {
		return fmt.Errorf("write newline: %w", err)
	}
	return nil
}

func (w *jsonlWriter) Close() error {
	if w == nil {
		return nil
	}
	if err := w.writer.Flush(); err != nil {
		w.file.Close()
		return err
	}
	return w.file.Close()
}

func decodeErrorFromLog(log model.RawLog, status narrate.Status, err error) model.DecodeError {
	return model.DecodeError{
		BlockNumber: log.BlockNumber,
		TxHash:      log.TxHash,
		LogIndex:    log.LogIndex,
		Address:     log.Address,
		Topic0:      log.Topic0(),
		Status:      string(status),
		Error:       err.Error(),
	}
}

func writeDecodeError(writer *jsonlWriter, errRecord model.DecodeError) {
	if writer == nil {
		return
	}
	_ = writer.Write(errRecord)
}
