package main

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"txnarrator/internal/chain"
	"txnarrator/internal/config"
	"txnarrator/internal/labels"
	"txnarrator/internal/metrics"
	"txnarrator/internal/narrate"
	"txnarrator/internal/protocol"
	"txnarrator/internal/resolver"
	"txnarrator/internal/signature"
	"txnarrator/internal/storage/postgres"
)

// pipeline wires the chain client, lookups and registry shared by commands.
type pipeline struct {
	chain    *chain.Client
	store    *postgres.Store
	sigs     *signature.Table
	labels   *labels.Book
	registry *narrate.Registry
	metrics  *metrics.Metrics
	batch    narrate.BatchOptions
}

func newPipeline(ctx context.Context, cfg config.Config, logger *zap.Logger) (*pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if !common.IsHexAddress(cfg.Multicall) {
		return nil, fmt.Errorf("invalid multicall address %q", cfg.Multicall)
	}

	promReg := prometheus.NewRegistry()
	promReg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(promReg)
	if cfg.MetricsAddr != "" {
		go func() {
			if err := metrics.Serve(ctx, cfg.MetricsAddr, promReg, logger); err != nil {
				logger.Error("metrics server stopped", zap.Error(err))
			}
		}()
	}

	p := &pipeline{metrics: m}
	client, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("connect rpc: %w", err)
	}
	p.chain = client

	if cfg.PGDSN != "" {
		store, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			p.Close()
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		p.store = store
	}

	if cfg.Labels != "" {
		book, err := labels.Load(cfg.Labels)
		if err != nil {
			p.Close()
			return nil, err
		}
		p.labels = book
	}

	builder := narrate.NewBuilder(logger)
	if err := protocol.Register(builder, protocol.All()...); err != nil {
		p.Close()
		return nil, err
	}

	// external rows override built-in seeds
	entries := builder.Seeds()
	if cfg.Signatures != "" {
		rows, err := signature.LoadCSVFile(cfg.Signatures)
		if err != nil {
			p.Close()
			return nil, err
		}
		entries = append(entries, rows...)
	}
	if p.store != nil {
		rows, err := p.store.LoadSignatures(ctx)
		if err != nil {
			p.Close()
			return nil, fmt.Errorf("load signatures: %w", err)
		}
		entries = append(entries, rows...)
	}
	for _, bad := range signature.Invalid(entries) {
		logger.Warn("signature row has an unusable abi",
			zap.String("selector", bad.Selector),
			zap.String("signature", bad.Text),
			zap.Error(bad.Err),
		)
	}
	p.sigs = signature.NewTable(entries...)

	mc := chain.NewMulticall(client, chain.MulticallConfig{
		Address:        common.HexToAddress(cfg.Multicall),
		CallTimeout:    cfg.CallTimeout,
		MaxRetries:     uint64(cfg.MaxRetries),
		InitialBackoff: cfg.RetryBackoff,
	}, logger, m)

	p.registry = builder.Build(narrate.Config{
		Signatures: p.sigs,
		Env:        narrate.Env{Tokens: resolver.New(mc, logger), Labels: p.labels},
		Logger:     logger,
		Metrics:    m,
	})
	p.batch = narrate.BatchOptions{
		Concurrency: cfg.Concurrency,
		Timeout:     cfg.BatchTimeout,
		Logger:      logger,
		Metrics:     m,
	}

	logger.Info("pipeline ready",
		zap.Int("signatures", p.sigs.Len()),
		zap.Int("labels", p.labels.Len()),
		zap.Bool("postgres", p.store != nil),
		zap.String("multicall", cfg.Multicall),
		zap.Int("concurrency", cfg.Concurrency),
	)
	return p, nil
}

func (p *pipeline) Close() {
	if p.store != nil {
		p.store.Close()
	}
	if p.chain != nil {
		p.chain.Close()
	}
}
