package narrate

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"txnarrator/internal/abidecode"
	"txnarrator/internal/metrics"
	"txnarrator/internal/model"
	"txnarrator/internal/signature"
)

// ErrEmptyTopics is returned for a log without a selector topic.
var ErrEmptyTopics = errors.New("log has no topics")

// Status classifies the outcome of decoding one log.
type Status string

const (
	StatusDescribed        Status = "described"
	StatusRecognized       Status = "recognized"
	StatusUnknownSignature Status = "unknown_signature"
	StatusNoHandler        Status = "no_handler"
	StatusFailed           Status = "failed"
	StatusInvalid          Status = "invalid"
	StatusTimedOut         Status = "timed_out"
)

// Result is the outcome of decoding one log. Text is empty unless Status
// is StatusDescribed.
type Result struct {
	Status    Status
	Signature string
	Text      string
	Err       error
}

func (r Result) String() string {
	return r.Text
}

type binding struct {
	protocol  string
	interpret Interpreter
}

// Builder collects handlers before the registry is frozen.
type Builder struct {
	logger   *zap.Logger
	handlers map[string]binding
	seeds    []signature.Entry
}

// NewBuilder returns an empty Builder.
func NewBuilder(logger *zap.Logger) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{logger: logger, handlers: map[string]binding{}}
}

// Register binds a text signature to an interpreter. A later registration
// for the same signature replaces the earlier one.
func (b *Builder) Register(textSignature string, fn Interpreter) {
	b.register("", textSignature, fn)
}

// RegisterAll registers every handler of p and records its ABI fragments as
// signature seeds.
func (b *Builder) RegisterAll(p Protocol) error {
	for _, h := range p.Handlers {
		entry, err := signature.EntryFromABI(h.ABI)
		if err != nil {
			return fmt.Errorf("protocol %s: %w", p.Name, err)
		}
		b.seeds = append(b.seeds, entry)
		b.register(p.Name, entry.Text, h.Interpret)
	}
	return nil
}

func (b *Builder) register(protocol, textSignature string, fn Interpreter) {
	if prev, ok := b.handlers[textSignature]; ok {
		b.logger.Debug("handler overridden",
			zap.String("signature", textSignature),
			zap.String("previous", prev.protocol),
			zap.String("protocol", protocol),
		)
	}
	b.handlers[textSignature] = binding{protocol: protocol, interpret: fn}
}

// Seeds returns the signature entries derived from registered protocols.
func (b *Builder) Seeds() []signature.Entry {
	out := make([]signature.Entry, len(b.seeds))
	copy(out, b.seeds)
	return out
}

// Config wires a registry to its lookups and capabilities.
type Config struct {
	Signatures *signature.Table
	Env        Env
	Logger     *zap.Logger
	Metrics    *metrics.Metrics
}

// Build freezes the collected handlers into a Registry.
func (b *Builder) Build(cfg Config) *Registry {
	handlers := make(map[string]binding, len(b.handlers))
	for sig, h := range b.handlers {
		handlers[sig] = h
	}
	logger := cfg.Logger
	if logger == nil {
		logger = b.logger
	}
	return &Registry{
		sigs:     cfg.Signatures,
		handlers: handlers,
		env:      cfg.Env,
		logger:   logger,
		metrics:  cfg.Metrics,
	}
}

// Registry dispatches logs to interpreters. It is immutable and safe for
// concurrent use.
type Registry struct {
	sigs     *signature.Table
	handlers map[string]binding
	env      Env
	logger   *zap.Logger
	metrics  *metrics.Metrics
}

// Handles reports whether a handler is bound to textSignature.
func (r *Registry) Handles(textSignature string) bool {
	_, ok := r.handlers[textSignature]
	return ok
}

// Decode describes one log. Only a log without topics is an error; every
// other failure is reported in the Result.
func (r *Registry) Decode(ctx context.Context, log model.RawLog) (Result, error) {
	if len(log.Topics) == 0 {
		r.metrics.DecodeOutcome(string(StatusInvalid))
		return Result{Status: StatusInvalid, Err: ErrEmptyTopics}, ErrEmptyTopics
	}
	res := r.decode(ctx, log)
	r.metrics.DecodeOutcome(string(res.Status))
	return res, nil
}

// DecodeText is Decode reduced to the sentence.
func (r *Registry) DecodeText(ctx context.Context, log model.RawLog) string {
	res, _ := r.Decode(ctx, log)
	return res.Text
}

func (r *Registry) decode(ctx context.Context, log model.RawLog) Result {
	entry, ok := r.sigs.Lookup(log.Topics[0])
	if ok && entry.Err != nil {
		return r.failed(log, entry.Text, "", nil, entry.Err)
	}
	if !ok || !entry.ABI.IsEvent() {
		return Result{Status: StatusUnknownSignature}
	}
	h, ok := r.handlers[entry.Text]
	if !ok {
		return Result{Status: StatusNoHandler, Signature: entry.Text}
	}

	sig, params, err := abidecode.Decode(entry.ABI, log.Topics, log.Data)
	if err != nil {
		return r.failed(log, entry.Text, h.protocol, params, err)
	}
	if !common.IsHexAddress(strings.TrimSpace(log.Address)) {
		return r.failed(log, sig, h.protocol, params, fmt.Errorf("invalid contract address %q", log.Address))
	}

	ev := Event{Address: common.HexToAddress(log.Address), Signature: sig, Params: params}
	text, err := r.interpret(ctx, h.interpret, ev)
	if err != nil {
		return r.failed(log, sig, h.protocol, params, err)
	}
	if text == "" {
		return Result{Status: StatusRecognized, Signature: sig}
	}
	return Result{Status: StatusDescribed, Signature: sig, Text: text}
}

func (r *Registry) interpret(ctx context.Context, fn Interpreter, ev Event) (text string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("interpreter panic: %v", rec)
			r.logger.Debug("interpreter stack", zap.ByteString("stack", debug.Stack()))
		}
	}()
	return fn(ctx, r.env, ev)
}

func (r *Registry) failed(log model.RawLog, sig, protocol string, params *abidecode.Params, err error) Result {
	r.logger.Warn("log decode failed",
		zap.String("signature", sig),
		zap.String("protocol", protocol),
		zap.String("address", log.Address),
		zap.String("tx_hash", log.TxHash),
		zap.Uint64("log_index", log.LogIndex),
		zap.Strings("topics", log.Topics),
		zap.String("data", log.Data),
		zap.Object("params", params),
		zap.Error(err),
	)
	return Result{Status: StatusFailed, Signature: sig, Err: err}
}
