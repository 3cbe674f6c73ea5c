package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rpc"
	"go.uber.org/zap"

	"txnarrator/internal/metrics"
)

// DefaultMulticall3 is the Multicall3 deployment shared by most EVM chains.
var DefaultMulticall3 = common.HexToAddress("0xcA11bde05977b3631167028862bE2a173976CA11")

// ErrResultCount is returned when the aggregate returns a different number
// of results than calls sent.
var ErrResultCount = errors.New("multicall result count mismatch")

// ContractCaller is the subset of the chain client used for eth_call.
type ContractCaller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// Call is one read-only sub-call. ID is echoed back on the result.
type Call struct {
	ID     string
	Target common.Address
	Data   []byte
}

// CallResult is the raw return data of one sub-call.
type CallResult struct {
	ID     string
	Index  int
	Target common.Address
	Return []byte
}

// Aggregator executes a batch of read calls as one request. The batch is
// fail-atomic: any failing sub-call fails the whole batch.
type Aggregator interface {
	Aggregate(ctx context.Context, calls []Call) ([]CallResult, error)
}

// IsRevert reports whether err is an execution revert rather than a
// transport failure. Reverts are deterministic and not retried.
func IsRevert(err error) bool {
	if err == nil {
		return false
	}
	var dataErr rpc.DataError
	if errors.As(err, &dataErr) {
		return true
	}
	return strings.Contains(err.Error(), "execution reverted")
}

// NewCall packs method(args...) against parsed into a Call.
func NewCall(id string, target common.Address, parsed abi.ABI, method string, args ...interface{}) (Call, error) {
	data, err := parsed.Pack(method, args...)
	if err != nil {
		return Call{}, fmt.Errorf("pack %s: %w", method, err)
	}
	return Call{ID: id, Target: target, Data: data}, nil
}

// MulticallConfig controls timeouts and retries of aggregate requests.
type MulticallConfig struct {
	Address        common.Address
	CallTimeout    time.Duration
	MaxRetries     uint64
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

func (c MulticallConfig) withDefaults() MulticallConfig {
	if c.Address == (common.Address{}) {
		c.Address = DefaultMulticall3
	}
	if c.CallTimeout <= 0 {
		c.CallTimeout = 10 * time.Second
	}
	if c.InitialBackoff <= 0 {
		c.InitialBackoff = 200 * time.Millisecond
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = 5 * time.Second
	}
	return c
}

// Multicall batches calls through a Multicall3 contract.
type Multicall struct {
	caller  ContractCaller
	cfg     MulticallConfig
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// NewMulticall builds an Aggregator over caller.
func NewMulticall(caller ContractCaller, cfg MulticallConfig, logger *zap.Logger, m *metrics.Metrics) *Multicall {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Multicall{caller: caller, cfg: cfg.withDefaults(), logger: logger, metrics: m}
}

type multicallCall struct {
	Target   common.Address
	CallData []byte
}

// Aggregate sends calls in one eth_call. Each attempt runs under the
// configured call timeout; transport failures are retried with exponential
// backoff.
func (m *Multicall) Aggregate(ctx context.Context, calls []Call) ([]CallResult, error) {
	if len(calls) == 0 {
		return nil, nil
	}
	parsed, err := Multicall3ABI()
	if err != nil {
		return nil, fmt.Errorf("parse multicall abi: %w", err)
	}

	packedCalls := make([]multicallCall, len(calls))
	for i, c := range calls {
		packedCalls[i] = multicallCall{Target: c.Target, CallData: c.Data}
	}
	input, err := parsed.Pack("aggregate", packedCalls)
	if err != nil {
		return nil, fmt.Errorf("pack aggregate: %w", err)
	}

	start := time.Now()
	var returnData [][]byte
	attempt := 0
	operation := func() error {
		attempt++
		attemptCtx, cancel := context.WithTimeout(ctx, m.cfg.CallTimeout)
		defer cancel()

		to := m.cfg.Address
		resp, err := m.caller.CallContract(attemptCtx, ethereum.CallMsg{To: &to, Data: input}, nil)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			if IsRevert(err) {
				return backoff.Permanent(fmt.Errorf("call aggregate: %w", err))
			}
			m.logger.Debug("multicall attempt failed",
				zap.Int("attempt", attempt),
				zap.Int("calls", len(calls)),
				zap.Error(err),
			)
			return fmt.Errorf("call aggregate: %w", err)
		}

		values, err := parsed.Unpack("aggregate", resp)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("unpack aggregate: %w", err))
		}
		if len(values) != 2 {
			return backoff.Permanent(fmt.Errorf("unexpected aggregate values: %d", len(values)))
		}
		data, ok := values[1].([][]byte)
		if !ok {
			return backoff.Permanent(fmt.Errorf("unexpected aggregate return type %T", values[1]))
		}
		returnData = data
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = m.cfg.InitialBackoff
	b.MaxInterval = m.cfg.MaxBackoff
	b.MaxElapsedTime = 0
	err = backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(b, m.cfg.MaxRetries), ctx))
	m.metrics.AggregateObserved(len(calls), time.Since(start), err)
	if err != nil {
		return nil, err
	}

	if len(returnData) != len(calls) {
		return nil, fmt.Errorf("%w: sent %d, got %d", ErrResultCount, len(calls), len(returnData))
	}
	results := make([]CallResult, len(calls))
	for i, c := range calls {
		results[i] = CallResult{ID: c.ID, Index: i, Target: c.Target, Return: returnData[i]}
	}
	return results, nil
}
