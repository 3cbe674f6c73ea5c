package chain

import (
	"context"
	"errors"
	"math/big"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"txnarrator/internal/metrics"
)

// fakeCaller decodes aggregate requests and answers each sub-call with respond.
type fakeCaller struct {
	respond  func(target common.Address, data []byte) ([]byte, error)
	failures int32
	calls    atomic.Int32
	delay    time.Duration
}

func (f *fakeCaller) CallContract(ctx context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	n := f.calls.Add(1)
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if n <= f.failures {
		return nil, errors.New("connection reset")
	}
	parsed, err := Multicall3ABI()
	if err != nil {
		return nil, err
	}
	method := parsed.Methods["aggregate"]
	args, err := method.Inputs.Unpack(msg.Data[4:])
	if err != nil {
		return nil, err
	}
	var calls []multicallCall
	if err := method.Inputs.Copy(&calls, args); err != nil {
		return nil, err
	}
	out := make([][]byte, len(calls))
	for i, c := range calls {
		ret, err := f.respond(c.Target, c.CallData)
		if err != nil {
			return nil, err
		}
		out[i] = ret
	}
	return method.Outputs.Pack(big.NewInt(1), out)
}

func erc20Responder(t *testing.T, decimals map[common.Address]uint8) func(common.Address, []byte) ([]byte, error) {
	parsed, err := ERC20ABI()
	require.NoError(t, err)
	return func(target common.Address, _ []byte) ([]byte, error) {
		d, ok := decimals[target]
		if !ok {
			return nil, errors.New("execution reverted")
		}
		return parsed.Methods["decimals"].Outputs.Pack(d)
	}
}

func decimalsCall(t *testing.T, id string, target common.Address) Call {
	parsed, err := ERC20ABI()
	require.NoError(t, err)
	call, err := NewCall(id, target, parsed, "decimals")
	require.NoError(t, err)
	return call
}

func testConfig() MulticallConfig {
	return MulticallConfig{
		CallTimeout:    time.Second,
		MaxRetries:     3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     2 * time.Millisecond,
	}
}

func TestAggregatePreservesOrderAndIDs(t *testing.T) {
	a := common.HexToAddress("0x0a")
	b := common.HexToAddress("0x0b")
	caller := &fakeCaller{respond: erc20Responder(t, map[common.Address]uint8{a: 6, b: 18})}
	mc := NewMulticall(caller, testConfig(), nil, nil)

	results, err := mc.Aggregate(context.Background(), []Call{decimalsCall(t, "b", b), decimalsCall(t, "a", a)})
	require.NoError(t, err)
	require.Len(t, results, 2)

	parsed, _ := ERC20ABI()
	assert.Equal(t, "b", results[0].ID)
	assert.Equal(t, 1, results[1].Index)
	vals, err := parsed.Unpack("decimals", results[0].Return)
	require.NoError(t, err)
	assert.Equal(t, uint8(18), vals[0])
	vals, err = parsed.Unpack("decimals", results[1].Return)
	require.NoError(t, err)
	assert.Equal(t, uint8(6), vals[0])
}

func TestAggregateEmpty(t *testing.T) {
	mc := NewMulticall(&fakeCaller{}, testConfig(), nil, nil)
	results, err := mc.Aggregate(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestAggregateRetriesTransientFailures(t *testing.T) {
	a := common.HexToAddress("0x0a")
	caller := &fakeCaller{respond: erc20Responder(t, map[common.Address]uint8{a: 6}), failures: 2}
	m := metrics.New(prometheus.NewRegistry())
	mc := NewMulticall(caller, testConfig(), nil, m)

	results, err := mc.Aggregate(context.Background(), []Call{decimalsCall(t, "a", a)})
	require.NoError(t, err)
	assert.Len(t, results, 1)
	assert.Equal(t, int32(3), caller.calls.Load())
}

func TestAggregateFailsAtomically(t *testing.T) {
	a := common.HexToAddress("0x0a")
	missing := common.HexToAddress("0x0c")
	caller := &fakeCaller{respond: erc20Responder(t, map[common.Address]uint8{a: 6})}
	mc := NewMulticall(caller, testConfig(), nil, nil)

	_, err := mc.Aggregate(context.Background(), []Call{decimalsCall(t, "a", a), decimalsCall(t, "c", missing)})
	require.Error(t, err)
	assert.True(t, IsRevert(err))
	// reverts are deterministic, so no retry
	assert.Equal(t, int32(1), caller.calls.Load())
}

func TestAggregateHonoursCallTimeout(t *testing.T) {
	a := common.HexToAddress("0x0a")
	caller := &fakeCaller{respond: erc20Responder(t, map[common.Address]uint8{a: 6}), delay: time.Second}
	cfg := testConfig()
	cfg.CallTimeout = 10 * time.Millisecond
	cfg.MaxRetries = 0
	mc := NewMulticall(caller, cfg, nil, nil)

	start := time.Now()
	_, err := mc.Aggregate(context.Background(), []Call{decimalsCall(t, "a", a)})
	require.Error(t, err)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestAggregateStopsOnCancelledContext(t *testing.T) {
	caller := &fakeCaller{respond: func(common.Address, []byte) ([]byte, error) { return nil, nil }, failures: 100}
	mc := NewMulticall(caller, testConfig(), nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := mc.Aggregate(ctx, []Call{{Target: common.HexToAddress("0x01"), Data: []byte{1, 2, 3, 4}}})
	require.Error(t, err)
	assert.LessOrEqual(t, caller.calls.Load(), int32(1))
}

func TestNewCallPackError(t *testing.T) {
	parsed, err := PositionManagerABI()
	require.NoError(t, err)
	_, err = NewCall("x", common.Address{}, parsed, "positions", "not-a-number")
	assert.Error(t, err)
}
