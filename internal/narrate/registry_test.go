package narrate

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"txnarrator/internal/abidecode"
	"txnarrator/internal/metrics"
	"txnarrator/internal/model"
	"txnarrator/internal/signature"
)

const transferABI = `{"anonymous":false,"inputs":[{"indexed":true,"name":"from","type":"address"},{"indexed":true,"name":"to","type":"address"},{"indexed":false,"name":"value","type":"uint256"}],"name":"Transfer","type":"event"}`

const approvalABI = `{"anonymous":false,"inputs":[{"indexed":true,"name":"owner","type":"address"},{"indexed":true,"name":"spender","type":"address"},{"indexed":false,"name":"value","type":"uint256"}],"name":"Approval","type":"event"}`

const transferSig = "Transfer(address,address,uint256)"

var (
	alice = common.HexToAddress("0x00000000000000000000000000000000000a11ce")
	bob   = common.HexToAddress("0x0000000000000000000000000000000000000b0b")
	token = common.HexToAddress("0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48")
)

func transferLog(t *testing.T, value int64) model.RawLog {
	t.Helper()
	entry, err := signature.EntryFromABI(transferABI)
	require.NoError(t, err)
	u, err := abi.NewType("uint256", "", nil)
	require.NoError(t, err)
	data, err := abi.Arguments{{Type: u}}.Pack(big.NewInt(value))
	require.NoError(t, err)
	return model.RawLog{
		Address: token.Hex(),
		Topics: []string{
			entry.Selector,
			common.BytesToHash(alice.Bytes()).Hex(),
			common.BytesToHash(bob.Bytes()).Hex(),
		},
		Data: hexutil.Encode(data),
	}
}

func describeTransfer(_ context.Context, env Env, ev Event) (string, error) {
	to, err := ev.Params.Address("to")
	if err != nil {
		return "", err
	}
	value, err := ev.Params.BigInt("value")
	if err != nil {
		return "", err
	}
	return "Transfer " + value.String() + " to " + env.Describe(to), nil
}

func testProtocol(name string, fn Interpreter) Protocol {
	return Protocol{Name: name, Handlers: []Handler{{ABI: transferABI, Interpret: fn}}}
}

func buildRegistry(t *testing.T, cfg Config, protocols ...Protocol) *Registry {
	t.Helper()
	b := NewBuilder(nil)
	for _, p := range protocols {
		require.NoError(t, b.RegisterAll(p))
	}
	if cfg.Signatures == nil {
		cfg.Signatures = signature.NewTable(b.Seeds()...)
	}
	return b.Build(cfg)
}

func TestDecodeDescribed(t *testing.T) {
	reg := buildRegistry(t, Config{}, testProtocol("erc20", describeTransfer))

	res, err := reg.Decode(context.Background(), transferLog(t, 42))
	require.NoError(t, err)
	assert.Equal(t, StatusDescribed, res.Status)
	assert.Equal(t, transferSig, res.Signature)
	assert.Equal(t, "Transfer 42 to 0x0000...0b0b", res.Text)
	assert.Equal(t, res.Text, res.String())
}

func TestDecodeEmptyTopics(t *testing.T) {
	reg := buildRegistry(t, Config{}, testProtocol("erc20", describeTransfer))
	_, err := reg.Decode(context.Background(), model.RawLog{Address: token.Hex()})
	assert.ErrorIs(t, err, ErrEmptyTopics)
}

func TestDecodeUnknownSelector(t *testing.T) {
	reg := buildRegistry(t, Config{}, testProtocol("erc20", describeTransfer))
	log := transferLog(t, 1)
	log.Topics[0] = "0x" + "11" + log.Topics[0][4:]

	res, err := reg.Decode(context.Background(), log)
	require.NoError(t, err)
	assert.Equal(t, StatusUnknownSignature, res.Status)
	assert.Equal(t, "", reg.DecodeText(context.Background(), log))
}

func TestDecodeNoHandler(t *testing.T) {
	approval, err := signature.EntryFromABI(approvalABI)
	require.NoError(t, err)
	transfer, err := signature.EntryFromABI(transferABI)
	require.NoError(t, err)
	reg := NewBuilder(nil).Build(Config{Signatures: signature.NewTable(approval, transfer)})

	res, err := reg.Decode(context.Background(), transferLog(t, 1))
	require.NoError(t, err)
	assert.Equal(t, StatusNoHandler, res.Status)
	assert.Equal(t, transferSig, res.Signature)
	assert.Empty(t, res.Text)
}

func TestDecodeRecognizedPlaceholder(t *testing.T) {
	reg := buildRegistry(t, Config{}, testProtocol("erc20", func(context.Context, Env, Event) (string, error) {
		return "", nil
	}))
	res, err := reg.Decode(context.Background(), transferLog(t, 1))
	require.NoError(t, err)
	assert.Equal(t, StatusRecognized, res.Status)
	assert.Empty(t, res.Text)
}

func TestDecodeInterpreterErrorIsContained(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	reg := buildRegistry(t, Config{Logger: zap.New(core)}, testProtocol("erc20", func(context.Context, Env, Event) (string, error) {
		return "", errors.New("rpc unavailable")
	}))

	res, err := reg.Decode(context.Background(), transferLog(t, 7))
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, res.Status)
	assert.EqualError(t, res.Err, "rpc unavailable")
	assert.Empty(t, res.Text)

	entries := logs.FilterMessage("log decode failed").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, transferSig, fields["signature"])
	assert.Equal(t, "erc20", fields["protocol"])
	params, ok := fields["params"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "7", params["value"])
}

func TestDecodeInterpreterPanicIsContained(t *testing.T) {
	reg := buildRegistry(t, Config{}, testProtocol("erc20", func(context.Context, Env, Event) (string, error) {
		var m map[string]int
		m["boom"]++
		return "unreachable", nil
	}))
	res, err := reg.Decode(context.Background(), transferLog(t, 1))
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, res.Status)
	assert.Error(t, res.Err)
}

func TestDecodeTopicMismatchFails(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	reg := buildRegistry(t, Config{Logger: zap.New(core)}, testProtocol("erc20", describeTransfer))
	log := transferLog(t, 1)
	log.Topics = log.Topics[:2]

	res, err := reg.Decode(context.Background(), log)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, res.Status)
	assert.ErrorIs(t, res.Err, abidecode.ErrTopicCountMismatch)

	entries := logs.FilterMessage("log decode failed").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, transferSig, fields["signature"])
	assert.Equal(t, token.Hex(), fields["address"])
	assert.Equal(t, []interface{}{log.Topics[0], log.Topics[1]}, fields["topics"])
	assert.Equal(t, log.Data, fields["data"])
}

func TestDecodeBadSignatureRowFailsOnlyItsSelector(t *testing.T) {
	b := NewBuilder(nil)
	require.NoError(t, b.RegisterAll(testProtocol("erc20", describeTransfer)))
	broken, err := signature.EntryFromRow(
		"0x1111111111111111111111111111111111111111111111111111111111111111", "{not json", "Broken(uint256)")
	require.NoError(t, err)
	require.Error(t, broken.Err)
	reg := b.Build(Config{Signatures: signature.NewTable(append(b.Seeds(), broken)...)})

	res, err := reg.Decode(context.Background(), transferLog(t, 3))
	require.NoError(t, err)
	assert.Equal(t, StatusDescribed, res.Status)

	log := transferLog(t, 3)
	log.Topics[0] = broken.Selector
	res, err = reg.Decode(context.Background(), log)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, res.Status)
	assert.Equal(t, "Broken(uint256)", res.Signature)
	assert.ErrorIs(t, res.Err, abidecode.ErrInvalidABI)
	assert.Empty(t, reg.DecodeText(context.Background(), log))
}

func TestDecodeInvalidAddressFails(t *testing.T) {
	reg := buildRegistry(t, Config{}, testProtocol("erc20", describeTransfer))
	log := transferLog(t, 1)
	log.Address = "not-an-address"

	res, err := reg.Decode(context.Background(), log)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, res.Status)
}

func TestLastRegistrationWins(t *testing.T) {
	first := testProtocol("first", func(context.Context, Env, Event) (string, error) { return "first", nil })
	second := testProtocol("second", func(context.Context, Env, Event) (string, error) { return "second", nil })

	reg := buildRegistry(t, Config{}, first, second)
	assert.Equal(t, "second", reg.DecodeText(context.Background(), transferLog(t, 1)))

	reg = buildRegistry(t, Config{}, second, first)
	assert.Equal(t, "first", reg.DecodeText(context.Background(), transferLog(t, 1)))
}

func TestRegisterByTextSignature(t *testing.T) {
	entry, err := signature.EntryFromABI(transferABI)
	require.NoError(t, err)
	b := NewBuilder(nil)
	b.Register(transferSig, describeTransfer)
	reg := b.Build(Config{Signatures: signature.NewTable(entry)})

	assert.True(t, reg.Handles(transferSig))
	assert.Equal(t, "Transfer 3 to 0x0000...0b0b", reg.DecodeText(context.Background(), transferLog(t, 3)))
}

func TestRegisterAllRejectsBadABI(t *testing.T) {
	err := NewBuilder(nil).RegisterAll(Protocol{Name: "broken", Handlers: []Handler{{ABI: "{", Interpret: describeTransfer}}})
	assert.Error(t, err)
}

func TestDecodeRecordsMetrics(t *testing.T) {
	promReg := prometheus.NewRegistry()
	reg := buildRegistry(t, Config{Metrics: metrics.New(promReg)}, testProtocol("erc20", describeTransfer))

	_, _ = reg.Decode(context.Background(), transferLog(t, 1))
	_, _ = reg.Decode(context.Background(), model.RawLog{})

	// one series per outcome: described and invalid
	n, err := testutil.GatherAndCount(promReg, "narrator_log_decodes_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
