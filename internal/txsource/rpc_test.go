package txsource

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"txnarrator/internal/model"
)

type fakeChain struct {
	chainID *big.Int
	txs     map[common.Hash]*types.Transaction
	rcpts   map[common.Hash]*types.Receipt
	times   map[uint64]uint64
	pending bool
}

func (f *fakeChain) GetChainID(context.Context) (*big.Int, error) {
	return f.chainID, nil
}

func (f *fakeChain) TransactionByHash(_ context.Context, hash common.Hash) (*types.Transaction, bool, error) {
	tx, ok := f.txs[hash]
	if !ok {
		return nil, false, ethereum.NotFound
	}
	return tx, f.pending, nil
}

func (f *fakeChain) TransactionReceipt(_ context.Context, hash common.Hash) (*types.Receipt, error) {
	r, ok := f.rcpts[hash]
	if !ok {
		return nil, ethereum.NotFound
	}
	return r, nil
}

func (f *fakeChain) BlockTimestamp(_ context.Context, number uint64) (uint64, error) {
	ts, ok := f.times[number]
	if !ok {
		return 0, errors.New("unknown block")
	}
	return ts, nil
}

func signedFixture(t *testing.T) (*fakeChain, *types.Transaction, common.Address) {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	chainID := big.NewInt(1)

	to := common.HexToAddress("0x7a250d5630b4cf539739df2c5dacb4c659f2488d")
	tx, err := types.SignTx(types.NewTx(&types.DynamicFeeTx{
		ChainID:   chainID,
		Nonce:     7,
		GasTipCap: big.NewInt(1),
		GasFeeCap: big.NewInt(30_000_000_000),
		Gas:       210000,
		To:        &to,
		Value:     big.NewInt(1_500_000_000_000_000_000),
		Data:      []byte{0xa9, 0x05, 0x9c, 0xbb},
	}), types.LatestSignerForChainID(chainID), key)
	require.NoError(t, err)

	pair := common.HexToAddress("0xb4e16d0168e52d35cacd2c6185b44281ec28c9dc")
	receipt := &types.Receipt{
		Status:      types.ReceiptStatusSuccessful,
		BlockNumber: big.NewInt(19_000_000),
		TxHash:      tx.Hash(),
		Logs: []*types.Log{
			{
				Address:     pair,
				Topics:      []common.Hash{common.HexToHash("0xd78ad95fa46c994b6551d0da85fc275fe613ce37657fb8d5e3d130840159d822")},
				Data:        []byte{0x01},
				BlockNumber: 19_000_000,
				TxHash:      tx.Hash(),
				TxIndex:     3,
				Index:       41,
			},
			{
				Address:     pair,
				Topics:      []common.Hash{common.HexToHash("0x1c411e9a96e071241c2f21f7726b17ae89e3cab4c78be50e062b03a9fffbbad1")},
				BlockNumber: 19_000_000,
				TxHash:      tx.Hash(),
				TxIndex:     3,
				Index:       42,
			},
		},
	}

	fc := &fakeChain{
		chainID: chainID,
		txs:     map[common.Hash]*types.Transaction{tx.Hash(): tx},
		rcpts:   map[common.Hash]*types.Receipt{tx.Hash(): receipt},
		times:   map[uint64]uint64{19_000_000: 1705000000},
	}
	return fc, tx, crypto.PubkeyToAddress(key.PublicKey)
}

func TestRPCSourceGetTx(t *testing.T) {
	fc, tx, from := signedFixture(t)
	src := NewRPCSource(fc, nil)

	got, err := src.GetTx(context.Background(), tx.Hash().Hex())
	require.NoError(t, err)

	assert.Equal(t, tx.Hash().Hex(), got.Hash)
	assert.Equal(t, from.Hex(), got.From)
	assert.Equal(t, "0x7a250d5630B4cF539739dF2C5dAcb4c659F2488D", got.To)
	assert.Equal(t, uint64(19_000_000), got.BlockNumber)
	assert.Equal(t, time.Unix(1705000000, 0).UTC(), got.Timestamp)
	assert.Equal(t, uint64(210000), got.Gas)
	assert.Equal(t, "1500000000000000000", got.Value.String())
	assert.Equal(t, uint64(1), got.Status)
	assert.Equal(t, "0xa9059cbb", got.Input)

	require.Len(t, got.Logs, 2)
	assert.Equal(t, uint64(41), got.Logs[0].LogIndex)
	assert.Equal(t, uint64(1), got.Logs[0].ChainID)
	assert.Equal(t, "0x01", got.Logs[0].Data)
	assert.Equal(t, "0x", got.Logs[1].Data)
	assert.Equal(t, "0x1c411e9a96e071241c2f21f7726b17ae89e3cab4c78be50e062b03a9fffbbad1", got.Logs[1].Topic0())
}

func TestRPCSourceNotFound(t *testing.T) {
	fc, _, _ := signedFixture(t)
	src := NewRPCSource(fc, nil)

	_, err := src.GetTx(context.Background(), common.HexToHash("0x1234").Hex())
	assert.ErrorIs(t, err, model.ErrTxNotFound)
}

func TestRPCSourcePending(t *testing.T) {
	fc, tx, _ := signedFixture(t)
	fc.pending = true
	_, err := NewRPCSource(fc, nil).GetTx(context.Background(), tx.Hash().Hex())
	assert.ErrorContains(t, err, "pending")
}

func TestRPCSourceRejectsBadHash(t *testing.T) {
	fc, _, _ := signedFixture(t)
	_, err := NewRPCSource(fc, nil).GetTx(context.Background(), "0xabc")
	assert.Error(t, err)
}
