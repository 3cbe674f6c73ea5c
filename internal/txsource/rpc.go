// Package txsource loads a mined transaction and its logs by hash.
package txsource

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"txnarrator/internal/model"
)

// Source fetches a transaction with its logs in emission order.
type Source interface {
	GetTx(ctx context.Context, hash string) (model.Tx, error)
}

// ChainReader is the part of chain.Client used by RPCSource.
type ChainReader interface {
	GetChainID(ctx context.Context) (*big.Int, error)
	TransactionByHash(ctx context.Context, hash common.Hash) (*types.Transaction, bool, error)
	TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error)
	BlockTimestamp(ctx context.Context, number uint64) (uint64, error)
}

// RPCSource reads transactions from a JSON-RPC node.
type RPCSource struct {
	chain  ChainReader
	logger *zap.Logger
}

// NewRPCSource builds an RPCSource.
func NewRPCSource(chain ChainReader, logger *zap.Logger) *RPCSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RPCSource{chain: chain, logger: logger}
}

// GetTx returns the transaction, its receipt status and its logs.
func (s *RPCSource) GetTx(ctx context.Context, hash string) (model.Tx, error) {
	hash = strings.TrimSpace(hash)
	raw, err := hexutil.Decode(hash)
	if err != nil || len(raw) != common.HashLength {
		return model.Tx{}, fmt.Errorf("invalid transaction hash %q", hash)
	}
	txHash := common.BytesToHash(raw)

	tx, pending, err := s.chain.TransactionByHash(ctx, txHash)
	if err != nil {
		if errors.Is(err, ethereum.NotFound) {
			return model.Tx{}, fmt.Errorf("%w: %s", model.ErrTxNotFound, hash)
		}
		return model.Tx{}, fmt.Errorf("get transaction %s: %w", hash, err)
	}
	if pending {
		return model.Tx{}, fmt.Errorf("transaction %s is pending", hash)
	}

	receipt, err := s.chain.TransactionReceipt(ctx, txHash)
	if err != nil {
		if errors.Is(err, ethereum.NotFound) {
			return model.Tx{}, fmt.Errorf("%w: receipt %s", model.ErrTxNotFound, hash)
		}
		return model.Tx{}, fmt.Errorf("get receipt %s: %w", hash, err)
	}

	chainID, err := s.chain.GetChainID(ctx)
	if err != nil {
		return model.Tx{}, fmt.Errorf("get chain id: %w", err)
	}
	from, err := types.Sender(types.LatestSignerForChainID(chainID), tx)
	if err != nil {
		return model.Tx{}, fmt.Errorf("recover sender of %s: %w", hash, err)
	}

	blockNumber := receipt.BlockNumber.Uint64()
	ts, err := s.chain.BlockTimestamp(ctx, blockNumber)
	if err != nil {
		return model.Tx{}, fmt.Errorf("block %d timestamp: %w", blockNumber, err)
	}

	out := model.Tx{
		Hash:        txHash.Hex(),
		BlockNumber: blockNumber,
		Timestamp:   time.Unix(int64(ts), 0).UTC(),
		From:        from.Hex(),
		Gas:         tx.Gas(),
		Value:       tx.Value(),
		Status:      receipt.Status,
		Input:       hexutil.Encode(tx.Data()),
		Logs:        make([]model.RawLog, 0, len(receipt.Logs)),
	}
	if to := tx.To(); to != nil {
		out.To = to.Hex()
	} else if receipt.ContractAddress != (common.Address{}) {
		out.To = receipt.ContractAddress.Hex()
	}
	for _, log := range receipt.Logs {
		if log == nil {
			continue
		}
		out.Logs = append(out.Logs, buildRawLog(chainID.Uint64(), *log))
	}

	s.logger.Debug("transaction loaded",
		zap.String("tx_hash", out.Hash),
		zap.Uint64("block", blockNumber),
		zap.Int("logs", len(out.Logs)),
	)
	return out, nil
}

func buildRawLog(chainID uint64, log types.Log) model.RawLog {
	topics := make([]string, 0, len(log.Topics))
	for _, topic := range log.Topics {
		topics = append(topics, topic.Hex())
	}

	return model.RawLog{
		ChainID:     chainID,
		BlockNumber: log.BlockNumber,
		BlockHash:   log.BlockHash.Hex(),
		TxHash:      log.TxHash.Hex(),
		TxIndex:     uint64(log.TxIndex),
		LogIndex:    uint64(log.Index),
		Address:     log.Address.Hex(),
		Topics:      topics,
		Data:        hexutil.Encode(log.Data),
		Removed:     log.Removed,
	}
}
