package resolver

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"txnarrator/internal/chain"
	"txnarrator/internal/model"
)

// TokenMetadataResolver answers the chain reads interpreters need. Each
// method issues at most one aggregated request for values not yet cached.
type TokenMetadataResolver interface {
	TokenPair(ctx context.Context, pool common.Address) (common.Address, common.Address, error)
	PositionTokens(ctx context.Context, manager common.Address, tokenID *big.Int) (common.Address, common.Address, error)
	Tokens(ctx context.Context, tokens ...common.Address) ([]model.TokenMeta, error)
	Coins(ctx context.Context, pool common.Address, indexes ...*big.Int) ([]common.Address, error)
}

// Resolver implements TokenMetadataResolver over a chain.Aggregator.
type Resolver struct {
	agg    chain.Aggregator
	logger *zap.Logger

	pairs     *cache[common.Address, [2]common.Address]
	positions *cache[positionKey, [2]common.Address]
	tokens    *cache[common.Address, model.TokenMeta]
	coins     *cache[coinKey, common.Address]
}

type positionKey struct {
	manager common.Address
	id      string
}

type coinKey struct {
	pool  common.Address
	index string
}

// New builds a Resolver.
func New(agg chain.Aggregator, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		agg:       agg,
		logger:    logger,
		pairs:     newCache[common.Address, [2]common.Address](),
		positions: newCache[positionKey, [2]common.Address](),
		tokens:    newCache[common.Address, model.TokenMeta](),
		coins:     newCache[coinKey, common.Address](),
	}
}

// TokenPair returns token0 and token1 of a pair or pool.
func (r *Resolver) TokenPair(ctx context.Context, pool common.Address) (common.Address, common.Address, error) {
	if pair, ok := r.pairs.Get(pool); ok {
		return pair[0], pair[1], nil
	}
	parsed, err := chain.PairABI()
	if err != nil {
		return common.Address{}, common.Address{}, fmt.Errorf("parse pair abi: %w", err)
	}
	calls := make([]chain.Call, 0, 2)
	for _, method := range []string{"token0", "token1"} {
		call, err := chain.NewCall(method, pool, parsed, method)
		if err != nil {
			return common.Address{}, common.Address{}, err
		}
		calls = append(calls, call)
	}
	results, err := r.agg.Aggregate(ctx, calls)
	if err != nil {
		return common.Address{}, common.Address{}, fmt.Errorf("token pair of %s: %w", pool.Hex(), err)
	}

	var pair [2]common.Address
	for i, res := range results {
		addr, err := unpackAddress(parsed, res.ID, res.Return)
		if err != nil {
			return common.Address{}, common.Address{}, fmt.Errorf("token pair of %s: %w", pool.Hex(), err)
		}
		pair[i] = addr
	}
	r.pairs.Set(pool, pair)
	return pair[0], pair[1], nil
}

// PositionTokens returns the token pair of a liquidity position NFT. Token
// metadata cannot join this request because the addresses come from its
// answer, so a position narrated cold costs two round trips.
func (r *Resolver) PositionTokens(ctx context.Context, manager common.Address, tokenID *big.Int) (common.Address, common.Address, error) {
	if tokenID == nil {
		return common.Address{}, common.Address{}, errors.New("nil position id")
	}
	key := positionKey{manager: manager, id: tokenID.String()}
	if pair, ok := r.positions.Get(key); ok {
		return pair[0], pair[1], nil
	}
	parsed, err := chain.PositionManagerABI()
	if err != nil {
		return common.Address{}, common.Address{}, fmt.Errorf("parse position manager abi: %w", err)
	}
	call, err := chain.NewCall("positions", manager, parsed, "positions", tokenID)
	if err != nil {
		return common.Address{}, common.Address{}, err
	}
	results, err := r.agg.Aggregate(ctx, []chain.Call{call})
	if err != nil {
		return common.Address{}, common.Address{}, fmt.Errorf("position %s: %w", key.id, err)
	}
	values, err := parsed.Unpack("positions", results[0].Return)
	if err != nil {
		return common.Address{}, common.Address{}, fmt.Errorf("unpack positions: %w", err)
	}
	if len(values) < 4 {
		return common.Address{}, common.Address{}, fmt.Errorf("unexpected positions values: %d", len(values))
	}
	token0, err := asAddress(values[2])
	if err != nil {
		return common.Address{}, common.Address{}, fmt.Errorf("position token0: %w", err)
	}
	token1, err := asAddress(values[3])
	if err != nil {
		return common.Address{}, common.Address{}, fmt.Errorf("position token1: %w", err)
	}
	r.positions.Set(key, [2]common.Address{token0, token1})
	return token0, token1, nil
}

// Tokens returns decimals and symbol for each token, in argument order.
// Tokens whose symbol() reverts keep an empty symbol.
func (r *Resolver) Tokens(ctx context.Context, tokens ...common.Address) ([]model.TokenMeta, error) {
	var missing []common.Address
	seen := make(map[common.Address]bool, len(tokens))
	for _, token := range tokens {
		if _, ok := r.tokens.Get(token); ok || seen[token] {
			continue
		}
		seen[token] = true
		missing = append(missing, token)
	}

	if len(missing) > 0 {
		metas, err := r.fetchTokens(ctx, missing, true)
		if err != nil && chain.IsRevert(err) {
			r.logger.Debug("symbol batch reverted, retrying with decimals only",
				zap.Int("tokens", len(missing)),
				zap.Error(err),
			)
			metas, err = r.fetchTokens(ctx, missing, false)
		}
		if err != nil {
			return nil, err
		}
		for _, meta := range metas {
			r.tokens.Set(meta.Address, meta)
		}
	}

	out := make([]model.TokenMeta, len(tokens))
	for i, token := range tokens {
		meta, _ := r.tokens.Get(token)
		out[i] = meta
	}
	return out, nil
}

func (r *Resolver) fetchTokens(ctx context.Context, tokens []common.Address, withSymbol bool) ([]model.TokenMeta, error) {
	parsed, err := chain.ERC20ABI()
	if err != nil {
		return nil, fmt.Errorf("parse erc20 abi: %w", err)
	}
	calls := make([]chain.Call, 0, 2*len(tokens))
	for _, token := range tokens {
		call, err := chain.NewCall("decimals", token, parsed, "decimals")
		if err != nil {
			return nil, err
		}
		calls = append(calls, call)
		if withSymbol {
			call, err = chain.NewCall("symbol", token, parsed, "symbol")
			if err != nil {
				return nil, err
			}
			calls = append(calls, call)
		}
	}
	results, err := r.agg.Aggregate(ctx, calls)
	if err != nil {
		return nil, fmt.Errorf("token metadata: %w", err)
	}

	metas := make(map[common.Address]*model.TokenMeta, len(tokens))
	for _, token := range tokens {
		metas[token] = &model.TokenMeta{Address: token}
	}
	for _, res := range results {
		meta := metas[res.Target]
		switch res.ID {
		case "decimals":
			values, err := parsed.Unpack("decimals", res.Return)
			if err != nil {
				return nil, fmt.Errorf("unpack decimals of %s: %w", res.Target.Hex(), err)
			}
			decimals, err := asUint8(values[0])
			if err != nil {
				return nil, fmt.Errorf("decimals of %s: %w", res.Target.Hex(), err)
			}
			meta.Decimals = decimals
		case "symbol":
			meta.Symbol = decodeSymbol(parsed, res.Return)
		}
	}

	out := make([]model.TokenMeta, 0, len(tokens))
	for _, token := range tokens {
		out = append(out, *metas[token])
	}
	return out, nil
}

// Coins returns the coin addresses of a stable-swap pool at the given indexes.
func (r *Resolver) Coins(ctx context.Context, pool common.Address, indexes ...*big.Int) ([]common.Address, error) {
	parsed, err := chain.StableSwapABI()
	if err != nil {
		return nil, fmt.Errorf("parse stable swap abi: %w", err)
	}
	var calls []chain.Call
	for _, idx := range indexes {
		if idx == nil || idx.Sign() < 0 {
			return nil, fmt.Errorf("invalid coin index %v", idx)
		}
		key := coinKey{pool: pool, index: idx.String()}
		if _, ok := r.coins.Get(key); ok {
			continue
		}
		call, err := chain.NewCall(key.index, pool, parsed, "coins", idx)
		if err != nil {
			return nil, err
		}
		calls = append(calls, call)
	}
	if len(calls) > 0 {
		results, err := r.agg.Aggregate(ctx, calls)
		if err != nil {
			return nil, fmt.Errorf("coins of %s: %w", pool.Hex(), err)
		}
		for _, res := range results {
			addr, err := unpackAddress(parsed, "coins", res.Return)
			if err != nil {
				return nil, fmt.Errorf("coins of %s: %w", pool.Hex(), err)
			}
			r.coins.Set(coinKey{pool: pool, index: res.ID}, addr)
		}
	}

	out := make([]common.Address, len(indexes))
	for i, idx := range indexes {
		out[i], _ = r.coins.Get(coinKey{pool: pool, index: idx.String()})
	}
	return out, nil
}

func unpackAddress(parsed abi.ABI, method string, data []byte) (common.Address, error) {
	values, err := parsed.Unpack(method, data)
	if err != nil {
		return common.Address{}, fmt.Errorf("unpack %s: %w", method, err)
	}
	if len(values) == 0 {
		return common.Address{}, fmt.Errorf("unpack %s: no values", method)
	}
	return asAddress(values[0])
}

// decodeSymbol accepts both the string and the legacy bytes32 return shape.
func decodeSymbol(parsed abi.ABI, data []byte) string {
	if values, err := parsed.Unpack("symbol", data); err == nil {
		if symbol, ok := values[0].(string); ok {
			return symbol
		}
	}
	legacy, err := chain.ERC20Bytes32ABI()
	if err != nil {
		return ""
	}
	if values, err := legacy.Unpack("symbol", data); err == nil {
		if symbol, ok := values[0].([32]byte); ok {
			return string(bytes.TrimRight(symbol[:], "\x00"))
		}
	}
	return ""
}

func asAddress(value interface{}) (common.Address, error) {
	switch v := value.(type) {
	case common.Address:
		return v, nil
	case *common.Address:
		return *v, nil
	default:
		return common.Address{}, fmt.Errorf("unsupported address type %T", value)
	}
}

func asUint8(value interface{}) (uint8, error) {
	switch v := value.(type) {
	case uint8:
		return v, nil
	case *big.Int:
		if !v.IsUint64() || v.Uint64() > 255 {
			return 0, fmt.Errorf("decimals out of range: %s", v.String())
		}
		return uint8(v.Uint64()), nil
	default:
		return 0, fmt.Errorf("unsupported uint8 type %T", value)
	}
}
