// Package protocol holds the static handler tables of the supported DeFi
// protocols. Each table pairs an event ABI fragment with the interpreter
// that turns the decoded event into a sentence.
package protocol

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"txnarrator/internal/abidecode"
	"txnarrator/internal/model"
	"txnarrator/internal/narrate"
)

// ErrInconsistentSwap is returned when swap amounts do not name exactly one
// received side.
var ErrInconsistentSwap = errors.New("inconsistent swap amounts")

// All returns every protocol in registration order. Later protocols win
// signature collisions.
func All() []narrate.Protocol {
	return []narrate.Protocol{
		UniswapV2(),
		UniswapV3(),
		AaveV2(),
		AaveV3(),
		CompoundV3(),
		BancorV3(),
		Curve(),
	}
}

// Register adds every protocol in order to b.
func Register(b *narrate.Builder, protocols ...narrate.Protocol) error {
	for _, p := range protocols {
		if err := b.RegisterAll(p); err != nil {
			return err
		}
	}
	return nil
}

// poolTokens resolves the pair of a pool and the metadata of both tokens.
func poolTokens(ctx context.Context, env narrate.Env, pool common.Address) (model.TokenMeta, model.TokenMeta, error) {
	res, err := env.Resolver()
	if err != nil {
		return model.TokenMeta{}, model.TokenMeta{}, err
	}
	token0, token1, err := res.TokenPair(ctx, pool)
	if err != nil {
		return model.TokenMeta{}, model.TokenMeta{}, err
	}
	return tokenPair(ctx, env, token0, token1)
}

// positionTokens resolves the pair of a liquidity position and the metadata
// of both tokens: one aggregate for positions(tokenId), then one for the
// tokens it names.
func positionTokens(ctx context.Context, env narrate.Env, manager common.Address, tokenID *big.Int) (model.TokenMeta, model.TokenMeta, error) {
	res, err := env.Resolver()
	if err != nil {
		return model.TokenMeta{}, model.TokenMeta{}, err
	}
	token0, token1, err := res.PositionTokens(ctx, manager, tokenID)
	if err != nil {
		return model.TokenMeta{}, model.TokenMeta{}, err
	}
	return tokenPair(ctx, env, token0, token1)
}

func tokenPair(ctx context.Context, env narrate.Env, a, b common.Address) (model.TokenMeta, model.TokenMeta, error) {
	res, err := env.Resolver()
	if err != nil {
		return model.TokenMeta{}, model.TokenMeta{}, err
	}
	metas, err := res.Tokens(ctx, a, b)
	if err != nil {
		return model.TokenMeta{}, model.TokenMeta{}, err
	}
	if len(metas) != 2 {
		return model.TokenMeta{}, model.TokenMeta{}, fmt.Errorf("expected 2 token results, got %d", len(metas))
	}
	return metas[0], metas[1], nil
}

func tokenMeta(ctx context.Context, env narrate.Env, token common.Address) (model.TokenMeta, error) {
	res, err := env.Resolver()
	if err != nil {
		return model.TokenMeta{}, err
	}
	metas, err := res.Tokens(ctx, token)
	if err != nil {
		return model.TokenMeta{}, err
	}
	if len(metas) != 1 {
		return model.TokenMeta{}, fmt.Errorf("expected 1 token result, got %d", len(metas))
	}
	return metas[0], nil
}

// ints reads several integer parameters at once.
func ints(p *abidecode.Params, keys ...string) ([]*big.Int, error) {
	out := make([]*big.Int, len(keys))
	for i, key := range keys {
		n, err := p.BigInt(key)
		if err != nil {
			return nil, err
		}
		out[i] = n
	}
	return out, nil
}

// positional returns the synthetic key of the i-th parameter.
func positional(i int) string {
	return fmt.Sprintf("%s%d", abidecode.PositionalPrefix, i)
}

// singleAsset renders "<verb> <amount> <token> <prep> <contract>" for lending
// events that move one reserve asset.
func singleAsset(verb, assetKey, prep string) narrate.Interpreter {
	return func(ctx context.Context, env narrate.Env, ev narrate.Event) (string, error) {
		asset, err := ev.Params.Address(assetKey)
		if err != nil {
			return "", err
		}
		amount, err := ev.Params.BigInt("amount")
		if err != nil {
			return "", err
		}
		meta, err := tokenMeta(ctx, env, asset)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s %s %s %s", verb, env.Amount(amount, meta), prep, env.Describe(ev.Address)), nil
	}
}

// collateralToggle renders reserve collateral switches. No chain reads.
func collateralToggle(verb string) narrate.Interpreter {
	return func(_ context.Context, env narrate.Env, ev narrate.Event) (string, error) {
		reserve, err := ev.Params.Address("reserve")
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s %s as collateral on %s", verb, env.Describe(reserve), env.Describe(ev.Address)), nil
	}
}

// trade renders a two-token exchange where both sides are named in the event.
func trade(ctx context.Context, env narrate.Env, verb, venue string, sold, bought common.Address, soldAmount, boughtAmount *big.Int) (string, error) {
	soldMeta, boughtMeta, err := tokenPair(ctx, env, sold, bought)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s %s for %s on %s", verb, env.Amount(soldAmount, soldMeta), env.Amount(boughtAmount, boughtMeta), venue), nil
}
