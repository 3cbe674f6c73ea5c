package protocol

import (
	"context"
	"fmt"
	"math/big"

	"txnarrator/internal/narrate"
)

const (
	v2SwapABI = `{"anonymous":false,"inputs":[
		{"indexed":true,"name":"sender","type":"address"},
		{"indexed":false,"name":"amount0In","type":"uint256"},
		{"indexed":false,"name":"amount1In","type":"uint256"},
		{"indexed":false,"name":"amount0Out","type":"uint256"},
		{"indexed":false,"name":"amount1Out","type":"uint256"},
		{"indexed":true,"name":"to","type":"address"}],"name":"Swap","type":"event"}`

	v2PairCreatedABI = `{"anonymous":false,"inputs":[
		{"indexed":true,"name":"token0","type":"address"},
		{"indexed":true,"name":"token1","type":"address"},
		{"indexed":false,"name":"pair","type":"address"},
		{"indexed":false,"name":"","type":"uint256"}],"name":"PairCreated","type":"event"}`

	v2MintABI = `{"anonymous":false,"inputs":[
		{"indexed":true,"name":"sender","type":"address"},
		{"indexed":false,"name":"amount0","type":"uint256"},
		{"indexed":false,"name":"amount1","type":"uint256"}],"name":"Mint","type":"event"}`

	v2BurnABI = `{"anonymous":false,"inputs":[
		{"indexed":true,"name":"sender","type":"address"},
		{"indexed":false,"name":"amount0","type":"uint256"},
		{"indexed":false,"name":"amount1","type":"uint256"},
		{"indexed":true,"name":"to","type":"address"}],"name":"Burn","type":"event"}`
)

// UniswapV2 covers constant-product pairs and their factory.
func UniswapV2() narrate.Protocol {
	return narrate.Protocol{
		Name: "uniswap_v2",
		Handlers: []narrate.Handler{
			{ABI: v2SwapABI, Interpret: v2Swap},
			{ABI: v2PairCreatedABI, Interpret: v2PairCreated},
			{ABI: v2MintABI, Interpret: recognizedOnly},
			{ABI: v2BurnABI, Interpret: recognizedOnly},
		},
	}
}

func v2Swap(ctx context.Context, env narrate.Env, ev narrate.Event) (string, error) {
	amounts, err := ints(ev.Params, "amount0In", "amount1In", "amount0Out", "amount1Out")
	if err != nil {
		return "", err
	}
	delta0 := new(big.Int).Sub(amounts[2], amounts[0])
	delta1 := new(big.Int).Sub(amounts[3], amounts[1])
	receivedToken0, err := v2Direction(delta0, delta1)
	if err != nil {
		return "", err
	}

	meta0, meta1, err := poolTokens(ctx, env, ev.Address)
	if err != nil {
		return "", err
	}
	if receivedToken0 {
		return fmt.Sprintf("Swap %s for %s on UniswapV2", env.Amount(delta1, meta1), env.Amount(delta0, meta0)), nil
	}
	return fmt.Sprintf("Swap %s for %s on UniswapV2", env.Amount(delta0, meta0), env.Amount(delta1, meta1)), nil
}

// v2Direction reports whether token0 is the received side. Exactly one of
// the per-token deltas (out - in) must be positive.
func v2Direction(delta0, delta1 *big.Int) (bool, error) {
	switch {
	case delta0.Sign() > 0 && delta1.Sign() <= 0:
		return true, nil
	case delta1.Sign() > 0 && delta0.Sign() <= 0:
		return false, nil
	default:
		return false, fmt.Errorf("%w: delta0=%s delta1=%s", ErrInconsistentSwap, delta0, delta1)
	}
}

func v2PairCreated(_ context.Context, env narrate.Env, ev narrate.Event) (string, error) {
	token0, err := ev.Params.Address("token0")
	if err != nil {
		return "", err
	}
	token1, err := ev.Params.Address("token1")
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Created %s/%s pair", env.Describe(token0), env.Describe(token1)), nil
}

// recognizedOnly marks events that are known but not described yet.
func recognizedOnly(context.Context, narrate.Env, narrate.Event) (string, error) {
	return "", nil
}
