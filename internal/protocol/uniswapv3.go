package protocol

import (
	"context"
	"fmt"
	"math/big"

	"txnarrator/internal/display"
	"txnarrator/internal/narrate"
)

const (
	v3PoolCreatedABI = `{"anonymous":false,"inputs":[
		{"indexed":true,"name":"token0","type":"address"},
		{"indexed":true,"name":"token1","type":"address"},
		{"indexed":true,"name":"fee","type":"uint24"},
		{"indexed":false,"name":"tickSpacing","type":"int24"},
		{"indexed":false,"name":"pool","type":"address"}],"name":"PoolCreated","type":"event"}`

	v3OwnerChangedABI = `{"anonymous":false,"inputs":[
		{"indexed":true,"name":"oldOwner","type":"address"},
		{"indexed":true,"name":"newOwner","type":"address"}],"name":"OwnerChanged","type":"event"}`

	v3SwapABI = `{"anonymous":false,"inputs":[
		{"indexed":true,"name":"sender","type":"address"},
		{"indexed":true,"name":"recipient","type":"address"},
		{"indexed":false,"name":"amount0","type":"int256"},
		{"indexed":false,"name":"amount1","type":"int256"},
		{"indexed":false,"name":"sqrtPriceX96","type":"uint160"},
		{"indexed":false,"name":"liquidity","type":"uint128"},
		{"indexed":false,"name":"tick","type":"int24"}],"name":"Swap","type":"event"}`

	v3FlashABI = `{"anonymous":false,"inputs":[
		{"indexed":true,"name":"sender","type":"address"},
		{"indexed":true,"name":"recipient","type":"address"},
		{"indexed":false,"name":"amount0","type":"uint256"},
		{"indexed":false,"name":"amount1","type":"uint256"},
		{"indexed":false,"name":"paid0","type":"uint256"},
		{"indexed":false,"name":"paid1","type":"uint256"}],"name":"Flash","type":"event"}`

	v3CollectABI = `{"anonymous":false,"inputs":[
		{"indexed":true,"name":"owner","type":"address"},
		{"indexed":false,"name":"recipient","type":"address"},
		{"indexed":true,"name":"tickLower","type":"int24"},
		{"indexed":true,"name":"tickUpper","type":"int24"},
		{"indexed":false,"name":"amount0","type":"uint128"},
		{"indexed":false,"name":"amount1","type":"uint128"}],"name":"Collect","type":"event"}`

	v3IncreaseLiquidityABI = `{"anonymous":false,"inputs":[
		{"indexed":true,"name":"tokenId","type":"uint256"},
		{"indexed":false,"name":"liquidity","type":"uint128"},
		{"indexed":false,"name":"amount0","type":"uint256"},
		{"indexed":false,"name":"amount1","type":"uint256"}],"name":"IncreaseLiquidity","type":"event"}`

	v3DecreaseLiquidityABI = `{"anonymous":false,"inputs":[
		{"indexed":true,"name":"tokenId","type":"uint256"},
		{"indexed":false,"name":"liquidity","type":"uint128"},
		{"indexed":false,"name":"amount0","type":"uint256"},
		{"indexed":false,"name":"amount1","type":"uint256"}],"name":"DecreaseLiquidity","type":"event"}`

	v3PositionCollectABI = `{"anonymous":false,"inputs":[
		{"indexed":true,"name":"tokenId","type":"uint256"},
		{"indexed":false,"name":"recipient","type":"address"},
		{"indexed":false,"name":"amount0","type":"uint256"},
		{"indexed":false,"name":"amount1","type":"uint256"}],"name":"Collect","type":"event"}`
)

// UniswapV3 covers the factory, concentrated-liquidity pools and the
// position manager.
func UniswapV3() narrate.Protocol {
	return narrate.Protocol{
		Name: "uniswap_v3",
		Handlers: []narrate.Handler{
			{ABI: v3PoolCreatedABI, Interpret: v3PoolCreated},
			{ABI: v3OwnerChangedABI, Interpret: v3OwnerChanged},
			{ABI: v3SwapABI, Interpret: v3Swap},
			{ABI: v3FlashABI, Interpret: v3Flash},
			{ABI: v3CollectABI, Interpret: v3PoolCollect},
			{ABI: v3IncreaseLiquidityABI, Interpret: v3Liquidity("Add", "to")},
			{ABI: v3DecreaseLiquidityABI, Interpret: v3Liquidity("Remove", "from")},
			{ABI: v3PositionCollectABI, Interpret: v3PositionCollect},
		},
	}
}

func v3PoolCreated(_ context.Context, env narrate.Env, ev narrate.Event) (string, error) {
	token0, err := ev.Params.Address("token0")
	if err != nil {
		return "", err
	}
	token1, err := ev.Params.Address("token1")
	if err != nil {
		return "", err
	}
	fee, err := ev.Params.BigInt("fee")
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Created %s/%s pool with %s%% fee",
		env.Describe(token0), env.Describe(token1), display.FeePercent(fee)), nil
}

func v3OwnerChanged(_ context.Context, env narrate.Env, ev narrate.Event) (string, error) {
	oldOwner, err := ev.Params.Address("oldOwner")
	if err != nil {
		return "", err
	}
	newOwner, err := ev.Params.Address("newOwner")
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Change owner of %s from %s to %s",
		env.Describe(ev.Address), env.Describe(oldOwner), env.Describe(newOwner)), nil
}

// v3Swap reads direction from the signed pool deltas: a positive amount is
// what the pool received, so the caller paid it.
func v3Swap(ctx context.Context, env narrate.Env, ev narrate.Event) (string, error) {
	amounts, err := ints(ev.Params, "amount0", "amount1")
	if err != nil {
		return "", err
	}
	amount0, amount1 := amounts[0], amounts[1]
	paid0, paid1 := amount0.Sign() > 0, amount1.Sign() > 0
	if paid0 == paid1 {
		return "", fmt.Errorf("%w: amount0=%s amount1=%s", ErrInconsistentSwap, amount0, amount1)
	}

	meta0, meta1, err := poolTokens(ctx, env, ev.Address)
	if err != nil {
		return "", err
	}
	if paid0 {
		return fmt.Sprintf("Swap %s for %s on UniswapV3", env.Amount(amount0, meta0), env.Amount(amount1, meta1)), nil
	}
	return fmt.Sprintf("Swap %s for %s on UniswapV3", env.Amount(amount1, meta1), env.Amount(amount0, meta0)), nil
}

func v3Flash(ctx context.Context, env narrate.Env, ev narrate.Event) (string, error) {
	amounts, err := ints(ev.Params, "amount0", "amount1", "paid0", "paid1")
	if err != nil {
		return "", err
	}
	meta0, meta1, err := poolTokens(ctx, env, ev.Address)
	if err != nil {
		return "", err
	}

	leg := func(amount *big.Int, i int) string {
		if amount.Sign() == 0 {
			return ""
		}
		if i == 0 {
			return env.Amount(amount, meta0)
		}
		return env.Amount(amount, meta1)
	}
	borrowed := display.JoinLegs(leg(amounts[0], 0), leg(amounts[1], 1))
	repaid := display.JoinLegs(leg(amounts[2], 0), leg(amounts[3], 1))
	return fmt.Sprintf("Flashloan %s then repay %s", borrowed, repaid), nil
}

func v3PoolCollect(ctx context.Context, env narrate.Env, ev narrate.Event) (string, error) {
	amounts, err := ints(ev.Params, "amount0", "amount1")
	if err != nil {
		return "", err
	}
	meta0, meta1, err := poolTokens(ctx, env, ev.Address)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Collect %s and %s fees from %s",
		env.Amount(amounts[0], meta0), env.Amount(amounts[1], meta1), env.Describe(ev.Address)), nil
}

// v3Liquidity describes position manager liquidity changes. The position
// token pair is read by tokenId from the emitting manager.
func v3Liquidity(verb, prep string) narrate.Interpreter {
	return func(ctx context.Context, env narrate.Env, ev narrate.Event) (string, error) {
		amounts, err := ints(ev.Params, "tokenId", "amount0", "amount1")
		if err != nil {
			return "", err
		}
		meta0, meta1, err := positionTokens(ctx, env, ev.Address, amounts[0])
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s %s and %s liquidity %s %s",
			verb, env.Amount(amounts[1], meta0), env.Amount(amounts[2], meta1), prep, env.Describe(ev.Address)), nil
	}
}

func v3PositionCollect(ctx context.Context, env narrate.Env, ev narrate.Event) (string, error) {
	amounts, err := ints(ev.Params, "tokenId", "amount0", "amount1")
	if err != nil {
		return "", err
	}
	meta0, meta1, err := positionTokens(ctx, env, ev.Address, amounts[0])
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Collect %s fees from position #%s",
		display.JoinLegs(env.Amount(amounts[1], meta0), env.Amount(amounts[2], meta1)), amounts[0]), nil
}
