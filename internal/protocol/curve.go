package protocol

import (
	"context"
	"fmt"

	"txnarrator/internal/narrate"
)

const (
	// Router form, tokens named in the event.
	curveRouterExchangeABI = `{"anonymous":false,"inputs":[
		{"indexed":true,"name":"buyer","type":"address"},
		{"indexed":true,"name":"receiver","type":"address"},
		{"indexed":true,"name":"pool","type":"address"},
		{"indexed":false,"name":"token_sold","type":"address"},
		{"indexed":false,"name":"token_bought","type":"address"},
		{"indexed":false,"name":"amount_sold","type":"uint256"},
		{"indexed":false,"name":"amount_bought","type":"uint256"}],"name":"TokenExchange","type":"event"}`

	// Pool form, tokens given as coin indexes of the emitting pool.
	curvePoolExchangeABI = `{"anonymous":false,"inputs":[
		{"indexed":true,"name":"buyer","type":"address"},
		{"indexed":false,"name":"sold_id","type":"int128"},
		{"indexed":false,"name":"tokens_sold","type":"uint256"},
		{"indexed":false,"name":"bought_id","type":"int128"},
		{"indexed":false,"name":"tokens_bought","type":"uint256"}],"name":"TokenExchange","type":"event"}`
)

// Curve covers stable-swap pools and the exchange router.
func Curve() narrate.Protocol {
	return narrate.Protocol{
		Name: "curve",
		Handlers: []narrate.Handler{
			{ABI: curveRouterExchangeABI, Interpret: curveRouterExchange},
			{ABI: curvePoolExchangeABI, Interpret: curvePoolExchange},
		},
	}
}

func curveRouterExchange(ctx context.Context, env narrate.Env, ev narrate.Event) (string, error) {
	sold, err := ev.Params.Address("token_sold")
	if err != nil {
		return "", err
	}
	bought, err := ev.Params.Address("token_bought")
	if err != nil {
		return "", err
	}
	amounts, err := ints(ev.Params, "amount_sold", "amount_bought")
	if err != nil {
		return "", err
	}
	return trade(ctx, env, "Exchange", "Curve", sold, bought, amounts[0], amounts[1])
}

func curvePoolExchange(ctx context.Context, env narrate.Env, ev narrate.Event) (string, error) {
	values, err := ints(ev.Params, "sold_id", "tokens_sold", "bought_id", "tokens_bought")
	if err != nil {
		return "", err
	}
	res, err := env.Resolver()
	if err != nil {
		return "", err
	}
	coins, err := res.Coins(ctx, ev.Address, values[0], values[2])
	if err != nil {
		return "", err
	}
	if len(coins) != 2 {
		return "", fmt.Errorf("expected 2 coins, got %d", len(coins))
	}
	return trade(ctx, env, "Exchange", "Curve", coins[0], coins[1], values[1], values[3])
}
