package protocol

import (
	"context"
	"fmt"

	"txnarrator/internal/narrate"
)

const (
	compoundSupplyCollateralABI = `{"anonymous":false,"inputs":[
		{"indexed":true,"name":"from","type":"address"},
		{"indexed":true,"name":"dst","type":"address"},
		{"indexed":true,"name":"asset","type":"address"},
		{"indexed":false,"name":"amount","type":"uint256"}],"name":"SupplyCollateral","type":"event"}`

	compoundWithdrawABI = `{"anonymous":false,"inputs":[
		{"indexed":true,"name":"src","type":"address"},
		{"indexed":true,"name":"to","type":"address"},
		{"indexed":false,"name":"amount","type":"uint256"}],"name":"Withdraw","type":"event"}`

	compoundSupplyABI = `{"anonymous":false,"inputs":[
		{"indexed":true,"name":"from","type":"address"},
		{"indexed":true,"name":"dst","type":"address"},
		{"indexed":false,"name":"amount","type":"uint256"}],"name":"Supply","type":"event"}`
)

// CompoundV3 covers single base-asset markets, where the emitting market is
// also the token for base supply and withdraw.
func CompoundV3() narrate.Protocol {
	return narrate.Protocol{
		Name: "compound_v3",
		Handlers: []narrate.Handler{
			{ABI: compoundSupplyCollateralABI, Interpret: compoundSupplyCollateral},
			{ABI: compoundWithdrawABI, Interpret: compoundBase("Withdraw", "to")},
			{ABI: compoundSupplyABI, Interpret: compoundBase("Supply", "to")},
		},
	}
}

func compoundSupplyCollateral(ctx context.Context, env narrate.Env, ev narrate.Event) (string, error) {
	asset, err := ev.Params.Address("asset")
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
	return fmt.Sprintf("Supply %s as collateral to %s", env.Amount(amount, meta), env.Describe(ev.Address)), nil
}

// compoundBase reads counterparty and amount by position: second address
// and the trailing amount.
func compoundBase(verb, prep string) narrate.Interpreter {
	return func(ctx context.Context, env narrate.Env, ev narrate.Event) (string, error) {
		counterparty, err := ev.Params.Address(positional(1))
		if err != nil {
			return "", err
		}
		amount, err := ev.Params.BigInt(positional(2))
		if err != nil {
			return "", err
		}
		meta, err := tokenMeta(ctx, env, ev.Address)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s %s %s %s on Compound", verb, env.Amount(amount, meta), prep, env.Describe(counterparty)), nil
	}
}
