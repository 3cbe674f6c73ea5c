package protocol

import (
	"context"

	"txnarrator/internal/narrate"
)

const (
	bancorTokensTradedABI = `{"anonymous":false,"inputs":[
		{"indexed":true,"name":"contextId","type":"bytes32"},
		{"indexed":true,"name":"sourceToken","type":"address"},
		{"indexed":true,"name":"targetToken","type":"address"},
		{"indexed":false,"name":"sourceAmount","type":"uint256"},
		{"indexed":false,"name":"targetAmount","type":"uint256"},
		{"indexed":false,"name":"bntAmount","type":"uint256"},
		{"indexed":false,"name":"targetFeeAmount","type":"uint256"},
		{"indexed":false,"name":"bntFeeAmount","type":"uint256"},
		{"indexed":false,"name":"trader","type":"address"}],"name":"TokensTraded","type":"event"}`

	bancorFundsWithdrawnABI = `{"anonymous":false,"inputs":[
		{"indexed":true,"name":"token","type":"address"},
		{"indexed":true,"name":"caller","type":"address"},
		{"indexed":true,"name":"target","type":"address"},
		{"indexed":false,"name":"amount","type":"uint256"}],"name":"FundsWithdrawn","type":"event"}`
)

// BancorV3 covers the network and its master vault.
func BancorV3() narrate.Protocol {
	return narrate.Protocol{
		Name: "bancor_v3",
		Handlers: []narrate.Handler{
			{ABI: bancorTokensTradedABI, Interpret: bancorTokensTraded},
			{ABI: bancorFundsWithdrawnABI, Interpret: singleAsset("Withdraw", "token", "from")},
		},
	}
}

func bancorTokensTraded(ctx context.Context, env narrate.Env, ev narrate.Event) (string, error) {
	source, err := ev.Params.Address("sourceToken")
	if err != nil {
		return "", err
	}
	target, err := ev.Params.Address("targetToken")
	if err != nil {
		return "", err
	}
	amounts, err := ints(ev.Params, "sourceAmount", "targetAmount")
	if err != nil {
		return "", err
	}
	return trade(ctx, env, "Trade", "Bancor", source, target, amounts[0], amounts[1])
}
