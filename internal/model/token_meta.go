package model

import "github.com/ethereum/go-ethereum/common"

// TokenMeta captures the ERC20 metadata needed to render amounts.
type TokenMeta struct {
	Address  common.Address `json:"address"`
	Decimals uint8          `json:"decimals"`
	Symbol   string         `json:"symbol"`
}

// Label returns the symbol, or the hex address when the token has none.
func (m TokenMeta) Label() string {
	if m.Symbol != "" {
		return m.Symbol
	}
	return m.Address.Hex()
}
