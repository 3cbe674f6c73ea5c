package model

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

func parseQuantity(s string) (uint64, error) {
	v, err := hexutil.DecodeUint64(s)
	if err != nil {
		return 0, fmt.Errorf("invalid quantity %q: %w", s, err)
	}
	return v, nil
}
