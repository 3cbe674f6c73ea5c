package display

import (
	"math/big"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Amount scales a raw integer amount by 10^decimals and drops the sign.
// Trailing zeros are trimmed, so 1500000 with 6 decimals renders "1.5".
func Amount(raw *big.Int, decimals uint8) string {
	if raw == nil {
		return "0"
	}
	return decimal.NewFromBigInt(new(big.Int).Abs(raw), -int32(decimals)).String()
}

// FeePercent renders a pool fee given in hundredths of a basis point as a
// percentage, so 3000 renders "0.3".
func FeePercent(fee *big.Int) string {
	if fee == nil {
		return "0"
	}
	return decimal.NewFromBigInt(fee, -4).String()
}

// Ether renders a wei amount in ether.
func Ether(wei *big.Int) string {
	if wei == nil {
		return "0"
	}
	return decimal.NewFromBigInt(wei, -18).String()
}

// Leg renders "amount token".
func Leg(amount, token string) string {
	return amount + " " + token
}

// JoinLegs joins non-empty legs with " and ".
func JoinLegs(legs ...string) string {
	kept := legs[:0:0]
	for _, leg := range legs {
		if leg != "" {
			kept = append(kept, leg)
		}
	}
	return strings.Join(kept, " and ")
}

// Timestamp renders t as "Jan-02-2006 03:04:05 PM +UTC".
func Timestamp(t time.Time) string {
	return t.UTC().Format("Jan-02-2006 03:04:05 PM") + " +UTC"
}

// Status renders a receipt status.
func Status(status uint64) string {
	if status == 1 {
		return "Success"
	}
	return "Fail"
}
