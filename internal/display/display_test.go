package display

import (
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAmount(t *testing.T) {
	raw, _ := new(big.Int).SetString("3112580648476110912111228416768", 10)
	cases := []struct {
		raw      *big.Int
		decimals uint8
		want     string
	}{
		{big.NewInt(1500000), 6, "1.5"},
		{big.NewInt(-2500000000), 6, "2500"},
		{big.NewInt(0), 18, "0"},
		{big.NewInt(1), 18, "0.000000000000000001"},
		{raw, 18, "3112580648476.110912111228416768"},
		{nil, 6, "0"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Amount(tc.raw, tc.decimals))
	}
}

func TestFeePercent(t *testing.T) {
	assert.Equal(t, "0.3", FeePercent(big.NewInt(3000)))
	assert.Equal(t, "0.05", FeePercent(big.NewInt(500)))
	assert.Equal(t, "1", FeePercent(big.NewInt(10000)))
}

func TestJoinLegs(t *testing.T) {
	assert.Equal(t, "1 USDC and 2 WETH", JoinLegs("1 USDC", "", "2 WETH"))
	assert.Equal(t, "", JoinLegs("", ""))
	assert.Equal(t, "1 USDC", JoinLegs(Leg("1", "USDC")))
}

func TestTimestampAndStatus(t *testing.T) {
	ts := time.Date(2023, time.March, 5, 14, 7, 9, 0, time.UTC)
	assert.Equal(t, "Mar-05-2023 02:07:09 PM +UTC", Timestamp(ts))
	assert.Equal(t, "Success", Status(1))
	assert.Equal(t, "Fail", Status(0))
	assert.Equal(t, "1.5", Ether(big.NewInt(1500000000000000000)))
}
