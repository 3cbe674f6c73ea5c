package narrate

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"

	"txnarrator/internal/signature"
)

func TestDescribeInput(t *testing.T) {
	sigs := signature.NewTable(signature.Entry{Selector: "0xa9059cbb", Text: "transfer(address,uint256)"})
	calldata := "0xa9059cbb000000000000000000000000a0b86991c6218b36c1d19d4a2e9eb0ce3606eb480000000000000000000000000000000000000000000000000000000000000001"

	assert.Equal(t, "", DescribeInput("0x", sigs))
	assert.Equal(t, "", DescribeInput("", sigs))
	assert.Equal(t, "Message: gm frens", DescribeInput("0x"+hex.EncodeToString([]byte("GM frens")), sigs))
	assert.Equal(t, "Call Method: transfer(address,uint256)", DescribeInput(calldata, sigs))
	assert.Equal(t, "Call Method: 0x095ea7b3", DescribeInput("0x095ea7b3"+calldata[10:], sigs))
	assert.Equal(t, "Call Method: 0x095ea7b3", DescribeInput("0x095ea7b3"+calldata[10:], nil))
}
