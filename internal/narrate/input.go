package narrate

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"txnarrator/internal/signature"
)

// DescribeInput summarizes transaction calldata: empty for plain transfers,
// the text of a UTF-8 message, or the called method by 4-byte selector.
func DescribeInput(input string, sigs *signature.Table) string {
	input = strings.TrimSpace(input)
	if input == "" || input == "0x" {
		return ""
	}
	if !strings.HasPrefix(input, "0x") {
		input = "0x" + input
	}
	if data, err := hexutil.Decode(input); err == nil && isText(data) {
		return "Message: " + strings.ToLower(string(data))
	}
	if len(input) < 10 {
		return "Call Method: " + strings.ToLower(input)
	}
	selector := strings.ToLower(input[:10])
	if entry, ok := sigs.Lookup(selector); ok && entry.Text != "" {
		return "Call Method: " + entry.Text
	}
	return "Call Method: " + selector
}

func isText(data []byte) bool {
	if len(data) == 0 || !utf8.Valid(data) {
		return false
	}
	for _, r := range string(data) {
		if !unicode.IsPrint(r) && !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}
