package abidecode

import (
	"encoding/hex"
	"math/big"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Kind tags the variant held by a Value.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindUint
	KindInt
	KindAddress
	KindBytes
	KindBool
	KindString
	// KindTuple covers tuples and both fixed and dynamic arrays.
	KindTuple
)

func (k Kind) String() string {
	switch k {
	case KindUint:
		return "uint"
	case KindInt:
		return "int"
	case KindAddress:
		return "address"
	case KindBytes:
		return "bytes"
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	case KindTuple:
		return "tuple"
	default:
		return "invalid"
	}
}

// Value is one decoded ABI value. Integers keep full 256-bit precision and
// byte strings are kept as lowercase hex without a 0x prefix.
type Value struct {
	Kind  Kind
	num   *big.Int
	addr  common.Address
	text  string
	flag  bool
	elems []Value
}

func UintValue(v *big.Int) Value {
	return Value{Kind: KindUint, num: new(big.Int).Set(v)}
}

func IntValue(v *big.Int) Value {
	return Value{Kind: KindInt, num: new(big.Int).Set(v)}
}

func AddressValue(a common.Address) Value {
	return Value{Kind: KindAddress, addr: a}
}

func BytesValue(b []byte) Value {
	return Value{Kind: KindBytes, text: hex.EncodeToString(b)}
}

func BoolValue(b bool) Value {
	return Value{Kind: KindBool, flag: b}
}

func StringValue(s string) Value {
	return Value{Kind: KindString, text: s}
}

func TupleValue(elems []Value) Value {
	return Value{Kind: KindTuple, elems: elems}
}

// BigInt returns a copy of the integer held by v.
func (v Value) BigInt() (*big.Int, bool) {
	if v.Kind != KindUint && v.Kind != KindInt {
		return nil, false
	}
	return new(big.Int).Set(v.num), true
}

// Address returns the address held by v.
func (v Value) Address() (common.Address, bool) {
	if v.Kind != KindAddress {
		return common.Address{}, false
	}
	return v.addr, true
}

// Hex returns the lowercase hex body of a bytes value.
func (v Value) Hex() (string, bool) {
	if v.Kind != KindBytes {
		return "", false
	}
	return v.text, true
}

// Bool returns the boolean held by v.
func (v Value) Bool() (bool, bool) {
	if v.Kind != KindBool {
		return false, false
	}
	return v.flag, true
}

// Text returns the string held by v.
func (v Value) Text() (string, bool) {
	if v.Kind != KindString {
		return "", false
	}
	return v.text, true
}

// Elems returns the members of a tuple or array value.
func (v Value) Elems() ([]Value, bool) {
	if v.Kind != KindTuple {
		return nil, false
	}
	return v.elems, true
}

// String renders v for logs and diagnostics.
func (v Value) String() string {
	switch v.Kind {
	case KindUint, KindInt:
		return v.num.String()
	case KindAddress:
		return strings.ToLower(v.addr.Hex())
	case KindBytes, KindString:
		return v.text
	case KindBool:
		return strconv.FormatBool(v.flag)
	case KindTuple:
		parts := make([]string, len(v.elems))
		for i, e := range v.elems {
			parts[i] = e.String()
		}
		return "(" + strings.Join(parts, ", ") + ")"
	default:
		return ""
	}
}

// Equal reports deep equality of two values.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindUint, KindInt:
		return v.num.Cmp(o.num) == 0
	case KindAddress:
		return v.addr == o.addr
	case KindBytes, KindString:
		return v.text == o.text
	case KindBool:
		return v.flag == o.flag
	case KindTuple:
		if len(v.elems) != len(o.elems) {
			return false
		}
		for i := range v.elems {
			if !v.elems[i].Equal(o.elems[i]) {
				return false
			}
		}
		return true
	default:
		return true
	}
}
