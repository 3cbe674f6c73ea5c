package abidecode

import (
	"fmt"
	"math/big"
	"reflect"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Decode decodes a raw log against an event fragment and returns the
// canonical signature with the decoded parameters. A fragment that is not a
// named event yields an empty signature and empty parameters.
func Decode(event EventABI, topics []string, data string) (string, *Params, error) {
	if !event.IsEvent() {
		return "", NewParams(), nil
	}
	types, err := event.argumentTypes()
	if err != nil {
		return "", nil, err
	}
	sig, err := event.Signature()
	if err != nil {
		return "", nil, err
	}

	var indexed, plain []int
	for i, in := range event.Inputs {
		if in.Indexed {
			indexed = append(indexed, i)
		} else {
			plain = append(plain, i)
		}
	}

	// Anonymous events carry no selector topic.
	offset := 1
	if event.Anonymous {
		offset = 0
	}
	if len(topics)-offset != len(indexed) {
		return "", nil, fmt.Errorf("%w: %s expects %d indexed topics, got %d",
			ErrTopicCountMismatch, sig, len(indexed), len(topics)-offset)
	}
	hashes, err := parseTopicHashes(topics[offset:])
	if err != nil {
		return "", nil, err
	}

	params := NewParams()
	for j, i := range indexed {
		v, err := decodeTopic(types[i], hashes[j])
		if err != nil {
			return "", nil, fmt.Errorf("topic %d of %s: %w", j+1, sig, err)
		}
		params.add(event.Inputs[i].Name, v)
	}

	values, err := unpackData(types, plain, data)
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", sig, err)
	}
	for j, i := range plain {
		params.add(event.Inputs[i].Name, values[j])
	}
	return sig, params, nil
}

// decodeTopic decodes one indexed input. Reference types are stored in
// topics as their keccak hash, so only the hash is recoverable.
func decodeTopic(t abi.Type, topic common.Hash) (Value, error) {
	switch t.T {
	case abi.StringTy, abi.BytesTy, abi.SliceTy, abi.ArrayTy, abi.TupleTy:
		return BytesValue(topic.Bytes()), nil
	}
	out, err := abi.Arguments{{Type: t}}.Unpack(topic.Bytes())
	if err != nil {
		return Value{}, fmt.Errorf("%w: %v", ErrMalformedData, err)
	}
	return toValue(t, reflect.ValueOf(out[0]))
}

func unpackData(types []abi.Type, plain []int, data string) ([]Value, error) {
	if len(plain) == 0 {
		return nil, nil
	}
	raw, err := decodeHex(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedData, err)
	}
	args := make(abi.Arguments, len(plain))
	for j, i := range plain {
		args[j] = abi.Argument{Name: fmt.Sprintf("arg%d", j), Type: types[i]}
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty data for %d inputs", ErrMalformedData, len(plain))
	}
	unpacked, err := args.Unpack(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedData, err)
	}
	out := make([]Value, len(unpacked))
	for j, u := range unpacked {
		v, err := toValue(args[j].Type, reflect.ValueOf(u))
		if err != nil {
			return nil, err
		}
		out[j] = v
	}
	return out, nil
}

// toValue converts a go-ethereum unpacked value into a Value, driven by the
// ABI type rather than the Go type so nested tuples and arrays line up.
func toValue(t abi.Type, rv reflect.Value) (Value, error) {
	for rv.Kind() == reflect.Interface && !rv.IsNil() {
		rv = rv.Elem()
	}
	switch t.T {
	case abi.UintTy:
		n, err := integer(rv)
		if err != nil {
			return Value{}, err
		}
		return UintValue(n), nil
	case abi.IntTy:
		n, err := integer(rv)
		if err != nil {
			return Value{}, err
		}
		return IntValue(n), nil
	case abi.BoolTy:
		return BoolValue(rv.Bool()), nil
	case abi.StringTy:
		return StringValue(rv.String()), nil
	case abi.AddressTy:
		addr, ok := rv.Interface().(common.Address)
		if !ok {
			return Value{}, fmt.Errorf("%w: address as %s", ErrParamType, rv.Type())
		}
		return AddressValue(addr), nil
	case abi.BytesTy:
		return BytesValue(rv.Bytes()), nil
	case abi.FixedBytesTy, abi.FunctionTy, abi.HashTy:
		b := make([]byte, rv.Len())
		for i := range b {
			b[i] = byte(rv.Index(i).Uint())
		}
		return BytesValue(b), nil
	case abi.SliceTy, abi.ArrayTy:
		elems := make([]Value, rv.Len())
		for i := range elems {
			v, err := toValue(*t.Elem, rv.Index(i))
			if err != nil {
				return Value{}, err
			}
			elems[i] = v
		}
		return TupleValue(elems), nil
	case abi.TupleTy:
		elems := make([]Value, len(t.TupleElems))
		for i, et := range t.TupleElems {
			v, err := toValue(*et, rv.Field(i))
			if err != nil {
				return Value{}, err
			}
			elems[i] = v
		}
		return TupleValue(elems), nil
	default:
		return Value{}, fmt.Errorf("%w: abi type %s", ErrParamType, t.String())
	}
}

func integer(rv reflect.Value) (*big.Int, error) {
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return big.NewInt(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return new(big.Int).SetUint64(rv.Uint()), nil
	}
	switch v := rv.Interface().(type) {
	case *big.Int:
		if v == nil {
			return nil, fmt.Errorf("%w: nil integer", ErrParamType)
		}
		return v, nil
	case big.Int:
		return &v, nil
	default:
		return nil, fmt.Errorf("%w: integer as %T", ErrParamType, v)
	}
}

func parseTopicHashes(topics []string) ([]common.Hash, error) {
	out := make([]common.Hash, 0, len(topics))
	for _, topic := range topics {
		data, err := decodeHex(topic)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid topic: %v", ErrMalformedData, err)
		}
		if len(data) > common.HashLength {
			return nil, fmt.Errorf("%w: topic length %d", ErrMalformedData, len(data))
		}
		out = append(out, common.BytesToHash(data))
	}
	return out, nil
}

// decodeHex accepts hex with or without the 0x prefix; "" and "0x" are empty.
func decodeHex(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "0x" || s == "0X" {
		return nil, nil
	}
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		s = "0x" + s
	}
	return hexutil.Decode(s)
}
