package abidecode

import (
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap/zapcore"
)

// PositionalPrefix prefixes the synthetic keys that address parameters by
// position, e.g. __idx_0.
const PositionalPrefix = "__idx_"

var (
	ErrMissingParam = errors.New("missing parameter")
	ErrParamType    = errors.New("unexpected parameter type")
)

// Params holds decoded parameters by name and by position. Positions follow
// indexed-first order and alias the named entries.
type Params struct {
	names      []string
	byName     map[string]Value
	positional []Value
}

// NewParams returns an empty parameter set.
func NewParams() *Params {
	return &Params{byName: map[string]Value{}}
}

// add appends a positional value and, when named, binds the name to it.
// A repeated name rebinds to the later input.
func (p *Params) add(name string, v Value) {
	p.positional = append(p.positional, v)
	if name == "" {
		return
	}
	if _, seen := p.byName[name]; !seen {
		p.names = append(p.names, name)
	}
	p.byName[name] = v
}

// Len returns the number of positional parameters.
func (p *Params) Len() int {
	if p == nil {
		return 0
	}
	return len(p.positional)
}

// Names returns declared parameter names in decode order.
func (p *Params) Names() []string {
	if p == nil {
		return nil
	}
	out := make([]string, len(p.names))
	copy(out, p.names)
	return out
}

// At returns the i-th positional value.
func (p *Params) At(i int) (Value, bool) {
	if p == nil || i < 0 || i >= len(p.positional) {
		return Value{}, false
	}
	return p.positional[i], true
}

// Get resolves key as a declared name or as a positional __idx_<i> key.
func (p *Params) Get(key string) (Value, bool) {
	if p == nil {
		return Value{}, false
	}
	if v, ok := p.byName[key]; ok {
		return v, true
	}
	if rest, ok := strings.CutPrefix(key, PositionalPrefix); ok {
		i, err := strconv.Atoi(rest)
		if err != nil {
			return Value{}, false
		}
		return p.At(i)
	}
	return Value{}, false
}

// BigInt returns the integer parameter at key.
func (p *Params) BigInt(key string) (*big.Int, error) {
	v, ok := p.Get(key)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingParam, key)
	}
	n, ok := v.BigInt()
	if !ok {
		return nil, fmt.Errorf("%w: %s is %s", ErrParamType, key, v.Kind)
	}
	return n, nil
}

// Address returns the address parameter at key.
func (p *Params) Address(key string) (common.Address, error) {
	v, ok := p.Get(key)
	if !ok {
		return common.Address{}, fmt.Errorf("%w: %s", ErrMissingParam, key)
	}
	a, ok := v.Address()
	if !ok {
		return common.Address{}, fmt.Errorf("%w: %s is %s", ErrParamType, key, v.Kind)
	}
	return a, nil
}

// MarshalLogObject implements zapcore.ObjectMarshaler.
func (p *Params) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	if p == nil {
		return nil
	}
	for _, name := range p.names {
		enc.AddString(name, p.byName[name].String())
	}
	for i, v := range p.positional {
		enc.AddString(PositionalPrefix+strconv.Itoa(i), v.String())
	}
	return nil
}
