package abidecode

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/crypto"
)

var (
	// ErrInvalidABI is returned when an ABI fragment cannot be parsed.
	ErrInvalidABI = errors.New("invalid abi fragment")
	// ErrTopicCountMismatch is returned when the number of topics after the
	// selector differs from the number of indexed inputs.
	ErrTopicCountMismatch = errors.New("topic count does not match indexed inputs")
	// ErrMalformedData is returned when the data blob cannot be decoded
	// against the non-indexed inputs.
	ErrMalformedData = errors.New("malformed log data")
)

// Input is one declared input of an ABI fragment.
type Input struct {
	Name         string  `json:"name"`
	Type         string  `json:"type"`
	InternalType string  `json:"internalType,omitempty"`
	Indexed      bool    `json:"indexed,omitempty"`
	Components   []Input `json:"components,omitempty"`
}

// EventABI is a single JSON ABI fragment. Functions share the shape so the
// same table can hold call selectors.
type EventABI struct {
	Type      string  `json:"type"`
	Name      string  `json:"name"`
	Anonymous bool    `json:"anonymous,omitempty"`
	Inputs    []Input `json:"inputs"`
}

// ParseEvent parses one JSON ABI fragment.
func ParseEvent(raw string) (EventABI, error) {
	var ev EventABI
	if err := json.Unmarshal([]byte(raw), &ev); err != nil {
		return EventABI{}, fmt.Errorf("%w: %v", ErrInvalidABI, err)
	}
	return ev, nil
}

// MustParseEvent is ParseEvent for package-level fragments.
func MustParseEvent(raw string) EventABI {
	ev, err := ParseEvent(raw)
	if err != nil {
		panic(err)
	}
	return ev
}

// IsEvent reports whether the fragment describes a named event.
func (e EventABI) IsEvent() bool {
	return e.Type == "event" && e.Name != ""
}

// Signature returns the canonical text signature, e.g. Swap(address,uint256).
func (e EventABI) Signature() (string, error) {
	if e.Name == "" {
		return "", fmt.Errorf("%w: missing name", ErrInvalidABI)
	}
	types, err := e.argumentTypes()
	if err != nil {
		return "", err
	}
	parts := make([]string, len(types))
	for i, t := range types {
		parts[i] = t.String()
	}
	return e.Name + "(" + strings.Join(parts, ",") + ")", nil
}

// Selector returns the keccak hash of the canonical signature as 0x-hex.
// Function fragments get the 4-byte form.
func (e EventABI) Selector() (string, error) {
	sig, err := e.Signature()
	if err != nil {
		return "", err
	}
	hash := crypto.Keccak256Hash([]byte(sig))
	if e.Type == "function" {
		return strings.ToLower(fmt.Sprintf("0x%x", hash.Bytes()[:4])), nil
	}
	return strings.ToLower(hash.Hex()), nil
}

func (e EventABI) argumentTypes() ([]abi.Type, error) {
	out := make([]abi.Type, len(e.Inputs))
	for i, in := range e.Inputs {
		t, err := in.abiType()
		if err != nil {
			return nil, fmt.Errorf("%w: input %d of %s: %v", ErrInvalidABI, i, e.Name, err)
		}
		out[i] = t
	}
	return out, nil
}

func (in Input) abiType() (abi.Type, error) {
	return abi.NewType(in.Type, in.InternalType, marshalingComponents(in.Components))
}

// marshalingComponents names anonymous tuple fields so go-ethereum can build
// a struct type for them.
func marshalingComponents(inputs []Input) []abi.ArgumentMarshaling {
	if len(inputs) == 0 {
		return nil
	}
	out := make([]abi.ArgumentMarshaling, len(inputs))
	for i, in := range inputs {
		name := in.Name
		if name == "" {
			name = fmt.Sprintf("field%d", i)
		}
		out[i] = abi.ArgumentMarshaling{
			Name:         name,
			Type:         in.Type,
			InternalType: in.InternalType,
			Components:   marshalingComponents(in.Components),
			Indexed:      in.Indexed,
		}
	}
	return out
}
