package narrate

import (
	"context"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"txnarrator/internal/abidecode"
	"txnarrator/internal/display"
	"txnarrator/internal/labels"
	"txnarrator/internal/model"
	"txnarrator/internal/resolver"
)

// ErrNoResolver is returned by interpreters that need chain data when the
// environment has no resolver.
var ErrNoResolver = errors.New("no chain data resolver configured")

// Event is the decoded view of one log handed to an interpreter.
type Event struct {
	Address   common.Address
	Signature string
	Params    *abidecode.Params
}

// Env carries the capabilities interpreters may use.
type Env struct {
	Tokens resolver.TokenMetadataResolver
	Labels *labels.Book
}

// Resolver returns the chain data resolver or ErrNoResolver.
func (e Env) Resolver() (resolver.TokenMetadataResolver, error) {
	if e.Tokens == nil {
		return nil, ErrNoResolver
	}
	return e.Tokens, nil
}

// Describe renders an address through the label book.
func (e Env) Describe(addr common.Address) string {
	return e.Labels.Describe(addr)
}

// TokenName prefers a labelled name, then the token symbol, then the
// truncated address.
func (e Env) TokenName(meta model.TokenMeta) string {
	if _, ok := e.Labels.Lookup(meta.Address); ok {
		return e.Labels.Describe(meta.Address)
	}
	if meta.Symbol != "" {
		return meta.Symbol
	}
	return labels.Truncate(meta.Address)
}

// Amount renders "amount token" with the amount scaled by the token decimals.
func (e Env) Amount(raw *big.Int, meta model.TokenMeta) string {
	return display.Leg(display.Amount(raw, meta.Decimals), e.TokenName(meta))
}

// Interpreter turns one decoded event into a sentence. An empty sentence
// marks an event that is recognized but deliberately left undescribed.
type Interpreter func(ctx context.Context, env Env, ev Event) (string, error)

// Handler pairs an event ABI fragment with its interpreter.
type Handler struct {
	ABI       string
	Interpret Interpreter
}

// Protocol is the static handler table of one protocol.
type Protocol struct {
	Name     string
	Handlers []Handler
}
