package model

import (
	"errors"
	"math/big"
	"time"
)

// ErrTxNotFound is returned by transaction sources for unknown hashes.
var ErrTxNotFound = errors.New("transaction not found")

// Tx is a mined transaction together with its logs in emission order.
type Tx struct {
	Hash        string
	BlockNumber uint64
	Timestamp   time.Time
	From        string
	To          string
	Gas         uint64
	Value       *big.Int
	Status      uint64
	Input       string
	Logs        []RawLog
}
