package model

import (
	"encoding/json"
)

// RawLog is one undecoded event log as emitted by a contract.
type RawLog struct {
	ChainID     uint64   `json:"chain_id,omitempty"`
	BlockNumber uint64   `json:"block_number,omitempty"`
	BlockHash   string   `json:"block_hash,omitempty"`
	TxHash      string   `json:"tx_hash,omitempty"`
	TxIndex     uint64   `json:"tx_index,omitempty"`
	LogIndex    uint64   `json:"log_index"`
	Address     string   `json:"address"`
	Topics      []string `json:"topics"`
	Data        string   `json:"data"`
	Removed     bool     `json:"removed,omitempty"`
}

// Topic0 returns the selector topic or "" when the log has none.
func (l RawLog) Topic0() string {
	if len(l.Topics) == 0 {
		return ""
	}
	return l.Topics[0]
}

// UnmarshalJSON also accepts the camelCase keys used by JSON-RPC log objects.
func (l *RawLog) UnmarshalJSON(data []byte) error {
	type Alias RawLog
	var a struct {
		Alias
		RPCTxHash   string `json:"transactionHash"`
		RPCLogIndex string `json:"logIndex"`
	}
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*l = RawLog(a.Alias)
	if l.TxHash == "" {
		l.TxHash = a.RPCTxHash
	}
	if l.LogIndex == 0 && a.RPCLogIndex != "" {
		idx, err := parseQuantity(a.RPCLogIndex)
		if err != nil {
			return err
		}
		l.LogIndex = idx
	}
	return nil
}
