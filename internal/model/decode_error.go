package model

// DecodeError records a log that could not be described.
type DecodeError struct {
	BlockNumber uint64 `json:"block_number,omitempty"`
	TxHash      string `json:"tx_hash,omitempty"`
	LogIndex    uint64 `json:"log_index"`
	Address     string `json:"address"`
	Topic0      string `json:"topic0"`
	Status      string `json:"status"`
	Error       string `json:"error"`
}
