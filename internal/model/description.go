package model

// Description is the rendered sentence for one log.
type Description struct {
	BlockNumber uint64 `json:"block_number,omitempty"`
	TxHash      string `json:"tx_hash,omitempty"`
	LogIndex    uint64 `json:"log_index"`
	Address     string `json:"address"`
	Signature   string `json:"signature,omitempty"`
	Status      string `json:"status"`
	Text        string `json:"text"`
}
