package model

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestRawLogJSONRoundTrip(t *testing.T) {
	original := RawLog{
		ChainID:     1,
		BlockNumber: 17000000,
		BlockHash:   "0xabc123",
		TxHash:      "0xdef456",
		TxIndex:     7,
		LogIndex:    12,
		Address:     "0x1111111111111111111111111111111111111111",
		Topics:      []string{"0xaaa", "0xbbb"},
		Data:        "0xdeadbeef",
	}

	b, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var decoded RawLog
	if err := json.Unmarshal(b, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	if !reflect.DeepEqual(original, decoded) {
		t.Fatalf("round-trip mismatch: %+v != %+v", original, decoded)
	}
}

func TestRawLogAcceptsRPCShape(t *testing.T) {
	raw := `{"address":"0x01","topics":["0xaa"],"data":"0x","transactionHash":"0xfeed","logIndex":"0x1f"}`

	var decoded RawLog
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if decoded.TxHash != "0xfeed" {
		t.Fatalf("tx hash = %q", decoded.TxHash)
	}
	if decoded.LogIndex != 31 {
		t.Fatalf("log index = %d", decoded.LogIndex)
	}
	if decoded.Topic0() != "0xaa" {
		t.Fatalf("topic0 = %q", decoded.Topic0())
	}
}
