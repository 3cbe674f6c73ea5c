package storage

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"txnarrator/internal/model"
)

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	return strings.Split(strings.TrimSpace(string(data)), "\n")
}

func TestJsonlStorageAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "descriptions.jsonl")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(`{"log_index":9,"address":"0x","status":"described","text":"old"}`+"\n"), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}

	var sink Storage = NewJsonlStorage(path, Append)
	batch := []model.Description{{TxHash: "0x1", LogIndex: 1, Status: "recognized"}}
	if err := sink.PutDescriptions(context.Background(), batch); err != nil {
		t.Fatalf("put: %v", err)
	}

	lines := readLines(t, path)
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	var got model.Description
	if err := json.Unmarshal([]byte(lines[1]), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.LogIndex != 1 || got.Status != "recognized" || got.Text != "" {
		t.Fatalf("unexpected description: %+v", got)
	}
}

func TestJsonlStorageTruncatesOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "descriptions.jsonl")
	if err := os.WriteFile(path, []byte("stale\n"), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}

	sink := NewJsonlStorage(path, Truncate)
	ctx := context.Background()
	if err := sink.PutDescriptions(ctx, nil); err != nil {
		t.Fatalf("put empty: %v", err)
	}
	if err := sink.PutDescriptions(ctx, []model.Description{{LogIndex: 0, Status: "described", Text: "a"}}); err != nil {
		t.Fatalf("put first: %v", err)
	}
	if err := sink.PutDescriptions(ctx, []model.Description{{LogIndex: 1, Status: "described", Text: "b"}}); err != nil {
		t.Fatalf("put second: %v", err)
	}

	lines := readLines(t, path)
	if len(lines) != 2 || strings.Contains(lines[0], "stale") {
		t.Fatalf("unexpected file contents: %q", lines)
	}
}
