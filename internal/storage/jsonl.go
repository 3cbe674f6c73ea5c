package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"txnarrator/internal/model"
)

// Mode selects what happens to an existing output file.
type Mode int

const (
	// Append keeps existing lines.
	Append Mode = iota
	// Truncate empties the file on the first write of the process.
	Truncate
)

// JsonlStorage writes descriptions to a JSONL file, one object per line.
type JsonlStorage struct {
	path string

	mu      sync.Mutex
	written bool
	mode    Mode
}

func NewJsonlStorage(path string, mode Mode) *JsonlStorage {
	return &JsonlStorage{path: path, mode: mode}
}

func (s *JsonlStorage) PutDescriptions(_ context.Context, descriptions []model.Description) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(descriptions) == 0 && (s.written || s.mode == Append) {
		return nil
	}

	file, err := s.open()
	if err != nil {
		return err
	}
	defer file.Close()

	buf := bufio.NewWriter(file)
	enc := json.NewEncoder(buf)
	for i := range descriptions {
		if err := enc.Encode(&descriptions[i]); err != nil {
			return fmt.Errorf("encode description %s/%d: %w", descriptions[i].TxHash, descriptions[i].LogIndex, err)
		}
	}
	if err := buf.Flush(); err != nil {
		return fmt.Errorf("flush %s: %w", s.path, err)
	}
	s.written = true
	return nil
}

func (s *JsonlStorage) open() (*os.File, error) {
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create %s: %w", dir, err)
		}
	}
	flags := os.O_CREATE | os.O_WRONLY | os.O_APPEND
	if s.mode == Truncate && !s.written {
		flags = os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	}
	file, err := os.OpenFile(s.path, flags, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", s.path, err)
	}
	return file, nil
}
