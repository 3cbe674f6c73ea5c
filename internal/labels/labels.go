package labels

import (
	"fmt"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v3"
)

// Entry is the known identity of an address.
type Entry struct {
	Name   string   `yaml:"name" json:"name"`
	Labels []string `yaml:"labels" json:"labels"`
}

// Book maps addresses to entries. A nil or empty Book describes every
// address in truncated form.
type Book struct {
	entries map[common.Address]Entry
}

// New builds a Book from hex address keys. Invalid keys are skipped.
func New(raw map[string]Entry) *Book {
	b := &Book{entries: make(map[common.Address]Entry, len(raw))}
	for key, entry := range raw {
		key = strings.TrimSpace(key)
		if !common.IsHexAddress(key) {
			continue
		}
		b.entries[common.HexToAddress(key)] = entry
	}
	return b
}

// Parse reads a YAML or JSON object keyed by address.
func Parse(data []byte) (*Book, error) {
	raw := map[string]Entry{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse labels: %w", err)
	}
	return New(raw), nil
}

// Load reads a label file.
func Load(path string) (*Book, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read labels %s: %w", path, err)
	}
	return Parse(data)
}

// Len returns the number of labelled addresses.
func (b *Book) Len() int {
	if b == nil {
		return 0
	}
	return len(b.entries)
}

// Lookup returns the entry for addr.
func (b *Book) Lookup(addr common.Address) (Entry, bool) {
	if b == nil {
		return Entry{}, false
	}
	e, ok := b.entries[addr]
	return e, ok
}

// Describe renders a known address as "name [label: a,b]" and an unknown
// one as 0x1234...abcd.
func (b *Book) Describe(addr common.Address) string {
	e, ok := b.Lookup(addr)
	if !ok {
		return Truncate(addr)
	}
	return fmt.Sprintf("%s [label: %s]", e.Name, strings.Join(e.Labels, ","))
}

// DescribeVerbose keeps the truncated address next to the name.
func (b *Book) DescribeVerbose(addr common.Address) string {
	e, ok := b.Lookup(addr)
	if !ok {
		return Truncate(addr)
	}
	return fmt.Sprintf("%s (%s) [label: %s]", Truncate(addr), e.Name, strings.Join(e.Labels, ","))
}

// Truncate shortens an address to its first and last four hex digits.
func Truncate(addr common.Address) string {
	s := strings.ToLower(addr.Hex())
	return s[:6] + "..." + s[len(s)-4:]
}
