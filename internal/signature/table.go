package signature

import (
	"fmt"
	"strings"

	"txnarrator/internal/abidecode"
)

// Entry binds a selector hash to its ABI fragment and text signature.
// Function rows loaded without an ABI carry only the text signature. A row
// whose fragment does not parse keeps RawABI and the parse error in Err.
type Entry struct {
	Selector string
	ABI      abidecode.EventABI
	RawABI   string
	Text     string
	Err      error
}

// Table is an immutable selector lookup. Event selectors are 32-byte hashes
// and function selectors are 4 bytes; both share one key space.
type Table struct {
	entries map[string]Entry
}

// NewTable builds a table. When two entries share a selector the later one
// is kept.
func NewTable(entries ...Entry) *Table {
	t := &Table{entries: make(map[string]Entry, len(entries))}
	for _, e := range entries {
		t.entries[normalize(e.Selector)] = e
	}
	return t
}

// Lookup returns the entry for a selector. Case and a missing 0x prefix are
// ignored.
func (t *Table) Lookup(selector string) (Entry, bool) {
	if t == nil {
		return Entry{}, false
	}
	e, ok := t.entries[normalize(selector)]
	return e, ok
}

// Len returns the number of selectors in the table.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}

// EntryFromABI builds an entry from a JSON fragment, computing the selector
// and text signature.
func EntryFromABI(raw string) (Entry, error) {
	ev, err := abidecode.ParseEvent(raw)
	if err != nil {
		return Entry{}, err
	}
	return EntryFromFragment(ev)
}

// EntryFromFragment builds an entry from an already parsed fragment.
func EntryFromFragment(ev abidecode.EventABI) (Entry, error) {
	selector, err := ev.Selector()
	if err != nil {
		return Entry{}, err
	}
	text, err := ev.Signature()
	if err != nil {
		return Entry{}, err
	}
	return Entry{Selector: selector, ABI: ev, Text: text}, nil
}

// EntryFromRow builds an entry from a stored (byte_sign, abi, text_sign) row.
// Only an empty selector is an error; a bad fragment is kept on the entry so
// it fails the logs that use it and no others.
func EntryFromRow(byteSign, rawABI, textSign string) (Entry, error) {
	if strings.TrimSpace(byteSign) == "" {
		return Entry{}, fmt.Errorf("empty selector")
	}
	e := Entry{Selector: normalize(byteSign), RawABI: rawABI, Text: strings.TrimSpace(textSign)}
	if strings.TrimSpace(rawABI) == "" {
		return e, nil
	}
	ev, err := abidecode.ParseEvent(rawABI)
	if err != nil {
		e.Err = fmt.Errorf("selector %s: %w", e.Selector, err)
		return e, nil
	}
	e.ABI = ev
	if e.Text == "" {
		if e.Text, err = ev.Signature(); err != nil {
			e.Err = fmt.Errorf("selector %s: %w", e.Selector, err)
		}
	}
	return e, nil
}

// Invalid returns the entries whose ABI fragment failed to parse.
func Invalid(entries []Entry) []Entry {
	var out []Entry
	for _, e := range entries {
		if e.Err != nil {
			out = append(out, e)
		}
	}
	return out
}

func normalize(selector string) string {
	s := strings.ToLower(strings.TrimSpace(selector))
	if !strings.HasPrefix(s, "0x") {
		s = "0x" + s
	}
	return s
}
