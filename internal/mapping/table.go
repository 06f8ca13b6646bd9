package mapping

import "sort"

// Table maps logical command tokens to concrete animation identifiers
// for one domain (locomotion, expression or gaze). Tables are built once
// at startup and read-only afterwards.
type Table struct {
	name    string
	entries map[string]string
}

// New builds a table from the given entries. The source map is copied so
// later mutation of it cannot leak into the table.
func New(name string, entries map[string]string) *Table {
	copied := make(map[string]string, len(entries))
	for token, qualified := range entries {
		copied[token] = qualified
	}
	return &Table{name: name, entries: copied}
}

// Name returns the domain name of the table.
func (t *Table) Name() string {
	return t.name
}

// Lookup returns the qualified animation name for a token. The boolean
// reports whether the token is present; an empty qualified name is a
// valid entry (the reset sentinel).
func (t *Table) Lookup(token string) (string, bool) {
	qualified, ok := t.entries[token]
	return qualified, ok
}

// Len returns the number of entries.
func (t *Table) Len() int {
	return len(t.entries)
}

// Tokens returns the sorted logical tokens of the table.
func (t *Table) Tokens() []string {
	tokens := make([]string, 0, len(t.entries))
	for token := range t.entries {
		tokens = append(tokens, token)
	}
	sort.Strings(tokens)
	return tokens
}
