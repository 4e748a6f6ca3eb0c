// Package strtab implements the append-only string table that resolves
// protocol string ids to interned names.
package strtab

import (
	"fmt"

	"github.com/mesh-intelligence/daqd/pkg/types"
)

// Table maps sequential uids to text. The zero value is an empty table.
// A Table is owned by one session and is not safe for concurrent use.
type Table struct {
	entries []string
}

// New returns an empty table.
func New() *Table {
	return &Table{}
}

// Intern appends text at uid. uid must equal the current length; any
// other value returns ErrOutOfSequenceID and leaves the table unchanged.
func (t *Table) Intern(uid uint32, text string) error {
	if uint64(uid) != uint64(len(t.entries)) {
		return fmt.Errorf("string uid %d, expected %d: %w", uid, len(t.entries), types.ErrOutOfSequenceID)
	}
	t.entries = append(t.entries, text)
	return nil
}

// Resolve returns the text interned at uid.
func (t *Table) Resolve(uid uint32) (string, error) {
	if uint64(uid) >= uint64(len(t.entries)) {
		return "", fmt.Errorf("string uid %d: %w", uid, types.ErrUnknownID)
	}
	return t.entries[uid], nil
}

// Len returns the number of interned strings.
func (t *Table) Len() int {
	return len(t.entries)
}
