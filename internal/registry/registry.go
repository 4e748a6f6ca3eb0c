// Package registry holds the compiled entry descriptors announced by a
// producer, indexed by their sequential uid.
package registry

import (
	"fmt"

	"github.com/mesh-intelligence/daqd/internal/wire"
	"github.com/mesh-intelligence/daqd/pkg/types"
)

// Entry is a registered descriptor with its compiled table. Entries are
// immutable once registered.
type Entry struct {
	UID        uint32
	Descriptor wire.Descriptor
	Table      types.Table
}

// Registry is an append-only sequence of entries. It is owned by one
// session and is not safe for concurrent use.
type Registry struct {
	entries []*Entry
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{}
}

// Next returns the only uid Register will currently accept.
func (r *Registry) Next() uint32 {
	return uint32(len(r.entries))
}

// Check reports whether uid may be registered next, without registering.
func (r *Registry) Check(uid uint32) error {
	if uint64(uid) != uint64(len(r.entries)) {
		return fmt.Errorf("descriptor uid %d, expected %d: %w", uid, len(r.entries), types.ErrOutOfSequenceID)
	}
	return nil
}

// Register compiles d against names and appends it at uid. uid must equal
// the current length. On any error the registry is left unchanged.
func (r *Registry) Register(uid uint32, d wire.Descriptor, names wire.Resolver) (*Entry, error) {
	if err := r.Check(uid); err != nil {
		return nil, err
	}
	tbl, err := wire.Compile(d, names)
	if err != nil {
		return nil, fmt.Errorf("descriptor %d: %w", uid, err)
	}

	fields := make([]wire.FieldDescriptor, len(d.Fields))
	copy(fields, d.Fields)
	cols := make([]types.Column, len(tbl.Columns))
	copy(cols, tbl.Columns)
	tbl.Columns = cols

	e := &Entry{
		UID:        uid,
		Descriptor: wire.Descriptor{Name: d.Name, Fields: fields},
		Table:      tbl,
	}
	r.entries = append(r.entries, e)
	return e, nil
}

// Get returns the entry registered at uid. Callers must not modify it.
func (r *Registry) Get(uid uint32) (*Entry, error) {
	if uint64(uid) >= uint64(len(r.entries)) {
		return nil, fmt.Errorf("descriptor uid %d: %w", uid, types.ErrUnknownDescriptor)
	}
	return r.entries[uid], nil
}

// Len returns the number of registered descriptors.
func (r *Registry) Len() int {
	return len(r.entries)
}
