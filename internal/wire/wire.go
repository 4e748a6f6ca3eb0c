package wire

import (
	"fmt"

	"github.com/mesh-intelligence/daqd/pkg/types"
)

// Magic prefixes every frame.
const Magic uint32 = 0xFEEDBEEF

// MsgType is the 1-byte message tag following the magic.
type MsgType uint8

const (
	MsgInvalid    MsgType = 0
	MsgString     MsgType = 1
	MsgEntry      MsgType = 2
	MsgDescriptor MsgType = 3
)

func (m MsgType) String() string {
	switch m {
	case MsgString:
		return "string"
	case MsgEntry:
		return "entry"
	case MsgDescriptor:
		return "descriptor"
	default:
		return "invalid"
	}
}

// Frame geometry.
const (
	HeaderSize           = 5
	StringPrefixSize     = 8
	DescriptorPrefixSize = 9
	FieldSpecSize        = 5
	EntryPrefixSize      = 4
	MaxFields            = 32
	MaxFieldWidth        = 4

	// MaxDescriptorFrame covers the largest field count byte, so that an
	// oversized descriptor can still be buffered whole and skipped.
	MaxDescriptorFrame = HeaderSize + DescriptorPrefixSize + 255*FieldSpecSize
	MaxEntryFrame      = HeaderSize + EntryPrefixSize + MaxFields*MaxFieldWidth

	// MaxFrameSize is the smallest reassembly buffer that holds any
	// non-string frame. String frames are bounded by the buffer itself.
	MaxFrameSize = MaxDescriptorFrame
)

// FieldType is the wire tag of a field.
type FieldType uint8

const (
	TypeInt   FieldType = 1
	TypeFloat FieldType = 2
	TypeBool  FieldType = 3
	TypeStr   FieldType = 4
)

// ParseFieldType validates a tag read from the wire.
func ParseFieldType(tag byte) (FieldType, error) {
	switch ft := FieldType(tag); ft {
	case TypeInt, TypeFloat, TypeBool, TypeStr:
		return ft, nil
	default:
		return 0, fmt.Errorf("tag %d: %w", tag, types.ErrUnknownFieldTag)
	}
}

// Width returns the encoded size of a value of this type.
func (t FieldType) Width() int {
	switch t {
	case TypeBool:
		return 1
	case TypeInt, TypeFloat, TypeStr:
		return 4
	default:
		return 0
	}
}

// SQLType returns the column type used in compiled DDL.
func (t FieldType) SQLType() string {
	switch t {
	case TypeInt, TypeBool:
		return "INTEGER"
	case TypeFloat:
		return "REAL"
	case TypeStr:
		return "TEXT"
	default:
		return ""
	}
}

func (t FieldType) String() string {
	switch t {
	case TypeInt:
		return "int"
	case TypeFloat:
		return "float"
	case TypeBool:
		return "bool"
	case TypeStr:
		return "str"
	default:
		return fmt.Sprintf("fieldtype(%d)", uint8(t))
	}
}

// Value is one decoded field. Only the member selected by Type is meaningful.
type Value struct {
	Type  FieldType
	Int   uint32
	Float float64
	Bool  bool
	StrID uint32
}

// Equal compares shapes, not contents: two values are equal when their
// types match, whatever they hold.
func (v Value) Equal(o Value) bool {
	return v.Type == o.Type
}

// Scalar returns the value as a database/sql argument. Str values return
// their string id; callers that persist text resolve it first.
func (v Value) Scalar() any {
	switch v.Type {
	case TypeInt:
		return int64(v.Int)
	case TypeFloat:
		return v.Float
	case TypeBool:
		if v.Bool {
			return int64(1)
		}
		return int64(0)
	case TypeStr:
		return int64(v.StrID)
	default:
		return nil
	}
}

// FieldDescriptor names and types one field of a descriptor.
type FieldDescriptor struct {
	Type FieldType
	Name uint32
}

// Descriptor is a record schema as announced on the wire.
type Descriptor struct {
	Name   uint32
	Fields []FieldDescriptor
}

// EntrySize returns the payload size of an entry for this descriptor,
// including the leading descriptor uid.
func (d Descriptor) EntrySize() int {
	n := EntryPrefixSize
	for _, f := range d.Fields {
		n += f.Type.Width()
	}
	return n
}
