package wire

import (
	"encoding/binary"
	"fmt"
	"math"
	"unicode/utf8"

	"github.com/mesh-intelligence/daqd/pkg/types"
)

// ParseHeader reads a frame header. ok is false when the magic does not
// match; the caller resynchronizes by advancing one byte.
func ParseHeader(b []byte) (msg MsgType, ok bool, err error) {
	if len(b) < HeaderSize {
		return MsgInvalid, false, types.ErrInsufficientData
	}
	if binary.LittleEndian.Uint32(b[0:4]) != Magic {
		return MsgInvalid, false, nil
	}
	return MsgType(b[4]), true, nil
}

// DecodeField decodes one value of type tag from the start of b and
// reports the number of bytes consumed.
func DecodeField(tag byte, b []byte) (Value, int, error) {
	ft, err := ParseFieldType(tag)
	if err != nil {
		return Value{}, 0, err
	}
	return decodeTyped(ft, b)
}

func decodeTyped(ft FieldType, b []byte) (Value, int, error) {
	w := ft.Width()
	if len(b) < w {
		return Value{}, 0, types.ErrInsufficientData
	}
	v := Value{Type: ft}
	switch ft {
	case TypeInt:
		v.Int = binary.LittleEndian.Uint32(b)
	case TypeFloat:
		v.Float = float64(math.Float32frombits(binary.LittleEndian.Uint32(b)))
	case TypeBool:
		v.Bool = b[0] != 0
	case TypeStr:
		v.StrID = binary.LittleEndian.Uint32(b)
	}
	return v, w, nil
}

// ParseString parses a string payload. size is the payload length and is
// valid whenever err is nil or a malformed frame error.
func ParseString(b []byte, limit int) (uid uint32, text string, size int, err error) {
	if len(b) < StringPrefixSize {
		return 0, "", 0, types.ErrInsufficientData
	}
	uid = binary.LittleEndian.Uint32(b[0:4])
	n := binary.LittleEndian.Uint32(b[4:8])
	if uint64(n) > uint64(limit) {
		return uid, "", 0, fmt.Errorf("string %d declares %d bytes: %w", uid, n, types.ErrFrameTooLarge)
	}
	size = StringPrefixSize + int(n)
	if len(b) < size {
		return uid, "", 0, types.ErrInsufficientData
	}
	raw := make([]byte, n)
	copy(raw, b[StringPrefixSize:size])
	if !utf8.Valid(raw) {
		return uid, "", size, fmt.Errorf("string %d: %w", uid, types.ErrInvalidUTF8)
	}
	return uid, string(raw), size, nil
}

// ParseDescriptor parses a descriptor payload. On a malformed frame error
// size still reports the full payload length so the frame can be skipped.
func ParseDescriptor(b []byte) (uid uint32, d Descriptor, size int, err error) {
	if len(b) < DescriptorPrefixSize {
		return 0, Descriptor{}, 0, types.ErrInsufficientData
	}
	uid = binary.LittleEndian.Uint32(b[0:4])
	d.Name = binary.LittleEndian.Uint32(b[4:8])
	count := int(b[8])
	size = DescriptorPrefixSize + count*FieldSpecSize
	if len(b) < size {
		return uid, Descriptor{}, 0, types.ErrInsufficientData
	}
	if count == 0 || count > MaxFields {
		return uid, Descriptor{}, size, fmt.Errorf("descriptor %d has %d fields: %w", uid, count, types.ErrBadFieldCount)
	}

	d.Fields = make([]FieldDescriptor, count)
	off := DescriptorPrefixSize
	for i := range d.Fields {
		ft, err := ParseFieldType(b[off])
		if err != nil {
			return uid, Descriptor{}, size, fmt.Errorf("descriptor %d field %d: %w", uid, i, err)
		}
		d.Fields[i] = FieldDescriptor{
			Type: ft,
			Name: binary.LittleEndian.Uint32(b[off+1 : off+5]),
		}
		off += FieldSpecSize
	}
	return uid, d, size, nil
}

// ParseEntryUID reads the descriptor uid leading an entry payload.
func ParseEntryUID(b []byte) (uint32, error) {
	if len(b) < EntryPrefixSize {
		return 0, types.ErrInsufficientData
	}
	return binary.LittleEndian.Uint32(b[0:4]), nil
}

// DecodeEntry decodes every field of d from an entry payload. Either all
// values are returned or none: a short window yields ErrInsufficientData.
func DecodeEntry(d Descriptor, b []byte) ([]Value, int, error) {
	if len(b) < d.EntrySize() {
		return nil, 0, types.ErrInsufficientData
	}
	values := make([]Value, 0, len(d.Fields))
	off := EntryPrefixSize
	for _, f := range d.Fields {
		v, n, err := decodeTyped(f.Type, b[off:])
		if err != nil {
			return nil, 0, err
		}
		values = append(values, v)
		off += n
	}
	return values, off, nil
}
