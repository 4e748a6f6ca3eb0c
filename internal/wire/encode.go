package wire

import (
	"encoding/binary"
	"math"
)

// AppendHeader appends a frame header for msg.
func AppendHeader(dst []byte, msg MsgType) []byte {
	dst = binary.LittleEndian.AppendUint32(dst, Magic)
	return append(dst, byte(msg))
}

// AppendString appends a complete string frame.
func AppendString(dst []byte, uid uint32, text string) []byte {
	dst = AppendHeader(dst, MsgString)
	dst = binary.LittleEndian.AppendUint32(dst, uid)
	dst = binary.LittleEndian.AppendUint32(dst, uint32(len(text)))
	return append(dst, text...)
}

// AppendDescriptor appends a complete descriptor frame. Field tags are
// written as given, so callers can produce invalid frames on purpose.
func AppendDescriptor(dst []byte, uid uint32, d Descriptor) []byte {
	dst = AppendHeader(dst, MsgDescriptor)
	dst = binary.LittleEndian.AppendUint32(dst, uid)
	dst = binary.LittleEndian.AppendUint32(dst, d.Name)
	dst = append(dst, byte(len(d.Fields)))
	for _, f := range d.Fields {
		dst = append(dst, byte(f.Type))
		dst = binary.LittleEndian.AppendUint32(dst, f.Name)
	}
	return dst
}

// AppendEntry appends a complete entry frame for the descriptor at uid.
func AppendEntry(dst []byte, uid uint32, values ...Value) []byte {
	dst = AppendHeader(dst, MsgEntry)
	dst = binary.LittleEndian.AppendUint32(dst, uid)
	for _, v := range values {
		dst = AppendValue(dst, v)
	}
	return dst
}

// AppendValue appends the wire encoding of a single value.
func AppendValue(dst []byte, v Value) []byte {
	switch v.Type {
	case TypeInt:
		return binary.LittleEndian.AppendUint32(dst, v.Int)
	case TypeFloat:
		return binary.LittleEndian.AppendUint32(dst, math.Float32bits(float32(v.Float)))
	case TypeBool:
		if v.Bool {
			return append(dst, 1)
		}
		return append(dst, 0)
	case TypeStr:
		return binary.LittleEndian.AppendUint32(dst, v.StrID)
	default:
		return dst
	}
}

// Int, Float, Bool and Str build values for AppendEntry.
func Int(v uint32) Value    { return Value{Type: TypeInt, Int: v} }
func Float(v float32) Value { return Value{Type: TypeFloat, Float: float64(v)} }
func Bool(v bool) Value     { return Value{Type: TypeBool, Bool: v} }
func Str(id uint32) Value   { return Value{Type: TypeStr, StrID: id} }
