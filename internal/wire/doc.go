// Package wire implements the daqd binary codec: frame constants, typed field
// decoding, payload parsing, schema-to-SQL compilation, and frame encoding.
//
// All integers are little-endian. A frame is a 5-byte header (u32 magic,
// u8 message type) followed by a type-specific payload:
//
//	string:     u32 uid, u32 byte_length, byte_length bytes of UTF-8
//	descriptor: u32 uid, u32 name_id, u8 field_count, field_count x (u8 tag, u32 name_id)
//	entry:      u32 descriptor_uid, then one value per descriptor field
//
// Nothing in this package performs I/O or holds state.
package wire
