// Package stream reassembles a fragmented byte stream into a contiguous
// window of unconsumed bytes backed by one fixed-capacity buffer.
package stream

import (
	"errors"
	"fmt"
	"io"

	"github.com/mesh-intelligence/daqd/pkg/types"
)

// maxEmptyReads bounds consecutive (0, nil) reads before Supply gives up.
const maxEmptyReads = 100

// Buffer holds bytes read from a transport until the decoder consumes them.
//
// Invariant: 0 <= consumed <= filled <= len(buf). Bytes in [consumed, filled)
// are unconsumed and survive compaction in order.
type Buffer struct {
	buf      []byte
	consumed int
	filled   int
}

// New returns a buffer with the given fixed capacity.
func New(capacity int) *Buffer {
	return &Buffer{buf: make([]byte, capacity)}
}

// Supply compacts the unconsumed tail to the start of the buffer and reads
// once from r into the free space. It returns ErrFrameTooLarge when the
// buffer is full of unconsumed bytes, ErrTransportClosed on end of stream
// at a frame boundary, and ErrUnexpectedClose when bytes are still pending.
func (b *Buffer) Supply(r io.Reader) (int, error) {
	b.compact()
	if b.filled == len(b.buf) {
		return 0, fmt.Errorf("%d bytes pending: %w", b.filled, types.ErrFrameTooLarge)
	}

	for i := 0; i < maxEmptyReads; i++ {
		n, err := r.Read(b.buf[b.filled:])
		if n < 0 || n > len(b.buf)-b.filled {
			return 0, fmt.Errorf("read returned %d: %w", n, types.ErrTransportFailure)
		}
		b.filled += n
		if n > 0 {
			return n, nil
		}
		if err != nil {
			return 0, b.readError(err)
		}
	}
	return 0, fmt.Errorf("read: %w: %w", types.ErrTransportFailure, io.ErrNoProgress)
}

func (b *Buffer) readError(err error) error {
	if errors.Is(err, io.EOF) {
		if b.Buffered() > 0 {
			return fmt.Errorf("%d bytes pending: %w", b.Buffered(), types.ErrUnexpectedClose)
		}
		return types.ErrTransportClosed
	}
	return fmt.Errorf("read: %w: %w", types.ErrTransportFailure, err)
}

func (b *Buffer) compact() {
	if b.consumed == 0 {
		return
	}
	n := copy(b.buf, b.buf[b.consumed:b.filled])
	b.filled = n
	b.consumed = 0
}

// Peek returns the next n unconsumed bytes without consuming them. ok is
// false when fewer than n bytes are buffered. The window is only valid
// until the next Supply.
func (b *Buffer) Peek(n int) (window []byte, ok bool) {
	if n < 0 || b.Buffered() < n {
		return nil, false
	}
	return b.buf[b.consumed : b.consumed+n], true
}

// Window returns every unconsumed byte.
func (b *Buffer) Window() []byte {
	return b.buf[b.consumed:b.filled]
}

// Advance consumes n bytes. It panics if n exceeds the buffered count.
func (b *Buffer) Advance(n int) {
	if n < 0 || n > b.Buffered() {
		panic(fmt.Sprintf("stream: advance %d with %d buffered", n, b.Buffered()))
	}
	b.consumed += n
}

// Buffered returns the count of unconsumed bytes.
func (b *Buffer) Buffered() int {
	return b.filled - b.consumed
}

// Cap returns the fixed capacity.
func (b *Buffer) Cap() int {
	return len(b.buf)
}

// Release drops the backing array. The buffer must not be used afterwards.
func (b *Buffer) Release() {
	b.buf = nil
	b.consumed = 0
	b.filled = 0
}
