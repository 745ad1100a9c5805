package transport

import (
	"errors"
	"fmt"
)

// MaxPacketSize bounds every datagram receive and every interactive line read.
const MaxPacketSize = 128

var ErrBufferOverflow = errors.New("transport: buffer overflow")

// Buffer is a fixed-capacity byte buffer with an explicit fill length.
type Buffer struct {
	data [MaxPacketSize]byte
	n    int
}

// Space exposes the full capacity for a single read call.
func (b *Buffer) Space() []byte {
	return b.data[:]
}

// SetLen records how many bytes a read placed into Space.
func (b *Buffer) SetLen(n int) error {
	if n < 0 || n > b.Cap() {
		return fmt.Errorf("%w: length %d cap %d", ErrBufferOverflow, n, b.Cap())
	}
	b.n = n
	return nil
}

func (b *Buffer) Bytes() []byte {
	return b.data[:b.n]
}

func (b *Buffer) Len() int {
	return b.n
}

func (b *Buffer) Cap() int {
	return len(b.data)
}

func (b *Buffer) Reset() {
	b.n = 0
}

// Line returns the buffered text minus its final byte (the line terminator).
func (b *Buffer) Line() string {
	if b.n == 0 {
		return ""
	}
	return string(b.data[:b.n-1])
}
