package protocol

import (
	"encoding/binary"
	"fmt"
)

// Message is one packet's buffer. The body starts after the framing header;
// position is the next byte to read or write and length is the number of
// body bytes produced (encode) or declared by the header (decode).
//
// A Message is owned by one packet at a time and is not safe for concurrent
// use. The zero value is not ready; use NewMessage or call Reset.
type Message struct {
	buffer   [MaxSize]byte
	length   int
	position int

	err     error
	overrun bool
	padded  bool

	mode  Mode
	items ItemTypes
}

type Option func(*Message)

func WithMode(mode Mode) Option {
	return func(m *Message) {
		m.mode = mode
	}
}

// WithItemTypes injects the registry used by the item codecs.
func WithItemTypes(types ItemTypes) Option {
	return func(m *Message) {
		m.items = types
	}
}

func NewMessage(opts ...Option) *Message {
	m := &Message{}
	for _, opt := range opts {
		opt(m)
	}
	m.Reset()
	return m
}

// Reset prepares the message for the next packet. Mode and item types are kept.
func (m *Message) Reset() {
	m.length = 0
	m.position = HeaderLength
	m.err = nil
	m.overrun = false
	m.padded = false
}

func (m *Message) Mode() Mode {
	return m.mode
}

func (m *Message) Length() int {
	return m.length
}

func (m *Message) Position() int {
	return m.position
}

// Remaining is the number of declared bytes not yet read that the buffer
// actually holds.
func (m *Message) Remaining() int {
	if r := m.end() - m.position; r > 0 {
		return r
	}
	return 0
}

// Err returns the first failure recorded since the last Reset.
func (m *Message) Err() error {
	return m.err
}

// Overrun reports whether a read ran past the declared length.
func (m *Message) Overrun() bool {
	return m.overrun
}

// Buffer exposes the whole backing array for transports that read frames in place.
func (m *Message) Buffer() []byte {
	return m.buffer[:]
}

// Body returns the body bytes currently accounted for by length, cut at
// the buffer capacity when a decoded header declared more.
func (m *Message) Body() []byte {
	return m.buffer[HeaderLength:m.end()]
}

// CanRead reports whether n more bytes lie within the declared payload.
func (m *Message) CanRead(n int) bool {
	if n < 0 {
		return false
	}
	end := m.position + n
	return end <= HeaderLength+m.length && end <= MaxSize
}

// CanAdd reports whether n more bytes fit before the reserved trailer.
func (m *Message) CanAdd(n int) bool {
	return n >= 0 && m.position+n <= MaxBodyLength
}

// DecodeHeader reads the payload length from the first two bytes, stores it
// as the declared length and returns it. The length excludes the header.
func (m *Message) DecodeHeader() int {
	m.length = int(binary.LittleEndian.Uint16(m.buffer[0:HeaderLength]))
	return m.length
}

// EncodeHeader stamps the body length into the header and returns the
// framed bytes. The slice aliases the buffer and is valid until the next write.
func (m *Message) EncodeHeader() []byte {
	binary.LittleEndian.PutUint16(m.buffer[0:HeaderLength], uint16(m.length))
	return m.buffer[:m.end()]
}

// end is the buffer offset just past the declared body, capped at capacity.
func (m *Message) end() int {
	return min(HeaderLength+m.length, MaxSize)
}

func (m *Message) fail(err error) error {
	if m.err == nil {
		m.err = err
	}
	return err
}

func (m *Message) blocked() error {
	if m.mode == ModeStrict && m.err != nil {
		return m.err
	}
	return nil
}

// read consumes n bytes; the returned slice aliases the buffer.
func (m *Message) read(n int) ([]byte, bool) {
	if m.blocked() != nil {
		return nil, false
	}
	if !m.CanRead(n) {
		m.overrun = true
		m.fail(fmt.Errorf("%w: need %d bytes at %d, declared %d", ErrReadOverflow, n, m.position, m.length))
		return nil, false
	}
	b := m.buffer[m.position : m.position+n]
	m.position += n
	return b, true
}

// reserve claims n bytes at the cursor for writing and advances both indices.
func (m *Message) reserve(n int) ([]byte, error) {
	if err := m.blocked(); err != nil {
		return nil, err
	}
	if m.padded {
		return nil, m.fail(fmt.Errorf("%w: %d bytes at %d", ErrPaddingSealed, n, m.position))
	}
	if !m.CanAdd(n) || !m.canGrow(n) {
		return nil, m.fail(fmt.Errorf("%w: need %d bytes at %d, limit %d", ErrWriteOverflow, n, m.position, MaxBodyLength))
	}
	b := m.buffer[m.position : m.position+n]
	m.position += n
	m.length += n
	return b, nil
}

// canGrow keeps the framed output inside the writable region even when
// padding has pushed length past the cursor.
func (m *Message) canGrow(n int) bool {
	return HeaderLength+m.length+n <= MaxBodyLength
}
