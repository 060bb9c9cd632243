package protocol

import (
	"encoding/binary"
	"math"
	"math/bits"
)

// Get reads one little-endian T. On overflow it returns 0 without moving the
// cursor; check Err to tell that apart from a real zero.
func Get[T Unsigned](m *Message) T {
	v, _ := m.readUint(widthOf[T]())
	return T(v)
}

func widthOf[T Unsigned]() int {
	return bits.Len64(uint64(^T(0))) / 8
}

func (m *Message) readUint(width int) (uint64, bool) {
	b, ok := m.read(width)
	if !ok {
		return 0, false
	}
	switch width {
	case 1:
		return uint64(b[0]), true
	case 2:
		return uint64(binary.LittleEndian.Uint16(b)), true
	case 4:
		return uint64(binary.LittleEndian.Uint32(b)), true
	default:
		return binary.LittleEndian.Uint64(b), true
	}
}

func (m *Message) GetByte() uint8 {
	return Get[uint8](m)
}

func (m *Message) GetUint16() uint16 {
	return Get[uint16](m)
}

func (m *Message) GetUint32() uint32 {
	return Get[uint32](m)
}

func (m *Message) GetUint64() uint64 {
	return Get[uint64](m)
}

// GetString reads explicitLen bytes as text, or a uint16 length prefix and
// then that many bytes when explicitLen is zero. A string that overruns the
// declared length yields "" and leaves the cursor after the prefix.
func (m *Message) GetString(explicitLen uint16) string {
	n := explicitLen
	if n == 0 {
		n = m.GetUint16()
	}
	b, ok := m.read(int(n))
	if !ok {
		return ""
	}
	return string(b)
}

// GetDouble inverts AddDouble: precision byte, then the offset fixed-point value.
func (m *Message) GetDouble() float64 {
	b, ok := m.read(5)
	if !ok {
		return 0
	}
	precision := int(b[0])
	wire := int64(binary.LittleEndian.Uint32(b[1:5]))
	return float64(wire-math.MaxInt32) / math.Pow10(precision)
}

// GetBytes copies the next n bytes out of the buffer.
func (m *Message) GetBytes(n int) []byte {
	b, ok := m.read(n)
	if !ok {
		return nil
	}
	out := make([]byte, n)
	copy(out, b)
	return out
}

func (m *Message) SkipBytes(n int) bool {
	_, ok := m.read(n)
	return ok
}
