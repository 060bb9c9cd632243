package protocol

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Add writes v little-endian. On overflow nothing is written and the error
// is returned and recorded.
func Add[T Unsigned](m *Message, v T) error {
	return m.writeUint(widthOf[T](), uint64(v))
}

func (m *Message) writeUint(width int, v uint64) error {
	b, err := m.reserve(width)
	if err != nil {
		return err
	}
	putUint(b, width, v)
	return nil
}

func putUint(b []byte, width int, v uint64) {
	switch width {
	case 1:
		b[0] = byte(v)
	case 2:
		binary.LittleEndian.PutUint16(b, uint16(v))
	case 4:
		binary.LittleEndian.PutUint32(b, uint32(v))
	default:
		binary.LittleEndian.PutUint64(b, v)
	}
}

func (m *Message) AddByte(v uint8) error {
	return Add(m, v)
}

func (m *Message) AddUint16(v uint16) error {
	return Add(m, v)
}

func (m *Message) AddUint32(v uint32) error {
	return Add(m, v)
}

func (m *Message) AddUint64(v uint64) error {
	return Add(m, v)
}

// AddString writes a uint16 length prefix and the raw bytes of s.
func (m *Message) AddString(s string) error {
	if err := m.blocked(); err != nil {
		return err
	}
	if len(s) > MaxStringLength {
		return m.fail(fmt.Errorf("%w: string of %d bytes, max %d", ErrLimitExceeded, len(s), MaxStringLength))
	}
	b, err := m.reserve(len(s) + 2)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint16(b[0:2], uint16(len(s)))
	copy(b[2:], s)
	return nil
}

// AddDouble writes precision and then round(v*10^precision) offset by
// MaxInt32 as a uint32. Both parts are written or neither.
func (m *Message) AddDouble(v float64, precision uint8) error {
	if err := m.blocked(); err != nil {
		return err
	}
	wire := math.Round(v*math.Pow10(int(precision))) + math.MaxInt32
	if math.IsNaN(wire) || wire < 0 || wire > math.MaxUint32 {
		return m.fail(fmt.Errorf("%w: %v at precision %d", ErrValueOutOfRange, v, precision))
	}
	b, err := m.reserve(5)
	if err != nil {
		return err
	}
	b[0] = precision
	binary.LittleEndian.PutUint32(b[1:5], uint32(wire))
	return nil
}

func (m *Message) AddDoubleDefault(v float64) error {
	return m.AddDouble(v, DefaultDoublePrecision)
}

func (m *Message) AddBytes(p []byte) error {
	if err := m.blocked(); err != nil {
		return err
	}
	if len(p) > MaxRawLength {
		return m.fail(fmt.Errorf("%w: %d raw bytes, max %d", ErrLimitExceeded, len(p), MaxRawLength))
	}
	b, err := m.reserve(len(p))
	if err != nil {
		return err
	}
	copy(b, p)
	return nil
}

// AddPaddingBytes appends n PaddingByte bytes after the body and grows
// length only. Padding is the message tail: later padding extends it and
// any other write is refused with ErrPaddingSealed until Reset.
func (m *Message) AddPaddingBytes(n int) error {
	if err := m.blocked(); err != nil {
		return err
	}
	if n < 0 || !m.canGrow(n) {
		return m.fail(fmt.Errorf("%w: %d padding bytes after %d, limit %d", ErrWriteOverflow, n, m.length, MaxBodyLength))
	}
	tail := HeaderLength + m.length
	pad := m.buffer[tail : tail+n]
	for i := range pad {
		pad[i] = PaddingByte
	}
	m.length += n
	m.padded = true
	return nil
}
