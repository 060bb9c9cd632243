package protocol

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/danmuck/netmsg/internal/game"
)

// reload frames enc and loads the bytes into a fresh message, as a receiver would.
func reload(t *testing.T, enc *Message, opts ...Option) *Message {
	t.Helper()
	if err := enc.Err(); err != nil {
		t.Fatalf("encode: %v", err)
	}
	dec := NewMessage(opts...)
	copy(dec.Buffer(), enc.EncodeHeader())
	dec.DecodeHeader()
	return dec
}

func TestDecodeHeaderLittleEndian(t *testing.T) {
	m := NewMessage()
	copy(m.Buffer(), []byte{0x05, 0x00, 1, 2, 3, 4, 5})
	if got := m.DecodeHeader(); got != 5 {
		t.Fatalf("header length got=%d want=5", got)
	}
	if m.Length() != 5 {
		t.Fatalf("stored length got=%d", m.Length())
	}

	copy(m.Buffer(), []byte{0xFF, 0xFF})
	if got := m.DecodeHeader(); got != 65535 {
		t.Fatalf("header length got=%d want=65535", got)
	}
}

func TestDeclaredLengthBeyondCapacityStillBounded(t *testing.T) {
	m := NewMessage()
	copy(m.Buffer(), []byte{0xFF, 0xFF})
	m.DecodeHeader()
	if !m.SkipBytes(MaxSize - HeaderLength) {
		t.Fatalf("expected skip to physical end: %v", m.Err())
	}
	if m.CanRead(1) {
		t.Fatalf("read past physical capacity allowed")
	}
	if got := m.GetByte(); got != 0 || !errors.Is(m.Err(), ErrReadOverflow) {
		t.Fatalf("expected read overflow, got=%d err=%v", got, m.Err())
	}
}

func TestDeclaredLengthBeyondCapacityCapsViews(t *testing.T) {
	m := NewMessage()
	copy(m.Buffer(), []byte{0xFF, 0xFF})
	m.DecodeHeader()
	if got, want := len(m.Body()), MaxSize-HeaderLength; got != want {
		t.Fatalf("body len got=%d want=%d", got, want)
	}
	if got, want := m.Remaining(), MaxSize-HeaderLength; got != want {
		t.Fatalf("remaining got=%d want=%d", got, want)
	}
	if got := len(m.EncodeHeader()); got != MaxSize {
		t.Fatalf("framed len got=%d want=%d", got, MaxSize)
	}
	m.SkipBytes(100)
	if got, want := m.Remaining(), MaxSize-HeaderLength-100; got != want {
		t.Fatalf("remaining after skip got=%d want=%d", got, want)
	}
}

func TestEncodeHeaderStampsBodyLength(t *testing.T) {
	m := NewMessage()
	_ = m.AddByte(0x1E)
	_ = m.AddUint16(0xBEEF)
	out := m.EncodeHeader()
	want := []byte{0x03, 0x00, 0x1E, 0xEF, 0xBE}
	if !bytes.Equal(out, want) {
		t.Fatalf("framed bytes got=% x want=% x", out, want)
	}
}

func TestGenericWidthsAreLittleEndian(t *testing.T) {
	m := NewMessage()
	_ = Add(m, uint8(0x01))
	_ = Add(m, uint16(0x0302))
	_ = Add(m, uint32(0x07060504))
	_ = Add(m, uint64(0x0f0e0d0c0b0a0908))
	want := []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15}
	if !bytes.Equal(m.Body(), want) {
		t.Fatalf("body got=% x want=% x", m.Body(), want)
	}

	dec := reload(t, m)
	if v := Get[uint8](dec); v != 0x01 {
		t.Fatalf("u8 got=%#x", v)
	}
	if v := dec.GetUint16(); v != 0x0302 {
		t.Fatalf("u16 got=%#x", v)
	}
	if v := dec.GetUint32(); v != 0x07060504 {
		t.Fatalf("u32 got=%#x", v)
	}
	if v := dec.GetUint64(); v != 0x0f0e0d0c0b0a0908 {
		t.Fatalf("u64 got=%#x", v)
	}
	if dec.Remaining() != 0 || dec.Err() != nil {
		t.Fatalf("remaining=%d err=%v", dec.Remaining(), dec.Err())
	}
}

func TestReadAtDeclaredLengthBoundary(t *testing.T) {
	enc := NewMessage()
	_ = enc.AddBytes([]byte{1, 2, 3})
	dec := reload(t, enc)

	if v := dec.GetUint16(); v != 0x0201 {
		t.Fatalf("first u16 got=%#x", v)
	}
	pos := dec.Position()
	if v := dec.GetUint16(); v != 0 {
		t.Fatalf("overflowing read returned %#x", v)
	}
	if !errors.Is(dec.Err(), ErrReadOverflow) || !dec.Overrun() {
		t.Fatalf("expected read overflow, err=%v overrun=%v", dec.Err(), dec.Overrun())
	}
	if dec.Position() != pos {
		t.Fatalf("cursor moved on failed read: %d -> %d", pos, dec.Position())
	}

	// permissive: the last declared byte is still readable
	if v := dec.GetByte(); v != 3 {
		t.Fatalf("last byte got=%d", v)
	}
	if dec.CanRead(1) {
		t.Fatalf("read of one byte past declared length allowed")
	}
	if !dec.CanRead(0) {
		t.Fatalf("zero-length read at declared end rejected")
	}
}

func TestPositionRoundTrip(t *testing.T) {
	cases := []game.Position{
		{},
		{X: 1, Y: 2, Z: 3},
		{X: 32000, Y: 31000, Z: 7},
		{X: math.MaxUint16, Y: math.MaxUint16, Z: math.MaxUint8},
	}
	enc := NewMessage()
	for _, pos := range cases {
		if err := enc.AddPosition(pos); err != nil {
			t.Fatalf("add position %v: %v", pos, err)
		}
	}
	dec := reload(t, enc)
	for _, want := range cases {
		if got := dec.GetPosition(); got != want {
			t.Fatalf("position got=%v want=%v", got, want)
		}
	}
}

func TestPositionWireOrder(t *testing.T) {
	m := NewMessage()
	_ = m.AddPosition(game.Position{X: 0x1234, Y: 0xABCD, Z: 7})
	want := []byte{0x34, 0x12, 0xCD, 0xAB, 0x07}
	if !bytes.Equal(m.Body(), want) {
		t.Fatalf("position bytes got=% x want=% x", m.Body(), want)
	}
}

func TestStringRoundTrip(t *testing.T) {
	for _, n := range []int{0, 1, 255, 4096, MaxStringLength} {
		s := strings.Repeat("x", n)
		enc := NewMessage()
		if err := enc.AddString(s); err != nil {
			t.Fatalf("add string len=%d: %v", n, err)
		}
		if enc.Length() != n+2 {
			t.Fatalf("length got=%d want=%d", enc.Length(), n+2)
		}
		dec := reload(t, enc)
		if got := dec.GetString(0); got != s {
			t.Fatalf("string len=%d mismatch (got len=%d)", n, len(got))
		}
	}
}

func TestStringOverLimitIsRejected(t *testing.T) {
	m := NewMessage()
	_ = m.AddByte(9)
	pos, length := m.Position(), m.Length()

	err := m.AddString(strings.Repeat("y", MaxStringLength+1))
	if !errors.Is(err, ErrLimitExceeded) {
		t.Fatalf("expected ErrLimitExceeded, got %v", err)
	}
	if m.Position() != pos || m.Length() != length {
		t.Fatalf("message changed: pos %d->%d length %d->%d", pos, m.Position(), length, m.Length())
	}
	if !errors.Is(m.Err(), ErrLimitExceeded) {
		t.Fatalf("sticky error not recorded: %v", m.Err())
	}
}

func TestGetStringExplicitLength(t *testing.T) {
	enc := NewMessage()
	_ = enc.AddBytes([]byte("abcdef"))
	dec := reload(t, enc)
	if got := dec.GetString(4); got != "abcd" {
		t.Fatalf("explicit string got=%q", got)
	}
	if got := dec.GetString(3); got != "" {
		t.Fatalf("overrunning string got=%q", got)
	}
	if !errors.Is(dec.Err(), ErrReadOverflow) {
		t.Fatalf("expected read overflow, got %v", dec.Err())
	}
	if got := dec.GetString(2); got != "ef" {
		t.Fatalf("tail string got=%q", got)
	}
}

func TestGetStringPrefixBeyondPayload(t *testing.T) {
	enc := NewMessage()
	_ = enc.AddUint16(50)
	_ = enc.AddBytes([]byte("short"))
	dec := reload(t, enc)
	if got := dec.GetString(0); got != "" {
		t.Fatalf("got=%q", got)
	}
	if dec.Position() != HeaderLength+2 {
		t.Fatalf("cursor should stop after prefix, at %d", dec.Position())
	}
}

func TestDoubleRoundTrip(t *testing.T) {
	values := []float64{0.0, -123.45, 9999.99, 0.01, -0.01, 21474836.47, -21474836.47}
	enc := NewMessage()
	for _, v := range values {
		if err := enc.AddDoubleDefault(v); err != nil {
			t.Fatalf("add double %v: %v", v, err)
		}
	}
	dec := reload(t, enc)
	for _, want := range values {
		got := dec.GetDouble()
		if math.Abs(got-want) > 0.01 {
			t.Fatalf("double got=%v want=%v", got, want)
		}
	}
}

func TestDoubleWireLayout(t *testing.T) {
	m := NewMessage()
	_ = m.AddDouble(0, 2)
	want := []byte{0x02, 0xFF, 0xFF, 0xFF, 0x7F}
	if !bytes.Equal(m.Body(), want) {
		t.Fatalf("zero double got=% x want=% x", m.Body(), want)
	}

	m.Reset()
	_ = m.AddDouble(1.5, 1)
	dec := reload(t, m)
	if p := dec.GetByte(); p != 1 {
		t.Fatalf("precision byte got=%d", p)
	}
	if v := dec.GetUint32(); v != math.MaxInt32+15 {
		t.Fatalf("wire value got=%d", v)
	}
}

func TestDoubleOutOfRangeWritesNothing(t *testing.T) {
	m := NewMessage()
	for _, v := range []float64{1e12, -1e12, math.NaN(), math.Inf(1)} {
		if err := m.AddDouble(v, 2); !errors.Is(err, ErrValueOutOfRange) {
			t.Fatalf("value %v: expected ErrValueOutOfRange, got %v", v, err)
		}
	}
	if m.Length() != 0 || m.Position() != HeaderLength {
		t.Fatalf("message changed: length=%d pos=%d", m.Length(), m.Position())
	}
}

func TestAddOverflowAtCapacity(t *testing.T) {
	m := NewMessage()
	fillTo(t, m, MaxBodyLength-1)
	pos, length := m.Position(), m.Length()

	if err := m.AddUint16(0xFFFF); !errors.Is(err, ErrWriteOverflow) {
		t.Fatalf("expected ErrWriteOverflow, got %v", err)
	}
	if m.Position() != pos || m.Length() != length {
		t.Fatalf("message changed: pos %d->%d length %d->%d", pos, m.Position(), length, m.Length())
	}
	if m.Buffer()[pos] != 0 || m.Buffer()[pos+1] != 0 {
		t.Fatalf("overflowing write touched the buffer")
	}

	// permissive mode: a write that still fits goes through
	if err := m.AddByte(0xAA); err != nil {
		t.Fatalf("last byte: %v", err)
	}
	if m.CanAdd(1) {
		t.Fatalf("CanAdd true at limit")
	}
	if len(m.EncodeHeader()) != MaxBodyLength {
		t.Fatalf("framed length got=%d", len(m.EncodeHeader()))
	}
}

func TestAddBytesLimits(t *testing.T) {
	m := NewMessage()
	if err := m.AddBytes(make([]byte, MaxRawLength+1)); !errors.Is(err, ErrLimitExceeded) {
		t.Fatalf("expected ErrLimitExceeded, got %v", err)
	}
	if err := m.AddBytes(make([]byte, MaxRawLength)); err != nil {
		t.Fatalf("max raw run: %v", err)
	}
	if m.Length() != MaxRawLength {
		t.Fatalf("length got=%d", m.Length())
	}
}

func TestPaddingAdvancesLengthOnly(t *testing.T) {
	m := NewMessage()
	_ = m.AddByte(0x01)
	pos := m.Position()
	if err := m.AddPaddingBytes(3); err != nil {
		t.Fatalf("padding: %v", err)
	}
	if m.Position() != pos {
		t.Fatalf("padding moved cursor %d -> %d", pos, m.Position())
	}
	want := []byte{0x01, 0x33, 0x33, 0x33}
	if !bytes.Equal(m.Body(), want) {
		t.Fatalf("body got=% x want=% x", m.Body(), want)
	}
}

func TestPaddingCannotGrowPastLimit(t *testing.T) {
	m := NewMessage()
	fillTo(t, m, MaxBodyLength-4)
	if err := m.AddPaddingBytes(4); err != nil {
		t.Fatalf("padding to limit: %v", err)
	}
	if err := m.AddPaddingBytes(4); !errors.Is(err, ErrWriteOverflow) {
		t.Fatalf("repeated padding past limit: %v", err)
	}
	if HeaderLength+m.Length() > MaxBodyLength {
		t.Fatalf("length escaped writable region: %d", m.Length())
	}
}

func TestPaddingNeverExposesStaleBytes(t *testing.T) {
	m := NewMessage()
	_ = m.AddBytes([]byte{0xDE, 0xAD, 0xBE, 0xEF, 0xCA, 0xFE})
	m.Reset()

	_ = m.AddByte(0x01)
	if err := m.AddPaddingBytes(2); err != nil {
		t.Fatalf("first padding: %v", err)
	}
	if err := m.AddPaddingBytes(2); err != nil {
		t.Fatalf("second padding: %v", err)
	}
	want := []byte{0x01, 0x33, 0x33, 0x33, 0x33}
	if !bytes.Equal(m.Body(), want) {
		t.Fatalf("body got=% x want=% x", m.Body(), want)
	}
	if wire := m.EncodeHeader(); !bytes.Equal(wire[HeaderLength:], want) {
		t.Fatalf("wire got=% x", wire)
	}
}

func TestWriteAfterPaddingIsRefused(t *testing.T) {
	m := NewMessage()
	_ = m.AddBytes([]byte{0xDE, 0xAD, 0xBE, 0xEF})
	m.Reset()

	_ = m.AddByte(0x01)
	_ = m.AddPaddingBytes(2)
	if err := m.AddByte(0x02); !errors.Is(err, ErrPaddingSealed) {
		t.Fatalf("expected ErrPaddingSealed, got %v", err)
	}
	if want := []byte{0x01, 0x33, 0x33}; !bytes.Equal(m.Body(), want) {
		t.Fatalf("body got=% x want=% x", m.Body(), want)
	}
	if got := ErrorKind(m.Err()); got != "padding_sealed" {
		t.Fatalf("kind got=%q", got)
	}

	m.Reset()
	if err := m.AddByte(0x02); err != nil {
		t.Fatalf("reset must unseal: %v", err)
	}
}

func TestStrictModeStopsAfterFirstFailure(t *testing.T) {
	m := NewMessage(WithMode(ModeStrict))
	first := m.AddString(strings.Repeat("z", MaxStringLength+1))
	if !errors.Is(first, ErrLimitExceeded) {
		t.Fatalf("expected ErrLimitExceeded, got %v", first)
	}
	if err := m.AddByte(1); !errors.Is(err, ErrLimitExceeded) {
		t.Fatalf("strict write after failure: %v", err)
	}
	if m.Length() != 0 {
		t.Fatalf("strict message grew to %d", m.Length())
	}

	m.Reset()
	if err := m.AddByte(1); err != nil {
		t.Fatalf("reset should clear strict failure: %v", err)
	}
}

func TestStrictModeStopsReads(t *testing.T) {
	enc := NewMessage()
	_ = enc.AddByte(7)
	dec := reload(t, enc, WithMode(ModeStrict))
	_ = dec.GetUint16()
	if v := dec.GetByte(); v != 0 {
		t.Fatalf("strict read after overflow returned %d", v)
	}
	if dec.Position() != HeaderLength {
		t.Fatalf("strict cursor moved to %d", dec.Position())
	}
}

func TestGetBytesCopiesOut(t *testing.T) {
	enc := NewMessage()
	_ = enc.AddBytes([]byte{9, 8, 7})
	dec := reload(t, enc)
	out := dec.GetBytes(3)
	dec.Buffer()[HeaderLength] = 0
	if !bytes.Equal(out, []byte{9, 8, 7}) {
		t.Fatalf("bytes aliased the buffer: % x", out)
	}
	if dec.GetBytes(1) != nil {
		t.Fatalf("expected nil on overflow")
	}
	if dec.CanRead(-1) || dec.SkipBytes(-1) {
		t.Fatalf("negative sizes must be rejected")
	}
}

func TestErrorKind(t *testing.T) {
	m := NewMessage()
	_ = m.AddBytes(make([]byte, MaxRawLength+1))
	if got := ErrorKind(m.Err()); got != "limit_exceeded" {
		t.Fatalf("kind got=%q", got)
	}
	if got := ErrorKind(nil); got != "none" {
		t.Fatalf("nil kind got=%q", got)
	}
	if got := ErrorKind(errors.New("x")); got != "other" {
		t.Fatalf("other kind got=%q", got)
	}
}

func fillTo(t *testing.T, m *Message, position int) {
	t.Helper()
	for m.Position() < position {
		n := min(position-m.Position(), MaxRawLength)
		if err := m.AddBytes(make([]byte, n)); err != nil {
			t.Fatalf("fill: %v", err)
		}
	}
}
