package frame

import (
	"io"

	"github.com/danmuck/netmsg/internal/protocol"
	"github.com/pkg/errors"
)

// MaxPayload is the largest payload a message buffer can hold after the header.
const MaxPayload = protocol.MaxSize - protocol.HeaderLength

var (
	ErrShortHeader     = errors.New("frame: short length header")
	ErrShortPayload    = errors.New("frame: short payload")
	ErrPayloadTooLarge = errors.New("frame: payload too large")
	ErrMessageFailed   = errors.New("frame: message has a codec failure")
)

// MessageError carries the codec failure that kept a message off the wire.
// It matches ErrMessageFailed and unwraps to the codec error.
type MessageError struct {
	Err error
}

func (e *MessageError) Error() string {
	return ErrMessageFailed.Error() + ": " + e.Err.Error()
}

func (e *MessageError) Unwrap() error {
	return e.Err
}

func (e *MessageError) Is(target error) bool {
	return target == ErrMessageFailed
}

// Limits constrains the payload size accepted or produced on one connection.
type Limits struct {
	MaxPayloadBytes int
}

func DefaultLimits() Limits {
	return Limits{MaxPayloadBytes: MaxPayload}
}

func (l Limits) maxPayload() int {
	if l.MaxPayloadBytes <= 0 || l.MaxPayloadBytes > MaxPayload {
		return MaxPayload
	}
	return l.MaxPayloadBytes
}

// ReadMessage reads one frame from r directly into m and leaves the cursor
// at the start of the body. io.EOF is returned unchanged when r ends cleanly
// before a new frame.
func ReadMessage(r io.Reader, m *protocol.Message, limits Limits) error {
	m.Reset()
	buf := m.Buffer()
	if _, err := io.ReadFull(r, buf[:protocol.HeaderLength]); err != nil {
		switch {
		case err == io.EOF:
			return io.EOF
		case errors.Is(err, io.ErrUnexpectedEOF):
			return ErrShortHeader
		default:
			return errors.Wrap(err, "frame: read header")
		}
	}

	n := m.DecodeHeader()
	if n > limits.maxPayload() {
		return errors.Wrapf(ErrPayloadTooLarge, "declared %d, max %d", n, limits.maxPayload())
	}
	if n == 0 {
		return nil
	}
	if _, err := io.ReadFull(r, buf[protocol.HeaderLength:protocol.HeaderLength+n]); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return ErrShortPayload
		}
		return errors.Wrap(err, "frame: read payload")
	}
	return nil
}

// WriteMessage stamps the header of m and writes the frame in one call.
// Messages carrying a codec failure are refused so a half-built packet never
// reaches the peer.
func WriteMessage(w io.Writer, m *protocol.Message, limits Limits) error {
	if err := m.Err(); err != nil {
		return errors.WithStack(&MessageError{Err: err})
	}
	if m.Length() > limits.maxPayload() {
		return errors.Wrapf(ErrPayloadTooLarge, "length %d, max %d", m.Length(), limits.maxPayload())
	}
	if _, err := w.Write(m.EncodeHeader()); err != nil {
		return errors.Wrap(err, "frame: write")
	}
	return nil
}
