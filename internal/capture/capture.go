// Package capture stores framed messages in zstd-compressed files so traffic
// can be replayed through the codec later.
//
// A capture starts with Magic. Each record is a direction byte, the unix
// millisecond timestamp as a little-endian uint64, and the frame exactly as
// it crossed the wire (length header included).
package capture

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/danmuck/netmsg/internal/protocol"
	"github.com/danmuck/netmsg/internal/protocol/frame"
	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
)

// Magic identifies a capture stream and its record layout version.
var Magic = [6]byte{'N', 'M', 'C', 'A', 'P', 1}

const recordPrefix = 1 + 8

var (
	ErrBadMagic     = errors.New("capture: not a capture stream")
	ErrTruncated    = errors.New("capture: truncated record")
	ErrBadDirection = errors.New("capture: invalid direction")
	ErrClosed       = errors.New("capture: writer closed")
)

type Direction uint8

const (
	Inbound Direction = iota + 1
	Outbound
)

func (d Direction) String() string {
	switch d {
	case Inbound:
		return "in"
	case Outbound:
		return "out"
	default:
		return fmt.Sprintf("direction(%d)", uint8(d))
	}
}

func (d Direction) valid() bool {
	return d == Inbound || d == Outbound
}

// Record describes one captured frame.
type Record struct {
	Direction Direction
	Time      time.Time
	Length    int
}

// Writer appends records to a compressed stream. It is safe for concurrent use.
type Writer struct {
	mu     sync.Mutex
	enc    *zstd.Encoder
	file   io.Closer
	now    func() time.Time
	closed bool
	count  int
}

func NewWriter(w io.Writer) (*Writer, error) {
	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, errors.Wrap(err, "capture: new encoder")
	}
	if _, err := enc.Write(Magic[:]); err != nil {
		enc.Close()
		return nil, errors.Wrap(err, "capture: write magic")
	}
	return &Writer{enc: enc, now: time.Now}, nil
}

// Create truncates path and returns a Writer that owns the file.
func Create(path string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrapf(err, "capture: create %s", path)
	}
	w, err := NewWriter(f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	w.file = f
	return w, nil
}

// Record appends one wire frame. The frame is copied into the encoder before
// Record returns, so callers may reuse the slice.
func (w *Writer) Record(dir Direction, wire []byte) error {
	if !dir.valid() {
		return errors.Wrapf(ErrBadDirection, "record %d", uint8(dir))
	}
	var prefix [recordPrefix]byte
	prefix[0] = byte(dir)

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrClosed
	}
	binary.LittleEndian.PutUint64(prefix[1:], uint64(w.now().UnixMilli()))
	if _, err := w.enc.Write(prefix[:]); err != nil {
		return errors.Wrap(err, "capture: write record")
	}
	if _, err := w.enc.Write(wire); err != nil {
		return errors.Wrap(err, "capture: write frame")
	}
	w.count++
	return nil
}

func (w *Writer) Count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.count
}

func (w *Writer) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrClosed
	}
	return errors.Wrap(w.enc.Flush(), "capture: flush")
}

// Close finishes the zstd stream and closes the file when the Writer owns one.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	err := w.enc.Close()
	if w.file != nil {
		if cerr := w.file.Close(); err == nil {
			err = cerr
		}
	}
	return errors.Wrap(err, "capture: close")
}

// Reader replays a capture stream record by record.
type Reader struct {
	dec  *zstd.Decoder
	file io.Closer
}

func NewReader(r io.Reader) (*Reader, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, errors.Wrap(err, "capture: new decoder")
	}
	var magic [len(Magic)]byte
	if _, err := io.ReadFull(dec, magic[:]); err != nil || magic != Magic {
		dec.Close()
		return nil, ErrBadMagic
	}
	return &Reader{dec: dec}, nil
}

func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "capture: open %s", path)
	}
	r, err := NewReader(f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	r.file = f
	return r, nil
}

// Next loads the next captured frame into m with the cursor at the body
// start. It returns io.EOF after the last record.
func (r *Reader) Next(m *protocol.Message) (Record, error) {
	var prefix [recordPrefix]byte
	if _, err := io.ReadFull(r.dec, prefix[:]); err != nil {
		if err == io.EOF {
			return Record{}, io.EOF
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return Record{}, ErrTruncated
		}
		return Record{}, errors.Wrap(err, "capture: read record")
	}
	rec := Record{
		Direction: Direction(prefix[0]),
		Time:      time.UnixMilli(int64(binary.LittleEndian.Uint64(prefix[1:]))),
	}
	if !rec.Direction.valid() {
		return Record{}, errors.Wrapf(ErrBadDirection, "read %d", prefix[0])
	}
	if err := frame.ReadMessage(r.dec, m, frame.DefaultLimits()); err != nil {
		if err == io.EOF || errors.Is(err, frame.ErrShortHeader) || errors.Is(err, frame.ErrShortPayload) {
			return Record{}, ErrTruncated
		}
		return Record{}, err
	}
	rec.Length = m.Length()
	return rec, nil
}

func (r *Reader) Close() error {
	r.dec.Close()
	if r.file != nil {
		return r.file.Close()
	}
	return nil
}
