package protocol

import "github.com/danmuck/netmsg/internal/game"

const (
	// MaxSize is the physical capacity of one message buffer.
	MaxSize = 24590

	// HeaderLength is the little-endian uint16 payload length at offset 0.
	HeaderLength   = 2
	ChecksumLength = 4
	XTEAMultiple   = 8

	// MaxBodyLength bounds encoding; the tail is left for checksum and cipher padding.
	MaxBodyLength = MaxSize - HeaderLength - ChecksumLength - XTEAMultiple

	MaxStringLength = 8192
	MaxRawLength    = 8192

	PaddingByte byte = 0x33

	DefaultDoublePrecision uint8 = 2
)

// Mode selects what happens after the first failed access.
type Mode int

const (
	// ModePermissive keeps the wire-compatible behavior: the failed access is a
	// no-op and later accesses that fit still proceed.
	ModePermissive Mode = iota
	// ModeStrict turns every access after the first failure into a no-op that
	// reports the stored error.
	ModeStrict
)

func (m Mode) String() string {
	switch m {
	case ModePermissive:
		return "permissive"
	case ModeStrict:
		return "strict"
	default:
		return "unknown"
	}
}

// ItemTypes resolves server item ids to registry entries. Implementations
// must be safe for concurrent reads.
type ItemTypes interface {
	Lookup(id uint16) (game.ItemType, bool)
}

// Unsigned is the set of fixed-width integers the generic accessors accept.
type Unsigned interface {
	~uint8 | ~uint16 | ~uint32 | ~uint64
}
