package protocol

import "errors"

var (
	ErrReadOverflow    = errors.New("protocol: read past declared length")
	ErrWriteOverflow   = errors.New("protocol: write past buffer capacity")
	ErrLimitExceeded   = errors.New("protocol: payload exceeds protocol limit")
	ErrValueOutOfRange = errors.New("protocol: value out of wire range")
	ErrUnknownItem     = errors.New("protocol: unknown item type")
	ErrNoItemTypes     = errors.New("protocol: no item types configured")
	ErrPaddingSealed   = errors.New("protocol: write after trailing padding")
)

// ErrorKind returns a stable label for err's class, for metrics and logs.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, ErrReadOverflow):
		return "read_overflow"
	case errors.Is(err, ErrWriteOverflow):
		return "write_overflow"
	case errors.Is(err, ErrLimitExceeded):
		return "limit_exceeded"
	case errors.Is(err, ErrValueOutOfRange):
		return "value_out_of_range"
	case errors.Is(err, ErrUnknownItem):
		return "unknown_item"
	case errors.Is(err, ErrNoItemTypes):
		return "no_item_types"
	case errors.Is(err, ErrPaddingSealed):
		return "padding_sealed"
	default:
		return "other"
	}
}
