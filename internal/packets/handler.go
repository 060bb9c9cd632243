package packets

import (
	"context"
	"fmt"

	"github.com/danmuck/netmsg/internal/game"
	"github.com/danmuck/netmsg/internal/protocol"
	"github.com/danmuck/netmsg/internal/transport"
	"github.com/pkg/errors"
)

// Handler answers the client opcodes of this package. It implements
// transport.Handler.
type Handler struct {
	// Items names looked-at things; a nil registry describes nothing.
	Items protocol.ItemTypes
	// Stats supplies the reply to OpRequestStats.
	Stats func(conn *transport.Conn) Stats
	// AlignOutput pads every reply to the cipher block multiple.
	AlignOutput bool
}

var _ transport.Handler = (*Handler)(nil)

func (h *Handler) Handle(ctx context.Context, conn *transport.Conn, in, out *protocol.Message) error {
	op := in.GetByte()
	if err := in.Err(); err != nil {
		return err
	}

	var err error
	switch op {
	case OpPing:
		err = WritePong(out)
	case OpLookAt:
		err = h.lookAt(in, out)
	case OpRequestStats:
		err = WriteStats(out, h.stats(conn))
	default:
		return errors.Wrapf(ErrUnknownOpcode, "0x%02X", op)
	}
	if err != nil {
		return err
	}
	if h.AlignOutput {
		return WritePadding(out)
	}
	return nil
}

// lookAt replies with a description and, for known items, a tile refresh.
func (h *Handler) lookAt(in, out *protocol.Message) error {
	look, err := ReadLookAt(in)
	if err != nil {
		return err
	}
	it, ok := h.lookup(look.ItemID)
	if !ok {
		return WriteTextMessage(out, TextMessage{Class: MessageFailure, Text: "You see nothing special."})
	}
	text := fmt.Sprintf("You see %s at %s.", it.Name, look.Position)
	if err := WriteTextMessage(out, TextMessage{Class: MessageLook, Text: text}); err != nil {
		return err
	}
	return WriteTileItem(out, look.Position, game.Stack{ID: it.ID, Count: 1})
}

func (h *Handler) lookup(id uint16) (game.ItemType, bool) {
	if h.Items == nil {
		return game.ItemType{}, false
	}
	return h.Items.Lookup(id)
}

func (h *Handler) stats(conn *transport.Conn) Stats {
	if h.Stats == nil {
		return Stats{Level: 1}
	}
	return h.Stats(conn)
}
