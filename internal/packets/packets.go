// Package packets is the small opcode catalogue served over the message codec.
package packets

import (
	"fmt"

	"github.com/danmuck/netmsg/internal/game"
	"github.com/danmuck/netmsg/internal/protocol"
	"github.com/pkg/errors"
)

// Client opcodes.
const (
	OpPing         byte = 0x1E
	OpLookAt       byte = 0x8C
	OpRequestStats byte = 0xA1
)

// Server opcodes.
const (
	OpPong        byte = 0x1E
	OpTileItem    byte = 0x6A
	OpStats       byte = 0xA0
	OpTextMessage byte = 0xB4
)

// Text message classes.
const (
	MessageLook    byte = 0x13
	MessageFailure byte = 0x14
)

var (
	ErrUnknownOpcode  = errors.New("packets: unknown opcode")
	ErrUnexpectedType = errors.New("packets: unexpected server opcode")
)

// LookAt is the client's request to describe a thing on a tile.
type LookAt struct {
	Position   game.Position
	ItemID     uint16
	StackIndex uint8
}

type Stats struct {
	Level   uint16
	Percent float64
}

type TextMessage struct {
	Class byte
	Text  string
}

func WritePing(m *protocol.Message) error {
	return m.AddByte(OpPing)
}

func WriteLookAt(m *protocol.Message, look LookAt) error {
	_ = m.AddByte(OpLookAt)
	_ = m.AddPosition(look.Position)
	_ = m.AddUint16(look.ItemID)
	_ = m.AddByte(look.StackIndex)
	return m.Err()
}

func WriteStatsRequest(m *protocol.Message) error {
	return m.AddByte(OpRequestStats)
}

// ReadLookAt decodes the body that follows OpLookAt.
func ReadLookAt(m *protocol.Message) (LookAt, error) {
	look := LookAt{
		Position:   m.GetPosition(),
		ItemID:     m.GetUint16(),
		StackIndex: m.GetByte(),
	}
	if err := m.Err(); err != nil {
		return LookAt{}, err
	}
	return look, nil
}

func WritePong(m *protocol.Message) error {
	return m.AddByte(OpPong)
}

func WriteTextMessage(m *protocol.Message, msg TextMessage) error {
	_ = m.AddByte(OpTextMessage)
	_ = m.AddByte(msg.Class)
	_ = m.AddString(msg.Text)
	return m.Err()
}

// WriteTileItem announces item at pos with the registry-driven item encoding.
func WriteTileItem(m *protocol.Message, pos game.Position, item game.Item) error {
	_ = m.AddByte(OpTileItem)
	_ = m.AddPosition(pos)
	_ = m.AddItemInstance(item)
	return m.Err()
}

// WriteStats sends level and the progress percent as a fixed-point double.
func WriteStats(m *protocol.Message, stats Stats) error {
	_ = m.AddByte(OpStats)
	_ = m.AddUint16(stats.Level)
	_ = m.AddDoubleDefault(stats.Percent)
	return m.Err()
}

// WritePadding pads the body to the cipher block multiple.
func WritePadding(m *protocol.Message) error {
	n := (protocol.XTEAMultiple - m.Length()%protocol.XTEAMultiple) % protocol.XTEAMultiple
	if n == 0 {
		return m.Err()
	}
	return m.AddPaddingBytes(n)
}

func ReadTextMessage(m *protocol.Message) (TextMessage, error) {
	msg := TextMessage{
		Class: m.GetByte(),
		Text:  m.GetString(0),
	}
	if err := m.Err(); err != nil {
		return TextMessage{}, err
	}
	return msg, nil
}

func ReadStats(m *protocol.Message) (Stats, error) {
	stats := Stats{
		Level:   m.GetUint16(),
		Percent: m.GetDouble(),
	}
	if err := m.Err(); err != nil {
		return Stats{}, err
	}
	return stats, nil
}

// ReadServerOpcode reads the leading opcode of a server packet and checks it
// against want.
func ReadServerOpcode(m *protocol.Message, want byte) error {
	op := m.GetByte()
	if err := m.Err(); err != nil {
		return err
	}
	if op != want {
		return errors.Wrap(ErrUnexpectedType, fmt.Sprintf("got 0x%02X, want 0x%02X", op, want))
	}
	return nil
}
