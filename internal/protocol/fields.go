package protocol

import (
	"encoding/binary"
	"fmt"

	"github.com/danmuck/netmsg/internal/game"
)

const positionSize = 2 + 2 + 1

// GetPosition reads x, y (uint16) and z (uint8) in that order.
func (m *Message) GetPosition() game.Position {
	b, ok := m.read(positionSize)
	if !ok {
		return game.Position{}
	}
	return game.Position{
		X: binary.LittleEndian.Uint16(b[0:2]),
		Y: binary.LittleEndian.Uint16(b[2:4]),
		Z: b[4],
	}
}

func (m *Message) AddPosition(pos game.Position) error {
	b, err := m.reserve(positionSize)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint16(b[0:2], pos.X)
	binary.LittleEndian.PutUint16(b[2:4], pos.Y)
	b[4] = pos.Z
	return nil
}

// AddItem writes the client id of item type id followed by count (stackable)
// or the fluid color of count (splash, fluid container).
func (m *Message) AddItem(id, count uint16) error {
	it, err := m.itemType(id)
	if err != nil {
		return err
	}
	return m.addItemType(it, count, count)
}

// AddItemInstance is AddItem for an item instance; fluids use its fluid type.
func (m *Message) AddItemInstance(item game.Item) error {
	it, err := m.itemType(item.ItemID())
	if err != nil {
		return err
	}
	return m.addItemType(it, item.ItemCount(), uint16(item.FluidType()))
}

// AddItemID writes only the client id, whatever the item flags.
func (m *Message) AddItemID(id uint16) error {
	it, err := m.itemType(id)
	if err != nil {
		return err
	}
	return m.AddUint16(it.ClientID)
}

func (m *Message) AddItemIDOf(item game.Item) error {
	return m.AddItemID(item.ItemID())
}

func (m *Message) addItemType(it game.ItemType, count, subType uint16) error {
	var trailer byte
	switch {
	case it.Stackable:
		trailer = byte(min(count, 0xFF))
	case it.IsSplash() || it.IsFluidContainer():
		trailer = byte(game.ClientFluidColor(subType))
	default:
		return m.AddUint16(it.ClientID)
	}
	b, err := m.reserve(3)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint16(b[0:2], it.ClientID)
	b[2] = trailer
	return nil
}

func (m *Message) itemType(id uint16) (game.ItemType, error) {
	if err := m.blocked(); err != nil {
		return game.ItemType{}, err
	}
	if m.items == nil {
		return game.ItemType{}, m.fail(fmt.Errorf("%w: item %d", ErrNoItemTypes, id))
	}
	it, ok := m.items.Lookup(id)
	if !ok {
		return game.ItemType{}, m.fail(fmt.Errorf("%w: item %d", ErrUnknownItem, id))
	}
	return it, nil
}
