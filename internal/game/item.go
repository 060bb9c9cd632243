package game

import (
	"fmt"
	"strings"
)

// ItemGroup classifies item types by how they render on the wire.
type ItemGroup uint8

const (
	GroupNone ItemGroup = iota
	GroupGround
	GroupContainer
	GroupFluid
	GroupSplash
)

func (g ItemGroup) String() string {
	switch g {
	case GroupNone:
		return "none"
	case GroupGround:
		return "ground"
	case GroupContainer:
		return "container"
	case GroupFluid:
		return "fluid"
	case GroupSplash:
		return "splash"
	default:
		return fmt.Sprintf("group(%d)", uint8(g))
	}
}

// ParseItemGroup accepts the names produced by ItemGroup.String. An empty
// name is GroupNone.
func ParseItemGroup(raw string) (ItemGroup, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "none":
		return GroupNone, nil
	case "ground":
		return GroupGround, nil
	case "container":
		return GroupContainer, nil
	case "fluid", "fluid_container":
		return GroupFluid, nil
	case "splash":
		return GroupSplash, nil
	default:
		return GroupNone, fmt.Errorf("game: unknown item group %q", raw)
	}
}

// ItemType is one registry entry: the server id, the id the client knows the
// item by, and the flags that decide its trailing wire byte.
type ItemType struct {
	ID        uint16
	ClientID  uint16
	Name      string
	Stackable bool
	Group     ItemGroup
}

func (t ItemType) IsSplash() bool {
	return t.Group == GroupSplash
}

func (t ItemType) IsFluidContainer() bool {
	return t.Group == GroupFluid
}

// Item is the view of an item instance the codecs need.
type Item interface {
	ItemID() uint16
	ItemCount() uint16
	FluidType() FluidType
}

// Stack is a plain item instance.
type Stack struct {
	ID    uint16
	Count uint16
	Fluid FluidType
}

var _ Item = Stack{}

func (s Stack) ItemID() uint16 {
	return s.ID
}

func (s Stack) ItemCount() uint16 {
	return s.Count
}

func (s Stack) FluidType() FluidType {
	return s.Fluid
}
