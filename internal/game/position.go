package game

import "fmt"

// Position is one map coordinate: two horizontal axes and a floor.
type Position struct {
	X uint16
	Y uint16
	Z uint8
}

func (p Position) String() string {
	return fmt.Sprintf("(%d, %d, %d)", p.X, p.Y, p.Z)
}
