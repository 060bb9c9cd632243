package game

// FluidColor is the client-visible fluid code sent after splash and fluid
// container item ids.
type FluidColor uint8

const (
	FluidColorEmpty FluidColor = iota
	FluidColorBlue
	FluidColorRed
	FluidColorBrown
	FluidColorGreen
	FluidColorYellow
	FluidColorWhite
	FluidColorPurple
)

// FluidType is the server-side fluid sub-type of a splash or fluid container.
// Values above 7 reuse a base color and differ only on the server.
type FluidType uint8

const (
	FluidNone     = FluidType(FluidColorEmpty)
	FluidWater    = FluidType(FluidColorBlue)
	FluidBlood    = FluidType(FluidColorRed)
	FluidBeer     = FluidType(FluidColorBrown)
	FluidSlime    = FluidType(FluidColorGreen)
	FluidLemonade = FluidType(FluidColorYellow)
	FluidMilk     = FluidType(FluidColorWhite)
	FluidMana     = FluidType(FluidColorPurple)

	FluidLife        = FluidType(FluidColorRed) + 8
	FluidOil         = FluidType(FluidColorBrown) + 8
	FluidUrine       = FluidType(FluidColorYellow) + 8
	FluidCoconutMilk = FluidType(FluidColorWhite) + 8
	FluidWine        = FluidType(FluidColorPurple) + 8

	FluidMud        = FluidType(FluidColorBrown) + 16
	FluidFruitJuice = FluidType(FluidColorYellow) + 16

	FluidLava  = FluidType(FluidColorRed) + 24
	FluidRum   = FluidType(FluidColorBrown) + 24
	FluidSwamp = FluidType(FluidColorGreen) + 24

	FluidTea  = FluidType(FluidColorBrown) + 32
	FluidMead = FluidType(FluidColorBrown) + 40
)

var fluidColors = [8]FluidColor{
	FluidColorEmpty,
	FluidColorBlue,
	FluidColorRed,
	FluidColorBrown,
	FluidColorGreen,
	FluidColorYellow,
	FluidColorWhite,
	FluidColorPurple,
}

// ClientFluidColor maps any sub-type, named or not, through the fixed color
// table indexed by subType mod 8.
func ClientFluidColor(subType uint16) FluidColor {
	return fluidColors[subType%uint16(len(fluidColors))]
}
