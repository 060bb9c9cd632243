package game

import "testing"

func TestClientFluidColorWrapsModuloEight(t *testing.T) {
	for sub := uint16(0); sub < 64; sub++ {
		if got, want := ClientFluidColor(sub), ClientFluidColor(sub%8); got != want {
			t.Fatalf("sub-type %d got=%d want=%d", sub, got, want)
		}
	}
	cases := map[FluidType]FluidColor{
		FluidWater: FluidColorBlue,
		FluidLife:  FluidColorRed,
		FluidMead:  FluidColorBrown,
		FluidSwamp: FluidColorGreen,
		FluidWine:  FluidColorPurple,
	}
	for fluid, want := range cases {
		if got := ClientFluidColor(uint16(fluid)); got != want {
			t.Fatalf("fluid %d got=%d want=%d", fluid, got, want)
		}
	}
	if got := ClientFluidColor(0xFFFF); got != FluidColorPurple {
		t.Fatalf("max sub-type got=%d", got)
	}
}

func TestParseItemGroupRoundTrip(t *testing.T) {
	for _, g := range []ItemGroup{GroupNone, GroupGround, GroupContainer, GroupFluid, GroupSplash} {
		got, err := ParseItemGroup(g.String())
		if err != nil {
			t.Fatalf("parse %q: %v", g, err)
		}
		if got != g {
			t.Fatalf("group got=%v want=%v", got, g)
		}
	}
	if _, err := ParseItemGroup("teleport"); err == nil {
		t.Fatalf("expected unknown group error")
	}
}

func TestItemTypeFlags(t *testing.T) {
	if !(ItemType{Group: GroupSplash}).IsSplash() {
		t.Fatalf("splash flag")
	}
	if !(ItemType{Group: GroupFluid}).IsFluidContainer() {
		t.Fatalf("fluid container flag")
	}
	if (ItemType{Stackable: true}).IsSplash() {
		t.Fatalf("stackable is not splash")
	}
	if got := (Position{X: 1, Y: 2, Z: 7}).String(); got != "(1, 2, 7)" {
		t.Fatalf("position string got=%q", got)
	}
}
