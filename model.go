package main

import (
	"image/color"

	"github.com/zucenko/lumen/model"
)

const (
	size = 40
	hud  = 64
)

var (
	COLOR_FLOOR   = color.RGBA{0x2a, 0x2a, 0x2e, 0xff}
	COLOR_WALL    = color.RGBA{0x44, 0x44, 0x44, 0xff}
	COLOR_MIRROR  = color.RGBA{0x9e, 0xd8, 0xf0, 0xff}
	COLOR_BEAM    = color.RGBA{0xfa, 0x36, 0x36, 0xff}
	COLOR_DOOR    = color.RGBA{0xa0, 0x6a, 0x2c, 0xff}
	COLOR_LOCKED  = color.RGBA{0x6a, 0x2c, 0x2c, 0xff}
	COLOR_SWITCH  = color.RGBA{0x32, 0x1e, 0xcc, 0xff}
	COLOR_LIT     = color.RGBA{0xed, 0xbc, 0x1e, 0xff}
	COLOR_FLOORS  = color.RGBA{0x0a, 0xbd, 0x38, 0x60}
	COLOR_PLAYER  = color.RGBA{0xcb, 0x18, 0xdd, 0xff}
	COLOR_EMITTER = color.RGBA{0xfa, 0x36, 0x36, 0xff}
)

// View maps world coordinates, y up, onto the screen, y down, below the HUD.
type View struct {
	Setup model.Setup
}

func (v View) ScreenSize() (int, int) {
	return v.Setup.Width * size, v.Setup.Height*size + hud
}

func (v View) ToScreen(p model.Vec2) (float64, float64) {
	cs := v.Setup.CellSize
	x := (p.X - v.Setup.Origin.X) / cs * size
	y := float64(v.Setup.Height)*size - (p.Y-v.Setup.Origin.Y)/cs*size
	return x, y + hud
}

// CellRect is the top-left corner of c on screen.
func (v View) CellRect(c model.Cell) (float64, float64) {
	return float64(c.X) * size, float64(v.Setup.Height-1-c.Y)*size + hud
}

func withAlpha(c color.RGBA, a float64) color.RGBA {
	f := func(u uint8) uint8 { return uint8(float64(u) * a) }
	return color.RGBA{f(c.R), f(c.G), f(c.B), f(c.A)}
}
