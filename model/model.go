package model

import (
	"fmt"
	"math"
)

// Cell is an integer lattice coordinate. It carries no state of its own and is
// the identity key of the occupancy ledger.
type Cell struct {
	X, Y int
}

func (c Cell) Add(o Cell) Cell {
	return Cell{X: c.X + o.X, Y: c.Y + o.Y}
}

func (c Cell) Sub(o Cell) Cell {
	return Cell{X: c.X - o.X, Y: c.Y - o.Y}
}

// Neighbor returns the adjacent cell in direction d.
func (c Cell) Neighbor(d Dir) Cell {
	return c.Add(d.Cell())
}

// RotateQuarter rotates c around the origin by quarters*90 degrees
// counter-clockwise using integer arithmetic only.
func (c Cell) RotateQuarter(quarters int) Cell {
	q := ((quarters % 4) + 4) % 4
	switch q {
	case 1:
		return Cell{X: -c.Y, Y: c.X}
	case 2:
		return Cell{X: -c.X, Y: -c.Y}
	case 3:
		return Cell{X: c.Y, Y: -c.X}
	}
	return c
}

func (c Cell) String() string {
	return fmt.Sprintf("(%d,%d)", c.X, c.Y)
}

// Dir is one of the four cardinal directions. The numbering follows the
// counter-clockwise order so (d+2)%4 is the opposite direction.
type Dir int

const (
	RIGHT Dir = iota
	UP
	LEFT
	DOWN
	NO_DIR Dir = -1
)

var dirCells = [4]Cell{{1, 0}, {0, 1}, {-1, 0}, {0, -1}}

func (d Dir) Valid() bool {
	return d >= RIGHT && d <= DOWN
}

func (d Dir) Opposite() Dir {
	if !d.Valid() {
		return d
	}
	return (d + 2) % 4
}

// Horizontal reports whether d lies on the x axis.
func (d Dir) Horizontal() bool {
	return d == RIGHT || d == LEFT
}

func (d Dir) Cell() Cell {
	if !d.Valid() {
		return Cell{}
	}
	return dirCells[d]
}

func (d Dir) Vec() Vec2 {
	c := d.Cell()
	return Vec2{X: float64(c.X), Y: float64(c.Y)}
}

func (d Dir) Name() string {
	switch d {
	case RIGHT:
		return "RIGHT"
	case UP:
		return "UP"
	case LEFT:
		return "LEFT"
	case DOWN:
		return "DOWN"
	default:
		return fmt.Sprintf("n/a:%d", d)
	}
}

// DirOf snaps v to the cardinal direction of its dominant axis.
// A vector with no dominant component returns NO_DIR.
func DirOf(v Vec2) Dir {
	ax, ay := math.Abs(v.X), math.Abs(v.Y)
	switch {
	case ax > ay:
		if v.X > 0 {
			return RIGHT
		}
		return LEFT
	case ay > ax:
		if v.Y > 0 {
			return UP
		}
		return DOWN
	}
	return NO_DIR
}

// Vec2 is a continuous world position or displacement.
type Vec2 struct {
	X, Y float64
}

func (v Vec2) Add(o Vec2) Vec2 {
	return Vec2{X: v.X + o.X, Y: v.Y + o.Y}
}

func (v Vec2) Sub(o Vec2) Vec2 {
	return Vec2{X: v.X - o.X, Y: v.Y - o.Y}
}

func (v Vec2) Scale(f float64) Vec2 {
	return Vec2{X: v.X * f, Y: v.Y * f}
}

func (v Vec2) Dot(o Vec2) float64 {
	return v.X*o.X + v.Y*o.Y
}

func (v Vec2) Len() float64 {
	return math.Hypot(v.X, v.Y)
}

func (v Vec2) Normalized() Vec2 {
	l := v.Len()
	if l == 0 {
		return Vec2{}
	}
	return v.Scale(1 / l)
}

// Rotate turns v counter-clockwise by deg degrees.
func (v Vec2) Rotate(deg float64) Vec2 {
	s, c := math.Sincos(deg * math.Pi / 180)
	return Vec2{X: v.X*c - v.Y*s, Y: v.X*s + v.Y*c}
}

// Lerp interpolates between a and b, t in [0,1].
func Lerp(a, b Vec2, t float64) Vec2 {
	return a.Add(b.Sub(a).Scale(t))
}

// MoveTowards steps cur towards target by at most step without overshooting.
func MoveTowards(cur, target Vec2, step float64) Vec2 {
	d := target.Sub(cur)
	l := d.Len()
	if l <= step+1e-9 {
		return target
	}
	return cur.Add(d.Scale(step / l))
}

func (v Vec2) String() string {
	return fmt.Sprintf("(%.3f,%.3f)", v.X, v.Y)
}

// Grid converts between lattice cells and world positions. Cell (0,0) spans
// [Origin, Origin+CellSize) on both axes.
type Grid struct {
	Origin   Vec2
	CellSize float64
}

func NewGrid(origin Vec2, cellSize float64) Grid {
	if cellSize <= 0 {
		cellSize = 1
	}
	return Grid{Origin: origin, CellSize: cellSize}
}

// CellToWorld returns the world center of c.
func (g Grid) CellToWorld(c Cell) Vec2 {
	return Vec2{
		X: g.Origin.X + (float64(c.X)+0.5)*g.CellSize,
		Y: g.Origin.Y + (float64(c.Y)+0.5)*g.CellSize,
	}
}

// WorldToCell returns the cell containing p.
func (g Grid) WorldToCell(p Vec2) Cell {
	return Cell{
		X: int(math.Floor((p.X - g.Origin.X) / g.CellSize)),
		Y: int(math.Floor((p.Y - g.Origin.Y) / g.CellSize)),
	}
}

// Snap moves p onto the center of the cell containing it.
func (g Grid) Snap(p Vec2) Vec2 {
	return g.CellToWorld(g.WorldToCell(p))
}

// Contains reports whether p lies inside cell c.
func (g Grid) Contains(c Cell, p Vec2) bool {
	return g.WorldToCell(p) == c
}
