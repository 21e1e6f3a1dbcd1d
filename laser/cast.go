package laser

import (
	"fmt"
	"math"

	"github.com/zucenko/lumen/model"
	"github.com/zucenko/lumen/occupancy"
)

// HitClass orders obstruction classes; a lower value wins exact distance ties.
type HitClass int

const (
	HIT_WALL HitClass = iota
	HIT_MIRROR
	HIT_DOOR
	HIT_DEVICE
)

var hitClasses = [...]HitClass{HIT_WALL, HIT_MIRROR, HIT_DOOR, HIT_DEVICE}

// tieEpsilon is how close two distances must be to count as the same.
const tieEpsilon = 1e-9

func (h HitClass) Name() string {
	switch h {
	case HIT_WALL:
		return "WALL"
	case HIT_MIRROR:
		return "MIRROR"
	case HIT_DOOR:
		return "DOOR"
	case HIT_DEVICE:
		return "DEVICE"
	default:
		return fmt.Sprintf("n/a:%d", h)
	}
}

type Hit struct {
	Class    HitClass
	Cell     model.Cell
	Point    model.Vec2
	Distance float64
	Record   occupancy.Record
}

// nearest casts every class independently and keeps the closest hit.
func (s *Solver) nearest(origin model.Vec2, dir model.Dir) (Hit, bool) {
	var best Hit
	found := false
	for _, class := range hitClasses {
		h, ok := s.cast(origin, dir, class)
		if !ok {
			continue
		}
		if !found || closer(h, best) {
			best = h
			found = true
		}
	}
	return best, found
}

func closer(a, b Hit) bool {
	if math.Abs(a.Distance-b.Distance) <= tieEpsilon {
		return a.Class < b.Class
	}
	return a.Distance < b.Distance
}

// cast marches cells along dir and returns the first cell of the given class
// whose hit point lies strictly ahead of origin and within range. Walls are hit
// on the face the beam enters through, everything else at the cell center.
func (s *Solver) cast(origin model.Vec2, dir model.Dir, class HitClass) (Hit, bool) {
	grid := s.ledger.Grid()
	step := dir.Cell()
	dv := dir.Vec()
	half := grid.CellSize / 2
	start := grid.WorldToCell(origin)
	limit := int(math.Ceil(s.cfg.MaxDistance/grid.CellSize)) + 1

	for k := -1; k <= limit; k++ {
		c := model.Cell{X: start.X + step.X*k, Y: start.Y + step.Y*k}
		center := grid.CellToWorld(c)
		if center.Sub(origin).Dot(dv)-half > s.cfg.MaxDistance {
			break
		}
		rec, held := s.ledger.RecordAt(c)
		if !matches(class, s.ledger.IsStatic(c), rec, held) {
			continue
		}
		point := center
		if class == HIT_WALL {
			point = center.Sub(dv.Scale(half))
		}
		d := point.Sub(origin).Dot(dv)
		if d <= tieEpsilon || d > s.cfg.MaxDistance {
			continue
		}
		return Hit{Class: class, Cell: c, Point: point, Distance: d, Record: rec}, true
	}
	return Hit{}, false
}

func matches(class HitClass, static bool, rec occupancy.Record, held bool) bool {
	if class == HIT_WALL && static {
		return true
	}
	if !held {
		return false
	}
	if rec.Caps.Solid != nil && !rec.Caps.Solid.Solid() {
		return false
	}
	switch class {
	case HIT_WALL:
		return rec.Caps.Kind == model.KIND_WALL
	case HIT_MIRROR:
		return rec.Caps.Kind == model.KIND_MIRROR
	case HIT_DOOR:
		return rec.Caps.Kind == model.KIND_DOOR
	case HIT_DEVICE:
		return rec.Caps.Kind == model.KIND_DEVICE
	}
	return false
}
