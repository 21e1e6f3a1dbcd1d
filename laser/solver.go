// Package laser walks emitter beams through the occupancy ledger, bouncing off
// mirrors, and tells receivers when a beam starts or stops reaching them.
package laser

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/zucenko/lumen/model"
	"github.com/zucenko/lumen/occupancy"
	"github.com/zyedidia/generic/mapset"
)

// maxPasses bounds the straight segments of one trace independently of the
// bounce limit; pass-through hits do not count as bounces.
const maxPasses = 256

type Config struct {
	MaxDistance      float64 `toml:"laser_max_distance"`
	MaxBounce        int     `toml:"laser_max_bounce"`
	ReflectionOffset float64 `toml:"laser_reflection_offset"`
}

func DefaultConfig() Config {
	return Config{
		MaxDistance:      100,
		MaxBounce:        10,
		ReflectionOffset: 0.1,
	}
}

func (c Config) Validate(cellSize float64) error {
	if c.MaxDistance <= 0 {
		return fmt.Errorf("laser max distance must be positive, got %v", c.MaxDistance)
	}
	if c.MaxBounce <= 0 {
		return fmt.Errorf("laser max bounce must be positive, got %d", c.MaxBounce)
	}
	if c.ReflectionOffset <= 0 || c.ReflectionOffset >= cellSize/2 {
		return fmt.Errorf("laser reflection offset must be in (0, %v), got %v", cellSize/2, c.ReflectionOffset)
	}
	return nil
}

// Emitter is a fixed source shooting along one cardinal direction from the
// center of its cell.
type Emitter struct {
	Name string
	Cell model.Cell
	Dir  model.Dir

	path []model.Vec2
}

func NewEmitter(name string, cell model.Cell, dir model.Dir) *Emitter {
	return &Emitter{Name: name, Cell: cell, Dir: dir}
}

// Path returns the points of the last solve pass.
func (e *Emitter) Path() []model.Vec2 {
	out := make([]model.Vec2, len(e.path))
	copy(out, e.path)
	return out
}

// litSet keeps hit order for deterministic notification and a set for lookup.
type litSet struct {
	order []model.Receiver
	set   mapset.Set[model.Receiver]
}

func newLitSet() *litSet {
	return &litSet{set: mapset.New[model.Receiver]()}
}

func (s *litSet) add(r model.Receiver) {
	if s.set.Has(r) {
		return
	}
	s.set.Put(r)
	s.order = append(s.order, r)
}

type Solver struct {
	cfg      Config
	ledger   *occupancy.Ledger
	emitters []*Emitter
	lit      map[*Emitter]*litSet
	dirty    bool
	passes   int
}

func NewSolver(ledger *occupancy.Ledger, cfg Config) *Solver {
	return &Solver{
		cfg:    cfg,
		ledger: ledger,
		lit:    make(map[*Emitter]*litSet),
		dirty:  true,
	}
}

// Listen marks the solver dirty whenever sig is raised.
func (s *Solver) Listen(sig *model.Signal) int {
	return sig.Subscribe(s.MarkDirty)
}

func (s *Solver) MarkDirty() {
	s.dirty = true
}

func (s *Solver) Dirty() bool {
	return s.dirty
}

// Passes counts recomputations performed so far.
func (s *Solver) Passes() int {
	return s.passes
}

func (s *Solver) Emitters() []*Emitter {
	return s.emitters
}

func (s *Solver) Register(e *Emitter) {
	for _, have := range s.emitters {
		if have == e {
			return
		}
	}
	s.emitters = append(s.emitters, e)
	s.MarkDirty()
}

// Unregister drops e. Every receiver e was still lighting gets its exit now,
// without waiting for the next pass.
func (s *Solver) Unregister(e *Emitter) {
	idx := -1
	for i, have := range s.emitters {
		if have == e {
			idx = i
			break
		}
	}
	if idx < 0 {
		return
	}
	s.emitters = append(s.emitters[:idx], s.emitters[idx+1:]...)
	if prev, ok := s.lit[e]; ok {
		for _, r := range prev.order {
			if model.IsAlive(r) {
				r.LaserExit()
			}
		}
		delete(s.lit, e)
	}
	e.path = nil
	s.MarkDirty()
}

// Illuminated lists the receivers e reached on the last pass.
func (s *Solver) Illuminated(e *Emitter) []model.Receiver {
	set, ok := s.lit[e]
	if !ok {
		return nil
	}
	out := make([]model.Receiver, len(set.order))
	copy(out, set.order)
	return out
}

// Step recomputes every beam once if anything changed since the last call.
// It reports whether a pass ran.
func (s *Solver) Step() bool {
	if !s.dirty {
		return false
	}
	s.dirty = false
	s.passes++
	for _, e := range s.emitters {
		s.solve(e)
	}
	return true
}

func (s *Solver) solve(e *Emitter) {
	points, now := s.trace(e.Cell, e.Dir)
	e.path = points

	prev := s.lit[e]
	for _, r := range now.order {
		if prev != nil && prev.set.Has(r) {
			continue
		}
		if model.IsAlive(r) {
			r.LaserEnter()
		}
	}
	if prev != nil {
		for _, r := range prev.order {
			if now.set.Has(r) {
				continue
			}
			if model.IsAlive(r) {
				r.LaserExit()
			}
		}
	}
	s.lit[e] = now
}

// Trace walks one beam without touching receiver state and returns its points
// and the receivers it reached, in hit order.
func (s *Solver) Trace(cell model.Cell, dir model.Dir) ([]model.Vec2, []model.Receiver) {
	points, lit := s.trace(cell, dir)
	return points, lit.order
}

func (s *Solver) trace(cell model.Cell, dir model.Dir) ([]model.Vec2, *litSet) {
	grid := s.ledger.Grid()
	origin := grid.CellToWorld(cell)
	points := []model.Vec2{origin}
	lit := newLitSet()

	if !dir.Valid() {
		log.WithField("cell", cell).Warn("emitter without a cardinal direction")
		return points, lit
	}

	bounces := 0
	for pass := 0; pass < maxPasses && bounces < s.cfg.MaxBounce; pass++ {
		hit, ok := s.nearest(origin, dir)
		if !ok {
			points = append(points, origin.Add(dir.Vec().Scale(s.cfg.MaxDistance)))
			break
		}
		if hit.Record.Caps.Receiver != nil {
			lit.add(hit.Record.Caps.Receiver)
		}

		switch hit.Class {
		case HIT_WALL:
			points = append(points, hit.Point)
			return points, lit
		case HIT_DOOR, HIT_DEVICE:
			origin = hit.Point.Add(dir.Vec().Scale(s.cfg.ReflectionOffset))
			points = append(points, origin)
		case HIT_MIRROR:
			points = append(points, hit.Point)
			if hit.Record.Caps.Reflector == nil {
				return points, lit
			}
			dir = hit.Record.Caps.Reflector.Reflect(dir)
			origin = hit.Point.Add(dir.Vec().Scale(s.cfg.ReflectionOffset))
			bounces++
		}
	}
	return points, lit
}
