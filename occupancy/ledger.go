// Package occupancy is the single authority over which body holds which cell.
// Every position change of a registered blocking body goes through Register,
// Unregister or Move; each returns false and leaves the ledger untouched when
// the request is rejected.
package occupancy

import (
	log "github.com/sirupsen/logrus"
	"github.com/zucenko/lumen/model"
	"github.com/zyedidia/generic/mapset"
)

// Caps is what the ledger learned about a body's owner when it was registered.
type Caps struct {
	Kind      model.Kind
	Reflector model.Reflector
	Receiver  model.Receiver
	Solid     model.Solid
}

// Record is one ledger entry.
type Record struct {
	Body *model.Body
	Caps Caps
}

type Ledger struct {
	grid   model.Grid
	cells  map[model.Cell]*Record
	bodies map[*model.Body]model.Cell
	static mapset.Set[model.Cell]
}

func NewLedger(grid model.Grid) *Ledger {
	return &Ledger{
		grid:   grid,
		cells:  make(map[model.Cell]*Record),
		bodies: make(map[*model.Body]model.Cell),
		static: mapset.New[model.Cell](),
	}
}

func (l *Ledger) Grid() model.Grid {
	return l.grid
}

// SeedStatic replaces the statically blocked cells, typically the level's walls.
func (l *Ledger) SeedStatic(cells []model.Cell) {
	l.static.Clear()
	for _, c := range cells {
		l.static.Put(c)
	}
}

// AddStatic blocks c permanently. It is refused when a body already holds c.
func (l *Ledger) AddStatic(c model.Cell) bool {
	if _, held := l.cells[c]; held {
		return false
	}
	l.static.Put(c)
	return true
}

func (l *Ledger) RemoveStatic(c model.Cell) {
	l.static.Remove(c)
}

func (l *Ledger) IsStatic(c model.Cell) bool {
	return l.static.Has(c)
}

// StaticCells lists the static set, for snapshots.
func (l *Ledger) StaticCells() []model.Cell {
	out := make([]model.Cell, 0, l.static.Size())
	l.static.Each(func(c model.Cell) {
		out = append(out, c)
	})
	return out
}

// IsBlocked is true for static cells and cells held by a blocking body.
func (l *Ledger) IsBlocked(c model.Cell) bool {
	if l.static.Has(c) {
		return true
	}
	_, held := l.cells[c]
	return held
}

// IsPassable is IsBlocked relaxed for holders whose Solid reports false, such
// as an open door: walkers may enter the cell, registrations still may not.
func (l *Ledger) IsPassable(c model.Cell) bool {
	if l.static.Has(c) {
		return false
	}
	r, held := l.cells[c]
	if !held {
		return true
	}
	return r.Caps.Solid != nil && !r.Caps.Solid.Solid()
}

// IsOccupied ignores static geometry and only looks at registered bodies.
func (l *Ledger) IsOccupied(c model.Cell) bool {
	_, held := l.cells[c]
	return held
}

func (l *Ledger) OccupantOf(c model.Cell) *model.Body {
	if r, ok := l.cells[c]; ok {
		return r.Body
	}
	return nil
}

// RecordAt returns the ledger entry for c with its resolved capabilities.
func (l *Ledger) RecordAt(c model.Cell) (Record, bool) {
	r, ok := l.cells[c]
	if !ok {
		return Record{}, false
	}
	return *r, true
}

// CellOf reports the cell b is registered at.
func (l *Ledger) CellOf(b *model.Body) (model.Cell, bool) {
	c, ok := l.bodies[b]
	return c, ok
}

func (l *Ledger) IsRegistered(b *model.Body) bool {
	_, ok := l.bodies[b]
	return ok
}

func (l *Ledger) Len() int {
	return len(l.bodies)
}

// Register maps b to c. Non-blocking bodies are never tracked. A body already
// registered elsewhere is relocated in one step; its position snaps to the
// center of c.
func (l *Ledger) Register(b *model.Body, c model.Cell) bool {
	if b == nil || !b.Blocking {
		return false
	}
	if l.static.Has(c) {
		return false
	}
	if r, held := l.cells[c]; held && r.Body != b {
		return false
	}
	if prev, ok := l.bodies[b]; ok && prev != c {
		delete(l.cells, prev)
	}
	l.cells[c] = &Record{Body: b, Caps: resolveCaps(b)}
	l.bodies[b] = c
	l.place(b, c)
	return true
}

// Unregister removes b's mapping. It is a no-op when b is not registered.
func (l *Ledger) Unregister(b *model.Body) {
	if b == nil {
		return
	}
	c, ok := l.bodies[b]
	if !ok {
		return
	}
	delete(l.bodies, b)
	if r, held := l.cells[c]; held && r.Body == b {
		delete(l.cells, c)
	}
}

// UnregisterCell removes whatever body holds c.
func (l *Ledger) UnregisterCell(c model.Cell) {
	r, ok := l.cells[c]
	if !ok {
		return
	}
	delete(l.cells, c)
	delete(l.bodies, r.Body)
}

// Move relocates a registered body to target. Moving to the cell the body
// already holds succeeds without changes other than re-snapping.
func (l *Ledger) Move(b *model.Body, target model.Cell) bool {
	if b == nil {
		return false
	}
	from, ok := l.bodies[b]
	if !ok {
		return false
	}
	if from == target {
		l.place(b, target)
		return true
	}
	if l.IsBlocked(target) {
		return false
	}
	r := l.cells[from]
	delete(l.cells, from)
	l.cells[target] = r
	l.bodies[b] = target
	l.place(b, target)
	return true
}

func (l *Ledger) place(b *model.Body, c model.Cell) {
	b.Cell = c
	b.Pos = l.grid.CellToWorld(c)
}

func resolveCaps(b *model.Body) Caps {
	caps := Caps{Kind: b.Kind}
	if r, ok := b.Owner.(model.Reflector); ok {
		caps.Reflector = r
	}
	if caps.Kind == model.KIND_MIRROR && caps.Reflector == nil {
		log.WithField("body", b.Name).Error("mirror body registered without a reflector, treated as wall")
		caps.Kind = model.KIND_WALL
	}
	if b.Owner == nil {
		return caps
	}
	if h, ok := b.Owner.(model.ReceiverHolder); ok {
		caps.Receiver = h.Port()
	} else if r, ok := b.Owner.(model.Receiver); ok {
		caps.Receiver = r
	}
	if s, ok := b.Owner.(model.Solid); ok {
		caps.Solid = s
	}
	return caps
}
