// Package actor is the narrow player contract the simulation needs: discrete
// steps checked against the ledger, a facing, an external input lock and the
// interactions with doors and mirrors in front of it. The actor itself is not
// a ledger body; it walks through open doors and rides floors.
package actor

import (
	"math"

	log "github.com/sirupsen/logrus"
	"github.com/zucenko/lumen/door"
	"github.com/zucenko/lumen/mirror"
	"github.com/zucenko/lumen/model"
	"github.com/zucenko/lumen/occupancy"
)

type Actor struct {
	name   string
	ledger *occupancy.Ledger
	pos    model.Vec2
	cell   model.Cell
	facing model.Dir
	// turn accumulates rotator-driven facing changes in degrees
	turn   float64
	locked bool
	alive  bool

	inv     *door.Inventory
	carried *mirror.Mirror
	pushed  *mirror.Mirror
}

func New(name string, cell model.Cell, facing model.Dir, ledger *occupancy.Ledger) *Actor {
	if !facing.Valid() {
		facing = model.RIGHT
	}
	a := &Actor{
		name:   name,
		ledger: ledger,
		facing: facing,
		turn:   float64(facing) * 90,
		alive:  true,
		inv:    door.NewInventory(),
	}
	a.SetPosition(ledger.Grid().CellToWorld(cell))
	return a
}

func (a *Actor) Name() string { return a.name }
func (a *Actor) Cell() model.Cell { return a.cell }
func (a *Actor) Facing() model.Dir { return a.facing }
func (a *Actor) Locked() bool { return a.locked }
func (a *Actor) Inventory() *door.Inventory { return a.inv }
func (a *Actor) Carried() *mirror.Mirror { return a.carried }
func (a *Actor) Pushed() *mirror.Mirror { return a.pushed }
func (a *Actor) Alive() bool { return a.alive }

func (a *Actor) Position() model.Vec2 {
	return a.pos
}

func (a *Actor) SetPosition(p model.Vec2) {
	a.pos = p
	a.cell = a.ledger.Grid().WorldToCell(p)
}

func (a *Actor) SetExternalLock(on bool) {
	a.locked = on
}

// RotateFacing turns the facing with a rotating floor; it snaps to the nearest
// cardinal direction.
func (a *Actor) RotateFacing(deg float64) {
	a.turn += deg
	q := int(math.Round(a.turn / 90))
	a.facing = model.Dir(((q % 4) + 4) % 4)
}

// Face turns without moving. Pushing keeps the facing fixed.
func (a *Actor) Face(d model.Dir) bool {
	if !d.Valid() || a.locked || a.pushed != nil || !a.alive {
		return false
	}
	a.facing = d
	a.turn = float64(d) * 90
	return true
}

func (a *Actor) FrontCell() model.Cell {
	return a.cell.Neighbor(a.facing)
}

// Step moves one cell in d. While pushing, input off the push axis is
// dropped and the mirror must be able to move along too.
func (a *Actor) Step(d model.Dir) bool {
	if !d.Valid() || a.locked || !a.alive {
		return false
	}
	delta := d.Cell()
	if a.pushed != nil {
		v := a.pushed.LockAxis(d.Vec())
		if v == (model.Vec2{}) {
			return false
		}
		if !a.pushed.CanMoveWithPusher(delta) {
			log.WithFields(log.Fields{"actor": a.name, "dir": d.Name()}).Debug("pushed mirror cannot move")
			return false
		}
	} else {
		a.Face(d)
	}
	target := a.cell.Add(delta)
	if !a.ledger.IsPassable(target) {
		return false
	}
	a.SetPosition(a.ledger.Grid().CellToWorld(target))
	for _, m := range []*mirror.Mirror{a.carried, a.pushed} {
		if m != nil {
			m.Update(0)
		}
	}
	return true
}

// Interact does the first thing that applies: drop the carried mirror, end the
// push, open or close the door in front, pick up or start pushing the mirror
// in front.
func (a *Actor) Interact() bool {
	if a.locked || !a.alive {
		return false
	}
	front := a.FrontCell()
	if a.carried != nil {
		if !a.carried.Drop(front) {
			return false
		}
		a.carried = nil
		return true
	}
	if a.pushed != nil {
		if !a.pushed.EndPush() {
			return false
		}
		a.pushed = nil
		return true
	}
	rec, ok := a.ledger.RecordAt(front)
	if !ok {
		return false
	}
	switch owner := rec.Body.Owner.(type) {
	case *door.Door:
		if owner.Solid() {
			return owner.Interact(a.inv)
		}
		return owner.Close()
	case *mirror.Mirror:
		if owner.Modes().Has(mirror.MODE_CARRY) {
			if owner.PickUp(a) {
				a.carried = owner
				return true
			}
			return false
		}
		if owner.Modes().Has(mirror.MODE_PUSH) && owner.BeginPush(a, a.facing) {
			a.pushed = owner
			return true
		}
	}
	return false
}

// RotateMirror turns the registered mirror in front one step.
func (a *Actor) RotateMirror() bool {
	if a.locked || !a.alive {
		return false
	}
	rec, ok := a.ledger.RecordAt(a.FrontCell())
	if !ok {
		return false
	}
	m, ok := rec.Body.Owner.(*mirror.Mirror)
	if !ok {
		return false
	}
	m.Rotate()
	return true
}

// Destroy removes the actor. A carried or pushed mirror is dropped where it is
// on its next update.
func (a *Actor) Destroy() {
	a.alive = false
	a.carried = nil
	a.pushed = nil
}
