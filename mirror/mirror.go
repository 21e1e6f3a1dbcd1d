// Package mirror holds the reflecting entities and the three ways a player or
// a script can relocate one: carry, push and path-follow. A mirror is either
// registered in the occupancy ledger or attached to an anchor, never both.
package mirror

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/zucenko/lumen/model"
	"github.com/zucenko/lumen/occupancy"
)

// Modes is the set of interactions a mirror supports.
type Modes uint8

const (
	MODE_CARRY Modes = 1 << iota
	MODE_PUSH
	MODE_PATH
)

func (m Modes) Has(o Modes) bool {
	return m&o != 0
}

type Attachment int

const (
	ATTACH_NONE Attachment = iota
	ATTACH_CARRIED
	ATTACH_PUSHED
)

func (a Attachment) Name() string {
	switch a {
	case ATTACH_NONE:
		return "NONE"
	case ATTACH_CARRIED:
		return "CARRIED"
	case ATTACH_PUSHED:
		return "PUSHED"
	default:
		return fmt.Sprintf("n/a:%d", a)
	}
}

// Anchor is whatever a detached mirror follows, a carrier or a pusher.
type Anchor interface {
	Position() model.Vec2
}

// carryLift is the offset of a carried mirror above its carrier, in cells.
const carryLift = 0.5

type Mirror struct {
	body    model.Body
	shape   Shape
	modes   Modes
	ledger  *occupancy.Ledger
	changed *model.Signal

	attach Attachment
	anchor Anchor
	offset model.Vec2
	// axis of the push, fixed by the facing when the push began
	pushHorizontal bool

	path  *pathFollow
	alive bool

	// Obstructed, when set, keeps path steps off cells a walker stands on.
	Obstructed func(c model.Cell) bool
}

func New(name string, shape Shape, modes Modes, ledger *occupancy.Ledger, changed *model.Signal) *Mirror {
	m := &Mirror{
		shape:   shape,
		modes:   modes,
		ledger:  ledger,
		changed: changed,
		alive:   true,
	}
	m.body = model.Body{Name: name, Blocking: true, Kind: model.KIND_MIRROR, Owner: m}
	return m
}

func (m *Mirror) Name() string {
	return m.body.Name
}

func (m *Mirror) GridBody() *model.Body {
	return &m.body
}

func (m *Mirror) Shape() Shape {
	return m.shape
}

func (m *Mirror) Modes() Modes {
	return m.modes
}

func (m *Mirror) Attachment() Attachment {
	return m.attach
}

func (m *Mirror) Attached() bool {
	return m.attach != ATTACH_NONE
}

func (m *Mirror) Registered() bool {
	return m.ledger.IsRegistered(&m.body)
}

func (m *Mirror) Reflect(in model.Dir) model.Dir {
	return m.shape.Reflect(in)
}

func (m *Mirror) Position() model.Vec2 {
	return m.body.Pos
}

func (m *Mirror) SetPosition(p model.Vec2) {
	m.body.Pos = p
}

func (m *Mirror) Alive() bool {
	return m.alive
}

// Place registers the mirror at c, used when a level spawns it.
func (m *Mirror) Place(c model.Cell) bool {
	if m.attach != ATTACH_NONE {
		return false
	}
	if !m.ledger.Register(&m.body, c) {
		log.WithFields(log.Fields{"mirror": m.body.Name, "cell": c}).Warn("mirror placement rejected")
		return false
	}
	m.changed.Raise()
	return true
}

// Destroy takes the mirror out of the world; references held elsewhere see
// Alive() == false.
func (m *Mirror) Destroy() {
	m.ledger.Unregister(&m.body)
	m.attach = ATTACH_NONE
	m.anchor = nil
	m.path.cancel()
	m.alive = false
	m.changed.Raise()
}

// Rotate turns the mirror one 45 degree step.
func (m *Mirror) Rotate() {
	m.shape = m.shape.Next()
	m.changed.Raise()
}

// PickUp releases the mirror's cell and attaches it to carrier.
func (m *Mirror) PickUp(carrier Anchor) bool {
	if !m.modes.Has(MODE_CARRY) || carrier == nil || !m.alive {
		return false
	}
	if m.attach != ATTACH_NONE || m.path.active() || !m.Registered() {
		return false
	}
	m.ledger.Unregister(&m.body)
	m.attach = ATTACH_CARRIED
	m.anchor = carrier
	m.offset = model.Vec2{Y: carryLift * m.ledger.Grid().CellSize}
	m.follow()
	m.changed.Raise()
	log.WithField("mirror", m.body.Name).Info("mirror picked up")
	return true
}

// Drop puts a carried mirror down at c if c is free.
func (m *Mirror) Drop(c model.Cell) bool {
	if m.attach != ATTACH_CARRIED {
		return false
	}
	if m.ledger.IsBlocked(c) || !m.ledger.Register(&m.body, c) {
		log.WithFields(log.Fields{"mirror": m.body.Name, "cell": c}).Info("cannot drop mirror, cell blocked")
		return false
	}
	m.attach = ATTACH_NONE
	m.anchor = nil
	m.changed.Raise()
	log.WithFields(log.Fields{"mirror": m.body.Name, "cell": c}).Info("mirror dropped")
	return true
}

// BeginPush attaches the mirror to pusher, locking motion to the axis of facing.
// The mirror leaves the ledger until EndPush.
func (m *Mirror) BeginPush(pusher Anchor, facing model.Dir) bool {
	if !m.modes.Has(MODE_PUSH) || pusher == nil || !facing.Valid() || !m.alive {
		return false
	}
	if m.attach != ATTACH_NONE || m.path.active() || !m.Registered() {
		return false
	}
	m.ledger.Unregister(&m.body)
	m.attach = ATTACH_PUSHED
	m.anchor = pusher
	m.offset = m.body.Pos.Sub(pusher.Position())
	m.pushHorizontal = facing.Horizontal()
	m.changed.Raise()
	log.WithFields(log.Fields{"mirror": m.body.Name, "axis": axisName(m.pushHorizontal)}).Info("push started")
	return true
}

// PushAxis reports whether the active push is locked to the x axis.
func (m *Mirror) PushAxis() (horizontal bool, ok bool) {
	if m.attach != ATTACH_PUSHED {
		return false, false
	}
	return m.pushHorizontal, true
}

// LockAxis zeroes the component of raw that is off the push axis.
func (m *Mirror) LockAxis(raw model.Vec2) model.Vec2 {
	horizontal, ok := m.PushAxis()
	if !ok {
		return raw
	}
	if horizontal {
		raw.Y = 0
	} else {
		raw.X = 0
	}
	return raw
}

// CanMoveWithPusher asks whether the mirror could also enter the cell the
// pusher's step delta implies.
func (m *Mirror) CanMoveWithPusher(delta model.Cell) bool {
	if m.attach != ATTACH_PUSHED {
		return false
	}
	grid := m.ledger.Grid()
	target := grid.WorldToCell(m.body.Pos).Add(delta)
	return !m.ledger.IsBlocked(target)
}

// EndPush detaches the mirror and registers it where it stands. When that cell
// is taken the mirror stays attached and false is returned.
func (m *Mirror) EndPush() bool {
	if m.attach != ATTACH_PUSHED {
		return false
	}
	c := m.ledger.Grid().WorldToCell(m.body.Pos)
	if !m.ledger.Register(&m.body, c) {
		log.WithFields(log.Fields{"mirror": m.body.Name, "cell": c}).Warn("push release on occupied cell, mirror stays attached")
		return false
	}
	m.attach = ATTACH_NONE
	m.anchor = nil
	m.changed.Raise()
	log.WithFields(log.Fields{"mirror": m.body.Name, "cell": c}).Info("push ended")
	return true
}

// Update advances the path slide and re-derives the attached position.
func (m *Mirror) Update(dt float64) {
	if !m.alive {
		return
	}
	m.follow()
	m.advancePath(dt)
}

func (m *Mirror) follow() {
	if m.attach == ATTACH_NONE || m.anchor == nil {
		return
	}
	if !model.IsAlive(m.anchor) {
		log.WithField("mirror", m.body.Name).Warn("mirror anchor gone, dropping in place")
		m.anchor = nil
		c := m.ledger.Grid().WorldToCell(m.body.Pos)
		if m.ledger.Register(&m.body, c) {
			m.attach = ATTACH_NONE
			m.changed.Raise()
		}
		return
	}
	m.body.Pos = m.anchor.Position().Add(m.offset)
}

func axisName(horizontal bool) string {
	if horizontal {
		return "HORIZONTAL"
	}
	return "VERTICAL"
}
