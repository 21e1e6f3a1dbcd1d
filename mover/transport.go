// Package mover holds the kinematic floors: a Translator sliding between two
// cells and a Rotator turning around a pivot. Both carry whatever rests on them
// by writing passenger positions directly each tick and hand every passenger
// back to the occupancy ledger on arrival.
package mover

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/zucenko/lumen/model"
	"github.com/zucenko/lumen/occupancy"
	"github.com/zyedidia/generic/mapset"
)

type State int

const (
	IDLE State = iota
	MOVING
)

func (s State) Name() string {
	switch s {
	case IDLE:
		return "IDLE"
	case MOVING:
		return "MOVING"
	default:
		return fmt.Sprintf("n/a:%d", s)
	}
}

type Timing int

const (
	TIMING_DURATION Timing = iota
	TIMING_SPEED
)

func (t Timing) Name() string {
	switch t {
	case TIMING_DURATION:
		return "DURATION"
	case TIMING_SPEED:
		return "SPEED"
	default:
		return fmt.Sprintf("n/a:%d", t)
	}
}

// Region is an axis aligned world rectangle, Min inclusive, Max exclusive.
type Region struct {
	Min, Max model.Vec2
}

func (r Region) Contains(p model.Vec2) bool {
	return p.X >= r.Min.X && p.X < r.Max.X && p.Y >= r.Min.Y && p.Y < r.Max.Y
}

// Scanner reports the passengers currently resting inside a region.
type Scanner func(r Region) []model.Passenger

// finishEpsilon absorbs float drift when comparing elapsed time to a duration.
const finishEpsilon = 1e-9

// precastSteps is the bisection depth of the precast clamp.
const precastSteps = 16

type rider struct {
	p         model.Passenger
	body      *model.Body // set while the ledger registration is suspended
	origin    model.Cell  // cell the rider held when it boarded
	boardedAt float64     // mover progress (angle or distance) at boarding
	travelled float64
}

// transport is the passenger half shared by both movers.
type transport struct {
	name    string
	ledger  *occupancy.Ledger
	changed *model.Signal
	scan    Scanner
	precast bool

	riders []*rider
	seen   mapset.Set[model.Passenger]
}

func newTransport(name string, ledger *occupancy.Ledger, changed *model.Signal, scan Scanner, precast bool) transport {
	return transport{
		name:    name,
		ledger:  ledger,
		changed: changed,
		scan:    scan,
		precast: precast,
		seen:    mapset.New[model.Passenger](),
	}
}

// gather boards every passenger in region not yet tracked. Boarding locks the
// passenger's input and suspends its ledger registration for the trip.
func (t *transport) gather(region Region, progress float64) {
	if t.scan == nil {
		return
	}
	suspended := false
	for _, p := range t.scan(region) {
		if p == nil || t.seen.Has(p) || !model.IsAlive(p) {
			continue
		}
		r := &rider{p: p, boardedAt: progress}
		r.origin = t.ledger.Grid().WorldToCell(p.Position())
		if l, ok := p.(model.InputLocker); ok {
			l.SetExternalLock(true)
		}
		if a, ok := p.(model.Anchored); ok {
			if b := a.GridBody(); b != nil {
				if c, held := t.ledger.CellOf(b); held {
					r.origin = c
					r.body = b
					t.ledger.Unregister(b)
					suspended = true
				}
			}
		}
		t.seen.Put(p)
		t.riders = append(t.riders, r)
		log.WithFields(log.Fields{"mover": t.name, "cell": r.origin}).Debug("passenger boarded")
	}
	if suspended {
		t.changed.Raise()
	}
}

// carry moves every live rider to where place puts it, clamped by the precast
// check when enabled.
func (t *transport) carry(place func(r *rider, cur model.Vec2) model.Vec2) {
	for _, r := range t.riders {
		if !model.IsAlive(r.p) {
			continue
		}
		cur := r.p.Position()
		next := place(r, cur)
		if t.precast {
			next = t.clampPrecast(cur, next)
		}
		r.p.SetPosition(next)
	}
}

// clampPrecast keeps a rider inside its current cell when the cell it is
// heading into is blocked.
func (t *transport) clampPrecast(from, to model.Vec2) model.Vec2 {
	grid := t.ledger.Grid()
	cur := grid.WorldToCell(from)
	target := grid.WorldToCell(to)
	if target == cur || !t.ledger.IsBlocked(target) {
		return to
	}
	lo, hi := 0.0, 1.0
	for i := 0; i < precastSteps; i++ {
		mid := (lo + hi) / 2
		if grid.WorldToCell(model.Lerp(from, to, mid)) == cur {
			lo = mid
		} else {
			hi = mid
		}
	}
	return model.Lerp(from, to, lo)
}

// settle hands every rider back to the grid at the cell landing picks, then
// releases locks and forgets the riders.
func (t *transport) settle(landing func(r *rider) model.Cell) {
	grid := t.ledger.Grid()
	for _, r := range t.riders {
		if !model.IsAlive(r.p) {
			log.WithField("mover", t.name).Debug("passenger gone before arrival")
			continue
		}
		c := grid.WorldToCell(r.p.Position())
		if landing != nil {
			c = landing(r)
		}
		if r.body != nil {
			if !t.ledger.Register(r.body, c) {
				log.WithFields(log.Fields{"mover": t.name, "passenger": r.body.Name, "cell": c}).
					Warn("landing cell taken, passenger returned to its boarding cell")
				if !t.ledger.Register(r.body, r.origin) {
					log.WithFields(log.Fields{"mover": t.name, "passenger": r.body.Name}).
						Error("passenger could not be re-registered")
				}
			}
		} else {
			r.p.SetPosition(grid.CellToWorld(c))
		}
		if l, ok := r.p.(model.InputLocker); ok {
			l.SetExternalLock(false)
		}
	}
	if len(t.riders) > 0 {
		t.changed.Raise()
	}
	t.riders = nil
	t.seen.Clear()
}

func (t *transport) Riders() int {
	return len(t.riders)
}

func cellRegion(grid model.Grid, center model.Vec2, halfCells float64) Region {
	h := grid.CellSize * halfCells
	return Region{
		Min: model.Vec2{X: center.X - h, Y: center.Y - h},
		Max: model.Vec2{X: center.X + h, Y: center.Y + h},
	}
}
