package mover

import (
	"fmt"
	"math"

	log "github.com/sirupsen/logrus"
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
	"github.com/zucenko/lumen/model"
	"github.com/zucenko/lumen/occupancy"
)

// SnapMode picks how riders land when a rotation finishes.
type SnapMode int

const (
	// SNAP_NEAREST rounds every rider to the cell under it.
	SNAP_NEAREST SnapMode = iota
	// SNAP_QUARTER rotates each rider's boarding cell around the pivot with
	// integer math when the rotation is a whole number of right angles.
	SNAP_QUARTER
)

func (s SnapMode) Name() string {
	switch s {
	case SNAP_NEAREST:
		return "NEAREST"
	case SNAP_QUARTER:
		return "QUARTER"
	default:
		return fmt.Sprintf("n/a:%d", s)
	}
}

type RotatorConfig struct {
	Name       string
	Pivot      model.Cell
	StartAngle float64 // degrees
	EndAngle   float64
	Timing     Timing
	Duration   float64 // seconds, TIMING_DURATION
	Speed      float64 // degrees per second, TIMING_SPEED
	// Radius is the half size, in cells, of the square scanned for riders.
	Radius       int
	RotateFacing bool
	Snap         SnapMode
	Precast      bool
}

// angleEpsilon is the tolerance for treating an angle as a right-angle multiple.
const angleEpsilon = 1e-6

type Rotator struct {
	cfg       RotatorConfig
	body      model.Body
	ledger    *occupancy.Ledger
	changed   *model.Signal
	transport transport

	state     State
	raw       float64
	fromRaw   float64
	targetRaw float64
	tween     *gween.Tween
	elapsed   float64
	disabled  bool

	OnState func(State)
}

func NewRotator(cfg RotatorConfig, ledger *occupancy.Ledger, changed *model.Signal, scan Scanner) *Rotator {
	r := &Rotator{cfg: cfg, ledger: ledger, changed: changed, raw: cfg.StartAngle}
	r.body = model.Body{Name: cfg.Name, Kind: model.KIND_PROP, Owner: r}
	if err := cfg.validate(ledger); err != nil {
		log.WithField("mover", cfg.Name).WithError(err).Error("rotator disabled")
		r.disabled = true
		return r
	}
	if cfg.Radius <= 0 {
		r.cfg.Radius = 1
	}
	r.transport = newTransport(cfg.Name, ledger, changed, scan, cfg.Precast)
	r.body.Cell = cfg.Pivot
	r.body.Pos = ledger.Grid().CellToWorld(cfg.Pivot)
	return r
}

func (c RotatorConfig) validate(ledger *occupancy.Ledger) error {
	if ledger == nil {
		return fmt.Errorf("no occupancy ledger")
	}
	switch c.Timing {
	case TIMING_DURATION:
		if c.Duration <= 0 {
			return fmt.Errorf("duration must be positive, got %v", c.Duration)
		}
	case TIMING_SPEED:
		if c.Speed <= 0 {
			return fmt.Errorf("angular speed must be positive, got %v", c.Speed)
		}
	default:
		return fmt.Errorf("unknown timing %s", c.Timing.Name())
	}
	return nil
}

func (r *Rotator) Name() string { return r.cfg.Name }
func (r *Rotator) State() State { return r.state }
func (r *Rotator) Disabled() bool { return r.disabled }
func (r *Rotator) Pivot() model.Cell { return r.cfg.Pivot }
func (r *Rotator) Config() RotatorConfig { return r.cfg }

// RawAngle is the accumulated rotation, never wrapped.
func (r *Rotator) RawAngle() float64 {
	return r.raw
}

// Angle is the raw angle folded into (-180, 180].
func (r *Rotator) Angle() float64 {
	return WrapAngle(r.raw)
}

func WrapAngle(deg float64) float64 {
	a := math.Mod(deg, 360)
	if a <= -180 {
		a += 360
	}
	if a > 180 {
		a -= 360
	}
	return a
}

func (r *Rotator) RotateStartToEnd() bool {
	return r.RotateBy(r.cfg.EndAngle - r.cfg.StartAngle)
}

func (r *Rotator) RotateEndToStart() bool {
	return r.RotateBy(r.cfg.StartAngle - r.cfg.EndAngle)
}

// RotateBy turns deg degrees, counter-clockwise for positive values, starting
// from the current raw angle.
func (r *Rotator) RotateBy(deg float64) bool {
	if r.disabled || r.state == MOVING || deg == 0 {
		return false
	}
	r.fromRaw = r.raw
	r.targetRaw = r.raw + deg
	r.elapsed = 0
	if r.cfg.Timing == TIMING_DURATION {
		r.tween = gween.New(0, 1, float32(r.cfg.Duration), ease.Linear)
	}
	r.setState(MOVING)
	return true
}

func (r *Rotator) Update(dt float64) {
	if r.disabled || r.state != MOVING {
		return
	}
	prev := r.raw
	next, done := r.advance(dt)
	r.raw = next

	grid := r.ledger.Grid()
	pivot := grid.CellToWorld(r.cfg.Pivot)
	r.transport.gather(cellRegion(grid, pivot, float64(r.cfg.Radius)+0.5), prev)
	r.turnRiders(pivot, next-prev)
	if done {
		r.arrive()
	}
}

func (r *Rotator) advance(dt float64) (float64, bool) {
	if r.cfg.Timing == TIMING_SPEED {
		step := r.cfg.Speed * dt
		left := r.targetRaw - r.raw
		if math.Abs(left) <= step {
			return r.targetRaw, true
		}
		return r.raw + math.Copysign(step, left), false
	}
	r.elapsed += dt
	if r.elapsed >= r.cfg.Duration-finishEpsilon {
		return r.targetRaw, true
	}
	frac, _ := r.tween.Set(float32(r.elapsed))
	f := math.Min(1, math.Max(0, float64(frac)))
	return r.fromRaw + (r.targetRaw-r.fromRaw)*f, false
}

func (r *Rotator) turnRiders(pivot model.Vec2, delta float64) {
	if delta == 0 {
		return
	}
	r.transport.carry(func(rd *rider, cur model.Vec2) model.Vec2 {
		return pivot.Add(cur.Sub(pivot).Rotate(delta))
	})
	if !r.cfg.RotateFacing {
		return
	}
	for _, rd := range r.transport.riders {
		if f, ok := rd.p.(model.Facer); ok && model.IsAlive(rd.p) {
			f.RotateFacing(delta)
		}
	}
}

func (r *Rotator) arrive() {
	r.body.Pos = r.ledger.Grid().CellToWorld(r.cfg.Pivot)
	var landing func(rd *rider) model.Cell
	if r.cfg.Snap == SNAP_QUARTER {
		landing = r.quarterLanding
	}
	r.transport.settle(landing)
	r.tween = nil
	r.setState(IDLE)
	r.changed.Raise()
	log.WithFields(log.Fields{"mover": r.cfg.Name, "angle": r.Angle()}).Debug("rotator arrived")
}

// quarterLanding rotates a rider's boarding cell around the pivot exactly when
// the rider has turned a whole number of right angles, and falls back to the
// cell under it otherwise.
func (r *Rotator) quarterLanding(rd *rider) model.Cell {
	turned := r.raw - rd.boardedAt
	q := math.Round(turned / 90)
	if math.Abs(turned-q*90) > angleEpsilon {
		return r.ledger.Grid().WorldToCell(rd.p.Position())
	}
	offset := rd.origin.Sub(r.cfg.Pivot)
	return r.cfg.Pivot.Add(offset.RotateQuarter(int(q)))
}

// ForceStop rounds an in-flight raw angle to the nearest right angle, turns
// the riders the remaining way and lands everything. An idle rotator keeps its
// angle and is only re-landed.
func (r *Rotator) ForceStop() {
	if r.disabled {
		return
	}
	if r.state == MOVING {
		snapped := math.Round(r.raw/90) * 90
		pivot := r.ledger.Grid().CellToWorld(r.cfg.Pivot)
		r.turnRiders(pivot, snapped-r.raw)
		r.raw = snapped
	}
	log.WithFields(log.Fields{"mover": r.cfg.Name, "angle": r.Angle()}).Info("rotator force stop")
	r.arrive()
}

func (r *Rotator) setState(s State) {
	if r.state == s {
		return
	}
	r.state = s
	if r.OnState != nil {
		r.OnState(s)
	}
}

func (r *Rotator) Riders() int {
	return r.transport.Riders()
}
