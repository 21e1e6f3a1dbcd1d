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

// Trigger selects what Trigger() does on a translator.
type Trigger int

const (
	TRIGGER_FORWARD Trigger = iota
	TRIGGER_BACKWARD
	TRIGGER_TOGGLE
)

func (t Trigger) Name() string {
	switch t {
	case TRIGGER_FORWARD:
		return "FORWARD"
	case TRIGGER_BACKWARD:
		return "BACKWARD"
	case TRIGGER_TOGGLE:
		return "TOGGLE"
	default:
		return fmt.Sprintf("n/a:%d", t)
	}
}

type TranslatorConfig struct {
	Name     string
	Start    model.Cell
	End      model.Cell
	Timing   Timing
	Duration float64 // seconds, TIMING_DURATION
	Speed    float64 // world units per second, TIMING_SPEED
	Trigger  Trigger
	// Blocking floors hold their cell in the ledger and refuse occupied targets.
	Blocking bool
	Precast  bool
}

type Translator struct {
	cfg       TranslatorConfig
	body      model.Body
	ledger    *occupancy.Ledger
	changed   *model.Signal
	transport transport

	state    State
	from, to model.Vec2
	toCell   model.Cell
	distance float64
	tween    *gween.Tween
	elapsed  float64
	disabled bool

	OnState func(State)
	// Obstructed, when set, keeps a blocking floor off cells a walker
	// stands on.
	Obstructed func(c model.Cell) bool
}

func NewTranslator(cfg TranslatorConfig, ledger *occupancy.Ledger, changed *model.Signal, scan Scanner) *Translator {
	t := &Translator{cfg: cfg, ledger: ledger, changed: changed}
	t.body = model.Body{Name: cfg.Name, Blocking: cfg.Blocking, Kind: model.KIND_PROP, Owner: t}
	if err := cfg.validate(ledger); err != nil {
		log.WithField("mover", cfg.Name).WithError(err).Error("translator disabled")
		t.disabled = true
		return t
	}
	t.transport = newTransport(cfg.Name, ledger, changed, scan, cfg.Precast)
	t.body.Cell = cfg.Start
	t.body.Pos = ledger.Grid().CellToWorld(cfg.Start)
	if cfg.Blocking && !ledger.Register(&t.body, cfg.Start) {
		log.WithFields(log.Fields{"mover": cfg.Name, "cell": cfg.Start}).Error("translator start cell blocked, disabled")
		t.disabled = true
	}
	return t
}

func (c TranslatorConfig) validate(ledger *occupancy.Ledger) error {
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
			return fmt.Errorf("speed must be positive, got %v", c.Speed)
		}
	default:
		return fmt.Errorf("unknown timing %s", c.Timing.Name())
	}
	return nil
}

func (t *Translator) Name() string { return t.cfg.Name }
func (t *Translator) State() State { return t.state }
func (t *Translator) Disabled() bool { return t.disabled }
func (t *Translator) Cell() model.Cell { return t.body.Cell }
func (t *Translator) Position() model.Vec2 { return t.body.Pos }
func (t *Translator) GridBody() *model.Body { return &t.body }
func (t *Translator) Config() TranslatorConfig { return t.cfg }

// AtEnd reports whether the floor rests on its end cell.
func (t *Translator) AtEnd() bool {
	return t.state == IDLE && t.body.Cell == t.cfg.End
}

func (t *Translator) MoveForward() bool { return t.MoveTo(t.cfg.End) }
func (t *Translator) MoveBackward() bool { return t.MoveTo(t.cfg.Start) }

func (t *Translator) Toggle() bool {
	if t.body.Cell == t.cfg.End {
		return t.MoveBackward()
	}
	return t.MoveForward()
}

// Trigger moves the way the floor is configured to react to a trigger.
func (t *Translator) Trigger() bool {
	switch t.cfg.Trigger {
	case TRIGGER_BACKWARD:
		return t.MoveBackward()
	case TRIGGER_TOGGLE:
		return t.Toggle()
	}
	return t.MoveForward()
}

// MoveTo starts a straight slide to target. It is rejected while moving, when
// already there, and for blocking floors whose target is blocked.
func (t *Translator) MoveTo(target model.Cell) bool {
	if t.disabled || t.state == MOVING {
		return false
	}
	if target == t.body.Cell {
		return false
	}
	if t.cfg.Blocking && (t.ledger.IsBlocked(target) || t.obstructed(target)) {
		log.WithFields(log.Fields{"mover": t.cfg.Name, "cell": target}).Info("translator target blocked")
		return false
	}
	grid := t.ledger.Grid()
	t.from = grid.CellToWorld(t.body.Cell)
	t.to = grid.CellToWorld(target)
	t.toCell = target
	t.distance = t.to.Sub(t.from).Len()
	t.elapsed = 0
	if t.cfg.Timing == TIMING_DURATION {
		t.tween = gween.New(0, 1, float32(t.cfg.Duration), ease.Linear)
	}
	t.setState(MOVING)
	return true
}

// Update advances the slide by dt seconds and carries the passengers by the
// same displacement.
func (t *Translator) Update(dt float64) {
	if t.disabled || t.state != MOVING {
		return
	}
	prev := t.body.Pos
	next, done := t.advance(dt)
	t.body.Pos = next

	grid := t.ledger.Grid()
	t.transport.gather(cellRegion(grid, prev, 0.5), t.progress(prev))
	delta := next.Sub(prev)
	axis := t.to.Sub(t.from).Normalized()
	t.transport.carry(func(r *rider, cur model.Vec2) model.Vec2 {
		return cur.Add(t.clampEndPlane(r, delta, axis))
	})
	if done {
		t.arrive(t.toCell)
	}
}

func (t *Translator) advance(dt float64) (model.Vec2, bool) {
	if t.cfg.Timing == TIMING_SPEED {
		next := model.MoveTowards(t.body.Pos, t.to, t.cfg.Speed*dt)
		return next, next == t.to
	}
	t.elapsed += dt
	if t.elapsed >= t.cfg.Duration-finishEpsilon {
		return t.to, true
	}
	frac, _ := t.tween.Set(float32(t.elapsed))
	return model.Lerp(t.from, t.to, math.Min(1, math.Max(0, float64(frac)))), false
}

func (t *Translator) progress(p model.Vec2) float64 {
	return p.Sub(t.from).Len()
}

// clampEndPlane limits a rider's advance along the travel axis to the travel
// the floor itself has left, so a rider never overshoots the floor's end.
func (t *Translator) clampEndPlane(r *rider, delta, axis model.Vec2) model.Vec2 {
	along := delta.Dot(axis)
	limit := t.distance - r.boardedAt - r.travelled
	if along > limit {
		delta = delta.Sub(axis.Scale(along - limit))
		along = limit
	}
	r.travelled += along
	return delta
}

func (t *Translator) arrive(c model.Cell) {
	grid := t.ledger.Grid()
	if t.cfg.Blocking {
		if t.obstructed(c) || !t.ledger.Move(&t.body, c) {
			log.WithFields(log.Fields{"mover": t.cfg.Name, "cell": c}).Warn("translator landing cell taken, staying registered at origin")
			t.body.Pos = grid.CellToWorld(t.body.Cell)
		}
	} else {
		t.body.Cell = c
		t.body.Pos = grid.CellToWorld(c)
	}
	t.transport.settle(nil)
	t.tween = nil
	t.setState(IDLE)
	t.changed.Raise()
}

// ForceStop collapses an in-flight slide onto the cell the floor is over now.
// Idle floors are re-snapped and left consistent.
func (t *Translator) ForceStop() {
	if t.disabled {
		return
	}
	c := t.ledger.Grid().WorldToCell(t.body.Pos)
	if t.cfg.Blocking && c != t.body.Cell && (t.ledger.IsBlocked(c) || t.obstructed(c)) {
		c = t.body.Cell
	}
	log.WithFields(log.Fields{"mover": t.cfg.Name, "cell": c}).Info("translator force stop")
	t.arrive(c)
}

func (t *Translator) obstructed(c model.Cell) bool {
	return t.Obstructed != nil && t.Obstructed(c)
}

func (t *Translator) setState(s State) {
	if t.state == s {
		return
	}
	t.state = s
	if t.OnState != nil {
		t.OnState(s)
	}
}

func (t *Translator) Riders() int {
	return t.transport.Riders()
}
