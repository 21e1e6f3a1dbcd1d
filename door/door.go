// Package door is the door state machine. A door always holds its cell in the
// occupancy ledger; whether it blocks walkers and beams follows its state.
package door

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
	"github.com/zucenko/lumen/model"
	"github.com/zucenko/lumen/occupancy"
)

type State int

const (
	CLOSED State = iota
	OPENING
	OPEN
	CLOSING
	LOCKED
)

func (s State) Name() string {
	switch s {
	case CLOSED:
		return "CLOSED"
	case OPENING:
		return "OPENING"
	case OPEN:
		return "OPEN"
	case CLOSING:
		return "CLOSING"
	case LOCKED:
		return "LOCKED"
	default:
		return fmt.Sprintf("n/a:%d", s)
	}
}

// Type decides what the player-facing Interact needs.
type Type int

const (
	// TYPE_BASIC always opens.
	TYPE_BASIC Type = iota
	// TYPE_KEY consumes one basic key.
	TYPE_KEY
	// TYPE_SPECIAL needs a named key the player keeps.
	TYPE_SPECIAL
	// TYPE_DEVICE only reacts to devices.
	TYPE_DEVICE
)

func (t Type) Name() string {
	switch t {
	case TYPE_BASIC:
		return "BASIC"
	case TYPE_KEY:
		return "KEY"
	case TYPE_SPECIAL:
		return "SPECIAL"
	case TYPE_DEVICE:
		return "DEVICE"
	default:
		return fmt.Sprintf("n/a:%d", t)
	}
}

const delayEpsilon = 1e-9

type Config struct {
	Name       string
	Cell       model.Cell
	Type       Type
	SpecialKey string
	// Delay is the Opening and Closing duration in seconds.
	Delay          float64
	Initial        State
	LogTransitions bool
}

type Door struct {
	cfg      Config
	body     model.Body
	ledger   *occupancy.Ledger
	changed  *model.Signal
	state    State
	timer    *gween.Tween
	elapsed  float64
	opener   KeyHolder
	disabled bool

	// Obstructed, when set, keeps the door from closing onto a walker.
	Obstructed func(c model.Cell) bool
	OnState    func(State)
}

func New(cfg Config, ledger *occupancy.Ledger, changed *model.Signal) *Door {
	d := &Door{cfg: cfg, ledger: ledger, changed: changed}
	d.body = model.Body{Name: cfg.Name, Blocking: true, Kind: model.KIND_DOOR, Owner: d}
	if ledger == nil {
		log.WithField("door", cfg.Name).Error("door without occupancy ledger, disabled")
		d.disabled = true
		return d
	}
	if cfg.Delay < 0 {
		log.WithFields(log.Fields{"door": cfg.Name, "delay": cfg.Delay}).Error("negative door delay, disabled")
		d.disabled = true
		return d
	}
	if cfg.Type == TYPE_SPECIAL && cfg.SpecialKey == "" {
		log.WithField("door", cfg.Name).Error("special door without key id, disabled")
		d.disabled = true
		return d
	}
	switch cfg.Initial {
	case CLOSED, LOCKED:
		d.state = cfg.Initial
	case OPEN:
		if cfg.Type == TYPE_BASIC {
			d.state = OPEN
		} else {
			log.WithFields(log.Fields{"door": cfg.Name, "type": cfg.Type.Name()}).Warn("only basic doors start open")
		}
	default:
		log.WithFields(log.Fields{"door": cfg.Name, "state": cfg.Initial.Name()}).Warn("transitional initial state, starting closed")
	}
	if !ledger.Register(&d.body, cfg.Cell) {
		log.WithFields(log.Fields{"door": cfg.Name, "cell": cfg.Cell}).Error("door cell blocked, disabled")
		d.disabled = true
	}
	return d
}

func (d *Door) Name() string { return d.cfg.Name }
func (d *Door) State() State { return d.state }
func (d *Door) Type() Type { return d.cfg.Type }
func (d *Door) Cell() model.Cell { return d.cfg.Cell }
func (d *Door) Disabled() bool { return d.disabled }
func (d *Door) GridBody() *model.Body { return &d.body }

// Solid reports whether the door blocks walkers and takes part in beam casts.
func (d *Door) Solid() bool {
	return d.state != OPEN && d.state != OPENING
}

// Interact is the player-facing entry point. Keys are checked against holder
// according to the door type; device doors never open from here.
func (d *Door) Interact(holder KeyHolder) bool {
	if d.disabled {
		return false
	}
	switch d.cfg.Type {
	case TYPE_DEVICE:
		log.WithField("door", d.cfg.Name).Info("door is operated by a device")
		return false
	case TYPE_BASIC:
		if d.state == LOCKED {
			return false
		}
		return d.Open()
	case TYPE_KEY:
		if d.state != CLOSED && d.state != LOCKED {
			return false
		}
		if holder == nil || !holder.ConsumeKey() {
			log.WithField("door", d.cfg.Name).Info("door needs a key")
			return false
		}
		if d.state == LOCKED {
			d.Unlock()
		}
		return d.Open()
	case TYPE_SPECIAL:
		if d.state == LOCKED {
			return false
		}
		if holder == nil || !holder.HasSpecial(d.cfg.SpecialKey) {
			log.WithFields(log.Fields{"door": d.cfg.Name, "key": d.cfg.SpecialKey}).Info("door needs a special key")
			return false
		}
		if !d.Open() {
			return false
		}
		d.opener = holder
		return true
	}
	return false
}

// Open is the device-facing entry point. It starts Closed->Opening and is a
// no-op for every other state.
func (d *Door) Open() bool {
	if d.disabled || d.state != CLOSED {
		return false
	}
	d.begin(OPENING)
	return true
}

// Close starts Open->Closing unless a special key holder still carries the
// key or something stands in the doorway.
func (d *Door) Close() bool {
	if d.disabled || d.state != OPEN {
		return false
	}
	if d.cfg.Type == TYPE_SPECIAL && d.opener != nil && model.IsAlive(d.opener) && d.opener.HasSpecial(d.cfg.SpecialKey) {
		log.WithField("door", d.cfg.Name).Debug("special key still held, door stays open")
		return false
	}
	if d.Obstructed != nil && d.Obstructed(d.cfg.Cell) {
		log.WithField("door", d.cfg.Name).Info("doorway obstructed, door stays open")
		return false
	}
	d.opener = nil
	d.begin(CLOSING)
	return true
}

// SetActiveState makes the door a device output: on opens, off closes.
func (d *Door) SetActiveState(on bool) {
	if on {
		d.Open()
	} else {
		d.Close()
	}
}

// Lock cancels any transition and locks the door from whatever state it is in.
func (d *Door) Lock() bool {
	if d.disabled || d.state == LOCKED {
		return false
	}
	d.timer = nil
	d.opener = nil
	d.set(LOCKED)
	d.changed.Raise()
	return true
}

func (d *Door) Unlock() bool {
	if d.disabled || d.state != LOCKED {
		return false
	}
	d.set(CLOSED)
	d.changed.Raise()
	return true
}

func (d *Door) Update(dt float64) {
	if d.disabled || d.timer == nil {
		return
	}
	d.elapsed += dt
	d.timer.Set(float32(d.elapsed))
	if d.elapsed >= d.cfg.Delay-delayEpsilon {
		d.finish()
	}
}

// Progress is how far the running transition is, 0 when idle.
func (d *Door) Progress() float64 {
	if d.timer == nil {
		return 0
	}
	v, _ := d.timer.Set(float32(d.elapsed))
	return float64(v)
}

// ForceStop completes a running transition now.
func (d *Door) ForceStop() {
	if d.timer != nil {
		d.finish()
	}
}

func (d *Door) begin(s State) {
	d.set(s)
	d.elapsed = 0
	d.timer = gween.New(0, 1, float32(d.cfg.Delay), ease.Linear)
	// beam visibility follows Solid, which flips on entering either state
	d.changed.Raise()
	if d.cfg.Delay == 0 {
		d.finish()
	}
}

func (d *Door) finish() {
	d.timer = nil
	switch d.state {
	case OPENING:
		d.set(OPEN)
	case CLOSING:
		d.set(CLOSED)
	default:
		return
	}
	d.changed.Raise()
}

func (d *Door) set(s State) {
	if d.state == s {
		return
	}
	if d.cfg.LogTransitions {
		log.WithFields(log.Fields{"door": d.cfg.Name, "from": d.state.Name(), "to": s.Name()}).Info("door transition")
	}
	d.state = s
	if d.OnState != nil {
		d.OnState(s)
	}
}
