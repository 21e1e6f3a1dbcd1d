package device

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/zucenko/lumen/model"
	"github.com/zucenko/lumen/occupancy"
)

type Policy int

const (
	// POLICY_WHILE_HELD mirrors the input.
	POLICY_WHILE_HELD Policy = iota
	// POLICY_LATCH turns on with the first beam and stays on until ResetLatch.
	POLICY_LATCH
)

func (p Policy) Name() string {
	switch p {
	case POLICY_WHILE_HELD:
		return "WHILE_HELD"
	case POLICY_LATCH:
		return "LATCH"
	default:
		return fmt.Sprintf("n/a:%d", p)
	}
}

type SwitchConfig struct {
	Name   string
	Cell   model.Cell
	Policy Policy
}

// Switch is a laser receiver standing in a cell. Beams pass through it.
type Switch struct {
	cfg     SwitchConfig
	body    model.Body
	port    *ReceiverPort
	output  bool
	latched bool
	binder  Binder
	dead    bool

	OnOutput func(on bool)
}

func NewSwitch(cfg SwitchConfig, ledger *occupancy.Ledger) *Switch {
	s := &Switch{cfg: cfg, port: NewReceiverPort(cfg.Name)}
	s.body = model.Body{Name: cfg.Name, Blocking: true, Kind: model.KIND_DEVICE, Owner: s}
	s.port.OnChange = s.input
	if ledger == nil || !ledger.Register(&s.body, cfg.Cell) {
		log.WithFields(log.Fields{"switch": cfg.Name, "cell": cfg.Cell}).Error("switch could not take its cell")
	}
	return s
}

func (s *Switch) Name() string { return s.cfg.Name }
func (s *Switch) Cell() model.Cell { return s.cfg.Cell }
func (s *Switch) Policy() Policy { return s.cfg.Policy }
func (s *Switch) Output() bool { return s.output }
func (s *Switch) Latched() bool { return s.latched }
func (s *Switch) Lit() bool { return s.port.Lit() }
func (s *Switch) Beams() int { return s.port.Beams() }
func (s *Switch) GridBody() *model.Body { return &s.body }

func (s *Switch) Port() model.Receiver {
	return s.port
}

func (s *Switch) Alive() bool {
	return !s.dead
}

// Bind adds outputs the switch drives.
func (s *Switch) Bind(targets ...model.Activatable) {
	s.binder.Add(targets...)
}

// SetInvert negates what the targets receive and drives them with the current
// output right away.
func (s *Switch) SetInvert(on bool) {
	s.binder.Invert = on
	s.binder.Drive(s.output)
}

func (s *Switch) input(lit bool) {
	switch s.cfg.Policy {
	case POLICY_LATCH:
		if lit && !s.latched {
			s.latched = true
			s.setOutput(true)
		}
	default:
		s.setOutput(lit)
	}
}

// ResetLatch releases a latched switch. A beam still on it latches it again
// right away.
func (s *Switch) ResetLatch() {
	if s.cfg.Policy != POLICY_LATCH || !s.latched {
		return
	}
	s.latched = false
	s.setOutput(false)
	if s.port.Lit() {
		s.input(true)
	}
}

func (s *Switch) setOutput(on bool) {
	if s.output == on {
		return
	}
	s.output = on
	log.WithFields(log.Fields{"switch": s.cfg.Name, "on": on}).Info("switch output")
	if s.OnOutput != nil {
		s.OnOutput(on)
	}
	s.binder.Drive(on)
}

func (s *Switch) Destroy(ledger *occupancy.Ledger) {
	if ledger != nil {
		ledger.Unregister(&s.body)
	}
	s.dead = true
	s.port.Destroy()
}

// Binder fans a device output out to its targets.
type Binder struct {
	targets []model.Activatable
	// Invert drives targets with the negated output.
	Invert bool
}

func (b *Binder) Add(targets ...model.Activatable) {
	for _, t := range targets {
		if t != nil {
			b.targets = append(b.targets, t)
		}
	}
}

func (b *Binder) Len() int {
	return len(b.targets)
}

func (b *Binder) Drive(on bool) {
	if b.Invert {
		on = !on
	}
	for _, t := range b.targets {
		if model.IsAlive(t) {
			t.SetActiveState(on)
		}
	}
}
