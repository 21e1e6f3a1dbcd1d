// Package sim wires the occupancy ledger, the laser solver and every entity of
// a level into one fixed-tick simulation. All occupancy changes of a tick are
// applied before the single end-of-tick beam recompute.
package sim

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/zucenko/lumen/actor"
	"github.com/zucenko/lumen/device"
	"github.com/zucenko/lumen/door"
	"github.com/zucenko/lumen/laser"
	"github.com/zucenko/lumen/mirror"
	"github.com/zucenko/lumen/model"
	"github.com/zucenko/lumen/mover"
	"github.com/zucenko/lumen/occupancy"
)

type Simulation struct {
	cfg     Config
	ledger  *occupancy.Ledger
	changed *model.Signal
	solver  *laser.Solver

	mirrors     []*mirror.Mirror
	doors       []*door.Door
	switches    []*device.Switch
	translators []*mover.Translator
	rotators    []*mover.Rotator
	walls       []*device.WallToggle
	moveActs    []*device.FloorMoveActuator
	turnActs    []*device.FloorRotateActuator
	actor       *actor.Actor

	// outputs by name, for bindings
	targets map[string]model.Activatable
	tick    uint64
}

func New(cfg Config) (*Simulation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid sim config: %w", err)
	}
	ledger := occupancy.NewLedger(cfg.Grid())
	s := &Simulation{
		cfg:     cfg,
		ledger:  ledger,
		changed: model.NewSignal(),
		solver:  laser.NewSolver(ledger, cfg.Config),
		targets: make(map[string]model.Activatable),
	}
	s.solver.Listen(s.changed)
	return s, nil
}

func (s *Simulation) Config() Config { return s.cfg }
func (s *Simulation) Ledger() *occupancy.Ledger { return s.ledger }
func (s *Simulation) Signal() *model.Signal { return s.changed }
func (s *Simulation) Solver() *laser.Solver { return s.solver }
func (s *Simulation) Actor() *actor.Actor { return s.actor }
func (s *Simulation) Mirrors() []*mirror.Mirror { return s.mirrors }
func (s *Simulation) Doors() []*door.Door { return s.doors }
func (s *Simulation) Switches() []*device.Switch { return s.switches }
func (s *Simulation) Translators() []*mover.Translator { return s.translators }
func (s *Simulation) Rotators() []*mover.Rotator { return s.rotators }
func (s *Simulation) Tick() uint64 { return s.tick }

// SeedWalls installs the level's static geometry.
func (s *Simulation) SeedWalls(cells []model.Cell) {
	s.ledger.SeedStatic(cells)
	s.changed.Raise()
}

func (s *Simulation) AddEmitter(name string, cell model.Cell, dir model.Dir) *laser.Emitter {
	e := laser.NewEmitter(name, cell, dir)
	s.solver.Register(e)
	return e
}

func (s *Simulation) RemoveEmitter(e *laser.Emitter) {
	s.solver.Unregister(e)
}

func (s *Simulation) AddMirror(name string, shape mirror.Shape, modes mirror.Modes, cell model.Cell) (*mirror.Mirror, error) {
	m := mirror.New(name, shape, modes, s.ledger, s.changed)
	if !m.Place(cell) {
		return nil, fmt.Errorf("mirror %s: cell %v is blocked", name, cell)
	}
	s.mirrors = append(s.mirrors, m)
	return m, nil
}

// AddPathMirror spawns a mirror on the start cell of its path.
func (s *Simulation) AddPathMirror(name string, shape mirror.Shape, path []model.Cell, start int, loop bool, slide float64) (*mirror.Mirror, error) {
	m := mirror.New(name, shape, mirror.MODE_PATH, s.ledger, s.changed)
	if !m.SetPath(path, start, loop, slide) {
		return nil, fmt.Errorf("path mirror %s: bad path", name)
	}
	m.Obstructed = s.actorAt
	s.mirrors = append(s.mirrors, m)
	return m, nil
}

func (s *Simulation) AddDoor(cfg door.Config) (*door.Door, error) {
	d := door.New(cfg, s.ledger, s.changed)
	if d.Disabled() {
		return nil, fmt.Errorf("door %s could not be placed at %v", cfg.Name, cfg.Cell)
	}
	d.Obstructed = s.actorAt
	s.doors = append(s.doors, d)
	s.targets[cfg.Name] = d
	return d, nil
}

func (s *Simulation) AddSwitch(cfg device.SwitchConfig) (*device.Switch, error) {
	if s.ledger.IsBlocked(cfg.Cell) {
		return nil, fmt.Errorf("switch %s: cell %v is blocked", cfg.Name, cfg.Cell)
	}
	sw := device.NewSwitch(cfg, s.ledger)
	s.switches = append(s.switches, sw)
	return sw, nil
}

func (s *Simulation) AddTranslator(cfg mover.TranslatorConfig) (*mover.Translator, error) {
	t := mover.NewTranslator(cfg, s.ledger, s.changed, s.passengers)
	if t.Disabled() {
		return nil, fmt.Errorf("translator %s is misconfigured", cfg.Name)
	}
	t.Obstructed = s.actorAt
	a := device.NewFloorMoveActuator(t)
	s.translators = append(s.translators, t)
	s.moveActs = append(s.moveActs, a)
	s.targets[cfg.Name] = a
	return t, nil
}

func (s *Simulation) AddRotator(cfg mover.RotatorConfig) (*mover.Rotator, error) {
	r := mover.NewRotator(cfg, s.ledger, s.changed, s.passengers)
	if r.Disabled() {
		return nil, fmt.Errorf("rotator %s is misconfigured", cfg.Name)
	}
	a := device.NewFloorRotateActuator(r)
	s.rotators = append(s.rotators, r)
	s.turnActs = append(s.turnActs, a)
	s.targets[cfg.Name] = a
	return r, nil
}

func (s *Simulation) AddWallToggle(cfg device.WallToggleConfig) *device.WallToggle {
	w := device.NewWallToggle(cfg, s.ledger, s.changed)
	w.Obstructed = s.actorAt
	s.walls = append(s.walls, w)
	s.targets[cfg.Name] = w
	return w
}

// Bind drives the named targets with the output of the named switch.
func (s *Simulation) Bind(switchName string, targets ...string) error {
	sw := s.findSwitch(switchName)
	if sw == nil {
		return fmt.Errorf("bind: no switch %q", switchName)
	}
	for _, name := range targets {
		t, ok := s.targets[name]
		if !ok {
			return fmt.Errorf("bind %s: no target %q", switchName, name)
		}
		sw.Bind(t)
	}
	return nil
}

func (s *Simulation) SpawnActor(name string, cell model.Cell, facing model.Dir) (*actor.Actor, error) {
	if !s.ledger.IsPassable(cell) {
		return nil, fmt.Errorf("actor %s: cell %v is blocked", name, cell)
	}
	s.actor = actor.New(name, cell, facing, s.ledger)
	return s.actor, nil
}

// Step advances one tick: doors, floors, mirrors and walls move first, then
// the beams are recomputed once if anything changed.
func (s *Simulation) Step(dt float64) {
	for _, d := range s.doors {
		d.Update(dt)
	}
	for _, t := range s.translators {
		t.Update(dt)
	}
	for _, r := range s.rotators {
		r.Update(dt)
	}
	for _, a := range s.moveActs {
		a.Sync()
	}
	for _, a := range s.turnActs {
		a.Sync()
	}
	for _, m := range s.mirrors {
		m.Update(dt)
	}
	for _, w := range s.walls {
		w.Update(dt)
	}
	s.solver.Step()
	s.tick++
}

// Apply executes one player or script intent. It never panics on unknown
// targets; it reports false.
func (s *Simulation) Apply(a model.Action) bool {
	switch a.Kind {
	case model.ACT_STEP:
		return s.actor != nil && s.actor.Step(a.Dir)
	case model.ACT_FACE:
		return s.actor != nil && s.actor.Face(a.Dir)
	case model.ACT_INTERACT:
		return s.actor != nil && s.actor.Interact()
	case model.ACT_ROTATE_MIRROR:
		return s.actor != nil && s.actor.RotateMirror()
	case model.ACT_TRIGGER:
		if t := s.findTranslator(a.Target); t != nil {
			return t.Trigger()
		}
		if r := s.findRotator(a.Target); r != nil {
			if a.Step < 0 {
				return r.RotateEndToStart()
			}
			return r.RotateStartToEnd()
		}
	case model.ACT_PATH_STEP:
		if m := s.findMirror(a.Target); m != nil {
			step := a.Step
			if step == 0 {
				step = 1
			}
			return m.Step(step)
		}
	case model.ACT_RESET_LATCH:
		if sw := s.findSwitch(a.Target); sw != nil && sw.Latched() {
			sw.ResetLatch()
			return true
		}
	case model.ACT_FORCE_STOP:
		return s.forceStop(a.Target)
	}
	log.WithFields(log.Fields{"action": a.Kind.Name(), "target": a.Target}).Debug("action had no effect")
	return false
}

func (s *Simulation) forceStop(name string) bool {
	if t := s.findTranslator(name); t != nil {
		t.ForceStop()
		return true
	}
	if r := s.findRotator(name); r != nil {
		r.ForceStop()
		return true
	}
	for _, d := range s.doors {
		if d.Name() == name {
			d.ForceStop()
			return true
		}
	}
	return false
}

// passengers is the Scanner handed to movers: the actor and every loose,
// registered mirror resting in the region.
func (s *Simulation) passengers(r mover.Region) []model.Passenger {
	var out []model.Passenger
	if s.actor != nil && s.actor.Alive() && r.Contains(s.actor.Position()) {
		out = append(out, s.actor)
	}
	for _, m := range s.mirrors {
		if !m.Alive() || m.Attached() || m.Sliding() || !m.Registered() {
			continue
		}
		if r.Contains(m.Position()) {
			out = append(out, m)
		}
	}
	return out
}

func (s *Simulation) actorAt(c model.Cell) bool {
	return s.actor != nil && s.actor.Alive() && s.actor.Cell() == c
}

func (s *Simulation) findSwitch(name string) *device.Switch {
	for _, sw := range s.switches {
		if sw.Name() == name {
			return sw
		}
	}
	return nil
}

func (s *Simulation) findTranslator(name string) *mover.Translator {
	for _, t := range s.translators {
		if t.Name() == name {
			return t
		}
	}
	return nil
}

func (s *Simulation) findRotator(name string) *mover.Rotator {
	for _, r := range s.rotators {
		if r.Name() == name {
			return r
		}
	}
	return nil
}

func (s *Simulation) findMirror(name string) *mirror.Mirror {
	for _, m := range s.mirrors {
		if m.Name() == name {
			return m
		}
	}
	return nil
}
