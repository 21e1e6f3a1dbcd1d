// Package level reads level files: a TOML document holding the simulation
// settings, an ASCII map and tables for the entities a map glyph cannot
// describe on its own (movers, paths, bindings).
package level

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	log "github.com/sirupsen/logrus"
	"github.com/zucenko/lumen/device"
	"github.com/zucenko/lumen/door"
	"github.com/zucenko/lumen/mirror"
	"github.com/zucenko/lumen/model"
	"github.com/zucenko/lumen/mover"
	"github.com/zucenko/lumen/sim"
)

// Point is a cell written as [x, y].
type Point [2]int

func (p Point) Cell() model.Cell {
	return model.Cell{X: p[0], Y: p[1]}
}

type File struct {
	Name        string            `toml:"name"`
	Map         string            `toml:"map"`
	Sim         sim.Config        `toml:"sim"`
	Player      PlayerEntry       `toml:"player"`
	Emitters    []EmitterEntry    `toml:"emitter"`
	Mirrors     []MirrorEntry     `toml:"mirror"`
	PathMirrors []PathMirrorEntry `toml:"path_mirror"`
	Doors       []DoorEntry       `toml:"door"`
	Switches    []SwitchEntry     `toml:"switch"`
	Translators []TranslatorEntry `toml:"translator"`
	Rotators    []RotatorEntry    `toml:"rotator"`
	WallToggles []WallToggleEntry `toml:"wall_toggle"`
	Bindings    []BindingEntry    `toml:"binding"`
}

type PlayerEntry struct {
	Name    string   `toml:"name"`
	At      *Point   `toml:"at"`
	Facing  string   `toml:"facing"`
	Keys    int      `toml:"keys"`
	Special []string `toml:"special"`
}

type EmitterEntry struct {
	At   Point  `toml:"at"`
	Name string `toml:"name"`
	Dir  string `toml:"dir"`
}

type MirrorEntry struct {
	At    Point    `toml:"at"`
	Name  string   `toml:"name"`
	Shape string   `toml:"shape"`
	Modes []string `toml:"modes"`
}

type PathMirrorEntry struct {
	Name  string  `toml:"name"`
	Shape string  `toml:"shape"`
	Path  []Point `toml:"path"`
	Start int     `toml:"start"`
	Loop  bool    `toml:"loop"`
	Slide float64 `toml:"slide"`
}

type DoorEntry struct {
	At      Point    `toml:"at"`
	Name    string   `toml:"name"`
	Type    string   `toml:"type"`
	Key     string   `toml:"key"`
	Delay   *float64 `toml:"delay"`
	Initial string   `toml:"initial"`
	Log     bool     `toml:"log"`
}

type SwitchEntry struct {
	At     Point  `toml:"at"`
	Name   string `toml:"name"`
	Policy string `toml:"policy"`
}

type TranslatorEntry struct {
	Name     string  `toml:"name"`
	Start    Point   `toml:"start"`
	End      Point   `toml:"end"`
	Timing   string  `toml:"timing"`
	Duration float64 `toml:"duration"`
	Speed    float64 `toml:"speed"`
	Trigger  string  `toml:"trigger"`
	Blocking bool    `toml:"blocking"`
	Precast  bool    `toml:"precast"`
}

type RotatorEntry struct {
	Name         string  `toml:"name"`
	Pivot        Point   `toml:"pivot"`
	StartAngle   float64 `toml:"start_angle"`
	EndAngle     float64 `toml:"end_angle"`
	Timing       string  `toml:"timing"`
	Duration     float64 `toml:"duration"`
	Speed        float64 `toml:"speed"`
	Radius       int     `toml:"radius"`
	RotateFacing bool    `toml:"rotate_facing"`
	Snap         string  `toml:"snap"`
	Precast      bool    `toml:"precast"`
}

type WallToggleEntry struct {
	At     Point   `toml:"at"`
	Name   string  `toml:"name"`
	Delay  float64 `toml:"delay"`
	Raises bool    `toml:"raises"`
	Up     bool    `toml:"up"`
}

type BindingEntry struct {
	Switch  string   `toml:"switch"`
	Targets []string `toml:"targets"`
	Invert  bool     `toml:"invert"`
}

// Level is a built level ready to be stepped.
type Level struct {
	Name   string
	Layout *Layout
	Sim    *sim.Simulation
}

func (l *Level) Setup() model.Setup {
	cfg := l.Sim.Config()
	return model.Setup{
		Level:    l.Name,
		Width:    l.Layout.Width,
		Height:   l.Layout.Height,
		CellSize: cfg.CellSize,
		Origin:   model.Vec2{X: cfg.OriginX, Y: cfg.OriginY},
		TickRate: cfg.TickRate,
	}
}

// Load reads and builds the level file at path.
func Load(path string) (*Level, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening level: %w", err)
	}
	defer file.Close()
	f, err := Decode(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return Build(f)
}

// Decode reads a level document. Settings missing from [sim] keep their
// defaults.
func Decode(r io.Reader) (*File, error) {
	f := &File{Sim: sim.DefaultConfig()}
	md, err := toml.NewDecoder(r).Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding level: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		log.WithField("keys", strings.Join(keys, ",")).Warn("level has unknown keys")
	}
	return f, nil
}

// Build creates the simulation and every entity of f.
func Build(f *File) (*Level, error) {
	layout, err := readLayout(strings.NewReader(f.Map))
	if err != nil {
		return nil, fmt.Errorf("level %s: %w", f.Name, err)
	}
	s, err := sim.New(f.Sim)
	if err != nil {
		return nil, fmt.Errorf("level %s: %w", f.Name, err)
	}
	b := builder{f: f, layout: layout, sim: s}
	steps := []func() error{
		b.walls, b.doors, b.switches, b.mirrors, b.pathMirrors,
		b.translators, b.rotators, b.wallToggles, b.emitters, b.player, b.bindings,
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return nil, fmt.Errorf("level %s: %w", f.Name, err)
		}
	}
	log.WithFields(log.Fields{
		"level":   f.Name,
		"size":    fmt.Sprintf("%dx%d", layout.Width, layout.Height),
		"walls":   len(layout.Walls),
		"mirrors": len(s.Mirrors()),
		"doors":   len(s.Doors()),
	}).Info("level built")
	return &Level{Name: f.Name, Layout: layout, Sim: s}, nil
}

type builder struct {
	f      *File
	layout *Layout
	sim    *sim.Simulation
}

func autoName(kind string, c model.Cell) string {
	return fmt.Sprintf("%s_%d_%d", kind, c.X, c.Y)
}

func (b *builder) walls() error {
	b.sim.SeedWalls(b.layout.Walls)
	return nil
}

func (b *builder) doors() error {
	var order []model.Cell
	cfgs := make(map[model.Cell]*door.Config)
	for _, md := range b.layout.Doors {
		cfg := &door.Config{Name: autoName("door", md.Cell), Cell: md.Cell, Type: md.Type, Delay: b.f.Sim.DoorDelay}
		if md.Locked {
			cfg.Initial = door.LOCKED
		}
		cfgs[md.Cell] = cfg
		order = append(order, md.Cell)
	}
	for _, e := range b.f.Doors {
		c := e.At.Cell()
		cfg, ok := cfgs[c]
		if !ok {
			cfg = &door.Config{Name: autoName("door", c), Cell: c, Delay: b.f.Sim.DoorDelay}
			cfgs[c] = cfg
			order = append(order, c)
		}
		if e.Name != "" {
			cfg.Name = e.Name
		}
		if e.Type != "" {
			t, err := parseEnum("door type", e.Type, door.TYPE_BASIC, door.TYPE_KEY, door.TYPE_SPECIAL, door.TYPE_DEVICE)
			if err != nil {
				return err
			}
			cfg.Type = t
		}
		if e.Initial != "" {
			st, err := parseEnum("door initial", e.Initial, door.CLOSED, door.OPEN, door.LOCKED)
			if err != nil {
				return err
			}
			cfg.Initial = st
		}
		if e.Delay != nil {
			cfg.Delay = *e.Delay
		}
		cfg.SpecialKey = e.Key
		cfg.LogTransitions = e.Log
	}
	for _, c := range order {
		if _, err := b.sim.AddDoor(*cfgs[c]); err != nil {
			return err
		}
	}
	return nil
}

func (b *builder) switches() error {
	var order []model.Cell
	cfgs := make(map[model.Cell]*device.SwitchConfig)
	for _, c := range b.layout.Switches {
		cfgs[c] = &device.SwitchConfig{Name: autoName("switch", c), Cell: c}
		order = append(order, c)
	}
	for _, e := range b.f.Switches {
		c := e.At.Cell()
		cfg, ok := cfgs[c]
		if !ok {
			cfg = &device.SwitchConfig{Name: autoName("switch", c), Cell: c}
			cfgs[c] = cfg
			order = append(order, c)
		}
		if e.Name != "" {
			cfg.Name = e.Name
		}
		p, err := parseEnum("switch policy", e.Policy, device.POLICY_WHILE_HELD, device.POLICY_LATCH)
		if err != nil {
			return err
		}
		cfg.Policy = p
	}
	for _, c := range order {
		if _, err := b.sim.AddSwitch(*cfgs[c]); err != nil {
			return err
		}
	}
	return nil
}

type mirrorPlan struct {
	name  string
	shape mirror.Shape
	modes mirror.Modes
}

func (b *builder) mirrors() error {
	var order []model.Cell
	plans := make(map[model.Cell]*mirrorPlan)
	for _, mm := range b.layout.Mirrors {
		plans[mm.Cell] = &mirrorPlan{name: autoName("mirror", mm.Cell), shape: mm.Shape, modes: mm.Modes}
		order = append(order, mm.Cell)
	}
	for _, e := range b.f.Mirrors {
		c := e.At.Cell()
		plan, ok := plans[c]
		if !ok {
			plan = &mirrorPlan{name: autoName("mirror", c)}
			plans[c] = plan
			order = append(order, c)
		}
		if e.Name != "" {
			plan.name = e.Name
		}
		if e.Shape != "" {
			shape, err := parseShape(e.Shape)
			if err != nil {
				return err
			}
			plan.shape = shape
		}
		if e.Modes != nil {
			modes, err := parseModes(e.Modes)
			if err != nil {
				return err
			}
			plan.modes = modes
		}
	}
	for _, c := range order {
		plan := plans[c]
		if _, err := b.sim.AddMirror(plan.name, plan.shape, plan.modes, c); err != nil {
			return err
		}
	}
	return nil
}

func (b *builder) pathMirrors() error {
	for _, e := range b.f.PathMirrors {
		shape, err := parseShape(e.Shape)
		if err != nil {
			return err
		}
		cells := make([]model.Cell, len(e.Path))
		for i, p := range e.Path {
			cells[i] = p.Cell()
		}
		if _, err := b.sim.AddPathMirror(e.Name, shape, cells, e.Start, e.Loop, e.Slide); err != nil {
			return err
		}
	}
	return nil
}

func (b *builder) translators() error {
	for _, e := range b.f.Translators {
		timing, err := parseEnum("timing", e.Timing, mover.TIMING_DURATION, mover.TIMING_SPEED)
		if err != nil {
			return err
		}
		trigger, err := parseEnum("trigger", e.Trigger, mover.TRIGGER_FORWARD, mover.TRIGGER_BACKWARD, mover.TRIGGER_TOGGLE)
		if err != nil {
			return err
		}
		_, err = b.sim.AddTranslator(mover.TranslatorConfig{
			Name:     e.Name,
			Start:    e.Start.Cell(),
			End:      e.End.Cell(),
			Timing:   timing,
			Duration: e.Duration,
			Speed:    e.Speed,
			Trigger:  trigger,
			Blocking: e.Blocking,
			Precast:  e.Precast,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (b *builder) rotators() error {
	for _, e := range b.f.Rotators {
		timing, err := parseEnum("timing", e.Timing, mover.TIMING_DURATION, mover.TIMING_SPEED)
		if err != nil {
			return err
		}
		snap, err := parseEnum("snap", e.Snap, mover.SNAP_NEAREST, mover.SNAP_QUARTER)
		if err != nil {
			return err
		}
		_, err = b.sim.AddRotator(mover.RotatorConfig{
			Name:         e.Name,
			Pivot:        e.Pivot.Cell(),
			StartAngle:   e.StartAngle,
			EndAngle:     e.EndAngle,
			Timing:       timing,
			Duration:     e.Duration,
			Speed:        e.Speed,
			Radius:       e.Radius,
			RotateFacing: e.RotateFacing,
			Snap:         snap,
			Precast:      e.Precast,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (b *builder) wallToggles() error {
	for _, e := range b.f.WallToggles {
		name := e.Name
		if name == "" {
			name = autoName("wall", e.At.Cell())
		}
		b.sim.AddWallToggle(device.WallToggleConfig{
			Name:         name,
			Cell:         e.At.Cell(),
			Delay:        e.Delay,
			ActiveRaises: e.Raises,
			InitiallyUp:  e.Up,
		})
	}
	return nil
}

func (b *builder) emitters() error {
	type plan struct {
		name string
		dir  model.Dir
	}
	var order []model.Cell
	plans := make(map[model.Cell]*plan)
	for _, me := range b.layout.Emitters {
		plans[me.Cell] = &plan{name: autoName("emitter", me.Cell), dir: me.Dir}
		order = append(order, me.Cell)
	}
	for _, e := range b.f.Emitters {
		c := e.At.Cell()
		sp, ok := plans[c]
		if !ok {
			sp = &plan{name: autoName("emitter", c)}
			plans[c] = sp
			order = append(order, c)
		}
		if e.Name != "" {
			sp.name = e.Name
		}
		if e.Dir != "" || !ok {
			d, err := parseEnum("emitter dir", e.Dir, model.RIGHT, model.UP, model.LEFT, model.DOWN)
			if err != nil {
				return err
			}
			sp.dir = d
		}
	}
	for _, c := range order {
		b.sim.AddEmitter(plans[c].name, c, plans[c].dir)
	}
	return nil
}

func (b *builder) player() error {
	p := b.f.Player
	cell := b.layout.Player
	if p.At != nil {
		c := p.At.Cell()
		cell = &c
	}
	if cell == nil {
		return nil
	}
	facing, err := parseEnum("player facing", p.Facing, model.UP, model.RIGHT, model.LEFT, model.DOWN)
	if err != nil {
		return err
	}
	name := p.Name
	if name == "" {
		name = "player"
	}
	a, err := b.sim.SpawnActor(name, *cell, facing)
	if err != nil {
		return err
	}
	a.Inventory().AddKeys(p.Keys)
	for _, k := range p.Special {
		a.Inventory().GrantSpecial(k)
	}
	return nil
}

func (b *builder) bindings() error {
	for _, e := range b.f.Bindings {
		if err := b.sim.Bind(e.Switch, e.Targets...); err != nil {
			return err
		}
		if !e.Invert {
			continue
		}
		for _, sw := range b.sim.Switches() {
			if sw.Name() == e.Switch {
				sw.SetInvert(true)
			}
		}
	}
	return nil
}

type named interface {
	Name() string
}

// parseEnum matches s against the names of all, ignoring case. An empty s
// picks all[0].
func parseEnum[T named](field, s string, all ...T) (T, error) {
	if s == "" {
		return all[0], nil
	}
	for _, v := range all {
		if strings.EqualFold(v.Name(), s) {
			return v, nil
		}
	}
	names := make([]string, len(all))
	for i, v := range all {
		names[i] = strings.ToLower(v.Name())
	}
	sort.Strings(names)
	var zero T
	return zero, fmt.Errorf("%s: unknown value %q, want one of %s", field, s, strings.Join(names, ", "))
}

// parseShape accepts a shape name or its glyph.
func parseShape(s string) (mirror.Shape, error) {
	if r := []rune(s); len(r) == 1 {
		if shape, ok := mirror.ShapeOf(r[0]); ok {
			return shape, nil
		}
	}
	return parseEnum("mirror shape", s, mirror.SLASH, mirror.BACKSLASH, mirror.VERTICAL, mirror.HORIZONTAL)
}

func parseModes(names []string) (mirror.Modes, error) {
	var modes mirror.Modes
	for _, n := range names {
		switch strings.ToLower(n) {
		case "carry":
			modes |= mirror.MODE_CARRY
		case "push":
			modes |= mirror.MODE_PUSH
		default:
			return 0, fmt.Errorf("mirror mode: unknown value %q", n)
		}
	}
	return modes, nil
}
