package laser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zucenko/lumen/mirror"
	"github.com/zucenko/lumen/model"
	"github.com/zucenko/lumen/occupancy"
)

type countingReceiver struct {
	enters, exits int
	dead          bool
}

func (r *countingReceiver) LaserEnter() { r.enters++ }
func (r *countingReceiver) LaserExit()  { r.exits++ }
func (r *countingReceiver) Alive() bool { return !r.dead }

type fakeDoor struct {
	solid bool
}

func (d *fakeDoor) Solid() bool { return d.solid }

func newWorld() (*occupancy.Ledger, *Solver) {
	l := occupancy.NewLedger(model.NewGrid(model.Vec2{}, 1))
	return l, NewSolver(l, DefaultConfig())
}

func placeMirror(t *testing.T, l *occupancy.Ledger, shape mirror.Shape, c model.Cell) *mirror.Mirror {
	m := mirror.New("m", shape, mirror.MODE_CARRY, l, nil)
	require.True(t, m.Place(c))
	return m
}

func TestTrace_MirrorThenWall(t *testing.T) {
	l, s := newWorld()
	placeMirror(t, l, mirror.SLASH, model.Cell{X: 3, Y: 0})
	l.SeedStatic([]model.Cell{{X: 3, Y: 5}})
	e := NewEmitter("e", model.Cell{}, model.RIGHT)
	s.Register(e)

	require.True(t, s.Step())

	assert.Equal(t, []model.Vec2{
		{X: 0.5, Y: 0.5},
		{X: 3.5, Y: 0.5},
		{X: 3.5, Y: 5},
	}, e.Path())
}

func TestTrace_MirrorWithoutReflectorStopsBeam(t *testing.T) {
	l, s := newWorld()
	bare := &model.Body{Name: "bare", Blocking: true, Kind: model.KIND_MIRROR}
	require.True(t, l.Register(bare, model.Cell{X: 2, Y: 0}))
	e := NewEmitter("e", model.Cell{}, model.RIGHT)
	s.Register(e)

	assert.NotPanics(t, func() { s.Step() })
	assert.Equal(t, []model.Vec2{{X: 0.5, Y: 0.5}, {X: 2, Y: 0.5}}, e.Path())
}

func TestTrace_NothingHitEndsAtMaxRange(t *testing.T) {
	_, s := newWorld()
	points, lit := s.Trace(model.Cell{}, model.UP)

	assert.Equal(t, []model.Vec2{{X: 0.5, Y: 0.5}, {X: 0.5, Y: 100.5}}, points)
	assert.Empty(t, lit)
}

func TestTrace_WallBeyondRangeIsIgnored(t *testing.T) {
	l := occupancy.NewLedger(model.NewGrid(model.Vec2{}, 1))
	cfg := DefaultConfig()
	cfg.MaxDistance = 5
	s := NewSolver(l, cfg)
	l.SeedStatic([]model.Cell{{X: 9, Y: 0}})

	points, _ := s.Trace(model.Cell{}, model.RIGHT)
	assert.Equal(t, model.Vec2{X: 5.5, Y: 0.5}, points[len(points)-1])
}

func TestTrace_BounceLimit(t *testing.T) {
	l := occupancy.NewLedger(model.NewGrid(model.Vec2{}, 1))
	cfg := DefaultConfig()
	cfg.MaxBounce = 2
	s := NewSolver(l, cfg)
	placeMirror(t, l, mirror.SLASH, model.Cell{X: 2, Y: 0})
	placeMirror(t, l, mirror.BACKSLASH, model.Cell{X: 2, Y: 2})
	placeMirror(t, l, mirror.SLASH, model.Cell{X: 0, Y: 2})

	points, _ := s.Trace(model.Cell{}, model.RIGHT)
	assert.Equal(t, []model.Vec2{{X: 0.5, Y: 0.5}, {X: 2.5, Y: 0.5}, {X: 2.5, Y: 2.5}}, points)
}

func TestTrace_DoorPassesOnlyWhileSolid(t *testing.T) {
	l, s := newWorld()
	door := &fakeDoor{solid: true}
	body := &model.Body{Name: "door", Blocking: true, Kind: model.KIND_DOOR, Owner: door}
	require.True(t, l.Register(body, model.Cell{X: 2, Y: 0}))

	points, _ := s.Trace(model.Cell{}, model.RIGHT)
	require.Len(t, points, 3)
	assert.InDelta(t, 2.6, points[1].X, 1e-9)
	assert.InDelta(t, 102.6, points[2].X, 1e-9)

	door.solid = false
	points, _ = s.Trace(model.Cell{}, model.RIGHT)
	assert.Equal(t, []model.Vec2{{X: 0.5, Y: 0.5}, {X: 100.5, Y: 0.5}}, points)
}

func TestNearest_TiePrefersClassOrder(t *testing.T) {
	wall := Hit{Class: HIT_WALL, Distance: 2 + 1e-12}
	door := Hit{Class: HIT_DOOR, Distance: 2}
	assert.True(t, closer(wall, door))
	assert.False(t, closer(door, wall))

	far := Hit{Class: HIT_WALL, Distance: 2.5}
	assert.True(t, closer(door, far))
}

func TestStep_EnterAndExit(t *testing.T) {
	l, s := newWorld()
	r := &countingReceiver{}
	dev := &model.Body{Name: "switch", Blocking: true, Kind: model.KIND_DEVICE, Owner: r}
	require.True(t, l.Register(dev, model.Cell{X: 5, Y: 0}))
	e := NewEmitter("e", model.Cell{}, model.RIGHT)
	s.Register(e)

	s.Step()
	assert.Equal(t, 1, r.enters)
	assert.Equal(t, []model.Receiver{r}, s.Illuminated(e))

	// still lit: no repeated enter
	s.MarkDirty()
	s.Step()
	assert.Equal(t, 1, r.enters)

	require.True(t, l.AddStatic(model.Cell{X: 3, Y: 0}))
	s.MarkDirty()
	s.Step()
	assert.Equal(t, 1, r.exits)
	assert.Empty(t, s.Illuminated(e))
}

func TestUnregister_SynthesizesExit(t *testing.T) {
	l, s := newWorld()
	r := &countingReceiver{}
	dev := &model.Body{Name: "switch", Blocking: true, Kind: model.KIND_DEVICE, Owner: r}
	require.True(t, l.Register(dev, model.Cell{X: 0, Y: 4}))
	e := NewEmitter("e", model.Cell{}, model.UP)
	s.Register(e)
	s.Step()
	require.Equal(t, 1, r.enters)
	passes := s.Passes()

	s.Unregister(e)

	assert.Equal(t, 1, r.exits)
	assert.Equal(t, passes, s.Passes())
	assert.Empty(t, s.Emitters())
	assert.Empty(t, e.Path())
}

func TestStep_SkipsDeadReceivers(t *testing.T) {
	l, s := newWorld()
	r := &countingReceiver{}
	dev := &model.Body{Name: "switch", Blocking: true, Kind: model.KIND_DEVICE, Owner: r}
	require.True(t, l.Register(dev, model.Cell{X: 2, Y: 0}))
	e := NewEmitter("e", model.Cell{}, model.RIGHT)
	s.Register(e)
	s.Step()

	r.dead = true
	l.Unregister(dev)
	s.MarkDirty()
	s.Step()
	assert.Equal(t, 0, r.exits)
}

func TestStep_BatchesSignals(t *testing.T) {
	_, s := newWorld()
	sig := model.NewSignal()
	s.Listen(sig)
	s.Register(NewEmitter("e", model.Cell{}, model.RIGHT))

	require.True(t, s.Step())
	assert.False(t, s.Step())

	for i := 0; i < 10; i++ {
		sig.Raise()
	}
	assert.True(t, s.Step())
	assert.False(t, s.Step())
	assert.Equal(t, 2, s.Passes())
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate(1))

	cfg := DefaultConfig()
	cfg.ReflectionOffset = 0.5
	assert.Error(t, cfg.Validate(1))

	cfg = DefaultConfig()
	cfg.MaxBounce = 0
	assert.Error(t, cfg.Validate(1))
}
