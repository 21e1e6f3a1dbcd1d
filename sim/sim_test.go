package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zucenko/lumen/device"
	"github.com/zucenko/lumen/door"
	"github.com/zucenko/lumen/mirror"
	"github.com/zucenko/lumen/model"
	"github.com/zucenko/lumen/mover"
)

func newSim(t *testing.T) *Simulation {
	s, err := New(DefaultConfig())
	require.NoError(t, err)
	return s
}

func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())

	c := DefaultConfig()
	c.CellSize = 0
	assert.Error(t, c.Validate())

	c = DefaultConfig()
	c.TickRate = 0
	assert.Error(t, c.Validate())

	c = DefaultConfig()
	c.ReflectionOffset = 0.6
	assert.Error(t, c.Validate())

	_, err := New(c)
	assert.Error(t, err)

	assert.Equal(t, 1.0/60, DefaultConfig().TickSeconds())
}

func TestStep_OneRecomputePerTick(t *testing.T) {
	s := newSim(t)
	s.SeedWalls([]model.Cell{{X: 5}})
	s.AddEmitter("e", model.Cell{}, model.RIGHT)
	m, err := s.AddMirror("m", mirror.SLASH, mirror.MODE_CARRY, model.Cell{X: 3, Y: 1})
	require.NoError(t, err)

	s.Step(0.1)
	assert.Equal(t, 1, s.Solver().Passes())
	s.Step(0.1)
	assert.Equal(t, 1, s.Solver().Passes(), "nothing changed")

	m.Rotate()
	m.Rotate()
	m.Rotate()
	s.Step(0.1)
	assert.Equal(t, 2, s.Solver().Passes())
	assert.Equal(t, uint64(3), s.Tick())
}

func TestBeamSwitchOpensBoundDoor(t *testing.T) {
	s := newSim(t)
	e := s.AddEmitter("e", model.Cell{}, model.RIGHT)
	sw, err := s.AddSwitch(device.SwitchConfig{Name: "sw", Cell: model.Cell{X: 3}})
	require.NoError(t, err)
	d, err := s.AddDoor(door.Config{Name: "gate", Cell: model.Cell{Y: 2}, Type: door.TYPE_DEVICE, Delay: 0.2})
	require.NoError(t, err)
	require.NoError(t, s.Bind("sw", "gate"))
	assert.Error(t, s.Bind("sw", "nope"))
	assert.Error(t, s.Bind("nope", "gate"))

	s.Step(0.1)
	assert.True(t, sw.Lit())
	assert.Equal(t, door.OPENING, d.State())
	s.Step(0.1)
	s.Step(0.1)
	assert.Equal(t, door.OPEN, d.State())

	s.RemoveEmitter(e)
	assert.False(t, sw.Output())
	assert.Equal(t, door.CLOSING, d.State())
}

func TestApply_ActorActions(t *testing.T) {
	s := newSim(t)
	s.SeedWalls([]model.Cell{{X: 3}})
	_, err := s.AddMirror("m", mirror.SLASH, mirror.MODE_CARRY, model.Cell{X: 2})
	require.NoError(t, err)
	a, err := s.SpawnActor("p", model.Cell{}, model.UP)
	require.NoError(t, err)

	assert.True(t, s.Apply(model.Action{Kind: model.ACT_STEP, Dir: model.RIGHT}))
	assert.Equal(t, model.Cell{X: 1}, a.Cell())
	assert.False(t, s.Apply(model.Action{Kind: model.ACT_STEP, Dir: model.RIGHT}), "mirror in the way")

	assert.True(t, s.Apply(model.Action{Kind: model.ACT_ROTATE_MIRROR}))
	assert.True(t, s.Apply(model.Action{Kind: model.ACT_INTERACT}))
	require.NotNil(t, a.Carried())

	assert.True(t, s.Apply(model.Action{Kind: model.ACT_FACE, Dir: model.UP}))
	assert.True(t, s.Apply(model.Action{Kind: model.ACT_INTERACT}))
	assert.Nil(t, a.Carried())

	assert.False(t, s.Apply(model.Action{Kind: model.ACT_TRIGGER, Target: "missing"}))
	assert.False(t, s.Apply(model.Action{Kind: model.ActionKind(99)}))
}

func TestApply_WithoutActor(t *testing.T) {
	s := newSim(t)
	assert.False(t, s.Apply(model.Action{Kind: model.ACT_STEP, Dir: model.UP}))
	assert.False(t, s.Apply(model.Action{Kind: model.ACT_INTERACT}))
}

func TestTranslatorCarriesActor(t *testing.T) {
	s := newSim(t)
	f, err := s.AddTranslator(mover.TranslatorConfig{
		Name: "lift", End: model.Cell{X: 2}, Timing: mover.TIMING_DURATION, Duration: 1,
	})
	require.NoError(t, err)
	a, err := s.SpawnActor("p", model.Cell{}, model.UP)
	require.NoError(t, err)

	require.True(t, s.Apply(model.Action{Kind: model.ACT_TRIGGER, Target: "lift"}))
	s.Step(0.5)
	assert.True(t, a.Locked())
	assert.False(t, s.Apply(model.Action{Kind: model.ACT_STEP, Dir: model.UP}), "riding")
	s.Step(0.5)

	assert.True(t, f.AtEnd())
	assert.False(t, a.Locked())
	assert.Equal(t, model.Cell{X: 2}, a.Cell())
	assert.Equal(t, model.Vec2{X: 2.5, Y: 0.5}, a.Position())
}

func TestMoversKeepOffTheActor(t *testing.T) {
	s := newSim(t)
	m, err := s.AddPathMirror("pm", mirror.SLASH, []model.Cell{{}, {X: 1}}, 0, false, 0)
	require.NoError(t, err)
	f, err := s.AddTranslator(mover.TranslatorConfig{
		Name: "gate", Start: model.Cell{Y: 2}, End: model.Cell{X: 2, Y: 2},
		Timing: mover.TIMING_DURATION, Duration: 1, Blocking: true,
	})
	require.NoError(t, err)
	_, err = s.SpawnActor("p", model.Cell{X: 1}, model.UP)
	require.NoError(t, err)

	assert.False(t, s.Apply(model.Action{Kind: model.ACT_PATH_STEP, Target: "pm"}))
	assert.Equal(t, model.Cell{}, m.GridBody().Cell)

	require.True(t, s.Apply(model.Action{Kind: model.ACT_STEP, Dir: model.RIGHT}))
	require.True(t, s.Apply(model.Action{Kind: model.ACT_STEP, Dir: model.UP}))
	require.True(t, s.Apply(model.Action{Kind: model.ACT_STEP, Dir: model.UP}))
	require.Equal(t, model.Cell{X: 2, Y: 2}, s.Actor().Cell())

	assert.False(t, s.Apply(model.Action{Kind: model.ACT_TRIGGER, Target: "gate"}))
	s.Step(1)
	assert.Equal(t, model.Cell{Y: 2}, f.Cell())
}

func TestApply_PathStepAndForceStop(t *testing.T) {
	s := newSim(t)
	path := []model.Cell{{}, {X: 1}, {X: 2}}
	m, err := s.AddPathMirror("pm", mirror.SLASH, path, 0, false, 0)
	require.NoError(t, err)

	assert.True(t, s.Apply(model.Action{Kind: model.ACT_PATH_STEP, Target: "pm"}))
	assert.Equal(t, 1, m.PathIndex())
	assert.True(t, s.Apply(model.Action{Kind: model.ACT_PATH_STEP, Target: "pm", Step: -1}))
	assert.Equal(t, 0, m.PathIndex())

	_, err = s.AddTranslator(mover.TranslatorConfig{
		Name: "lift", Start: model.Cell{Y: 3}, End: model.Cell{X: 2, Y: 3}, Timing: mover.TIMING_DURATION, Duration: 1,
	})
	require.NoError(t, err)
	require.True(t, s.Apply(model.Action{Kind: model.ACT_TRIGGER, Target: "lift"}))
	assert.True(t, s.Apply(model.Action{Kind: model.ACT_FORCE_STOP, Target: "lift"}))
	assert.False(t, s.Apply(model.Action{Kind: model.ACT_FORCE_STOP, Target: "ghost"}))
}

func TestSnapshot(t *testing.T) {
	s := newSim(t)
	s.SeedWalls([]model.Cell{{X: 4, Y: 1}, {X: 1, Y: 0}, {X: 0, Y: 1}})
	s.AddEmitter("e", model.Cell{Y: 3}, model.RIGHT)
	_, err := s.AddMirror("m", mirror.BACKSLASH, mirror.MODE_PUSH, model.Cell{X: 2, Y: 3})
	require.NoError(t, err)
	_, err = s.AddDoor(door.Config{Name: "d", Cell: model.Cell{X: 3}, Type: door.TYPE_BASIC})
	require.NoError(t, err)
	a, err := s.SpawnActor("p", model.Cell{X: 2, Y: 2}, model.UP)
	require.NoError(t, err)
	a.Inventory().AddKeys(2)
	s.Step(0.1)

	snap := s.Snapshot()
	assert.Equal(t, uint64(1), snap.Tick)
	assert.Equal(t, []model.Cell{{X: 1, Y: 0}, {X: 0, Y: 1}, {X: 4, Y: 1}}, snap.Walls)
	require.Len(t, snap.Beams, 1)
	assert.Equal(t, model.Vec2{X: 0.5, Y: 3.5}, snap.Beams[0].Points[0])
	require.Len(t, snap.Mirrors, 1)
	assert.Equal(t, '\\', snap.Mirrors[0].Shape)
	require.Len(t, snap.Doors, 1)
	assert.Equal(t, "CLOSED", snap.Doors[0].State)
	require.NotNil(t, snap.Actor)
	assert.Equal(t, 2, snap.Actor.Keys)
	assert.Equal(t, model.UP, snap.Actor.Facing)
}
