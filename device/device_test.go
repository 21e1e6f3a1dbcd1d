package device

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zucenko/lumen/laser"
	"github.com/zucenko/lumen/model"
	"github.com/zucenko/lumen/mover"
	"github.com/zucenko/lumen/occupancy"
)

type lamp struct {
	on    bool
	calls int
}

func (l *lamp) SetActiveState(on bool) {
	l.on = on
	l.calls++
}

func newLedger() *occupancy.Ledger {
	return occupancy.NewLedger(model.NewGrid(model.Vec2{}, 1))
}

func TestReceiverPort_CountsBeams(t *testing.T) {
	p := NewReceiverPort("p")
	var changes []bool
	p.OnChange = func(lit bool) { changes = append(changes, lit) }

	p.LaserEnter()
	p.LaserEnter()
	p.LaserExit()
	assert.True(t, p.Lit())
	assert.Equal(t, 1, p.Beams())
	p.LaserExit()
	p.LaserExit()
	assert.False(t, p.Lit())
	assert.Equal(t, 0, p.Beams(), "extra exits are ignored")
	assert.Equal(t, []bool{true, false}, changes)
}

func TestSwitch_WhileHeld(t *testing.T) {
	s := NewSwitch(SwitchConfig{Name: "s", Cell: model.Cell{X: 2}}, newLedger())
	out := &lamp{}
	s.Bind(out)

	s.Port().LaserEnter()
	assert.True(t, out.on)
	s.Port().LaserExit()
	assert.False(t, out.on)
	assert.Equal(t, 2, out.calls)
}

func TestSwitch_LatchHoldsUntilReset(t *testing.T) {
	s := NewSwitch(SwitchConfig{Name: "s", Policy: POLICY_LATCH}, newLedger())
	out := &lamp{}
	s.Bind(out)

	s.Port().LaserEnter()
	s.Port().LaserExit()
	assert.True(t, s.Output())
	assert.True(t, out.on)

	s.ResetLatch()
	assert.False(t, s.Output())
	assert.False(t, s.Latched())

	s.Port().LaserEnter()
	s.ResetLatch()
	assert.True(t, s.Output(), "still lit, latches again")
}

func TestBinder_Invert(t *testing.T) {
	out := &lamp{}
	b := Binder{Invert: true}
	b.Add(out, nil)
	b.Drive(true)
	assert.False(t, out.on)
	assert.Equal(t, 1, b.Len())
}

func TestSwitch_LitBySolver(t *testing.T) {
	l := newLedger()
	s := NewSwitch(SwitchConfig{Name: "s", Cell: model.Cell{X: 3}}, l)
	out := &lamp{}
	s.Bind(out)
	solver := laser.NewSolver(l, laser.DefaultConfig())
	e := laser.NewEmitter("e", model.Cell{}, model.RIGHT)
	solver.Register(e)

	solver.Step()
	assert.True(t, s.Lit())
	assert.Equal(t, 1, s.Beams())
	assert.True(t, out.on)

	solver.Unregister(e)
	assert.False(t, out.on)
}

func TestWallToggle_DelayAndObstruction(t *testing.T) {
	l := newLedger()
	sig := model.NewSignal()
	w := NewWallToggle(WallToggleConfig{Name: "w", Cell: model.Cell{X: 1}, Delay: 0.5, ActiveRaises: true}, l, sig)
	crate := &model.Body{Name: "crate", Blocking: true}
	require.True(t, l.Register(crate, model.Cell{X: 1}))

	w.SetActiveState(true)
	w.Update(0.25)
	assert.False(t, w.Up())
	w.Update(0.25)
	assert.False(t, w.Up(), "occupied cell")

	l.Unregister(crate)
	w.Update(0.1)
	assert.True(t, w.Up())
	assert.True(t, l.IsStatic(model.Cell{X: 1}))

	w.SetActiveState(false)
	w.Update(0.5)
	assert.False(t, w.Up())
	assert.False(t, l.IsBlocked(model.Cell{X: 1}))
}

func TestWallToggle_InitiallyUpLowersWhenActive(t *testing.T) {
	l := newLedger()
	w := NewWallToggle(WallToggleConfig{Name: "w", Cell: model.Cell{}, InitiallyUp: true}, l, nil)
	require.True(t, w.Up())

	w.SetActiveState(true)
	assert.False(t, w.Up())
	assert.False(t, l.IsStatic(model.Cell{}))
}

func TestFloorMoveActuator_AppliesAfterSlide(t *testing.T) {
	l := newLedger()
	floor := mover.NewTranslator(mover.TranslatorConfig{
		Name: "f", End: model.Cell{X: 2}, Timing: mover.TIMING_DURATION, Duration: 1,
	}, l, nil, nil)
	a := NewFloorMoveActuator(floor)

	a.SetActiveState(true)
	require.Equal(t, mover.MOVING, floor.State())
	a.SetActiveState(false)
	floor.Update(1)
	assert.True(t, floor.AtEnd())

	a.Sync()
	floor.Update(1)
	assert.Equal(t, model.Cell{}, floor.Cell())
}

func TestFloorRotateActuator(t *testing.T) {
	table := mover.NewRotator(mover.RotatorConfig{
		Name: "r", EndAngle: 90, Timing: mover.TIMING_DURATION, Duration: 1,
	}, newLedger(), nil, nil)
	a := NewFloorRotateActuator(table)

	a.SetActiveState(true)
	table.Update(1)
	assert.Equal(t, 90.0, table.RawAngle())
	a.SetActiveState(true)
	assert.Equal(t, mover.IDLE, table.State())

	a.SetActiveState(false)
	table.Update(1)
	assert.Equal(t, 0.0, table.RawAngle())
}
