package actor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zucenko/lumen/door"
	"github.com/zucenko/lumen/mirror"
	"github.com/zucenko/lumen/model"
	"github.com/zucenko/lumen/occupancy"
)

func newLedger() *occupancy.Ledger {
	return occupancy.NewLedger(model.NewGrid(model.Vec2{}, 1))
}

func TestStep_RespectsLedgerAndLock(t *testing.T) {
	l := newLedger()
	l.SeedStatic([]model.Cell{{X: 2}})
	a := New("p", model.Cell{}, model.UP, l)

	require.True(t, a.Step(model.RIGHT))
	assert.Equal(t, model.Cell{X: 1}, a.Cell())
	assert.Equal(t, model.RIGHT, a.Facing())
	assert.False(t, a.Step(model.RIGHT), "wall")

	a.SetExternalLock(true)
	assert.False(t, a.Step(model.UP))
	a.SetExternalLock(false)
	assert.True(t, a.Step(model.UP))
	assert.Equal(t, model.Vec2{X: 1.5, Y: 1.5}, a.Position())
}

func TestInteract_CarryAndDrop(t *testing.T) {
	l := newLedger()
	m := mirror.New("m", mirror.SLASH, mirror.MODE_CARRY, l, nil)
	require.True(t, m.Place(model.Cell{X: 1}))
	a := New("p", model.Cell{}, model.RIGHT, l)

	require.True(t, a.Interact())
	assert.Equal(t, m, a.Carried())
	assert.False(t, m.Registered())

	require.True(t, a.Step(model.UP))
	assert.Equal(t, model.Vec2{X: 0.5, Y: 2}, m.Position())

	a.Face(model.RIGHT)
	require.True(t, a.Interact())
	assert.Nil(t, a.Carried())
	c, ok := l.CellOf(m.GridBody())
	require.True(t, ok)
	assert.Equal(t, model.Cell{X: 1, Y: 1}, c)
}

func TestInteract_PushLocksAxis(t *testing.T) {
	l := newLedger()
	l.SeedStatic([]model.Cell{{X: 4}})
	m := mirror.New("m", mirror.BACKSLASH, mirror.MODE_PUSH, l, nil)
	require.True(t, m.Place(model.Cell{X: 1}))
	a := New("p", model.Cell{}, model.RIGHT, l)

	require.True(t, a.Interact())
	require.Equal(t, m, a.Pushed())

	assert.False(t, a.Step(model.UP), "off the push axis")
	assert.False(t, a.Face(model.UP))
	require.True(t, a.Step(model.RIGHT))
	require.True(t, a.Step(model.RIGHT))
	assert.Equal(t, model.Vec2{X: 3.5, Y: 0.5}, m.Position())
	assert.False(t, a.Step(model.RIGHT), "mirror would enter the wall")
	require.True(t, a.Step(model.LEFT))

	require.True(t, a.Interact())
	assert.Nil(t, a.Pushed())
	c, _ := l.CellOf(m.GridBody())
	assert.Equal(t, model.Cell{X: 2}, c)
}

func TestInteract_Doors(t *testing.T) {
	l := newLedger()
	d := door.New(door.Config{Name: "d", Cell: model.Cell{X: 1}, Type: door.TYPE_KEY}, l, nil)
	a := New("p", model.Cell{}, model.RIGHT, l)

	assert.False(t, a.Interact(), "no key")
	assert.False(t, a.Step(model.RIGHT))

	a.Inventory().AddKeys(1)
	require.True(t, a.Interact())
	assert.Equal(t, door.OPEN, d.State())
	require.True(t, a.Step(model.RIGHT), "open door is passable")

	require.True(t, a.Step(model.RIGHT))
	a.Face(model.LEFT)
	require.True(t, a.Interact())
	assert.Equal(t, door.CLOSED, d.State())
}

func TestRotateMirror(t *testing.T) {
	l := newLedger()
	m := mirror.New("m", mirror.SLASH, mirror.MODE_CARRY, l, nil)
	require.True(t, m.Place(model.Cell{Y: 1}))
	a := New("p", model.Cell{}, model.UP, l)

	require.True(t, a.RotateMirror())
	assert.Equal(t, mirror.HORIZONTAL, m.Shape())
	a.Face(model.RIGHT)
	assert.False(t, a.RotateMirror())
}

func TestRotateFacing(t *testing.T) {
	a := New("p", model.Cell{}, model.RIGHT, newLedger())
	a.RotateFacing(45)
	a.RotateFacing(45)
	assert.Equal(t, model.UP, a.Facing())
	a.RotateFacing(-270)
	assert.Equal(t, model.LEFT, a.Facing())
}
