package occupancy

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zucenko/lumen/model"
)

func newBody(name string) *model.Body {
	return &model.Body{Name: name, Blocking: true}
}

func TestRegister_RejectsStaticAndHeldCells(t *testing.T) {
	l := NewLedger(model.NewGrid(model.Vec2{}, 1))
	l.SeedStatic([]model.Cell{{X: 1, Y: 0}})

	a, b := newBody("a"), newBody("b")
	assert.False(t, l.Register(a, model.Cell{X: 1, Y: 0}))
	require.True(t, l.Register(a, model.Cell{X: 2, Y: 0}))
	assert.False(t, l.Register(b, model.Cell{X: 2, Y: 0}))

	assert.Equal(t, a, l.OccupantOf(model.Cell{X: 2, Y: 0}))
	assert.False(t, l.IsRegistered(b))
	assert.Equal(t, model.Vec2{X: 2.5, Y: 0.5}, a.Pos)
}

func TestRegister_NonBlockingIsNeverTracked(t *testing.T) {
	l := NewLedger(model.NewGrid(model.Vec2{}, 1))
	ghost := &model.Body{Name: "ghost"}

	assert.False(t, l.Register(ghost, model.Cell{}))
	assert.False(t, l.IsBlocked(model.Cell{}))
	assert.Equal(t, 0, l.Len())
}

func TestRegister_ReplacesPreviousMapping(t *testing.T) {
	l := NewLedger(model.NewGrid(model.Vec2{}, 1))
	a := newBody("a")

	require.True(t, l.Register(a, model.Cell{X: 0, Y: 0}))
	require.True(t, l.Register(a, model.Cell{X: 4, Y: 4}))

	assert.False(t, l.IsOccupied(model.Cell{X: 0, Y: 0}))
	c, ok := l.CellOf(a)
	require.True(t, ok)
	assert.Equal(t, model.Cell{X: 4, Y: 4}, c)
	assert.Equal(t, 1, l.Len())
}

func TestUnregister_RoundTripRestoresLedger(t *testing.T) {
	l := NewLedger(model.NewGrid(model.Vec2{}, 1))
	other := newBody("other")
	require.True(t, l.Register(other, model.Cell{X: 5, Y: 5}))

	a := newBody("a")
	require.True(t, l.Register(a, model.Cell{X: 1, Y: 1}))
	l.Unregister(a)

	assert.False(t, l.IsBlocked(model.Cell{X: 1, Y: 1}))
	assert.False(t, l.IsRegistered(a))
	assert.Equal(t, 1, l.Len())
	assert.Equal(t, other, l.OccupantOf(model.Cell{X: 5, Y: 5}))

	// idempotent
	l.Unregister(a)
	l.UnregisterCell(model.Cell{X: 1, Y: 1})
	assert.Equal(t, 1, l.Len())
}

func TestUnregisterCell(t *testing.T) {
	l := NewLedger(model.NewGrid(model.Vec2{}, 1))
	a := newBody("a")
	require.True(t, l.Register(a, model.Cell{X: 3, Y: 1}))

	l.UnregisterCell(model.Cell{X: 3, Y: 1})

	assert.False(t, l.IsRegistered(a))
	assert.Nil(t, l.OccupantOf(model.Cell{X: 3, Y: 1}))
}

func TestMove(t *testing.T) {
	l := NewLedger(model.NewGrid(model.Vec2{}, 1))
	l.SeedStatic([]model.Cell{{X: 0, Y: 3}})
	a, b := newBody("a"), newBody("b")
	require.True(t, l.Register(a, model.Cell{X: 0, Y: 0}))
	require.True(t, l.Register(b, model.Cell{X: 0, Y: 1}))

	assert.False(t, l.Move(a, model.Cell{X: 0, Y: 1}), "held by b")
	assert.False(t, l.Move(a, model.Cell{X: 0, Y: 3}), "static")
	assert.False(t, l.Move(newBody("stranger"), model.Cell{X: 7, Y: 7}), "not registered")

	a.Pos = model.Vec2{X: 9, Y: 9}
	require.True(t, l.Move(a, model.Cell{X: 1, Y: 0}))
	assert.Equal(t, model.Vec2{X: 1.5, Y: 0.5}, a.Pos)
	assert.Equal(t, model.Cell{X: 1, Y: 0}, a.Cell)
	assert.False(t, l.IsOccupied(model.Cell{X: 0, Y: 0}))
}

func TestMove_SameCellTwiceIsIdempotent(t *testing.T) {
	l := NewLedger(model.NewGrid(model.Vec2{}, 1))
	a := newBody("a")
	require.True(t, l.Register(a, model.Cell{}))

	target := model.Cell{X: 2, Y: 0}
	assert.True(t, l.Move(a, target))
	assert.True(t, l.Move(a, target))
	assert.Equal(t, a, l.OccupantOf(target))
	assert.Equal(t, 1, l.Len())
}

func TestAddStatic_RefusedOnHeldCell(t *testing.T) {
	l := NewLedger(model.NewGrid(model.Vec2{}, 1))
	a := newBody("a")
	require.True(t, l.Register(a, model.Cell{}))

	assert.False(t, l.AddStatic(model.Cell{}))
	assert.True(t, l.AddStatic(model.Cell{X: 1}))
	assert.True(t, l.IsBlocked(model.Cell{X: 1}))

	l.RemoveStatic(model.Cell{X: 1})
	assert.False(t, l.IsBlocked(model.Cell{X: 1}))
}

type reflectorOwner struct{}

func (reflectorOwner) Reflect(d model.Dir) model.Dir { return d.Opposite() }

func TestRegister_ResolvesCapabilities(t *testing.T) {
	l := NewLedger(model.NewGrid(model.Vec2{}, 1))
	m := &model.Body{Name: "m", Blocking: true, Kind: model.KIND_MIRROR, Owner: reflectorOwner{}}
	bare := &model.Body{Name: "bare", Blocking: true, Kind: model.KIND_MIRROR}

	require.True(t, l.Register(m, model.Cell{}))
	require.True(t, l.Register(bare, model.Cell{X: 1}))

	r, ok := l.RecordAt(model.Cell{})
	require.True(t, ok)
	assert.Equal(t, model.KIND_MIRROR, r.Caps.Kind)
	require.NotNil(t, r.Caps.Reflector)
	assert.Equal(t, model.LEFT, r.Caps.Reflector.Reflect(model.RIGHT))

	r, _ = l.RecordAt(model.Cell{X: 1})
	assert.Equal(t, model.KIND_WALL, r.Caps.Kind)
}

// Randomized register/move/unregister sequences never place two bodies in one
// cell and keep both directions of the mapping in agreement.
func TestLedger_SingleOccupantInvariant(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	l := NewLedger(model.NewGrid(model.Vec2{}, 1))
	l.SeedStatic([]model.Cell{{X: 2, Y: 2}, {X: 0, Y: 4}})

	bodies := make([]*model.Body, 12)
	for i := range bodies {
		bodies[i] = newBody("b")
	}
	cell := func() model.Cell { return model.Cell{X: rng.Intn(5), Y: rng.Intn(5)} }

	for step := 0; step < 5000; step++ {
		b := bodies[rng.Intn(len(bodies))]
		before := l.Len()
		switch rng.Intn(4) {
		case 0:
			c := cell()
			if !l.Register(b, c) {
				assert.Equal(t, before, l.Len())
			}
		case 1:
			c := cell()
			prev, had := l.CellOf(b)
			if !l.Move(b, c) && had {
				now, _ := l.CellOf(b)
				assert.Equal(t, prev, now)
			}
		case 2:
			l.Unregister(b)
		case 3:
			l.UnregisterCell(cell())
		}

		seen := map[model.Cell]*model.Body{}
		for body, c := range l.bodies {
			if other, dup := seen[c]; dup {
				t.Fatalf("step %d: %v and %v share %v", step, other, body, c)
			}
			seen[c] = body
			require.Equal(t, body, l.cells[c].Body)
			require.False(t, l.IsStatic(c))
		}
		require.Equal(t, len(l.bodies), len(l.cells))
	}
}
