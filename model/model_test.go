package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGrid_RoundTrip(t *testing.T) {
	g := NewGrid(Vec2{X: -2, Y: 1}, 2)
	c := Cell{X: 3, Y: -1}
	p := g.CellToWorld(c)
	assert.Equal(t, Vec2{X: 5, Y: 0}, p)
	assert.Equal(t, c, g.WorldToCell(p))
	assert.Equal(t, c, g.WorldToCell(Vec2{X: 4, Y: -1}), "lower edge belongs to the cell")
	assert.Equal(t, Cell{X: 3, Y: 0}, g.WorldToCell(Vec2{X: 4, Y: 1}))
	assert.Equal(t, p, g.Snap(Vec2{X: 5.9, Y: -0.9}))
	assert.True(t, g.Contains(c, Vec2{X: 4.1, Y: 0.9}))

	assert.Equal(t, 1.0, NewGrid(Vec2{}, 0).CellSize)
}

func TestDir(t *testing.T) {
	for d := RIGHT; d <= DOWN; d++ {
		assert.Equal(t, d, d.Opposite().Opposite())
		assert.Equal(t, Cell{}, d.Cell().Add(d.Opposite().Cell()))
		assert.Equal(t, d, DirOf(d.Vec()))
	}
	assert.False(t, NO_DIR.Valid())
	assert.Equal(t, NO_DIR, DirOf(Vec2{X: 1, Y: 1}))
	assert.Equal(t, LEFT, DirOf(Vec2{X: -3, Y: 1}))
	assert.Equal(t, "n/a:-1", NO_DIR.Name())
	assert.Equal(t, Cell{X: 2, Y: 4}, Cell{X: 2, Y: 3}.Neighbor(UP))
}

func TestCell_RotateQuarter(t *testing.T) {
	c := Cell{X: 2, Y: 1}
	assert.Equal(t, Cell{X: -1, Y: 2}, c.RotateQuarter(1))
	assert.Equal(t, Cell{X: -2, Y: -1}, c.RotateQuarter(2))
	assert.Equal(t, Cell{X: 1, Y: -2}, c.RotateQuarter(-1))
	assert.Equal(t, c, c.RotateQuarter(8))
}

func TestMoveTowards(t *testing.T) {
	target := Vec2{X: 3}
	p := Vec2{}
	for i := 0; i < 10; i++ {
		p = MoveTowards(p, target, 0.3)
	}
	assert.Equal(t, target, p, "snaps exactly once within reach")
	assert.Equal(t, Vec2{X: 1}, MoveTowards(Vec2{}, target, 1))
	assert.Equal(t, Vec2{X: 1.5, Y: 1}, Lerp(Vec2{X: 1}, Vec2{X: 2, Y: 2}, 0.5))
	r := Vec2{X: 1}.Rotate(90)
	assert.InDelta(t, 0, r.X, 1e-12)
	assert.InDelta(t, 1, r.Y, 1e-12)
}

func TestSignal(t *testing.T) {
	var nilSignal *Signal
	nilSignal.Raise()

	s := NewSignal()
	var calls []string
	a := s.Subscribe(func() { calls = append(calls, "a") })
	s.Subscribe(func() { calls = append(calls, "b") })
	s.Raise()
	s.Unsubscribe(a)
	s.Unsubscribe(a)
	s.Raise()
	assert.Equal(t, []string{"a", "b", "b"}, calls)
}
