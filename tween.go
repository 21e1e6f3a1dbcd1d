package main

import (
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// Action is what the viewer does while a tween runs and after it ends.
type Action struct {
	nexts    []func(g *Game)
	onChange func(float32)
	onFinish []func()
}

func (a *Action) addOnFinish(f func()) {
	if a.onFinish == nil {
		a.onFinish = make([]func(), 0)
	}
	a.onFinish = append(a.onFinish, f)
}

// next schedules t to start when this action's tween ends and returns the
// action attached to t.
func (a *Action) next(t *gween.Tween) *Action {
	action := &Action{}
	if a.nexts == nil {
		a.nexts = make([]func(g *Game), 0)
	}
	a.nexts = append(a.nexts,
		func(g *Game) {
			g.Tweens[t] = action
		})
	return action
}

// updateTweens advances every running tween by dt seconds.
func (g *Game) updateTweens(dt float32) {
	for t, a := range g.Tweens {
		curr, finished := t.Update(dt)
		if a.onChange != nil {
			a.onChange(curr)
		}
		if finished {
			for _, onFinish := range a.onFinish {
				onFinish()
			}
			for _, next := range a.nexts {
				next(g)
			}
			delete(g.Tweens, t)
		}
	}
}

// startPulse breathes the beam brightness between low and 1 forever.
func (g *Game) startPulse(low float32, period float32) {
	up := gween.New(low, 1, period/2, ease.InOutSine)
	down := gween.New(1, low, period/2, ease.InOutSine)
	set := func(v float32) { g.beamAlpha = float64(v) }

	first := &Action{onChange: set}
	second := first.next(down)
	second.onChange = set
	second.addOnFinish(func() { g.startPulse(low, period) })
	g.Tweens[up] = first
}

// flash shows msg in the HUD and fades it out.
func (g *Game) flash(msg string) {
	g.message = msg
	g.messageAlpha = 1
	g.messageGen++
	gen := g.messageGen
	hold := gween.New(1, 1, 0.8, ease.Linear)
	fade := gween.New(1, 0, 0.6, ease.OutQuad)
	a := &Action{}
	b := a.next(fade)
	b.onChange = func(v float32) {
		if gen == g.messageGen {
			g.messageAlpha = float64(v)
		}
	}
	b.addOnFinish(func() {
		if gen == g.messageGen {
			g.message = ""
		}
	})
	g.Tweens[hold] = a
}
