package device

import (
	log "github.com/sirupsen/logrus"
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
	"github.com/zucenko/lumen/model"
	"github.com/zucenko/lumen/mover"
	"github.com/zucenko/lumen/occupancy"
)

// FloorMoveActuator sends a translator to its end while active and back to its
// start otherwise. A request that arrives mid-slide is applied once the floor
// is idle again; manual triggers in between are left alone.
type FloorMoveActuator struct {
	floor   *mover.Translator
	want    bool
	pending bool
}

func NewFloorMoveActuator(floor *mover.Translator) *FloorMoveActuator {
	return &FloorMoveActuator{floor: floor}
}

func (a *FloorMoveActuator) SetActiveState(on bool) {
	a.want = on
	a.pending = true
	a.Sync()
}

// Sync retries a pending request; call it once per tick.
func (a *FloorMoveActuator) Sync() {
	if !a.pending || a.floor == nil || a.floor.Disabled() || a.floor.State() != mover.IDLE {
		return
	}
	if a.want == a.floor.AtEnd() {
		a.pending = false
		return
	}
	if a.want {
		a.floor.MoveForward()
	} else {
		a.floor.MoveBackward()
	}
}

// FloorRotateActuator turns a rotator start->end while active and back when
// inactive.
type FloorRotateActuator struct {
	table *mover.Rotator
	want  bool
	atEnd bool
}

func NewFloorRotateActuator(table *mover.Rotator) *FloorRotateActuator {
	return &FloorRotateActuator{table: table}
}

func (a *FloorRotateActuator) SetActiveState(on bool) {
	a.want = on
	a.Sync()
}

func (a *FloorRotateActuator) Sync() {
	if a.table == nil || a.table.Disabled() || a.table.State() != mover.IDLE || a.want == a.atEnd {
		return
	}
	var ok bool
	if a.want {
		ok = a.table.RotateStartToEnd()
	} else {
		ok = a.table.RotateEndToStart()
	}
	if ok {
		a.atEnd = a.want
	}
}

type WallToggleConfig struct {
	Name  string
	Cell  model.Cell
	Delay float64
	// ActiveRaises raises the wall while active; otherwise active lowers it.
	ActiveRaises bool
	InitiallyUp  bool
}

// WallToggle adds or removes a static wall cell a short delay after its input
// changes.
type WallToggle struct {
	cfg     WallToggleConfig
	ledger  *occupancy.Ledger
	changed *model.Signal
	up      bool
	want    bool
	timer   *gween.Tween
	elapsed float64
	warned  bool

	Obstructed func(c model.Cell) bool
}

func NewWallToggle(cfg WallToggleConfig, ledger *occupancy.Ledger, changed *model.Signal) *WallToggle {
	w := &WallToggle{cfg: cfg, ledger: ledger, changed: changed, want: cfg.InitiallyUp}
	if cfg.Delay < 0 {
		log.WithField("wall", cfg.Name).Warn("negative wall delay, using 0")
		w.cfg.Delay = 0
	}
	if cfg.InitiallyUp {
		w.apply()
	}
	return w
}

func (w *WallToggle) Name() string { return w.cfg.Name }
func (w *WallToggle) Cell() model.Cell { return w.cfg.Cell }
func (w *WallToggle) Up() bool { return w.up }

func (w *WallToggle) SetActiveState(on bool) {
	target := on == w.cfg.ActiveRaises
	if target == w.want {
		return
	}
	w.want = target
	w.warned = false
	w.elapsed = 0
	w.timer = gween.New(0, 1, float32(w.cfg.Delay), ease.Linear)
	if w.cfg.Delay == 0 {
		w.finish()
	}
}

func (w *WallToggle) Update(dt float64) {
	if w.timer != nil {
		w.elapsed += dt
		if _, done := w.timer.Set(float32(w.elapsed)); done || w.elapsed >= w.cfg.Delay {
			w.finish()
		}
		return
	}
	if w.want != w.up {
		w.apply()
	}
}

func (w *WallToggle) finish() {
	w.timer = nil
	w.apply()
}

// apply moves the wall toward want. Raising onto an occupied cell is refused
// and retried on later ticks.
func (w *WallToggle) apply() {
	if w.ledger == nil || w.want == w.up {
		return
	}
	if !w.want {
		w.ledger.RemoveStatic(w.cfg.Cell)
		w.up = false
		w.changed.Raise()
		return
	}
	obstructed := w.Obstructed != nil && w.Obstructed(w.cfg.Cell)
	if obstructed || !w.ledger.AddStatic(w.cfg.Cell) {
		if !w.warned {
			log.WithFields(log.Fields{"wall": w.cfg.Name, "cell": w.cfg.Cell}).Warn("cannot raise wall onto occupied cell")
			w.warned = true
		}
		return
	}
	w.up = true
	w.changed.Raise()
}
