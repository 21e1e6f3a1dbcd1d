package mirror

import (
	log "github.com/sirupsen/logrus"
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
	"github.com/zucenko/lumen/model"
)

const slideEpsilon = 1e-9

type pathFollow struct {
	cells    []model.Cell
	index    int
	loop     bool
	duration float64

	// in-flight slide
	tween   *gween.Tween
	elapsed float64
	from    model.Vec2
	to      model.Vec2
	target  int
}

func (p *pathFollow) active() bool {
	return p != nil && p.tween != nil
}

func (p *pathFollow) cancel() {
	if p != nil {
		p.tween = nil
	}
}

// SetPath configures path-follow. The mirror is moved onto cells[start] when
// it is not already there. An empty path disables stepping.
func (m *Mirror) SetPath(cells []model.Cell, start int, loop bool, slideDuration float64) bool {
	if !m.modes.Has(MODE_PATH) {
		log.WithField("mirror", m.body.Name).Error("path configured on a mirror without path mode")
		return false
	}
	if len(cells) == 0 {
		log.WithField("mirror", m.body.Name).Error("empty mirror path, path-follow disabled")
		m.path = nil
		return false
	}
	if start < 0 {
		start = 0
	}
	if start >= len(cells) {
		start = len(cells) - 1
	}
	if slideDuration < 0 {
		slideDuration = 0
	}
	m.path = &pathFollow{
		cells:    append([]model.Cell(nil), cells...),
		index:    start,
		loop:     loop,
		duration: slideDuration,
	}
	if c, ok := m.ledger.CellOf(&m.body); !ok || c != cells[start] {
		if ok {
			log.WithFields(log.Fields{"mirror": m.body.Name, "cell": c, "path": cells[start]}).
				Warn("mirror not on its path start, moving it")
		}
		if !m.ledger.Register(&m.body, cells[start]) {
			log.WithFields(log.Fields{"mirror": m.body.Name, "cell": cells[start]}).Error("path start blocked")
			return false
		}
		m.changed.Raise()
	}
	return true
}

// PathIndex is the index of the cell the mirror is committed to.
func (m *Mirror) PathIndex() int {
	if m.path == nil {
		return -1
	}
	return m.path.index
}

func (m *Mirror) Sliding() bool {
	return m.path.active()
}

func (m *Mirror) StepNext() bool {
	return m.Step(1)
}

func (m *Mirror) StepPrev() bool {
	return m.Step(-1)
}

// Step starts a slide step cells along the path. The ledger is only updated
// when the slide lands.
func (m *Mirror) Step(step int) bool {
	p := m.path
	if p == nil || step == 0 || p.active() || m.attach != ATTACH_NONE || !m.alive {
		return false
	}
	target := p.index + step
	n := len(p.cells)
	if p.loop {
		target = ((target % n) + n) % n
	} else if target < 0 || target >= n {
		log.WithFields(log.Fields{"mirror": m.body.Name, "index": target}).Info("path end reached")
		return false
	}
	cell := p.cells[target]
	if cell == m.body.Cell {
		return false
	}
	if m.ledger.IsBlocked(cell) || m.obstructed(cell) {
		log.WithFields(log.Fields{"mirror": m.body.Name, "cell": cell}).Info("path cell blocked")
		return false
	}
	grid := m.ledger.Grid()
	p.from = grid.CellToWorld(m.body.Cell)
	p.to = grid.CellToWorld(cell)
	p.target = target
	p.elapsed = 0
	p.tween = gween.New(0, 1, float32(p.duration), ease.Linear)
	if p.duration == 0 {
		m.landPath()
	}
	return true
}

func (m *Mirror) advancePath(dt float64) {
	p := m.path
	if !p.active() {
		return
	}
	p.elapsed += dt
	frac, _ := p.tween.Set(float32(p.elapsed))
	m.body.Pos = model.Lerp(p.from, p.to, clamp01(float64(frac)))
	if p.elapsed >= p.duration-slideEpsilon {
		m.landPath()
	}
}

func (m *Mirror) landPath() {
	p := m.path
	p.tween = nil
	cell := p.cells[p.target]
	if m.obstructed(cell) || !m.ledger.Move(&m.body, cell) {
		log.WithFields(log.Fields{"mirror": m.body.Name, "cell": cell}).Warn("path cell taken during slide, sliding back")
		m.body.Pos = m.ledger.Grid().CellToWorld(m.body.Cell)
		return
	}
	p.index = p.target
	m.changed.Raise()
	log.WithFields(log.Fields{"mirror": m.body.Name, "index": p.index, "cell": cell}).Debug("path step landed")
}

func (m *Mirror) obstructed(c model.Cell) bool {
	return m.Obstructed != nil && m.Obstructed(c)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
