package main

import (
	"fmt"
	"image/color"
	"math"

	"github.com/golang/freetype/truetype"
	"github.com/hajimehoshi/ebiten"
	"github.com/hajimehoshi/ebiten/ebitenutil"
	"github.com/hajimehoshi/ebiten/inpututil"
	"github.com/hajimehoshi/ebiten/text"
	log "github.com/sirupsen/logrus"
	"github.com/tanema/gween"
	"github.com/zucenko/lumen/level"
	"github.com/zucenko/lumen/model"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
)

// StrokeSource represents a input device to provide strokes.
type StrokeSource interface {
	Position() (int, int)
	IsJustReleased() bool
}

// MouseStrokeSource is a StrokeSource implementation of mouse.
type MouseStrokeSource struct{}

func (m *MouseStrokeSource) Position() (int, int) {
	return ebiten.CursorPosition()
}

func (m *MouseStrokeSource) IsJustReleased() bool {
	return inpututil.IsMouseButtonJustReleased(ebiten.MouseButtonLeft)
}

// TouchStrokeSource is a StrokeSource implementation of touch.
type TouchStrokeSource struct {
	ID int
}

func (t *TouchStrokeSource) Position() (int, int) {
	return ebiten.TouchPosition(t.ID)
}

func (t *TouchStrokeSource) IsJustReleased() bool {
	return inpututil.IsTouchJustReleased(t.ID)
}

// Stroke is one swipe; a swipe longer than half a cell steps the player.
type Stroke struct {
	source StrokeSource

	initX, initY       int
	currentX, currentY int

	released bool
}

func NewStroke(source StrokeSource) *Stroke {
	cx, cy := source.Position()
	return &Stroke{
		source:   source,
		initX:    cx,
		initY:    cy,
		currentX: cx,
		currentY: cy,
	}
}

func (s *Stroke) Update() {
	if s.released {
		return
	}
	if s.source.IsJustReleased() {
		s.released = true
		return
	}
	s.currentX, s.currentY = s.source.Position()
}

func (s *Stroke) PositionDiff() (int, int) {
	return s.currentX - s.initX, s.currentY - s.initY
}

type GameState int

const (
	IDLE GameState = iota + 1
	RIDING
	GAME_OVER
)

func (s GameState) Name() string {
	switch s {
	case IDLE:
		return "IDLE"
	case RIDING:
		return "RIDING"
	case GAME_OVER:
		return "GAME_OVER"
	default:
		return fmt.Sprintf("N/A(%d)", s)
	}
}

var stepKeys = map[ebiten.Key]model.Dir{
	ebiten.KeyRight: model.RIGHT,
	ebiten.KeyUp:    model.UP,
	ebiten.KeyLeft:  model.LEFT,
	ebiten.KeyDown:  model.DOWN,
}

var floorKeys = []ebiten.Key{
	ebiten.Key1, ebiten.Key2, ebiten.Key3, ebiten.Key4, ebiten.Key5,
	ebiten.Key6, ebiten.Key7, ebiten.Key8, ebiten.Key9,
}

type Game struct {
	State   GameState
	Level   *level.Level
	View    View
	Snap    model.Snapshot
	Panel   *Nine
	Font    font.Face
	Tweens  map[*gween.Tween]*Action
	strokes map[*Stroke]struct{}

	beamAlpha    float64
	message      string
	messageAlpha float64
	messageGen   int
}

func NewGame(lvl *level.Level) (*Game, error) {
	tt, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parsing font: %w", err)
	}
	panel, err := newPanel(12, 3)
	if err != nil {
		return nil, fmt.Errorf("building hud panel: %w", err)
	}
	g := &Game{
		State: IDLE,
		Level: lvl,
		View:  View{Setup: lvl.Setup()},
		Panel: panel,
		Font: truetype.NewFace(tt, &truetype.Options{
			Size:    16,
			DPI:     72,
			Hinting: font.HintingFull,
		}),
		Tweens:    make(map[*gween.Tween]*Action),
		strokes:   map[*Stroke]struct{}{},
		beamAlpha: 1,
	}
	w, _ := g.View.ScreenSize()
	g.Panel.SetPosition(4, 4)
	g.Panel.SetSize(w-8, hud-8)
	g.startPulse(0.55, 1.2)
	g.Snap = lvl.Sim.Snapshot()
	g.flash(lvl.Name)
	return g, nil
}

// input turns keys and swipes into actions for this tick.
func (g *Game) input() []model.Action {
	var out []model.Action
	face := ebiten.IsKeyPressed(ebiten.KeyShift)
	for k, d := range stepKeys {
		if !inpututil.IsKeyJustPressed(k) {
			continue
		}
		kind := model.ACT_STEP
		if face {
			kind = model.ACT_FACE
		}
		out = append(out, model.Action{Kind: kind, Dir: d})
	}
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) || inpututil.IsKeyJustPressed(ebiten.KeyE) {
		out = append(out, model.Action{Kind: model.ACT_INTERACT})
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		out = append(out, model.Action{Kind: model.ACT_ROTATE_MIRROR})
	}
	sim := g.Level.Sim
	floors := make([]string, 0, len(sim.Translators())+len(sim.Rotators()))
	for _, t := range sim.Translators() {
		floors = append(floors, t.Name())
	}
	for _, r := range sim.Rotators() {
		floors = append(floors, r.Name())
	}
	for i, k := range floorKeys {
		if i < len(floors) && inpututil.IsKeyJustPressed(k) {
			step := 1
			if face {
				step = -1
			}
			out = append(out, model.Action{Kind: model.ACT_TRIGGER, Target: floors[i], Step: step})
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyTab) {
		step := 1
		if face {
			step = -1
		}
		for _, m := range sim.Mirrors() {
			if m.PathIndex() >= 0 {
				out = append(out, model.Action{Kind: model.ACT_PATH_STEP, Target: m.Name(), Step: step})
			}
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyBackspace) {
		for _, sw := range sim.Switches() {
			out = append(out, model.Action{Kind: model.ACT_RESET_LATCH, Target: sw.Name()})
		}
	}

	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		g.strokes[NewStroke(&MouseStrokeSource{})] = struct{}{}
	}
	for _, id := range inpututil.JustPressedTouchIDs() {
		g.strokes[NewStroke(&TouchStrokeSource{id})] = struct{}{}
	}
	for s := range g.strokes {
		if a, ok := g.updateStroke(s); ok {
			out = append(out, a)
		}
		if s.released {
			delete(g.strokes, s)
		}
	}
	return out
}

func (g *Game) updateStroke(stroke *Stroke) (model.Action, bool) {
	stroke.Update()
	dx, dy := stroke.PositionDiff()
	if math.Abs(float64(dx)) <= size/2 && math.Abs(float64(dy)) <= size/2 {
		return model.Action{}, false
	}
	stroke.released = true
	d := model.DirOf(model.Vec2{X: float64(dx), Y: -float64(dy)})
	if !d.Valid() {
		return model.Action{}, false
	}
	return model.Action{Kind: model.ACT_STEP, Dir: d}, true
}

func (g *Game) update(screen *ebiten.Image) error {
	sim := g.Level.Sim
	dt := sim.Config().TickSeconds()
	g.updateTweens(float32(dt))

	if g.State != GAME_OVER {
		for _, a := range g.input() {
			if !sim.Apply(a) && a.Kind != model.ACT_STEP {
				g.flash(a.Kind.Name() + " had no effect")
			}
		}
	}
	sim.Step(dt)
	g.Snap = sim.Snapshot()
	switch {
	case g.Snap.Actor == nil:
		g.State = GAME_OVER
	case g.Snap.Actor.Locked:
		g.State = RIDING
	default:
		g.State = IDLE
	}

	if ebiten.IsDrawingSkipped() {
		return nil
	}
	if err := screen.Fill(COLOR_FLOOR); err != nil {
		log.WithError(err).Warn("fill")
	}
	g.drawWorld(screen)
	g.drawHud(screen)
	return nil
}

func (g *Game) drawWorld(screen *ebiten.Image) {
	v := g.View
	for _, f := range g.Snap.Floors {
		x, y := v.ToScreen(f.Pos)
		if f.Rotary {
			a := f.Angle * math.Pi / 180
			ebitenutil.DrawRect(screen, x-size/2, y-size/2, size, size, COLOR_FLOORS)
			ebitenutil.DrawLine(screen, x, y, x+math.Cos(a)*size, y-math.Sin(a)*size, COLOR_FLOORS)
			continue
		}
		ebitenutil.DrawRect(screen, x-size/2, y-size/2, size, size, COLOR_FLOORS)
	}
	for _, c := range g.Snap.Walls {
		x, y := v.CellRect(c)
		ebitenutil.DrawRect(screen, x, y, size, size, COLOR_WALL)
	}
	for _, d := range g.Snap.Doors {
		x, y := v.CellRect(d.Cell)
		clr := COLOR_DOOR
		if d.State == "LOCKED" {
			clr = COLOR_LOCKED
		}
		open := 0.0
		switch d.State {
		case "OPEN":
			open = 1
		case "OPENING":
			open = d.Progress
		case "CLOSING":
			open = 1 - d.Progress
		}
		h := size * (1 - 0.85*open)
		ebitenutil.DrawRect(screen, x+2, y+size-h, size-4, h, clr)
	}
	for _, s := range g.Snap.Switches {
		x, y := v.CellRect(s.Cell)
		clr := COLOR_SWITCH
		if s.Lit {
			clr = COLOR_LIT
		}
		ebitenutil.DrawRect(screen, x+size/4, y+size/4, size/2, size/2, clr)
	}
	for _, m := range g.Snap.Mirrors {
		x, y := v.ToScreen(m.Pos)
		h := size * 0.42
		switch m.Shape {
		case '/':
			ebitenutil.DrawLine(screen, x-h, y+h, x+h, y-h, COLOR_MIRROR)
		case '\\':
			ebitenutil.DrawLine(screen, x-h, y-h, x+h, y+h, COLOR_MIRROR)
		case '|':
			ebitenutil.DrawLine(screen, x, y-h, x, y+h, COLOR_MIRROR)
		case '-':
			ebitenutil.DrawLine(screen, x-h, y, x+h, y, COLOR_MIRROR)
		}
	}
	beam := withAlpha(COLOR_BEAM, g.beamAlpha)
	for _, b := range g.Snap.Beams {
		x, y := v.CellRect(b.Cell)
		ebitenutil.DrawRect(screen, x+size/3, y+size/3, size/3, size/3, COLOR_EMITTER)
		for i := 1; i < len(b.Points); i++ {
			x1, y1 := v.ToScreen(b.Points[i-1])
			x2, y2 := v.ToScreen(b.Points[i])
			ebitenutil.DrawLine(screen, x1, y1, x2, y2, beam)
		}
	}
	if a := g.Snap.Actor; a != nil {
		x, y := v.ToScreen(a.Pos)
		ebitenutil.DrawRect(screen, x-size/3, y-size/3, 2*size/3, 2*size/3, COLOR_PLAYER)
		f := a.Facing.Vec()
		ebitenutil.DrawLine(screen, x, y, x+f.X*size/2, y-f.Y*size/2, color.White)
	}
}

func (g *Game) drawHud(screen *ebiten.Image) {
	g.Panel.Draw(screen)
	line := fmt.Sprintf("%s  tick %d  %s", g.Level.Name, g.Snap.Tick, g.State.Name())
	if a := g.Snap.Actor; a != nil {
		line += fmt.Sprintf("  keys %d", a.Keys)
		if len(a.Special) > 0 {
			line += fmt.Sprintf("  %v", a.Special)
		}
	}
	text.Draw(screen, line, g.Font, 14, 28, color.White)
	if g.message != "" {
		text.Draw(screen, g.message, g.Font, 14, 50, withAlpha(COLOR_LIT, g.messageAlpha))
	}
}

func main() {
	path := levelPath()
	lvl, err := Load(path)
	if err != nil {
		log.WithError(err).Fatal("loading level")
	}
	g, err := NewGame(lvl)
	if err != nil {
		log.WithError(err).Fatal("starting viewer")
	}
	ebiten.SetMaxTPS(lvl.Sim.Config().TickRate)
	w, h := g.View.ScreenSize()
	log.WithFields(log.Fields{"level": path, "width": w, "height": h}).Info("viewer starting")
	if err := ebiten.Run(g.update, w, h, 1, "lumen - "+lvl.Name); err != nil {
		log.Fatal(err)
	}
}
