package model

import "fmt"

// ServerMessage is one frame pushed to a viewer.
type ServerMessage struct {
	Setup    []Setup        `msgpack:"setup,omitempty"`
	Snapshot *Snapshot      `msgpack:"snap,omitempty"`
	Results  []ActionResult `msgpack:"res,omitempty"`
}

type Setup struct {
	Level    string  `msgpack:"level"`
	Width    int     `msgpack:"w"`
	Height   int     `msgpack:"h"`
	CellSize float64 `msgpack:"cs"`
	Origin   Vec2    `msgpack:"o"`
	TickRate int     `msgpack:"tr"`
}

// ClientMessage carries player intents for the next tick.
type ClientMessage struct {
	Actions []Action `msgpack:"a"`
}

type ActionKind int

const (
	ACT_STEP ActionKind = iota
	ACT_FACE
	ACT_INTERACT
	ACT_ROTATE_MIRROR
	ACT_TRIGGER
	ACT_PATH_STEP
	ACT_RESET_LATCH
	ACT_FORCE_STOP
)

func (a ActionKind) Name() string {
	switch a {
	case ACT_STEP:
		return "STEP"
	case ACT_FACE:
		return "FACE"
	case ACT_INTERACT:
		return "INTERACT"
	case ACT_ROTATE_MIRROR:
		return "ROTATE_MIRROR"
	case ACT_TRIGGER:
		return "TRIGGER"
	case ACT_PATH_STEP:
		return "PATH_STEP"
	case ACT_RESET_LATCH:
		return "RESET_LATCH"
	case ACT_FORCE_STOP:
		return "FORCE_STOP"
	default:
		return fmt.Sprintf("n/a:%d", a)
	}
}

// Action is one intent. Dir is used by STEP and FACE, Target names the
// floor, path mirror or switch for the scripted kinds, Step is the path step.
type Action struct {
	Kind   ActionKind `msgpack:"k"`
	Dir    Dir        `msgpack:"d"`
	Target string     `msgpack:"t,omitempty"`
	Step   int        `msgpack:"s,omitempty"`
}

type ActionResult struct {
	Action  Action `msgpack:"a"`
	Success bool   `msgpack:"ok"`
}

// Snapshot is the per-tick view of the world.
type Snapshot struct {
	Tick     uint64       `msgpack:"tick"`
	Walls    []Cell       `msgpack:"walls"`
	Beams    []BeamView   `msgpack:"beams"`
	Mirrors  []MirrorView `msgpack:"mirrors"`
	Doors    []DoorView   `msgpack:"doors"`
	Switches []SwitchView `msgpack:"switches"`
	Floors   []FloorView  `msgpack:"floors"`
	Actor    *ActorView   `msgpack:"actor,omitempty"`
}

type BeamView struct {
	Emitter string `msgpack:"e"`
	Cell    Cell   `msgpack:"c"`
	Dir     Dir    `msgpack:"d"`
	Points  []Vec2 `msgpack:"p"`
}

type MirrorView struct {
	Name       string `msgpack:"n"`
	Shape      rune   `msgpack:"s"`
	Pos        Vec2   `msgpack:"p"`
	Cell       Cell   `msgpack:"c"`
	Registered bool   `msgpack:"r"`
	Attachment string `msgpack:"a"`
}

type DoorView struct {
	Name     string  `msgpack:"n"`
	Cell     Cell    `msgpack:"c"`
	Type     string  `msgpack:"t"`
	State    string  `msgpack:"s"`
	Progress float64 `msgpack:"pr"`
}

type SwitchView struct {
	Name   string `msgpack:"n"`
	Cell   Cell   `msgpack:"c"`
	Lit    bool   `msgpack:"l"`
	Beams  int    `msgpack:"b"`
	Output bool   `msgpack:"o"`
}

type FloorView struct {
	Name   string  `msgpack:"n"`
	Rotary bool    `msgpack:"r"`
	Pos    Vec2    `msgpack:"p"`
	Angle  float64 `msgpack:"a"`
	State  string  `msgpack:"s"`
}

type ActorView struct {
	Name    string   `msgpack:"n"`
	Pos     Vec2     `msgpack:"p"`
	Cell    Cell     `msgpack:"c"`
	Facing  Dir      `msgpack:"f"`
	Locked  bool     `msgpack:"l"`
	Keys    int      `msgpack:"k"`
	Special []string `msgpack:"sk,omitempty"`
}
