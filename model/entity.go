package model

import "fmt"

// Kind tells the laser solver how a registered body interacts with a beam.
// It is static configuration of the body, read once at registration.
type Kind int

const (
	KIND_PROP Kind = iota
	KIND_WALL
	KIND_MIRROR
	KIND_DOOR
	KIND_DEVICE
)

func (k Kind) Name() string {
	switch k {
	case KIND_PROP:
		return "PROP"
	case KIND_WALL:
		return "WALL"
	case KIND_MIRROR:
		return "MIRROR"
	case KIND_DOOR:
		return "DOOR"
	case KIND_DEVICE:
		return "DEVICE"
	default:
		return fmt.Sprintf("n/a:%d", k)
	}
}

// Body is the grid-facing part of a gameplay object. The owner keeps the Body;
// the ledger only maps it to a cell. Owner is inspected once, on registration,
// for the capability interfaces below.
type Body struct {
	Name     string
	Cell     Cell
	Pos      Vec2
	Blocking bool
	Kind     Kind
	Owner    interface{}
}

func (b *Body) Position() Vec2 {
	return b.Pos
}

func (b *Body) SetPosition(p Vec2) {
	b.Pos = p
}

func (b *Body) String() string {
	if b == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s@%v", b.Name, b.Cell)
}

// Reflector turns an incoming beam direction into an outgoing one.
type Reflector interface {
	Reflect(in Dir) Dir
}

// Receiver reacts to a beam starting or stopping to illuminate it.
type Receiver interface {
	LaserEnter()
	LaserExit()
}

// ReceiverHolder is implemented by owners that carry a receiver port.
type ReceiverHolder interface {
	Port() Receiver
}

// Solid is implemented by owners whose presence to beams and movement can be
// switched off without leaving the cell (doors).
type Solid interface {
	Solid() bool
}

// Alive is checked before calling into a collaborator that may have been
// destroyed while still referenced.
type Alive interface {
	Alive() bool
}

// IsAlive reports false only for values that implement Alive and say so.
func IsAlive(v interface{}) bool {
	if v == nil {
		return false
	}
	if a, ok := v.(Alive); ok {
		return a.Alive()
	}
	return true
}

// Passenger is anything a mover can carry by setting its position directly.
type Passenger interface {
	Position() Vec2
	SetPosition(p Vec2)
}

// InputLocker is implemented by passengers that move on their own and must be
// held still while a mover displaces them.
type InputLocker interface {
	SetExternalLock(on bool)
}

// Anchored is implemented by passengers that hold a ledger registration.
type Anchored interface {
	GridBody() *Body
}

// Facer is implemented by passengers whose facing turns with a rotator.
type Facer interface {
	RotateFacing(deg float64)
}

// Activatable is the output side of devices: doors, wall toggles, actuators.
type Activatable interface {
	SetActiveState(on bool)
}
