package mirror

import (
	"fmt"

	"github.com/zucenko/lumen/model"
)

type Shape int

const (
	SLASH      Shape = iota // "/"
	BACKSLASH               // "\"
	VERTICAL                // "|"
	HORIZONTAL              // "-"
)

func (s Shape) Name() string {
	switch s {
	case SLASH:
		return "SLASH"
	case BACKSLASH:
		return "BACKSLASH"
	case VERTICAL:
		return "VERTICAL"
	case HORIZONTAL:
		return "HORIZONTAL"
	default:
		return fmt.Sprintf("n/a:%d", s)
	}
}

func (s Shape) Rune() rune {
	switch s {
	case SLASH:
		return '/'
	case BACKSLASH:
		return '\\'
	case VERTICAL:
		return '|'
	case HORIZONTAL:
		return '-'
	}
	return '?'
}

// ShapeOf parses the map glyph of a mirror.
func ShapeOf(r rune) (Shape, bool) {
	switch r {
	case '/':
		return SLASH, true
	case '\\':
		return BACKSLASH, true
	case '|':
		return VERTICAL, true
	case '-':
		return HORIZONTAL, true
	}
	return SLASH, false
}

// Next is the shape after one 45 degree turn:
// SLASH -> HORIZONTAL -> BACKSLASH -> VERTICAL -> SLASH.
func (s Shape) Next() Shape {
	switch s {
	case SLASH:
		return HORIZONTAL
	case HORIZONTAL:
		return BACKSLASH
	case BACKSLASH:
		return VERTICAL
	}
	return SLASH
}

// Reflect returns the outgoing direction for a beam travelling in.
// Directions that are not cardinal come back unchanged.
func (s Shape) Reflect(in model.Dir) model.Dir {
	switch s {
	case SLASH:
		switch in {
		case model.RIGHT:
			return model.UP
		case model.UP:
			return model.RIGHT
		case model.LEFT:
			return model.DOWN
		case model.DOWN:
			return model.LEFT
		}
	case BACKSLASH:
		switch in {
		case model.RIGHT:
			return model.DOWN
		case model.DOWN:
			return model.RIGHT
		case model.LEFT:
			return model.UP
		case model.UP:
			return model.LEFT
		}
	case VERTICAL:
		switch in {
		case model.RIGHT:
			return model.LEFT
		case model.LEFT:
			return model.RIGHT
		}
	case HORIZONTAL:
		switch in {
		case model.UP:
			return model.DOWN
		case model.DOWN:
			return model.UP
		}
	}
	return in
}
