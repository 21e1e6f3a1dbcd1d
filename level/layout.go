package level

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/zucenko/lumen/door"
	"github.com/zucenko/lumen/mirror"
	"github.com/zucenko/lumen/model"
)

// Layout is what the ASCII map places. Row 0 of the text is the top of the
// level, so y grows upwards like the world does.
type Layout struct {
	Width    int
	Height   int
	Walls    []model.Cell
	Mirrors  []MapMirror
	Emitters []MapEmitter
	Doors    []MapDoor
	Switches []model.Cell
	Player   *model.Cell
}

type MapMirror struct {
	Cell  model.Cell
	Shape mirror.Shape
	Modes mirror.Modes
}

type MapEmitter struct {
	Cell model.Cell
	Dir  model.Dir
}

type MapDoor struct {
	Cell   model.Cell
	Type   door.Type
	Locked bool
}

// readLayout parses the map glyphs:
//
//	#        wall
//	/ \ | -  fixed mirror
//	c p      carryable / pushable mirror (slash)
//	> < ^ v  emitter
//	D K L    basic, key, locked key door
//	S X      special key door, device door
//	R        laser switch
//	P        player
//	. space  floor
func readLayout(reader io.Reader) (*Layout, error) {
	scanner := bufio.NewScanner(reader)
	scanner.Split(bufio.ScanLines)
	lines := make([]string, 0)
	for scanner.Scan() {
		lines = append(lines, strings.TrimRight(scanner.Text(), "\r"))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading map: %w", err)
	}
	for len(lines) > 0 && strings.TrimSpace(lines[0]) == "" {
		lines = lines[1:]
	}
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("empty map")
	}

	l := &Layout{Height: len(lines)}
	for row, s := range lines {
		y := l.Height - 1 - row
		col := 0
		for _, char := range s {
			c := model.Cell{X: col, Y: y}
			switch char {
			case '.', ' ':
			case '#':
				l.Walls = append(l.Walls, c)
			case '/', '\\', '|', '-':
				shape, _ := mirror.ShapeOf(char)
				l.Mirrors = append(l.Mirrors, MapMirror{Cell: c, Shape: shape})
			case 'c':
				l.Mirrors = append(l.Mirrors, MapMirror{Cell: c, Shape: mirror.SLASH, Modes: mirror.MODE_CARRY})
			case 'p':
				l.Mirrors = append(l.Mirrors, MapMirror{Cell: c, Shape: mirror.SLASH, Modes: mirror.MODE_PUSH})
			case '>':
				l.Emitters = append(l.Emitters, MapEmitter{Cell: c, Dir: model.RIGHT})
			case '<':
				l.Emitters = append(l.Emitters, MapEmitter{Cell: c, Dir: model.LEFT})
			case '^':
				l.Emitters = append(l.Emitters, MapEmitter{Cell: c, Dir: model.UP})
			case 'v':
				l.Emitters = append(l.Emitters, MapEmitter{Cell: c, Dir: model.DOWN})
			case 'D':
				l.Doors = append(l.Doors, MapDoor{Cell: c, Type: door.TYPE_BASIC})
			case 'K':
				l.Doors = append(l.Doors, MapDoor{Cell: c, Type: door.TYPE_KEY})
			case 'L':
				l.Doors = append(l.Doors, MapDoor{Cell: c, Type: door.TYPE_KEY, Locked: true})
			case 'S':
				l.Doors = append(l.Doors, MapDoor{Cell: c, Type: door.TYPE_SPECIAL})
			case 'X':
				l.Doors = append(l.Doors, MapDoor{Cell: c, Type: door.TYPE_DEVICE})
			case 'R':
				l.Switches = append(l.Switches, c)
			case 'P':
				if l.Player != nil {
					return nil, fmt.Errorf("map row %d col %d: second player", row, col)
				}
				p := c
				l.Player = &p
			default:
				return nil, fmt.Errorf("map row %d col %d: unknown glyph %q", row, col, char)
			}
			col++
		}
		if col > l.Width {
			l.Width = col
		}
	}
	return l, nil
}
