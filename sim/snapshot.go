package sim

import (
	"sort"

	"github.com/zucenko/lumen/model"
)

// Snapshot copies the state a viewer needs after the last Step.
func (s *Simulation) Snapshot() model.Snapshot {
	snap := model.Snapshot{Tick: s.tick}

	snap.Walls = s.ledger.StaticCells()
	sort.Slice(snap.Walls, func(i, j int) bool {
		a, b := snap.Walls[i], snap.Walls[j]
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		return a.X < b.X
	})

	for _, e := range s.solver.Emitters() {
		snap.Beams = append(snap.Beams, model.BeamView{
			Emitter: e.Name,
			Cell:    e.Cell,
			Dir:     e.Dir,
			Points:  e.Path(),
		})
	}
	for _, m := range s.mirrors {
		if !m.Alive() {
			continue
		}
		snap.Mirrors = append(snap.Mirrors, model.MirrorView{
			Name:       m.Name(),
			Shape:      m.Shape().Rune(),
			Pos:        m.Position(),
			Cell:       m.GridBody().Cell,
			Registered: m.Registered(),
			Attachment: m.Attachment().Name(),
		})
	}
	for _, d := range s.doors {
		snap.Doors = append(snap.Doors, model.DoorView{
			Name:     d.Name(),
			Cell:     d.Cell(),
			Type:     d.Type().Name(),
			State:    d.State().Name(),
			Progress: d.Progress(),
		})
	}
	for _, sw := range s.switches {
		snap.Switches = append(snap.Switches, model.SwitchView{
			Name:   sw.Name(),
			Cell:   sw.Cell(),
			Lit:    sw.Lit(),
			Beams:  sw.Beams(),
			Output: sw.Output(),
		})
	}
	for _, t := range s.translators {
		snap.Floors = append(snap.Floors, model.FloorView{
			Name:  t.Name(),
			Pos:   t.Position(),
			State: t.State().Name(),
		})
	}
	grid := s.ledger.Grid()
	for _, r := range s.rotators {
		snap.Floors = append(snap.Floors, model.FloorView{
			Name:   r.Name(),
			Rotary: true,
			Pos:    grid.CellToWorld(r.Pivot()),
			Angle:  r.Angle(),
			State:  r.State().Name(),
		})
	}
	if a := s.actor; a != nil && a.Alive() {
		snap.Actor = &model.ActorView{
			Name:    a.Name(),
			Pos:     a.Position(),
			Cell:    a.Cell(),
			Facing:  a.Facing(),
			Locked:  a.Locked(),
			Keys:    a.Inventory().Keys(),
			Special: a.Inventory().Specials(),
		}
	}
	return snap
}
