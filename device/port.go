// Package device holds what beams and switches drive: receiver ports, laser
// switches and the outputs they are bound to.
package device

import (
	log "github.com/sirupsen/logrus"
)

// ReceiverPort turns the solver's per-emitter enter/exit calls into a single
// lit/unlit state. Several emitters may light one port at once.
type ReceiverPort struct {
	name  string
	count int
	dead  bool

	OnChange func(lit bool)
}

func NewReceiverPort(name string) *ReceiverPort {
	return &ReceiverPort{name: name}
}

func (p *ReceiverPort) LaserEnter() {
	p.count++
	if p.count == 1 {
		log.WithField("port", p.name).Debug("lit")
		p.notify(true)
	}
}

func (p *ReceiverPort) LaserExit() {
	if p.count == 0 {
		log.WithField("port", p.name).Warn("exit without enter")
		return
	}
	p.count--
	if p.count == 0 {
		log.WithField("port", p.name).Debug("unlit")
		p.notify(false)
	}
}

func (p *ReceiverPort) notify(lit bool) {
	if p.OnChange != nil {
		p.OnChange(lit)
	}
}

func (p *ReceiverPort) Lit() bool {
	return p.count > 0
}

// Beams is how many emitters light the port right now.
func (p *ReceiverPort) Beams() int {
	return p.count
}

func (p *ReceiverPort) Alive() bool {
	return !p.dead
}

func (p *ReceiverPort) Destroy() {
	p.dead = true
	p.OnChange = nil
}
