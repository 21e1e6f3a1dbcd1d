package model

// Signal is a payload-less fire-and-forget notification. The world-changed
// signal every light-affecting mutation raises is one of these.
type Signal struct {
	next     int
	handlers map[int]func()
	order    []int
}

func NewSignal() *Signal {
	return &Signal{handlers: make(map[int]func())}
}

// Subscribe registers fn and returns a handle for Unsubscribe.
func (s *Signal) Subscribe(fn func()) int {
	if s.handlers == nil {
		s.handlers = make(map[int]func())
	}
	s.next++
	s.handlers[s.next] = fn
	s.order = append(s.order, s.next)
	return s.next
}

func (s *Signal) Unsubscribe(id int) {
	if _, ok := s.handlers[id]; !ok {
		return
	}
	delete(s.handlers, id)
	for i, o := range s.order {
		if o == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// Raise calls every handler in subscription order. A nil Signal is a no-op so
// components built without one still run.
func (s *Signal) Raise() {
	if s == nil {
		return
	}
	for _, id := range s.order {
		if fn := s.handlers[id]; fn != nil {
			fn()
		}
	}
}
