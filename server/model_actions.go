package server

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/matryer/way"
	log "github.com/sirupsen/logrus"
	"github.com/vmihailenco/msgpack/v5"
	"github.com/zucenko/lumen/level"
	"github.com/zucenko/lumen/model"
)

// maxActions caps the intents taken from one client frame.
const maxActions = 16

func NewGameServer(cfg Config) *GameServer {
	return &GameServer{
		Config:       cfg,
		GameSessions: make([]*GameSession, 0),
		GameRequests: make(chan GameRequest),
		Ended:        make(chan *GameSession),
		Upgrader:     &websocket.Upgrader{},
		load:         cfg.LoadLevel,
	}
}

// HandleHttpCall upgrades GET /play/:level to a websocket seated in a session
// of that level and blocks until the player leaves.
func (s *GameServer) HandleHttpCall() http.HandlerFunc {
	timeout := s.Config.Timeout
	return func(w http.ResponseWriter, r *http.Request) {
		name := way.Param(r.Context(), "level")
		log.WithField("level", name).Info("HandleHttpCall connection received")

		gcas := make(chan GameContextAwaiting, 1)
		select {
		case s.GameRequests <- GameRequest{Level: name, GameContextAwaiting: gcas}:
		case <-time.After(timeout):
			log.Warn("GameRequests TIMEOUTED")
			w.WriteHeader(HTTP_TIMEOUT)
			return
		}

		var gca GameContextAwaiting
		select {
		case gca = <-gcas:
			if gca.ResponseCode != GAME_READY {
				log.WithField("code", gca.ResponseCode.Name()).Info("HandleHttpCall no game")
				w.WriteHeader(gca.ResponseCode.ToHttp())
				return
			}
		case <-time.After(timeout):
			log.Warn("HandleHttpCall GameContextAwaiting TIMEOUTED")
			w.WriteHeader(HTTP_TIMEOUT)
			return
		}

		con, err := s.Upgrader.Upgrade(w, r, nil)
		if err != nil {
			// Upgrade already answered the client
			log.WithError(err).Warn("HandleHttpCall websocket upgrade")
			gca.GameSession.seatsTaken.Add(-1)
			return
		}
		defer con.Close()

		gameOver := make(chan struct{})
		select {
		case gca.GameSession.PlayerConnectRequests <- PlayerConnectRequest{Con: con, GameOver: gameOver}:
		case <-time.After(timeout):
			log.Warn("HandleHttpCall PlayerConnectRequests TIMEOUTED")
			gca.GameSession.seatsTaken.Add(-1)
			return
		}
		<-gameOver
		log.WithField("level", gca.GameSession.LevelName).Info("HandleHttpCall player left")
	}
}

// Loop hands out sessions until ctx is cancelled. A request joins a running
// session of the same level with a free seat, or starts a new one.
func (s *GameServer) Loop(ctx context.Context) {
	log.Info("GameServer.Loop starting")
	for {
		select {
		case <-ctx.Done():
			log.Info("GameServer.Loop stopped")
			return
		case gs := <-s.Ended:
			for i, have := range s.GameSessions {
				if have == gs {
					s.GameSessions = append(s.GameSessions[:i], s.GameSessions[i+1:]...)
					break
				}
			}
			log.WithFields(log.Fields{"level": gs.LevelName, "state": gs.State.Name()}).Info("GameSession ended")
		case gameReq := <-s.GameRequests:
			name := gameReq.Level
			if name == "" {
				name = s.Config.DefaultLevel
			}
			var gs *GameSession
			for _, have := range s.GameSessions {
				if have.LevelName == name && !have.over.Load() && int(have.seatsTaken.Load()) < have.seats {
					gs = have
					break
				}
			}
			if gs == nil {
				lvl, code, err := s.load(name)
				if err != nil {
					log.WithError(err).WithField("level", name).Warn("GameServer.Loop cannot load level")
					gameReq.GameContextAwaiting <- GameContextAwaiting{ResponseCode: code}
					continue
				}
				gs = NewGameSession(name, lvl, s.Config)
				go func(gs *GameSession) {
					gs.Loop(ctx)
					select {
					case s.Ended <- gs:
					case <-ctx.Done():
					}
				}(gs)
				s.GameSessions = append(s.GameSessions, gs)
			}
			gs.seatsTaken.Add(1)
			gameReq.GameContextAwaiting <- GameContextAwaiting{ResponseCode: GAME_READY, GameSession: gs}
		}
	}
}

func NewGameSession(name string, lvl *level.Level, cfg Config) *GameSession {
	every := cfg.SnapshotEvery
	if every <= 0 {
		every = 1
	}
	seats := cfg.Seats
	if seats <= 0 {
		seats = 1
	}
	return &GameSession{
		State:                 GS_NEW,
		Level:                 lvl,
		LevelName:             name,
		PlayerSessions:        make([]*PlayerSession, 0),
		Errors:                make(chan int32),
		Events:                make(chan PlayerEvent, 64),
		PlayerConnectRequests: make(chan PlayerConnectRequest),
		seats:                 seats,
		snapshotEvery:         every,
		done:                  make(chan struct{}),
	}
}

// idleTicks ends a session that has had no player for this many ticks.
const idleTicks = 600

// Loop runs the level on a fixed ticker. Players join through
// PlayerConnectRequests and leave through Errors; the session ends when the
// last one leaves or ctx is cancelled.
func (gs *GameSession) Loop(ctx context.Context) {
	log.WithField("level", gs.LevelName).Info("GameSession.Loop start")
	ticker := time.NewTicker(gs.Level.Sim.Config().Tick())
	defer ticker.Stop()
	defer gs.end()
	gs.State = GS_PLAY
	for {
		select {
		case <-ctx.Done():
			return
		case pcr := <-gs.PlayerConnectRequests:
			ps := gs.addPlayer(pcr.Con, pcr.GameOver)
			ps.State = PS_PLAY
			ps.send(ps.MakeGameSetupMessage())
		case errPlayer := <-gs.Errors:
			gs.removePlayer(errPlayer, PS_ERR)
			if len(gs.PlayerSessions) == 0 {
				return
			}
		case pe := <-gs.Events:
			gs.pending = append(gs.pending, pe)
		case <-ticker.C:
			gs.Tick()
			if len(gs.PlayerSessions) == 0 && gs.seatsTaken.Load() == 0 {
				gs.emptyTicks++
				if gs.emptyTicks >= idleTicks {
					log.WithField("level", gs.LevelName).Info("GameSession.Loop idle")
					return
				}
			} else {
				gs.emptyTicks = 0
			}
		}
	}
}

// Tick applies the queued actions, steps the simulation and sends the
// results to their players and the snapshot to everybody.
func (gs *GameSession) Tick() {
	s := gs.Level.Sim
	results := make(map[int32][]model.ActionResult)
	for _, pe := range gs.pending {
		ok := s.Apply(pe.Action)
		results[pe.Player] = append(results[pe.Player], model.ActionResult{Action: pe.Action, Success: ok})
	}
	gs.pending = gs.pending[:0]
	s.Step(s.Config().TickSeconds())

	var snap *model.Snapshot
	if len(results) > 0 || s.Tick()%uint64(gs.snapshotEvery) == 0 {
		v := s.Snapshot()
		snap = &v
	}
	if snap == nil {
		return
	}
	for _, ps := range gs.PlayerSessions {
		ps.send(model.ServerMessage{Snapshot: snap, Results: results[ps.Id]})
	}
}

func (gs *GameSession) end() {
	if gs.State == GS_PLAY {
		gs.State = GS_OVER
	}
	gs.over.Store(true)
	close(gs.done)
	for len(gs.PlayerSessions) > 0 {
		gs.removePlayer(gs.PlayerSessions[0].Id, PS_OVER)
	}
	log.WithFields(log.Fields{"level": gs.LevelName, "state": gs.State.Name(), "tick": gs.Level.Sim.Tick()}).Info("GameSession.Loop end")
}

func (gs *GameSession) addPlayer(
	conn *websocket.Conn,
	gameOver chan struct{},
) *PlayerSession {
	gs.nextId++
	ps := &PlayerSession{
		State:          PS_NEW,
		Id:             gs.nextId,
		GameSession:    gs,
		Conn:           conn,
		GameOver:       gameOver,
		MessagesToSend: make(chan model.ServerMessage, 10),
	}
	log.WithFields(log.Fields{"level": gs.LevelName, "player": ps.Id}).Info("GameSession.addPlayer")
	if conn != nil {
		conn.SetPingHandler(
			func(message string) error {
				err := conn.WriteControl(websocket.PongMessage, []byte(message), time.Now().Add(time.Second))
				ps.DebugLastPing = time.Now()
				ps.DebugPings++
				if err == websocket.ErrCloseSent {
					return nil
				} else if e, ok := err.(net.Error); ok && e.Timeout() {
					return nil
				}
				return err
			})
		go ps.LoopChannelRead()
		go ps.LoopChannelWrite()
	}
	gs.PlayerSessions = append(gs.PlayerSessions, ps)
	return ps
}

// removePlayer frees the seat, stops the writer and releases the HTTP
// handler, which closes the connection and with it the reader.
func (gs *GameSession) removePlayer(id int32, state PlayerSessionState) {
	for i, ps := range gs.PlayerSessions {
		if ps.Id != id {
			continue
		}
		ps.State = state
		gs.PlayerSessions = append(gs.PlayerSessions[:i], gs.PlayerSessions[i+1:]...)
		gs.seatsTaken.Add(-1)
		close(ps.MessagesToSend)
		if ps.GameOver != nil {
			close(ps.GameOver)
		}
		log.WithFields(log.Fields{
			"level":  gs.LevelName,
			"player": id,
			"state":  state.Name(),
			"drops":  ps.DebugDropped,
		}).Info("GameSession.removePlayer")
		return
	}
}

// send queues m without blocking the session; a full queue drops it.
func (ps *PlayerSession) send(m model.ServerMessage) {
	select {
	case ps.MessagesToSend <- m:
	default:
		ps.DebugDropped++
		log.WithField("player", ps.Id).Debug("PlayerSession.send queue full, dropping")
	}
}

// report tells the session this player is gone unless the session is
// already over.
func (ps *PlayerSession) report() {
	select {
	case ps.GameSession.Errors <- ps.Id:
	case <-ps.GameSession.done:
	}
}

func (ps *PlayerSession) LoopChannelRead() {
	log.WithField("player", ps.Id).Debug("LoopChannelRead STARTED")
	for {
		_, r, err := ps.Conn.NextReader()
		if err != nil {
			log.WithField("player", ps.Id).WithError(err).Info("LoopChannelRead connection closed")
			ps.report()
			return
		}
		cm := &model.ClientMessage{}
		if err := msgpack.NewDecoder(r).Decode(cm); err != nil {
			log.WithField("player", ps.Id).WithError(err).Warn("LoopChannelRead cant decode")
			ps.report()
			return
		}
		ps.DebugLastMessage = time.Now()
		ps.DebugInMessages++
		if len(cm.Actions) > maxActions {
			log.WithFields(log.Fields{"player": ps.Id, "actions": len(cm.Actions)}).Warn("LoopChannelRead too many actions, truncating")
			cm.Actions = cm.Actions[:maxActions]
		}
		for _, a := range cm.Actions {
			select {
			case ps.GameSession.Events <- PlayerEvent{Player: ps.Id, Action: a}:
			case <-ps.GameSession.done:
				return
			default:
				log.Warn("Dropping action read from socket, GameSession.Events FULL")
			}
		}
	}
}

func (ps *PlayerSession) MakeGameSetupMessage() model.ServerMessage {
	snap := ps.GameSession.Level.Sim.Snapshot()
	return model.ServerMessage{
		Setup:    []model.Setup{ps.GameSession.Level.Setup()},
		Snapshot: &snap,
	}
}

// LoopChannelWrite only consumes; after a write error it keeps draining until
// the session closes the queue.
func (ps *PlayerSession) LoopChannelWrite() {
	failed := false
	for mes := range ps.MessagesToSend {
		if failed {
			continue
		}
		if err := ps.write(mes); err != nil {
			log.WithField("player", ps.Id).WithError(err).Warn("PlayerSession.LoopChannelWrite")
			failed = true
			go ps.report()
			continue
		}
		ps.DebugOutMessages++
	}
	log.WithField("player", ps.Id).Debug("LoopChannelWrite ENDED")
}

func (ps *PlayerSession) write(mes model.ServerMessage) error {
	w, err := ps.Conn.NextWriter(websocket.BinaryMessage)
	if err != nil {
		return err
	}
	if err := msgpack.NewEncoder(w).Encode(&mes); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}
