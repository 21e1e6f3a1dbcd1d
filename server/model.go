package server

import (
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/zucenko/lumen/level"
	"github.com/zucenko/lumen/model"
)

type GameServer struct {
	Config       Config
	GameSessions []*GameSession
	GameRequests chan GameRequest
	Ended        chan *GameSession
	Upgrader     *websocket.Upgrader

	load func(name string) (*level.Level, ResponseCode, error)
}

type GameSessionState int

const (
	GS_NEW GameSessionState = iota
	GS_PLAY
	GS_ERR
	GS_OVER
)

// GameSession runs one level instance. Every seated player steers the same
// actor and sees the same snapshots.
type GameSession struct {
	State                 GameSessionState
	Level                 *level.Level
	LevelName             string
	PlayerSessions        []*PlayerSession
	Errors                chan int32
	Events                chan PlayerEvent
	PlayerConnectRequests chan PlayerConnectRequest

	seats         int
	snapshotEvery int
	nextId        int32
	pending       []PlayerEvent
	done          chan struct{}
	emptyTicks    int

	// shared with GameServer.Loop
	seatsTaken atomic.Int32
	over       atomic.Bool
}

type PlayerSessionState int

const (
	PS_NEW PlayerSessionState = iota + 1
	PS_PLAY
	PS_OVER
	PS_ERR
)

type PlayerSession struct {
	State       PlayerSessionState
	Id          int32
	GameSession *GameSession
	Conn        *websocket.Conn
	GameOver    chan struct{}

	MessagesToSend chan model.ServerMessage

	DebugInMessages  int
	DebugOutMessages int
	DebugDropped     int
	DebugLastMessage time.Time
	DebugLastPing    time.Time
	DebugPings       int
}
