package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/matryer/way"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
	"github.com/zucenko/lumen/level"
	"github.com/zucenko/lumen/model"
)

const corridor = `
name = "corridor"
map = '''
######
#P...#
######
'''
`

func newSession(t *testing.T, every int) *GameSession {
	f, err := level.Decode(strings.NewReader(corridor))
	require.NoError(t, err)
	lvl, err := level.Build(f)
	require.NoError(t, err)
	cfg := DefaultConfig()
	cfg.SnapshotEvery = every
	return NewGameSession("corridor", lvl, cfg)
}

func TestResponseCodes(t *testing.T) {
	assert.Equal(t, HTTP_SUCCESS, GAME_READY.ToHttp())
	assert.Equal(t, HTTP_NOT_FOUND, GAME_NOT_FOUND.ToHttp())
	assert.Equal(t, HTTP_BAD_REQUEST, GAME_INVALIDE.ToHttp())
	assert.Equal(t, HTTP_SERVER_ERR, GAME_BROKEN.ToHttp())
	assert.Equal(t, "n/a:9", ResponseCode(9).Name())
	assert.Equal(t, "GS_PLAY", GS_PLAY.Name())
	assert.Equal(t, "ERR", PS_ERR.Name())
}

func TestTick_ResultsGoToTheirPlayer(t *testing.T) {
	gs := newSession(t, 1000)
	a := gs.addPlayer(nil, nil)
	b := gs.addPlayer(nil, nil)
	require.Equal(t, int32(1), a.Id)
	require.Equal(t, int32(2), b.Id)

	gs.pending = append(gs.pending,
		PlayerEvent{Player: a.Id, Action: model.Action{Kind: model.ACT_STEP, Dir: model.RIGHT}},
		PlayerEvent{Player: b.Id, Action: model.Action{Kind: model.ACT_STEP, Dir: model.UP}},
	)
	gs.Tick()

	ma := <-a.MessagesToSend
	require.Len(t, ma.Results, 1)
	assert.True(t, ma.Results[0].Success)
	require.NotNil(t, ma.Snapshot)
	assert.Equal(t, model.Cell{X: 2, Y: 1}, ma.Snapshot.Actor.Cell)

	mb := <-b.MessagesToSend
	require.Len(t, mb.Results, 1)
	assert.False(t, mb.Results[0].Success, "wall above")

	gs.Tick()
	assert.Len(t, a.MessagesToSend, 0, "no snapshot without results between intervals")
}

func TestTick_SnapshotInterval(t *testing.T) {
	gs := newSession(t, 2)
	p := gs.addPlayer(nil, nil)
	gs.Tick()
	assert.Len(t, p.MessagesToSend, 0)
	gs.Tick()
	assert.Len(t, p.MessagesToSend, 1)
}

func TestSend_DropsWhenFull(t *testing.T) {
	gs := newSession(t, 1)
	p := gs.addPlayer(nil, nil)
	for i := 0; i < cap(p.MessagesToSend)+3; i++ {
		p.send(model.ServerMessage{})
	}
	assert.Equal(t, 3, p.DebugDropped)
}

func TestRemovePlayer(t *testing.T) {
	gs := newSession(t, 1)
	gs.seatsTaken.Store(1)
	over := make(chan struct{})
	p := gs.addPlayer(nil, over)
	gs.removePlayer(p.Id, PS_ERR)

	assert.Empty(t, gs.PlayerSessions)
	assert.Equal(t, PS_ERR, p.State)
	assert.Equal(t, int32(0), gs.seatsTaken.Load())
	_, open := <-over
	assert.False(t, open)
	gs.removePlayer(p.Id, PS_ERR)
}

func TestLoadLevel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LevelDir = "../data"
	_, code, err := cfg.LoadLevel("")
	require.NoError(t, err)
	assert.Equal(t, GAME_READY, code)

	_, code, err = cfg.LoadLevel("../etc")
	assert.Error(t, err)
	assert.Equal(t, GAME_INVALIDE, code)

	_, code, err = cfg.LoadLevel("missing")
	assert.Error(t, err)
	assert.Equal(t, GAME_NOT_FOUND, code)
}

func startServer(t *testing.T) (*httptest.Server, context.CancelFunc) {
	cfg := DefaultConfig()
	cfg.LevelDir = "../data"
	cfg.SnapshotEvery = 1
	cfg.Timeout = time.Second
	gs := NewGameServer(cfg)
	ctx, cancel := context.WithCancel(context.Background())
	go gs.Loop(ctx)

	router := way.NewRouter()
	router.HandleFunc("GET", "/play/:level", gs.HandleHttpCall())
	ts := httptest.NewServer(router)
	return ts, func() {
		cancel()
		ts.Close()
	}
}

func read(t *testing.T, conn *websocket.Conn) model.ServerMessage {
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var m model.ServerMessage
	require.NoError(t, msgpack.Unmarshal(data, &m))
	return m
}

func TestPlay_EndToEnd(t *testing.T) {
	ts, stop := startServer(t)
	defer stop()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/play/level_1"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	setup := read(t, conn)
	require.Len(t, setup.Setup, 1)
	assert.Equal(t, "first light", setup.Setup[0].Level)
	assert.Equal(t, 14, setup.Setup[0].Width)
	require.NotNil(t, setup.Snapshot)
	require.NotNil(t, setup.Snapshot.Actor)

	frame, err := msgpack.Marshal(&model.ClientMessage{Actions: []model.Action{{Kind: model.ACT_STEP, Dir: model.RIGHT}}})
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, frame))

	for i := 0; i < 100; i++ {
		m := read(t, conn)
		if len(m.Results) == 0 {
			continue
		}
		assert.True(t, m.Results[0].Success)
		assert.Equal(t, model.Cell{X: 2, Y: 1}, m.Snapshot.Actor.Cell)
		return
	}
	t.Fatal("no action result")
}

func TestPlay_Refused(t *testing.T) {
	ts, stop := startServer(t)
	defer stop()

	res, err := http.Get(ts.URL + "/play/missing")
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, HTTP_NOT_FOUND, res.StatusCode)

	res, err = http.Get(ts.URL + "/play/Nope")
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, HTTP_BAD_REQUEST, res.StatusCode)
}
