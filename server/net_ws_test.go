package server

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

func dialSpectator(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(3*time.Second)))
	return ws
}

func startSpectatorServer(t *testing.T) (*Room, string) {
	t.Helper()
	room := NewRoom(&fakeSender{}, DefaultConfig())
	ctx, cancel := context.WithCancel(context.Background())
	go room.Run(ctx)
	srv := httptest.NewServer(NewAdminMux(room))
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return room, "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func TestSpectatorReceivesJSONSnapshots(t *testing.T) {
	_, url := startSpectatorServer(t)
	ws := dialSpectator(t, url)
	defer ws.Close()

	msgType, data, err := ws.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, websocket.TextMessage, msgType)

	var snap SpectatorSnapshot
	require.NoError(t, json.Unmarshal(data, &snap))
	assert.Equal(t, "state", snap.Type)
	assert.Equal(t, "idle", snap.Phase)
	assert.Equal(t, int64(0), snap.Countdown)
	assert.False(t, snap.Cars[0].Connected)
	assert.InDelta(t, 1, snap.Ball.Position.Y(), 1e-3)

	_, data, err = ws.ReadMessage()
	require.NoError(t, err)
	var next SpectatorSnapshot
	require.NoError(t, json.Unmarshal(data, &next))
	assert.Greater(t, next.Tick, snap.Tick)
}

func TestSpectatorReceivesMsgpackSnapshots(t *testing.T) {
	_, url := startSpectatorServer(t)
	ws := dialSpectator(t, url+"?format=msgpack")
	defer ws.Close()

	msgType, data, err := ws.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, websocket.BinaryMessage, msgType)

	var snap SpectatorSnapshot
	require.NoError(t, msgpack.Unmarshal(data, &snap))
	assert.Equal(t, "state", snap.Type)
	assert.Equal(t, uint64(0), snap.Tick%uint64(DefaultTuning().SpectatorEvery))
	assert.InDelta(t, -20, snap.Cars[0].Position.X(), 1e-3)
	assert.InDelta(t, 20, snap.Cars[1].Position.X(), 1e-3)
}

func TestSpectatorSnapshotCadence(t *testing.T) {
	r, fs, _ := setupRoom(t)
	c := &Spectator{send: make(chan []byte, 4)}

	require.True(t, r.RequestJoin(c))
	admitBoth(t, r, fs)
	require.Len(t, r.spectators, 1)

	// 每 SpectatorEvery 帧推送一次
	for i := 1; i < DefaultTuning().SpectatorEvery; i++ {
		r.Tick()
	}
	require.Len(t, c.send, 1)
	var snap SpectatorSnapshot
	require.NoError(t, json.Unmarshal(<-c.send, &snap))
	assert.True(t, snap.Cars[0].Connected)
	assert.True(t, snap.Cars[1].Connected)
	assert.Equal(t, "score_transition", snap.Phase)
}

func TestSpectatorLeaveIsProcessedByTick(t *testing.T) {
	r, _, _ := setupRoom(t)
	c := &Spectator{send: make(chan []byte, 4)}
	send := c.send

	require.True(t, r.RequestJoin(c))
	r.Tick()
	require.Len(t, r.spectators, 1)

	r.RequestLeave(c)
	r.Tick()
	assert.Empty(t, r.spectators)
	_, open := <-send
	assert.False(t, open, "send queue must be closed so the writer exits")
}

func TestRequestJoinAfterRoomStopped(t *testing.T) {
	room := NewRoom(&fakeSender{}, DefaultConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	room.Run(ctx)

	// 缓冲占满后只能依赖 done 返回
	for i := 0; i < cap(room.joinChan); i++ {
		room.joinChan <- &Spectator{}
	}
	assert.False(t, room.RequestJoin(&Spectator{}))
}

func TestRunClosesSpectatorsOnExit(t *testing.T) {
	r, _, _ := setupRoom(t)
	joined := &Spectator{send: make(chan []byte, 4)}
	pending := &Spectator{send: make(chan []byte, 4)}
	joinedSend, pendingSend := joined.send, pending.send

	require.True(t, r.RequestJoin(joined))
	r.Tick()
	require.True(t, r.RequestJoin(pending))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r.Run(ctx)

	assert.Empty(t, r.spectators)
	for _, send := range []chan []byte{joinedSend, pendingSend} {
		for range send {
		}
		_, open := <-send
		assert.False(t, open)
	}
}
