package server

import (
	"context"
	"errors"
	"net"
	"net/netip"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carball/game"
	"carball/protocol"
)

type readResult struct {
	data []byte
	from netip.AddrPort
	err  error
}

// scriptedReader 依次返回预设的读取结果
type scriptedReader struct {
	results []readResult
}

func (s *scriptedReader) ReadFromUDPAddrPort(b []byte) (int, netip.AddrPort, error) {
	if len(s.results) == 0 {
		return 0, netip.AddrPort{}, net.ErrClosed
	}
	r := s.results[0]
	s.results = s.results[1:]
	if r.err != nil {
		return 0, netip.AddrPort{}, r.err
	}
	return copy(b, r.data), r.from, nil
}

func TestServeUDPZeroLengthDatagramIsFatal(t *testing.T) {
	r := NewRoom(&fakeSender{}, DefaultConfig())
	reader := &scriptedReader{results: []readResult{
		{data: []byte{0}, from: clientA},
		{data: []byte{}, from: clientA},
		{data: []byte{0}, from: clientB},
	}}

	err := ServeUDP(context.Background(), reader, r)
	assert.ErrorIs(t, err, ErrTransportClosed)
	assert.Len(t, reader.results, 1, "loop must stop at the empty datagram")
	assert.Equal(t, int64(1), r.Metrics().DatagramsReceived)
}

func TestServeUDPReadErrors(t *testing.T) {
	boom := errors.New("boom")

	t.Run("read failure is wrapped", func(t *testing.T) {
		r := NewRoom(&fakeSender{}, DefaultConfig())
		err := ServeUDP(context.Background(), &scriptedReader{results: []readResult{{err: boom}}}, r)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("closed socket is a clean stop", func(t *testing.T) {
		r := NewRoom(&fakeSender{}, DefaultConfig())
		assert.NoError(t, ServeUDP(context.Background(), &scriptedReader{}, r))
	})

	t.Run("cancelled context is a clean stop", func(t *testing.T) {
		r := NewRoom(&fakeSender{}, DefaultConfig())
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := ServeUDP(ctx, &scriptedReader{results: []readResult{{err: boom}}}, r)
		assert.NoError(t, err)
	})
}

func TestServeUDPUnmapsIPv4Endpoints(t *testing.T) {
	r := NewRoom(&fakeSender{}, DefaultConfig())
	mapped := netip.MustParseAddrPort("[::ffff:10.0.0.1]:5000")
	reader := &scriptedReader{results: []readResult{{data: []byte{0}, from: mapped}}}

	require.NoError(t, ServeUDP(context.Background(), reader, r))
	d := <-r.inbox
	assert.Equal(t, clientA, d.From)
}

func TestUDPLoopbackMatch(t *testing.T) {
	conn, err := ListenUDP(0)
	require.NoError(t, err)
	defer conn.Close()
	port := conn.LocalAddr().(*net.UDPAddr).Port

	cfg := DefaultConfig()
	room := NewRoom(conn, cfg)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errc := make(chan error, 1)
	go func() { errc <- ServeUDP(ctx, conn, room) }()
	go room.Run(ctx)

	dial := func() *net.UDPConn {
		c, err := net.DialUDP("udp", nil, &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: port})
		require.NoError(t, err)
		require.NoError(t, c.SetReadDeadline(time.Now().Add(3*time.Second)))
		return c
	}
	a := dial()
	defer a.Close()
	b := dial()
	defer b.Close()

	buf := make([]byte, 256)
	join := func(c *net.UDPConn) uint8 {
		_, err := c.Write([]byte{0})
		require.NoError(t, err)
		n, err := c.Read(buf)
		require.NoError(t, err)
		id, err := protocol.DecodeJoin(buf[:n])
		require.NoError(t, err)
		return id
	}
	assert.Equal(t, uint8(0), join(a))
	assert.Equal(t, uint8(1), join(b))

	for id := uint32(1); id <= 5; id++ {
		_, err := a.Write(inputPacket(id, carAt(-10, 0)))
		require.NoError(t, err)
	}
	n, err := a.Read(buf)
	require.NoError(t, err)
	require.Equal(t, protocol.StateSize, n)
	st, err := protocol.DecodeState(buf[:n])
	require.NoError(t, err)

	assert.Equal(t, uint32(1), st.InputID)
	want := game.InitialPlayers()[1].CarState.Position
	assert.InDelta(t, want.X(), st.Opponent.Position.X(), 1e-4)
	assert.InDelta(t, want.Y(), st.Opponent.Position.Y(), 1e-4)
	assert.InDelta(t, want.Z(), st.Opponent.Position.Z(), 1e-4)
	assert.Equal(t, [2]uint8{0, 0}, st.Scores)
	assert.LessOrEqual(t, st.Countdown, int64(305))

	cancel()
	conn.Close()
	select {
	case err := <-errc:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("ServeUDP did not stop after close")
	}
}
