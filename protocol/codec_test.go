package protocol

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carball/game"
)

// 1.0=0000803f 2.0=00000040 3.0=00004040 -1.0=000080bf 0.5=0000003f
const goldenInput = "04030201" +
	"0000803f" + "00000040" + "00004040" + // position
	"000080bf" + "00000000" + "0000003f" + // velocity
	"00000000" + "0000803f" + "00000000" + // orientation
	"0000003f" + // steering
	"000080bf" // throttle

var goldenInputValue = Input{
	ID: 0x01020304,
	CarState: game.CarState{
		Position:    game.Vec3{1, 2, 3},
		Velocity:    game.Vec3{-1, 0, 0.5},
		Orientation: game.Vec3{0, 1, 0},
	},
	Action: game.PlayerAction{Steering: 0.5, Throttle: -1},
}

func TestEncodeInputGolden(t *testing.T) {
	var buf [InputSize]byte
	EncodeInput(&buf, goldenInputValue)
	assert.Equal(t, goldenInput, hex.EncodeToString(buf[:]))
}

func TestDecodeInputGolden(t *testing.T) {
	raw, err := hex.DecodeString(goldenInput)
	require.NoError(t, err)
	require.Len(t, raw, InputSize)

	in, complete := DecodeInput(raw)
	assert.True(t, complete)
	assert.Equal(t, goldenInputValue, in)
}

func TestDecodeInputShortDatagramZeroFills(t *testing.T) {
	raw, _ := hex.DecodeString(goldenInput)

	in, complete := DecodeInput(raw[:20])
	assert.False(t, complete)
	assert.Equal(t, uint32(0x01020304), in.ID)
	assert.Equal(t, game.Vec3{1, 2, 3}, in.CarState.Position)
	// velocity 只收到第一个分量
	assert.Equal(t, game.Vec3{-1, 0, 0}, in.CarState.Velocity)
	assert.Equal(t, game.PlayerAction{}, in.Action)

	empty, complete := DecodeInput(nil)
	assert.False(t, complete)
	assert.Equal(t, Input{}, empty)
}

func TestDecodeInputIgnoresTrailingBytes(t *testing.T) {
	raw, _ := hex.DecodeString(goldenInput)
	long := append(append([]byte{}, raw...), 0xff, 0xff, 0xff)

	in, complete := DecodeInput(long)
	assert.True(t, complete)
	assert.Equal(t, goldenInputValue, in)
}

func TestJoin(t *testing.T) {
	for _, id := range []uint8{0, 1} {
		var buf [JoinSize]byte
		EncodeJoin(&buf, id)
		got, err := DecodeJoin(buf[:])
		require.NoError(t, err)
		assert.Equal(t, id, got)
	}
	_, err := DecodeJoin(nil)
	assert.ErrorIs(t, err, ErrShortPacket)
}

func TestEncodeStateOffsets(t *testing.T) {
	s := State{
		InputID:             7,
		Opponent:            game.CarState{Position: game.Vec3{1, 0, 0}, Orientation: game.Vec3{0, 0, 2}},
		OpponentAction:      game.PlayerAction{Steering: -1, Throttle: 0.5},
		Ball:                game.CarState{Position: game.Vec3{0, 3, 0}, Velocity: game.Vec3{0, 0, 1}},
		Countdown:           300,
		TransitionCountdown: 5,
		Scores:              [2]uint8{2, 9},
	}
	var buf [StateSize]byte
	EncodeState(&buf, s)

	cases := []struct {
		name   string
		offset int
		want   string
	}{
		{"input id", 0, "07000000"},
		{"opponent position x", 4, "0000803f"},
		{"opponent orientation z", 36, "00000040"},
		{"opponent steering", 40, "000080bf"},
		{"opponent throttle", 44, "0000003f"},
		{"ball position y", 52, "00004040"},
		{"ball velocity z", 68, "0000803f"},
		{"countdown", 84, "2c01000000000000"},
		{"transition countdown", 92, "0500000000000000"},
		{"scores", 100, "0209"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			n := len(tc.want) / 2
			assert.Equal(t, tc.want, hex.EncodeToString(buf[tc.offset:tc.offset+n]))
		})
	}

	got, err := DecodeState(buf[:])
	require.NoError(t, err)
	assert.Equal(t, s, got)
}

func TestDecodeStateRejectsShortPacket(t *testing.T) {
	_, err := DecodeState(make([]byte, StateSize-1))
	assert.ErrorIs(t, err, ErrShortPacket)
}
