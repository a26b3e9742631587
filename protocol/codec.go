package protocol

import (
	"encoding/binary"
	"fmt"
	"math"

	"carball/game"
)

var le = binary.LittleEndian

func putFloat(b []byte, f float32) { le.PutUint32(b, math.Float32bits(f)) }

func getFloat(b []byte) float32 { return math.Float32frombits(le.Uint32(b)) }

func putVec3(b []byte, v game.Vec3) {
	putFloat(b[0:], v[0])
	putFloat(b[4:], v[1])
	putFloat(b[8:], v[2])
}

func getVec3(b []byte) game.Vec3 {
	return game.Vec3{getFloat(b[0:]), getFloat(b[4:]), getFloat(b[8:])}
}

// DecodeInput 解析 Input 包。不足 48 字节的部分按 0 处理，超出部分忽略；
// complete 表示数据报是否至少包含完整的 48 字节。
func DecodeInput(b []byte) (in Input, complete bool) {
	var buf [InputSize]byte
	n := copy(buf[:], b)
	in.ID = le.Uint32(buf[inputID:])
	in.CarState.Position = getVec3(buf[inputPosition:])
	in.CarState.Velocity = getVec3(buf[inputVelocity:])
	in.CarState.Orientation = getVec3(buf[inputOrientation:])
	in.Action.Steering = getFloat(buf[inputSteering:])
	in.Action.Throttle = getFloat(buf[inputThrottle:])
	return in, n == InputSize
}

// EncodeInput 客户端侧编码，写入调用方提供的定长缓冲
func EncodeInput(dst *[InputSize]byte, in Input) {
	le.PutUint32(dst[inputID:], in.ID)
	putVec3(dst[inputPosition:], in.CarState.Position)
	putVec3(dst[inputVelocity:], in.CarState.Velocity)
	putVec3(dst[inputOrientation:], in.CarState.Orientation)
	putFloat(dst[inputSteering:], in.Action.Steering)
	putFloat(dst[inputThrottle:], in.Action.Throttle)
}

// EncodeJoin 入座通知：单字节玩家编号
func EncodeJoin(dst *[JoinSize]byte, playerID uint8) {
	dst[0] = playerID
}

func DecodeJoin(b []byte) (uint8, error) {
	if len(b) < JoinSize {
		return 0, fmt.Errorf("decode join (%d bytes): %w", len(b), ErrShortPacket)
	}
	return b[0], nil
}

// EncodeState 编码每帧下发的状态包
func EncodeState(dst *[StateSize]byte, s State) {
	le.PutUint32(dst[stateInputID:], s.InputID)
	putVec3(dst[stateOpponentPosition:], s.Opponent.Position)
	putVec3(dst[stateOpponentVelocity:], s.Opponent.Velocity)
	putVec3(dst[stateOpponentOrientation:], s.Opponent.Orientation)
	putFloat(dst[stateOpponentSteering:], s.OpponentAction.Steering)
	putFloat(dst[stateOpponentThrottle:], s.OpponentAction.Throttle)
	putVec3(dst[stateBallPosition:], s.Ball.Position)
	putVec3(dst[stateBallVelocity:], s.Ball.Velocity)
	putVec3(dst[stateBallOrientation:], s.Ball.Orientation)
	le.PutUint64(dst[stateCountdown:], uint64(s.Countdown))
	le.PutUint64(dst[stateTransition:], uint64(s.TransitionCountdown))
	dst[stateScore0] = s.Scores[0]
	dst[stateScore1] = s.Scores[1]
}

// DecodeState 客户端侧解析；测试与调试工具使用
func DecodeState(b []byte) (State, error) {
	if len(b) < StateSize {
		return State{}, fmt.Errorf("decode state (%d bytes): %w", len(b), ErrShortPacket)
	}
	var s State
	s.InputID = le.Uint32(b[stateInputID:])
	s.Opponent.Position = getVec3(b[stateOpponentPosition:])
	s.Opponent.Velocity = getVec3(b[stateOpponentVelocity:])
	s.Opponent.Orientation = getVec3(b[stateOpponentOrientation:])
	s.OpponentAction.Steering = getFloat(b[stateOpponentSteering:])
	s.OpponentAction.Throttle = getFloat(b[stateOpponentThrottle:])
	s.Ball.Position = getVec3(b[stateBallPosition:])
	s.Ball.Velocity = getVec3(b[stateBallVelocity:])
	s.Ball.Orientation = getVec3(b[stateBallOrientation:])
	s.Countdown = int64(le.Uint64(b[stateCountdown:]))
	s.TransitionCountdown = int64(le.Uint64(b[stateTransition:]))
	s.Scores = [2]uint8{b[stateScore0], b[stateScore1]}
	return s, nil
}
