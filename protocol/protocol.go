package protocol

import (
	"errors"

	"carball/game"
)

// 线上包大小（字节），无帧头、无长度前缀、无校验
const (
	InputSize = 48
	JoinSize  = 1
	StateSize = 102
)

// Input 包字段偏移
const (
	inputID          = 0
	inputPosition    = 4
	inputVelocity    = 16
	inputOrientation = 28
	inputSteering    = 40
	inputThrottle    = 44
)

// State 包字段偏移
const (
	stateInputID             = 0
	stateOpponentPosition    = 4
	stateOpponentVelocity    = 16
	stateOpponentOrientation = 28
	stateOpponentSteering    = 40
	stateOpponentThrottle    = 44
	stateBallPosition        = 48
	stateBallVelocity        = 60
	stateBallOrientation     = 72
	stateCountdown           = 84
	stateTransition          = 92
	stateScore0              = 100
	stateScore1              = 101
)

var ErrShortPacket = errors.New("protocol: short packet")

// Input 客户端 -> 服务端：自报的车辆状态与操控，ID 由客户端递增并被服务端回显
type Input struct {
	ID       uint32
	CarState game.CarState
	Action   game.PlayerAction
}

// State 服务端 -> 客户端：对手状态、球、倒计时与比分
type State struct {
	InputID             uint32
	Opponent            game.CarState
	OpponentAction      game.PlayerAction
	Ball                game.CarState
	Countdown           int64
	TransitionCountdown int64
	Scores              [2]uint8
}
