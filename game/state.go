package game

import "github.com/go-gl/mathgl/mgl32"

// Vec3 三个 float32 分量，用于位置、速度与朝向（pitch, yaw, roll 弧度）
type Vec3 = mgl32.Vec3

// PlayerAction 玩家最新的操控输入
type PlayerAction struct {
	Steering float32 `json:"steering" msgpack:"steering"` // -1..1
	Throttle float32 `json:"throttle" msgpack:"throttle"` // -1..1
}

// CarState 刚体状态；球与车共用同一形状
type CarState struct {
	Position    Vec3 `json:"position" msgpack:"position"`
	Velocity    Vec3 `json:"velocity" msgpack:"velocity"`
	Orientation Vec3 `json:"orientation" msgpack:"orientation"`
}

// Player 服务端权威的玩家记录，固定两个，断线不会删除比分
type Player struct {
	CarState CarState
	Action   PlayerAction
	Score    uint8
}

// Ball 场上唯一的球
type Ball struct {
	ObjectState CarState
}

// Arena 场地尺寸：x、z 以原点为中心，y 从地面 0 到顶棚
type Arena struct {
	Size Vec3
}

// HalfX 返回球门线所在的 x 坐标
func (a Arena) HalfX() float32 { return a.Size.X() / 2 }

// HalfZ 返回侧墙所在的 z 坐标
func (a Arena) HalfZ() float32 { return a.Size.Z() / 2 }

// Goal 两端球门的开口与纵深，开口以 z=0 为中心、贴地
type Goal struct {
	Width  float32
	Height float32
	Depth  float32
}

var (
	DefaultArena   = Arena{Size: Vec3{80, 20, 60}}
	DefaultGoal    = Goal{Width: 14, Height: 6, Depth: 5}
	DefaultCarSize = Vec3{4, 1.5, 2} // 长(x) 高(y) 宽(z)
)

// InitialBall 开球时的球：场地中心，静止
func InitialBall() Ball {
	return Ball{ObjectState: CarState{Position: Vec3{0, BallRadius, 0}}}
}

// InitialPlayers 开球位置：0 号在 -x 半场朝 +x，1 号在 +x 半场朝 -x
func InitialPlayers() [2]Player {
	y := DefaultCarSize.Y() / 2
	return [2]Player{
		{CarState: CarState{Position: Vec3{-KickoffDistance, y, 0}}},
		{CarState: CarState{Position: Vec3{KickoffDistance, y, 0}, Orientation: Vec3{0, Pi, 0}}},
	}
}
