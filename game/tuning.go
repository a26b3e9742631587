package game

const (
	TickRate                = 60
	Dt              float32 = 1.0 / TickRate
	Pi              float32 = 3.14159265358979
	Gravity         float32 = 9.81
	BallRadius      float32 = 1.0
	BallDrag        float32 = 0.05 // 每秒速度衰减比例
	Restitution     float32 = 0.6
	CarAccel        float32 = 18.0
	CarDrag         float32 = 0.8
	CarMaxSpeed     float32 = 25.0
	CarTurnRate     float32 = 2.5 // 满速、满舵时每秒偏航弧度
	KickoffDistance float32 = 20.0
)
