package game

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Step 推进一个固定时长的物理帧：车辆运动、球体运动、车球碰撞与进球判定。
// detectGoals 为 false 时球门开口按墙处理，比分不会变化。
func Step(arena Arena, goal Goal, ball *Ball, carSize Vec3, players *[2]Player, detectGoals bool) {
	for i := range players {
		stepCar(arena, carSize, &players[i])
	}
	stepBall(arena, goal, &ball.ObjectState, detectGoals)
	for i := range players {
		collideCarBall(arena, goal, carSize, &players[i].CarState, &ball.ObjectState, detectGoals)
	}
	if !detectGoals {
		return
	}
	switch x := ball.ObjectState.Position.X(); {
	case x > arena.HalfX()+BallRadius:
		players[0].Score++
		*ball = InitialBall()
	case x < -arena.HalfX()-BallRadius:
		players[1].Score++
		*ball = InitialBall()
	}
}

func heading(yaw float32) Vec3 {
	return Vec3{math32.Cos(yaw), 0, math32.Sin(yaw)}
}

func stepCar(arena Arena, carSize Vec3, p *Player) {
	c := &p.CarState
	throttle := mgl32.Clamp(p.Action.Throttle, -1, 1)
	steering := mgl32.Clamp(p.Action.Steering, -1, 1)

	yaw := c.Orientation.Y()
	speed := c.Velocity.Dot(heading(yaw))
	speed += throttle * CarAccel * Dt
	speed -= speed * CarDrag * Dt
	speed = mgl32.Clamp(speed, -CarMaxSpeed, CarMaxSpeed)

	yaw += steering * CarTurnRate * Dt * (speed / CarMaxSpeed)
	for yaw > Pi {
		yaw -= 2 * Pi
	}
	for yaw < -Pi {
		yaw += 2 * Pi
	}

	c.Velocity = heading(yaw).Mul(speed)
	pos := c.Position.Add(c.Velocity.Mul(Dt))

	r := carRadius(carSize)
	pos[0] = mgl32.Clamp(pos[0], -arena.HalfX()+r, arena.HalfX()-r)
	pos[1] = carSize.Y() / 2
	pos[2] = mgl32.Clamp(pos[2], -arena.HalfZ()+r, arena.HalfZ()-r)
	c.Position = pos
	c.Orientation = Vec3{0, yaw, 0}
}

func carRadius(carSize Vec3) float32 {
	return math32.Max(carSize.X(), carSize.Z()) / 2
}

// bounce 把分量夹回 [lo, hi] 并在撞墙时按恢复系数反弹
func bounce(pos, vel *float32, lo, hi float32) {
	if *pos < lo {
		*pos = lo
		if *vel < 0 {
			*vel = -*vel * Restitution
		}
	} else if *pos > hi {
		*pos = hi
		if *vel > 0 {
			*vel = -*vel * Restitution
		}
	}
}

func stepBall(arena Arena, goal Goal, b *CarState, detectGoals bool) {
	v := b.Velocity
	v[1] -= Gravity * Dt
	v = v.Mul(1 - BallDrag*Dt)
	p := b.Position.Add(v.Mul(Dt))

	r := BallRadius
	inMouth := inGoalMouth(goal, p, detectGoals)
	// 只有已在球门内，或本帧从开口处越线，才进入球门内部
	entered := math32.Abs(b.Position.X()) > arena.HalfX() || inMouth

	bounce(&p[1], &v[1], r, arena.Size.Y()-r)
	if math32.Abs(p.X()) > arena.HalfX() && entered {
		// 已越过球门线，只能在球门内部活动
		confineToGoal(arena, goal, &p, &v)
	} else {
		bounce(&p[2], &v[2], -arena.HalfZ()+r, arena.HalfZ()-r)
		if !inMouth {
			bounce(&p[0], &v[0], -arena.HalfX()+r, arena.HalfX()-r)
		}
	}

	// 滚动：朝向按角速度 v/r 累积
	b.Orientation = b.Orientation.Add(Vec3{v.Z(), 0, -v.X()}.Mul(Dt / r))
	b.Position = p
	b.Velocity = v
}

func confineToGoal(arena Arena, goal Goal, p, v *Vec3) {
	r := BallRadius
	bounce(&p[1], &v[1], r, goal.Height-r)
	bounce(&p[2], &v[2], -goal.Width/2+r, goal.Width/2-r)
	bounce(&p[0], &v[0], -arena.HalfX()-goal.Depth+r, arena.HalfX()+goal.Depth-r)
}

func inGoalMouth(goal Goal, p Vec3, detectGoals bool) bool {
	return detectGoals &&
		math32.Abs(p.Z()) < goal.Width/2-BallRadius &&
		p.Y() < goal.Height-BallRadius
}

// collideCarBall 车按包围球处理、质量视为无穷大，只修正球的位置与速度。
// 推开后的球不在球门开口内时夹回场内，车不能把球挤穿端墙。
func collideCarBall(arena Arena, goal Goal, carSize Vec3, car, ball *CarState, detectGoals bool) {
	d := ball.Position.Sub(car.Position)
	dist := d.Len()
	minDist := carRadius(carSize) + BallRadius
	if dist >= minDist || dist == 0 {
		return
	}
	behind := math32.Abs(ball.Position.X()) > arena.HalfX()
	n := d.Mul(1 / dist)
	ball.Position = car.Position.Add(n.Mul(minDist))
	rel := ball.Velocity.Sub(car.Velocity).Dot(n)
	if rel < 0 {
		ball.Velocity = ball.Velocity.Sub(n.Mul((1 + Restitution) * rel))
	}

	p, v := &ball.Position, &ball.Velocity
	r := BallRadius
	bounce(&p[1], &v[1], r, arena.Size.Y()-r)
	switch {
	case behind:
		confineToGoal(arena, goal, p, v)
	case !inGoalMouth(goal, *p, detectGoals):
		bounce(&p[0], &v[0], -arena.HalfX()+r, arena.HalfX()-r)
		bounce(&p[2], &v[2], -arena.HalfZ()+r, arena.HalfZ()-r)
	}
}
