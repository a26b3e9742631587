package server

import (
	"context"
	"time"

	"carball/game"
)

const (
	// TicksPerSecond 世界推进频率（60 TPS）
	TicksPerSecond = game.TickRate
)

// Run 启动房间的 Tick 循环（单线程推进世界），直到 ctx 取消。
// 以起始时刻为基准计算第 n 帧的时间点并睡到该时刻，单帧耗时波动不会累积成漂移。
func (r *Room) Run(ctx context.Context) {
	defer r.closeSpectators()
	defer r.doneOnce.Do(func() { close(r.done) })

	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	start := time.Now()
	for n := int64(1); ; n++ {
		if ctx.Err() != nil {
			return
		}
		r.Tick()

		next := start.Add(time.Duration(n) * time.Second / TicksPerSecond)
		timer.Reset(time.Until(next))
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}
	}
}

// closeSpectators 在 done 关闭后调用：收下排队中的加入请求，再关闭所有观战发送队列，写协程随之退出
func (r *Room) closeSpectators() {
	r.processSpectators()
	for c := range r.spectators {
		c.Close()
		delete(r.spectators, c)
	}
}

// reply 本帧提供了输入、需要回包的会话
type reply struct {
	session  *Session
	playerID uint8
	inputID  uint32
}

// Tick 核心循环：处理入站 → 计时 → 清理 → 调节输入 → 回包 → 物理
func (r *Room) Tick() {
	started := time.Now()
	now := r.now()
	secs := now.Unix()
	t := r.Tuning()

	r.processSpectators()
	r.processInbox(now, t)

	if r.clock.Update(secs, r.registry.Len()) {
		r.ball = game.InitialBall()
		r.players[0].Score = 0
		r.players[1].Score = 0
		r.metrics.IncRoundReset()
		Log.Infof("round reset: next round starts at %d", r.clock.StartTime)
	}

	if reaped := r.registry.Reap(now, t.SessionTimeout()); len(reaped) > 0 {
		r.metrics.AddReaped(len(reaped))
		for _, s := range reaped {
			Log.Infof("session reaped: id=%s endpoint=%s player=%d idle=%s",
				s.ID, s.Endpoint, s.PlayerID, now.Sub(s.LastActivity))
		}
	}

	reg := t.Regulator()
	r.replies = r.replies[:0]
	for _, s := range r.registry.Sessions() {
		d := reg.Regulate(s)
		if !d.Consumed {
			continue
		}
		p := &r.players[s.PlayerID]
		p.Action = d.Input.Action
		p.CarState = d.Input.CarState
		r.replies = append(r.replies, reply{session: s, playerID: s.PlayerID, inputID: d.Input.ID})
		r.metrics.AddApplied(d.Popped)
		if d.Forced {
			r.metrics.IncForcedDrain()
		}
	}

	r.broadcast(secs)

	scores := [2]uint8{r.players[0].Score, r.players[1].Score}
	game.Step(r.arena, r.goal, &r.ball, r.carSize, &r.players, true)
	if r.players[0].Score != scores[0] || r.players[1].Score != scores[1] {
		r.clock.OnScore(secs)
		r.metrics.IncGoal()
		Log.Infof("goal: score %d-%d", r.players[0].Score, r.players[1].Score)
	}

	r.tickSeq++
	r.publishStatus(secs)
	if r.tickSeq%uint64(t.SpectatorEvery) == 0 {
		r.broadcastSpectators(secs)
	}
	r.metrics.AddTick(time.Since(started))
}
