package server

// Phase 比赛阶段，由计时器与会话数推导，不单独存储
type Phase int

const (
	PhaseIdle            Phase = iota // 不足两人，倒计时冻结
	PhaseCountdown                    // 比赛进行中
	PhaseScoreTransition              // 刚进球，过渡计时进行中
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseCountdown:
		return "countdown"
	case PhaseScoreTransition:
		return "score_transition"
	default:
		return "unknown"
	}
}

// MatchClock 以墙钟秒为单位的比赛计时
type MatchClock struct {
	cfg MatchConfig

	StartTime           int64
	TransitionStartTime int64
}

// NewMatchClock 创建计时器；StartTime 为 0，首次凑齐两人时立即开新一局
func NewMatchClock(cfg MatchConfig) *MatchClock {
	return &MatchClock{cfg: cfg}
}

// Update 每帧调用。两人在场且本局超时则开新一局并返回 true，
// 调用方负责重置球与比分；不足两人时 StartTime 归零。
func (c *MatchClock) Update(now int64, sessions int) (reset bool) {
	if sessions < MaxSessions {
		c.StartTime = 0
		return false
	}
	if now-c.StartTime > c.cfg.GameDuration {
		c.StartTime = now + c.cfg.TransitionDuration
		c.TransitionStartTime = now
		return true
	}
	return false
}

// OnScore 进球：开始过渡计时，并为本局延长 ScoreExtension 秒
func (c *MatchClock) OnScore(now int64) {
	c.TransitionStartTime = now
	c.StartTime += c.cfg.ScoreExtension
}

// Countdown 本局剩余秒数，不小于 0
func (c *MatchClock) Countdown(now int64) int64 {
	return max(0, c.cfg.GameDuration-now+c.StartTime)
}

// TransitionCountdown 过渡剩余秒数，不小于 0
func (c *MatchClock) TransitionCountdown(now int64) int64 {
	return max(0, c.cfg.TransitionDuration-now+c.TransitionStartTime)
}

func (c *MatchClock) Phase(now int64, sessions int) Phase {
	switch {
	case sessions < MaxSessions:
		return PhaseIdle
	case c.TransitionCountdown(now) > 0:
		return PhaseScoreTransition
	default:
		return PhaseCountdown
	}
}
