package server

import (
	"sync/atomic"
	"time"
)

// Metrics 记录服务运行期的关键指标（用于监控与调试）
type Metrics struct {
	TickCount          int64 // 统计的 Tick 次数
	TotalTickNs        int64 // Tick 累计耗时（纳秒）
	DatagramsReceived  int64 // 收到的数据报
	InboxFullDiscarded int64 // 因收件通道满被丢弃
	RegistryFull       int64 // 会话已满时陌生端点的数据报
	ShortDatagrams     int64 // 不足 48 字节的 Input
	SessionsAdmitted   int64
	SessionsReaped     int64
	InputsQueued       int64
	InputsApplied      int64 // 被某一帧采用的输入
	InputsDiscarded    int64 // 出队但未被采用的输入（追赶目标深度）
	ForcedDrains       int64 // 调节中因超过上限被强制消费
	StatePacketsSent   int64
	SendErrors         int64
	Goals              int64
	RoundResets        int64
}

func (m *Metrics) IncReceived()          { atomic.AddInt64(&m.DatagramsReceived, 1) }
func (m *Metrics) IncInboxFull()         { atomic.AddInt64(&m.InboxFullDiscarded, 1) }
func (m *Metrics) IncRegistryFull()      { atomic.AddInt64(&m.RegistryFull, 1) }
func (m *Metrics) IncShortDatagram()     { atomic.AddInt64(&m.ShortDatagrams, 1) }
func (m *Metrics) IncAdmitted()          { atomic.AddInt64(&m.SessionsAdmitted, 1) }
func (m *Metrics) AddReaped(n int)       { atomic.AddInt64(&m.SessionsReaped, int64(n)) }
func (m *Metrics) IncQueued()            { atomic.AddInt64(&m.InputsQueued, 1) }
func (m *Metrics) IncForcedDrain()       { atomic.AddInt64(&m.ForcedDrains, 1) }
func (m *Metrics) IncStateSent()         { atomic.AddInt64(&m.StatePacketsSent, 1) }
func (m *Metrics) IncSendError()         { atomic.AddInt64(&m.SendErrors, 1) }
func (m *Metrics) IncGoal()              { atomic.AddInt64(&m.Goals, 1) }
func (m *Metrics) IncRoundReset()        { atomic.AddInt64(&m.RoundResets, 1) }
func (m *Metrics) AddApplied(popped int) {
	atomic.AddInt64(&m.InputsApplied, 1)
	atomic.AddInt64(&m.InputsDiscarded, int64(popped-1))
}
func (m *Metrics) AddTick(d time.Duration) {
	atomic.AddInt64(&m.TickCount, 1)
	atomic.AddInt64(&m.TotalTickNs, d.Nanoseconds())
}

// Snapshot 返回只读副本，便于 HTTP 输出
func (m *Metrics) Snapshot() map[string]any {
	tick := atomic.LoadInt64(&m.TickCount)
	total := atomic.LoadInt64(&m.TotalTickNs)
	var avgMs float64
	if tick > 0 {
		avgMs = float64(total) / float64(tick) / 1e6
	}
	return map[string]any{
		"tick_count":           tick,
		"avg_tick_ms":          avgMs,
		"datagrams_received":   atomic.LoadInt64(&m.DatagramsReceived),
		"inbox_full_discarded": atomic.LoadInt64(&m.InboxFullDiscarded),
		"registry_full":        atomic.LoadInt64(&m.RegistryFull),
		"short_datagrams":      atomic.LoadInt64(&m.ShortDatagrams),
		"sessions_admitted":    atomic.LoadInt64(&m.SessionsAdmitted),
		"sessions_reaped":      atomic.LoadInt64(&m.SessionsReaped),
		"inputs_queued":        atomic.LoadInt64(&m.InputsQueued),
		"inputs_applied":       atomic.LoadInt64(&m.InputsApplied),
		"inputs_discarded":     atomic.LoadInt64(&m.InputsDiscarded),
		"forced_drains":        atomic.LoadInt64(&m.ForcedDrains),
		"state_packets_sent":   atomic.LoadInt64(&m.StatePacketsSent),
		"send_errors":          atomic.LoadInt64(&m.SendErrors),
		"goals":                atomic.LoadInt64(&m.Goals),
		"round_resets":         atomic.LoadInt64(&m.RoundResets),
	}
}
