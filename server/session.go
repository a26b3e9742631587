package server

import (
	"net/netip"
	"time"

	"github.com/google/uuid"

	"carball/protocol"
)

// MaxSessions 同时在线的客户端上限
const MaxSessions = 2

// Session 一个客户端在服务端的记录，以 UDP 端点为键。
// 只由 Tick 协程读写。
type Session struct {
	ID           uuid.UUID // 仅用于日志与管理接口
	Endpoint     netip.AddrPort
	PlayerID     uint8
	LastActivity time.Time

	queue         []protocol.Input // 先进先出，到达顺序
	regulateQueue bool
}

// QueueLen 当前缓冲深度
func (s *Session) QueueLen() int { return len(s.queue) }

// Regulating 是否处于调节状态
func (s *Session) Regulating() bool { return s.regulateQueue }

func (s *Session) push(in protocol.Input) {
	s.queue = append(s.queue, in)
}

// pop 丢弃队首 n 个元素，原地搬移以免底层数组无限增长
func (s *Session) pop(n int) {
	if n >= len(s.queue) {
		s.queue = s.queue[:0]
		return
	}
	s.queue = append(s.queue[:0], s.queue[n:]...)
}

// Registry 最多两个会话的集合，负责入座分配与超时清理
type Registry struct {
	sessions []*Session
}

func NewRegistry() *Registry {
	return &Registry{sessions: make([]*Session, 0, MaxSessions)}
}

func (r *Registry) Len() int { return len(r.sessions) }

// Sessions 按入座顺序返回当前会话；调用方不应修改切片
func (r *Registry) Sessions() []*Session { return r.sessions }

// Match 按地址+端口线性查找
func (r *Registry) Match(endpoint netip.AddrPort) *Session {
	for _, s := range r.sessions {
		if s.Endpoint == endpoint {
			return s
		}
	}
	return nil
}

// Admit 为新端点分配座位：空表为 0 号，否则取首个会话编号的另一个。
// 已满时返回 false。
func (r *Registry) Admit(endpoint netip.AddrPort, now time.Time) (*Session, bool) {
	if len(r.sessions) >= MaxSessions {
		return nil, false
	}
	var playerID uint8
	if len(r.sessions) > 0 {
		playerID = r.sessions[0].PlayerID ^ 1
	}
	s := &Session{
		ID:            uuid.New(),
		Endpoint:      endpoint,
		PlayerID:      playerID,
		LastActivity:  now,
		regulateQueue: true,
	}
	r.sessions = append(r.sessions, s)
	return s, true
}

// Ingest 追加输入并刷新活跃时间
func (r *Registry) Ingest(s *Session, in protocol.Input, now time.Time) {
	s.push(in)
	s.LastActivity = now
}

// Reap 移除超过 timeout 未活跃的会话并返回它们；比分与比赛计时不受影响
func (r *Registry) Reap(now time.Time, timeout time.Duration) []*Session {
	var reaped []*Session
	kept := r.sessions[:0]
	for _, s := range r.sessions {
		if now.Sub(s.LastActivity) > timeout {
			reaped = append(reaped, s)
			continue
		}
		kept = append(kept, s)
	}
	for i := len(kept); i < len(r.sessions); i++ {
		r.sessions[i] = nil
	}
	r.sessions = kept
	return reaped
}
