package server

import (
	"net/netip"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"carball/game"
	"carball/protocol"
)

// Sender 发送 UDP 数据报；*net.UDPConn 满足该接口
type Sender interface {
	WriteToUDPAddrPort(b []byte, addr netip.AddrPort) (int, error)
}

// Room 唯一的比赛场地：权威状态维护在内存，单线程 Tick 推进。
// 会话表、输入队列、玩家与球只由 Tick 协程访问；
// 接收协程与 HTTP 处理器通过通道、Tuning 锁和只读 Status 与之交互。
type Room struct {
	sender  Sender
	now     func() time.Time
	metrics *Metrics

	registry *Registry
	clock    *MatchClock
	players  [2]game.Player
	ball     game.Ball
	arena    game.Arena
	goal     game.Goal
	carSize  game.Vec3

	inbox      chan Datagram
	joinChan   chan *Spectator
	leaveChan  chan *Spectator
	spectators map[*Spectator]struct{}
	done       chan struct{}
	doneOnce   sync.Once

	tuningMu sync.RWMutex
	tuning   Tuning

	status   atomic.Pointer[Status]
	tickSeq  uint64
	replies  []reply
	fullWarn *rate.Limiter // 限制“会话已满”告警日志的频率
}

// NewRoom 创建场地，初始化数据结构
func NewRoom(sender Sender, cfg Config) *Room {
	r := &Room{
		sender:     sender,
		now:        time.Now,
		metrics:    &Metrics{},
		registry:   NewRegistry(),
		clock:      NewMatchClock(cfg.Match),
		players:    game.InitialPlayers(),
		ball:       game.InitialBall(),
		arena:      game.DefaultArena,
		goal:       game.DefaultGoal,
		carSize:    game.DefaultCarSize,
		inbox:      make(chan Datagram, 1024), // 足够缓冲，避免网络读阻塞影响 Tick
		joinChan:   make(chan *Spectator, 16),
		leaveChan:  make(chan *Spectator, 64),
		spectators: make(map[*Spectator]struct{}),
		done:       make(chan struct{}),
		tuning:     cfg.Tuning,
		replies:    make([]reply, 0, MaxSessions),
		fullWarn:   rate.NewLimiter(rate.Every(time.Second), 5),
	}
	r.publishStatus(0)
	return r
}

func (r *Room) Metrics() *Metrics { return r.metrics }

// Tuning 返回当前可调参数的副本
func (r *Room) Tuning() Tuning {
	r.tuningMu.RLock()
	defer r.tuningMu.RUnlock()
	return r.tuning
}

// SetTuning 热更新参数，下一帧生效
func (r *Room) SetTuning(t Tuning) error {
	if err := t.Validate(); err != nil {
		return err
	}
	r.tuningMu.Lock()
	r.tuning = t
	r.tuningMu.Unlock()
	return nil
}

// OnDatagram 入站数据报（不阻塞），等下一次 Tick 处理
func (r *Room) OnDatagram(d Datagram) {
	r.metrics.IncReceived()
	select {
	case r.inbox <- d:
	default:
		// 丢弃：为了实时性，避免背压影响世界推进
		r.metrics.IncInboxFull()
	}
}

// processInbox 处理本帧开始前到达的所有数据报（非阻塞 drain）
func (r *Room) processInbox(now time.Time, t Tuning) {
	for n := len(r.inbox); n > 0; n-- {
		d := <-r.inbox
		r.handleDatagram(&d, now, t)
	}
}

func (r *Room) handleDatagram(d *Datagram, now time.Time, t Tuning) {
	s := r.registry.Match(d.From)
	if s == nil {
		s, ok := r.registry.Admit(d.From, now)
		if !ok {
			r.metrics.IncRegistryFull()
			if r.fullWarn.Allow() {
				Log.Warnf("registry full, dropping datagram from %s", d.From)
			}
			return
		}
		r.metrics.IncAdmitted()
		Log.Infof("session admitted: id=%s endpoint=%s player=%d", s.ID, s.Endpoint, s.PlayerID)
		r.sendJoin(s, t.JoinReplyCopies)
		return
	}

	in, complete := protocol.DecodeInput(d.Bytes())
	if !complete {
		r.metrics.IncShortDatagram()
		if t.RejectShortDatagrams {
			return
		}
	}
	r.registry.Ingest(s, in, now)
	r.metrics.IncQueued()
}

// sendJoin 入座通知，尽力而为：按配置重复发送，不等待确认
func (r *Room) sendJoin(s *Session, copies int) {
	var buf [protocol.JoinSize]byte
	protocol.EncodeJoin(&buf, s.PlayerID)
	for i := 0; i < copies; i++ {
		r.send(buf[:], s.Endpoint)
	}
}

func (r *Room) send(b []byte, to netip.AddrPort) bool {
	if _, err := r.sender.WriteToUDPAddrPort(b, to); err != nil {
		r.metrics.IncSendError()
		Log.Debugf("send to %s failed: %v", to, err)
		return false
	}
	return true
}

// SessionStatus 管理接口展示的会话信息
type SessionStatus struct {
	ID         string `json:"id"`
	Endpoint   string `json:"endpoint"`
	PlayerID   uint8  `json:"playerId"`
	QueueLen   int    `json:"queueLen"`
	Regulating bool   `json:"regulating"`
}

// Status 每帧发布一次的只读快照，供 HTTP 协程读取
type Status struct {
	Tick                uint64          `json:"tick"`
	Phase               string          `json:"phase"`
	Countdown           int64           `json:"countdown"`
	TransitionCountdown int64           `json:"transitionCountdown"`
	Scores              [2]uint8        `json:"scores"`
	Sessions            []SessionStatus `json:"sessions"`
}

func (r *Room) publishStatus(now int64) {
	n := r.registry.Len()
	st := &Status{
		Tick:                r.tickSeq,
		Phase:               r.clock.Phase(now, n).String(),
		Countdown:           r.clock.Countdown(now),
		TransitionCountdown: r.clock.TransitionCountdown(now),
		Scores:              [2]uint8{r.players[0].Score, r.players[1].Score},
		Sessions:            make([]SessionStatus, 0, n),
	}
	for _, s := range r.registry.Sessions() {
		st.Sessions = append(st.Sessions, SessionStatus{
			ID:         s.ID.String(),
			Endpoint:   s.Endpoint.String(),
			PlayerID:   s.PlayerID,
			QueueLen:   s.QueueLen(),
			Regulating: s.Regulating(),
		})
	}
	r.status.Store(st)
}

// Status 返回最近一帧的快照
func (r *Room) Status() Status {
	return *r.status.Load()
}
