package server

import (
	"encoding/json"

	"github.com/vmihailenco/msgpack/v5"

	"carball/game"
	"carball/protocol"
)

// broadcast 只给本帧提供了输入的会话回包：对手状态、球、两个倒计时、比分与回显的输入编号
func (r *Room) broadcast(now int64) {
	if len(r.replies) == 0 {
		return
	}
	st := protocol.State{
		Ball:                r.ball.ObjectState,
		Countdown:           r.clock.Countdown(now),
		TransitionCountdown: r.clock.TransitionCountdown(now),
		Scores:              [2]uint8{r.players[0].Score, r.players[1].Score},
	}
	var buf [protocol.StateSize]byte
	for _, rp := range r.replies {
		other := &r.players[rp.playerID^1]
		st.InputID = rp.inputID
		st.Opponent = other.CarState
		st.OpponentAction = other.Action
		protocol.EncodeState(&buf, st)
		if r.send(buf[:], rp.session.Endpoint) {
			r.metrics.IncStateSent()
		}
	}
}

// CarSnapshot 观战快照中的车辆
type CarSnapshot struct {
	game.CarState `msgpack:",inline"`
	Action        game.PlayerAction `json:"action" msgpack:"action"`
	Connected     bool              `json:"connected" msgpack:"connected"`
}

// SpectatorSnapshot 推送给观战端的完整世界状态
type SpectatorSnapshot struct {
	Type                string         `json:"type" msgpack:"type"`
	Tick                uint64         `json:"tick" msgpack:"tick"`
	Phase               string         `json:"phase" msgpack:"phase"`
	Countdown           int64          `json:"countdown" msgpack:"countdown"`
	TransitionCountdown int64          `json:"transitionCountdown" msgpack:"transitionCountdown"`
	Scores              [2]uint8       `json:"scores" msgpack:"scores"`
	Cars                [2]CarSnapshot `json:"cars" msgpack:"cars"`
	Ball                game.CarState  `json:"ball" msgpack:"ball"`
}

func (r *Room) spectatorSnapshot(now int64) SpectatorSnapshot {
	n := r.registry.Len()
	snap := SpectatorSnapshot{
		Type:                "state",
		Tick:                r.tickSeq,
		Phase:               r.clock.Phase(now, n).String(),
		Countdown:           r.clock.Countdown(now),
		TransitionCountdown: r.clock.TransitionCountdown(now),
		Scores:              [2]uint8{r.players[0].Score, r.players[1].Score},
		Ball:                r.ball.ObjectState,
	}
	for i := range r.players {
		snap.Cars[i] = CarSnapshot{CarState: r.players[i].CarState, Action: r.players[i].Action}
	}
	for _, s := range r.registry.Sessions() {
		snap.Cars[s.PlayerID].Connected = true
	}
	return snap
}

// broadcastSpectators 每种编码只序列化一次，再分发给所有观战连接
func (r *Room) broadcastSpectators(now int64) {
	if len(r.spectators) == 0 {
		return
	}
	snap := r.spectatorSnapshot(now)
	var text, bin []byte
	for c := range r.spectators {
		if c.binary {
			if bin == nil {
				b, err := msgpack.Marshal(&snap)
				if err != nil {
					Log.Errorf("encode spectator snapshot: %v", err)
					return
				}
				bin = b
			}
			c.Enqueue(bin)
			continue
		}
		if text == nil {
			b, err := json.Marshal(snap)
			if err != nil {
				Log.Errorf("encode spectator snapshot: %v", err)
				return
			}
			text = b
		}
		c.Enqueue(text)
	}
}
