package server

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// Spectator 观战连接：只接收快照，不参与比赛
type Spectator struct {
	ws     *websocket.Conn
	addr   string
	send   chan []byte
	binary bool // true 时使用 msgpack 二进制帧
}

func NewSpectator(ws *websocket.Conn, binary bool) *Spectator {
	return &Spectator{
		ws:     ws,
		addr:   ws.RemoteAddr().String(),
		send:   make(chan []byte, 64),
		binary: binary,
	}
}

// Enqueue 将要发送的消息压入队列（非阻塞，满则丢弃）。只由 Tick 协程调用。
func (c *Spectator) Enqueue(b []byte) {
	select {
	case c.send <- b:
	default:
		// 为了实时性，丢弃新快照（防止阻塞 Tick）
	}
}

// Close 关闭发送队列，写协程随后关闭底层连接。只由 Tick 协程调用。
func (c *Spectator) Close() {
	if c.send != nil {
		close(c.send)
		c.send = nil
	}
}

// writePump 独立协程，负责从 send 队列写出到 WS
func (c *Spectator) writePump(send <-chan []byte) {
	defer c.ws.Close()
	msgType := websocket.TextMessage
	if c.binary {
		msgType = websocket.BinaryMessage
	}
	for msg := range send {
		_ = c.ws.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := c.ws.WriteMessage(msgType, msg); err != nil {
			return
		}
	}
}

// readPump 观战端不发送业务消息；读循环只用于发现断开
func (c *Spectator) readPump(room *Room) {
	defer c.ws.Close()
	// 读泵退出时，通知房间在 Tick 线程中移除该观战者
	defer room.RequestLeave(c)
	c.ws.SetReadLimit(1 << 10)
	_ = c.ws.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(60 * time.Second))
	})
	for {
		if _, _, err := c.ws.ReadMessage(); err != nil {
			return
		}
	}
}

// RequestJoin 请求在 Tick 线程中加入观战者；房间已停止时返回 false
func (r *Room) RequestJoin(c *Spectator) bool {
	select {
	case r.joinChan <- c:
		return true
	case <-r.done:
		return false
	}
}

// RequestLeave 请求在 Tick 线程中移除观战者，避免并发改动房间状态
func (r *Room) RequestLeave(c *Spectator) {
	select {
	case r.leaveChan <- c:
	case <-r.done:
	}
}

// processSpectators 应用本帧之前的加入/离开请求
func (r *Room) processSpectators() {
	for {
		select {
		case c := <-r.joinChan:
			r.spectators[c] = struct{}{}
			Log.Infof("spectator joined: %s (total %d)", c.addr, len(r.spectators))
		case c := <-r.leaveChan:
			if _, ok := r.spectators[c]; ok {
				c.Close()
				delete(r.spectators, c)
				Log.Infof("spectator left: %s (total %d)", c.addr, len(r.spectators))
			}
		default:
			return
		}
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		// 观战数据为公开比赛状态，允许所有来源
		return true
	},
}

// HandleWS WebSocket 观战接入：/ws?format=msgpack 使用二进制帧，默认 JSON 文本帧
func HandleWS(room *Room) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			Log.Warnf("upgrade error: %v", err)
			return
		}

		c := NewSpectator(ws, r.URL.Query().Get("format") == "msgpack")
		go c.writePump(c.send)
		if !room.RequestJoin(c) {
			close(c.send)
			return
		}
		go c.readPump(room)
	}
}
