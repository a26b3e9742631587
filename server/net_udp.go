package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
)

// ErrTransportClosed 收到零长度数据报，视为传输层关闭
var ErrTransportClosed = errors.New("error receiving input: zero-length datagram")

// PacketReader 阻塞读取一个数据报；*net.UDPConn 满足该接口
type PacketReader interface {
	ReadFromUDPAddrPort(b []byte) (int, netip.AddrPort, error)
}

// ListenUDP 在所有地址上绑定 UDP 端口
func ListenUDP(port int) (*net.UDPConn, error) {
	conn, err := net.ListenUDP("udp", &net.UDPAddr{Port: port})
	if err != nil {
		return nil, fmt.Errorf("error binding udp socket: %w", err)
	}
	return conn, nil
}

// ServeUDP 接收循环：每个数据报复制后交给房间，由 Tick 协程完成匹配、入座与入队。
// ctx 取消后由调用方关闭连接来解除阻塞，此时返回 nil。
func ServeUDP(ctx context.Context, conn PacketReader, room *Room) error {
	buf := make([]byte, 2048)
	for {
		n, from, err := conn.ReadFromUDPAddrPort(buf)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("error receiving input: %w", err)
		}
		if n == 0 {
			return ErrTransportClosed
		}
		// 双栈套接字上的 IPv4 客户端以 ::ffff:a.b.c.d 形式出现，统一还原
		from = netip.AddrPortFrom(from.Addr().Unmap(), from.Port())
		room.OnDatagram(NewDatagram(from, buf[:n]))
	}
}
