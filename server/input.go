package server

import (
	"net/netip"

	"carball/protocol"
)

// Datagram 接收协程交给 Tick 协程的原始数据报。
// 只保留前 48 字节，N 为实际收到的长度。
type Datagram struct {
	From    netip.AddrPort
	Payload [protocol.InputSize]byte
	N       int
}

// NewDatagram 复制 b，调用方可复用自己的读缓冲
func NewDatagram(from netip.AddrPort, b []byte) Datagram {
	d := Datagram{From: from, N: len(b)}
	copy(d.Payload[:], b)
	return d
}

// Bytes 返回实际收到的（至多 48 字节）内容
func (d *Datagram) Bytes() []byte {
	return d.Payload[:min(d.N, protocol.InputSize)]
}
