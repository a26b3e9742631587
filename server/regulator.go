package server

import "carball/protocol"

// Regulator 每会话的自适应抖动缓冲：在延迟与抗抖动之间保持队列深度。
// 深度越界时进入调节，恰好等于 Target 时退出调节（两个阈值形成滞回）。
type Regulator struct {
	Min int
	Max int
}

// Target 目标深度，(Min+Max)/2 取整
func (r Regulator) Target() int { return (r.Min + r.Max) / 2 }

// Decision 一帧的调节结果
type Decision struct {
	Input    protocol.Input
	Consumed bool // 本帧是否采用了该会话的输入
	Forced   bool // 调节中因超过上限被强制消费
	Popped   int  // 本帧出队的元素个数（含被采用的队首）
}

// Regulate 对会话队列执行一帧调节。
// 未调节或深度超过 Max 时采用队首；调节中一次性出队到 Target，否则只出队一个。
func (r Regulator) Regulate(s *Session) Decision {
	size := len(s.queue)
	if size < r.Min || size > r.Max {
		s.regulateQueue = true
	} else if size == r.Target() {
		s.regulateQueue = false
	}

	if size == 0 || (s.regulateQueue && size <= r.Max) {
		return Decision{}
	}

	d := Decision{Input: s.queue[0], Consumed: true, Forced: s.regulateQueue, Popped: 1}
	if s.regulateQueue {
		d.Popped = size - r.Target()
	}
	s.pop(d.Popped)
	return d
}
