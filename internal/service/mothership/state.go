package mothership

import (
	"sync/atomic"
	"time"
)

// PollState 轮询器与分发器共享的状态
// 丢失更新只影响延迟调节，不影响正确性
type PollState struct {
	lastAction atomic.Int64 // unix纳秒
}

// NewPollState 以 now-initialIdle 作为最近一次执行时间
func NewPollState(now time.Time, initialIdle time.Duration) *PollState {
	s := &PollState{}
	s.Touch(now.Add(-initialIdle))
	return s
}

// Touch 更新最近一次执行时间
func (s *PollState) Touch(t time.Time) {
	s.lastAction.Store(t.UnixNano())
}

// LastAction 最近一次执行时间
func (s *PollState) LastAction() time.Time {
	return time.Unix(0, s.lastAction.Load())
}
