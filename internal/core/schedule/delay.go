/**
 * 轮询延迟调度
 * @date: 2026.10.16
 * @description: 结合时段和最近一次执行时间计算下一次轮询前的等待时长
 */
package schedule

import (
	"math"
	"sync"
	"time"

	"github.com/RedCore161/DeviceStreamController/internal/config"
)

// 默认参数
const (
	DefaultMaxDelay = 400 * time.Second
	DefaultMinDelay = 25 * time.Second

	// 曲线陡峭程度，越大白天越平
	curveExponent = 8
	// 中午对应的分钟数
	middayMinute = 720.0
	// 刚执行过命令时的最小系数
	recencyFloor = 0.2
)

// Scheduler 延迟调度器
// 计算本身无副作用，调用方负责实际等待
type Scheduler struct {
	mu       sync.RWMutex
	maxDelay time.Duration
	minDelay time.Duration
}

// NewScheduler 根据配置创建调度器
func NewScheduler(cfg *config.PollerConfig) *Scheduler {
	s := &Scheduler{maxDelay: DefaultMaxDelay, minDelay: DefaultMinDelay}
	if cfg != nil {
		s.SetBounds(cfg.MinDelay, cfg.MaxDelay)
	}
	return s
}

// SetBounds 更新延迟下限和曲线幅度，非正值保持原值
func (s *Scheduler) SetBounds(minDelay, maxDelay time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if minDelay > 0 {
		s.minDelay = minDelay
	}
	if maxDelay > 0 {
		s.maxDelay = maxDelay
	}
}

// Bounds 返回当前的延迟下限和曲线幅度
func (s *Scheduler) Bounds() (minDelay, maxDelay time.Duration) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.minDelay, s.maxDelay
}

// ComputeDelay 计算下一次轮询的等待时长，结果取整到秒
//
//	时段项:  max * |minuteOfDay/720 - 1|^8 + min
//	近期系数: min(log2(idleSeconds+1)/10 + 0.2, 1)
//
// 中午附近时段项接近min，午夜接近max+min；刚执行过命令时系数为0.2。
func (s *Scheduler) ComputeDelay(now, lastAction time.Time) time.Duration {
	minDelay, maxDelay := s.Bounds()

	seconds := math.Round(TimeOfDayTerm(now, minDelay, maxDelay).Seconds() * RecencyFactor(now.Sub(lastAction)))
	return time.Duration(seconds) * time.Second
}

// TimeOfDayTerm 时段项，使用now所在时区的本地时间
func TimeOfDayTerm(now time.Time, minDelay, maxDelay time.Duration) time.Duration {
	minuteOfDay := float64(now.Hour()*60 + now.Minute())
	shape := math.Pow(math.Abs(minuteOfDay/middayMinute-1), curveExponent)
	return time.Duration(maxDelay.Seconds()*shape*float64(time.Second)) + minDelay
}

// RecencyFactor 近期系数，空闲时长为负时按0处理
func RecencyFactor(idle time.Duration) float64 {
	secs := math.Floor(idle.Seconds())
	if secs < 0 {
		secs = 0
	}
	return math.Min(math.Log2(secs+1)/10+recencyFloor, 1)
}
