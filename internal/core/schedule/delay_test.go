package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/RedCore161/DeviceStreamController/internal/config"
)

func at(hour, minute int) time.Time {
	return time.Date(2026, 3, 14, hour, minute, 0, 0, time.UTC)
}

func TestComputeDelay_MiddayIsMinimum(t *testing.T) {
	s := NewScheduler(&config.PollerConfig{MinDelay: 25 * time.Second, MaxDelay: 400 * time.Second})
	now := at(12, 0)

	// 空闲足够久，系数为1
	assert.Equal(t, 25*time.Second, s.ComputeDelay(now, now.Add(-2*time.Hour)))
}

func TestComputeDelay_MidnightIsMaximum(t *testing.T) {
	s := NewScheduler(&config.PollerConfig{MinDelay: 25 * time.Second, MaxDelay: 400 * time.Second})
	now := at(0, 0)

	assert.Equal(t, 425*time.Second, s.ComputeDelay(now, now.Add(-2*time.Hour)))

	// 23:59 接近午夜
	late := at(23, 59)
	assert.InDelta(t, 425, s.ComputeDelay(late, late.Add(-2*time.Hour)).Seconds(), 20)
}

func TestComputeDelay_JustActed(t *testing.T) {
	s := NewScheduler(nil)
	now := at(12, 0)

	// 系数 0.2: round(25 * 0.2) = 5
	assert.Equal(t, 5*time.Second, s.ComputeDelay(now, now))
}

func TestComputeDelay_Bounded(t *testing.T) {
	s := NewScheduler(nil)
	minDelay, maxDelay := s.Bounds()

	for hour := 0; hour < 24; hour++ {
		for _, minute := range []int{0, 17, 30, 59} {
			now := at(hour, minute)
			for _, idle := range []time.Duration{0, time.Second, time.Minute, time.Hour, 48 * time.Hour} {
				d := s.ComputeDelay(now, now.Add(-idle))
				assert.LessOrEqual(t, d, minDelay+maxDelay)
				assert.GreaterOrEqual(t, d, time.Duration(0))
			}
		}
	}
}

func TestComputeDelay_GrowsWithIdleTime(t *testing.T) {
	s := NewScheduler(nil)

	for _, now := range []time.Time{at(3, 0), at(9, 30), at(12, 0), at(18, 45)} {
		prev := time.Duration(0)
		for secs := 0; secs <= 2048; secs = secs*2 + 1 {
			d := s.ComputeDelay(now, now.Add(-time.Duration(secs)*time.Second))
			// 空闲越久延迟越长，直到系数饱和
			assert.GreaterOrEqual(t, d, prev, "now=%s idle=%ds", now.Format("15:04"), secs)
			prev = d
		}
	}
}

func TestRecencyFactor(t *testing.T) {
	assert.InDelta(t, 0.2, RecencyFactor(0), 1e-9)
	assert.InDelta(t, 0.3, RecencyFactor(time.Second), 1e-9)
	assert.InDelta(t, 0.2, RecencyFactor(-time.Minute), 1e-9)
	assert.Equal(t, 1.0, RecencyFactor(24*time.Hour))
	// log2(256)/10 + 0.2 = 1.0
	assert.InDelta(t, 1.0, RecencyFactor(255*time.Second), 1e-9)
}

func TestTimeOfDayTerm(t *testing.T) {
	assert.Equal(t, 25*time.Second, TimeOfDayTerm(at(12, 0), 25*time.Second, 400*time.Second))
	assert.Equal(t, 425*time.Second, TimeOfDayTerm(at(0, 0), 25*time.Second, 400*time.Second))

	morning := TimeOfDayTerm(at(6, 0), 25*time.Second, 400*time.Second)
	// |360/720 - 1|^8 = 0.5^8
	assert.InDelta(t, 25+400.0/256, morning.Seconds(), 1e-6)
}

func TestSetBounds(t *testing.T) {
	s := NewScheduler(nil)
	s.SetBounds(10*time.Second, 0)

	minDelay, maxDelay := s.Bounds()
	assert.Equal(t, 10*time.Second, minDelay)
	assert.Equal(t, DefaultMaxDelay, maxDelay)
}
