package stream

import (
	"sort"
	"sync"
	"time"
)

// RunningCommand 正在执行的命令快照
type RunningCommand struct {
	RunID      string    `json:"run_id"`
	ID         int       `json:"id"`
	Code       int       `json:"code"`
	UploadPath string    `json:"upload_path,omitempty"`
	StartedAt  time.Time `json:"started_at"`
}

// Tracker 记录正在执行的命令，供状态接口查询
type Tracker struct {
	mu      sync.Mutex
	running map[string]RunningCommand
}

// NewTracker 创建Tracker
func NewTracker() *Tracker {
	return &Tracker{running: make(map[string]RunningCommand)}
}

func (t *Tracker) add(sc *StreamCommand) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.running[sc.RunID] = RunningCommand{
		RunID:      sc.RunID,
		ID:         sc.ID,
		Code:       int(sc.Code),
		UploadPath: sc.UploadPath,
		StartedAt:  time.Now(),
	}
}

func (t *Tracker) remove(sc *StreamCommand) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.running, sc.RunID)
}

// Snapshot 按开始时间排序返回正在执行的命令
func (t *Tracker) Snapshot() []RunningCommand {
	t.mu.Lock()
	out := make([]RunningCommand, 0, len(t.running))
	for _, rc := range t.running {
		out = append(out, rc)
	}
	t.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.Before(out[j].StartedAt) })
	return out
}

// Len 正在执行的命令数
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.running)
}
