/**
 * StreamCommand 执行单元
 * @date: 2026.10.16
 * @description: 组合目录解析结果、进程执行、上传就绪等待与上传，以fire-and-forget方式运行
 */
package stream

import (
	"context"
	"fmt"
	"runtime/debug"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/RedCore161/DeviceStreamController/internal/core/catalog"
	"github.com/RedCore161/DeviceStreamController/internal/core/upload"
	"github.com/RedCore161/DeviceStreamController/internal/executor/process"
	modelComm "github.com/RedCore161/DeviceStreamController/internal/model/client"
	"github.com/RedCore161/DeviceStreamController/internal/pkg/logger"
	"github.com/RedCore161/DeviceStreamController/internal/pkg/metrics"
)

// 生命周期阶段
const (
	StageResolved      = "resolved"
	StageQueued        = "queued"
	StageAcknowledged  = "acknowledged"
	StageStarted       = "started"
	StageFinished      = "finished"
	StageWaitingUpload = "waiting_upload"
	StageUploaded      = "uploaded"
	StageUploadSkipped = "upload_skipped"
)

// 状态
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
	StatusSkipped = "skipped"
)

// Runner 进程执行
type Runner interface {
	Run(ctx context.Context, cmdline string) (*process.Result, error)
}

// ReadinessWaiter 上传就绪等待
type ReadinessWaiter interface {
	AwaitReady(ctx context.Context, path string) bool
}

// Uploader 文件上传
type Uploader interface {
	Upload(ctx context.Context, path, token string) (*modelComm.UploadResult, error)
}

// Deps 执行依赖，所有StreamCommand共享
type Deps struct {
	Runner   Runner
	Waiter   ReadinessWaiter
	Uploader Uploader
	Tracker  *Tracker // 可为nil
}

// StreamCommand 运行时执行单元
// 构造后只会被修改一次（分配token），Run结束后即丢弃
type StreamCommand struct {
	ID         int
	Code       catalog.Code
	Shell      catalog.ShellCommand
	UploadPath string
	Instant    bool
	RunID      string

	mu    sync.RWMutex
	token string

	deps *Deps
}

// New 由目录描述构造StreamCommand
func New(id int, d catalog.Descriptor, deps *Deps) *StreamCommand {
	return &StreamCommand{
		ID:         id,
		Code:       d.Code,
		Shell:      d.ShellCommand,
		UploadPath: d.UploadPath,
		Instant:    d.Instant,
		RunID:      uuid.NewString(),
		deps:       deps,
	}
}

// IsInert 没有shell命令的StreamCommand不做任何事
func (sc *StreamCommand) IsInert() bool {
	return !sc.Shell.IsSet()
}

// SetToken 分配上传token
func (sc *StreamCommand) SetToken(token string) {
	sc.mu.Lock()
	sc.token = token
	sc.mu.Unlock()
}

// Token 返回上传token
func (sc *StreamCommand) Token() string {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.token
}

func (sc *StreamCommand) String() string {
	return fmt.Sprintf("%d => %s", sc.ID, sc.Shell)
}

// Run 执行命令并在需要时上传产出文件
// 进程失败不会中止上传：部分成功的采集仍可能产生可用文件
func (sc *StreamCommand) Run(ctx context.Context) {
	sc.run(ctx, true)
}

// RunInstant 同步执行命令，从不上传
// panic 会被捕获并记录，轮询循环不受影响
func (sc *StreamCommand) RunInstant(ctx context.Context) {
	defer sc.recoverPanic()
	sc.run(ctx, false)
}

// Launch 在独立goroutine中执行Run，不等待其完成
// panic 会被捕获并记录，不会传播给调用方；返回的channel在执行结束后关闭
func (sc *StreamCommand) Launch(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer sc.recoverPanic()
		sc.Run(ctx)
	}()
	return done
}

// recoverPanic 只能以defer方式调用
func (sc *StreamCommand) recoverPanic() {
	if r := recover(); r != nil {
		sc.event(StageFinished, StatusFailed, fmt.Sprintf("panic: %v", r), map[string]interface{}{
			"stack": string(debug.Stack()),
		})
		metrics.CommandsTotal.WithLabelValues(sc.codeLabel(), metrics.ResultFailure).Inc()
	}
}

func (sc *StreamCommand) run(ctx context.Context, withUpload bool) {
	shell, ok := sc.Shell.Get()
	if !ok {
		return
	}

	if t := sc.deps.Tracker; t != nil {
		t.add(sc)
		defer t.remove(sc)
	}
	metrics.CommandsRunning.Inc()
	defer metrics.CommandsRunning.Dec()

	sc.event(StageStarted, StatusSuccess, shell, nil)
	res, err := sc.deps.Runner.Run(ctx, shell)
	fields := map[string]interface{}{}
	if res != nil {
		fields["exit_code"] = res.ExitCode
		fields["duration"] = res.Duration.String()
	}
	if err != nil {
		sc.event(StageFinished, StatusFailed, err.Error(), fields)
	} else {
		sc.event(StageFinished, StatusSuccess, "", fields)
	}

	if !withUpload {
		metrics.CommandsTotal.WithLabelValues(sc.codeLabel(), metrics.Result(err)).Inc()
		return
	}

	if sc.UploadPath == "" {
		sc.event(StageUploadSkipped, StatusSkipped, "command declares no output file", nil)
		metrics.CommandsTotal.WithLabelValues(sc.codeLabel(), metrics.Result(err)).Inc()
		return
	}

	uploadErr := sc.uploadOutput(ctx)
	if err == nil {
		err = uploadErr
	}
	metrics.CommandsTotal.WithLabelValues(sc.codeLabel(), metrics.Result(err)).Inc()
}

// uploadOutput 等待文件就绪后上传一次，失败不重试
func (sc *StreamCommand) uploadOutput(ctx context.Context) error {
	sc.event(StageWaitingUpload, StatusSuccess, sc.UploadPath, nil)

	start := time.Now()
	if !sc.deps.Waiter.AwaitReady(ctx, sc.UploadPath) {
		sc.event(StageUploadSkipped, StatusFailed, "output file not ready: "+sc.UploadPath, nil)
		return fmt.Errorf("%w: %s", upload.ErrNotReady, sc.UploadPath)
	}

	res, err := sc.deps.Uploader.Upload(ctx, sc.UploadPath, sc.Token())
	if err != nil {
		sc.event(StageUploaded, StatusFailed, err.Error(), nil)
		return err
	}

	sc.event(StageUploaded, StatusSuccess, sc.UploadPath, map[string]interface{}{
		"size":        res.Size,
		"status_code": res.StatusCode,
		"waited":      time.Since(start).String(),
	})
	return nil
}

func (sc *StreamCommand) event(stage, status, msg string, fields map[string]interface{}) {
	logger.LogCommandEvent(logger.CommandEvent{
		CommandID: sc.ID,
		Code:      int(sc.Code),
		RunID:     sc.RunID,
		Stage:     stage,
		Status:    status,
		Message:   msg,
	}, fields)
}

func (sc *StreamCommand) codeLabel() string {
	return strconv.Itoa(int(sc.Code))
}
