/**
 * 进程执行器
 * @date: 2026.10.16
 * @description: 启动命令管道，阶段间以stdout->stdin相连，仅观察最后一个阶段的退出状态
 */
package process

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/RedCore161/DeviceStreamController/internal/pkg/logger"
	"github.com/sirupsen/logrus"
)

// ErrNonZeroExit 最后一个阶段以非0状态退出
var ErrNonZeroExit = errors.New("process exited with non-zero status")

// Options 执行器选项
type Options struct {
	WorkDir string    // 工作目录，为空时继承当前进程
	Stdout  io.Writer // 最后一个阶段的标准输出，默认 os.Stdout
	Stderr  io.Writer // 所有阶段的标准错误，默认 os.Stderr
}

// Runner 进程执行器
// 不捕获输出，不提供取消：管道一旦启动就运行到结束
type Runner struct {
	opts Options
}

// NewRunner 创建执行器
func NewRunner(opts Options) *Runner {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	return &Runner{opts: opts}
}

// Result 管道执行结果
type Result struct {
	ExitCode int           // 最后一个阶段的退出码
	Stages   int           // 阶段数
	Duration time.Duration // 从启动到结束的耗时
}

// Pipeline 已启动的管道句柄
type Pipeline struct {
	cmdline string
	cmds    []*exec.Cmd
	started time.Time
}

// Start 解析并启动管道，只阻塞到所有进程创建完成
// ctx 仅在启动前检查，启动后的进程不受其取消影响
func (r *Runner) Start(ctx context.Context, cmdline string) (*Pipeline, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	stages, err := Parse(cmdline)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		cmdline: cmdline,
		cmds:    make([]*exec.Cmd, len(stages)),
		started: time.Now(),
	}
	for i, st := range stages {
		cmd := exec.Command(st.Args[0], st.Args[1:]...)
		cmd.Dir = r.opts.WorkDir
		cmd.Stderr = r.opts.Stderr
		if len(st.Env) > 0 {
			cmd.Env = append(os.Environ(), st.Env...)
		}
		p.cmds[i] = cmd
	}
	p.cmds[len(p.cmds)-1].Stdout = r.opts.Stdout

	// 父进程持有的管道端在子进程启动后全部关闭，保证下游能收到EOF
	var parentEnds []*os.File
	closeParentEnds := func() {
		for _, f := range parentEnds {
			_ = f.Close()
		}
		parentEnds = nil
	}
	for i := 0; i < len(p.cmds)-1; i++ {
		pr, pw, err := os.Pipe()
		if err != nil {
			closeParentEnds()
			return nil, fmt.Errorf("failed to create pipe: %w", err)
		}
		p.cmds[i].Stdout = pw
		p.cmds[i+1].Stdin = pr
		parentEnds = append(parentEnds, pr, pw)
	}

	for i, cmd := range p.cmds {
		if err := cmd.Start(); err != nil {
			closeParentEnds()
			p.abort(i)
			return nil, fmt.Errorf("failed to start stage %d (%s): %w", i+1, cmd.Path, err)
		}
	}
	closeParentEnds()

	logger.WithFields(logrus.Fields{
		"path":    "process.Start",
		"command": cmdline,
		"stages":  len(p.cmds),
		"pid":     p.cmds[len(p.cmds)-1].Process.Pid,
	}).Debug("Pipeline started")

	return p, nil
}

// abort 终止并回收已启动的前n个阶段
func (p *Pipeline) abort(n int) {
	for _, cmd := range p.cmds[:n] {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
	}
}

// Wait 等待所有阶段结束
// 非最后阶段的失败只记录日志；最后阶段非0退出时返回 ErrNonZeroExit
func (p *Pipeline) Wait() (*Result, error) {
	last := len(p.cmds) - 1
	var lastErr error
	for i, cmd := range p.cmds {
		err := cmd.Wait()
		if i == last {
			lastErr = err
			continue
		}
		if err != nil {
			logger.WithFields(logrus.Fields{
				"path":    "process.Wait",
				"command": p.cmdline,
				"stage":   i + 1,
			}).Debugf("Upstream stage ended: %v", err)
		}
	}

	res := &Result{
		ExitCode: p.cmds[last].ProcessState.ExitCode(),
		Stages:   len(p.cmds),
		Duration: time.Since(p.started),
	}

	var exitErr *exec.ExitError
	switch {
	case lastErr == nil:
		return res, nil
	case errors.As(lastErr, &exitErr):
		return res, fmt.Errorf("%w: %d", ErrNonZeroExit, res.ExitCode)
	default:
		return res, lastErr
	}
}

// String 返回原始命令行
func (p *Pipeline) String() string {
	return p.cmdline
}

// Run 启动管道并等待其结束
func (r *Runner) Run(ctx context.Context, cmdline string) (*Result, error) {
	p, err := r.Start(ctx, cmdline)
	if err != nil {
		return &Result{ExitCode: -1}, err
	}
	return p.Wait()
}

// Lookup 检查命令行各阶段的程序是否存在于 PATH
func Lookup(cmdline string) error {
	stages, err := Parse(cmdline)
	if err != nil {
		return err
	}
	var missing []string
	for _, st := range stages {
		if _, err := exec.LookPath(st.Args[0]); err != nil {
			missing = append(missing, st.Args[0])
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("executable not found: %s", strings.Join(missing, ", "))
	}
	return nil
}
