/**
 * 进程执行器:命令行解析
 * @date: 2026.10.16
 * @description: 按shell分词规则把命令行拆分为管道阶段，只支持 "a | b | c" 形式
 */
package process

import (
	"errors"
	"fmt"
	"strings"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/syntax"
)

var (
	// ErrEmptyCommand 命令行为空
	ErrEmptyCommand = errors.New("empty command")
	// ErrUnsupportedSyntax 命令行包含管道以外的shell语法（&&、重定向、后台执行等）
	ErrUnsupportedSyntax = errors.New("unsupported shell syntax")
)

// Stage 管道中的单个进程
type Stage struct {
	Args []string // 程序及参数
	Env  []string // 额外环境变量 (KEY=VALUE)
}

// Parse 将命令行解析为有序的管道阶段
// 只做分词和去引号，引号内的 "|" 不作为分隔符；
// $VAR、$(...)、$((...)) 等展开会被拒绝，不读取进程环境
func Parse(cmdline string) ([]Stage, error) {
	if strings.TrimSpace(cmdline) == "" {
		return nil, ErrEmptyCommand
	}

	file, err := syntax.NewParser().Parse(strings.NewReader(cmdline), "")
	if err != nil {
		return nil, fmt.Errorf("failed to parse command line: %w", err)
	}
	switch len(file.Stmts) {
	case 0:
		return nil, ErrEmptyCommand
	case 1:
	default:
		return nil, fmt.Errorf("%w: multiple statements", ErrUnsupportedSyntax)
	}

	var stmts []*syntax.Stmt
	if err := flattenPipe(file.Stmts[0], &stmts); err != nil {
		return nil, err
	}

	cfg := &expand.Config{Env: expand.ListEnviron()}
	stages := make([]Stage, 0, len(stmts))
	for _, stmt := range stmts {
		stage, err := toStage(cfg, stmt)
		if err != nil {
			return nil, err
		}
		stages = append(stages, stage)
	}
	return stages, nil
}

// flattenPipe 按从左到右的顺序展开管道
func flattenPipe(stmt *syntax.Stmt, out *[]*syntax.Stmt) error {
	if stmt.Negated || stmt.Background || stmt.Coprocess || len(stmt.Redirs) > 0 {
		return fmt.Errorf("%w: %s", ErrUnsupportedSyntax, describe(stmt))
	}

	if bin, ok := stmt.Cmd.(*syntax.BinaryCmd); ok {
		if bin.Op != syntax.Pipe {
			return fmt.Errorf("%w: operator %s", ErrUnsupportedSyntax, bin.Op)
		}
		if err := flattenPipe(bin.X, out); err != nil {
			return err
		}
		return flattenPipe(bin.Y, out)
	}

	*out = append(*out, stmt)
	return nil
}

func toStage(cfg *expand.Config, stmt *syntax.Stmt) (Stage, error) {
	call, ok := stmt.Cmd.(*syntax.CallExpr)
	if !ok {
		return Stage{}, fmt.Errorf("%w: %s", ErrUnsupportedSyntax, describe(stmt))
	}

	if err := rejectExpansions(call); err != nil {
		return Stage{}, err
	}

	var stage Stage
	for _, as := range call.Assigns {
		if as.Array != nil || as.Index != nil || as.Append || as.Naked {
			return Stage{}, fmt.Errorf("%w: assignment %s", ErrUnsupportedSyntax, as.Name.Value)
		}
		value := ""
		if as.Value != nil {
			v, err := expand.Literal(cfg, as.Value)
			if err != nil {
				return Stage{}, fmt.Errorf("failed to expand %s: %w", as.Name.Value, err)
			}
			value = v
		}
		stage.Env = append(stage.Env, as.Name.Value+"="+value)
	}

	args, err := expand.Fields(cfg, call.Args...)
	if err != nil {
		return Stage{}, fmt.Errorf("failed to expand arguments: %w", err)
	}
	if len(args) == 0 {
		return Stage{}, ErrEmptyCommand
	}
	stage.Args = args
	return stage, nil
}

// rejectExpansions 拒绝依赖shell环境的展开，模板中的值应先转义
func rejectExpansions(call *syntax.CallExpr) error {
	var found syntax.Node
	syntax.Walk(call, func(n syntax.Node) bool {
		if found != nil {
			return false
		}
		switch n.(type) {
		case *syntax.ParamExp, *syntax.CmdSubst, *syntax.ArithmExp, *syntax.ProcSubst, *syntax.ExtGlob:
			found = n
			return false
		}
		return true
	})
	if found != nil {
		return fmt.Errorf("%w: expansion at %s", ErrUnsupportedSyntax, found.Pos())
	}
	return nil
}

func describe(stmt *syntax.Stmt) string {
	var sb strings.Builder
	if err := syntax.NewPrinter().Print(&sb, stmt); err != nil {
		return "statement"
	}
	return sb.String()
}
