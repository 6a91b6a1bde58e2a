package catalog

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"mvdan.cc/sh/v3/syntax"
)

// TemplateData 命令模板上下文
// 除 Params 外的字符串字段已经过shell转义，可以直接拼接；
// 覆盖模板引用 Params 时应使用 quote 函数，如 {{quote .Params.proc}}
type TemplateData struct {
	ID        int                    // 命令ID
	Device    string                 // 视频设备
	StreamIP  string                 // 推流地址
	StreamKey string                 // 推流key
	SnapName  string                 // 录像文件名
	StillName string                 // 图片文件名
	Filters   string                 // ffmpeg滤镜/时长参数
	Params    map[string]interface{} // 原始参数
}

// TemplateBuilder 基于 Go Template 的命令构建器
// 模板在构造时解析，Build只做渲染
type TemplateBuilder struct {
	name string
	tmpl *template.Template
}

// NewTemplateBuilder 解析命令模板
// 使用 missingkey=zero 允许模板引用不存在的参数
func NewTemplateBuilder(name, text string) (*TemplateBuilder, error) {
	tmpl, err := template.New(name).
		Option("missingkey=zero").
		Funcs(template.FuncMap{"quote": quoteValue}).
		Parse(text)
	if err != nil {
		return nil, fmt.Errorf("failed to parse command template %s: %w", name, err)
	}
	return &TemplateBuilder{name: name, tmpl: tmpl}, nil
}

// Build 渲染完整命令行
func (b *TemplateBuilder) Build(data TemplateData) (string, error) {
	var buf bytes.Buffer
	if err := b.tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute command template %s: %w", b.name, err)
	}

	fullCmd := strings.TrimSpace(buf.String())
	if fullCmd == "" {
		return "", fmt.Errorf("command template %s rendered empty", b.name)
	}
	return fullCmd, nil
}

// ShellQuote 按shell规则转义单个参数，不需要转义时原样返回
func ShellQuote(s string) (string, error) {
	q, err := syntax.Quote(s, syntax.LangBash)
	if err != nil {
		return "", fmt.Errorf("cannot quote %q: %w", s, err)
	}
	return q, nil
}

// quoteValue 模板函数 quote，nil 视为空串
func quoteValue(v interface{}) (string, error) {
	if v == nil {
		return ShellQuote("")
	}
	return ShellQuote(fmt.Sprint(v))
}
