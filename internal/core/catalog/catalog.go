/**
 * 命令目录
 * @date: 2026.10.16
 * @description: 将服务端命令码+参数解析为 shell命令 / 上传文件 / instant 标记
 */
package catalog

import (
	"fmt"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/RedCore161/DeviceStreamController/internal/config"
	modelComm "github.com/RedCore161/DeviceStreamController/internal/model/client"
)

// Code 命令码
type Code int

const (
	StartCamera   Code = 1   // 开始录制片段
	StopCapture   Code = 2   // 停止采集
	StartStream   Code = 100 // 开始推流
	StillImage    Code = 200 // 拍摄静态图片
	PerformUpdate Code = 500 // 执行软件更新
	Shutdown      Code = 501 // 关机
	Heartbeat     Code = 502 // 心跳/空操作
)

// uploadTarget 命令产出文件的来源
type uploadTarget int

const (
	uploadNone uploadTarget = iota
	uploadSnap
	uploadStill
)

// Entry 目录条目
type Entry struct {
	Code     Code
	Name     string
	Template string
	Instant  bool
	upload   uploadTarget
}

// defaultEntries 内置命令表
var defaultEntries = []Entry{
	{
		Code:     StartCamera,
		Name:     "start-camera",
		Template: "ffmpeg -hide_banner -f video4linux2 -i {{.Device}} {{.Filters}} -y {{.SnapName}}",
		upload:   uploadSnap,
	},
	{
		Code:     StopCapture,
		Name:     "stop-capture",
		Template: "killall ffmpeg",
		Instant:  true,
	},
	{
		Code:     StartStream,
		Name:     "start-stream",
		Template: "ffmpeg -hide_banner -f video4linux2 -i {{.Device}} {{.Filters}} -c:v h264 -c:a aac -f flv rtmp://{{.StreamIP}}/app/{{.StreamKey}}",
	},
	{
		Code:     StillImage,
		Name:     "still-image",
		Template: "ffmpeg -hide_banner -f video4linux2 -i {{.Device}} {{.Filters}} -vframes 1 -y {{.StillName}}",
		upload:   uploadStill,
	},
	{
		Code:     PerformUpdate,
		Name:     "perform-update",
		Template: "./updateController.sh",
		Instant:  true,
	},
	{
		Code:     Shutdown,
		Name:     "shutdown",
		Template: "sudo shutdown -P",
		Instant:  true,
	},
	{
		Code:     Heartbeat,
		Name:     "heartbeat",
		Template: "true",
		Instant:  true,
	},
}

// Descriptor 命令描述
// ShellCommand 为None表示未知命令；UploadPath 为空表示不产生上传文件
type Descriptor struct {
	Code         Code
	ShellCommand ShellCommand
	UploadPath   string
	Instant      bool
}

type resolvedEntry struct {
	Entry
	builder *TemplateBuilder
}

// Catalog 命令目录
// 构造后只读，可在多个goroutine中并发使用
type Catalog struct {
	entries    map[Code]*resolvedEntry
	device     *config.DeviceConfig
	streamKey  string
	recordTime int
}

// New 根据配置构建命令目录
// commands 中的模板覆盖按命令码生效，模板语法错误在此处返回
func New(cfg *config.Config) (*Catalog, error) {
	if cfg == nil || cfg.Device == nil {
		return nil, fmt.Errorf("device config is required")
	}

	c := &Catalog{
		entries:    make(map[Code]*resolvedEntry, len(defaultEntries)),
		device:     cfg.Device,
		recordTime: cfg.Device.RecordTime,
	}
	if cfg.Master != nil {
		c.streamKey = cfg.Master.Key
	}

	for _, e := range defaultEntries {
		text := e.Template
		if override, ok := cfg.Commands[strconv.Itoa(int(e.Code))]; ok && override != "" {
			text = override
		}
		builder, err := NewTemplateBuilder(e.Name, text)
		if err != nil {
			return nil, err
		}
		entry := e
		entry.Template = text
		c.entries[e.Code] = &resolvedEntry{Entry: entry, builder: builder}
	}

	return c, nil
}

// Resolve 将命令解析为描述
// 纯函数：无I/O、无副作用；未知命令码返回惰性描述而不是错误
func (c *Catalog) Resolve(cmd modelComm.Command) Descriptor {
	code := Code(cmd.Cmd)
	entry, ok := c.entries[code]
	if !ok {
		return Descriptor{Code: code}
	}

	params := cmd.Params
	if params == nil {
		params = map[string]interface{}{}
	}

	data, err := c.templateData(cmd.ID, params)
	if err != nil {
		return Descriptor{Code: code, Instant: entry.Instant}
	}
	shell, err := entry.builder.Build(data)
	if err != nil {
		// 覆盖模板引用了不存在的字段等情况，按未知命令处理
		return Descriptor{Code: code, Instant: entry.Instant}
	}

	return Descriptor{
		Code:         code,
		ShellCommand: Some(shell),
		UploadPath:   c.uploadPath(entry.upload),
		Instant:      entry.Instant,
	}
}

// templateData 构造模板上下文，配置中的字符串按shell规则转义后再填入
func (c *Catalog) templateData(id int, params map[string]interface{}) (TemplateData, error) {
	data := TemplateData{
		ID:      id,
		Filters: BuildFilterArgs(params, c.recordTime),
		Params:  params,
	}
	for _, f := range []struct {
		dst *string
		val string
	}{
		{&data.Device, c.device.Path},
		{&data.StreamIP, c.device.StreamIP},
		{&data.StreamKey, c.streamKey},
		{&data.SnapName, c.device.SnapName},
		{&data.StillName, c.device.StillName},
	} {
		q, err := ShellQuote(f.val)
		if err != nil {
			return TemplateData{}, err
		}
		*f.dst = q
	}
	return data, nil
}

// uploadPath 上传文件路径，相对路径以工作目录为基准
func (c *Catalog) uploadPath(target uploadTarget) string {
	var name string
	switch target {
	case uploadSnap:
		name = c.device.SnapName
	case uploadStill:
		name = c.device.StillName
	default:
		return ""
	}
	if name == "" || filepath.IsAbs(name) || c.device.WorkDir == "" {
		return name
	}
	return filepath.Join(c.device.WorkDir, name)
}

// Entries 按命令码排序返回所有条目
func (c *Catalog) Entries() []Entry {
	out := make([]Entry, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, e.Entry)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// Name 返回命令码的名称，未知命令码返回 "unknown"
func (c *Catalog) Name(code Code) string {
	if e, ok := c.entries[code]; ok {
		return e.Name
	}
	return "unknown"
}
