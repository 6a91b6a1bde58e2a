/**
 * Agent端配置定义
 * @date: 2026.10.16
 * @description: 设备代理的配置结构体，启动时构建一次并按引用传入Catalog、Poller和App
 */
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrMissingConfig 缺少必填配置项
var ErrMissingConfig = errors.New("missing config")

// Config Agent配置
type Config struct {
	// 应用配置
	App *AppConfig `yaml:"app" mapstructure:"app"`

	// 日志配置
	Log *LogConfig `yaml:"log" mapstructure:"log"`

	// Mothership(服务端)连接配置
	Master *MasterConfig `yaml:"master" mapstructure:"master"`

	// 采集设备配置
	Device *DeviceConfig `yaml:"device" mapstructure:"device"`

	// 轮询延迟曲线配置
	Poller *PollerConfig `yaml:"poller" mapstructure:"poller"`

	// 上传就绪等待配置
	Upload *UploadConfig `yaml:"upload" mapstructure:"upload"`

	// 命令模板覆盖，key为命令码
	Commands map[string]string `yaml:"commands" mapstructure:"commands"`

	// 本地状态服务配置
	Status *StatusConfig `yaml:"status" mapstructure:"status"`
}

// AppConfig 应用配置
type AppConfig struct {
	Name        string `yaml:"name" mapstructure:"name"`               // 应用名称
	Environment string `yaml:"environment" mapstructure:"environment"` // 运行环境
	Debug       bool   `yaml:"debug" mapstructure:"debug"`             // 调试模式
}

// LogConfig 日志配置
type LogConfig struct {
	Level      string `yaml:"level" mapstructure:"level"`             // 日志级别 (debug/info/warn/error)
	Format     string `yaml:"format" mapstructure:"format"`           // 日志格式 (json/text)
	Output     string `yaml:"output" mapstructure:"output"`           // 日志输出 (stdout/stderr/file)
	FilePath   string `yaml:"file_path" mapstructure:"file_path"`     // 日志文件路径
	MaxSize    int    `yaml:"max_size" mapstructure:"max_size"`       // 最大文件大小（MB）
	MaxBackups int    `yaml:"max_backups" mapstructure:"max_backups"` // 最大备份数
	MaxAge     int    `yaml:"max_age" mapstructure:"max_age"`         // 最大保留天数
	Compress   bool   `yaml:"compress" mapstructure:"compress"`       // 是否压缩
	Caller     bool   `yaml:"caller" mapstructure:"caller"`           // 是否显示调用者信息
}

// MasterConfig Mothership连接配置
type MasterConfig struct {
	BaseURL         string        `yaml:"base_url" mapstructure:"base_url"`                   // API基础地址, fetch/clear/ping/upload 挂在其下
	Key             string        `yaml:"key" mapstructure:"key"`                             // 共享密钥，同时作为推流key
	RequestTimeout  time.Duration `yaml:"request_timeout" mapstructure:"request_timeout"`     // 普通请求超时
	UploadTimeout   time.Duration `yaml:"upload_timeout" mapstructure:"upload_timeout"`       // 上传请求超时
	HeartbeatOnIdle bool          `yaml:"heartbeat_on_idle" mapstructure:"heartbeat_on_idle"` // 无待执行命令时发送心跳
}

// DeviceConfig 采集设备配置
type DeviceConfig struct {
	Path       string `yaml:"path" mapstructure:"path"`               // 视频设备路径
	StreamIP   string `yaml:"stream_ip" mapstructure:"stream_ip"`     // 推流服务器地址
	StillName  string `yaml:"still_name" mapstructure:"still_name"`   // 静态图片文件名
	SnapName   string `yaml:"snap_name" mapstructure:"snap_name"`     // 录像片段文件名
	RecordTime int    `yaml:"record_time" mapstructure:"record_time"` // 默认录制时长（秒）
	WorkDir    string `yaml:"work_dir" mapstructure:"work_dir"`       // 进程工作目录，相对上传路径以此为基准
}

// PollerConfig 轮询延迟配置
type PollerConfig struct {
	MinDelay    time.Duration `yaml:"min_delay" mapstructure:"min_delay"`       // 延迟下限
	MaxDelay    time.Duration `yaml:"max_delay" mapstructure:"max_delay"`       // 时间曲线幅度
	InitialIdle time.Duration `yaml:"initial_idle" mapstructure:"initial_idle"` // 启动时视为已空闲的时长
}

// UploadConfig 上传就绪等待配置
type UploadConfig struct {
	MaxAttempts int           `yaml:"max_attempts" mapstructure:"max_attempts"` // 每个阶段的最大重试次数
	Interval    time.Duration `yaml:"interval" mapstructure:"interval"`         // 重试间隔
	MinSize     int64         `yaml:"min_size" mapstructure:"min_size"`         // 文件大小阈值（字节）
	Grace       time.Duration `yaml:"grace" mapstructure:"grace"`               // 达到阈值后的额外等待
}

// StatusConfig 本地状态服务配置
type StatusConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"` // 是否启用
	Listen  string `yaml:"listen" mapstructure:"listen"`   // 监听地址
}

// Validate 校验必填项
// 缺少任意一项都视为启动期不可恢复错误
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("%w: config is nil", ErrMissingConfig)
	}

	mandatory := []struct {
		name  string
		value string
	}{
		{"master.base_url", masterField(cfg, func(m *MasterConfig) string { return m.BaseURL })},
		{"master.key", masterField(cfg, func(m *MasterConfig) string { return m.Key })},
		{"device.stream_ip", deviceField(cfg, func(d *DeviceConfig) string { return d.StreamIP })},
	}

	var missing []string
	for _, m := range mandatory {
		if strings.TrimSpace(m.value) == "" {
			missing = append(missing, m.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingConfig, strings.Join(missing, ", "))
	}

	if cfg.Poller != nil && cfg.Poller.MaxDelay < 0 {
		return fmt.Errorf("invalid poller.max_delay: %s", cfg.Poller.MaxDelay)
	}
	if cfg.Upload != nil && cfg.Upload.MaxAttempts < 0 {
		return fmt.Errorf("invalid upload.max_attempts: %d", cfg.Upload.MaxAttempts)
	}
	return nil
}

func masterField(cfg *Config, get func(*MasterConfig) string) string {
	if cfg.Master == nil {
		return ""
	}
	return get(cfg.Master)
}

func deviceField(cfg *Config, get func(*DeviceConfig) string) string {
	if cfg.Device == nil {
		return ""
	}
	return get(cfg.Device)
}

// Masked 返回隐藏密钥后的副本，用于展示
func (c *Config) Masked() *Config {
	cp := *c
	if c.Master != nil {
		m := *c.Master
		if m.Key != "" {
			m.Key = "******"
		}
		cp.Master = &m
	}
	return &cp
}
