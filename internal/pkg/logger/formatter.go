// 结构化事件日志
package logger

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// FormatTimestamp 格式化时间戳为统一的毫秒精度格式
// 返回格式："2006-01-02 15:04:05.000"
func FormatTimestamp(t time.Time) string {
	return t.Format("2006-01-02 15:04:05.000")
}

// NowFormatted 返回当前时间的格式化字符串
func NowFormatted() string {
	return FormatTimestamp(time.Now())
}

// LogType 日志类型枚举
type LogType string

const (
	// AccessLog 访问日志 - 本地状态服务的HTTP请求
	AccessLog LogType = "access"
	// SystemLog 系统日志 - 组件启动、关闭、轮询周期等
	SystemLog LogType = "system"
	// CommandLog 命令日志 - 命令从解析到上传的生命周期
	CommandLog LogType = "command"
)

// LogLevel 日志级别类型，封装logrus.Level避免业务层直接依赖logrus
type LogLevel int

const (
	// DebugLevel 调试级别
	DebugLevel LogLevel = iota
	// InfoLevel 信息级别
	InfoLevel
	// WarnLevel 警告级别
	WarnLevel
	// ErrorLevel 错误级别
	ErrorLevel
)

// toLogrusLevel 将封装的LogLevel转换为logrus.Level
func toLogrusLevel(level LogLevel) logrus.Level {
	switch level {
	case DebugLevel:
		return logrus.DebugLevel
	case WarnLevel:
		return logrus.WarnLevel
	case ErrorLevel:
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

func logAt(level logrus.Level, fields logrus.Fields, msg string) {
	entry := current().WithFields(fields)
	switch level {
	case logrus.DebugLevel:
		entry.Debug(msg)
	case logrus.WarnLevel:
		entry.Warn(msg)
	case logrus.ErrorLevel:
		entry.Error(msg)
	default:
		entry.Info(msg)
	}
}

// LogSystemEvent 记录系统事件日志
// 用于记录组件启动、关闭、轮询周期、传输错误等系统级事件
func LogSystemEvent(component, event, message string, level LogLevel, extraFields map[string]interface{}) {
	fields := logrus.Fields{
		"type":      SystemLog,
		"component": component,
		"event":     event,
	}
	for k, v := range extraFields {
		fields[k] = v
	}

	logAt(toLogrusLevel(level), fields, fmt.Sprintf("%s %s: %s", component, event, message))
}

// CommandEvent 命令生命周期日志条目
type CommandEvent struct {
	CommandID int    // 服务端命令ID，合成命令为0
	Code      int    // 命令码
	RunID     string // 单次执行的关联ID
	Stage     string // resolved, queued, acknowledged, started, finished, waiting_upload, uploaded, upload_skipped
	Status    string // success, failed, skipped
	Message   string
}

// LogCommandEvent 记录命令生命周期日志
// 失败状态使用error级别，其余使用info级别
func LogCommandEvent(ev CommandEvent, extraFields map[string]interface{}) {
	fields := logrus.Fields{
		"type":       CommandLog,
		"command_id": ev.CommandID,
		"code":       ev.Code,
		"stage":      ev.Stage,
		"status":     ev.Status,
	}
	if ev.RunID != "" {
		fields["run_id"] = ev.RunID
	}
	for k, v := range extraFields {
		fields[k] = v
	}

	level := logrus.InfoLevel
	if ev.Status == "failed" {
		level = logrus.ErrorLevel
	}
	msg := fmt.Sprintf("Command %d [%s] %s", ev.CommandID, ev.Stage, ev.Status)
	if ev.Message != "" {
		msg += ": " + ev.Message
	}
	logAt(level, fields, msg)
}

// LogAccessRequest 记录本地状态服务的HTTP访问日志
func LogAccessRequest(c *gin.Context, startTime time.Time) {
	current().WithFields(logrus.Fields{
		"type":          AccessLog,
		"method":        c.Request.Method,
		"path":          c.Request.URL.Path,
		"query":         c.Request.URL.RawQuery,
		"status_code":   c.Writer.Status(),
		"response_time": time.Since(startTime).Milliseconds(),
		"client_ip":     c.ClientIP(),
	}).Debug("HTTP request processed")
}
