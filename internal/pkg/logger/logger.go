/**
 * 日志管理器
 * @date: 2026.10.16
 * @description: 基于logrus的全局日志，文件输出通过lumberjack轮转，支持配置热重载
 */
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/RedCore161/DeviceStreamController/internal/config"
)

const timestampLayout = "2006-01-02 15:04:05.000"

// LoggerManager 日志管理器
type LoggerManager struct {
	mu     sync.Mutex
	logger *logrus.Logger
	config *config.LogConfig
	file   io.Closer // 当前的轮转文件，非文件输出时为nil
}

// LoggerInstance 全局日志实例，未初始化时所有便捷方法静默丢弃
var LoggerInstance *LoggerManager

// discard 未初始化时使用
var discard = func() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}()

// InitLogger 初始化日志管理器并设置为全局实例
func InitLogger(cfg *config.LogConfig) (*LoggerManager, error) {
	if cfg == nil {
		return nil, fmt.Errorf("log config cannot be nil")
	}

	lm := &LoggerManager{logger: logrus.New()}
	if err := lm.apply(cfg, true); err != nil {
		return nil, err
	}
	LoggerInstance = lm
	return lm, nil
}

// apply 按配置设置级别、格式和输出
// lenient 为true时非法级别降级为info，否则返回错误
func (lm *LoggerManager) apply(cfg *config.LogConfig, lenient bool) error {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		if !lenient {
			return fmt.Errorf("invalid log level: %w", err)
		}
		level = logrus.InfoLevel
	}

	formatter, err := buildFormatter(cfg.Format)
	if err != nil {
		return fmt.Errorf("failed to set log formatter: %w", err)
	}

	out, file, err := buildOutput(cfg)
	if err != nil {
		return fmt.Errorf("failed to set log output: %w", err)
	}

	lm.logger.SetLevel(level)
	lm.logger.SetFormatter(formatter)
	lm.logger.SetOutput(out)
	lm.logger.SetReportCaller(cfg.Caller)

	if lm.file != nil {
		_ = lm.file.Close()
	}
	lm.file = file
	lm.config = cfg
	return nil
}

func buildFormatter(format string) (logrus.Formatter, error) {
	switch strings.ToLower(format) {
	case "json":
		return &logrus.JSONFormatter{
			TimestampFormat: timestampLayout,
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime: "timestamp",
				logrus.FieldKeyMsg:  "message",
				logrus.FieldKeyFunc: "function",
			},
		}, nil
	case "text", "":
		return &logrus.TextFormatter{TimestampFormat: timestampLayout, FullTimestamp: true}, nil
	}
	return nil, fmt.Errorf("unsupported log format: %s", format)
}

// buildOutput 返回输出目标，文件输出时额外返回需要关闭的轮转文件
func buildOutput(cfg *config.LogConfig) (io.Writer, io.Closer, error) {
	switch strings.ToLower(cfg.Output) {
	case "stdout", "":
		return os.Stdout, nil, nil
	case "stderr":
		return os.Stderr, nil, nil
	case "file":
	default:
		return nil, nil, fmt.Errorf("unsupported log output: %s", cfg.Output)
	}

	if cfg.FilePath == "" {
		return nil, nil, fmt.Errorf("file path is required when output is file")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0755); err != nil {
		return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	rotated := &lumberjack.Logger{
		Filename:   cfg.FilePath,
		MaxSize:    cfg.MaxSize, // MB
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge, // 天
		Compress:   cfg.Compress,
		LocalTime:  true,
	}
	// 设备上调试时同时看控制台
	if strings.EqualFold(cfg.Level, "debug") {
		return io.MultiWriter(os.Stdout, rotated), rotated, nil
	}
	return rotated, rotated, nil
}

// GetLogger 获取logrus实例
func (lm *LoggerManager) GetLogger() *logrus.Logger {
	return lm.logger
}

// GetConfig 获取当前日志配置
func (lm *LoggerManager) GetConfig() *config.LogConfig {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	return lm.config
}

// UpdateConfig 热重载日志配置，配置非法时保持原配置
func (lm *LoggerManager) UpdateConfig(newCfg *config.LogConfig) error {
	if newCfg == nil {
		return fmt.Errorf("new config cannot be nil")
	}

	lm.mu.Lock()
	old := lm.config
	err := lm.apply(newCfg, false)
	lm.mu.Unlock()
	if err != nil {
		return err
	}

	if old != nil && (old.Level != newCfg.Level || old.Format != newCfg.Format || old.Output != newCfg.Output) {
		lm.logger.WithFields(logrus.Fields{
			"level":  newCfg.Level,
			"format": newCfg.Format,
			"output": newCfg.Output,
		}).Info("Logger reconfigured")
	}
	return nil
}

// Close 关闭轮转文件
func (lm *LoggerManager) Close() error {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	if lm.file == nil {
		return nil
	}
	err := lm.file.Close()
	lm.file = nil
	return err
}

func current() *logrus.Logger {
	if lm := LoggerInstance; lm != nil {
		return lm.logger
	}
	return discard
}

// 便捷方法：使用全局日志实例

func Debug(args ...interface{}) { current().Debug(args...) }
func Debugf(format string, args ...interface{}) { current().Debugf(format, args...) }
func Info(args ...interface{}) { current().Info(args...) }
func Infof(format string, args ...interface{}) { current().Infof(format, args...) }
func Warn(args ...interface{}) { current().Warn(args...) }
func Warnf(format string, args ...interface{}) { current().Warnf(format, args...) }
func Error(args ...interface{}) { current().Error(args...) }
func Errorf(format string, args ...interface{}) { current().Errorf(format, args...) }

// Fatalf 记录日志并退出，未初始化时写stderr
func Fatalf(format string, args ...interface{}) {
	if LoggerInstance == nil {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
		os.Exit(1)
	}
	current().Fatalf(format, args...)
}

func WithField(key string, value interface{}) *logrus.Entry {
	return current().WithField(key, value)
}

func WithFields(fields logrus.Fields) *logrus.Entry {
	return current().WithFields(fields)
}
