package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// DefaultEnvPrefix 环境变量前缀
const DefaultEnvPrefix = "STREAMAGENT"

// ConfigLoader 配置加载器
type ConfigLoader struct {
	configFile string
	envPrefix  string
	viper      *viper.Viper
}

// NewConfigLoader 创建配置加载器
// configFile 为空时按 ./configs/config.yaml -> ./config.yaml 顺序搜索，找不到时仅使用默认值和环境变量
func NewConfigLoader(configFile, envPrefix string) *ConfigLoader {
	if envPrefix == "" {
		envPrefix = DefaultEnvPrefix
	}

	return &ConfigLoader{
		configFile: configFile,
		envPrefix:  envPrefix,
		viper:      viper.New(),
	}
}

// Load 加载并校验配置（便捷函数）
func Load(configFile string) (*Config, error) {
	return NewConfigLoader(configFile, "").LoadConfig()
}

// LoadConfig 加载配置
func (cl *ConfigLoader) LoadConfig() (*Config, error) {
	cl.viper.SetConfigType("yaml")

	cl.viper.SetEnvPrefix(cl.envPrefix)
	cl.viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	cl.viper.AutomaticEnv()

	cl.setDefaults()

	if err := cl.loadConfigFile(); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	var config Config
	if err := cl.viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// loadConfigFile 加载配置文件
func (cl *ConfigLoader) loadConfigFile() error {
	if cl.configFile != "" {
		cl.viper.SetConfigFile(cl.configFile)
		return cl.viper.ReadInConfig()
	}

	cl.viper.AddConfigPath("./configs")
	cl.viper.AddConfigPath(".")
	cl.viper.SetConfigName("config")

	if err := cl.viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return err
	}
	return nil
}

// setDefaults 设置默认值
func (cl *ConfigLoader) setDefaults() {
	cl.viper.SetDefault("app.name", "StreamAgent")
	cl.viper.SetDefault("app.environment", "production")
	cl.viper.SetDefault("app.debug", false)

	// 日志默认值
	cl.viper.SetDefault("log.level", "info")
	cl.viper.SetDefault("log.format", "text")
	cl.viper.SetDefault("log.output", "stdout")
	cl.viper.SetDefault("log.file_path", "./logs/agent.log")
	cl.viper.SetDefault("log.max_size", 20)
	cl.viper.SetDefault("log.max_backups", 7)
	cl.viper.SetDefault("log.max_age", 30)
	cl.viper.SetDefault("log.compress", true)
	cl.viper.SetDefault("log.caller", false)

	// Mothership默认值
	cl.viper.SetDefault("master.base_url", "")
	cl.viper.SetDefault("master.key", "")
	cl.viper.SetDefault("master.request_timeout", "30s")
	cl.viper.SetDefault("master.upload_timeout", "10m")
	cl.viper.SetDefault("master.heartbeat_on_idle", false)

	// 设备默认值
	cl.viper.SetDefault("device.path", "/dev/video0")
	cl.viper.SetDefault("device.stream_ip", "")
	cl.viper.SetDefault("device.still_name", "still.jpg")
	cl.viper.SetDefault("device.snap_name", "snap.mp4")
	cl.viper.SetDefault("device.record_time", 300)
	cl.viper.SetDefault("device.work_dir", ".")

	// 轮询默认值
	cl.viper.SetDefault("poller.min_delay", "25s")
	cl.viper.SetDefault("poller.max_delay", "400s")
	cl.viper.SetDefault("poller.initial_idle", "5m")

	// 上传默认值
	cl.viper.SetDefault("upload.max_attempts", 10)
	cl.viper.SetDefault("upload.interval", "3s")
	cl.viper.SetDefault("upload.min_size", 100)
	cl.viper.SetDefault("upload.grace", "10s")

	// 状态服务默认值
	cl.viper.SetDefault("status.enabled", false)
	cl.viper.SetDefault("status.listen", "127.0.0.1:8090")
}

// GetConfigPath 获取实际使用的配置文件路径，未使用文件时为空
func (cl *ConfigLoader) GetConfigPath() string {
	return cl.viper.ConfigFileUsed()
}
