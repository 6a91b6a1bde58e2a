package setup

import (
	"github.com/RedCore161/DeviceStreamController/internal/config"
	"github.com/RedCore161/DeviceStreamController/internal/pkg/client"
)

// SetupClient 初始化服务端通信模块
func SetupClient(cfg *config.Config) *ClientModule {
	return &ClientModule{
		Mothership: client.NewHTTPClient(cfg.Master),
	}
}
