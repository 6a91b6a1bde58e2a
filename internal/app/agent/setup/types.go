package setup

import (
	"net/http"

	"github.com/RedCore161/DeviceStreamController/internal/app/agent/router"
	"github.com/RedCore161/DeviceStreamController/internal/core/catalog"
	"github.com/RedCore161/DeviceStreamController/internal/core/schedule"
	"github.com/RedCore161/DeviceStreamController/internal/core/stream"
	"github.com/RedCore161/DeviceStreamController/internal/core/upload"
	"github.com/RedCore161/DeviceStreamController/internal/executor/process"
	"github.com/RedCore161/DeviceStreamController/internal/pkg/client"
	"github.com/RedCore161/DeviceStreamController/internal/pkg/queue"
	"github.com/RedCore161/DeviceStreamController/internal/service/mothership"
)

// CoreModule 核心模块: 命令目录、进程执行、上传等待、延迟调度
type CoreModule struct {
	Catalog   *catalog.Catalog
	Runner    *process.Runner
	Waiter    *upload.Waiter
	Scheduler *schedule.Scheduler
	Tracker   *stream.Tracker
}

// ClientModule 服务端通信模块
type ClientModule struct {
	Mothership client.Mothership
}

// ServiceModule 轮询与分发模块
type ServiceModule struct {
	State      *mothership.PollState
	Queue      *queue.Queue[*stream.StreamCommand]
	Poller     *mothership.Poller
	Dispatcher *mothership.Dispatcher
}

// ServerModule 本地状态服务模块
type ServerModule struct {
	Router     *router.Router
	HTTPServer *http.Server
}
