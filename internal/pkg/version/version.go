// 版本信息，BuildTime/GitCommit 在构建时通过 -ldflags 注入:
//
//	go build -ldflags "-X github.com/RedCore161/DeviceStreamController/internal/pkg/version.GitCommit=$(git rev-parse --short HEAD)"

package version

import (
	"fmt"
	"runtime"
)

var (
	Version   = "1.0.0" // 版本号 -- 发布时候更新版本号
	BuildTime string
	GitCommit string
	GoVersion = runtime.Version()
)

func GetVersion() string {
	return Version
}

func GetFullVersion() string {
	full := Version
	if GitCommit != "" {
		full += "+" + GitCommit
	}
	if BuildTime != "" {
		full += fmt.Sprintf(" (built %s)", BuildTime)
	}
	return full
}

// GetUserAgent 与服务端通信时使用的 User-Agent
func GetUserAgent() string {
	return "DeviceStreamController/" + Version + " (" + runtime.GOOS + "/" + runtime.GOARCH + ")"
}
