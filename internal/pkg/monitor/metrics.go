/**
 * 主机监控
 * @date: 2026.10.16
 * @description: 通过gopsutil采集主机信息和资源指标，用于心跳、启动日志和本地状态接口
 */
package monitor

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/net"

	modelComm "github.com/RedCore161/DeviceStreamController/internal/model/client"
)

// cpuSampleWindow CPU使用率采样窗口
const cpuSampleWindow = 100 * time.Millisecond

// HostInfo 主机静态信息
type HostInfo struct {
	Hostname        string        `json:"hostname"`
	OS              string        `json:"os"`
	Platform        string        `json:"platform"`
	PlatformVersion string        `json:"platform_version"`
	KernelVersion   string        `json:"kernel_version"`
	Arch            string        `json:"arch"`
	CPUCores        int           `json:"cpu_cores"`
	MemoryTotal     uint64        `json:"memory_total"`
	Uptime          time.Duration `json:"uptime"`
}

// SystemMetrics 资源指标
type SystemMetrics struct {
	CPUUsage         float64 `json:"cpu_usage"`
	MemoryUsage      float64 `json:"memory_usage"`
	DiskUsage        float64 `json:"disk_usage"` // 录像输出目录所在分区
	DiskFree         uint64  `json:"disk_free"`
	NetworkBytesSent uint64  `json:"network_bytes_sent"`
	NetworkBytesRecv uint64  `json:"network_bytes_recv"`
}

// CollectSystem 采集一次资源指标
// 单项失败不影响其它项，返回的指标总是非nil，错误为所有失败项的合并
func CollectSystem(diskPath string) (*SystemMetrics, error) {
	if diskPath == "" {
		diskPath = "/"
	}

	m := &SystemMetrics{}
	var errs []error

	if pct, err := cpu.Percent(cpuSampleWindow, false); err != nil {
		errs = append(errs, fmt.Errorf("cpu: %w", err))
	} else if len(pct) > 0 {
		m.CPUUsage = pct[0]
	}

	if vm, err := mem.VirtualMemory(); err != nil {
		errs = append(errs, fmt.Errorf("memory: %w", err))
	} else {
		m.MemoryUsage = vm.UsedPercent
	}

	if du, err := disk.Usage(diskPath); err != nil {
		errs = append(errs, fmt.Errorf("disk %s: %w", diskPath, err))
	} else {
		m.DiskUsage = du.UsedPercent
		m.DiskFree = du.Free
	}

	if counters, err := net.IOCounters(false); err != nil {
		errs = append(errs, fmt.Errorf("network: %w", err))
	} else if len(counters) > 0 {
		m.NetworkBytesSent = counters[0].BytesSent
		m.NetworkBytesRecv = counters[0].BytesRecv
	}

	return m, errors.Join(errs...)
}

// CollectHost 采集主机静态信息，gopsutil不可用的字段回退到runtime
func CollectHost() (*HostInfo, error) {
	info := &HostInfo{
		Hostname: Hostname(),
		OS:       runtime.GOOS,
		Arch:     runtime.GOARCH,
		CPUCores: runtime.NumCPU(),
	}
	var errs []error

	if hi, err := host.Info(); err != nil {
		errs = append(errs, fmt.Errorf("host: %w", err))
	} else {
		info.Platform = hi.Platform
		info.PlatformVersion = hi.PlatformVersion
		info.KernelVersion = hi.KernelVersion
		info.Uptime = time.Duration(hi.Uptime) * time.Second
		if hi.KernelArch != "" {
			info.Arch = hi.KernelArch
		}
	}

	if cores, err := cpu.Counts(false); err == nil && cores > 0 {
		info.CPUCores = cores
	}

	if vm, err := mem.VirtualMemory(); err != nil {
		errs = append(errs, fmt.Errorf("memory: %w", err))
	} else {
		info.MemoryTotal = vm.Total
	}

	return info, errors.Join(errs...)
}

// Hostname 主机名，进程内只查询一次
var Hostname = sync.OnceValue(func() string {
	if hi, err := host.Info(); err == nil && hi.Hostname != "" {
		return hi.Hostname
	}
	name, _ := os.Hostname()
	return name
})

// Heartbeat 转换为心跳附带的指标
func (m *SystemMetrics) Heartbeat() *modelComm.HeartbeatMetrics {
	return &modelComm.HeartbeatMetrics{
		Hostname:    Hostname(),
		CPUUsage:    m.CPUUsage,
		MemoryUsage: m.MemoryUsage,
		DiskUsage:   m.DiskUsage,
	}
}

// DeviceAvailable 采集设备节点是否存在
func DeviceAvailable(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}
