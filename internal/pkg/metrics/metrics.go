/**
 * Prometheus指标
 * @date: 2026.10.16
 * @description: 轮询、命令执行与上传相关的指标，由本地状态服务的 /metrics 暴露
 */
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// MothershipRequests 按接口和结果统计的服务端请求数
	MothershipRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stream_agent_mothership_requests_total",
			Help: "Total number of requests sent to the mothership",
		},
		[]string{"endpoint", "result"},
	)

	// MothershipRequestDuration 服务端请求耗时
	MothershipRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "stream_agent_mothership_request_duration_seconds",
			Help:    "Duration of mothership requests",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0},
		},
		[]string{"endpoint"},
	)

	// PollCycles 轮询周期数
	PollCycles = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "stream_agent_poll_cycles_total",
			Help: "Total number of completed poll cycles",
		},
	)

	// PollDelay 最近一次计算出的轮询延迟
	PollDelay = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "stream_agent_poll_delay_seconds",
			Help: "Most recent computed delay before the next poll",
		},
	)

	// QueueLength 待分发命令数
	QueueLength = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "stream_agent_queue_length",
			Help: "Number of stream commands waiting for dispatch",
		},
	)

	// CommandsRunning 正在执行的命令数
	CommandsRunning = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "stream_agent_commands_running",
			Help: "Number of stream commands currently executing",
		},
	)

	// CommandsTotal 按命令码和结果统计的命令数
	CommandsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stream_agent_commands_total",
			Help: "Total number of executed stream commands",
		},
		[]string{"code", "result"},
	)

	// UploadBytes 已上传字节数
	UploadBytes = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "stream_agent_upload_bytes_total",
			Help: "Total number of bytes uploaded",
		},
	)
)

// 结果标签
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
	ResultSkipped = "skipped"
)

func init() {
	prometheus.MustRegister(MothershipRequests)
	prometheus.MustRegister(MothershipRequestDuration)

	prometheus.MustRegister(PollCycles)
	prometheus.MustRegister(PollDelay)
	prometheus.MustRegister(QueueLength)

	prometheus.MustRegister(CommandsRunning)
	prometheus.MustRegister(CommandsTotal)
	prometheus.MustRegister(UploadBytes)
}

// Result 将错误转换为结果标签
func Result(err error) string {
	if err != nil {
		return ResultFailure
	}
	return ResultSuccess
}
