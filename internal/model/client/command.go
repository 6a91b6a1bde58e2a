/**
 * Mothership交互模型
 * @date: 2026.10.16
 * @description: fetch/clear/ping/upload 四个接口的请求与响应结构
 */
package client

// Command 服务端下发的命令
// 接收后不可变，解析为StreamCommand后即丢弃
type Command struct {
	ID     int                    `json:"id"`     // 命令ID
	Cmd    int                    `json:"cmd"`    // 命令码
	Params map[string]interface{} `json:"params"` // 命令参数
}

// AckResponse clear接口响应，token用于授权之后的上传
type AckResponse struct {
	Token string `json:"token"`
}

// HeartbeatMetrics 心跳附带的主机指标
type HeartbeatMetrics struct {
	Hostname    string  `json:"hostname"`
	CPUUsage    float64 `json:"cpu_usage"`
	MemoryUsage float64 `json:"memory_usage"`
	DiskUsage   float64 `json:"disk_usage"`
}

// UploadResult 上传结果
type UploadResult struct {
	StatusCode int    // HTTP状态码
	Size       int64  // 上传的文件大小
	Body       string // 服务端响应内容（截断）
}
