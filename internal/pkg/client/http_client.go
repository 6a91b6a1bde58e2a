/**
 * Mothership HTTP客户端
 * @date: 2026.10.16
 * @description: 与服务端 fetch/clear/ping/upload 四个接口通信，均为POST并携带共享key
 */
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/RedCore161/DeviceStreamController/internal/config"
	modelComm "github.com/RedCore161/DeviceStreamController/internal/model/client"
	"github.com/RedCore161/DeviceStreamController/internal/pkg/metrics"
	"github.com/RedCore161/DeviceStreamController/internal/pkg/version"
)

// 接口路径，相对于 base_url
const (
	EndpointFetch  = "fetch/"
	EndpointClear  = "clear/"
	EndpointPing   = "ping/"
	EndpointUpload = "upload/"
)

var (
	// ErrUnexpectedStatus 服务端返回非2xx状态码
	ErrUnexpectedStatus = errors.New("unexpected response status")
	// ErrMissingToken clear接口未返回token
	ErrMissingToken = errors.New("acknowledge response carries no token")
)

// 错误响应体最多保留的字节数
const maxErrorBody = 512

// Mothership 服务端接口
// 所有调用都不做重试，失败由调用方决定如何处理
type Mothership interface {
	// Fetch 拉取待执行命令，保持服务端给出的顺序
	Fetch(ctx context.Context) ([]modelComm.Command, error)

	// Acknowledge 确认命令并换取上传token
	Acknowledge(ctx context.Context, id int) (string, error)

	// Upload 以multipart方式上传文件
	Upload(ctx context.Context, path, token string) (*modelComm.UploadResult, error)

	// Heartbeat 空闲时的心跳
	Heartbeat(ctx context.Context, m *modelComm.HeartbeatMetrics) error
}

// httpClient Mothership 的HTTP实现
type httpClient struct {
	client         *http.Client
	baseURL        string
	key            string
	userAgent      string
	requestTimeout time.Duration
	uploadTimeout  time.Duration
}

// NewHTTPClient 创建客户端
func NewHTTPClient(cfg *config.MasterConfig) Mothership {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	uploadTimeout := cfg.UploadTimeout
	if uploadTimeout <= 0 {
		uploadTimeout = 10 * time.Minute
	}

	base := cfg.BaseURL
	if base != "" && !strings.HasSuffix(base, "/") {
		base += "/"
	}

	return &httpClient{
		// 超时由ctx控制，上传和普通请求的超时不同
		client:         &http.Client{},
		baseURL:        base,
		key:            cfg.Key,
		userAgent:      version.GetUserAgent(),
		requestTimeout: timeout,
		uploadTimeout:  uploadTimeout,
	}
}

// Fetch 拉取待执行命令
func (c *httpClient) Fetch(ctx context.Context) ([]modelComm.Command, error) {
	var cmds []modelComm.Command
	err := c.postForm(ctx, EndpointFetch, url.Values{"key": {c.key}}, &cmds)
	if err != nil {
		return nil, fmt.Errorf("fetch commands: %w", err)
	}
	return cmds, nil
}

// Acknowledge 确认命令
func (c *httpClient) Acknowledge(ctx context.Context, id int) (string, error) {
	var ack modelComm.AckResponse
	form := url.Values{
		"id":  {strconv.Itoa(id)},
		"key": {c.key},
	}
	if err := c.postForm(ctx, EndpointClear, form, &ack); err != nil {
		return "", fmt.Errorf("acknowledge command %d: %w", id, err)
	}
	if ack.Token == "" {
		return "", fmt.Errorf("acknowledge command %d: %w", id, ErrMissingToken)
	}
	return ack.Token, nil
}

// Heartbeat 发送心跳，附带主机指标
func (c *httpClient) Heartbeat(ctx context.Context, m *modelComm.HeartbeatMetrics) error {
	form := url.Values{"key": {c.key}}
	if m != nil {
		form.Set("hostname", m.Hostname)
		form.Set("cpu_usage", strconv.FormatFloat(m.CPUUsage, 'f', 2, 64))
		form.Set("memory_usage", strconv.FormatFloat(m.MemoryUsage, 'f', 2, 64))
		form.Set("disk_usage", strconv.FormatFloat(m.DiskUsage, 'f', 2, 64))
	}
	if err := c.postForm(ctx, EndpointPing, form, nil); err != nil {
		return fmt.Errorf("send heartbeat: %w", err)
	}
	return nil
}

// Upload 上传文件: 字段 file + token/key/filesize
// 文件以流的方式写入请求体，不整体读入内存
func (c *httpClient) Upload(ctx context.Context, path, token string) (*modelComm.UploadResult, error) {
	ctx, cancel := context.WithTimeout(ctx, c.uploadTimeout)
	defer cancel()

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open upload file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat upload file: %w", err)
	}
	size := info.Size()

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		pw.CloseWithError(writeUploadBody(mw, f, filepath.Base(path), map[string]string{
			"token":    token,
			"key":      c.key,
			"filesize": strconv.FormatInt(size, 10),
		}))
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+EndpointUpload, pr)
	if err != nil {
		_ = pr.Close()
		return nil, fmt.Errorf("create upload request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.do(req, EndpointUpload)
	if err != nil {
		_ = pr.CloseWithError(err)
		return nil, fmt.Errorf("upload %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	result := &modelComm.UploadResult{
		StatusCode: resp.StatusCode,
		Size:       size,
		Body:       string(body),
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return result, fmt.Errorf("upload %s: %w: %d %s", path, ErrUnexpectedStatus, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	metrics.UploadBytes.Add(float64(size))
	return result, nil
}

func writeUploadBody(mw *multipart.Writer, f io.Reader, name string, fields map[string]string) error {
	for _, k := range []string{"token", "key", "filesize"} {
		if err := mw.WriteField(k, fields[k]); err != nil {
			return err
		}
	}
	part, err := mw.CreateFormFile("file", name)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, f); err != nil {
		return err
	}
	return mw.Close()
}

// postForm 发送表单请求，out 不为nil时按JSON解码响应
func (c *httpClient) postForm(ctx context.Context, endpoint string, form url.Values, out interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.do(req, endpoint)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("%w: %d %s", ErrUnexpectedStatus, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// do 执行请求并记录指标
func (c *httpClient) do(req *http.Request, endpoint string) (*http.Response, error) {
	req.Header.Set("User-Agent", c.userAgent)

	timer := prometheus.NewTimer(metrics.MothershipRequestDuration.WithLabelValues(endpoint))
	defer timer.ObserveDuration()

	resp, err := c.client.Do(req)
	result := metrics.ResultSuccess
	if err != nil || resp.StatusCode >= 300 {
		result = metrics.ResultFailure
	}
	metrics.MothershipRequests.WithLabelValues(endpoint, result).Inc()
	return resp, err
}
