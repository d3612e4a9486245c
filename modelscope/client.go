// Package modelscope 实现魔搭（ModelScope）异步图片生成接口的客户端。
//
// 接口形状：提交返回任务句柄，状态轮询与图片下载由上层驱动；
// 本包只负责单次请求与网络/业务错误分类。
package modelscope

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/BaSui01/imgflow/config"
	"github.com/BaSui01/imgflow/types"
)

// 任务状态取值（远端定义）
const (
	StatusPending    = "PENDING"
	StatusProcessing = "PROCESSING"
	StatusRunning    = "RUNNING"
	StatusSucceed    = "SUCCEED"
	StatusFailed     = "FAILED"
	StatusCanceled   = "CANCELED"
	StatusTimeout    = "TIMEOUT"
)

// TaskStatus 一次状态查询的结果。
type TaskStatus struct {
	Status     string
	ImageURL   string // Status 为 SUCCEED 时非空
	ErrMessage string // Status 为 FAILED 时的失败原因
}

// Terminal 报告该状态是否为远端任务的终态。
func (s *TaskStatus) Terminal() bool {
	switch s.Status {
	case StatusSucceed, StatusFailed, StatusCanceled, StatusTimeout:
		return true
	}
	return false
}

// Client 单个 API 端点的客户端。
type Client struct {
	cfg    config.APIConfig
	client *http.Client
	logger *zap.Logger
}

// NewClient 创建客户端。超时由调用方通过 context 控制，
// 客户端自身不设置硬超时。
func NewClient(cfg config.APIConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		cfg:    cfg.Normalized(),
		client: &http.Client{},
		logger: logger,
	}
}

// Name 返回 API 显示名称。
func (c *Client) Name() string { return c.cfg.Name }

type submitRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Size   string `json:"size"`
}

type submitResponse struct {
	TaskID string `json:"task_id"`
}

// Submit 提交异步生成任务，返回任务句柄。
// Endpoint: POST v1/images/generations（X-ModelScope-Async-Mode: true）
func (c *Client) Submit(ctx context.Context, model, prompt, size string) (string, error) {
	payload, err := json.Marshal(submitRequest{Model: model, Prompt: prompt, Size: size})
	if err != nil {
		return "", fmt.Errorf("marshal submit request: %w", err)
	}

	endpoint := c.cfg.BaseURL + "v1/images/generations"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create submit request: %w", err)
	}
	c.setCommonHeaders(req)
	req.Header.Set("X-ModelScope-Async-Mode", "true")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", c.transportError("submit", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", c.statusError(resp)
	}

	var sResp submitResponse
	if err := json.NewDecoder(resp.Body).Decode(&sResp); err != nil {
		return "", types.NewError(types.ErrUpstreamError, "decode submit response").
			WithRetryable(true).WithAPI(c.cfg.Name).WithCause(err)
	}
	if sResp.TaskID == "" {
		return "", types.NewError(types.ErrUpstreamError, "submit response missing task_id").
			WithRetryable(true).WithAPI(c.cfg.Name)
	}

	c.logger.Debug("任务提交成功",
		zap.String("api", c.cfg.Name),
		zap.String("model", model),
		zap.String("task_id", sResp.TaskID))

	return sResp.TaskID, nil
}

type taskResponse struct {
	TaskStatus   string   `json:"task_status"`
	OutputImages []string `json:"output_images"`
	ErrorMessage string   `json:"error_message"`
}

// Status 查询任务状态。
// Endpoint: GET v1/tasks/{id}（X-ModelScope-Task-Type: image_generation）
func (c *Client) Status(ctx context.Context, taskID string) (*TaskStatus, error) {
	endpoint := c.cfg.BaseURL + "v1/tasks/" + taskID
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create status request: %w", err)
	}
	c.setCommonHeaders(req)
	req.Header.Set("X-ModelScope-Task-Type", "image_generation")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, c.transportError("status", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, c.statusError(resp)
	}

	var tResp taskResponse
	if err := json.NewDecoder(resp.Body).Decode(&tResp); err != nil {
		return nil, types.NewError(types.ErrUpstreamError, "decode task response").
			WithRetryable(true).WithAPI(c.cfg.Name).WithCause(err)
	}

	status := &TaskStatus{
		Status:     tResp.TaskStatus,
		ErrMessage: tResp.ErrorMessage,
	}
	if tResp.TaskStatus == StatusSucceed {
		if len(tResp.OutputImages) == 0 {
			return nil, types.NewError(types.ErrUpstreamError, "succeeded task has no output images").
				WithRetryable(true).WithAPI(c.cfg.Name)
		}
		status.ImageURL = tResp.OutputImages[0]
	}
	return status, nil
}

// Fetch 下载生成的图片字节。
func (c *Client) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create fetch request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, c.transportError("fetch", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, c.statusError(resp)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.transportError("fetch", err)
	}
	return data, nil
}

func (c *Client) setCommonHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
}

// transportError 把传输层故障归类为可重试的网络错误。
func (c *Client) transportError(op string, err error) error {
	code := types.ErrNetwork
	if errors.Is(err, context.DeadlineExceeded) {
		code = types.ErrTimeout
	}
	return types.NewError(code, op+" request failed").
		WithRetryable(true).WithAPI(c.cfg.Name).WithCause(err)
}

// statusError 把 HTTP 状态码映射为结构化错误。
// 4xx 业务拒绝为终止性错误（换同一候选重试无意义）；5xx 可重试。
func (c *Client) statusError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		msg = resp.Status
	}

	var code types.ErrorCode
	retryable := false

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		code = types.ErrAuthentication
	case resp.StatusCode == http.StatusTooManyRequests:
		code = types.ErrQuotaExceeded
	case resp.StatusCode == http.StatusNotFound:
		code = types.ErrModelNotFound
	case resp.StatusCode >= 500:
		code = types.ErrUpstreamError
		retryable = true
	default:
		code = types.ErrInvalidRequest
	}

	return types.NewError(code, msg).
		WithHTTPStatus(resp.StatusCode).
		WithRetryable(retryable).
		WithAPI(c.cfg.Name)
}
