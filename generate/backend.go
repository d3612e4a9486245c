// Package generate 实现图片生成的核心编排：
// 单候选的 提交→轮询→下载 任务状态机，以及跨 API×模型的故障转移循环。
package generate

import (
	"context"

	"go.uber.org/zap"

	"github.com/BaSui01/imgflow/config"
	"github.com/BaSui01/imgflow/modelscope"
)

// Backend 单个 API 端点的异步生成能力。
// 生产实现为 modelscope.Client，测试中可替换为假后端。
type Backend interface {
	// Submit 提交生成任务，返回任务句柄
	Submit(ctx context.Context, model, prompt, size string) (string, error)
	// Status 查询任务状态
	Status(ctx context.Context, taskID string) (*modelscope.TaskStatus, error)
	// Fetch 下载生成的图片字节
	Fetch(ctx context.Context, url string) ([]byte, error)
	// Name 端点显示名称
	Name() string
}

// BackendFactory 按 API 配置构造后端。
type BackendFactory func(cfg config.APIConfig, logger *zap.Logger) Backend

func defaultBackendFactory(cfg config.APIConfig, logger *zap.Logger) Backend {
	return modelscope.NewClient(cfg, logger)
}
