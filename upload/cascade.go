package upload

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/BaSui01/imgflow/selection"
	"github.com/BaSui01/imgflow/types"
)

// Uploader 单个图床的上传能力。
type Uploader interface {
	// Upload 上传图片字节，返回可访问的外链。
	Upload(ctx context.Context, data []byte, filename string) (string, error)
	// Name 图床显示名称，用于日志。
	Name() string
}

// UploaderFunc 函数适配器。
type UploaderFunc struct {
	UploadFn func(ctx context.Context, data []byte, filename string) (string, error)
	NameStr  string
}

func (f UploaderFunc) Upload(ctx context.Context, data []byte, filename string) (string, error) {
	return f.UploadFn(ctx, data, filename)
}

func (f UploaderFunc) Name() string { return f.NameStr }

// Cascade 按选择策略在多个图床间级联上传：
// 第一个返回非空外链的图床胜出，全部失败时返回错误。
type Cascade struct {
	pool   *selection.Pool[Uploader]
	logger *zap.Logger
}

// NewCascade 创建级联上传器。uploaders 为空时返回 no-op 级联。
func NewCascade(uploaders []Uploader, strategy selection.Strategy, logger *zap.Logger) (*Cascade, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(uploaders) == 0 {
		return &Cascade{logger: logger}, nil
	}
	pool, err := selection.NewPool(uploaders, strategy, logger)
	if err != nil {
		return nil, err
	}
	return &Cascade{pool: pool, logger: logger}, nil
}

// Upload 归一化输入后沿策略顺序逐个尝试上传。
// 没有配置图床时返回空外链且无错误。
func (c *Cascade) Upload(ctx context.Context, input Input) (string, error) {
	if c.pool == nil {
		return "", nil
	}

	data, filename, err := input.Normalize(ctx)
	if err != nil {
		return "", fmt.Errorf("normalize upload input: %w", err)
	}

	used := make(map[int]bool, c.pool.Len())
	var lastErr error

	for len(used) < c.pool.Len() {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		uploader, idx, err := c.pool.Select(used)
		if err != nil {
			break
		}
		used[idx] = true

		url, err := uploader.Upload(ctx, data, filename)
		if err != nil {
			lastErr = err
			c.logger.Warn("图床上传失败，切换下一个",
				zap.String("uploader", uploader.Name()),
				zap.Error(err))
			continue
		}
		if url == "" {
			lastErr = types.NewError(types.ErrUploadFailed, uploader.Name()+" returned empty url")
			continue
		}

		c.logger.Info("图床上传成功",
			zap.String("uploader", uploader.Name()),
			zap.String("url", url))
		return url, nil
	}

	if lastErr == nil {
		lastErr = types.NewError(types.ErrUploadFailed, "no uploader available")
	}
	return "", fmt.Errorf("所有图床上传失败: %w", lastErr)
}

// Len 返回配置的图床数量。
func (c *Cascade) Len() int {
	if c.pool == nil {
		return 0
	}
	return c.pool.Len()
}
