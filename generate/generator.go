package generate

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/BaSui01/imgflow/config"
	"github.com/BaSui01/imgflow/notify"
	"github.com/BaSui01/imgflow/retry"
	"github.com/BaSui01/imgflow/selection"
	"github.com/BaSui01/imgflow/types"
	"github.com/BaSui01/imgflow/upload"
)

// ErrAllCandidatesFailed 所有 API×模型组合都尝试失败时返回。
// 用 errors.Is 判断。
var ErrAllCandidatesFailed = errors.New("所有 API 和模型组合均生成失败")

// Generator 跨 API×模型的故障转移编排器。
// 并发安全：池内部有锁，round_robin 游标跨调用持久。
type Generator struct {
	opts *config.Options

	apiPool   *selection.Pool[config.APIConfig]
	modelPool *selection.Pool[string]
	size      string // 解析后的 "宽x高"

	retryer    retry.Retryer
	cascade    *upload.Cascade
	fanout     *notify.Fanout
	newBackend BackendFactory
	logger     *zap.Logger

	uploaders []upload.Uploader
	channels  []notify.Channel
}

// Option 配置 Generator 的可选依赖。
type Option func(*Generator)

// WithLogger 设置日志器，默认 zap.NewNop。
func WithLogger(logger *zap.Logger) Option {
	return func(g *Generator) { g.logger = logger }
}

// WithUploaders 配置图床，按 UploadStrategy 级联。
func WithUploaders(uploaders ...upload.Uploader) Option {
	return func(g *Generator) { g.uploaders = append(g.uploaders, uploaders...) }
}

// WithChannels 配置通知渠道。
func WithChannels(channels ...notify.Channel) Option {
	return func(g *Generator) { g.channels = append(g.channels, channels...) }
}

// WithBackendFactory 替换后端构造器，测试用。
func WithBackendFactory(factory BackendFactory) Option {
	return func(g *Generator) { g.newBackend = factory }
}

// New 创建生成编排器。opts 为 nil 时使用默认参数。
func New(opts *config.Options, optFns ...Option) (*Generator, error) {
	if opts == nil {
		opts = config.DefaultOptions()
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	apis, err := config.ParseAPIConfigs(opts.APIKeys, opts.APIConfigs)
	if err != nil {
		return nil, err
	}
	width, height, err := config.ResolveSize(opts.Size)
	if err != nil {
		return nil, err
	}

	g := &Generator{
		opts:       opts,
		size:       fmt.Sprintf("%dx%d", width, height),
		newBackend: defaultBackendFactory,
		logger:     zap.NewNop(),
	}
	for _, fn := range optFns {
		fn(g)
	}

	g.apiPool, err = selection.NewPool(apis, opts.APIStrategy, g.logger)
	if err != nil {
		return nil, err
	}
	g.modelPool, err = selection.NewPool(config.ResolveModels(opts.Models), opts.ModelStrategy, g.logger)
	if err != nil {
		return nil, err
	}

	g.retryer = retry.New(&retry.Policy{
		MaxRetries:          opts.MaxRetries,
		Delay:               opts.RetryDelay,
		RetryOnNetworkError: opts.RetryOnNetworkError,
	}, g.logger)

	g.cascade, err = upload.NewCascade(g.uploaders, opts.UploadStrategy, g.logger)
	if err != nil {
		return nil, err
	}
	g.fanout = notify.NewFanout(g.channels, opts.NotificationMode, opts.NotificationStrategy, g.logger)

	return g, nil
}

// Generate 生成一张图片。
//
// 按策略遍历 API（外层）与模型（内层）的组合，每个候选独立走
// 提交→轮询→下载 状态机；任一候选成功即返回，全部失败时返回
// ErrAllCandidatesFailed。enable_failover 关闭时只尝试首个组合。
func (g *Generator) Generate(ctx context.Context, prompt string) (*types.GenerationResult, error) {
	if prompt == "" {
		return nil, types.NewError(types.ErrInvalidRequest, "prompt is required")
	}

	g.fanout.Notify(ctx, "开始生成图片", true, map[string]string{
		"prompt": prompt,
		"size":   g.size,
	})

	var lastErr error
	usedAPIs := make(map[int]bool, g.apiPool.Len())

	for len(usedAPIs) < g.apiPool.Len() {
		api, ai, err := g.apiPool.Select(usedAPIs)
		if err != nil {
			break
		}
		usedAPIs[ai] = true
		backend := g.newBackend(api, g.logger)

		usedModels := make(map[int]bool, g.modelPool.Len())
		for len(usedModels) < g.modelPool.Len() {
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			model, mi, err := g.modelPool.Select(usedModels)
			if err != nil {
				break
			}
			usedModels[mi] = true

			result, err := g.attempt(ctx, backend, model, prompt)
			if err == nil {
				return g.finish(ctx, prompt, result), nil
			}
			lastErr = err

			g.fanout.Notify(ctx, fmt.Sprintf("候选 %s/%s 生成失败: %v", backend.Name(), model, err),
				false, map[string]string{
					"prompt": prompt,
					"model":  model,
					"api":    backend.Name(),
				})

			if !g.opts.EnableFailover {
				g.notifyFailure(ctx, prompt, err)
				return nil, fmt.Errorf("%w: %w", ErrAllCandidatesFailed, err)
			}
		}
	}

	if lastErr == nil {
		lastErr = types.NewError(types.ErrInvalidRequest, "no candidate available")
	}
	g.notifyFailure(ctx, prompt, lastErr)
	return nil, fmt.Errorf("%w: %w", ErrAllCandidatesFailed, lastErr)
}

// attempt 执行单个 (API, 模型) 候选。
func (g *Generator) attempt(ctx context.Context, backend Backend, model, prompt string) (*types.GenerationResult, error) {
	g.logger.Info("尝试生成",
		zap.String("api", backend.Name()),
		zap.String("model", model),
		zap.String("size", g.size))

	t := newTask(backend, model, prompt, g.size, g.opts, g.retryer, g.logger)
	result, err := t.Run(ctx)
	if err != nil {
		g.logger.Warn("候选生成失败，切换下一个",
			zap.String("api", backend.Name()),
			zap.String("model", model),
			zap.String("state", string(t.State())),
			zap.Error(err))
		return nil, err
	}
	return result, nil
}

// finish 处理成功结果：本地保存、图床上传、成功通知。
// 保存与上传失败都不推翻已成功的生成。
func (g *Generator) finish(ctx context.Context, prompt string, result *types.GenerationResult) *types.GenerationResult {
	if g.opts.SavePath != "" {
		if err := g.save(result.Data); err != nil {
			g.logger.Warn("本地保存失败", zap.String("path", g.opts.SavePath), zap.Error(err))
		} else {
			g.logger.Info("图片已保存", zap.String("path", g.opts.SavePath))
		}
	}

	if g.opts.UploadOnSuccess && g.cascade.Len() > 0 {
		url, err := g.cascade.Upload(ctx, upload.BytesInput{Data: result.Data})
		if err != nil {
			g.logger.Warn("图床上传失败", zap.Error(err))
		} else {
			result.URL = url
		}
	}

	g.logger.Info("图片生成成功",
		zap.String("api", result.API),
		zap.String("model", result.Model),
		zap.Int("width", result.Width),
		zap.Int("height", result.Height),
		zap.String("url", result.URL))

	payload := map[string]string{
		"prompt": prompt,
		"model":  result.Model,
		"api":    result.API,
		"size":   fmt.Sprintf("%dx%d", result.Width, result.Height),
	}
	if result.URL != "" {
		payload["url"] = result.URL
	}
	g.fanout.Notify(ctx, "图片生成成功", true, payload)

	return result
}

func (g *Generator) notifyFailure(ctx context.Context, prompt string, err error) {
	g.fanout.Notify(ctx, "图片生成失败: "+err.Error(), false, map[string]string{
		"prompt": prompt,
	})
}

func (g *Generator) save(data []byte) error {
	dir := filepath.Dir(g.opts.SavePath)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(g.opts.SavePath, data, 0o644)
}

// Generate 一次性便捷入口：用 opts 构造编排器并生成一张图片。
func Generate(ctx context.Context, prompt string, opts *config.Options, optFns ...Option) (*types.GenerationResult, error) {
	g, err := New(opts, optFns...)
	if err != nil {
		return nil, err
	}
	return g.Generate(ctx, prompt)
}
