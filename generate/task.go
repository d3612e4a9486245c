package generate

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"

	"github.com/BaSui01/imgflow/config"
	"github.com/BaSui01/imgflow/modelscope"
	"github.com/BaSui01/imgflow/retry"
	"github.com/BaSui01/imgflow/types"
)

// State 任务状态机的阶段。
type State string

const (
	StateSubmitting  State = "submitting"
	StatePolling     State = "polling"
	StateDownloading State = "downloading"
	StateSucceeded   State = "succeeded"

	StateSubmitFailed   State = "submit_failed"
	StatePollFailed     State = "poll_failed"
	StatePollTimedOut   State = "poll_timed_out"
	StateDownloadFailed State = "download_failed"
)

// task 驱动单个 (API, 模型) 候选的完整生成流程。
// 每个阶段独立超时、独立重试；远端任务进入失败终态时立即终止，
// 不消耗剩余轮询时间。
type task struct {
	backend Backend
	model   string
	prompt  string
	size    string

	opts    *config.Options
	retryer retry.Retryer
	logger  *zap.Logger

	state State
}

func newTask(backend Backend, model, prompt, size string, opts *config.Options, retryer retry.Retryer, logger *zap.Logger) *task {
	return &task{
		backend: backend,
		model:   model,
		prompt:  prompt,
		size:    size,
		opts:    opts,
		retryer: retryer,
		logger:  logger,
		state:   StateSubmitting,
	}
}

// Run 执行 提交→轮询→下载 并返回生成结果。
// 返回错误时 t.state 记录失败发生的阶段。
func (t *task) Run(ctx context.Context) (*types.GenerationResult, error) {
	taskID, err := t.submit(ctx)
	if err != nil {
		t.state = StateSubmitFailed
		return nil, fmt.Errorf("提交任务失败: %w", err)
	}

	t.state = StatePolling
	imageURL, err := t.poll(ctx, taskID)
	if err != nil {
		if types.GetErrorCode(err) == types.ErrPollTimeout {
			t.state = StatePollTimedOut
		} else {
			t.state = StatePollFailed
		}
		return nil, fmt.Errorf("任务 %s 未能完成: %w", taskID, err)
	}

	t.state = StateDownloading
	result, err := t.download(ctx, imageURL)
	if err != nil {
		t.state = StateDownloadFailed
		return nil, fmt.Errorf("下载图片失败: %w", err)
	}

	t.state = StateSucceeded
	return result, nil
}

// State 返回当前阶段。
func (t *task) State() State { return t.state }

func (t *task) submit(ctx context.Context) (string, error) {
	return retry.DoTyped(t.retryer, ctx, func() (string, error) {
		sctx, cancel := context.WithTimeout(ctx, t.opts.SubmitTimeout)
		defer cancel()
		return t.backend.Submit(sctx, t.model, t.prompt, t.size)
	})
}

// poll 轮询任务直到终态或总超时。
// 单次状态查询受 SubmitTimeout 约束并按策略重试；
// 总时长受 PollTimeout 约束，超出即判定轮询超时。
func (t *task) poll(ctx context.Context, taskID string) (string, error) {
	deadline := time.Now().Add(t.opts.PollTimeout)
	lastStatus := ""

	for {
		if time.Now().After(deadline) {
			return "", types.NewError(types.ErrPollTimeout,
				fmt.Sprintf("轮询超时（%s）", t.opts.PollTimeout)).WithAPI(t.backend.Name())
		}

		st, err := retry.DoTyped(t.retryer, ctx, func() (*modelscope.TaskStatus, error) {
			sctx, cancel := context.WithTimeout(ctx, t.opts.SubmitTimeout)
			defer cancel()
			return t.backend.Status(sctx, taskID)
		})
		if err != nil {
			return "", err
		}

		if st.Status != lastStatus {
			t.logger.Info("任务状态变化",
				zap.String("api", t.backend.Name()),
				zap.String("model", t.model),
				zap.String("task_id", taskID),
				zap.String("status", config.StatusDisplay(st.Status)))
			lastStatus = st.Status
		}

		switch st.Status {
		case modelscope.StatusSucceed:
			return st.ImageURL, nil
		case modelscope.StatusFailed:
			msg := st.ErrMessage
			if msg == "" {
				msg = "任务失败"
			}
			return "", types.NewError(types.ErrTaskFailed, msg).WithAPI(t.backend.Name())
		case modelscope.StatusCanceled:
			return "", types.NewError(types.ErrTaskCanceled, "任务被取消").WithAPI(t.backend.Name())
		case modelscope.StatusTimeout:
			return "", types.NewError(types.ErrTaskTimeout, "任务在远端超时").WithAPI(t.backend.Name())
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(t.opts.PollInterval):
		}
	}
}

// download 拉取图片字节并解码出实际尺寸。
func (t *task) download(ctx context.Context, imageURL string) (*types.GenerationResult, error) {
	data, err := retry.DoTyped(t.retryer, ctx, func() ([]byte, error) {
		dctx, cancel := context.WithTimeout(ctx, t.opts.DownloadTimeout)
		defer cancel()
		return t.backend.Fetch(dctx, imageURL)
	})
	if err != nil {
		return nil, err
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, types.NewError(types.ErrDecodeFailed, "图片数据无法解码").
			WithAPI(t.backend.Name()).WithCause(err)
	}

	// URL 字段留给上传环节填充
	bounds := img.Bounds()
	return &types.GenerationResult{
		Image:  img,
		Data:   data,
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
		Model:  t.model,
		API:    t.backend.Name(),
	}, nil
}
