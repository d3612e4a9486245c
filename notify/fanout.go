package notify

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/BaSui01/imgflow/selection"
	"github.com/BaSui01/imgflow/types"
)

// Mode 通知模式
type Mode string

const (
	ModeSuccess Mode = "success" // 仅发送成功消息
	ModeError   Mode = "error"   // 仅发送错误消息
	ModeAll     Mode = "all"     // 发送所有消息
	ModeNone    Mode = "none"    // 不发送消息
)

// Channel 单个通知渠道。实现方的错误会被吞掉并记录日志，
// 永远不会影响整体调用结果。
type Channel interface {
	// Notify 投递一条事件
	Notify(ctx context.Context, event *types.NotificationEvent) error
	// Name 返回渠道名称，用于日志显示
	Name() string
}

// ChannelFunc 把函数适配为 Channel。
type ChannelFunc struct {
	ChannelName string
	Fn          func(ctx context.Context, event *types.NotificationEvent) error
}

func (c ChannelFunc) Notify(ctx context.Context, event *types.NotificationEvent) error {
	return c.Fn(ctx, event)
}

func (c ChannelFunc) Name() string {
	if c.ChannelName != "" {
		return c.ChannelName
	}
	return "channel"
}

// Fanout 把结构化事件按模式过滤后分发到通知渠道。
//
// 与故障转移池不同，这里的 sequential 语义是按顺序广播到所有渠道，
// 而不是首个成功即止；random/round_robin 则每条事件只投递一个渠道。
// 投递是尽力而为：单个渠道的错误或 panic 不会中断其余渠道。
type Fanout struct {
	pool     *selection.Pool[Channel]
	mode     Mode
	strategy selection.Strategy
	logger   *zap.Logger
}

// NewFanout 创建通知分发器。channels 为空时所有 Notify 调用为空操作。
func NewFanout(channels []Channel, mode Mode, strategy selection.Strategy, logger *zap.Logger) *Fanout {
	if logger == nil {
		logger = zap.NewNop()
	}
	if mode == "" {
		mode = ModeNone
	}

	var pool *selection.Pool[Channel]
	if len(channels) > 0 {
		pool, _ = selection.NewPool(channels, strategy, logger)
	}

	return &Fanout{
		pool:     pool,
		mode:     mode,
		strategy: strategy,
		logger:   logger,
	}
}

// Notify 构建事件并分发。mode 为 none 或被过滤时直接短路，
// 不触达任何渠道。
func (f *Fanout) Notify(ctx context.Context, message string, isSuccess bool, payload map[string]string) {
	if f.mode == ModeNone {
		return
	}
	if f.mode == ModeSuccess && !isSuccess {
		return
	}
	if f.mode == ModeError && isSuccess {
		return
	}
	if f.pool == nil {
		return
	}

	event := &types.NotificationEvent{
		Message:   message,
		IsSuccess: isSuccess,
		Payload:   payload,
	}

	if f.strategy == selection.StrategySequential {
		for _, ch := range f.pool.Items() {
			f.dispatch(ctx, ch, event)
		}
		return
	}

	ch, _ := f.pool.Next()
	f.dispatch(ctx, ch, event)
}

// dispatch 投递单条事件，错误与 panic 均不向外传播。
func (f *Fanout) dispatch(ctx context.Context, ch Channel, event *types.NotificationEvent) {
	defer func() {
		if r := recover(); r != nil {
			f.logger.Warn("通知渠道 panic",
				zap.String("channel", ch.Name()),
				zap.Any("panic", r))
		}
	}()

	if err := ch.Notify(ctx, event); err != nil {
		f.logger.Warn("通知发送失败",
			zap.String("channel", ch.Name()),
			zap.Error(types.NewError(types.ErrNotifyFailed, fmt.Sprintf("channel %s", ch.Name())).WithCause(err)))
		return
	}

	f.logger.Debug("通知已发送", zap.String("channel", ch.Name()))
}
