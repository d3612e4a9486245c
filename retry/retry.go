package retry

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/imgflow/types"
)

// Policy 定义重试策略配置。
// 固定间隔重试：远端是异步任务接口，指数退避换不来更高成功率，
// 固定 retry_delay 行为更可预测。
type Policy struct {
	MaxRetries          int                                               // 最大重试次数（0 表示不重试）
	Delay               time.Duration                                     // 重试间隔（首次执行前不等待）
	RetryOnNetworkError bool                                              // 网络故障是否触发重试
	OnRetry             func(attempt int, err error, delay time.Duration) // 重试回调
}

// DefaultPolicy 返回默认的重试策略
func DefaultPolicy() *Policy {
	return &Policy{
		MaxRetries:          3,
		Delay:               2 * time.Second,
		RetryOnNetworkError: true,
	}
}

// Retryer 重试器接口
type Retryer interface {
	// Do 执行函数，失败时根据策略重试
	Do(ctx context.Context, fn func() error) error

	// DoWithResult 执行函数并返回结果，失败时根据策略重试
	DoWithResult(ctx context.Context, fn func() (any, error)) (any, error)
}

type fixedDelayRetryer struct {
	policy *Policy
	logger *zap.Logger
}

// New 创建固定间隔重试器
func New(policy *Policy, logger *zap.Logger) Retryer {
	if policy == nil {
		policy = DefaultPolicy()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	if policy.MaxRetries < 0 {
		policy.MaxRetries = 0
	}
	if policy.Delay < 0 {
		policy.Delay = 0
	}

	return &fixedDelayRetryer{
		policy: policy,
		logger: logger,
	}
}

// Do 实现 Retryer.Do
func (r *fixedDelayRetryer) Do(ctx context.Context, fn func() error) error {
	_, err := r.DoWithResult(ctx, func() (any, error) {
		return nil, fn()
	})
	return err
}

// DoWithResult 实现 Retryer.DoWithResult
// 核心逻辑：固定间隔 + 错误分类（网络故障可重试，业务拒绝立即终止）
func (r *fixedDelayRetryer) DoWithResult(ctx context.Context, fn func() (any, error)) (any, error) {
	var lastErr error
	var result any

	for attempt := 0; attempt <= r.policy.MaxRetries; attempt++ {
		if attempt > 0 {
			r.logger.Debug("重试中",
				zap.Int("attempt", attempt),
				zap.Int("max_retries", r.policy.MaxRetries),
				zap.Duration("delay", r.policy.Delay),
				zap.Error(lastErr),
			)

			if r.policy.OnRetry != nil {
				r.policy.OnRetry(attempt, lastErr, r.policy.Delay)
			}

			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("重试被取消: %w", ctx.Err())
			case <-time.After(r.policy.Delay):
			}
		}

		result, lastErr = fn()

		if lastErr == nil {
			if attempt > 0 {
				r.logger.Info("重试成功", zap.Int("attempt", attempt))
			}
			return result, nil
		}

		if !r.shouldRetry(lastErr) {
			r.logger.Debug("错误不可重试", zap.Error(lastErr))
			return nil, lastErr
		}

		if attempt >= r.policy.MaxRetries {
			break
		}
	}

	r.logger.Warn("重试次数耗尽",
		zap.Int("attempts", r.policy.MaxRetries+1),
		zap.Error(lastErr),
	)

	return nil, fmt.Errorf("重试 %d 次后仍失败: %w", r.policy.MaxRetries, lastErr)
}

// shouldRetry 判断错误是否应该触发重试。
// 业务拒绝（配额、鉴权、无效模型）永不重试；
// 网络类故障受 RetryOnNetworkError 开关控制。
func (r *fixedDelayRetryer) shouldRetry(err error) bool {
	if !types.IsRetryable(err) {
		return false
	}
	if types.IsNetworkError(err) && !r.policy.RetryOnNetworkError {
		return false
	}
	return true
}

// DoTyped is a type-safe generic wrapper around Retryer.DoWithResult.
// It eliminates the need for type assertions on the return value.
func DoTyped[T any](r Retryer, ctx context.Context, fn func() (T, error)) (T, error) {
	result, err := r.DoWithResult(ctx, func() (any, error) {
		return fn()
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return result.(T), nil
}
