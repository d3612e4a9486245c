package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/BaSui01/imgflow/types"
)

// RedisChannel 把事件以 JSON 形式 PUBLISH 到 Redis 频道，
// 供下游订阅方（机器人、看板等）消费。
type RedisChannel struct {
	client  *redis.Client
	channel string
}

// NewRedisChannel 创建 Redis 通知渠道。client 由调用方管理生命周期。
func NewRedisChannel(client *redis.Client, channel string) *RedisChannel {
	if channel == "" {
		channel = "imgflow:events"
	}
	return &RedisChannel{client: client, channel: channel}
}

func (r *RedisChannel) Name() string { return "redis" }

// Notify 序列化事件并发布。
func (r *RedisChannel) Notify(ctx context.Context, event *types.NotificationEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal notification event: %w", err)
	}
	if err := r.client.Publish(ctx, r.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish to %s: %w", r.channel, err)
	}
	return nil
}
