package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BaSui01/imgflow/selection"
	"github.com/BaSui01/imgflow/types"
)

type recordingChannel struct {
	name   string
	events []*types.NotificationEvent
	err    error
	panics bool
}

func (c *recordingChannel) Name() string { return c.name }

func (c *recordingChannel) Notify(_ context.Context, event *types.NotificationEvent) error {
	if c.panics {
		panic("channel exploded")
	}
	c.events = append(c.events, event)
	return c.err
}

func TestFanout_ModeFiltering(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		mode      Mode
		isSuccess bool
		delivered bool
	}{
		{name: "none short-circuits", mode: ModeNone, isSuccess: true, delivered: false},
		{name: "success mode drops errors", mode: ModeSuccess, isSuccess: false, delivered: false},
		{name: "success mode passes successes", mode: ModeSuccess, isSuccess: true, delivered: true},
		{name: "error mode drops successes", mode: ModeError, isSuccess: true, delivered: false},
		{name: "error mode passes errors", mode: ModeError, isSuccess: false, delivered: true},
		{name: "all passes everything", mode: ModeAll, isSuccess: false, delivered: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ch := &recordingChannel{name: "rec"}
			f := NewFanout([]Channel{ch}, tt.mode, selection.StrategySequential, zap.NewNop())
			f.Notify(context.Background(), "msg", tt.isSuccess, nil)

			if tt.delivered {
				require.Len(t, ch.events, 1)
				assert.Equal(t, "msg", ch.events[0].Message)
				assert.Equal(t, tt.isSuccess, ch.events[0].IsSuccess)
			} else {
				assert.Empty(t, ch.events)
			}
		})
	}
}

func TestFanout_SequentialBroadcastsToAll(t *testing.T) {
	t.Parallel()

	ch1 := &recordingChannel{name: "ch1", err: errors.New("boom")}
	ch2 := &recordingChannel{name: "ch2"}

	f := NewFanout([]Channel{ch1, ch2}, ModeAll, selection.StrategySequential, zap.NewNop())
	f.Notify(context.Background(), "hello", true, map[string]string{"model": "Qwen/Qwen-Image"})

	// 第一个渠道报错不影响后续渠道
	assert.Len(t, ch1.events, 1)
	assert.Len(t, ch2.events, 1)
	assert.Equal(t, "Qwen/Qwen-Image", ch2.events[0].Payload["model"])
}

func TestFanout_PanicDoesNotPropagate(t *testing.T) {
	t.Parallel()

	ch1 := &recordingChannel{name: "ch1", panics: true}
	ch2 := &recordingChannel{name: "ch2"}

	f := NewFanout([]Channel{ch1, ch2}, ModeAll, selection.StrategySequential, zap.NewNop())
	assert.NotPanics(t, func() {
		f.Notify(context.Background(), "hello", true, nil)
	})
	assert.Len(t, ch2.events, 1)
}

func TestFanout_RoundRobinPicksSingleChannel(t *testing.T) {
	t.Parallel()

	ch1 := &recordingChannel{name: "ch1"}
	ch2 := &recordingChannel{name: "ch2"}

	f := NewFanout([]Channel{ch1, ch2}, ModeAll, selection.StrategyRoundRobin, zap.NewNop())
	f.Notify(context.Background(), "first", true, nil)
	f.Notify(context.Background(), "second", true, nil)

	// 轮询策略：每条事件只发一个渠道，游标轮转
	assert.Len(t, ch1.events, 1)
	assert.Len(t, ch2.events, 1)
	assert.Equal(t, "first", ch1.events[0].Message)
	assert.Equal(t, "second", ch2.events[0].Message)
}

func TestFanout_NoChannelsIsNoop(t *testing.T) {
	t.Parallel()

	f := NewFanout(nil, ModeAll, selection.StrategySequential, zap.NewNop())
	assert.NotPanics(t, func() {
		f.Notify(context.Background(), "msg", true, nil)
	})
}

func TestChannelFunc(t *testing.T) {
	t.Parallel()

	var called atomic.Int32
	ch := ChannelFunc{
		ChannelName: "custom",
		Fn: func(_ context.Context, event *types.NotificationEvent) error {
			called.Add(1)
			return nil
		},
	}
	assert.Equal(t, "custom", ch.Name())

	f := NewFanout([]Channel{ch}, ModeAll, selection.StrategySequential, zap.NewNop())
	f.Notify(context.Background(), "msg", false, nil)
	assert.Equal(t, int32(1), called.Load())
}

func TestRedisChannel_Publish(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	ctx := context.Background()
	sub := client.Subscribe(ctx, "imgflow:events")
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	ch := NewRedisChannel(client, "")
	assert.Equal(t, "redis", ch.Name())

	err = ch.Notify(ctx, &types.NotificationEvent{
		Message:   "图片生成成功",
		IsSuccess: true,
		Payload:   map[string]string{"url": "http://x"},
	})
	require.NoError(t, err)

	select {
	case msg := <-sub.Channel():
		var event types.NotificationEvent
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &event))
		assert.True(t, event.IsSuccess)
		assert.Equal(t, "http://x", event.Payload["url"])
	case <-time.After(2 * time.Second):
		t.Fatal("no message received")
	}
}

func TestWebhookChannel(t *testing.T) {
	t.Parallel()

	var received types.NotificationEvent
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	ch := NewWebhookChannel(srv.URL, time.Second)
	err := ch.Notify(context.Background(), &types.NotificationEvent{Message: "done", IsSuccess: true})
	require.NoError(t, err)
	assert.Equal(t, "done", received.Message)
}

func TestWebhookChannel_ServerError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	ch := NewWebhookChannel(srv.URL, time.Second)
	err := ch.Notify(context.Background(), &types.NotificationEvent{Message: "done"})
	assert.Error(t, err)
}

func TestFormatEventText(t *testing.T) {
	t.Parallel()

	text := formatEventText(&types.NotificationEvent{
		Message:   "图片生成成功",
		IsSuccess: true,
		Payload: map[string]string{
			"model": "Qwen/Qwen-Image",
			"url":   "http://x",
		},
	})
	assert.Contains(t, text, "✅ 图片生成成功")
	assert.Contains(t, text, "model: Qwen/Qwen-Image")
	assert.Contains(t, text, "url: http://x")
}
