package notify

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api"

	"github.com/BaSui01/imgflow/types"
)

// TelegramChannel 通过 Telegram Bot 推送通知。
type TelegramChannel struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

// NewTelegramChannel 创建 Telegram 通知渠道。
func NewTelegramChannel(botToken string, chatID int64) (*TelegramChannel, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	return &TelegramChannel{bot: bot, chatID: chatID}, nil
}

func (t *TelegramChannel) Name() string { return "telegram" }

// Notify 把事件格式化为文本消息发送到目标会话。
// Bot API 客户端本身不接受 context，超时由其内部 HTTP 客户端控制。
func (t *TelegramChannel) Notify(_ context.Context, event *types.NotificationEvent) error {
	msg := tgbotapi.NewMessage(t.chatID, formatEventText(event))
	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	return nil
}

// formatEventText 把事件渲染为多行文本。
func formatEventText(event *types.NotificationEvent) string {
	var b strings.Builder
	if event.IsSuccess {
		b.WriteString("✅ ")
	} else {
		b.WriteString("❌ ")
	}
	b.WriteString(event.Message)

	// 固定字段顺序，保证消息稳定可读
	for _, key := range []string{"prompt", "model", "api", "url", "size"} {
		if v, ok := event.Payload[key]; ok && v != "" {
			b.WriteString(fmt.Sprintf("\n%s: %s", key, v))
		}
	}
	return b.String()
}
