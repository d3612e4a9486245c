package types

import "image"

// GenerationResult 表示一次成功生成的完整结果。
// 只有整次调用成功时才会产生，不存在部分填充的结果。
type GenerationResult struct {
	// Image 是解码后的图片
	Image image.Image

	// Data 是下载到的原始图片字节
	Data []byte

	// Width 和 Height 来自解码后的实际尺寸（而非请求尺寸）
	Width  int
	Height int

	// URL 是图床地址，仅当上传执行且成功时非空
	URL string

	// Model 是实际生成成功的模型 ID
	Model string

	// API 是实际生成成功的 API 显示名称
	API string
}

// NotificationEvent 表示一条发往通知渠道的结构化事件。
type NotificationEvent struct {
	// Message 是人类可读的消息内容
	Message string `json:"message"`

	// IsSuccess 标记本条消息是否为成功类消息
	IsSuccess bool `json:"is_success"`

	// Payload 携带已知的附加字段（prompt、model、api、url、size），
	// 仅在取值已知时写入
	Payload map[string]string `json:"payload,omitempty"`
}
