package config

import (
	"time"

	"github.com/BaSui01/imgflow/notify"
	"github.com/BaSui01/imgflow/selection"
	"github.com/BaSui01/imgflow/types"
)

// Options 一次生成调用的全部可调参数。
// 所有字段都有合理默认值，见 DefaultOptions。
type Options struct {
	// ==================== API 配置 ====================

	// APIKeys 裸密钥列表（使用官方地址）
	APIKeys []string `yaml:"api_keys"`
	// APIConfigs 结构化 API 配置列表（自定义地址/名称）
	APIConfigs []APIConfig `yaml:"api_configs"`
	// APIStrategy API 选择策略
	APIStrategy selection.Strategy `yaml:"api_strategy"`

	// ==================== 模型配置 ====================

	// Models 模型列表，支持预设别名和完整 ID
	Models []string `yaml:"models"`
	// ModelStrategy 模型选择策略
	ModelStrategy selection.Strategy `yaml:"model_strategy"`

	// ==================== 图片配置 ====================

	// Size 图片尺寸：预设比例（"16:9"）或自定义（"1920x1080"）
	Size string `yaml:"size"`
	// SavePath 本地保存路径，留空不保存
	SavePath string `yaml:"save_path"`

	// ==================== 容错和重试配置 ====================

	// EnableFailover API/模型失败时是否自动切换候选
	EnableFailover bool `yaml:"enable_failover"`
	// MaxRetries 单环节网络错误最大重试次数
	MaxRetries int `yaml:"max_retries"`
	// RetryOnNetworkError 网络错误是否重试
	RetryOnNetworkError bool `yaml:"retry_on_network_error"`
	// RetryDelay 重试间隔
	RetryDelay time.Duration `yaml:"retry_delay"`

	// ==================== 超时配置 ====================

	// SubmitTimeout 提交任务超时
	SubmitTimeout time.Duration `yaml:"submit_timeout"`
	// PollTimeout 轮询总超时（从进入轮询起计）
	PollTimeout time.Duration `yaml:"poll_timeout"`
	// DownloadTimeout 下载图片超时
	DownloadTimeout time.Duration `yaml:"download_timeout"`
	// PollInterval 轮询间隔
	PollInterval time.Duration `yaml:"poll_interval"`

	// ==================== 图床上传配置 ====================

	// UploadStrategy 图床选择策略
	UploadStrategy selection.Strategy `yaml:"upload_strategy"`
	// UploadOnSuccess 生成成功后是否自动上传
	UploadOnSuccess bool `yaml:"upload_on_success"`

	// ==================== 消息通知配置 ====================

	// NotificationMode 通知模式（success/error/all/none）
	NotificationMode notify.Mode `yaml:"notification_mode"`
	// NotificationStrategy 通知渠道策略（sequential 为全部广播）
	NotificationStrategy selection.Strategy `yaml:"notification_strategy"`
}

// DefaultOptions 返回默认参数
func DefaultOptions() *Options {
	return &Options{
		APIStrategy:          selection.StrategySequential,
		Models:               []string{"qwen"},
		ModelStrategy:        selection.StrategySequential,
		Size:                 "16:9",
		EnableFailover:       true,
		MaxRetries:           3,
		RetryOnNetworkError:  true,
		RetryDelay:           2 * time.Second,
		SubmitTimeout:        30 * time.Second,
		PollTimeout:          300 * time.Second,
		DownloadTimeout:      60 * time.Second,
		PollInterval:         5 * time.Second,
		UploadStrategy:       selection.StrategySequential,
		NotificationMode:     notify.ModeNone,
		NotificationStrategy: selection.StrategySequential,
	}
}

// Validate 校验参数并报告首个配置错误。
func (o *Options) Validate() error {
	if len(o.APIKeys) == 0 && len(o.APIConfigs) == 0 {
		return types.NewError(types.ErrInvalidRequest, "at least one API config is required")
	}
	if len(o.Models) == 0 {
		return types.NewError(types.ErrInvalidRequest, "at least one model is required")
	}
	if _, _, err := ResolveSize(o.Size); err != nil {
		return err
	}
	if o.PollInterval <= 0 {
		return types.NewError(types.ErrInvalidRequest, "poll interval must be positive")
	}
	return nil
}
