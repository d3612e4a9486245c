package config

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/BaSui01/imgflow/types"
)

// APIConfig 单个推理 API 端点的配置。
// 不可变值对象：池内身份按位置区分，不按 APIKey 相等性区分。
type APIConfig struct {
	// APIKey API 密钥（必需，机密）
	APIKey string `yaml:"api_key"`
	// BaseURL API 基础地址，留空使用魔搭官方地址
	BaseURL string `yaml:"base_url"`
	// Name 日志显示名称，留空时从 BaseURL 推导
	Name string `yaml:"name"`
}

// NewAPIConfig 从裸密钥构造配置（边界层的字符串形态归一化入口）。
func NewAPIConfig(apiKey string) APIConfig {
	return APIConfig{APIKey: apiKey}.Normalized()
}

// Normalized 返回填充默认值后的副本：BaseURL 默认魔搭官方地址，
// Name 缺省时取 BaseURL 的主机名。
func (c APIConfig) Normalized() APIConfig {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if !strings.HasSuffix(c.BaseURL, "/") {
		c.BaseURL += "/"
	}
	if c.Name == "" {
		host := c.BaseURL
		if i := strings.Index(host, "//"); i >= 0 {
			host = host[i+2:]
		}
		if i := strings.Index(host, "/"); i >= 0 {
			host = host[:i]
		}
		c.Name = host
	}
	return c
}

// Validate 校验配置完整性。
func (c APIConfig) Validate() error {
	if c.APIKey == "" {
		return types.NewError(types.ErrInvalidRequest, "api key is required")
	}
	return nil
}

// ParseAPIConfigs 把裸密钥与结构化配置统一归一化为 APIConfig 列表。
// keys 和 configs 可任一为空，结果保持入参顺序（keys 在前）。
func ParseAPIConfigs(keys []string, configs []APIConfig) ([]APIConfig, error) {
	result := make([]APIConfig, 0, len(keys)+len(configs))
	for _, key := range keys {
		result = append(result, NewAPIConfig(key))
	}
	for _, cfg := range configs {
		result = append(result, cfg.Normalized())
	}
	if len(result) == 0 {
		return nil, types.NewError(types.ErrInvalidRequest, "at least one API config is required")
	}
	for _, cfg := range result {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// ResolveModel 把预设别名解析为完整模型 ID；
// 未知字符串视为已是完整 ID，原样透传，不做远端校验。
func ResolveModel(model string) string {
	if id, ok := ModelPresets[model]; ok {
		return id
	}
	return model
}

// ResolveModels 批量解析模型列表。
func ResolveModels(models []string) []string {
	result := make([]string, len(models))
	for i, m := range models {
		result[i] = ResolveModel(m)
	}
	return result
}

var sizePattern = regexp.MustCompile(`^(\d+)x(\d+)$`)

// ResolveSize 把比例预设或 "宽x高" 字符串解析为正整数宽高。
// 其他格式返回 ErrInvalidSize（终止性配置错误）。
func ResolveSize(size string) (width, height int, err error) {
	if preset, ok := SizePresets[size]; ok {
		size = preset
	}

	m := sizePattern.FindStringSubmatch(size)
	if m == nil {
		return 0, 0, types.NewError(types.ErrInvalidSize,
			fmt.Sprintf("不支持的尺寸格式: %s（支持预设比例 %s 或 宽度x高度）", size, presetKeys()))
	}

	width, _ = strconv.Atoi(m[1])
	height, _ = strconv.Atoi(m[2])
	if width <= 0 || height <= 0 {
		return 0, 0, types.NewError(types.ErrInvalidSize,
			fmt.Sprintf("尺寸必须为正整数: %s", size))
	}
	return width, height, nil
}

func presetKeys() string {
	keys := make([]string, 0, len(SizePresets))
	for k := range SizePresets {
		keys = append(keys, k)
	}
	return strings.Join(keys, ", ")
}
