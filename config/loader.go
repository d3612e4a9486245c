// =============================================================================
// 📦 imgflow 配置加载器
// =============================================================================
// 统一配置加载，支持 YAML 文件 + 环境变量覆盖
//
// 使用方法:
//
//	opts, err := config.Load("imgflow.yaml")
//
// 配置优先级: 默认值 → YAML 文件 → 环境变量
// =============================================================================
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// 环境变量名
const (
	EnvAPIKey  = "IMGFLOW_API_KEY"  // 逗号分隔的 API 密钥列表
	EnvBaseURL = "IMGFLOW_BASE_URL" // 覆盖默认 API 地址
)

// Load 从 YAML 文件加载配置并应用环境变量覆盖。
// path 为空时只使用默认值和环境变量。
func Load(path string) (*Options, error) {
	opts := DefaultOptions()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, opts); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	applyEnv(opts)

	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return opts, nil
}

// applyEnv 应用环境变量覆盖。密钥走环境变量而不是配置文件，
// 避免机密落盘。
func applyEnv(opts *Options) {
	if keys := os.Getenv(EnvAPIKey); keys != "" {
		for _, key := range strings.Split(keys, ",") {
			if key = strings.TrimSpace(key); key != "" {
				opts.APIKeys = append(opts.APIKeys, key)
			}
		}
	}

	if baseURL := os.Getenv(EnvBaseURL); baseURL != "" {
		for i := range opts.APIConfigs {
			opts.APIConfigs[i].BaseURL = baseURL
		}
	}
}
