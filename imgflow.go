// Package imgflow provides a top-level convenience entry point for generating
// images with minimal boilerplate.
//
// Usage:
//
//	import "github.com/BaSui01/imgflow"
//
//	opts := imgflow.DefaultOptions()
//	opts.APIKeys = []string{os.Getenv("IMGFLOW_API_KEY")}
//	result, err := imgflow.Generate(ctx, "一只在花园里晒太阳的橘猫", opts)
//
// This is a thin wrapper around [generate.New]; both produce identical
// results. Use this package when you prefer the shorter import path.
package imgflow

import (
	"context"

	"github.com/BaSui01/imgflow/config"
	"github.com/BaSui01/imgflow/generate"
	"github.com/BaSui01/imgflow/types"
)

// Options 生成参数，见 [config.Options]。
type Options = config.Options

// Result 生成结果，见 [types.GenerationResult]。
type Result = types.GenerationResult

// Generator 故障转移编排器，见 [generate.Generator]。
type Generator = generate.Generator

// Option 编排器可选依赖，见 [generate.Option]。
type Option = generate.Option

// DefaultOptions 返回默认生成参数。
var DefaultOptions = config.DefaultOptions

// LoadOptions 从 YAML 文件加载生成参数并应用环境变量覆盖。
var LoadOptions = config.Load

// New 创建可复用的生成编排器。
func New(opts *config.Options, optFns ...generate.Option) (*generate.Generator, error) {
	return generate.New(opts, optFns...)
}

// Generate 一次性生成一张图片。
func Generate(ctx context.Context, prompt string, opts *config.Options, optFns ...generate.Option) (*types.GenerationResult, error) {
	return generate.Generate(ctx, prompt, opts, optFns...)
}

// Re-export generator options so callers never need to import generate/.

// WithLogger 设置 zap 日志器。
var WithLogger = generate.WithLogger

// WithUploaders 配置图床上传器。
var WithUploaders = generate.WithUploaders

// WithChannels 配置通知渠道。
var WithChannels = generate.WithChannels
