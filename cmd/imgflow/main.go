// =============================================================================
// imgflow 主入口
// =============================================================================
// 命令行工具：文生图 + 故障转移 + 本地保存
//
// 使用方法:
//
//	imgflow generate "一只猫"                       # 生成图片
//	imgflow generate --config imgflow.yaml "一只猫"  # 指定配置文件
//	imgflow generate --size 1:1 --save out.png "一只猫"
//	imgflow models                                  # 列出模型预设
//	imgflow sizes                                   # 列出尺寸预设
//	imgflow version                                 # 显示版本信息
// =============================================================================
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/BaSui01/imgflow/config"
	"github.com/BaSui01/imgflow/generate"
)

// 版本信息（构建时注入）
var (
	Version   = "dev"
	GitCommit = "unknown"
)

func main() {
	// .env 不存在时静默跳过
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "generate":
		runGenerate(os.Args[2:])
	case "models":
		printModels()
	case "sizes":
		printSizes()
	case "version":
		fmt.Printf("imgflow %s (%s)\n", Version, GitCommit)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func runGenerate(args []string) {
	fs := flag.NewFlagSet("generate", flag.ExitOnError)
	configPath := fs.String("config", "", "YAML 配置文件路径")
	size := fs.String("size", "", "图片尺寸（预设比例或 宽x高）")
	models := fs.String("models", "", "逗号分隔的模型列表（预设别名或完整 ID）")
	savePath := fs.String("save", "", "本地保存路径")
	noFailover := fs.Bool("no-failover", false, "关闭故障转移，只尝试首个候选")
	verbose := fs.Bool("v", false, "输出调试日志")
	fs.Parse(args)

	prompt := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if prompt == "" {
		fmt.Fprintln(os.Stderr, "用法: imgflow generate [flags] <提示词>")
		os.Exit(1)
	}

	opts, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}
	if *size != "" {
		opts.Size = *size
	}
	if *models != "" {
		opts.Models = strings.Split(*models, ",")
	}
	if *savePath != "" {
		opts.SavePath = *savePath
	}
	if *noFailover {
		opts.EnableFailover = false
	}

	logger := initLogger(*verbose)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := generate.Generate(ctx, prompt, opts, generate.WithLogger(logger))
	if err != nil {
		logger.Fatal("生成失败", zap.Error(err))
	}

	fmt.Printf("✅ 生成成功: %s @ %s（%dx%d）\n", result.Model, result.API, result.Width, result.Height)
	if opts.SavePath != "" {
		fmt.Printf("   已保存: %s\n", opts.SavePath)
	}
	if result.URL != "" {
		fmt.Printf("   图床地址: %s\n", result.URL)
	}
}

func initLogger(verbose bool) *zap.Logger {
	var logger *zap.Logger
	var err error
	if verbose {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	return logger
}

func printModels() {
	aliases := make([]string, 0, len(config.ModelPresets))
	for alias := range config.ModelPresets {
		aliases = append(aliases, alias)
	}
	sort.Strings(aliases)

	fmt.Println("模型预设:")
	for _, alias := range aliases {
		fmt.Printf("  %-20s %s\n", alias, config.ModelPresets[alias])
	}
}

func printSizes() {
	ratios := make([]string, 0, len(config.SizePresets))
	for ratio := range config.SizePresets {
		ratios = append(ratios, ratio)
	}
	sort.Strings(ratios)

	fmt.Println("尺寸预设:")
	for _, ratio := range ratios {
		fmt.Printf("  %-6s %s\n", ratio, config.SizePresets[ratio])
	}
}

func printUsage() {
	fmt.Println(`imgflow - 文生图命令行工具

用法:
  imgflow generate [flags] <提示词>   生成图片
  imgflow models                      列出模型预设
  imgflow sizes                       列出尺寸预设
  imgflow version                     显示版本信息

generate flags:
  --config string   YAML 配置文件路径
  --size string     图片尺寸（预设比例或 宽x高）
  --models string   逗号分隔的模型列表
  --save string     本地保存路径
  --no-failover     关闭故障转移
  -v                输出调试日志

环境变量:
  IMGFLOW_API_KEY   逗号分隔的 API 密钥列表
  IMGFLOW_BASE_URL  覆盖默认 API 地址`)
}
