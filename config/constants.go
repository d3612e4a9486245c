package config

// DefaultBaseURL 魔搭（ModelScope）推理 API 官方地址
const DefaultBaseURL = "https://api-inference.modelscope.cn/"

// SizePresets 支持的图片比例预设（快速设置）
var SizePresets = map[string]string{
	"1:1":  "1328x1328",
	"16:9": "1664x928",
	"9:16": "928x1664",
	"4:3":  "1472x1140",
	"3:4":  "1140x1472",
	"3:2":  "1584x1056",
	"2:3":  "1056x1584",
}

// ModelPresets 预设模型别名 → 完整模型 ID
var ModelPresets = map[string]string{
	// 通义万相
	"qwen":       "Qwen/Qwen-Image",
	"qwen-image": "Qwen/Qwen-Image",

	// FLUX 系列
	"flux-majic":       "MAILAND/majicflus_v1",
	"flux-muse":        "MusePublic/489_ckpt_FLUX_1",
	"flux-xiaohongshu": "yiwanji/FLUX_xiao_hong_shu_ji_zhi_zhen_shi_V2",

	// Stable Diffusion XL
	"sdxl-muse": "MusePublic/42_ckpt_SD_XL",
}

// TaskStatusText 任务状态 → 日志显示文本
var TaskStatusText = map[string]string{
	"PENDING":    "⏳ 等待中",
	"PROCESSING": "🎨 生成中",
	"RUNNING":    "🏃 执行中",
	"SUCCEED":    "✅ 成功",
	"FAILED":     "❌ 失败",
	"CANCELED":   "⚠️ 已取消",
	"TIMEOUT":    "⏰ 超时",
}

// StatusDisplay 返回任务状态的显示文本，未知状态原样带标记返回。
func StatusDisplay(status string) string {
	if text, ok := TaskStatusText[status]; ok {
		return text
	}
	return "❓ " + status
}
