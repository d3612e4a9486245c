package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/imgflow/selection"
	"github.com/BaSui01/imgflow/types"
)

func TestAPIConfig_Normalized(t *testing.T) {
	t.Parallel()

	cfg := NewAPIConfig("test-key")
	assert.Equal(t, "test-key", cfg.APIKey)
	assert.Equal(t, DefaultBaseURL, cfg.BaseURL)
	assert.Equal(t, "api-inference.modelscope.cn", cfg.Name, "名称从 BaseURL 主机名推导")

	custom := APIConfig{APIKey: "k", BaseURL: "https://proxy.example.com/v2", Name: "备用"}.Normalized()
	assert.Equal(t, "https://proxy.example.com/v2/", custom.BaseURL, "BaseURL 规范化为尾部斜杠")
	assert.Equal(t, "备用", custom.Name, "显式名称不被覆盖")
}

func TestParseAPIConfigs(t *testing.T) {
	t.Parallel()

	t.Run("keys and configs preserve order", func(t *testing.T) {
		got, err := ParseAPIConfigs(
			[]string{"key1", "key2"},
			[]APIConfig{{APIKey: "key3", Name: "API3"}},
		)
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, "key1", got[0].APIKey)
		assert.Equal(t, "key2", got[1].APIKey)
		assert.Equal(t, "API3", got[2].Name)
	})

	t.Run("empty input rejected", func(t *testing.T) {
		_, err := ParseAPIConfigs(nil, nil)
		assert.Equal(t, types.ErrInvalidRequest, types.GetErrorCode(err))
	})

	t.Run("missing api key rejected", func(t *testing.T) {
		_, err := ParseAPIConfigs(nil, []APIConfig{{Name: "no key"}})
		assert.Error(t, err)
	})
}

func TestResolveModel(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Qwen/Qwen-Image", ResolveModel("qwen"))
	assert.Equal(t, "MAILAND/majicflus_v1", ResolveModel("flux-majic"))
	// 未知字符串视为完整 ID 透传
	assert.Equal(t, "Custom/Model-ID", ResolveModel("Custom/Model-ID"))

	assert.Equal(t, []string{"Qwen/Qwen-Image", "MusePublic/42_ckpt_SD_XL"},
		ResolveModels([]string{"qwen", "sdxl-muse"}))
}

func TestResolveSize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		width   int
		height  int
		wantErr bool
	}{
		{name: "preset 16:9", input: "16:9", width: 1664, height: 928},
		{name: "preset 1:1", input: "1:1", width: 1328, height: 1328},
		{name: "custom WxH", input: "1920x1080", width: 1920, height: 1080},
		{name: "invalid format", input: "huge", wantErr: true},
		{name: "zero dimension", input: "0x100", wantErr: true},
		{name: "negative-ish garbage", input: "-5x100", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h, err := ResolveSize(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, types.ErrInvalidSize, types.GetErrorCode(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.width, w)
			assert.Equal(t, tt.height, h)
		})
	}
}

func TestStatusDisplay(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "✅ 成功", StatusDisplay("SUCCEED"))
	assert.Equal(t, "❓ WEIRD", StatusDisplay("WEIRD"))
}

func TestDefaultOptions_Validate(t *testing.T) {
	t.Parallel()

	opts := DefaultOptions()
	// 缺少 API 配置时校验失败
	assert.Error(t, opts.Validate())

	opts.APIKeys = []string{"key"}
	assert.NoError(t, opts.Validate())
	assert.True(t, opts.EnableFailover)
	assert.Equal(t, 3, opts.MaxRetries)
	assert.Equal(t, 5*time.Second, opts.PollInterval)
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "imgflow.yaml")
	content := `
models: [flux-majic]
size: "1:1"
max_retries: 5
api_strategy: round_robin
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	t.Setenv(EnvAPIKey, "env-key-1, env-key-2")

	opts, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"flux-majic"}, opts.Models)
	assert.Equal(t, "1:1", opts.Size)
	assert.Equal(t, 5, opts.MaxRetries)
	assert.Equal(t, selection.StrategyRoundRobin, opts.APIStrategy)
	assert.Equal(t, []string{"env-key-1", "env-key-2"}, opts.APIKeys)
}

func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := Load("/nonexistent/imgflow.yaml")
	assert.Error(t, err)
}
