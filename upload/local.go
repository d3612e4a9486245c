package upload

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LocalUploader 把图片写入本地目录，外链为 baseURL 拼接文件名。
// 适合自建静态服务器场景。
type LocalUploader struct {
	dir     string
	baseURL string
}

// NewLocalUploader 创建本地目录上传器。baseURL 可为空，
// 此时外链为 file:// 形式的绝对路径。
func NewLocalUploader(dir, baseURL string) *LocalUploader {
	return &LocalUploader{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}
}

func (u *LocalUploader) Name() string { return "local:" + u.dir }

func (u *LocalUploader) Upload(_ context.Context, data []byte, filename string) (string, error) {
	if err := os.MkdirAll(u.dir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}

	path := filepath.Join(u.dir, filename)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}

	if u.baseURL == "" {
		abs, err := filepath.Abs(path)
		if err != nil {
			return "", err
		}
		return "file://" + abs, nil
	}
	return u.baseURL + "/" + filename, nil
}
