// Package upload 实现图床上传：输入归一化、内置上传器与级联回退。
package upload

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"

	"github.com/BaSui01/imgflow/types"
)

// fetchTimeout URL 输入的下载超时。
const fetchTimeout = 60 * time.Second

// Input 上传素材的来源。各实现统一归一化为 PNG 字节与文件名。
type Input interface {
	Normalize(ctx context.Context) (data []byte, filename string, err error)
}

// BytesInput 已编码的图片字节。直接透传，不重编码。
type BytesInput struct {
	Data     []byte
	Filename string // 为空时生成随机文件名
}

func (in BytesInput) Normalize(_ context.Context) ([]byte, string, error) {
	if len(in.Data) == 0 {
		return nil, "", types.NewError(types.ErrInvalidRequest, "empty image data")
	}
	name := in.Filename
	if name == "" {
		name = randomFilename()
	}
	return in.Data, name, nil
}

// PathInput 本地文件路径。
type PathInput struct {
	Path string
}

func (in PathInput) Normalize(_ context.Context) ([]byte, string, error) {
	data, err := os.ReadFile(in.Path)
	if err != nil {
		return nil, "", fmt.Errorf("read %s: %w", in.Path, err)
	}
	return data, randomFilename(), nil
}

// URLInput 远程图片地址，归一化时下载。
type URLInput struct {
	URL string
}

func (in URLInput) Normalize(ctx context.Context) ([]byte, string, error) {
	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, in.URL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("create fetch request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, "", types.NewError(types.ErrNetwork, "fetch image").
			WithRetryable(true).WithCause(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, "", types.NewError(types.ErrUploadFailed,
			fmt.Sprintf("fetch image: %s", resp.Status)).WithHTTPStatus(resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", types.NewError(types.ErrNetwork, "read image body").
			WithRetryable(true).WithCause(err)
	}
	return data, randomFilename(), nil
}

// Base64Input base64 编码的图片，支持 data URI 前缀。
type Base64Input struct {
	Encoded string
}

func (in Base64Input) Normalize(_ context.Context) ([]byte, string, error) {
	s := in.Encoded
	// 剥掉 data:image/png;base64, 这类前缀
	if idx := strings.Index(s, ","); idx >= 0 && strings.HasPrefix(s, "data:") {
		s = s[idx+1:]
	}
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, "", types.NewError(types.ErrDecodeFailed, "decode base64 image").WithCause(err)
	}
	return data, randomFilename(), nil
}

// ImageInput 内存中的解码图像，归一化时编码为 PNG。
type ImageInput struct {
	Image image.Image
}

func (in ImageInput) Normalize(_ context.Context) ([]byte, string, error) {
	if in.Image == nil {
		return nil, "", types.NewError(types.ErrInvalidRequest, "nil image")
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, in.Image, imaging.PNG); err != nil {
		return nil, "", types.NewError(types.ErrDecodeFailed, "encode image").WithCause(err)
	}
	return buf.Bytes(), randomFilename(), nil
}

func randomFilename() string {
	return uuid.NewString() + ".png"
}
