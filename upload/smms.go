package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/BaSui01/imgflow/types"
)

// SMMSUploader SM.MS 风格的 multipart 图床客户端。
type SMMSUploader struct {
	endpoint string
	token    string
	client   *http.Client
}

// NewSMMSUploader 创建 SM.MS 上传器。endpoint 为空时用官方地址。
func NewSMMSUploader(endpoint, token string) *SMMSUploader {
	if endpoint == "" {
		endpoint = "https://sm.ms/api/v2/upload"
	}
	return &SMMSUploader{
		endpoint: endpoint,
		token:    token,
		client:   &http.Client{Timeout: 60 * time.Second},
	}
}

func (u *SMMSUploader) Name() string { return "smms" }

type smmsResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    struct {
		URL string `json:"url"`
	} `json:"data"`
	// 重复上传时外链在 images 字段
	Images string `json:"images"`
}

func (u *SMMSUploader) Upload(ctx context.Context, data []byte, filename string) (string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("smfile", filename)
	if err != nil {
		return "", fmt.Errorf("create multipart: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("write multipart: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("close multipart: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.endpoint, &body)
	if err != nil {
		return "", fmt.Errorf("create upload request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if u.token != "" {
		req.Header.Set("Authorization", u.token)
	}

	resp, err := u.client.Do(req)
	if err != nil {
		return "", types.NewError(types.ErrNetwork, "smms upload").
			WithRetryable(true).WithCause(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", types.NewError(types.ErrUploadFailed,
			fmt.Sprintf("smms upload: %s", resp.Status)).
			WithHTTPStatus(resp.StatusCode).
			WithRetryable(resp.StatusCode >= 500)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", types.NewError(types.ErrNetwork, "read smms response").
			WithRetryable(true).WithCause(err)
	}

	var sResp smmsResponse
	if err := json.Unmarshal(raw, &sResp); err != nil {
		return "", types.NewError(types.ErrUploadFailed, "decode smms response").WithCause(err)
	}

	switch {
	case sResp.Success && sResp.Data.URL != "":
		return sResp.Data.URL, nil
	case sResp.Images != "": // image_repeated
		return sResp.Images, nil
	default:
		return "", types.NewError(types.ErrUploadFailed, "smms: "+sResp.Message)
	}
}
