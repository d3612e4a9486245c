package upload

import (
	"bytes"
	"context"

	storage "github.com/supabase-community/storage-go"

	"github.com/BaSui01/imgflow/types"
)

// SupabaseUploader 上传至 Supabase Storage 公共桶。
type SupabaseUploader struct {
	client *storage.Client
	bucket string
	prefix string
}

// NewSupabaseUploader 创建 Supabase 上传器。
// endpoint 形如 https://<project>.supabase.co/storage/v1。
func NewSupabaseUploader(endpoint, serviceKey, bucket, prefix string) *SupabaseUploader {
	return &SupabaseUploader{
		client: storage.NewClient(endpoint, serviceKey, nil),
		bucket: bucket,
		prefix: prefix,
	}
}

func (u *SupabaseUploader) Name() string { return "supabase:" + u.bucket }

func (u *SupabaseUploader) Upload(ctx context.Context, data []byte, filename string) (string, error) {
	path := filename
	if u.prefix != "" {
		path = u.prefix + "/" + filename
	}

	contentType := "image/png"
	_, err := u.client.UploadFile(u.bucket, path, bytes.NewReader(data), storage.FileOptions{
		ContentType: &contentType,
	})
	if err != nil {
		return "", types.NewError(types.ErrUploadFailed, "supabase upload").
			WithRetryable(true).WithCause(err)
	}

	resp := u.client.GetPublicUrl(u.bucket, path)
	if resp.SignedURL == "" {
		return "", types.NewError(types.ErrUploadFailed, "supabase public url unavailable")
	}
	return resp.SignedURL, nil
}
