package modelscope

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/imgflow/config"
	"github.com/BaSui01/imgflow/types"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := NewClient(config.APIConfig{APIKey: "sk-test", BaseURL: srv.URL, Name: "test-api"}, nil)
	return c, srv
}

func TestClient_Submit(t *testing.T) {
	var gotAuth, gotAsync string
	var gotBody submitRequest

	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/images/generations", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		gotAsync = r.Header.Get("X-ModelScope-Async-Mode")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		json.NewEncoder(w).Encode(map[string]string{"task_id": "task-123"})
	})

	taskID, err := c.Submit(context.Background(), "Qwen/Qwen-Image", "一只猫", "1664x928")
	require.NoError(t, err)
	assert.Equal(t, "task-123", taskID)
	assert.Equal(t, "Bearer sk-test", gotAuth)
	assert.Equal(t, "true", gotAsync)
	assert.Equal(t, "Qwen/Qwen-Image", gotBody.Model)
	assert.Equal(t, "一只猫", gotBody.Prompt)
	assert.Equal(t, "1664x928", gotBody.Size)
}

func TestClient_Submit_MissingTaskID(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{})
	})

	_, err := c.Submit(context.Background(), "m", "p", "1328x1328")
	require.Error(t, err)
	assert.Equal(t, types.ErrUpstreamError, types.GetErrorCode(err))
	assert.True(t, types.IsRetryable(err))
}

func TestClient_Status(t *testing.T) {
	tests := []struct {
		name     string
		resp     taskResponse
		wantURL  string
		terminal bool
	}{
		{"pending", taskResponse{TaskStatus: StatusPending}, "", false},
		{"running", taskResponse{TaskStatus: StatusRunning}, "", false},
		{"succeed", taskResponse{TaskStatus: StatusSucceed, OutputImages: []string{"http://img/1.png"}}, "http://img/1.png", true},
		{"failed", taskResponse{TaskStatus: StatusFailed, ErrorMessage: "内容不合规"}, "", true},
		{"canceled", taskResponse{TaskStatus: StatusCanceled}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/v1/tasks/task-123", r.URL.Path)
				assert.Equal(t, "image_generation", r.Header.Get("X-ModelScope-Task-Type"))
				json.NewEncoder(w).Encode(tt.resp)
			})

			st, err := c.Status(context.Background(), "task-123")
			require.NoError(t, err)
			assert.Equal(t, tt.resp.TaskStatus, st.Status)
			assert.Equal(t, tt.wantURL, st.ImageURL)
			assert.Equal(t, tt.terminal, st.Terminal())
		})
	}
}

func TestClient_Status_SucceedWithoutImages(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(taskResponse{TaskStatus: StatusSucceed})
	})

	_, err := c.Status(context.Background(), "task-123")
	require.Error(t, err)
	assert.Equal(t, types.ErrUpstreamError, types.GetErrorCode(err))
}

func TestClient_Fetch(t *testing.T) {
	payload := []byte{0x89, 'P', 'N', 'G'}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(payload)
	}))
	defer srv.Close()

	c := NewClient(config.APIConfig{APIKey: "k"}, nil)
	data, err := c.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, payload, data)
}

func TestClient_StatusErrorMapping(t *testing.T) {
	tests := []struct {
		status    int
		wantCode  types.ErrorCode
		retryable bool
	}{
		{http.StatusUnauthorized, types.ErrAuthentication, false},
		{http.StatusForbidden, types.ErrAuthentication, false},
		{http.StatusTooManyRequests, types.ErrQuotaExceeded, false},
		{http.StatusNotFound, types.ErrModelNotFound, false},
		{http.StatusBadRequest, types.ErrInvalidRequest, false},
		{http.StatusInternalServerError, types.ErrUpstreamError, true},
		{http.StatusBadGateway, types.ErrUpstreamError, true},
	}

	for _, tt := range tests {
		c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", tt.status)
		})

		_, err := c.Submit(context.Background(), "m", "p", "1328x1328")
		require.Error(t, err, "status %d", tt.status)
		assert.Equal(t, tt.wantCode, types.GetErrorCode(err), "status %d", tt.status)
		assert.Equal(t, tt.retryable, types.IsRetryable(err), "status %d", tt.status)

		var apiErr *types.Error
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, tt.status, apiErr.HTTPStatus)
		assert.Equal(t, "test-api", apiErr.API)
	}
}

func TestClient_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // 连接拒绝

	c := NewClient(config.APIConfig{APIKey: "k", BaseURL: srv.URL, Name: "dead"}, nil)
	_, err := c.Submit(context.Background(), "m", "p", "1328x1328")
	require.Error(t, err)
	assert.Equal(t, types.ErrNetwork, types.GetErrorCode(err))
	assert.True(t, types.IsRetryable(err))
}

func TestClient_ContextTimeout(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := c.Submit(ctx, "m", "p", "1328x1328")
	require.Error(t, err)
	assert.Equal(t, types.ErrTimeout, types.GetErrorCode(err))
	assert.True(t, types.IsRetryable(err))
}
