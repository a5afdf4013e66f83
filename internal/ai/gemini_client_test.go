package ai

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

type timeoutNetErr struct{}

func (timeoutNetErr) Error() string   { return "i/o timeout" }
func (timeoutNetErr) Timeout() bool   { return true }
func (timeoutNetErr) Temporary() bool { return true }

func TestClassifyGeminiError(t *testing.T) {
	tests := []struct {
		name          string
		in            error
		wantRetryable bool
	}{
		{name: "api_429", in: genai.APIError{Code: 429, Message: "quota"}, wantRetryable: true},
		{name: "api_503", in: genai.APIError{Code: 503}, wantRetryable: true},
		{name: "api_400", in: genai.APIError{Code: 400, Message: "bad schema"}, wantRetryable: false},
		{name: "net_timeout", in: timeoutNetErr{}, wantRetryable: true},
		{name: "deadline", in: context.DeadlineExceeded, wantRetryable: true},
		{name: "other", in: errors.New("boom"), wantRetryable: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantRetryable, isRetryableProviderError(classifyGeminiError(tt.in)))
		})
	}
}

func TestNewGeminiClientRequiresKey(t *testing.T) {
	_, err := NewGeminiClient(context.Background(), GeminiClientConfig{})
	assert.ErrorIs(t, err, ErrGeneratorUnavailable)

	var client *GeminiClient
	assert.False(t, client.Available())
}

func TestGeminiClientGenerate(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		if !strings.HasSuffix(r.URL.Path, "models/gemini-test:generateContent") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"candidates":[{"content":{"role":"model","parts":[{"text":"{\"industry_keywords\":[\"payroll\"]}"}]}}],
			"usageMetadata":{"promptTokenCount":12,"candidatesTokenCount":8,"totalTokenCount":20},
			"modelVersion":"gemini-test-001"
		}`))
	}))
	defer server.Close()

	client, err := NewGeminiClient(context.Background(), GeminiClientConfig{APIKey: "test-key", BaseURL: server.URL})
	require.NoError(t, err)

	result, err := client.Generate(context.Background(), GenerateRequest{
		Model:        "gemini-test",
		Instructions: "Return JSON only",
		Input:        "draft an icp",
		Temperature:  0.2,
	})
	require.NoError(t, err)
	assert.Equal(t, `{"industry_keywords":["payroll"]}`, result.Text)
	assert.Equal(t, "gemini-test-001", result.ModelID)
	assert.Equal(t, 20, result.Usage.TotalTokens)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}
