package ai

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/iago/outreach-leadgen/internal/retry"
)

type GeminiClientConfig struct {
	APIKey string
	// BaseURL overrides the Gemini API base URL. Useful for proxies/testing.
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
}

// GeminiClient generates JSON text through the Gemini API.
type GeminiClient struct {
	client     *genai.Client
	timeout    time.Duration
	maxRetries int
}

func NewGeminiClient(ctx context.Context, config GeminiClientConfig) (*GeminiClient, error) {
	if strings.TrimSpace(config.APIKey) == "" {
		return nil, ErrGeneratorUnavailable
	}
	if config.Timeout <= 0 {
		config.Timeout = 20 * time.Second
	}
	if config.MaxRetries <= 0 {
		config.MaxRetries = 2
	}

	cc := &genai.ClientConfig{
		APIKey:  strings.TrimSpace(config.APIKey),
		Backend: genai.BackendGeminiAPI,
	}
	if strings.TrimSpace(config.BaseURL) != "" {
		cc.HTTPOptions.BaseURL = strings.TrimSpace(config.BaseURL)
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &GeminiClient{
		client:     client,
		timeout:    config.Timeout,
		maxRetries: config.MaxRetries,
	}, nil
}

func (c *GeminiClient) Available() bool {
	return c != nil && c.client != nil
}

func (c *GeminiClient) Generate(ctx context.Context, request GenerateRequest) (GenerateResult, error) {
	if !c.Available() {
		return GenerateResult{}, ErrGeneratorUnavailable
	}
	if err := validateRequest(request); err != nil {
		return GenerateResult{}, err
	}

	config := &genai.GenerateContentConfig{
		CandidateCount:   1,
		ResponseMIMEType: "application/json",
		Temperature:      genai.Ptr(float32(request.Temperature)),
	}
	if request.MaxOutputTokens > 0 {
		config.MaxOutputTokens = int32(request.MaxOutputTokens)
	}
	if instructions := strings.TrimSpace(request.Instructions); instructions != "" {
		config.SystemInstruction = genai.NewContentFromText(instructions, genai.RoleUser)
	}

	policy := retry.Policy{
		MaxAttempts: c.maxRetries + 1,
		BaseDelay:   500 * time.Millisecond,
		MaxDelay:    4 * time.Second,
		Retryable:   isRetryableProviderError,
	}
	return retry.Do(ctx, policy, func(ctx context.Context) (GenerateResult, error) {
		return c.generateOnce(ctx, request, config)
	})
}

func (c *GeminiClient) generateOnce(
	ctx context.Context,
	request GenerateRequest,
	config *genai.GenerateContentConfig,
) (GenerateResult, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	response, err := c.client.Models.GenerateContent(timeoutCtx, request.Model, genai.Text(request.Input), config)
	if err != nil {
		return GenerateResult{}, classifyGeminiError(err)
	}

	text := strings.TrimSpace(response.Text())
	if text == "" {
		return GenerateResult{}, errors.New("gemini response without text output")
	}

	result := GenerateResult{
		Text:    text,
		ModelID: providerFirstNonEmpty(response.ModelVersion, request.Model),
	}
	if usage := response.UsageMetadata; usage != nil {
		result.Usage = TokenUsage{
			InputTokens:  int(usage.PromptTokenCount),
			OutputTokens: int(usage.CandidatesTokenCount),
			TotalTokens:  int(usage.TotalTokenCount),
		}
	}
	return result, nil
}

// classifyGeminiError maps SDK errors onto the shared provider error so the
// retry predicate treats every backend alike.
func classifyGeminiError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &providerHTTPError{Provider: "gemini", StatusCode: apiErr.Code, Message: apiErr.Message}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("gemini timeout: %w", err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("gemini timeout: %w", err)
	}
	return fmt.Errorf("gemini: %w", err)
}
