package service

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"text/template"

	"github.com/iago/outreach-leadgen/internal/ai"
	"github.com/iago/outreach-leadgen/internal/cache"
	"github.com/iago/outreach-leadgen/internal/domain"
	"github.com/iago/outreach-leadgen/internal/icp"
	"github.com/iago/outreach-leadgen/internal/policy"
	"github.com/iago/outreach-leadgen/internal/quality"
)

const (
	draftPromptVersion = "icp_draft_v1"
	fallbackModelID    = "fallback-local"
)

//go:embed prompts/*.tmpl
var promptFiles embed.FS

var promptTemplates = template.Must(
	template.New("prompts").Funcs(template.FuncMap{"join": strings.Join}).ParseFS(promptFiles, "prompts/*.tmpl"),
)

type DraftRequest struct {
	ProductName        string   `json:"product_name"`
	ProductDescription string   `json:"product_description"`
	SegmentName        string   `json:"segment_name"`
	SegmentDescription string   `json:"segment_description"`
	Countries          []string `json:"countries"`
}

type DraftResult struct {
	Icp           domain.Icp `json:"icp"`
	ModelID       string     `json:"model_id"`
	PromptVersion string     `json:"prompt_version"`
	QualityScore  float64    `json:"quality_score"`
	CacheHit      bool       `json:"cache_hit"`
	Fallback      bool       `json:"fallback"`
}

type DraftDependencies struct {
	Router    *ai.ModelRouter
	Client    ai.TextGenerator
	Cache     *cache.DraftCache
	Validator *quality.IcpValidator
	Logger    *log.Logger
}

// DraftService proposes an ICP for a product description using a language
// model. When no model answers it degrades to a keyword-only profile.
type DraftService struct {
	router    *ai.ModelRouter
	client    ai.TextGenerator
	cache     *cache.DraftCache
	validator *quality.IcpValidator
	logger    *log.Logger
}

func NewDraftService(deps DraftDependencies) *DraftService {
	if deps.Router == nil {
		deps.Router = ai.NewModelRouter(ai.ModelRouterConfig{})
	}
	if deps.Cache == nil {
		deps.Cache = cache.NewDraftCache(cache.Config{})
	}
	if deps.Validator == nil {
		deps.Validator = quality.NewIcpValidator()
	}
	return &DraftService{
		router:    deps.Router,
		client:    deps.Client,
		cache:     deps.Cache,
		validator: deps.Validator,
		logger:    deps.Logger,
	}
}

func (s *DraftService) DraftICP(ctx context.Context, request DraftRequest) (DraftResult, error) {
	request = trimDraftRequest(request)
	if request.ProductName == "" && request.ProductDescription == "" {
		return DraftResult{}, fmt.Errorf("%w: product_name or product_description is required", ErrInvalidInput)
	}
	if err := policy.CheckDraftText(request.ProductName, request.ProductDescription, request.SegmentName, request.SegmentDescription); err != nil {
		return DraftResult{}, err
	}

	signature := cache.BuildSignature(
		string(ai.TaskICPDraft),
		draftPromptVersion,
		request.ProductName,
		request.ProductDescription,
		request.SegmentName,
		request.SegmentDescription,
		strings.Join(request.Countries, ","),
	)
	if cached, ok := s.cache.Get(signature); ok {
		return DraftResult{
			Icp:           cached.Icp,
			ModelID:       firstNonEmpty(cached.ModelID, "cache-hit"),
			PromptVersion: firstNonEmpty(cached.PromptVersion, draftPromptVersion),
			QualityScore:  cached.Score,
			CacheHit:      true,
		}, nil
	}

	prompt, err := renderPrompt(draftPromptVersion+".tmpl", maskDraftRequest(request))
	if err != nil {
		s.logf("render prompt failed for icp draft: %v", err)
		return s.fallbackDraft(request), nil
	}

	text, modelID, err := s.generateText(ctx, s.router.Select(ai.TaskICPDraft), prompt)
	if err != nil {
		s.logf("icp draft generation failed, using fallback: %v", err)
		return s.fallbackDraft(request), nil
	}

	profile, err := parseDraftIcp(text)
	if err != nil {
		s.logf("parse icp draft failed, using fallback: model=%s err=%v", modelID, err)
		return s.fallbackDraft(request), nil
	}
	profile, report, err := s.validator.Validate(withCountries(profile, request.Countries))
	if err != nil {
		s.logf("validate icp draft failed, using fallback: model=%s err=%v", modelID, err)
		return s.fallbackDraft(request), nil
	}
	if len(report.Dropped) > 0 {
		s.logf("icp draft cleaned model=%s dropped=%s", modelID, strings.Join(report.Dropped, ","))
	}

	s.cache.Set(signature, cache.Entry{Icp: profile, ModelID: modelID, PromptVersion: draftPromptVersion, Score: report.Score})
	return DraftResult{Icp: profile, ModelID: modelID, PromptVersion: draftPromptVersion, QualityScore: report.Score}, nil
}

func (s *DraftService) fallbackDraft(request DraftRequest) DraftResult {
	profile, _ := icp.WithFallbackKeyword(domain.Icp{}, request.ProductName, request.SegmentName)
	return DraftResult{
		Icp:           withCountries(profile, request.Countries),
		ModelID:       fallbackModelID,
		PromptVersion: draftPromptVersion,
		Fallback:      true,
	}
}

func (s *DraftService) generateText(ctx context.Context, profile ai.ModelProfile, prompt string) (string, string, error) {
	if s.client == nil || !s.client.Available() {
		return "", "", ai.ErrGeneratorUnavailable
	}

	request := ai.GenerateRequest{
		Model:           profile.PrimaryModel,
		Instructions:    "Return only valid JSON. Do not use markdown code fences.",
		Input:           prompt,
		Temperature:     profile.Temperature,
		MaxOutputTokens: profile.MaxOutputTokens,
	}
	primary, err := s.client.Generate(ctx, request)
	if err == nil {
		return primary.Text, firstNonEmpty(primary.ModelID, profile.PrimaryModel), nil
	}

	if strings.TrimSpace(profile.FallbackModel) == "" || profile.FallbackModel == profile.PrimaryModel {
		return "", "", err
	}

	request.Model = profile.FallbackModel
	fallback, fallbackErr := s.client.Generate(ctx, request)
	if fallbackErr != nil {
		return "", "", fmt.Errorf("primary model failed: %v; fallback failed: %w", err, fallbackErr)
	}
	return fallback.Text, firstNonEmpty(fallback.ModelID, profile.FallbackModel), nil
}

func renderPrompt(name string, data any) (string, error) {
	buffer := bytes.NewBuffer(nil)
	if err := promptTemplates.ExecuteTemplate(buffer, name, data); err != nil {
		return "", fmt.Errorf("execute template %s: %w", name, err)
	}
	return buffer.String(), nil
}

func parseDraftIcp(text string) (domain.Icp, error) {
	rawJSON, err := extractJSON(text)
	if err != nil {
		return domain.Icp{}, err
	}

	var parsed domain.Icp
	if err := json.Unmarshal(rawJSON, &parsed); err != nil {
		return domain.Icp{}, fmt.Errorf("decode icp json: %w", err)
	}

	// Merging with nothing drops blanks and duplicates from every list.
	profile := icp.Merge(parsed)
	if icp.IsEmpty(profile) {
		return domain.Icp{}, errors.New("model returned an empty icp")
	}
	return profile, nil
}

func withCountries(profile domain.Icp, countries []string) domain.Icp {
	if len(countries) == 0 {
		return profile
	}
	return icp.Merge(profile, domain.Icp{Geo: &domain.Geo{Countries: countries}})
}

func trimDraftRequest(request DraftRequest) DraftRequest {
	request.ProductName = strings.TrimSpace(request.ProductName)
	request.ProductDescription = strings.TrimSpace(request.ProductDescription)
	request.SegmentName = strings.TrimSpace(request.SegmentName)
	request.SegmentDescription = strings.TrimSpace(request.SegmentDescription)

	countries := make([]string, 0, len(request.Countries))
	for _, country := range request.Countries {
		if trimmed := strings.TrimSpace(country); trimmed != "" {
			countries = append(countries, trimmed)
		}
	}
	request.Countries = countries
	return request
}

func maskDraftRequest(request DraftRequest) DraftRequest {
	request.ProductName = policy.MaskPII(request.ProductName)
	request.ProductDescription = policy.MaskPII(request.ProductDescription)
	request.SegmentName = policy.MaskPII(request.SegmentName)
	request.SegmentDescription = policy.MaskPII(request.SegmentDescription)
	return request
}

func extractJSON(text string) ([]byte, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, errors.New("empty model output")
	}

	if strings.HasPrefix(trimmed, "```") {
		trimmed = stripCodeFence(trimmed)
	}

	var decoded any
	if err := json.Unmarshal([]byte(trimmed), &decoded); err == nil {
		return []byte(trimmed), nil
	}

	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start >= 0 && end > start {
		candidate := trimmed[start : end+1]
		if err := json.Unmarshal([]byte(candidate), &decoded); err == nil {
			return []byte(candidate), nil
		}
	}

	return nil, errors.New("model output is not valid JSON")
}

func stripCodeFence(text string) string {
	trimmed := strings.TrimSpace(text)
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimPrefix(trimmed, "json")
	trimmed = strings.TrimSuffix(trimmed, "```")
	return strings.TrimSpace(trimmed)
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		trimmed := strings.TrimSpace(value)
		if trimmed != "" {
			return trimmed
		}
	}
	return ""
}

func (s *DraftService) logf(format string, args ...any) {
	if s.logger != nil {
		s.logger.Printf(format, args...)
	}
}
