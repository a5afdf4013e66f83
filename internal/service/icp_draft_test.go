package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iago/outreach-leadgen/internal/ai"
	"github.com/iago/outreach-leadgen/internal/domain"
	"github.com/iago/outreach-leadgen/internal/policy"
)

type fakeGenerator struct {
	available bool
	responses map[string]string
	errs      map[string]error
	requests  []ai.GenerateRequest
}

func (g *fakeGenerator) Available() bool { return g.available }

func (g *fakeGenerator) Generate(_ context.Context, request ai.GenerateRequest) (ai.GenerateResult, error) {
	g.requests = append(g.requests, request)
	if err := g.errs[request.Model]; err != nil {
		return ai.GenerateResult{}, err
	}
	return ai.GenerateResult{Text: g.responses[request.Model], ModelID: request.Model}, nil
}

func newDraftService(generator ai.TextGenerator) *DraftService {
	return NewDraftService(DraftDependencies{
		Router: ai.NewModelRouter(ai.ModelRouterConfig{DraftPrimary: "primary", DraftFallback: "secondary"}),
		Client: generator,
	})
}

const draftJSON = "```json\n" + `{
  "positions": {"titles_strict": ["Head of People", "head of people", ""], "seniority": ["head"]},
  "industries": ["Human Resources"],
  "industry_keywords": ["payroll"]
}` + "\n```"

func TestDraftICPParsesFencedModelOutput(t *testing.T) {
	generator := &fakeGenerator{available: true, responses: map[string]string{"primary": draftJSON}}
	svc := newDraftService(generator)

	result, err := svc.DraftICP(context.Background(), DraftRequest{
		ProductName:        "PayFlow",
		ProductDescription: "Payroll automation. Contact sales@payflow.io",
		Countries:          []string{"Brazil"},
	})
	require.NoError(t, err)
	assert.False(t, result.Fallback)
	assert.Equal(t, "primary", result.ModelID)
	require.NotNil(t, result.Icp.Positions)
	assert.Equal(t, []string{"Head of People"}, result.Icp.Positions.TitlesStrict)
	require.NotNil(t, result.Icp.Geo)
	assert.Equal(t, []string{"Brazil"}, result.Icp.Geo.Countries)
	assert.InDelta(t, 0.9, result.QualityScore, 0.001)

	require.Len(t, generator.requests, 1)
	prompt := generator.requests[0].Input
	assert.Contains(t, prompt, "Product: PayFlow")
	assert.Contains(t, prompt, "Countries: Brazil")
	assert.NotContains(t, prompt, "sales@payflow.io")
}

func TestDraftICPUsesCacheForRepeatedRequest(t *testing.T) {
	generator := &fakeGenerator{available: true, responses: map[string]string{"primary": draftJSON}}
	svc := newDraftService(generator)
	request := DraftRequest{ProductName: "PayFlow", ProductDescription: "Payroll automation"}

	_, err := svc.DraftICP(context.Background(), request)
	require.NoError(t, err)
	second, err := svc.DraftICP(context.Background(), DraftRequest{ProductName: " payflow ", ProductDescription: "PAYROLL automation"})
	require.NoError(t, err)

	assert.True(t, second.CacheHit)
	assert.Len(t, generator.requests, 1)
}

func TestDraftICPTriesFallbackModel(t *testing.T) {
	generator := &fakeGenerator{
		available: true,
		responses: map[string]string{"secondary": `{"industry_keywords":["payroll"]}`},
		errs:      map[string]error{"primary": errors.New("openrouter status 503: busy")},
	}
	svc := newDraftService(generator)

	result, err := svc.DraftICP(context.Background(), DraftRequest{ProductName: "PayFlow"})
	require.NoError(t, err)
	assert.Equal(t, "secondary", result.ModelID)
	assert.Equal(t, []string{"payroll"}, result.Icp.IndustryKeywords)
}

func TestDraftICPFallsBackToKeywordWithoutModel(t *testing.T) {
	svc := newDraftService(&fakeGenerator{available: false})

	result, err := svc.DraftICP(context.Background(), DraftRequest{ProductName: "PayFlow", SegmentName: "HR"})
	require.NoError(t, err)
	assert.True(t, result.Fallback)
	assert.Equal(t, fallbackModelID, result.ModelID)
	assert.Equal(t, domain.Icp{IndustryKeywords: []string{"PayFlow"}}, result.Icp)
}

func TestDraftICPFallsBackWhenModelReturnsEmptyProfile(t *testing.T) {
	generator := &fakeGenerator{available: true, responses: map[string]string{"primary": `{"industries":[" "]}`}}
	svc := newDraftService(generator)

	result, err := svc.DraftICP(context.Background(), DraftRequest{ProductDescription: "Payroll", SegmentName: "Clinics"})
	require.NoError(t, err)
	assert.True(t, result.Fallback)
	assert.Equal(t, []string{"Clinics"}, result.Icp.IndustryKeywords)
}

func TestDraftICPRejectsPolicyViolations(t *testing.T) {
	svc := newDraftService(&fakeGenerator{available: true})

	_, err := svc.DraftICP(context.Background(), DraftRequest{ProductName: "x", ProductDescription: "malware kit"})
	assert.ErrorIs(t, err, policy.ErrContentPolicyViolation)

	_, err = svc.DraftICP(context.Background(), DraftRequest{})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestExtractJSONFindsObjectInProse(t *testing.T) {
	raw, err := extractJSON(`Sure! {"industry_keywords":["a"]} hope it helps`)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(raw), "{"))

	_, err = extractJSON("no json here")
	assert.Error(t, err)
}
