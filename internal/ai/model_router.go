package ai

import "strings"

type TaskKind string

const (
	// TaskICPDraft turns a product/segment description into ICP filters.
	TaskICPDraft TaskKind = "icp_draft"
	// TaskKeywordExpansion proposes extra industry keywords for a thin ICP.
	TaskKeywordExpansion TaskKind = "keyword_expansion"
)

type ModelProfile struct {
	PrimaryModel    string
	FallbackModel   string
	Temperature     float64
	MaxOutputTokens int
}

type ModelRouterConfig struct {
	DraftPrimary  string
	DraftFallback string

	KeywordsPrimary  string
	KeywordsFallback string
}

type ModelRouter struct {
	config ModelRouterConfig
}

func NewModelRouter(config ModelRouterConfig) *ModelRouter {
	if strings.TrimSpace(config.DraftPrimary) == "" {
		config.DraftPrimary = "openai/gpt-4.1-mini"
	}
	if strings.TrimSpace(config.DraftFallback) == "" {
		config.DraftFallback = "openai/gpt-4.1-nano"
	}
	if strings.TrimSpace(config.KeywordsPrimary) == "" {
		config.KeywordsPrimary = config.DraftFallback
	}
	if strings.TrimSpace(config.KeywordsFallback) == "" {
		config.KeywordsFallback = config.DraftFallback
	}

	return &ModelRouter{config: config}
}

func (r *ModelRouter) Select(task TaskKind) ModelProfile {
	switch task {
	case TaskKeywordExpansion:
		return ModelProfile{
			PrimaryModel:    r.config.KeywordsPrimary,
			FallbackModel:   r.config.KeywordsFallback,
			Temperature:     0.4,
			MaxOutputTokens: 300,
		}
	default:
		return ModelProfile{
			PrimaryModel:    r.config.DraftPrimary,
			FallbackModel:   r.config.DraftFallback,
			Temperature:     0.2,
			MaxOutputTokens: 900,
		}
	}
}
