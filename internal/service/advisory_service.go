package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/itqan-erp/procurement-api/internal/advisory"
	"github.com/itqan-erp/procurement-api/internal/domain"
	"go.uber.org/zap"
)

// AdvisoryService produces executive summaries of procurement data through an
// external generative endpoint. When the endpoint is unavailable it answers
// with a configured fallback text instead of failing the request.
type AdvisoryService struct {
	client   *advisory.Client
	fallback string
	logger   *zap.Logger
}

// NewAdvisoryService creates a new advisory service. The client may be nil
// when the feature is disabled.
func NewAdvisoryService(client *advisory.Client, fallback string, logger *zap.Logger) *AdvisoryService {
	return &AdvisoryService{
		client:   client,
		fallback: fallback,
		logger:   logger,
	}
}

// Analyze sends the caller's context data to the generative endpoint and
// returns the summary text. Any failure yields the fallback text.
func (s *AdvisoryService) Analyze(ctx context.Context, req *domain.AdvisoryRequest) *domain.AdvisoryResponse {
	if !s.client.IsEnabled() {
		return &domain.AdvisoryResponse{Text: s.fallback}
	}

	contextJSON, err := json.Marshal(req.ContextData)
	if err != nil {
		s.logger.Warn("failed to encode advisory context", zap.Error(err))
		return &domain.AdvisoryResponse{Text: s.fallback}
	}

	prompt := fmt.Sprintf(
		"Act as a procurement expert system (Itqan). Analyze the following data JSON:\n%s\n\nTask: Provide a concise executive summary in Arabic regarding risks, budget adherence, or anomalies.",
		contextJSON,
	)

	text, err := s.client.Generate(ctx, prompt)
	if err != nil {
		s.logger.Warn("advisory generation failed, returning fallback",
			zap.String("prompt_type", req.PromptType),
			zap.Error(err),
		)
		return &domain.AdvisoryResponse{Text: s.fallback}
	}

	return &domain.AdvisoryResponse{Text: text}
}
