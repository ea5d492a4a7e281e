package insight

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/callsight/callsight/internal/domain"
	"github.com/callsight/callsight/internal/llm"
	"github.com/callsight/callsight/internal/logging"
)

// SummarizerConfig configures the post-call summarizer.
type SummarizerConfig struct {
	Model       string
	MaxTokens   int
	Temperature *float64
}

// LLMSummarizer produces the post-call analytics record with a single
// completion over the ordered window timeline. No tools are involved.
type LLMSummarizer struct {
	cfg      SummarizerConfig
	registry *llm.Registry
	log      *logging.Logger
}

// NewLLMSummarizer creates a post-call summarizer.
func NewLLMSummarizer(cfg SummarizerConfig, registry *llm.Registry, log *logging.Logger) *LLMSummarizer {
	return &LLMSummarizer{
		cfg:      cfg,
		registry: registry,
		log:      log.Sub("summarizer"),
	}
}

// Summarize folds the call timeline into one analytics record.
func (s *LLMSummarizer) Summarize(ctx context.Context, timeline []domain.WindowDigest) (*domain.AnalyticsRecord, error) {
	start := time.Now()

	client, err := s.registry.Resolve(s.cfg.Model)
	if err != nil {
		return nil, fmt.Errorf("resolve model: %w", err)
	}

	payload, err := json.Marshal(timeline)
	if err != nil {
		return nil, fmt.Errorf("encode timeline: %w", err)
	}

	s.log.Info().Int("windows", len(timeline)).Msg("summarizing call")

	resp, err := client.Complete(ctx, llm.CompletionRequest{
		Model:       s.cfg.Model,
		System:      summarizerSystemPrompt,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: string(payload)}},
		MaxTokens:   s.cfg.MaxTokens,
		Temperature: s.cfg.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("LLM completion: %w", err)
	}

	record, err := parseAnalytics(resp.Content)
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("model", resp.Model).
		Str("sentiment", record.Sentiment.Label).
		Bool("resolved", record.IssueResolution.Resolved).
		Dur("duration", time.Since(start)).
		Msg("call summarized")

	return record, nil
}

// parseAnalytics decodes the model's analytics object, tolerating a fenced
// block the way the tips parser does.
func parseAnalytics(content string) (*domain.AnalyticsRecord, error) {
	raw := strings.TrimSpace(content)
	if m := jsonFencePattern.FindStringSubmatch(raw); m != nil {
		raw = m[1]
	}

	var record domain.AnalyticsRecord
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		return nil, &ResponseError{Raw: content, Err: err}
	}
	return &record, nil
}
