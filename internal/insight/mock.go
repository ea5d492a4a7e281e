package insight

import (
	"context"

	"github.com/callsight/callsight/internal/domain"
)

// MockAnalyzer is a test double for Analyzer.
type MockAnalyzer struct {
	AnalyzeFunc func(ctx context.Context, doc ContextDocument) (*Analysis, error)
	Docs        []ContextDocument
}

func (m *MockAnalyzer) Analyze(ctx context.Context, doc ContextDocument) (*Analysis, error) {
	m.Docs = append(m.Docs, doc)
	if m.AnalyzeFunc != nil {
		return m.AnalyzeFunc(ctx, doc)
	}
	return &Analysis{}, nil
}

// MockSummarizer is a test double for Summarizer.
type MockSummarizer struct {
	SummarizeFunc func(ctx context.Context, timeline []domain.WindowDigest) (*domain.AnalyticsRecord, error)
	Timelines     [][]domain.WindowDigest
}

func (m *MockSummarizer) Summarize(ctx context.Context, timeline []domain.WindowDigest) (*domain.AnalyticsRecord, error) {
	m.Timelines = append(m.Timelines, timeline)
	if m.SummarizeFunc != nil {
		return m.SummarizeFunc(ctx, timeline)
	}
	return &domain.AnalyticsRecord{}, nil
}
