// Package engine implements the windowed call analysis core: per-window
// processing during a live call and the single aggregation pass after it
// ends. All collaborators come in through interfaces so each piece is
// testable with substitutes.
package engine

import (
	"context"
	"time"

	"github.com/callsight/callsight/internal/domain"
	"github.com/callsight/callsight/internal/insight"
	"github.com/callsight/callsight/internal/logging"
)

// Store is the history store surface the engine depends on: an append-only
// window log per call, ordered by window number, and an analytics index per
// client, ordered by creation time.
type Store interface {
	PutWindow(ctx context.Context, w domain.Window) error
	WindowsBefore(ctx context.Context, callID string, windowNum int) ([]domain.Window, error)
	AllWindows(ctx context.Context, callID string) ([]domain.Window, error)
	PutAnalytics(ctx context.Context, rec domain.AnalyticsRecord) error
	LatestAnalytics(ctx context.Context, clientEmail string) (*domain.AnalyticsRecord, error)
}

// Engine orchestrates window processing and call finalization.
type Engine struct {
	store      Store
	analyzer   insight.Analyzer
	summarizer insight.Summarizer
	log        *logging.Logger

	// now is injectable for tests.
	now func() time.Time
}

// New creates an engine.
func New(store Store, analyzer insight.Analyzer, summarizer insight.Summarizer, log *logging.Logger) *Engine {
	return &Engine{
		store:      store,
		analyzer:   analyzer,
		summarizer: summarizer,
		log:        log.Sub("engine"),
		now:        time.Now,
	}
}
