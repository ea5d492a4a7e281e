// Package insight hosts the two model-backed services the engine consumes:
// the analyzer, which reads one window of conversation in context and
// produces advisory tips plus a raw tool-use trace, and the summarizer, which
// folds a finished call's timeline into a single analytics record.
package insight

import (
	"context"
	"fmt"

	"github.com/callsight/callsight/internal/domain"
	"github.com/callsight/callsight/internal/trace"
)

// CurrentWindow is the slice of conversation under analysis.
type CurrentWindow struct {
	Turns []domain.Turn `json:"turns"`
}

// HistoryWindow is one earlier window supplied as read-only context.
type HistoryWindow struct {
	WindowNum    int                     `json:"windowNum"`
	Turns        []domain.Turn           `json:"turns"`
	AiTips       []domain.AiTip          `json:"aiTips"`
	ActivityFeed []domain.ToolCallRecord `json:"activityFeed"`
}

// ContextDocument is the single structured document handed to the analyzer:
// the current window, every earlier window of the call oldest-first, and the
// memory carried over from the customer's previous call.
type ContextDocument struct {
	CurrentWindow   CurrentWindow    `json:"current_window"`
	CallHistory     []HistoryWindow  `json:"call_history"`
	PastCallSummary domain.MemoryBox `json:"past_call_summary"`
}

// Analysis is the analyzer's output for one window.
type Analysis struct {
	Tips  []domain.AiTip
	Trace []trace.Entry
}

// Analyzer produces tips and a tool-use trace for one window.
type Analyzer interface {
	Analyze(ctx context.Context, doc ContextDocument) (*Analysis, error)
}

// Summarizer folds a call's full window timeline into an analytics record.
// The returned record carries only model-derived fields; identity keys are
// the caller's responsibility.
type Summarizer interface {
	Summarize(ctx context.Context, timeline []domain.WindowDigest) (*domain.AnalyticsRecord, error)
}

// ResponseError reports a model response that could not be decoded into the
// expected structured shape.
type ResponseError struct {
	Raw string
	Err error
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("insight: undecodable model response: %v", e.Err)
}

func (e *ResponseError) Unwrap() error { return e.Err }
