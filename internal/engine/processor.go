package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/callsight/callsight/internal/domain"
	"github.com/callsight/callsight/internal/trace"
)

// WindowRequest is one window of a live call submitted for processing.
// Window numbers are caller-assigned and must be monotonic and unique within
// a call; the engine does not serialize concurrent submissions for the same
// window.
type WindowRequest struct {
	CallID      string        `json:"callId"`
	WindowNum   int           `json:"windowNum"`
	Turns       []domain.Turn `json:"turns"`
	ClientEmail string        `json:"clientEmail,omitempty"`
}

// WindowResult is the outcome of processing one window. It covers this
// window only, not the accumulated call.
type WindowResult struct {
	AiTips       []domain.AiTip          `json:"aiTips"`
	ActivityFeed []domain.ToolCallRecord `json:"activityFeed"`
}

// validate rejects malformed requests before any external call is made.
func (r WindowRequest) validate() error {
	if r.CallID == "" {
		return &InputError{Reason: "callId is required"}
	}
	if r.WindowNum < 0 {
		return &InputError{Reason: "windowNum must be non-negative"}
	}
	if len(r.Turns) == 0 {
		return &InputError{Reason: "turns must be a non-empty list"}
	}
	for i, turn := range r.Turns {
		if turn.Speaker != domain.SpeakerAgent && turn.Speaker != domain.SpeakerCustomer {
			return &InputError{Reason: fmt.Sprintf("turns[%d]: speaker must be agent or customer", i)}
		}
		if turn.Transcript == "" {
			return &InputError{Reason: fmt.Sprintf("turns[%d]: transcript is required", i)}
		}
	}
	return nil
}

// ProcessWindow runs the full per-window pipeline: build context, invoke the
// analyzer, extract the tool activity from its trace, and persist the window.
// A persistence failure after a successful analysis is logged but the
// computed result is still returned; the window is then absent from the
// durable log and the caller decides whether to resubmit.
func (e *Engine) ProcessWindow(ctx context.Context, req WindowRequest) (*WindowResult, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	start := e.now()
	log := e.log.Sub("window")
	log.Info().
		Str("callId", req.CallID).
		Int("windowNum", req.WindowNum).
		Int("turns", len(req.Turns)).
		Msg("processing window")

	doc := e.buildContext(ctx, req.CallID, req.WindowNum, req.Turns, req.ClientEmail)

	analysis, err := e.analyzer.Analyze(ctx, doc)
	if err != nil {
		return nil, &UpstreamError{Op: "analyzing window", Err: err}
	}

	records, err := trace.Extract(analysis.Trace)
	if err != nil {
		return nil, &UpstreamError{Op: "extracting tool activity", Err: err}
	}

	window := domain.Window{
		CallID:       req.CallID,
		WindowNum:    req.WindowNum,
		Turns:        req.Turns,
		AiTips:       analysis.Tips,
		ActivityFeed: records,
		CreatedAt:    e.now(),
	}
	if err := e.store.PutWindow(ctx, window); err != nil {
		log.Error().Err(err).
			Str("callId", req.CallID).
			Int("windowNum", req.WindowNum).
			Msg("window write failed, returning result anyway")
	}

	log.Info().
		Str("callId", req.CallID).
		Int("windowNum", req.WindowNum).
		Int("tips", len(analysis.Tips)).
		Int("toolCalls", len(records)).
		Dur("duration", time.Since(start)).
		Msg("window processed")

	return &WindowResult{AiTips: window.AiTips, ActivityFeed: window.ActivityFeed}, nil
}
