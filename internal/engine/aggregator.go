package engine

import (
	"context"
	"time"

	"github.com/callsight/callsight/internal/domain"
)

// FinalizeCall runs the one-shot aggregation pass after a call ends: fetch
// the call's full window log oldest-first, hand the merged timeline to the
// summarizer, and persist the resulting analytics record keyed by the
// client. A second finalize for the same client writes a new record; recency
// is resolved at read time.
func (e *Engine) FinalizeCall(ctx context.Context, callID, clientEmail string) (*domain.AnalyticsRecord, error) {
	if callID == "" {
		return nil, &InputError{Reason: "callId is required"}
	}
	if clientEmail == "" {
		return nil, &InputError{Reason: "clientEmail is required"}
	}

	start := e.now()
	log := e.log.Sub("finalize")
	log.Info().Str("callId", callID).Str("clientEmail", clientEmail).Msg("finalizing call")

	windows, err := e.store.AllWindows(ctx, callID)
	if err != nil {
		return nil, &StoreError{Op: "reading call windows", Err: err}
	}

	// AllWindows orders by window number; the summarizer's derived metrics
	// depend on receiving the timeline in that order.
	timeline := make([]domain.WindowDigest, 0, len(windows))
	for _, w := range windows {
		timeline = append(timeline, w.Digest())
	}

	record, err := e.summarizer.Summarize(ctx, timeline)
	if err != nil {
		return nil, &UpstreamError{Op: "summarizing call", Err: err}
	}

	record.ClientEmail = clientEmail
	record.CallID = callID
	record.CreatedAt = e.now()

	if err := e.store.PutAnalytics(ctx, *record); err != nil {
		log.Error().Err(err).
			Str("callId", callID).
			Str("clientEmail", clientEmail).
			Msg("analytics write failed, returning record anyway")
	}

	log.Info().
		Str("callId", callID).
		Int("windows", len(windows)).
		Dur("duration", time.Since(start)).
		Msg("call finalized")

	return record, nil
}
