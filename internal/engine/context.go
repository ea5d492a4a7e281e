package engine

import (
	"context"

	"github.com/callsight/callsight/internal/domain"
	"github.com/callsight/callsight/internal/insight"
)

// buildContext assembles the document handed to the analyzer: the current
// turns, every earlier window of the call oldest-first, and the memory from
// the client's most recent finished call. Store read failures degrade to
// empty context rather than failing the window.
func (e *Engine) buildContext(ctx context.Context, callID string, windowNum int, turns []domain.Turn, clientEmail string) insight.ContextDocument {
	doc := insight.ContextDocument{
		CurrentWindow: insight.CurrentWindow{Turns: turns},
		CallHistory:   []insight.HistoryWindow{},
	}

	prior, err := e.store.WindowsBefore(ctx, callID, windowNum)
	if err != nil {
		e.log.Warn().Err(err).Str("callId", callID).Msg("history read failed, proceeding without")
	}
	for _, w := range prior {
		doc.CallHistory = append(doc.CallHistory, insight.HistoryWindow{
			WindowNum:    w.WindowNum,
			Turns:        w.Turns,
			AiTips:       w.AiTips,
			ActivityFeed: w.ActivityFeed,
		})
	}

	if clientEmail != "" {
		rec, err := e.store.LatestAnalytics(ctx, clientEmail)
		switch {
		case err != nil:
			e.log.Warn().Err(err).Str("clientEmail", clientEmail).Msg("memory read failed, proceeding without")
		case rec != nil:
			doc.PastCallSummary = rec.Memory
		}
	}

	return doc
}
