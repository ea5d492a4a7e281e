package trace

import (
	"encoding/json"
	"fmt"

	"github.com/callsight/callsight/internal/domain"
)

// ParseError reports a result entry whose content could not be decoded.
type ParseError struct {
	ToolCallID string
	Err        error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("trace: undecodable result content for tool call %q: %v", e.ToolCallID, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Extract reconstructs tool call records from a raw trace.
//
// Entries are scanned in order. For every assistant entry, each requested
// invocation is matched against the entry immediately following the assistant
// entry: if that entry is a result whose ToolCallID equals the request's ID,
// the record takes the result's status and payload. Otherwise the record is
// still emitted with empty output and a default status of success.
//
// For the manuals-search tool a successful result's sources list becomes the
// record's output; every other matched result contributes its message field.
// Records are emitted in request order. The only failure mode is a result
// entry whose content is not valid JSON, which returns a *ParseError.
func Extract(entries []Entry) ([]domain.ToolCallRecord, error) {
	var records []domain.ToolCallRecord

	for i, entry := range entries {
		if entry.Kind != KindAssistant || len(entry.Requests) == 0 {
			continue
		}

		for _, req := range entry.Requests {
			record := domain.ToolCallRecord{
				Name:   req.Name,
				Input:  req.Args,
				Status: domain.ToolStatusSuccess,
			}

			// The contract assumes a request's result is the very next
			// entry; anything else degrades to the permissive default.
			if i+1 < len(entries) {
				next := entries[i+1]
				if next.Kind == KindToolResult && next.ToolCallID == req.ID {
					var payload resultPayload
					if err := json.Unmarshal([]byte(next.Content), &payload); err != nil {
						return nil, &ParseError{ToolCallID: next.ToolCallID, Err: err}
					}

					record.Status = payload.Status
					if req.Name == domain.ToolSearchCompanyManuals && payload.Status == domain.ToolStatusSuccess {
						sources, err := json.Marshal(payload.Sources)
						if err != nil {
							return nil, &ParseError{ToolCallID: next.ToolCallID, Err: err}
						}
						record.Output = string(sources)
					} else {
						record.Output = string(payload.Message)
					}
				}
			}

			records = append(records, record)
		}
	}

	return records, nil
}
