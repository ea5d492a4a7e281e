// Package trace models the raw execution trace of a reasoning turn and
// reconstructs structured tool call records from it.
//
// A trace is an ordered sequence of entries. Assistant entries carry the tool
// invocations the model requested; result entries carry the serialized
// {status, message} payload a tool produced for one of those requests.
package trace

import "encoding/json"

// Kind discriminates the two entry variants.
type Kind string

const (
	KindAssistant  Kind = "assistant"
	KindToolResult Kind = "tool_result"
)

// Request is a single tool invocation requested by an assistant entry.
type Request struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Args string `json:"args"` // argument map, serialized verbatim
}

// Entry is one element of a trace. Exactly one variant is populated,
// selected by Kind; use Assistant or ToolResult to construct entries.
type Entry struct {
	Kind Kind `json:"kind"`

	// Assistant variant: zero or more requested tool invocations.
	Requests []Request `json:"requests,omitempty"`

	// ToolResult variant: the request this result answers and the tool's
	// serialized {status, message[, sources]} payload.
	ToolCallID string `json:"toolCallId,omitempty"`
	Content    string `json:"content,omitempty"`
}

// Assistant builds an assistant entry with the given tool requests.
func Assistant(requests ...Request) Entry {
	return Entry{Kind: KindAssistant, Requests: requests}
}

// ToolResult builds a result entry for the given tool call ID.
func ToolResult(toolCallID, content string) Entry {
	return Entry{Kind: KindToolResult, ToolCallID: toolCallID, Content: content}
}

// resultPayload is the decoded form of a result entry's content.
type resultPayload struct {
	Status  string          `json:"status"`
	Message json.RawMessage `json:"message"`
	Sources []string        `json:"sources"`
}
