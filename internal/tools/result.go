package tools

import (
	"encoding/json"
	"fmt"

	"github.com/callsight/callsight/internal/domain"
)

// Result is the uniform payload every tool returns, serialized as the tool's
// output string.
type Result struct {
	Status  string   `json:"status"`
	Message any      `json:"message"`
	Sources []string `json:"sources,omitempty"`
}

// Success serializes a successful result carrying the given message payload.
func Success(message any) string {
	return encode(Result{Status: domain.ToolStatusSuccess, Message: message})
}

// SuccessWithSources serializes a successful result that also names the
// documents it drew from.
func SuccessWithSources(message any, sources []string) string {
	return encode(Result{Status: domain.ToolStatusSuccess, Message: message, Sources: sources})
}

// Failure serializes a failed result with a formatted message.
func Failure(format string, args ...any) string {
	return encode(Result{Status: domain.ToolStatusFailed, Message: fmt.Sprintf(format, args...)})
}

func encode(r Result) string {
	data, err := json.Marshal(r)
	if err != nil {
		// Message payloads are maps and strings decoded from JSON; this
		// only fires on a programming error.
		return `{"status":"failed","message":"unserializable tool result"}`
	}
	return string(data)
}
