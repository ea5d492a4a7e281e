package tools

import (
	"context"
	"encoding/json"

	"github.com/callsight/callsight/internal/domain"
)

// SendEmailTool acknowledges an email suggestion. It has no delivery side
// effect; the acknowledged subject/body surface to the agent desktop, which
// owns actual sending.
type SendEmailTool struct{}

func (t *SendEmailTool) Name() string { return domain.ToolSendEmail }

func (t *SendEmailTool) Description() string {
	return "Suggest an email to send to the customer. Use when the customer requests confirmation, follow-up, or cannot stay on the call."
}

func (t *SendEmailTool) InputSchema() string {
	return `{"type":"object","properties":{"subject":{"type":"string","description":"Email subject line"},"body":{"type":"string","description":"Email body content"}},"required":["subject","body"]}`
}

func (t *SendEmailTool) Execute(ctx context.Context, input string) (string, error) {
	var args struct {
		Subject string `json:"subject"`
		Body    string `json:"body"`
	}
	if err := json.Unmarshal([]byte(input), &args); err != nil {
		return Failure("invalid arguments: %v", err), nil
	}
	return Success("Email will be sent shortly"), nil
}
