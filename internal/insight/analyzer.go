package insight

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/callsight/callsight/internal/domain"
	"github.com/callsight/callsight/internal/llm"
	"github.com/callsight/callsight/internal/logging"
	"github.com/callsight/callsight/internal/tools"
	"github.com/callsight/callsight/internal/trace"
)

// maxToolIterations limits how many tool call rounds the analyzer can perform
// for a single window.
const maxToolIterations = 5

// AnalyzerConfig configures the live-window analyzer.
type AnalyzerConfig struct {
	Model       string
	MaxTokens   int
	Temperature *float64
}

// AgentAnalyzer drives the reasoning model over one conversation window.
// It sends the context document with tool definitions, executes requested
// tools, and loops until the model stops asking for tools, then parses the
// structured tips response.
type AgentAnalyzer struct {
	cfg      AnalyzerConfig
	registry *llm.Registry
	tools    *tools.Registry
	log      *logging.Logger
}

// NewAgentAnalyzer creates a window analyzer.
func NewAgentAnalyzer(cfg AnalyzerConfig, registry *llm.Registry, tr *tools.Registry, log *logging.Logger) *AgentAnalyzer {
	return &AgentAnalyzer{
		cfg:      cfg,
		registry: registry,
		tools:    tr,
		log:      log.Sub("analyzer"),
	}
}

// Analyze runs the tool loop for one window and returns the tips plus the
// full tool activity trace.
func (a *AgentAnalyzer) Analyze(ctx context.Context, doc ContextDocument) (*Analysis, error) {
	start := time.Now()

	client, err := a.registry.Resolve(a.cfg.Model)
	if err != nil {
		return nil, fmt.Errorf("resolve model: %w", err)
	}

	docJSON, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode context document: %w", err)
	}

	messages := []llm.Message{{
		Role:    llm.RoleUser,
		Content: "Please analyze this conversation:\n" + string(docJSON),
	}}
	defs := toolDefinitions(a.tools)

	a.log.Info().
		Int("turns", len(doc.CurrentWindow.Turns)).
		Int("historyWindows", len(doc.CallHistory)).
		Bool("hasMemory", len(doc.PastCallSummary.Deliverables)+len(doc.PastCallSummary.ImprovementAreas) > 0).
		Msg("analyzing window")

	var activity []trace.Entry
	var finalResp *llm.CompletionResponse
	for i := 0; i < maxToolIterations; i++ {
		req := llm.CompletionRequest{
			Model:       a.cfg.Model,
			System:      analyzerSystemPrompt,
			Messages:    messages,
			Tools:       defs,
			MaxTokens:   a.cfg.MaxTokens,
			Temperature: a.cfg.Temperature,
		}

		resp, err := client.Complete(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("LLM completion: %w", err)
		}

		finalResp = resp

		if len(resp.ToolCalls) == 0 {
			// No tool calls — final response
			break
		}

		a.log.Info().Int("toolCalls", len(resp.ToolCalls)).Msg("executing tool calls")

		requests := make([]trace.Request, 0, len(resp.ToolCalls))
		for _, call := range resp.ToolCalls {
			requests = append(requests, trace.Request{
				ID:   call.ID,
				Name: call.Name,
				Args: call.Input,
			})
		}
		activity = append(activity, trace.Assistant(requests...))

		messages = append(messages, llm.Message{
			Role:      llm.RoleAssistant,
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
		})

		results := make([]llm.ToolResult, 0, len(resp.ToolCalls))
		for _, call := range resp.ToolCalls {
			content := a.executeTool(ctx, call)
			activity = append(activity, trace.ToolResult(call.ID, content))
			results = append(results, llm.ToolResult{
				ToolCallID: call.ID,
				Content:    content,
			})
		}
		messages = append(messages, llm.Message{
			Role:        llm.RoleUser,
			ToolResults: results,
		})
		// Loop to let the model process tool results
	}

	if finalResp == nil {
		return nil, fmt.Errorf("no response from LLM")
	}

	tips, err := parseTips(finalResp.Content)
	if err != nil {
		return nil, err
	}

	a.log.Info().
		Str("model", finalResp.Model).
		Int("tips", len(tips)).
		Int("toolEntries", len(activity)).
		Int("inputTokens", finalResp.Usage.InputTokens).
		Int("outputTokens", finalResp.Usage.OutputTokens).
		Dur("duration", time.Since(start)).
		Msg("window analyzed")

	return &Analysis{Tips: tips, Trace: activity}, nil
}

// executeTool runs one requested tool and renders the result for the model.
// Tool errors become failure payloads rather than aborting the window.
func (a *AgentAnalyzer) executeTool(ctx context.Context, call llm.ToolCall) string {
	tool, ok := a.tools.Get(call.Name)
	if !ok {
		a.log.Warn().Str("tool", call.Name).Msg("unknown tool requested")
		return tools.Failure("Unknown tool: %s", call.Name)
	}

	a.log.Debug().Str("tool", call.Name).Str("input", call.Input).Msg("executing tool")

	out, err := tool.Execute(ctx, call.Input)
	if err != nil {
		a.log.Error().Err(err).Str("tool", call.Name).Msg("tool execution failed")
		return tools.Failure("Tool execution failed: %v", err)
	}
	return out
}

// jsonFencePattern matches a ```json fenced block in model output.
var jsonFencePattern = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")

type tipsResponse struct {
	AiTips []domain.AiTip `json:"aiTips"`
}

// parseTips extracts the structured tips object from the model's final
// response. The model is told to respond with bare JSON, but fenced output
// is tolerated.
func parseTips(content string) ([]domain.AiTip, error) {
	raw := strings.TrimSpace(content)
	if m := jsonFencePattern.FindStringSubmatch(raw); m != nil {
		raw = m[1]
	}

	var parsed tipsResponse
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, &ResponseError{Raw: content, Err: err}
	}

	tips := make([]domain.AiTip, 0, len(parsed.AiTips))
	for _, tip := range parsed.AiTips {
		if !domain.ValidTipTag(tip.Tag) {
			return nil, &ResponseError{
				Raw: content,
				Err: fmt.Errorf("invalid tip tag %q", tip.Tag),
			}
		}
		tips = append(tips, tip)
	}
	return tips, nil
}

// toolDefinitions converts the registry's definitions to the LLM wire shape.
func toolDefinitions(tr *tools.Registry) []llm.ToolDefinition {
	defs := tr.Definitions()
	out := make([]llm.ToolDefinition, 0, len(defs))
	for _, d := range defs {
		out = append(out, llm.ToolDefinition{
			Name:        d.Name,
			Description: d.Description,
			InputSchema: d.InputSchema,
		})
	}
	return out
}
