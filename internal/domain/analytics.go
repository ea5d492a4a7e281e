package domain

import "time"

// Sentiment is the overall call sentiment.
type Sentiment struct {
	Score int    `json:"score"` // 0 (negative) to 100 (positive)
	Label string `json:"label"` // "Positive" | "Neutral" | "Negative"
}

// Satisfaction is the predicted customer satisfaction.
type Satisfaction struct {
	Score      int    `json:"score"`      // 0 to 100
	Prediction string `json:"prediction"` // "Satisfied" | "Neutral" | "Dissatisfied"
}

// Emotion is one detected emotion and its intensity.
type Emotion struct {
	Emotion   string `json:"emotion"`
	Intensity int    `json:"intensity"` // 0 to 100
}

// CallMetrics are talk-time splits derived from the full call.
type CallMetrics struct {
	Duration         string `json:"duration"`         // MM:SS
	AgentTalkTime    int    `json:"agentTalkTime"`    // percent of call
	CustomerTalkTime int    `json:"customerTalkTime"` // percent of call
	HoldTime         int    `json:"holdTime"`         // percent of call
}

// IssueResolution captures whether and how the customer's issue was resolved.
type IssueResolution struct {
	Resolved              bool   `json:"resolved"`
	Category              string `json:"category"`
	ResolutionTimeMinutes int    `json:"resolutionTimeMinutes"`
	EscalationRisk        int    `json:"escalationRisk"` // 0 to 100
}

// AgentPerformance rates the agent over the full call.
type AgentPerformance struct {
	ProfessionalismScore      int `json:"professionalismScore"`
	EmpathyScore              int `json:"empathyScore"`
	KnowledgeScore            int `json:"knowledgeScore"`
	AvgResponseLatencySeconds int `json:"avgResponseLatencySeconds"`
}

// MemoryBox carries coaching notes from a customer's previous call into their
// next one. It is read-only input to a new call's first window.
type MemoryBox struct {
	Deliverables     []string `json:"deliverables"`
	ImprovementAreas []string `json:"improvementAreas"`
}

// AnalyticsRecord is the single terminal summary produced once per completed
// call, keyed by ClientEmail with CreatedAt as the recency tiebreak. Records
// are immutable: a later call for the same customer produces a new record.
type AnalyticsRecord struct {
	ClientEmail      string           `json:"clientEmail"`
	CallID           string           `json:"callId"`
	CreatedAt        time.Time        `json:"createdAt"`
	Sentiment        Sentiment        `json:"sentiment"`
	Satisfaction     Satisfaction     `json:"satisfaction"`
	Emotions         []Emotion        `json:"emotions"`
	CallMetrics      CallMetrics      `json:"callMetrics"`
	IssueResolution  IssueResolution  `json:"issueResolution"`
	AgentPerformance AgentPerformance `json:"agentPerformance"`
	KeyInsights      []string         `json:"keyInsights"`
	ActionItems      []string         `json:"actionItems"`
	Tags             []string         `json:"tags"`
	Memory           MemoryBox        `json:"memory"`
}
