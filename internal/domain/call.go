// Package domain defines the call, window, and analytics types shared across
// the engine.
package domain

import "time"

// Speaker identifies who produced a turn.
type Speaker string

const (
	SpeakerAgent    Speaker = "agent"
	SpeakerCustomer Speaker = "customer"
)

// Turn is one utterance in a call window.
type Turn struct {
	Speaker    Speaker `json:"speaker"`
	Transcript string  `json:"transcript"`
}

// TipTag classifies an advisory tip.
type TipTag string

const (
	TipUrgent     TipTag = "Urgent"
	TipSuggestion TipTag = "Suggestion"
	TipInfo       TipTag = "Info"
)

// ValidTipTag reports whether tag is one of the known tip tags.
func ValidTipTag(tag TipTag) bool {
	switch tag {
	case TipUrgent, TipSuggestion, TipInfo:
		return true
	}
	return false
}

// AiTip is a short advisory message surfaced to the live agent.
type AiTip struct {
	Tag     TipTag `json:"tag"`
	Content string `json:"content"`
}

// ToolCallRecord is the structured record of one tool invocation requested by
// the reasoning service. It is derived from the raw execution trace, never
// authored directly.
type ToolCallRecord struct {
	Name   string `json:"name"`
	Input  string `json:"input"`  // serialized argument map
	Output string `json:"output"` // serialized result payload
	Status string `json:"status"` // "success" | "failed"
}

// Tool call statuses.
const (
	ToolStatusSuccess = "success"
	ToolStatusFailed  = "failed"
)

// Window is one caller-delimited slice of a call, identified by
// (CallID, WindowNum). Windows are append-only: once persisted they are never
// mutated, and WindowNum defines the total order within a call.
type Window struct {
	CallID       string           `json:"callId"`
	WindowNum    int              `json:"windowNum"`
	Turns        []Turn           `json:"turns"`
	AiTips       []AiTip          `json:"aiTips"`
	ActivityFeed []ToolCallRecord `json:"activityFeed"`
	CreatedAt    time.Time        `json:"createdAt"`
}

// WindowDigest is the per-window slice of the merged timeline handed to the
// summarizer when a call is finalized.
type WindowDigest struct {
	ActivityFeed []ToolCallRecord `json:"activityFeed"`
	AiTips       []AiTip          `json:"aiTips"`
	Turns        []Turn           `json:"turns"`
}

// Digest returns the window's summarizer-facing view.
func (w Window) Digest() WindowDigest {
	return WindowDigest{
		ActivityFeed: w.ActivityFeed,
		AiTips:       w.AiTips,
		Turns:        w.Turns,
	}
}
