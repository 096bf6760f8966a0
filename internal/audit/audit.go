// Package audit records document-generation activity for operational
// visibility. Events are fail-open: losing one must never fail the generation
// that produced it.
package audit

import (
	"context"
	"time"
)

// Action names what happened to a document.
type Action string

const (
	ActionGenerated Action = "document_generated"
	ActionPreviewed Action = "document_previewed"
)

// Event is emitted from the orchestrator to capture one generation request.
// Kept transport-agnostic so sinks can fan out.
type Event struct {
	Action    Action    `json:"action"`
	CaseID    string    `json:"case_id"`
	Template  string    `json:"template"`
	RequestID string    `json:"request_id,omitempty"`
	Outcome   string    `json:"outcome"`
	FillRate  int       `json:"fill_rate"`
	Pages     int       `json:"pages,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Publisher emits events to a sink.
type Publisher interface {
	Emit(ctx context.Context, event Event) error
}
