// Package events defines the lifecycle events the interest workflow emits.
// Event delivery is observability-only: a lost or failed event never changes
// a workflow outcome.
package events

import (
	"time"
)

// EventType identifies one kind of lifecycle event.
type EventType string

// Topic is the bus topic all interest events are published to.
const Topic = "interesse.events"

// Message metadata keys.
const (
	EventMetadataKey     = "key"
	EventTypeMetadataKey = "event_type"
)

const (
	// InterestRegisteredEvent is emitted after a Register transition
	// completes.
	InterestRegisteredEvent EventType = "interest.registered"
	// InterestWithdrawnEvent is emitted after a Withdraw transition
	// completes.
	InterestWithdrawnEvent EventType = "interest.withdrawn"
	// WorkflowFailedEvent is emitted when a transition fails on its hard
	// path.
	WorkflowFailedEvent EventType = "interest.workflow.failed"
)

// BaseEvent carries the fields shared by every lifecycle event.
type BaseEvent struct {
	ID        string         `json:"id"`
	Type      EventType      `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	DealID    string         `json:"deal_id"`
	UserEmail string         `json:"user_email"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// InterestRegistered reports a completed Register transition.
type InterestRegistered struct {
	BaseEvent

	RowID  string `json:"row_id,omitempty"`
	TaskID string `json:"task_id,omitempty"`
}

func (e InterestRegistered) GetType() EventType {
	return InterestRegisteredEvent
}

// InterestWithdrawn reports a completed Withdraw transition.
type InterestWithdrawn struct {
	BaseEvent

	DeletedTaskID string `json:"deleted_task_id,omitempty"`
}

func (e InterestWithdrawn) GetType() EventType {
	return InterestWithdrawnEvent
}

// WorkflowFailed reports a transition that failed on its hard path.
type WorkflowFailed struct {
	BaseEvent

	Error string `json:"error"`
}

func (e WorkflowFailed) GetType() EventType {
	return WorkflowFailedEvent
}
