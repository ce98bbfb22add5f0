package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType represents the kinds of domain events the service emits
type EventType string

const (
	// Attempt events
	EventAttemptStarted   EventType = "attempt.started"
	EventAttemptCompleted EventType = "attempt.completed"

	// Dump events
	EventDumpImported EventType = "dump.imported"
)

const (
	eventSource  = "dump-practice-service"
	eventVersion = "1.0"
)

// Event is the envelope for every published event
type Event struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source"`
	Version   string                 `json:"version"`
	Data      interface{}            `json:"data"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// NewEvent wraps data in an envelope with a fresh id
func NewEvent(eventType EventType, data interface{}) *Event {
	return &Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Source:    eventSource,
		Version:   eventVersion,
		Data:      data,
	}
}

// Attempt event payloads

type AttemptStartedEvent struct {
	SessionID string    `json:"session_id"`
	UserID    string    `json:"user_id"`
	DumpID    uint      `json:"dump_id"`
	DumpName  string    `json:"dump_name"`
	Total     int       `json:"total"`
	TimeLimit int       `json:"time_limit"` // minutes
	StartedAt time.Time `json:"started_at"`
}

type AttemptCompletedEvent struct {
	SessionID   string    `json:"session_id"`
	HistoryID   uint      `json:"history_id"`
	UserID      string    `json:"user_id"`
	DumpID      uint      `json:"dump_id"`
	DumpName    string    `json:"dump_name"`
	Score       int       `json:"score"`
	Total       int       `json:"total"`
	TimedOut    bool      `json:"timed_out"`
	CompletedAt time.Time `json:"completed_at"`
}

// Dump event payloads

type DumpImportedEvent struct {
	DumpID     uint   `json:"dump_id"`
	ImportedBy string `json:"imported_by"`
	Policy     string `json:"policy"`
	Filename   string `json:"filename"`
	NewCount   int    `json:"new_count"`
	Duplicates int    `json:"duplicates"`
	Changed    int    `json:"changed"`
	Skipped    int    `json:"skipped"`
	Questions  int    `json:"questions"`
}
