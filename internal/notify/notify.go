// Package notify publishes batch progress events.
package notify

import (
	"context"
	"time"
)

// Event types.
const (
	EventItemDone  = "item_done"
	EventBatchDone = "batch_done"
)

type Event struct {
	BatchID   string    `json:"batch_id"`
	Type      string    `json:"type"`
	Index     int       `json:"index,omitempty"`
	File      string    `json:"file,omitempty"`
	Status    string    `json:"status,omitempty"`
	Error     string    `json:"error,omitempty"`
	Completed int       `json:"completed"`
	Total     int       `json:"total"`
	Timestamp time.Time `json:"timestamp"`
}

// Notifier delivers events. Implementations must be safe for concurrent use.
type Notifier interface {
	Publish(ctx context.Context, ev Event) error
	Close() error
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close() error                         { return nil }
