package eventlogger

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	TypeExpensePosted     = "expense.posted"
	TypeExpenseFailed     = "notification.expense_failed"
	TypePartyLoggedIn     = "party.logged_in"
	TypePartyLoggedOut    = "party.logged_out"
	TypeSplitConfigLoaded = "split.config_loaded"
)

type Event struct {
	ID        uuid.UUID         `json:"id,omitempty"`
	Type      string            `json:"event_type,omitempty"`
	Data      json.RawMessage   `json:"event_data,omitempty"`
	Metadata  map[string]string `json:"event_metadata,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

type EventOption func(*Event)

func WithType(eventType string) EventOption {
	return func(e *Event) {
		e.Type = eventType
	}
}

// WithData stores data as JSON. Values that cannot be encoded are dropped.
func WithData(data any) EventOption {
	return func(e *Event) {
		raw, err := json.Marshal(data)
		if err != nil {
			return
		}
		e.Data = raw
	}
}

func WithMetadata(metadata map[string]string) EventOption {
	return func(e *Event) {
		for k, v := range metadata {
			e.Metadata[k] = v
		}
	}
}

func NewEvent(opts ...EventOption) Event {
	e := Event{
		ID:        uuid.New(),
		CreatedAt: time.Now().UTC(),
		Metadata:  make(map[string]string),
	}
	for _, opt := range opts {
		opt(&e)
	}
	return e
}

type EventLogger interface {
	Save(ctx context.Context, e Event) error
	GetByType(ctx context.Context, eventType string, limit int) ([]Event, error)
}
