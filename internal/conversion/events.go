package conversion

import (
	"time"

	"github.com/google/uuid"

	"github.com/woozymasta/coordpanel/internal/geo"
)

// EventType classifies controller change events.
type EventType string

const (
	// EventOptions fires when the option list membership changes.
	EventOptions EventType = "options"
	// EventField fires when a single option property is set.
	EventField EventType = "field"
	// EventPoint fires when the input point changes.
	EventPoint EventType = "point"
	// EventResults fires after the formatted results are rebuilt.
	EventResults EventType = "results"
)

// Event is the payload pushed to controller subscribers. Which fields
// are filled depends on Type; Index is -1 unless the event concerns a
// single option.
type Event struct {
	ID        string     `json:"id"`
	Type      EventType  `json:"type"`
	Timestamp time.Time  `json:"timestamp"`
	Field     string     `json:"field,omitempty"`
	Point     *geo.Point `json:"point,omitempty"`
	Results   []Result   `json:"results,omitempty"`
	Index     int        `json:"index"`
	Count     int        `json:"count"`
}

func newEvent(t EventType) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      t,
		Timestamp: time.Now().UTC(),
		Index:     -1,
	}
}
