package events

import (
	"context"
	"errors"
	"time"
)

// Event is a single calendar entry. Optional fields are pointers so the
// persisted document keeps the explicit nulls the public feed renderer
// expects.
type Event struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Start       time.Time  `json:"start"`
	End         *time.Time `json:"end"`
	Location    *string    `json:"location"`
	Image       *string    `json:"image"`
	URL         *string    `json:"url"`
	Description *string    `json:"description"`
	Tags        []string   `json:"tags"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   *time.Time `json:"updatedAt,omitempty"`
}

// EventInput carries the raw form field values for create and update.
// Length limits count Unicode code points; SanitizeText enforces them
// by truncation before validation runs.
type EventInput struct {
	Title       string `validate:"required,max=140"`
	Start       string `validate:"required"`
	End         string
	Location    string `validate:"max=140"`
	URL         string `validate:"max=500"`
	Tags        string
	Description string `validate:"max=5000"`
}

var (
	// ErrNotFound is returned when an event id does not exist in the collection.
	ErrNotFound = errors.New("event not found")

	// ErrInvalidDate is returned when a local date-time string does not
	// parse as a real calendar time.
	ErrInvalidDate = errors.New("invalid date")
)

// FieldError represents a validation error for a specific field.
type FieldError struct {
	Field   string
	Message string
}

func (e FieldError) Error() string {
	return e.Field + ": " + e.Message
}

// Repository persists the full event collection. Every mutation is a
// read-modify-write of the whole document; the implementation guarantees
// readers only ever observe a complete document.
type Repository interface {
	Load(ctx context.Context) ([]Event, error)
	Save(ctx context.Context, events []Event) error
}
