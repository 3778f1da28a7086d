// Package events defines the book event payload published after save and
// remove operations and consumed by the cover archive worker.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/booknest/apiserver/internal/mq"
	"github.com/booknest/apiserver/types"
)

const (
	// TypeBookSaved is published after a book is saved.
	TypeBookSaved = "book.saved"
	// TypeBookRemoved is published after a book is removed. The payload
	// carries the deleted row's cover key since the row is already gone.
	TypeBookRemoved = "book.removed"

	attrEventType = "event_type"
)

// BookEvent is the payload for both saved and removed events.
type BookEvent struct {
	Type       string    `json:"type"`
	BookID     int64     `json:"book_id"`
	OwnerID    int       `json:"owner_id"`
	Title      string    `json:"title"`
	Image      string    `json:"image,omitempty"`
	CoverKey   string    `json:"cover_key,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Publisher serializes book events onto an mq backend.
type Publisher struct {
	backend mq.Backend
}

// NewPublisher wraps the given backend. A nil backend is allowed and turns
// every publish into a no-op so callers need no broker in development.
func NewPublisher(backend mq.Backend) *Publisher {
	return &Publisher{backend: backend}
}

// BookSaved publishes a saved event for the given book.
func (p *Publisher) BookSaved(ctx context.Context, book types.Book) error {
	return p.publish(ctx, BookEvent{
		Type:       TypeBookSaved,
		BookID:     book.ID,
		OwnerID:    book.OwnerID,
		Title:      book.Title,
		Image:      book.Image,
		OccurredAt: time.Now(),
	})
}

// BookRemoved publishes a removed event for the given (already deleted) book.
func (p *Publisher) BookRemoved(ctx context.Context, book types.Book) error {
	return p.publish(ctx, BookEvent{
		Type:       TypeBookRemoved,
		BookID:     book.ID,
		OwnerID:    book.OwnerID,
		Title:      book.Title,
		CoverKey:   book.CoverKey,
		OccurredAt: time.Now(),
	})
}

func (p *Publisher) publish(ctx context.Context, event BookEvent) error {
	if p == nil || p.backend == nil {
		return nil
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal book event: %w", err)
	}

	attrs := map[string]string{attrEventType: event.Type}
	if _, err := p.backend.Publish(ctx, data, attrs); err != nil {
		return fmt.Errorf("publish book event: %w", err)
	}
	return nil
}

// Decode parses a book event from a raw message payload.
func Decode(data []byte) (BookEvent, error) {
	var event BookEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return BookEvent{}, fmt.Errorf("decode book event: %w", err)
	}
	return event, nil
}
