package events

import (
	"context"
	"errors"
	"testing"

	"github.com/booknest/apiserver/internal/mq"
	"github.com/booknest/apiserver/types"
)

type fakeBackend struct {
	published []mq.Message
	failWith  error
}

func (f *fakeBackend) Publish(ctx context.Context, data []byte, attrs map[string]string) (string, error) {
	if f.failWith != nil {
		return "", f.failWith
	}
	f.published = append(f.published, mq.Message{ID: "msg-1", Data: data, Attributes: attrs})
	return "msg-1", nil
}

func (f *fakeBackend) Subscribe(ctx context.Context, handler mq.Handler) error {
	return nil
}

func (f *fakeBackend) Close() error { return nil }

func TestBookSaved_PublishesEvent(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{}
	publisher := NewPublisher(backend)

	book := types.Book{ID: 42, OwnerID: 7, Title: "Dune", Image: "http://img.example/dune.jpg"}
	if err := publisher.BookSaved(context.Background(), book); err != nil {
		t.Fatalf("BookSaved failed: %v", err)
	}

	if len(backend.published) != 1 {
		t.Fatalf("expected 1 published message, got %d", len(backend.published))
	}
	msg := backend.published[0]
	if msg.Attributes[attrEventType] != TypeBookSaved {
		t.Errorf("unexpected event type attribute %q", msg.Attributes[attrEventType])
	}

	event, err := Decode(msg.Data)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if event.Type != TypeBookSaved || event.BookID != 42 || event.OwnerID != 7 {
		t.Errorf("unexpected event %+v", event)
	}
	if event.Image != "http://img.example/dune.jpg" {
		t.Errorf("saved event must carry the image URL, got %q", event.Image)
	}
	if event.OccurredAt.IsZero() {
		t.Error("event is missing its timestamp")
	}
}

func TestBookRemoved_CarriesCoverKey(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{}
	publisher := NewPublisher(backend)

	book := types.Book{ID: 42, OwnerID: 7, Title: "Dune", CoverKey: "covers/42"}
	if err := publisher.BookRemoved(context.Background(), book); err != nil {
		t.Fatalf("BookRemoved failed: %v", err)
	}

	event, err := Decode(backend.published[0].Data)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if event.Type != TypeBookRemoved {
		t.Errorf("unexpected type %q", event.Type)
	}
	// The row is already deleted when this event is consumed, so the key is
	// the worker's only way to find the archived object.
	if event.CoverKey != "covers/42" {
		t.Errorf("removed event must carry the cover key, got %q", event.CoverKey)
	}
}

func TestPublish_BackendFailureSurfaces(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{failWith: errors.New("broker down")}
	publisher := NewPublisher(backend)

	if err := publisher.BookSaved(context.Background(), types.Book{ID: 1}); err == nil {
		t.Fatal("expected publish failure to surface")
	}
}

func TestPublish_NilBackendIsNoop(t *testing.T) {
	t.Parallel()

	publisher := NewPublisher(nil)
	if err := publisher.BookSaved(context.Background(), types.Book{ID: 1}); err != nil {
		t.Fatalf("nil backend should no-op, got %v", err)
	}
}

func TestDecode_Malformed(t *testing.T) {
	t.Parallel()

	if _, err := Decode([]byte(`{"type":`)); err == nil {
		t.Fatal("expected decode error")
	}
}
