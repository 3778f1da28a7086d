package covers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/booknest/apiserver/internal/events"
	"github.com/booknest/apiserver/internal/mq"
	"github.com/booknest/apiserver/internal/store"
)

type memObject struct {
	data        []byte
	contentType string
}

type memObjectStore struct {
	objects map[string]memObject
}

func newMemObjectStore() *memObjectStore {
	return &memObjectStore{objects: make(map[string]memObject)}
}

func (s *memObjectStore) EnsureBucket(ctx context.Context) error { return nil }

func (s *memObjectStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.objects[key] = memObject{data: data, contentType: contentType}
	return nil
}

func (s *memObjectStore) Delete(ctx context.Context, key string) error {
	delete(s.objects, key)
	return nil
}

func (s *memObjectStore) Bucket() string { return "test-covers" }

type fakeCoverRepo struct {
	keys     map[int64]string
	failWith error
}

func newFakeCoverRepo() *fakeCoverRepo {
	return &fakeCoverRepo{keys: make(map[int64]string)}
}

func (r *fakeCoverRepo) SetCoverKey(ctx context.Context, id int64, coverKey string) error {
	if r.failWith != nil {
		return r.failWith
	}
	r.keys[id] = coverKey
	return nil
}

func savedMessage(t *testing.T, event events.BookEvent) mq.Message {
	t.Helper()
	data, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("marshal event: %v", err)
	}
	return mq.Message{ID: "msg-1", Data: data}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestHandleMessage_ArchivesCover(t *testing.T) {
	t.Parallel()

	imageServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = w.Write([]byte("jpeg-bytes"))
	}))
	defer imageServer.Close()

	objects := newMemObjectStore()
	repo := newFakeCoverRepo()
	archiver := NewArchiver(repo, objects, discardLogger())

	msg := savedMessage(t, events.BookEvent{
		Type:   events.TypeBookSaved,
		BookID: 42,
		Image:  imageServer.URL + "/cover.jpg",
	})
	if err := archiver.HandleMessage(context.Background(), msg); err != nil {
		t.Fatalf("HandleMessage failed: %v", err)
	}

	object, ok := objects.objects["covers/42"]
	if !ok {
		t.Fatal("cover object not stored")
	}
	if string(object.data) != "jpeg-bytes" {
		t.Errorf("stored %q, expected the downloaded bytes", object.data)
	}
	if object.contentType != "image/jpeg" {
		t.Errorf("content type %q not carried through", object.contentType)
	}
	if repo.keys[42] != "covers/42" {
		t.Errorf("cover key not recorded, got %q", repo.keys[42])
	}
}

func TestHandleMessage_NoImageIsNoop(t *testing.T) {
	t.Parallel()

	objects := newMemObjectStore()
	archiver := NewArchiver(newFakeCoverRepo(), objects, discardLogger())

	msg := savedMessage(t, events.BookEvent{Type: events.TypeBookSaved, BookID: 42})
	if err := archiver.HandleMessage(context.Background(), msg); err != nil {
		t.Fatalf("HandleMessage failed: %v", err)
	}
	if len(objects.objects) != 0 {
		t.Errorf("nothing should be stored for a book without an image")
	}
}

func TestHandleMessage_RemoveDeletesObject(t *testing.T) {
	t.Parallel()

	objects := newMemObjectStore()
	objects.objects["covers/42"] = memObject{data: []byte("jpeg-bytes")}
	archiver := NewArchiver(newFakeCoverRepo(), objects, discardLogger())

	msg := savedMessage(t, events.BookEvent{
		Type:     events.TypeBookRemoved,
		BookID:   42,
		CoverKey: "covers/42",
	})
	if err := archiver.HandleMessage(context.Background(), msg); err != nil {
		t.Fatalf("HandleMessage failed: %v", err)
	}
	if _, ok := objects.objects["covers/42"]; ok {
		t.Error("archived cover not deleted")
	}
}

func TestHandleMessage_MalformedEventDropped(t *testing.T) {
	t.Parallel()

	archiver := NewArchiver(newFakeCoverRepo(), newMemObjectStore(), discardLogger())

	// Malformed payloads must not be redelivered forever.
	err := archiver.HandleMessage(context.Background(), mq.Message{ID: "bad", Data: []byte(`{"type":`)})
	if err != nil {
		t.Fatalf("malformed event should be dropped, got %v", err)
	}
}

func TestHandleMessage_DownloadFailureNacks(t *testing.T) {
	t.Parallel()

	imageServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer imageServer.Close()

	archiver := NewArchiver(newFakeCoverRepo(), newMemObjectStore(), discardLogger())

	msg := savedMessage(t, events.BookEvent{
		Type:   events.TypeBookSaved,
		BookID: 42,
		Image:  imageServer.URL + "/cover.jpg",
	})
	if err := archiver.HandleMessage(context.Background(), msg); err == nil {
		t.Fatal("expected an error so the message is redelivered")
	}
}

func TestHandleMessage_BookDeletedDuringArchive(t *testing.T) {
	t.Parallel()

	imageServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("jpeg-bytes"))
	}))
	defer imageServer.Close()

	objects := newMemObjectStore()
	repo := newFakeCoverRepo()
	repo.failWith = store.ErrNotFound
	archiver := NewArchiver(repo, objects, discardLogger())

	msg := savedMessage(t, events.BookEvent{
		Type:   events.TypeBookSaved,
		BookID: 42,
		Image:  imageServer.URL + "/cover.jpg",
	})
	if err := archiver.HandleMessage(context.Background(), msg); err != nil {
		t.Fatalf("expected ack when the book vanished, got %v", err)
	}
	if _, ok := objects.objects["covers/42"]; ok {
		t.Error("orphaned cover object left behind")
	}
}
