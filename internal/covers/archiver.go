// Package covers mirrors saved books' cover images into object storage.
// The archiver consumes book events published by the API and keeps the
// archive in step with the saved list.
package covers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/booknest/apiserver/internal/events"
	"github.com/booknest/apiserver/internal/mq"
	"github.com/booknest/apiserver/internal/storage"
	"github.com/booknest/apiserver/internal/store"
)

const (
	downloadTimeout    = 15 * time.Second
	maxCoverBytes      = 10 << 20
	defaultContentType = "application/octet-stream"
)

// CoverRepository is the slice of the book store the archiver needs.
type CoverRepository interface {
	SetCoverKey(ctx context.Context, id int64, coverKey string) error
}

// Archiver downloads cover images for saved books and deletes them again
// when the book is removed.
type Archiver struct {
	repo       CoverRepository
	objects    storage.ObjectStore
	httpClient *http.Client
	logger     *slog.Logger
}

// NewArchiver constructs an Archiver with the provided dependencies.
func NewArchiver(repo CoverRepository, objects storage.ObjectStore, logger *slog.Logger) *Archiver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Archiver{
		repo:       repo,
		objects:    objects,
		httpClient: &http.Client{Timeout: downloadTimeout},
		logger:     logger,
	}
}

// Run consumes book events from the backend until ctx is cancelled.
func (a *Archiver) Run(ctx context.Context, backend mq.Backend) error {
	if err := a.objects.EnsureBucket(ctx); err != nil {
		return fmt.Errorf("ensure cover bucket: %w", err)
	}
	return backend.Subscribe(ctx, a.HandleMessage)
}

// HandleMessage processes one book event. A returned error nacks the message
// for redelivery; malformed events are dropped instead of redelivered.
func (a *Archiver) HandleMessage(ctx context.Context, msg mq.Message) error {
	event, err := events.Decode(msg.Data)
	if err != nil {
		a.logger.Warn("dropping malformed book event", "message_id", msg.ID, "error", err)
		return nil
	}

	switch event.Type {
	case events.TypeBookSaved:
		return a.archive(ctx, event)
	case events.TypeBookRemoved:
		return a.remove(ctx, event)
	default:
		a.logger.Warn("dropping book event of unknown type", "type", event.Type)
		return nil
	}
}

func (a *Archiver) archive(ctx context.Context, event events.BookEvent) error {
	if event.Image == "" {
		// Nothing to archive; the catalog had no thumbnail for this volume.
		return nil
	}

	data, contentType, err := a.download(ctx, event.Image)
	if err != nil {
		a.logger.Error("cover download failed", "book_id", event.BookID, "error", err)
		return err
	}

	key := CoverKey(event.BookID)
	if err := a.objects.Put(ctx, key, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
		a.logger.Error("cover upload failed", "book_id", event.BookID, "key", key, "error", err)
		return err
	}

	if err := a.repo.SetCoverKey(ctx, event.BookID, key); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// The book was removed while we were archiving; undo the upload.
			_ = a.objects.Delete(ctx, key)
			return nil
		}
		return err
	}

	a.logger.Info("archived cover", "book_id", event.BookID, "key", key, "bytes", len(data))
	return nil
}

func (a *Archiver) remove(ctx context.Context, event events.BookEvent) error {
	if event.CoverKey == "" {
		return nil
	}
	if err := a.objects.Delete(ctx, event.CoverKey); err != nil {
		a.logger.Error("cover delete failed", "book_id", event.BookID, "key", event.CoverKey, "error", err)
		return err
	}
	a.logger.Info("deleted archived cover", "book_id", event.BookID, "key", event.CoverKey)
	return nil
}

func (a *Archiver) download(ctx context.Context, imageURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, "", err
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("image fetch returned status %d", resp.StatusCode)
	}

	limited := io.LimitReader(resp.Body, maxCoverBytes+1)
	data, err := io.ReadAll(limited)
	if err != nil {
		return nil, "", err
	}
	if int64(len(data)) > maxCoverBytes {
		return nil, "", errors.New("cover image too large")
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = defaultContentType
	}
	return data, contentType, nil
}

// CoverKey is the object key a book's archived cover is stored under.
func CoverKey(bookID int64) string {
	return fmt.Sprintf("covers/%d", bookID)
}
