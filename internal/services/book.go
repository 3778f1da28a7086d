package services

import (
	"context"
	"log/slog"

	"github.com/booknest/apiserver/internal/events"
	"github.com/booknest/apiserver/types"
)

// BookRepository defines persistence operations for saved books.
type BookRepository interface {
	Create(ctx context.Context, book types.Book) (types.Book, error)
	ListByOwner(ctx context.Context, ownerID int) ([]types.Book, error)
	DeleteOwned(ctx context.Context, id int64, ownerID int) (types.Book, error)
}

// BookService encapsulates saved-list use-cases. Book events are published
// best-effort after each mutation; a broker failure never fails the request.
type BookService struct {
	repo   BookRepository
	events *events.Publisher
	logger *slog.Logger
}

func NewBookService(repo BookRepository, publisher *events.Publisher, logger *slog.Logger) *BookService {
	if logger == nil {
		logger = slog.Default()
	}
	return &BookService{
		repo:   repo,
		events: publisher,
		logger: logger,
	}
}

// Save persists a book under its owner and announces it to the cover worker.
func (s *BookService) Save(ctx context.Context, book types.Book) (types.Book, error) {
	created, err := s.repo.Create(ctx, book)
	if err != nil {
		return types.Book{}, err
	}

	if err := s.events.BookSaved(ctx, created); err != nil {
		s.logger.Warn("failed to publish book saved event", "book_id", created.ID, "error", err)
	}
	return created, nil
}

// ListSaved returns every book saved by the given owner.
func (s *BookService) ListSaved(ctx context.Context, ownerID int) ([]types.Book, error) {
	return s.repo.ListByOwner(ctx, ownerID)
}

// Remove deletes the book when it belongs to ownerID and returns the deleted
// row. Store sentinel errors (not found, forbidden) pass through untouched.
func (s *BookService) Remove(ctx context.Context, id int64, ownerID int) (types.Book, error) {
	deleted, err := s.repo.DeleteOwned(ctx, id, ownerID)
	if err != nil {
		return types.Book{}, err
	}

	if err := s.events.BookRemoved(ctx, deleted); err != nil {
		s.logger.Warn("failed to publish book removed event", "book_id", deleted.ID, "error", err)
	}
	return deleted, nil
}
