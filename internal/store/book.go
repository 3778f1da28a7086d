package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/booknest/apiserver/types"
)

// BookRepository handles persistence for saved books.
type BookRepository struct {
	db *sql.DB
}

func NewBookRepository(db *sql.DB) *BookRepository {
	return &BookRepository{db: db}
}

func (r *BookRepository) Create(ctx context.Context, book types.Book) (types.Book, error) {
	book.CreatedAt = time.Now()

	const query = `
		INSERT INTO books (owner_id, title, author, description, image, link, cover_key, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		book.OwnerID,
		book.Title,
		book.Author,
		book.Description,
		book.Image,
		book.Link,
		book.CoverKey,
		book.CreatedAt,
	).Scan(&book.ID); err != nil {
		return types.Book{}, err
	}
	return book, nil
}

func (r *BookRepository) Get(ctx context.Context, id int64) (types.Book, error) {
	const query = `
		SELECT id, owner_id, title, author, description, image, link, cover_key, created_at
		FROM books
		WHERE id = $1`
	var book types.Book
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&book.ID,
		&book.OwnerID,
		&book.Title,
		&book.Author,
		&book.Description,
		&book.Image,
		&book.Link,
		&book.CoverKey,
		&book.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Book{}, ErrNotFound
		}
		return types.Book{}, err
	}
	return book, nil
}

func (r *BookRepository) ListByOwner(ctx context.Context, ownerID int) ([]types.Book, error) {
	const query = `
		SELECT id, owner_id, title, author, description, image, link, cover_key, created_at
		FROM books
		WHERE owner_id = $1
		ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	books := make([]types.Book, 0)
	for rows.Next() {
		var book types.Book
		if err := rows.Scan(
			&book.ID,
			&book.OwnerID,
			&book.Title,
			&book.Author,
			&book.Description,
			&book.Image,
			&book.Link,
			&book.CoverKey,
			&book.CreatedAt,
		); err != nil {
			return nil, err
		}
		books = append(books, book)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return books, nil
}

// DeleteOwned removes the book only when it belongs to ownerID and returns the
// deleted row. A book owned by someone else is ErrForbidden, a missing id is
// ErrNotFound.
func (r *BookRepository) DeleteOwned(ctx context.Context, id int64, ownerID int) (types.Book, error) {
	const query = `
		DELETE FROM books
		WHERE id = $1 AND owner_id = $2
		RETURNING id, owner_id, title, author, description, image, link, cover_key, created_at`
	var book types.Book
	err := r.db.QueryRowContext(ctx, query, id, ownerID).Scan(
		&book.ID,
		&book.OwnerID,
		&book.Title,
		&book.Author,
		&book.Description,
		&book.Image,
		&book.Link,
		&book.CoverKey,
		&book.CreatedAt,
	)
	if err == nil {
		return book, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return types.Book{}, err
	}

	// Nothing deleted: distinguish absent from owned-by-another-user.
	const existsQuery = `SELECT COUNT(1) FROM books WHERE id = $1`
	var count int
	if err := r.db.QueryRowContext(ctx, existsQuery, id).Scan(&count); err != nil {
		return types.Book{}, err
	}
	if count > 0 {
		return types.Book{}, ErrForbidden
	}
	return types.Book{}, ErrNotFound
}

// SetCoverKey records the object-storage key of the archived cover image.
func (r *BookRepository) SetCoverKey(ctx context.Context, id int64, coverKey string) error {
	const query = `UPDATE books SET cover_key = $1 WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, coverKey, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
