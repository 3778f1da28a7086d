package handlers

// Test fixtures: in-memory repositories behind the service interfaces, and a
// router wired the same way internal/server wires the real one.

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/booknest/apiserver/config"
	"github.com/booknest/apiserver/internal/catalog"
	"github.com/booknest/apiserver/internal/events"
	"github.com/booknest/apiserver/internal/services"
	"github.com/booknest/apiserver/internal/store"
	"github.com/booknest/apiserver/types"
)

const testSecret = "test-secret-do-not-use"

type fakeUserRepo struct {
	users  map[int]types.User
	nextID int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[int]types.User), nextID: 1}
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id int) (types.User, error) {
	user, ok := r.users[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (types.User, error) {
	for _, user := range r.users {
		if user.Email == email {
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (r *fakeUserRepo) Create(ctx context.Context, user types.User) (types.User, error) {
	// Mirror the unique index on email.
	if _, err := r.GetByEmail(ctx, user.Email); err == nil {
		return types.User{}, store.ErrConflict
	}
	user.ID = r.nextID
	r.nextID++
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	r.users[user.ID] = user
	return user, nil
}

type fakeBookRepo struct {
	books  map[int64]types.Book
	nextID int64
}

func newFakeBookRepo() *fakeBookRepo {
	return &fakeBookRepo{books: make(map[int64]types.Book), nextID: 1}
}

func (r *fakeBookRepo) Create(ctx context.Context, book types.Book) (types.Book, error) {
	book.ID = r.nextID
	r.nextID++
	book.CreatedAt = time.Now()
	r.books[book.ID] = book
	return book, nil
}

func (r *fakeBookRepo) ListByOwner(ctx context.Context, ownerID int) ([]types.Book, error) {
	books := make([]types.Book, 0)
	for id := int64(1); id < r.nextID; id++ {
		if book, ok := r.books[id]; ok && book.OwnerID == ownerID {
			books = append(books, book)
		}
	}
	return books, nil
}

func (r *fakeBookRepo) DeleteOwned(ctx context.Context, id int64, ownerID int) (types.Book, error) {
	book, ok := r.books[id]
	if !ok {
		return types.Book{}, store.ErrNotFound
	}
	if book.OwnerID != ownerID {
		return types.Book{}, store.ErrForbidden
	}
	delete(r.books, id)
	return book, nil
}

type testEnv struct {
	router   *chi.Mux
	userRepo *fakeUserRepo
	bookRepo *fakeBookRepo
}

// newTestEnv wires the routes the way internal/server does, with in-memory
// repositories and the catalog client pointed at catalogURL.
func newTestEnv(t *testing.T, catalogURL string) *testEnv {
	t.Helper()

	userRepo := newFakeUserRepo()
	bookRepo := newFakeBookRepo()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	userService := services.NewUserService(userRepo)
	bookService := services.NewBookService(bookRepo, events.NewPublisher(nil), logger)
	catalogClient := catalog.NewClient(config.CatalogConfig{BaseURL: catalogURL})

	router := chi.NewRouter()
	router.Route("/auth", func(r chi.Router) {
		AuthRouter(r, userService, testSecret)
	})
	router.Route("/books", func(r chi.Router) {
		r.Use(WithIdentity(testSecret))
		BookRouter(r, bookService, catalogClient)
	})

	return &testEnv{router: router, userRepo: userRepo, bookRepo: bookRepo}
}

// do runs one request against the router. A non-nil body is JSON-encoded and
// a non-empty token is sent as a bearer credential.
func (e *testEnv) do(t *testing.T, method, target, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) signup(t *testing.T, username, email, password string) AuthResponse {
	t.Helper()

	rec := e.do(t, http.MethodPost, "/auth/signup", "", SignupRequest{
		Username: username,
		Email:    email,
		Password: password,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("signup returned status %d: %s", rec.Code, rec.Body.String())
	}

	var resp AuthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode signup response: %v", err)
	}
	return resp
}

func itoa64(v int64) string {
	return strconv.FormatInt(v, 10)
}

func decodeJSON[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var value T
	if err := json.Unmarshal(rec.Body.Bytes(), &value); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return value
}
