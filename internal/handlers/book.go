package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/booknest/apiserver/internal/catalog"
	"github.com/booknest/apiserver/internal/services"
	"github.com/booknest/apiserver/internal/store"
	"github.com/booknest/apiserver/types"
)

// BookHandler provides HTTP handlers for catalog search and the saved list.
type BookHandler struct {
	bookService *services.BookService
	catalog     *catalog.Client
}

// NewBookHandler constructs a handler with the provided dependencies.
func NewBookHandler(bookService *services.BookService, catalogClient *catalog.Client) *BookHandler {
	return &BookHandler{
		bookService: bookService,
		catalog:     catalogClient,
	}
}

// BookRouter registers book routes on the given router.
func BookRouter(r chi.Router, bookService *services.BookService, catalogClient *catalog.Client) {
	handler := NewBookHandler(bookService, catalogClient)

	r.Get("/search", handler.Search)
	r.Get("/saved", handler.SavedBooks)
	r.Post("/", handler.SaveBook)
	r.Delete("/{bookID}", handler.RemoveBook)
}

// Search proxies one query to the external catalog. No identity required.
func (h *BookHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		writeError(w, http.StatusBadRequest, "missing query")
		return
	}

	results, err := h.catalog.Search(r.Context(), query)
	if err != nil {
		writeError(w, http.StatusBadGateway, "catalog search failed")
		return
	}

	writeJSON(w, http.StatusOK, SearchResponse{Items: results})
}

// SavedBooks lists the caller's saved books.
func (h *BookHandler) SavedBooks(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	books, err := h.bookService.ListSaved(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list saved books")
		return
	}

	writeJSON(w, http.StatusOK, SavedBooksResponse{Items: books})
}

// SaveBook persists a book under the caller's saved list.
func (h *BookHandler) SaveBook(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req SaveBookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	req.Title = strings.TrimSpace(req.Title)
	req.Author = strings.TrimSpace(req.Author)
	req.Link = strings.TrimSpace(req.Link)
	if req.Title == "" || req.Author == "" || req.Link == "" {
		writeError(w, http.StatusBadRequest, "missing required fields")
		return
	}

	book, err := h.bookService.Save(r.Context(), types.Book{
		OwnerID:     userID,
		Title:       req.Title,
		Author:      req.Author,
		Description: req.Description,
		Image:       req.Image,
		Link:        req.Link,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save book")
		return
	}

	writeJSON(w, http.StatusCreated, book)
}

// RemoveBook deletes one of the caller's saved books. Removing an id that
// does not exist is not an error: the response carries book:null. Removing
// another user's book is forbidden.
func (h *BookHandler) RemoveBook(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	bookID, err := parseBookID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	deleted, err := h.bookService.Remove(r.Context(), bookID, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeJSON(w, http.StatusOK, RemoveBookResponse{Book: nil})
			return
		}
		if errors.Is(err, store.ErrForbidden) {
			writeError(w, http.StatusForbidden, "book belongs to another user")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to remove book")
		return
	}

	writeJSON(w, http.StatusOK, RemoveBookResponse{Book: &deleted})
}

type SaveBookRequest struct {
	Title       string `json:"title"`
	Author      string `json:"author"`
	Description string `json:"description"`
	Image       string `json:"image"`
	Link        string `json:"link"`
}

// SearchResponse is the catalog search payload.
type SearchResponse struct {
	Items []types.SearchResult `json:"items"`
}

// SavedBooksResponse is the saved-list payload.
type SavedBooksResponse struct {
	Items []types.Book `json:"items"`
}

// RemoveBookResponse carries the deleted book, or null when the id was absent.
type RemoveBookResponse struct {
	Book *types.Book `json:"book"`
}

func parseBookID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "bookID")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, errors.New("invalid book id")
	}
	return id, nil
}
