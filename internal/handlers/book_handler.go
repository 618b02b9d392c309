package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	authmiddleware "github.com/wookiebooks/catalog/internal/auth/middleware"
	"github.com/wookiebooks/catalog/internal/auth/service"
	"github.com/wookiebooks/catalog/internal/models"
	"github.com/wookiebooks/catalog/internal/services"
	"go.uber.org/zap"
)

// BookService is the interface that wraps methods for book business logic.
// Mutating methods receive the raw Authorization header for the ownership check.
type BookService interface {
	GetPublished(ctx context.Context) ([]models.BookDetails, error)
	Search(ctx context.Context, filter models.BookSearch) ([]models.BookDetails, error)
	GetByID(ctx context.Context, id int64) (*models.BookDetails, error)
	// Method GetAuthorBooks returns all books of an author, including unpublished ones.
	//
	// "authHeader" parameter is the raw Authorization header value.
	// "userID" parameter is the id of the user owning the author profile.
	//
	// If the token does not belong to userID, services.ErrNotAllowed is returned.
	GetAuthorBooks(ctx context.Context, authHeader string, userID int64) ([]models.BookDetails, error)
	Create(ctx context.Context, authHeader string, req *models.BookRequest) (*models.BookDetails, error)
	Update(ctx context.Context, authHeader string, id int64, req *models.BookRequest) (*models.BookDetails, error)
	Delete(ctx context.Context, authHeader string, authorID, id int64) error
	Unpublish(ctx context.Context, authHeader string, authorID, id int64) error
}

// BookHandler handles book catalog HTTP requests
type BookHandler struct {
	BaseHandler
	bookService    BookService
	tokenGenerator *service.TokenGenerator
	requiredRole   string
}

// NewBookHandler creates a new book handler.
// A non-empty requiredRole restricts book mutations to tokens carrying that role label.
func NewBookHandler(
	bookService BookService,
	tokenGenerator *service.TokenGenerator,
	requiredRole string,
	logger *zap.Logger,
) *BookHandler {
	return &BookHandler{
		BaseHandler:    BaseHandler{Logger: logger},
		bookService:    bookService,
		tokenGenerator: tokenGenerator,
		requiredRole:   requiredRole,
	}
}

// RegisterRoutes registers all book handler routes
// Note: This assumes the router is already scoped to /api
func (h *BookHandler) RegisterRoutes(r chi.Router) {
	r.Route("/books", func(r chi.Router) {
		r.Get("/", h.GetPublished)
		r.Get("/search", h.Search)
		r.Get("/{id}", h.GetByID)

		r.Group(func(r chi.Router) {
			r.Use(authmiddleware.AuthMiddleware(h.tokenGenerator))
			r.Get("/author/{userId}", h.GetAuthorBooks)

			r.Group(func(r chi.Router) {
				if h.requiredRole != "" {
					r.Use(authmiddleware.RoleMiddleware(h.requiredRole))
				}
				r.Post("/", h.Create)
				r.Put("/{id}", h.Update)
				r.Delete("/{authorId}/{id}", h.Delete)
				r.Delete("/unpublish/{authorId}/{id}", h.Unpublish)
			})
		})
	})
}

// GetPublished handles GET /books
// @Summary List published books
// @Tags books
// @Produce json
// @Success 200 {array} models.BookDetails
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /books [get]
func (h *BookHandler) GetPublished(w http.ResponseWriter, r *http.Request) {
	books, err := h.bookService.GetPublished(r.Context())
	if err != nil {
		h.handleError(w, err)
		return
	}
	h.RespondJSON(w, http.StatusOK, books)
}

// Search handles GET /books/search
// @Summary Search books
// @Description Substring search on title and author name. Absent filters match every book.
// @Tags books
// @Produce json
// @Param title query string false "Title substring"
// @Param authorName query string false "Author name substring"
// @Success 200 {array} models.BookDetails
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /books/search [get]
func (h *BookHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	books, err := h.bookService.Search(r.Context(), models.BookSearch{
		Title:      query.Get("title"),
		AuthorName: query.Get("authorName"),
	})
	if err != nil {
		h.handleError(w, err)
		return
	}
	h.RespondJSON(w, http.StatusOK, books)
}

// GetByID handles GET /books/{id}
// @Summary Get book by id
// @Tags books
// @Produce json
// @Param id path int true "Book ID"
// @Success 200 {object} models.BookDetails
// @Failure 400 {object} map[string]string "Invalid id"
// @Failure 404 {object} map[string]string "Book not found"
// @Router /books/{id} [get]
func (h *BookHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := h.URLParamInt64(w, r, "id")
	if !ok {
		return
	}

	book, err := h.bookService.GetByID(r.Context(), id)
	if err != nil {
		h.handleError(w, err)
		return
	}
	h.RespondJSON(w, http.StatusOK, book)
}

// GetAuthorBooks handles GET /books/author/{userId}
// @Summary List all books of an author
// @Description Includes unpublished books. The token must belong to the requested author.
// @Tags books
// @Produce json
// @Security BearerAuth
// @Param userId path int true "Author user ID"
// @Success 200 {array} models.BookDetails
// @Failure 400 {object} map[string]string "Request not allowed"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Router /books/author/{userId} [get]
func (h *BookHandler) GetAuthorBooks(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.URLParamInt64(w, r, "userId")
	if !ok {
		return
	}

	books, err := h.bookService.GetAuthorBooks(r.Context(), r.Header.Get("Authorization"), userID)
	if err != nil {
		h.handleError(w, err)
		return
	}
	h.RespondJSON(w, http.StatusOK, books)
}

// Create handles POST /books
// @Summary Create a book
// @Tags books
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.BookRequest true "Book"
// @Success 201 {object} models.BookDetails
// @Failure 400 {object} map[string]string "Invalid book or request not allowed"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Author not found"
// @Router /books [post]
func (h *BookHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.BookRequest
	if !h.DecodeJSON(w, r, &req) {
		return
	}

	book, err := h.bookService.Create(r.Context(), r.Header.Get("Authorization"), &req)
	if err != nil {
		h.handleError(w, err)
		return
	}
	h.RespondJSON(w, http.StatusCreated, book)
}

// Update handles PUT /books/{id}
// @Summary Update a book
// @Tags books
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Book ID"
// @Param request body models.BookRequest true "Book"
// @Success 200 {object} models.BookDetails
// @Failure 400 {object} map[string]string "Invalid book, id mismatch or request not allowed"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Book not found"
// @Router /books/{id} [put]
func (h *BookHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.URLParamInt64(w, r, "id")
	if !ok {
		return
	}

	var req models.BookRequest
	if !h.DecodeJSON(w, r, &req) {
		return
	}

	book, err := h.bookService.Update(r.Context(), r.Header.Get("Authorization"), id, &req)
	if err != nil {
		h.handleError(w, err)
		return
	}
	h.RespondJSON(w, http.StatusOK, book)
}

// Delete handles DELETE /books/{authorId}/{id}
// @Summary Delete a book
// @Tags books
// @Security BearerAuth
// @Param authorId path int true "Author user ID"
// @Param id path int true "Book ID"
// @Success 204
// @Failure 400 {object} map[string]string "Request not allowed"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Book not found"
// @Router /books/{authorId}/{id} [delete]
func (h *BookHandler) Delete(w http.ResponseWriter, r *http.Request) {
	authorID, ok := h.URLParamInt64(w, r, "authorId")
	if !ok {
		return
	}
	id, ok := h.URLParamInt64(w, r, "id")
	if !ok {
		return
	}

	if err := h.bookService.Delete(r.Context(), r.Header.Get("Authorization"), authorID, id); err != nil {
		h.handleError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Unpublish handles DELETE /books/unpublish/{authorId}/{id}
// @Summary Unpublish a book
// @Description Hides the book from the public catalog. The book must belong to the author.
// @Tags books
// @Security BearerAuth
// @Param authorId path int true "Author user ID"
// @Param id path int true "Book ID"
// @Success 204
// @Failure 400 {object} map[string]string "Request not allowed"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Book not found"
// @Router /books/unpublish/{authorId}/{id} [delete]
func (h *BookHandler) Unpublish(w http.ResponseWriter, r *http.Request) {
	authorID, ok := h.URLParamInt64(w, r, "authorId")
	if !ok {
		return
	}
	id, ok := h.URLParamInt64(w, r, "id")
	if !ok {
		return
	}

	if err := h.bookService.Unpublish(r.Context(), r.Header.Get("Authorization"), authorID, id); err != nil {
		h.handleError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleError maps service errors to HTTP responses
func (h *BookHandler) handleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrNotAllowed),
		errors.Is(err, services.ErrInvalidBook),
		errors.Is(err, services.ErrIDMismatch):
		h.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrBookNotFound),
		errors.Is(err, services.ErrAuthorNotFound):
		h.RespondError(w, http.StatusNotFound, err.Error())
	default:
		h.Logger.Error("book request failed", zap.Error(err))
		h.RespondError(w, http.StatusInternalServerError, "internal server error")
	}
}
