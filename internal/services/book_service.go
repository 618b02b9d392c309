package services

import (
	"context"
	"errors"
	"strings"

	"github.com/wookiebooks/catalog/internal/models"
	"go.uber.org/zap"
)

// BookRepository is the interface that wraps methods for Book table data access
type BookRepository interface {
	// Method GetPublished retrieves all published books joined with their authors.
	GetPublished(ctx context.Context) ([]models.BookDetails, error)
	// Method Search retrieves books whose title and author name contain the filter values.
	//
	// "filter" parameter holds optional title and author name; empty values match everything.
	Search(ctx context.Context, filter models.BookSearch) ([]models.BookDetails, error)
	// Method GetByAuthorUserID retrieves all books, published or not, of the author owned by a user.
	//
	// "userID" parameter is the id of the user owning the author profile.
	GetByAuthorUserID(ctx context.Context, userID int64) ([]models.BookDetails, error)
	// Method GetDetailsByID retrieves a book joined with its author.
	//
	// "id" parameter is the book id.
	//
	// If the book does not exist, "nil" is returned together with "nil" error.
	GetDetailsByID(ctx context.Context, id int64) (*models.BookDetails, error)
	// Method Create inserts a book and sets its ID.
	Create(ctx context.Context, book *models.Book) error
	// Method Update overwrites the editable fields of a book.
	Update(ctx context.Context, book *models.Book) error
	// Method SetPublished changes the published flag of a book.
	SetPublished(ctx context.Context, id int64, published bool) error
	// Method Delete removes a book.
	Delete(ctx context.Context, id int64) error
}

// AuthorRepository resolves author profiles by their owning user
type AuthorRepository interface {
	GetAuthorByUserID(ctx context.Context, userID int64) (*models.Author, error)
}

// OwnershipGuard decides whether the bearer of an Authorization header acts as the claimed owner
type OwnershipGuard interface {
	Authorize(rawHeader string, claimedOwnerID int64) bool
}

// bookService implements BookService
type bookService struct {
	bookRepo   BookRepository
	authorRepo AuthorRepository
	guard      OwnershipGuard
	// verifyOwner additionally requires the persisted owner of a book to match the claimed author
	verifyOwner bool
	logger      *zap.Logger
}

// NewBookService creates a new book service.
// With verifyOwner set, mutations of existing books also check the book's persisted owner.
func NewBookService(
	bookRepo BookRepository,
	authorRepo AuthorRepository,
	guard OwnershipGuard,
	verifyOwner bool,
	logger *zap.Logger,
) *bookService {
	return &bookService{
		bookRepo:    bookRepo,
		authorRepo:  authorRepo,
		guard:       guard,
		verifyOwner: verifyOwner,
		logger:      logger,
	}
}

// GetPublished returns every published book
func (s *bookService) GetPublished(ctx context.Context) ([]models.BookDetails, error) {
	return s.bookRepo.GetPublished(ctx)
}

// Search returns books matching the filter
func (s *bookService) Search(ctx context.Context, filter models.BookSearch) ([]models.BookDetails, error) {
	filter.Title = strings.TrimSpace(filter.Title)
	filter.AuthorName = strings.TrimSpace(filter.AuthorName)
	return s.bookRepo.Search(ctx, filter)
}

// GetByID returns a single book
func (s *bookService) GetByID(ctx context.Context, id int64) (*models.BookDetails, error) {
	book, err := s.bookRepo.GetDetailsByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if book == nil {
		return nil, ErrBookNotFound
	}
	return book, nil
}

// GetAuthorBooks returns all books of the author owned by userID, including unpublished ones
func (s *bookService) GetAuthorBooks(ctx context.Context, authHeader string, userID int64) ([]models.BookDetails, error) {
	if !s.guard.Authorize(authHeader, userID) {
		return nil, ErrNotAllowed
	}
	return s.bookRepo.GetByAuthorUserID(ctx, userID)
}

// Create adds a book for the author named in the request
func (s *bookService) Create(ctx context.Context, authHeader string, req *models.BookRequest) (*models.BookDetails, error) {
	if !s.guard.Authorize(authHeader, req.AuthorID) {
		return nil, ErrNotAllowed
	}
	if err := validateBook(req); err != nil {
		return nil, err
	}

	author, err := s.authorRepo.GetAuthorByUserID(ctx, req.AuthorID)
	if err != nil {
		return nil, err
	}
	if author == nil {
		return nil, ErrAuthorNotFound
	}

	book := &models.Book{
		AuthorID:    author.ID,
		Title:       req.Title,
		Description: req.Description,
		CoverImage:  req.CoverImage,
		Price:       req.Price,
	}
	if req.Published != nil {
		book.Published = *req.Published
	}

	if err := s.bookRepo.Create(ctx, book); err != nil {
		return nil, err
	}
	s.logger.Info("book created", zap.Int64("bookId", book.ID), zap.Int64("authorId", req.AuthorID))

	return &models.BookDetails{
		ID:              book.ID,
		Title:           book.Title,
		Description:     book.Description,
		CoverImage:      book.CoverImage,
		Price:           book.Price,
		Published:       book.Published,
		AuthorUserID:    author.UserID,
		AuthorName:      author.Name,
		AuthorPseudonym: author.Pseudonym,
	}, nil
}

// Update overwrites the book identified by id.
// The id must match the bookId carried by the request.
func (s *bookService) Update(ctx context.Context, authHeader string, id int64, req *models.BookRequest) (*models.BookDetails, error) {
	if !s.guard.Authorize(authHeader, req.AuthorID) {
		return nil, ErrNotAllowed
	}
	if id != req.BookID {
		return nil, ErrIDMismatch
	}
	if err := validateBook(req); err != nil {
		return nil, err
	}

	existing, err := s.ownedBook(ctx, id, req.AuthorID, s.verifyOwner)
	if err != nil {
		return nil, err
	}

	published := existing.Published
	if req.Published != nil {
		published = *req.Published
	}

	book := &models.Book{
		ID:          id,
		Title:       req.Title,
		Description: req.Description,
		CoverImage:  req.CoverImage,
		Price:       req.Price,
		Published:   published,
	}
	if err := s.bookRepo.Update(ctx, book); err != nil {
		return nil, err
	}

	existing.Title = book.Title
	existing.Description = book.Description
	existing.CoverImage = book.CoverImage
	existing.Price = book.Price
	existing.Published = book.Published
	return existing, nil
}

// Delete removes a book on behalf of authorID
func (s *bookService) Delete(ctx context.Context, authHeader string, authorID, id int64) error {
	if !s.guard.Authorize(authHeader, authorID) {
		return ErrNotAllowed
	}
	if _, err := s.ownedBook(ctx, id, authorID, s.verifyOwner); err != nil {
		return err
	}
	if err := s.bookRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("book deleted", zap.Int64("bookId", id), zap.Int64("authorId", authorID))
	return nil
}

// Unpublish hides a book of authorID from the public catalog.
// A book of another author is reported as not found.
func (s *bookService) Unpublish(ctx context.Context, authHeader string, authorID, id int64) error {
	if !s.guard.Authorize(authHeader, authorID) {
		return ErrNotAllowed
	}
	if _, err := s.ownedBook(ctx, id, authorID, true); err != nil {
		if errors.Is(err, ErrNotAllowed) {
			return ErrBookNotFound
		}
		return err
	}
	return s.bookRepo.SetPublished(ctx, id, false)
}

// ownedBook loads a book and, when checkOwner is set, requires it to belong to authorID
func (s *bookService) ownedBook(ctx context.Context, id, authorID int64, checkOwner bool) (*models.BookDetails, error) {
	book, err := s.bookRepo.GetDetailsByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if book == nil {
		return nil, ErrBookNotFound
	}
	if checkOwner && book.AuthorUserID != authorID {
		s.logger.Debug("book owner mismatch",
			zap.Int64("bookId", id),
			zap.Int64("ownerId", book.AuthorUserID),
			zap.Int64("claimedOwnerId", authorID),
		)
		return nil, ErrNotAllowed
	}
	return book, nil
}

func validateBook(req *models.BookRequest) error {
	if strings.TrimSpace(req.Title) == "" || req.Price <= 0 {
		return ErrInvalidBook
	}
	return nil
}
