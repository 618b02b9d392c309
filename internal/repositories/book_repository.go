package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/wookiebooks/catalog/internal/models"
	"go.uber.org/zap"
)

const bookDetailsSelect = `
	SELECT b.id, b.title, b.description, b.cover_image, b.price, b.published,
		a.user_id, a.name, a.pseudonym
	FROM books b
	JOIN authors a ON a.id = b.author_id
`

// bookRepository implements BookRepository
type bookRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewBookRepository creates a new book repository
func NewBookRepository(db *sql.DB, logger *zap.Logger) *bookRepository {
	return &bookRepository{
		db:     db,
		logger: logger,
	}
}

// GetPublished retrieves all published books with their authors
func (r *bookRepository) GetPublished(ctx context.Context) ([]models.BookDetails, error) {
	query := bookDetailsSelect + ` WHERE b.published = TRUE ORDER BY b.id`
	return r.queryDetails(ctx, "failed to get published books", query)
}

// Search retrieves books whose title and author name contain the given filters.
// Empty filters are ignored.
func (r *bookRepository) Search(ctx context.Context, filter models.BookSearch) ([]models.BookDetails, error) {
	var (
		conditions []string
		args       []any
	)

	if filter.Title != "" {
		conditions = append(conditions, "b.title LIKE CONCAT('%', ?, '%')")
		args = append(args, filter.Title)
	}
	if filter.AuthorName != "" {
		conditions = append(conditions, "a.name LIKE CONCAT('%', ?, '%')")
		args = append(args, filter.AuthorName)
	}

	query := bookDetailsSelect
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY b.id"

	return r.queryDetails(ctx, "failed to search books", query, args...)
}

// GetByAuthorUserID retrieves all books, published or not, of the author owned by userID
func (r *bookRepository) GetByAuthorUserID(ctx context.Context, userID int64) ([]models.BookDetails, error) {
	query := bookDetailsSelect + ` WHERE a.user_id = ? ORDER BY b.id`
	return r.queryDetails(ctx, "failed to get author books", query, userID)
}

// GetDetailsByID retrieves a book with its author; returns nil without error if none exists
func (r *bookRepository) GetDetailsByID(ctx context.Context, id int64) (*models.BookDetails, error) {
	query := bookDetailsSelect + ` WHERE b.id = ?`

	var d models.BookDetails
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&d.ID,
		&d.Title,
		&d.Description,
		&d.CoverImage,
		&d.Price,
		&d.Published,
		&d.AuthorUserID,
		&d.AuthorName,
		&d.AuthorPseudonym,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("failed to get book by id", zap.Error(err), zap.Int64("bookId", id))
		return nil, fmt.Errorf("failed to get book by id: %w", err)
	}

	return &d, nil
}

// Create inserts a new book and sets its ID
func (r *bookRepository) Create(ctx context.Context, book *models.Book) error {
	query := `
		INSERT INTO books (author_id, title, description, cover_image, price, published)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		book.AuthorID, book.Title, book.Description, book.CoverImage, book.Price, book.Published,
	)
	if err != nil {
		r.logger.Error("failed to create book", zap.Error(err))
		return fmt.Errorf("failed to create book: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	book.ID = id
	return nil
}

// Update overwrites the editable fields of a book
func (r *bookRepository) Update(ctx context.Context, book *models.Book) error {
	query := `
		UPDATE books
		SET title = ?, description = ?, cover_image = ?, price = ?, published = ?
		WHERE id = ?
	`

	if _, err := r.db.ExecContext(ctx, query,
		book.Title, book.Description, book.CoverImage, book.Price, book.Published, book.ID,
	); err != nil {
		r.logger.Error("failed to update book", zap.Error(err), zap.Int64("bookId", book.ID))
		return fmt.Errorf("failed to update book: %w", err)
	}

	return nil
}

// SetPublished changes the published flag of a book
func (r *bookRepository) SetPublished(ctx context.Context, id int64, published bool) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE books SET published = ? WHERE id = ?`, published, id); err != nil {
		r.logger.Error("failed to set book published flag", zap.Error(err), zap.Int64("bookId", id))
		return fmt.Errorf("failed to set book published flag: %w", err)
	}
	return nil
}

// Delete removes a book
func (r *bookRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM books WHERE id = ?`, id); err != nil {
		r.logger.Error("failed to delete book", zap.Error(err), zap.Int64("bookId", id))
		return fmt.Errorf("failed to delete book: %w", err)
	}
	return nil
}

func (r *bookRepository) queryDetails(ctx context.Context, failure, query string, args ...any) ([]models.BookDetails, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error(failure, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", failure, err)
	}
	defer rows.Close()

	books := make([]models.BookDetails, 0)
	for rows.Next() {
		var d models.BookDetails
		if err := rows.Scan(
			&d.ID,
			&d.Title,
			&d.Description,
			&d.CoverImage,
			&d.Price,
			&d.Published,
			&d.AuthorUserID,
			&d.AuthorName,
			&d.AuthorPseudonym,
		); err != nil {
			return nil, fmt.Errorf("failed to scan book: %w", err)
		}
		books = append(books, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating books: %w", err)
	}

	return books, nil
}
