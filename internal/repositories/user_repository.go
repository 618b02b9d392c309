package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"github.com/wookiebooks/catalog/internal/models"
	"go.uber.org/zap"
)

// mysqlDuplicateEntry is the MySQL error number for unique key violations
const mysqlDuplicateEntry = 1062

// userRepository implements the credential store on top of users, user_roles and authors tables
type userRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sql.DB, logger *zap.Logger) *userRepository {
	return &userRepository{
		db:     db,
		logger: logger,
	}
}

// GetByUsername retrieves a user by exact username; returns nil without error if none exists
func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `
		SELECT id, username, name, password_hash
		FROM users
		WHERE username = ?
		LIMIT 1
	`

	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, username).Scan(
		&user.ID,
		&user.Username,
		&user.Name,
		&user.PasswordHash,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("failed to get user by username", zap.Error(err), zap.String("username", username))
		return nil, fmt.Errorf("failed to get user by username: %w", err)
	}

	return user, nil
}

// ExistsByUsername checks if a user exists with the given username
func (r *userRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE username = ?)`

	var exists bool
	err := r.db.QueryRowContext(ctx, query, username).Scan(&exists)
	if err != nil {
		r.logger.Error("failed to check username existence", zap.Error(err), zap.String("username", username))
		return false, fmt.Errorf("failed to check username existence: %w", err)
	}

	return exists, nil
}

// CreateWithProfile inserts the user, its author profile and its role assignment in one transaction.
// On success user.ID, author.ID and author.UserID are set.
// A duplicate username is reported as models.ErrDuplicateEntry.
func (r *userRepository) CreateWithProfile(ctx context.Context, user *models.User, author *models.Author, role models.Role) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`INSERT INTO users (username, name, password_hash) VALUES (?, ?, ?)`,
		user.Username, user.Name, user.PasswordHash,
	)
	if err != nil {
		if isDuplicateEntry(err) {
			return fmt.Errorf("failed to create user: %w", models.ErrDuplicateEntry)
		}
		r.logger.Error("failed to create user", zap.Error(err))
		return fmt.Errorf("failed to create user: %w", err)
	}

	userID, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	result, err = tx.ExecContext(ctx,
		`INSERT INTO authors (user_id, name, pseudonym) VALUES (?, ?, ?)`,
		userID, author.Name, author.Pseudonym,
	)
	if err != nil {
		r.logger.Error("failed to create author profile", zap.Error(err), zap.Int64("userId", userID))
		return fmt.Errorf("failed to create author profile: %w", err)
	}

	authorID, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO user_roles (user_id, role_id) VALUES (?, ?)`,
		userID, role,
	); err != nil {
		r.logger.Error("failed to create role assignment", zap.Error(err), zap.Int64("userId", userID))
		return fmt.Errorf("failed to create role assignment: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	user.ID = userID
	author.ID = authorID
	author.UserID = userID
	return nil
}

// GetRole retrieves the role assigned to a user; returns nil without error if none exists
func (r *userRepository) GetRole(ctx context.Context, userID int64) (*models.Role, error) {
	query := `SELECT role_id FROM user_roles WHERE user_id = ?`

	var role models.Role
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&role)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("failed to get user role", zap.Error(err), zap.Int64("userId", userID))
		return nil, fmt.Errorf("failed to get user role: %w", err)
	}

	return &role, nil
}

// GetAuthorByUserID retrieves the author profile of a user; returns nil without error if none exists
func (r *userRepository) GetAuthorByUserID(ctx context.Context, userID int64) (*models.Author, error) {
	query := `SELECT id, user_id, name, pseudonym FROM authors WHERE user_id = ?`

	author := &models.Author{}
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&author.ID,
		&author.UserID,
		&author.Name,
		&author.Pseudonym,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("failed to get author profile", zap.Error(err), zap.Int64("userId", userID))
		return nil, fmt.Errorf("failed to get author profile: %w", err)
	}

	return author, nil
}

func isDuplicateEntry(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry
}
