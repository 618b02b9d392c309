package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/wookiebooks/catalog/internal/auth/password"
	"github.com/wookiebooks/catalog/internal/metrics"
	"github.com/wookiebooks/catalog/internal/models"
	"go.uber.org/zap"
)

// UserRepository is the interface that wraps methods for credential store access
type UserRepository interface {
	// Method GetByUsername retrieves a user by exact, case-sensitive username.
	//
	// "username" parameter is used to find the user.
	//
	// If user with such username does not exist, "nil" is returned together with "nil" error.
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	// Method ExistsByUsername checks if a user with such username exists.
	//
	// "username" parameter is used to check if a user with such username exists.
	//
	// If some error occurs during check, the error will be returned together with "false" value.
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	// Method CreateWithProfile inserts a user, its author profile and its role assignment as one unit.
	//
	// "user" parameter is the identity to create; its ID is set on success.
	// "author" parameter is the author profile to create for the user.
	// "role" parameter is the role to assign.
	//
	// If the username is already taken, models.ErrDuplicateEntry is returned wrapped.
	CreateWithProfile(ctx context.Context, user *models.User, author *models.Author, role models.Role) error
	// Method GetRole retrieves the role assigned to a user.
	//
	// "userID" parameter is used to find the assignment.
	//
	// If the user has no role assignment, "nil" is returned together with "nil" error.
	GetRole(ctx context.Context, userID int64) (*models.Role, error)
	// Method GetAuthorByUserID retrieves the author profile of a user.
	//
	// "userID" parameter is used to find the profile.
	//
	// If the user has no author profile, "nil" is returned together with "nil" error.
	GetAuthorByUserID(ctx context.Context, userID int64) (*models.Author, error)
}

// PasswordHasher hashes and verifies passwords
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(digest, plaintext string) password.Result
}

// TokenIssuer signs tokens for authenticated users
type TokenIssuer interface {
	Issue(user *models.User, roleLabel string) (string, error)
}

// AuthRecorder receives authentication outcomes
type AuthRecorder interface {
	Login(outcome string)
	Registration(outcome string)
	TokenIssued()
}

type nopAuthRecorder struct{}

func (nopAuthRecorder) Login(string)        {}
func (nopAuthRecorder) Registration(string) {}
func (nopAuthRecorder) TokenIssued()        {}

// authService implements AuthService
type authService struct {
	userRepo UserRepository
	hasher   PasswordHasher
	issuer   TokenIssuer
	recorder AuthRecorder
	logger   *zap.Logger
}

// NewAuthService creates a new auth service; recorder may be nil
func NewAuthService(
	userRepo UserRepository,
	hasher PasswordHasher,
	issuer TokenIssuer,
	recorder AuthRecorder,
	logger *zap.Logger,
) *authService {
	if recorder == nil {
		recorder = nopAuthRecorder{}
	}
	return &authService{
		userRepo: userRepo,
		hasher:   hasher,
		issuer:   issuer,
		recorder: recorder,
		logger:   logger,
	}
}

// Authenticate verifies credentials and issues a token carrying the resolved role label
func (s *authService) Authenticate(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error) {
	if req.Username == "" || req.Password == "" {
		s.recorder.Login(metrics.OutcomeRejected)
		return nil, ErrMissingCredentials
	}

	user, err := s.userRepo.GetByUsername(ctx, req.Username)
	if err != nil {
		s.recorder.Login(metrics.OutcomeError)
		return nil, err
	}
	if user == nil {
		s.recorder.Login(metrics.OutcomeRejected)
		return nil, ErrUserNotFound
	}

	if s.hasher.Verify(user.PasswordHash, req.Password) != password.Success {
		s.recorder.Login(metrics.OutcomeRejected)
		s.logger.Info("login rejected", zap.Int64("userId", user.ID))
		return nil, ErrInvalidCredentials
	}

	roleLabel, err := s.resolveRoleLabel(ctx, user.ID)
	if err != nil {
		s.recorder.Login(metrics.OutcomeError)
		return nil, err
	}

	token, err := s.issuer.Issue(user, roleLabel)
	if err != nil {
		s.recorder.Login(metrics.OutcomeError)
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}
	s.recorder.TokenIssued()
	s.recorder.Login(metrics.OutcomeSuccess)

	return &models.LoginResponse{
		UserID:   user.ID,
		Username: user.Username,
		Name:     user.Name,
		Token:    token,
	}, nil
}

// Register creates a user with an author profile and the default Author role
func (s *authService) Register(ctx context.Context, req *models.RegisterRequest) error {
	if req.Name == "" || req.Username == "" || req.Password == "" {
		s.recorder.Registration(metrics.OutcomeRejected)
		return ErrMissingFields
	}

	exists, err := s.userRepo.ExistsByUsername(ctx, req.Username)
	if err != nil {
		s.recorder.Registration(metrics.OutcomeError)
		return err
	}
	if exists {
		s.recorder.Registration(metrics.OutcomeRejected)
		return ErrUsernameTaken
	}

	digest, err := s.hasher.Hash(req.Password)
	if err != nil {
		s.recorder.Registration(metrics.OutcomeError)
		return err
	}

	user := &models.User{
		Username:     req.Username,
		Name:         req.Name,
		PasswordHash: digest,
	}
	author := &models.Author{
		Name:      req.Name,
		Pseudonym: req.Name,
	}

	if err := s.userRepo.CreateWithProfile(ctx, user, author, models.RoleAuthor); err != nil {
		// a concurrent registration won the unique index
		if errors.Is(err, models.ErrDuplicateEntry) {
			s.recorder.Registration(metrics.OutcomeRejected)
			return ErrUsernameTaken
		}
		s.recorder.Registration(metrics.OutcomeError)
		return err
	}

	s.recorder.Registration(metrics.OutcomeSuccess)
	s.logger.Info("user registered", zap.Int64("userId", user.ID))
	return nil
}

// resolveRoleLabel returns "Admin" for admins and the capitalized pseudonym for everyone else
func (s *authService) resolveRoleLabel(ctx context.Context, userID int64) (string, error) {
	role, err := s.userRepo.GetRole(ctx, userID)
	if err != nil {
		return "", err
	}
	if role == nil {
		s.logger.Error("user has no role assignment", zap.Int64("userId", userID))
		return "", fmt.Errorf("%w: no role assignment for user %d", ErrStoreInconsistency, userID)
	}
	if *role == models.RoleAdmin {
		return models.RoleAdmin.String(), nil
	}

	author, err := s.userRepo.GetAuthorByUserID(ctx, userID)
	if err != nil {
		return "", err
	}
	if author == nil {
		s.logger.Error("user has no author profile", zap.Int64("userId", userID))
		return "", fmt.Errorf("%w: no author profile for user %d", ErrStoreInconsistency, userID)
	}

	return capitalize(author.Pseudonym), nil
}

// capitalize lower-cases s and upper-cases its first rune
func capitalize(s string) string {
	if s == "" {
		s = models.DefaultPseudonym
	}
	s = strings.ToLower(s)
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:]
}
