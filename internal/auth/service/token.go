// Package service issues and validates signed bearer tokens and guards resource ownership
package service

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/wookiebooks/catalog/internal/models"
)

// BearerPrefix is the fixed prefix of the Authorization header value
const BearerPrefix = "Bearer "

var (
	// ErrInvalidToken is returned for malformed tokens, bad signatures and missing claims
	ErrInvalidToken = errors.New("token is invalid")
	// ErrTokenExpired is returned for tokens whose expiry has elapsed
	ErrTokenExpired = errors.New("token is expired")
	// ErrMissingBearer is returned when the header does not carry a bearer token
	ErrMissingBearer = errors.New("bearer token required")
)

// Claims is the claim set embedded in every issued token
type Claims struct {
	UserID   string `json:"UserId"`
	UserName string `json:"UserName"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// Identity returns the numeric user id carried by the claims
func (c *Claims) Identity() (int64, error) {
	id, err := strconv.ParseInt(c.UserID, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: bad UserId claim", ErrInvalidToken)
	}
	return id, nil
}

// Option configures a TokenGenerator
type Option func(*TokenGenerator)

// WithClock replaces the time source used for issuing and validating tokens
func WithClock(now func() time.Time) Option {
	return func(tg *TokenGenerator) {
		tg.now = now
	}
}

// TokenGenerator handles JWT token generation and validation
type TokenGenerator struct {
	secret []byte
	expiry time.Duration
	now    func() time.Time
}

// NewTokenGenerator creates a new token generator.
// The secret is copied, so later changes by the caller do not affect signing.
func NewTokenGenerator(secret string, expiry time.Duration, opts ...Option) *TokenGenerator {
	tg := &TokenGenerator{
		secret: []byte(secret),
		expiry: expiry,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(tg)
	}
	return tg
}

// Issue signs a token for user carrying the already resolved role label
func (tg *TokenGenerator) Issue(user *models.User, roleLabel string) (string, error) {
	now := tg.now()
	claims := Claims{
		UserID:   strconv.FormatInt(user.ID, 10),
		UserName: user.Username,
		Role:     roleLabel,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tg.expiry)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(tg.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// Validate verifies signature and expiry of tokenString and returns its claims
func (tg *TokenGenerator) Validate(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		return tg.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(tg.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if !token.Valid {
		return nil, ErrInvalidToken
	}

	if claims.UserID == "" {
		return nil, fmt.Errorf("%w: UserId claim missing", ErrInvalidToken)
	}

	return claims, nil
}

// ValidateHeader extracts the bearer token from an Authorization header value and validates it
func (tg *TokenGenerator) ValidateHeader(header string) (*Claims, error) {
	tokenString, ok := BearerToken(header)
	if !ok {
		return nil, ErrMissingBearer
	}
	return tg.Validate(tokenString)
}

// BearerToken strips the "Bearer " prefix from an Authorization header value
func BearerToken(header string) (string, bool) {
	tokenString, found := strings.CutPrefix(header, BearerPrefix)
	if !found {
		return "", false
	}
	tokenString = strings.TrimSpace(tokenString)
	return tokenString, tokenString != ""
}
