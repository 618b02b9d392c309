package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/wookiebooks/catalog/internal/models"
	"github.com/wookiebooks/catalog/internal/services"
	"go.uber.org/zap"
)

// AuthService is the interface that wraps methods for authentication business logic.
type AuthService interface {
	// Method Authenticate verifies user credentials and issues a signed token.
	//
	// "req" parameter contains username and password.
	//
	// If a field is empty, the username does not exist or the password is wrong, a client error is returned together with "nil" response.
	Authenticate(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error)
	// Method Register creates a user together with its author profile and default role.
	//
	// "req" parameter contains username, display name and password.
	//
	// If a field is empty or the username is already taken, a client error is returned.
	Register(ctx context.Context, req *models.RegisterRequest) error
}

// UserHandler handles registration and login HTTP requests
type UserHandler struct {
	BaseHandler
	authService AuthService
}

// NewUserHandler creates a new user handler
func NewUserHandler(authService AuthService, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		BaseHandler: BaseHandler{Logger: logger},
		authService: authService,
	}
}

// RegisterRoutes registers all user handler routes
// Note: This assumes the router is already scoped to /api
func (h *UserHandler) RegisterRoutes(r chi.Router) {
	r.Route("/users", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
	})
}

// Register handles POST /users/register
// @Summary Register a new user
// @Description Register a new user with username, display name and password. The display name becomes the author pseudonym.
// @Tags users
// @Accept json
// @Produce json
// @Param request body models.RegisterRequest true "Registration request"
// @Success 200 {object} map[string]string "User registered successfully"
// @Failure 400 {object} map[string]string "Missing fields or username already exists"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /users/register [post]
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if !h.DecodeJSON(w, r, &req) {
		return
	}

	if err := h.authService.Register(r.Context(), &req); err != nil {
		if errors.Is(err, services.ErrMissingFields) || errors.Is(err, services.ErrUsernameTaken) {
			h.RespondError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.Logger.Error("failed to register user", zap.Error(err))
		h.RespondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.RespondJSON(w, http.StatusOK, map[string]string{"message": "user registered successfully"})
}

// Login handles POST /users/login
// @Summary Login user
// @Description Authenticate with username and password. Returns the user id, display name and a bearer token.
// @Tags users
// @Accept json
// @Produce json
// @Param request body models.LoginRequest true "Login request"
// @Success 200 {object} models.LoginResponse
// @Failure 400 {object} map[string]string "Missing credentials, unknown username or wrong password"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /users/login [post]
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if !h.DecodeJSON(w, r, &req) {
		return
	}

	resp, err := h.authService.Authenticate(r.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrMissingCredentials),
			errors.Is(err, services.ErrUserNotFound),
			errors.Is(err, services.ErrInvalidCredentials):
			h.RespondError(w, http.StatusBadRequest, err.Error())
		default:
			h.Logger.Error("failed to login user", zap.Error(err))
			h.RespondError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	h.RespondJSON(w, http.StatusOK, resp)
}
