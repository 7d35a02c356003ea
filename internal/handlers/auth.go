package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/BradenHooton/citypulse/internal/models"
	"github.com/BradenHooton/citypulse/internal/services"
	pkghttp "github.com/BradenHooton/citypulse/pkg/http"
)

// AuthServiceInterface defines the interface for auth business logic
type AuthServiceInterface interface {
	Register(ctx context.Context, username, password, role string) (*models.User, error)
	Login(ctx context.Context, username, password string) (*services.LoginResult, error)
}

// AuthHandler handles signup and login
type AuthHandler struct {
	service AuthServiceInterface
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(service AuthServiceInterface) *AuthHandler {
	return &AuthHandler{service: service}
}

// SignupRequest represents the request body for signup
type SignupRequest struct {
	Username string `json:"username" validate:"required,max=64"`
	Password string `json:"password" validate:"required,max=72"`
	Role     string `json:"role" validate:"omitempty,oneof=citizen officer"`
}

// SignupResponse is returned after a successful signup
type SignupResponse struct {
	Msg    string `json:"msg"`
	UserID string `json:"userId"`
}

// LoginRequest represents the request body for login
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Signup handles POST /auth/signup
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := decodeJSON(w, r, &req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteValidationError(w, err.Error())
		return
	}

	user, err := h.service.Register(r.Context(), req.Username, req.Password, req.Role)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrDuplicateUsername):
			pkghttp.WriteError(w, http.StatusBadRequest, pkghttp.CodeDuplicateUsername, "Username already exists")
		case errors.Is(err, models.ErrValidation):
			pkghttp.WriteValidationError(w, err.Error())
		default:
			pkghttp.WriteInternalError(w, "Failed to create user")
		}
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, SignupResponse{Msg: "User created", UserID: user.ID})
}

// Login handles POST /auth/login. Unknown user and wrong password both answer 400.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteValidationError(w, err.Error())
		return
	}

	result, err := h.service.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrNotFound):
			pkghttp.WriteError(w, http.StatusBadRequest, pkghttp.CodeNotFound, "User not found")
		case errors.Is(err, models.ErrInvalidCredentials):
			pkghttp.WriteError(w, http.StatusBadRequest, pkghttp.CodeInvalidCredentials, "Invalid credentials")
		default:
			pkghttp.WriteInternalError(w, "Login failed")
		}
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, result)
}
