package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/example/rental-marketplace/internal/api/middleware"
	"github.com/example/rental-marketplace/internal/auth"
	"github.com/example/rental-marketplace/internal/domain/user"
)

type UserStore interface {
	Create(ctx context.Context, u *user.User) error
	FindByID(ctx context.Context, id string) (*user.User, error)
	FindByEmail(ctx context.Context, email string) (*user.User, error)
}

// AuthHandlers handles authentication-related HTTP requests
type AuthHandlers struct {
	users  UserStore
	tokens *auth.TokenService
}

func NewAuthHandlers(users UserStore, tokens *auth.TokenService) *AuthHandlers {
	return &AuthHandlers{users: users, tokens: tokens}
}

// RegisterRequest represents the registration request body
type RegisterRequest struct {
	Email    string    `json:"email"`
	Password string    `json:"password"`
	Name     string    `json:"name"`
	Role     user.Role `json:"role"`
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse represents the authentication response
type AuthResponse struct {
	User  UserResponse `json:"user"`
	Token string       `json:"token"`
}

// UserResponse represents user data in responses
type UserResponse struct {
	ID    string    `json:"id"`
	Email string    `json:"email"`
	Name  string    `json:"name"`
	Role  user.Role `json:"role"`
}

// Register handles user registration
func (h *AuthHandlers) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Role == "" {
		req.Role = user.RoleCustomer
	}
	if req.Role != user.RoleCustomer && req.Role != user.RoleVendor {
		respondJSONError(w, "role must be customer or vendor", http.StatusBadRequest)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooShort) {
			respondJSONError(w, "Password must be at least 8 characters", http.StatusBadRequest)
			return
		}
		respondJSONError(w, "internal error", http.StatusInternalServerError)
		return
	}

	u := &user.User{
		ID:           uuid.New().String(),
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: hash,
		Role:         req.Role,
	}
	if err := h.users.Create(r.Context(), u); err != nil {
		if errors.Is(err, user.ErrEmailTaken) {
			respondJSONError(w, "Email already registered", http.StatusConflict)
			return
		}
		respondJSONError(w, "internal error", http.StatusInternalServerError)
		return
	}

	token, expiresAt, err := h.tokens.GenerateToken(u)
	if err != nil {
		respondJSONError(w, "internal error", http.StatusInternalServerError)
		return
	}
	setAuthCookie(w, r, token, expiresAt)

	respondJSON(w, http.StatusCreated, AuthResponse{
		User:  toUserResponse(u),
		Token: token,
	})
}

// Login handles user login
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	u, err := h.users.FindByEmail(r.Context(), req.Email)
	if err != nil {
		respondJSONError(w, "Invalid email or password", http.StatusUnauthorized)
		return
	}

	if !auth.CheckPassword(req.Password, u.PasswordHash) {
		respondJSONError(w, "Invalid email or password", http.StatusUnauthorized)
		return
	}

	token, expiresAt, err := h.tokens.GenerateToken(u)
	if err != nil {
		respondJSONError(w, "internal error", http.StatusInternalServerError)
		return
	}
	setAuthCookie(w, r, token, expiresAt)

	respondJSON(w, http.StatusOK, AuthResponse{
		User:  toUserResponse(u),
		Token: token,
	})
}

// Logout clears the auth cookie
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     "access_token",
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "Logout successful",
	})
}

// Me returns the current authenticated user's information
func (h *AuthHandlers) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		respondJSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	u, err := h.users.FindByID(r.Context(), claims.UserID)
	if err != nil {
		respondJSONError(w, "User not found", http.StatusNotFound)
		return
	}

	respondJSON(w, http.StatusOK, toUserResponse(u))
}

func toUserResponse(u *user.User) UserResponse {
	return UserResponse{
		ID:    u.ID,
		Email: u.Email,
		Name:  u.Name,
		Role:  u.Role,
	}
}

func setAuthCookie(w http.ResponseWriter, r *http.Request, token string, expiresAt time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     "access_token",
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteStrictMode,
	})
}
