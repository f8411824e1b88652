package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pricewatch/backend/internal/config"
	"github.com/pricewatch/backend/internal/model"
	"github.com/pricewatch/backend/internal/service"
)

// UserServiceInterface for handler testing
type UserServiceInterface interface {
	Register(ctx context.Context, input service.RegisterInput) (*service.AuthResponse, error)
	Login(ctx context.Context, input service.LoginInput) (*service.AuthResponse, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, input service.UpdateProfileInput) (*model.User, error)
	List(ctx context.Context) ([]model.User, error)
	UpdateUser(ctx context.Context, id uuid.UUID, input service.UpdateUserInput) (*model.User, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type UserHandler struct {
	users    UserServiceInterface
	cookie   config.CookieConfig
	tokenTTL time.Duration
}

func NewUserHandler(users UserServiceInterface, cookie config.CookieConfig, tokenTTL time.Duration) *UserHandler {
	if cookie.Name == "" {
		cookie.Name = "jwt"
	}
	if cookie.Path == "" {
		cookie.Path = "/"
	}
	return &UserHandler{users: users, cookie: cookie, tokenTTL: tokenTTL}
}

// Register godoc
// @Summary Register a new user
// @Tags users
// @Accept json
// @Produce json
// @Param input body service.RegisterInput true "Registration data"
// @Success 201 {object} service.AuthResponse
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse "Email already in use"
// @Router /users/register [post]
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var input service.RegisterInput
	if appErr := decodeJSON(r, &input); appErr != nil {
		respondAppError(w, appErr)
		return
	}

	resp, err := h.users.Register(r.Context(), input)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	h.setAuthCookie(w, resp.Token)
	respondJSON(w, http.StatusCreated, resp)
}

// Login godoc
// @Summary Login user
// @Tags users
// @Accept json
// @Produce json
// @Param input body service.LoginInput true "Login credentials"
// @Success 200 {object} service.AuthResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse "Invalid credentials"
// @Router /users/login [post]
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input service.LoginInput
	if appErr := decodeJSON(r, &input); appErr != nil {
		respondAppError(w, appErr)
		return
	}

	resp, err := h.users.Login(r.Context(), input)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	h.setAuthCookie(w, resp.Token)
	respondJSON(w, http.StatusOK, resp)
}

// Logout godoc
// @Summary Logout user
// @Description Clears the auth cookie
// @Tags users
// @Produce json
// @Success 200 {object} MessageResponse
// @Router /users/logout [post]
func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.clearAuthCookie(w)
	respondJSON(w, http.StatusOK, MessageResponse{Message: "logged out successfully"})
}

// GetProfile godoc
// @Summary Get current user
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.User
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /users/profile [get]
func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.GetByID(r.Context(), GetUserID(r.Context()))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, user)
}

// UpdateProfile godoc
// @Summary Update current user
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param input body service.UpdateProfileInput true "Fields to change"
// @Success 200 {object} model.User
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /users/profile [put]
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var input service.UpdateProfileInput
	if appErr := decodeJSON(r, &input); appErr != nil {
		respondAppError(w, appErr)
		return
	}

	user, err := h.users.UpdateProfile(r.Context(), GetUserID(r.Context()), input)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, user)
}

// ListUsers godoc
// @Summary List users (admin)
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.User
// @Failure 403 {object} ErrorResponse
// @Router /users [get]
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, users)
}

// GetUser godoc
// @Summary Get a user (admin)
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {object} model.User
// @Failure 404 {object} ErrorResponse
// @Router /users/{id} [get]
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, appErr := uuidParam(r, "id")
	if appErr != nil {
		respondAppError(w, appErr)
		return
	}
	user, err := h.users.GetByID(r.Context(), id)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, user)
}

// UpdateUser godoc
// @Summary Update a user (admin)
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Param input body service.UpdateUserInput true "Fields to change"
// @Success 200 {object} model.User
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /users/{id} [put]
func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, appErr := uuidParam(r, "id")
	if appErr != nil {
		respondAppError(w, appErr)
		return
	}
	var input service.UpdateUserInput
	if appErr := decodeJSON(r, &input); appErr != nil {
		respondAppError(w, appErr)
		return
	}

	user, err := h.users.UpdateUser(r.Context(), id, input)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, user)
}

// DeleteUser godoc
// @Summary Delete a user (admin)
// @Description Admin accounts cannot be deleted
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /users/{id} [delete]
func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, appErr := uuidParam(r, "id")
	if appErr != nil {
		respondAppError(w, appErr)
		return
	}
	if err := h.users.Delete(r.Context(), id); err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, MessageResponse{Message: "user removed"})
}

func (h *UserHandler) sameSite() http.SameSite {
	switch strings.ToLower(h.cookie.SameSite) {
	case "lax":
		return http.SameSiteLaxMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteStrictMode
	}
}

func (h *UserHandler) setAuthCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie.Name,
		Value:    token,
		Path:     h.cookie.Path,
		Domain:   h.cookie.Domain,
		MaxAge:   int(h.tokenTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: h.sameSite(),
	})
}

func (h *UserHandler) clearAuthCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie.Name,
		Value:    "",
		Path:     h.cookie.Path,
		Domain:   h.cookie.Domain,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: h.sameSite(),
	})
}
