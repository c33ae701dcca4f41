package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"dealdesk/internal/config"
	"dealdesk/internal/middleware"
	"dealdesk/internal/service"
	"dealdesk/pkg/validator"
)

// AuthHandler handles authentication requests
type AuthHandler struct {
	authService *service.AuthService
	config      *config.Config
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *service.AuthService, cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		config:      cfg,
	}
}

// RegisterRequest represents a registration request
type RegisterRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Username  string `json:"username" validate:"required,min=3"`
	Password  string `json:"password" validate:"required,min=8"`
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
	RoleID    *uint  `json:"role_id"`
}

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Register handles user registration. Only admins may create accounts.
// @Summary Register a new user
// @Description Create a new user account (admin only)
// @Tags Authentication
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body RegisterRequest true "Registration details"
// @Success 201 {object} models.User "User created"
// @Failure 400 {object} map[string]string "Invalid request"
// @Failure 403 {object} map[string]string "Insufficient permissions"
// @Failure 404 {object} map[string]string "Role not found"
// @Failure 409 {object} map[string]string "Email or username already in use"
// @Router /auth/register [post]
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetUser(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, ErrMsgUnauthorized)
		return
	}

	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidRequestBody)
		return
	}

	if err := validator.ValidateStruct(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.authService.Register(actor, req.Email, req.Username, req.Password, req.FirstName, req.LastName, req.RoleID)
	if err != nil {
		slog.Warn("Registration failed", "email", req.Email, "actor_id", actor.ID, "error", err)
		respondWithServiceError(w, err)
		return
	}

	slog.Info("User registered", "user_id", user.ID, "email", user.Email, "created_by", actor.ID)
	respondWithJSON(w, http.StatusCreated, user)
}

// Login handles user login
// @Summary User login
// @Description Authenticate user and return JWT tokens
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login credentials"
// @Success 200 {object} map[string]interface{} "Login successful with tokens"
// @Failure 400 {object} map[string]string "Invalid request"
// @Failure 401 {object} map[string]string "Invalid credentials"
// @Failure 403 {object} map[string]string "Account is inactive"
// @Router /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidRequestBody)
		return
	}

	if err := validator.ValidateStruct(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	accessToken, refreshToken, accessJTI, refreshJTI, user, err := h.authService.Login(req.Email, req.Password)
	if err != nil {
		slog.Warn("Login failed", "email", req.Email, "ip", getIP(r), "error", err)
		respondWithServiceError(w, err)
		return
	}

	if err := h.authService.CreateSession(user.ID, accessJTI, refreshJTI, time.Now().Add(h.config.JWT.RefreshExpiration)); err != nil {
		slog.Error("Failed to create session", "user_id", user.ID, "error", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to create session")
		return
	}

	slog.Info("User logged in", "user_id", user.ID, "email", user.Email, "ip", getIP(r))

	h.setRefreshCookie(w, r, refreshToken, int(h.config.JWT.RefreshExpiration.Seconds()))

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"access_token":  accessToken,
		"refresh_token": refreshToken,
		"token_type":    "Bearer",
		"expires_in":    int(h.config.JWT.Expiration.Seconds()),
		"user":          user,
	})
}

// RefreshToken handles token refresh requests
// @Summary Refresh access token
// @Description Rotate the token pair using the refresh token cookie
// @Tags Authentication
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{} "New token pair"
// @Failure 401 {object} map[string]string "Invalid refresh token"
// @Router /auth/refresh [post]
func (h *AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie("refresh_token")
	if err != nil {
		respondWithError(w, http.StatusUnauthorized, "Refresh token not found")
		return
	}

	accessToken, refreshToken, user, err := h.authService.RefreshToken(cookie.Value, h.config.JWT.RefreshExpiration)
	if err != nil {
		// Clear invalid cookie
		h.setRefreshCookie(w, r, "", -1)
		respondWithError(w, http.StatusUnauthorized, "Invalid refresh token")
		return
	}

	h.setRefreshCookie(w, r, refreshToken, int(h.config.JWT.RefreshExpiration.Seconds()))

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"access_token":  accessToken,
		"refresh_token": refreshToken,
		"token_type":    "Bearer",
		"expires_in":    int(h.config.JWT.Expiration.Seconds()),
		"user":          user,
	})
}

// Logout handles user logout
// @Summary User logout
// @Description Invalidate the current session and clear the refresh cookie
// @Tags Authentication
// @Produce json
// @Success 200 {object} map[string]string "Logout successful"
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	authHeader := r.Header.Get("Authorization")
	if parts := strings.Split(authHeader, " "); len(parts) == 2 && parts[0] == "Bearer" {
		if err := h.authService.InvalidateSessionByToken(parts[1]); err != nil {
			slog.Warn("Failed to invalidate session during logout", "error", err)
		}
	}

	h.setRefreshCookie(w, r, "", -1)

	respondWithJSON(w, http.StatusOK, map[string]string{
		"message": "Logged out successfully",
	})
}

// Me returns the authenticated user
// @Summary Current user
// @Description Return the authenticated user with their role
// @Tags Authentication
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.User "Authenticated user"
// @Failure 401 {object} map[string]string "Unauthenticated"
// @Router /auth/me [get]
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, ErrMsgUnauthorized)
		return
	}

	respondWithJSON(w, http.StatusOK, user)
}

func (h *AuthHandler) setRefreshCookie(w http.ResponseWriter, r *http.Request, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     "refresh_token",
		Value:    value,
		Path:     AuthAPIBasePath,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteStrictMode,
	})
}

// Helper functions

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.WriteHeader(code)
	if err := JSONResponse(w, payload); err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"Internal server error"}`))
	}
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

func getIP(r *http.Request) string {
	forwarded := r.Header.Get("X-Forwarded-For")
	if forwarded != "" {
		return forwarded
	}
	realIP := r.Header.Get("X-Real-IP")
	if realIP != "" {
		return realIP
	}
	return r.RemoteAddr
}
