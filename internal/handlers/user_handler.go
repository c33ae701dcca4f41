package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"dealdesk/internal/middleware"
	"dealdesk/internal/service"
)

// UserHandler handles user administration requests
type UserHandler struct {
	userService *service.UserService
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService *service.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

// List handles listing all users
// @Summary List users
// @Description Return all user accounts with roles expanded (admin only)
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.User "Users"
// @Failure 403 {object} map[string]string "Insufficient permissions"
// @Router /users [get]
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetUser(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, ErrMsgUnauthorized)
		return
	}

	users, err := h.userService.ListUsers(actor)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, users)
}

// Update handles partial user updates
// @Summary Update a user
// @Description Update a user's name, role or active flag (admin only)
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Param request body service.UserPatch true "Fields to update"
// @Success 200 {object} models.User "Updated user"
// @Failure 403 {object} map[string]string "Insufficient permissions"
// @Failure 404 {object} map[string]string "User not found"
// @Router /users/{id} [patch]
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetUser(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, ErrMsgUnauthorized)
		return
	}

	userID, err := parseUintParam(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidUserID)
		return
	}

	var patch service.UserPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidRequestBody)
		return
	}

	user, err := h.userService.UpdateUser(actor, userID, patch)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	slog.Info("User updated", "user_id", user.ID, "by", actor.ID)
	respondWithJSON(w, http.StatusOK, user)
}

// ListRoles handles listing all roles
// @Summary List roles
// @Description Return all roles with their permission tags (admin only)
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Role "Roles"
// @Failure 403 {object} map[string]string "Insufficient permissions"
// @Router /roles [get]
func (h *UserHandler) ListRoles(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetUser(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, ErrMsgUnauthorized)
		return
	}

	roles, err := h.userService.ListRoles(actor)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, roles)
}
