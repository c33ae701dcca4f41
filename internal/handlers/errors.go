package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"dealdesk/internal/repository"
	"dealdesk/internal/service"
)

// respondWithServiceError maps service and repository sentinel errors
// to their HTTP status codes. Unknown errors become a 500 without
// leaking their message.
func respondWithServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		respondWithError(w, http.StatusUnauthorized, "Invalid credentials")
	case errors.Is(err, service.ErrUserInactive):
		respondWithError(w, http.StatusForbidden, "Account is inactive")
	case errors.Is(err, service.ErrForbidden):
		respondWithError(w, http.StatusForbidden, "Insufficient permissions")
	case errors.Is(err, service.ErrInvalidStage):
		respondWithError(w, http.StatusBadRequest, "Invalid stage")
	case errors.Is(err, service.ErrInvalidVoteValue):
		respondWithError(w, http.StatusBadRequest, "Invalid vote value")
	case errors.Is(err, repository.ErrDealNotFound):
		respondWithError(w, http.StatusNotFound, "Deal not found")
	case errors.Is(err, repository.ErrMemoNotFound):
		respondWithError(w, http.StatusNotFound, "Memo not found")
	case errors.Is(err, repository.ErrUserNotFound):
		respondWithError(w, http.StatusNotFound, ErrMsgUserNotFound)
	case errors.Is(err, repository.ErrRoleNotFound):
		respondWithError(w, http.StatusNotFound, "Role not found")
	case errors.Is(err, repository.ErrUserExists):
		respondWithError(w, http.StatusConflict, "Email or username already in use")
	default:
		slog.Error("Request failed", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// parseUintParam parses a numeric path parameter
func parseUintParam(r *http.Request, name string) (uint, error) {
	v, err := strconv.ParseUint(r.PathValue(name), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(v), nil
}
