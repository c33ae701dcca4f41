package testutil

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"dealdesk/internal/auth"
	"dealdesk/internal/config"
	"dealdesk/internal/models"
	"dealdesk/internal/repository"
)

// AuthHelper issues real tokens with backing sessions so requests pass
// the full authentication middleware.
type AuthHelper struct {
	Service     *auth.Service
	sessionRepo *repository.SessionRepository
}

// NewAuthHelper creates a new auth helper
func NewAuthHelper(db *sql.DB) *AuthHelper {
	return &AuthHelper{
		Service: auth.NewService(&config.JWTConfig{
			Secret:            "test-secret-key-for-testing-only",
			Expiration:        time.Hour,
			RefreshExpiration: 24 * time.Hour,
		}),
		sessionRepo: repository.NewSessionRepository(db),
	}
}

// TokenFor generates an access token for the user and records its session
func (h *AuthHelper) TokenFor(t *testing.T, user *models.User) string {
	t.Helper()

	token, jti, err := h.Service.GenerateToken(user.ID, user.Email)
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}

	_, refreshJTI, err := h.Service.GenerateRefreshToken(user.ID, user.Email)
	if err != nil {
		t.Fatalf("Failed to generate refresh token: %v", err)
	}

	session := &models.Session{
		UserID:     user.ID,
		AccessJTI:  jti,
		RefreshJTI: refreshJTI,
		ExpiresAt:  time.Now().Add(time.Hour),
	}
	if err := h.sessionRepo.Create(session); err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}

	return token
}

// AddAuthHeader adds an authorization header to the request
func (h *AuthHelper) AddAuthHeader(t *testing.T, req *http.Request, user *models.User) {
	t.Helper()

	req.Header.Set("Authorization", "Bearer "+h.TokenFor(t, user))
}

// CreateAuthenticatedRequest creates a request with auth header
func (h *AuthHelper) CreateAuthenticatedRequest(t *testing.T, method, url string, user *models.User) *http.Request {
	t.Helper()

	req := httptest.NewRequest(method, url, nil)
	h.AddAuthHeader(t, req, user)
	return req
}

// TestResponse holds response data for assertions
type TestResponse struct {
	*httptest.ResponseRecorder
}

// NewTestResponse creates a new test response recorder
func NewTestResponse() *TestResponse {
	return &TestResponse{
		ResponseRecorder: httptest.NewRecorder(),
	}
}

// AssertStatus asserts the HTTP status code
func (r *TestResponse) AssertStatus(t *testing.T, expected int) {
	t.Helper()

	if r.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, r.Code, r.Body.String())
	}
}

// AssertStatusOK asserts 200 OK
func (r *TestResponse) AssertStatusOK(t *testing.T) {
	r.AssertStatus(t, http.StatusOK)
}

// AssertStatusCreated asserts 201 Created
func (r *TestResponse) AssertStatusCreated(t *testing.T) {
	r.AssertStatus(t, http.StatusCreated)
}

// AssertStatusUnauthorized asserts 401 Unauthorized
func (r *TestResponse) AssertStatusUnauthorized(t *testing.T) {
	r.AssertStatus(t, http.StatusUnauthorized)
}

// AssertStatusForbidden asserts 403 Forbidden
func (r *TestResponse) AssertStatusForbidden(t *testing.T) {
	r.AssertStatus(t, http.StatusForbidden)
}

// AssertStatusNotFound asserts 404 Not Found
func (r *TestResponse) AssertStatusNotFound(t *testing.T) {
	r.AssertStatus(t, http.StatusNotFound)
}

// AssertStatusBadRequest asserts 400 Bad Request
func (r *TestResponse) AssertStatusBadRequest(t *testing.T) {
	r.AssertStatus(t, http.StatusBadRequest)
}
