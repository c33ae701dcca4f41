package service

import (
	"fmt"
	"log/slog"
	"time"

	"dealdesk/internal/auth"
	"dealdesk/internal/models"
	"dealdesk/internal/permissions"
	"dealdesk/internal/repository"
)

// AuthService handles authentication business logic
type AuthService struct {
	userRepo    *repository.UserRepository
	roleRepo    *repository.RoleRepository
	sessionRepo *repository.SessionRepository
	authSvc     *auth.Service
}

// NewAuthService creates a new authentication service
func NewAuthService(
	userRepo *repository.UserRepository,
	roleRepo *repository.RoleRepository,
	sessionRepo *repository.SessionRepository,
	authSvc *auth.Service,
) *AuthService {
	return &AuthService{
		userRepo:    userRepo,
		roleRepo:    roleRepo,
		sessionRepo: sessionRepo,
		authSvc:     authSvc,
	}
}

// Register creates a new user. Only admins may register users: the
// actor must hold the Admin role, the role ID (when given) must exist,
// and email/username must be free.
func (s *AuthService) Register(actor *models.User, email, username, password, firstName, lastName string, roleID *uint) (*models.User, error) {
	if !permissions.IsAdmin(actor) {
		return nil, ErrForbidden
	}

	if roleID != nil {
		if _, err := s.roleRepo.GetByID(*roleID); err != nil {
			return nil, err
		}
	}

	passwordHash, err := s.authSvc.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Email:        email,
		Username:     username,
		FirstName:    firstName,
		LastName:     lastName,
		PasswordHash: passwordHash,
		RoleID:       roleID,
		IsActive:     true,
	}

	if err := s.userRepo.Create(user); err != nil {
		return nil, err
	}

	// Reload so the role comes back expanded
	return s.userRepo.GetByID(user.ID)
}

// Login authenticates a user and returns JWT tokens with their JTIs.
// Unknown email and wrong password both map to ErrInvalidCredentials;
// a deactivated account maps to ErrUserInactive.
func (s *AuthService) Login(email, password string) (accessToken, refreshToken, accessJTI, refreshJTI string, user *models.User, err error) {
	user, err = s.userRepo.GetByEmail(email)
	if err != nil {
		return "", "", "", "", nil, ErrInvalidCredentials
	}

	if err := s.authSvc.VerifyPassword(user.PasswordHash, password); err != nil {
		return "", "", "", "", nil, ErrInvalidCredentials
	}

	if !user.IsActive {
		return "", "", "", "", nil, ErrUserInactive
	}

	accessToken, accessJTI, err = s.authSvc.GenerateToken(user.ID, user.Email)
	if err != nil {
		return "", "", "", "", nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, refreshJTI, err = s.authSvc.GenerateRefreshToken(user.ID, user.Email)
	if err != nil {
		return "", "", "", "", nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	return accessToken, refreshToken, accessJTI, refreshJTI, user, nil
}

// CreateSession records the JTI pair issued at login so the tokens can
// later be revoked.
func (s *AuthService) CreateSession(userID uint, accessJTI, refreshJTI string, expiresAt time.Time) error {
	session := &models.Session{
		UserID:     userID,
		AccessJTI:  accessJTI,
		RefreshJTI: refreshJTI,
		ExpiresAt:  expiresAt,
	}

	return s.sessionRepo.Create(session)
}

// RefreshToken rotates a token pair: the presented refresh token is
// validated against its live session, the old session is revoked, and
// a fresh pair is issued.
func (s *AuthService) RefreshToken(refreshToken string, refreshExpiration time.Duration) (newAccessToken, newRefreshToken string, user *models.User, err error) {
	claims, err := s.authSvc.ValidateToken(refreshToken)
	if err != nil {
		return "", "", nil, fmt.Errorf("invalid refresh token: %w", err)
	}

	session, err := s.sessionRepo.GetByRefreshJTI(claims.ID)
	if err != nil {
		return "", "", nil, err
	}

	if session.UserID != claims.UserID {
		return "", "", nil, repository.ErrSessionNotFound
	}

	user, err = s.userRepo.GetByID(claims.UserID)
	if err != nil {
		return "", "", nil, err
	}
	if !user.IsActive {
		return "", "", nil, ErrUserInactive
	}

	if err := s.sessionRepo.Delete(session.ID); err != nil {
		slog.Warn("Failed to delete rotated session", "session_id", session.ID, "error", err)
	}

	newAccessToken, accessJTI, err := s.authSvc.GenerateToken(user.ID, user.Email)
	if err != nil {
		return "", "", nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	var refreshJTI string
	newRefreshToken, refreshJTI, err = s.authSvc.GenerateRefreshToken(user.ID, user.Email)
	if err != nil {
		return "", "", nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	if err := s.CreateSession(user.ID, accessJTI, refreshJTI, time.Now().Add(refreshExpiration)); err != nil {
		return "", "", nil, err
	}

	return newAccessToken, newRefreshToken, user, nil
}

// InvalidateSessionByToken revokes the session holding the token's
// JTI. The JTI is extracted without validation so logout works with
// expired tokens too.
func (s *AuthService) InvalidateSessionByToken(token string) error {
	jti, err := s.authSvc.ExtractJTI(token)
	if err != nil {
		return fmt.Errorf("failed to extract JTI: %w", err)
	}

	session, err := s.sessionRepo.GetByAccessJTI(jti)
	if err != nil {
		return err
	}

	return s.sessionRepo.Delete(session.ID)
}

// GetUserByID retrieves a user by their ID with their role expanded
func (s *AuthService) GetUserByID(userID uint) (*models.User, error) {
	return s.userRepo.GetByID(userID)
}
