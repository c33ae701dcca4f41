package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"dealdesk/internal/models"
)

var ErrSessionNotFound = errors.New("session not found or expired")

// SessionRepository handles session database operations
type SessionRepository struct {
	db *sql.DB
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create creates a new session
func (r *SessionRepository) Create(session *models.Session) error {
	query := `
		INSERT INTO sessions (user_id, access_jti, refresh_jti, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now()
	}

	err := r.db.QueryRow(
		query,
		session.UserID,
		session.AccessJTI,
		session.RefreshJTI,
		session.ExpiresAt,
		session.CreatedAt,
	).Scan(&session.ID)

	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	return nil
}

// GetByAccessJTI retrieves a live session by its access token JTI
func (r *SessionRepository) GetByAccessJTI(jti string) (*models.Session, error) {
	return r.getByJTI(`access_jti`, jti)
}

// GetByRefreshJTI retrieves a live session by its refresh token JTI
func (r *SessionRepository) GetByRefreshJTI(jti string) (*models.Session, error) {
	return r.getByJTI(`refresh_jti`, jti)
}

func (r *SessionRepository) getByJTI(column, jti string) (*models.Session, error) {
	query := fmt.Sprintf(`
		SELECT id, user_id, access_jti, refresh_jti, expires_at, created_at
		FROM sessions
		WHERE %s = $1 AND expires_at > $2
	`, column)

	session := &models.Session{}
	err := r.db.QueryRow(query, jti, time.Now()).Scan(
		&session.ID,
		&session.UserID,
		&session.AccessJTI,
		&session.RefreshJTI,
		&session.ExpiresAt,
		&session.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	return session, nil
}

// Delete deletes a specific session
func (r *SessionRepository) Delete(id uint) error {
	query := `DELETE FROM sessions WHERE id = $1`
	_, err := r.db.Exec(query, id)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// DeleteByAccessJTI deletes the session holding the given access JTI
func (r *SessionRepository) DeleteByAccessJTI(jti string) error {
	query := `DELETE FROM sessions WHERE access_jti = $1`
	_, err := r.db.Exec(query, jti)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// DeleteAllUserSessions deletes all sessions for a user
func (r *SessionRepository) DeleteAllUserSessions(userID uint) error {
	query := `DELETE FROM sessions WHERE user_id = $1`
	_, err := r.db.Exec(query, userID)
	if err != nil {
		return fmt.Errorf("failed to delete user sessions: %w", err)
	}
	return nil
}

// DeleteExpiredSessions deletes all expired sessions
func (r *SessionRepository) DeleteExpiredSessions() error {
	query := `DELETE FROM sessions WHERE expires_at < $1`
	_, err := r.db.Exec(query, time.Now())
	if err != nil {
		return fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	return nil
}
