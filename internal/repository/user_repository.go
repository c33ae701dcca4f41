package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"dealdesk/internal/models"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrUserExists   = errors.New("user already exists")
)

// UserRepository handles user database operations
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create creates a new user. Returns ErrUserExists if the email or
// username is already taken.
func (r *UserRepository) Create(user *models.User) error {
	query := `
		INSERT INTO users (email, username, first_name, last_name, password_hash, role_id, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`

	now := time.Now()
	err := r.db.QueryRow(
		query,
		user.Email,
		user.Username,
		user.FirstName,
		user.LastName,
		user.PasswordHash,
		user.RoleID,
		user.IsActive,
		now,
		now,
	).Scan(&user.ID)

	if err != nil {
		if isUniqueViolation(err, "") {
			return ErrUserExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	user.CreatedAt = now
	user.UpdatedAt = now
	return nil
}

// GetByID retrieves a user by ID with their role and permissions attached
func (r *UserRepository) GetByID(id uint) (*models.User, error) {
	return r.getOne(`WHERE u.id = $1`, id)
}

// GetByEmail retrieves a user by email with their role and permissions attached
func (r *UserRepository) GetByEmail(email string) (*models.User, error) {
	return r.getOne(`WHERE u.email = $1`, email)
}

// getOne fetches a single user with the role row joined in, then loads
// the role's permission tags.
func (r *UserRepository) getOne(where string, arg interface{}) (*models.User, error) {
	query := `
		SELECT u.id, u.email, u.username, u.first_name, u.last_name, u.password_hash,
		       u.role_id, u.is_active, u.created_at, u.updated_at,
		       r.id, r.name, r.hierarchy_level, r.is_active, r.created_at, r.updated_at
		FROM users u
		LEFT JOIN roles r ON u.role_id = r.id
		` + where

	user := &models.User{}
	var roleID sql.NullInt64
	var roleName sql.NullString
	var roleLevel sql.NullInt64
	var roleActive sql.NullBool
	var roleCreated, roleUpdated sql.NullTime

	err := r.db.QueryRow(query, arg).Scan(
		&user.ID,
		&user.Email,
		&user.Username,
		&user.FirstName,
		&user.LastName,
		&user.PasswordHash,
		&user.RoleID,
		&user.IsActive,
		&user.CreatedAt,
		&user.UpdatedAt,
		&roleID,
		&roleName,
		&roleLevel,
		&roleActive,
		&roleCreated,
		&roleUpdated,
	)

	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if roleID.Valid {
		role := &models.Role{
			ID:             uint(roleID.Int64),
			Name:           roleName.String,
			HierarchyLevel: int(roleLevel.Int64),
			IsActive:       roleActive.Bool,
			CreatedAt:      roleCreated.Time,
			UpdatedAt:      roleUpdated.Time,
		}
		if err := r.loadPermissions(role); err != nil {
			return nil, err
		}
		user.Role = role
	}

	return user, nil
}

// loadPermissions fills in the role's permission tags
func (r *UserRepository) loadPermissions(role *models.Role) error {
	rows, err := r.db.Query(`SELECT permission FROM role_permissions WHERE role_id = $1 ORDER BY permission`, role.ID)
	if err != nil {
		return fmt.Errorf("failed to get role permissions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return fmt.Errorf("failed to scan permission: %w", err)
		}
		role.Permissions = append(role.Permissions, p)
	}

	return rows.Err()
}

// Update updates a user's profile fields, role, and active status.
// Returns ErrUserExists when the new email or username collides.
func (r *UserRepository) Update(user *models.User) error {
	query := `
		UPDATE users
		SET email = $1, username = $2, first_name = $3, last_name = $4,
		    role_id = $5, is_active = $6, updated_at = $7
		WHERE id = $8
	`

	user.UpdatedAt = time.Now()
	_, err := r.db.Exec(
		query,
		user.Email,
		user.Username,
		user.FirstName,
		user.LastName,
		user.RoleID,
		user.IsActive,
		user.UpdatedAt,
		user.ID,
	)

	if err != nil {
		if isUniqueViolation(err, "") {
			return ErrUserExists
		}
		return fmt.Errorf("failed to update user: %w", err)
	}

	return nil
}

// UpdatePassword updates a user's password hash
func (r *UserRepository) UpdatePassword(userID uint, passwordHash string) error {
	query := `
		UPDATE users
		SET password_hash = $1, updated_at = $2
		WHERE id = $3
	`

	_, err := r.db.Exec(query, passwordHash, time.Now(), userID)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	return nil
}

// GetAll retrieves all users ordered by creation time, with roles and
// permissions attached.
func (r *UserRepository) GetAll() ([]models.User, error) {
	query := `
		SELECT u.id, u.email, u.username, u.first_name, u.last_name, u.password_hash,
		       u.role_id, u.is_active, u.created_at, u.updated_at
		FROM users u
		ORDER BY u.created_at DESC
	`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to get users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var user models.User
		if err := rows.Scan(
			&user.ID,
			&user.Email,
			&user.Username,
			&user.FirstName,
			&user.LastName,
			&user.PasswordHash,
			&user.RoleID,
			&user.IsActive,
			&user.CreatedAt,
			&user.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}

	// Attach roles in a second pass to keep the scan simple
	roles, err := r.rolesByID()
	if err != nil {
		return nil, err
	}
	for i := range users {
		if users[i].RoleID != nil {
			users[i].Role = roles[*users[i].RoleID]
		}
	}

	return users, nil
}

// rolesByID loads every role with its permissions, keyed by role ID
func (r *UserRepository) rolesByID() (map[uint]*models.Role, error) {
	rows, err := r.db.Query(`SELECT id, name, hierarchy_level, is_active, created_at, updated_at FROM roles`)
	if err != nil {
		return nil, fmt.Errorf("failed to get roles: %w", err)
	}
	defer rows.Close()

	roles := make(map[uint]*models.Role)
	for rows.Next() {
		role := &models.Role{}
		if err := rows.Scan(&role.ID, &role.Name, &role.HierarchyLevel, &role.IsActive, &role.CreatedAt, &role.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan role: %w", err)
		}
		roles[role.ID] = role
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate roles: %w", err)
	}

	for _, role := range roles {
		if err := r.loadPermissions(role); err != nil {
			return nil, err
		}
	}

	return roles, nil
}

// CountAll returns the total number of users in the system
func (r *UserRepository) CountAll() (int, error) {
	query := `SELECT COUNT(*) FROM users`

	var count int
	err := r.db.QueryRow(query).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count all users: %w", err)
	}

	return count, nil
}
