package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"dealdesk/internal/models"
)

var ErrRoleNotFound = errors.New("role not found")

// RoleRepository handles role database operations
type RoleRepository struct {
	db *sql.DB
}

// NewRoleRepository creates a new role repository
func NewRoleRepository(db *sql.DB) *RoleRepository {
	return &RoleRepository{db: db}
}

// GetByID retrieves a role by ID with its permissions
func (r *RoleRepository) GetByID(id uint) (*models.Role, error) {
	query := `
		SELECT id, name, hierarchy_level, is_active, created_at, updated_at
		FROM roles
		WHERE id = $1
	`

	role := &models.Role{}
	err := r.db.QueryRow(query, id).Scan(
		&role.ID,
		&role.Name,
		&role.HierarchyLevel,
		&role.IsActive,
		&role.CreatedAt,
		&role.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, ErrRoleNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get role: %w", err)
	}

	if err := r.loadPermissions(role); err != nil {
		return nil, err
	}

	return role, nil
}

// GetByName retrieves a role by name with its permissions
func (r *RoleRepository) GetByName(name string) (*models.Role, error) {
	query := `
		SELECT id, name, hierarchy_level, is_active, created_at, updated_at
		FROM roles
		WHERE name = $1
	`

	role := &models.Role{}
	err := r.db.QueryRow(query, name).Scan(
		&role.ID,
		&role.Name,
		&role.HierarchyLevel,
		&role.IsActive,
		&role.CreatedAt,
		&role.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, ErrRoleNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get role by name: %w", err)
	}

	if err := r.loadPermissions(role); err != nil {
		return nil, err
	}

	return role, nil
}

// GetAll retrieves all roles ordered by hierarchy, highest first
func (r *RoleRepository) GetAll() ([]models.Role, error) {
	query := `
		SELECT id, name, hierarchy_level, is_active, created_at, updated_at
		FROM roles
		ORDER BY hierarchy_level DESC
	`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to get roles: %w", err)
	}
	defer rows.Close()

	var roles []models.Role
	for rows.Next() {
		var role models.Role
		if err := rows.Scan(&role.ID, &role.Name, &role.HierarchyLevel, &role.IsActive, &role.CreatedAt, &role.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan role: %w", err)
		}
		roles = append(roles, role)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate roles: %w", err)
	}

	for i := range roles {
		if err := r.loadPermissions(&roles[i]); err != nil {
			return nil, err
		}
	}

	return roles, nil
}

// loadPermissions fills in the role's permission tags
func (r *RoleRepository) loadPermissions(role *models.Role) error {
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
