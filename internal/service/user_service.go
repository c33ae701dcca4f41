package service

import (
	"dealdesk/internal/models"
	"dealdesk/internal/permissions"
	"dealdesk/internal/repository"
)

// UserService handles the admin-gated user administration surface
type UserService struct {
	userRepo *repository.UserRepository
	roleRepo *repository.RoleRepository
}

// NewUserService creates a new user service
func NewUserService(userRepo *repository.UserRepository, roleRepo *repository.RoleRepository) *UserService {
	return &UserService{
		userRepo: userRepo,
		roleRepo: roleRepo,
	}
}

// UserPatch carries the optional fields of a user update. Nil fields
// are left untouched.
type UserPatch struct {
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
	RoleID    *uint   `json:"role_id,omitempty"`
	IsActive  *bool   `json:"is_active,omitempty"`
}

// ListUsers returns all users with roles expanded. Admin only.
func (s *UserService) ListUsers(actor *models.User) ([]models.User, error) {
	if !permissions.IsAdmin(actor) {
		return nil, ErrForbidden
	}
	return s.userRepo.GetAll()
}

// UpdateUser applies a partial update to a user. Admin only. A role
// change must reference an existing role.
func (s *UserService) UpdateUser(actor *models.User, userID uint, patch UserPatch) (*models.User, error) {
	if !permissions.IsAdmin(actor) {
		return nil, ErrForbidden
	}

	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}

	if patch.RoleID != nil {
		if _, err := s.roleRepo.GetByID(*patch.RoleID); err != nil {
			return nil, err
		}
		user.RoleID = patch.RoleID
	}
	if patch.FirstName != nil {
		user.FirstName = *patch.FirstName
	}
	if patch.LastName != nil {
		user.LastName = *patch.LastName
	}
	if patch.IsActive != nil {
		user.IsActive = *patch.IsActive
	}

	if err := s.userRepo.Update(user); err != nil {
		return nil, err
	}

	return s.userRepo.GetByID(userID)
}

// ListRoles returns all roles with their permission tags. Admin only.
func (s *UserService) ListRoles(actor *models.User) ([]models.Role, error) {
	if !permissions.IsAdmin(actor) {
		return nil, ErrForbidden
	}
	return s.roleRepo.GetAll()
}
