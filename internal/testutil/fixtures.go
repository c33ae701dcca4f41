package testutil

import (
	"database/sql"
	"testing"

	"dealdesk/internal/models"
	"dealdesk/internal/repository"

	"golang.org/x/crypto/bcrypt"
)

// Fixtures holds test data: one user per role, ready to act on deals.
type Fixtures struct {
	DB          *sql.DB
	AdminUser   *models.User
	AnalystUser *models.User
	PartnerUser *models.User
}

// SetupFixtures creates test data. Roles come from the seed migration;
// the users are created fresh.
func SetupFixtures(t *testing.T, db *sql.DB) *Fixtures {
	t.Helper()

	adminRole := getRole(t, db, "Admin")
	analystRole := getRole(t, db, "Analyst")
	partnerRole := getRole(t, db, "Partner")

	return &Fixtures{
		DB:          db,
		AdminUser:   createUser(t, db, "alice@test.com", "alice", "Alice", "Admin", adminRole.ID),
		AnalystUser: createUser(t, db, "bob@test.com", "bob", "Bob", "Analyst", analystRole.ID),
		PartnerUser: createUser(t, db, "carol@test.com", "carol", "Carol", "Partner", partnerRole.ID),
	}
}

// getRole fetches a seeded role by name
func getRole(t *testing.T, db *sql.DB, name string) *models.Role {
	t.Helper()

	role, err := repository.NewRoleRepository(db).GetByName(name)
	if err != nil {
		t.Fatalf("Failed to get role %s: %v", name, err)
	}
	return role
}

// createUser creates a user with the given role, password "password123"
func createUser(t *testing.T, db *sql.DB, email, username, firstName, lastName string, roleID uint) *models.User {
	t.Helper()

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}

	var id uint
	err = db.QueryRow(`
		INSERT INTO users (email, username, password_hash, first_name, last_name, role_id, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, true)
		RETURNING id
	`, email, username, string(hashedPassword), firstName, lastName, roleID).Scan(&id)
	if err != nil {
		t.Fatalf("Failed to create user %s: %v", email, err)
	}

	user, err := repository.NewUserRepository(db).GetByID(id)
	if err != nil {
		t.Fatalf("Failed to load user %s: %v", email, err)
	}
	return user
}

// CreateDeal inserts a deal owned by the given user
func (f *Fixtures) CreateDeal(t *testing.T, ownerID uint, name string) *models.Deal {
	t.Helper()

	var id uint
	err := f.DB.QueryRow(`
		INSERT INTO deals (name, owner_id) VALUES ($1, $2) RETURNING id
	`, name, ownerID).Scan(&id)
	if err != nil {
		t.Fatalf("Failed to create deal %s: %v", name, err)
	}

	deal, err := repository.NewDealRepository(f.DB).GetByID(id)
	if err != nil {
		t.Fatalf("Failed to load deal %s: %v", name, err)
	}
	return deal
}

// Cleanup removes all test data
func (f *Fixtures) Cleanup(t *testing.T) {
	t.Helper()

	// Cleanup is handled by container termination
	// Data is not persisted between tests
}
