package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"dealdesk/internal/models"
)

var ErrDealNotFound = errors.New("deal not found")

// DealRepository handles deal database operations
type DealRepository struct {
	db *sql.DB
}

// NewDealRepository creates a new deal repository
func NewDealRepository(db *sql.DB) *DealRepository {
	return &DealRepository{db: db}
}

// dealColumns is the select list shared by all deal queries, with the
// owner and the owner's role joined in.
const dealColumns = `
	d.id, d.name, d.company_url, d.owner_id, d.stage, d.round, d.check_size, d.status, d.created_at, d.updated_at,
	u.id, u.email, u.username, u.first_name, u.last_name, u.role_id, u.is_active, u.created_at, u.updated_at,
	r.id, r.name, r.hierarchy_level, r.is_active, r.created_at, r.updated_at
`

const dealJoins = `
	FROM deals d
	JOIN users u ON d.owner_id = u.id
	LEFT JOIN roles r ON u.role_id = r.id
`

// scanDeal scans a joined deal row including the expanded owner
func scanDeal(row interface{ Scan(...interface{}) error }) (*models.Deal, error) {
	deal := &models.Deal{}
	owner := &models.User{}
	var roleID sql.NullInt64
	var roleName sql.NullString
	var roleLevel sql.NullInt64
	var roleActive sql.NullBool
	var roleCreated, roleUpdated sql.NullTime

	err := row.Scan(
		&deal.ID,
		&deal.Name,
		&deal.CompanyURL,
		&deal.OwnerID,
		&deal.Stage,
		&deal.Round,
		&deal.CheckSize,
		&deal.Status,
		&deal.CreatedAt,
		&deal.UpdatedAt,
		&owner.ID,
		&owner.Email,
		&owner.Username,
		&owner.FirstName,
		&owner.LastName,
		&owner.RoleID,
		&owner.IsActive,
		&owner.CreatedAt,
		&owner.UpdatedAt,
		&roleID,
		&roleName,
		&roleLevel,
		&roleActive,
		&roleCreated,
		&roleUpdated,
	)
	if err != nil {
		return nil, err
	}

	if roleID.Valid {
		owner.Role = &models.Role{
			ID:             uint(roleID.Int64),
			Name:           roleName.String,
			HierarchyLevel: int(roleLevel.Int64),
			IsActive:       roleActive.Bool,
			CreatedAt:      roleCreated.Time,
			UpdatedAt:      roleUpdated.Time,
		}
	}
	deal.Owner = owner

	return deal, nil
}

// CreateTx inserts a new deal inside the given transaction
func (r *DealRepository) CreateTx(tx *sql.Tx, deal *models.Deal) error {
	query := `
		INSERT INTO deals (name, company_url, owner_id, stage, round, check_size, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`

	now := time.Now()
	err := tx.QueryRow(
		query,
		deal.Name,
		deal.CompanyURL,
		deal.OwnerID,
		deal.Stage,
		deal.Round,
		deal.CheckSize,
		deal.Status,
		now,
		now,
	).Scan(&deal.ID)

	if err != nil {
		return fmt.Errorf("failed to create deal: %w", err)
	}

	deal.CreatedAt = now
	deal.UpdatedAt = now
	return nil
}

// GetByID retrieves a deal by ID regardless of status, owner expanded
func (r *DealRepository) GetByID(id uint) (*models.Deal, error) {
	query := `SELECT ` + dealColumns + dealJoins + ` WHERE d.id = $1`

	deal, err := scanDeal(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, ErrDealNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get deal: %w", err)
	}

	return deal, nil
}

// GetByIDForUpdateTx fetches a deal inside the transaction and locks
// its row, serializing concurrent mutations of the same deal.
func (r *DealRepository) GetByIDForUpdateTx(tx *sql.Tx, id uint) (*models.Deal, error) {
	if _, err := tx.Exec(`SELECT id FROM deals WHERE id = $1 FOR UPDATE`, id); err != nil {
		return nil, fmt.Errorf("failed to lock deal: %w", err)
	}

	query := `SELECT ` + dealColumns + dealJoins + ` WHERE d.id = $1`

	deal, err := scanDeal(tx.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, ErrDealNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get deal: %w", err)
	}

	return deal, nil
}

// GetAllActive retrieves all active deals, newest first, owners expanded
func (r *DealRepository) GetAllActive() ([]models.Deal, error) {
	query := `SELECT ` + dealColumns + dealJoins + ` WHERE d.status = $1 ORDER BY d.created_at DESC`

	rows, err := r.db.Query(query, models.DealStatusActive)
	if err != nil {
		return nil, fmt.Errorf("failed to get deals: %w", err)
	}
	defer rows.Close()

	var deals []models.Deal
	for rows.Next() {
		deal, err := scanDeal(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan deal: %w", err)
		}
		deals = append(deals, *deal)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate deals: %w", err)
	}

	return deals, nil
}

// UpdateTx writes the deal's mutable fields inside the transaction
func (r *DealRepository) UpdateTx(tx *sql.Tx, deal *models.Deal) error {
	query := `
		UPDATE deals
		SET name = $1, company_url = $2, stage = $3, round = $4, check_size = $5, status = $6, updated_at = $7
		WHERE id = $8
	`

	deal.UpdatedAt = time.Now()
	_, err := tx.Exec(
		query,
		deal.Name,
		deal.CompanyURL,
		deal.Stage,
		deal.Round,
		deal.CheckSize,
		deal.Status,
		deal.UpdatedAt,
		deal.ID,
	)

	if err != nil {
		return fmt.Errorf("failed to update deal: %w", err)
	}

	return nil
}

// Exists reports whether a deal with the given ID exists, any status
func (r *DealRepository) Exists(id uint) (bool, error) {
	var exists bool
	err := r.db.QueryRow(`SELECT EXISTS(SELECT 1 FROM deals WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check deal existence: %w", err)
	}
	return exists, nil
}
