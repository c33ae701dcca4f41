package repository

import (
	"database/sql"
	"fmt"
	"time"

	"dealdesk/internal/models"
)

// ActivityRepository handles the append-only activity audit trail.
// Rows are never updated or deleted.
type ActivityRepository struct {
	db *sql.DB
}

// NewActivityRepository creates a new activity repository
func NewActivityRepository(db *sql.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// CreateTx appends an activity entry inside the transaction of the
// mutation it documents, so both commit or neither does.
func (r *ActivityRepository) CreateTx(tx *sql.Tx, activity *models.Activity) error {
	query := `
		INSERT INTO activities (deal_id, user_id, description, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	now := time.Now()
	err := tx.QueryRow(
		query,
		activity.DealID,
		activity.UserID,
		activity.Description,
		now,
	).Scan(&activity.ID)

	if err != nil {
		return fmt.Errorf("failed to create activity: %w", err)
	}

	activity.CreatedAt = now
	return nil
}

// ListForDeal retrieves all activities for a deal, newest first, with
// the acting user expanded.
func (r *ActivityRepository) ListForDeal(dealID uint) ([]models.Activity, error) {
	query := `
		SELECT a.id, a.deal_id, a.user_id, a.description, a.created_at,
		       u.id, u.email, u.username, u.first_name, u.last_name, u.role_id, u.is_active, u.created_at, u.updated_at
		FROM activities a
		JOIN users u ON a.user_id = u.id
		WHERE a.deal_id = $1
		ORDER BY a.created_at DESC
	`

	rows, err := r.db.Query(query, dealID)
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}
	defer rows.Close()

	var activities []models.Activity
	for rows.Next() {
		var activity models.Activity
		user := &models.User{}
		if err := rows.Scan(
			&activity.ID,
			&activity.DealID,
			&activity.UserID,
			&activity.Description,
			&activity.CreatedAt,
			&user.ID,
			&user.Email,
			&user.Username,
			&user.FirstName,
			&user.LastName,
			&user.RoleID,
			&user.IsActive,
			&user.CreatedAt,
			&user.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		activity.User = user
		activities = append(activities, activity)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate activities: %w", err)
	}

	return activities, nil
}

// CountForDeal returns the number of activities recorded for a deal
func (r *ActivityRepository) CountForDeal(dealID uint) (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM activities WHERE deal_id = $1`, dealID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count activities: %w", err)
	}
	return count, nil
}
