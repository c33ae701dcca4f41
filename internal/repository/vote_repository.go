package repository

import (
	"database/sql"
	"fmt"
	"time"

	"dealdesk/internal/models"
)

// VoteRepository handles vote database operations
type VoteRepository struct {
	db *sql.DB
}

// NewVoteRepository creates a new vote repository
func NewVoteRepository(db *sql.DB) *VoteRepository {
	return &VoteRepository{db: db}
}

// Upsert inserts the user's vote on a deal, or overwrites the value and
// comment of their existing vote. The unique (deal_id, user_id)
// constraint makes this atomic under concurrent re-votes.
func (r *VoteRepository) Upsert(vote *models.Vote) error {
	query := `
		INSERT INTO votes (deal_id, user_id, value, comment, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		ON CONFLICT (deal_id, user_id)
		DO UPDATE SET value = EXCLUDED.value, comment = EXCLUDED.comment, updated_at = EXCLUDED.updated_at
		RETURNING id, created_at, updated_at
	`

	now := time.Now()
	err := r.db.QueryRow(
		query,
		vote.DealID,
		vote.UserID,
		vote.Value,
		vote.Comment,
		now,
	).Scan(&vote.ID, &vote.CreatedAt, &vote.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to upsert vote: %w", err)
	}

	return nil
}

// ListForDeal retrieves all votes on a deal, newest first, with the
// voting user expanded.
func (r *VoteRepository) ListForDeal(dealID uint) ([]models.Vote, error) {
	query := `
		SELECT v.id, v.deal_id, v.user_id, v.value, v.comment, v.created_at, v.updated_at,
		       u.id, u.email, u.username, u.first_name, u.last_name, u.role_id, u.is_active, u.created_at, u.updated_at
		FROM votes v
		JOIN users u ON v.user_id = u.id
		WHERE v.deal_id = $1
		ORDER BY v.created_at DESC
	`

	rows, err := r.db.Query(query, dealID)
	if err != nil {
		return nil, fmt.Errorf("failed to list votes: %w", err)
	}
	defer rows.Close()

	var votes []models.Vote
	for rows.Next() {
		var vote models.Vote
		user := &models.User{}
		if err := rows.Scan(
			&vote.ID,
			&vote.DealID,
			&vote.UserID,
			&vote.Value,
			&vote.Comment,
			&vote.CreatedAt,
			&vote.UpdatedAt,
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
			return nil, fmt.Errorf("failed to scan vote: %w", err)
		}
		vote.User = user
		votes = append(votes, vote)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate votes: %w", err)
	}

	return votes, nil
}

// Summary aggregates the votes on a deal
func (r *VoteRepository) Summary(dealID uint) (*models.VoteSummary, error) {
	query := `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE value = $2),
		       COUNT(*) FILTER (WHERE value = $3)
		FROM votes
		WHERE deal_id = $1
	`

	summary := &models.VoteSummary{}
	err := r.db.QueryRow(query, dealID, models.VoteApprove, models.VoteDecline).Scan(
		&summary.TotalVotes,
		&summary.Approve,
		&summary.Decline,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize votes: %w", err)
	}

	return summary, nil
}
